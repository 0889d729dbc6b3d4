package hardware

import (
	"strconv"
	"strings"

	"github.com/cab202/avremu/nets"
	"github.com/cab202/avremu/trace"
)

const potSupplyVolts = 3.3

// Pot models a potentiometer: its wiper drives an analog voltage
// proportional to its position, in [0, 1].
type Pot struct {
	name     string
	net      *nets.Net
	pin      nets.PinCell
	position float64
	sink     trace.Sink
}

// NewPot returns a Pot at position 0, connected to net.
func NewPot(name string, net *nets.Net, sink trace.Sink) *Pot {
	if sink == nil {
		sink = trace.Discard{}
	}
	p := &Pot{name: name, net: net, sink: sink}
	p.pin.State = nets.DriveAnalog
	net.Connect(&p.pin)
	return p
}

// Update implements Hardware: the pot has no time-driven behaviour of its
// own.
func (p *Pot) Update(timeNS uint64) {}

// Set moves the wiper to position (clamped to [0, 1]) and logs the change.
func (p *Pot) Set(timeNS uint64, position float64) {
	if position < 0 {
		position = 0
	}
	if position > 1 {
		position = 1
	}
	p.position = position
	p.pin.Analog = potSupplyVolts * position
	trace.Event(p.sink, timeNS, "POT", p.name, "%.3f", position)
}

// Event implements EventTarget: payload is a float position in [0, 1].
func (p *Pot) Event(timeNS uint64, payload string) {
	v, err := strconv.ParseFloat(strings.TrimSpace(payload), 64)
	if err != nil {
		trace.Warningf(p.sink, "Pot %s: unparseable position %q", p.name, payload)
		return
	}
	p.Set(timeNS, v)
}
