package hardware

import (
	"strings"

	"github.com/cab202/avremu/nets"
	"github.com/cab202/avremu/trace"
)

// PushbuttonState is whether the button is currently held.
type PushbuttonState int

const (
	Released PushbuttonState = iota
	Pressed
)

func (s PushbuttonState) String() string {
	if s == Pressed {
		return "Pressed"
	}
	return "Released"
}

// Pushbutton drives its net Open when released and to the active level
// when pressed.
type Pushbutton struct {
	name       string
	activeHigh bool
	net        *nets.Net
	pin        nets.PinCell
	state      PushbuttonState
	sink       trace.Sink
}

// NewPushbutton returns a released Pushbutton connected to net.
func NewPushbutton(name string, net *nets.Net, activeHigh bool, sink trace.Sink) *Pushbutton {
	if sink == nil {
		sink = trace.Discard{}
	}
	p := &Pushbutton{name: name, activeHigh: activeHigh, net: net, sink: sink}
	p.pin.State = nets.Open
	net.Connect(&p.pin)
	return p
}

// Update implements Hardware. The pushbutton has no time-driven behaviour
// of its own; state only changes on Press/Release.
func (p *Pushbutton) Update(timeNS uint64) {}

// Press drives the net to its active level.
func (p *Pushbutton) Press(timeNS uint64) {
	if p.state == Pressed {
		return
	}
	p.state = Pressed
	if p.activeHigh {
		p.pin.State = nets.DriveH
	} else {
		p.pin.State = nets.DriveL
	}
	trace.Event(p.sink, timeNS, "PB", p.name, "%s", p.state)
}

// Release returns the pin to Open.
func (p *Pushbutton) Release(timeNS uint64) {
	if p.state == Released {
		return
	}
	p.state = Released
	p.pin.State = nets.Open
	trace.Event(p.sink, timeNS, "PB", p.name, "%s", p.state)
}

// Event implements EventTarget: payload is "PRESS" or "RELEASE".
func (p *Pushbutton) Event(timeNS uint64, payload string) {
	switch strings.ToUpper(strings.TrimSpace(payload)) {
	case "PRESS":
		p.Press(timeNS)
	case "RELEASE":
		p.Release(timeNS)
	default:
		trace.Warningf(p.sink, "Pushbutton %s: unrecognised event %q", p.name, payload)
	}
}
