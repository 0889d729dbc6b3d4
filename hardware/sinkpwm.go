package hardware

import (
	"fmt"

	"github.com/cab202/avremu/nets"
	"github.com/cab202/avremu/trace"
)

// noEdgeTimeoutNS is how long SinkPWM waits without an edge before declaring
// the signal DC rather than continuing to report a stale frequency.
const noEdgeTimeoutNS = 50_000_000

// SinkPWM models a generic PWM-driven sink (a buzzer, a fan, any on/off
// actuator) by tracking rising/falling edges on its net and deriving
// frequency and duty cycle from the edge timestamps.
type SinkPWM struct {
	kind string
	name string
	net  *nets.Net
	pin  nets.PinCell

	level      clockState
	lastRising uint64
	lastFall   uint64
	lastEdge   uint64
	haveEdges  bool
	period     uint64
	highTime   uint64

	lastLog string
	sink    trace.Sink
}

// NewSinkPWM returns a SinkPWM reading net, logging under the given kind
// (e.g. "PWM", "BUZZER" per the log kind taxonomy), with a weak pull-down
// so an undriven pin reads as off.
func NewSinkPWM(kind, name string, net *nets.Net, sink trace.Sink) *SinkPWM {
	if sink == nil {
		sink = trace.Discard{}
	}
	s := &SinkPWM{kind: kind, name: name, net: net, sink: sink}
	s.pin.State = nets.WeakPullDown
	net.Connect(&s.pin)
	return s
}

// NewBuzzer returns a SinkPWM logging under the distinct BUZZER kind, for
// the board's buzzer net.
func NewBuzzer(name string, net *nets.Net, sink trace.Sink) *SinkPWM {
	return NewSinkPWM("BUZZER", name, net, sink)
}

// Update implements Hardware: samples the net once per step, tracking edges
// to derive frequency/duty and declaring DC after a timeout with no edges.
func (s *SinkPWM) Update(timeNS uint64) {
	next := sample(s.net.State)
	rising := s.level != clkHigh && next == clkHigh
	falling := s.level == clkHigh && next != clkHigh

	switch {
	case rising:
		if s.haveEdges {
			s.period = timeNS - s.lastRising
		}
		s.lastRising = timeNS
		s.lastEdge = timeNS
		s.haveEdges = true
	case falling:
		if s.haveEdges {
			s.highTime = timeNS - s.lastRising
		}
		s.lastFall = timeNS
		s.lastEdge = timeNS
	}
	s.level = next

	// Only a genuine silence of noEdgeTimeoutNS with no edges at all
	// declares the signal settled DC -- not merely "no period measured
	// yet", which is also true for the very first half-cycle of any
	// oscillating signal.
	if s.haveEdges && timeNS-s.lastEdge >= noEdgeTimeoutNS {
		s.haveEdges = false
		s.period = 0
	}

	var msg string
	switch {
	case s.haveEdges && s.period > 0:
		freq := 1e9 / float64(s.period)
		duty := 100 * float64(s.highTime) / float64(s.period)
		msg = fmt.Sprintf("%.0f Hz, %.0f %%", freq, duty)
	case next == clkHigh:
		msg = "DC high"
	default:
		msg = "DC low"
	}

	if msg == s.lastLog {
		return
	}
	s.lastLog = msg
	trace.Event(s.sink, timeNS, s.kind, s.name, "%s", msg)
}
