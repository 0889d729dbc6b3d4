package hardware

import (
	"github.com/cab202/avremu/nets"
	"github.com/cab202/avremu/trace"
)

// LedState is the LED's visible state as driven by its net.
type LedState int

const (
	LedOff LedState = iota
	LedOn
	LedUndefined
)

func (s LedState) String() string {
	switch s {
	case LedOn:
		return "On"
	case LedOff:
		return "Off"
	default:
		return "Undefined"
	}
}

// LED models a single indicator LED wired to one net, lighting when the
// net's state matches its configured active level.
type LED struct {
	name       string
	activeHigh bool
	net        *nets.Net
	pin        nets.PinCell
	state      LedState
	sink       trace.Sink
}

// NewLED returns an LED connected to net, weakly pulled to the inactive
// level so an undriven pin reads as off rather than floating undefined.
func NewLED(name string, net *nets.Net, activeHigh bool, sink trace.Sink) *LED {
	if sink == nil {
		sink = trace.Discard{}
	}
	l := &LED{name: name, activeHigh: activeHigh, net: net, sink: sink}
	if activeHigh {
		l.pin.State = nets.WeakPullDown
	} else {
		l.pin.State = nets.WeakPullUp
	}
	net.Connect(&l.pin)
	l.state = LedOff
	return l
}

// Update implements Hardware: logs only when the visible state changes.
func (l *LED) Update(timeNS uint64) {
	var next LedState
	switch l.net.State {
	case nets.High:
		if l.activeHigh {
			next = LedOn
		} else {
			next = LedOff
		}
	case nets.Low:
		if l.activeHigh {
			next = LedOff
		} else {
			next = LedOn
		}
	default:
		next = LedUndefined
	}
	if next == l.state {
		return
	}
	l.state = next
	trace.Event(l.sink, timeNS, "LED", l.name, "%s", next)
}

// State returns the LED's current visible state.
func (l *LED) State() LedState { return l.state }
