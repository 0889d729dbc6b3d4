// Package nets implements the four-valued tri-state bus arbitration used to
// couple microcontroller GPIO drivers to off-chip hardware models.
package nets

import "fmt"

// PinState is the state a single driver places onto a Net. Exactly one
// owner (the peripheral or hardware model holding the driving side) may
// mutate a given PinState; the Net only reads it during resolution.
type PinState int

const (
	Open PinState = iota
	WeakPullDown
	WeakPullUp
	UndefinedWeak
	DriveL
	DriveH
	DriveAnalog
	UndefinedStrong
)

func (p PinState) String() string {
	switch p {
	case Open:
		return "Open"
	case WeakPullDown:
		return "WeakPullDown"
	case WeakPullUp:
		return "WeakPullUp"
	case UndefinedWeak:
		return "UndefinedWeak"
	case DriveL:
		return "DriveL"
	case DriveH:
		return "DriveH"
	case DriveAnalog:
		return "DriveAnalog"
	case UndefinedStrong:
		return "UndefinedStrong"
	default:
		return "Invalid"
	}
}

// Pin is a single driver's contribution to a Net. Analog is only
// meaningful when State == DriveAnalog.
type Pin struct {
	State  PinState
	Analog float64
}

// NetState is the resolved, reduced value of a Net after arbitration.
type NetState int

const (
	Undefined NetState = iota
	Low
	High
	Analog
)

func (n NetState) String() string {
	switch n {
	case Undefined:
		return "Undefined"
	case Low:
		return "Low"
	case High:
		return "High"
	case Analog:
		return "Analog"
	default:
		return "Invalid"
	}
}

// PinRef is a weak reference to a driver's pin. Nets hold these rather than
// owning pins directly, so removing a component never dangles the net.
type PinRef interface {
	Get() Pin
}

// PinCell is the concrete, owned storage for a single driver's PinState; it
// implements PinRef so a Net can read it without taking ownership.
type PinCell struct {
	State  PinState
	Analog float64
}

// Get implements PinRef.
func (c *PinCell) Get() Pin {
	return Pin{State: c.State, Analog: c.Analog}
}

// Net is a named electrical connection with a resolved state that is a pure
// function of its connected pins' states at the moment of resolution.
type Net struct {
	Name  string
	State NetState
	Value float64 // valid when State == Analog

	pins []PinRef
}

// New returns an unconnected, unresolved net.
func New(name string) *Net {
	return &Net{Name: name}
}

// Connect attaches a driver's pin to this net.
func (n *Net) Connect(p PinRef) {
	n.pins = append(n.pins, p)
}

// dominant folds one incoming pin into the current dominant pin-state per
// the arbitration lattice. Idempotent and commutative over insertion order.
func dominant(cur, in Pin) Pin {
	switch in.State {
	case Open:
		return cur
	}
	switch cur.State {
	case Open:
		return in
	case WeakPullDown:
		switch in.State {
		case WeakPullUp:
			return Pin{State: UndefinedWeak}
		case DriveL, DriveH, DriveAnalog:
			return in
		}
		return cur
	case WeakPullUp:
		switch in.State {
		case WeakPullDown:
			return Pin{State: UndefinedWeak}
		case DriveL, DriveH, DriveAnalog:
			return in
		}
		return cur
	case UndefinedWeak:
		switch in.State {
		case DriveL, DriveH, DriveAnalog:
			return in
		}
		return cur
	case DriveL:
		switch in.State {
		case DriveH, DriveAnalog:
			return Pin{State: UndefinedStrong}
		}
		return cur
	case DriveH:
		switch in.State {
		case DriveL, DriveAnalog:
			return Pin{State: UndefinedStrong}
		}
		return cur
	case DriveAnalog:
		switch in.State {
		case DriveL, DriveH, DriveAnalog:
			return Pin{State: UndefinedStrong}
		}
		return cur
	case UndefinedStrong:
		return cur
	}
	return cur
}

// Update recomputes the net's resolved state by folding every connected
// pin's state in insertion order. Calling Update twice in a row with
// unchanged pin states yields the same result (idempotent).
func (n *Net) Update() {
	dps := Pin{State: Open}
	for _, p := range n.pins {
		dps = dominant(dps, p.Get())
	}

	var newState NetState
	var newValue float64
	switch dps.State {
	case Open, UndefinedWeak, UndefinedStrong:
		newState = Undefined
	case WeakPullDown, DriveL:
		newState = Low
	case WeakPullUp, DriveH:
		newState = High
	case DriveAnalog:
		newState = Analog
		newValue = dps.Analog
	default:
		newState = Undefined
	}

	n.State = newState
	n.Value = newValue
}

// String implements fmt.Stringer for convenient trace output.
func (n *Net) String() string {
	if n.State == Analog {
		return fmt.Sprintf("%s=Analog(%.3f)", n.Name, n.Value)
	}
	return fmt.Sprintf("%s=%s", n.Name, n.State)
}
