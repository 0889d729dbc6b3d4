package nets

import "testing"

func TestNetSingleDriver(t *testing.T) {
	n := New("TEST")
	var p PinCell
	n.Connect(&p)

	n.Update()
	if n.State != Undefined {
		t.Errorf("unconnected Open pin resolved to %s, want Undefined", n.State)
	}

	p.State = DriveH
	n.Update()
	if n.State != High {
		t.Errorf("DriveH resolved to %s, want High", n.State)
	}

	p.State = DriveL
	n.Update()
	if n.State != Low {
		t.Errorf("DriveL resolved to %s, want Low", n.State)
	}
}

func TestNetWeakPull(t *testing.T) {
	n := New("TEST")
	var weak PinCell
	weak.State = WeakPullUp
	n.Connect(&weak)

	n.Update()
	if n.State != High {
		t.Errorf("lone WeakPullUp resolved to %s, want High", n.State)
	}

	var driver PinCell
	driver.State = DriveL
	n.Connect(&driver)

	n.Update()
	if n.State != Low {
		t.Errorf("DriveL should override WeakPullUp, got %s", n.State)
	}
}

func TestNetContention(t *testing.T) {
	n := New("TEST")
	var a, b PinCell
	a.State = DriveH
	b.State = DriveL
	n.Connect(&a)
	n.Connect(&b)

	n.Update()
	if n.State != Undefined {
		t.Errorf("DriveH vs DriveL contention resolved to %s, want Undefined", n.State)
	}
}

func TestNetAnalog(t *testing.T) {
	n := New("TEST")
	var p PinCell
	p.State = DriveAnalog
	p.Analog = 1.65
	n.Connect(&p)

	n.Update()
	if n.State != Analog {
		t.Fatalf("resolved to %s, want Analog", n.State)
	}
	if n.Value != 1.65 {
		t.Errorf("Value = %v, want 1.65", n.Value)
	}
}

func TestNetUpdateIdempotent(t *testing.T) {
	n := New("TEST")
	var p PinCell
	p.State = DriveH
	n.Connect(&p)

	n.Update()
	first := n.State
	n.Update()
	if n.State != first {
		t.Errorf("repeated Update with unchanged pins produced a different state: %s then %s", first, n.State)
	}
}
