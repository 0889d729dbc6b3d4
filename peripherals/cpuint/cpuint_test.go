package cpuint

import "testing"

type fakeSource struct {
	pending bool
}

func (f *fakeSource) Interrupt(mask uint8) bool {
	return f.pending
}

func TestServicePendingRegistrationOrder(t *testing.T) {
	c := New(nil)
	a := &fakeSource{}
	b := &fakeSource{pending: true}
	c.AddSource(3, a, 0x01)
	c.AddSource(5, b, 0x01)

	vector, ok := c.ServicePending()
	if !ok {
		t.Fatalf("ServicePending: ok = false, want true")
	}
	if vector != 2*5 {
		t.Errorf("vector = %d, want %d", vector, 2*5)
	}

	a.pending = true
	b.pending = false
	// Controller is mid-service (lvl0 set by the prior call) until Reti.
	if _, ok := c.ServicePending(); ok {
		t.Fatalf("ServicePending returned true while lvl0 still set")
	}
	c.Reti()
	vector, ok = c.ServicePending()
	if !ok || vector != 2*3 {
		t.Errorf("after Reti: vector, ok = %d, %v, want %d, true", vector, ok, 2*3)
	}
}

func TestServicePendingNoneReady(t *testing.T) {
	c := New(nil)
	c.AddSource(0, &fakeSource{pending: false}, 0xFF)
	if _, ok := c.ServicePending(); ok {
		t.Errorf("ServicePending: ok = true with no source pending")
	}
}

func TestStatusRegisterReflectsLvl0(t *testing.T) {
	c := New(nil)
	c.AddSource(1, &fakeSource{pending: true}, 0x01)

	if v, cost := c.Read(regStatus); v != 0 || cost != 0 {
		t.Errorf("initial CPUINT_STATUS = %d, cost %d, want 0, 0", v, cost)
	}
	if _, ok := c.ServicePending(); !ok {
		t.Fatalf("expected a pending interrupt")
	}
	if v, _ := c.Read(regStatus); v != 1 {
		t.Errorf("CPUINT_STATUS after service = %d, want 1 (LVL0EX set)", v)
	}
	c.Reti()
	if v, _ := c.Read(regStatus); v != 0 {
		t.Errorf("CPUINT_STATUS after Reti = %d, want 0", v)
	}
}

func TestStatusWriteIgnored(t *testing.T) {
	c := New(nil)
	c.AddSource(0, &fakeSource{pending: true}, 0x01)
	c.ServicePending()
	c.Write(regStatus, 0)
	if v, _ := c.Read(regStatus); v != 1 {
		t.Errorf("write to CPUINT_STATUS changed state: got %d, want 1 (unchanged)", v)
	}
}
