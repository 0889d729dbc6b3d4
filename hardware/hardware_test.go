package hardware

import (
	"testing"

	"github.com/cab202/avremu/nets"
)

func TestLEDFollowsNetActiveLow(t *testing.T) {
	n := nets.New("LED_NET")
	led := NewLED("DS1", n, false, nil)

	var driver nets.PinCell
	driver.State = nets.DriveL
	n.Connect(&driver)
	n.Update()
	led.Update(0)
	if led.State() != LedOn {
		t.Errorf("active-low LED driven Low: state = %s, want On", led.State())
	}

	driver.State = nets.DriveH
	n.Update()
	led.Update(1)
	if led.State() != LedOff {
		t.Errorf("active-low LED driven High: state = %s, want Off", led.State())
	}
}

func TestPushbuttonPressRelease(t *testing.T) {
	n := nets.New("BTN")
	pb := NewPushbutton("S1", n, true, nil)

	pb.Event(0, "PRESS")
	n.Update()
	if n.State != nets.High {
		t.Errorf("after PRESS, net = %s, want High", n.State)
	}

	pb.Event(1, "release")
	n.Update()
	if n.State != nets.Undefined {
		t.Errorf("after RELEASE, net = %s, want Undefined (Open, unconnected otherwise)", n.State)
	}
}

func TestPotClampsAndScales(t *testing.T) {
	n := nets.New("POT")
	pot := NewPot("R1", n, nil)

	pot.Set(0, 1.5) // out of range, should clamp to 1.0
	n.Update()
	if n.Value != potSupplyVolts {
		t.Errorf("Set(1.5) clamped value = %v, want %v", n.Value, potSupplyVolts)
	}

	pot.Event(1, "0.5")
	n.Update()
	if n.Value != potSupplyVolts*0.5 {
		t.Errorf("Event(0.5) value = %v, want %v", n.Value, potSupplyVolts*0.5)
	}
}
