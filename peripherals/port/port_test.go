package port

import (
	"testing"

	"github.com/cab202/avremu/nets"
)

func TestDirOutDrivesNet(t *testing.T) {
	p := New()
	n := nets.New("PA0")
	p.Connect(0, n)

	p.Write(RegDIR, 0x01)
	p.Write(RegOUT, 0x01)
	p.Tick(0)
	n.Update()
	if n.State != nets.High {
		t.Fatalf("net state = %s, want High", n.State)
	}

	p.Write(RegOUTCLR, 0x01)
	p.Tick(0)
	n.Update()
	if n.State != nets.Low {
		t.Errorf("net state after OUTCLR = %s, want Low", n.State)
	}
}

func TestInputSampledFromNet(t *testing.T) {
	p := New()
	n := nets.New("PA2")
	p.Connect(2, n)

	var driver nets.PinCell
	driver.State = nets.DriveH
	n.Connect(&driver)

	n.Update()
	p.Tick(0)
	if p.In&(1<<2) == 0 {
		t.Errorf("IN bit 2 = 0, want set after net driven High")
	}

	driver.State = nets.DriveL
	n.Update()
	p.Tick(0)
	if p.In&(1<<2) != 0 {
		t.Errorf("IN bit 2 set, want clear after net driven Low")
	}
}

func TestOverrideBypassesDirOut(t *testing.T) {
	p := New()
	n := nets.New("PB0")
	p.Connect(0, n)
	p.Write(RegDIR, 0x00) // DIR says input
	p.Write(RegOUT, 0x00)

	p.Override(0, true, true)
	p.Tick(0)
	n.Update()
	if n.State != nets.High {
		t.Errorf("net state under override = %s, want High", n.State)
	}

	p.Override(0, false, false)
	p.Tick(0)
	n.Update()
	if n.State == nets.High {
		t.Errorf("net still High after override released with DIR=input")
	}
}

func TestPullupAppliesWhenOpen(t *testing.T) {
	p := New()
	n := nets.New("PC0")
	p.Connect(0, n)
	p.Write(RegPIN0CTRL, pinCtrlPullupEn)
	p.Tick(0)
	n.Update()
	if n.State != nets.High {
		t.Errorf("net state = %s, want High via weak pull-up", n.State)
	}
}

func TestVirtualPortMirrorsPort(t *testing.T) {
	p := New()
	v := NewVirtual(p)
	v.Write(0, 0xAA) // DIR
	v.Write(1, 0x55) // OUT
	if p.Dir != 0xAA || p.Out != 0x55 {
		t.Fatalf("Dir,Out = %.2X,%.2X, want AA,55", p.Dir, p.Out)
	}
	p.In = 0x3C
	if got, _ := v.Read(2); got != 0x3C {
		t.Errorf("VirtualPort IN read = %.2X, want 3C", got)
	}
	v.Write(2, 0xFF) // IN is read-only
	if p.In != 0x3C {
		t.Errorf("write to VirtualPort IN mutated state: got %.2X", p.In)
	}
}
