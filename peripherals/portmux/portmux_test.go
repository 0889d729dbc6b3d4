package portmux

import "testing"

func TestWriteEchoesBackOnRead(t *testing.T) {
	p := New(nil)
	p.Write(regTCBROUTEA, 0x3)
	if got, _ := p.Read(regTCBROUTEA); got != 0x3 {
		t.Errorf("read back = %.2X, want 3", got)
	}
}

func TestOutOfRangeIgnored(t *testing.T) {
	p := New(nil)
	p.Write(numRegs, 0xFF)
	if got, _ := p.Read(numRegs); got != 0 {
		t.Errorf("out-of-range read = %.2X, want 0", got)
	}
}

func TestUnwrittenRegisterReadsZero(t *testing.T) {
	p := New(nil)
	if got, _ := p.Read(regEVSYSROUTEA); got != 0 {
		t.Errorf("unwritten register = %.2X, want 0", got)
	}
}
