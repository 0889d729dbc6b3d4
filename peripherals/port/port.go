// Package port implements the GPIO port peripheral: eight pins with a
// direction/output/input register triad, per-pin control registers, and a
// peripheral-override mechanism other on-chip peripherals (TCA, USART,
// SPI) use to drive a pin directly without going through DIR/OUT.
package port

import "github.com/cab202/avremu/nets"

// Register offsets, matching the AVRxt PORT struct layout.
const (
	RegDIR      = 0x00
	RegDIRSET   = 0x01
	RegDIRCLR   = 0x02
	RegDIRTGL   = 0x03
	RegOUT      = 0x04
	RegOUTSET   = 0x05
	RegOUTCLR   = 0x06
	RegOUTTGL   = 0x07
	RegIN       = 0x08
	RegINTFLAGS = 0x09
	RegPORTCTRL = 0x0A
	RegPIN0CTRL = 0x10
	size        = 0x18
)

const pinCtrlPullupEn = 1 << 3

// Port is an 8-bit GPIO bank. Each bit has its own net connection; IN is
// sampled from the net's resolved state as of the previous step, and
// DIR/OUT drive the pin unless a peripheral override is active for that
// bit.
type Port struct {
	Dir      uint8
	Out      uint8
	In       uint8
	IntFlags uint8
	PortCtrl uint8
	PinCtrl  [8]uint8

	overrideMask uint8 // bits a peripheral is currently driving directly
	overrideVal  uint8 // driven level for those bits (1 = high)

	cells [8]nets.PinCell
	ins   [8]*nets.Net
}

// New returns an unconnected Port.
func New() *Port {
	return &Port{}
}

// Connect attaches bit's pin cell to net, in both directions: net.Connect
// registers the cell as a driver, and the Port keeps a reference back to
// read the net's resolved state for IN.
func (p *Port) Connect(bit int, net *nets.Net) {
	net.Connect(&p.cells[bit])
	p.ins[bit] = net
}

// Override lets a peripheral (TCA's WOn, USART's TXD, SPI's SCK/MOSI) drive
// bit directly, bypassing DIR/OUT, for as long as it keeps calling this
// each tick. Clearing bit from mask on a later call releases it back to
// DIR/OUT control.
func (p *Port) Override(bit int, driven bool, high bool) {
	m := uint8(1) << uint(bit)
	if driven {
		p.overrideMask |= m
		if high {
			p.overrideVal |= m
		} else {
			p.overrideVal &^= m
		}
	} else {
		p.overrideMask &^= m
	}
}

// pinState computes the outward PinState for bit per the fixed priority:
// peripheral override, then DIR+OUT, then the pin's own pull-up
// configuration, else Open.
func (p *Port) pinState(bit int) nets.PinState {
	m := uint8(1) << uint(bit)
	if p.overrideMask&m != 0 {
		if p.overrideVal&m != 0 {
			return nets.DriveH
		}
		return nets.DriveL
	}
	if p.Dir&m != 0 {
		if p.Out&m != 0 {
			return nets.DriveH
		}
		return nets.DriveL
	}
	if p.PinCtrl[bit]&pinCtrlPullupEn != 0 {
		return nets.WeakPullUp
	}
	return nets.Open
}

// Tick drives every pin's outgoing state and samples IN from each
// connected net's state as resolved at the end of the previous step.
func (p *Port) Tick(timeNS uint64) {
	for i := 0; i < 8; i++ {
		p.cells[i].State = p.pinState(i)
		if p.ins[i] == nil {
			continue
		}
		switch p.ins[i].State {
		case nets.High:
			p.In |= 1 << uint(i)
		case nets.Analog:
			if p.ins[i].Value >= 1.65 {
				p.In |= 1 << uint(i)
			} else {
				p.In &^= 1 << uint(i)
			}
		default:
			p.In &^= 1 << uint(i)
		}
	}
}

// Size implements memory.MemoryMapped.
func (p *Port) Size() int { return size }

// Read implements memory.MemoryMapped.
func (p *Port) Read(offset int) (uint8, int) {
	switch {
	case offset == RegDIR:
		return p.Dir, 0
	case offset == RegOUT:
		return p.Out, 0
	case offset == RegIN:
		return p.In, 0
	case offset == RegINTFLAGS:
		return p.IntFlags, 0
	case offset == RegPORTCTRL:
		return p.PortCtrl, 0
	case offset >= RegPIN0CTRL && offset < RegPIN0CTRL+8:
		return p.PinCtrl[offset-RegPIN0CTRL], 0
	}
	return 0, 0
}

// Write implements memory.MemoryMapped, including the SET/CLR/TGL alias
// registers for DIR and OUT.
func (p *Port) Write(offset int, val uint8) int {
	switch {
	case offset == RegDIR:
		p.Dir = val
	case offset == RegDIRSET:
		p.Dir |= val
	case offset == RegDIRCLR:
		p.Dir &^= val
	case offset == RegDIRTGL:
		p.Dir ^= val
	case offset == RegOUT:
		p.Out = val
	case offset == RegOUTSET:
		p.Out |= val
	case offset == RegOUTCLR:
		p.Out &^= val
	case offset == RegOUTTGL:
		p.Out ^= val
	case offset == RegINTFLAGS:
		p.IntFlags &^= val // write-1-to-clear
	case offset == RegPORTCTRL:
		p.PortCtrl = val
	case offset >= RegPIN0CTRL && offset < RegPIN0CTRL+8:
		p.PinCtrl[offset-RegPIN0CTRL] = val
	}
	return 0
}

// VirtualPort is the 4-byte {DIR,OUT,IN,INTFLAGS} view of a Port mapped
// into the low I/O space for single-cycle access, per the AVRxt VPORT
// mechanism.
type VirtualPort struct {
	p *Port
}

// NewVirtual returns a VirtualPort view onto p.
func NewVirtual(p *Port) *VirtualPort { return &VirtualPort{p: p} }

// Size implements memory.MemoryMapped.
func (v *VirtualPort) Size() int { return 4 }

// Read implements memory.MemoryMapped.
func (v *VirtualPort) Read(offset int) (uint8, int) {
	switch offset {
	case 0:
		return v.p.Dir, 0
	case 1:
		return v.p.Out, 0
	case 2:
		return v.p.In, 0
	case 3:
		return v.p.IntFlags, 0
	}
	return 0, 0
}

// Write implements memory.MemoryMapped.
func (v *VirtualPort) Write(offset int, val uint8) int {
	switch offset {
	case 0:
		v.p.Dir = val
	case 1:
		v.p.Out = val
	case 2:
		// IN is read-only.
	case 3:
		v.p.IntFlags &^= val
	}
	return 0
}
