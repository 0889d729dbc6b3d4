package hardware

import "github.com/cab202/avremu/nets"

type clockState int

const (
	clkUndefined clockState = iota
	clkLow
	clkHigh
)

func sample(s nets.NetState) clockState {
	switch s {
	case nets.High:
		return clkHigh
	case nets.Low:
		return clkLow
	default:
		return clkUndefined
	}
}

// IC74HC595 models the 74HC595 serial-in/parallel-out shift register: an
// 8-bit shift register latched into an 8-bit output register on STCP,
// clocked in on SHCP, with asynchronous master reset and output-enable.
type IC74HC595 struct {
	shcpNet, stcpNet, dsNet, oeNet, mrNet *nets.Net
	shcpState, stcpState                 clockState

	shiftReg, latchReg uint8

	qOut  [8]*nets.Net
	qPins [8]nets.PinCell
}

// NewIC74HC595 returns a shift register wired to its control nets; the
// eight Q outputs are connected with Connect once the caller has the
// corresponding board nets in hand.
func NewIC74HC595(shcp, stcp, ds, oe, mr *nets.Net) *IC74HC595 {
	return &IC74HC595{shcpNet: shcp, stcpNet: stcp, dsNet: ds, oeNet: oe, mrNet: mr}
}

// ConnectQ wires output bit n (0-7) to net.
func (r *IC74HC595) ConnectQ(n int, net *nets.Net) {
	r.qOut[n] = net
	net.Connect(&r.qPins[n])
}

// Update implements Hardware: samples SHCP/STCP edges and MR/OE levels
// once per step.
func (r *IC74HC595) Update(timeNS uint64) {
	newShcp := sample(r.shcpNet.State)
	newStcp := sample(r.stcpNet.State)

	shcpRising := r.shcpState != clkHigh && newShcp == clkHigh
	stcpRising := r.stcpState != clkHigh && newStcp == clkHigh
	mrLow := r.mrNet.State == nets.Low

	if mrLow {
		r.shiftReg = 0
		if stcpRising {
			r.latchReg = 0
		}
	} else {
		if stcpRising {
			r.latchReg = r.shiftReg
		}
		if shcpRising {
			ds := uint8(0)
			if r.dsNet.State == nets.High {
				ds = 1
			}
			r.shiftReg = r.shiftReg<<1 | ds
		}
	}

	r.shcpState = newShcp
	r.stcpState = newStcp

	oeLow := r.oeNet.State == nets.Low
	for i := 0; i < 8; i++ {
		if !oeLow {
			r.qPins[i].State = nets.Open
			continue
		}
		if r.latchReg&(1<<uint(i)) != 0 {
			r.qPins[i].State = nets.DriveH
		} else {
			r.qPins[i].State = nets.DriveL
		}
	}
}
