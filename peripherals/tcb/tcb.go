// Package tcb implements Timer/Counter type B in periodic interrupt mode
// only: it counts up to CCMP, raises CAPT and OVF, and resets to zero.
package tcb

import (
	"github.com/cab202/avremu/memory"
	"github.com/cab202/avremu/trace"
)

const (
	RegCTRLA    = 0x00
	RegINTCTRL  = 0x06
	RegINTFLAGS = 0x07
	RegCNTL     = 0x0A
	RegCNTH     = 0x0B
	RegCCMPL    = 0x0C
	RegCCMPH    = 0x0D
	size        = 0x0E

	ctrlaEnable = 1 << 0
	ctrlaClkSel = 0x03 << 1 // CTRLA.CLKSEL, bits 2:1
	captFlag    = 1 << 0
	ovfFlag     = 1 << 1
)

// clkDivisors is CTRLA.CLKSEL's divisor table: CLKDIV1, CLKDIV2. CLKTCA
// (use TCA0's clock) isn't modelled, so it falls back to CLKDIV1 with a
// warning, same as the source's other unimplemented-feature fallbacks.
var clkDivisors = [4]uint16{1, 2, 1, 1}

// TCB is the timer peripheral.
type TCB struct {
	ctrlA, intCtrl, intFlags uint8
	cnt, ccmp                memory.Shadow16
	clkDiv                   uint16
	sink                     trace.Sink
}

// New returns a disabled TCB with CCMP at its reset value.
func New(sink trace.Sink) *TCB {
	if sink == nil {
		sink = trace.Discard{}
	}
	t := &TCB{sink: sink}
	t.ccmp.Set(0xFFFF)
	return t
}

// Tick implements peripherals.Clocked.
func (t *TCB) Tick(timeNS uint64) {
	if t.ctrlA&ctrlaEnable == 0 {
		t.clkDiv = 0
		return
	}
	if t.clkDiv > 0 {
		t.clkDiv--
		return
	}
	t.clkDiv = clkDivisors[(t.ctrlA&ctrlaClkSel)>>1] - 1

	cnt := t.cnt.Get()
	if cnt >= t.ccmp.Get() {
		t.cnt.Set(0)
		t.intFlags |= captFlag | ovfFlag
		return
	}
	t.cnt.Set(cnt + 1)
}

// Interrupt implements irq.Source.
func (t *TCB) Interrupt(mask uint8) bool {
	return t.intFlags&t.intCtrl&mask != 0
}

// Size implements memory.MemoryMapped.
func (t *TCB) Size() int { return size }

// Read implements memory.MemoryMapped.
func (t *TCB) Read(offset int) (uint8, int) {
	switch offset {
	case RegCTRLA:
		return t.ctrlA, 0
	case RegINTCTRL:
		return t.intCtrl, 0
	case RegINTFLAGS:
		return t.intFlags, 0
	case RegCNTL:
		return t.cnt.ReadLow(), 0
	case RegCNTH:
		return t.cnt.ReadHigh(), 0
	case RegCCMPL:
		return t.ccmp.ReadLow(), 0
	case RegCCMPH:
		return t.ccmp.ReadHigh(), 0
	}
	return 0, 0
}

// Write implements memory.MemoryMapped.
func (t *TCB) Write(offset int, val uint8) int {
	switch offset {
	case RegCTRLA:
		t.ctrlA = val
		if (val&ctrlaClkSel)>>1 >= 2 {
			trace.Warningf(t.sink, "TCB CLKTCA clock select is not implemented, falling back to CLKDIV1")
		}
	case RegINTCTRL:
		t.intCtrl = val
	case RegINTFLAGS:
		t.intFlags &^= val
	case RegCNTL:
		t.cnt.WriteLow(val)
	case RegCNTH:
		t.cnt.WriteHigh(val)
	case RegCCMPL:
		t.ccmp.WriteLow(val)
	case RegCCMPH:
		t.ccmp.WriteHigh(val)
	}
	return 0
}
