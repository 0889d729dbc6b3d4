// Package tca implements Timer/Counter type A in single-slope PWM mode
// only (the board never uses split mode or the other waveform generation
// modes). It counts up to PER, wraps to 0 raising OVF, and drives up to
// three WOn compare outputs through a port's peripheral-override
// mechanism.
package tca

import (
	"github.com/cab202/avremu/memory"
	"github.com/cab202/avremu/peripherals/port"
	"github.com/cab202/avremu/trace"
)

const (
	RegCTRLA    = 0x00
	RegCTRLB    = 0x01
	RegINTCTRL  = 0x0A
	RegINTFLAGS = 0x0B
	RegCNTL     = 0x20
	RegCNTH     = 0x21
	RegPERL     = 0x26
	RegPERH     = 0x27
	RegCMP0L    = 0x28
	RegCMP0H    = 0x29
	RegCMP1L    = 0x2A
	RegCMP1H    = 0x2B
	RegCMP2L    = 0x2C
	RegCMP2H    = 0x2D
	size        = 0x2E

	ctrlaEnable  = 1 << 0
	ctrlaClkSel  = 0x07 << 1 // CTRLA.CLKSEL, bits 3:1
	intflagsOVF  = 1 << 0
	intctrlOVF   = 1 << 0
	cmpnEnBase   = 1 << 4 // CTRLB.CMP0EN is bit4, CMP1EN bit5, CMP2EN bit6
)

// clkDivisors is CTRLA.CLKSEL's DIV1..DIV1024 table: the counter advances
// once every N ticks of the peripheral clock.
var clkDivisors = [8]uint16{1, 2, 4, 8, 16, 64, 256, 1024}

// TCA is the timer peripheral. cnt/per/cmp use the TEMP-latched shadow
// idiom for atomic 16-bit bus access; perShadow/cmpShadow hold the
// double-buffered values that promote into per/cmp at BOTTOM.
type TCA struct {
	ctrlA, ctrlB       uint8
	intCtrl, intFlags  uint8
	cnt                memory.Shadow16
	per                memory.Shadow16
	cmp                [3]memory.Shadow16
	perShadow          uint16
	cmpShadow          [3]uint16
	clkDiv             uint16 // remaining prescale ticks before the next count

	port    *port.Port
	woPins  [3]int // which Port bit each WOn channel drives
	sink    trace.Sink
}

// New returns a TCA whose three compare channels drive p's bits woPin0-2
// via peripheral override.
func New(p *port.Port, woPin0, woPin1, woPin2 int, sink trace.Sink) *TCA {
	if sink == nil {
		sink = trace.Discard{}
	}
	t := &TCA{port: p, woPins: [3]int{woPin0, woPin1, woPin2}, sink: sink}
	t.per.Set(0xFFFF)
	t.perShadow = 0xFFFF
	return t
}

// Tick implements peripherals.Clocked.
func (t *TCA) Tick(timeNS uint64) {
	if t.ctrlA&ctrlaEnable == 0 {
		t.releaseOverrides()
		t.clkDiv = 0
		return
	}
	if t.clkDiv > 0 {
		t.clkDiv--
		return
	}
	t.clkDiv = clkDivisors[(t.ctrlA&ctrlaClkSel)>>1] - 1

	cnt := t.cnt.Get()
	per := t.per.Get()
	if cnt == 0 {
		// BOTTOM: promote double-buffered PER/CMP.
		t.per.Set(t.perShadow)
		for i := range t.cmp {
			t.cmp[i].Set(t.cmpShadow[i])
		}
		per = t.per.Get()
	}
	for i := 0; i < 3; i++ {
		if t.ctrlB&(cmpnEnBase<<uint(i)) == 0 {
			t.port.Override(t.woPins[i], false, false)
			continue
		}
		high := cnt < t.cmp[i].Get()
		t.port.Override(t.woPins[i], true, high)
	}
	cnt++
	if cnt > per {
		cnt = 0
		t.intFlags |= intflagsOVF
	}
	t.cnt.Set(cnt)
}

func (t *TCA) releaseOverrides() {
	for i := 0; i < 3; i++ {
		t.port.Override(t.woPins[i], false, false)
	}
}

// Interrupt implements irq.Source.
func (t *TCA) Interrupt(mask uint8) bool {
	return t.intFlags&t.intCtrl&mask != 0
}

// Size implements memory.MemoryMapped.
func (t *TCA) Size() int { return size }

// Read implements memory.MemoryMapped.
func (t *TCA) Read(offset int) (uint8, int) {
	switch offset {
	case RegCTRLA:
		return t.ctrlA, 0
	case RegCTRLB:
		return t.ctrlB, 0
	case RegINTCTRL:
		return t.intCtrl, 0
	case RegINTFLAGS:
		return t.intFlags, 0
	case RegCNTL:
		return t.cnt.ReadLow(), 0
	case RegCNTH:
		return t.cnt.ReadHigh(), 0
	case RegPERL:
		return uint8(t.perShadow & 0xFF), 0
	case RegPERH:
		return uint8(t.perShadow >> 8), 0
	case RegCMP0L, RegCMP1L, RegCMP2L:
		return uint8(t.cmpShadow[(offset-RegCMP0L)/2] & 0xFF), 0
	case RegCMP0H, RegCMP1H, RegCMP2H:
		return uint8(t.cmpShadow[(offset-RegCMP0H)/2] >> 8), 0
	}
	return 0, 0
}

// Write implements memory.MemoryMapped. Writes to PER/CMPn go to the
// double-buffered shadow, promoted into the live register at BOTTOM.
func (t *TCA) Write(offset int, val uint8) int {
	switch offset {
	case RegCTRLA:
		t.ctrlA = val
	case RegCTRLB:
		t.ctrlB = val
	case RegINTCTRL:
		t.intCtrl = val
	case RegINTFLAGS:
		t.intFlags &^= val
	case RegCNTL:
		t.cnt.WriteLow(val)
	case RegCNTH:
		t.cnt.WriteHigh(val)
	case RegPERL:
		t.perShadow = (t.perShadow & 0xFF00) | uint16(val)
	case RegPERH:
		t.perShadow = (t.perShadow & 0x00FF) | uint16(val)<<8
	case RegCMP0L, RegCMP1L, RegCMP2L:
		i := (offset - RegCMP0L) / 2
		t.cmpShadow[i] = (t.cmpShadow[i] & 0xFF00) | uint16(val)
	case RegCMP0H, RegCMP1H, RegCMP2H:
		i := (offset - RegCMP0H) / 2
		t.cmpShadow[i] = (t.cmpShadow[i] & 0x00FF) | uint16(val)<<8
	}
	return 0
}
