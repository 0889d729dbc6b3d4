// Package adc implements the analog-to-digital converter: single-ended
// conversion only, of either an 8-bit or 12-bit result, against a fixed
// reference voltage. A conversion always starts immediately on command
// (there is no trigger/delay mode) and takes CTRLE plus 9 (8-bit) or 13
// (12-bit) prescaled clock ticks to complete.
package adc

import (
	"math"

	"github.com/cab202/avremu/memory"
	"github.com/cab202/avremu/nets"
	"github.com/cab202/avremu/trace"
)

const (
	RegCTRLA    = 0x00
	RegCTRLB    = 0x01 // prescaler select (PRESC)
	RegCTRLE    = 0x02 // sample duration; writing any value here starts a conversion
	RegMUXPOS   = 0x03
	RegCOMMAND  = 0x04
	RegINTFLAGS = 0x05
	RegRESL     = 0x06
	RegRESH     = 0x07
	size        = 0x08

	ctrlaEnable  = 1 << 0
	ctrlaRes8Bit = 1 << 1
	ctrlaFreerun = 1 << 2
	ctrlaLeftAdj = 1 << 3

	ctrlbPresc = 0x07 // CTRLB.PRESC, bits 2:0

	intflagsRESRDY = 1 << 0

	ticks12Bit = 13
	ticks8Bit  = 9

	vref = 3.3
)

// prescDivisors is CTRLB.PRESC's divisor table, reusing the TCA-style
// DIV1..DIV1024 progression since the conversion-latency contract only
// names "prescaled ticks", not the ADC's full datasheet PRESC encoding.
var prescDivisors = [8]uint16{1, 2, 4, 8, 16, 64, 256, 1024}

// ADC is the peripheral. channels is indexed by MUXPOS to select which net
// is sampled.
type ADC struct {
	ctrlA, ctrlB, ctrlE, muxPos, intFlags uint8
	result                                memory.Shadow16

	running   bool
	ticksLeft int
	clkDiv    uint16

	channels []*nets.Net
	sink     trace.Sink
}

// New returns a disabled ADC multiplexing the given channel nets, selected
// by MUXPOS.
func New(channels []*nets.Net, sink trace.Sink) *ADC {
	if sink == nil {
		sink = trace.Discard{}
	}
	return &ADC{channels: channels, sink: sink}
}

func (a *ADC) startConversion() {
	base := ticks12Bit
	if a.ctrlA&ctrlaRes8Bit != 0 {
		base = ticks8Bit
	}
	a.ticksLeft = base + int(a.ctrlE)
	a.clkDiv = 0
	a.running = true
}

// Tick implements peripherals.Clocked.
func (a *ADC) Tick(timeNS uint64) {
	if !a.running {
		return
	}
	if a.clkDiv > 0 {
		a.clkDiv--
		return
	}
	a.clkDiv = prescDivisors[a.ctrlB&ctrlbPresc] - 1

	a.ticksLeft--
	if a.ticksLeft > 0 {
		return
	}
	a.running = false
	a.sample()
	a.intFlags |= intflagsRESRDY
	if a.ctrlA&ctrlaFreerun != 0 {
		a.startConversion()
	}
}

func (a *ADC) sample() {
	var raw int
	if int(a.muxPos) < len(a.channels) && a.channels[a.muxPos] != nil {
		n := a.channels[a.muxPos]
		switch n.State {
		case nets.Low:
			raw = 0
		case nets.High:
			raw = 0x0FFF
		case nets.Analog:
			raw = int(math.Round(4096 * n.Value / vref))
			if raw < 0 {
				raw = 0
			}
			if raw > 4095 {
				raw = 4095
			}
		default:
			raw = 0
		}
	}
	val := uint16(raw)
	if a.ctrlA&ctrlaRes8Bit != 0 {
		val >>= 4
	}
	if a.ctrlA&ctrlaLeftAdj != 0 {
		val <<= 4
	}
	a.result.Set(val)
}

// Interrupt implements irq.Source.
func (a *ADC) Interrupt(mask uint8) bool {
	return a.intFlags&mask != 0
}

// Size implements memory.MemoryMapped.
func (a *ADC) Size() int { return size }

// Read implements memory.MemoryMapped.
func (a *ADC) Read(offset int) (uint8, int) {
	switch offset {
	case RegCTRLA:
		return a.ctrlA, 0
	case RegCTRLB:
		return a.ctrlB, 0
	case RegCTRLE:
		return a.ctrlE, 0
	case RegMUXPOS:
		return a.muxPos, 0
	case RegINTFLAGS:
		return a.intFlags, 0
	case RegRESL:
		return a.result.ReadLow(), 0
	case RegRESH:
		return a.result.ReadHigh(), 0
	}
	return 0, 0
}

// Write implements memory.MemoryMapped. Writing CTRLE or COMMAND starts a
// conversion immediately.
func (a *ADC) Write(offset int, val uint8) int {
	switch offset {
	case RegCTRLA:
		a.ctrlA = val
	case RegCTRLB:
		a.ctrlB = val
	case RegMUXPOS:
		a.muxPos = val
	case RegCTRLE:
		a.ctrlE = val
		fallthrough
	case RegCOMMAND:
		if a.ctrlA&ctrlaEnable == 0 {
			trace.Warningf(a.sink, "ADC start requested while disabled, ignored")
			return 0
		}
		a.startConversion()
	case RegINTFLAGS:
		a.intFlags &^= val
	}
	return 0
}
