package core

import "github.com/cab202/avremu/trace"

const regCCP = 0x04
const ccpSignature = 0xD8
const ccpWindowCycles = 4

// ccpTarget is the subset of peripherals.Ccp this package needs, declared
// locally so core doesn't import peripherals.
type ccpTarget interface {
	CCP(open bool)
}

// CCPGate is the small memory-mapped peripheral backing the CPU.CCP
// register: a write of 0xD8 opens a 4-cycle Configuration Change
// Protection window on every registered target, after which the window
// closes again on its own.
type CCPGate struct {
	targets  []ccpTarget
	cyclesLeft int
	sink     trace.Sink
}

// NewCCPGate returns a closed CCPGate.
func NewCCPGate(sink trace.Sink) *CCPGate {
	if sink == nil {
		sink = trace.Discard{}
	}
	return &CCPGate{sink: sink}
}

// AddTarget registers a peripheral to be notified when the CCP window
// opens and closes.
func (g *CCPGate) AddTarget(t ccpTarget) {
	g.targets = append(g.targets, t)
}

// Tick implements peripherals.Clocked: counts the open window down and
// closes it again when it expires.
func (g *CCPGate) Tick(timeNS uint64) {
	if g.cyclesLeft == 0 {
		return
	}
	g.cyclesLeft--
	if g.cyclesLeft == 0 {
		for _, t := range g.targets {
			t.CCP(false)
		}
	}
}

// Size implements memory.MemoryMapped. The region is wider than the single
// CCP register since it sits at a fixed offset (0x04) within the CPU
// peripheral's block; the lower offsets are unused here.
func (g *CCPGate) Size() int { return regCCP + 1 }

// Read implements memory.MemoryMapped.
func (g *CCPGate) Read(offset int) (uint8, int) { return 0, 0 }

// Write implements memory.MemoryMapped: only the exact signature byte
// opens the window; anything else is dropped.
func (g *CCPGate) Write(offset int, val uint8) int {
	if offset != regCCP || val != ccpSignature {
		return 0
	}
	g.cyclesLeft = ccpWindowCycles
	for _, t := range g.targets {
		t.CCP(true)
	}
	return 0
}
