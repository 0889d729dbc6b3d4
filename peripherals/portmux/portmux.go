// Package portmux is an intentionally unimplemented peripheral: the board
// never needs alternate pin routing, but firmware linked against the
// standard device headers still probes it, so it has to exist as a
// memory-mapped bank that accepts writes and echoes back whatever was last
// written, same as the original.
package portmux

import "github.com/cab202/avremu/trace"

const (
	regEVSYSROUTEA = 0x00
	regTCBROUTEA   = 0x05
	numRegs        = 6
)

// Portmux is a stub register bank: every register just remembers its last
// written value.
type Portmux struct {
	regs [numRegs]uint8
	sink trace.Sink
}

// New returns a Portmux with every register reading back as zero until
// written.
func New(sink trace.Sink) *Portmux {
	if sink == nil {
		sink = trace.Discard{}
	}
	return &Portmux{sink: sink}
}

// Size implements memory.MemoryMapped.
func (p *Portmux) Size() int { return numRegs }

// Read implements memory.MemoryMapped.
func (p *Portmux) Read(offset int) (uint8, int) {
	if offset < 0 || offset >= numRegs {
		return 0, 0
	}
	return p.regs[offset], 0
}

// Write implements memory.MemoryMapped, warning once per write that pin
// multiplexing has no effect in this model.
func (p *Portmux) Write(offset int, val uint8) int {
	if offset < 0 || offset >= numRegs {
		return 0
	}
	p.regs[offset] = val
	trace.Warningf(p.sink, "PORTMUX is not implemented, write to offset 0x%02X has no effect", offset)
	return 0
}
