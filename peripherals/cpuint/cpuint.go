// Package cpuint implements the interrupt controller: a flat, single
// priority-level dispatcher that polls each bound peripheral once per
// fetch cycle rather than latching interrupts itself.
package cpuint

import (
	"github.com/cab202/avremu/irq"
	"github.com/cab202/avremu/trace"
)

const regStatus = 0x01 // CPUINT_STATUS, bit 0 = LVL0EX

type binding struct {
	vector int
	source irq.Source
	mask   uint8
}

// Controller is the board's sole interrupt controller. It has no internal
// latch of its own for individual peripheral flags -- every fetch cycle it
// re-asks each bound source whether it currently wants service, stopping
// at the first one that does, in registration order.
type Controller struct {
	bindings []binding
	lvl0     bool
	sink     trace.Sink
}

// New returns an empty Controller.
func New(sink trace.Sink) *Controller {
	if sink == nil {
		sink = trace.Discard{}
	}
	return &Controller{sink: sink}
}

// AddSource registers a peripheral's interrupt line. vector is the logical
// vector index (0, 1, 2, ...); the vector table maps index i to program
// address 2*i. mask is the peripheral-specific enable mask passed back to
// source.Interrupt on every poll.
func (c *Controller) AddSource(vector int, source irq.Source, mask uint8) {
	c.bindings = append(c.bindings, binding{vector: vector, source: source, mask: mask})
}

// ServicePending returns the byte address of the first pending interrupt's
// vector, in registration order, or ok == false if none is pending or the
// controller is already mid-service for level 0.
func (c *Controller) ServicePending() (vector int, ok bool) {
	if c.lvl0 {
		return 0, false
	}
	for _, b := range c.bindings {
		if b.source.Interrupt(b.mask) {
			c.lvl0 = true
			return 2 * b.vector, true
		}
	}
	return 0, false
}

// Reti clears the level-0-executing flag, called by the core when RETI
// runs.
func (c *Controller) Reti() {
	c.lvl0 = false
}

// Size implements memory.MemoryMapped: a single status register.
func (c *Controller) Size() int { return 2 }

// Read implements memory.MemoryMapped.
func (c *Controller) Read(offset int) (uint8, int) {
	if offset == regStatus {
		if c.lvl0 {
			return 1, 0
		}
		return 0, 0
	}
	return 0, 0
}

// Write implements memory.MemoryMapped. CPUINT_STATUS is derived, not
// settable; a write to it is accepted (so firmware clearing it at startup
// doesn't trip anything) but otherwise has no effect.
func (c *Controller) Write(offset int, val uint8) int {
	if offset == regStatus {
		trace.Warningf(c.sink, "CPUINT_STATUS is read-only, write of 0x%02X ignored", val)
	}
	return 0
}
