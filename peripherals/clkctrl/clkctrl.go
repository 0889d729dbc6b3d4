// Package clkctrl implements the clock controller: it derives the system
// clock period from MCLKCTRLA/MCLKCTRLB and exposes it to every other
// clocked peripheral via peripherals.ClockSource. Its prescaler and clock
// source registers are Configuration Change Protection targets -- writes
// outside the CCP window are dropped with a logged warning.
package clkctrl

import "github.com/cab202/avremu/trace"

const (
	RegMCLKCTRLA = 0x00
	RegMCLKCTRLB = 0x01
	RegMCLKLOCK  = 0x02
	RegMCLKSTATUS = 0x03
	size         = 0x04

	mclkctrlbEnable = 1 << 0

	baseClockPeriodNS = 50 // 20 MHz internal oscillator
)

// prescaleDivisors is indexed by MCLKCTRLB.PDIV (bits 1:4).
var prescaleDivisors = [...]uint64{2, 4, 6, 8, 10, 12, 16, 24, 32, 48, 64}

// Controller is the clock controller peripheral.
type Controller struct {
	mclkctrla uint8
	mclkctrlb uint8

	ccpOpen bool
	sink    trace.Sink
}

// New returns a Controller running at the undivided base clock period.
func New(sink trace.Sink) *Controller {
	if sink == nil {
		sink = trace.Discard{}
	}
	return &Controller{sink: sink}
}

// CCP implements peripherals.Ccp.
func (c *Controller) CCP(open bool) {
	c.ccpOpen = open
}

// ClockPeriodNS implements peripherals.ClockSource.
func (c *Controller) ClockPeriodNS() uint64 {
	if c.mclkctrlb&mclkctrlbEnable == 0 {
		return baseClockPeriodNS
	}
	idx := (c.mclkctrlb >> 1) & 0xF
	if int(idx) >= len(prescaleDivisors) {
		return baseClockPeriodNS
	}
	return baseClockPeriodNS * prescaleDivisors[idx]
}

// Size implements memory.MemoryMapped.
func (c *Controller) Size() int { return size }

// Read implements memory.MemoryMapped.
func (c *Controller) Read(offset int) (uint8, int) {
	switch offset {
	case RegMCLKCTRLA:
		return c.mclkctrla, 0
	case RegMCLKCTRLB:
		return c.mclkctrlb, 0
	}
	return 0, 0
}

// Write implements memory.MemoryMapped. MCLKCTRLA/B are CCP-protected:
// outside an open CCP window the write is dropped and logged.
func (c *Controller) Write(offset int, val uint8) int {
	switch offset {
	case RegMCLKCTRLA, RegMCLKCTRLB:
		if !c.ccpOpen {
			trace.Warningf(c.sink, "write to clock controller offset 0x%02X outside CCP window dropped", offset)
			return 0
		}
		if offset == RegMCLKCTRLA {
			c.mclkctrla = val
		} else {
			c.mclkctrlb = val
		}
	}
	return 0
}
