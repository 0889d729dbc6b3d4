// Package spi implements the SPI peripheral in master mode only, SPI mode
// 0 (CPOL=0, CPHA=0), the only mode and role the board's firmware uses.
package spi

import (
	"github.com/cab202/avremu/nets"
	"github.com/cab202/avremu/peripherals/port"
	"github.com/cab202/avremu/trace"
)

const (
	RegCTRLA    = 0x00
	RegCTRLB    = 0x01
	RegINTCTRL  = 0x02
	RegINTFLAGS = 0x03
	RegDATA     = 0x04
	size        = 0x05

	ctrlaEnable = 1 << 0
	ctrlaClk2x  = 1 << 2
	ctrlaPresc  = 0x3 << 3 // 2-bit prescaler select
	ctrlaDord   = 1 << 5

	ctrlbBufen = 1 << 0

	intflagsIF     = 1 << 7
	intflagsBufovf = 1 << 0
)

var prescaleDivisors = [4]uint64{4, 16, 64, 128}

type state int

const (
	idle state = iota
	shifting
)

// SPI is the peripheral. sckBit/mosiBit are driven via the port's
// peripheral-override mechanism; misoNet is sampled directly.
type SPI struct {
	ctrlA, ctrlB, intCtrl, intFlags uint8
	data                            uint8

	rxBuf   [2]uint8
	rxCount int

	st         state
	shiftReg   uint8
	bitsLeft   int
	halfCount  uint64
	sckHigh    bool

	p               *port.Port
	sckBit, mosiBit int
	misoNet         *nets.Net
	sink            trace.Sink
}

// New returns a disabled SPI driving sckBit/mosiBit of p and sampling
// misoNet for input.
func New(p *port.Port, sckBit, mosiBit int, misoNet *nets.Net, sink trace.Sink) *SPI {
	if sink == nil {
		sink = trace.Discard{}
	}
	return &SPI{p: p, sckBit: sckBit, mosiBit: mosiBit, misoNet: misoNet, sink: sink}
}

func (s *SPI) halfBitPeriod() uint64 {
	idx := (s.ctrlA & ctrlaPresc) >> 3
	div := prescaleDivisors[idx]
	if s.ctrlA&ctrlaClk2x != 0 {
		div /= 2
		if div == 0 {
			div = 1
		}
	}
	return div / 2
}

// Tick implements peripherals.Clocked.
func (s *SPI) Tick(timeNS uint64) {
	if s.ctrlA&ctrlaEnable == 0 || s.st == idle {
		s.p.Override(s.sckBit, false, false)
		s.p.Override(s.mosiBit, false, false)
		return
	}
	s.halfCount++
	if s.halfCount < s.halfBitPeriod() {
		return
	}
	s.halfCount = 0
	s.sckHigh = !s.sckHigh
	s.p.Override(s.sckBit, true, s.sckHigh)

	if !s.sckHigh {
		// Falling edge: present the next MOSI bit ahead of the next rising edge.
		s.driveMosiBit()
		return
	}

	// Rising edge: sample MISO.
	in := uint8(0)
	if s.misoNet.State == nets.High {
		in = 1
	}
	if s.ctrlA&ctrlaDord != 0 {
		s.shiftReg = s.shiftReg>>1 | in<<7
	} else {
		s.shiftReg = s.shiftReg<<1 | in
	}
	s.bitsLeft--
	if s.bitsLeft == 0 {
		s.finishTransfer()
	}
}

func (s *SPI) driveMosiBit() {
	var bit bool
	if s.ctrlA&ctrlaDord != 0 {
		bit = s.data&(1<<uint(8-s.bitsLeft)) != 0
	} else {
		bit = s.data&(1<<uint(s.bitsLeft-1)) != 0
	}
	s.p.Override(s.mosiBit, true, bit)
}

func (s *SPI) finishTransfer() {
	s.st = idle
	s.intFlags |= intflagsIF
	if s.ctrlB&ctrlbBufen != 0 {
		if s.rxCount == len(s.rxBuf) {
			s.intFlags |= intflagsBufovf
		} else {
			s.rxBuf[s.rxCount] = s.shiftReg
			s.rxCount++
		}
	} else {
		s.rxBuf[0] = s.shiftReg
		s.rxCount = 1
	}
}

// Interrupt implements irq.Source.
func (s *SPI) Interrupt(mask uint8) bool {
	return s.intFlags&s.intCtrl&mask != 0
}

// Size implements memory.MemoryMapped.
func (s *SPI) Size() int { return size }

// Read implements memory.MemoryMapped.
func (s *SPI) Read(offset int) (uint8, int) {
	switch offset {
	case RegCTRLA:
		return s.ctrlA, 0
	case RegCTRLB:
		return s.ctrlB, 0
	case RegINTCTRL:
		return s.intCtrl, 0
	case RegINTFLAGS:
		return s.intFlags, 0
	case RegDATA:
		if s.rxCount == 0 {
			return 0, 0
		}
		b := s.rxBuf[0]
		copy(s.rxBuf[:], s.rxBuf[1:])
		s.rxCount--
		return b, 0
	}
	return 0, 0
}

// Write implements memory.MemoryMapped. Writing DATA starts a transfer.
func (s *SPI) Write(offset int, val uint8) int {
	switch offset {
	case RegCTRLA:
		s.ctrlA = val
	case RegCTRLB:
		s.ctrlB = val
	case RegINTCTRL:
		s.intCtrl = val
	case RegINTFLAGS:
		s.intFlags &^= val
	case RegDATA:
		if s.st != idle {
			trace.Warningf(s.sink, "SPI DATA write while a transfer is in progress, ignored")
			return 0
		}
		s.data = val
		s.shiftReg = 0
		s.bitsLeft = 8
		s.st = shifting
		s.driveMosiBit()
	}
	return 0
}
