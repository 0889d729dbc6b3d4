// Package usart implements the USART peripheral in its async 8N1 mode
// only, the only mode the board's firmware ever configures: a baud-rate
// phase accumulator drives both the transmit shifter (which overrides a
// port pin directly) and the receive shifter (which samples a net's
// resolved state mid-bit).
package usart

import (
	"github.com/cab202/avremu/nets"
	"github.com/cab202/avremu/peripherals/port"
	"github.com/cab202/avremu/trace"
)

const (
	RegRXDATAL = 0x00
	RegRXDATAH = 0x01
	RegTXDATAL = 0x02
	RegTXDATAH = 0x03
	RegSTATUS  = 0x04
	RegCTRLA   = 0x05
	RegCTRLB   = 0x06
	RegCTRLC   = 0x07
	RegBAUDL   = 0x08
	RegBAUDH   = 0x09
	size       = 0x0A

	statusRXCIF  = 1 << 7
	statusTXCIF  = 1 << 6
	statusDREIF  = 1 << 5
	statusBUFOVF = 1 << 0

	ctrlbRXEN  = 1 << 7
	ctrlbTXEN  = 1 << 6
	ctrlbClk2x = 1 << 2
)

type rxState int

const (
	rxIdle rxState = iota
	rxShifting
)

type txState int

const (
	txIdle txState = iota
	txShifting
)

// USART is the peripheral. txBit is the port pin TX overrides; rxNet is
// sampled directly, matching the board's per-net UART wiring.
type USART struct {
	ctrlA, ctrlB, ctrlC uint8
	status              uint8
	baud                uint16

	rxBuf    [2]uint8
	rxCount  int
	txBuf    [2]uint8
	txCount  int

	acc uint32 // baud-rate phase accumulator

	rx        rxState
	rxShiftReg uint16
	rxBitsLeft int

	tx        txState
	txShiftReg uint16
	txBitsLeft int

	txPort *port.Port
	txBit  int
	rxNet  *nets.Net

	clockPeriodNS uint64
	sink          trace.Sink
}

// New returns a disabled USART wired to drive txBit of txPort for
// transmission and sample rxNet for reception.
func New(txPort *port.Port, txBit int, rxNet *nets.Net, sink trace.Sink) *USART {
	if sink == nil {
		sink = trace.Discard{}
	}
	return &USART{txPort: txPort, txBit: txBit, rxNet: rxNet, status: statusDREIF, sink: sink}
}

// SetClockPeriodNS is called by the board once per tick (the clock
// controller's period may itself change at runtime via CCP-gated writes).
func (u *USART) SetClockPeriodNS(ns uint64) { u.clockPeriodNS = ns }

func (u *USART) bitIncrement() uint32 {
	if u.baud == 0 || u.clockPeriodNS == 0 {
		return 0
	}
	ticksPerSecond := 1e9 / float64(u.clockPeriodNS)
	rate := float64(u.baud)
	if u.ctrlB&ctrlbClk2x != 0 {
		rate *= 2
	}
	return uint32(4294967296.0 * rate / ticksPerSecond)
}

// Tick implements peripherals.Clocked.
func (u *USART) Tick(timeNS uint64) {
	if u.ctrlB&(ctrlbRXEN|ctrlbTXEN) == 0 {
		return
	}
	prev := u.acc
	u.acc += u.bitIncrement()
	if u.acc >= prev {
		return // no overflow this tick, no bit boundary crossed
	}
	u.stepTx()
	u.stepRx(timeNS)
}

func (u *USART) stepTx() {
	if u.ctrlB&ctrlbTXEN == 0 {
		u.txPort.Override(u.txBit, false, false)
		return
	}
	switch u.tx {
	case txIdle:
		u.txPort.Override(u.txBit, true, true) // idle line is high
		if u.txCount == 0 {
			return
		}
		data := u.txBuf[0]
		copy(u.txBuf[:], u.txBuf[1:])
		u.txCount--
		if u.txCount == 0 {
			u.status |= statusDREIF
		}
		u.txShiftReg = uint16(data)<<1 | 1<<9 // start(0) + 8 data + stop(1)
		u.txBitsLeft = 10
		u.tx = txShifting
	case txShifting:
		bit := u.txShiftReg&1 != 0
		u.txShiftReg >>= 1
		u.txPort.Override(u.txBit, true, bit)
		u.txBitsLeft--
		if u.txBitsLeft == 0 {
			u.tx = txIdle
			u.status |= statusTXCIF
		}
	}
}

func (u *USART) stepRx(timeNS uint64) {
	if u.ctrlB&ctrlbRXEN == 0 {
		return
	}
	line := u.rxNet.State == nets.High
	switch u.rx {
	case rxIdle:
		if !line {
			u.rxShiftReg = 0
			u.rxBitsLeft = 9 // 8 data + stop
			u.rx = rxShifting
		}
	case rxShifting:
		bit := uint16(0)
		if line {
			bit = 1
		}
		u.rxShiftReg = u.rxShiftReg>>1 | bit<<8
		u.rxBitsLeft--
		if u.rxBitsLeft == 0 {
			u.rx = rxIdle
			stopOK := line
			if stopOK {
				u.pushRx(uint8(u.rxShiftReg & 0xFF))
			} else {
				trace.Errorf(u.sink, "USART framing error, stop bit not high")
			}
		}
	}
}

func (u *USART) pushRx(b uint8) {
	if u.rxCount == len(u.rxBuf) {
		u.status |= statusBUFOVF
		return
	}
	u.rxBuf[u.rxCount] = b
	u.rxCount++
	u.status |= statusRXCIF
}

// Interrupt implements irq.Source.
func (u *USART) Interrupt(mask uint8) bool {
	return u.status&u.ctrlA&mask != 0
}

// Size implements memory.MemoryMapped.
func (u *USART) Size() int { return size }

// Read implements memory.MemoryMapped.
func (u *USART) Read(offset int) (uint8, int) {
	switch offset {
	case RegRXDATAL:
		if u.rxCount == 0 {
			return 0, 0
		}
		b := u.rxBuf[0]
		copy(u.rxBuf[:], u.rxBuf[1:])
		u.rxCount--
		if u.rxCount == 0 {
			u.status &^= statusRXCIF
		}
		return b, 0
	case RegSTATUS:
		return u.status, 0
	case RegCTRLA:
		return u.ctrlA, 0
	case RegCTRLB:
		return u.ctrlB, 0
	case RegCTRLC:
		return u.ctrlC, 0
	case RegBAUDL:
		return uint8(u.baud & 0xFF), 0
	case RegBAUDH:
		return uint8(u.baud >> 8), 0
	}
	return 0, 0
}

// Write implements memory.MemoryMapped.
func (u *USART) Write(offset int, val uint8) int {
	switch offset {
	case RegTXDATAL:
		if u.txCount == len(u.txBuf) {
			return 0
		}
		u.txBuf[u.txCount] = val
		u.txCount++
		u.status &^= statusDREIF
	case RegSTATUS:
		u.status &^= val // write-1-to-clear for TXCIF etc
	case RegCTRLA:
		u.ctrlA = val
	case RegCTRLB:
		u.ctrlB = val
	case RegCTRLC:
		u.ctrlC = val
	case RegBAUDL:
		u.baud = (u.baud & 0xFF00) | uint16(val)
	case RegBAUDH:
		u.baud = (u.baud & 0x00FF) | uint16(val)<<8
	}
	return 0
}
