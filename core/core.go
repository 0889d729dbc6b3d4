// Package core implements the instruction interpreter: register file,
// SREG, program counter/stack pointer, the fetch-decode-execute tick, and
// the interrupt acknowledge/return protocol. It depends only on memory.Map
// (the data-space bus) and irq.Controller (polled once per tick when the
// global interrupt flag is set).
package core

import (
	"fmt"

	"github.com/cab202/avremu/memory"
	"github.com/cab202/avremu/trace"
)

// Controller is the interrupt controller's view from the core: polled once
// per tick when SREG.I is set, and told when RETI runs so it can drop its
// level-0-executing flag.
type Controller interface {
	ServicePending() (vector int, ok bool)
	Reti()
}

// UndefinedOpcode is returned (and logged, never panicked on) when Decode
// produces Undef for a fetched word. Execution continues with the PC
// already advanced past it.
type UndefinedOpcode struct {
	PC   uint16
	Word uint16
}

func (e UndefinedOpcode) Error() string {
	return fmt.Sprintf("Undefined opcode: 0x%04X", e.Word)
}

// HaltError is raised by BREAK. Unlike UndefinedOpcode this does stop the
// core -- Halted is set and the board harness treats the step as a
// terminal one.
type HaltError struct {
	Opcode uint16
}

func (e HaltError) Error() string {
	return fmt.Sprintf("BREAK at opcode 0x%04X", e.Opcode)
}

// Core is the CPU: 32 working registers, SREG, word-addressed PC,
// byte-addressed SP, and the busy counter that models multi-cycle
// instructions without any suspension point -- every tick either spends a
// busy cycle or runs exactly one fetch-execute step.
type Core struct {
	Regs [32]uint8
	SREG uint8
	PC   uint16 // word address into Prog
	SP   uint16 // byte address into the data space

	Busy             int
	InterruptInhibit bool
	Halted           bool
	LastError        error
	Debug            bool

	DS      *memory.Map
	Prog    *memory.Flat
	IntCtrl Controller
	Sink    trace.Sink
}

// New returns a Core wired to the given data-space map and program memory.
// SP starts at zero; the caller sets it (the board points it at the top of
// SRAM right after construction).
func New(ds *memory.Map, prog *memory.Flat, intCtrl Controller, sink trace.Sink) *Core {
	if sink == nil {
		sink = trace.Discard{}
	}
	return &Core{DS: ds, Prog: prog, IntCtrl: intCtrl, Sink: sink}
}

func (c *Core) getPair(hi, lo int) uint16 {
	return uint16(c.Regs[lo]) | uint16(c.Regs[hi])<<8
}

func (c *Core) setPair(hi, lo int, v uint16) {
	c.Regs[lo] = uint8(v & 0xFF)
	c.Regs[hi] = uint8(v >> 8)
}

func (c *Core) getX() uint16     { return c.getPair(27, 26) }
func (c *Core) setX(v uint16)    { c.setPair(27, 26, v) }
func (c *Core) getY() uint16     { return c.getPair(29, 28) }
func (c *Core) setY(v uint16)    { c.setPair(29, 28, v) }
func (c *Core) getZ() uint16     { return c.getPair(31, 30) }
func (c *Core) setZ(v uint16)    { c.setPair(31, 30, v) }

// dsRead routes a data-space access through the register-file/SP/SREG
// aliases first, falling back to the memory map for everything else --
// the map sees every address from 0x20 up except SPL/SPH/SREG (0x3D-0x3F).
func (c *Core) dsRead(addr uint16) uint8 {
	switch {
	case addr < 32:
		return c.Regs[addr]
	case addr == 0x3D:
		return uint8(c.SP & 0xFF)
	case addr == 0x3E:
		return uint8(c.SP >> 8)
	case addr == 0x3F:
		return c.SREG
	}
	b, _ := c.DS.Read(int(addr))
	return b
}

func (c *Core) dsWrite(addr uint16, val uint8) {
	switch {
	case addr < 32:
		c.Regs[addr] = val
		return
	case addr == 0x3D:
		c.SP = (c.SP & 0xFF00) | uint16(val)
		return
	case addr == 0x3E:
		c.SP = (c.SP & 0x00FF) | uint16(val)<<8
		return
	case addr == 0x3F:
		c.SREG = val
		return
	}
	c.DS.Write(int(addr), val)
}

func (c *Core) pushByte(b uint8) {
	c.dsWrite(c.SP, b)
	c.SP--
}

func (c *Core) popByte() uint8 {
	c.SP++
	return c.dsRead(c.SP)
}

// pushWord writes the low byte to [SP] then the high byte to [SP-1],
// matching the PC-push order the interrupt protocol and CALL/RCALL share.
func (c *Core) pushWord(w uint16) {
	c.pushByte(uint8(w & 0xFF))
	c.pushByte(uint8(w >> 8))
}

// popWord is the RET/RETI mirror: high byte loads first, then low.
func (c *Core) popWord() uint16 {
	hi := c.popByte()
	lo := c.popByte()
	return uint16(lo) | uint16(hi)<<8
}

func (c *Core) progWord(addr uint16) uint16 {
	lo, _ := c.Prog.Read(int(addr) * 2)
	hi, _ := c.Prog.Read(int(addr)*2 + 1)
	return uint16(lo) | uint16(hi)<<8
}

func (c *Core) progWords() uint16 {
	return uint16(c.Prog.Size() / 2)
}

// Tick advances the core by exactly one clock period: a busy decrement, an
// interrupt poll, or one fetch-decode-execute step. It never blocks and
// never panics on runtime opcodes -- an undefined word is logged and
// skipped, and only BREAK or a PC overflow sets Halted.
func (c *Core) Tick(timeNS uint64) {
	if c.Halted {
		return
	}
	if c.Busy > 0 {
		c.Busy--
		return
	}

	inhibited := c.InterruptInhibit
	c.InterruptInhibit = false

	if !inhibited && c.flag(flagI) && c.IntCtrl != nil {
		if vector, ok := c.IntCtrl.ServicePending(); ok {
			c.pushWord(c.PC)
			c.PC = uint16(vector)
			c.Busy = 4 - 1
			return
		}
	}

	pc := c.PC
	word := c.progWord(pc)
	next := c.progWord(pc + 1)
	inst := Decode(word, next)
	c.PC += uint16(inst.Words)

	if c.Debug {
		c.Sink.Line(fmt.Sprintf("[@%012X] DEBUG|core: PC=0x%04X op=%d word=0x%04X SREG=0x%02X", timeNS, pc, inst.Op, word, c.SREG))
	}

	if inst.Op == Undef {
		c.LastError = UndefinedOpcode{PC: pc, Word: word}
		trace.Errorf(c.Sink, "Undefined opcode: 0x%04X", word)
	}

	c.execute(inst)

	if c.PC >= c.progWords() {
		c.Halted = true
	}
}
