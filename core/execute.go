package core

import "github.com/cab202/avremu/trace"

// execute runs one decoded instruction, updating registers, SREG, PC, SP
// and Busy as appropriate. Busy is always set to (cost - 1): this tick
// already spent the first cycle.
func (c *Core) execute(in Instruction) {
	switch in.Op {
	case Nop, Undef:
		// Undef behaves as a one-cycle no-op once logged.

	case Break:
		c.Halted = true
		c.LastError = HaltError{Opcode: 0x9598}

	case Adc:
		rd, rr := c.Regs[in.Rd], c.Regs[in.Rr]
		carry := uint8(0)
		if c.flag(flagC) {
			carry = 1
		}
		r := rd + rr + carry
		c.addFlags(rd, rr, r)
		c.Regs[in.Rd] = r

	case Add:
		rd, rr := c.Regs[in.Rd], c.Regs[in.Rr]
		r := rd + rr
		c.addFlags(rd, rr, r)
		c.Regs[in.Rd] = r

	case Sub:
		rd, rr := c.Regs[in.Rd], c.Regs[in.Rr]
		r := rd - rr
		c.subFlags(rd, rr, r)
		c.Regs[in.Rd] = r

	case Subi:
		rd, k := c.Regs[in.Rd], uint8(in.K)
		r := rd - k
		c.subFlags(rd, k, r)
		c.Regs[in.Rd] = r

	case Sbc:
		rd, rr := c.Regs[in.Rd], c.Regs[in.Rr]
		carry := uint8(0)
		if c.flag(flagC) {
			carry = 1
		}
		r := rd - rr - carry
		c.subFlagsCarry(rd, rr, r)
		c.Regs[in.Rd] = r

	case Sbci:
		rd, k := c.Regs[in.Rd], uint8(in.K)
		carry := uint8(0)
		if c.flag(flagC) {
			carry = 1
		}
		r := rd - k - carry
		c.subFlagsCarry(rd, k, r)
		c.Regs[in.Rd] = r

	case Cp:
		rd, rr := c.Regs[in.Rd], c.Regs[in.Rr]
		c.subFlags(rd, rr, rd-rr)

	case Cpi:
		rd, k := c.Regs[in.Rd], uint8(in.K)
		c.subFlags(rd, k, rd-k)

	case Cpc:
		rd, rr := c.Regs[in.Rd], c.Regs[in.Rr]
		carry := uint8(0)
		if c.flag(flagC) {
			carry = 1
		}
		c.subFlagsCarry(rd, rr, rd-rr-carry)

	case Adiw:
		hi, lo := pairIndex(in.Rd)
		rd := c.getPair(hi, lo)
		r := rd + uint16(in.K)
		c.setFlag(flagC, !bit16(r, 15) && bit16(rd, 15))
		c.setFlag(flagV, !bit16(rd, 15) && bit16(r, 15))
		c.setFlag(flagN, bit16(r, 15))
		c.setFlag(flagZ, r == 0)
		c.setFlag(flagS, c.flag(flagN) != c.flag(flagV))
		c.setPair(hi, lo, r)
		c.Busy = 2 - 1

	case Sbiw:
		hi, lo := pairIndex(in.Rd)
		rd := c.getPair(hi, lo)
		r := rd - uint16(in.K)
		c.setFlag(flagC, bit16(r, 15) && !bit16(rd, 15))
		c.setFlag(flagV, bit16(rd, 15) && !bit16(r, 15))
		c.setFlag(flagN, bit16(r, 15))
		c.setFlag(flagZ, r == 0)
		c.setFlag(flagS, c.flag(flagN) != c.flag(flagV))
		c.setPair(hi, lo, r)
		c.Busy = 2 - 1

	case And:
		r := c.Regs[in.Rd] & c.Regs[in.Rr]
		c.Regs[in.Rd] = r
		c.logicFlags(r)

	case Andi:
		r := c.Regs[in.Rd] & uint8(in.K)
		c.Regs[in.Rd] = r
		c.logicFlags(r)

	case Or:
		r := c.Regs[in.Rd] | c.Regs[in.Rr]
		c.Regs[in.Rd] = r
		c.logicFlags(r)

	case Ori:
		r := c.Regs[in.Rd] | uint8(in.K)
		c.Regs[in.Rd] = r
		c.logicFlags(r)

	case Eor:
		r := c.Regs[in.Rd] ^ c.Regs[in.Rr]
		c.Regs[in.Rd] = r
		c.logicFlags(r)

	case Com:
		r := ^c.Regs[in.Rd]
		c.Regs[in.Rd] = r
		c.logicFlags(r)
		c.setFlag(flagC, true)

	case Neg:
		rd := c.Regs[in.Rd]
		r := uint8(0) - rd
		c.setFlag(flagH, bit8(r, 3) || bit8(rd, 3))
		c.setFlag(flagV, r == 0x80)
		c.setFlag(flagN, bit8(r, 7))
		c.setFlag(flagZ, r == 0)
		c.setFlag(flagC, r != 0)
		c.setFlag(flagS, c.flag(flagN) != c.flag(flagV))
		c.Regs[in.Rd] = r

	case Inc:
		rd := c.Regs[in.Rd]
		r := rd + 1
		c.setFlag(flagV, rd == 0x7F)
		c.setFlag(flagN, bit8(r, 7))
		c.setFlag(flagZ, r == 0)
		c.setFlag(flagS, c.flag(flagN) != c.flag(flagV))
		c.Regs[in.Rd] = r

	case Dec:
		rd := c.Regs[in.Rd]
		r := rd - 1
		c.setFlag(flagV, rd == 0x80)
		c.setFlag(flagN, bit8(r, 7))
		c.setFlag(flagZ, r == 0)
		c.setFlag(flagS, c.flag(flagN) != c.flag(flagV))
		c.Regs[in.Rd] = r

	case Lsr:
		rd := c.Regs[in.Rd]
		r := rd >> 1
		c.setFlag(flagC, bit8(rd, 0))
		c.setFlag(flagN, false)
		c.setFlag(flagZ, r == 0)
		c.setFlag(flagV, c.flag(flagN) != c.flag(flagC))
		c.setFlag(flagS, c.flag(flagN) != c.flag(flagV))
		c.Regs[in.Rd] = r

	case Asr:
		rd := c.Regs[in.Rd]
		r := (rd >> 1) | (rd & 0x80)
		c.setFlag(flagC, bit8(rd, 0))
		c.setFlag(flagN, bit8(r, 7))
		c.setFlag(flagZ, r == 0)
		c.setFlag(flagV, c.flag(flagN) != c.flag(flagC))
		c.setFlag(flagS, c.flag(flagN) != c.flag(flagV))
		c.Regs[in.Rd] = r

	case Ror:
		rd := c.Regs[in.Rd]
		oldC := uint8(0)
		if c.flag(flagC) {
			oldC = 0x80
		}
		r := (rd >> 1) | oldC
		c.setFlag(flagC, bit8(rd, 0))
		c.setFlag(flagN, bit8(r, 7))
		c.setFlag(flagZ, r == 0)
		c.setFlag(flagV, c.flag(flagN) != c.flag(flagC))
		c.setFlag(flagS, c.flag(flagN) != c.flag(flagV))
		c.Regs[in.Rd] = r

	case Swap:
		rd := c.Regs[in.Rd]
		c.Regs[in.Rd] = rd<<4 | rd>>4

	case Mov:
		c.Regs[in.Rd] = c.Regs[in.Rr]

	case Movw:
		c.Regs[in.Rd] = c.Regs[in.Rr]
		c.Regs[in.Rd+1] = c.Regs[in.Rr+1]

	case Ldi:
		c.Regs[in.Rd] = uint8(in.K)

	case Mul:
		r := uint16(c.Regs[in.Rd]) * uint16(c.Regs[in.Rr])
		c.setPair(1, 0, r)
		c.setFlag(flagC, bit16(r, 15))
		c.setFlag(flagZ, r == 0)
		c.Busy = 2 - 1

	case Muls:
		r := uint16(int16(int8(c.Regs[in.Rd])) * int16(int8(c.Regs[in.Rr])))
		c.setPair(1, 0, r)
		c.setFlag(flagC, bit16(r, 15))
		c.setFlag(flagZ, r == 0)
		c.Busy = 2 - 1

	case Mulsu:
		r := uint16(int16(int8(c.Regs[in.Rd])) * int16(c.Regs[in.Rr]))
		c.setPair(1, 0, r)
		c.setFlag(flagC, bit16(r, 15))
		c.setFlag(flagZ, r == 0)
		c.Busy = 2 - 1

	case Fmul:
		raw := uint16(c.Regs[in.Rd]) * uint16(c.Regs[in.Rr])
		c.setFlag(flagC, bit16(raw, 15))
		r := raw << 1
		c.setPair(1, 0, r)
		c.setFlag(flagZ, r == 0)
		c.Busy = 2 - 1

	case Fmuls:
		raw := uint16(int16(int8(c.Regs[in.Rd])) * int16(int8(c.Regs[in.Rr])))
		c.setFlag(flagC, bit16(raw, 15))
		r := raw << 1
		c.setPair(1, 0, r)
		c.setFlag(flagZ, r == 0)
		c.Busy = 2 - 1

	case Fmulsu:
		raw := uint16(int16(int8(c.Regs[in.Rd])) * int16(c.Regs[in.Rr]))
		c.setFlag(flagC, bit16(raw, 15))
		r := raw << 1
		c.setPair(1, 0, r)
		c.setFlag(flagZ, r == 0)
		c.Busy = 2 - 1

	case Bset:
		c.SREG |= 1 << uint(in.Bit)

	case Bclr:
		c.SREG &^= 1 << uint(in.Bit)

	case Bst:
		c.setFlag(flagT, bit8(c.Regs[in.Rd], uint(in.Bit)))

	case Bld:
		if c.flag(flagT) {
			c.Regs[in.Rd] |= 1 << uint(in.Bit)
		} else {
			c.Regs[in.Rd] &^= 1 << uint(in.Bit)
		}

	case Brbs:
		if c.SREG&(1<<uint(in.Bit)) != 0 {
			c.PC = uint16(int(c.PC) + in.Rel)
			c.Busy = 2 - 1
		}

	case Brbc:
		if c.SREG&(1<<uint(in.Bit)) == 0 {
			c.PC = uint16(int(c.PC) + in.Rel)
			c.Busy = 2 - 1
		}

	case Rjmp:
		c.PC = uint16(int(c.PC) + in.Rel)
		c.Busy = 2 - 1

	case Jmp:
		c.PC = uint16(in.Addr)
		c.Busy = 3 - 1

	case Rcall:
		c.pushWord(c.PC)
		c.PC = uint16(int(c.PC) + in.Rel)
		c.Busy = 2 - 1

	case Icall:
		c.pushWord(c.PC)
		c.PC = c.getZ()
		c.Busy = 2 - 1

	case Call:
		c.pushWord(c.PC)
		c.PC = uint16(in.Addr)
		c.Busy = 3 - 1

	case Ijmp:
		c.PC = c.getZ()

	case Ret:
		c.PC = c.popWord()
		c.Busy = 4 - 1

	case Reti:
		c.PC = c.popWord()
		c.InterruptInhibit = true
		if c.IntCtrl != nil {
			c.IntCtrl.Reti()
		}
		c.Busy = 4 - 1

	case Cpse:
		if c.Regs[in.Rd] == c.Regs[in.Rr] {
			c.skipNext()
		}

	case Sbrc:
		if !bit8(c.Regs[in.Rd], uint(in.Bit)) {
			c.skipNext()
		}

	case Sbrs:
		if bit8(c.Regs[in.Rd], uint(in.Bit)) {
			c.skipNext()
		}

	case Sbic:
		v := c.dsRead(uint16(in.IOAddr) + 0x20)
		if !bit8(v, uint(in.Bit)) {
			c.skipNext()
		}

	case Sbis:
		v := c.dsRead(uint16(in.IOAddr) + 0x20)
		if bit8(v, uint(in.Bit)) {
			c.skipNext()
		}

	case In:
		c.Regs[in.Rd] = c.dsRead(uint16(in.IOAddr) + 0x20)

	case Out:
		c.dsWrite(uint16(in.IOAddr)+0x20, c.Regs[in.Rr])

	case Sbi:
		addr := uint16(in.IOAddr) + 0x20
		c.dsWrite(addr, c.dsRead(addr)|1<<uint(in.Bit))

	case Cbi:
		addr := uint16(in.IOAddr) + 0x20
		c.dsWrite(addr, c.dsRead(addr)&^(1<<uint(in.Bit)))

	case Lds:
		c.Regs[in.Rd] = c.dsRead(uint16(in.Addr))
		c.Busy = 3 - 1

	case Sts:
		c.dsWrite(uint16(in.Addr), c.Regs[in.Rd])
		c.Busy = 3 - 1

	case Ld:
		addr := c.resolvePointer(in.Ptr, in.Disp)
		c.Regs[in.Rd] = c.dsRead(addr)
		c.Busy = ldStCost(addr) - 1

	case St:
		addr := c.resolvePointer(in.Ptr, in.Disp)
		c.dsWrite(addr, c.Regs[in.Rr])
		c.Busy = ldStCost(addr) - 1

	case Lpm:
		z := c.resolvePointer(in.Ptr, 0)
		word := c.progWord(z >> 1)
		var b uint8
		if z&1 == 0 {
			b = uint8(word & 0xFF)
		} else {
			b = uint8(word >> 8)
		}
		c.Regs[in.Rd] = b
		c.Busy = 3 - 1

	case Push:
		c.pushByte(c.Regs[in.Rd])

	case Pop:
		c.Regs[in.Rd] = c.popByte()
		c.Busy = 2 - 1

	default:
		trace.Errorf(c.Sink, "Unimplemented opcode class for word decode (Op=%d)", int(in.Op))
	}
}

// skipNext advances past the instruction currently at PC without executing
// it (CPSE/SBRC/SBRS/SBIC/SBIS, condition true), charging the extra cycle
// for a 2-word skipped instruction.
func (c *Core) skipNext() {
	word := c.progWord(c.PC)
	next := c.progWord(c.PC + 1)
	skipped := Decode(word, next)
	c.PC += uint16(skipped.Words)
	if skipped.Words == 2 {
		c.Busy = 3 - 1
	} else {
		c.Busy = 2 - 1
	}
}

// resolvePointer computes the effective address for an X/Y/Z-addressed
// LD/ST, applying the pointer's auto-increment/decrement side effect.
func (c *Core) resolvePointer(ptr Pointer, disp int) uint16 {
	switch ptr {
	case PtrX:
		return c.getX()
	case PtrXPostInc:
		v := c.getX()
		c.setX(v + 1)
		return v
	case PtrXPreDec:
		v := c.getX() - 1
		c.setX(v)
		return v
	case PtrY:
		return c.getY()
	case PtrYPostInc:
		v := c.getY()
		c.setY(v + 1)
		return v
	case PtrYPreDec:
		v := c.getY() - 1
		c.setY(v)
		return v
	case PtrYDisp:
		return c.getY() + uint16(disp)
	case PtrZ:
		return c.getZ()
	case PtrZPostInc:
		v := c.getZ()
		c.setZ(v + 1)
		return v
	case PtrZPreDec:
		v := c.getZ() - 1
		c.setZ(v)
		return v
	case PtrZDisp:
		return c.getZ() + uint16(disp)
	}
	return 0
}

// ldStCost distinguishes the SRAM-access cost from the register/IO-space
// one for LD/ST, per the cycle cost table.
func ldStCost(addr uint16) int {
	if addr < 0x40 {
		return 2
	}
	return 3
}

// pairIndex maps an ADIW/SBIW register-pair base (24/26/28/30) to its
// (high, low) register indices.
func pairIndex(base int) (hi, lo int) {
	return base + 1, base
}
