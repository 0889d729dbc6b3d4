package core

// Op identifies a decoded instruction's operation. Decoding is stateless
// and total: every 16-bit opcode word maps to exactly one Op, with Undef
// covering every pattern the architecture leaves unassigned.
type Op int

const (
	Undef Op = iota
	Nop
	Break
	Adc
	Add
	Adiw
	And
	Andi
	Asr
	Bclr
	Bld
	Brbc
	Brbs
	Bset
	Bst
	Call
	Cbi
	Com
	Cp
	Cpc
	Cpi
	Cpse
	Dec
	Eor
	Fmul
	Fmuls
	Fmulsu
	Icall
	Ijmp
	In
	Inc
	Jmp
	Ld
	Ldi
	Lds
	Lpm
	Lsr
	Mov
	Movw
	Mul
	Muls
	Mulsu
	Neg
	Or
	Ori
	Out
	Pop
	Push
	Rcall
	Ret
	Reti
	Rjmp
	Ror
	Sbc
	Sbci
	Sbi
	Sbic
	Sbis
	Sbiw
	Sbrc
	Sbrs
	St
	Sts
	Sub
	Subi
	Swap
)

// Pointer identifies which index-register pair (and auto-inc/dec/displace
// mode) an LD/ST instruction uses.
type Pointer int

const (
	PtrNone Pointer = iota
	PtrX
	PtrXPostInc
	PtrXPreDec
	PtrY
	PtrYPostInc
	PtrYPreDec
	PtrYDisp
	PtrZ
	PtrZPostInc
	PtrZPreDec
	PtrZDisp
)

// Instruction is the decoded, typed form of one opcode word (plus, for
// 32-bit instructions, the following prefetch word). Unused fields are
// zero for a given Op.
type Instruction struct {
	Op     Op
	Rd     int     // destination/source register index
	Rr     int     // second register operand index
	K      int     // immediate constant
	Addr   int     // absolute address (JMP/CALL/LDS/STS)
	Bit    int     // bit index operand (0-7)
	IOAddr int     // I/O address operand (IN/OUT/SBI/CBI/SBIC/SBIS)
	Rel    int     // sign-extended relative branch/jump offset
	Ptr    Pointer // addressing mode for Ld/St
	Disp   int     // displacement for LDD/STD
	Words  int     // total words consumed (1 or 2)
}

func signExtend(v uint16, bits uint) int {
	sign := uint16(1) << (bits - 1)
	v &= (sign << 1) - 1
	if v&sign != 0 {
		return int(v) - int(sign<<1)
	}
	return int(v)
}

// Decode converts a 16-bit opcode word (plus the following word, used only
// by the 32-bit instructions) into an Instruction. Never errors: unmatched
// patterns decode to Op == Undef.
func Decode(word, next uint16) Instruction {
	switch word {
	case 0x0000:
		return Instruction{Op: Nop, Words: 1}
	case 0x9598:
		return Instruction{Op: Break, Words: 1}
	case 0x9508:
		return Instruction{Op: Ret, Words: 1}
	case 0x9518:
		return Instruction{Op: Reti, Words: 1}
	case 0x9409:
		return Instruction{Op: Ijmp, Words: 1}
	case 0x9509:
		return Instruction{Op: Icall, Words: 1}
	case 0x95C8:
		return Instruction{Op: Lpm, Rd: 0, Ptr: PtrZ, Words: 1}
	}

	// MOVW: 0000 0001 dddd rrrr (register pairs, each index <<1)
	if word&0xFF00 == 0x0100 {
		d := int((word >> 4) & 0xF)
		r := int(word & 0xF)
		return Instruction{Op: Movw, Rd: d << 1, Rr: r << 1, Words: 1}
	}
	// MULS: 0000 0010 dddd rrrr (d,r each +16)
	if word&0xFF00 == 0x0200 {
		d := int((word >> 4) & 0xF)
		r := int(word & 0xF)
		return Instruction{Op: Muls, Rd: d + 16, Rr: r + 16, Words: 1}
	}
	// MULSU/FMUL/FMULS/FMULSU: 0000 0011 0/1ddd 0/1rrr (d,r each +16, 0-7)
	switch word & 0xFF88 {
	case 0x0300:
		d := int((word >> 4) & 0x7)
		r := int(word & 0x7)
		return Instruction{Op: Mulsu, Rd: d + 16, Rr: r + 16, Words: 1}
	case 0x0308:
		d := int((word >> 4) & 0x7)
		r := int(word & 0x7)
		return Instruction{Op: Fmul, Rd: d + 16, Rr: r + 16, Words: 1}
	case 0x0380:
		d := int((word >> 4) & 0x7)
		r := int(word & 0x7)
		return Instruction{Op: Fmuls, Rd: d + 16, Rr: r + 16, Words: 1}
	case 0x0388:
		d := int((word >> 4) & 0x7)
		r := int(word & 0x7)
		return Instruction{Op: Fmulsu, Rd: d + 16, Rr: r + 16, Words: 1}
	}

	// Two-register ALU ops: xxxx xxrd dddd rrrr
	if op, ok := twoRegOp(word); ok {
		d := int((word >> 4) & 0x1F)
		r := int((word&0x0200)>>5) | int(word&0xF)
		return Instruction{Op: op, Rd: d, Rr: r, Words: 1}
	}

	// Immediate ALU ops: xxxx KKKK dddd KKKK (d = 16 + dddd)
	if op, ok := immOp(word); ok {
		d := int((word>>4)&0xF) + 16
		k := int((word&0x0F00)>>4) | int(word&0xF)
		return Instruction{Op: op, Rd: d, K: k, Words: 1}
	}

	// ADIW/SBIW: 1001 011o KKdd KKKK (dd: 0->24,1->26,2->28,3->30)
	if word&0xFF00 == 0x9600 || word&0xFF00 == 0x9700 {
		pairSel := int((word >> 4) & 0x3)
		d := 24 + pairSel*2
		k := int((word&0x00C0)>>2) | int(word&0xF)
		if word&0xFF00 == 0x9600 {
			return Instruction{Op: Adiw, Rd: d, K: k, Words: 1}
		}
		return Instruction{Op: Sbiw, Rd: d, K: k, Words: 1}
	}

	// Single-register ops in the 1001 010d dddd xxxx family.
	switch word & 0xFE0F {
	case 0x9400:
		return Instruction{Op: Com, Rd: int((word >> 4) & 0x1F), Words: 1}
	case 0x9401:
		return Instruction{Op: Neg, Rd: int((word >> 4) & 0x1F), Words: 1}
	case 0x9402:
		return Instruction{Op: Swap, Rd: int((word >> 4) & 0x1F), Words: 1}
	case 0x9403:
		return Instruction{Op: Inc, Rd: int((word >> 4) & 0x1F), Words: 1}
	case 0x9405:
		return Instruction{Op: Asr, Rd: int((word >> 4) & 0x1F), Words: 1}
	case 0x9406:
		return Instruction{Op: Lsr, Rd: int((word >> 4) & 0x1F), Words: 1}
	case 0x9407:
		return Instruction{Op: Ror, Rd: int((word >> 4) & 0x1F), Words: 1}
	case 0x940A:
		return Instruction{Op: Dec, Rd: int((word >> 4) & 0x1F), Words: 1}
	case 0x9004:
		return Instruction{Op: Lpm, Rd: int((word >> 4) & 0x1F), Ptr: PtrZ, Words: 1}
	case 0x9005:
		return Instruction{Op: Lpm, Rd: int((word >> 4) & 0x1F), Ptr: PtrZPostInc, Words: 1}
	case 0x9000:
		return Instruction{Op: Lds, Rd: int((word >> 4) & 0x1F), Addr: int(next), Words: 2}
	case 0x9200:
		return Instruction{Op: Sts, Rd: int((word >> 4) & 0x1F), Addr: int(next), Words: 2}
	case 0x900F:
		return Instruction{Op: Pop, Rd: int((word >> 4) & 0x1F), Words: 1}
	case 0x920F:
		return Instruction{Op: Push, Rd: int((word >> 4) & 0x1F), Words: 1}
	}

	// JMP/CALL: 1001 010k kkkk 11Ak kkkk kkkk kkkk kkkk (A selects jmp/call)
	if word&0xFE0E == 0x940C {
		hi := int((word>>3)&0x3E) | int(word&1)
		return Instruction{Op: Jmp, Addr: (hi << 16) | int(next), Words: 2}
	}
	if word&0xFE0E == 0x940E {
		hi := int((word>>3)&0x3E) | int(word&1)
		return Instruction{Op: Call, Addr: (hi << 16) | int(next), Words: 2}
	}

	// BSET/BCLR: 1001 0100 Xsss 1000
	if word&0xFF8F == 0x9408 {
		return Instruction{Op: Bset, Bit: int((word >> 4) & 0x7), Words: 1}
	}
	if word&0xFF8F == 0x9488 {
		return Instruction{Op: Bclr, Bit: int((word >> 4) & 0x7), Words: 1}
	}

	// LD/ST via X/Y/Z, all variants.
	if inst, ok := decodeLdSt(word); ok {
		return inst
	}

	// IN/OUT: 1011 0AAd dddd AAAA / 1011 1AAr rrrr AAAA
	if word&0xF800 == 0xB000 {
		d := int((word >> 4) & 0x1F)
		a := int((word&0x0600)>>5) | int(word&0xF)
		return Instruction{Op: In, Rd: d, IOAddr: a, Words: 1}
	}
	if word&0xF800 == 0xB800 {
		r := int((word >> 4) & 0x1F)
		a := int((word&0x0600)>>5) | int(word&0xF)
		return Instruction{Op: Out, Rr: r, IOAddr: a, Words: 1}
	}

	// SBI/CBI/SBIC/SBIS: 1001 10oo AAAA Abbb
	switch word & 0xFF00 {
	case 0x9800:
		return Instruction{Op: Cbi, IOAddr: int((word >> 3) & 0x1F), Bit: int(word & 0x7), Words: 1}
	case 0x9A00:
		return Instruction{Op: Sbi, IOAddr: int((word >> 3) & 0x1F), Bit: int(word & 0x7), Words: 1}
	case 0x9900:
		return Instruction{Op: Sbic, IOAddr: int((word >> 3) & 0x1F), Bit: int(word & 0x7), Words: 1}
	case 0x9B00:
		return Instruction{Op: Sbis, IOAddr: int((word >> 3) & 0x1F), Bit: int(word & 0x7), Words: 1}
	}

	// BLD/BST/SBRC/SBRS: 1111 1oXd dddd 0bbb
	switch word & 0xFE08 {
	case 0xF800:
		return Instruction{Op: Bld, Rd: int((word >> 4) & 0x1F), Bit: int(word & 0x7), Words: 1}
	case 0xFA00:
		return Instruction{Op: Bst, Rd: int((word >> 4) & 0x1F), Bit: int(word & 0x7), Words: 1}
	case 0xFC00:
		return Instruction{Op: Sbrc, Rd: int((word >> 4) & 0x1F), Bit: int(word & 0x7), Words: 1}
	case 0xFE00:
		return Instruction{Op: Sbrs, Rd: int((word >> 4) & 0x1F), Bit: int(word & 0x7), Words: 1}
	}

	// BRBS/BRBC: 1111 0oXk kkkk ksss (7-bit signed k)
	if word&0xFC00 == 0xF000 {
		return Instruction{Op: Brbs, Rel: signExtend((word>>3)&0x7F, 7), Bit: int(word & 0x7), Words: 1}
	}
	if word&0xFC00 == 0xF400 {
		return Instruction{Op: Brbc, Rel: signExtend((word>>3)&0x7F, 7), Bit: int(word & 0x7), Words: 1}
	}

	// CPSE: 0001 00rd dddd rrrr
	if word&0xFC00 == 0x1000 {
		d := int((word >> 4) & 0x1F)
		r := int((word&0x0200)>>5) | int(word&0xF)
		return Instruction{Op: Cpse, Rd: d, Rr: r, Words: 1}
	}

	// LDI: 1110 KKKK dddd KKKK
	if word&0xF000 == 0xE000 {
		d := int((word>>4)&0xF) + 16
		k := int((word&0x0F00)>>4) | int(word&0xF)
		return Instruction{Op: Ldi, Rd: d, K: k, Words: 1}
	}

	// RJMP/RCALL: 11o0 kkkk kkkk kkkk (12-bit signed)
	if word&0xF000 == 0xC000 {
		return Instruction{Op: Rjmp, Rel: signExtend(word&0x0FFF, 12), Words: 1}
	}
	if word&0xF000 == 0xD000 {
		return Instruction{Op: Rcall, Rel: signExtend(word&0x0FFF, 12), Words: 1}
	}

	// MUL: 1001 11rd dddd rrrr
	if word&0xFC00 == 0x9C00 {
		d := int((word >> 4) & 0x1F)
		r := int((word&0x0200)>>5) | int(word&0xF)
		return Instruction{Op: Mul, Rd: d, Rr: r, Words: 1}
	}

	return Instruction{Op: Undef, Words: 1}
}

// twoRegOp matches the xxxx xxrd dddd rrrr family of two-register ALU ops.
func twoRegOp(word uint16) (Op, bool) {
	switch word & 0xFC00 {
	case 0x0400:
		return Cpc, true
	case 0x0800:
		return Sbc, true
	case 0x0C00:
		return Add, true
	case 0x1400:
		return Cp, true
	case 0x1800:
		return Sub, true
	case 0x1C00:
		return Adc, true
	case 0x2000:
		return And, true
	case 0x2400:
		return Eor, true
	case 0x2800:
		return Or, true
	case 0x2C00:
		return Mov, true
	}
	return Undef, false
}

// immOp matches the xxxx KKKK dddd KKKK family of immediate ALU ops.
func immOp(word uint16) (Op, bool) {
	switch word & 0xF000 {
	case 0x3000:
		return Cpi, true
	case 0x4000:
		return Sbci, true
	case 0x5000:
		return Subi, true
	case 0x6000:
		return Ori, true
	case 0x7000:
		return Andi, true
	}
	return Undef, false
}

// decodeLdSt matches every LD/ST addressing-mode encoding via X/Y/Z,
// including the displaced LDD/STD forms whose displacement is split across
// non-adjacent bits of the opcode word.
func decodeLdSt(word uint16) (Instruction, bool) {
	// LD Rd,X / X+ / -X : 1001 000d dddd 11oo
	if word&0xFE0C == 0x900C {
		d := int((word >> 4) & 0x1F)
		switch word & 0x3 {
		case 0:
			return Instruction{Op: Ld, Rd: d, Ptr: PtrX, Words: 1}, true
		case 1:
			return Instruction{Op: Ld, Rd: d, Ptr: PtrXPostInc, Words: 1}, true
		case 2:
			return Instruction{Op: Ld, Rd: d, Ptr: PtrXPreDec, Words: 1}, true
		}
	}
	// ST X,Rr / X+,Rr / -X,Rr : 1001 001r rrrr 11oo
	if word&0xFE0C == 0x920C {
		r := int((word >> 4) & 0x1F)
		switch word & 0x3 {
		case 0:
			return Instruction{Op: St, Rr: r, Ptr: PtrX, Words: 1}, true
		case 1:
			return Instruction{Op: St, Rr: r, Ptr: PtrXPostInc, Words: 1}, true
		case 2:
			return Instruction{Op: St, Rr: r, Ptr: PtrXPreDec, Words: 1}, true
		}
	}
	// LD Rd,Z+ / -Z
	if word&0xFE0F == 0x9001 {
		return Instruction{Op: Ld, Rd: int((word >> 4) & 0x1F), Ptr: PtrZPostInc, Words: 1}, true
	}
	if word&0xFE0F == 0x9002 {
		return Instruction{Op: Ld, Rd: int((word >> 4) & 0x1F), Ptr: PtrZPreDec, Words: 1}, true
	}
	// ST Z+,Rr / -Z,Rr
	if word&0xFE0F == 0x9201 {
		return Instruction{Op: St, Rr: int((word >> 4) & 0x1F), Ptr: PtrZPostInc, Words: 1}, true
	}
	if word&0xFE0F == 0x9202 {
		return Instruction{Op: St, Rr: int((word >> 4) & 0x1F), Ptr: PtrZPreDec, Words: 1}, true
	}
	// LD Rd,Y+ / -Y
	if word&0xFE0F == 0x9009 {
		return Instruction{Op: Ld, Rd: int((word >> 4) & 0x1F), Ptr: PtrYPostInc, Words: 1}, true
	}
	if word&0xFE0F == 0x900A {
		return Instruction{Op: Ld, Rd: int((word >> 4) & 0x1F), Ptr: PtrYPreDec, Words: 1}, true
	}
	// ST Y+,Rr / -Y,Rr
	if word&0xFE0F == 0x9209 {
		return Instruction{Op: St, Rr: int((word >> 4) & 0x1F), Ptr: PtrYPostInc, Words: 1}, true
	}
	if word&0xFE0F == 0x920A {
		return Instruction{Op: St, Rr: int((word >> 4) & 0x1F), Ptr: PtrYPreDec, Words: 1}, true
	}
	// LD Rd,Y (q=0 form) : 1000 000d dddd 1000
	if word&0xFE0F == 0x8008 {
		return Instruction{Op: Ld, Rd: int((word >> 4) & 0x1F), Ptr: PtrYDisp, Disp: 0, Words: 1}, true
	}
	// LD Rd,Z (q=0 form) : 1000 000d dddd 0000
	if word&0xFE0F == 0x8000 {
		return Instruction{Op: Ld, Rd: int((word >> 4) & 0x1F), Ptr: PtrZDisp, Disp: 0, Words: 1}, true
	}
	// ST Y,Rr (q=0 form) : 1000 001r rrrr 1000
	if word&0xFE0F == 0x8208 {
		return Instruction{Op: St, Rr: int((word >> 4) & 0x1F), Ptr: PtrYDisp, Disp: 0, Words: 1}, true
	}
	// ST Z,Rr (q=0 form) : 1000 001r rrrr 0000
	if word&0xFE0F == 0x8200 {
		return Instruction{Op: St, Rr: int((word >> 4) & 0x1F), Ptr: PtrZDisp, Disp: 0, Words: 1}, true
	}
	// LDD Rd,Y+q : 10q0 qq0d dddd 1qqq
	if word&0xD208 == 0x8008 {
		d := int((word >> 4) & 0x1F)
		return Instruction{Op: Ld, Rd: d, Ptr: PtrYDisp, Disp: ldddDisp(word), Words: 1}, true
	}
	// LDD Rd,Z+q : 10q0 qq0d dddd 0qqq
	if word&0xD208 == 0x8000 {
		d := int((word >> 4) & 0x1F)
		return Instruction{Op: Ld, Rd: d, Ptr: PtrZDisp, Disp: ldddDisp(word), Words: 1}, true
	}
	// STD Y+q,Rr : 10q0 qq1r rrrr 1qqq
	if word&0xD208 == 0x8208 && word&0x0600 != 0 {
		r := int((word >> 4) & 0x1F)
		return Instruction{Op: St, Rr: r, Ptr: PtrYDisp, Disp: ldddDisp(word), Words: 1}, true
	}
	// STD Z+q,Rr : 10q0 qq1r rrrr 0qqq
	if word&0xD208 == 0x8200 && word&0x0600 != 0 {
		r := int((word >> 4) & 0x1F)
		return Instruction{Op: St, Rr: r, Ptr: PtrZDisp, Disp: ldddDisp(word), Words: 1}, true
	}
	return Instruction{}, false
}

// ldddDisp extracts the 6-bit displacement scattered across an LDD/STD
// opcode word: bits 13, 11:10 and 2:0, assembled q5 q4 q3 q2 q1 q0.
func ldddDisp(word uint16) int {
	q5 := (word >> 13) & 1
	q4q3 := (word >> 10) & 0x3
	q2q0 := word & 0x7
	return int(q5<<5 | q4q3<<3 | q2q0)
}
