// Copyright (c) 2026 The cm3sim Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// decode16 is the 16-bit Thumb condition tree: the branch ordering and the
// format numbers in comments follow Figure 3-1 of the Thumb-2 Supplement.
package decode

// decode16 classifies one 16-bit instruction word into an Instruction. The
// bool result is false for an unrecognized bit pattern.
func decode16(h uint16) (Instruction, bool) {
	switch {
	case h&0xf800 == 0xe000:
		// format 18: unconditional branch
		imm11 := uint32(h & 0x7ff)
		return Instruction{Op: OpB, Cond: 0xE, Imm: signExtend(imm11<<1, 12)}, true

	case h&0xff00 == 0xdf00:
		// SVC/software interrupt: out of scope for this instruction set
		return Instruction{}, false

	case h&0xf000 == 0xd000:
		// format 16: conditional branch
		cond := uint8((h >> 8) & 0xf)
		imm8 := uint32(h & 0xff)
		return Instruction{Op: OpBcc, Cond: cond, Imm: signExtend(imm8<<1, 9)}, true

	case h&0xf000 == 0xc000:
		// format 15: multiple load/store
		l := h&0x0800 != 0
		rn := uint8((h >> 8) & 0x7)
		regs := h & 0xff
		op := OpSTM
		if l {
			op = OpLDM
		}
		return Instruction{Op: op, Cond: 0xE, Rn: rn, RegList: regs, Wback: true}, true

	case h&0xf000 == 0xb000:
		return decode16Misc(h)

	case h&0xf000 == 0xa000:
		// format 12: load address (ADD Rd, SP/PC, #imm8*4)
		sp := h&0x0800 != 0
		rd := uint8((h >> 8) & 0x7)
		imm8 := uint32(h & 0xff)
		op := OpADDImm
		rn := uint8(15)
		if sp {
			rn = 13
		}
		return Instruction{Op: op, Cond: 0xE, Rd: rd, Rn: rn, Imm: int32(imm8 << 2)}, true

	case h&0xf000 == 0x9000:
		// format 11: SP-relative load/store
		l := h&0x0800 != 0
		rd := uint8((h >> 8) & 0x7)
		imm8 := uint32(h & 0xff)
		op := OpSTR
		if l {
			op = OpLDR
		}
		return Instruction{Op: op, Cond: 0xE, Rt: rd, Rn: 13, Imm: int32(imm8 << 2), Index: true, Add: true}, true

	case h&0xf000 == 0x8000:
		// format 10: load/store halfword, immediate offset
		l := h&0x0800 != 0
		imm5 := uint32((h >> 6) & 0x1f)
		rn := uint8((h >> 3) & 0x7)
		rd := uint8(h & 0x7)
		op := OpSTRH
		if l {
			op = OpLDRH
		}
		return Instruction{Op: op, Cond: 0xE, Rt: rd, Rn: rn, Imm: int32(imm5 << 1), Index: true, Add: true}, true

	case h&0xe000 == 0x6000:
		// format 9: load/store with immediate offset (word/byte)
		b := h&0x1000 != 0
		l := h&0x0800 != 0
		imm5 := uint32((h >> 6) & 0x1f)
		rn := uint8((h >> 3) & 0x7)
		rd := uint8(h & 0x7)
		var op Op
		var imm int32
		if b {
			imm = int32(imm5)
			op = OpSTRB
			if l {
				op = OpLDRB
			}
		} else {
			imm = int32(imm5 << 2)
			op = OpSTR
			if l {
				op = OpLDR
			}
		}
		return Instruction{Op: op, Cond: 0xE, Rt: rd, Rn: rn, Imm: imm, Index: true, Add: true}, true

	case h&0xf200 == 0x5200:
		// format 8: load/store sign-extended byte/halfword, register offset
		hbit := h&0x0800 != 0
		sbit := h&0x0400 != 0
		rm := uint8((h >> 6) & 0x7)
		rn := uint8((h >> 3) & 0x7)
		rd := uint8(h & 0x7)
		var op Op
		switch {
		case !sbit && !hbit:
			op = OpSTRH
		case !sbit && hbit:
			op = OpLDRH
		case sbit && !hbit:
			op = OpLDRSB
		default:
			op = OpLDRSH
		}
		return Instruction{Op: op, Cond: 0xE, Rt: rd, Rn: rn, Rm: rm, Index: true, Add: true}, true

	case h&0xf200 == 0x5000:
		// format 7: load/store with register offset
		l := h&0x0800 != 0
		b := h&0x0400 != 0
		rm := uint8((h >> 6) & 0x7)
		rn := uint8((h >> 3) & 0x7)
		rd := uint8(h & 0x7)
		var op Op
		switch {
		case !l && !b:
			op = OpSTR
		case !l && b:
			op = OpSTRB
		case l && !b:
			op = OpLDR
		default:
			op = OpLDRB
		}
		return Instruction{Op: op, Cond: 0xE, Rt: rd, Rn: rn, Rm: rm, Index: true, Add: true}, true

	case h&0xf800 == 0x4800:
		// format 6: PC-relative load (literal pool)
		rd := uint8((h >> 8) & 0x7)
		imm8 := uint32(h & 0xff)
		return Instruction{Op: OpLDR, Cond: 0xE, Rt: rd, Rn: 15, Imm: int32(imm8 << 2), Index: true, Add: true}, true

	case h&0xfc00 == 0x4400:
		return decode16HiReg(h)

	case h&0xfc00 == 0x4000:
		return decode16ALU(h)

	case h&0xe000 == 0x2000:
		// format 3: move/compare/add/subtract immediate
		op2 := (h >> 11) & 0x3
		rd := uint8((h >> 8) & 0x7)
		imm8 := int32(h & 0xff)
		switch op2 {
		case 0b00:
			return Instruction{Op: OpMOVImm, Cond: 0xE, Rd: rd, Imm: imm8, SetFlags: true}, true
		case 0b01:
			return Instruction{Op: OpCMPImm, Cond: 0xE, Rn: rd, Imm: imm8, SetFlags: true}, true
		case 0b10:
			return Instruction{Op: OpADDImm, Cond: 0xE, Rd: rd, Rn: rd, Imm: imm8, SetFlags: true}, true
		default:
			return Instruction{Op: OpSUBImm, Cond: 0xE, Rd: rd, Rn: rd, Imm: imm8, SetFlags: true}, true
		}

	case h&0xf800 == 0x1800:
		// format 2: add/subtract register or 3-bit immediate
		sub := h&0x0200 != 0
		imm := h&0x0400 != 0
		rnOrImm := uint8((h >> 6) & 0x7)
		rn := uint8((h >> 3) & 0x7)
		rd := uint8(h & 0x7)
		op := OpADD
		if sub {
			op = OpSUB
		}
		inst := Instruction{Op: op, Cond: 0xE, Rd: rd, Rn: rn, SetFlags: true}
		if imm {
			inst.Imm = int32(rnOrImm)
			if sub {
				inst.Op = OpSUBImm
			} else {
				inst.Op = OpADDImm
			}
		} else {
			inst.Rm = rnOrImm
		}
		return inst, true

	case h&0xe000 == 0x0000:
		// format 1: move shifted register (LSL/LSR/ASR immediate) or
		// format 2's ADD/SUB when op==0b11 is excluded above
		op2 := (h >> 11) & 0x3
		imm5 := uint8((h >> 6) & 0x1f)
		rm := uint8((h >> 3) & 0x7)
		rd := uint8(h & 0x7)
		var kind Op
		switch op2 {
		case 0b00:
			kind = OpLSL
		case 0b01:
			kind = OpLSR
		default:
			kind = OpASR
		}
		return Instruction{Op: kind, Cond: 0xE, Rd: rd, Rm: rm, Amt: imm5, SetFlags: true}, true
	}

	return Instruction{}, false
}

func decode16ALU(h uint16) (Instruction, bool) {
	op := (h >> 6) & 0xf
	rm := uint8((h >> 3) & 0x7)
	rd := uint8(h & 0x7)
	base := Instruction{Rd: rd, Rn: rd, Rm: rm, Cond: 0xE, SetFlags: true}
	switch op {
	case 0x0:
		base.Op = OpAND
	case 0x1:
		base.Op = OpEOR
	case 0x2:
		base.Op, base.ShiftReg = OpLSL, true
	case 0x3:
		base.Op, base.ShiftReg = OpLSR, true
	case 0x4:
		base.Op, base.ShiftReg = OpASR, true
	case 0x5:
		base.Op = OpADC
	case 0x6:
		base.Op = OpSBC
	case 0x7:
		base.Op, base.ShiftReg = OpROR, true
	case 0x8:
		base.Op, base.SetFlags = OpTST, true
	case 0x9:
		base.Op, base.Rn, base.Rm = OpRSB, rm, 0 // NEG Rd, Rm == RSB Rd, Rm, #0
		base.Imm = 0
	case 0xA:
		base.Op = OpCMP
		base.Rn = rd
	case 0xB:
		base.Op = OpCMN
		base.Rn = rd
	case 0xC:
		base.Op = OpORR
	case 0xD:
		base.Op = OpMUL
	case 0xE:
		base.Op = OpBIC
	default:
		base.Op = OpMVN
	}
	return base, true
}

func decode16HiReg(h uint16) (Instruction, bool) {
	op := (h >> 8) & 0x3
	h1 := (h >> 7) & 0x1
	h2 := (h >> 6) & 0x1
	rmLow := uint8((h >> 3) & 0x7)
	rdLow := uint8(h & 0x7)
	rm := rmLow | uint8(h2<<3)
	rd := rdLow | uint8(h1<<3)
	switch op {
	case 0b00:
		return Instruction{Op: OpADD, Cond: 0xE, Rd: rd, Rn: rd, Rm: rm}, true
	case 0b01:
		return Instruction{Op: OpCMP, Cond: 0xE, Rn: rd, Rm: rm, SetFlags: true}, true
	case 0b10:
		return Instruction{Op: OpMOV, Cond: 0xE, Rd: rd, Rm: rm}, true
	default:
		op2 := OpBX
		if h1 != 0 {
			op2 = OpBLX
		}
		return Instruction{Op: op2, Cond: 0xE, Rm: rm}, true
	}
}

func decode16Misc(h uint16) (Instruction, bool) {
	switch {
	case h&0xff00 == 0xbf00:
		opA := uint8((h >> 4) & 0xf)
		opB := uint8(h & 0xf)
		if opB == 0 {
			// Hint instructions (NOP/YIELD/WFE/WFI/SEV): WFI and WFE map to
			// the halt state this simulator models (Machine's halt stop
			// reason); the rest are no-ops here same as NOP.
			if opA == 0x2 || opA == 0x3 {
				return Instruction{Op: OpWFI, Cond: 0xE}, true
			}
			return Instruction{Op: OpNOP, Cond: 0xE}, true
		}
		return Instruction{Op: OpIT, Cond: opA, Imm: int32(opB)}, true

	case h&0xffe8 == 0xb660:
		// CPS: bit4 selects disable(1)/enable(0), bit0 selects the affected
		// masks; this simulator only models PRIMASK (spec §4.5).
		disable := h&0x0010 != 0
		op := OpCPSIE
		if disable {
			op = OpCPSID
		}
		return Instruction{Op: op, Cond: 0xE}, true

	case h&0xf600 == 0xb400:
		// format 14: push/pop register list
		l := h&0x0800 != 0
		r := h&0x0100 != 0
		regs := uint16(h & 0xff)
		if l {
			if r {
				regs |= 1 << 15 // PC
			}
			return Instruction{Op: OpPOP, Cond: 0xE, RegList: regs}, true
		}
		if r {
			regs |= 1 << 14 // LR
		}
		return Instruction{Op: OpPUSH, Cond: 0xE, RegList: regs}, true

	case h&0xf500 == 0xb100:
		nonZero := h&0x0800 != 0
		rn := uint8(h & 0x7)
		i := uint32((h >> 9) & 0x1)
		imm5 := uint32((h >> 3) & 0x1f)
		imm32 := (imm5 << 1) | (i << 6)
		op := OpCBZ
		if nonZero {
			op = OpCBNZ
		}
		return Instruction{Op: op, Cond: 0xE, Rn: rn, Imm: int32(imm32)}, true

	case h&0xffc0 == 0xba00:
		// REV/REV16/REVSH
		opc := (h >> 6) & 0x3
		rm := uint8((h >> 3) & 0x7)
		rd := uint8(h & 0x7)
		op := OpREV
		if opc == 0b01 {
			op = OpREV16
		}
		return Instruction{Op: op, Cond: 0xE, Rd: rd, Rm: rm}, true

	case h&0xff00 == 0xb200:
		// sign/zero extend
		opc := (h >> 6) & 0x3
		rm := uint8((h >> 3) & 0x7)
		rd := uint8(h & 0x7)
		var op Op
		switch opc {
		case 0b00:
			op = OpSXTH
		case 0b01:
			op = OpSXTB
		case 0b10:
			op = OpUXTH
		default:
			op = OpUXTB
		}
		return Instruction{Op: op, Cond: 0xE, Rd: rd, Rm: rm}, true

	case h&0xff00 == 0xb000:
		// format 13: add/sub offset to SP
		sub := h&0x0080 != 0
		imm7 := uint32(h & 0x7f)
		op := OpADDSP
		if sub {
			op = OpSUBSP
		}
		return Instruction{Op: op, Cond: 0xE, Imm: int32(imm7 << 2)}, true
	}

	return Instruction{}, false
}
