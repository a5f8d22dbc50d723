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

// decode32 is the 32-bit Thumb-2 top-level tree, following the layout in
// "3.3 Instruction encoding for 32-bit Thumb instructions" of the Thumb-2
// Supplement: op1 = h1[12:11], then a handful of wide category checks on
// h1[10:4].
package decode

// decode32 decodes a two-halfword (ascending order) 32-bit instruction.
func decode32(h1, h2 uint16) (Instruction, bool) {
	op1 := (h1 >> 11) & 0x3
	switch {
	case op1 == 0b01 && h1&0x0640 == 0x0000:
		return decode32LoadStoreMultiple(h1, h2)
	case op1 == 0b01 && h1&0x0640 == 0x0040:
		return decode32LoadStoreDouble(h1, h2)
	case op1 == 0b01 && h1&0x0020 == 0x0020:
		return decode32DataProcessingReg(h1, h2)
	case op1 == 0b10 && h2&0x8000 == 0:
		return decode32DataProcessingImm(h1, h2)
	case op1 == 0b10 && h2&0x8000 != 0:
		return decode32BranchAndMisc(h1, h2)
	case op1 == 0b11:
		return decode32LoadStoreSingleOrOther(h1, h2)
	}
	return Instruction{}, false
}

func decode32LoadStoreMultiple(h1, h2 uint16) (Instruction, bool) {
	l := h1&0x0010 != 0
	wback := h1&0x0020 != 0
	rn := uint8(h1 & 0xf)
	op := OpSTM
	if l {
		op = OpLDM
	}
	return Instruction{Op: op, Cond: 0xE, Rn: rn, RegList: h2, Wback: wback}, true
}

func decode32LoadStoreDouble(h1, h2 uint16) (Instruction, bool) {
	l := h1&0x0010 != 0
	u := h1&0x0080 != 0
	p := h1&0x0100 != 0 // indexed (pre); otherwise post-indexed
	w := h1&0x0020 != 0
	rn := uint8(h1 & 0xf)
	rt := uint8((h2 >> 12) & 0xf)
	rt2 := uint8((h2 >> 8) & 0xf)
	imm8 := uint32(h2 & 0xff)
	op := OpSTRD
	if l {
		op = OpLDRD
	}
	imm := int32(imm8 << 2)
	if !u {
		imm = -imm
	}
	return Instruction{
		Op: op, Cond: 0xE, Rt: rt, Rt2: rt2, Rn: rn, Imm: imm,
		Index: p, Add: u, Wback: w,
	}, true
}

func decode32DataProcessingReg(h1, h2 uint16) (Instruction, bool) {
	rn := uint8(h1 & 0xf)
	rd := uint8((h2 >> 8) & 0xf)
	rm := uint8(h2 & 0xf)

	if h1&0xffc0 == 0xfa80 && h2&0xf0c0 == 0xf080 {
		// CLZ/RBIT family (data-processing, register, misc operations)
		op2 := (h2 >> 4) & 0xf
		switch op2 {
		case 0b1000:
			return Instruction{Op: OpCLZ, Cond: 0xE, Rd: rd, Rm: uint8(h1 & 0xf)}, true
		case 0b1001:
			return Instruction{Op: OpRBIT, Cond: 0xE, Rd: rd, Rm: uint8(h1 & 0xf)}, true
		}
	}
	if h1&0xff80 == 0xfb80 || h1&0xff80 == 0xfba0 {
		// signed/unsigned divide
		op := OpSDIV
		if h1&0x0020 != 0 {
			op = OpUDIV
		}
		return Instruction{Op: op, Cond: 0xE, Rd: rd, Rn: rn, Rm: rm}, true
	}
	if h1&0xffe0 == 0xfb00 {
		// MUL (32-bit encoding, T2)
		return Instruction{Op: OpMUL, Cond: 0xE, Rd: rd, Rn: rn, Rm: rm}, true
	}

	// Shifted-register data processing, shared with immediate-shift forms:
	// "op" selects the ALU operation, imm3:imm2 + type gives the shift.
	op := (h1 >> 5) & 0xf
	setFlags := h1&0x0010 != 0
	imm3 := (h2 >> 12) & 0x7
	imm2 := (h2 >> 6) & 0x3
	typ := (h2 >> 4) & 0x3
	amt := uint8(imm3<<2 | imm2)
	shift := ShiftType(typ)

	inst := Instruction{Rd: rd, Rn: rn, Rm: rm, Cond: 0xE, SetFlags: setFlags, Shift: shift, Amt: amt}
	switch op {
	case 0b0000:
		inst.Op = OpAND
		if rd == 0xF && setFlags {
			inst.Op = OpTST
		}
	case 0b0001:
		inst.Op = OpBIC
	case 0b0010:
		if rn == 0xF {
			inst.Op = OpMOV
			if shift != ShiftLSL || amt != 0 {
				switch shift {
				case ShiftLSL:
					inst.Op = OpLSL
				case ShiftLSR:
					inst.Op = OpLSR
				case ShiftASR:
					inst.Op = OpASR
				default:
					inst.Op = OpROR
				}
			}
		} else {
			inst.Op = OpORR
		}
	case 0b0011:
		inst.Op = OpORN
		if rn == 0xF {
			inst.Op = OpMVN
		}
	case 0b0100:
		inst.Op = OpEOR
	case 0b1000:
		inst.Op = OpADD
		if rd == 0xF && setFlags {
			inst.Op = OpCMN
		}
	case 0b1010:
		inst.Op = OpADC
	case 0b1011:
		inst.Op = OpSBC
	case 0b1101:
		inst.Op = OpSUB
		if rd == 0xF && setFlags {
			inst.Op = OpCMP
		}
	case 0b1110:
		inst.Op = OpRSB
	default:
		return Instruction{}, false
	}
	return inst, true
}

func decode32DataProcessingImm(h1, h2 uint16) (Instruction, bool) {
	op := (h1 >> 5) & 0xf
	i := uint32((h1 >> 10) & 0x1)
	setFlags := h1&0x0010 != 0
	rn := uint8(h1 & 0xf)
	imm3 := uint32((h2 >> 12) & 0x7)
	rd := uint8((h2 >> 8) & 0xf)
	imm8 := uint32(h2 & 0xff)
	imm12 := i<<11 | imm3<<8 | imm8

	if h1&0xfbf0 == 0xf240 {
		// MOVW Rd, #imm16 (T3)
		imm4 := uint32(h1 & 0xf)
		imm16 := imm4<<12 | i<<11 | imm3<<8 | imm8
		return Instruction{Op: OpMOVW, Cond: 0xE, Rd: rd, Imm: int32(imm16)}, true
	}
	if h1&0xfbf0 == 0xf2c0 {
		imm4 := uint32(h1 & 0xf)
		imm16 := imm4<<12 | i<<11 | imm3<<8 | imm8
		return Instruction{Op: OpMOVT, Cond: 0xE, Rd: rd, Imm: int32(imm16)}, true
	}
	if h1&0xfbf0 == 0xf360 {
		// BFC (Rn==1111) / BFI
		lsb := uint8(imm3<<2 | uint32((h2>>6)&0x3))
		msb := uint8(h2 & 0x1f)
		width := msb - lsb + 1
		op2 := OpBFI
		if rn == 0xF {
			op2 = OpBFC
		}
		return Instruction{Op: op2, Cond: 0xE, Rd: rd, Rn: rn, Lsb: lsb, BFWidth: width}, true
	}
	if h1&0xfb60 == 0xf340 || h1&0xfb60 == 0xf3c0 {
		lsb := uint8(imm3<<2 | uint32((h2>>6)&0x3))
		widthMinus1 := uint8(h2 & 0x1f)
		op2 := OpUBFX
		if h1&0x0080 == 0 {
			op2 = OpSBFX
		}
		return Instruction{Op: op2, Cond: 0xE, Rd: rd, Rn: rn, Lsb: lsb, BFWidth: widthMinus1 + 1}, true
	}
	if h1&0x0200 != 0 {
		// other plain-binary-immediate forms (ADDW, SUBW, ...) are not decoded
		return Instruction{}, false
	}

	inst := Instruction{Rd: rd, Rn: rn, Cond: 0xE, SetFlags: setFlags}
	carry, _ := ExpandImmCarry(imm12, false)
	inst.Imm = int32(carry)
	switch op {
	case 0b0000:
		inst.Op = OpAND
		if rd == 0xF && setFlags {
			inst.Op = OpTST
		}
	case 0b0001:
		inst.Op = OpBIC
	case 0b0010:
		if rn == 0xF {
			inst.Op = OpMOVImm
		} else {
			inst.Op = OpORR
		}
	case 0b0011:
		if rn == 0xF {
			inst.Op = OpMVN
		} else {
			inst.Op = OpORN
		}
	case 0b0100:
		inst.Op = OpEOR
	case 0b1000:
		inst.Op = OpADDImm
		if rd == 0xF && setFlags {
			inst.Op = OpCMN
		}
	case 0b1010:
		inst.Op = OpADC
	case 0b1011:
		inst.Op = OpSBC
	case 0b1101:
		inst.Op = OpSUBImm
		if rd == 0xF && setFlags {
			inst.Op = OpCMPImm
		}
	case 0b1110:
		inst.Op = OpRSB
	default:
		return Instruction{}, false
	}
	return inst, true
}

func decode32BranchAndMisc(h1, h2 uint16) (Instruction, bool) {
	if h2&0xd000 == 0x9000 {
		// BL, T1 encoding
		s := uint32((h1 >> 10) & 0x1)
		imm10 := uint32(h1 & 0x3ff)
		j1 := uint32((h2 >> 13) & 0x1)
		j2 := uint32((h2 >> 11) & 0x1)
		imm11 := uint32(h2 & 0x7ff)
		i1 := ^(j1 ^ s) & 1
		i2 := ^(j2 ^ s) & 1
		imm32 := s<<24 | i1<<23 | i2<<22 | imm10<<12 | imm11<<1
		return Instruction{Op: OpBL, Cond: 0xE, Imm: signExtend(imm32, 25)}, true
	}
	if h2&0xd000 == 0x8000 && h1&0x0380 != 0x0380 {
		// conditional B, T3 encoding
		cond := uint8((h1 >> 6) & 0xf)
		s := uint32((h1 >> 10) & 0x1)
		imm6 := uint32(h1 & 0x3f)
		j1 := uint32((h2 >> 13) & 0x1)
		j2 := uint32((h2 >> 11) & 0x1)
		imm11 := uint32(h2 & 0x7ff)
		imm32 := s<<20 | j2<<19 | j1<<18 | imm6<<12 | imm11<<1
		return Instruction{Op: OpBcc, Cond: cond, Imm: signExtend(imm32, 21)}, true
	}
	if h2&0xd000 == 0x9000 || (h2&0xd000 == 0x8000 && h1&0x0380 == 0x0380) {
		// unconditional B, T4 encoding
		s := uint32((h1 >> 10) & 0x1)
		imm10 := uint32(h1 & 0x3ff)
		j1 := uint32((h2 >> 13) & 0x1)
		j2 := uint32((h2 >> 11) & 0x1)
		imm11 := uint32(h2 & 0x7ff)
		i1 := ^(j1 ^ s) & 1
		i2 := ^(j2 ^ s) & 1
		imm32 := s<<24 | i1<<23 | i2<<22 | imm10<<12 | imm11<<1
		return Instruction{Op: OpB, Cond: 0xE, Imm: signExtend(imm32, 25)}, true
	}
	return Instruction{}, false
}

func decode32LoadStoreSingleOrOther(h1, h2 uint16) (Instruction, bool) {
	op1 := (h1 >> 5) & 0x7
	op2 := (h2 >> 6) & 0x3f
	rn := uint8(h1 & 0xf)
	rt := uint8((h2 >> 12) & 0xf)

	// Plain-immediate (T3) forms: h1 bit 7 set selects unsigned 12-bit
	// positive offset, always indexed and never writing back.
	if rn != 0xF && h1&0x0080 != 0 {
		size := (h1 >> 5) & 0x3
		l := h1&0x0010 != 0
		imm12 := uint32(h2 & 0xfff)
		op := sizeStoreOp(size)
		if l {
			op = sizeLoadOp(size)
		}
		return Instruction{Op: op, Cond: 0xE, Rt: rt, Rn: rn, Imm: int32(imm12), Index: true, Add: true}, true
	}
	// PC-relative literal load (Rn == 1111).
	if rn == 0xF {
		u := h1&0x0080 != 0
		size := (h1 >> 5) & 0x3
		imm12 := int32(h2 & 0xfff)
		if !u {
			imm12 = -imm12
		}
		op := sizeLoadOp(size)
		return Instruction{Op: op, Cond: 0xE, Rt: rt, Rn: 15, Imm: imm12, Index: true, Add: u}, true
	}
	// Register-offset form (T2): Rm with an LSL#imm2 shift.
	if op2&0x3c == 0 {
		size := (h1 >> 5) & 0x3
		l := h1&0x0010 != 0
		rm := uint8(h2 & 0xf)
		amt := uint8((h2 >> 4) & 0x3)
		op := sizeStoreOp(size)
		if l {
			op = sizeLoadOp(size)
		}
		return Instruction{Op: op, Cond: 0xE, Rt: rt, Rn: rn, Rm: rm, Shift: ShiftLSL, Amt: amt, Index: true, Add: true}, true
	}
	// Pre/post-indexed 8-bit signed immediate (T4).
	if op2&0x20 != 0 {
		size := (h1 >> 5) & 0x3
		l := h1&0x0010 != 0
		p := h2&0x0400 != 0
		u := h2&0x0200 != 0
		w := h2&0x0100 != 0
		imm8 := int32(h2 & 0xff)
		if !u {
			imm8 = -imm8
		}
		op := sizeStoreOp(size)
		if l {
			op = sizeLoadOp(size)
		}
		return Instruction{Op: op, Cond: 0xE, Rt: rt, Rn: rn, Imm: imm8, Index: p, Add: u, Wback: w}, true
	}
	_ = op1
	return Instruction{}, false
}

func sizeLoadOp(size uint16) Op {
	switch size {
	case 0b00:
		return OpLDRB
	case 0b01:
		return OpLDRH
	default:
		return OpLDR
	}
}

func sizeStoreOp(size uint16) Op {
	switch size {
	case 0b00:
		return OpSTRB
	case 0b01:
		return OpSTRH
	default:
		return OpSTR
	}
}
