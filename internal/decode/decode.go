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

// Package decode turns a Thumb/Thumb-2 instruction stream into a flat
// Instruction value the CPU can execute without touching raw bit fields
// again. It covers the 16-bit Thumb condition tree and the 32-bit Thumb-2
// encodings a Cortex-M3 actually implements (Thumb-2 Supplement tables
// 3-1 and 3-2/3-3), not the full ARM/Thumb union a general ARM7TDMI core
// would need.
package decode

import "github.com/cm3sim/cm3sim/internal/simerr"

// Op identifies the decoded operation; the CPU's execute switch is keyed
// on this rather than re-inspecting raw bits.
type Op int

const (
	OpUnknown Op = iota
	OpMOV
	OpMOVImm
	OpMOVW
	OpMOVT
	OpMVN
	OpADD
	OpADDImm
	OpADDSP
	OpSUB
	OpSUBImm
	OpSUBSP
	OpCMP
	OpCMPImm
	OpCMN
	OpAND
	OpORR
	OpORN
	OpEOR
	OpBIC
	OpTST
	OpMUL
	OpSDIV
	OpUDIV
	OpLSL
	OpLSR
	OpASR
	OpROR
	OpADC
	OpSBC
	OpRSB
	OpB
	OpBcc
	OpBL
	OpBX
	OpBLX
	OpCBZ
	OpCBNZ
	OpLDR
	OpLDRB
	OpLDRH
	OpLDRSB
	OpLDRSH
	OpSTR
	OpSTRB
	OpSTRH
	OpLDM
	OpSTM
	OpPUSH
	OpPOP
	OpLDRD
	OpSTRD
	OpBFI
	OpBFC
	OpSBFX
	OpUBFX
	OpUXTB
	OpUXTH
	OpSXTB
	OpSXTH
	OpCLZ
	OpRBIT
	OpREV
	OpREV16
	OpCPSIE
	OpCPSID
	OpNOP
	OpIT
	OpWFI
)

// ShiftType is the ARM barrel-shifter mode applied to a register operand.
type ShiftType int

const (
	ShiftLSL ShiftType = iota
	ShiftLSR
	ShiftASR
	ShiftROR
	ShiftRRX
)

// Instruction is the decoder's single output shape: every addressing mode
// is flattened into these fields, with unused ones left zero. Rd/Rn/Rm are
// register numbers 0-15 (13=SP, 14=LR, 15=PC).
type Instruction struct {
	Op    Op
	Width uint32 // 2 or 4, bytes consumed from the stream

	Cond uint8 // condition code, 0xE (AL) if unconditional

	Rd, Rn, Rm, Rt, Rt2 uint8
	SetFlags            bool

	Imm   int32
	Shift ShiftType
	Amt   uint8

	// ShiftReg marks the register-controlled LSL/LSR/ASR/ROR forms (Thumb
	// format-4 ALU ops, e.g. "LSLS Rd, Rs"): the shifted value comes from
	// Rn and the shift amount from the low byte of Rm, instead of the
	// fixed Amt used by the shift-immediate forms.
	ShiftReg bool

	RegList uint16 // bitmask for LDM/STM/PUSH/POP

	Lsb, BFWidth uint8 // bitfield position/width for BFI/BFC/SBFX/UBFX

	Index, Add, Wback bool // addressing-mode control for LDR/STR family
}

// Decode reads one instruction starting at pc. half1 is the first 16-bit
// halfword; fetchHalf2 is called only if half1 indicates a 32-bit
// encoding, matching the ascending-halfword fetch order real hardware uses.
func Decode(half1 uint16, fetchHalf2 func() (uint16, error)) (Instruction, error) {
	if is32Bit(half1) {
		half2, err := fetchHalf2()
		if err != nil {
			return Instruction{}, err
		}
		inst, ok := decode32(half1, half2)
		if !ok {
			return Instruction{}, &simerr.UnknownInstruction{Opcode: uint32(half1)<<16 | uint32(half2)}
		}
		inst.Width = 4
		return inst, nil
	}
	inst, ok := decode16(half1)
	if !ok {
		return Instruction{}, &simerr.UnknownInstruction{Opcode: uint32(half1)}
	}
	inst.Width = 2
	return inst, nil
}

// is32Bit matches the ARMv7-M rule: a halfword with bits [15:11] of
// 0b11101, 0b11110 or 0b11111 opens a 32-bit instruction.
func is32Bit(h uint16) bool {
	top5 := h >> 11
	return top5 == 0b11101 || top5 == 0b11110 || top5 == 0b11111
}

func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}
