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

package cpu

import (
	"math/bits"

	"github.com/cm3sim/cm3sim/internal/decode"
	"github.com/cm3sim/cm3sim/internal/simerr"
)

// addWithCarry implements the ARM ADC/SBC primitive (A2-6): result, carry
// out, overflow for x + y + carryIn.
func addWithCarry(x, y uint32, carryIn bool) (result uint32, carryOut, overflow bool) {
	sum := uint64(x) + uint64(y)
	if carryIn {
		sum++
	}
	result = uint32(sum)
	carryOut = sum>>32 != 0
	overflow = (x^result)&(y^result)&0x80000000 != 0
	return
}

func (c *CPU) shiftedOperand(inst decode.Instruction) (uint32, bool) {
	rm := c.readReg(inst.Rm)
	amt := inst.Amt
	if amt == 0 && (inst.Shift == decode.ShiftLSR || inst.Shift == decode.ShiftASR) {
		amt = 32
	}
	return decode.ShiftC(inst.Shift, rm, amt, c.cFlag())
}

func (c *CPU) execute(bus Bus, inst decode.Instruction) error {
	switch inst.Op {
	case decode.OpNOP:
		return nil
	case decode.OpIT:
		c.itCond = inst.Cond
		c.itMask = uint8(inst.Imm)
		return nil
	case decode.OpCPSIE:
		c.primask = false
		return nil
	case decode.OpCPSID:
		c.primask = true
		return nil
	case decode.OpWFI:
		c.halted = true
		return nil

	case decode.OpMOV:
		v := c.readReg(inst.Rm)
		c.writeReg(inst.Rd, v)
		if inst.SetFlags {
			c.flagsSet(v&0x80000000 != 0, v == 0, c.cFlag(), c.vFlag())
		}
		return c.maybeBranch(bus, inst.Rd, v)
	case decode.OpMOVImm:
		v := uint32(inst.Imm)
		c.writeReg(inst.Rd, v)
		if inst.SetFlags {
			c.flagsSet(v&0x80000000 != 0, v == 0, c.cFlag(), c.vFlag())
		}
		return nil
	case decode.OpMOVW:
		c.writeReg(inst.Rd, uint32(uint16(inst.Imm)))
		return nil
	case decode.OpMOVT:
		cur := c.readReg(inst.Rd)
		c.writeReg(inst.Rd, (cur&0xffff)|uint32(uint16(inst.Imm))<<16)
		return nil
	case decode.OpMVN:
		var v uint32
		var carry = c.cFlag()
		if inst.Rm != 0 || (inst.Shift != decode.ShiftLSL || inst.Amt != 0) {
			sv, cOut := c.shiftedOperand(inst)
			v, carry = ^sv, cOut
		} else {
			v = ^uint32(inst.Imm)
		}
		c.writeReg(inst.Rd, v)
		if inst.SetFlags {
			c.flagsSet(v&0x80000000 != 0, v == 0, carry, c.vFlag())
		}
		return nil

	case decode.OpADD, decode.OpADDImm:
		return c.doAdd(bus, inst, false)
	case decode.OpADDSP:
		c.reg.SP += uint32(inst.Imm)
		return nil
	case decode.OpSUB, decode.OpSUBImm:
		return c.doAdd(bus, inst, true)
	case decode.OpSUBSP:
		c.reg.SP -= uint32(inst.Imm)
		return nil
	case decode.OpRSB:
		rn := c.readReg(inst.Rn)
		result, carry, overflow := addWithCarry(^rn, uint32(inst.Imm), true)
		c.writeReg(inst.Rd, result)
		if inst.SetFlags {
			c.flagsSet(result&0x80000000 != 0, result == 0, carry, overflow)
		}
		return nil
	case decode.OpADC:
		rn, rm := c.readReg(inst.Rn), c.operand2(inst)
		result, carry, overflow := addWithCarry(rn, rm, c.cFlag())
		c.writeReg(inst.Rd, result)
		if inst.SetFlags {
			c.flagsSet(result&0x80000000 != 0, result == 0, carry, overflow)
		}
		return nil
	case decode.OpSBC:
		rn, rm := c.readReg(inst.Rn), c.operand2(inst)
		result, carry, overflow := addWithCarry(rn, ^rm, c.cFlag())
		c.writeReg(inst.Rd, result)
		if inst.SetFlags {
			c.flagsSet(result&0x80000000 != 0, result == 0, carry, overflow)
		}
		return nil

	case decode.OpCMP, decode.OpCMPImm:
		rn := c.readReg(inst.Rn)
		var rhs uint32
		if inst.Op == decode.OpCMPImm {
			rhs = uint32(inst.Imm)
		} else {
			rhs = c.readReg(inst.Rm)
		}
		result, carry, overflow := addWithCarry(rn, ^rhs, true)
		c.flagsSet(result&0x80000000 != 0, result == 0, carry, overflow)
		return nil
	case decode.OpCMN:
		rn, rm := c.readReg(inst.Rn), c.readReg(inst.Rm)
		result, carry, overflow := addWithCarry(rn, rm, false)
		c.flagsSet(result&0x80000000 != 0, result == 0, carry, overflow)
		return nil
	case decode.OpTST:
		v := c.readReg(inst.Rn) & c.operand2(inst)
		c.flagsSet(v&0x80000000 != 0, v == 0, c.cFlag(), c.vFlag())
		return nil

	case decode.OpAND:
		v := c.readReg(inst.Rn) & c.operand2(inst)
		c.writeReg(inst.Rd, v)
		if inst.SetFlags {
			c.flagsSet(v&0x80000000 != 0, v == 0, c.cFlag(), c.vFlag())
		}
		return nil
	case decode.OpORR:
		v := c.readReg(inst.Rn) | c.operand2(inst)
		c.writeReg(inst.Rd, v)
		if inst.SetFlags {
			c.flagsSet(v&0x80000000 != 0, v == 0, c.cFlag(), c.vFlag())
		}
		return nil
	case decode.OpORN:
		v := c.readReg(inst.Rn) | ^c.operand2(inst)
		c.writeReg(inst.Rd, v)
		if inst.SetFlags {
			c.flagsSet(v&0x80000000 != 0, v == 0, c.cFlag(), c.vFlag())
		}
		return nil
	case decode.OpEOR:
		v := c.readReg(inst.Rn) ^ c.operand2(inst)
		c.writeReg(inst.Rd, v)
		if inst.SetFlags {
			c.flagsSet(v&0x80000000 != 0, v == 0, c.cFlag(), c.vFlag())
		}
		return nil
	case decode.OpBIC:
		v := c.readReg(inst.Rn) &^ c.operand2(inst)
		c.writeReg(inst.Rd, v)
		if inst.SetFlags {
			c.flagsSet(v&0x80000000 != 0, v == 0, c.cFlag(), c.vFlag())
		}
		return nil

	case decode.OpMUL:
		v := c.readReg(inst.Rn) * c.readReg(inst.Rm)
		c.writeReg(inst.Rd, v)
		return nil
	case decode.OpSDIV:
		rn, rm := int32(c.readReg(inst.Rn)), int32(c.readReg(inst.Rm))
		if rm == 0 {
			c.writeReg(inst.Rd, 0)
			return nil
		}
		c.writeReg(inst.Rd, uint32(rn/rm))
		return nil
	case decode.OpUDIV:
		rn, rm := c.readReg(inst.Rn), c.readReg(inst.Rm)
		if rm == 0 {
			c.writeReg(inst.Rd, 0)
			return nil
		}
		c.writeReg(inst.Rd, rn/rm)
		return nil

	case decode.OpLSL, decode.OpLSR, decode.OpASR, decode.OpROR:
		return c.doShift(inst)

	case decode.OpCLZ:
		c.writeReg(inst.Rd, uint32(bits.LeadingZeros32(c.readReg(inst.Rm))))
		return nil
	case decode.OpRBIT:
		c.writeReg(inst.Rd, bits.Reverse32(c.readReg(inst.Rm)))
		return nil
	case decode.OpREV:
		c.writeReg(inst.Rd, bits.ReverseBytes32(c.readReg(inst.Rm)))
		return nil
	case decode.OpREV16:
		v := c.readReg(inst.Rm)
		lo := bits.ReverseBytes16(uint16(v))
		hi := bits.ReverseBytes16(uint16(v >> 16))
		c.writeReg(inst.Rd, uint32(hi)<<16|uint32(lo))
		return nil
	case decode.OpUXTB:
		c.writeReg(inst.Rd, c.readReg(inst.Rm)&0xff)
		return nil
	case decode.OpUXTH:
		c.writeReg(inst.Rd, c.readReg(inst.Rm)&0xffff)
		return nil
	case decode.OpSXTB:
		c.writeReg(inst.Rd, uint32(int32(int8(c.readReg(inst.Rm)))))
		return nil
	case decode.OpSXTH:
		c.writeReg(inst.Rd, uint32(int32(int16(c.readReg(inst.Rm)))))
		return nil

	case decode.OpBFC:
		v := c.readReg(inst.Rd)
		mask := bitfieldMask(inst.Lsb, inst.BFWidth)
		c.writeReg(inst.Rd, v&^mask)
		return nil
	case decode.OpBFI:
		dst := c.readReg(inst.Rd)
		src := c.readReg(inst.Rn)
		mask := bitfieldMask(inst.Lsb, inst.BFWidth)
		c.writeReg(inst.Rd, (dst&^mask)|((src<<inst.Lsb)&mask))
		return nil
	case decode.OpSBFX:
		v := (c.readReg(inst.Rn) >> inst.Lsb) & lowMask(inst.BFWidth)
		c.writeReg(inst.Rd, uint32(int32(v<<(32-inst.BFWidth))>>(32-inst.BFWidth)))
		return nil
	case decode.OpUBFX:
		v := (c.readReg(inst.Rn) >> inst.Lsb) & lowMask(inst.BFWidth)
		c.writeReg(inst.Rd, v)
		return nil

	case decode.OpB, decode.OpBcc:
		c.reg.PC = uint32(int64(c.prevPC) + 4 + int64(inst.Imm))
		return nil
	case decode.OpBL:
		c.reg.LR = c.reg.PC | 1
		c.reg.PC = uint32(int64(c.reg.PC) + int64(inst.Imm))
		return nil
	case decode.OpBX:
		target := c.readReg(inst.Rm)
		handled, err := c.checkExceptionReturn(bus, target)
		if handled {
			return err
		}
		c.reg.PC = target &^ 1
		return nil
	case decode.OpBLX:
		target := c.readReg(inst.Rm)
		c.reg.LR = c.reg.PC | 1
		c.reg.PC = target &^ 1
		return nil
	case decode.OpCBZ:
		if c.readReg(inst.Rn) == 0 {
			c.reg.PC = c.prevPC + 4 + uint32(inst.Imm)
		}
		return nil
	case decode.OpCBNZ:
		if c.readReg(inst.Rn) != 0 {
			c.reg.PC = c.prevPC + 4 + uint32(inst.Imm)
		}
		return nil

	case decode.OpLDR, decode.OpLDRB, decode.OpLDRH, decode.OpLDRSB, decode.OpLDRSH:
		return c.doLoad(bus, inst)
	case decode.OpSTR, decode.OpSTRB, decode.OpSTRH:
		return c.doStore(bus, inst)
	case decode.OpLDRD:
		return c.doLoadDouble(bus, inst)
	case decode.OpSTRD:
		return c.doStoreDouble(bus, inst)
	case decode.OpLDM:
		return c.doLDM(bus, inst)
	case decode.OpSTM:
		return c.doSTM(bus, inst)
	case decode.OpPUSH:
		return c.doPush(bus, inst)
	case decode.OpPOP:
		return c.doPop(bus, inst)
	}

	return &simerr.UnknownInstruction{PC: c.prevPC}
}

func (c *CPU) operand2(inst decode.Instruction) uint32 {
	if inst.Rm != 0 || inst.Shift != decode.ShiftLSL || inst.Amt != 0 {
		v, _ := c.shiftedOperand(inst)
		return v
	}
	return uint32(inst.Imm)
}

func (c *CPU) doAdd(bus Bus, inst decode.Instruction, sub bool) error {
	rn := c.readReg(inst.Rn)
	var rhs uint32
	if inst.Rm != 0 && inst.Imm == 0 {
		rhs, _ = c.shiftedOperand(inst)
	} else {
		rhs = uint32(inst.Imm)
	}
	var result uint32
	var carry, overflow bool
	if sub {
		result, carry, overflow = addWithCarry(rn, ^rhs, true)
	} else {
		result, carry, overflow = addWithCarry(rn, rhs, false)
	}
	c.writeReg(inst.Rd, result)
	if inst.SetFlags {
		c.flagsSet(result&0x80000000 != 0, result == 0, carry, overflow)
	}
	return c.maybeBranch(bus, inst.Rd, result)
}

func (c *CPU) maybeBranch(bus Bus, rd uint8, value uint32) error {
	if rd != RegPC {
		return nil
	}
	handled, err := c.checkExceptionReturn(bus, value)
	if handled {
		return err
	}
	c.reg.PC = value &^ 1
	return nil
}

func (c *CPU) doShift(inst decode.Instruction) error {
	var rm uint32
	var amt uint8
	if inst.ShiftReg {
		// Register-controlled form (e.g. "LSLS Rd, Rs"): the value to
		// shift is Rn, the amount is the low byte of Rm, and a zero
		// amount is genuinely a no-op shift — unlike the immediate
		// encoding, it never means "shift by 32".
		rm = c.readReg(inst.Rn)
		amt = uint8(c.readReg(inst.Rm))
	} else {
		rm = c.readReg(inst.Rm)
		amt = inst.Amt
	}
	var v uint32
	var carry bool
	switch inst.Op {
	case decode.OpLSL:
		v, carry = decode.ShiftC(decode.ShiftLSL, rm, amt, c.cFlag())
	case decode.OpLSR:
		if amt == 0 && !inst.ShiftReg {
			amt = 32
		}
		v, carry = decode.ShiftC(decode.ShiftLSR, rm, amt, c.cFlag())
	case decode.OpASR:
		if amt == 0 && !inst.ShiftReg {
			amt = 32
		}
		v, carry = decode.ShiftC(decode.ShiftASR, rm, amt, c.cFlag())
	case decode.OpROR:
		if inst.ShiftReg && amt == 0 {
			// A register-controlled ROR by zero (Rs & 0xff == 0) leaves
			// the value and carry untouched; ShiftC's amount==0 case is
			// reserved for the immediate encoding's RRX alias.
			v, carry = rm, c.cFlag()
			break
		}
		v, carry = decode.ShiftC(decode.ShiftROR, rm, amt, c.cFlag())
	}
	c.writeReg(inst.Rd, v)
	if inst.SetFlags {
		c.flagsSet(v&0x80000000 != 0, v == 0, carry, c.vFlag())
	}
	return nil
}

func bitfieldMask(lsb, width uint8) uint32 {
	if width == 0 {
		return 0
	}
	return lowMask(width) << lsb
}

func lowMask(width uint8) uint32 {
	if width >= 32 {
		return 0xffffffff
	}
	return (uint32(1) << width) - 1
}
