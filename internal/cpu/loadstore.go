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
)

// baseForLoadStore reads Rn as a load/store base. PC as a base (the
// literal-pool form) uses the instruction's own address + 4 (what readReg
// returns for PC), word-aligned (A5-19 "PC-relative" addressing).
func (c *CPU) baseForLoadStore(rn uint8) uint32 {
	if rn == RegPC {
		return (c.prevPC + 4) &^ 3
	}
	return c.readReg(rn)
}

// loadStoreAddr computes the address an LDR/STR-family instruction accesses
// and the value Rn should hold afterward if Wback is set. For register
// offsets (Rm != 0) the shift/Add fields select magnitude and sign; for
// immediate offsets the decoder has already folded the sign into Imm, so
// Add plays no part there. Index false means post-indexed: the access uses
// the unmodified base and the offset is applied only to the write-back.
func (c *CPU) loadStoreAddr(inst decode.Instruction) (access, final uint32) {
	base := c.baseForLoadStore(inst.Rn)
	var offset int32
	if inst.Rm != 0 {
		rm := c.readReg(inst.Rm)
		shifted, _ := decode.ShiftC(inst.Shift, rm, inst.Amt, c.cFlag())
		offset = int32(shifted)
		if !inst.Add {
			offset = -offset
		}
	} else {
		offset = inst.Imm
	}
	final = uint32(int64(base) + int64(offset))
	if inst.Index {
		access = final
	} else {
		access = base
	}
	return access, final
}

func (c *CPU) doLoad(bus Bus, inst decode.Instruction) error {
	access, final := c.loadStoreAddr(inst)

	var v uint32
	switch inst.Op {
	case decode.OpLDR:
		r, err := bus.ReadU32(access)
		if err != nil {
			return err
		}
		v = r
	case decode.OpLDRB:
		r, err := bus.ReadU8(access)
		if err != nil {
			return err
		}
		v = uint32(r)
	case decode.OpLDRH:
		r, err := bus.ReadU16(access)
		if err != nil {
			return err
		}
		v = uint32(r)
	case decode.OpLDRSB:
		r, err := bus.ReadU8(access)
		if err != nil {
			return err
		}
		v = uint32(int32(int8(r)))
	case decode.OpLDRSH:
		r, err := bus.ReadU16(access)
		if err != nil {
			return err
		}
		v = uint32(int32(int16(r)))
	}

	if inst.Wback {
		c.writeReg(inst.Rn, final)
	}
	if inst.Rt == RegPC {
		return c.maybeBranch(bus, RegPC, v)
	}
	c.writeReg(inst.Rt, v)
	return nil
}

func (c *CPU) doStore(bus Bus, inst decode.Instruction) error {
	access, final := c.loadStoreAddr(inst)
	v := c.readReg(inst.Rt)

	var err error
	switch inst.Op {
	case decode.OpSTR:
		err = bus.WriteU32(access, v)
	case decode.OpSTRB:
		err = bus.WriteU8(access, uint8(v))
	case decode.OpSTRH:
		err = bus.WriteU16(access, uint16(v))
	}
	if err != nil {
		return err
	}
	if inst.Wback {
		c.writeReg(inst.Rn, final)
	}
	return nil
}

func (c *CPU) doLoadDouble(bus Bus, inst decode.Instruction) error {
	access, final := c.loadStoreAddr(inst)
	v1, err := bus.ReadU32(access)
	if err != nil {
		return err
	}
	v2, err := bus.ReadU32(access + 4)
	if err != nil {
		return err
	}
	c.writeReg(inst.Rt, v1)
	c.writeReg(inst.Rt2, v2)
	if inst.Wback {
		c.writeReg(inst.Rn, final)
	}
	return nil
}

func (c *CPU) doStoreDouble(bus Bus, inst decode.Instruction) error {
	access, final := c.loadStoreAddr(inst)
	if err := bus.WriteU32(access, c.readReg(inst.Rt)); err != nil {
		return err
	}
	if err := bus.WriteU32(access+4, c.readReg(inst.Rt2)); err != nil {
		return err
	}
	if inst.Wback {
		c.writeReg(inst.Rn, final)
	}
	return nil
}

// doLDM and doSTM walk RegList low-to-high starting at Rn's current value,
// matching the Thumb-2 "increment after" multiple-register encodings (the
// only addressing mode this instruction set's LDM/STM use).
func (c *CPU) doLDM(bus Bus, inst decode.Instruction) error {
	addr := c.readReg(inst.Rn)
	popPC := inst.RegList&(1<<RegPC) != 0
	var pcValue uint32

	for i := uint8(0); i < 16; i++ {
		if inst.RegList&(1<<i) == 0 {
			continue
		}
		v, err := bus.ReadU32(addr)
		if err != nil {
			return err
		}
		addr += 4
		if i == RegPC {
			pcValue = v
			continue
		}
		c.writeReg(i, v)
	}
	if inst.Wback {
		c.writeReg(inst.Rn, addr)
	}
	if popPC {
		handled, err := c.checkExceptionReturn(bus, pcValue)
		if handled {
			return err
		}
		c.reg.PC = pcValue &^ 1
	}
	return nil
}

func (c *CPU) doSTM(bus Bus, inst decode.Instruction) error {
	addr := c.readReg(inst.Rn)
	for i := uint8(0); i < 16; i++ {
		if inst.RegList&(1<<i) == 0 {
			continue
		}
		if err := bus.WriteU32(addr, c.readReg(i)); err != nil {
			return err
		}
		addr += 4
	}
	if inst.Wback {
		c.writeReg(inst.Rn, addr)
	}
	return nil
}

// doPush and doPop are the SP-relative special cases of STM/LDM: the
// decoder already folds LR/PC into RegList (spec §4.5 register-list
// encodings), so the only difference from doSTM/doLDM is the implicit SP
// base and the direction the frame grows.
func (c *CPU) doPush(bus Bus, inst decode.Instruction) error {
	n := uint32(bits.OnesCount16(inst.RegList))
	start := c.reg.SP - n*4
	addr := start
	for i := uint8(0); i < 16; i++ {
		if inst.RegList&(1<<i) == 0 {
			continue
		}
		if err := bus.WriteU32(addr, c.readReg(i)); err != nil {
			return err
		}
		addr += 4
	}
	c.reg.SP = start
	return nil
}

func (c *CPU) doPop(bus Bus, inst decode.Instruction) error {
	addr := c.reg.SP
	popPC := inst.RegList&(1<<RegPC) != 0
	var pcValue uint32

	for i := uint8(0); i < 16; i++ {
		if inst.RegList&(1<<i) == 0 {
			continue
		}
		v, err := bus.ReadU32(addr)
		if err != nil {
			return err
		}
		addr += 4
		if i == RegPC {
			pcValue = v
			continue
		}
		c.writeReg(i, v)
	}
	c.reg.SP = addr
	if popPC {
		handled, err := c.checkExceptionReturn(bus, pcValue)
		if handled {
			return err
		}
		c.reg.PC = pcValue &^ 1
	}
	return nil
}
