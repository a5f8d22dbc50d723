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

// Package cpu implements the ARMv7-M programmer's model for a Cortex-M3:
// the register file, xPSR, PRIMASK, the fetch/decode/execute step, and
// exception entry/exit. It has no pipeline, no speculative state and no
// cycle-accurate timing — every instruction completes within one Step
// (spec's cycle-exact pipeline modeling is explicitly out of scope).
package cpu

import (
	"errors"
	"log/slog"

	"github.com/cm3sim/cm3sim/internal/decode"
	"github.com/cm3sim/cm3sim/internal/simerr"
	"github.com/cm3sim/cm3sim/internal/tracelog"
)

// Bus is the subset of the bus the CPU needs: word/halfword/byte access
// for fetch, load/store, and exception stack-frame round trips.
type Bus interface {
	ReadU8(addr uint32) (uint8, error)
	ReadU16(addr uint32) (uint16, error)
	ReadU32(addr uint32) (uint32, error)
	WriteU8(addr uint32, v uint8) error
	WriteU16(addr uint32, v uint16) error
	WriteU32(addr uint32, v uint32) error
	PendingException() (irq uint32, ok bool)
	AckException(irq uint32)
	// VTOR returns the live vector table offset. The CPU re-reads it on
	// every exception entry rather than caching a copy at reset, so a
	// runtime VTOR relocation (spec §8 scenario 6) takes effect immediately.
	VTOR() (uint32, error)
}

const (
	RegSP = 13
	RegLR = 14
	RegPC = 15
)

// xPSR flag bits (APSR half).
const (
	flagV uint32 = 1 << 28
	flagC uint32 = 1 << 29
	flagZ uint32 = 1 << 30
	flagN uint32 = 1 << 31

	ipsrMask uint32 = 0x1ff
)

// exceptionReturnMask identifies EXC_RETURN sentinel values (spec §4.5):
// writing one of these to PC via BX/POP/LDM unwinds the exception frame
// instead of branching.
const exceptionReturnMask uint32 = 0xFFFFFFE0

// Registers is the programmer-visible state.
type Registers struct {
	R    [13]uint32
	SP   uint32
	LR   uint32
	PC   uint32
	XPSR uint32 // flags in bits 31:28, IPSR in bits 8:0
}

// CPU is the Cortex-M3 core.
type CPU struct {
	reg Registers

	primask bool // PRIMASK: true masks all configurable-priority exceptions

	itMask, itCond uint8 // active IT-block state

	halted bool
	prevPC uint32

	log *slog.Logger
}

// New constructs a CPU. logger may be nil (discards everything).
func New(logger *slog.Logger) *CPU {
	if logger == nil {
		logger = tracelog.Discard()
	}
	return &CPU{log: logger}
}

// Registers returns a copy of the current register file, for tests and
// snapshot/diff tooling.
func (c *CPU) Registers() Registers { return c.reg }

// Halted reports whether the CPU has entered the simulator's halt state
// (by executing WFI or WFE; no other instruction, sentinel or fault halts
// it), at which point Step becomes a no-op.
func (c *CPU) Halted() bool { return c.halted }

// Reset performs the ARMv7-M reset sequence: MSP is read from VTOR+0, the
// initial PC from VTOR+4 with bit 0 (Thumb marker) cleared (spec §4.5).
func (c *CPU) Reset(bus Bus) error {
	c.reg = Registers{LR: 0xFFFFFFFF}
	c.primask = false
	c.itMask, c.itCond = 0, 0
	c.halted = false

	vtor, err := bus.VTOR()
	if err != nil {
		return err
	}
	sp, err := bus.ReadU32(vtor)
	if err != nil {
		return err
	}
	entry, err := bus.ReadU32(vtor + 4)
	if err != nil {
		return err
	}
	c.reg.SP = sp
	c.reg.PC = entry &^ 1
	return nil
}

// Restore reapplies a previously captured flat register file plus XPSR and
// PRIMASK, for Machine.Restore's snapshot round trip (spec §8 "snapshot →
// restore → snapshot produces equal JSON"). regs is R0..R15 in order
// (13=SP, 14=LR, 15=PC), matching the layout Machine.Snapshot flattens to.
func (c *CPU) Restore(regs [16]uint32, xpsr uint32, primask bool) {
	copy(c.reg.R[:], regs[0:13])
	c.reg.SP = regs[13]
	c.reg.LR = regs[14]
	c.reg.PC = regs[15]
	c.reg.XPSR = xpsr
	c.primask = primask
	c.halted = false
}

// PRIMASK returns the current PRIMASK bit.
func (c *CPU) PRIMASK() bool { return c.primask }

// SetPRIMASK sets PRIMASK (used by CPSID/CPSIE and by test harnesses).
func (c *CPU) SetPRIMASK(v bool) { c.primask = v }

func (c *CPU) flagsSet(n, z, cFlag, v bool) {
	c.reg.XPSR &^= flagN | flagZ | flagC | flagV
	if n {
		c.reg.XPSR |= flagN
	}
	if z {
		c.reg.XPSR |= flagZ
	}
	if cFlag {
		c.reg.XPSR |= flagC
	}
	if v {
		c.reg.XPSR |= flagV
	}
}

func (c *CPU) nFlag() bool { return c.reg.XPSR&flagN != 0 }
func (c *CPU) zFlag() bool { return c.reg.XPSR&flagZ != 0 }
func (c *CPU) cFlag() bool { return c.reg.XPSR&flagC != 0 }
func (c *CPU) vFlag() bool { return c.reg.XPSR&flagV != 0 }

// reg returns a pointer to register n (0-12 general, 13 SP, 14 LR, 15 PC).
func (c *CPU) regPtr(n uint8) *uint32 {
	switch {
	case n < 13:
		return &c.reg.R[n]
	case n == RegSP:
		return &c.reg.SP
	case n == RegLR:
		return &c.reg.LR
	default:
		return &c.reg.PC
	}
}

func (c *CPU) readReg(n uint8) uint32 {
	if n == RegPC {
		// Reads of PC see the address of the current instruction + 4
		// (the Thumb pipeline-fetch convention), not the PC field, which
		// Step has already advanced by the instruction's width; the
		// word-aligned literal-load base is computed in baseForLoadStore.
		return c.prevPC + 4
	}
	return *c.regPtr(n)
}

func (c *CPU) writeReg(n uint8, v uint32) {
	*c.regPtr(n) = v
}

// conditionHolds evaluates one of the 15 defined ARM condition codes
// against the current flags. Cond 0xF is treated like AL; the decoder never
// produces it for a branch (16-bit 0xDFxx is SVC, rejected as unknown, and
// the 32-bit conditional form excludes cond 111x).
func (c *CPU) conditionHolds(cond uint8) bool {
	switch cond {
	case 0x0:
		return c.zFlag()
	case 0x1:
		return !c.zFlag()
	case 0x2:
		return c.cFlag()
	case 0x3:
		return !c.cFlag()
	case 0x4:
		return c.nFlag()
	case 0x5:
		return !c.nFlag()
	case 0x6:
		return c.vFlag()
	case 0x7:
		return !c.vFlag()
	case 0x8:
		return c.cFlag() && !c.zFlag()
	case 0x9:
		return !c.cFlag() || c.zFlag()
	case 0xA:
		return c.nFlag() == c.vFlag()
	case 0xB:
		return c.nFlag() != c.vFlag()
	case 0xC:
		return !c.zFlag() && c.nFlag() == c.vFlag()
	case 0xD:
		return c.zFlag() || c.nFlag() != c.vFlag()
	default: // 0xE (AL) and the unused 0xF
		return true
	}
}

// IPSR returns the exception number currently being serviced, 0 if none.
func (c *CPU) IPSR() uint32 { return c.reg.XPSR & ipsrMask }

func (c *CPU) setIPSR(n uint32) { c.reg.XPSR = (c.reg.XPSR &^ ipsrMask) | (n & ipsrMask) }

// Step first checks for a pending exception the CPU can take and, if there
// is one, enters it and returns; otherwise it fetches, decodes and executes
// exactly one instruction (spec §4.2/§4.5). It's the CPU's half
// of Machine.Step; the Bus's peripheral tick happens around this call.
func (c *CPU) Step(bus Bus) error {
	if c.halted {
		return nil
	}

	if irq, ok := bus.PendingException(); ok && c.canEnter(irq) {
		if err := c.enterException(bus, irq); err != nil {
			return err
		}
		bus.AckException(irq)
		return nil
	}

	pc := c.reg.PC
	if pc&1 != 0 {
		return &simerr.UnalignedFetch{PC: pc}
	}
	half1, err := bus.ReadU16(pc)
	if err != nil {
		return err
	}
	inst, err := decode.Decode(half1, func() (uint16, error) { return bus.ReadU16(pc + 2) })
	if err != nil {
		var unk *simerr.UnknownInstruction
		if errors.As(err, &unk) {
			unk.PC = pc
		}
		return err
	}

	c.prevPC = pc
	c.reg.PC = pc + inst.Width

	if inst.Op == decode.OpIT {
		// IT itself is unconditional and does not use up a slot of the
		// block it opens.
		return c.execute(bus, inst)
	}
	if !c.conditionPasses(inst.Cond) {
		c.consumeIT()
		return nil
	}
	if err := c.execute(bus, inst); err != nil {
		return err
	}
	c.consumeIT()
	return nil
}

// conditionPasses applies inst's own condition plus any active IT-block
// condition (spec §4.5 condition code evaluation).
func (c *CPU) conditionPasses(cond uint8) bool {
	if c.itMask != 0 {
		return c.conditionHolds(c.itCond)
	}
	return c.conditionHolds(cond)
}

func (c *CPU) consumeIT() {
	if c.itMask == 0 {
		return
	}
	// Each executed instruction in an IT block shifts the mask; when the
	// bottom set bit reaches bit 3 the block is complete.
	if c.itMask&0x7 == 0 {
		c.itMask = 0
		return
	}
	c.itMask = (c.itMask << 1) & 0xf
}

// canEnter reports whether exception irq is currently allowed to preempt
// execution. PRIMASK masks only configurable-priority exceptions — the
// external IRQs numbered 16 and above; core exceptions (<16, including
// SysTick) always deliver regardless of PRIMASK (spec §4.5, §8 invariant 5).
func (c *CPU) canEnter(irq uint32) bool {
	if c.primask && irq >= 16 {
		return false
	}
	return irq > c.IPSR() || c.IPSR() == 0
}
