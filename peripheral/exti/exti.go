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

// Package exti implements the external interrupt/event controller: 32
// lines, each maskable and edge-configurable, with software-triggerable
// pending bits and one combined IRQ per line (a simplification of the
// real part's shared line-group IRQs, acceptable since the simulator
// doesn't model shared-IRQ priority arbitration beyond NVIC's own
// tie-break rule).
package exti

import "github.com/cm3sim/cm3sim/peripheral"

const (
	Size = 0x18

	offIMR   = 0x00 // interrupt mask
	offEMR   = 0x04 // event mask
	offRTSR  = 0x08 // rising trigger select
	offFTSR  = 0x0C // falling trigger select
	offSWIER = 0x10 // software interrupt event
	offPR    = 0x14 // pending
)

// EXTI holds the 32-line control registers and a fixed line-to-IRQ map.
type EXTI struct {
	peripheral.Base

	imr, emr, rtsr, ftsr, pr uint32

	// lineIRQ maps line number to absolute exception number; lines with no
	// entry never raise an IRQ even if pended (wired but unused lines).
	lineIRQ map[uint]uint32
}

// New constructs an EXTI controller. lineIRQ gives the core exception
// number for each wired line.
func New(lineIRQ map[uint]uint32) *EXTI {
	return &EXTI{Base: peripheral.NewBase("EXTI", Size), lineIRQ: lineIRQ}
}

// Signal raises line (an external edge, not software-triggered): it's
// latched in PR if the corresponding edge is selected, matching the real
// part's "any enabled edge sets the pending bit regardless of IMR" rule —
// IMR only gates whether it's allowed to interrupt.
func (e *EXTI) Signal(line uint, rising bool) {
	bit := uint32(1) << line
	if (rising && e.rtsr&bit != 0) || (!rising && e.ftsr&bit != 0) {
		e.pr |= bit
	}
}

func (e *EXTI) regFor(offset uint32) *uint32 {
	switch offset &^ 3 {
	case offIMR:
		return &e.imr
	case offEMR:
		return &e.emr
	case offRTSR:
		return &e.rtsr
	case offFTSR:
		return &e.ftsr
	case offSWIER:
		return &e.pr // SWIER is write-only and folds directly into PR below
	default:
		return &e.pr
	}
}

func (e *EXTI) Read(offset uint32) (uint8, error) {
	if err := e.CheckOffset(offset); err != nil {
		return 0, err
	}
	if offset&^3 == offSWIER {
		return 0, nil
	}
	return uint8(*e.regFor(offset) >> ((offset % 4) * 8)), nil
}

func (e *EXTI) Write(offset uint32, v uint8) error {
	if err := e.CheckOffset(offset); err != nil {
		return err
	}
	shift := (offset % 4) * 8
	switch offset &^ 3 {
	case offPR:
		// Write-1-to-clear.
		e.pr &^= uint32(v) << shift
	case offSWIER:
		e.pr |= uint32(v) << shift
	default:
		reg := e.regFor(offset)
		mask := uint32(0xff) << shift
		*reg = (*reg &^ mask) | uint32(v)<<shift
	}
	return nil
}

func (e *EXTI) Tick() peripheral.TickResult {
	pending := e.pr & e.imr
	if pending == 0 {
		return peripheral.DefaultTick()
	}
	for line := uint(0); line < 32; line++ {
		if pending&(1<<line) == 0 {
			continue
		}
		if irq, ok := e.lineIRQ[line]; ok {
			result := irq
			return peripheral.TickResult{IRQ: &result, Cycles: 1}
		}
	}
	return peripheral.DefaultTick()
}

func (e *EXTI) Snapshot() any {
	return map[string]any{"imr": e.imr, "rtsr": e.rtsr, "ftsr": e.ftsr, "pr": e.pr}
}
