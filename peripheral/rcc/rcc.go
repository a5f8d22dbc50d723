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

// Package rcc implements the reset and clock control block as a bank of
// plain read/write registers. The simulator doesn't model clock trees or
// PLL lock timing (spec's Non-goals exclude cycle-exact timing), so RCC
// here just stores whatever firmware writes and echoes a "ready" bit next
// to every enable bit firmware expects to poll.
package rcc

import (
	"github.com/cm3sim/cm3sim/internal/regfile"
	"github.com/cm3sim/cm3sim/peripheral"
)

const (
	Size = 0x40

	numRegs = Size / 4

	regCR    = 0 // clock control: firmware polls HSxRDY bits here
	regCFGR  = 1 // clock configuration
	regAPB2  = 3 // APB2 peripheral clock enable
	regAPB1  = 4 // APB1 peripheral clock enable
	regAHB   = 2 // AHB peripheral clock enable
	hseReady = 1 << 17
	pllReady = 1 << 25
)

// RCC is the clock-control register bank.
type RCC struct {
	peripheral.Base

	regs *regfile.Bank
}

// New constructs an RCC with HSI selected and running (reset defaults).
func New() *RCC {
	r := &RCC{Base: peripheral.NewBase("RCC", Size), regs: regfile.NewBank(numRegs)}
	r.regs.SetWord(regCR, 0x00000083) // HSION | HSIRDY | reserved bit per datasheet reset value
	return r
}

func (r *RCC) Read(offset uint32) (uint8, error) {
	if err := r.CheckOffset(offset); err != nil {
		return 0, err
	}
	return r.regs.ReadByte(offset), nil
}

// Write stores the byte, then mirrors any HSEON/PLLON enable request as
// already-ready: there's no oscillator startup delay to simulate.
func (r *RCC) Write(offset uint32, v uint8) error {
	if err := r.CheckOffset(offset); err != nil {
		return err
	}
	r.regs.WriteByte(offset, v)
	if offset/4 == regCR {
		cr := r.regs.Word(regCR)
		if cr&(1<<16) != 0 {
			cr |= hseReady
		}
		if cr&(1<<24) != 0 {
			cr |= pllReady
		}
		r.regs.SetWord(regCR, cr)
	}
	return nil
}

func (r *RCC) Tick() peripheral.TickResult { return peripheral.DefaultTick() }

func (r *RCC) Snapshot() any { return map[string]any{"regs": r.regs.Snapshot()} }

// APB2Enabled reports whether bit pos of APB2ENR is set, for peripherals
// that want to check their own clock-enable gate.
func (r *RCC) APB2Enabled(pos uint) bool { return r.regs.Word(regAPB2)&(1<<pos) != 0 }

// APB1Enabled reports whether bit pos of APB1ENR is set.
func (r *RCC) APB1Enabled(pos uint) bool { return r.regs.Word(regAPB1)&(1<<pos) != 0 }

// AHBEnabled reports whether bit pos of AHBENR is set.
func (r *RCC) AHBEnabled(pos uint) bool { return r.regs.Word(regAHB)&(1<<pos) != 0 }
