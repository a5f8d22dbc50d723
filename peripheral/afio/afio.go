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

// Package afio implements the alternate-function I/O remap and
// EXTI-line-to-GPIO-port mapping registers. Since this simulator has no
// pin-multiplexing model to actually reroute (GPIO ports are independent,
// not shared pads), AFIO here is a plain register bank: firmware can set
// and read it back, but nothing downstream consults it yet beyond
// EXTICR's port selection, exposed via Port for an external wiring step
// to read at manifest-build time.
package afio

import (
	"github.com/cm3sim/cm3sim/internal/regfile"
	"github.com/cm3sim/cm3sim/peripheral"
)

const (
	Size = 0x24

	numRegs = Size / 4

	regEVCR    = 0
	regMAPR    = 1
	regEXTICR1 = 2
	regEXTICR2 = 3
	regEXTICR3 = 4
	regEXTICR4 = 5
)

// AFIO is the remap/EXTI-mux register bank.
type AFIO struct {
	peripheral.Base

	regs *regfile.Bank
}

// New constructs an AFIO with all registers zeroed.
func New() *AFIO {
	return &AFIO{Base: peripheral.NewBase("AFIO", Size), regs: regfile.NewBank(numRegs)}
}

func (a *AFIO) Read(offset uint32) (uint8, error) {
	if err := a.CheckOffset(offset); err != nil {
		return 0, err
	}
	return a.regs.ReadByte(offset), nil
}

func (a *AFIO) Write(offset uint32, v uint8) error {
	if err := a.CheckOffset(offset); err != nil {
		return err
	}
	a.regs.WriteByte(offset, v)
	return nil
}

func (a *AFIO) Tick() peripheral.TickResult { return peripheral.DefaultTick() }

// Port returns the 4-bit port selector firmware wrote for EXTI line
// (0-15): 0=PA, 1=PB, ... matching the EXTICRx layout (4 lines per
// register, 4 bits per line).
func (a *AFIO) Port(line uint) uint8 {
	if line >= 16 {
		return 0
	}
	reg := regEXTICR1 + int(line/4)
	shift := (line % 4) * 4
	return uint8(a.regs.Word(reg) >> shift & 0xf)
}

func (a *AFIO) Snapshot() any { return map[string]any{"regs": a.regs.Snapshot()} }
