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

// Package gpio implements a single GPIO port: mode/output/input data
// registers. Pins not externally driven read back whatever was last
// written to ODR (loopback), which is enough for firmware that just
// toggles pins without a simulated external circuit; SetInput overrides
// specific bits for tests that need to drive pins from outside.
package gpio

import (
	"github.com/cm3sim/cm3sim/internal/regfile"
	"github.com/cm3sim/cm3sim/peripheral"
)

const Size = 0x20

const (
	regCRL = iota // port configuration low
	regCRH        // port configuration high
	regIDR        // input data
	regODR        // output data
	regBSRR       // bit set/reset
	regBRR        // bit reset
	regLCKR       // configuration lock
	numRegs
)

// GPIO is one memory-mapped port.
type GPIO struct {
	peripheral.Base

	regs      *regfile.Bank
	drivenExt uint32 // mask of bits externally driven via SetInput
	extValue  uint32
}

// New constructs a GPIO port with all registers zeroed.
func New(name string) *GPIO {
	return &GPIO{Base: peripheral.NewBase(name, Size), regs: regfile.NewBank(numRegs)}
}

// SetInput drives bits of IDR from outside the simulated firmware (a test
// harness standing in for real hardware), independent of ODR loopback.
func (g *GPIO) SetInput(mask, value uint32) {
	g.drivenExt |= mask
	g.extValue = (g.extValue &^ mask) | (value & mask)
}

func (g *GPIO) Read(offset uint32) (uint8, error) {
	if err := g.CheckOffset(offset); err != nil {
		return 0, err
	}
	if offset/4 == regIDR {
		odr := g.regs.Word(regODR)
		idr := (odr &^ g.drivenExt) | (g.extValue & g.drivenExt)
		shift := (offset % 4) * 8
		return uint8(idr >> shift), nil
	}
	return g.regs.ReadByte(offset), nil
}

func (g *GPIO) Write(offset uint32, v uint8) error {
	if err := g.CheckOffset(offset); err != nil {
		return err
	}
	switch offset / 4 {
	case regBSRR:
		g.regs.WriteByte(offset, v)
		// Bytes 0-1 set ODR bits 0-15; bytes 2-3 reset them.
		byteIdx := offset % 4
		if byteIdx < 2 {
			g.regs.SetWord(regODR, g.regs.Word(regODR)|uint32(v)<<(byteIdx*8))
		} else {
			g.regs.SetWord(regODR, g.regs.Word(regODR)&^(uint32(v)<<((byteIdx-2)*8)))
		}
	case regIDR:
		// read-only register, writes are ignored
	default:
		g.regs.WriteByte(offset, v)
	}
	return nil
}

func (g *GPIO) Tick() peripheral.TickResult { return peripheral.DefaultTick() }

func (g *GPIO) Snapshot() any {
	return map[string]any{"regs": g.regs.Snapshot()}
}
