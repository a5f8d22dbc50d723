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

// Package nvic implements the Nested Vectored Interrupt Controller's
// enable/pending bitmaps for up to 256 external IRQs. Priority is
// deliberately coarse (spec §9 Open Questions): ties break on highest IRQ
// number, there is no separate priority register.
package nvic

import "github.com/cm3sim/cm3sim/peripheral"

const (
	Base = 0xE000E100
	Size = 0x400

	numIRQ   = 256
	numWords = numIRQ / 32

	offISER = 0x000
	offICER = 0x080
	offISPR = 0x100
	offICPR = 0x180

	// FirstExternal is the IRQ number NVIC's bit 0 corresponds to (spec §4.2).
	FirstExternal uint32 = 16
)

// NVIC holds the enable and pending bitmaps.
type NVIC struct {
	peripheral.Base

	enabled [numWords]uint32
	pending [numWords]uint32
}

// New constructs an NVIC with all IRQs disabled and clear.
func New() *NVIC {
	return &NVIC{Base: peripheral.NewBase("NVIC", Size)}
}

// Pend sets the pending bit for an absolute exception number irq (>=16).
func (n *NVIC) Pend(irq uint32) {
	idx := irq - FirstExternal
	if idx >= numIRQ {
		return
	}
	n.pending[idx/32] |= 1 << (idx % 32)
}

// ClearPending clears the pending bit for irq (ICPR semantics).
func (n *NVIC) ClearPending(irq uint32) {
	idx := irq - FirstExternal
	if idx >= numIRQ {
		return
	}
	n.pending[idx/32] &^= 1 << (idx % 32)
}

// HighestPending returns the highest-numbered IRQ that is both enabled and
// pending (spec §4.2 step 4, tie-break rule in §5).
func (n *NVIC) HighestPending() (uint32, bool) {
	for idx := numIRQ - 1; idx >= 0; idx-- {
		bit := uint32(1) << (idx % 32)
		if n.enabled[idx/32]&bit != 0 && n.pending[idx/32]&bit != 0 {
			return FirstExternal + uint32(idx), true
		}
	}
	return 0, false
}

func bitmapWrite(words *[numWords]uint32, offset uint32, v uint8, set bool) {
	word := offset / 4
	if word >= numWords {
		return
	}
	shift := (offset % 4) * 8
	mask := uint32(v) << shift
	if set {
		words[word] |= mask
	} else {
		words[word] &^= mask
	}
}

func bitmapRead(words *[numWords]uint32, offset uint32) uint8 {
	word := offset / 4
	if word >= numWords {
		return 0
	}
	shift := (offset % 4) * 8
	return uint8(words[word] >> shift)
}

func (n *NVIC) Read(offset uint32) (uint8, error) {
	if err := n.CheckOffset(offset); err != nil {
		return 0, err
	}
	switch {
	case offset >= offISER && offset < offISER+numWords*4:
		return bitmapRead(&n.enabled, offset-offISER), nil
	case offset >= offICER && offset < offICER+numWords*4:
		return bitmapRead(&n.enabled, offset-offICER), nil
	case offset >= offISPR && offset < offISPR+numWords*4:
		return bitmapRead(&n.pending, offset-offISPR), nil
	case offset >= offICPR && offset < offICPR+numWords*4:
		return bitmapRead(&n.pending, offset-offICPR), nil
	default:
		return 0, nil
	}
}

func (n *NVIC) Write(offset uint32, v uint8) error {
	if err := n.CheckOffset(offset); err != nil {
		return err
	}
	switch {
	case offset >= offISER && offset < offISER+numWords*4:
		bitmapWrite(&n.enabled, offset-offISER, v, true)
	case offset >= offICER && offset < offICER+numWords*4:
		bitmapWrite(&n.enabled, offset-offICER, v, false)
	case offset >= offISPR && offset < offISPR+numWords*4:
		bitmapWrite(&n.pending, offset-offISPR, v, true)
	case offset >= offICPR && offset < offICPR+numWords*4:
		bitmapWrite(&n.pending, offset-offICPR, v, false)
	}
	return nil
}

func (n *NVIC) Tick() peripheral.TickResult { return peripheral.DefaultTick() }

func (n *NVIC) Snapshot() any {
	return map[string]any{"enabled": n.enabled, "pending": n.pending}
}
