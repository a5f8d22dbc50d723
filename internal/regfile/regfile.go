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

// Package regfile is the shared word-addressable register bank used by the
// simpler peripherals (GPIO, RCC, AFIO, TIM, I2C, SPI): plain uint32 slots
// with byte-granular read/modify/write, no behavior of its own. A
// peripheral embeds a Bank and layers semantics (tick side effects, IRQs)
// on top of specific word indices.
package regfile

// Bank is nwords uint32 registers addressable at 4-byte strides.
type Bank struct {
	words []uint32
}

// NewBank allocates a zeroed bank of nwords registers (nwords*4 bytes).
func NewBank(nwords int) *Bank {
	return &Bank{words: make([]uint32, nwords)}
}

// Len returns the bank's size in bytes.
func (b *Bank) Len() uint32 { return uint32(len(b.words) * 4) }

// Word returns register idx's raw value.
func (b *Bank) Word(idx int) uint32 { return b.words[idx] }

// SetWord overwrites register idx.
func (b *Bank) SetWord(idx int, v uint32) { b.words[idx] = v }

// ReadByte reads one byte at a 4-byte-stride offset.
func (b *Bank) ReadByte(offset uint32) uint8 {
	idx := offset / 4
	if int(idx) >= len(b.words) {
		return 0
	}
	return uint8(b.words[idx] >> ((offset % 4) * 8))
}

// WriteByte writes one byte at a 4-byte-stride offset.
func (b *Bank) WriteByte(offset uint32, v uint8) {
	idx := offset / 4
	if int(idx) >= len(b.words) {
		return
	}
	shift := (offset % 4) * 8
	mask := uint32(0xff) << shift
	b.words[idx] = (b.words[idx] &^ mask) | uint32(v)<<shift
}

// Snapshot returns a copy of the raw words, for peripheral Snapshot()
// implementations.
func (b *Bank) Snapshot() []uint32 {
	out := make([]uint32, len(b.words))
	copy(out, b.words)
	return out
}
