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

// Package memory implements flat, byte-addressable storage for flash and RAM
// regions. Unaligned halfword/word access is well-defined (assembled byte by
// byte) and never faults; only an out-of-range offset faults.
package memory

import "github.com/cm3sim/cm3sim/internal/simerr"

// Kind distinguishes flash (write-protected during execution) from RAM.
type Kind int

const (
	Flash Kind = iota
	RAM
)

// Region is a contiguous block of byte storage owned by one memory region.
// Base is informational only here — all accessors take an offset relative
// to the region's own base; the Bus is responsible for translating an
// absolute address into (region, offset).
type Region struct {
	Name string
	Base uint32
	Kind Kind

	bytes []byte
}

// NewRegion allocates a zero-filled region of size bytes.
func NewRegion(name string, base uint32, size uint32, kind Kind) *Region {
	return &Region{Name: name, Base: base, Kind: kind, bytes: make([]byte, size)}
}

// Size returns the region's byte size.
func (r *Region) Size() uint32 { return uint32(len(r.bytes)) }

func (r *Region) bounds(offset uint32, width uint32) error {
	if uint64(offset)+uint64(width) > uint64(len(r.bytes)) {
		return &simerr.MemoryOutOfBounds{Addr: r.Base + offset}
	}
	return nil
}

// ReadU8 reads a single byte at offset.
func (r *Region) ReadU8(offset uint32) (uint8, error) {
	if err := r.bounds(offset, 1); err != nil {
		return 0, err
	}
	return r.bytes[offset], nil
}

// ReadU16 reads a little-endian halfword, byte-assembled so unaligned
// offsets are well-defined.
func (r *Region) ReadU16(offset uint32) (uint16, error) {
	if err := r.bounds(offset, 2); err != nil {
		return 0, err
	}
	return uint16(r.bytes[offset]) | uint16(r.bytes[offset+1])<<8, nil
}

// ReadU32 reads a little-endian word, byte-assembled.
func (r *Region) ReadU32(offset uint32) (uint32, error) {
	if err := r.bounds(offset, 4); err != nil {
		return 0, err
	}
	return uint32(r.bytes[offset]) |
		uint32(r.bytes[offset+1])<<8 |
		uint32(r.bytes[offset+2])<<16 |
		uint32(r.bytes[offset+3])<<24, nil
}

// WriteU8 stores a byte at offset. Flash protection is enforced by the Bus,
// not here — Region has no notion of "during execution" vs. "loader path".
func (r *Region) WriteU8(offset uint32, v uint8) error {
	if err := r.bounds(offset, 1); err != nil {
		return err
	}
	r.bytes[offset] = v
	return nil
}

// WriteU16 stores a little-endian halfword, byte by byte.
func (r *Region) WriteU16(offset uint32, v uint16) error {
	if err := r.bounds(offset, 2); err != nil {
		return err
	}
	r.bytes[offset] = uint8(v)
	r.bytes[offset+1] = uint8(v >> 8)
	return nil
}

// WriteU32 stores a little-endian word, byte by byte.
func (r *Region) WriteU32(offset uint32, v uint32) error {
	if err := r.bounds(offset, 4); err != nil {
		return err
	}
	r.bytes[offset] = uint8(v)
	r.bytes[offset+1] = uint8(v >> 8)
	r.bytes[offset+2] = uint8(v >> 16)
	r.bytes[offset+3] = uint8(v >> 24)
	return nil
}

// Load copies bytes into the region starting at offset, bypassing any flash
// write protection (that distinction is enforced by the Bus's loader path,
// per spec §4.1).
func (r *Region) Load(offset uint32, data []byte) error {
	if err := r.bounds(offset, uint32(len(data))); err != nil {
		return err
	}
	copy(r.bytes[offset:], data)
	return nil
}

// Snapshot returns a copy of the region's bytes, for use by higher layers
// building a JSON snapshot (spec §6) without exposing the backing slice.
func (r *Region) Snapshot() []byte {
	out := make([]byte, len(r.bytes))
	copy(out, r.bytes)
	return out
}

// Restore overwrites the region's contents from a previously captured
// snapshot. Panics if the length does not match — this is a programming
// error (snapshot/restore always operate on the same chip layout).
func (r *Region) Restore(data []byte) {
	if len(data) != len(r.bytes) {
		panic("memory: restore size mismatch")
	}
	copy(r.bytes, data)
}
