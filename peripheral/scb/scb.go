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

// Package scb implements the System Control Block register window, whose
// only normatively-required register is VTOR. The CPU never holds a
// reference to the SCB directly — it reads VTOR through the Bus at the
// well-known address, the same way firmware would (spec §9 "recommended
// design").
package scb

import "github.com/cm3sim/cm3sim/peripheral"

const (
	Base = 0xE000ED00
	Size = 0x40

	// VTORAddr is the absolute bus address of VTOR; the CPU reads it
	// directly rather than through a shared-memory shortcut.
	VTORAddr = Base + offVTOR

	offVTOR = 0x08

	vtorReservedMask uint32 = 0x7f // low 7 bits are reserved, written as zero
)

// SCB holds the Vector Table Offset Register.
type SCB struct {
	peripheral.Base

	vtor uint32
}

// New constructs an SCB with VTOR at its reset value (0, per spec §4.5).
func New() *SCB {
	return &SCB{Base: peripheral.NewBase("SCB", Size)}
}

func (s *SCB) Read(offset uint32) (uint8, error) {
	if err := s.CheckOffset(offset); err != nil {
		return 0, err
	}
	if offset>>2 == offVTOR>>2 {
		return uint8(s.vtor >> ((offset % 4) * 8)), nil
	}
	return 0, nil
}

func (s *SCB) Write(offset uint32, v uint8) error {
	if err := s.CheckOffset(offset); err != nil {
		return err
	}
	if offset>>2 == offVTOR>>2 {
		shift := (offset % 4) * 8
		mask := uint32(0xff) << shift
		s.vtor = (s.vtor &^ mask) | uint32(v)<<shift
		s.vtor &^= vtorReservedMask
	}
	return nil
}

func (s *SCB) Tick() peripheral.TickResult { return peripheral.DefaultTick() }

func (s *SCB) Snapshot() any { return map[string]any{"vtor": s.vtor} }

// VTOR returns the current vector table offset, for tests and tooling that
// want it without going through the Bus.
func (s *SCB) VTOR() uint32 { return s.vtor }
