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

// Package simerr defines the error taxonomy that bubbles out of Machine.Step:
// memory faults, decode faults, and the invariant-violation catch-all. All
// of them carry enough context (address, PC, opcode) for a caller to report
// a useful stop reason without re-deriving it.
package simerr

import "fmt"

// MemoryOutOfBounds is returned for an offset past the declared size of a
// memory region or a peripheral. An address that no region or peripheral
// maps is a MemoryFault.
type MemoryOutOfBounds struct {
	Addr uint32
}

func (e *MemoryOutOfBounds) Error() string {
	return fmt.Sprintf("memory out of bounds: %#08x", e.Addr)
}

// WriteToFlash is returned for a store targeting a flash-kind region during
// execution (construction-time loader writes bypass this via LoadSegment).
type WriteToFlash struct {
	Addr uint32
}

func (e *WriteToFlash) Error() string {
	return fmt.Sprintf("write to flash: %#08x", e.Addr)
}

// MemoryFault is returned when no routed region contains the address at all
// (distinct from MemoryOutOfBounds, which is for a region whose own bounds
// were exceeded; MemoryFault is "no region claims this address").
type MemoryFault struct {
	Addr uint32
}

func (e *MemoryFault) Error() string {
	return fmt.Sprintf("unmapped address: %#08x", e.Addr)
}

// UnknownInstruction is returned by the decoder for an encoding with no
// defined variant.
type UnknownInstruction struct {
	PC     uint32
	Opcode uint32
}

func (e *UnknownInstruction) Error() string {
	return fmt.Sprintf("unknown instruction %#04x at pc=%#08x", e.Opcode, e.PC)
}

// UnalignedFetch is returned when PC loses halfword alignment.
type UnalignedFetch struct {
	PC uint32
}

func (e *UnalignedFetch) Error() string {
	return fmt.Sprintf("unaligned fetch at pc=%#08x", e.PC)
}

// VectorTableMissing is returned on exception entry when the vector table
// slot for irq is zero or out of range.
type VectorTableMissing struct {
	IRQ int
}

func (e *VectorTableMissing) Error() string {
	return fmt.Sprintf("vector table missing entry for irq %d", e.IRQ)
}

// Internal signals an invariant violation that should not occur in a
// well-formed run.
type Internal struct {
	Message string
}

func (e *Internal) Error() string {
	return "internal: " + e.Message
}
