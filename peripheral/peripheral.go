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

// Package peripheral defines the uniform, byte-granular contract every
// memory-mapped peripheral implements. The peripheral set is closed at
// manifest-load time (spec §4.3); the Bus is the sole owner of any
// Peripheral instance.
package peripheral

import "github.com/cm3sim/cm3sim/internal/simerr"

// AccessWidth is the size of a single DMA transfer element.
type AccessWidth int

const (
	Byte AccessWidth = 1
	Half AccessWidth = 2
	Word AccessWidth = 4
)

// DMAKind distinguishes a memory read from a memory write DMA request.
type DMAKind int

const (
	DMARead DMAKind = iota
	DMAWrite
)

// DMARequest is bus-mastering fire-and-forget: the Bus executes it against
// memory (respecting routing and flash protection) after collecting it from
// a peripheral's Tick. Tick itself never receives a DMARead's value (spec
// §4.2); a peripheral that needs it implements bus.DMAReadSink, and the Bus
// passes the value to its CompleteDMARead in the same TickPeripherals pass
// (see peripheral/dma).
type DMARequest struct {
	Kind  DMAKind
	Addr  uint32
	Value uint32 // meaningful only for DMAWrite
	Width AccessWidth
}

// TickResult is returned once per peripheral per CPU step.
type TickResult struct {
	IRQ         *uint32 // nil when no IRQ this tick
	Cycles      uint32
	DMARequests []DMARequest
}

// DefaultTick is what a peripheral with no per-tick behavior returns.
func DefaultTick() TickResult {
	return TickResult{Cycles: 1}
}

// Peripheral is the uniform MMIO + tick + snapshot contract. Offsets are
// relative to the peripheral's own base; the Bus is responsible for
// address translation and for decomposing halfword/word accesses into
// ascending-offset byte calls (spec §4.2).
type Peripheral interface {
	Name() string
	Size() uint32

	Read(offset uint32) (uint8, error)
	Write(offset uint32, v uint8) error

	Tick() TickResult

	// Snapshot returns a structured, JSON-marshalable state dump. A
	// peripheral with nothing interesting to report may return nil.
	Snapshot() any
}

// Base supplies the Name/Size half of the contract; concrete peripherals
// embed it so they only need to implement Read/Write/Tick/Snapshot.
type Base struct {
	name string
	size uint32
}

// NewBase constructs a Base for embedding.
func NewBase(name string, size uint32) Base {
	return Base{name: name, size: size}
}

func (b Base) Name() string { return b.name }
func (b Base) Size() uint32 { return b.size }

// CheckOffset is the common out-of-bounds guard every peripheral's
// Read/Write should apply before touching its registers.
func (b Base) CheckOffset(offset uint32) error {
	if offset >= b.size {
		return &simerr.MemoryOutOfBounds{Addr: offset}
	}
	return nil
}

// Peer is the optional downcast accessor for inter-peripheral
// communication (spec §4.3), e.g. the DMA controller peeking at the SPI
// data register. key is peripheral-defined; an unrecognized key returns
// ok=false rather than an error, since probing is expected to miss.
type Peer interface {
	Peek(key string) (value uint32, ok bool)
}
