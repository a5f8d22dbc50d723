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

// Package dma implements a single-channel memory-to-memory DMA controller.
// Because a peripheral's Tick only returns requests — it never gets a
// value back from Tick itself (spec §4.2) — a copy is split across two
// ticks per element: tick N issues a DMARead from the source; the Bus
// settles it in the same pass and calls back through CompleteDMARead,
// and tick N+1 issues the DMAWrite of the cached value to the destination.
// This paired-request shape resolves the spec's Open Question on what a
// DMA read "returns" without giving peripherals reentrant bus access.
package dma

import "github.com/cm3sim/cm3sim/peripheral"

const Size = 0x20

const (
	offCCR  = 0x00 // channel control: enable, direction (unused), width
	offCNDT = 0x04 // number of elements remaining
	offCPAR = 0x08 // peripheral/destination address
	offCMAR = 0x0C // memory/source address

	ccrEnable uint32 = 1 << 0
)

type phase int

const (
	phaseIdle phase = iota
	phaseAwaitingRead
	phaseReadyToWrite
)

// DMA drives one channel: CMAR -> CPAR, CNDT elements of the configured
// width, one element fully transferred (read settles, then write issues)
// every two ticks.
type DMA struct {
	peripheral.Base

	ccr, cndt, cpar, cmar uint32

	state     phase
	pending   uint32 // value read back from the source, once CompleteDMARead fires
	srcOffset uint32 // running offset from cmar for the element in flight
	dstOffset uint32
}

// New constructs an idle one-channel DMA controller.
func New(name string) *DMA {
	return &DMA{Base: peripheral.NewBase(name, Size)}
}

func (d *DMA) width() peripheral.AccessWidth {
	switch (d.ccr >> 8) & 0x3 {
	case 1:
		return peripheral.Half
	case 2:
		return peripheral.Word
	default:
		return peripheral.Byte
	}
}

func (d *DMA) widthBytes() uint32 { return uint32(d.width()) }

func (d *DMA) regFor(offset uint32) *uint32 {
	switch offset &^ 3 {
	case offCCR:
		return &d.ccr
	case offCNDT:
		return &d.cndt
	case offCPAR:
		return &d.cpar
	default:
		return &d.cmar
	}
}

func (d *DMA) Read(offset uint32) (uint8, error) {
	if err := d.CheckOffset(offset); err != nil {
		return 0, err
	}
	return uint8(*d.regFor(offset) >> ((offset % 4) * 8)), nil
}

func (d *DMA) Write(offset uint32, v uint8) error {
	if err := d.CheckOffset(offset); err != nil {
		return err
	}
	reg := d.regFor(offset)
	shift := (offset % 4) * 8
	mask := uint32(0xff) << shift
	wasEnabled := d.ccr&ccrEnable != 0
	*reg = (*reg &^ mask) | uint32(v)<<shift
	if offset&^3 == offCCR && d.ccr&ccrEnable != 0 && !wasEnabled {
		d.state = phaseIdle
		d.srcOffset, d.dstOffset = 0, 0
	}
	return nil
}

func (d *DMA) Tick() peripheral.TickResult {
	if d.ccr&ccrEnable == 0 || d.cndt == 0 {
		return peripheral.DefaultTick()
	}
	switch d.state {
	case phaseIdle, phaseAwaitingRead:
		d.state = phaseAwaitingRead
		req := peripheral.DMARequest{Kind: peripheral.DMARead, Addr: d.cmar + d.srcOffset, Width: d.width()}
		return peripheral.TickResult{Cycles: 1, DMARequests: []peripheral.DMARequest{req}}
	case phaseReadyToWrite:
		req := peripheral.DMARequest{
			Kind: peripheral.DMAWrite, Addr: d.cpar + d.dstOffset, Value: d.pending, Width: d.width(),
		}
		d.srcOffset += d.widthBytes()
		d.dstOffset += d.widthBytes()
		d.cndt--
		d.state = phaseIdle
		return peripheral.TickResult{Cycles: 1, DMARequests: []peripheral.DMARequest{req}}
	default:
		return peripheral.DefaultTick()
	}
}

// CompleteDMARead receives the value read back by the Bus for the request
// this channel issued earlier in the same tick (bus.DMAReadSink).
func (d *DMA) CompleteDMARead(addr uint32, value uint32) {
	if d.state != phaseAwaitingRead {
		return
	}
	d.pending = value
	d.state = phaseReadyToWrite
}

func (d *DMA) Snapshot() any {
	return map[string]any{"ccr": d.ccr, "cndt": d.cndt, "cpar": d.cpar, "cmar": d.cmar}
}
