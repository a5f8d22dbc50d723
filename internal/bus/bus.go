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

// Package bus implements address decoding and per-tick peripheral
// scheduling. The Bus owns every memory region and peripheral; nothing
// outside it ever holds a second reference to their state (spec §4.2).
package bus

import (
	"log/slog"
	"sort"

	"github.com/cm3sim/cm3sim/internal/memory"
	"github.com/cm3sim/cm3sim/internal/simerr"
	"github.com/cm3sim/cm3sim/internal/tracelog"
	"github.com/cm3sim/cm3sim/peripheral"
	"github.com/cm3sim/cm3sim/peripheral/scb"
)

// NVICController is implemented by the NVIC peripheral. The Bus detects it
// at registration time (a type assertion, not a named wiring step) so that
// external IRQs (>=16) can be filtered by enable/pending state while core
// exceptions (<16) bypass it entirely, per spec §4.2 step 4.
type NVICController interface {
	Pend(irq uint32)
	ClearPending(irq uint32)
	HighestPending() (irq uint32, ok bool)
}

// DMAReadSink is implemented by a peripheral that needs the value produced
// by its own completed DMARead request fed back to it. executeDMA settles
// requests after Tick has already returned (spec §4.2), so a channel that
// wants a read result — DMA's memory-to-memory copy, most notably — caches
// it here instead of receiving it inline (spec §9 DMA read-back).
type DMAReadSink interface {
	CompleteDMARead(addr uint32, value uint32)
}

type route struct {
	base   uint32
	size   uint32
	region *memory.Region
	periph peripheral.Peripheral
}

func (r *route) contains(addr uint32) bool {
	return addr >= r.base && addr < r.base+r.size
}

type registeredPeripheral struct {
	base uint32
	p    peripheral.Peripheral
}

// Bus is the single owner of all memory regions and peripherals.
type Bus struct {
	routes      []*route
	peripherals []registeredPeripheral // tick order = registration order
	nvic        NVICController

	corePending map[uint32]bool // exception numbers 1..15, bypass NVIC

	log *slog.Logger
}

// New creates an empty Bus. logger may be nil (discards everything).
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = tracelog.Discard()
	}
	return &Bus{
		corePending: make(map[uint32]bool),
		log:         logger,
	}
}

func (b *Bus) overlaps(base, size uint32) bool {
	for _, r := range b.routes {
		if base < r.base+r.size && r.base < base+size {
			return true
		}
	}
	return false
}

// AddRegion registers a flash or RAM region. Construction-time only;
// overlapping ranges are rejected.
func (b *Bus) AddRegion(r *memory.Region) error {
	if b.overlaps(r.Base, r.Size()) {
		return &simerr.Internal{Message: "overlapping memory region: " + r.Name}
	}
	b.routes = append(b.routes, &route{base: r.Base, size: r.Size(), region: r})
	b.sortRoutes()
	return nil
}

// RegisterPeripheral wires a peripheral into the routing table at [base,
// base+size). Construction-time only. If p implements NVICController it
// becomes the Bus's NVIC for exception filtering (spec §4.2 step 4).
func (b *Bus) RegisterPeripheral(base uint32, size uint32, p peripheral.Peripheral) error {
	if b.overlaps(base, size) {
		return &simerr.Internal{Message: "overlapping peripheral window: " + p.Name()}
	}
	b.routes = append(b.routes, &route{base: base, size: size, periph: p})
	b.peripherals = append(b.peripherals, registeredPeripheral{base: base, p: p})
	if nv, ok := p.(NVICController); ok {
		b.nvic = nv
	}
	b.sortRoutes()
	return nil
}

func (b *Bus) sortRoutes() {
	sort.Slice(b.routes, func(i, j int) bool { return b.routes[i].base < b.routes[j].base })
}

func (b *Bus) find(addr uint32) (*route, uint32, error) {
	for _, r := range b.routes {
		if r.contains(addr) {
			return r, addr - r.base, nil
		}
	}
	return nil, 0, &simerr.MemoryFault{Addr: addr}
}

// ReadU8 reads a single byte at addr.
func (b *Bus) ReadU8(addr uint32) (uint8, error) {
	r, off, err := b.find(addr)
	if err != nil {
		return 0, err
	}
	if r.region != nil {
		return r.region.ReadU8(off)
	}
	return r.periph.Read(off)
}

// ReadU16 reads a little-endian halfword. Peripheral access is decomposed
// into two ascending-offset byte reads (spec §4.2).
func (b *Bus) ReadU16(addr uint32) (uint16, error) {
	r, off, err := b.find(addr)
	if err != nil {
		return 0, err
	}
	if r.region != nil {
		return r.region.ReadU16(off)
	}
	lo, err := r.periph.Read(off)
	if err != nil {
		return 0, err
	}
	hi, err := r.periph.Read(off + 1)
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

// ReadU32 reads a little-endian word. Peripheral access is decomposed into
// four ascending-offset byte reads (spec §4.2).
func (b *Bus) ReadU32(addr uint32) (uint32, error) {
	r, off, err := b.find(addr)
	if err != nil {
		return 0, err
	}
	if r.region != nil {
		return r.region.ReadU32(off)
	}
	var v uint32
	for i := uint32(0); i < 4; i++ {
		byt, err := r.periph.Read(off + i)
		if err != nil {
			return 0, err
		}
		v |= uint32(byt) << (8 * i)
	}
	return v, nil
}

// WriteU8 stores a byte at addr. A flash-kind region rejects the write
// during execution (spec §4.1).
func (b *Bus) WriteU8(addr uint32, v uint8) error {
	r, off, err := b.find(addr)
	if err != nil {
		return err
	}
	if r.region != nil {
		if r.region.Kind == memory.Flash {
			return &simerr.WriteToFlash{Addr: addr}
		}
		return r.region.WriteU8(off, v)
	}
	return r.periph.Write(off, v)
}

// WriteU16 stores a little-endian halfword, byte by byte in ascending
// offset order for peripherals.
func (b *Bus) WriteU16(addr uint32, v uint16) error {
	r, off, err := b.find(addr)
	if err != nil {
		return err
	}
	if r.region != nil {
		if r.region.Kind == memory.Flash {
			return &simerr.WriteToFlash{Addr: addr}
		}
		return r.region.WriteU16(off, v)
	}
	if err := r.periph.Write(off, uint8(v)); err != nil {
		return err
	}
	return r.periph.Write(off+1, uint8(v>>8))
}

// WriteU32 stores a little-endian word, byte by byte in ascending offset
// order for peripherals.
func (b *Bus) WriteU32(addr uint32, v uint32) error {
	r, off, err := b.find(addr)
	if err != nil {
		return err
	}
	if r.region != nil {
		if r.region.Kind == memory.Flash {
			return &simerr.WriteToFlash{Addr: addr}
		}
		return r.region.WriteU32(off, v)
	}
	for i := uint32(0); i < 4; i++ {
		if err := r.periph.Write(off+i, uint8(v>>(8*i))); err != nil {
			return err
		}
	}
	return nil
}

// LoadSegment copies bytes into a region starting at base, bypassing flash
// write protection. Construction/loader path only (spec §4.1, §6).
func (b *Bus) LoadSegment(base uint32, data []byte) error {
	r, off, err := b.find(base)
	if err != nil {
		return err
	}
	if r.region == nil {
		return &simerr.Internal{Message: "load_segment target is not a memory region"}
	}
	return r.region.Load(off, data)
}

// Peripheral returns the peripheral registered at base, if any, for tests
// and inter-peripheral wiring that needs a concrete handle at construction
// time.
func (b *Bus) Peripheral(base uint32) (peripheral.Peripheral, bool) {
	for _, rp := range b.peripherals {
		if rp.base == base {
			return rp.p, true
		}
	}
	return nil, false
}

// TickPeripherals runs the per-CPU-step tick protocol (spec §4.2): each
// peripheral ticks once in registration order, DMA requests settle against
// the bus, and collected IRQs are handed to core-pending tracking or the
// NVIC. It never returns an error — a misbehaving peripheral is logged and
// treated as a no-op tick (spec §7).
func (b *Bus) TickPeripherals() {
	for _, rp := range b.peripherals {
		result := rp.p.Tick()
		if result.IRQ != nil {
			b.pend(*result.IRQ)
		}
		for _, req := range result.DMARequests {
			value, err := b.executeDMA(req)
			if err != nil {
				b.log.Warn("dma request failed", "peripheral", rp.p.Name(), "addr", req.Addr, "error", err)
				continue
			}
			if req.Kind == peripheral.DMARead {
				if sink, ok := rp.p.(DMAReadSink); ok {
					sink.CompleteDMARead(req.Addr, value)
				}
			}
		}
	}
}

func (b *Bus) pend(irq uint32) {
	if irq < 16 {
		b.corePending[irq] = true
		return
	}
	if b.nvic != nil {
		b.nvic.Pend(irq)
	}
}

func (b *Bus) executeDMA(req peripheral.DMARequest) (uint32, error) {
	switch req.Kind {
	case peripheral.DMAWrite:
		switch req.Width {
		case peripheral.Byte:
			return 0, b.WriteU8(req.Addr, uint8(req.Value))
		case peripheral.Half:
			return 0, b.WriteU16(req.Addr, uint16(req.Value))
		default:
			return 0, b.WriteU32(req.Addr, req.Value)
		}
	default: // DMARead
		switch req.Width {
		case peripheral.Byte:
			v, err := b.ReadU8(req.Addr)
			return uint32(v), err
		case peripheral.Half:
			v, err := b.ReadU16(req.Addr)
			return uint32(v), err
		default:
			return b.ReadU32(req.Addr)
		}
	}
}

// PendingException reports the single highest-priority exception number
// the CPU should consider entering on its next step, per spec §4.2 step 4
// and the tie-break rule in §5 (highest IRQ number wins). Core exceptions
// (<16) take priority over any external IRQ and bypass NVIC filtering
// entirely.
func (b *Bus) PendingException() (irq uint32, ok bool) {
	var best uint32
	found := false
	for n := range b.corePending {
		if !found || n > best {
			best, found = n, true
		}
	}
	if found {
		return best, true
	}
	if b.nvic != nil {
		return b.nvic.HighestPending()
	}
	return 0, false
}

// AckException clears the pending bit for irq once the CPU has committed
// to entering it, so it is not re-delivered every step.
func (b *Bus) AckException(irq uint32) {
	if irq < 16 {
		delete(b.corePending, irq)
		return
	}
	if b.nvic != nil {
		b.nvic.ClearPending(irq)
	}
}

// VTOR reads the live vector table offset straight through the bus at the
// SCB's well-known address (spec §9 "recommended design": the peripheral
// owns the authoritative copy, the CPU reads through the Bus).
func (b *Bus) VTOR() (uint32, error) {
	return b.ReadU32(scb.VTORAddr)
}

// SnapshotPeripherals collects every registered peripheral's Snapshot,
// keyed by name, for Machine.Snapshot (spec §6 snapshot format).
func (b *Bus) SnapshotPeripherals() map[string]any {
	out := make(map[string]any, len(b.peripherals))
	for _, rp := range b.peripherals {
		out[rp.p.Name()] = rp.p.Snapshot()
	}
	return out
}

// SnapshotRegions copies every flash/RAM region's bytes, keyed by name.
// Peripheral state is intentionally excluded: the Peripheral contract (spec
// §4.3) defines Snapshot one-way, and round-tripping it generically would
// need a Restore method on all thirteen peripheral kinds for state (enable
// bits, counters) the testable properties in spec §8 never exercise through
// restore. Machine.Restore therefore restores CPU registers and memory
// exactly and leaves peripherals at whatever state construction left them.
func (b *Bus) SnapshotRegions() map[string][]byte {
	out := make(map[string][]byte)
	for _, r := range b.routes {
		if r.region != nil {
			out[r.region.Name] = r.region.Snapshot()
		}
	}
	return out
}

// RestoreRegions writes previously captured region snapshots back in place.
func (b *Bus) RestoreRegions(snap map[string][]byte) {
	for _, r := range b.routes {
		if r.region == nil {
			continue
		}
		if data, ok := snap[r.region.Name]; ok {
			r.region.Restore(data)
		}
	}
}
