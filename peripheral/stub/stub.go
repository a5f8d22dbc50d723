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

// Package stub implements the catch-all peripheral for unmodeled register
// windows: firmware that probes registers outside what the manifest models
// gets configurable constant reads and its writes logged rather than a bus
// fault.
package stub

import (
	"log/slog"

	"github.com/cm3sim/cm3sim/internal/tracelog"
	"github.com/cm3sim/cm3sim/peripheral"
)

// Stub returns a fixed byte for every read and records writes for
// diagnostics; it never raises an IRQ or requests DMA.
type Stub struct {
	peripheral.Base

	fill    uint8
	log     *slog.Logger
	written []write
}

type write struct {
	Offset uint32
	Value  uint8
}

// New constructs a Stub of size bytes that reads back fill for every
// offset. logger may be nil.
func New(name string, size uint32, fill uint8, logger *slog.Logger) *Stub {
	if logger == nil {
		logger = tracelog.Discard()
	}
	return &Stub{Base: peripheral.NewBase(name, size), fill: fill, log: logger}
}

func (s *Stub) Read(offset uint32) (uint8, error) {
	if err := s.CheckOffset(offset); err != nil {
		return 0, err
	}
	return s.fill, nil
}

func (s *Stub) Write(offset uint32, v uint8) error {
	if err := s.CheckOffset(offset); err != nil {
		return err
	}
	s.log.Debug("stub write", "peripheral", s.Name(), "offset", offset, "value", v)
	s.written = append(s.written, write{Offset: offset, Value: v})
	return nil
}

func (s *Stub) Tick() peripheral.TickResult { return peripheral.DefaultTick() }

func (s *Stub) Snapshot() any {
	return map[string]any{"fill": s.fill, "writes": len(s.written)}
}
