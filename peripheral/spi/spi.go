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

// Package spi implements a full-duplex SPI peripheral: every write to DR
// both transmits (recorded for tests/tooling) and immediately "shifts in"
// the next queued RX byte, since simulated full-duplex transfer completes
// within the same bus access rather than over simulated clock edges.
package spi

import "github.com/cm3sim/cm3sim/peripheral"

const (
	Size = 0x20

	offCR1 = 0x00
	offSR  = 0x08
	offDR  = 0x0C

	srTxE uint32 = 1 << 1
	srRxNE uint32 = 1 << 0
)

// SPI is a single-channel full-duplex controller.
type SPI struct {
	peripheral.Base

	cr1     uint32
	tx      []uint8
	rxFIFO  []uint8
	lastRX  uint8
	hasRX   bool
}

// New constructs an idle SPI peripheral.
func New(name string) *SPI {
	return &SPI{Base: peripheral.NewBase(name, Size)}
}

// InjectRX queues bytes that shift in as each DR write completes.
func (s *SPI) InjectRX(data []uint8) { s.rxFIFO = append(s.rxFIFO, data...) }

// Transmitted returns every byte written to DR so far.
func (s *SPI) Transmitted() []uint8 { return s.tx }

func (s *SPI) Read(offset uint32) (uint8, error) {
	if err := s.CheckOffset(offset); err != nil {
		return 0, err
	}
	switch offset &^ 3 {
	case offCR1:
		return uint8(s.cr1 >> ((offset % 4) * 8)), nil
	case offSR:
		sr := srTxE
		if s.hasRX {
			sr |= srRxNE
		}
		return uint8(sr >> ((offset % 4) * 8)), nil
	case offDR:
		if offset%4 != 0 {
			return 0, nil
		}
		s.hasRX = false
		return s.lastRX, nil
	default:
		return 0, nil
	}
}

func (s *SPI) Write(offset uint32, v uint8) error {
	if err := s.CheckOffset(offset); err != nil {
		return err
	}
	switch offset &^ 3 {
	case offCR1:
		shift := (offset % 4) * 8
		mask := uint32(0xff) << shift
		s.cr1 = (s.cr1 &^ mask) | uint32(v)<<shift
	case offDR:
		if offset%4 != 0 {
			return nil
		}
		s.tx = append(s.tx, v)
		if len(s.rxFIFO) > 0 {
			s.lastRX = s.rxFIFO[0]
			s.rxFIFO = s.rxFIFO[1:]
		} else {
			s.lastRX = 0xff // MISO idles high with nothing driving it
		}
		s.hasRX = true
	}
	return nil
}

func (s *SPI) Tick() peripheral.TickResult { return peripheral.DefaultTick() }

// Peek implements peripheral.Peer so DMA can read the last received byte
// without a bus round trip.
func (s *SPI) Peek(key string) (uint32, bool) {
	if key == "rx" && s.hasRX {
		return uint32(s.lastRX), true
	}
	return 0, false
}

func (s *SPI) Snapshot() any {
	return map[string]any{"tx": append([]uint8(nil), s.tx...)}
}
