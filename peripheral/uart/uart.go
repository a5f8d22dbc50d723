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

// Package uart implements a minimal memory-mapped UART: TX bytes are
// appended to a sink, status always reports ready, and RX is sourced from
// an injection queue a test or loader fills ahead of time (spec §4.6).
package uart

import (
	"bytes"
	"io"

	"github.com/cm3sim/cm3sim/peripheral"
)

const (
	Size = 0x20

	offDR = 0x00 // data register, TX on write, RX on read
	offSR = 0x04 // status register

	srTXE  uint8 = 1 << 0 // TX empty, always ready
	srRXNE uint8 = 1 << 1 // RX not empty
)

// UART is a single-channel byte sink/source.
type UART struct {
	peripheral.Base

	sink   io.Writer
	quiet  bool
	rxFIFO []byte
	tx     bytes.Buffer // also mirrors everything written, for CI capture
}

// New constructs a UART. sink may be nil (TX bytes are still captured via
// Captured but nothing is written live); quiet suppresses the live sink,
// matching spec §6's "optionally suppressed for CI mode".
func New(sink io.Writer, quiet bool) *UART {
	return &UART{Base: peripheral.NewBase("UART", Size), sink: sink, quiet: quiet}
}

// InjectRX queues bytes to be returned by subsequent reads of DR.
func (u *UART) InjectRX(data []byte) {
	u.rxFIFO = append(u.rxFIFO, data...)
}

// Captured returns everything written to DR so far.
func (u *UART) Captured() []byte { return u.tx.Bytes() }

func (u *UART) Read(offset uint32) (uint8, error) {
	if err := u.CheckOffset(offset); err != nil {
		return 0, err
	}
	switch offset {
	case offDR:
		if len(u.rxFIFO) == 0 {
			return 0, nil
		}
		b := u.rxFIFO[0]
		u.rxFIFO = u.rxFIFO[1:]
		return b, nil
	case offSR:
		sr := srTXE
		if len(u.rxFIFO) > 0 {
			sr |= srRXNE
		}
		return sr, nil
	default:
		return 0, nil
	}
}

func (u *UART) Write(offset uint32, v uint8) error {
	if err := u.CheckOffset(offset); err != nil {
		return err
	}
	if offset != offDR {
		return nil
	}
	u.tx.WriteByte(v)
	if u.sink != nil && !u.quiet {
		_, _ = u.sink.Write([]byte{v})
	}
	return nil
}

func (u *UART) Tick() peripheral.TickResult { return peripheral.DefaultTick() }

func (u *UART) Snapshot() any {
	return map[string]any{"tx": u.tx.String(), "rx_pending": len(u.rxFIFO)}
}
