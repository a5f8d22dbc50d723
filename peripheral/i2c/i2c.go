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

// Package i2c implements a single-master I2C peripheral as a transaction
// log rather than a bit-level bus model: writes to DR are recorded in
// program order, and SR1/SR2 always report the transaction as complete.
// There's no simulated slave device to NACK or clock-stretch, matching the
// instruction-level, non-cycle-exact scope of the rest of the simulator.
package i2c

import "github.com/cm3sim/cm3sim/peripheral"

const (
	Size = 0x20

	offCR1 = 0x00
	offDR  = 0x10
	offSR1 = 0x14
	offSR2 = 0x18

	sr1TxE uint32 = 1 << 7
	sr1RxNE uint32 = 1 << 6
	sr1BTF uint32 = 1 << 2
	sr2Busy uint32 = 0 // never busy: transactions complete instantly
)

// I2C records every byte written to DR, acting as a controller-side trace.
type I2C struct {
	peripheral.Base

	cr1 uint32
	dr  uint32
	written []uint8
	rxFIFO  []uint8
}

// New constructs an idle I2C peripheral.
func New(name string) *I2C {
	return &I2C{Base: peripheral.NewBase(name, Size)}
}

// InjectRX queues bytes returned by subsequent DR reads, for tests
// standing in for a simulated slave device.
func (i *I2C) InjectRX(data []uint8) { i.rxFIFO = append(i.rxFIFO, data...) }

// Written returns every byte transmitted via DR so far.
func (i *I2C) Written() []uint8 { return i.written }

func (i *I2C) Read(offset uint32) (uint8, error) {
	if err := i.CheckOffset(offset); err != nil {
		return 0, err
	}
	switch offset &^ 3 {
	case offCR1:
		return uint8(i.cr1 >> ((offset % 4) * 8)), nil
	case offDR:
		if offset%4 != 0 || len(i.rxFIFO) == 0 {
			return 0, nil
		}
		b := i.rxFIFO[0]
		i.rxFIFO = i.rxFIFO[1:]
		return b, nil
	case offSR1:
		sr1 := sr1TxE | sr1BTF
		if len(i.rxFIFO) > 0 {
			sr1 |= sr1RxNE
		}
		return uint8(sr1 >> ((offset % 4) * 8)), nil
	case offSR2:
		return uint8(sr2Busy >> ((offset % 4) * 8)), nil
	default:
		return 0, nil
	}
}

func (i *I2C) Write(offset uint32, v uint8) error {
	if err := i.CheckOffset(offset); err != nil {
		return err
	}
	switch offset &^ 3 {
	case offCR1:
		shift := (offset % 4) * 8
		mask := uint32(0xff) << shift
		i.cr1 = (i.cr1 &^ mask) | uint32(v)<<shift
	case offDR:
		if offset%4 == 0 {
			i.written = append(i.written, v)
		}
	}
	return nil
}

func (i *I2C) Tick() peripheral.TickResult { return peripheral.DefaultTick() }

func (i *I2C) Snapshot() any {
	return map[string]any{"written": append([]uint8(nil), i.written...)}
}
