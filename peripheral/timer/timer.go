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

// Package timer implements a general-purpose up-counting timer (TIMx):
// prescaler, auto-reload, one update-event interrupt. It follows the same
// countdown-and-latch shape as SysTick but counts up and supports an
// arbitrary IRQ number since, unlike SysTick, general-purpose timers aren't
// wired to a single fixed exception.
package timer

import "github.com/cm3sim/cm3sim/peripheral"

const (
	Size = 0x30

	offCR1  = 0x00
	offDIER = 0x0C
	offSR   = 0x10
	offCNT  = 0x24
	offPSC  = 0x28
	offARR  = 0x2C

	cr1CEN uint32 = 1 << 0

	dierUIE uint32 = 1 << 0

	srUIF uint32 = 1 << 0
)

// Timer is one general-purpose timer instance with its own IRQ number.
type Timer struct {
	peripheral.Base

	irq uint32

	cr1, dier, sr uint32
	cnt, psc, arr uint32
	prescaleCount uint32
}

// New constructs a Timer whose update event raises irq.
func New(name string, irq uint32) *Timer {
	return &Timer{Base: peripheral.NewBase(name, Size), irq: irq}
}

func (t *Timer) regFor(offset uint32) *uint32 {
	switch offset &^ 3 {
	case offCR1:
		return &t.cr1
	case offDIER:
		return &t.dier
	case offSR:
		return &t.sr
	case offCNT:
		return &t.cnt
	case offPSC:
		return &t.psc
	case offARR:
		return &t.arr
	default:
		var scratch uint32
		return &scratch
	}
}

func (t *Timer) Read(offset uint32) (uint8, error) {
	if err := t.CheckOffset(offset); err != nil {
		return 0, err
	}
	return uint8(*t.regFor(offset) >> ((offset % 4) * 8)), nil
}

func (t *Timer) Write(offset uint32, v uint8) error {
	if err := t.CheckOffset(offset); err != nil {
		return err
	}
	if offset&^3 == offSR {
		// SR bits are write-0-to-clear, write-1 is ignored.
		shift := (offset % 4) * 8
		t.sr &^= uint32(^v) << shift
		return nil
	}
	reg := t.regFor(offset)
	shift := (offset % 4) * 8
	mask := uint32(0xff) << shift
	*reg = (*reg &^ mask) | uint32(v)<<shift
	return nil
}

func (t *Timer) Tick() peripheral.TickResult {
	if t.cr1&cr1CEN == 0 {
		return peripheral.DefaultTick()
	}
	if t.prescaleCount < t.psc {
		t.prescaleCount++
		return peripheral.DefaultTick()
	}
	t.prescaleCount = 0
	if t.cnt < t.arr {
		t.cnt++
		return peripheral.DefaultTick()
	}
	t.cnt = 0
	t.sr |= srUIF
	if t.dier&dierUIE == 0 {
		return peripheral.DefaultTick()
	}
	irq := t.irq
	return peripheral.TickResult{IRQ: &irq, Cycles: 1}
}

func (t *Timer) Snapshot() any {
	return map[string]any{"cr1": t.cr1, "sr": t.sr, "cnt": t.cnt, "psc": t.psc, "arr": t.arr}
}
