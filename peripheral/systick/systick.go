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

// Package systick implements the ARMv7-M SysTick timer at 0xE000E010.
package systick

import "github.com/cm3sim/cm3sim/peripheral"

const (
	Base = 0xE000E010
	Size = 0x10

	offCSR   = 0x00
	offRVR   = 0x04
	offCVR   = 0x08
	offCALIB = 0x0C

	csrEnable    uint32 = 1 << 0
	csrTickInt   uint32 = 1 << 1
	csrCountFlag uint32 = 1 << 16

	// IRQException is the core exception number SysTick raises (spec §4.6).
	IRQException uint32 = 15
)

// SysTick decrements CVR once per Tick while CSR.ENABLE is set; on
// underflow it reloads from RVR, latches COUNTFLAG, and if CSR.TICKINT is
// set raises the SysTick exception.
type SysTick struct {
	peripheral.Base

	csr, rvr, cvr, calib uint32
}

// New constructs a SysTick with all registers zeroed.
func New() *SysTick {
	return &SysTick{Base: peripheral.NewBase("SysTick", Size)}
}

func regWord(regs *uint32, offset uint32, write bool, v uint8) uint8 {
	shift := (offset % 4) * 8
	if write {
		mask := uint32(0xff) << shift
		*regs = (*regs &^ mask) | uint32(v)<<shift
		return 0
	}
	return uint8(*regs >> shift)
}

func (s *SysTick) regFor(offset uint32) *uint32 {
	switch offset &^ 3 {
	case offCSR:
		return &s.csr
	case offRVR:
		return &s.rvr
	case offCVR:
		return &s.cvr
	default:
		return &s.calib
	}
}

func (s *SysTick) Read(offset uint32) (uint8, error) {
	if err := s.CheckOffset(offset); err != nil {
		return 0, err
	}
	if offset&^3 == offCSR {
		v := regWord(&s.csr, offset, false, 0)
		// Reading CSR clears COUNTFLAG (real hardware behavior), once the
		// byte holding it has been read.
		if offset%4 == 2 {
			s.csr &^= csrCountFlag
		}
		return v, nil
	}
	return regWord(s.regFor(offset), offset, false, 0), nil
}

func (s *SysTick) Write(offset uint32, v uint8) error {
	if err := s.CheckOffset(offset); err != nil {
		return err
	}
	if offset&^3 == offCVR {
		// Any write to CVR clears the counter and COUNTFLAG.
		s.cvr = 0
		s.csr &^= csrCountFlag
		return nil
	}
	regWord(s.regFor(offset), offset, true, v)
	return nil
}

func (s *SysTick) Tick() peripheral.TickResult {
	if s.csr&csrEnable == 0 {
		return peripheral.DefaultTick()
	}
	if s.cvr != 0 {
		s.cvr--
		return peripheral.DefaultTick()
	}
	// CVR was already at zero: this tick is the underflow.
	s.cvr = s.rvr
	s.csr |= csrCountFlag
	if s.csr&csrTickInt == 0 {
		return peripheral.DefaultTick()
	}
	irq := IRQException
	return peripheral.TickResult{IRQ: &irq, Cycles: 1}
}

func (s *SysTick) Snapshot() any {
	return map[string]any{"csr": s.csr, "rvr": s.rvr, "cvr": s.cvr, "calib": s.calib}
}
