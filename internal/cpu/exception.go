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

package cpu

import "github.com/cm3sim/cm3sim/internal/simerr"

// exceptionFrameWords is the 8-register stack frame ARMv7-M pushes on
// exception entry: R0-R3, R12, LR, return address, xPSR (spec §4.5).
const exceptionFrameWords = 8

// enterException pushes the 8-register frame, loads the handler address
// from the vector table at vtor+4*irq, and sets IPSR/LR per spec §4.5. A
// missing (zero) vector entry is reported rather than silently jumping to
// address zero.
func (c *CPU) enterException(bus Bus, irq uint32) error {
	frame := [exceptionFrameWords]uint32{
		c.reg.R[0], c.reg.R[1], c.reg.R[2], c.reg.R[3],
		c.reg.R[12], c.reg.LR, c.reg.PC, c.reg.XPSR,
	}
	sp := c.reg.SP - exceptionFrameWords*4
	for i, v := range frame {
		if err := bus.WriteU32(sp+uint32(i*4), v); err != nil {
			return err
		}
	}
	c.reg.SP = sp

	vtor, err := bus.VTOR()
	if err != nil {
		return err
	}
	vectorAddr := vtor + irq*4
	handler, err := bus.ReadU32(vectorAddr)
	if err != nil {
		return err
	}
	if handler == 0 {
		return &simerr.VectorTableMissing{IRQ: int(irq)}
	}

	c.setIPSR(irq)
	c.reg.LR = exceptionReturnMask | 0x9 // return-to-thread, PSP unused here
	c.reg.PC = handler &^ 1
	return nil
}

// checkExceptionReturn inspects a value about to be written to PC; if it's
// an EXC_RETURN sentinel, it unwinds the exception frame instead of
// branching there, matching real hardware's BX/POP/LDM-to-PC behavior
// (spec §4.5).
func (c *CPU) checkExceptionReturn(bus Bus, value uint32) (bool, error) {
	if value&exceptionReturnMask != exceptionReturnMask {
		return false, nil
	}
	sp := c.reg.SP
	var frame [exceptionFrameWords]uint32
	for i := range frame {
		v, err := bus.ReadU32(sp + uint32(i*4))
		if err != nil {
			return true, err
		}
		frame[i] = v
	}
	c.reg.SP = sp + exceptionFrameWords*4
	c.reg.R[0], c.reg.R[1], c.reg.R[2], c.reg.R[3] = frame[0], frame[1], frame[2], frame[3]
	c.reg.R[12] = frame[4]
	c.reg.LR = frame[5]
	c.reg.PC = frame[6] &^ 1
	c.reg.XPSR = frame[7]
	return true, nil
}
