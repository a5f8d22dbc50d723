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

package decode

// ExpandImmCarry expands a Thumb-2 12-bit modified immediate (ARMv7-M
// "ThumbExpandImm_C", A6.3.2) into a 32-bit value and the carry it would
// produce, for instructions whose S bit can update the carry flag from the
// immediate's rotation.
func ExpandImmCarry(imm12 uint32, carryIn bool) (uint32, bool) {
	if imm12&0xc00 == 0 {
		base := imm12 & 0xff
		switch (imm12 >> 8) & 0x3 {
		case 0b00:
			return base, carryIn
		case 0b01:
			return base<<16 | base, carryIn
		case 0b10:
			return base<<24 | base<<8, carryIn
		default:
			return base<<24 | base<<16 | base<<8 | base, carryIn
		}
	}
	unrotated := uint32(1)<<7 | (imm12 & 0x7f)
	rot := imm12 >> 7
	v := rotateRight(unrotated, rot)
	carryOut := v&0x80000000 != 0
	return v, carryOut
}

func rotateRight(v uint32, n uint32) uint32 {
	n %= 32
	if n == 0 {
		return v
	}
	return v>>n | v<<(32-n)
}

// ShiftC applies one of the four ARM shift types to value, returning the
// result and the carry bit it produces (A6.4.2 / A2.3.2). A zero amount on
// LSL, LSR or ASR returns value and carryIn unchanged, so callers pass 32
// for the LSR/ASR #32 encodings; a zero amount on ROR performs RRX.
func ShiftC(kind ShiftType, value uint32, amount uint8, carryIn bool) (uint32, bool) {
	if amount == 0 {
		if kind == ShiftROR {
			// RRX: rotate right by one through carry.
			result := value>>1 | boolBit(carryIn)<<31
			return result, value&1 != 0
		}
		return value, carryIn
	}
	switch kind {
	case ShiftLSL:
		if amount >= 32 {
			if amount == 32 {
				return 0, value&1 != 0
			}
			return 0, false
		}
		return value << amount, (value>>(32-amount))&1 != 0
	case ShiftLSR:
		if amount >= 32 {
			if amount == 32 {
				return 0, value&0x80000000 != 0
			}
			return 0, false
		}
		return value >> amount, (value>>(amount-1))&1 != 0
	case ShiftASR:
		if amount >= 32 {
			amount = 31
		}
		return uint32(int32(value) >> amount), (value>>(amount-1))&1 != 0
	default: // ShiftROR
		amount %= 32
		if amount == 0 {
			return value, carryIn
		}
		return rotateRight(value, uint32(amount)), (value>>(amount-1))&1 != 0
	}
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
