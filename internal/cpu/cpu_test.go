package cpu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// testBus is a sparse byte map over the full 32-bit address space (unwritten
// bytes read as zero), good enough to exercise the CPU without pulling in
// the real bus/memory packages — cpu_test stays a pure unit test of the
// programmer's model.
type testBus struct {
	mem     map[uint32]byte
	vtor    uint32
	pending *uint32
}

func (b *testBus) ReadU8(addr uint32) (uint8, error) { return b.mem[addr], nil }
func (b *testBus) ReadU16(addr uint32) (uint16, error) {
	return uint16(b.mem[addr]) | uint16(b.mem[addr+1])<<8, nil
}
func (b *testBus) ReadU32(addr uint32) (uint32, error) {
	return uint32(b.mem[addr]) | uint32(b.mem[addr+1])<<8 | uint32(b.mem[addr+2])<<16 | uint32(b.mem[addr+3])<<24, nil
}
func (b *testBus) WriteU8(addr uint32, v uint8) error { b.mem[addr] = v; return nil }
func (b *testBus) WriteU16(addr uint32, v uint16) error {
	b.mem[addr] = uint8(v)
	b.mem[addr+1] = uint8(v >> 8)
	return nil
}
func (b *testBus) WriteU32(addr uint32, v uint32) error {
	b.mem[addr] = uint8(v)
	b.mem[addr+1] = uint8(v >> 8)
	b.mem[addr+2] = uint8(v >> 16)
	b.mem[addr+3] = uint8(v >> 24)
	return nil
}
func (b *testBus) PendingException() (uint32, bool) {
	if b.pending == nil {
		return 0, false
	}
	return *b.pending, true
}
func (b *testBus) AckException(irq uint32) { b.pending = nil }
func (b *testBus) VTOR() (uint32, error)   { return b.vtor, nil }

func (b *testBus) setHalfword(addr uint32, v uint16) {
	_ = b.WriteU16(addr, v)
}

func (b *testBus) pend(irq uint32) { v := irq; b.pending = &v }

// newBootedBus wires the spec §8 scenario 1 boot vector: SP=0x20002000,
// PC=0x08000000.
func newBootedBus() *testBus {
	b := &testBus{mem: make(map[uint32]byte)}
	_ = b.WriteU32(0, 0x20002000)
	_ = b.WriteU32(4, 0x08000001)
	return b
}

func TestResetReadsBootVector(t *testing.T) {
	bus := newBootedBus()
	c := New(nil)
	require.NoError(t, c.Reset(bus))

	require.Equal(t, uint32(0x20002000), c.Registers().SP)
	require.Equal(t, uint32(0x08000000), c.Registers().PC)
	require.Equal(t, uint32(0xFFFFFFFF), c.Registers().LR)
}

func TestResetIsIdempotent(t *testing.T) {
	bus := newBootedBus()
	c := New(nil)
	require.NoError(t, c.Reset(bus))
	first := c.Registers()
	require.NoError(t, c.Reset(bus))
	require.Equal(t, first, c.Registers())
}

func TestStepMOVImmediate(t *testing.T) {
	bus := newBootedBus()
	bus.setHalfword(0x08000000, 0x202A) // MOV R0, #0x2A (spec §8 scenario 2)

	c := New(nil)
	require.NoError(t, c.Reset(bus))
	require.NoError(t, c.Step(bus))

	require.EqualValues(t, 0x2A, c.Registers().R[0])
	require.Equal(t, uint32(0x08000002), c.Registers().PC)
}

func TestStepRegisterControlledShift(t *testing.T) {
	bus := newBootedBus()
	bus.setHalfword(0x08000000, 0x2001) // MOV R0, #1
	bus.setHalfword(0x08000002, 0x2104) // MOV R1, #4
	bus.setHalfword(0x08000004, 0x4088) // LSLS R0, R1  (R0 = R0 << (R1 & 0xff))

	c := New(nil)
	require.NoError(t, c.Reset(bus))
	require.NoError(t, c.Step(bus))
	require.NoError(t, c.Step(bus))
	require.NoError(t, c.Step(bus))

	require.EqualValues(t, 1<<4, c.Registers().R[0], "register-controlled LSL must shift Rn by Rm, not copy Rm")
}

func TestConditionCodesBcc(t *testing.T) {
	bus := newBootedBus()
	c := New(nil)
	require.NoError(t, c.Reset(bus))

	require.True(t, c.conditionHolds(0xE)) // AL always executes
	c.flagsSet(false, true, false, false)  // Z set
	require.True(t, c.conditionHolds(0x0))  // EQ
	require.False(t, c.conditionHolds(0x1)) // NE
}

func TestUnalignedFetchFaults(t *testing.T) {
	bus := newBootedBus()
	c := New(nil)
	require.NoError(t, c.Reset(bus))
	c.reg.PC = c.reg.PC + 1

	err := c.Step(bus)
	require.Error(t, err)
}

func TestExceptionEntryAndReturnRoundTrip(t *testing.T) {
	bus := newBootedBus()
	// Vector table entry for IRQ 15 (SysTick) at VTOR+4*15.
	_ = bus.WriteU32(4*15, 0x08000100)
	bus.setHalfword(0x08000100, 0x4770) // BX LR -> exception return

	c := New(nil)
	require.NoError(t, c.Reset(bus))
	before := c.Registers()

	bus.pend(15)
	require.NoError(t, c.Step(bus)) // enter exception
	require.Equal(t, uint32(15), c.IPSR())
	require.Equal(t, uint32(0x08000100), c.Registers().PC)

	require.NoError(t, c.Step(bus)) // BX LR -> exception return
	require.Equal(t, before, c.Registers(), "registers must round-trip across entry+return (spec invariant 2)")
}

func TestPRIMASKMasksExternalButNotCoreExceptions(t *testing.T) {
	bus := newBootedBus()
	_ = bus.WriteU32(4*16, 0x08000200) // external IRQ 0 -> vector 16
	_ = bus.WriteU32(4*2, 0x08000300)  // core exception 2 (NMI-ish slot)

	c := New(nil)
	require.NoError(t, c.Reset(bus))
	c.SetPRIMASK(true)

	bus.pend(16)
	require.NoError(t, c.Step(bus))
	require.NotEqual(t, uint32(0x08000200), c.Registers().PC, "PRIMASK must block external IRQ delivery")

	bus.pend(2)
	require.NoError(t, c.Step(bus))
	require.Equal(t, uint32(0x08000300), c.Registers().PC, "PRIMASK must not block core exceptions")
}
