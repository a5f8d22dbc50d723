package bus

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cm3sim/cm3sim/internal/memory"
	"github.com/cm3sim/cm3sim/peripheral/nvic"
	"github.com/cm3sim/cm3sim/peripheral/stub"
)

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	b := New(nil)
	require.NoError(t, b.AddRegion(memory.NewRegion("flash", 0x08000000, 0x1000, memory.Flash)))
	require.NoError(t, b.AddRegion(memory.NewRegion("ram", 0x20000000, 0x1000, memory.RAM)))
	return b
}

func TestBusReadAfterWrite(t *testing.T) {
	b := newTestBus(t)
	require.NoError(t, b.WriteU32(0x20000000, 0xCAFEBABE))
	v, err := b.ReadU32(0x20000000)
	require.NoError(t, err)
	require.Equal(t, uint32(0xCAFEBABE), v)
}

func TestBusFlashRejectsWriteDuringExecution(t *testing.T) {
	b := newTestBus(t)
	err := b.WriteU8(0x08000000, 1)
	require.Error(t, err)
}

func TestBusLoadSegmentBypassesFlashProtection(t *testing.T) {
	b := newTestBus(t)
	require.NoError(t, b.LoadSegment(0x08000000, []byte{0x2A, 0x20}))
	v, err := b.ReadU16(0x08000000)
	require.NoError(t, err)
	require.Equal(t, uint16(0x202A), v)
}

func TestBusBoundaryAccess(t *testing.T) {
	b := newTestBus(t)
	_, err := b.ReadU8(0x20000FFF) // last valid byte of the RAM region
	require.NoError(t, err)

	_, err = b.ReadU8(0x20001000) // one past the region
	require.Error(t, err)

	_, err = b.ReadU8(0x1FFFFFFF) // unmapped gap
	require.Error(t, err)
}

func TestBusRejectsOverlappingRegions(t *testing.T) {
	b := New(nil)
	require.NoError(t, b.AddRegion(memory.NewRegion("a", 0x1000, 0x100, memory.RAM)))
	err := b.AddRegion(memory.NewRegion("b", 0x1080, 0x100, memory.RAM))
	require.Error(t, err)
}

func TestBusPeripheralHalfwordDecomposesToByteAccess(t *testing.T) {
	b := newTestBus(t)
	s := stub.New("STUB", 0x10, 0x42, nil)
	require.NoError(t, b.RegisterPeripheral(0x40000000, 0x10, s))

	v, err := b.ReadU16(0x40000000)
	require.NoError(t, err)
	require.Equal(t, uint16(0x4242), v) // both bytes read back the fill value
}

func TestBusCoreExceptionBypassesNVIC(t *testing.T) {
	b := newTestBus(t)
	b.pend(5) // core exception, no NVIC registered at all

	irq, ok := b.PendingException()
	require.True(t, ok)
	require.EqualValues(t, 5, irq)
}

func TestBusNVICFiltersExternalIRQs(t *testing.T) {
	b := newTestBus(t)
	n := nvic.New()
	require.NoError(t, b.RegisterPeripheral(nvic.Base, nvic.Size, n))

	b.pend(20) // external IRQ 20 -> pending bit set, but not enabled
	_, ok := b.PendingException()
	require.False(t, ok, "disabled IRQ must not be reported pending")

	n.Pend(20)
	require.NoError(t, n.Write(0, 1<<4)) // ISER bit for IRQ 16+4=20

	irq, ok := b.PendingException()
	require.True(t, ok)
	require.EqualValues(t, 20, irq)
}
