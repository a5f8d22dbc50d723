package manifest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cm3sim/cm3sim/peripheral/scb"
	"github.com/cm3sim/cm3sim/peripheral/systick"
)

func TestBuildWiresMemoryAndPeripherals(t *testing.T) {
	desc := ChipDescriptor{
		MemoryMap: []MemoryRegion{
			{Name: "flash", Base: 0, Size: 0x1000, Kind: Flash},
			{Name: "ram", Base: 0x20000000, Size: 0x1000, Kind: RAM},
		},
		Peripherals: []PeripheralConfig{
			{Name: "SCB", Kind: KindSCB, Base: scb.Base},
			{Name: "SysTick", Kind: KindSysTick, Base: systick.Base},
			{Name: "UART1", Kind: KindUART, Base: 0x4000C000},
		},
	}

	b, err := Build(desc, nil)
	require.NoError(t, err)

	require.NoError(t, b.WriteU32(0x20000000, 0xDEADBEEF))
	v, err := b.ReadU32(0x20000000)
	require.NoError(t, err)
	require.Equal(t, uint32(0xDEADBEEF), v)

	_, ok := b.Peripheral(scb.Base)
	require.True(t, ok)
	_, ok = b.Peripheral(systick.Base)
	require.True(t, ok)
}

func TestBuildRejectsUnknownPeripheralKind(t *testing.T) {
	desc := ChipDescriptor{
		Peripherals: []PeripheralConfig{
			{Name: "mystery", Kind: PeripheralKind("quantum"), Base: 0x40000000},
		},
	}
	_, err := Build(desc, nil)
	require.Error(t, err)
}

func TestBuildRejectsOverlappingMemoryRegions(t *testing.T) {
	desc := ChipDescriptor{
		MemoryMap: []MemoryRegion{
			{Name: "flash", Base: 0, Size: 0x1000, Kind: Flash},
			{Name: "flash2", Base: 0x800, Size: 0x1000, Kind: Flash},
		},
	}
	_, err := Build(desc, nil)
	require.Error(t, err)
}

func TestBuildPeripheralSizeOverride(t *testing.T) {
	// An overridden Size widens the bus route reserved for the peripheral
	// (e.g. to leave headroom in the address map) without changing the
	// peripheral's own native register window.
	desc := ChipDescriptor{
		MemoryMap: []MemoryRegion{
			{Name: "ram", Base: 0x4000D000, Size: 0x1000, Kind: RAM},
		},
		Peripherals: []PeripheralConfig{
			{Name: "UART1", Kind: KindUART, Base: 0x4000C000, Size: 0x1000},
		},
	}
	b, err := Build(desc, nil)
	require.NoError(t, err)

	_, err = b.ReadU8(0x4000C000)
	require.NoError(t, err)
	// The region placed right after the widened route must not collide.
	require.NoError(t, b.WriteU32(0x4000D000, 1))
}

func TestOptionHelpersTolerateMissingAndWrongTypes(t *testing.T) {
	require.EqualValues(t, 0, optionUint32(nil, "irq"))
	require.EqualValues(t, 7, optionUint32(map[string]any{"irq": 7}, "irq"))
	require.EqualValues(t, 7, optionUint32(map[string]any{"irq": float64(7)}, "irq"))
	require.False(t, optionBool(nil, "quiet"))
	require.True(t, optionBool(map[string]any{"quiet": true}, "quiet"))

	lineIRQ := optionLineIRQ(map[string]any{"line_irq": map[string]any{"0": 6, "1": 7}})
	require.Equal(t, map[uint]uint32{0: 6, 1: 7}, lineIRQ)
}
