package machine

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cm3sim/cm3sim/internal/manifest"
	"github.com/cm3sim/cm3sim/peripheral/scb"
	"github.com/cm3sim/cm3sim/peripheral/systick"
)

func sysTickChip() manifest.ChipDescriptor {
	return manifest.ChipDescriptor{
		MemoryMap: []manifest.MemoryRegion{
			{Name: "flash", Base: 0, Size: 0x2000, Kind: manifest.Flash},
			{Name: "ram", Base: 0x20000000, Size: 0x1000, Kind: manifest.RAM},
		},
		Peripherals: []manifest.PeripheralConfig{
			{Name: "SCB", Kind: manifest.KindSCB, Base: scb.Base},
			{Name: "SysTick", Kind: manifest.KindSysTick, Base: systick.Base},
		},
	}
}

// buildImage lays out spec §8 scenario 4's wiring: a boot vector pointing
// at 0x40 (zero-filled flash there behaves as a run of no-ops), IRQ15's
// vector table slot pointing at 0x1000, and a BX LR at 0x1000 for the
// exception return leg.
func buildImage(t *testing.T) manifest.ProgramImage {
	t.Helper()
	buf := make([]byte, 0x1002)
	binary.LittleEndian.PutUint32(buf[0:], 0x20001000) // initial SP
	binary.LittleEndian.PutUint32(buf[4:], 0x00000041)  // initial PC -> 0x40
	binary.LittleEndian.PutUint32(buf[4*15:], 0x00001001) // vector[15] -> 0x1000
	binary.LittleEndian.PutUint16(buf[0x1000:], 0x4770)   // BX LR
	return manifest.ProgramImage{Segments: []manifest.Segment{{LoadAddress: 0, Bytes: buf}}}
}

func newBootedMachine(t *testing.T) *Machine {
	t.Helper()
	m, err := New(sysTickChip())
	require.NoError(t, err)
	require.NoError(t, m.LoadFirmware(buildImage(t)))
	require.NoError(t, m.Reset())
	return m
}

func TestMachineResetReadsVectorTable(t *testing.T) {
	m := newBootedMachine(t)
	require.Equal(t, uint32(0x20001000), m.CPU().Registers().SP)
	require.Equal(t, uint32(0x40), m.CPU().Registers().PC)
}

func TestMachineSysTickIRQEndToEnd(t *testing.T) {
	m := newBootedMachine(t)

	require.NoError(t, m.Bus().WriteU32(systick.Base+0x04, 2)) // RVR=2
	require.NoError(t, m.Bus().WriteU32(systick.Base+0x08, 2)) // any CVR write clears it, so the first tick underflows
	require.NoError(t, m.Bus().WriteU32(systick.Base+0x00, 0x7)) // CSR: enable+tickint+clksource

	preInterruptPC := uint32(0)
	for i := 0; i < 2; i++ {
		if i == 1 {
			preInterruptPC = m.CPU().Registers().PC
		}
		require.NoError(t, m.Step())
	}

	require.EqualValues(t, 15, m.CPU().IPSR(), "SysTick exception should be entered by the 2nd step")
	require.Equal(t, uint32(0x1000), m.CPU().Registers().PC)

	require.NoError(t, m.Step()) // BX LR -> exception return
	require.Equal(t, preInterruptPC, m.CPU().Registers().PC, "exception return should restore the pre-interrupt PC")
	require.EqualValues(t, 0, m.CPU().IPSR())
}

func TestMachineSnapshotRestoreRoundTrip(t *testing.T) {
	m := newBootedMachine(t)
	require.NoError(t, m.Step())

	saved := m.SaveRestorePoint()
	before := m.Snapshot()

	require.NoError(t, m.Step())
	require.NoError(t, m.Step())
	require.NotEqual(t, before, m.Snapshot(), "state should have diverged after more steps")

	m.Restore(saved)
	after := m.Snapshot()
	require.Empty(t, Diff(before, after))
}

func TestMachineVTORRelocation(t *testing.T) {
	m := newBootedMachine(t)

	// Relocate VTOR into RAM after writing two words of a new table there.
	require.NoError(t, m.Bus().WriteU32(0x20000000, 0x1000))  // offset 0 (initial SP slot) of the new table
	require.NoError(t, m.Bus().WriteU32(0x20000000+4*15, 0x1000)) // vector[15] at offset 60
	require.NoError(t, m.Bus().WriteU32(scb.VTORAddr, 0x20000000))

	vtor, err := m.Bus().VTOR()
	require.NoError(t, err)
	require.Equal(t, uint32(0x20000000), vtor)
}
