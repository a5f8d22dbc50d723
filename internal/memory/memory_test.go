package memory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadWriteRoundTrip(t *testing.T) {
	r := NewRegion("ram", 0x20000000, 16, RAM)

	require.NoError(t, r.WriteU32(0, 0xdeadbeef))
	v, err := r.ReadU32(0)
	require.NoError(t, err)
	require.Equal(t, uint32(0xdeadbeef), v)

	require.NoError(t, r.WriteU16(4, 0x1234))
	b0, _ := r.ReadU8(4)
	b1, _ := r.ReadU8(5)
	require.Equal(t, uint8(0x34), b0)
	require.Equal(t, uint8(0x12), b1)
}

func TestUnalignedAccessDoesNotFault(t *testing.T) {
	r := NewRegion("ram", 0, 8, RAM)
	require.NoError(t, r.WriteU8(0, 1))
	require.NoError(t, r.WriteU8(1, 2))
	require.NoError(t, r.WriteU8(2, 3))

	v, err := r.ReadU16(1)
	require.NoError(t, err)
	require.Equal(t, uint16(0x0302), v)
}

func TestBoundaryAccess(t *testing.T) {
	r := NewRegion("ram", 0x1000, 4, RAM)

	_, err := r.ReadU8(3)
	require.NoError(t, err)

	_, err = r.ReadU8(4)
	require.Error(t, err)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	r := NewRegion("ram", 0, 4, RAM)
	require.NoError(t, r.WriteU32(0, 0x11223344))
	snap := r.Snapshot()

	require.NoError(t, r.WriteU32(0, 0))
	r.Restore(snap)

	v, err := r.ReadU32(0)
	require.NoError(t, err)
	require.Equal(t, uint32(0x11223344), v)
}
