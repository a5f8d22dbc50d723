package stub

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStubReadsReturnFillByte(t *testing.T) {
	s := New("MYSTERY", 0x100, 0x5A, nil)

	v, err := s.Read(0)
	require.NoError(t, err)
	require.EqualValues(t, 0x5A, v)

	v, err = s.Read(0xFF)
	require.NoError(t, err)
	require.EqualValues(t, 0x5A, v)
}

func TestStubOutOfBoundsAccessFaults(t *testing.T) {
	s := New("MYSTERY", 0x10, 0, nil)
	_, err := s.Read(0x10)
	require.Error(t, err)
}

func TestStubRecordsWritesWithoutPanickingOnNilLogger(t *testing.T) {
	s := New("MYSTERY", 0x10, 0, nil)
	require.NoError(t, s.Write(4, 0x42))

	snap := s.Snapshot().(map[string]any)
	require.Equal(t, 1, snap["writes"])
}
