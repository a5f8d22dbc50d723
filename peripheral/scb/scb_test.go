package scb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSCBVTORDefaultsToZero(t *testing.T) {
	s := New()
	require.EqualValues(t, 0, s.VTOR())
}

func TestSCBVTORRoundTripsThroughByteWrites(t *testing.T) {
	s := New()
	val := uint32(0x20000400)
	for i := uint32(0); i < 4; i++ {
		require.NoError(t, s.Write(offVTOR+i, uint8(val>>(i*8))))
	}
	require.Equal(t, val, s.VTOR())

	for i := uint32(0); i < 4; i++ {
		b, err := s.Read(offVTOR + i)
		require.NoError(t, err)
		require.Equal(t, uint8(val>>(i*8)), b)
	}
}

func TestSCBVTORMasksReservedLowBits(t *testing.T) {
	s := New()
	require.NoError(t, s.Write(offVTOR, 0xFF)) // low byte, including reserved bits[6:0]
	require.EqualValues(t, 0x80, s.VTOR())
}
