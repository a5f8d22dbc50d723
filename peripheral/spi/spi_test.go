package spi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSPIFullDuplexWriteShiftsInQueuedRX(t *testing.T) {
	s := New("SPI1")
	s.InjectRX([]uint8{0xAA})

	require.NoError(t, s.Write(offDR, 0x55))
	require.Equal(t, []uint8{0x55}, s.Transmitted())

	v, err := s.Read(offDR)
	require.NoError(t, err)
	require.EqualValues(t, 0xAA, v)
}

func TestSPIMISOIdlesHighWithNothingQueued(t *testing.T) {
	s := New("SPI1")
	require.NoError(t, s.Write(offDR, 0x01))

	v, err := s.Read(offDR)
	require.NoError(t, err)
	require.EqualValues(t, 0xFF, v)
}

func TestSPIPeekExposesLastRXForDMA(t *testing.T) {
	s := New("SPI1")
	_, ok := s.Peek("rx")
	require.False(t, ok, "nothing received yet")

	s.InjectRX([]uint8{0x7E})
	require.NoError(t, s.Write(offDR, 0x00))

	v, ok := s.Peek("rx")
	require.True(t, ok)
	require.EqualValues(t, 0x7E, v)
}

func TestSPIStatusRegisterReflectsRXReady(t *testing.T) {
	s := New("SPI1")
	sr, err := s.Read(offSR)
	require.NoError(t, err)
	require.EqualValues(t, srTxE, sr)

	require.NoError(t, s.Write(offDR, 0x00))
	sr, err = s.Read(offSR)
	require.NoError(t, err)
	require.EqualValues(t, srTxE|srRxNE, sr)
}
