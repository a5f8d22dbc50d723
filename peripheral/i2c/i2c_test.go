package i2c

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestI2CWritesAreRecordedInOrder(t *testing.T) {
	i := New("I2C1")
	require.NoError(t, i.Write(offDR, 0x41))
	require.NoError(t, i.Write(offDR, 0x42))

	require.Equal(t, []uint8{0x41, 0x42}, i.Written())
}

func TestI2CSR1AlwaysReportsTransferComplete(t *testing.T) {
	i := New("I2C1")
	sr1, err := i.Read(offSR1)
	require.NoError(t, err)
	require.EqualValues(t, sr1TxE|sr1BTF, sr1)
}

func TestI2CInjectRXFeedsDRReads(t *testing.T) {
	i := New("I2C1")
	i.InjectRX([]uint8{0x10, 0x20})

	sr1, err := i.Read(offSR1)
	require.NoError(t, err)
	require.NotZero(t, sr1&sr1RxNE)

	b, err := i.Read(offDR)
	require.NoError(t, err)
	require.EqualValues(t, 0x10, b)

	b, err = i.Read(offDR)
	require.NoError(t, err)
	require.EqualValues(t, 0x20, b)
}

func TestI2CDRReadEmptyReturnsZero(t *testing.T) {
	i := New("I2C1")
	b, err := i.Read(offDR)
	require.NoError(t, err)
	require.EqualValues(t, 0, b)
}
