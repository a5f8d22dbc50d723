package afio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAFIOPortDecodesEXTICRNibbles(t *testing.T) {
	a := New()
	// Line 4 lives in EXTICR2, nibble 0 (line%4 == 0); port value 2 = PC.
	require.NoError(t, a.Write(regEXTICR2*4, 2))

	require.EqualValues(t, 2, a.Port(4))
	require.EqualValues(t, 0, a.Port(5))
}

func TestAFIOPortOutOfRangeReturnsZero(t *testing.T) {
	a := New()
	require.EqualValues(t, 0, a.Port(16))
}

func TestAFIORegistersRoundTrip(t *testing.T) {
	a := New()
	require.NoError(t, a.Write(regMAPR*4, 0x55))
	v, err := a.Read(regMAPR * 4)
	require.NoError(t, err)
	require.EqualValues(t, 0x55, v)
}
