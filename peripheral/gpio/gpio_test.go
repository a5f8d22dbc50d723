package gpio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGPIOBSRRSetsODRBits(t *testing.T) {
	g := New("GPIOA")

	require.NoError(t, g.Write(regBSRR*4, 0x01)) // bit 0 of ODR
	v, err := g.Read(regODR * 4)
	require.NoError(t, err)
	require.EqualValues(t, 0x01, v)

	require.NoError(t, g.Write(regBSRR*4+1, 0x01)) // bit 8 of ODR
	v, err = g.Read(regODR*4 + 1)
	require.NoError(t, err)
	require.EqualValues(t, 0x01, v)
}

func TestGPIOIDRLoopsBackODRByDefault(t *testing.T) {
	g := New("GPIOA")
	require.NoError(t, g.Write(regODR*4, 0x2A))

	v, err := g.Read(regIDR * 4)
	require.NoError(t, err)
	require.EqualValues(t, 0x2A, v)
}

func TestGPIOSetInputOverridesLoopback(t *testing.T) {
	g := New("GPIOA")
	require.NoError(t, g.Write(regODR*4, 0xFF))
	g.SetInput(0x01, 0x00) // drive bit 0 low externally, independent of ODR

	v, err := g.Read(regIDR * 4)
	require.NoError(t, err)
	require.EqualValues(t, 0xFE, v)
}

func TestGPIOIDRWritesAreIgnored(t *testing.T) {
	g := New("GPIOA")
	require.NoError(t, g.Write(regIDR*4, 0xFF))

	v, err := g.Read(regIDR * 4)
	require.NoError(t, err)
	require.EqualValues(t, 0, v)
}
