package exti

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func writeWord(t *testing.T, e *EXTI, offset uint32, v uint32) {
	t.Helper()
	for i := uint32(0); i < 4; i++ {
		require.NoError(t, e.Write(offset+i, uint8(v>>(i*8))))
	}
}

func TestEXTISignalLatchesPendingOnEnabledEdge(t *testing.T) {
	e := New(map[uint]uint32{0: 6})
	writeWord(t, e, offRTSR, 1<<0)

	e.Signal(0, true) // rising edge on line 0
	pr, err := e.Read(offPR)
	require.NoError(t, err)
	require.EqualValues(t, 1, pr)
}

func TestEXTISignalIgnoresWrongEdgeDirection(t *testing.T) {
	e := New(nil)
	writeWord(t, e, offRTSR, 1<<0)

	e.Signal(0, false) // falling edge, but only rising is selected
	pr, err := e.Read(offPR)
	require.NoError(t, err)
	require.EqualValues(t, 0, pr)
}

func TestEXTITickRaisesIRQOnlyWhenMasked(t *testing.T) {
	e := New(map[uint]uint32{3: 40})
	writeWord(t, e, offRTSR, 1<<3)
	e.Signal(3, true)

	r := e.Tick()
	require.Nil(t, r.IRQ, "IMR is still clear, so no IRQ despite PR being set")

	writeWord(t, e, offIMR, 1<<3)
	r = e.Tick()
	require.NotNil(t, r.IRQ)
	require.EqualValues(t, 40, *r.IRQ)
}

func TestEXTIPendingClearedByWriteOne(t *testing.T) {
	e := New(nil)
	writeWord(t, e, offRTSR, 1<<2)
	e.Signal(2, true)

	require.NoError(t, e.Write(offPR, 1<<2))
	pr, err := e.Read(offPR)
	require.NoError(t, err)
	require.EqualValues(t, 0, pr)
}

func TestEXTISoftwareInterruptSetsPending(t *testing.T) {
	e := New(nil)
	require.NoError(t, e.Write(offSWIER, 1<<5))

	pr, err := e.Read(offPR)
	require.NoError(t, err)
	require.EqualValues(t, 1<<5, pr)
}
