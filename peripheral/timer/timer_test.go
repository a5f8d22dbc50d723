package timer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func writeWord(t *testing.T, tm *Timer, offset uint32, v uint32) {
	t.Helper()
	for i := uint32(0); i < 4; i++ {
		require.NoError(t, tm.Write(offset+i, uint8(v>>(i*8))))
	}
}

func TestTimerCountsUpAndRaisesUpdateIRQ(t *testing.T) {
	tm := New("TIM2", 28)
	writeWord(t, tm, offARR, 1)       // reload after 2 counts (0 -> 1 -> overflow)
	writeWord(t, tm, offDIER, dierUIE)
	writeWord(t, tm, offCR1, cr1CEN)

	r := tm.Tick() // cnt 0 -> 1
	require.Nil(t, r.IRQ)

	r = tm.Tick() // cnt == arr: overflow, UIF set, IRQ raised
	require.NotNil(t, r.IRQ)
	require.EqualValues(t, 28, *r.IRQ)

	sr, err := tm.Read(offSR)
	require.NoError(t, err)
	require.EqualValues(t, srUIF, sr)
}

func TestTimerDisabledDoesNotCount(t *testing.T) {
	tm := New("TIM2", 28)
	writeWord(t, tm, offARR, 1)
	r := tm.Tick()
	require.Nil(t, r.IRQ)
	require.EqualValues(t, 0, tm.cnt)
}

func TestTimerPrescalerDelaysCount(t *testing.T) {
	tm := New("TIM2", 28)
	writeWord(t, tm, offPSC, 2) // 3 ticks per count (prescaleCount 0,1,2 then increment)
	writeWord(t, tm, offARR, 5)
	writeWord(t, tm, offCR1, cr1CEN)

	tm.Tick()
	tm.Tick()
	require.EqualValues(t, 0, tm.cnt, "count should not advance before the prescaler rolls over")
	tm.Tick()
	require.EqualValues(t, 1, tm.cnt)
}

func TestTimerSRClearsOnWriteZero(t *testing.T) {
	tm := New("TIM2", 28)
	writeWord(t, tm, offARR, 0)
	writeWord(t, tm, offDIER, dierUIE)
	writeWord(t, tm, offCR1, cr1CEN)
	tm.Tick()

	sr, err := tm.Read(offSR)
	require.NoError(t, err)
	require.NotZero(t, sr)

	require.NoError(t, tm.Write(offSR, 0)) // write-0-to-clear
	sr, err = tm.Read(offSR)
	require.NoError(t, err)
	require.Zero(t, sr)
}
