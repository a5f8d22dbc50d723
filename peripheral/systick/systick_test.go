package systick

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func writeWord(t *testing.T, s *SysTick, offset, v uint32) {
	t.Helper()
	for i := uint32(0); i < 4; i++ {
		require.NoError(t, s.Write(offset+i, uint8(v>>(i*8))))
	}
}

func readWord(t *testing.T, s *SysTick, offset uint32) uint32 {
	t.Helper()
	var v uint32
	for i := uint32(0); i < 4; i++ {
		b, err := s.Read(offset + i)
		require.NoError(t, err)
		v |= uint32(b) << (i * 8)
	}
	return v
}

func TestSysTickDisabledDoesNotCount(t *testing.T) {
	s := New()
	writeWord(t, s, offRVR, 5)
	s.cvr = 5 // a CVR write clears the counter, so prime it directly

	res := s.Tick()
	require.Nil(t, res.IRQ)
	require.EqualValues(t, 5, readWord(t, s, offCVR))
}

func TestSysTickUnderflowReloadsAndRaisesIRQWhenEnabled(t *testing.T) {
	s := New()
	writeWord(t, s, offRVR, 2)
	s.cvr = 2 // a CVR write clears the counter, so prime it directly
	writeWord(t, s, offCSR, csrEnable|csrTickInt)

	require.Nil(t, s.Tick().IRQ)
	require.EqualValues(t, 1, readWord(t, s, offCVR))

	require.Nil(t, s.Tick().IRQ)
	require.EqualValues(t, 0, readWord(t, s, offCVR))

	res := s.Tick()
	require.NotNil(t, res.IRQ)
	require.EqualValues(t, IRQException, *res.IRQ)
	require.EqualValues(t, 2, readWord(t, s, offCVR), "reloads from RVR on underflow")
}

func TestSysTickUnderflowWithoutTickIntSetsCountFlagOnly(t *testing.T) {
	s := New()
	writeWord(t, s, offRVR, 1)
	writeWord(t, s, offCVR, 1)
	writeWord(t, s, offCSR, csrEnable)

	require.Nil(t, s.Tick().IRQ)
	res := s.Tick()
	require.Nil(t, res.IRQ)

	csr := readWord(t, s, offCSR)
	require.NotZero(t, csr&csrCountFlag, "COUNTFLAG latches even without TICKINT")
}

func TestSysTickReadingCSRClearsCountFlag(t *testing.T) {
	s := New()
	writeWord(t, s, offRVR, 1)
	writeWord(t, s, offCVR, 1)
	writeWord(t, s, offCSR, csrEnable)
	s.Tick()
	s.Tick()

	csr := readWord(t, s, offCSR)
	require.NotZero(t, csr&csrCountFlag)
	csr = readWord(t, s, offCSR)
	require.Zero(t, csr&csrCountFlag, "a second read observes COUNTFLAG already cleared by the first")
}

func TestSysTickWritingCVRResetsCounterAndCountFlag(t *testing.T) {
	s := New()
	writeWord(t, s, offRVR, 1)
	writeWord(t, s, offCVR, 1)
	writeWord(t, s, offCSR, csrEnable)
	s.Tick()
	s.Tick()
	require.NotZero(t, readWord(t, s, offCSR)&csrCountFlag)

	writeWord(t, s, offCVR, 9)
	require.EqualValues(t, 0, readWord(t, s, offCVR), "any write to CVR clears it, not sets it")
	require.Zero(t, readWord(t, s, offCSR)&csrCountFlag)
}
