package uart

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUARTWriteAppearsInSinkAndCapture(t *testing.T) {
	var sink bytes.Buffer
	u := New(&sink, false)

	require.NoError(t, u.Write(offDR, 'H'))
	require.NoError(t, u.Write(offDR, 'i'))

	require.Equal(t, "Hi", sink.String())
	require.Equal(t, []byte("Hi"), u.Captured())
}

func TestUARTQuietSuppressesSinkButStillCaptures(t *testing.T) {
	var sink bytes.Buffer
	u := New(&sink, true)

	require.NoError(t, u.Write(offDR, 'X'))
	require.Empty(t, sink.String())
	require.Equal(t, []byte("X"), u.Captured())
}

func TestUARTRXFIFOFeedsReadsAndStatus(t *testing.T) {
	u := New(nil, false)
	sr, err := u.Read(offSR)
	require.NoError(t, err)
	require.EqualValues(t, srTXE, sr, "RX empty, TX always ready")

	u.InjectRX([]byte("ok"))
	sr, err = u.Read(offSR)
	require.NoError(t, err)
	require.EqualValues(t, srTXE|srRXNE, sr)

	b, err := u.Read(offDR)
	require.NoError(t, err)
	require.EqualValues(t, 'o', b)
	b, err = u.Read(offDR)
	require.NoError(t, err)
	require.EqualValues(t, 'k', b)
}

func TestUARTNilSinkDoesNotPanic(t *testing.T) {
	u := New(nil, false)
	require.NoError(t, u.Write(offDR, 'A'))
	require.Equal(t, []byte("A"), u.Captured())
}
