package nvic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNVICPendRequiresEnableForHighestPending(t *testing.T) {
	n := New()
	n.Pend(20)

	_, ok := n.HighestPending()
	require.False(t, ok, "a pending-but-disabled IRQ must not be reported")

	require.NoError(t, n.Write(0, 1<<4)) // ISER bit for IRQ 16+4=20
	irq, ok := n.HighestPending()
	require.True(t, ok)
	require.EqualValues(t, 20, irq)
}

func TestNVICTiesBreakOnHighestIRQNumber(t *testing.T) {
	n := New()
	n.Pend(20)
	n.Pend(21)
	require.NoError(t, n.Write(0, (1<<4)|(1<<5))) // enable both 20 and 21

	irq, ok := n.HighestPending()
	require.True(t, ok)
	require.EqualValues(t, 21, irq, "highest IRQ number wins with no priority register")
}

func TestNVICClearPendingViaICPR(t *testing.T) {
	n := New()
	n.Pend(16)
	require.NoError(t, n.Write(0, 1))

	n.ClearPending(16)
	_, ok := n.HighestPending()
	require.False(t, ok)
}

func TestNVICICERDisablesAnEnabledIRQ(t *testing.T) {
	n := New()
	n.Pend(16)
	require.NoError(t, n.Write(offISER, 1))
	_, ok := n.HighestPending()
	require.True(t, ok)

	require.NoError(t, n.Write(offICER, 1))
	_, ok = n.HighestPending()
	require.False(t, ok)
}

func TestNVICOutOfRangeIRQIsIgnored(t *testing.T) {
	n := New()
	n.Pend(FirstExternal + numIRQ) // one past the last valid external IRQ
	_, ok := n.HighestPending()
	require.False(t, ok)
}
