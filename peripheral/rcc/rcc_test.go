package rcc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRCCResetsWithHSIReady(t *testing.T) {
	r := New()
	require.True(t, r.regs.Word(regCR)&1 != 0, "HSION should be set at reset")
	require.True(t, r.regs.Word(regCR)&(1<<1) != 0, "HSIRDY should be set at reset")
}

func TestRCCHSEONImmediatelyLatchesHSERDY(t *testing.T) {
	r := New()
	require.NoError(t, r.Write(regCR*4+2, 1<<0)) // byte 2 of CR, bit 16 overall = HSEON

	require.True(t, r.regs.Word(regCR)&hseReady != 0, "HSERDY should latch without startup delay")
}

func TestRCCPLLONLatchesPLLRDY(t *testing.T) {
	r := New()
	require.NoError(t, r.Write(regCR*4+3, 1<<0)) // byte 3 of CR, bit 24 overall = PLLON

	require.True(t, r.regs.Word(regCR)&pllReady != 0)
}

func TestRCCPeripheralEnableGates(t *testing.T) {
	r := New()
	require.NoError(t, r.Write(regAPB2*4, 1<<2)) // enable bit 2 of APB2ENR
	require.True(t, r.APB2Enabled(2))
	require.False(t, r.APB2Enabled(3))
	require.False(t, r.APB1Enabled(2))
	require.False(t, r.AHBEnabled(2))
}
