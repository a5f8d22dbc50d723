package decode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func noSuffix() (uint16, error) { return 0, nil }

func TestDecodeMOVImmediate(t *testing.T) {
	// spec §8 scenario 2: "2A 20" little-endian halfword is 0x202A.
	inst, err := Decode(0x202A, noSuffix)
	require.NoError(t, err)
	require.Equal(t, OpMOVImm, inst.Op)
	require.EqualValues(t, 2, inst.Width)
	require.EqualValues(t, 0, inst.Rd)
	require.EqualValues(t, 0x2A, inst.Imm)
}

func TestDecodeUnconditionalBranch(t *testing.T) {
	inst, err := Decode(0xE7FE, noSuffix) // B . (branch to self, imm11 = 0x7fe)
	require.NoError(t, err)
	require.Equal(t, OpB, inst.Op)
	require.EqualValues(t, -4, inst.Imm)
}

func TestDecodeConditionalBranchCondition(t *testing.T) {
	inst, err := Decode(0xD001, noSuffix) // BEQ, imm8=1
	require.NoError(t, err)
	require.Equal(t, OpBcc, inst.Op)
	require.EqualValues(t, 0x0, inst.Cond)
	require.EqualValues(t, 2, inst.Imm)
}

func TestDecodeBXInterworking(t *testing.T) {
	inst, err := Decode(0x4770, noSuffix) // BX LR
	require.NoError(t, err)
	require.Equal(t, OpBX, inst.Op)
	require.EqualValues(t, 14, inst.Rm)
}

func TestDecodeWide32BitPrefixClasses(t *testing.T) {
	for _, h := range []uint16{0xE800, 0xF000, 0xF800} {
		require.True(t, is32Bit(h), "%#04x should classify as 32-bit", h)
	}
	require.False(t, is32Bit(0x2000))
}

func TestDecodeBLSignExtendsWideOffset(t *testing.T) {
	// BL with a small negative displacement: S/J1/J2/imm10 all ones and
	// imm11 = 0x7FE, giving offset -4.
	half1 := uint16(0xF7FF) // S=1, imm10=all ones
	half2 := uint16(0xBFFE) // J1=J2=1, imm11=0x7FE, BL suffix shape
	inst, err := Decode(half1, func() (uint16, error) { return half2, nil })
	require.NoError(t, err)
	require.Equal(t, OpBL, inst.Op)
	require.EqualValues(t, 4, inst.Width)
	require.True(t, inst.Imm < 0, "negative BL offset should sign-extend negative, got %d", inst.Imm)
}

func TestDecodeUnknownInstructionError(t *testing.T) {
	_, err := Decode(0xDF00, noSuffix) // SVC, deliberately unsupported
	require.Error(t, err)
}

func TestDecodeRequiresSuffixOnlyForWideForms(t *testing.T) {
	called := false
	_, err := Decode(0x202A, func() (uint16, error) {
		called = true
		return 0, nil
	})
	require.NoError(t, err)
	require.False(t, called, "16-bit instruction must not fetch a suffix halfword")
}
