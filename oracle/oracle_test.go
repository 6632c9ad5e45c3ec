package oracle

import (
	"strings"
	"testing"

	"github.com/colorfulnotion/a64map/scanerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArm64asmValid(t *testing.T) {
	o, err := New(Arm64asmName)
	require.NoError(t, err)
	defer o.Close()
	assert.Equal(t, Arm64asmName, o.Name())

	for _, word := range []uint32{
		0xd503201f, // nop
		0xd65f03c0, // ret
		0x8b020020, // add x0, x1, x2
		0xd2800000, // mov x0, #0
	} {
		assert.True(t, o.Valid(word), "0x%08x", word)
	}

	// op0 == 0b0001 is unallocated
	for _, word := range []uint32{0x02000000, 0x02abcdef} {
		assert.False(t, o.Valid(word), "0x%08x", word)
		_, err := o.Disasm(word)
		assert.Error(t, err)
	}
}

func TestArm64asmDisasm(t *testing.T) {
	var a Arm64asm
	s, err := a.Disasm(0xd503201f)
	require.NoError(t, err)
	assert.Equal(t, "nop", s)

	g, err := a.GoSyntax(0xd503201f, 0)
	require.NoError(t, err)
	assert.Equal(t, "NOOP", g)

	// operand-less mnemonics come back without padding
	for _, word := range []uint32{0xd503201f, 0xd65f03c0, 0xd503233f} {
		s, err := a.Disasm(word)
		require.NoError(t, err)
		assert.Equal(t, strings.TrimSpace(s), s, "0x%08x", word)
	}
}

func TestRegistry(t *testing.T) {
	assert.Contains(t, Names(), Arm64asmName)

	_, err := New("capstone")
	assert.ErrorIs(t, err, scanerrors.ErrOUnknownOracle)

	Register("failing", func() (Oracle, error) { return nil, assert.AnError })
	_, err = New("failing")
	assert.ErrorIs(t, err, scanerrors.ErrOOracleInit)
}

func TestBytesLittleEndian(t *testing.T) {
	assert.Equal(t, [4]byte{0x1f, 0x20, 0x03, 0xd5}, Bytes(0xd503201f))
}
