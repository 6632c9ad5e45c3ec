//go:build unicorn
// +build unicorn

package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnicornAgreesOnBasics(t *testing.T) {
	o, err := New(UnicornName)
	require.NoError(t, err)
	defer o.Close()

	assert.True(t, o.Valid(0xd503201f))  // nop
	assert.True(t, o.Valid(0x8b020020))  // add x0, x1, x2
	assert.False(t, o.Valid(0x02000000)) // unallocated

	s, err := o.Disasm(0xd503201f)
	require.NoError(t, err)
	assert.Equal(t, "nop", s)
}
