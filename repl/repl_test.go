package repl

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/colorfulnotion/a64map/cells"
	"github.com/colorfulnotion/a64map/mra"
	"github.com/colorfulnotion/a64map/oracle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCells = 1 << 16

type scriptReader struct{ lines []string }

func (s *scriptReader) Readline() (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	l := s.lines[0]
	s.lines = s.lines[1:]
	return l, nil
}

func newExplorer(t *testing.T, out io.Writer) *Explorer {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cells.dat")
	require.NoError(t, cells.Create(path, testCells))
	cf, err := cells.Open(path, cells.Options{Cells: testCells})
	require.NoError(t, err)
	t.Cleanup(func() { cf.Close() })
	require.NoError(t, cf.MarkInvalid(7))
	require.NoError(t, cf.Set(8, 1))

	records := []mra.Record{
		{File: "a.xml", Name: "A", InstrClass: "general", Pattern: &mra.Pattern{Mask: 0xFF, Value: 0x08}},
		{File: "b.xml", Name: "B", InstrClass: "sve", Pattern: &mra.Pattern{Mask: 0xFF, Value: 0x09}},
	}
	o, err := oracle.New(oracle.Arm64asmName)
	require.NoError(t, err)
	e, err := New(o, cf, records, out)
	require.NoError(t, err)
	return e
}

func TestEvalBindings(t *testing.T) {
	e := newExplorer(t, io.Discard)

	v, err := e.Eval(`decode("0xd503201f")`)
	require.NoError(t, err)
	assert.Equal(t, "nop", v.Export())

	v, err = e.Eval(`valid(0xd503201f)`)
	require.NoError(t, err)
	assert.Equal(t, true, v.Export())

	v, err = e.Eval(`cell(7)`)
	require.NoError(t, err)
	assert.EqualValues(t, -1, v.Export())

	v, err = e.Eval(`record(7)`)
	require.NoError(t, err)
	assert.Nil(t, v.Export())

	v, err = e.Eval(`record(8).name`)
	require.NoError(t, err)
	assert.Equal(t, "B", v.Export())

	v, err = e.Eval(`match(0x1208).class`)
	require.NoError(t, err)
	assert.Equal(t, "general", v.Export())

	v, err = e.Eval(`match(0x10)`)
	require.NoError(t, err)
	assert.Nil(t, v.Export())

	_, err = e.Eval(`decode("bogus")`)
	assert.Error(t, err)
	_, err = e.Eval(`cell(0x10000)`)
	assert.Error(t, err)
	_, err = e.Eval(`valid(-1)`)
	assert.Error(t, err)
}

func TestLoop(t *testing.T) {
	var out bytes.Buffer
	e := newExplorer(t, &out)
	e.Loop(&scriptReader{lines: []string{
		`print("hello")`,
		``,
		`1 + 1`,
		`nosuchfn()`,
		`exit`,
		`print("unreachable")`,
	}})
	s := out.String()
	assert.Contains(t, s, "hello\n")
	assert.Contains(t, s, "2\n")
	assert.Contains(t, s, "nosuchfn")
	assert.NotContains(t, s, "unreachable")
}

func TestCellsOptional(t *testing.T) {
	o, err := oracle.New(oracle.Arm64asmName)
	require.NoError(t, err)
	e, err := New(o, nil, nil, io.Discard)
	require.NoError(t, err)
	_, err = e.Eval(`cell(1)`)
	assert.ErrorContains(t, err, "no cell file")
	v, err := e.Eval(`help()`)
	require.NoError(t, err)
	assert.Contains(t, v.String(), "decode(w)")
}
