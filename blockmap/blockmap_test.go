package blockmap

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/colorfulnotion/a64map/cells"
	"github.com/colorfulnotion/a64map/mra"
	"github.com/colorfulnotion/a64map/scanerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCells = 1 << 12

var testRecords = []mra.Record{
	{File: "add.xml", InstrClass: "general"},
	{File: "fadd.xml", InstrClass: "float"},
	{File: "odd.xml", InstrClass: "not-a-class"},
}

func TestLineFormat(t *testing.T) {
	l := Line{Start: 512, Counts: []Count{{0, 0, 3}, {2, 2, 200}}}
	assert.Equal(t, "512 0:0:3 2:2:200", l.String())

	back, err := ParseLine("512 0:0:3 2:2:200 ")
	require.NoError(t, err)
	assert.Equal(t, l, back)
	assert.Equal(t, Count{2, 2, 200}, back.Dominant())
	assert.Equal(t, uint32(203), back.Total())

	for _, bad := range []string{"", "x 0:0:1", "0 0:0", "0 0:a:1", "0 10:10:1", "0 0:0:257", "4294967296 0:0:1"} {
		_, err := ParseLine(bad)
		assert.ErrorIs(t, err, scanerrors.ErrMBadMapLine, bad)
	}
}

func TestMapCellFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cells.dat")
	require.NoError(t, cells.Create(path, testCells))
	cf, err := cells.Open(path, cells.Options{Cells: testCells})
	require.NoError(t, err)
	defer cf.Close()

	// everything invalid except a few cells in blocks 0 and 2
	for i := uint64(0); i < testCells; i++ {
		require.NoError(t, cf.MarkInvalid(i))
	}
	require.NoError(t, cf.Set(1, 0))
	require.NoError(t, cf.Set(2, 1))
	require.NoError(t, cf.Set(3, 1))
	require.NoError(t, cf.Set(2*BlockSize+7, 2))

	var out bytes.Buffer
	var pcts []float64
	totals, err := Map(context.Background(), cf, testRecords, &out, Options{
		ProgressEvery: testCells / 4, Progress: func(p float64, _ uint64) { pcts = append(pcts, p) },
	})
	require.NoError(t, err)
	assert.Equal(t, "0 0:0:1 2:2:2\n512 9:9:1\n", out.String())
	assert.Equal(t, uint64(1), totals[mra.ClassToID("general")])
	assert.Equal(t, uint64(2), totals[mra.ClassToID("float")])
	assert.Equal(t, uint64(1), totals[mra.InstrNumIDs])
	assert.Equal(t, uint64(4), totals.Sum())
	assert.Equal(t, []float64{25, 50, 75, 100}, pcts)

	lines, err := Read(strings.NewReader(out.String()))
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, totals, Sum(lines))
	assert.Equal(t, uint8(2), lines[0].Dominant().Class)
}

func TestMapRejectsUnknownRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cells.dat")
	require.NoError(t, cells.Create(path, testCells))
	cf, err := cells.Open(path, cells.Options{Cells: testCells})
	require.NoError(t, err)
	defer cf.Close()
	require.NoError(t, cf.Set(300, 42))

	_, err = Map(context.Background(), cf, testRecords, &bytes.Buffer{}, Options{})
	assert.ErrorIs(t, err, scanerrors.ErrRBadRecordIndex)
}

func TestReadReportsLineNumber(t *testing.T) {
	_, err := Read(strings.NewReader("0 0:0:1\n\nbogus\n"))
	require.ErrorIs(t, err, scanerrors.ErrMBadMapLine)
	assert.Contains(t, err.Error(), "line 3")
}

func TestCheckRejectsUngeneratedCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cells.dat")
	require.NoError(t, cells.Create(path, testCells))
	cf, err := cells.Open(path, cells.Options{Cells: testCells})
	require.NoError(t, err)
	defer cf.Close()

	// record 0 takes words ending in 0b11, record 1 every other word
	records := []mra.Record{
		{File: "a.xml", InstrClass: "general", Pattern: &mra.Pattern{Mask: 3, Value: 3}},
		{File: "b.xml", InstrClass: "float", Pattern: &mra.Pattern{}},
	}
	ctx := context.Background()

	// a created file holds record 0 everywhere
	err = Check(ctx, cf, records)
	assert.ErrorIs(t, err, scanerrors.ErrRNotGenerated)

	for i := uint64(0); i < testCells; i++ {
		v := mra.Match(records, uint32(i))
		require.NoError(t, cf.Set(i, v))
	}
	require.NoError(t, Check(ctx, cf, records))

	// a bad record index is caught too
	require.NoError(t, cf.Set(BlockSize, 7))
	assert.ErrorIs(t, Check(ctx, cf, records), scanerrors.ErrRNotGenerated)
}
