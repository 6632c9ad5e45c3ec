package gen

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/colorfulnotion/a64map/cells"
	"github.com/colorfulnotion/a64map/mra"
	"github.com/colorfulnotion/a64map/scanerrors"
	"github.com/colorfulnotion/a64map/storage"
	"github.com/colorfulnotion/a64map/sweep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCells = 1 << 16

func testRecords() []mra.Record {
	return []mra.Record{
		{File: "a.xml", InstrClass: "general", Pattern: &mra.Pattern{Mask: 0xF000, Value: 0x1000}},
		{File: "b.xml", InstrClass: "system", Pattern: &mra.Pattern{Mask: 0x0F00, Value: 0x0100,
			Excludes: []mra.Exclusion{{Mask: 0x00FF, Value: 0x00FF}}}},
		{File: "c.xml", InstrClass: "float"},
	}
}

func TestMatcherAgreesWithLinearMatch(t *testing.T) {
	records, err := mra.Classify(filepath.Join("..", "mra", "testdata", "xml"), mra.Filter{})
	require.NoError(t, err)
	records = append(records, testRecords()...)
	m := NewMatcher(records)

	words := []uint32{0x8b020020, 0xB8200041, 0xd503201f, 0x1000, 0x01ff, 0x0100}
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20000; i++ {
		words = append(words, rng.Uint32())
	}
	for _, w := range words {
		require.Equal(t, mra.Match(records, w), m.Match(w), "word 0x%08x", w)
	}
	assert.Equal(t, int16(0), m.Match(0x8b020020))
	// ADD (shifted register) has top byte x0001011 and so sits in two buckets
	assert.Positive(t, m.Candidates(0x8b))
	assert.Positive(t, m.Candidates(0x0b))
}

func TestGenerateFillsCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pred.dat")
	cf, err := OpenOrCreate(path, testCells)
	require.NoError(t, err)
	defer cf.Close()

	g, err := New(cf, testRecords(), Options{Workers: 3, ChunkSize: 1 << 12})
	require.NoError(t, err)
	res, err := g.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(testCells), res.Scanned)

	assert.Equal(t, int16(0), cf.Get(0x1000))
	assert.Equal(t, int16(0), cf.Get(0x1100)) // first record wins
	assert.Equal(t, int16(1), cf.Get(0x0100))
	assert.Equal(t, cells.Invalid, cf.Get(0x01FF)) // excluded
	assert.Equal(t, cells.Invalid, cf.Get(0x0000))

	// 0x1xxx: 4096 words; 0x?1xx outside 0x1xxx: 15*256 minus one excluded word each
	matched := uint64(4096 + 15*255)
	assert.Equal(t, uint64(testCells)-matched, res.Marked)
	invalid, _ := cf.Count(0, testCells)
	assert.Equal(t, res.Marked, invalid)
}

func TestGenerateOverwritesAndResumes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pred.dat")
	require.NoError(t, cells.Create(path, testCells))
	cf, err := OpenOrCreate(path, testCells)
	require.NoError(t, err)
	defer cf.Close()
	require.NoError(t, cf.MarkInvalid(0x1000))

	cs, err := storage.NewCheckpointStore("")
	require.NoError(t, err)
	defer cs.Close()

	g, err := New(cf, testRecords(), Options{Range: sweep.Range{Lo: 0x1000, Hi: 0x2000}, ChunkSize: 0x800, Checkpoint: cs})
	require.NoError(t, err)
	_, err = g.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int16(0), cf.Get(0x1000))
	// outside the range cells keep their zero fill
	assert.Equal(t, int16(0), cf.Get(0x0000))

	res, err := g.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Resumed)
}

func TestGenerateFromFiles(t *testing.T) {
	dir := t.TempDir()
	recordsPath := filepath.Join(dir, "arm64.json")
	require.NoError(t, mra.SaveRecords(recordsPath, testRecords()))

	cellsPath := filepath.Join(dir, "arm64.dat")
	res, err := Generate(context.Background(), cellsPath, testCells, recordsPath, Options{Workers: 2})
	require.NoError(t, err)
	assert.Equal(t, uint64(testCells), res.Scanned)

	cf, err := cells.Open(cellsPath, cells.Options{Cells: testCells, ReadOnly: true})
	require.NoError(t, err)
	defer cf.Close()
	assert.Equal(t, int16(1), cf.Get(0x0100))

	_, err = Generate(context.Background(), cellsPath, testCells, filepath.Join(dir, "missing.json"), Options{})
	assert.ErrorIs(t, err, scanerrors.ErrRRecordsMissing)
}

func TestGenerateErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pred.dat")
	cf, err := OpenOrCreate(path, testCells)
	require.NoError(t, err)
	defer cf.Close()

	_, err = New(cf, nil, Options{})
	assert.ErrorIs(t, err, scanerrors.ErrRRecordsMissing)

	_, err = New(cf, testRecords(), Options{Range: sweep.Range{Lo: 0, Hi: testCells * 2}})
	assert.ErrorIs(t, err, scanerrors.ErrSBadRange)

	// a file of the wrong size is not recreated
	_, err = OpenOrCreate(path, testCells*2)
	assert.ErrorIs(t, err, scanerrors.ErrCCellFileSize)
}
