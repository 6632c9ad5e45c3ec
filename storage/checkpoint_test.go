package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointStore_MarkAndQuery(t *testing.T) {
	cs, err := NewCheckpointStore("")
	require.NoError(t, err)
	defer cs.Close()

	require.NoError(t, cs.MarkChunk("verify", ChunkRecord{Lo: 0x100, Hi: 0x200, Scanned: 200, Skipped: 56, Marked: 3}))
	require.NoError(t, cs.MarkChunk("verify", ChunkRecord{Lo: 0, Hi: 0x100, Scanned: 256}))
	require.NoError(t, cs.MarkChunk("gen", ChunkRecord{Lo: 0, Hi: 0x100}))

	done, err := cs.ChunkDone("verify", 0x100, 0x200)
	require.NoError(t, err)
	assert.True(t, done)

	// same lower bound, different chunk size: not the same chunk
	done, err = cs.ChunkDone("verify", 0x100, 0x180)
	require.NoError(t, err)
	assert.False(t, done)

	done, err = cs.ChunkDone("verify", 0x200, 0x300)
	require.NoError(t, err)
	assert.False(t, done)

	recs, err := cs.Chunks("verify")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, uint64(0), recs[0].Lo)
	assert.Equal(t, uint64(3), recs[1].Marked)

	require.NoError(t, cs.Reset("verify"))
	recs, err = cs.Chunks("verify")
	require.NoError(t, err)
	assert.Empty(t, recs)

	recs, err = cs.Chunks("gen")
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestCheckpointStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ckpt")
	cs, err := NewCheckpointStore(path)
	require.NoError(t, err)
	require.NoError(t, cs.MarkChunk("verify", ChunkRecord{Lo: 0, Hi: 16}))
	require.NoError(t, cs.Close())

	cs, err = NewCheckpointStore(path)
	require.NoError(t, err)
	defer cs.Close()
	done, err := cs.ChunkDone("verify", 0, 16)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestCheckpointStore_BindDropsOtherSource(t *testing.T) {
	cs, err := NewCheckpointStore("")
	require.NoError(t, err)
	defer cs.Close()

	require.NoError(t, cs.Bind("verify", "/data/a.dat"))
	require.NoError(t, cs.MarkChunk("verify", ChunkRecord{Lo: 0, Hi: 16}))
	require.NoError(t, cs.MarkChunk("gen", ChunkRecord{Lo: 0, Hi: 16}))

	// rebinding the same source keeps the chunks
	require.NoError(t, cs.Bind("verify", "/data/a.dat"))
	done, err := cs.ChunkDone("verify", 0, 16)
	require.NoError(t, err)
	assert.True(t, done)

	require.NoError(t, cs.Bind("verify", "/data/b.dat"))
	done, err = cs.ChunkDone("verify", 0, 16)
	require.NoError(t, err)
	assert.False(t, done)
	src, ok, err := cs.Source("verify")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/data/b.dat", src)

	// other jobs are untouched
	recs, err := cs.Chunks("gen")
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	require.NoError(t, cs.Reset("verify"))
	_, ok, err = cs.Source("verify")
	require.NoError(t, err)
	assert.False(t, ok)
}
