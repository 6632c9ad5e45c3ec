package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/colorfulnotion/a64map/log"
)

// ChunkRecord is what a finished chunk leaves behind in the checkpoint store.
type ChunkRecord struct {
	Lo      uint64 `json:"lo"`
	Hi      uint64 `json:"hi"`
	Scanned uint64 `json:"scanned"`
	Skipped uint64 `json:"skipped"`
	Marked  uint64 `json:"marked"`
}

// CheckpointStore records completed chunks per job so that an interrupted
// scan resumes where it stopped. Keys are "<job>/" followed by the chunk's
// lower bound as 8 big-endian bytes, so iteration follows index order.
type CheckpointStore struct {
	ps *PersistenceStore
}

// NewCheckpointStore opens the store at path; an empty path keeps it in memory.
func NewCheckpointStore(path string) (*CheckpointStore, error) {
	ps, err := NewPersistenceStore(path)
	if err != nil {
		return nil, err
	}
	return &CheckpointStore{ps: ps}, nil
}

func jobPrefix(job string) []byte {
	return append([]byte(job), '/')
}

func chunkKey(job string, lo uint64) []byte {
	return binary.BigEndian.AppendUint64(jobPrefix(job), lo)
}

// sourceKey sits outside jobPrefix so Chunks never sees it.
func sourceKey(job string) []byte {
	return append([]byte(job), 0, 's')
}

// Bind ties job to the data it scans. Chunks recorded for a different source
// describe another file, so they are dropped before source is stored.
func (cs *CheckpointStore) Bind(job, source string) error {
	prev, ok, err := cs.ps.Get(sourceKey(job))
	if err != nil {
		return err
	}
	if ok && string(prev) == source {
		return nil
	}
	if ok {
		log.Warn(log.StorageMonitoring, "checkpoint source changed, discarding chunks", "job", job,
			"was", string(prev), "now", source)
		if err := cs.Reset(job); err != nil {
			return err
		}
	}
	if err := cs.ps.Put(sourceKey(job), []byte(source)); err != nil {
		return fmt.Errorf("Bind %s: %w", job, err)
	}
	return nil
}

// Source returns the source job is bound to.
func (cs *CheckpointStore) Source(job string) (string, bool, error) {
	b, ok, err := cs.ps.Get(sourceKey(job))
	return string(b), ok, err
}

// MarkChunk records a completed chunk.
func (cs *CheckpointStore) MarkChunk(job string, rec ChunkRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := cs.ps.Put(chunkKey(job, rec.Lo), b); err != nil {
		return fmt.Errorf("MarkChunk %s [%#x,%#x): %w", job, rec.Lo, rec.Hi, err)
	}
	log.Trace(log.StorageMonitoring, "chunk recorded", "job", job, "lo", rec.Lo, "hi", rec.Hi)
	return nil
}

// ChunkDone reports whether the chunk [lo, hi) was recorded for job.
func (cs *CheckpointStore) ChunkDone(job string, lo, hi uint64) (bool, error) {
	b, ok, err := cs.ps.Get(chunkKey(job, lo))
	if err != nil || !ok {
		return false, err
	}
	var rec ChunkRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return false, fmt.Errorf("ChunkDone %s %#x: %w", job, lo, err)
	}
	return rec.Hi == hi, nil
}

// Chunks returns every recorded chunk for job in index order.
func (cs *CheckpointStore) Chunks(job string) ([]ChunkRecord, error) {
	kvs, err := cs.ps.GetWithPrefix(jobPrefix(job))
	if err != nil {
		return nil, err
	}
	recs := make([]ChunkRecord, 0, len(kvs))
	for _, kv := range kvs {
		var rec ChunkRecord
		if err := json.Unmarshal(kv[1], &rec); err != nil {
			return nil, fmt.Errorf("Chunks %s: %w", job, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Reset forgets every chunk recorded for job and the source it was bound to.
func (cs *CheckpointStore) Reset(job string) error {
	n, err := cs.ps.DeleteWithPrefix(jobPrefix(job))
	if err != nil {
		return err
	}
	if err := cs.ps.Delete(sourceKey(job)); err != nil {
		return err
	}
	log.Info(log.StorageMonitoring, "checkpoint reset", "job", job, "chunks", n)
	return nil
}

func (cs *CheckpointStore) Close() error {
	return cs.ps.Close()
}
