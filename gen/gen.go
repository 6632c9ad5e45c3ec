// Package gen writes the predicted cell file: every encoding gets the index of
// the first record whose encoding diagram accepts it, or -1.
package gen

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/colorfulnotion/a64map/cells"
	"github.com/colorfulnotion/a64map/log"
	"github.com/colorfulnotion/a64map/mra"
	"github.com/colorfulnotion/a64map/scanerrors"
	"github.com/colorfulnotion/a64map/sweep"
	"go.opentelemetry.io/otel/trace"
)

const (
	Job       = "gen"
	blockSize = 1 << 16
)

type Options struct {
	Range         sweep.Range
	Workers       int // zero means runtime.NumCPU
	ChunkSize     uint64
	ProgressEvery uint64
	Progress      sweep.ProgressFunc
	Checkpoint    sweep.Checkpointer
	Tracer        trace.Tracer
}

type Generator struct {
	cells   *cells.File
	matcher *Matcher
	opts    Options
}

// OpenOrCreate maps path read-write, creating a file of n cells first when
// it does not exist.
func OpenOrCreate(path string, n uint64) (*cells.File, error) {
	cf, err := cells.Open(path, cells.Options{Cells: n})
	if err == nil || !errors.Is(err, scanerrors.ErrCCellFileMissing) {
		return cf, err
	}
	if err := cells.Create(path, n); err != nil {
		return nil, err
	}
	return cells.Open(path, cells.Options{Cells: n})
}

func New(cf *cells.File, records []mra.Record, opts Options) (*Generator, error) {
	if cf.ReadOnly() {
		return nil, fmt.Errorf("gen %s: %w", cf.Path(), scanerrors.ErrCReadOnly)
	}
	if len(records) == 0 {
		return nil, scanerrors.ErrRRecordsMissing
	}
	if len(records) > math.MaxInt16 {
		return nil, fmt.Errorf("%d records do not fit a cell", len(records))
	}
	if opts.Range == (sweep.Range{}) {
		opts.Range = sweep.Range{Lo: 0, Hi: cf.Len()}
	}
	if err := opts.Range.Validate(cf.Len()); err != nil {
		return nil, err
	}
	if opts.Workers < 1 {
		opts.Workers = runtime.NumCPU()
	}
	return &Generator{cells: cf, matcher: NewMatcher(records), opts: opts}, nil
}

func (g *Generator) Run(ctx context.Context) (sweep.Result, error) {
	start := time.Now()
	res, err := sweep.Run(ctx, sweep.Options{
		Job:           Job,
		Range:         g.opts.Range,
		ChunkSize:     g.opts.ChunkSize,
		Workers:       g.opts.Workers,
		ProgressEvery: g.opts.ProgressEvery,
		Progress:      g.opts.Progress,
		Checkpoint:    g.opts.Checkpoint,
		Source:        g.cells.ID(),
		Tracer:        g.opts.Tracer,
	}, g.chunk)
	if serr := g.cells.Sync(); serr != nil && err == nil {
		err = serr
	}
	if err != nil {
		return res, err
	}
	log.Report(log.GenMonitoring, Job, "done", map[string]uint64{
		"words":     res.Scanned,
		"matched":   res.Scanned - res.Marked,
		"unmatched": res.Marked,
	}, "elapsed", time.Since(start))
	return res, nil
}

// chunk fills [c.Lo, c.Hi). Marked counts words no record accepts.
func (g *Generator) chunk(ctx context.Context, c sweep.Chunk, m *sweep.Meter) (sweep.Tally, error) {
	var tally sweep.Tally
	for lo := c.Lo; lo < c.Hi; lo += blockSize {
		if err := ctx.Err(); err != nil {
			return tally, err
		}
		hi := min(lo+blockSize, c.Hi)
		span := g.cells.Span(lo, hi)
		for k := range span {
			v := g.matcher.Match(uint32(lo + uint64(k)))
			span[k] = v
			if v == cells.Invalid {
				tally.Marked++
			}
		}
		tally.Scanned += hi - lo
		m.Add(hi - lo)
	}
	return tally, nil
}

// Generate is the one-shot form used by the command line: load records, map
// or create the cell file, and fill it.
func Generate(ctx context.Context, cellsPath string, n uint64, recordsPath string, opts Options) (sweep.Result, error) {
	records, err := mra.LoadRecords(recordsPath)
	if err != nil {
		return sweep.Result{}, err
	}
	cf, err := OpenOrCreate(cellsPath, n)
	if err != nil {
		return sweep.Result{}, err
	}
	defer cf.Close()
	g, err := New(cf, records, opts)
	if err != nil {
		return sweep.Result{}, err
	}
	log.Info(log.GenMonitoring, "generating", "cells", cellsPath, "records", len(records), "workers", g.opts.Workers)
	return g.Run(ctx)
}
