// Package sweep runs a function over the encoding space in aligned chunks,
// optionally in parallel, recording finished chunks so that an interrupted
// run resumes where it stopped.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/colorfulnotion/a64map/log"
	"github.com/colorfulnotion/a64map/scanerrors"
	"github.com/colorfulnotion/a64map/storage"
	"github.com/colorfulnotion/a64map/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Tally counts what a chunk did.
type Tally struct {
	Scanned uint64 `json:"scanned"` // cells examined
	Skipped uint64 `json:"skipped"` // cells already final, not examined
	Marked  uint64 `json:"marked"`  // cells written
}

func (t *Tally) Add(o Tally) {
	t.Scanned += o.Scanned
	t.Skipped += o.Skipped
	t.Marked += o.Marked
}

// Checkpointer persists finished chunks. storage.CheckpointStore implements it.
type Checkpointer interface {
	Bind(job, source string) error
	ChunkDone(job string, lo, hi uint64) (bool, error)
	MarkChunk(job string, rec storage.ChunkRecord) error
}

// ChunkFunc processes [c.Lo, c.Hi). It reports progress on m as it goes and
// returns what it did.
type ChunkFunc func(ctx context.Context, c Chunk, m *Meter) (Tally, error)

type Options struct {
	Job           string
	Range         Range
	ChunkSize     uint64
	Workers       int
	ProgressEvery uint64
	Progress      ProgressFunc
	Checkpoint    Checkpointer // nil disables resume
	Source        string       // identifies the scanned data; checkpoints of another source are dropped
	Tracer        trace.Tracer // nil uses the global provider
}

type Result struct {
	Tally
	Chunks  int           // chunks processed in this run
	Resumed int           // chunks skipped because a checkpoint recorded them
	Elapsed time.Duration //
}

const tracerName = "github.com/colorfulnotion/a64map/sweep"

// Run executes fn over every chunk of opts.Range. The first error stops the
// remaining workers. Cancelling ctx stops after the chunks in flight; the
// result then wraps scanerrors.ErrSInterrupted.
func Run(ctx context.Context, opts Options, fn ChunkFunc) (Result, error) {
	var res Result
	if opts.Range.Len() == 0 {
		return res, fmt.Errorf("range %s: %w", opts.Range, scanerrors.ErrSBadRange)
	}
	if opts.ChunkSize == 0 {
		opts.ChunkSize = opts.Range.Len()
	}
	if opts.Checkpoint != nil {
		if err := opts.Checkpoint.Bind(opts.Job, opts.Source); err != nil {
			return res, fmt.Errorf("%s checkpoint: %w", opts.Job, err)
		}
	}
	chunks := Plan(opts.Range, opts.ChunkSize)
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(chunks) {
		workers = len(chunks)
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = telemetry.Tracer(tracerName)
	}

	start := time.Now()
	ctx, runSpan := tracer.Start(ctx, telemetry.SpanRun, trace.WithAttributes(
		attribute.String(telemetry.AttrJob, opts.Job),
		attribute.Int64(telemetry.AttrLo, int64(opts.Range.Lo)),
		attribute.Int64(telemetry.AttrHi, int64(opts.Range.Hi)),
	))
	defer runSpan.End()

	meter := NewMeter(opts.Range.Len(), opts.ProgressEvery, opts.Progress)
	meter.start()
	log.Info(log.SweepMonitoring, "sweep started", "job", opts.Job, "range", opts.Range.String(),
		"chunks", len(chunks), "workers", workers)

	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	work := make(chan Chunk)

	eg.Go(func() error {
		defer close(work)
		for _, c := range chunks {
			select {
			case work <- c:
			case <-egCtx.Done():
				return nil
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		eg.Go(func() error {
			for c := range work {
				if egCtx.Err() != nil {
					return nil
				}
				if opts.Checkpoint != nil {
					done, err := opts.Checkpoint.ChunkDone(opts.Job, c.Lo, c.Hi)
					if err != nil {
						return err
					}
					if done {
						meter.Add(c.Len())
						mu.Lock()
						res.Resumed++
						mu.Unlock()
						log.Trace(log.SweepMonitoring, "chunk resumed", "job", opts.Job, "lo", c.Lo)
						continue
					}
				}

				tally, err := runChunk(egCtx, tracer, opts.Job, c, meter, fn)
				if err != nil {
					if egCtx.Err() != nil && errors.Is(err, egCtx.Err()) {
						return nil
					}
					return fmt.Errorf("chunk [%#x,%#x): %w", c.Lo, c.Hi, err)
				}
				if opts.Checkpoint != nil {
					if err := opts.Checkpoint.MarkChunk(opts.Job, storage.ChunkRecord{
						Lo: c.Lo, Hi: c.Hi, Scanned: tally.Scanned, Skipped: tally.Skipped, Marked: tally.Marked,
					}); err != nil {
						return err
					}
				}
				mu.Lock()
				res.Tally.Add(tally)
				res.Chunks++
				mu.Unlock()
				log.Debug(log.SweepMonitoring, "chunk done", "job", opts.Job, "lo", c.Lo, "hi", c.Hi,
					"scanned", tally.Scanned, "marked", tally.Marked)
			}
			return nil
		})
	}

	err := eg.Wait()
	res.Elapsed = time.Since(start)
	runSpan.SetAttributes(
		attribute.Int64(telemetry.AttrScanned, int64(res.Scanned)),
		attribute.Int64(telemetry.AttrSkipped, int64(res.Skipped)),
		attribute.Int64(telemetry.AttrMarked, int64(res.Marked)),
	)
	if err != nil {
		runSpan.RecordError(err)
		runSpan.SetStatus(codes.Error, err.Error())
		return res, err
	}
	if ctx.Err() != nil {
		runSpan.SetStatus(codes.Error, "interrupted")
		return res, fmt.Errorf("%s after %d chunks: %w", opts.Job, res.Chunks, errors.Join(scanerrors.ErrSInterrupted, ctx.Err()))
	}
	log.Info(log.SweepMonitoring, "sweep finished", "job", opts.Job, "chunks", res.Chunks, "resumed", res.Resumed,
		"scanned", res.Scanned, "skipped", res.Skipped, "marked", res.Marked, "elapsed", res.Elapsed)
	return res, nil
}

func runChunk(ctx context.Context, tracer trace.Tracer, job string, c Chunk, m *Meter, fn ChunkFunc) (Tally, error) {
	ctx, span := tracer.Start(ctx, telemetry.SpanChunk, trace.WithAttributes(
		attribute.String(telemetry.AttrJob, job),
		attribute.Int64(telemetry.AttrLo, int64(c.Lo)),
		attribute.Int64(telemetry.AttrHi, int64(c.Hi)),
	))
	defer span.End()

	tally, err := fn(ctx, c, m)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return tally, err
	}
	span.SetAttributes(
		attribute.Int64(telemetry.AttrScanned, int64(tally.Scanned)),
		attribute.Int64(telemetry.AttrSkipped, int64(tally.Skipped)),
		attribute.Int64(telemetry.AttrMarked, int64(tally.Marked)),
	)
	return tally, nil
}
