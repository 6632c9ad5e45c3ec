// Package verify runs a disassembler over every encoding of a cell file and
// marks the encodings it rejects as invalid.
package verify

import (
	"context"
	"fmt"
	"time"

	"github.com/colorfulnotion/a64map/cells"
	"github.com/colorfulnotion/a64map/log"
	"github.com/colorfulnotion/a64map/oracle"
	"github.com/colorfulnotion/a64map/scanerrors"
	"github.com/colorfulnotion/a64map/sweep"
	"github.com/colorfulnotion/a64map/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	Job                  = "verify"
	DefaultProgressEvery = 10_000_000
	// indices between cancellation checks
	blockSize = 1 << 16
)

type Options struct {
	Oracle        string // registry name; empty means arm64asm
	Range         sweep.Range
	Workers       int
	ChunkSize     uint64
	ProgressEvery uint64
	Progress      sweep.ProgressFunc
	Checkpoint    sweep.Checkpointer
	Tracer        trace.Tracer
}

// Verifier marks every cell whose encoding the oracle rejects.
type Verifier struct {
	cells   *cells.File
	factory oracle.Factory
	name    string
	opts    Options
}

// New checks the options against cf. A zero Range covers the whole file.
func New(cf *cells.File, opts Options) (*Verifier, error) {
	if cf.ReadOnly() {
		return nil, fmt.Errorf("verify %s: %w", cf.Path(), scanerrors.ErrCReadOnly)
	}
	if opts.Oracle == "" {
		opts.Oracle = oracle.Arm64asmName
	}
	factory, err := oracle.Lookup(opts.Oracle)
	if err != nil {
		return nil, err
	}
	if opts.Range == (sweep.Range{}) {
		opts.Range = sweep.Range{Lo: 0, Hi: cf.Len()}
	}
	if err := opts.Range.Validate(cf.Len()); err != nil {
		return nil, err
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.ProgressEvery == 0 {
		opts.ProgressEvery = DefaultProgressEvery
	}
	return &Verifier{cells: cf, factory: factory, name: opts.Oracle, opts: opts}, nil
}

// Run sweeps the range and flushes the mapping when done, including after an
// interruption so that the marks made so far persist.
func (v *Verifier) Run(ctx context.Context) (sweep.Result, error) {
	start := time.Now()
	res, err := sweep.Run(ctx, sweep.Options{
		Job:           Job,
		Range:         v.opts.Range,
		ChunkSize:     v.opts.ChunkSize,
		Workers:       v.opts.Workers,
		ProgressEvery: v.opts.ProgressEvery,
		Progress:      v.opts.Progress,
		Checkpoint:    v.opts.Checkpoint,
		Source:        v.cells.ID(),
		Tracer:        v.opts.Tracer,
	}, v.chunk)
	if serr := v.cells.Sync(); serr != nil && err == nil {
		err = serr
	}
	if err != nil {
		return res, err
	}
	log.Report(log.VerifyMonitoring, Job, "done", res.Tally,
		"metadata", fmt.Sprintf("oracle=%s range=%s", v.name, v.opts.Range), "elapsed", time.Since(start))
	return res, nil
}

func (v *Verifier) chunk(ctx context.Context, c sweep.Chunk, m *sweep.Meter) (sweep.Tally, error) {
	var tally sweep.Tally
	o, err := v.factory()
	if err != nil {
		return tally, fmt.Errorf("%s: %v: %w", v.name, err, scanerrors.ErrOOracleInit)
	}
	defer o.Close()
	trace.SpanFromContext(ctx).SetAttributes(attribute.String(telemetry.AttrOracle, v.name))

	for lo := c.Lo; lo < c.Hi; lo += blockSize {
		if err := ctx.Err(); err != nil {
			return tally, err
		}
		hi := min(lo+blockSize, c.Hi)
		t, err := Block(v.cells, o, lo, hi)
		tally.Add(t)
		if err != nil {
			return tally, err
		}
		m.Add(hi - lo)
	}
	return tally, nil
}

// Block verifies cells [lo, hi) with o.
func Block(cf *cells.File, o oracle.Oracle, lo, hi uint64) (sweep.Tally, error) {
	var tally sweep.Tally
	for i := lo; i < hi; i++ {
		if cf.Get(i) == cells.Invalid {
			tally.Skipped++
			continue
		}
		tally.Scanned++
		if o.Valid(uint32(i)) {
			continue
		}
		if err := cf.MarkInvalid(i); err != nil {
			return tally, err
		}
		tally.Marked++
		log.Trace(log.VerifyMonitoring, "invalid", "word", fmt.Sprintf("0x%08x", i))
	}
	return tally, nil
}
