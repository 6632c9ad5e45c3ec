package cli

import (
	"fmt"
	"io"

	"github.com/colorfulnotion/a64map/cells"
	"github.com/colorfulnotion/a64map/log"
	"github.com/colorfulnotion/a64map/sweep"
	"github.com/colorfulnotion/a64map/verify"
	"github.com/spf13/cobra"
)

type verifyFlags struct {
	oracle        string
	workers       int
	chunkSize     uint64
	progressEvery uint64
	checkpoint    string
	lo, hi        string
}

func (f *verifyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.oracle, "oracle", "", "disassembler (default from config)")
	cmd.Flags().IntVar(&f.workers, "workers", -1, "parallel workers, 0 for one per CPU (default from config)")
	cmd.Flags().Uint64Var(&f.chunkSize, "chunk-size", 0, "indices per chunk, a power of two (default from config)")
	cmd.Flags().Uint64Var(&f.progressEvery, "progress-every", 0, "indices between progress lines (default from config)")
	cmd.Flags().StringVar(&f.checkpoint, "checkpoint", "", "checkpoint directory for resuming (default from config)")
	cmd.Flags().StringVar(&f.lo, "lo", "", "first index (default 0)")
	cmd.Flags().StringVar(&f.hi, "hi", "", "end index, exclusive (default all cells)")
}

func (f *verifyFlags) apply(a *app) error {
	if f.oracle != "" {
		a.cfg.Scan.Oracle = f.oracle
	}
	if f.workers >= 0 {
		a.cfg.Scan.Workers = f.workers
	}
	if f.chunkSize != 0 {
		a.cfg.Scan.ChunkSize = f.chunkSize
	}
	if f.progressEvery != 0 {
		a.cfg.Scan.ProgressEvery = f.progressEvery
	}
	if f.checkpoint != "" {
		a.cfg.Checkpoint.Path = f.checkpoint
	}
	return a.cfg.Validate()
}

// runVerify maps the cell file and runs the verifier over it. Every failure
// to open or map the file is fatal.
func (a *app) runVerify(cmd *cobra.Command, path string, f *verifyFlags) error {
	if err := f.apply(a); err != nil {
		return err
	}
	cf, err := cells.Open(path, cells.Options{Cells: a.cfg.Cells.Count})
	if err != nil {
		log.Error(log.VerifyMonitoring, "cannot map cell file", "path", path, "err", err)
		return failed(err)
	}
	defer cf.Close()

	r, err := parseRange(f.lo, f.hi, cf.Len())
	if err != nil {
		return err
	}
	opts := verify.Options{
		Oracle:        a.cfg.Scan.Oracle,
		Range:         r,
		Workers:       a.cfg.EffectiveWorkers(),
		ChunkSize:     a.cfg.Scan.ChunkSize,
		ProgressEvery: a.cfg.Scan.ProgressEvery,
		Progress:      a.progressPrinter(),
	}
	cs, err := a.checkpoint()
	if err != nil {
		return failed(err)
	}
	if cs != nil {
		defer cs.Close()
		opts.Checkpoint = cs
	}

	v, err := verify.New(cf, opts)
	if err != nil {
		return failed(err)
	}
	ctx, stop := signalContext(cmd.Context())
	defer stop()
	res, err := v.Run(ctx)
	if err != nil {
		return failed(err)
	}
	printResult(a.out, res)
	return nil
}

func printResult(w io.Writer, res sweep.Result) {
	fmt.Fprintf(w, "scanned %d, skipped %d, marked %d invalid in %s", res.Scanned, res.Skipped, res.Marked, res.Elapsed.Round(1e6))
	if res.Resumed > 0 {
		fmt.Fprintf(w, " (%d chunks resumed)", res.Resumed)
	}
	fmt.Fprintln(w)
}

// NewVerifyCmd is the a64verify binary: one positional argument naming an
// existing, pre-sized cell file.
func NewVerifyCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}
	f := &verifyFlags{}
	cmd := &cobra.Command{
		Use:           "a64verify <cell-file>",
		Short:         "Mark every 32-bit word the disassembler rejects as invalid",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runVerify(cmd, args[0], f)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	a.addPersistentFlags(cmd)
	a.hooks(cmd)
	f.register(cmd)
	cmd.SetOut(out)
	return cmd
}

func (a *app) verifyCmd() *cobra.Command {
	f := &verifyFlags{}
	cmd := &cobra.Command{
		Use:   "verify [cell-file]",
		Short: "Verify every encoding of a cell file against the disassembler",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Cells.Path
			if len(args) == 1 {
				path = args[0]
			}
			return a.runVerify(cmd, path, f)
		},
	}
	f.register(cmd)
	return cmd
}
