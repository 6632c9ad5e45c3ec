package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/colorfulnotion/a64map/blockmap"
	"github.com/colorfulnotion/a64map/cells"
	"github.com/colorfulnotion/a64map/common"
	"github.com/colorfulnotion/a64map/gen"
	"github.com/colorfulnotion/a64map/mra"
	"github.com/colorfulnotion/a64map/sweep"
	"github.com/colorfulnotion/a64map/verify"
	"github.com/spf13/cobra"
)

func (a *app) cellsArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return a.cfg.Cells.Path
}

func (a *app) cellCount() uint64 {
	if a.cfg.Cells.Count == 0 {
		return cells.DefaultCells
	}
	return a.cfg.Cells.Count
}

func (a *app) createCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "create [cell-file]",
		Short: "Create a zeroed cell file of the configured size",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cellsArg(args)
			if _, err := os.Stat(path); err == nil && !force {
				return failed(fmt.Errorf("%s exists; use --force to truncate it", path))
			}
			if err := cells.Create(path, a.cellCount()); err != nil {
				return failed(err)
			}
			if err := a.forgetCheckpoints(path); err != nil {
				return failed(err)
			}
			fmt.Fprintf(a.out, "created %s with %d cells\n", path, a.cellCount())
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "truncate an existing file")
	return cmd
}

// forgetCheckpoints resets the gen and verify checkpoints bound to path. A
// truncated file keeps its inode, so its old chunks would otherwise resume.
func (a *app) forgetCheckpoints(path string) error {
	cs, err := a.checkpoint()
	if err != nil || cs == nil {
		return err
	}
	defer cs.Close()
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	for _, job := range []string{gen.Job, verify.Job} {
		src, ok, err := cs.Source(job)
		if err != nil {
			return err
		}
		if ok && strings.HasPrefix(src, abs+"|") {
			if err := cs.Reset(job); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *app) genCmd() *cobra.Command {
	var (
		records    string
		workers    int
		checkpoint string
	)
	cmd := &cobra.Command{
		Use:   "gen [cell-file]",
		Short: "Write the record each encoding is predicted to match",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if records == "" {
				records = a.cfg.Records.Path
			}
			if checkpoint != "" {
				a.cfg.Checkpoint.Path = checkpoint
			}
			opts := gen.Options{
				Workers:       workers,
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
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			res, err := gen.Generate(ctx, a.cellsArg(args), a.cellCount(), records, opts)
			if err != nil {
				return failed(err)
			}
			fmt.Fprintf(a.out, "%d words, %d matched, %d unmatched\n", res.Scanned, res.Scanned-res.Marked, res.Marked)
			return nil
		},
	}
	cmd.Flags().StringVar(&records, "records", "", "records file (default from config)")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (default one per CPU)")
	cmd.Flags().StringVar(&checkpoint, "checkpoint", "", "checkpoint directory for resuming")
	return cmd
}

func (a *app) statsCmd() *cobra.Command {
	var chunk string
	cmd := &cobra.Command{
		Use:   "stats [cell-file]",
		Short: "Count invalid and remaining cells per range",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := common.ParseSize(chunk)
			if err != nil || size == 0 {
				return fmt.Errorf("--chunk %q: want a positive size", chunk)
			}
			cf, err := cells.Open(a.cellsArg(args), cells.Options{ReadOnly: true, Cells: a.cfg.Cells.Count})
			if err != nil {
				return failed(err)
			}
			defer cf.Close()

			tw := tabwriter.NewWriter(a.out, 0, 8, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "lo\thi\tinvalid\tremaining\t")
			var invalid, other uint64
			for _, c := range sweep.Plan(sweep.Range{Lo: 0, Hi: cf.Len()}, size) {
				inv, oth := cf.Count(c.Lo, c.Hi)
				invalid += inv
				other += oth
				fmt.Fprintf(tw, "%#x\t%#x\t%d\t%d\t\n", c.Lo, c.Hi, inv, oth)
			}
			if err := tw.Flush(); err != nil {
				return failed(err)
			}
			fmt.Fprintf(a.out, "total: %d invalid, %d remaining (%.3f%% remaining)\n",
				invalid, other, float64(other)/float64(cf.Len())*100)
			return nil
		},
	}
	cmd.Flags().StringVar(&chunk, "chunk", "2^28", "cells per row")
	return cmd
}

func (a *app) mapCmd() *cobra.Command {
	var records, out string
	cmd := &cobra.Command{
		Use:   "map [cell-file]",
		Short: "Write the per-block class map of a generated cell file",
		Long: "Write the per-block class map of a cell file filled by gen with the same records file.\n" +
			"A file that only went through create and verify holds record 0 in every valid cell and is refused.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if records == "" {
				records = a.cfg.Records.Path
			}
			recs, err := mra.LoadRecords(records)
			if err != nil {
				return failed(err)
			}
			cf, err := cells.Open(a.cellsArg(args), cells.Options{ReadOnly: true, Cells: a.cfg.Cells.Count})
			if err != nil {
				return failed(err)
			}
			defer cf.Close()

			ctx, stop := signalContext(cmd.Context())
			defer stop()
			if err := blockmap.Check(ctx, cf, recs); err != nil {
				return failed(err)
			}

			w := a.out
			var progress sweep.ProgressFunc
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return failed(err)
				}
				defer f.Close()
				w = f
				progress = a.progressPrinter()
			}
			totals, err := blockmap.Map(ctx, cf, recs, w, blockmap.Options{
				ProgressEvery: a.cfg.Scan.ProgressEvery,
				Progress:      progress,
			})
			if err != nil {
				return failed(err)
			}
			if w != a.out {
				fmt.Fprintf(a.out, "%d valid encodings mapped to %s\n", totals.Sum(), out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&records, "records", "", "records file (default from config)")
	cmd.Flags().StringVarP(&out, "output", "o", "-", "map file, - for stdout")
	return cmd
}

func (a *app) checksumCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checksum [file]",
		Short: "Print the BLAKE2b-256 checksum of a cell file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cellsArg(args)
			h, n, err := common.Checksum(path)
			if err != nil {
				return failed(err)
			}
			fmt.Fprintf(a.out, "%s  %s  %d bytes\n", h.Hex(), path, n)
			return nil
		},
	}
}
