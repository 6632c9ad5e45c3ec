package cli

import (
	"fmt"
	"strings"

	"github.com/colorfulnotion/a64map/common"
	"github.com/colorfulnotion/a64map/mra"
	"github.com/spf13/cobra"
)

func (a *app) classifyCmd() *cobra.Command {
	var (
		out     string
		base    bool
		classes string
		variant string
	)
	cmd := &cobra.Command{
		Use:   "classify <xml-dir>",
		Short: "Build the records file from the ARM machine-readable ISA XML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := mra.Filter{Base: base, Variant: variant}
			if classes != "" && classes != "all" {
				filter.Classes = strings.Split(classes, ",")
			}
			records, err := mra.Classify(args[0], filter)
			if err != nil {
				return failed(err)
			}
			if out == "" {
				out = a.cfg.Records.Path
			}
			if err := mra.SaveRecords(out, records); err != nil {
				return failed(err)
			}
			fmt.Fprintf(a.out, "%d records written to %s\n", len(records), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "records file (default from config)")
	cmd.Flags().BoolVar(&base, "base", false, "only ARMv8.0 instructions")
	cmd.Flags().StringVar(&classes, "class", "all", "comma-separated instruction classes to keep")
	cmd.Flags().StringVar(&variant, "variant", "", "keep instructions available at or before this version, e.g. ARMv8.2")
	return cmd
}

func (a *app) recordsArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return a.cfg.Records.Path
}

func (a *app) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary [records]",
		Short: "Print the records as a class and file tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := mra.LoadRecords(a.recordsArg(args))
			if err != nil {
				return failed(err)
			}
			fmt.Fprint(a.out, mra.Summary(records).String())
			return nil
		},
	}
}

func (a *app) diffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <old-records> <new-records>",
		Short: "Compare two records files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			older, err := mra.LoadRecords(args[0])
			if err != nil {
				return failed(err)
			}
			newer, err := mra.LoadRecords(args[1])
			if err != nil {
				return failed(err)
			}
			diff, text, err := mra.DiffRecords(older, newer)
			if err != nil {
				return failed(err)
			}
			fmt.Fprintf(a.out, "%s\n", common.Colorize(common.ColorCyan, diff.String(), false))
			fmt.Fprintln(a.out, text)
			return nil
		},
	}
}
