package cli

import (
	"fmt"
	"os"

	"github.com/colorfulnotion/a64map/blockmap"
	"github.com/colorfulnotion/a64map/cells"
	"github.com/colorfulnotion/a64map/common"
	"github.com/colorfulnotion/a64map/mra"
	"github.com/colorfulnotion/a64map/oracle"
	"github.com/colorfulnotion/a64map/repl"
	"github.com/colorfulnotion/a64map/vis"
	"github.com/spf13/cobra"
)

func readMap(path string) ([]blockmap.Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return blockmap.Read(f)
}

func (a *app) visCmd() *cobra.Command {
	var out, theme string
	var order int
	cmd := &cobra.Command{
		Use:   "vis <map-file>",
		Short: "Render a class map as a Hilbert-curve PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if theme == "" {
				theme = a.cfg.Vis.Theme
			}
			if order == 0 {
				order = a.cfg.Vis.Order
			}
			p, err := vis.Theme(theme)
			if err != nil {
				return err
			}
			lines, err := readMap(args[0])
			if err != nil {
				return failed(err)
			}
			img, err := vis.Render(lines, p, order)
			if err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return failed(err)
			}
			if err := vis.WritePNG(f, img); err != nil {
				f.Close()
				return failed(err)
			}
			if err := f.Close(); err != nil {
				return failed(err)
			}
			fmt.Fprintln(a.out, vis.Legend(p))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "arm64.png", "output image")
	cmd.Flags().StringVar(&theme, "theme", "", "color theme: solarized or monokai (default from config)")
	cmd.Flags().IntVar(&order, "order", 0, "Hilbert curve order, 1..12 (default from config)")
	return cmd
}

func (a *app) chartCmd() *cobra.Command {
	var out, theme string
	cmd := &cobra.Command{
		Use:   "chart <map-file>",
		Short: "Write an HTML bar chart of valid encodings per class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if theme == "" {
				theme = a.cfg.Vis.Theme
			}
			p, err := vis.Theme(theme)
			if err != nil {
				return err
			}
			lines, err := readMap(args[0])
			if err != nil {
				return failed(err)
			}
			f, err := os.Create(out)
			if err != nil {
				return failed(err)
			}
			if err := vis.Chart(f, blockmap.Sum(lines), p); err != nil {
				f.Close()
				return failed(err)
			}
			return failed(f.Close())
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "arm64.html", "output HTML file")
	cmd.Flags().StringVar(&theme, "theme", "", "color theme (default from config)")
	return cmd
}

func (a *app) exploreCmd() *cobra.Command {
	var cellsPath, records string
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Interactive JavaScript console over the oracle, cell file and records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := oracle.New(a.cfg.Scan.Oracle)
			if err != nil {
				return failed(err)
			}
			defer o.Close()

			var cf *cells.File
			if cellsPath != "" {
				if cf, err = cells.Open(cellsPath, cells.Options{ReadOnly: true, Cells: a.cfg.Cells.Count}); err != nil {
					return failed(err)
				}
				defer cf.Close()
			}
			var recs []mra.Record
			if records != "" {
				if recs, err = mra.LoadRecords(records); err != nil {
					return failed(err)
				}
			}
			e, err := repl.New(o, cf, recs, a.out)
			if err != nil {
				return failed(err)
			}
			return failed(e.Run("a64> ", a.cfg.Repl.HistoryFile))
		},
	}
	cmd.Flags().StringVar(&cellsPath, "cells", "", "cell file to look words up in")
	cmd.Flags().StringVar(&records, "records", "", "records file for record() and match()")
	return cmd
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "a64map %s (oracles: %v)\n", common.VersionString(), oracle.Names())
		},
	}
}
