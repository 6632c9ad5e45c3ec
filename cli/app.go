// Package cli builds the cobra commands of the a64verify and a64map binaries.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/colorfulnotion/a64map/common"
	"github.com/colorfulnotion/a64map/config"
	"github.com/colorfulnotion/a64map/log"
	"github.com/colorfulnotion/a64map/storage"
	"github.com/colorfulnotion/a64map/sweep"
	"github.com/colorfulnotion/a64map/telemetry"
	"github.com/spf13/cobra"
)

const (
	ExitOK      = 0
	ExitRuntime = 1
	ExitUsage   = 2
)

// runError marks failures that happen after the arguments were accepted.
type runError struct{ err error }

func (e *runError) Error() string { return e.err.Error() }
func (e *runError) Unwrap() error { return e.err }

func failed(err error) error {
	if err == nil {
		return nil
	}
	return &runError{err: err}
}

// ExitCode maps an Execute error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var re *runError
	if errors.As(err, &re) {
		return ExitRuntime
	}
	return ExitUsage
}

// Main runs cmd and exits with its status.
func Main(cmd *cobra.Command) {
	err := cmd.Execute()
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
	}
	os.Exit(ExitCode(err))
}

// app carries what every command needs once flags are parsed.
type app struct {
	out        io.Writer
	configPath string
	logLevel   string
	logModules string
	cellsCount string
	cfg        *config.Config
	shutdown   telemetry.ShutdownFunc
}

// setup loads the configuration, applies flag overrides and starts logging
// and tracing.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logModules != "" {
		cfg.Log.Modules = a.logModules
	}
	if a.cellsCount != "" {
		n, err := common.ParseSize(a.cellsCount)
		if err != nil {
			return err
		}
		cfg.Cells.Count = n
	}
	if _, err := log.ParseLevel(cfg.Log.Level); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	log.InitLoggerTo(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Syslog)
	log.EnableModules(cfg.Log.Modules)
	shutdown, err := telemetry.Init(cmd.Context(), cfg.Telemetry.OTLPEndpoint, common.Version)
	if err != nil {
		log.Warn(log.TelemetryMonitoring, "tracing disabled", "endpoint", cfg.Telemetry.OTLPEndpoint, "err", err)
		shutdown = func(context.Context) error { return nil }
	}
	a.shutdown = shutdown
	return nil
}

func (a *app) teardown() {
	if a.shutdown != nil {
		if err := a.shutdown(context.Background()); err != nil {
			log.Warn(log.TelemetryMonitoring, "trace flush failed", "err", err)
		}
	}
}

func (a *app) addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML configuration file")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&a.logModules, "log-modules", "", "comma-separated modules with debug output, or all")
	cmd.PersistentFlags().StringVar(&a.cellsCount, "cells-count", "", "cells in the cell file, e.g. 2^32 (default from config)")
}

func (a *app) hooks(cmd *cobra.Command) {
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// arguments are valid by now; later failures are not usage errors
		cmd.SilenceUsage = true
		return a.setup(cmd)
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		a.teardown()
	}
}

// progressPrinter prints the sweep percentage the way the scanners always have.
func (a *app) progressPrinter() sweep.ProgressFunc {
	return func(pct float64, _ uint64) {
		fmt.Fprintf(a.out, "%.3f%%\n", pct)
	}
}

// checkpoint opens the configured checkpoint store, or returns nil when
// resume is disabled.
func (a *app) checkpoint() (*storage.CheckpointStore, error) {
	if a.cfg.Checkpoint.Path == "" {
		return nil, nil
	}
	return storage.NewCheckpointStore(a.cfg.Checkpoint.Path)
}

// signalContext is cancelled by SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// parseRange reads the optional --lo/--hi flags.
func parseRange(lo, hi string, n uint64) (sweep.Range, error) {
	r := sweep.Range{Lo: 0, Hi: n}
	if lo != "" {
		v, err := common.ParseSize(lo)
		if err != nil {
			return r, err
		}
		r.Lo = v
	}
	if hi != "" {
		v, err := common.ParseSize(hi)
		if err != nil {
			return r, err
		}
		r.Hi = v
	}
	return r, r.Validate(n)
}
