// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// scn1a plots the voltage traces (--plot trace) or current-frequency
// curves (--plot if) of a PV interneuron model carrying the SCN1A T226M
// mutation in a fraction of its Nav1.1 channels.
//
//	scn1a --plot trace
//	scn1a --plot if --config run.yaml --workers 3
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/emer/scn1a/cell"
	"github.com/emer/scn1a/config"
	"github.com/emer/scn1a/expt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrInvalidPlot is returned for a --plot value other than trace or if
var ErrInvalidPlot = errors.New("invalid argument")

type options struct {
	plot    string
	config  string
	out     string
	data    string
	workers int
	verbose bool

	log *zap.Logger
}

// newRootCmd returns the root command.  A nil log is built from the
// configuration at run time.
func newRootCmd(log *zap.Logger) *cobra.Command {
	opts := &options{log: log}
	cmd := &cobra.Command{
		Use:   "scn1a --plot trace|if",
		Short: "Simulate Nav1.1 T226M mixing in a PV interneuron model",
		Long: `scn1a splits the Nav1.1 sodium conductance of a PV interneuron model
between wild-type and T226M mutant channels, stimulates the soma with
current steps, and plots the results as PDF files:

  trace   voltage traces of mutant vs. wild-type cells, one <name>.pdf per condition
  if      firing rate vs. input current, heterozygous and homozygous panels in if.pdf`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&opts.plot, "plot", "", "what to plot: trace or if")
	fl.StringVarP(&opts.config, "config", "c", "", "YAML configuration file")
	fl.StringVarP(&opts.out, "out", "o", "", "output directory for figures (overrides output_dir)")
	fl.StringVar(&opts.data, "data", "", "also write CSV data to this directory (overrides data_dir)")
	fl.IntVarP(&opts.workers, "workers", "w", 1, "conditions simulated at once (overrides workers)")
	fl.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	_ = cmd.MarkFlagRequired("plot")
	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	if opts.plot != "trace" && opts.plot != "if" {
		return fmt.Errorf("%w: --plot must be trace or if, got %q", ErrInvalidPlot, opts.plot)
	}
	cf := config.Default()
	if opts.config != "" {
		var err error
		if cf, err = config.Load(opts.config); err != nil {
			return err
		}
	}
	fl := cmd.Flags()
	if fl.Changed("out") {
		cf.OutputDir = opts.out
	}
	if fl.Changed("data") {
		cf.DataDir = opts.data
	}
	if fl.Changed("workers") {
		cf.Workers = opts.workers
	}
	if opts.verbose {
		cf.LogLevel = "debug"
	}
	if err := cf.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := opts.log
	if log == nil {
		var err error
		if log, err = newLogger(cf.LogLevel); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer func() { _ = log.Sync() }()
	}

	base, err := cell.Load(cf.Morphology, cf.Channels)
	if err != nil {
		return err
	}
	rn := expt.NewRunner(base, log)
	rn.Sim = cf.Sim
	rn.Stim = cf.Stim
	rn.Mixer.Params = cf.Mutation
	rn.OutDir = cf.OutputDir
	rn.DataDir = cf.DataDir
	rn.Workers = cf.Workers
	log.Info("starting", zap.String("plot", opts.plot), zap.String("cell", base.Name),
		zap.Int("segments", len(base.Segments())), zap.String("out", cf.OutputDir))

	ctx := cmd.Context()
	switch opts.plot {
	case "trace":
		_, err = rn.Traces(ctx, cf.Trace.Conditions, cf.Trace.Duration)
	case "if":
		_, err = rn.IF(ctx, cf.IF.Inputs(), cf.IF.IFParams)
	}
	if err != nil {
		return err
	}
	return done(cmd.OutOrStdout())
}

func done(w io.Writer) error {
	_, err := fmt.Fprintln(w, "done")
	return err
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = lvl
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zc.Build()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(nil).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
