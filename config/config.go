// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config holds the scn1a run configuration, read from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/emer/scn1a/expt"
	"github.com/emer/scn1a/mix"
	"github.com/emer/scn1a/sim"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"
)

// TraceConfig configures the trace experiment
type TraceConfig struct {
	Duration   float64          `yaml:"duration" def:"180" desc:"stimulus duration in ms"`
	Conditions []expt.Condition `yaml:"conditions" desc:"conditions, each giving one <name>.pdf"`
}

// IFConfig configures the I-F experiment.  Inputs are N currents evenly
// spaced from Start to Stop nA inclusive.
type IFConfig struct {
	expt.IFParams `yaml:",inline"`
	Start         float64 `yaml:"start" def:"0"`
	Stop          float64 `yaml:"stop" def:"0.15"`
	N             int     `yaml:"n" def:"40" min:"2"`
}

// Inputs returns the input currents in nA
func (ic *IFConfig) Inputs() []float64 {
	return floats.Span(make([]float64, ic.N), ic.Start, ic.Stop)
}

// Config is the full run configuration
type Config struct {
	OutputDir  string          `yaml:"output_dir" def:"save" desc:"directory for PDF figures"`
	DataDir    string          `yaml:"data_dir" desc:"if set, directory for CSV data"`
	Morphology string          `yaml:"morphology" desc:"morphology file, empty for the built-in PV cell"`
	Channels   string          `yaml:"channels" desc:"channel-model file, empty for the built-in PV channels"`
	Workers    int             `yaml:"workers" def:"1" desc:"number of conditions simulated at once"`
	LogLevel   string          `yaml:"log_level" def:"info"`
	Sim        sim.Params      `yaml:"sim"`
	Stim       expt.StimParams `yaml:"stim"`
	Mutation   mix.Params      `yaml:"mutation" desc:"T226M gating midpoints"`
	Trace      TraceConfig     `yaml:"trace"`
	IF         IFConfig        `yaml:"if"`
}

// Default returns the configuration that reproduces the published figures
func Default() *Config {
	cf := &Config{OutputDir: "save", Workers: 1, LogLevel: "info"}
	cf.Sim.Defaults()
	cf.Stim.Defaults()
	cf.Mutation.Defaults()
	cf.Trace = TraceConfig{Duration: 180, Conditions: expt.DefaultConditions()}
	cf.IF.IFParams.Defaults()
	cf.IF.Start = 0
	cf.IF.Stop = 0.15
	cf.IF.N = 40
	return cf
}

// Load reads the YAML file over the defaults.  Unknown keys are errors.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cf, err := Read(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cf, nil
}

// Read decodes a YAML configuration over the defaults
func Read(r io.Reader) (*Config, error) {
	cf := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cf); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cf, nil
}

// Validate checks that the configuration is usable
func (cf *Config) Validate() error {
	if cf.OutputDir == "" {
		return fmt.Errorf("output_dir must be set")
	}
	if cf.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", cf.Workers)
	}
	if _, err := zap.ParseAtomicLevel(cf.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if err := cf.Sim.Validate(); err != nil {
		return err
	}
	if cf.Stim.Section == "" || cf.Stim.X < 0 || cf.Stim.X > 1 || cf.Stim.Delay < 0 {
		return fmt.Errorf("stim: need a section, 0 <= x <= 1 and delay >= 0")
	}
	if !(cf.Trace.Duration > 0) {
		return fmt.Errorf("trace.duration must be > 0, got %v", cf.Trace.Duration)
	}
	if len(cf.Trace.Conditions) == 0 {
		return fmt.Errorf("trace.conditions must list at least one condition")
	}
	for i := range cf.Trace.Conditions {
		if err := cf.Trace.Conditions[i].Validate(); err != nil {
			return err
		}
	}
	ic := &cf.IF
	switch {
	case !(ic.Dur > 0):
		return fmt.Errorf("if.duration must be > 0, got %v", ic.Dur)
	case ic.N < 2:
		return fmt.Errorf("if.n must be >= 2, got %d", ic.N)
	case math.IsNaN(ic.Start) || math.IsNaN(ic.Stop) || math.IsInf(ic.Start, 0) || math.IsInf(ic.Stop, 0):
		return fmt.Errorf("if.start and if.stop must be finite")
	}
	for _, f := range []float64{ic.Het, ic.Hom} {
		if math.IsNaN(f) || f < 0 || f > 1 {
			return fmt.Errorf("if mix fractions must be in [0,1], got %v", f)
		}
	}
	return nil
}
