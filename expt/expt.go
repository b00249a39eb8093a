// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package expt runs the T226M experiments on a base cell: voltage traces of a
mixed cell against wild-type for a list of conditions (Traces), and
current-frequency curves of wild-type, heterozygous and homozygous cells
(IF).  Each experiment writes its PDF figure to Runner.OutDir and, when
Runner.DataDir is set, the underlying data as CSV.
*/
package expt

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/emer/scn1a/cell"
	"github.com/emer/scn1a/mix"
	"github.com/emer/scn1a/sim"
	"go.uber.org/zap"
)

var (
	// ErrCondition is returned for an invalid experiment condition
	ErrCondition = errors.New("expt: invalid condition")

	// ErrInputs is returned for an empty or non-finite input current list
	ErrInputs = errors.New("expt: invalid input currents")
)

// legend names
const (
	WTName  = "WT"
	MutName = "T226M"
)

// StimParams locate the stimulus and recording site
type StimParams struct {
	Section string  `yaml:"section" def:"soma" desc:"section receiving the current clamp and recorded from"`
	X       float32 `yaml:"x" def:"0.5" desc:"position along the section"`
	Delay   float64 `yaml:"delay" def:"20" desc:"stimulus onset in ms"`
	Thresh  float64 `yaml:"thresh" def:"-20" desc:"spike detection threshold in mV"`
}

func (sp *StimParams) Defaults() {
	sp.Section = "soma"
	sp.X = 0.5
	sp.Delay = 20
	sp.Thresh = -20
}

// Condition is one mutant condition: a mix fraction and stimulus amplitude (nA)
type Condition struct {
	Name string  `yaml:"name"`
	Mix  float64 `yaml:"mix"`
	Amp  float64 `yaml:"amp"`
}

// Validate checks that the condition can name an output file
func (cd *Condition) Validate() error {
	switch {
	case cd.Name == "" || strings.ContainsAny(cd.Name, `/\`) || cd.Name == "." || cd.Name == "..":
		return fmt.Errorf("%w: bad name %q", ErrCondition, cd.Name)
	case math.IsNaN(cd.Mix) || cd.Mix < 0 || cd.Mix > 1:
		return fmt.Errorf("%w: %s: mix %v not in [0,1]", ErrCondition, cd.Name, cd.Mix)
	case math.IsNaN(cd.Amp) || math.IsInf(cd.Amp, 0):
		return fmt.Errorf("%w: %s: amp %v", ErrCondition, cd.Name, cd.Amp)
	}
	return nil
}

// TraceResult is one recorded run.  T and V are parallel.
type TraceResult struct {
	T          []float64 `desc:"time in ms"`
	V          []float64 `desc:"membrane potential in mV at the recording site"`
	Spikes     int       `desc:"number of spikes"`
	SpikeTimes []float64 `desc:"spike times in ms"`
}

// SweepResult is the I-F curve of one condition
type SweepResult struct {
	Name   string
	Mix    float64
	Inputs []float64 `desc:"input currents in nA"`
	Rates  []float64 `desc:"firing rates in Hz, one per input"`
}

// Runner runs experiments on clones of the Base cell
type Runner struct {
	Base    *cell.Cell  `desc:"unmixed cell model, never modified"`
	Sim     sim.Params  `desc:"simulation settings"`
	Stim    StimParams  `desc:"stimulus and recording site"`
	Mixer   *mix.Mixer  `desc:"applies mix fractions"`
	OutDir  string      `def:"save" desc:"directory for PDF figures"`
	DataDir string      `desc:"if set, directory for CSV data"`
	Workers int         `def:"1" desc:"number of conditions simulated at once"`
	Log     *zap.Logger `desc:"logger"`
}

// NewRunner returns a Runner with default settings for the base cell.
// A nil log discards output.
func NewRunner(base *cell.Cell, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	rn := &Runner{Base: base, OutDir: "save", Workers: 1, Log: log}
	rn.Sim.Defaults()
	rn.Stim.Defaults()
	rn.Mixer = mix.New(log)
	return rn
}

// Mixed returns a clone of the base cell with given mutant fraction
func (rn *Runner) Mixed(frac float64) (*cell.Cell, error) {
	c := rn.Base.Clone()
	if _, err := rn.Mixer.Apply(c, frac); err != nil {
		return nil, err
	}
	return c, nil
}

// Record applies a current clamp of amp nA for dur ms after Stim.Delay
// and runs the cell to the end of the stimulus, recording at the Stim site.
func (rn *Runner) Record(ctx context.Context, c *cell.Cell, amp, dur float64) (*TraceResult, error) {
	cx, err := sim.NewContext(c, rn.Sim, rn.Log)
	if err != nil {
		return nil, err
	}
	st := &rn.Stim
	if _, err := cx.AddIClamp(st.Section, st.X, sim.IClampParams{Amp: amp, Delay: st.Delay, Dur: dur}); err != nil {
		return nil, err
	}
	tv := cx.RecordTime()
	vv, err := cx.RecordV(st.Section, st.X)
	if err != nil {
		return nil, err
	}
	ac, err := cx.APCount(st.Section, st.X, st.Thresh)
	if err != nil {
		return nil, err
	}
	if err := cx.Run(ctx, st.Delay+dur); err != nil {
		return nil, fmt.Errorf("%s at %g nA: %w", c.Name, amp, err)
	}
	return &TraceResult{T: tv.Data, V: vv.Data, Spikes: ac.N, SpikeTimes: ac.Times}, nil
}

func (rn *Runner) workers() int {
	if rn.Workers < 1 {
		return 1
	}
	return rn.Workers
}
