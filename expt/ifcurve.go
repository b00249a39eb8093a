// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package expt

import (
	"context"
	"fmt"
	"math"
	"path/filepath"

	"github.com/emer/scn1a/plots"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// IFParams configure the I-F experiment
type IFParams struct {
	Dur float64 `yaml:"duration" def:"500" desc:"stimulus duration in ms"`
	Het float64 `yaml:"het" def:"0.5" desc:"mix fraction of the heterozygous cell"`
	Hom float64 `yaml:"hom" def:"1" desc:"mix fraction of the homozygous cell"`
}

func (ip *IFParams) Defaults() {
	ip.Dur = 500
	ip.Het = 0.5
	ip.Hom = 1
}

// Rate converts a spike count over dur ms to Hz
func Rate(n int, dur float64) float64 {
	return float64(n) / (dur / 1000)
}

// IF sweeps the input currents (nA) on wild-type, heterozygous and
// homozygous cells, and saves the two-panel figure to OutDir/if.pdf.
// Returns the WT, Het and Hom sweeps in that order.
func (rn *Runner) IF(ctx context.Context, inputs []float64, ip IFParams) ([]*SweepResult, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: none given", ErrInputs)
	}
	for _, in := range inputs {
		if math.IsNaN(in) || math.IsInf(in, 0) {
			return nil, fmt.Errorf("%w: %v", ErrInputs, in)
		}
	}
	if !(ip.Dur > 0) {
		return nil, fmt.Errorf("expt: I-F duration must be > 0, is %v", ip.Dur)
	}
	conds := []struct {
		name string
		mix  float64
	}{{WTName, 0}, {"Het", ip.Het}, {"Hom", ip.Hom}}

	sweeps := make([]*SweepResult, len(conds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rn.workers())
	for i, cd := range conds {
		g.Go(func() error {
			c := rn.Base
			if i > 0 {
				var err error
				if c, err = rn.Mixed(cd.mix); err != nil {
					return fmt.Errorf("%s: %w", cd.name, err)
				}
			}
			sw := &SweepResult{Name: cd.name, Mix: cd.mix, Inputs: inputs, Rates: make([]float64, len(inputs))}
			for j, in := range inputs {
				tr, err := rn.Record(gctx, c, in, ip.Dur)
				if err != nil {
					return fmt.Errorf("%s: %w", cd.name, err)
				}
				sw.Rates[j] = Rate(tr.Spikes, ip.Dur)
				rn.Log.Debug("I-F point", zap.String("cond", cd.name), zap.Float64("input", in), zap.Float64("rate", sw.Rates[j]))
			}
			rn.Log.Info("I-F sweep done", zap.String("cond", cd.name), zap.Float64("mix", cd.mix), zap.Float64s("rates", sw.Rates))
			sweeps[i] = sw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pa := make([]float64, len(inputs))
	for i, in := range inputs {
		pa[i] = in * 1000
	}
	wt := plots.Series{Name: WTName, X: pa, Y: sweeps[0].Rates, Color: plots.Black}
	panel := func(sw *SweepResult) plots.Panel {
		return plots.Panel{Title: sw.Name, Series: []plots.Series{wt, {Name: MutName, X: pa, Y: sw.Rates, Color: plots.Red}}}
	}
	if err := plots.IFPanels(filepath.Join(rn.OutDir, "if.pdf"), panel(sweeps[1]), panel(sweeps[2])); err != nil {
		return nil, err
	}
	if rn.DataDir != "" {
		if err := rn.saveIFCSV(sweeps); err != nil {
			return nil, err
		}
	}
	return sweeps, nil
}
