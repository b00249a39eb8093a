// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package expt

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/emer/scn1a/plots"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConditions are the heterozygous and homozygous trace conditions
func DefaultConditions() []Condition {
	return []Condition{
		{Name: "Het", Mix: 0.5, Amp: 0.3},
		{Name: "Hom", Mix: 1.0, Amp: 0.175},
	}
}

// TraceSet is the mutant and wild-type traces of one condition
type TraceSet struct {
	Cond Condition
	Mut  *TraceResult
	WT   *TraceResult
	Path string `desc:"figure file"`
}

// Traces runs each condition on a mixed cell and on a wild-type cell with
// the same dur ms stimulus, and saves the overlaid voltage traces to
// OutDir/<name>.pdf.  Results are in condition order.
func (rn *Runner) Traces(ctx context.Context, conds []Condition, dur float64) ([]*TraceSet, error) {
	if !(dur > 0) {
		return nil, fmt.Errorf("expt: trace duration must be > 0, is %v", dur)
	}
	if len(conds) == 0 {
		return nil, fmt.Errorf("%w: no conditions", ErrCondition)
	}
	seen := make(map[string]bool, len(conds))
	for i := range conds {
		if err := conds[i].Validate(); err != nil {
			return nil, err
		}
		if seen[conds[i].Name] {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrCondition, conds[i].Name)
		}
		seen[conds[i].Name] = true
	}

	sets := make([]*TraceSet, len(conds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rn.workers())
	for i, cd := range conds {
		g.Go(func() error {
			ts, err := rn.traceSet(gctx, cd, dur)
			if err != nil {
				return fmt.Errorf("condition %s: %w", cd.Name, err)
			}
			sets[i] = ts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sets, nil
}

func (rn *Runner) traceSet(ctx context.Context, cd Condition, dur float64) (*TraceSet, error) {
	mc, err := rn.Mixed(cd.Mix)
	if err != nil {
		return nil, err
	}
	wc := rn.Base.Clone()
	ts := &TraceSet{Cond: cd}
	if ts.Mut, err = rn.Record(ctx, mc, cd.Amp, dur); err != nil {
		return nil, err
	}
	if ts.WT, err = rn.Record(ctx, wc, cd.Amp, dur); err != nil {
		return nil, err
	}
	rn.Log.Info("traces recorded", zap.String("cond", cd.Name), zap.Float64("mix", cd.Mix),
		zap.Float64("amp", cd.Amp), zap.Int("spikes_mut", ts.Mut.Spikes), zap.Int("spikes_wt", ts.WT.Spikes))

	ts.Path = filepath.Join(rn.OutDir, cd.Name+".pdf")
	err = plots.Traces(ts.Path, cd.Name,
		plots.Series{Name: MutName, X: ts.Mut.T, Y: ts.Mut.V, Color: plots.Red},
		plots.Series{Name: WTName, X: ts.WT.T, Y: ts.WT.V, Color: plots.Black})
	if err != nil {
		return nil, err
	}
	if rn.DataDir != "" {
		if err := rn.saveTraceCSV(ts); err != nil {
			return nil, err
		}
	}
	return ts, nil
}
