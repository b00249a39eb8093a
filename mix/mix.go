// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package mix splits the Nav1.1 sodium conductance of a cell between the
wild-type (chans.Nav11) and T226M mutant (chans.Nav11m) mechanisms.

For every segment carrying both mechanisms, the total conductance
gNav11 + gNav11m is preserved: the mutant gets frac of it and the
wild-type the rest, and the mutant gating is shifted by Params.
*/
package mix

import (
	"errors"
	"fmt"
	"math"

	"github.com/emer/scn1a/cell"
	"github.com/emer/scn1a/chans"
	"go.uber.org/zap"
)

var (
	// ErrFraction is returned for a mix fraction outside [0,1]
	ErrFraction = errors.New("mix: fraction must be in [0,1]")

	// ErrNoTarget is returned when no segment has both Nav11 and Nav11m
	ErrNoTarget = errors.New("mix: no segment carries both Nav11 and Nav11m")
)

// Params are the T226M gating shifts, as absolute midpoints in mV
type Params struct {
	Mh  float32 `yaml:"mh" def:"-26.6" desc:"activation midpoint"`
	Hh  float32 `yaml:"hh" def:"-60.2" desc:"inactivation midpoint"`
	Tmh float32 `yaml:"tmh" def:"-40" desc:"activation time constant midpoint"`
	Thh float32 `yaml:"thh" def:"-65" desc:"inactivation time constant midpoint"`
}

func (mp *Params) Defaults() {
	mp.Mh = -26.6
	mp.Hh = -60.2
	mp.Tmh = -40
	mp.Thh = -65
}

// Set applies the mutant kinetics to the sodium channel params
func (mp *Params) Set(np *chans.NavParams) {
	np.Mh = mp.Mh
	np.Hh = mp.Hh
	np.Tmh = mp.Tmh
	np.Thh = mp.Thh
}

// Report summarizes one Apply
type Report struct {
	Frac     float64  `desc:"mix fraction applied"`
	Mixed    int      `desc:"number of segments mixed"`
	Segments int      `desc:"total number of segments in the cell"`
	Skipped  []string `desc:"sections with no segment carrying both mechanisms"`
}

// Mixer applies mix fractions to cells
type Mixer struct {
	Params Params
	Log    *zap.Logger
}

// New returns a Mixer with default mutant kinetics.  A nil log discards output.
func New(log *zap.Logger) *Mixer {
	if log == nil {
		log = zap.NewNop()
	}
	mx := &Mixer{Log: log}
	mx.Params.Defaults()
	return mx
}

type pair struct {
	wt, mut *chans.Nav
}

// Apply mixes the cell in place with mutant fraction frac.  The cell is
// not modified when an error is returned.
func (mx *Mixer) Apply(c *cell.Cell, frac float64) (*Report, error) {
	if math.IsNaN(frac) || frac < 0 || frac > 1 {
		return nil, fmt.Errorf("%w: %v", ErrFraction, frac)
	}
	rep := &Report{Frac: frac}
	var pairs []pair
	for _, sc := range c.Secs {
		n := 0
		for _, sg := range sc.Segs {
			rep.Segments++
			wt, ok1 := sg.Mech(chans.Nav11).(*chans.Nav)
			mut, ok2 := sg.Mech(chans.Nav11m).(*chans.Nav)
			if !ok1 || !ok2 {
				continue
			}
			pairs = append(pairs, pair{wt: wt, mut: mut})
			n++
		}
		if n == 0 {
			rep.Skipped = append(rep.Skipped, sc.Name())
			mx.Log.Debug("section not mixed", zap.String("cell", c.Name), zap.String("section", sc.Name()),
				zap.Bool("nav11", sc.Has(chans.Nav11)), zap.Bool("nav11m", sc.Has(chans.Nav11m)))
		}
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: cell %q", ErrNoTarget, c.Name)
	}
	f := float32(frac)
	for _, pr := range pairs {
		if g := pr.mut.Gbar(); g != 0 {
			mx.Log.Debug("mutant already conducting, total exceeds wild-type gbar", zap.String("cell", c.Name),
				zap.Float32("nav11", pr.wt.Gbar()), zap.Float32("nav11m", g))
		}
		tot := pr.wt.Gbar() + pr.mut.Gbar()
		gm := f * tot
		pr.mut.SetGbar(gm)
		pr.wt.SetGbar(tot - gm)
		mx.Params.Set(&pr.mut.Params)
	}
	rep.Mixed = len(pairs)
	mx.Log.Info("mixed Nav1.1", zap.String("cell", c.Name), zap.Float64("frac", frac),
		zap.Int("mixed", rep.Mixed), zap.Int("segments", rep.Segments), zap.Strings("skipped", rep.Skipped))
	return rep, nil
}
