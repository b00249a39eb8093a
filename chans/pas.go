// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chans

// PasParams are the passive leak parameters
type PasParams struct {
	Gbar float32 `def:"0.0001" min:"0" desc:"leak conductance in S/cm2 -- with Erev.L determines the resting potential and input resistance"`
}

func (pp *PasParams) Defaults() {
	pp.Gbar = 0.0001
}

// Pas is a passive leak instance, with no gating states
type Pas struct {
	Params PasParams
}

func (lk *Pas) Kind() Kind { return Leak }

func (lk *Pas) Gbar() float32 { return lk.Params.Gbar }

func (lk *Pas) SetGbar(g float32) { lk.Params.Gbar = g }

func (lk *Pas) NStates() int { return 0 }

func (lk *Pas) Tadj(celsius float32) float32 { return 1 }

func (lk *Pas) Clone() Mechanism {
	cp := *lk
	return &cp
}

func (lk *Pas) InitStates(v float32, st []float64) {}

func (lk *Pas) Derivs(v, tadj float32, st, dst []float64) {}

func (lk *Pas) Current(v float32, st []float64, erev *Erev) float32 {
	return lk.Params.Gbar * (v - erev.L)
}
