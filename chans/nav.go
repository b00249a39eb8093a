// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chans

// NavParams are the Nav1.1 sodium channel parameters, using m^3 h gating.
// The same parameterization serves the wild-type and mutant variants,
// which differ only in their gating midpoints.
type NavParams struct {
	Gbar  float32 `def:"0.2" min:"0" desc:"maximal conductance in S/cm2"`
	Mh    float32 `def:"-22" desc:"half-activation voltage of the m gate"`
	Mk    float32 `def:"10" desc:"slope factor of m gate activation"`
	Hh    float32 `def:"-52" desc:"half-inactivation voltage of the h gate"`
	Hk    float32 `def:"8" desc:"slope factor of h gate inactivation"`
	Tmh   float32 `def:"-38" desc:"voltage at which the m time constant peaks"`
	Tmk   float32 `def:"15" desc:"width of the m time constant bell"`
	TmMin float32 `def:"0.1" desc:"minimum m time constant in ms"`
	TmAmp float32 `def:"0.2" desc:"peak extra m time constant in ms"`
	Thh   float32 `def:"-62" desc:"voltage at which the h time constant peaks"`
	Thk   float32 `def:"12" desc:"width of the h time constant bell"`
	ThMin float32 `def:"0.25" desc:"minimum h time constant in ms"`
	ThAmp float32 `def:"6" desc:"peak extra h time constant in ms"`
	Q10   float32 `def:"3" desc:"temperature sensitivity of gating rates"`
	Tref  float32 `def:"21" desc:"temperature (C) at which kinetics were measured"`
}

func (np *NavParams) Defaults() {
	np.Gbar = 0.2
	np.Mh = -22
	np.Mk = 10
	np.Hh = -52
	np.Hk = 8
	np.Tmh = -38
	np.Tmk = 15
	np.TmMin = 0.1
	np.TmAmp = 0.2
	np.Thh = -62
	np.Thk = 12
	np.ThMin = 0.25
	np.ThAmp = 6
	np.Q10 = 3
	np.Tref = 21
}

// MInf is the steady-state activation
func (np *NavParams) MInf(v float32) float32 { return boltz(v, np.Mh, np.Mk) }

// HInf is the steady-state inactivation
func (np *NavParams) HInf(v float32) float32 { return boltz(v, np.Hh, -np.Hk) }

// MTau is the activation time constant in ms at Tref
func (np *NavParams) MTau(v float32) float32 { return bell(v, np.Tmh, np.Tmk, np.TmMin, np.TmAmp) }

// HTau is the inactivation time constant in ms at Tref
func (np *NavParams) HTau(v float32) float32 { return bell(v, np.Thh, np.Thk, np.ThMin, np.ThAmp) }

// Nav is a Nav1.1 sodium channel instance, either Nav11 or Nav11m.
// States: m, h.
type Nav struct {
	Params NavParams
	kind   Kind
}

func (nv *Nav) Kind() Kind { return nv.kind }

func (nv *Nav) Gbar() float32 { return nv.Params.Gbar }

func (nv *Nav) SetGbar(g float32) { nv.Params.Gbar = g }

func (nv *Nav) NStates() int { return 2 }

func (nv *Nav) Tadj(celsius float32) float32 {
	return Tadj(nv.Params.Q10, celsius, nv.Params.Tref)
}

func (nv *Nav) Clone() Mechanism {
	cp := *nv
	return &cp
}

func (nv *Nav) InitStates(v float32, st []float64) {
	st[0] = float64(nv.Params.MInf(v))
	st[1] = float64(nv.Params.HInf(v))
}

func (nv *Nav) Derivs(v, tadj float32, st, dst []float64) {
	np := &nv.Params
	m, h := float32(st[0]), float32(st[1])
	dst[0] = float64(tadj * (np.MInf(v) - m) / np.MTau(v))
	dst[1] = float64(tadj * (np.HInf(v) - h) / np.HTau(v))
}

func (nv *Nav) Current(v float32, st []float64, erev *Erev) float32 {
	m, h := float32(st[0]), float32(st[1])
	return nv.Params.Gbar * m * m * m * h * (v - erev.Na)
}
