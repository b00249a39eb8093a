// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chans

// KvParams are the Kv3 fast delayed-rectifier potassium channel parameters,
// using n^2 gating.  Kv3 supports the narrow spikes and high firing rates
// of fast-spiking PV interneurons.
type KvParams struct {
	Gbar  float32 `def:"0.15" min:"0" desc:"maximal conductance in S/cm2"`
	Nh    float32 `def:"-10" desc:"half-activation voltage of the n gate"`
	Nk    float32 `def:"9" desc:"slope factor of n gate activation"`
	Tnh   float32 `def:"-10" desc:"voltage at which the n time constant peaks"`
	Tnk   float32 `def:"20" desc:"width of the n time constant bell"`
	TnMin float32 `def:"0.3" desc:"minimum n time constant in ms"`
	TnAmp float32 `def:"2.5" desc:"peak extra n time constant in ms"`
	Q10   float32 `def:"3" desc:"temperature sensitivity of gating rates"`
	Tref  float32 `def:"21" desc:"temperature (C) at which kinetics were measured"`
}

func (kp *KvParams) Defaults() {
	kp.Gbar = 0.15
	kp.Nh = -10
	kp.Nk = 9
	kp.Tnh = -10
	kp.Tnk = 20
	kp.TnMin = 0.3
	kp.TnAmp = 2.5
	kp.Q10 = 3
	kp.Tref = 21
}

// NInf is the steady-state activation
func (kp *KvParams) NInf(v float32) float32 { return boltz(v, kp.Nh, kp.Nk) }

// NTau is the activation time constant in ms at Tref
func (kp *KvParams) NTau(v float32) float32 { return bell(v, kp.Tnh, kp.Tnk, kp.TnMin, kp.TnAmp) }

// Kv is a Kv3 channel instance.  States: n.
type Kv struct {
	Params KvParams
}

func (kv *Kv) Kind() Kind { return Kv3 }

func (kv *Kv) Gbar() float32 { return kv.Params.Gbar }

func (kv *Kv) SetGbar(g float32) { kv.Params.Gbar = g }

func (kv *Kv) NStates() int { return 1 }

func (kv *Kv) Tadj(celsius float32) float32 {
	return Tadj(kv.Params.Q10, celsius, kv.Params.Tref)
}

func (kv *Kv) Clone() Mechanism {
	cp := *kv
	return &cp
}

func (kv *Kv) InitStates(v float32, st []float64) {
	st[0] = float64(kv.Params.NInf(v))
}

func (kv *Kv) Derivs(v, tadj float32, st, dst []float64) {
	n := float32(st[0])
	dst[0] = float64(tadj * (kv.Params.NInf(v) - n) / kv.Params.NTau(v))
}

func (kv *Kv) Current(v float32, st []float64, erev *Erev) float32 {
	n := float32(st[0])
	return kv.Params.Gbar * n * n * (v - erev.K)
}
