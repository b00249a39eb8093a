// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package chans provides the voltage-gated and passive membrane mechanisms
inserted into the compartments of a cell model: the wild-type Nav1.1 sodium
channel (Nav11), its T226M variant (Nav11m), the fast delayed-rectifier
Kv3 potassium channel, and a passive leak.

Each mechanism kind is a concrete type with explicit conductance accessors
and Hodgkin-Huxley style gating kinetics, in biological units:
mV, ms, S/cm2 and mA/cm2.
*/
package chans

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"
)

// Erev are the reversal potentials (mV) shared by the mechanisms of a cell
type Erev struct {
	Na float32 `yaml:"na" def:"50" desc:"sodium reversal potential"`
	K  float32 `yaml:"k" def:"-90" desc:"potassium reversal potential"`
	L  float32 `yaml:"l" def:"-70" desc:"leak reversal potential -- sets the resting potential"`
}

func (er *Erev) Defaults() {
	er.SetAll(50, -90, -70)
}

// SetAll sets all the values
func (er *Erev) SetAll(na, k, l float32) {
	er.Na, er.K, er.L = na, k, l
}

// Kind enumerates the supported mechanism types
type Kind int32

const (
	// Nav11 is the wild-type Nav1.1 sodium channel
	Nav11 Kind = iota

	// Nav11m is the T226M mutant Nav1.1 sodium channel
	Nav11m

	// Kv3 is the fast delayed-rectifier potassium channel of PV interneurons
	Kv3

	// Leak is the passive leak conductance
	Leak

	KindN
)

var kindNames = [KindN]string{"Nav11", "Nav11m", "Kv3", "Leak"}

func (k Kind) String() string {
	if k < 0 || k >= KindN {
		return fmt.Sprintf("Kind(%d)", int32(k))
	}
	return kindNames[k]
}

// ParseKind returns the Kind with given name (case insensitive)
func ParseKind(s string) (Kind, error) {
	for i, nm := range kindNames {
		if strings.EqualFold(nm, s) {
			return Kind(i), nil
		}
	}
	return KindN, fmt.Errorf("chans: unknown mechanism %q", s)
}

// Mechanism is one membrane mechanism instance in one compartment.
// Gating state is kept outside of the mechanism, in the slice handed
// to InitStates and Derivs, so that the integrator owns all state.
type Mechanism interface {
	// Kind returns the type of this mechanism
	Kind() Kind

	// Gbar returns the maximal conductance (S/cm2)
	Gbar() float32

	// SetGbar sets the maximal conductance (S/cm2)
	SetGbar(g float32)

	// NStates is the number of gating state variables
	NStates() int

	// Tadj returns the rate multiplier for given temperature
	Tadj(celsius float32) float32

	// InitStates sets gating states to their steady-state values at v
	InitStates(v float32, st []float64)

	// Derivs computes the gating state derivatives (1/ms) at v
	Derivs(v, tadj float32, st, dst []float64)

	// Current returns the outward current density (mA/cm2) at v
	Current(v float32, st []float64, erev *Erev) float32

	// Clone returns an independent copy
	Clone() Mechanism
}

// New returns a new mechanism of given kind, with default parameters
func New(k Kind) (Mechanism, error) {
	switch k {
	case Nav11, Nav11m:
		nv := &Nav{kind: k}
		nv.Params.Defaults()
		if k == Nav11m {
			nv.Params.Gbar = 0
		}
		return nv, nil
	case Kv3:
		kv := &Kv{}
		kv.Params.Defaults()
		return kv, nil
	case Leak:
		lk := &Pas{}
		lk.Params.Defaults()
		return lk, nil
	}
	return nil, fmt.Errorf("chans: cannot create mechanism of kind %v", k)
}

// Tadj returns the Q10 temperature adjustment for rates measured at tref
func Tadj(q10, celsius, tref float32) float32 {
	return math32.Pow(q10, (celsius-tref)/10)
}

// boltz is the standard Boltzmann sigmoid, rising with v when k > 0
func boltz(v, vh, k float32) float32 {
	return 1 / (1 + math32.Exp(-(v-vh)/k))
}

// bell is a bell-shaped time constant peaking at min + amp at v = vh
func bell(v, vh, k, min, amp float32) float32 {
	return min + amp/math32.Cosh((v-vh)/k)
}
