// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chans

import (
	"testing"

	"github.com/chewxy/math32"
)

// difTol is the numerical difference tolerance for comparing vs. target values
const difTol = float32(1.0e-6)

func TestKindNames(t *testing.T) {
	for k := Nav11; k < KindN; k++ {
		pk, err := ParseKind(k.String())
		if err != nil || pk != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), pk, err)
		}
	}
	if k, err := ParseKind("nav11M"); err != nil || k != Nav11m {
		t.Errorf("case insensitive parse failed: %v %v", k, err)
	}
	if _, err := ParseKind("Cav2"); err == nil {
		t.Errorf("expected error for unknown kind")
	}
	if s := Kind(42).String(); s != "Kind(42)" {
		t.Errorf("out of range name: %s", s)
	}
}

func TestNavSteadyState(t *testing.T) {
	np := NavParams{}
	np.Defaults()
	if dif := math32.Abs(np.MInf(np.Mh) - 0.5); dif > difTol {
		t.Errorf("MInf at Mh: %v", np.MInf(np.Mh))
	}
	if dif := math32.Abs(np.HInf(np.Hh) - 0.5); dif > difTol {
		t.Errorf("HInf at Hh: %v", np.HInf(np.Hh))
	}
	prvm, prvh := float32(0), float32(1)
	for v := float32(-100); v <= 40; v += 5 {
		m, h := np.MInf(v), np.HInf(v)
		if m < prvm {
			t.Errorf("MInf not increasing at v: %v", v)
		}
		if h > prvh {
			t.Errorf("HInf not decreasing at v: %v", v)
		}
		prvm, prvh = m, h
	}
	if tau := np.MTau(np.Tmh); math32.Abs(tau-(np.TmMin+np.TmAmp)) > difTol {
		t.Errorf("MTau peak: %v", tau)
	}
	if tau := np.HTau(np.Thh); math32.Abs(tau-(np.ThMin+np.ThAmp)) > difTol {
		t.Errorf("HTau peak: %v", tau)
	}
}

func TestNavInitIsFixedPoint(t *testing.T) {
	mc, err := New(Nav11)
	if err != nil {
		t.Fatal(err)
	}
	st := make([]float64, mc.NStates())
	dst := make([]float64, mc.NStates())
	for _, v := range []float32{-80, -70, -40, 0} {
		mc.InitStates(v, st)
		mc.Derivs(v, 1, st, dst)
		for i := range dst {
			if math32.Abs(float32(dst[i])) > difTol {
				t.Errorf("v: %v state %d not at rest: deriv %v", v, i, dst[i])
			}
		}
	}
}

func TestCurrents(t *testing.T) {
	var erev Erev
	erev.Defaults()

	lk, _ := New(Leak)
	if i := lk.Current(erev.L, nil, &erev); i != 0 {
		t.Errorf("leak current at Erev.L: %v", i)
	}
	if i := lk.Current(erev.L+10, nil, &erev); math32.Abs(i-0.001) > difTol {
		t.Errorf("leak current 10mV above rest: %v", i)
	}

	kv, _ := New(Kv3)
	st := []float64{0.5}
	if i := kv.Current(0, st, &erev); i <= 0 {
		t.Errorf("K current should be outward at 0 mV: %v", i)
	}

	nv, _ := New(Nav11)
	nst := []float64{0.5, 0.5}
	if i := nv.Current(0, nst, &erev); i >= 0 {
		t.Errorf("Na current should be inward at 0 mV: %v", i)
	}
	if i := nv.Current(erev.Na, nst, &erev); i != 0 {
		t.Errorf("Na current at Erev.Na: %v", i)
	}
}

func TestMutantStartsClosed(t *testing.T) {
	mc, _ := New(Nav11m)
	if mc.Kind() != Nav11m || mc.Gbar() != 0 {
		t.Errorf("mutant defaults: kind %v gbar %v", mc.Kind(), mc.Gbar())
	}
	wt, _ := New(Nav11)
	cp := wt.Clone()
	cp.SetGbar(0.5)
	if wt.Gbar() == cp.Gbar() {
		t.Errorf("clone shares conductance with original")
	}
}

func TestTadj(t *testing.T) {
	if ta := Tadj(3, 21, 21); ta != 1 {
		t.Errorf("Tadj at Tref: %v", ta)
	}
	if ta := Tadj(3, 31, 21); math32.Abs(ta-3) > difTol {
		t.Errorf("Tadj 10 degrees above: %v", ta)
	}
	lk, _ := New(Leak)
	if ta := lk.Tadj(37); ta != 1 {
		t.Errorf("leak Tadj: %v", ta)
	}
}
