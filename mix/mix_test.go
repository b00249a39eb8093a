// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mix

import (
	"fmt"
	"math"
	"testing"

	"github.com/emer/scn1a/cell"
	"github.com/emer/scn1a/chans"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// difTol is the tolerance for conductance sums in S/cm2
const difTol = 1.0e-7

func gbar(sg *cell.Segment, k chans.Kind) float32 {
	if mc := sg.Mech(k); mc != nil {
		return mc.Gbar()
	}
	return -1
}

func TestConservation(t *testing.T) {
	base, err := cell.Default()
	require.NoError(t, err)
	orig := map[*cell.Segment]float32{}
	bsegs := base.Segments()
	for _, sg := range bsegs {
		orig[sg] = gbar(sg, chans.Nav11)
	}

	for _, f := range []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1} {
		c := base.Clone()
		mx := New(zaptest.NewLogger(t))
		rep, err := mx.Apply(c, f)
		require.NoError(t, err)
		assert.Equal(t, 4, rep.Mixed)
		assert.Equal(t, 10, rep.Segments)
		assert.Equal(t, []string{"dend0", "dend1"}, rep.Skipped)

		for i, sg := range c.Segments() {
			if sg.Mech(chans.Nav11m) == nil {
				continue
			}
			wt, mut := gbar(sg, chans.Nav11), gbar(sg, chans.Nav11m)
			tot := orig[bsegs[i]]
			if math.Abs(float64(wt+mut-tot)) > difTol {
				t.Errorf("f=%g %v: wt %g + mut %g != %g", f, sg, wt, mut, tot)
			}
			if math.Abs(float64(mut)-f*float64(tot)) > difTol {
				t.Errorf("f=%g %v: mut %g != f * %g", f, sg, mut, tot)
			}
		}
	}
}

func TestEndpoints(t *testing.T) {
	base, err := cell.Default()
	require.NoError(t, err)

	wt := base.Clone()
	_, err = New(nil).Apply(wt, 0)
	require.NoError(t, err)
	soma := wt.Secs[0].Segs[0]
	assert.InDelta(t, 0, gbar(soma, chans.Nav11m), difTol)
	assert.InDelta(t, 0.2, gbar(soma, chans.Nav11), difTol)

	hom := base.Clone()
	_, err = New(nil).Apply(hom, 1)
	require.NoError(t, err)
	soma = hom.Secs[0].Segs[0]
	assert.InDelta(t, 0, gbar(soma, chans.Nav11), difTol)
	assert.InDelta(t, 0.2, gbar(soma, chans.Nav11m), difTol)
}

func TestKinetics(t *testing.T) {
	c, err := cell.Default()
	require.NoError(t, err)
	mx := New(nil)
	_, err = mx.Apply(c, 0.5)
	require.NoError(t, err)

	ax, _ := c.Section("axon")
	for _, sg := range ax.Segs {
		mut := sg.Mech(chans.Nav11m).(*chans.Nav)
		assert.Equal(t, float32(-26.6), mut.Params.Mh)
		assert.Equal(t, float32(-60.2), mut.Params.Hh)
		assert.Equal(t, float32(-40), mut.Params.Tmh)
		assert.Equal(t, float32(-65), mut.Params.Thh)

		wt := sg.Mech(chans.Nav11).(*chans.Nav)
		def := chans.NavParams{}
		def.Defaults()
		assert.Equal(t, def.Mh, wt.Params.Mh)
		assert.Equal(t, def.Hh, wt.Params.Hh)
	}
}

func TestDendritesUntouched(t *testing.T) {
	c, err := cell.Default()
	require.NoError(t, err)
	d, _ := c.Section("dend0")
	before := fmt.Sprint(gbar(d.Segs[0], chans.Kv3), gbar(d.Segs[0], chans.Leak))
	_, err = New(nil).Apply(c, 0.5)
	require.NoError(t, err)
	assert.Equal(t, before, fmt.Sprint(gbar(d.Segs[0], chans.Kv3), gbar(d.Segs[0], chans.Leak)))
	assert.Nil(t, d.Segs[0].Mech(chans.Nav11))
	assert.Nil(t, d.Segs[0].Mech(chans.Nav11m))
}

func TestErrors(t *testing.T) {
	c, err := cell.Default()
	require.NoError(t, err)
	mx := New(nil)
	for _, f := range []float64{-0.1, 1.01, math.NaN(), math.Inf(1)} {
		_, err := mx.Apply(c, f)
		assert.ErrorIs(t, err, ErrFraction, "f = %v", f)
	}

	// no mutant channel anywhere
	ms := &cell.MorphSpec{Name: "wt-only", Sections: []cell.SectionSpec{{Name: "soma", L: 20, Diam: 20, NSeg: 1}}}
	cs := &cell.ChanSpec{Sheet: []cell.SheetEntry{
		{Sel: "Section", Params: map[string]string{"Section.Leak.Gbar": "0.0001", "Section.Nav11.Gbar": "0.12"}},
	}}
	wo, err := cell.Build(ms, cs)
	require.NoError(t, err)
	_, err = mx.Apply(wo, 0.5)
	assert.ErrorIs(t, err, ErrNoTarget)
	assert.InDelta(t, 0.12, gbar(wo.Secs[0].Segs[0], chans.Nav11), difTol)
}

func TestConductingMutantLogged(t *testing.T) {
	c, err := cell.Default()
	require.NoError(t, err)
	core, logs := observer.New(zapcore.DebugLevel)
	mx := New(zap.New(core))

	_, err = mx.Apply(c, 0.5)
	require.NoError(t, err)
	assert.Zero(t, logs.FilterMessageSnippet("mutant already conducting").Len())

	// a second mix starts from a nonzero mutant gbar, and keeps the total
	soma := c.Secs[0].Segs[0]
	tot := gbar(soma, chans.Nav11) + gbar(soma, chans.Nav11m)
	_, err = mx.Apply(c, 1)
	require.NoError(t, err)
	ents := logs.FilterMessageSnippet("mutant already conducting").All()
	assert.Len(t, ents, 4)
	assert.InDelta(t, tot/2, ents[0].ContextMap()["nav11m"], difTol)
	assert.InDelta(t, tot, gbar(soma, chans.Nav11m), difTol)
}
