// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"context"
	"math"
	"slices"
	"testing"

	"github.com/c2h5oh/datasize"
	"github.com/emer/scn1a/cell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// ballCell is a single passive compartment, 20 um x 20 um
func ballCell(t *testing.T) *cell.Cell {
	ms := &cell.MorphSpec{Name: "ball", Sections: []cell.SectionSpec{
		{Name: "soma", L: 20, Diam: 20, NSeg: 1},
	}}
	cs := &cell.ChanSpec{Sheet: []cell.SheetEntry{
		{Sel: "Section", Params: map[string]string{"Section.Leak.Gbar": "0.0001"}},
	}}
	c, err := cell.Build(ms, cs)
	require.NoError(t, err)
	return c
}

func defParams(mode Mode) Params {
	sp := Params{}
	sp.Defaults()
	sp.Mode = mode
	return sp
}

func TestPassiveDecay(t *testing.T) {
	// V(t) = El + (V0 - El) exp(-t / tau), tau = cm / (1000 gl) = 10 ms
	want := -70 + 10*math.Exp(-2)
	for _, mode := range []Mode{Adaptive, Fixed} {
		t.Run(mode.String(), func(t *testing.T) {
			sp := defParams(mode)
			sp.VInit = -60
			cx, err := NewContext(ballCell(t), sp, zaptest.NewLogger(t))
			require.NoError(t, err)
			tv := cx.RecordTime()
			vv, err := cx.RecordV("soma", 0.5)
			require.NoError(t, err)

			require.NoError(t, cx.Run(context.Background(), 20))
			require.Equal(t, tv.Len(), vv.Len())
			assert.Equal(t, 0.0, tv.Data[0])
			assert.Equal(t, -60.0, vv.Data[0])
			assert.Equal(t, 20.0, tv.Data[tv.Len()-1])
			assert.InDelta(t, want, vv.Data[vv.Len()-1], 1e-3)
			assert.True(t, slices.IsSorted(tv.Data))
		})
	}
}

func TestStepResponse(t *testing.T) {
	c := ballCell(t)
	area := float64(c.Secs[0].Segs[0].Area()) * 1e-8
	amp := 0.01
	dv := amp * 1e-6 / area / 1e-4 // steady-state depolarization in mV
	want := -70 + dv*(1-math.Exp(-10))

	for _, mode := range []Mode{Adaptive, Fixed} {
		t.Run(mode.String(), func(t *testing.T) {
			cx, err := NewContext(c, defParams(mode), nil)
			require.NoError(t, err)
			_, err = cx.AddIClamp("soma", 0.5, IClampParams{Amp: amp, Delay: 5, Dur: 1000})
			require.NoError(t, err)
			tv := cx.RecordTime()
			vv, _ := cx.RecordV("soma", 0.5)

			require.NoError(t, cx.Run(context.Background(), 105))
			i := slices.Index(tv.Data, 5.0)
			require.GreaterOrEqual(t, i, 0, "no step ends at stimulus onset")
			assert.InDelta(t, -70, vv.Data[i], 1e-9)
			assert.InDelta(t, want, vv.Data[vv.Len()-1], 1e-2)
		})
	}
}

func TestRestingPVCellIsSilent(t *testing.T) {
	c, err := cell.Default()
	require.NoError(t, err)
	for _, mode := range []Mode{Adaptive, Fixed} {
		cx, err := NewContext(c, defParams(mode), nil)
		require.NoError(t, err)
		_, err = cx.AddIClamp("soma", 0.5, IClampParams{Amp: 0, Delay: 20, Dur: 100})
		require.NoError(t, err)
		vv, _ := cx.RecordV("soma", 0.5)
		ac, err := cx.APCount("soma", 0.5, -20)
		require.NoError(t, err)

		require.NoError(t, cx.Run(context.Background(), 140))
		assert.Zero(t, ac.N, mode.String())
		for _, v := range vv.Data {
			require.InDelta(t, -70, v, 2, mode.String())
		}
	}
}

func TestPVCellSpikes(t *testing.T) {
	c, err := cell.Default()
	require.NoError(t, err)
	for _, amp := range []float64{0.3, 0.175} {
		cx, err := NewContext(c, defParams(Adaptive), zaptest.NewLogger(t))
		require.NoError(t, err)
		_, err = cx.AddIClamp("soma", 0.5, IClampParams{Amp: amp, Delay: 20, Dur: 180})
		require.NoError(t, err)
		ac, _ := cx.APCount("soma", 0.5, -20)

		require.NoError(t, cx.Run(context.Background(), 200))
		require.GreaterOrEqual(t, ac.N, 20, "amp %v", amp)
		require.Len(t, ac.Times, ac.N)
		assert.Greater(t, ac.Times[0], 20.0)
		assert.Greater(t, ac.Times[ac.N-1], 150.0, "amp %v: firing stops early", amp)
		assert.True(t, slices.IsSorted(ac.Times))

		// a second run starts from scratch
		n := ac.N
		require.NoError(t, cx.Run(context.Background(), 200))
		assert.Equal(t, n, ac.N)
	}

	cx, err := NewContext(c, defParams(Fixed), nil)
	require.NoError(t, err)
	_, err = cx.AddIClamp("soma", 0.5, IClampParams{Amp: 0.3, Delay: 20, Dur: 80})
	require.NoError(t, err)
	ac, _ := cx.APCount("soma", 0.5, -20)
	require.NoError(t, cx.Run(context.Background(), 100))
	assert.GreaterOrEqual(t, ac.N, 10)
}

func TestCountSpikes(t *testing.T) {
	cx, err := NewContext(ballCell(t), defParams(Adaptive), nil)
	require.NoError(t, err)
	ac, _ := cx.APCount("soma", 0.5, -20)
	cx.initState()
	ac.prev = -30
	cx.y[0] = -10
	cx.T = 1
	cx.countSpikes(0)
	assert.Equal(t, 1, ac.N)
	assert.InDelta(t, 0.5, ac.Times[0], 1e-12)

	// staying above threshold is not a new spike
	cx.y[0] = 5
	cx.T = 2
	cx.countSpikes(1)
	assert.Equal(t, 1, ac.N)
}

func TestRunErrors(t *testing.T) {
	c, err := cell.Default()
	require.NoError(t, err)
	stim := IClampParams{Amp: 0.3, Delay: 5, Dur: 100}

	t.Run("stop", func(t *testing.T) {
		cx, _ := NewContext(c, defParams(Adaptive), nil)
		assert.ErrorIs(t, cx.Run(context.Background(), 0), ErrStop)
		assert.ErrorIs(t, cx.Run(context.Background(), math.NaN()), ErrStop)
	})

	t.Run("unstable", func(t *testing.T) {
		sp := defParams(Fixed)
		sp.Dt = 5
		cx, _ := NewContext(c, sp, nil)
		_, err := cx.AddIClamp("soma", 0.5, stim)
		require.NoError(t, err)
		assert.ErrorIs(t, cx.Run(context.Background(), 100), ErrUnstable)
	})

	t.Run("underflow", func(t *testing.T) {
		sp := defParams(Adaptive)
		sp.MinStep = 0.4
		sp.MaxStep = 0.5
		cx, _ := NewContext(c, sp, nil)
		_, err := cx.AddIClamp("soma", 0.5, stim)
		require.NoError(t, err)
		assert.ErrorIs(t, cx.Run(context.Background(), 100), ErrStepUnderflow)
	})

	t.Run("record limit", func(t *testing.T) {
		sp := defParams(Fixed)
		sp.MaxRecord = 1 * datasize.KB
		cx, _ := NewContext(c, sp, nil)
		cx.RecordTime()
		assert.ErrorIs(t, cx.Run(context.Background(), 10), ErrRecordLimit)
	})

	t.Run("canceled", func(t *testing.T) {
		cx, _ := NewContext(c, defParams(Adaptive), nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, cx.Run(ctx, 10), context.Canceled)
	})

	t.Run("no section", func(t *testing.T) {
		cx, _ := NewContext(c, defParams(Adaptive), nil)
		_, err := cx.AddIClamp("apical", 0.5, stim)
		assert.ErrorIs(t, err, cell.ErrNoSection)
		_, err = cx.AddIClamp("soma", 0.5, IClampParams{Amp: 1, Delay: -1, Dur: 1})
		assert.Error(t, err)
	})
}

func TestBreakpoints(t *testing.T) {
	cx, err := NewContext(ballCell(t), defParams(Adaptive), nil)
	require.NoError(t, err)
	cx.AddIClamp("soma", 0.5, IClampParams{Amp: 1, Delay: 20, Dur: 180})
	cx.AddIClamp("soma", 0.5, IClampParams{Amp: 1, Delay: 20, Dur: 500})
	cx.AddIClamp("soma", 0.5, IClampParams{Amp: 1, Delay: 0, Dur: 10})
	assert.Equal(t, []float64{10, 20, 200}, cx.breakpoints(200))
}

func TestParams(t *testing.T) {
	sp := Params{}
	sp.Defaults()
	require.NoError(t, sp.Validate())
	assert.Equal(t, float32(24), sp.Celsius)
	assert.Equal(t, 64*datasize.MB, sp.MaxRecord)

	bad := sp
	bad.Mode = Fixed
	bad.Dt = 0
	assert.Error(t, bad.Validate())

	bad = sp
	bad.MinStep = 1
	assert.Error(t, bad.Validate())

	bad = sp
	bad.RTol = 0
	assert.Error(t, bad.Validate())

	_, err := NewContext(ballCell(t), bad, nil)
	assert.Error(t, err)

	var md Mode
	require.NoError(t, md.UnmarshalText([]byte("Fixed")))
	assert.Equal(t, Fixed, md)
	assert.Error(t, md.UnmarshalText([]byte("cvode")))
	b, _ := Adaptive.MarshalText()
	assert.Equal(t, "adaptive", string(b))
}
