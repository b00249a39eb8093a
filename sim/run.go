// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/c2h5oh/datasize"
	"go.uber.org/zap"
)

// Run initializes the state and integrates to tstop (ms), blocking until
// done.  Steps end exactly on stimulus onsets and offsets.  Recording
// vectors and spike counters hold the results on return; on error they
// hold the data up to the failure and must not be used as a full run.
func (cx *Context) Run(ctx context.Context, tstop float64) error {
	if !(tstop > 0) || math.IsInf(tstop, 0) {
		return fmt.Errorf("%w: %v", ErrStop, tstop)
	}
	if err := cx.Params.Validate(); err != nil {
		return err
	}
	st := time.Now()
	cx.initState()
	if err := cx.record(); err != nil {
		return err
	}
	brks := cx.breakpoints(tstop)
	var err error
	switch cx.Params.Mode {
	case Adaptive:
		err = cx.runAdaptive(ctx, brks)
	case Fixed:
		err = cx.runFixed(ctx, brks)
	}
	if err != nil {
		return err
	}
	fields := []zap.Field{
		zap.String("cell", cx.Cell.Name),
		zap.Stringer("mode", cx.Params.Mode),
		zap.Float64("tstop", tstop),
		zap.Int("steps", cx.Steps),
		zap.Int("rejected", cx.Rejects),
		zap.String("recorded", datasize.ByteSize(cx.recBytes).HR()),
		zap.Duration("elapsed", time.Since(st)),
	}
	for _, ac := range cx.apcs {
		fields = append(fields, zap.Int("spikes_"+ac.Seg.String(), ac.N))
	}
	for _, vc := range cx.vecs {
		if vc.src >= 0 {
			fields = append(fields, zap.Float32("peak_"+vc.Name, peakV(vc)))
		}
	}
	cx.Log.Debug("run complete", fields...)
	return nil
}

// breakpoints returns the sorted times in (0, tstop] at which steps must end
func (cx *Context) breakpoints(tstop float64) []float64 {
	brks := []float64{tstop}
	for _, ic := range cx.clamps {
		for _, t := range []float64{ic.Params.Delay, ic.Params.Delay + ic.Params.Dur} {
			if t > 0 && t < tstop {
				brks = append(brks, t)
			}
		}
	}
	sort.Float64s(brks)
	uniq := brks[:1]
	for _, t := range brks[1:] {
		if t > uniq[len(uniq)-1] {
			uniq = append(uniq, t)
		}
	}
	return uniq
}

func (cx *Context) runAdaptive(ctx context.Context, brks []float64) error {
	sp := &cx.Params
	h := math.Min(sp.MaxStep, 0.01)
	for _, tb := range brks {
		for cx.T < tb {
			if err := ctx.Err(); err != nil {
				return err
			}
			hs, land := h, false
			if rem := tb - cx.T; rem <= h*(1+1e-9) {
				hs, land = rem, true
			}
			cx.stimT = cx.T
			errn := cx.dopri(hs)
			if math.IsNaN(errn) || math.IsInf(errn, 0) || errn > 1 {
				cx.Rejects++
				if math.IsNaN(errn) || math.IsInf(errn, 0) {
					h = hs * 0.1
				} else {
					h = hs * stepFactor(errn)
				}
				if h < sp.MinStep {
					return fmt.Errorf("%w: h = %g ms at t = %.4f ms", ErrStepUnderflow, h, cx.T)
				}
				continue
			}
			tprev := cx.T
			copy(cx.y, cx.ws.ynew)
			if land {
				cx.T = tb
			} else {
				cx.T += hs
			}
			if err := cx.accept(tprev); err != nil {
				return err
			}
			if !land || hs >= h {
				h = math.Min(hs*stepFactor(errn), sp.MaxStep)
			}
		}
	}
	return nil
}

func (cx *Context) runFixed(ctx context.Context, brks []float64) error {
	dt := cx.Params.Dt
	for _, tb := range brks {
		for cx.T < tb {
			if err := ctx.Err(); err != nil {
				return err
			}
			h, land := dt, false
			if rem := tb - cx.T; rem <= dt*(1+1e-6) {
				h, land = rem, true
			}
			cx.stimT = cx.T
			cx.rk4(h)
			tprev := cx.T
			copy(cx.y, cx.ws.ynew)
			if land {
				cx.T = tb
			} else {
				cx.T += h
			}
			if err := cx.accept(tprev); err != nil {
				return err
			}
		}
	}
	return nil
}
