// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Dormand-Prince 5(4) tableau.  dpA[s] are the coefficients for stage s+1;
// the last row is also the 5th order solution.
var dpA = [6][]float64{
	{1.0 / 5},
	{3.0 / 40, 9.0 / 40},
	{44.0 / 45, -56.0 / 15, 32.0 / 9},
	{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
	{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
	{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
}

// dpE is the difference between the 5th and embedded 4th order weights
var dpE = [7]float64{71.0 / 57600, 0, -71.0 / 16695, 71.0 / 1920, -17253.0 / 339200, 22.0 / 525, -1.0 / 40}

// workspace holds the integrator scratch vectors
type workspace struct {
	k    [7][]float64
	tmp  []float64
	ynew []float64
	errv []float64
}

func (ws *workspace) init(n int) {
	for i := range ws.k {
		ws.k[i] = make([]float64, n)
	}
	ws.tmp = make([]float64, n)
	ws.ynew = make([]float64, n)
	ws.errv = make([]float64, n)
}

// combine sets dst = y + h * sum_j a[j] * k[j]
func (ws *workspace) combine(dst, y []float64, h float64, a []float64) {
	copy(dst, y)
	for j, aj := range a {
		if aj != 0 {
			floats.AddScaled(dst, h*aj, ws.k[j])
		}
	}
}

// dopri takes one Dormand-Prince step of size h from cx.y into ws.ynew,
// returning the RMS of the local error scaled by the tolerances.
// A non-finite return means the trial step blew up.
func (cx *Context) dopri(h float64) float64 {
	ws := &cx.ws
	y := cx.y
	cx.derivs(y, ws.k[0])
	for s := 0; s < 5; s++ {
		ws.combine(ws.tmp, y, h, dpA[s])
		cx.derivs(ws.tmp, ws.k[s+1])
	}
	ws.combine(ws.ynew, y, h, dpA[5])
	cx.derivs(ws.ynew, ws.k[6])

	for i := range ws.errv {
		ws.errv[i] = 0
	}
	for j, ej := range dpE {
		if ej != 0 {
			floats.AddScaled(ws.errv, h*ej, ws.k[j])
		}
	}
	rtol, atol := cx.Params.RTol, cx.Params.ATol
	sum := 0.0
	for i, e := range ws.errv {
		sc := atol + rtol*math.Max(math.Abs(y[i]), math.Abs(ws.ynew[i]))
		r := e / sc
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(ws.errv)))
}

// rk4 takes one classical Runge-Kutta step of size h from cx.y into ws.ynew
func (cx *Context) rk4(h float64) {
	ws := &cx.ws
	y := cx.y
	k := &ws.k
	cx.derivs(y, k[0])
	floats.AddScaledTo(ws.tmp, y, h/2, k[0])
	cx.derivs(ws.tmp, k[1])
	floats.AddScaledTo(ws.tmp, y, h/2, k[1])
	cx.derivs(ws.tmp, k[2])
	floats.AddScaledTo(ws.tmp, y, h, k[2])
	cx.derivs(ws.tmp, k[3])

	copy(ws.ynew, y)
	floats.AddScaled(ws.ynew, h/6, k[0])
	floats.AddScaled(ws.ynew, h/3, k[1])
	floats.AddScaled(ws.ynew, h/3, k[2])
	floats.AddScaled(ws.ynew, h/6, k[3])
}

// stepFactor is the adaptive step size multiplier for a given error norm
func stepFactor(errn float64) float64 {
	if errn == 0 {
		return 5
	}
	return math.Min(5, math.Max(0.2, 0.9*math.Pow(errn, -0.2)))
}
