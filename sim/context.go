// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package sim runs current-clamp simulations of a cell.Cell.

All simulation state is held in an explicit Context bound to one cell:
stimuli, recording vectors and spike counters are attached to the context,
and are populated by Context.Run, which integrates the cable equation
from a steady-state start to a given stop time.  Membrane potential is in
mV, time in ms, stimulus current in nA.
*/
package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/chewxy/math32"
	"github.com/emer/scn1a/cell"
	"github.com/emer/scn1a/chans"
	"go.uber.org/zap"
)

var (
	// ErrUnstable is returned when the state leaves the physical range
	ErrUnstable = errors.New("sim: numerical instability")

	// ErrStepUnderflow is returned when adaptive steps shrink below MinStep
	ErrStepUnderflow = errors.New("sim: step size underflow")

	// ErrRecordLimit is returned when recordings exceed MaxRecord
	ErrRecordLimit = errors.New("sim: recording exceeds max_record")

	// ErrStop is returned for a non-positive stop time
	ErrStop = errors.New("sim: stop time must be > 0")
)

// VLimit is the largest membrane potential magnitude (mV) accepted as physical
const VLimit = 1e4

// IClampParams specify a current-clamp stimulus
type IClampParams struct {
	Amp   float64 `yaml:"amp" desc:"amplitude in nA"`
	Delay float64 `yaml:"delay" def:"20" desc:"onset time in ms"`
	Dur   float64 `yaml:"dur" desc:"duration in ms"`
}

// On returns true if the stimulus is active at time t
func (ip *IClampParams) On(t float64) bool {
	return t >= ip.Delay && t < ip.Delay+ip.Dur
}

// IClamp is a current clamp attached to one segment
type IClamp struct {
	Params IClampParams
	Seg    *cell.Segment
	si     int
}

// Vector records a variable at every accepted time step
type Vector struct {
	Name string
	Data []float64
	src  int // state index, or -1 for time
}

// Len returns the number of recorded samples
func (vc *Vector) Len() int { return len(vc.Data) }

// APCounter counts upward threshold crossings of the membrane potential
type APCounter struct {
	Seg    *cell.Segment
	Thresh float64   `def:"-20" desc:"threshold in mV"`
	N      int       `desc:"number of crossings in the last run"`
	Times  []float64 `desc:"crossing times in ms, interpolated between steps"`
	si     int
	prev   float64
}

// link is the axial coupling between two segments; ga and gb are the
// conductance divided by each segment area, in S/cm2
type link struct {
	a, b   int
	ga, gb float64
}

// mechRef locates one mechanism's gating states in the state vector
type mechRef struct {
	mc   chans.Mechanism
	seg  int
	off  int
	n    int
	tadj float32
}

// Context is the simulation context for one cell.  It is not safe for
// concurrent use; run separate cells in separate contexts.
type Context struct {
	Params  Params     `desc:"run settings"`
	Cell    *cell.Cell `desc:"the simulated cell -- its structure must not change after NewContext"`
	Log     *zap.Logger
	T       float64 `desc:"current time in ms"`
	Steps   int     `desc:"accepted steps in the last run"`
	Rejects int     `desc:"rejected adaptive steps in the last run"`

	segs     []*cell.Segment
	segIdx   map[*cell.Segment]int
	area     []float64 // cm2
	links    []link
	mechs    []mechRef
	y        []float64
	clamps   []*IClamp
	vecs     []*Vector
	apcs     []*APCounter
	stimT    float64
	recBytes int64
	ws       workspace
}

// NewContext binds a new simulation context to the cell
func NewContext(c *cell.Cell, sp Params, log *zap.Logger) (*Context, error) {
	if err := sp.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	if c.Cm <= 0 || c.Ra <= 0 {
		return nil, fmt.Errorf("sim: cell %q needs positive cm and Ra", c.Name)
	}
	cx := &Context{Params: sp, Cell: c, Log: log}
	cx.segs = c.Segments()
	cx.segIdx = make(map[*cell.Segment]int, len(cx.segs))
	cx.area = make([]float64, len(cx.segs))
	for i, sg := range cx.segs {
		cx.segIdx[sg] = i
		cx.area[i] = float64(sg.Area()) * 1e-8
	}
	off := len(cx.segs)
	for i, sg := range cx.segs {
		for _, mc := range sg.Mechs {
			cx.mechs = append(cx.mechs, mechRef{mc: mc, seg: i, off: off, n: mc.NStates()})
			off += mc.NStates()
		}
	}
	cx.y = make([]float64, off)
	cx.ws.init(off)
	cx.configLinks()
	return cx, nil
}

// halfR returns the axial resistance (ohm) of half of the segment
func (cx *Context) halfR(sg *cell.Segment) float64 {
	r := float64(sg.Sec.Diam) * 0.5e-4 // cm
	l := float64(sg.Len()) * 0.5e-4    // cm
	return float64(cx.Cell.Ra) * l / (math.Pi * r * r)
}

func (cx *Context) addLink(a, b *cell.Segment) {
	g := 1 / (cx.halfR(a) + cx.halfR(b))
	ai, bi := cx.segIdx[a], cx.segIdx[b]
	cx.links = append(cx.links, link{a: ai, b: bi, ga: g / cx.area[ai], gb: g / cx.area[bi]})
}

func (cx *Context) configLinks() {
	for _, sc := range cx.Cell.Secs {
		if sc.Parent != nil {
			cx.addLink(sc.Parent.SegAt(sc.ParentX), sc.Segs[0])
		}
		for i := 1; i < len(sc.Segs); i++ {
			cx.addLink(sc.Segs[i-1], sc.Segs[i])
		}
	}
}

func (cx *Context) segment(sec string, x float32) (*cell.Segment, int, error) {
	sg, err := cx.Cell.Segment(sec, x)
	if err != nil {
		return nil, 0, err
	}
	return sg, cx.segIdx[sg], nil
}

// AddIClamp attaches a current clamp to the segment at x of the named section
func (cx *Context) AddIClamp(sec string, x float32, ip IClampParams) (*IClamp, error) {
	sg, si, err := cx.segment(sec, x)
	if err != nil {
		return nil, err
	}
	if ip.Dur < 0 || ip.Delay < 0 {
		return nil, fmt.Errorf("sim: negative stimulus delay or duration")
	}
	ic := &IClamp{Params: ip, Seg: sg, si: si}
	cx.clamps = append(cx.clamps, ic)
	return ic, nil
}

// RecordTime returns a vector recording time
func (cx *Context) RecordTime() *Vector {
	vc := &Vector{Name: "t", src: -1}
	cx.vecs = append(cx.vecs, vc)
	return vc
}

// RecordV returns a vector recording membrane potential at x of the section
func (cx *Context) RecordV(sec string, x float32) (*Vector, error) {
	sg, si, err := cx.segment(sec, x)
	if err != nil {
		return nil, err
	}
	vc := &Vector{Name: "v_" + sg.String(), src: si}
	cx.vecs = append(cx.vecs, vc)
	return vc, nil
}

// APCount returns a spike counter at x of the section, with given threshold
func (cx *Context) APCount(sec string, x float32, thresh float64) (*APCounter, error) {
	sg, si, err := cx.segment(sec, x)
	if err != nil {
		return nil, err
	}
	ac := &APCounter{Seg: sg, Thresh: thresh, si: si}
	cx.apcs = append(cx.apcs, ac)
	return ac, nil
}

// Vm returns the current membrane potential of a segment
func (cx *Context) Vm(sg *cell.Segment) float64 {
	return cx.y[cx.segIdx[sg]]
}

// derivs computes dy/dt at state y, with stimuli evaluated at stimT
func (cx *Context) derivs(y, dy []float64) {
	ns := len(cx.segs)
	for i := 0; i < ns; i++ {
		dy[i] = 0
	}
	erev := &cx.Cell.Erev
	for _, mr := range cx.mechs {
		v := float32(y[mr.seg])
		st := y[mr.off : mr.off+mr.n]
		dy[mr.seg] -= float64(mr.mc.Current(v, st, erev))
		if mr.n > 0 {
			mr.mc.Derivs(v, mr.tadj, st, dy[mr.off:mr.off+mr.n])
		}
	}
	for _, ln := range cx.links {
		dv := y[ln.b] - y[ln.a]
		dy[ln.a] += ln.ga * dv
		dy[ln.b] -= ln.gb * dv
	}
	for _, ic := range cx.clamps {
		if ic.Params.On(cx.stimT) {
			dy[ic.si] += ic.Params.Amp * 1e-6 / cx.area[ic.si] // nA -> mA/cm2
		}
	}
	sc := 1000 / float64(cx.Cell.Cm) // mA/uF = 1000 mV/ms
	for i := 0; i < ns; i++ {
		dy[i] *= sc
	}
}

// initState sets all segments to VInit with steady-state gating
func (cx *Context) initState() {
	vi := cx.Params.VInit
	for i := range cx.segs {
		cx.y[i] = float64(vi)
	}
	for i := range cx.mechs {
		mr := &cx.mechs[i]
		mr.tadj = mr.mc.Tadj(cx.Params.Celsius)
		mr.mc.InitStates(vi, cx.y[mr.off:mr.off+mr.n])
	}
	cx.T = 0
	cx.Steps = 0
	cx.Rejects = 0
	cx.recBytes = 0
	for _, vc := range cx.vecs {
		vc.Data = vc.Data[:0]
	}
	for _, ac := range cx.apcs {
		ac.N = 0
		ac.Times = ac.Times[:0]
		ac.prev = float64(vi)
	}
}

// physical returns false if any membrane potential is non-finite or out of range
func (cx *Context) physical() bool {
	for i := range cx.segs {
		v := cx.y[i]
		if math.IsNaN(v) || math.Abs(v) > VLimit {
			return false
		}
	}
	for _, v := range cx.y[len(cx.segs):] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// record appends the current state to all vectors
func (cx *Context) record() error {
	for _, vc := range cx.vecs {
		if vc.src < 0 {
			vc.Data = append(vc.Data, cx.T)
		} else {
			vc.Data = append(vc.Data, cx.y[vc.src])
		}
	}
	cx.recBytes += int64(8 * len(cx.vecs))
	if cx.recBytes > int64(cx.Params.MaxRecord.Bytes()) {
		return fmt.Errorf("%w (%s) at t = %.3f ms", ErrRecordLimit, cx.Params.MaxRecord.HR(), cx.T)
	}
	return nil
}

// countSpikes updates the AP counters for a step that started at tprev
func (cx *Context) countSpikes(tprev float64) {
	for _, ac := range cx.apcs {
		v := cx.y[ac.si]
		if ac.prev < ac.Thresh && v >= ac.Thresh {
			tc := tprev + (ac.Thresh-ac.prev)/(v-ac.prev)*(cx.T-tprev)
			ac.N++
			ac.Times = append(ac.Times, tc)
		}
		ac.prev = v
	}
}

// accept finishes an accepted step that started at tprev
func (cx *Context) accept(tprev float64) error {
	cx.Steps++
	if !cx.physical() {
		return fmt.Errorf("%w: membrane potential out of range at t = %.4f ms", ErrUnstable, cx.T)
	}
	cx.countSpikes(tprev)
	return cx.record()
}

// peakV is used for logging: the maximum of a recorded vector
func peakV(vc *Vector) float32 {
	mx := float32(-math32.MaxFloat32)
	for _, v := range vc.Data {
		mx = math32.Max(mx, float32(v))
	}
	return mx
}
