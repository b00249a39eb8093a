// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package cell holds a compartmental cell model: a tree of sections, each
discretized into segments (compartments) that carry their own membrane
mechanisms from package chans.

A Cell is built from a morphology description and a channel-model
definition (see Load), and is otherwise plain data: simulation state
lives in a sim.Context, so one Cell can be cloned and reused freely.
*/
package cell

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/chewxy/math32"
	"github.com/emer/scn1a/chans"
)

var (
	// ErrNoSection is returned when a named section does not exist
	ErrNoSection = errors.New("cell: no such section")

	// ErrTopology is returned for malformed section trees
	ErrTopology = errors.New("cell: invalid section tree")

	// ErrGeometry is returned for non-positive lengths, diameters or nseg
	ErrGeometry = errors.New("cell: invalid section geometry")
)

// Cell is a compartmental neuron model
type Cell struct {
	Name string     `desc:"name of the cell, from the morphology file"`
	Ra   float32    `def:"150" desc:"axial resistivity in ohm cm"`
	Cm   float32    `def:"1" desc:"specific membrane capacitance in uF/cm2"`
	Erev chans.Erev `desc:"reversal potentials"`
	Secs []*Section `desc:"sections, with every parent before its children"`

	secMap map[string]*Section
}

// Section is an unbranched cable of the cell
type Section struct {
	Nm      string     `desc:"unique section name"`
	L       float32    `desc:"length in um"`
	Diam    float32    `desc:"diameter in um"`
	Lists   []string   `desc:"names of the section lists this section belongs to (all sections are in 'all')"`
	Parent  *Section   `desc:"parent section, nil for the root"`
	ParentX float32    `desc:"position along the parent (0..1) where this section attaches"`
	Segs    []*Segment `desc:"segments, from 0 end to 1 end"`
}

// Segment is one compartment of a section
type Segment struct {
	Sec   *Section          `desc:"owning section"`
	Idx   int               `desc:"index within the section"`
	Mechs []chans.Mechanism `desc:"inserted mechanisms, at most one of each kind"`
}

// TypeName is the param sheet type selector for sections
func (sc *Section) TypeName() string { return "Section" }

// Class returns the section lists, which param sheets select as .list
func (sc *Section) Class() string { return strings.Join(sc.Lists, " ") }

// Name returns the section name, selected as #name in param sheets
func (sc *Section) Name() string { return sc.Nm }

// NSeg returns the number of segments
func (sc *Section) NSeg() int { return len(sc.Segs) }

// SegAt returns the segment containing position x in [0,1]
func (sc *Section) SegAt(x float32) *Segment {
	n := len(sc.Segs)
	i := int(x * float32(n))
	if i < 0 {
		i = 0
	}
	if i >= n {
		i = n - 1
	}
	return sc.Segs[i]
}

// InList returns true if the section belongs to given list
func (sc *Section) InList(list string) bool {
	return list == "all" || slices.Contains(sc.Lists, list)
}

// Has returns true if any segment of the section carries a mechanism of kind k
func (sc *Section) Has(k chans.Kind) bool {
	for _, sg := range sc.Segs {
		if sg.Mech(k) != nil {
			return true
		}
	}
	return false
}

// X returns the position of the segment center along its section
func (sg *Segment) X() float32 {
	return (float32(sg.Idx) + 0.5) / float32(len(sg.Sec.Segs))
}

// Len returns the segment length in um
func (sg *Segment) Len() float32 {
	return sg.Sec.L / float32(len(sg.Sec.Segs))
}

// Area returns the lateral membrane area in um^2
func (sg *Segment) Area() float32 {
	return math32.Pi * sg.Sec.Diam * sg.Len()
}

// Mech returns the mechanism of given kind, or nil if not inserted
func (sg *Segment) Mech(k chans.Kind) chans.Mechanism {
	for _, mc := range sg.Mechs {
		if mc.Kind() == k {
			return mc
		}
	}
	return nil
}

// Insert returns the mechanism of given kind, creating it with default
// parameters if not already present
func (sg *Segment) Insert(k chans.Kind) (chans.Mechanism, error) {
	if mc := sg.Mech(k); mc != nil {
		return mc, nil
	}
	mc, err := chans.New(k)
	if err != nil {
		return nil, err
	}
	sg.Mechs = append(sg.Mechs, mc)
	slices.SortFunc(sg.Mechs, func(a, b chans.Mechanism) int { return int(a.Kind() - b.Kind()) })
	return mc, nil
}

// String returns the NEURON-style name, e.g. soma(0.5)
func (sg *Segment) String() string {
	return fmt.Sprintf("%s(%.3g)", sg.Sec.Nm, sg.X())
}

// Section returns the section of given name
func (c *Cell) Section(name string) (*Section, error) {
	sc, ok := c.secMap[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoSection, name)
	}
	return sc, nil
}

// Segment returns the segment at position x of the named section
func (c *Cell) Segment(name string, x float32) (*Segment, error) {
	sc, err := c.Section(name)
	if err != nil {
		return nil, err
	}
	return sc.SegAt(x), nil
}

// Segments returns all segments, section by section
func (c *Cell) Segments() []*Segment {
	var segs []*Segment
	for _, sc := range c.Secs {
		segs = append(segs, sc.Segs...)
	}
	return segs
}

// Area returns the total membrane area in um^2
func (c *Cell) Area() float32 {
	a := float32(0)
	for _, sg := range c.Segments() {
		a += sg.Area()
	}
	return a
}

// Clone returns a deep copy, with independent mechanism parameters
func (c *Cell) Clone() *Cell {
	nc := &Cell{Name: c.Name, Ra: c.Ra, Cm: c.Cm, Erev: c.Erev}
	nc.secMap = make(map[string]*Section, len(c.Secs))
	for _, sc := range c.Secs {
		ns := &Section{Nm: sc.Nm, L: sc.L, Diam: sc.Diam, ParentX: sc.ParentX}
		ns.Lists = slices.Clone(sc.Lists)
		if sc.Parent != nil {
			ns.Parent = nc.secMap[sc.Parent.Nm]
		}
		ns.Segs = make([]*Segment, len(sc.Segs))
		for i, sg := range sc.Segs {
			nsg := &Segment{Sec: ns, Idx: i, Mechs: make([]chans.Mechanism, len(sg.Mechs))}
			for j, mc := range sg.Mechs {
				nsg.Mechs[j] = mc.Clone()
			}
			ns.Segs[i] = nsg
		}
		nc.Secs = append(nc.Secs, ns)
		nc.secMap[ns.Nm] = ns
	}
	return nc
}
