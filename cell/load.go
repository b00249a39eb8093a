// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cell

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"os"

	"github.com/emer/scn1a/chans"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var content embed.FS

// default embedded model files
const (
	DefaultMorph = "data/pv_morph.yaml"
	DefaultChans = "data/pv_chans.yaml"
)

// MorphSpec is the morphology file format
type MorphSpec struct {
	Name     string        `yaml:"name"`
	Sections []SectionSpec `yaml:"sections"`
}

// SectionSpec describes one section in a morphology file
type SectionSpec struct {
	Name    string   `yaml:"name"`
	Parent  string   `yaml:"parent"`
	ParentX *float32 `yaml:"parent_x"`
	L       float32  `yaml:"L"`
	Diam    float32  `yaml:"diam"`
	NSeg    int      `yaml:"nseg"`
	Lists   []string `yaml:"lists"`
}

// ChanSpec is the channel-model file format
type ChanSpec struct {
	Ra    float32      `yaml:"ra"`
	Cm    float32      `yaml:"cm"`
	Erev  *chans.Erev  `yaml:"erev"`
	Sheet []SheetEntry `yaml:"sheet"`
}

// SheetEntry is one selector of the channel-model param sheet, see ParamSheet
type SheetEntry struct {
	Sel    string            `yaml:"sel"`
	Desc   string            `yaml:"desc"`
	Params map[string]string `yaml:"params"`
}

// Default returns the embedded PV cell model
func Default() (*Cell, error) {
	return Load("", "")
}

// Load reads the morphology and channel-model files and builds the cell.
// An empty path selects the embedded PV default for that file.
func Load(morphPath, chanPath string) (*Cell, error) {
	mb, err := readFile(morphPath, DefaultMorph)
	if err != nil {
		return nil, err
	}
	cb, err := readFile(chanPath, DefaultChans)
	if err != nil {
		return nil, err
	}
	ms, err := ReadMorph(bytes.NewReader(mb))
	if err != nil {
		return nil, fmt.Errorf("morphology %s: %w", orDefault(morphPath, DefaultMorph), err)
	}
	cs, err := ReadChans(bytes.NewReader(cb))
	if err != nil {
		return nil, fmt.Errorf("channel model %s: %w", orDefault(chanPath, DefaultChans), err)
	}
	return Build(ms, cs)
}

func orDefault(path, def string) string {
	if path == "" {
		return "embedded " + def
	}
	return path
}

func readFile(path, def string) ([]byte, error) {
	if path == "" {
		return content.ReadFile(def)
	}
	return os.ReadFile(path)
}

// ReadMorph decodes a morphology file
func ReadMorph(r io.Reader) (*MorphSpec, error) {
	ms := &MorphSpec{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(ms); err != nil {
		return nil, err
	}
	return ms, nil
}

// ReadChans decodes a channel-model file
func ReadChans(r io.Reader) (*ChanSpec, error) {
	cs := &ChanSpec{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// Build constructs the cell from its morphology and channel model
func Build(ms *MorphSpec, cs *ChanSpec) (*Cell, error) {
	c := &Cell{Name: ms.Name, Ra: 150, Cm: 1}
	c.Erev.Defaults()
	if cs.Ra > 0 {
		c.Ra = cs.Ra
	}
	if cs.Cm > 0 {
		c.Cm = cs.Cm
	}
	if cs.Erev != nil {
		c.Erev = *cs.Erev
	}
	if err := c.buildSections(ms.Sections); err != nil {
		return nil, err
	}
	sh, err := cs.ParamSheet()
	if err != nil {
		return nil, err
	}
	if err := c.ApplySheet(sh); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cell) buildSections(specs []SectionSpec) error {
	if len(specs) == 0 {
		return fmt.Errorf("%w: no sections", ErrTopology)
	}
	byName := make(map[string]*SectionSpec, len(specs))
	children := make(map[string][]string)
	var roots []string
	for i := range specs {
		ss := &specs[i]
		if ss.Name == "" {
			return fmt.Errorf("%w: section %d has no name", ErrTopology, i)
		}
		if _, dup := byName[ss.Name]; dup {
			return fmt.Errorf("%w: duplicate section %q", ErrTopology, ss.Name)
		}
		if ss.L <= 0 || ss.Diam <= 0 || ss.NSeg < 1 {
			return fmt.Errorf("%w: %q: L %v diam %v nseg %d", ErrGeometry, ss.Name, ss.L, ss.Diam, ss.NSeg)
		}
		byName[ss.Name] = ss
		if ss.Parent == "" {
			roots = append(roots, ss.Name)
		} else {
			children[ss.Parent] = append(children[ss.Parent], ss.Name)
		}
	}
	if len(roots) != 1 {
		return fmt.Errorf("%w: need exactly one root section, have %v", ErrTopology, roots)
	}
	for par := range children {
		if _, ok := byName[par]; !ok {
			return fmt.Errorf("%w: unknown parent %q", ErrTopology, par)
		}
	}

	c.secMap = make(map[string]*Section, len(specs))
	queue := []string{roots[0]}
	for len(queue) > 0 {
		nm := queue[0]
		queue = queue[1:]
		ss := byName[nm]
		sc := &Section{Nm: ss.Name, L: ss.L, Diam: ss.Diam, Lists: ss.Lists, ParentX: 1}
		if ss.ParentX != nil {
			sc.ParentX = *ss.ParentX
		}
		if ss.Parent != "" {
			sc.Parent = c.secMap[ss.Parent]
		}
		sc.Segs = make([]*Segment, ss.NSeg)
		for i := range sc.Segs {
			sc.Segs[i] = &Segment{Sec: sc, Idx: i}
		}
		c.Secs = append(c.Secs, sc)
		c.secMap[nm] = sc
		queue = append(queue, children[nm]...)
	}
	if len(c.Secs) != len(specs) {
		return fmt.Errorf("%w: %d sections unreachable from root %q (cycle?)", ErrTopology, len(specs)-len(c.Secs), roots[0])
	}
	return nil
}
