// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cell

import (
	"errors"
	"fmt"
	"strings"

	"github.com/emer/emergent/v2/params"
	"github.com/emer/scn1a/chans"
)

// ErrSelector is returned for a malformed sheet entry, or one that matches
// no section
var ErrSelector = errors.New("cell: bad param sheet selector")

// SecParams are the mechanism parameters that the channel-model sheet sets
// on each section.  Param paths are Section.<Kind>.<Field>, for example
// Section.Kv3.Gbar or Section.Nav11.Mh.
type SecParams struct {
	Nav11  chans.NavParams
	Nav11m chans.NavParams
	Kv3    chans.KvParams
	Leak   chans.PasParams
}

func (sp *SecParams) Defaults() {
	sp.Nav11.Defaults()
	sp.Nav11m.Defaults()
	sp.Nav11m.Gbar = 0
	sp.Kv3.Defaults()
	sp.Leak.Defaults()
}

// Gbar returns the conductance set for kind k
func (sp *SecParams) Gbar(k chans.Kind) float32 {
	switch k {
	case chans.Nav11:
		return sp.Nav11.Gbar
	case chans.Nav11m:
		return sp.Nav11m.Gbar
	case chans.Kv3:
		return sp.Kv3.Gbar
	case chans.Leak:
		return sp.Leak.Gbar
	}
	return 0
}

// Set copies the parameters for the mechanism's kind onto it
func (sp *SecParams) Set(mc chans.Mechanism) {
	switch m := mc.(type) {
	case *chans.Nav:
		if m.Kind() == chans.Nav11m {
			m.Params = sp.Nav11m
		} else {
			m.Params = sp.Nav11
		}
	case *chans.Kv:
		m.Params = sp.Kv3
	case *chans.Pas:
		m.Params = sp.Leak
	}
}

// secObj is the params.StylerObj view of a section while its sheet is applied
type secObj struct {
	*Section
	pars SecParams
}

func (so *secObj) Object() any { return &so.pars }

// ParamSheet converts the sheet entries to a params.Sheet.  Sel is
// "Section" for all sections, ".list" for the sections of a list or
// "#name" for one section.  Every param path must name a mechanism kind.
func (cs *ChanSpec) ParamSheet() (*params.Sheet, error) {
	sh := params.NewSheet()
	for i := range cs.Sheet {
		se := &cs.Sheet[i]
		if se.Sel == "" || len(se.Params) == 0 {
			return nil, fmt.Errorf("%w: entry %d: needs sel and params", ErrSelector, i)
		}
		for pt := range se.Params {
			if _, err := pathKind(pt); err != nil {
				return nil, fmt.Errorf("sheet entry %d (%s): %w", i, se.Sel, err)
			}
		}
		*sh = append(*sh, &params.Sel{Sel: se.Sel, Desc: se.Desc, Params: params.Params(se.Params)})
	}
	return sh, nil
}

// pathKind returns the mechanism kind of a Section.<Kind>.<Field> path
func pathKind(pt string) (chans.Kind, error) {
	ps := strings.Split(pt, ".")
	if len(ps) < 3 || ps[0] != "Section" {
		return chans.KindN, fmt.Errorf("param path %q: want Section.<Kind>.<Field>", pt)
	}
	k, err := chans.ParseKind(ps[1])
	if err != nil {
		return chans.KindN, fmt.Errorf("param path %q: %w", pt, err)
	}
	if k.String() != ps[1] {
		return chans.KindN, fmt.Errorf("param path %q: kind is spelled %s", pt, k)
	}
	return k, nil
}

// selKinds returns the kinds named in the params of a selector
func selKinds(sl *params.Sel) []chans.Kind {
	var ks []chans.Kind
	for pt := range sl.Params {
		if k, err := pathKind(pt); err == nil {
			ks = append(ks, k)
		}
	}
	return ks
}

// ApplySheet applies the param sheet to every section, in sheet order.
// Each section gets the mechanism kinds named by the selectors that match
// it, inserted in all of its segments with the resulting parameters.
func (c *Cell) ApplySheet(sh *params.Sheet) error {
	sh.SelMatchReset("channels")
	for _, sc := range c.Secs {
		so := &secObj{Section: sc}
		so.pars.Defaults()
		if _, err := sh.Apply(so, false); err != nil {
			return fmt.Errorf("section %s: %w", sc.Nm, err)
		}
		var ins [chans.KindN]bool
		for _, sl := range *sh {
			if sl.SelMatch(so) {
				for _, k := range selKinds(sl) {
					ins[k] = true
				}
			}
		}
		for k, on := range ins {
			if !on {
				continue
			}
			kind := chans.Kind(k)
			if g := so.pars.Gbar(kind); g < 0 {
				return fmt.Errorf("section %s: %v: negative gbar %v", sc.Nm, kind, g)
			}
			for _, sg := range sc.Segs {
				mc, err := sg.Insert(kind)
				if err != nil {
					return err
				}
				so.pars.Set(mc)
			}
		}
	}
	for _, sl := range *sh {
		if sl.NMatch == 0 {
			return fmt.Errorf("%w: %q matches no section", ErrSelector, sl.Sel)
		}
	}
	return nil
}
