// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"fmt"
	"math"
	"strings"

	"github.com/c2h5oh/datasize"
)

// Mode is the integration mode
type Mode int32

const (
	// Adaptive uses variable time steps with local error control
	Adaptive Mode = iota

	// Fixed uses a constant time step of Params.Dt
	Fixed

	ModeN
)

var modeNames = [ModeN]string{"adaptive", "fixed"}

func (md Mode) String() string {
	if md < 0 || md >= ModeN {
		return fmt.Sprintf("Mode(%d)", int32(md))
	}
	return modeNames[md]
}

// ParseMode returns the Mode of given name
func ParseMode(s string) (Mode, error) {
	for i, nm := range modeNames {
		if strings.EqualFold(nm, s) {
			return Mode(i), nil
		}
	}
	return ModeN, fmt.Errorf("sim: unknown integration mode %q", s)
}

func (md Mode) MarshalText() ([]byte, error) { return []byte(md.String()), nil }

func (md *Mode) UnmarshalText(b []byte) error {
	m, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*md = m
	return nil
}

// Params are the run settings shared by all simulations
type Params struct {
	Celsius   float32           `yaml:"celsius" def:"24" desc:"temperature in degrees C, scales gating rates by Q10"`
	Mode      Mode              `yaml:"mode" def:"adaptive" desc:"integration mode"`
	Dt        float64           `yaml:"dt" def:"0.025" min:"0" desc:"time step in ms for Fixed mode"`
	RTol      float64           `yaml:"rtol" def:"1e-4" min:"0" desc:"relative local error tolerance for Adaptive mode"`
	ATol      float64           `yaml:"atol" def:"1e-5" min:"0" desc:"absolute local error tolerance for Adaptive mode"`
	MaxStep   float64           `yaml:"max_step" def:"0.5" min:"0" desc:"largest step in ms for Adaptive mode"`
	MinStep   float64           `yaml:"min_step" def:"1e-9" min:"0" desc:"step size in ms below which Adaptive mode gives up with ErrStepUnderflow"`
	VInit     float32           `yaml:"v_init" def:"-70" desc:"initial membrane potential in mV, gating states start at steady state for it"`
	MaxRecord datasize.ByteSize `yaml:"max_record" def:"64MB" desc:"limit on memory used by recorded vectors in one run"`
}

func (sp *Params) Defaults() {
	sp.Celsius = 24
	sp.Mode = Adaptive
	sp.Dt = 0.025
	sp.RTol = 1e-4
	sp.ATol = 1e-5
	sp.MaxStep = 0.5
	sp.MinStep = 1e-9
	sp.VInit = -70
	sp.MaxRecord = 64 * datasize.MB
}

// Validate checks that the params can drive a run
func (sp *Params) Validate() error {
	switch {
	case sp.Mode < 0 || sp.Mode >= ModeN:
		return fmt.Errorf("sim: invalid mode %v", sp.Mode)
	case math.IsNaN(float64(sp.Celsius)) || math.IsInf(float64(sp.Celsius), 0):
		return fmt.Errorf("sim: celsius must be finite")
	case sp.Mode == Fixed && !(sp.Dt > 0):
		return fmt.Errorf("sim: dt must be > 0, is %v", sp.Dt)
	case sp.Mode == Adaptive && !(sp.RTol > 0 && sp.ATol > 0):
		return fmt.Errorf("sim: rtol and atol must be > 0")
	case sp.Mode == Adaptive && !(sp.MinStep > 0 && sp.MinStep < sp.MaxStep):
		return fmt.Errorf("sim: need 0 < min_step < max_step, have %v, %v", sp.MinStep, sp.MaxStep)
	case sp.MaxRecord == 0:
		return fmt.Errorf("sim: max_record must be > 0")
	}
	return nil
}
