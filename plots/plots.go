// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package plots renders voltage traces and I-F curves to PDF files.
package plots

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"
)

// ErrData is returned for a series with no points or mismatched X, Y
var ErrData = errors.New("plots: bad series data")

// series colors
var (
	Black = color.RGBA{A: 255}
	Red   = color.RGBA{R: 220, A: 255}
)

// Series is one named curve
type Series struct {
	Name  string
	X, Y  []float64
	Color color.Color
}

func (sr *Series) xys() (plotter.XYs, error) {
	if len(sr.X) == 0 || len(sr.X) != len(sr.Y) {
		return nil, fmt.Errorf("%w: %q has %d x and %d y values", ErrData, sr.Name, len(sr.X), len(sr.Y))
	}
	xy := make(plotter.XYs, len(sr.X))
	for i := range xy {
		xy[i].X = sr.X[i]
		xy[i].Y = sr.Y[i]
	}
	return xy, nil
}

// Panel is one plot of a multi-panel figure
type Panel struct {
	Title  string
	Series []Series
}

// newPlot makes a plot with the series drawn and listed in the legend in
// the given order, as lines or as lines with point markers
func newPlot(title, xlabel, ylabel string, points bool, series []Series) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Legend.Top = true
	for i := range series {
		sr := &series[i]
		xy, err := sr.xys()
		if err != nil {
			return nil, err
		}
		if points {
			ln, sc, err := plotter.NewLinePoints(xy)
			if err != nil {
				return nil, err
			}
			ln.Color = sr.Color
			sc.Color = sr.Color
			sc.Shape = draw.CircleGlyph{}
			p.Add(ln, sc)
			p.Legend.Add(sr.Name, ln, sc)
			continue
		}
		ln, err := plotter.NewLine(xy)
		if err != nil {
			return nil, err
		}
		ln.Color = sr.Color
		p.Add(ln)
		p.Legend.Add(sr.Name, ln)
	}
	return p, nil
}

// save writes a PDF of size w x h, creating the parent dir as needed
func save(path string, w, h vg.Length, render func(dc draw.Canvas)) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	c := vgpdf.New(w, h)
	render(draw.New(c))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("plots: writing %s: %w", path, err)
	}
	return f.Close()
}

// Traces saves a 5 x 2 in plot of voltage (mV) vs. time (ms), one line per series
func Traces(path, title string, series ...Series) error {
	p, err := newPlot(title, "ms", "mV", false, series)
	if err != nil {
		return err
	}
	return save(path, 5*vg.Inch, 2*vg.Inch, p.Draw)
}

// IFPanels saves a 10 x 3 in figure with the panels side by side, plotting
// firing rate (Hz) vs. input current (pA)
func IFPanels(path string, panels ...Panel) error {
	if len(panels) == 0 {
		return fmt.Errorf("%w: no panels", ErrData)
	}
	row := make([]*plot.Plot, len(panels))
	for i := range panels {
		p, err := newPlot(panels[i].Title, "pA", "Hz", true, panels[i].Series)
		if err != nil {
			return err
		}
		row[i] = p
	}
	tiles := draw.Tiles{
		Rows:      1,
		Cols:      len(panels),
		PadX:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	return save(path, 10*vg.Inch, 3*vg.Inch, func(dc draw.Canvas) {
		cs := plot.Align([][]*plot.Plot{row}, tiles, dc)
		for i, p := range row {
			p.Draw(cs[0][i])
		}
	})
}
