// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package expt

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/emer/etable/v2/etable"
	"github.com/emer/etable/v2/etensor"
	"go.uber.org/zap"
)

// TraceTable returns the traces of the set as one table, mutant rows first
func TraceTable(ts *TraceSet) *etable.Table {
	dt := &etable.Table{}
	dt.SetMetaData("name", ts.Cond.Name+"Traces")
	sch := etable.Schema{
		{"Cell", etensor.STRING, nil, nil},
		{"T", etensor.FLOAT64, nil, nil},
		{"V", etensor.FLOAT64, nil, nil},
	}
	dt.SetFromSchema(sch, len(ts.Mut.T)+len(ts.WT.T))
	row := 0
	for _, tr := range []struct {
		name string
		res  *TraceResult
	}{{MutName, ts.Mut}, {WTName, ts.WT}} {
		for i, t := range tr.res.T {
			dt.SetCellString("Cell", row, tr.name)
			dt.SetCellFloat("T", row, t)
			dt.SetCellFloat("V", row, tr.res.V[i])
			row++
		}
	}
	return dt
}

// IFTable returns the sweeps as one table with a rate column per condition
func IFTable(sweeps []*SweepResult) *etable.Table {
	dt := &etable.Table{}
	dt.SetMetaData("name", "IF")
	sch := etable.Schema{
		{"Input", etensor.FLOAT64, nil, nil},
	}
	for _, sw := range sweeps {
		sch = append(sch, etable.Column{Name: sw.Name, Type: etensor.FLOAT64})
	}
	n := 0
	if len(sweeps) > 0 {
		n = len(sweeps[0].Inputs)
	}
	dt.SetFromSchema(sch, n)
	for i := 0; i < n; i++ {
		dt.SetCellFloat("Input", i, sweeps[0].Inputs[i])
		for _, sw := range sweeps {
			dt.SetCellFloat(sw.Name, i, sw.Rates[i])
		}
	}
	return dt
}

func (rn *Runner) saveTraceCSV(ts *TraceSet) error {
	return rn.saveCSV(ts.Cond.Name+"_trace.csv", TraceTable(ts))
}

func (rn *Runner) saveIFCSV(sweeps []*SweepResult) error {
	return rn.saveCSV("if.csv", IFTable(sweeps))
}

// saveCSV writes the table as comma-separated values with headers to DataDir
func (rn *Runner) saveCSV(name string, dt *etable.Table) error {
	if err := os.MkdirAll(rn.DataDir, 0o755); err != nil {
		return err
	}
	fn := filepath.Join(rn.DataDir, name)
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	if err := dt.WriteCSV(f, etable.Comma, etable.Headers); err != nil {
		f.Close()
		return fmt.Errorf("expt: writing %s: %w", fn, err)
	}
	rn.Log.Debug("saved data", zap.String("file", fn), zap.Int("rows", dt.Rows))
	return f.Close()
}
