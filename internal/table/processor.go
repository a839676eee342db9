package table

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Operator transforms a table. Operators run in the order they were appended
// to a Processor.
type Operator interface {
	Name() string
	Apply(t *Table) (*Table, error)
}

// Processor holds a base table source plus an ordered operator chain. A
// processor with no operators returns the base table unchanged.
type Processor struct {
	path string
	base *Table
	ops  []Operator
}

// NewProcessor builds a processor reading its base table from a file. The
// extension selects the reader: .trc for marker trajectories, anything else
// is read as storage format.
func NewProcessor(path string) *Processor {
	return &Processor{path: path}
}

// NewProcessorFromTable builds a processor over an in-memory table.
func NewProcessorFromTable(t *Table) *Processor {
	return &Processor{base: t}
}

func (p *Processor) Append(op Operator) *Processor {
	p.ops = append(p.ops, op)
	return p
}

func (p *Processor) Process() (*Table, error) {
	t := p.base
	if t == nil {
		var err error
		if strings.EqualFold(filepath.Ext(p.path), ".trc") {
			t, err = ReadTRC(p.path)
		} else {
			t, err = ReadSTO(p.path)
		}
		if err != nil {
			return nil, err
		}
	} else {
		t = t.Clone()
	}
	for _, op := range p.ops {
		var err error
		t, err = op.Apply(t)
		if err != nil {
			return nil, fmt.Errorf("table: operator %s: %w", op.Name(), err)
		}
	}
	return t, nil
}

// LowPassFilter filters every column at the given cutoff.
type LowPassFilter struct {
	CutoffHz float64
}

func (o LowPassFilter) Name() string { return fmt.Sprintf("low_pass_filter(%g)", o.CutoffHz) }

func (o LowPassFilter) Apply(t *Table) (*Table, error) {
	fs := sampleRate(t.Times)
	if fs == 0 {
		return nil, fmt.Errorf("cannot estimate sample rate from %d samples", len(t.Times))
	}
	out := t.Clone()
	for i, col := range out.Columns {
		filtered, err := lowPass(col, o.CutoffHz, fs)
		if err != nil {
			return nil, err
		}
		out.Columns[i] = filtered
	}
	return out, nil
}

// ConvertToMeters rescales millimeter data to meters; tables already in
// meters pass through.
type ConvertToMeters struct{}

func (ConvertToMeters) Name() string { return "convert_to_meters" }

func (ConvertToMeters) Apply(t *Table) (*Table, error) {
	if t.Units != "mm" {
		return t, nil
	}
	out := t.Clone()
	for i, col := range out.Columns {
		scaled := make([]float64, len(col))
		for j, v := range col {
			scaled[j] = v / 1000.0
		}
		out.Columns[i] = scaled
	}
	out.Units = "m"
	return out, nil
}

// TrimTime keeps rows inside [T0, T1].
type TrimTime struct {
	T0, T1 float64
}

func (o TrimTime) Name() string { return fmt.Sprintf("trim(%g, %g)", o.T0, o.T1) }

func (o TrimTime) Apply(t *Table) (*Table, error) {
	return t.Trim(o.T0, o.T1)
}
