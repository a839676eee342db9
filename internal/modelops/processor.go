// Package modelops builds models through an ordered chain of operators, the
// way tracking studies configure their base model before solving.
package modelops

import (
	"fmt"

	"github.com/motionlab/gaittrack/internal/osim"
)

// Operator transforms a model in place. Operators run in append order.
type Operator interface {
	Name() string
	Apply(m *osim.Model) error
}

// Processor holds a base model source plus an operator chain.
type Processor struct {
	path string
	base *osim.Model
	ops  []Operator
}

// NewProcessor builds a processor reading its base model from a file.
func NewProcessor(path string) *Processor {
	return &Processor{path: path}
}

// NewProcessorFromModel builds a processor over an in-memory model.
func NewProcessorFromModel(m *osim.Model) *Processor {
	return &Processor{base: m}
}

func (p *Processor) Append(op Operator) *Processor {
	p.ops = append(p.ops, op)
	return p
}

// Process loads the base model, applies the operator chain in order, and
// returns the configured model. The base is never mutated.
func (p *Processor) Process() (*osim.Model, error) {
	var m *osim.Model
	if p.base != nil {
		m = p.base.Clone()
	} else {
		var err error
		m, err = osim.LoadModel(p.path)
		if err != nil {
			return nil, err
		}
	}
	for _, op := range p.ops {
		if err := op.Apply(m); err != nil {
			return nil, fmt.Errorf("modelops: operator %s: %w", op.Name(), err)
		}
	}
	return m, nil
}
