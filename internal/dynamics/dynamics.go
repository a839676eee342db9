// Package dynamics provides the reduced-coordinate forward dynamics used by
// the tracking solver: each joint coordinate is a second-order degree of
// freedom driven by coordinate actuators and musculotendon forces.
package dynamics

import (
	"errors"
	"math"
)

// Domain errors for dynamics evaluation.
var (
	// ErrInvalidState indicates a state vector with NaN or Inf entries.
	ErrInvalidState = errors.New("dynamics: invalid state (NaN or Inf detected)")

	// ErrDimensionMismatch indicates mismatched state/control dimensions.
	ErrDimensionMismatch = errors.New("dynamics: dimension mismatch between state and system")
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

type Control []float64

// System is a controlled ODE: dx/dt = f(x, u, t).
type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// Integrator advances a system state by one step.
type Integrator interface {
	Step(sys System, x State, u Control, t, dt float64) State
}

// Trajectory is a sampled state/control history over a time grid.
type Trajectory struct {
	Times    []float64
	States   []State
	Controls []Control
}

func (tr *Trajectory) Clone() *Trajectory {
	c := &Trajectory{
		Times:    append([]float64(nil), tr.Times...),
		States:   make([]State, len(tr.States)),
		Controls: make([]Control, len(tr.Controls)),
	}
	for i, s := range tr.States {
		c.States[i] = s.Clone()
	}
	for i, u := range tr.Controls {
		c.Controls[i] = append(Control(nil), u...)
	}
	return c
}

// Duration returns the trajectory's time span.
func (tr *Trajectory) Duration() float64 {
	if len(tr.Times) < 2 {
		return 0
	}
	return tr.Times[len(tr.Times)-1] - tr.Times[0]
}
