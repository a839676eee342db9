package dynamics

import (
	"fmt"

	"github.com/motionlab/gaittrack/internal/osim"
)

// Skeletal is the reduced-coordinate dynamics of a musculoskeletal model.
// State layout: coordinate values, coordinate speeds, muscle activations.
// Control layout: coordinate-actuator controls, muscle excitations.
type Skeletal struct {
	model *osim.Model

	nq int
	nm int

	// actuator i drives coordinate actCoord[i]
	actCoord []int
	// muscle j drives coordinate musCoord[j]
	musCoord []int
}

// NewSkeletal builds the dynamics for a configured model.
func NewSkeletal(m *osim.Model) (*Skeletal, error) {
	s := &Skeletal{
		model:    m,
		nq:       len(m.Coordinates),
		nm:       len(m.Muscles),
		actCoord: make([]int, len(m.Actuators)),
		musCoord: make([]int, len(m.Muscles)),
	}
	if s.nq == 0 {
		return nil, fmt.Errorf("dynamics: model %s has no coordinates", m.Name)
	}
	for i, a := range m.Actuators {
		idx, ok := m.CoordinateIndex(a.Coordinate)
		if !ok {
			return nil, fmt.Errorf("dynamics: actuator %s: unknown coordinate %s", a.Name, a.Coordinate)
		}
		s.actCoord[i] = idx
	}
	for j, mus := range m.Muscles {
		idx, ok := m.CoordinateIndex(mus.Coordinate)
		if !ok {
			return nil, fmt.Errorf("dynamics: muscle %s: unknown coordinate %s", mus.Name, mus.Coordinate)
		}
		s.musCoord[j] = idx
	}
	return s, nil
}

func (s *Skeletal) Model() *osim.Model { return s.model }

func (s *Skeletal) StateDim() int   { return 2*s.nq + s.nm }
func (s *Skeletal) ControlDim() int { return len(s.model.Actuators) + s.nm }

// InitialState returns the state at the coordinate defaults with zero speeds
// and baseline muscle activation.
func (s *Skeletal) InitialState() State {
	x := make(State, s.StateDim())
	for i, c := range s.model.Coordinates {
		x[i] = c.Default
	}
	for j := 0; j < s.nm; j++ {
		x[2*s.nq+j] = 0.02
	}
	return x
}

// StateFromReference seeds coordinate values and speeds from per-coordinate
// functions; missing entries keep the defaults.
func (s *Skeletal) StateFromReference(value, speed func(coord *osim.Coordinate) (float64, bool)) State {
	x := s.InitialState()
	for i, c := range s.model.Coordinates {
		if v, ok := value(c); ok {
			x[i] = v
		}
		if v, ok := speed(c); ok {
			x[s.nq+i] = v
		}
	}
	return x
}

func (s *Skeletal) Derive(x State, u Control, t float64) State {
	dx := make(State, len(x))
	nq := s.nq

	// Coordinate value derivatives are the speeds.
	copy(dx[:nq], x[nq:2*nq])

	// Generalized forces.
	tau := make([]float64, nq)
	for i, a := range s.model.Actuators {
		tau[s.actCoord[i]] += a.OptimalForce * clamp(u[i], a.MinControl, a.MaxControl)
	}
	nAct := len(s.model.Actuators)
	for j, mus := range s.model.Muscles {
		a := clamp(x[2*nq+j], 0, 1)
		q := x[s.musCoord[j]]
		tau[s.musCoord[j]] += mus.MomentArm * muscleForce(mus, a, q)
	}

	// Accelerations.
	for i, c := range s.model.Coordinates {
		qd := x[nq+i]
		f := tau[i] - c.Damping*qd - c.Stiffness*(x[i]-c.Default)
		inertia := c.Inertia
		if inertia <= 0 {
			inertia = 1
		}
		dx[nq+i] = f / inertia
	}

	// Muscle activation dynamics.
	for j, mus := range s.model.Muscles {
		a := clamp(x[2*nq+j], 0, 1)
		e := 0.0
		if nAct+j < len(u) {
			e = clamp(u[nAct+j], 0, 1)
		}
		dx[2*nq+j] = activationRate(mus, a, e)
	}

	return dx
}

// activationRate is first-order activation dynamics with the faster
// activation and slower deactivation time constants scaled by the current
// activation level.
func activationRate(mus *osim.Muscle, a, e float64) float64 {
	if e > a {
		tau := mus.ActivationTime * (0.5 + 1.5*a)
		return (e - a) / tau
	}
	tau := mus.DeactivationTime / (0.5 + 1.5*a)
	return (e - a) / tau
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
