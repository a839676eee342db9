package osim

import (
	"fmt"
	"math"
	"strings"
)

// Coordinate motion types.
const (
	MotionRotational    = "rotational"
	MotionTranslational = "translational"
)

// Coordinate is a single degree of freedom owned by a joint.
type Coordinate struct {
	Name      string
	Joint     string
	Motion    string
	Range     [2]float64
	Default   float64
	Inertia   float64
	Damping   float64
	Stiffness float64
}

func (c *Coordinate) Path() string {
	return fmt.Sprintf("/jointset/%s/%s", c.Joint, c.Name)
}

func (c *Coordinate) ValueStateName() string { return c.Path() + "/value" }
func (c *Coordinate) SpeedStateName() string { return c.Path() + "/speed" }

// Axis returns the translation axis index (x=0, y=1, z=2) derived from the
// coordinate name suffix. Rotational coordinates act in the sagittal plane.
func (c *Coordinate) Axis() int {
	switch {
	case strings.HasSuffix(c.Name, "_ty"):
		return 1
	case strings.HasSuffix(c.Name, "_tz"):
		return 2
	default:
		return 0
	}
}

// Muscle is a musculotendon actuator spanning a single coordinate.
type Muscle struct {
	Name               string
	Coordinate         string
	MaxIsometricForce  float64
	OptimalFiberLength float64
	TendonSlackLength  float64
	MomentArm          float64
	ActivationTime     float64
	DeactivationTime   float64
	CurveWidth         float64
	IgnorePassiveForce bool
	DeGrooteFregly     bool
}

func (m *Muscle) Path() string                { return "/forceset/" + m.Name }
func (m *Muscle) ActivationStateName() string { return m.Path() + "/activation" }

// CoordinateActuator applies a generalized force to one coordinate.
type CoordinateActuator struct {
	Name         string
	Coordinate   string
	OptimalForce float64
	MinControl   float64
	MaxControl   float64
}

func (a *CoordinateActuator) Path() string { return "/forceset/" + a.Name }

// Marker is an experimental marker attached to a body segment and driven,
// in this reduced-coordinate model, by a single coordinate.
type Marker struct {
	Name          string
	Body          string
	Coordinate    string
	Location      [3]float64
	SegmentLength float64
}

// ExternalForce describes one column group of a ground-reaction data file.
type ExternalForce struct {
	Name            string
	AppliedToBody   string
	ForceIdentifier string
	PointIdentifier string
}

// ExternalLoads couples a reaction-force data file with the forces it defines.
type ExternalLoads struct {
	DataFile string
	Forces   []ExternalForce
}

// Model is a reduced-coordinate musculoskeletal model: a set of joint
// coordinates with attached actuators, muscles, and markers.
type Model struct {
	Name        string
	Coordinates []*Coordinate
	Muscles     []*Muscle
	Actuators   []*CoordinateActuator
	Markers     []*Marker
	External    *ExternalLoads
}

func (m *Model) Clone() *Model {
	c := &Model{Name: m.Name}
	for _, coord := range m.Coordinates {
		cc := *coord
		c.Coordinates = append(c.Coordinates, &cc)
	}
	for _, mus := range m.Muscles {
		mc := *mus
		c.Muscles = append(c.Muscles, &mc)
	}
	for _, act := range m.Actuators {
		ac := *act
		c.Actuators = append(c.Actuators, &ac)
	}
	for _, mk := range m.Markers {
		kc := *mk
		c.Markers = append(c.Markers, &kc)
	}
	if m.External != nil {
		ec := *m.External
		ec.Forces = append([]ExternalForce(nil), m.External.Forces...)
		c.External = &ec
	}
	return c
}

func (m *Model) Coordinate(name string) (*Coordinate, bool) {
	for _, c := range m.Coordinates {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

func (m *Model) Actuator(name string) (*CoordinateActuator, bool) {
	for _, a := range m.Actuators {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

func (m *Model) Marker(name string) (*Marker, bool) {
	for _, mk := range m.Markers {
		if mk.Name == name {
			return mk, true
		}
	}
	return nil, false
}

func (m *Model) AddActuator(a *CoordinateActuator) {
	m.Actuators = append(m.Actuators, a)
}

func (m *Model) RemoveMuscles() {
	m.Muscles = nil
}

// CoordinateIndex maps a coordinate name to its position in the
// generalized-coordinate vector.
func (m *Model) CoordinateIndex(name string) (int, bool) {
	for i, c := range m.Coordinates {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

// StateVariableNames lists coordinate values, then coordinate speeds, then
// muscle activations, in the order the dynamics lay out the state vector.
func (m *Model) StateVariableNames() []string {
	names := make([]string, 0, 2*len(m.Coordinates)+len(m.Muscles))
	for _, c := range m.Coordinates {
		names = append(names, c.ValueStateName())
	}
	for _, c := range m.Coordinates {
		names = append(names, c.SpeedStateName())
	}
	for _, mus := range m.Muscles {
		names = append(names, mus.ActivationStateName())
	}
	return names
}

// ControlNames lists actuator paths followed by muscle excitation paths; the
// dynamics lay out the control vector in this order.
func (m *Model) ControlNames() []string {
	names := make([]string, 0, len(m.Actuators)+len(m.Muscles))
	for _, a := range m.Actuators {
		names = append(names, a.Path())
	}
	for _, mus := range m.Muscles {
		names = append(names, mus.Path())
	}
	return names
}

// MarkerPosition computes the marker's world position for coordinate values q
// (indexed per CoordinateIndex). Rotational parents sweep the marker through
// the sagittal plane on its segment length; translational parents displace it
// along the coordinate axis.
func (m *Model) MarkerPosition(mk *Marker, q []float64) [3]float64 {
	p := mk.Location
	coord, ok := m.Coordinate(mk.Coordinate)
	if !ok {
		return p
	}
	idx, ok := m.CoordinateIndex(mk.Coordinate)
	if !ok || idx >= len(q) {
		return p
	}
	val := q[idx]
	if coord.Motion == MotionTranslational {
		p[coord.Axis()] += val
		return p
	}
	l := mk.SegmentLength
	p[0] += l * math.Sin(val)
	p[1] += l * (math.Cos(val) - 1)
	return p
}
