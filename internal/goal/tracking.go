package goal

import (
	"fmt"
	"sort"
	"strings"

	"github.com/motionlab/gaittrack/internal/dynamics"
	"github.com/motionlab/gaittrack/internal/osim"
	"github.com/motionlab/gaittrack/internal/table"
)

// ErrUnusedReferences reports reference columns that match no model
// component. Callers may allow them explicitly.
type ErrUnusedReferences struct {
	Goal   string
	Unused []string
}

func (e *ErrUnusedReferences) Error() string {
	return fmt.Sprintf("goal %s: reference data for unknown components: %s (set AllowUnusedReferences to ignore)",
		e.Goal, strings.Join(e.Unused, ", "))
}

// MarkerTracking penalizes squared deviation of model marker positions from
// reference trajectories.
type MarkerTracking struct {
	name    string
	weight  float64
	model   *osim.Model
	ref     *table.Table
	weights *WeightSet

	markers []*osim.Marker
}

// MarkerTrackingOptions configure construction of a MarkerTracking goal.
type MarkerTrackingOptions struct {
	GlobalWeight          float64
	Weights               *WeightSet
	AllowUnusedReferences bool
}

// NewMarkerTracking builds the goal and validates the reference against the
// model's marker set. The reference table must be in meters.
func NewMarkerTracking(model *osim.Model, ref *table.Table, opts MarkerTrackingOptions) (*MarkerTracking, error) {
	if ref.Units == "mm" {
		return nil, fmt.Errorf("goal marker_tracking: reference is in millimeters; convert to meters first")
	}

	g := &MarkerTracking{
		name:    "marker_tracking",
		weight:  opts.GlobalWeight,
		model:   model,
		ref:     ref,
		weights: opts.Weights,
	}
	if g.weight == 0 {
		g.weight = 1
	}
	if g.weights == nil {
		g.weights = &WeightSet{}
	}

	// Reference marker names are the _tx column prefixes.
	refMarkers := make(map[string]bool)
	for _, label := range ref.Labels {
		if strings.HasSuffix(label, "_tx") {
			refMarkers[strings.TrimSuffix(label, "_tx")] = true
		}
	}

	var unused []string
	for name := range refMarkers {
		if _, ok := model.Marker(name); !ok {
			unused = append(unused, name)
		}
	}
	if len(unused) > 0 && !opts.AllowUnusedReferences {
		sort.Strings(unused)
		return nil, &ErrUnusedReferences{Goal: g.name, Unused: unused}
	}

	for _, mk := range model.Markers {
		if refMarkers[mk.Name] {
			g.markers = append(g.markers, mk)
		}
	}
	if len(g.markers) == 0 {
		return nil, fmt.Errorf("goal marker_tracking: no reference data for any model marker")
	}
	return g, nil
}

func (g *MarkerTracking) Name() string        { return g.name }
func (g *MarkerTracking) Weight() float64     { return g.weight }
func (g *MarkerTracking) SetWeight(w float64) { g.weight = w }

// TrackedMarkers lists the markers the goal scores.
func (g *MarkerTracking) TrackedMarkers() []*osim.Marker { return g.markers }

func (g *MarkerTracking) Value(tr *dynamics.Trajectory) (float64, error) {
	if len(tr.Times) == 0 {
		return 0, fmt.Errorf("goal %s: empty trajectory", g.name)
	}
	nq := len(g.model.Coordinates)

	total := 0.0
	for _, mk := range g.markers {
		cols := table.MarkerColumns(mk.Name)
		w := g.weights.Get(mk.Name)
		for i, tm := range tr.Times {
			q := tr.States[i][:nq]
			p := g.model.MarkerPosition(mk, q)
			for axis := 0; axis < 3; axis++ {
				refVal, ok := g.ref.Interp(cols[axis], tm)
				if !ok {
					continue
				}
				d := p[axis] - refVal
				total += w * d * d
			}
		}
	}
	n := float64(len(tr.Times) * len(g.markers))
	return g.weight * total / n, nil
}

// StateTracking penalizes squared deviation of coordinate values and speeds
// from a reference table whose columns are state-variable names.
type StateTracking struct {
	name    string
	weight  float64
	ref     *table.Table
	weights *WeightSet

	// tracked state index -> reference column label
	tracked map[int]string
}

// StateTrackingOptions configure construction of a StateTracking goal.
type StateTrackingOptions struct {
	GlobalWeight          float64
	Weights               *WeightSet
	AllowUnusedReferences bool

	// TrackPositionDerivatives fills missing speed references with splined
	// derivatives of the position data.
	TrackPositionDerivatives bool
}

// NewStateTracking builds the goal, resolving reference columns against the
// model's state variables.
func NewStateTracking(model *osim.Model, ref *table.Table, opts StateTrackingOptions) (*StateTracking, error) {
	if ref.Units == "deg" {
		return nil, fmt.Errorf("goal state_tracking: reference is in degrees; convert to radians first")
	}

	g := &StateTracking{
		name:    "state_tracking",
		weight:  opts.GlobalWeight,
		weights: opts.Weights,
		tracked: make(map[int]string),
	}
	if g.weight == 0 {
		g.weight = 1
	}
	if g.weights == nil {
		g.weights = &WeightSet{}
	}

	names := model.StateVariableNames()
	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}

	var unused []string
	for _, label := range ref.Labels {
		if _, ok := index[label]; !ok {
			unused = append(unused, label)
		}
	}
	if len(unused) > 0 && !opts.AllowUnusedReferences {
		sort.Strings(unused)
		return nil, &ErrUnusedReferences{Goal: g.name, Unused: unused}
	}

	work := ref
	if opts.TrackPositionDerivatives {
		work = ref.Clone()
		for _, c := range model.Coordinates {
			if !work.HasColumn(c.ValueStateName()) || work.HasColumn(c.SpeedStateName()) {
				continue
			}
			deriv, err := work.SplineDerivative(c.ValueStateName())
			if err != nil {
				return nil, fmt.Errorf("goal %s: derive %s: %w", g.name, c.Name, err)
			}
			if err := work.AddColumn(c.SpeedStateName(), deriv); err != nil {
				return nil, fmt.Errorf("goal %s: %w", g.name, err)
			}
		}
	}
	g.ref = work

	for _, label := range work.Labels {
		if i, ok := index[label]; ok {
			g.tracked[i] = label
		}
	}
	if len(g.tracked) == 0 {
		return nil, fmt.Errorf("goal %s: no reference data for any state variable", g.name)
	}
	return g, nil
}

func (g *StateTracking) Name() string        { return g.name }
func (g *StateTracking) Weight() float64     { return g.weight }
func (g *StateTracking) SetWeight(w float64) { g.weight = w }

// NumTracked returns the number of tracked state variables.
func (g *StateTracking) NumTracked() int { return len(g.tracked) }

func (g *StateTracking) Value(tr *dynamics.Trajectory) (float64, error) {
	if len(tr.Times) == 0 {
		return 0, fmt.Errorf("goal %s: empty trajectory", g.name)
	}

	total := 0.0
	for idx, label := range g.tracked {
		w := g.weights.Get(label)
		for i, tm := range tr.Times {
			if idx >= len(tr.States[i]) {
				return 0, fmt.Errorf("goal %s: state %s out of range for trajectory", g.name, label)
			}
			refVal, _ := g.ref.Interp(label, tm)
			d := tr.States[i][idx] - refVal
			total += w * d * d
		}
	}
	n := float64(len(tr.Times) * len(g.tracked))
	return g.weight * total / n, nil
}
