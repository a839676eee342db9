// Package track builds tracking optimization problems from a processed model
// and experimental reference data, mirroring the workflow of gait tracking
// studies: configure references and weights, initialize a study, solve.
package track

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/motionlab/gaittrack/internal/goal"
	"github.com/motionlab/gaittrack/internal/modelops"
	"github.com/motionlab/gaittrack/internal/osim"
	"github.com/motionlab/gaittrack/internal/solver"
	"github.com/motionlab/gaittrack/internal/study"
	"github.com/motionlab/gaittrack/internal/table"
)

// DefaultMarkerFilterHz is the low-pass cutoff applied to marker references
// loaded directly from a TRC file.
const DefaultMarkerFilterHz = 6.0

// Track configures a tracking problem. Zero values mean "use the default":
// global tracking weights default to 1, the mesh interval to 0.02 s, the
// control effort weight to 0.001, and the time window to the reference
// table's span.
type Track struct {
	name string

	model      *modelops.Processor
	markersRef *table.Processor
	statesRef  *table.Processor

	markerWeights *goal.WeightSet

	markersGlobalWeight float64
	statesGlobalWeight  float64
	controlEffortWeight float64

	allowUnusedReferences    bool
	trackPositionDerivatives bool

	initialTime  float64
	finalTime    float64
	meshInterval float64

	log *zap.Logger
}

func New(name string) *Track {
	return &Track{name: name, log: zap.NewNop()}
}

func (t *Track) Name() string { return t.name }

func (t *Track) SetLogger(log *zap.Logger) {
	if log != nil {
		t.log = log
	}
}

// SetModel sets the model processor producing the problem's model.
func (t *Track) SetModel(p *modelops.Processor) { t.model = p }

// SetMarkersReference sets an explicit marker reference processor. No
// default operators are appended.
func (t *Track) SetMarkersReference(p *table.Processor) { t.markersRef = p }

// SetMarkersReferenceFromTRC loads marker trajectories from a TRC file with
// the default treatment: low-pass filtering and conversion to meters.
func (t *Track) SetMarkersReferenceFromTRC(path string) {
	t.markersRef = table.NewProcessor(path).
		Append(table.LowPassFilter{CutoffHz: DefaultMarkerFilterHz}).
		Append(table.ConvertToMeters{})
}

// SetStatesReference sets the coordinate reference processor.
func (t *Track) SetStatesReference(p *table.Processor) { t.statesRef = p }

func (t *Track) SetMarkersGlobalTrackingWeight(w float64) { t.markersGlobalWeight = w }
func (t *Track) SetStatesGlobalTrackingWeight(w float64)  { t.statesGlobalWeight = w }
func (t *Track) SetMarkersWeightSet(ws *goal.WeightSet)   { t.markerWeights = ws }
func (t *Track) SetControlEffortWeight(w float64)         { t.controlEffortWeight = w }

func (t *Track) SetAllowUnusedReferences(on bool)             { t.allowUnusedReferences = on }
func (t *Track) SetTrackReferencePositionDerivatives(on bool) { t.trackPositionDerivatives = on }

func (t *Track) SetInitialTime(v float64)  { t.initialTime = v }
func (t *Track) SetFinalTime(v float64)    { t.finalTime = v }
func (t *Track) SetMeshInterval(h float64) { t.meshInterval = h }

// Initialize processes the model and references and assembles a study ready
// to solve. Callers may adjust goals through the returned study's problem
// before solving.
func (t *Track) Initialize() (*study.Study, error) {
	if t.model == nil {
		return nil, errors.New("track: no model processor set")
	}
	if t.markersRef == nil && t.statesRef == nil {
		return nil, errors.New("track: no reference data set")
	}

	model, err := t.model.Process()
	if err != nil {
		return nil, fmt.Errorf("track %s: %w", t.name, err)
	}
	model.Name = t.name

	prob, err := study.NewProblem(model)
	if err != nil {
		return nil, fmt.Errorf("track %s: %w", t.name, err)
	}

	var markers, states *table.Table
	if t.markersRef != nil {
		markers, err = t.markersRef.Process()
		if err != nil {
			return nil, fmt.Errorf("track %s: markers reference: %w", t.name, err)
		}
	}
	if t.statesRef != nil {
		states, err = t.statesRef.Process()
		if err != nil {
			return nil, fmt.Errorf("track %s: states reference: %w", t.name, err)
		}
		if states.Units == "deg" {
			states = convertDegrees(model, states)
		}
	}

	t0, t1, err := t.timeWindow(markers, states)
	if err != nil {
		return nil, fmt.Errorf("track %s: %w", t.name, err)
	}
	if err := prob.SetTimeBounds(t0, t1); err != nil {
		return nil, fmt.Errorf("track %s: %w", t.name, err)
	}

	if markers != nil {
		g, err := goal.NewMarkerTracking(model, markers, goal.MarkerTrackingOptions{
			GlobalWeight:          t.markersGlobalWeight,
			Weights:               t.markerWeights,
			AllowUnusedReferences: t.allowUnusedReferences,
		})
		if err != nil {
			return nil, fmt.Errorf("track %s: %w", t.name, err)
		}
		if err := prob.AddGoal(g); err != nil {
			return nil, err
		}
		t.log.Info("tracking markers",
			zap.String("study", t.name),
			zap.Int("markers", len(g.TrackedMarkers())),
		)
	}
	if states != nil {
		g, err := goal.NewStateTracking(model, states, goal.StateTrackingOptions{
			GlobalWeight:             t.statesGlobalWeight,
			AllowUnusedReferences:    t.allowUnusedReferences,
			TrackPositionDerivatives: t.trackPositionDerivatives,
		})
		if err != nil {
			return nil, fmt.Errorf("track %s: %w", t.name, err)
		}
		if err := prob.AddGoal(g); err != nil {
			return nil, err
		}
		t.log.Info("tracking states",
			zap.String("study", t.name),
			zap.Int("states", g.NumTracked()),
		)

		if err := prob.SetInitialState(initialStateFromReference(prob, states, t0)); err != nil {
			return nil, fmt.Errorf("track %s: %w", t.name, err)
		}
	}

	effortWeight := t.controlEffortWeight
	if effortWeight == 0 {
		effortWeight = 0.001
	}
	if err := prob.AddGoal(goal.NewControlEffort(model, effortWeight)); err != nil {
		return nil, err
	}

	s := study.New(prob)
	if t.meshInterval > 0 {
		s.MeshInterval = t.meshInterval
	}
	s.Logger = t.log
	return s, nil
}

// Solve is initialize-then-solve.
func (t *Track) Solve(ctx context.Context) (*solver.Solution, error) {
	s, err := t.Initialize()
	if err != nil {
		return nil, err
	}
	return s.Solve(ctx)
}

// timeWindow resolves the trajectory window: explicit times win, otherwise
// the reference table's span is used.
func (t *Track) timeWindow(markers, states *table.Table) (float64, float64, error) {
	if t.finalTime > t.initialTime {
		return t.initialTime, t.finalTime, nil
	}
	ref := states
	if ref == nil {
		ref = markers
	}
	if len(ref.Times) < 2 {
		return 0, 0, errors.New("reference table too short to infer a time window")
	}
	return ref.Times[0], ref.Times[len(ref.Times)-1], nil
}

// convertDegrees rescales the rotational coordinate columns of a
// degree-valued reference to radians. Translational columns are already
// metric and pass through.
func convertDegrees(m *osim.Model, t *table.Table) *table.Table {
	out := t.Clone()
	const scale = math.Pi / 180
	for _, c := range m.Coordinates {
		if c.Motion != osim.MotionRotational {
			continue
		}
		for _, label := range []string{c.ValueStateName(), c.SpeedStateName()} {
			col, ok := out.Column(label)
			if !ok {
				continue
			}
			for j := range col {
				col[j] *= scale
			}
		}
	}
	out.Units = ""
	return out
}

// initialStateFromReference seeds coordinate values and speeds from the
// states reference at the window's start.
func initialStateFromReference(prob *study.Problem, states *table.Table, t0 float64) []float64 {
	return prob.System().StateFromReference(
		func(c *osim.Coordinate) (float64, bool) {
			return states.Interp(c.ValueStateName(), t0)
		},
		func(c *osim.Coordinate) (float64, bool) {
			return states.Interp(c.SpeedStateName(), t0)
		},
	)
}
