// Package studies names the built-in tracking studies and builds them from a
// data directory holding the model, marker, coordinate, and ground-reaction
// files.
package studies

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/motionlab/gaittrack/internal/goal"
	"github.com/motionlab/gaittrack/internal/modelops"
	"github.com/motionlab/gaittrack/internal/solver"
	"github.com/motionlab/gaittrack/internal/study"
	"github.com/motionlab/gaittrack/internal/table"
	"github.com/motionlab/gaittrack/internal/track"
)

// Input file names expected under the data directory.
const (
	ModelFile         = "subject_walk_armless.osim"
	MarkerFile        = "marker_trajectories.trc"
	CoordinatesFile   = "coordinates.sto"
	ExternalLoadsFile = "grf_walk.xml"
)

// Params adjust a built-in study. Zero values keep the study's defaults.
type Params struct {
	DataDir string

	MeshInterval  float64
	InitialTime   float64
	FinalTime     float64
	MaxIterations int

	Logger   *zap.Logger
	Progress func(solver.ProgressUpdate)
}

// BuildFunc assembles a named study, ready to solve.
type BuildFunc func(p Params) (*study.Study, error)

// Registry maps study names to builders.
type Registry struct {
	builders map[string]BuildFunc
}

func NewRegistry() *Registry {
	r := &Registry{builders: make(map[string]BuildFunc)}
	r.builders["torque-driven-marker-tracking"] = BuildTorqueDrivenMarkerTracking
	r.builders["muscle-driven-state-tracking"] = BuildMuscleDrivenStateTracking
	return r
}

func (r *Registry) Get(name string) (BuildFunc, error) {
	fn, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown study: %s (available: %s)", name, strings.Join(r.List(), ", "))
	}
	return fn, nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// markerWeights is the tracking weight set for the marker study: pelvis
// markers dominate, feet markers count least.
func markerWeights() *goal.WeightSet {
	ws := &goal.WeightSet{}
	add := func(name string, w float64) {
		ws.CloneAndAppend(goal.Weight{Name: name, Weight: w})
	}
	for _, side := range []string{"R", "L"} {
		add(side+".ASIS", 20)
		add(side+".PSIS", 20)
		add(side+".Knee", 10)
		add(side+".Ankle", 10)
		add(side+".Heel", 10)
		add(side+".MT5", 5)
		add(side+".Toe", 2)
	}
	return ws
}

// BuildTorqueDrivenMarkerTracking tracks experimental marker trajectories
// with a torque-driven model: muscles removed, ground reactions applied, and
// strong reserve actuators at every coordinate.
func BuildTorqueDrivenMarkerTracking(p Params) (*study.Study, error) {
	tr := track.New("torque_driven_marker_tracking")
	tr.SetModel(modelops.NewProcessor(filepath.Join(p.DataDir, ModelFile)).
		Append(modelops.AddExternalLoads{Path: filepath.Join(p.DataDir, ExternalLoadsFile)}).
		Append(modelops.RemoveMuscles{}).
		Append(modelops.AddReserves{OptimalForce: 250}))

	tr.SetMarkersReferenceFromTRC(filepath.Join(p.DataDir, MarkerFile))
	tr.SetAllowUnusedReferences(true)
	tr.SetMarkersGlobalTrackingWeight(10)
	tr.SetMarkersWeightSet(markerWeights())

	tr.SetInitialTime(0.81)
	tr.SetFinalTime(1.65)
	tr.SetMeshInterval(0.05)

	if p.FinalTime > p.InitialTime {
		tr.SetInitialTime(p.InitialTime)
		tr.SetFinalTime(p.FinalTime)
	}
	if p.Logger != nil {
		tr.SetLogger(p.Logger)
	}

	s, err := tr.Initialize()
	if err != nil {
		return nil, err
	}
	applyParams(s, p)
	return s, nil
}

// BuildMuscleDrivenStateTracking tracks inverse-kinematics coordinate data
// with a muscle-driven model, then suppresses the pelvis residual actuators
// by raising their effort weight.
func BuildMuscleDrivenStateTracking(p Params) (*study.Study, error) {
	tr := track.New("muscle_driven_state_tracking")
	tr.SetModel(modelops.NewProcessor(filepath.Join(p.DataDir, ModelFile)).
		Append(modelops.AddExternalLoads{Path: filepath.Join(p.DataDir, ExternalLoadsFile)}).
		Append(modelops.ReplaceMusclesWithDeGrooteFregly2016{}).
		Append(modelops.IgnorePassiveFiberForces{}).
		Append(modelops.ScaleActiveFiberForceCurveWidth{Scale: 1.5}))

	tr.SetStatesReference(table.NewProcessor(filepath.Join(p.DataDir, CoordinatesFile)))
	tr.SetStatesGlobalTrackingWeight(10)
	tr.SetAllowUnusedReferences(true)
	tr.SetTrackReferencePositionDerivatives(true)

	tr.SetInitialTime(0.81)
	tr.SetFinalTime(1.65)
	tr.SetMeshInterval(0.08)

	if p.FinalTime > p.InitialTime {
		tr.SetInitialTime(p.InitialTime)
		tr.SetFinalTime(p.FinalTime)
	}
	if p.Logger != nil {
		tr.SetLogger(p.Logger)
	}

	s, err := tr.Initialize()
	if err != nil {
		return nil, err
	}

	// Residual suppression: the pelvis actuators stand in for unmodeled
	// ground contact and must stay small.
	g, ok := s.Problem().UpdGoal("control_effort")
	if !ok {
		return nil, fmt.Errorf("study %s: missing control_effort goal", tr.Name())
	}
	effort := g.(*goal.ControlEffort)
	for _, name := range s.Problem().Model().ControlNames() {
		if strings.Contains(name, "pelvis") {
			effort.SetWeightForControl(name, 10)
		}
	}

	applyParams(s, p)
	return s, nil
}

func applyParams(s *study.Study, p Params) {
	if p.MeshInterval > 0 {
		s.MeshInterval = p.MeshInterval
	}
	if p.MaxIterations > 0 {
		s.MaxIterations = p.MaxIterations
	}
	if p.Logger != nil {
		s.Logger = p.Logger
	}
	if p.Progress != nil {
		s.Progress = p.Progress
	}
}
