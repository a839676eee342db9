// Package solver implements direct-shooting trajectory optimization. The
// decision vector is the control trajectory sampled on a fixed time mesh,
// candidate states come from forward rollout of the model dynamics, and the
// objective is the sum of the problem's goal terms.
package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"

	"github.com/motionlab/gaittrack/internal/dynamics"
	"github.com/motionlab/gaittrack/internal/goal"
	"github.com/motionlab/gaittrack/internal/integrators"
)

// ErrNotConverged reports that the optimizer stopped before reaching the
// convergence tolerance.
var ErrNotConverged = errors.New("solver: did not converge")

// Options configures a solve.
type Options struct {
	// MeshInterval is the spacing of control mesh points in seconds.
	MeshInterval float64

	// Substeps is the number of integrator steps per mesh interval.
	Substeps int

	// MaxIterations bounds the optimizer's major iterations.
	MaxIterations int

	// Tolerance is the gradient-norm convergence threshold.
	Tolerance float64

	Logger *zap.Logger

	// Progress, when set, receives an update after each major iteration.
	Progress func(ProgressUpdate)
}

// ProgressUpdate is a snapshot of the optimizer after a major iteration.
type ProgressUpdate struct {
	Iteration int
	Objective float64
}

// Solution holds the optimized trajectory and convergence report.
type Solution struct {
	Trajectory *dynamics.Trajectory
	Objective  float64
	GoalValues map[string]float64
	Iterations int
	Converged  bool
	Runtime    time.Duration
}

// Solver minimizes goal terms over control trajectories of a single system.
type Solver struct {
	sys   dynamics.System
	goals []goal.Goal
	opts  Options
	log   *zap.Logger
}

func New(sys dynamics.System, goals []goal.Goal, opts Options) (*Solver, error) {
	if opts.MeshInterval <= 0 {
		return nil, fmt.Errorf("solver: mesh interval must be positive, got %g", opts.MeshInterval)
	}
	if len(goals) == 0 {
		return nil, errors.New("solver: no goals")
	}
	if opts.Substeps <= 0 {
		opts.Substeps = 4
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 200
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = 1e-4
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Solver{sys: sys, goals: goals, opts: opts, log: log}, nil
}

// meshTimes splits [t0, t1] into intervals no wider than the mesh interval.
func (s *Solver) meshTimes(t0, t1 float64) []float64 {
	dur := t1 - t0
	n := int(math.Round(dur / s.opts.MeshInterval))
	if n < 1 {
		n = 1
	}
	times := make([]float64, n+1)
	for i := range times {
		times[i] = t0 + dur*float64(i)/float64(n)
	}
	return times
}

// rollout integrates the system forward holding each mesh point's control
// over the following interval.
func (s *Solver) rollout(z []float64, x0 dynamics.State, times []float64) *dynamics.Trajectory {
	nu := s.sys.ControlDim()
	integ := integrators.NewRK4()

	tr := &dynamics.Trajectory{
		Times:    times,
		States:   make([]dynamics.State, len(times)),
		Controls: make([]dynamics.Control, len(times)),
	}
	for i := range times {
		tr.Controls[i] = dynamics.Control(z[i*nu : (i+1)*nu])
	}

	x := x0.Clone()
	tr.States[0] = x
	for i := 0; i < len(times)-1; i++ {
		u := tr.Controls[i]
		dt := (times[i+1] - times[i]) / float64(s.opts.Substeps)
		t := times[i]
		for k := 0; k < s.opts.Substeps; k++ {
			x = integ.Step(s.sys, x, u, t, dt)
			t += dt
		}
		tr.States[i+1] = x
	}
	return tr
}

func (s *Solver) objective(tr *dynamics.Trajectory) (float64, error) {
	total := 0.0
	for _, g := range s.goals {
		v, err := g.Value(tr)
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total, nil
}

// Solve optimizes the control trajectory from initial state x0 over [t0, t1].
// A non-converged result is returned alongside ErrNotConverged so callers can
// inspect the partial solution.
func (s *Solver) Solve(ctx context.Context, x0 dynamics.State, t0, t1 float64) (*Solution, error) {
	if t1 <= t0 {
		return nil, fmt.Errorf("solver: empty time window [%g, %g]", t0, t1)
	}
	if len(x0) != s.sys.StateDim() {
		return nil, dynamics.ErrDimensionMismatch
	}

	times := s.meshTimes(t0, t1)
	nu := s.sys.ControlDim()
	z0 := make([]float64, len(times)*nu)

	// Goal configuration errors (unknown states, mismatched dimensions)
	// surface here once, so the inner objective can stay error-free.
	if _, err := s.objective(s.rollout(z0, x0, times)); err != nil {
		return nil, err
	}

	objFn := func(z []float64) float64 {
		v, err := s.objective(s.rollout(z, x0, times))
		if err != nil || math.IsNaN(v) {
			return math.Inf(1)
		}
		return v
	}

	s.log.Info("solve started",
		zap.Int("mesh_points", len(times)),
		zap.Int("decision_vars", len(z0)),
		zap.Float64("t0", t0),
		zap.Float64("t1", t1),
	)
	start := time.Now()

	problem := optimize.Problem{
		Func: objFn,
		Grad: func(grad, z []float64) {
			fd.Gradient(grad, objFn, z, nil)
		},
	}
	settings := &optimize.Settings{
		MajorIterations:   s.opts.MaxIterations,
		GradientThreshold: s.opts.Tolerance,
		Recorder: &progressRecorder{
			ctx:      ctx,
			log:      s.log,
			progress: s.opts.Progress,
		},
	}

	result, err := optimize.Minimize(problem, z0, settings, &optimize.LBFGS{})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("solver: %w", ctxErr)
	}
	if result == nil {
		return nil, fmt.Errorf("solver: %w", err)
	}

	tr := s.rollout(result.X, x0, times)
	sol := &Solution{
		Trajectory: tr,
		Objective:  result.F,
		GoalValues: make(map[string]float64, len(s.goals)),
		Iterations: result.Stats.MajorIterations,
		Converged:  converged(result.Status),
		Runtime:    time.Since(start),
	}
	for _, g := range s.goals {
		v, gerr := g.Value(tr)
		if gerr != nil {
			return nil, gerr
		}
		sol.GoalValues[g.Name()] = v
	}

	s.log.Info("solve finished",
		zap.Float64("objective", sol.Objective),
		zap.Int("iterations", sol.Iterations),
		zap.Bool("converged", sol.Converged),
		zap.Duration("runtime", sol.Runtime),
	)

	if !sol.Converged {
		return sol, fmt.Errorf("%w: %s after %d iterations", ErrNotConverged, result.Status, sol.Iterations)
	}
	return sol, nil
}

func converged(st optimize.Status) bool {
	switch st {
	case optimize.GradientThreshold, optimize.FunctionThreshold, optimize.FunctionConvergence:
		return true
	}
	return false
}

// progressRecorder bridges gonum's recorder hook to iteration logging,
// progress callbacks, and context cancellation.
type progressRecorder struct {
	ctx      context.Context
	log      *zap.Logger
	progress func(ProgressUpdate)
}

func (r *progressRecorder) Init() error { return nil }

func (r *progressRecorder) Record(loc *optimize.Location, op optimize.Operation, stats *optimize.Stats) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	if op&optimize.MajorIteration == 0 {
		return nil
	}
	r.log.Debug("iteration",
		zap.Int("major", stats.MajorIterations),
		zap.Float64("objective", loc.F),
	)
	if r.progress != nil {
		r.progress(ProgressUpdate{Iteration: stats.MajorIterations, Objective: loc.F})
	}
	return nil
}
