// Package study assembles a tracking problem (model, goals, bounds, time
// window) with solver settings and runs the optimization.
package study

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/motionlab/gaittrack/internal/dynamics"
	"github.com/motionlab/gaittrack/internal/goal"
	"github.com/motionlab/gaittrack/internal/osim"
	"github.com/motionlab/gaittrack/internal/solver"
	"github.com/motionlab/gaittrack/internal/table"
)

// Bounds is a closed interval constraint on a state variable.
type Bounds struct {
	Lower float64
	Upper float64
}

// Problem is the optimization problem: a model with its dynamics, a time
// window, an initial state, named goals, and per-state bound info.
type Problem struct {
	model  *osim.Model
	system *dynamics.Skeletal

	t0, t1  float64
	initial dynamics.State

	goals       []goal.Goal
	stateBounds map[string]Bounds
}

// NewProblem builds the problem around a processed model.
func NewProblem(model *osim.Model) (*Problem, error) {
	sys, err := dynamics.NewSkeletal(model)
	if err != nil {
		return nil, err
	}
	return &Problem{
		model:       model,
		system:      sys,
		initial:     sys.InitialState(),
		stateBounds: make(map[string]Bounds),
	}, nil
}

func (p *Problem) Model() *osim.Model         { return p.model }
func (p *Problem) System() *dynamics.Skeletal { return p.system }

// SetTimeBounds fixes the trajectory's time window.
func (p *Problem) SetTimeBounds(t0, t1 float64) error {
	if t1 <= t0 {
		return fmt.Errorf("study: empty time window [%g, %g]", t0, t1)
	}
	p.t0, p.t1 = t0, t1
	return nil
}

func (p *Problem) TimeBounds() (float64, float64) { return p.t0, p.t1 }

// SetInitialState overrides the default-pose initial state.
func (p *Problem) SetInitialState(x dynamics.State) error {
	if len(x) != p.system.StateDim() {
		return dynamics.ErrDimensionMismatch
	}
	p.initial = x.Clone()
	return nil
}

func (p *Problem) InitialState() dynamics.State { return p.initial.Clone() }

// SetStateInfo records bound info for a state variable by its path name.
func (p *Problem) SetStateInfo(name string, b Bounds) error {
	if b.Upper < b.Lower {
		return fmt.Errorf("study: inverted bounds for %s", name)
	}
	found := false
	for _, n := range p.model.StateVariableNames() {
		if n == name {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("study: unknown state %s", name)
	}
	p.stateBounds[name] = b
	return nil
}

// AddGoal registers a goal. Goal names must be unique so UpdGoal can find
// them for post-assembly weight adjustment.
func (p *Problem) AddGoal(g goal.Goal) error {
	for _, existing := range p.goals {
		if existing.Name() == g.Name() {
			return fmt.Errorf("study: duplicate goal %s", g.Name())
		}
	}
	p.goals = append(p.goals, g)
	return nil
}

// UpdGoal returns the named goal for mutation, or false if absent.
func (p *Problem) UpdGoal(name string) (goal.Goal, bool) {
	for _, g := range p.goals {
		if g.Name() == name {
			return g, true
		}
	}
	return nil, false
}

func (p *Problem) Goals() []goal.Goal { return p.goals }

// boundViolations lists state-bound breaches along a trajectory.
func (p *Problem) boundViolations(tr *dynamics.Trajectory) []string {
	if len(p.stateBounds) == 0 {
		return nil
	}
	names := p.model.StateVariableNames()
	var out []string
	for i, n := range names {
		b, ok := p.stateBounds[n]
		if !ok {
			continue
		}
		for _, x := range tr.States {
			if x[i] < b.Lower || x[i] > b.Upper {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

// Study couples a problem with solver settings.
type Study struct {
	problem *Problem

	MeshInterval         float64
	ConvergenceTolerance float64
	MaxIterations        int

	Logger   *zap.Logger
	Progress func(solver.ProgressUpdate)
}

func New(p *Problem) *Study {
	return &Study{
		problem:              p,
		MeshInterval:         0.02,
		ConvergenceTolerance: 1e-4,
		MaxIterations:        200,
	}
}

func (s *Study) Problem() *Problem { return s.problem }

// Solve runs the optimizer over the problem's time window.
func (s *Study) Solve(ctx context.Context) (*solver.Solution, error) {
	p := s.problem
	if p.t1 <= p.t0 {
		return nil, errors.New("study: time bounds not set")
	}
	if len(p.goals) == 0 {
		return nil, errors.New("study: no goals in problem")
	}

	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}

	sv, err := solver.New(p.system, p.goals, solver.Options{
		MeshInterval:  s.MeshInterval,
		MaxIterations: s.MaxIterations,
		Tolerance:     s.ConvergenceTolerance,
		Logger:        log,
		Progress:      s.Progress,
	})
	if err != nil {
		return nil, err
	}

	sol, err := sv.Solve(ctx, p.initial, p.t0, p.t1)
	if sol != nil {
		for _, name := range p.boundViolations(sol.Trajectory) {
			log.Warn("state bound violated", zap.String("state", name))
		}
	}
	return sol, err
}

// SolutionTable lays the trajectory out as a time-indexed table with one
// column per state variable and control.
func (s *Study) SolutionTable(sol *solver.Solution) *table.Table {
	tr := sol.Trajectory
	t := &table.Table{Times: append([]float64(nil), tr.Times...)}

	for i, name := range s.problem.model.StateVariableNames() {
		col := make([]float64, len(tr.States))
		for k, x := range tr.States {
			col[k] = x[i]
		}
		t.Labels = append(t.Labels, name)
		t.Columns = append(t.Columns, col)
	}
	for i, name := range s.problem.model.ControlNames() {
		col := make([]float64, len(tr.Controls))
		for k, u := range tr.Controls {
			col[k] = u[i]
		}
		t.Labels = append(t.Labels, name)
		t.Columns = append(t.Columns, col)
	}
	return t
}

// WriteSolution writes the trajectory as an STO file.
func (s *Study) WriteSolution(sol *solver.Solution, path string) error {
	return table.WriteSTO(path, s.problem.model.Name+"_solution", s.SolutionTable(sol))
}
