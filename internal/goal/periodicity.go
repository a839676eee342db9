package goal

import (
	"fmt"
	"strings"

	"github.com/motionlab/gaittrack/internal/dynamics"
	"github.com/motionlab/gaittrack/internal/osim"
)

// Pair relates a variable's final value to another's initial value. A pair
// with equal names makes the variable periodic with itself.
type Pair struct {
	First  string
	Second string
}

// NewPair builds a self-periodic pair.
func NewPair(name string) Pair { return Pair{First: name, Second: name} }

// Periodicity penalizes squared mismatch between final and initial values of
// paired state variables and controls, as used for half-gait-cycle symmetry.
type Periodicity struct {
	name   string
	weight float64
	model  *osim.Model

	statePairs   []Pair
	controlPairs []Pair
}

func NewPeriodicity(model *osim.Model, weight float64) *Periodicity {
	g := &Periodicity{name: "periodicity", weight: weight, model: model}
	if g.weight == 0 {
		g.weight = 1
	}
	return g
}

func (g *Periodicity) Name() string        { return g.name }
func (g *Periodicity) Weight() float64     { return g.weight }
func (g *Periodicity) SetWeight(w float64) { g.weight = w }

func (g *Periodicity) AddStatePair(p Pair)   { g.statePairs = append(g.statePairs, p) }
func (g *Periodicity) AddControlPair(p Pair) { g.controlPairs = append(g.controlPairs, p) }

// AddMirroredStatePairs pairs every _r coordinate value and speed with its _l
// counterpart (and vice versa), and makes the remaining coordinates
// self-periodic, excluding the forward-translation coordinate value.
func (g *Periodicity) AddMirroredStatePairs() {
	for _, c := range g.model.Coordinates {
		value, speed := c.ValueStateName(), c.SpeedStateName()
		switch {
		case strings.HasSuffix(c.Name, "_r"):
			g.AddStatePair(Pair{value, mirrorName(value)})
			g.AddStatePair(Pair{speed, mirrorName(speed)})
		case strings.HasSuffix(c.Name, "_l"):
			g.AddStatePair(Pair{value, mirrorNameL(value)})
			g.AddStatePair(Pair{speed, mirrorNameL(speed)})
		case strings.HasSuffix(c.Name, "_tx"):
			// Forward progression: only the speed is periodic.
			g.AddStatePair(NewPair(speed))
		default:
			g.AddStatePair(NewPair(value))
			g.AddStatePair(NewPair(speed))
		}
	}
	for _, mus := range g.model.Muscles {
		act := mus.ActivationStateName()
		switch {
		case strings.HasSuffix(mus.Name, "_r"):
			g.AddStatePair(Pair{act, mirrorName(act)})
		case strings.HasSuffix(mus.Name, "_l"):
			g.AddStatePair(Pair{act, mirrorNameL(act)})
		default:
			g.AddStatePair(NewPair(act))
		}
	}
}

func mirrorName(s string) string  { return swapSide(s, "_r", "_l") }
func mirrorNameL(s string) string { return swapSide(s, "_l", "_r") }

// swapSide flips the side suffix of each path segment, so an interior
// match like the "rot" in hip_rotation_r is left alone.
func swapSide(s, from, to string) string {
	parts := strings.Split(s, "/")
	for i, p := range parts {
		if strings.HasSuffix(p, from) {
			parts[i] = strings.TrimSuffix(p, from) + to
		}
	}
	return strings.Join(parts, "/")
}

func (g *Periodicity) Value(tr *dynamics.Trajectory) (float64, error) {
	if len(tr.States) < 2 {
		return 0, fmt.Errorf("goal %s: trajectory too short", g.name)
	}

	stateIndex := make(map[string]int)
	for i, n := range g.model.StateVariableNames() {
		stateIndex[n] = i
	}
	controlIndex := make(map[string]int)
	for i, n := range g.model.ControlNames() {
		controlIndex[n] = i
	}

	first := tr.States[0]
	last := tr.States[len(tr.States)-1]

	total := 0.0
	for _, p := range g.statePairs {
		i, ok := stateIndex[p.First]
		if !ok {
			return 0, fmt.Errorf("goal %s: unknown state %s", g.name, p.First)
		}
		j, ok := stateIndex[p.Second]
		if !ok {
			return 0, fmt.Errorf("goal %s: unknown state %s", g.name, p.Second)
		}
		d := last[i] - first[j]
		total += d * d
	}

	if len(g.controlPairs) > 0 && len(tr.Controls) >= 2 {
		firstU := tr.Controls[0]
		lastU := tr.Controls[len(tr.Controls)-1]
		for _, p := range g.controlPairs {
			i, ok := controlIndex[p.First]
			if !ok {
				return 0, fmt.Errorf("goal %s: unknown control %s", g.name, p.First)
			}
			j, ok := controlIndex[p.Second]
			if !ok {
				return 0, fmt.Errorf("goal %s: unknown control %s", g.name, p.Second)
			}
			d := lastU[i] - firstU[j]
			total += d * d
		}
	}

	n := len(g.statePairs) + len(g.controlPairs)
	if n == 0 {
		return 0, nil
	}
	return g.weight * total / float64(n), nil
}
