package goal

import (
	"fmt"
	"math"

	"github.com/motionlab/gaittrack/internal/dynamics"
	"github.com/motionlab/gaittrack/internal/osim"
)

// ControlEffort integrates a power of the control magnitudes over the
// trajectory. Every tracking problem carries one under the name
// "control_effort".
type ControlEffort struct {
	name     string
	weight   float64
	exponent float64
	divide   bool

	model          *osim.Model
	controlWeights map[string]float64
	displIndex     int
}

// NewControlEffort builds the default effort goal for a model.
func NewControlEffort(model *osim.Model, weight float64) *ControlEffort {
	g := &ControlEffort{
		name:           "control_effort",
		weight:         weight,
		exponent:       2,
		model:          model,
		controlWeights: make(map[string]float64),
		displIndex:     -1,
	}
	if g.weight == 0 {
		g.weight = 1
	}
	// Displacement divides by the first translational coordinate's excursion.
	for i, c := range model.Coordinates {
		if c.Motion == osim.MotionTranslational {
			g.displIndex = i
			break
		}
	}
	return g
}

func (g *ControlEffort) Name() string        { return g.name }
func (g *ControlEffort) Weight() float64     { return g.weight }
func (g *ControlEffort) SetWeight(w float64) { g.weight = w }

// SetExponent changes the control magnitude exponent (default 2).
func (g *ControlEffort) SetExponent(p float64) { g.exponent = p }

// SetDivideByDisplacement normalizes effort by forward displacement.
func (g *ControlEffort) SetDivideByDisplacement(on bool) { g.divide = on }

// SetWeightForControl sets the weight for a single control path.
func (g *ControlEffort) SetWeightForControl(path string, w float64) {
	g.controlWeights[path] = w
}

// WeightForControl returns the weight for a control path (default 1).
func (g *ControlEffort) WeightForControl(path string) float64 {
	if w, ok := g.controlWeights[path]; ok {
		return w
	}
	return 1
}

func (g *ControlEffort) Value(tr *dynamics.Trajectory) (float64, error) {
	if len(tr.Controls) == 0 {
		return 0, nil
	}
	paths := g.model.ControlNames()

	total := 0.0
	for _, u := range tr.Controls {
		if len(u) != len(paths) {
			return 0, fmt.Errorf("goal %s: control dim %d, model has %d controls", g.name, len(u), len(paths))
		}
		for c, v := range u {
			total += g.WeightForControl(paths[c]) * math.Pow(math.Abs(v), g.exponent)
		}
	}
	total /= float64(len(tr.Controls))

	if g.divide {
		if g.displIndex < 0 {
			return 0, fmt.Errorf("goal %s: divide-by-displacement needs a translational coordinate", g.name)
		}
		first := tr.States[0][g.displIndex]
		last := tr.States[len(tr.States)-1][g.displIndex]
		displ := math.Abs(last - first)
		if displ < 1e-9 {
			displ = 1e-9
		}
		total /= displ
	}
	return g.weight * total, nil
}
