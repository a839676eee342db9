package goal

import (
	"fmt"

	"github.com/motionlab/gaittrack/internal/dynamics"
	"github.com/motionlab/gaittrack/internal/osim"
)

// AverageSpeed penalizes squared deviation of a coordinate's average speed
// from a desired value, used to prescribe gait speed in predictive problems.
type AverageSpeed struct {
	name    string
	weight  float64
	index   int
	desired float64
}

// NewAverageSpeed builds the goal for a model coordinate.
func NewAverageSpeed(model *osim.Model, coordinate string, desired float64) (*AverageSpeed, error) {
	idx, ok := model.CoordinateIndex(coordinate)
	if !ok {
		return nil, fmt.Errorf("goal average_speed: unknown coordinate %s", coordinate)
	}
	c, _ := model.Coordinate(coordinate)
	if c.Motion != osim.MotionTranslational {
		return nil, fmt.Errorf("goal average_speed: coordinate %s is not translational", coordinate)
	}
	return &AverageSpeed{name: "average_speed", weight: 1, index: idx, desired: desired}, nil
}

func (g *AverageSpeed) Name() string        { return g.name }
func (g *AverageSpeed) Weight() float64     { return g.weight }
func (g *AverageSpeed) SetWeight(w float64) { g.weight = w }

func (g *AverageSpeed) Value(tr *dynamics.Trajectory) (float64, error) {
	dur := tr.Duration()
	if dur <= 0 {
		return 0, fmt.Errorf("goal %s: trajectory has no duration", g.name)
	}
	first := tr.States[0][g.index]
	last := tr.States[len(tr.States)-1][g.index]
	avg := (last - first) / dur
	d := avg - g.desired
	return g.weight * d * d, nil
}
