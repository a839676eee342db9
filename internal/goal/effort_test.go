package goal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motionlab/gaittrack/internal/dynamics"
)

func effortTrajectory(stateDim, n int, u dynamics.Control) *dynamics.Trajectory {
	tr := &dynamics.Trajectory{}
	for i := 0; i < n; i++ {
		tr.Times = append(tr.Times, float64(i)*0.05)
		tr.States = append(tr.States, make(dynamics.State, stateDim))
		tr.Controls = append(tr.Controls, append(dynamics.Control(nil), u...))
	}
	return tr
}

func TestControlEffortValue(t *testing.T) {
	model := gaitModel()
	g := NewControlEffort(model, 1)
	assert.Equal(t, "control_effort", g.Name())

	tr := effortTrajectory(4, 10, dynamics.Control{0.5, 0.2})
	v, err := g.Value(tr)
	require.NoError(t, err)
	// 0.5^2 + 0.2^2 at every sample.
	assert.InDelta(t, 0.29, v, 1e-9)
}

func TestControlEffortPerControlWeight(t *testing.T) {
	model := gaitModel()
	g := NewControlEffort(model, 1)
	g.SetWeightForControl("/forceset/pelvis_tx_residual", 10)

	tr := effortTrajectory(4, 10, dynamics.Control{0.5, 0.2})
	v, err := g.Value(tr)
	require.NoError(t, err)
	assert.InDelta(t, 10*0.25+0.04, v, 1e-9)

	assert.Equal(t, 10.0, g.WeightForControl("/forceset/pelvis_tx_residual"))
	assert.Equal(t, 1.0, g.WeightForControl("/forceset/hip_flexion_r_reserve"))
}

func TestControlEffortExponent(t *testing.T) {
	model := gaitModel()
	g := NewControlEffort(model, 1)
	g.SetExponent(3)

	tr := effortTrajectory(4, 5, dynamics.Control{-0.5, 0})
	v, err := g.Value(tr)
	require.NoError(t, err)
	// |-0.5|^3 = 0.125; the magnitude is taken before the power.
	assert.InDelta(t, 0.125, v, 1e-9)
}

func TestControlEffortDivideByDisplacement(t *testing.T) {
	model := gaitModel()
	g := NewControlEffort(model, 1)
	g.SetDivideByDisplacement(true)

	tr := effortTrajectory(4, 10, dynamics.Control{1, 0})
	// Pelvis advances 2 m over the window.
	for i := range tr.States {
		tr.States[i][0] = 2 * float64(i) / float64(len(tr.States)-1)
	}
	v, err := g.Value(tr)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, v, 1e-9)
}

func TestControlEffortDimensionMismatch(t *testing.T) {
	model := gaitModel()
	g := NewControlEffort(model, 1)
	tr := effortTrajectory(4, 3, dynamics.Control{1})
	_, err := g.Value(tr)
	assert.Error(t, err)
}
