package modelops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motionlab/gaittrack/internal/osim"
)

func baseModel() *osim.Model {
	return &osim.Model{
		Name: "walker",
		Coordinates: []*osim.Coordinate{
			{Name: "pelvis_tx", Joint: "groundPelvis", Motion: osim.MotionTranslational, Inertia: 60},
			{Name: "pelvis_tilt", Joint: "groundPelvis", Motion: osim.MotionRotational, Inertia: 5},
			{Name: "hip_flexion_r", Joint: "hip_r", Motion: osim.MotionRotational, Inertia: 2.5},
			{Name: "ankle_angle_r", Joint: "ankle_r", Motion: osim.MotionRotational, Inertia: 0.4},
		},
		Muscles: []*osim.Muscle{
			{Name: "soleus_r", Coordinate: "ankle_angle_r", MaxIsometricForce: 3500, CurveWidth: 1.0},
			{Name: "tib_ant_r", Coordinate: "ankle_angle_r", MaxIsometricForce: 900, CurveWidth: 1.0},
		},
		Actuators: []*osim.CoordinateActuator{
			{Name: "pelvis_tx_residual", Coordinate: "pelvis_tx", OptimalForce: 10},
			{Name: "pelvis_tilt_residual", Coordinate: "pelvis_tilt", OptimalForce: 1},
		},
	}
}

func TestProcessEmptyChainClonesBase(t *testing.T) {
	base := baseModel()
	m, err := NewProcessorFromModel(base).Process()
	require.NoError(t, err)

	m.RemoveMuscles()
	assert.Len(t, base.Muscles, 2, "processing must not mutate the base model")
}

func TestRemoveMusclesAndAddReserves(t *testing.T) {
	p := NewProcessorFromModel(baseModel())
	p.Append(RemoveMuscles{})
	p.Append(AddReserves{OptimalForce: 250})

	m, err := p.Process()
	require.NoError(t, err)

	assert.Empty(t, m.Muscles)
	// Pelvis residuals kept, the other two coordinates get reserves.
	require.Len(t, m.Actuators, 4)

	res, ok := m.Actuator("hip_flexion_r_reserve")
	require.True(t, ok)
	assert.Equal(t, 250.0, res.OptimalForce)

	// Residual strength untouched.
	residual, _ := m.Actuator("pelvis_tilt_residual")
	assert.Equal(t, 1.0, residual.OptimalForce)
}

func TestAddReservesRejectsNonPositiveForce(t *testing.T) {
	p := NewProcessorFromModel(baseModel())
	p.Append(AddReserves{OptimalForce: 0})
	_, err := p.Process()
	assert.Error(t, err)
}

func TestMuscleReplacementChain(t *testing.T) {
	p := NewProcessorFromModel(baseModel())
	p.Append(ReplaceMusclesWithDeGrooteFregly2016{})
	p.Append(IgnorePassiveFiberForces{})
	p.Append(ScaleActiveFiberForceCurveWidth{Scale: 1.5})

	m, err := p.Process()
	require.NoError(t, err)

	for _, mus := range m.Muscles {
		assert.True(t, mus.DeGrooteFregly, mus.Name)
		assert.True(t, mus.IgnorePassiveForce, mus.Name)
		assert.InDelta(t, 1.5, mus.CurveWidth, 1e-12, mus.Name)
		assert.Equal(t, 0.015, mus.ActivationTime, mus.Name)
	}
}

func TestDGFOnlyOpsRejectDefaultMuscles(t *testing.T) {
	for _, op := range []Operator{
		IgnorePassiveFiberForces{},
		ScaleActiveFiberForceCurveWidth{Scale: 1.5},
	} {
		p := NewProcessorFromModel(baseModel())
		p.Append(op)
		_, err := p.Process()
		assert.Error(t, err, op.Name())
		assert.Contains(t, err.Error(), op.Name())
	}
}

func TestAddExternalLoads(t *testing.T) {
	xml := `<ExternalLoads datafile="grf_walk.sto">
  <ExternalForce name="right" applied_to_body="calcn_r"
                 force_identifier="ground_force_r_v" point_identifier="ground_force_r_p"/>
</ExternalLoads>`
	path := filepath.Join(t.TempDir(), "grf_walk.xml")
	require.NoError(t, os.WriteFile(path, []byte(xml), 0644))

	p := NewProcessorFromModel(baseModel())
	p.Append(AddExternalLoads{Path: path})

	m, err := p.Process()
	require.NoError(t, err)
	require.NotNil(t, m.External)
	assert.Equal(t, "grf_walk.sto", m.External.DataFile)
	assert.Len(t, m.External.Forces, 1)
}

func TestOperatorErrorNamesOperator(t *testing.T) {
	p := NewProcessorFromModel(baseModel())
	p.Append(AddExternalLoads{Path: "does_not_exist.xml"})
	_, err := p.Process()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "add_external_loads")
}
