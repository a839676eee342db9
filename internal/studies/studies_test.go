package studies

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motionlab/gaittrack/internal/goal"
)

const gaitModelXML = `<Model name="subject_walk_armless">
  <JointSet>
    <Joint name="groundPelvis" parent="ground" child="pelvis">
      <Coordinate name="pelvis_tx" motion="translational" range="0 2" inertia="60"/>
      <Coordinate name="pelvis_tilt" range="-0.35 0.35" inertia="5"/>
    </Joint>
    <Joint name="hip_r" parent="pelvis" child="femur_r">
      <Coordinate name="hip_flexion_r" range="-0.17 1.05" inertia="2.5" damping="0.5"/>
    </Joint>
    <Joint name="ankle_r" parent="tibia_r" child="talus_r">
      <Coordinate name="ankle_angle_r" range="-0.26 0.44" inertia="0.4"/>
    </Joint>
  </JointSet>
  <ForceSet>
    <Muscle name="soleus_r" coordinate="ankle_angle_r" max_isometric_force="3500"
            optimal_fiber_length="0.05" tendon_slack_length="0.25" moment_arm="-0.04"/>
    <CoordinateActuator name="pelvis_tx_residual" coordinate="pelvis_tx" optimal_force="10"/>
    <CoordinateActuator name="pelvis_tilt_residual" coordinate="pelvis_tilt" optimal_force="1"/>
    <CoordinateActuator name="hip_r_actuator" coordinate="hip_flexion_r" optimal_force="100"/>
  </ForceSet>
  <MarkerSet>
    <Marker name="R.ASIS" body="pelvis" coordinate="pelvis_tx" location="0.02 1.0 0.13"/>
    <Marker name="R.Knee" body="femur_r" coordinate="hip_flexion_r" location="0.0 0.5 0.1" segment_length="0.4"/>
  </MarkerSet>
</Model>`

const gaitLoadsXML = `<ExternalLoads name="walk" datafile="grf_walk.sto">
  <ExternalForce name="right" applied_to_body="calcn_r" force_identifier="ground_force_r_v" point_identifier="ground_force_r_p"/>
  <ExternalForce name="left" applied_to_body="calcn_l" force_identifier="ground_force_l_v" point_identifier="ground_force_l_p"/>
</ExternalLoads>`

// writeGaitData lays out a data directory with the four expected input files.
func writeGaitData(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write(ModelFile, gaitModelXML)
	write(ExternalLoadsFile, gaitLoadsXML)

	var trc strings.Builder
	trc.WriteString("PathFileType\t4\t(X/Y/Z)\tmarker_trajectories.trc\n")
	trc.WriteString("DataRate\tCameraRate\tNumFrames\tNumMarkers\tUnits\n")
	trc.WriteString("100\t100\t10\t2\tmm\n")
	trc.WriteString("Frame#\tTime\tR.ASIS\tR.Knee\n")
	for i := 0; i < 10; i++ {
		tm := 0.75 + 0.1*float64(i)
		fmt.Fprintf(&trc, "%d\t%.2f\t%.1f\t1000.0\t130.0\t%.1f\t500.0\t100.0\n",
			i+1, tm, 20.0+float64(i), float64(i))
	}
	write(MarkerFile, trc.String())

	var sto strings.Builder
	sto.WriteString("coordinates\nversion=1\nnRows=10\nnColumns=5\ninDegrees=no\nendheader\n")
	sto.WriteString("time\t/jointset/groundPelvis/pelvis_tx/value\t/jointset/groundPelvis/pelvis_tilt/value\t/jointset/hip_r/hip_flexion_r/value\t/jointset/ankle_r/ankle_angle_r/value\n")
	for i := 0; i < 10; i++ {
		tm := 0.75 + 0.1*float64(i)
		fmt.Fprintf(&sto, "%.2f\t%.4f\t%.4f\t%.4f\t%.4f\n",
			tm, 0.1*float64(i), 0.01, 0.2, -0.05)
	}
	write(CoordinatesFile, sto.String())

	return dir
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{
		"muscle-driven-state-tracking",
		"torque-driven-marker-tracking",
	}, r.List())

	_, err := r.Get("torque-driven-marker-tracking")
	assert.NoError(t, err)
	_, err = r.Get("nope")
	assert.Error(t, err)
}

func TestBuildTorqueDrivenMarkerTracking(t *testing.T) {
	s, err := BuildTorqueDrivenMarkerTracking(Params{DataDir: writeGaitData(t)})
	require.NoError(t, err)

	assert.Equal(t, 0.05, s.MeshInterval)
	t0, t1 := s.Problem().TimeBounds()
	assert.Equal(t, 0.81, t0)
	assert.Equal(t, 1.65, t1)

	model := s.Problem().Model()
	assert.Empty(t, model.Muscles, "torque-driven study strips muscles")
	require.NotNil(t, model.External)

	// Residuals keep their strength; the other coordinates get reserves.
	names := model.ControlNames()
	assert.Contains(t, names, "/forceset/pelvis_tx_residual")
	assert.Contains(t, names, "/forceset/ankle_angle_r_reserve")

	g, ok := s.Problem().UpdGoal("marker_tracking")
	require.True(t, ok)
	assert.Equal(t, 10.0, g.Weight())
}

func TestBuildMuscleDrivenStateTracking(t *testing.T) {
	s, err := BuildMuscleDrivenStateTracking(Params{DataDir: writeGaitData(t)})
	require.NoError(t, err)

	assert.Equal(t, 0.08, s.MeshInterval)

	model := s.Problem().Model()
	require.Len(t, model.Muscles, 1)
	mus := model.Muscles[0]
	assert.True(t, mus.DeGrooteFregly)
	assert.True(t, mus.IgnorePassiveForce)
	assert.InDelta(t, 1.5, mus.CurveWidth, 1e-12)

	g, ok := s.Problem().UpdGoal("state_tracking")
	require.True(t, ok)
	assert.Equal(t, 10.0, g.Weight())

	eg, ok := s.Problem().UpdGoal("control_effort")
	require.True(t, ok)
	effort := eg.(*goal.ControlEffort)
	assert.Equal(t, 10.0, effort.WeightForControl("/forceset/pelvis_tx_residual"))
	assert.Equal(t, 10.0, effort.WeightForControl("/forceset/pelvis_tilt_residual"))
	assert.Equal(t, 1.0, effort.WeightForControl("/forceset/hip_r_actuator"))
}

func TestParamsOverrideDefaults(t *testing.T) {
	s, err := BuildTorqueDrivenMarkerTracking(Params{
		DataDir:       writeGaitData(t),
		MeshInterval:  0.1,
		InitialTime:   0.9,
		FinalTime:     1.4,
		MaxIterations: 7,
	})
	require.NoError(t, err)

	assert.Equal(t, 0.1, s.MeshInterval)
	assert.Equal(t, 7, s.MaxIterations)
	t0, t1 := s.Problem().TimeBounds()
	assert.Equal(t, 0.9, t0)
	assert.Equal(t, 1.4, t1)
}
