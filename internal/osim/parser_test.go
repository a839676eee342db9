package osim

import (
	"os"
	"path/filepath"
	"testing"
)

const testModelXML = `<Model name="walker">
  <JointSet>
    <Joint name="groundPelvis" parent="ground" child="pelvis">
      <Coordinate name="pelvis_tx" motion="translational" range="0 2" inertia="60"/>
      <Coordinate name="pelvis_ty" motion="translational" range="0.5 1.5" default="1.0" inertia="60"/>
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
  </ForceSet>
  <MarkerSet>
    <Marker name="R.ASIS" body="pelvis" coordinate="pelvis_tx" location="0.02 1.0 0.13"/>
    <Marker name="R.Knee" body="femur_r" coordinate="hip_flexion_r" location="0.0 0.5 0.1" segment_length="0.4"/>
  </MarkerSet>
</Model>`

func writeTestModel(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "walker.osim")
	if err := os.WriteFile(path, []byte(testModelXML), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadModel(t *testing.T) {
	m, err := LoadModel(writeTestModel(t))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if m.Name != "walker" {
		t.Errorf("expected model name walker, got %s", m.Name)
	}
	if len(m.Coordinates) != 5 {
		t.Errorf("expected 5 coordinates, got %d", len(m.Coordinates))
	}
	if len(m.Muscles) != 1 {
		t.Errorf("expected 1 muscle, got %d", len(m.Muscles))
	}
	if len(m.Actuators) != 2 {
		t.Errorf("expected 2 actuators, got %d", len(m.Actuators))
	}
	if len(m.Markers) != 2 {
		t.Errorf("expected 2 markers, got %d", len(m.Markers))
	}

	coord, ok := m.Coordinate("hip_flexion_r")
	if !ok {
		t.Fatal("hip_flexion_r not found")
	}
	if coord.Joint != "hip_r" {
		t.Errorf("expected joint hip_r, got %s", coord.Joint)
	}
	if coord.Path() != "/jointset/hip_r/hip_flexion_r" {
		t.Errorf("unexpected path %s", coord.Path())
	}
	if coord.Range[0] != -0.17 || coord.Range[1] != 1.05 {
		t.Errorf("unexpected range %v", coord.Range)
	}
	if coord.Damping != 0.5 {
		t.Errorf("expected damping 0.5, got %f", coord.Damping)
	}

	mus := m.Muscles[0]
	if mus.MaxIsometricForce != 3500 {
		t.Errorf("expected Fmax 3500, got %f", mus.MaxIsometricForce)
	}
	if mus.MomentArm != -0.04 {
		t.Errorf("expected moment arm -0.04, got %f", mus.MomentArm)
	}
	if mus.ActivationTime != 0.015 {
		t.Errorf("expected default activation time, got %f", mus.ActivationTime)
	}
}

func TestLoadModelErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		xml  string
	}{
		{"no coordinates", `<Model name="empty"><JointSet/></Model>`},
		{"muscle unknown coordinate", `<Model name="m">
			<JointSet><Joint name="j"><Coordinate name="q" range="0 1"/></Joint></JointSet>
			<ForceSet><Muscle name="mus" coordinate="nope"/></ForceSet></Model>`},
		{"actuator unknown coordinate", `<Model name="m">
			<JointSet><Joint name="j"><Coordinate name="q" range="0 1"/></Joint></JointSet>
			<ForceSet><CoordinateActuator name="act" coordinate="nope"/></ForceSet></Model>`},
		{"inverted range", `<Model name="m">
			<JointSet><Joint name="j"><Coordinate name="q" range="1 0"/></Joint></JointSet></Model>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "bad.osim")
			if err := os.WriteFile(path, []byte(tt.xml), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadModel(path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadExternalLoads(t *testing.T) {
	xml := `<ExternalLoads datafile="grf_walk.sto">
  <ExternalForce name="right" applied_to_body="calcn_r"
                 force_identifier="ground_force_r_v" point_identifier="ground_force_r_p"/>
  <ExternalForce name="left" applied_to_body="calcn_l"
                 force_identifier="ground_force_l_v" point_identifier="ground_force_l_p"/>
</ExternalLoads>`

	path := filepath.Join(t.TempDir(), "grf_walk.xml")
	if err := os.WriteFile(path, []byte(xml), 0644); err != nil {
		t.Fatal(err)
	}

	ext, err := LoadExternalLoads(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if ext.DataFile != "grf_walk.sto" {
		t.Errorf("expected datafile grf_walk.sto, got %s", ext.DataFile)
	}
	if len(ext.Forces) != 2 {
		t.Fatalf("expected 2 forces, got %d", len(ext.Forces))
	}
	if ext.Forces[0].AppliedToBody != "calcn_r" {
		t.Errorf("unexpected body %s", ext.Forces[0].AppliedToBody)
	}
}
