package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Study != "torque-driven-marker-tracking" {
		t.Errorf("unexpected default study %s", cfg.Study)
	}
	if cfg.MeshInterval <= 0 {
		t.Error("mesh interval should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "study: muscle-driven-state-tracking\nmesh_interval: 0.08\nfinal_time: 1.65\ninitial_time: 0.81\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Study != "muscle-driven-state-tracking" {
		t.Errorf("study not overridden: %s", cfg.Study)
	}
	if cfg.MeshInterval != 0.08 {
		t.Errorf("mesh interval not overridden: %g", cfg.MeshInterval)
	}
	if cfg.MaxIterations != DefaultMaxIterations {
		t.Errorf("unset field should keep default, got %d", cfg.MaxIterations)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("mesh_interval: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected validation error for negative mesh interval")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.MeshInterval = 0.05

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.MeshInterval != 0.05 {
		t.Errorf("round trip lost mesh interval: %g", got.MeshInterval)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("torque-driven-marker-tracking", "paper")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.MeshInterval != 0.05 {
		t.Errorf("expected mesh interval 0.05, got %g", cfg.MeshInterval)
	}

	if GetPreset("torque-driven-marker-tracking", "nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("nonexistent", "paper") != nil {
		t.Error("expected nil for nonexistent study")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("muscle-driven-state-tracking")
	if len(presets) == 0 {
		t.Error("expected presets for muscle study")
	}
	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for unknown study")
	}
}
