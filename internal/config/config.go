package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMeshInterval  = 0.02
	DefaultMaxIterations = 200
	DefaultTolerance     = 1e-4
	DefaultEffortWeight  = 0.001
	DefaultDataDir       = "data"
	DefaultResultsDir    = "results"
)

type Config struct {
	Study      string `yaml:"study"`
	DataDir    string `yaml:"data_dir"`
	ResultsDir string `yaml:"results_dir"`

	MeshInterval  float64 `yaml:"mesh_interval"`
	InitialTime   float64 `yaml:"initial_time"`
	FinalTime     float64 `yaml:"final_time"`
	MaxIterations int     `yaml:"max_iterations"`
	Tolerance     float64 `yaml:"convergence_tolerance"`

	Tracking TrackingConfig `yaml:"tracking"`
}

type TrackingConfig struct {
	GlobalWeight          float64 `yaml:"global_weight"`
	ControlEffortWeight   float64 `yaml:"control_effort_weight"`
	AllowUnusedReferences bool    `yaml:"allow_unused_references"`
}

func DefaultConfig() *Config {
	return &Config{
		Study:         "torque-driven-marker-tracking",
		DataDir:       DefaultDataDir,
		ResultsDir:    DefaultResultsDir,
		MeshInterval:  DefaultMeshInterval,
		MaxIterations: DefaultMaxIterations,
		Tolerance:     DefaultTolerance,
		Tracking: TrackingConfig{
			GlobalWeight:          10,
			ControlEffortWeight:   DefaultEffortWeight,
			AllowUnusedReferences: true,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.MeshInterval <= 0 {
		return fmt.Errorf("config: mesh interval must be positive, got %g", c.MeshInterval)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("config: max iterations must be positive, got %d", c.MaxIterations)
	}
	if c.FinalTime < c.InitialTime {
		return fmt.Errorf("config: final time %g before initial time %g", c.FinalTime, c.InitialTime)
	}
	return nil
}
