package config

var Presets = map[string]map[string]*Config{
	"torque-driven-marker-tracking": {
		"paper": {
			Study: "torque-driven-marker-tracking", MeshInterval: 0.05,
			InitialTime: 0.81, FinalTime: 1.65, MaxIterations: 200, Tolerance: 1e-4,
		},
		"coarse": {
			Study: "torque-driven-marker-tracking", MeshInterval: 0.1,
			InitialTime: 0.81, FinalTime: 1.65, MaxIterations: 50, Tolerance: 1e-3,
		},
		"fine": {
			Study: "torque-driven-marker-tracking", MeshInterval: 0.025,
			InitialTime: 0.81, FinalTime: 1.65, MaxIterations: 500, Tolerance: 1e-5,
		},
	},
	"muscle-driven-state-tracking": {
		"paper": {
			Study: "muscle-driven-state-tracking", MeshInterval: 0.08,
			InitialTime: 0.81, FinalTime: 1.65, MaxIterations: 200, Tolerance: 1e-4,
		},
		"coarse": {
			Study: "muscle-driven-state-tracking", MeshInterval: 0.16,
			InitialTime: 0.81, FinalTime: 1.65, MaxIterations: 50, Tolerance: 1e-3,
		},
		"half-cycle": {
			Study: "muscle-driven-state-tracking", MeshInterval: 0.08,
			InitialTime: 0.81, FinalTime: 1.23, MaxIterations: 200, Tolerance: 1e-4,
		},
	},
}

func GetPreset(study, preset string) *Config {
	studyPresets, ok := Presets[study]
	if !ok {
		return nil
	}
	cfg, ok := studyPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(study string) []string {
	studyPresets, ok := Presets[study]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(studyPresets))
	for name := range studyPresets {
		names = append(names, name)
	}
	return names
}
