package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/motionlab/gaittrack/internal/solver"
	"github.com/motionlab/gaittrack/internal/study"
	"github.com/motionlab/gaittrack/internal/table"
)

const solutionFile = "solution.sto"

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID           string             `json:"id"`
	Study        string             `json:"study"`
	Timestamp    time.Time          `json:"timestamp"`
	MeshInterval float64            `json:"mesh_interval"`
	InitialTime  float64            `json:"initial_time"`
	FinalTime    float64            `json:"final_time"`
	Iterations   int                `json:"iterations"`
	Objective    float64            `json:"objective"`
	Converged    bool               `json:"converged"`
	RuntimeSec   float64            `json:"runtime_sec"`
	GoalValues   map[string]float64 `json:"goal_values"`
}

// Save writes a run directory holding metadata.json and the solution
// trajectory as an STO file, and returns the run ID.
func (s *Store) Save(studyName string, st *study.Study, sol *solver.Solution) (string, error) {
	runID := fmt.Sprintf("%s_%d", studyName, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	t0, t1 := st.Problem().TimeBounds()
	meta := RunMetadata{
		ID:           runID,
		Study:        studyName,
		Timestamp:    time.Now(),
		MeshInterval: st.MeshInterval,
		InitialTime:  t0,
		FinalTime:    t1,
		Iterations:   sol.Iterations,
		Objective:    sol.Objective,
		Converged:    sol.Converged,
		RuntimeSec:   sol.Runtime.Seconds(),
		GoalValues:   sol.GoalValues,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := st.WriteSolution(sol, filepath.Join(runDir, solutionFile)); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadSolution reads a stored run's trajectory table.
func (s *Store) LoadSolution(runID string) (*table.Table, error) {
	return table.ReadSTO(filepath.Join(s.baseDir, runID, solutionFile))
}
