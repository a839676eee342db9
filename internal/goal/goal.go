// Package goal defines the objective terms a tracking problem minimizes:
// marker and state tracking against reference data, control effort, and the
// periodicity and average-speed goals used by gait prediction.
package goal

import "github.com/motionlab/gaittrack/internal/dynamics"

// Goal is a scalar objective term evaluated on a candidate trajectory. The
// returned value already includes the goal's weight.
type Goal interface {
	Name() string
	Weight() float64
	SetWeight(w float64)
	Value(tr *dynamics.Trajectory) (float64, error)
}

// Weight is a named weight entry in a WeightSet.
type Weight struct {
	Name   string
	Weight float64
}

// WeightSet holds named weights with a default of 1 for absent names.
type WeightSet struct {
	entries []Weight
}

// CloneAndAppend appends a copy of the entry, shadowing any earlier entry
// with the same name.
func (ws *WeightSet) CloneAndAppend(w Weight) {
	ws.entries = append(ws.entries, w)
}

func (ws *WeightSet) Get(name string) float64 {
	for i := len(ws.entries) - 1; i >= 0; i-- {
		if ws.entries[i].Name == name {
			return ws.entries[i].Weight
		}
	}
	return 1
}

func (ws *WeightSet) Len() int {
	if ws == nil {
		return 0
	}
	return len(ws.entries)
}

func (ws *WeightSet) Clone() *WeightSet {
	if ws == nil {
		return &WeightSet{}
	}
	return &WeightSet{entries: append([]Weight(nil), ws.entries...)}
}
