package integrators

import (
	"testing"

	"github.com/motionlab/gaittrack/internal/dynamics"
)

type benchSystem struct{}

func (b *benchSystem) StateDim() int   { return 2 }
func (b *benchSystem) ControlDim() int { return 0 }
func (b *benchSystem) Derive(x dynamics.State, u dynamics.Control, t float64) dynamics.State {
	return dynamics.State{x[1], -x[0]}
}

func BenchmarkEuler(b *testing.B) {
	integ := NewEuler()
	sys := &benchSystem{}
	x := dynamics.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integ.Step(sys, x, nil, 0, 0.01)
	}
}

func BenchmarkRK4(b *testing.B) {
	integ := NewRK4()
	sys := &benchSystem{}
	x := dynamics.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integ.Step(sys, x, nil, 0, 0.01)
	}
}
