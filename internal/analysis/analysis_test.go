package analysis

import (
	"math"
	"testing"

	"github.com/motionlab/gaittrack/internal/table"
)

func sineTable(freqHz, sampleHz float64, n int) *table.Table {
	times := make([]float64, n)
	col := make([]float64, n)
	speed := make([]float64, n)
	for i := range times {
		t := float64(i) / sampleHz
		times[i] = t
		col[i] = 0.4 * math.Sin(2*math.Pi*freqHz*t)
		speed[i] = 0.4 * 2 * math.Pi * freqHz * math.Cos(2*math.Pi*freqHz*t)
	}
	return &table.Table{
		Times:   times,
		Labels:  []string{"hip", "hip_speed"},
		Columns: [][]float64{col, speed},
	}
}

func TestDominantFrequency(t *testing.T) {
	tbl := sineTable(1.25, 100, 512)
	got := DominantFrequency(tbl.Times, tbl.Columns[0])
	if math.Abs(got-1.25) > 0.2 {
		t.Errorf("expected dominant frequency near 1.25 Hz, got %f", got)
	}
}

func TestDominantFrequencyDegenerate(t *testing.T) {
	if f := DominantFrequency(nil, nil); f != 0 {
		t.Errorf("expected 0 for empty input, got %f", f)
	}
	if f := DominantFrequency([]float64{1}, []float64{2}); f != 0 {
		t.Errorf("expected 0 for single sample, got %f", f)
	}
}

func TestSummary(t *testing.T) {
	tbl := sineTable(1.0, 50, 100)
	stats := Summary(tbl)
	if len(stats) != 2 {
		t.Fatalf("expected 2 column summaries, got %d", len(stats))
	}
	hip := stats[0]
	if hip.Label != "hip" {
		t.Errorf("unexpected label %s", hip.Label)
	}
	if math.Abs(hip.Range-0.8) > 0.05 {
		t.Errorf("expected range near 0.8, got %f", hip.Range)
	}
	if hip.RMS <= 0 {
		t.Error("RMS should be positive for a sine")
	}
}

func TestAverageSpeed(t *testing.T) {
	tbl := &table.Table{
		Times:   []float64{0, 0.5, 1.0},
		Labels:  []string{"tx"},
		Columns: [][]float64{{0, 0.6, 1.2}},
	}
	v, ok := AverageSpeed(tbl, "tx")
	if !ok {
		t.Fatal("expected speed estimate")
	}
	if math.Abs(v-1.2) > 1e-12 {
		t.Errorf("expected 1.2 m/s, got %f", v)
	}
	if _, ok := AverageSpeed(tbl, "missing"); ok {
		t.Error("expected false for missing column")
	}
}

func TestResidualRMS(t *testing.T) {
	tbl := &table.Table{
		Times:  []float64{0, 1},
		Labels: []string{"/forceset/pelvis_tx_residual", "/forceset/hip_act"},
		Columns: [][]float64{
			{3, 4},
			{1, 1},
		},
	}
	out := ResidualRMS(tbl, "pelvis")
	if len(out) != 1 {
		t.Fatalf("expected 1 residual column, got %d", len(out))
	}
	want := math.Sqrt((9.0 + 16.0) / 2.0)
	if math.Abs(out["/forceset/pelvis_tx_residual"]-want) > 1e-12 {
		t.Errorf("unexpected RMS %f", out["/forceset/pelvis_tx_residual"])
	}
}

func TestPhasePortrait(t *testing.T) {
	tbl := sineTable(1.0, 50, 100)
	portrait := GeneratePhasePortrait(tbl, "hip", "hip_speed")
	if portrait == nil {
		t.Fatal("expected portrait")
	}
	if len(portrait.Points) != 100 {
		t.Errorf("expected 100 points, got %d", len(portrait.Points))
	}

	art := PhasePortraitToASCII(portrait, 40, 10)
	if art == "" {
		t.Error("expected non-empty rendering")
	}

	if GeneratePhasePortrait(tbl, "nope", "hip_speed") != nil {
		t.Error("expected nil for unknown column")
	}
}
