package table

import (
	"math"
	"testing"
)

func rampTable() *Table {
	times := []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5}
	t := New(times)
	ramp := make([]float64, len(times))
	for i, tm := range times {
		ramp[i] = 2 * tm
	}
	_ = t.AddColumn("ramp", ramp)
	return t
}

func TestAddColumnLengthMismatch(t *testing.T) {
	tbl := New([]float64{0, 1, 2})
	if err := tbl.AddColumn("short", []float64{1, 2}); err == nil {
		t.Error("expected error for mismatched column length")
	}
}

func TestInterp(t *testing.T) {
	tbl := rampTable()

	v, ok := tbl.Interp("ramp", 0.25)
	if !ok {
		t.Fatal("column not found")
	}
	if math.Abs(v-0.5) > 1e-12 {
		t.Errorf("expected 0.5, got %f", v)
	}

	// Clamped outside the range.
	v, _ = tbl.Interp("ramp", -1)
	if v != 0 {
		t.Errorf("expected clamp to first value, got %f", v)
	}
	v, _ = tbl.Interp("ramp", 2)
	if math.Abs(v-1.0) > 1e-12 {
		t.Errorf("expected clamp to last value, got %f", v)
	}

	if _, ok := tbl.Interp("missing", 0); ok {
		t.Error("expected miss for unknown column")
	}
}

func TestTrim(t *testing.T) {
	tbl := rampTable()

	out, err := tbl.Trim(0.1, 0.3)
	if err != nil {
		t.Fatalf("trim failed: %v", err)
	}
	if out.NumRows() != 3 {
		t.Errorf("expected 3 rows, got %d", out.NumRows())
	}
	if out.Times[0] != 0.1 || out.Times[2] != 0.3 {
		t.Errorf("unexpected trim bounds: %v", out.Times)
	}

	if _, err := tbl.Trim(0.3, 0.1); err == nil {
		t.Error("expected error for inverted window")
	}
	if _, err := tbl.Trim(10, 11); err == nil {
		t.Error("expected error for empty window")
	}
}

func TestSplineDerivative(t *testing.T) {
	times := make([]float64, 51)
	vals := make([]float64, 51)
	for i := range times {
		times[i] = float64(i) * 0.02
		vals[i] = math.Sin(2 * math.Pi * times[i])
	}
	tbl := New(times)
	_ = tbl.AddColumn("pos", vals)

	deriv, err := tbl.SplineDerivative("pos")
	if err != nil {
		t.Fatalf("derivative failed: %v", err)
	}

	// Compare against the analytic derivative away from the endpoints.
	for i := 5; i < len(times)-5; i++ {
		want := 2 * math.Pi * math.Cos(2*math.Pi*times[i])
		if math.Abs(deriv[i]-want) > 0.05 {
			t.Fatalf("derivative at t=%.2f: got %f, want %f", times[i], deriv[i], want)
		}
	}
}

func TestLowPassRemovesNoise(t *testing.T) {
	n := 200
	fs := 100.0
	times := make([]float64, n)
	clean := make([]float64, n)
	noisy := make([]float64, n)
	for i := range times {
		times[i] = float64(i) / fs
		clean[i] = math.Sin(2 * math.Pi * 1.0 * times[i])
		noisy[i] = clean[i] + 0.5*math.Sin(2*math.Pi*40.0*times[i])
	}

	filtered, err := lowPass(noisy, 6.0, fs)
	if err != nil {
		t.Fatalf("filter failed: %v", err)
	}

	var rmsBefore, rmsAfter float64
	for i := 20; i < n-20; i++ {
		rmsBefore += (noisy[i] - clean[i]) * (noisy[i] - clean[i])
		rmsAfter += (filtered[i] - clean[i]) * (filtered[i] - clean[i])
	}
	rmsBefore = math.Sqrt(rmsBefore / float64(n-40))
	rmsAfter = math.Sqrt(rmsAfter / float64(n-40))

	if rmsAfter > rmsBefore/4 {
		t.Errorf("filter left too much noise: before %f, after %f", rmsBefore, rmsAfter)
	}
}
