package table

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

const testTRC = `PathFileType	4	(X/Y/Z)	marker_trajectories.trc
DataRate	CameraRate	NumFrames	NumMarkers	Units
100	100	3	2	mm
Frame#	Time	R.ASIS	R.Knee
1	0.00	20.0	1000.0	130.0	0.0	500.0	100.0
2	0.01	21.0	1001.0	130.0	1.0	501.0	100.0
3	0.02	22.0	1002.0	130.0	2.0	502.0	100.0
`

func writeTestTRC(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "markers.trc")
	if err := os.WriteFile(path, []byte(testTRC), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadTRC(t *testing.T) {
	tbl, err := ReadTRC(writeTestTRC(t))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if tbl.Units != "mm" {
		t.Errorf("expected mm units, got %s", tbl.Units)
	}
	if tbl.NumRows() != 3 {
		t.Errorf("expected 3 frames, got %d", tbl.NumRows())
	}
	if len(tbl.Labels) != 6 {
		t.Fatalf("expected 6 columns, got %d", len(tbl.Labels))
	}

	cols := MarkerColumns("R.Knee")
	y, ok := tbl.Column(cols[1])
	if !ok {
		t.Fatalf("missing column %s", cols[1])
	}
	if math.Abs(y[2]-502.0) > 1e-9 {
		t.Errorf("expected 502.0, got %f", y[2])
	}
}

const testTRCSubHeader = `PathFileType	4	(X/Y/Z)	marker_trajectories.trc
DataRate	CameraRate	NumFrames	NumMarkers	Units
100	100	2	2	mm
Frame#	Time	R.ASIS	R.Knee
		X1	Y1	Z1	X2	Y2	Z2
1	0.00	20.0	1000.0	130.0	0.0	500.0	100.0
2	0.01	21.0	1001.0	130.0	1.0	501.0	100.0
`

func TestReadTRCSkipsCoordinateSubHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markers.trc")
	if err := os.WriteFile(path, []byte(testTRCSubHeader), 0644); err != nil {
		t.Fatal(err)
	}

	tbl, err := ReadTRC(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if tbl.NumRows() != 2 {
		t.Errorf("expected 2 frames, got %d", tbl.NumRows())
	}
	x, ok := tbl.Column("R.ASIS_tx")
	if !ok {
		t.Fatal("missing column R.ASIS_tx")
	}
	if math.Abs(x[0]-20.0) > 1e-9 {
		t.Errorf("expected 20.0, got %f", x[0])
	}
}

func TestReadTRCConvertsThroughProcessor(t *testing.T) {
	p := NewProcessor(writeTestTRC(t))
	p.Append(ConvertToMeters{})

	tbl, err := p.Process()
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if tbl.Units != "m" {
		t.Errorf("expected meters after conversion, got %s", tbl.Units)
	}
	x, _ := tbl.Column("R.ASIS_tx")
	if math.Abs(x[0]-0.020) > 1e-9 {
		t.Errorf("expected 0.020 m, got %f", x[0])
	}
}

func TestReadTRCErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		body string
	}{
		{"truncated header", "PathFileType\t4\n"},
		{"bad marker count", "PathFileType\t4\nDataRate\n100 100 3 zero mm\nFrame# Time A\n"},
		{"ragged frame", "PathFileType\t4\nDataRate\n100 100 1 1 mm\nFrame# Time A\n1 0.0 1.0 2.0\n"},
		{"no frames", "PathFileType\t4\nDataRate\n100 100 0 1 mm\nFrame# Time A\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "bad.trc")
			if err := os.WriteFile(path, []byte(tt.body), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := ReadTRC(path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
