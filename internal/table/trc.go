package table

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Marker column suffixes used by TRC-derived tables: each marker contributes
// <name>_tx, <name>_ty, <name>_tz columns.
var markerSuffixes = [3]string{"_tx", "_ty", "_tz"}

// MarkerColumns returns the three column labels for a marker name.
func MarkerColumns(marker string) [3]string {
	return [3]string{marker + markerSuffixes[0], marker + markerSuffixes[1], marker + markerSuffixes[2]}
}

// ReadTRC reads a marker-trajectory file. Layout:
//
//	PathFileType  4  (X/Y/Z)  <file>
//	DataRate  CameraRate  NumFrames  NumMarkers  Units
//	<rate>  <rate>  <frames>  <markers>  <mm|m>
//	Frame#  Time  <marker names, one per marker>
//	[X1 Y1 Z1 ... coordinate sub-header, optional]
//	<frame>  <time>  <x y z per marker>
//
// Marker positions become columns named <marker>_tx/_ty/_tz and the Units
// field records the file's length unit.
func ReadTRC(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("table: open %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	readLine := func() (string, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", fmt.Errorf("unexpected end of file")
		}
		return scanner.Text(), nil
	}

	// PathFileType row.
	if _, err := readLine(); err != nil {
		return nil, fmt.Errorf("table: %s: %w", path, err)
	}
	// Metadata label row.
	if _, err := readLine(); err != nil {
		return nil, fmt.Errorf("table: %s: %w", path, err)
	}
	metaLine, err := readLine()
	if err != nil {
		return nil, fmt.Errorf("table: %s: %w", path, err)
	}
	meta := strings.Fields(metaLine)
	if len(meta) < 5 {
		return nil, fmt.Errorf("table: %s metadata row needs 5 fields, got %d", path, len(meta))
	}
	numMarkers, err := strconv.Atoi(meta[3])
	if err != nil || numMarkers <= 0 {
		return nil, fmt.Errorf("table: %s has bad marker count %q", path, meta[3])
	}
	units := meta[4]

	headerLine, err := readLine()
	if err != nil {
		return nil, fmt.Errorf("table: %s: %w", path, err)
	}
	header := strings.Fields(headerLine)
	if len(header) < 2+numMarkers {
		return nil, fmt.Errorf("table: %s header names %d markers, metadata says %d", path, len(header)-2, numMarkers)
	}
	markers := header[2 : 2+numMarkers]

	t := &Table{Units: units, Columns: make([][]float64, 3*numMarkers)}
	for _, m := range markers {
		cols := MarkerColumns(m)
		t.Labels = append(t.Labels, cols[0], cols[1], cols[2])
	}

	row := 0
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if first {
			first = false
			// Optional X1 Y1 Z1 ... sub-header row after the marker names.
			if _, err := strconv.ParseFloat(fields[0], 64); err != nil {
				continue
			}
		}
		if len(fields) != 2+3*numMarkers {
			return nil, fmt.Errorf("table: %s row %d has %d fields, want %d", path, row, len(fields), 2+3*numMarkers)
		}
		tm, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("table: %s row %d: bad time %q", path, row, fields[1])
		}
		t.Times = append(t.Times, tm)
		for i, f := range fields[2:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("table: %s row %d: bad value %q", path, row, f)
			}
			t.Columns[i] = append(t.Columns[i], v)
		}
		row++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("table: read %s: %w", path, err)
	}
	if len(t.Times) == 0 {
		return nil, fmt.Errorf("table: %s has no frames", path)
	}
	return t, nil
}
