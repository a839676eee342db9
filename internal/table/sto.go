package table

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadSTO reads a storage-format time series: header lines through
// "endheader", a label row starting with "time", then whitespace-separated
// value rows.
func ReadSTO(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("table: open %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	inDegrees := false
	sawHeader := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "endheader" {
			sawHeader = true
			break
		}
		if strings.HasPrefix(line, "inDegrees=") {
			inDegrees = strings.TrimPrefix(line, "inDegrees=") == "yes"
		}
	}
	if !sawHeader {
		return nil, fmt.Errorf("table: %s has no endheader line", path)
	}

	if !scanner.Scan() {
		return nil, fmt.Errorf("table: %s has no label row", path)
	}
	labels := strings.Fields(scanner.Text())
	if len(labels) < 2 || labels[0] != "time" {
		return nil, fmt.Errorf("table: %s label row must start with time", path)
	}
	labels = labels[1:]

	t := &Table{Labels: labels, Columns: make([][]float64, len(labels))}
	if inDegrees {
		t.Units = "deg"
	}

	row := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != len(labels)+1 {
			return nil, fmt.Errorf("table: %s row %d has %d fields, want %d", path, row, len(fields), len(labels)+1)
		}
		tm, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("table: %s row %d: bad time %q", path, row, fields[0])
		}
		t.Times = append(t.Times, tm)
		for i, f := range fields[1:] {
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
		return nil, fmt.Errorf("table: %s has no data rows", path)
	}
	return t, nil
}

// WriteSTO writes the table in storage format.
func WriteSTO(path, name string, t *Table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("table: create %s: %w", path, err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "%s\n", name)
	fmt.Fprintf(w, "version=1\n")
	fmt.Fprintf(w, "nRows=%d\n", t.NumRows())
	fmt.Fprintf(w, "nColumns=%d\n", len(t.Labels)+1)
	fmt.Fprintf(w, "inDegrees=no\n")
	fmt.Fprintf(w, "endheader\n")

	fmt.Fprint(w, "time")
	for _, l := range t.Labels {
		fmt.Fprintf(w, "\t%s", l)
	}
	fmt.Fprintln(w)

	for i, tm := range t.Times {
		fmt.Fprintf(w, "%.8f", tm)
		for _, col := range t.Columns {
			fmt.Fprintf(w, "\t%.8f", col[i])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}
