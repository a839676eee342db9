package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"
)

type ExportData struct {
	RunMetadata
	Labels  []string    `json:"labels"`
	Times   []float64   `json:"times"`
	Columns [][]float64 `json:"columns"`
}

// ExportJSON writes a run's metadata and trajectory as a single JSON
// document. An empty path writes to stdout.
func (s *Store) ExportJSON(runID, path string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	tbl, err := s.LoadSolution(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		RunMetadata: *meta,
		Labels:      tbl.Labels,
		Times:       tbl.Times,
		Columns:     tbl.Columns,
	}

	var w io.Writer = os.Stdout
	if path != "" {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportCSV writes a run's trajectory as CSV with a time column followed by
// the solution's state and control columns.
func (s *Store) ExportCSV(runID, path string) error {
	tbl, err := s.LoadSolution(runID)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := append([]string{"time"}, tbl.Labels...)
	if err := w.Write(header); err != nil {
		return err
	}

	for i, tm := range tbl.Times {
		row := make([]string, 0, len(tbl.Columns)+1)
		row = append(row, strconv.FormatFloat(tm, 'f', 6, 64))
		for _, col := range tbl.Columns {
			row = append(row, strconv.FormatFloat(col[i], 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}
