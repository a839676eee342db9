package table

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/interp"
)

// Table is a time-indexed set of labeled float columns. All columns share
// the time vector.
type Table struct {
	Times   []float64
	Labels  []string
	Columns [][]float64
	Units   string
}

func New(times []float64) *Table {
	return &Table{Times: times, Units: "m"}
}

func (t *Table) NumRows() int { return len(t.Times) }

func (t *Table) AddColumn(label string, values []float64) error {
	if len(values) != len(t.Times) {
		return fmt.Errorf("table: column %s has %d rows, table has %d", label, len(values), len(t.Times))
	}
	t.Labels = append(t.Labels, label)
	t.Columns = append(t.Columns, values)
	return nil
}

func (t *Table) Column(label string) ([]float64, bool) {
	for i, l := range t.Labels {
		if l == label {
			return t.Columns[i], true
		}
	}
	return nil, false
}

func (t *Table) HasColumn(label string) bool {
	_, ok := t.Column(label)
	return ok
}

func (t *Table) Clone() *Table {
	c := &Table{
		Times:   append([]float64(nil), t.Times...),
		Labels:  append([]string(nil), t.Labels...),
		Columns: make([][]float64, len(t.Columns)),
		Units:   t.Units,
	}
	for i, col := range t.Columns {
		c.Columns[i] = append([]float64(nil), col...)
	}
	return c
}

// Trim returns the rows with t0 <= time <= t1.
func (t *Table) Trim(t0, t1 float64) (*Table, error) {
	if t1 < t0 {
		return nil, fmt.Errorf("table: trim window [%f, %f] is inverted", t0, t1)
	}
	lo := sort.SearchFloat64s(t.Times, t0)
	hi := sort.Search(len(t.Times), func(i int) bool { return t.Times[i] > t1 })
	if lo >= hi {
		return nil, fmt.Errorf("table: trim window [%f, %f] contains no samples", t0, t1)
	}
	c := &Table{
		Times:   append([]float64(nil), t.Times[lo:hi]...),
		Labels:  append([]string(nil), t.Labels...),
		Columns: make([][]float64, len(t.Columns)),
		Units:   t.Units,
	}
	for i, col := range t.Columns {
		c.Columns[i] = append([]float64(nil), col[lo:hi]...)
	}
	return c, nil
}

// Interp linearly interpolates the column at time tm, clamping outside the
// time range.
func (t *Table) Interp(label string, tm float64) (float64, bool) {
	col, ok := t.Column(label)
	if !ok || len(col) == 0 {
		return 0, false
	}
	if tm <= t.Times[0] {
		return col[0], true
	}
	n := len(t.Times)
	if tm >= t.Times[n-1] {
		return col[n-1], true
	}
	i := sort.SearchFloat64s(t.Times, tm)
	if t.Times[i] == tm {
		return col[i], true
	}
	t0, t1 := t.Times[i-1], t.Times[i]
	frac := (tm - t0) / (t1 - t0)
	return col[i-1] + frac*(col[i]-col[i-1]), true
}

// SplineDerivative fits a cubic through the column and returns its
// derivative sampled at the table's own times. Used to fill in missing
// speed data from position references.
func (t *Table) SplineDerivative(label string) ([]float64, error) {
	col, ok := t.Column(label)
	if !ok {
		return nil, fmt.Errorf("table: no column %s", label)
	}
	if len(col) < 3 {
		return nil, fmt.Errorf("table: column %s too short to differentiate (%d samples)", label, len(col))
	}
	var spline interp.AkimaSpline
	if err := spline.Fit(t.Times, col); err != nil {
		return nil, fmt.Errorf("table: spline fit for %s: %w", label, err)
	}
	deriv := make([]float64, len(col))
	for i, tm := range t.Times {
		deriv[i] = spline.PredictDerivative(tm)
	}
	return deriv, nil
}
