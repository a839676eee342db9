package analysis

import (
	"math"
	"strings"

	"github.com/motionlab/gaittrack/internal/table"
)

// ColumnStats summarizes one trajectory column.
type ColumnStats struct {
	Label string
	Min   float64
	Max   float64
	Range float64
	RMS   float64
}

// Summary computes per-column statistics for a solution table.
func Summary(tbl *table.Table) []ColumnStats {
	out := make([]ColumnStats, 0, len(tbl.Labels))
	for i, label := range tbl.Labels {
		col := tbl.Columns[i]
		if len(col) == 0 {
			continue
		}
		st := ColumnStats{Label: label, Min: col[0], Max: col[0]}
		sum := 0.0
		for _, v := range col {
			if v < st.Min {
				st.Min = v
			}
			if v > st.Max {
				st.Max = v
			}
			sum += v * v
		}
		st.Range = st.Max - st.Min
		st.RMS = math.Sqrt(sum / float64(len(col)))
		out = append(out, st)
	}
	return out
}

// AverageSpeed returns the mean rate of change of a column, typically the
// pelvis forward translation.
func AverageSpeed(tbl *table.Table, label string) (float64, bool) {
	col, ok := tbl.Column(label)
	if !ok || len(col) < 2 {
		return 0, false
	}
	span := tbl.Times[len(tbl.Times)-1] - tbl.Times[0]
	if span <= 0 {
		return 0, false
	}
	return (col[len(col)-1] - col[0]) / span, true
}

// ResidualRMS reports the RMS of every control column matching the
// substring, used to check that pelvis residuals stayed small.
func ResidualRMS(tbl *table.Table, substring string) map[string]float64 {
	out := make(map[string]float64)
	for i, label := range tbl.Labels {
		if !strings.Contains(label, substring) {
			continue
		}
		col := tbl.Columns[i]
		if len(col) == 0 {
			continue
		}
		sum := 0.0
		for _, v := range col {
			sum += v * v
		}
		out[label] = math.Sqrt(sum / float64(len(col)))
	}
	return out
}
