package profile

import (
	"slices"

	"github.com/leapstack-labs/sqlscope/pkg/core"
)

// ColumnStats describes the distribution of a numeric column.
// Variance and StandardDeviation are population measures.
type ColumnStats struct {
	Count             int       `json:"count"`
	Mean              float64   `json:"mean"`
	Median            float64   `json:"median"`
	Mode              []float64 `json:"mode"`
	Min               float64   `json:"min"`
	Max               float64   `json:"max"`
	Range             float64   `json:"range"`
	StandardDeviation float64   `json:"standardDeviation"`
	Variance          float64   `json:"variance"`
	Quartiles         Quartiles `json:"quartiles"`
	Outliers          []float64 `json:"outliers"`
}

// Describe computes ColumnStats for a non-empty sample.
func Describe(values []float64) ColumnStats {
	if len(values) == 0 {
		return ColumnStats{Mode: []float64{}, Outliers: []float64{}}
	}
	lo, hi := slices.Min(values), slices.Max(values)
	return ColumnStats{
		Count:             len(values),
		Mean:              Mean(values),
		Median:            Median(values),
		Mode:              Mode(values),
		Min:               lo,
		Max:               hi,
		Range:             hi - lo,
		StandardDeviation: StdDev(values),
		Variance:          Variance(values),
		Quartiles:         QuartilesOf(values),
		Outliers:          Outliers(values),
	}
}

// statistics describes every numeric column with at least one value.
func statistics(t *core.Table, rows []core.Row) map[string]ColumnStats {
	stats := make(map[string]ColumnStats)
	for _, c := range t.Columns {
		if !isNumericColumn(c) {
			continue
		}
		if values := numbers(rows, c.Name); len(values) > 0 {
			stats[c.Name] = Describe(values)
		}
	}
	return stats
}
