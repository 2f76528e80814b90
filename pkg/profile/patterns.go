package profile

import (
	"math"
	"sort"
	"strings"

	"github.com/leapstack-labs/sqlscope/pkg/core"
)

// Correlation thresholds on |r|.
const (
	correlationReportLimit = 0.7
	correlationStrongLimit = 0.9
)

// TablePatterns holds the patterns detected in one table.
type TablePatterns struct {
	Duplicates   []DuplicateRow `json:"duplicates"`
	Anomalies    []Anomaly      `json:"anomalies"`
	Trends       []Trend        `json:"trends"`
	Correlations []Correlation  `json:"correlations"`
}

// DuplicateRow is a row structurally equal to an earlier row.
type DuplicateRow struct {
	Index int      `json:"index"`
	Row   core.Row `json:"row"`
}

// Anomaly is a single outlying value.
type Anomaly struct {
	Column string  `json:"column"`
	Value  float64 `json:"value"`
	Type   string  `json:"type"`
}

// Trend marks a column that looks like a time axis.
type Trend struct {
	Column     string `json:"column"`
	Type       string `json:"type"`
	Suggestion string `json:"suggestion"`
}

// Correlation is a notable linear relationship between two numeric columns.
type Correlation struct {
	Column1     string  `json:"column1"`
	Column2     string  `json:"column2"`
	Correlation float64 `json:"correlation"`
	Strength    string  `json:"strength"`
}

func patterns(t *core.Table, rows []core.Row) TablePatterns {
	return TablePatterns{
		Duplicates:   Duplicates(t, rows),
		Anomalies:    anomalies(t, rows),
		Trends:       trends(t),
		Correlations: correlations(t, rows),
	}
}

// Duplicates returns every row equal to an earlier row. Rows are equal when
// they hold the same keys with strictly equal values. The first occurrence
// is never reported.
func Duplicates(t *core.Table, rows []core.Row) []DuplicateRow {
	dups := []DuplicateRow{}
	seen := make(map[string]bool, len(rows))
	for i, r := range rows {
		key := rowKey(t, r)
		if seen[key] {
			dups = append(dups, DuplicateRow{Index: i, Row: r})
			continue
		}
		seen[key] = true
	}
	return dups
}

// rowKey serializes a row with the table's columns first, in declaration
// order, then any extra keys sorted by name.
func rowKey(t *core.Table, r core.Row) string {
	var b strings.Builder
	write := func(name string, v any) {
		b.WriteString(name)
		b.WriteByte('\x1f')
		b.WriteString(core.ValueKey(v))
		b.WriteByte('\x1e')
	}

	known := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		known[c.Name] = true
		if v, ok := r[c.Name]; ok {
			write(c.Name, v)
		}
	}

	var extra []string
	for k := range r {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		write(k, r[k])
	}
	return b.String()
}

// anomalies reports the outliers of columns whose type mentions INTEGER or
// REAL.
func anomalies(t *core.Table, rows []core.Row) []Anomaly {
	out := []Anomaly{}
	for _, c := range t.Columns {
		typ := c.UpperType()
		if !strings.Contains(typ, "INTEGER") && !strings.Contains(typ, "REAL") {
			continue
		}
		for _, v := range Outliers(numbers(rows, c.Name)) {
			out = append(out, Anomaly{Column: c.Name, Value: v, Type: "NUMERICAL_OUTLIER"})
		}
	}
	return out
}

func trends(t *core.Table) []Trend {
	out := []Trend{}
	for _, c := range t.Columns {
		name := strings.ToLower(c.Name)
		if strings.Contains(name, "date") || strings.Contains(name, "time") {
			out = append(out, Trend{
				Column:     c.Name,
				Type:       "TIME_SERIES_DETECTED",
				Suggestion: "Consider time-series analysis",
			})
		}
	}
	return out
}

// correlations computes Pearson's r for every pair of numeric columns over
// the rows where both values are numbers.
func correlations(t *core.Table, rows []core.Row) []Correlation {
	var cols []string
	for _, c := range t.Columns {
		if isNumericColumn(c) {
			cols = append(cols, c.Name)
		}
	}

	out := []Correlation{}
	for i := 0; i < len(cols); i++ {
		for j := i + 1; j < len(cols); j++ {
			x, y := pairs(rows, cols[i], cols[j])
			r, ok := Pearson(x, y)
			if !ok {
				continue
			}
			if strength, ok := correlationStrength(r); ok {
				out = append(out, Correlation{Column1: cols[i], Column2: cols[j], Correlation: r, Strength: strength})
			}
		}
	}
	return out
}

// correlationStrength labels r, reporting false when |r| is too weak to list.
func correlationStrength(r float64) (string, bool) {
	switch abs := math.Abs(r); {
	case abs > correlationStrongLimit:
		return "STRONG", true
	case abs > correlationReportLimit:
		return "MODERATE", true
	}
	return "", false
}

func pairs(rows []core.Row, a, b string) (x, y []float64) {
	for _, r := range rows {
		if core.IsBlank(r[a]) || core.IsBlank(r[b]) {
			continue
		}
		fa, okA := core.ToNumber(r[a])
		fb, okB := core.ToNumber(r[b])
		if okA && okB {
			x = append(x, fa)
			y = append(y, fb)
		}
	}
	return x, y
}
