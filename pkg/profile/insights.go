package profile

import "github.com/leapstack-labs/sqlscope/pkg/core"

// Insights is the full profiling result. Per-table sections are keyed by
// table name.
type Insights struct {
	TableOverview   map[string]TableOverview          `json:"tableOverview"`
	DataQuality     map[string]TableQuality           `json:"dataQuality"`
	Statistics      map[string]map[string]ColumnStats `json:"statisticalAnalysis"`
	Patterns        map[string]TablePatterns          `json:"patternDetection"`
	Relationships   Relationships                     `json:"relationshipAnalysis"`
	Recommendations []Recommendation                  `json:"recommendations"`
}

// Extract profiles every table of schema against its sampled rows.
// Tables absent from data are profiled as empty.
func Extract(schema *core.Schema, data core.Dataset) *Insights {
	if schema == nil {
		schema = core.NewSchema()
	}

	in := &Insights{
		TableOverview: make(map[string]TableOverview, len(schema.Tables)),
		DataQuality:   make(map[string]TableQuality, len(schema.Tables)),
		Statistics:    make(map[string]map[string]ColumnStats, len(schema.Tables)),
		Patterns:      make(map[string]TablePatterns, len(schema.Tables)),
		Relationships: analyzeRelationships(schema, data),
	}

	for i := range schema.Tables {
		t := &schema.Tables[i]
		rows := data.Rows(t.Name)

		in.TableOverview[t.Name] = overview(t, rows)
		in.DataQuality[t.Name] = quality(t, rows)
		in.Statistics[t.Name] = statistics(t, rows)
		in.Patterns[t.Name] = patterns(t, rows)
	}

	in.Recommendations = recommendations(schema, in)
	return in
}

// RecommendationCount returns the number of recommendations.
func (in *Insights) RecommendationCount() int {
	if in == nil {
		return 0
	}
	return len(in.Recommendations)
}

// column returns the values of one column in sample order.
func column(rows []core.Row, name string) []any {
	values := make([]any, len(rows))
	for i, r := range rows {
		values[i] = r[name]
	}
	return values
}

// present drops blank values.
func present(values []any) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		if !core.IsBlank(v) {
			out = append(out, v)
		}
	}
	return out
}

// numbers coerces the non-blank values of a column, skipping anything that
// is not a number.
func numbers(rows []core.Row, name string) []float64 {
	var out []float64
	for _, r := range rows {
		v := r[name]
		if core.IsBlank(v) {
			continue
		}
		if f, ok := core.ToNumber(v); ok {
			out = append(out, f)
		}
	}
	return out
}

func distinct(values []any) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[core.ValueKey(v)] = struct{}{}
	}
	return len(seen)
}

var numericTypes = map[string]bool{"INTEGER": true, "REAL": true, "FLOAT": true, "DOUBLE": true}

// isNumericColumn reports whether the declared type is exactly one of
// INTEGER, REAL, FLOAT or DOUBLE.
func isNumericColumn(c core.Column) bool {
	return numericTypes[c.UpperType()]
}
