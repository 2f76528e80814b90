package profile

import (
	"fmt"

	"github.com/leapstack-labs/sqlscope/pkg/core"
)

// Recommendation thresholds.
const (
	minCompleteness      = 80.0
	minUniqueness        = 95.0
	minUniquenessSamples = 10
)

// Recommendation types.
const (
	RecommendationDataQuality = "DATA_QUALITY"
	RecommendationStatistical = "STATISTICAL"
	RecommendationPattern     = "PATTERN"
)

// Recommendation is one actionable finding.
type Recommendation struct {
	Type        string        `json:"type"`
	Priority    core.Priority `json:"priority"`
	Table       string        `json:"table"`
	Column      string        `json:"column,omitempty"`
	Issue       string        `json:"issue"`
	Description string        `json:"description"`
	Suggestion  string        `json:"suggestion"`
}

// recommendations walks tables in schema order: data quality findings
// first, then outliers, then duplicate rows.
func recommendations(schema *core.Schema, in *Insights) []Recommendation {
	out := []Recommendation{}

	for _, t := range schema.Tables {
		q := in.DataQuality[t.Name]
		for _, c := range t.Columns {
			m := q.Completeness[c.Name]
			if m.CompletenessRate >= minCompleteness {
				continue
			}
			out = append(out, Recommendation{
				Type:        RecommendationDataQuality,
				Priority:    core.PriorityHigh,
				Table:       t.Name,
				Column:      c.Name,
				Issue:       "Low completeness rate",
				Description: fmt.Sprintf("Column %s has only %.1f%% completeness", c.Name, m.CompletenessRate),
				Suggestion:  "Consider data cleaning or investigating missing values",
			})
		}
		for _, c := range t.Columns {
			m := q.Uniqueness[c.Name]
			if m.UniquenessRate >= minUniqueness || m.TotalNonNullCount <= minUniquenessSamples {
				continue
			}
			out = append(out, Recommendation{
				Type:        RecommendationDataQuality,
				Priority:    core.PriorityMedium,
				Table:       t.Name,
				Column:      c.Name,
				Issue:       "Low uniqueness rate",
				Description: fmt.Sprintf("Column %s has %.1f%% uniqueness", c.Name, m.UniquenessRate),
				Suggestion:  "Consider if this should be a unique constraint or if duplicates are expected",
			})
		}
	}

	for _, t := range schema.Tables {
		stats := in.Statistics[t.Name]
		for _, c := range t.Columns {
			s, ok := stats[c.Name]
			if !ok || len(s.Outliers) == 0 {
				continue
			}
			out = append(out, Recommendation{
				Type:        RecommendationStatistical,
				Priority:    core.PriorityMedium,
				Table:       t.Name,
				Column:      c.Name,
				Issue:       "Outliers detected",
				Description: fmt.Sprintf("Found %d outliers in %s", len(s.Outliers), c.Name),
				Suggestion:  "Review outliers for data quality issues or business logic",
			})
		}
	}

	for _, t := range schema.Tables {
		dups := in.Patterns[t.Name].Duplicates
		if len(dups) == 0 {
			continue
		}
		out = append(out, Recommendation{
			Type:        RecommendationPattern,
			Priority:    core.PriorityHigh,
			Table:       t.Name,
			Issue:       "Duplicate rows detected",
			Description: fmt.Sprintf("Found %d duplicate rows", len(dups)),
			Suggestion:  "Consider adding unique constraints or removing duplicates",
		})
	}

	return out
}
