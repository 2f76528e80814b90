package profile

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/sqlscope/pkg/core"
	"github.com/leapstack-labs/sqlscope/pkg/normalize"
)

// lengthVarianceLimit is the text length variance above which a column is
// flagged as inconsistent.
const lengthVarianceLimit = 100

// TableQuality holds per-column quality metrics for one table.
type TableQuality struct {
	Completeness map[string]Completeness `json:"completeness"`
	Uniqueness   map[string]Uniqueness   `json:"uniqueness"`
	Consistency  map[string]Consistency  `json:"consistency"`
	Validity     map[string]Validity     `json:"validity"`
}

// Completeness measures missing values. Blank strings count as missing.
type Completeness struct {
	TotalRows        int     `json:"totalRows"`
	NonNullRows      int     `json:"nonNullRows"`
	CompletenessRate float64 `json:"completenessRate"`
	NullCount        int     `json:"nullCount"`
}

// Uniqueness measures distinct values among the present ones.
type Uniqueness struct {
	UniqueCount       int     `json:"uniqueCount"`
	TotalNonNullCount int     `json:"totalNonNullCount"`
	UniquenessRate    float64 `json:"uniquenessRate"`
	IsUnique          bool    `json:"isUnique"`
}

// Consistency describes string lengths of a text column.
type Consistency struct {
	AverageLength         float64 `json:"averageLength"`
	MinLength             int     `json:"minLength"`
	MaxLength             int     `json:"maxLength"`
	LengthVariance        float64 `json:"lengthVariance"`
	HasInconsistentLength bool    `json:"hasInconsistentLength"`
}

// Validity counts present values compatible with the declared type.
type Validity struct {
	ValidTypeCount   int     `json:"validTypeCount"`
	InvalidTypeCount int     `json:"invalidTypeCount"`
	ValidityRate     float64 `json:"validityRate"`
}

func quality(t *core.Table, rows []core.Row) TableQuality {
	q := TableQuality{
		Completeness: make(map[string]Completeness, len(t.Columns)),
		Uniqueness:   make(map[string]Uniqueness, len(t.Columns)),
		Consistency:  make(map[string]Consistency),
		Validity:     make(map[string]Validity, len(t.Columns)),
	}

	for _, c := range t.Columns {
		values := column(rows, c.Name)
		nonNull := present(values)

		// An empty sample has nothing missing.
		rate := 100.0
		if len(values) > 0 {
			rate = percent(len(nonNull), len(values))
		}
		q.Completeness[c.Name] = Completeness{
			TotalRows:        len(values),
			NonNullRows:      len(nonNull),
			CompletenessRate: rate,
			NullCount:        len(values) - len(nonNull),
		}

		unique := distinct(nonNull)
		q.Uniqueness[c.Name] = Uniqueness{
			UniqueCount:       unique,
			TotalNonNullCount: len(nonNull),
			UniquenessRate:    percent(unique, len(nonNull)),
			IsUnique:          unique == len(nonNull) && len(nonNull) > 0,
		}

		if strings.Contains(strings.ToLower(c.Type), "text") {
			q.Consistency[c.Name] = consistency(nonNull)
		}

		valid := 0
		for _, v := range nonNull {
			if normalize.ValidType(v, c.Type) {
				valid++
			}
		}
		q.Validity[c.Name] = Validity{
			ValidTypeCount:   valid,
			InvalidTypeCount: len(nonNull) - valid,
			ValidityRate:     percent(valid, len(nonNull)),
		}
	}
	return q
}

func consistency(values []any) Consistency {
	var lengths []float64
	minLen, maxLen := math.MaxInt, 0
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		n := utf8.RuneCountInString(s)
		lengths = append(lengths, float64(n))
		minLen = min(minLen, n)
		maxLen = max(maxLen, n)
	}
	if len(lengths) == 0 {
		return Consistency{}
	}

	variance := round2(Variance(lengths))
	return Consistency{
		AverageLength:         round2(Mean(lengths)),
		MinLength:             minLen,
		MaxLength:             maxLen,
		LengthVariance:        variance,
		HasInconsistentLength: variance > lengthVarianceLimit,
	}
}

// percent returns part/whole*100, or 0 when whole is 0.
func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
