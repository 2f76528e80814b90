package sqlgen

import (
	"strings"

	"github.com/leapstack-labs/sqlscope/pkg/core"
)

// CompileAggregations renders each aggregation as FN(col)[ AS alias].
// COUNT over "*" or the literal "COUNT(*)" renders as COUNT(*).
// Aggregations with an unknown function or no column are dropped.
func CompileAggregations(aggs []core.Aggregation) []string {
	return compileAggregations(aggs, nil)
}

func compileAggregations(aggs []core.Aggregation, warn *warnings) []string {
	out := make([]string, 0, len(aggs))
	for i, a := range aggs {
		fn, ok := core.ParseAggFunc(a.Fn)
		if !ok {
			warn.addf("aggregations[%d]: unsupported function %q, dropped", i, a.Fn)
			continue
		}

		alias := ""
		if as := Sanitize(a.As); as != "" {
			alias = " AS " + as
		}

		star := isCountStar(a.Column)
		if fn == core.AggCount && star {
			out = append(out, "COUNT(*)"+alias)
			continue
		}

		col := "*"
		if !star {
			col = QualifiedName(a.Column)
		}
		if col == "" {
			warn.addf("aggregations[%d]: no resolvable column, dropped", i)
			continue
		}
		out = append(out, string(fn)+"("+col+")"+alias)
	}
	return out
}

func isCountStar(column string) bool {
	column = strings.TrimSpace(column)
	return column == "*" || column == "COUNT(*)"
}

// InferGroupBy returns " GROUP BY ..." over the selected columns that are
// neither "*" nor the column of some aggregation, in selection order.
// It is empty when there are no aggregations or no such column.
func InferGroupBy(columns []string, aggs []core.Aggregation) string {
	if len(aggs) == 0 {
		return ""
	}

	aggregated := make(map[string]bool, len(aggs))
	for _, a := range aggs {
		aggregated[a.Column] = true
	}

	var cols []string
	for _, c := range columns {
		if isStar(c) || aggregated[c] {
			continue
		}
		if q := QualifiedName(c); q != "" {
			cols = append(cols, q)
		}
	}
	if len(cols) == 0 {
		return ""
	}
	return " GROUP BY " + strings.Join(cols, ", ")
}
