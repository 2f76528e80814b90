package sqlgen

import (
	"strings"

	"github.com/leapstack-labs/sqlscope/pkg/core"
)

// BuildSelect assembles
//
//	SELECT <columns>, <aggregates> FROM <table><joins><where><group by>;
//
// Plain columns always precede aggregate expressions. When no column is
// selected the list starts with "*". BuildSelect does not check that the
// table is present; callers reject an empty table before compiling.
func BuildSelect(spec core.QuerySpec) core.CompiledQuery {
	var warn warnings

	cols := make([]string, 0, len(spec.Columns))
	for i, c := range spec.Columns {
		sc := selectColumn(c)
		if sc == "" {
			warn.addf("columns[%d]: %q does not name a column, dropped", i, c)
			continue
		}
		cols = append(cols, sc)
	}
	if len(cols) == 0 {
		cols = append(cols, "*")
	}

	list := append(cols, compileAggregations(spec.Aggregations, &warn)...)
	joins := compileJoins(spec.Joins, &warn)
	where, params := compileWhere(spec.Where, &warn)
	groupBy := InferGroupBy(spec.Columns, spec.Aggregations)

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(list, ", "))
	b.WriteString(" FROM ")
	b.WriteString(Sanitize(spec.Table))
	b.WriteString(joins)
	b.WriteString(where)
	b.WriteString(groupBy)
	b.WriteString(";")

	return core.CompiledQuery{
		SQL:      b.String(),
		Params:   params,
		Warnings: warn.list,
	}
}
