package sqlgen

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/leapstack-labs/sqlscope/pkg/core"
)

// CompileWhere compiles conditions into a WHERE clause and its parameters.
// The clause starts with " WHERE " and joins predicates with AND in input
// order. It is empty when no condition survives; params is never nil.
//
// Conditions without a resolvable column or with an unsupported operator are
// dropped silently. Use BuildSelect to see them reported as warnings.
func CompileWhere(conds []core.Condition) (string, []any) {
	return compileWhere(conds, nil)
}

func compileWhere(conds []core.Condition, warn *warnings) (string, []any) {
	params := []any{}
	parts := make([]string, 0, len(conds))

	for i, c := range conds {
		col := conditionColumn(c)
		if col == "" {
			warn.addf("where[%d]: no resolvable column, condition dropped", i)
			continue
		}
		op, ok := core.ParseOperator(c.Operator)
		if !ok {
			warn.addf("where[%d]: unsupported operator %q, condition dropped", i, c.Operator)
			continue
		}

		switch {
		case op == core.OpIn:
			values := listValues(c.Value)
			parts = append(parts, fmt.Sprintf("%s IN (%s)", col, placeholders(len(values))))
			params = append(params, values...)
		case op == core.OpLike:
			parts = append(parts, col+" LIKE ?")
			params = append(params, c.Value)
		case op == core.OpIsNull, op == core.OpEq && c.Value == nil:
			parts = append(parts, col+" IS NULL")
		case op == core.OpIsNotNull, op == core.OpNe && c.Value == nil:
			parts = append(parts, col+" IS NOT NULL")
		default:
			// A nil value under an ordering operator is still bound, and
			// matches nothing.
			parts = append(parts, fmt.Sprintf("%s %s ?", col, op))
			params = append(params, c.Value)
		}
	}

	if len(parts) == 0 {
		return "", params
	}
	return " WHERE " + strings.Join(parts, " AND "), params
}

// conditionColumn resolves the column reference of a condition: a dotted
// column wins, then an explicit table, then the bare column.
func conditionColumn(c core.Condition) string {
	switch {
	case strings.Contains(c.Column, "."):
		return QualifiedName(c.Column)
	case c.Table != "" && c.Column != "":
		return Qualify(c.Table, c.Column)
	default:
		return Sanitize(c.Column)
	}
}

// listValues flattens a slice or array value into its elements. A scalar
// becomes a one-element list.
func listValues(v any) []any {
	if v == nil {
		return []any{nil}
	}
	if vals, ok := v.([]any); ok {
		return vals
	}
	rv := reflect.ValueOf(v)
	if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8 {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return []any{v}
}

func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
