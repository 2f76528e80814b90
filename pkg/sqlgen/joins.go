package sqlgen

import (
	"strings"

	"github.com/leapstack-labs/sqlscope/pkg/core"
)

var pairOperators = map[string]bool{
	"=": true, "!=": true, "<>": true, "<": true, "<=": true, ">": true, ">=": true,
}

// CompileJoins compiles joins in input order into a clause with a leading
// space. Order matters: a join's ON condition may reference tables
// introduced by earlier joins.
func CompileJoins(joins []core.Join) string {
	return compileJoins(joins, nil)
}

func compileJoins(joins []core.Join, warn *warnings) string {
	var b strings.Builder
	for i, j := range joins {
		table := Sanitize(j.Table)
		if table == "" {
			warn.addf("joins[%d]: empty table, join dropped", i)
			continue
		}
		jt, ok := core.ParseJoinType(j.Type)
		if !ok {
			warn.addf("joins[%d]: unsupported join type %q, join dropped", i, j.Type)
			continue
		}

		switch jt {
		case core.JoinCross, core.JoinNatural:
			b.WriteString(" " + string(jt) + " JOIN " + table)
			continue
		case core.JoinSelf:
			b.WriteString(" SELF JOIN " + table)
			if alias := Sanitize(j.Alias); alias != "" {
				b.WriteString(" AS " + alias)
			}
		default:
			b.WriteString(" " + string(jt) + " JOIN " + table)
		}

		if j.On == nil {
			if jt == core.JoinSelf {
				warn.addf("joins[%d]: SELF join without ON condition", i)
			}
			continue
		}
		if cond := compileJoinCondition(j.On, warn); cond != "" {
			b.WriteString(" ON " + cond)
		} else {
			warn.addf("joins[%d]: ON condition compiled to nothing, omitted", i)
		}
	}
	return b.String()
}

// CompileJoinCondition compiles a join condition tree. A pair renders as
// "left op right" with both sides sanitized; an expression is emitted
// verbatim; a composite joins its compiled children with AND or OR.
// Nested composites with more than one child are parenthesized.
// Unresolvable conditions compile to "".
func CompileJoinCondition(c *core.JoinCondition) string {
	return compileJoinCondition(c, nil)
}

func compileJoinCondition(c *core.JoinCondition, warn *warnings) string {
	if c == nil {
		return ""
	}

	switch c.Kind {
	case core.JoinConditionPair:
		left := Qualify(c.Left.Table, c.Left.Column)
		right := Qualify(c.Right.Table, c.Right.Column)
		if left == "" || right == "" {
			return ""
		}
		op := strings.TrimSpace(c.Operator)
		if op == "" {
			op = "="
		}
		if !pairOperators[op] {
			warn.addf("join operator %q replaced with =", c.Operator)
			op = "="
		}
		return left + " " + op + " " + right

	case core.JoinConditionExpression:
		return strings.TrimSpace(c.Expression)

	case core.JoinConditionComposite:
		logic := strings.ToUpper(strings.TrimSpace(c.Logic))
		switch logic {
		case "AND", "OR":
		case "":
			logic = "AND"
		default:
			warn.addf("join logic %q replaced with AND", c.Logic)
			logic = "AND"
		}
		parts := make([]string, 0, len(c.Conditions))
		for i := range c.Conditions {
			sub := &c.Conditions[i]
			part := compileJoinCondition(sub, warn)
			if part == "" {
				continue
			}
			if sub.Kind == core.JoinConditionComposite && len(sub.Conditions) > 1 {
				part = "(" + part + ")"
			}
			parts = append(parts, part)
		}
		return strings.Join(parts, " "+logic+" ")
	}

	return ""
}
