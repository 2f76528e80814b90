package core

import (
	"encoding/json"
	"strings"
)

// =============================================================================
// Operators
// =============================================================================

// Operator is a comparison operator in a filter condition.
type Operator string

// Supported filter operators.
const (
	OpEq        Operator = "="
	OpNe        Operator = "!="
	OpGt        Operator = ">"
	OpGte       Operator = ">="
	OpLt        Operator = "<"
	OpLte       Operator = "<="
	OpLike      Operator = "LIKE"
	OpIn        Operator = "IN"
	OpIsNull    Operator = "IS NULL"
	OpIsNotNull Operator = "IS NOT NULL"
)

var operators = map[Operator]bool{
	OpEq: true, OpNe: true, OpGt: true, OpGte: true, OpLt: true, OpLte: true,
	OpLike: true, OpIn: true, OpIsNull: true, OpIsNotNull: true,
}

// ParseOperator normalizes an operator string. Matching is case-insensitive
// and tolerant of repeated inner whitespace. An empty string means "=".
func ParseOperator(s string) (Operator, bool) {
	norm := strings.ToUpper(strings.Join(strings.Fields(s), " "))
	if norm == "" {
		return OpEq, true
	}
	op := Operator(norm)
	return op, operators[op]
}

// =============================================================================
// Conditions
// =============================================================================

// Condition is a single WHERE predicate. Column may be dotted (table.column);
// Table is used only when Column is not dotted.
type Condition struct {
	Column   string `json:"column"`
	Table    string `json:"table,omitempty"`
	Operator string `json:"operator,omitempty"`
	Value    any    `json:"value,omitempty"`
}

// Compare builds a condition with an explicit operator.
func Compare(column string, op Operator, value any) Condition {
	return Condition{Column: column, Operator: string(op), Value: value}
}

// Eq builds an equality condition.
func Eq(column string, value any) Condition {
	return Compare(column, OpEq, value)
}

// In builds an IN condition over the given values.
func In(column string, values ...any) Condition {
	return Compare(column, OpIn, values)
}

// Like builds a LIKE condition. The pattern is bound as-is.
func Like(column, pattern string) Condition {
	return Compare(column, OpLike, pattern)
}

// IsNull builds an IS NULL condition.
func IsNull(column string) Condition {
	return Condition{Column: column, Operator: string(OpIsNull)}
}

// IsNotNull builds an IS NOT NULL condition.
func IsNotNull(column string) Condition {
	return Condition{Column: column, Operator: string(OpIsNotNull)}
}

// =============================================================================
// Joins
// =============================================================================

// JoinType is the kind of a JOIN clause.
type JoinType string

// Supported join types.
const (
	JoinInner      JoinType = "INNER"
	JoinLeft       JoinType = "LEFT"
	JoinRight      JoinType = "RIGHT"
	JoinFull       JoinType = "FULL"
	JoinLeftOuter  JoinType = "LEFT OUTER"
	JoinRightOuter JoinType = "RIGHT OUTER"
	JoinFullOuter  JoinType = "FULL OUTER"
	JoinCross      JoinType = "CROSS"
	JoinNatural    JoinType = "NATURAL"
	JoinSelf       JoinType = "SELF"
)

var joinTypes = map[JoinType]bool{
	JoinInner: true, JoinLeft: true, JoinRight: true, JoinFull: true,
	JoinLeftOuter: true, JoinRightOuter: true, JoinFullOuter: true,
	JoinCross: true, JoinNatural: true, JoinSelf: true,
}

// ParseJoinType normalizes a join type string. An empty string means INNER.
func ParseJoinType(s string) (JoinType, bool) {
	norm := strings.ToUpper(strings.Join(strings.Fields(s), " "))
	if norm == "" {
		return JoinInner, true
	}
	jt := JoinType(norm)
	return jt, joinTypes[jt]
}

// Join describes one JOIN clause. Alias is only emitted for SELF joins.
type Join struct {
	Table string         `json:"table"`
	Type  string         `json:"type,omitempty"`
	On    *JoinCondition `json:"on,omitempty"`
	Alias string         `json:"alias,omitempty"`
}

// ColumnRef names a column of a specific table.
type ColumnRef struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// JoinConditionKind tags which variant a JoinCondition holds.
type JoinConditionKind int

// Join condition variants.
const (
	JoinConditionNone JoinConditionKind = iota
	JoinConditionPair
	JoinConditionExpression
	JoinConditionComposite
)

// JoinCondition is a recursive join predicate: a column pair, a raw
// expression, or a composite of sub-conditions joined by Logic.
type JoinCondition struct {
	Kind JoinConditionKind

	// Pair
	Left     ColumnRef
	Right    ColumnRef
	Operator string

	// Expression is emitted verbatim.
	Expression string

	// Composite
	Conditions []JoinCondition
	Logic      string
}

// PairCondition builds a left <op> right condition. An empty op means "=".
func PairCondition(left, right ColumnRef, op string) JoinCondition {
	return JoinCondition{Kind: JoinConditionPair, Left: left, Right: right, Operator: op}
}

// ExpressionCondition wraps a caller-trusted raw SQL expression.
func ExpressionCondition(expr string) JoinCondition {
	return JoinCondition{Kind: JoinConditionExpression, Expression: expr}
}

// CompositeCondition joins sub-conditions with logic (AND when empty).
func CompositeCondition(logic string, conds ...JoinCondition) JoinCondition {
	return JoinCondition{Kind: JoinConditionComposite, Logic: logic, Conditions: conds}
}

// On is shorthand for an equality pair between table.column references.
func On(leftTable, leftColumn, rightTable, rightColumn string) *JoinCondition {
	c := PairCondition(ColumnRef{leftTable, leftColumn}, ColumnRef{rightTable, rightColumn}, "")
	return &c
}

type joinConditionWire struct {
	Left       *ColumnRef      `json:"left,omitempty"`
	Right      *ColumnRef      `json:"right,omitempty"`
	Operator   string          `json:"operator,omitempty"`
	Expression string          `json:"expression,omitempty"`
	Conditions []JoinCondition `json:"conditions,omitempty"`
	Logic      string          `json:"logic,omitempty"`
}

// UnmarshalJSON infers the variant from the fields present.
// A left/right pair wins over an expression, which wins over conditions.
func (c *JoinCondition) UnmarshalJSON(data []byte) error {
	var w joinConditionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch {
	case w.Left != nil && w.Right != nil:
		*c = PairCondition(*w.Left, *w.Right, w.Operator)
	case w.Expression != "":
		*c = ExpressionCondition(w.Expression)
	case w.Conditions != nil:
		*c = CompositeCondition(w.Logic, w.Conditions...)
	default:
		*c = JoinCondition{}
	}
	return nil
}

// MarshalJSON writes only the fields of the held variant.
func (c JoinCondition) MarshalJSON() ([]byte, error) {
	var w joinConditionWire
	switch c.Kind {
	case JoinConditionPair:
		left, right := c.Left, c.Right
		w.Left, w.Right, w.Operator = &left, &right, c.Operator
	case JoinConditionExpression:
		w.Expression = c.Expression
	case JoinConditionComposite:
		w.Conditions = c.Conditions
		if w.Conditions == nil {
			w.Conditions = []JoinCondition{}
		}
		w.Logic = c.Logic
	}
	return json.Marshal(w)
}

// =============================================================================
// Aggregations
// =============================================================================

// AggFunc is an aggregate function name.
type AggFunc string

// Supported aggregate functions.
const (
	AggSum         AggFunc = "SUM"
	AggCount       AggFunc = "COUNT"
	AggAvg         AggFunc = "AVG"
	AggMin         AggFunc = "MIN"
	AggMax         AggFunc = "MAX"
	AggStdDev      AggFunc = "STDDEV"
	AggVariance    AggFunc = "VARIANCE"
	AggDistinct    AggFunc = "DISTINCT"
	AggTotal       AggFunc = "TOTAL"
	AggGroupConcat AggFunc = "GROUP_CONCAT"
)

var aggFuncs = map[AggFunc]bool{
	AggSum: true, AggCount: true, AggAvg: true, AggMin: true, AggMax: true,
	AggStdDev: true, AggVariance: true, AggDistinct: true, AggTotal: true,
	AggGroupConcat: true,
}

// ParseAggFunc normalizes an aggregate function name.
func ParseAggFunc(s string) (AggFunc, bool) {
	fn := AggFunc(strings.ToUpper(strings.TrimSpace(s)))
	return fn, aggFuncs[fn]
}

// Aggregation is one aggregate expression in the select list.
// Column may be plain, dotted, "*" or the literal "COUNT(*)".
type Aggregation struct {
	Fn     string `json:"fn"`
	Column string `json:"column"`
	As     string `json:"as,omitempty"`
}

// =============================================================================
// Query description
// =============================================================================

// QuerySpec is a structured, untrusted description of a SELECT statement.
type QuerySpec struct {
	Table        string        `json:"table"`
	Columns      []string      `json:"columns,omitempty"`
	Where        []Condition   `json:"where,omitempty"`
	Joins        []Join        `json:"joins,omitempty"`
	Aggregations []Aggregation `json:"aggregations,omitempty"`
}

// NormalizeValues applies NormalizeNumbers to every condition value.
func (q *QuerySpec) NormalizeValues() {
	for i := range q.Where {
		q.Where[i].Value = NormalizeNumbers(q.Where[i].Value)
	}
}

// CompiledQuery is SQL text plus its positional parameters.
// Params bind to ? placeholders in left-to-right order.
type CompiledQuery struct {
	SQL      string   `json:"sql"`
	Params   []any    `json:"params"`
	Warnings []string `json:"warnings,omitempty"`
}
