package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOperator(t *testing.T) {
	tests := []struct {
		input  string
		want   Operator
		wantOK bool
	}{
		{"", OpEq, true},
		{"like", OpLike, true},
		{"is  not   null", OpIsNotNull, true},
		{" in ", OpIn, true},
		{"<>", Operator("<>"), false},
		{"; DROP TABLE x", Operator("; DROP TABLE X"), false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseOperator(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseJoinType(t *testing.T) {
	jt, ok := ParseJoinType("")
	assert.True(t, ok)
	assert.Equal(t, JoinInner, jt)

	jt, ok = ParseJoinType("left outer")
	assert.True(t, ok)
	assert.Equal(t, JoinLeftOuter, jt)

	_, ok = ParseJoinType("sideways")
	assert.False(t, ok)
}

func TestParseAggFunc(t *testing.T) {
	fn, ok := ParseAggFunc("group_concat")
	assert.True(t, ok)
	assert.Equal(t, AggGroupConcat, fn)

	_, ok = ParseAggFunc("median")
	assert.False(t, ok)
}

func TestJoinCondition_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		json string
		want JoinCondition
	}{
		{
			name: "pair",
			json: `{"left":{"table":"o","column":"cid"},"right":{"table":"c","column":"id"}}`,
			want: PairCondition(ColumnRef{Table: "o", Column: "cid"}, ColumnRef{Table: "c", Column: "id"}, ""),
		},
		{
			name: "expression",
			json: `{"expression":"o.cid = c.id"}`,
			want: ExpressionCondition("o.cid = c.id"),
		},
		{
			name: "composite",
			json: `{"logic":"OR","conditions":[{"expression":"a = b"},{"expression":"c = d"}]}`,
			want: CompositeCondition("OR", ExpressionCondition("a = b"), ExpressionCondition("c = d")),
		},
		{
			name: "pair wins over expression",
			json: `{"left":{"table":"a","column":"x"},"right":{"table":"b","column":"y"},"expression":"ignored"}`,
			want: PairCondition(ColumnRef{Table: "a", Column: "x"}, ColumnRef{Table: "b", Column: "y"}, ""),
		},
		{
			name: "empty",
			json: `{}`,
			want: JoinCondition{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got JoinCondition
			require.NoError(t, json.Unmarshal([]byte(tt.json), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuerySpec_DecodeNested(t *testing.T) {
	raw := `{
		"table": "orders",
		"columns": ["orders.id", "customers.name"],
		"where": [{"column": "status", "operator": "in", "value": ["new", "paid"]}],
		"joins": [{
			"table": "customers",
			"type": "left",
			"on": {"conditions": [
				{"left": {"table": "orders", "column": "customer_id"}, "right": {"table": "customers", "column": "id"}},
				{"expression": "customers.active = 1"}
			]}
		}],
		"aggregations": [{"fn": "count", "column": "*", "as": "n"}]
	}`

	var spec QuerySpec
	require.NoError(t, json.Unmarshal([]byte(raw), &spec))

	require.Len(t, spec.Joins, 1)
	on := spec.Joins[0].On
	require.NotNil(t, on)
	assert.Equal(t, JoinConditionComposite, on.Kind)
	require.Len(t, on.Conditions, 2)
	assert.Equal(t, JoinConditionPair, on.Conditions[0].Kind)
	assert.Equal(t, JoinConditionExpression, on.Conditions[1].Kind)
	assert.Equal(t, []any{"new", "paid"}, spec.Where[0].Value)
}

func TestJoinCondition_MarshalJSON(t *testing.T) {
	c := CompositeCondition("AND", *On("a", "id", "b", "a_id"))
	data, err := json.Marshal(c)
	require.NoError(t, err)

	var back JoinCondition
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, c, back)
}
