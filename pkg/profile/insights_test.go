package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlscope/pkg/core"
)

func shopSchema() *core.Schema {
	return core.NewSchema(
		core.Table{Name: "customer", Columns: []core.Column{
			{Name: "id", Type: "INTEGER", PrimaryKey: true, NotNull: true},
			{Name: "name", Type: "TEXT"},
			{Name: "signup_date", Type: "DATE"},
		}},
		core.Table{Name: "orders", Columns: []core.Column{
			{Name: "id", Type: "INTEGER", PrimaryKey: true},
			{Name: "customer_id", Type: "INTEGER"},
			{Name: "qty", Type: "INTEGER"},
			{Name: "amount", Type: "REAL"},
			{Name: "paid", Type: "BOOLEAN"},
		}},
	)
}

func shopData() core.Dataset {
	return core.Dataset{
		"customer": {
			{"id": int64(1), "name": "Ann", "signup_date": "2024-01-01"},
			{"id": int64(2), "name": "Bartholomew", "signup_date": nil},
			{"id": int64(3), "name": "", "signup_date": "2024-02-01"},
		},
		"orders": {
			{"id": int64(1), "customer_id": int64(1), "qty": int64(1), "amount": 10.0, "paid": true},
			{"id": int64(2), "customer_id": int64(2), "qty": int64(2), "amount": 20.0, "paid": false},
			{"id": int64(3), "customer_id": int64(9), "qty": int64(3), "amount": 30.5, "paid": true},
			{"id": int64(4), "customer_id": int64(1), "qty": int64(4), "amount": 41.0, "paid": "yes"},
			{"id": int64(5), "customer_id": nil, "qty": int64(5), "amount": 49.0, "paid": true},
			{"id": int64(6), "customer_id": int64(2), "qty": int64(100), "amount": 1000.0, "paid": true},
		},
	}
}

func TestExtract_Overview(t *testing.T) {
	in := Extract(shopSchema(), shopData())

	o := in.TableOverview["orders"]
	assert.Equal(t, 6, o.RowCount)
	assert.Equal(t, 5, o.ColumnCount)
	assert.Equal(t, 1, o.PrimaryKeys)
	assert.Equal(t, 1, o.ForeignKeys)
	assert.Equal(t, 5, o.NullableColumns)
	assert.Equal(t, TypeCounts{Numeric: 4, Boolean: 1}, o.DataTypes)
	assert.Greater(t, o.SizeEstimate.EstimatedBytes, 0.0)
	assert.InDelta(t, o.SizeEstimate.EstimatedBytes/(1024*1024), o.SizeEstimate.EstimatedMB, 1e-12)

	c := in.TableOverview["customer"]
	assert.Equal(t, TypeCounts{Text: 1, Numeric: 1, Date: 1}, c.DataTypes)
}

func TestEstimateSize(t *testing.T) {
	table := &core.Table{Name: "t", Columns: []core.Column{{Name: "a"}, {Name: "b"}}}

	empty := estimateSize(table, nil)
	assert.Equal(t, 0.0, empty.EstimatedBytes)

	rows := []core.Row{{"a": "abcd", "b": nil}, {"a": "ab", "b": 0}}
	// a averages 3 characters; b has only falsy values and falls back to 10.
	assert.Equal(t, 26.0, estimateSize(table, rows).EstimatedBytes)
}

func TestExtract_DataQuality(t *testing.T) {
	in := Extract(shopSchema(), shopData())
	q := in.DataQuality["customer"]

	name := q.Completeness["name"]
	assert.Equal(t, 3, name.TotalRows)
	assert.Equal(t, 2, name.NonNullRows)
	assert.Equal(t, 1, name.NullCount)
	assert.InDelta(t, 66.666, name.CompletenessRate, 0.01)

	id := q.Completeness["id"]
	assert.Equal(t, 100.0, id.CompletenessRate)
	assert.True(t, q.Uniqueness["id"].IsUnique)

	cons, ok := q.Consistency["name"]
	require.True(t, ok)
	assert.Equal(t, 3, cons.MinLength)
	assert.Equal(t, 11, cons.MaxLength)
	assert.Equal(t, 7.0, cons.AverageLength)
	assert.Equal(t, 16.0, cons.LengthVariance)
	assert.False(t, cons.HasInconsistentLength)
	_, ok = q.Consistency["id"]
	assert.False(t, ok)

	paid := in.DataQuality["orders"].Validity["paid"]
	assert.Equal(t, 5, paid.ValidTypeCount)
	assert.Equal(t, 1, paid.InvalidTypeCount)
}

func TestExtract_RatesBounded(t *testing.T) {
	in := Extract(shopSchema(), shopData())
	for table, q := range in.DataQuality {
		for col, c := range q.Completeness {
			assert.GreaterOrEqual(t, c.CompletenessRate, 0.0, "%s.%s", table, col)
			assert.LessOrEqual(t, c.CompletenessRate, 100.0, "%s.%s", table, col)
			assert.Equal(t, c.NullCount == 0, c.CompletenessRate == 100, "%s.%s", table, col)
		}
		for col, u := range q.Uniqueness {
			assert.GreaterOrEqual(t, u.UniquenessRate, 0.0, "%s.%s", table, col)
			assert.LessOrEqual(t, u.UniquenessRate, 100.0, "%s.%s", table, col)
		}
	}
}

func TestExtract_Statistics(t *testing.T) {
	in := Extract(shopSchema(), shopData())
	stats := in.Statistics["orders"]

	_, ok := stats["paid"]
	assert.False(t, ok, "BOOLEAN is not a numeric column")

	qty := stats["qty"]
	assert.Equal(t, 6, qty.Count)
	assert.Equal(t, []float64{100}, qty.Outliers)
	assert.Equal(t, 1.0, qty.Min)
	assert.Equal(t, 99.0, qty.Range)

	cust := stats["customer_id"]
	assert.Equal(t, 5, cust.Count, "nil is skipped")
}

func TestExtract_Patterns(t *testing.T) {
	in := Extract(shopSchema(), shopData())
	p := in.Patterns["orders"]

	assert.Empty(t, p.Duplicates)

	assert.Equal(t, []Anomaly{
		{Column: "customer_id", Value: 9, Type: "NUMERICAL_OUTLIER"},
		{Column: "qty", Value: 100, Type: "NUMERICAL_OUTLIER"},
		{Column: "amount", Value: 1000, Type: "NUMERICAL_OUTLIER"},
	}, p.Anomalies)

	var found *Correlation
	for i := range p.Correlations {
		if p.Correlations[i].Column1 == "qty" && p.Correlations[i].Column2 == "amount" {
			found = &p.Correlations[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "STRONG", found.Strength)
	assert.Greater(t, found.Correlation, 0.9)

	trends := in.Patterns["customer"].Trends
	assert.Equal(t, []Trend{{Column: "signup_date", Type: "TIME_SERIES_DETECTED", Suggestion: "Consider time-series analysis"}}, trends)
}

func TestDuplicates(t *testing.T) {
	table := &core.Table{Name: "t", Columns: []core.Column{{Name: "a"}, {Name: "b"}}}
	row := core.Row{"a": int64(1), "b": "x"}
	other := core.Row{"a": int64(2), "b": "x"}

	for _, rows := range [][]core.Row{
		{row, row, other},
		{other, row, row},
		{row, other, core.Row{"b": "x", "a": 1.0}},
	} {
		dups := Duplicates(table, rows)
		assert.Len(t, dups, 1)
	}

	assert.Empty(t, Duplicates(table, []core.Row{row, {"a": "1", "b": "x"}}), "number and string differ")
	assert.Empty(t, Duplicates(table, []core.Row{{"a": nil}, {}}), "nil differs from absent")
}

func TestExtract_Relationships(t *testing.T) {
	in := Extract(shopSchema(), shopData())
	rel := in.Relationships

	require.Len(t, rel.ForeignKeys, 1)
	require.Len(t, rel.PotentialRelationships, 1)
	assert.Equal(t, PotentialRelationship{
		FromTable: "orders", FromColumn: "customer_id", ToTable: "customer", ToColumn: "id",
		Type: "POTENTIAL_FOREIGN_KEY", Confidence: "HIGH",
	}, rel.PotentialRelationships[0])

	orphans := rel.ReferentialIntegrity["orders"].OrphanedRecords
	require.Len(t, orphans, 1)
	assert.Equal(t, OrphanedRecord{Row: 2, Column: "customer_id", Value: int64(9), ReferencedTable: "customer"}, orphans[0])
	assert.Empty(t, rel.ReferentialIntegrity["customer"].OrphanedRecords)

	card := rel.Cardinality["orders"].UniqueValues["customer_id"]
	assert.Equal(t, 5, card.Total)
	assert.Equal(t, 3, card.Unique)
	assert.InDelta(t, 0.6, card.Cardinality, 1e-9)
}

func TestExtract_Recommendations(t *testing.T) {
	in := Extract(shopSchema(), shopData())

	var issues []string
	for _, r := range in.Recommendations {
		issues = append(issues, r.Table+"."+r.Column+": "+r.Issue)
	}
	assert.Equal(t, []string{
		"customer.name: Low completeness rate",
		"customer.signup_date: Low completeness rate",
		"orders.customer_id: Outliers detected",
		"orders.qty: Outliers detected",
		"orders.amount: Outliers detected",
	}, issues)

	first := in.Recommendations[0]
	assert.Equal(t, core.PriorityHigh, first.Priority)
	assert.Equal(t, "Column name has only 66.7% completeness", first.Description)
}

func TestExtract_DuplicateAndUniquenessRecommendations(t *testing.T) {
	schema := core.NewSchema(core.Table{Name: "events", Columns: []core.Column{
		{Name: "kind", Type: "TEXT"},
	}})
	rows := make([]core.Row, 12)
	for i := range rows {
		rows[i] = core.Row{"kind": "click"}
	}

	in := Extract(schema, core.Dataset{"events": rows})

	require.Len(t, in.Recommendations, 2)
	assert.Equal(t, "Low uniqueness rate", in.Recommendations[0].Issue)
	assert.Equal(t, core.PriorityMedium, in.Recommendations[0].Priority)
	assert.Equal(t, "Duplicate rows detected", in.Recommendations[1].Issue)
	assert.Equal(t, "Found 11 duplicate rows", in.Recommendations[1].Description)
	assert.Empty(t, in.Recommendations[1].Column)
}

func TestExtract_EmptyTable(t *testing.T) {
	schema := core.NewSchema(core.Table{Name: "empty", Columns: []core.Column{{Name: "id", Type: "INTEGER"}}})

	in := Extract(schema, nil)

	assert.Equal(t, 0, in.TableOverview["empty"].RowCount)
	assert.Empty(t, in.Statistics["empty"])
	assert.Empty(t, in.Recommendations)
	assert.NotNil(t, in.Recommendations)
}

func TestCorrelationStrength(t *testing.T) {
	tests := []struct {
		r        float64
		strength string
		reported bool
	}{
		{0.95, "STRONG", true},
		{-0.95, "STRONG", true},
		{0.9, "MODERATE", true},
		{-0.9, "MODERATE", true},
		{0.8, "MODERATE", true},
		{0.7000001, "MODERATE", true},
		{0.7, "", false},
		{-0.5, "", false},
	}

	for _, tt := range tests {
		strength, ok := correlationStrength(tt.r)
		assert.Equal(t, tt.reported, ok, "r=%v", tt.r)
		assert.Equal(t, tt.strength, strength, "r=%v", tt.r)
	}
}

func TestExtract_ModerateCorrelation(t *testing.T) {
	schema := core.NewSchema(core.Table{Name: "m", Columns: []core.Column{
		{Name: "x", Type: "INTEGER"},
		{Name: "y", Type: "INTEGER"},
	}})
	// r = 8 / sqrt(10 * 10) = 0.8
	var rows []core.Row
	for i, y := range []int64{2, 1, 4, 3, 5} {
		rows = append(rows, core.Row{"x": int64(i + 1), "y": y})
	}

	in := Extract(schema, core.Dataset{"m": rows})
	corr := in.Patterns["m"].Correlations
	require.Len(t, corr, 1)
	assert.Equal(t, "MODERATE", corr[0].Strength)
	assert.InDelta(t, 0.8, corr[0].Correlation, 1e-9)
}

func TestConsistency_LengthVariance(t *testing.T) {
	tests := []struct {
		name         string
		values       []any
		variance     float64
		inconsistent bool
	}{
		{"uniform", []any{"ab", "cd"}, 0, false},
		{"small spread", []any{"ab", "abcd"}, 1, false},
		{"limit is not exceeded", []any{"", "aaaaaaaaaaaaaaaaaaaa"}, 100, false},
		{"wide spread", []any{"a", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}, 210.25, true},
		{"non-strings ignored", []any{"a", 12345678, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}, 210.25, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := consistency(tt.values)
			assert.Equal(t, tt.variance, c.LengthVariance)
			assert.Equal(t, tt.inconsistent, c.HasInconsistentLength)
		})
	}
}
