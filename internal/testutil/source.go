package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/leapstack-labs/sqlscope/pkg/core"
)

// MemorySource is an in-memory core.Source. Sample returns the leading
// rows of Data; Query delegates to QueryFunc and records every call.
type MemorySource struct {
	SchemaDef *core.Schema
	Data      core.Dataset
	QueryFunc func(sql string, args []any) ([]core.Row, error)

	// SampleErr makes Sample fail for the named tables.
	SampleErr map[string]error

	mu      sync.Mutex
	Queries []string
}

// Schema returns SchemaDef.
func (m *MemorySource) Schema(_ context.Context) (*core.Schema, error) {
	if m.SchemaDef == nil {
		return core.NewSchema(), nil
	}
	return m.SchemaDef, nil
}

// Sample returns up to limit rows of table.
func (m *MemorySource) Sample(ctx context.Context, table string, limit int) ([]core.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.SampleErr[table]; err != nil {
		return nil, err
	}
	rows := m.Data.Rows(table)
	if limit >= 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// Query records sql and delegates to QueryFunc.
func (m *MemorySource) Query(_ context.Context, sql string, args ...any) ([]core.Row, error) {
	m.mu.Lock()
	m.Queries = append(m.Queries, sql)
	m.mu.Unlock()

	if m.QueryFunc == nil {
		return nil, fmt.Errorf("no query handler for %q", sql)
	}
	return m.QueryFunc(sql, args)
}

// ShopSchema is a two-table fixture: customers and the orders that
// reference them.
func ShopSchema() *core.Schema {
	return core.NewSchema(
		core.Table{Name: "customer", Columns: []core.Column{
			{Name: "id", Type: "INTEGER", PrimaryKey: true, NotNull: true},
			{Name: "name", Type: "TEXT", NotNull: true},
			{Name: "city", Type: "TEXT"},
		}},
		core.Table{Name: "orders", Columns: []core.Column{
			{Name: "id", Type: "INTEGER", PrimaryKey: true},
			{Name: "customer_id", Type: "INTEGER"},
			{Name: "amount", Type: "REAL"},
			{Name: "tags", Type: "TEXT"},
		}},
	)
}

// ShopData is sample content for ShopSchema. It carries one non-atomic
// value (orders row 0), one duplicate primary key (orders row 3) and one
// orphaned customer reference (orders row 2).
func ShopData() core.Dataset {
	return core.Dataset{
		"customer": {
			{"id": int64(1), "name": "Ann", "city": "Oslo"},
			{"id": int64(2), "name": "Bo", "city": "Bergen"},
		},
		"orders": {
			{"id": int64(1), "customer_id": int64(1), "amount": 10.5, "tags": "gift,rush"},
			{"id": int64(2), "customer_id": int64(2), "amount": 20.0, "tags": "rush"},
			{"id": int64(3), "customer_id": int64(7), "amount": 5.25, "tags": nil},
			{"id": int64(3), "customer_id": int64(1), "amount": 8.0, "tags": "gift"},
		},
	}
}
