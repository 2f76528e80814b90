// Package adapter defines the store contract the engine runs against and
// the registry concrete stores register themselves in.
//
// Concrete adapter implementations are in pkg/adapters/ subdirectories.
package adapter

import (
	"context"

	"github.com/leapstack-labs/sqlscope/pkg/core"
)

// Config is an alias for core.AdapterConfig.
type Config = core.AdapterConfig

// Adapter defines the interface that all store adapters must implement.
// An adapter is a core.Source: it reports its schema, samples tables and
// executes compiled queries.
type Adapter interface {
	core.Source

	// Connect opens the store described by cfg.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the store and releases resources.
	Close() error

	// Exec executes a statement that doesn't return rows.
	Exec(ctx context.Context, sql string, args ...any) error

	// LoadTable creates table if it does not exist and inserts rows into it.
	// Row keys that are not columns of table are ignored.
	LoadTable(ctx context.Context, table core.Table, rows []core.Row) error

	// DialectName returns the SQL dialect the store speaks.
	DialectName() string
}
