package core

import "context"

// AdapterConfig holds configuration for connecting to a database.
type AdapterConfig struct {
	Type    string
	Path    string
	Options map[string]string
	Params  map[string]any
}

// SchemaProvider introspects tables and their columns.
type SchemaProvider interface {
	Schema(ctx context.Context) (*Schema, error)
}

// Sampler fetches a bounded prefix of a table's rows in storage order.
type Sampler interface {
	Sample(ctx context.Context, table string, limit int) ([]Row, error)
}

// Executor runs compiled SQL with positional parameters.
type Executor interface {
	Query(ctx context.Context, sql string, args ...any) ([]Row, error)
}

// Source is everything the engine needs from a store: its schema,
// bounded samples, and query execution.
type Source interface {
	SchemaProvider
	Sampler
	Executor
}
