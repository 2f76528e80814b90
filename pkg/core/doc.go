// Package core defines the shared language of sqlscope.
//
// This package contains:
//   - Schema entities (Schema, Table, Column)
//   - Sampled data (Row, Dataset) and value helpers
//   - Query descriptions (QuerySpec, Condition, Join, Aggregation)
//   - Collaborator interfaces (SchemaProvider, Sampler, Executor, HistoryStore)
//
// pkg/core imports ONLY the standard library.
// All other packages depend on core, not the reverse.
package core
