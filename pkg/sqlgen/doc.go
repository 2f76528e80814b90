// Package sqlgen compiles structured query descriptions into parameterized
// SQLite SELECT statements.
//
// Every identifier that reaches SQL text passes through Sanitize exactly once
// at the point of emission. Values are never inlined: they are bound to ?
// placeholders in left-to-right emission order.
//
// Compilation never fails. Conditions, joins and aggregations that cannot be
// resolved are dropped and reported as warnings on the compiled query.
package sqlgen
