// Package normalize evaluates sampled table contents against heuristic
// normal-form rules and declared column constraints.
//
// Checks are registered rules (see Register) grouped as "normalization"
// (NF01-NF03) or "constraint" (CK01-CK04). An Analyzer runs every enabled
// rule per table and folds the diagnostics into a Report that also carries
// detected foreign keys, per-form suggestions and illustrative remediation
// SQL. Nothing here executes SQL or mutates its input.
//
// The normal-form checks are naming and data heuristics, not functional
// dependency inference. A table with no sampled rows produces no
// data-dependent findings.
package normalize
