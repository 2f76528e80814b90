package normalize

import "github.com/leapstack-labs/sqlscope/pkg/core"

// Rule groups.
const (
	GroupNormalization = "normalization"
	GroupConstraint    = "constraint"
)

// Diagnostic kinds.
const (
	KindNonAtomic            = "NON_ATOMIC_VALUE"
	KindPartialDependency    = "PARTIAL_DEPENDENCY"
	KindTransitiveDependency = "TRANSITIVE_DEPENDENCY"
	KindPrimaryKeyNull       = "PRIMARY_KEY_NULL"
	KindPrimaryKeyDuplicate  = "PRIMARY_KEY_DUPLICATE"
	KindNotNull              = "NOT_NULL_VIOLATION"
	KindTypeMismatch         = "TYPE_MISMATCH"
)

// RuleDef is a data-driven rule definition.
// Rules are stateless; all context comes via the Check parameters.
type RuleDef struct {
	ID          string        // Unique identifier, e.g., "NF01"
	Name        string        // Human-readable name, e.g., "normal_form.first"
	Group       string        // GroupNormalization or GroupConstraint
	Description string        // Human-readable description
	Severity    core.Severity // Default severity
	Check       CheckFunc     // The check function
}

// CheckFunc inspects one table and its sampled rows.
// rows may be empty; data-dependent checks must then report nothing.
type CheckFunc func(table *core.Table, rows []core.Row) []Diagnostic

// Diagnostic is a single rule finding.
type Diagnostic struct {
	RuleID      string        `json:"ruleId"`
	Severity    core.Severity `json:"severity"`
	Kind        string        `json:"kind"`
	Table       string        `json:"table"`
	Column      string        `json:"column,omitempty"`
	Row         *int          `json:"row,omitempty"`
	Value       any           `json:"value,omitempty"`
	Message     string        `json:"message"`
	Description string        `json:"description,omitempty"`
}

func rowRef(i int) *int { return &i }
