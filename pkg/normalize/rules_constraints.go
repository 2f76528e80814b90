package normalize

import (
	"fmt"

	"github.com/leapstack-labs/sqlscope/pkg/core"
)

func init() {
	Register(PrimaryKeyNotNull)
	Register(PrimaryKeyUnique)
	Register(NotNull)
	Register(TypeMatch)
}

// PrimaryKeyNotNull flags null or empty values in the first primary key column.
var PrimaryKeyNotNull = RuleDef{
	ID:          "CK01",
	Name:        "constraint.primary_key_null",
	Group:       GroupConstraint,
	Description: "Primary key values must not be null or empty.",
	Severity:    core.SeverityError,
	Check:       checkPrimaryKeyNotNull,
}

// PrimaryKeyUnique flags repeated values in the first primary key column.
var PrimaryKeyUnique = RuleDef{
	ID:          "CK02",
	Name:        "constraint.primary_key_duplicate",
	Group:       GroupConstraint,
	Description: "Primary key values must be unique across the sample.",
	Severity:    core.SeverityError,
	Check:       checkPrimaryKeyUnique,
}

// NotNull flags null or empty values in NOT NULL columns.
var NotNull = RuleDef{
	ID:          "CK03",
	Name:        "constraint.not_null",
	Group:       GroupConstraint,
	Description: "Columns declared NOT NULL must hold a value.",
	Severity:    core.SeverityError,
	Check:       checkNotNull,
}

// TypeMatch flags values incompatible with the declared column type.
var TypeMatch = RuleDef{
	ID:          "CK04",
	Name:        "constraint.type_mismatch",
	Group:       GroupConstraint,
	Description: "Values must be compatible with the declared column type.",
	Severity:    core.SeverityWarning,
	Check:       checkTypeMatch,
}

// firstKey returns the first declared primary key column. Only that column
// is checked, even for composite keys.
func firstKey(table *core.Table) (string, bool) {
	for _, c := range table.Columns {
		if c.PrimaryKey {
			return c.Name, true
		}
	}
	return "", false
}

func checkPrimaryKeyNotNull(table *core.Table, rows []core.Row) []Diagnostic {
	pk, ok := firstKey(table)
	if !ok {
		return nil
	}

	var diags []Diagnostic
	for i, row := range rows {
		if !core.IsBlank(row[pk]) {
			continue
		}
		diags = append(diags, Diagnostic{
			RuleID:   "CK01",
			Severity: core.SeverityError,
			Kind:     KindPrimaryKeyNull,
			Table:    table.Name,
			Column:   pk,
			Row:      rowRef(i),
			Message:  "Primary key cannot be null or empty",
		})
	}
	return diags
}

func checkPrimaryKeyUnique(table *core.Table, rows []core.Row) []Diagnostic {
	pk, ok := firstKey(table)
	if !ok {
		return nil
	}

	var diags []Diagnostic
	seen := make(map[string]bool, len(rows))
	for i, row := range rows {
		v := row[pk]
		if core.IsBlank(v) {
			continue
		}
		key := core.ValueKey(v)
		if !seen[key] {
			seen[key] = true
			continue
		}
		diags = append(diags, Diagnostic{
			RuleID:   "CK02",
			Severity: core.SeverityError,
			Kind:     KindPrimaryKeyDuplicate,
			Table:    table.Name,
			Column:   pk,
			Row:      rowRef(i),
			Value:    v,
			Message:  "Duplicate primary key value: " + core.DisplayString(v),
		})
	}
	return diags
}

func checkNotNull(table *core.Table, rows []core.Row) []Diagnostic {
	var diags []Diagnostic
	for _, col := range table.Columns {
		if !col.NotNull {
			continue
		}
		for i, row := range rows {
			if !core.IsBlank(row[col.Name]) {
				continue
			}
			diags = append(diags, Diagnostic{
				RuleID:   "CK03",
				Severity: core.SeverityError,
				Kind:     KindNotNull,
				Table:    table.Name,
				Column:   col.Name,
				Row:      rowRef(i),
				Message:  "NOT NULL constraint violated",
			})
		}
	}
	return diags
}

func checkTypeMatch(table *core.Table, rows []core.Row) []Diagnostic {
	var diags []Diagnostic
	for _, col := range table.Columns {
		for i, row := range rows {
			v := row[col.Name]
			if core.IsBlank(v) || ValidType(v, col.Type) {
				continue
			}
			diags = append(diags, Diagnostic{
				RuleID:   "CK04",
				Severity: core.SeverityWarning,
				Kind:     KindTypeMismatch,
				Table:    table.Name,
				Column:   col.Name,
				Row:      rowRef(i),
				Value:    v,
				Message:  fmt.Sprintf("Value '%s' does not match expected type %s", core.DisplayString(v), col.Type),
			})
		}
	}
	return diags
}
