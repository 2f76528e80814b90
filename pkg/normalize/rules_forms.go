package normalize

import (
	"strings"

	"github.com/leapstack-labs/sqlscope/pkg/core"
)

func init() {
	Register(FirstNormalForm)
	Register(SecondNormalForm)
	Register(ThirdNormalForm)
}

// FirstNormalForm flags string cells holding comma separated lists.
var FirstNormalForm = RuleDef{
	ID:          "NF01",
	Name:        "normal_form.first",
	Group:       GroupNormalization,
	Description: "Cell values must be atomic; a comma inside a string suggests a repeating group.",
	Severity:    core.SeverityWarning,
	Check:       checkFirstNormalForm,
}

// SecondNormalForm flags descriptive columns in tables keyed by a composite
// primary key.
var SecondNormalForm = RuleDef{
	ID:          "NF02",
	Name:        "normal_form.second",
	Group:       GroupNormalization,
	Description: "Descriptive columns in a table with a composite key may depend on only part of the key.",
	Severity:    core.SeverityWarning,
	Check:       checkSecondNormalForm,
}

// ThirdNormalForm flags location columns that usually depend on another
// non-key column.
var ThirdNormalForm = RuleDef{
	ID:          "NF03",
	Name:        "normal_form.third",
	Group:       GroupNormalization,
	Description: "City and state columns usually depend on another non-key column.",
	Severity:    core.SeverityInfo,
	Check:       checkThirdNormalForm,
}

func checkFirstNormalForm(table *core.Table, rows []core.Row) []Diagnostic {
	var diags []Diagnostic
	for _, col := range table.Columns {
		for i, row := range rows {
			s, ok := row[col.Name].(string)
			if !ok || !strings.Contains(s, ",") {
				continue
			}
			diags = append(diags, Diagnostic{
				RuleID:   "NF01",
				Severity: core.SeverityWarning,
				Kind:     KindNonAtomic,
				Table:    table.Name,
				Column:   col.Name,
				Row:      rowRef(i),
				Value:    s,
				Message:  "Non-atomic value detected",
			})
		}
	}
	return diags
}

func checkSecondNormalForm(table *core.Table, _ []core.Row) []Diagnostic {
	if len(table.PrimaryKeys()) < 2 {
		return nil
	}

	var diags []Diagnostic
	for _, col := range table.NonKeyColumns() {
		name := strings.ToLower(col.Name)
		if !strings.Contains(name, "name") && !strings.Contains(name, "description") {
			continue
		}
		diags = append(diags, Diagnostic{
			RuleID:      "NF02",
			Severity:    core.SeverityWarning,
			Kind:        KindPartialDependency,
			Table:       table.Name,
			Column:      col.Name,
			Message:     "Potential partial dependency on composite key",
			Description: "Column may depend on only part of the composite key",
		})
	}
	return diags
}

func checkThirdNormalForm(table *core.Table, _ []core.Row) []Diagnostic {
	var diags []Diagnostic
	for _, col := range table.NonKeyColumns() {
		name := strings.ToLower(col.Name)
		if !strings.Contains(name, "city") && !strings.Contains(name, "state") {
			continue
		}
		diags = append(diags, Diagnostic{
			RuleID:      "NF03",
			Severity:    core.SeverityInfo,
			Kind:        KindTransitiveDependency,
			Table:       table.Name,
			Column:      col.Name,
			Message:     "Potential transitive dependency",
			Description: "Column may depend on another non-key column",
		})
	}
	return diags
}
