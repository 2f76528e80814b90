package normalize

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlscope/pkg/core"
	"github.com/leapstack-labs/sqlscope/pkg/sqlgen"
)

// Report is the combined normalization and constraint analysis.
type Report struct {
	FirstNormalForm      FormResult            `json:"firstNormalForm"`
	SecondNormalForm     FormResult            `json:"secondNormalForm"`
	ThirdNormalForm      FormResult            `json:"thirdNormalForm"`
	ForeignKeys          []ForeignKey          `json:"foreignKeys"`
	Suggestions          []Suggestion          `json:"suggestions"`
	ConstraintViolations []ConstraintViolation `json:"constraintViolations"`
	NormalizationSQL     []Remediation         `json:"normalizationSQL"`
	ConstraintSQL        []Remediation         `json:"constraintSQL"`
	Diagnostics          []Diagnostic          `json:"diagnostics"`
}

// FormResult is the outcome of one normal-form check across all tables.
type FormResult struct {
	IsValid         bool                       `json:"isValid"`
	Violations      []Violation                `json:"violations"`
	Recommendations []string                   `json:"recommendations"`
	TableViolations map[string]TableViolations `json:"tableViolations"`
}

// Violation is a normal-form finding. Row and Value are set only for
// data-dependent findings.
type Violation struct {
	Table       string `json:"table"`
	Column      string `json:"column"`
	Row         *int   `json:"row,omitempty"`
	Issue       string `json:"issue"`
	Description string `json:"description,omitempty"`
	Value       any    `json:"value,omitempty"`
}

// TableViolations groups the violations of one table.
type TableViolations struct {
	Count  int         `json:"count"`
	Issues []Violation `json:"issues"`
}

// Suggestion summarizes a failing normal form.
type Suggestion struct {
	Level           string   `json:"level"`
	Issue           string   `json:"issue"`
	Description     string   `json:"description"`
	Recommendations []string `json:"recommendations"`
}

// ConstraintViolation is a row that breaks a declared constraint.
type ConstraintViolation struct {
	Table   string `json:"table"`
	Column  string `json:"column"`
	Row     int    `json:"row"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Remediation is illustrative SQL describing a fix. It is never executed.
type Remediation struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	SQL         string `json:"sql"`
}

// ViolationCount returns the number of diagnostics behind the report.
func (r *Report) ViolationCount() int {
	if r == nil {
		return 0
	}
	return len(r.Diagnostics)
}

// Valid reports whether no rule found anything.
func (r *Report) Valid() bool {
	return r.ViolationCount() == 0
}

func buildReport(schema *core.Schema, diags []Diagnostic) *Report {
	if diags == nil {
		diags = []Diagnostic{}
	}

	r := &Report{
		FirstNormalForm:  firstNormalFormResult(byRule(diags, "NF01")),
		SecondNormalForm: formResult(byRule(diags, "NF02"), "Consider splitting table with composite key into separate tables"),
		ThirdNormalForm:  formResult(byRule(diags, "NF03"), "Consider extracting transitive dependencies into separate tables"),
		ForeignKeys:      DetectForeignKeys(schema),
		Diagnostics:      diags,
	}
	if r.ForeignKeys == nil {
		r.ForeignKeys = []ForeignKey{}
	}

	r.Suggestions = suggestions(r)
	r.NormalizationSQL = normalizationSQL(r)

	r.ConstraintViolations = []ConstraintViolation{}
	if schema != nil {
		for _, d := range constraintOrder(schema, byRule(diags, "CK01", "CK02", "CK03", "CK04")) {
			r.ConstraintViolations = append(r.ConstraintViolations, ConstraintViolation{
				Table:   d.Table,
				Column:  d.Column,
				Row:     rowIndex(d),
				Type:    d.Kind,
				Message: d.Message,
			})
		}
	}
	r.ConstraintSQL = constraintSQL(r.ConstraintViolations)

	return r
}

func newFormResult(diags []Diagnostic) FormResult {
	res := FormResult{
		IsValid:         len(diags) == 0,
		Violations:      []Violation{},
		Recommendations: []string{},
		TableViolations: map[string]TableViolations{},
	}
	for _, d := range diags {
		v := Violation{
			Table:       d.Table,
			Column:      d.Column,
			Row:         d.Row,
			Issue:       d.Message,
			Description: d.Description,
			Value:       d.Value,
		}
		res.Violations = append(res.Violations, v)

		tv := res.TableViolations[d.Table]
		tv.Count++
		tv.Issues = append(tv.Issues, v)
		res.TableViolations[d.Table] = tv
	}
	return res
}

func firstNormalFormResult(diags []Diagnostic) FormResult {
	res := newFormResult(diags)
	seen := make(map[string]bool)
	for _, d := range diags {
		rec := fmt.Sprintf("Split column '%s' in table '%s' into separate atomic values", d.Column, d.Table)
		if !seen[rec] {
			seen[rec] = true
			res.Recommendations = append(res.Recommendations, rec)
		}
	}
	return res
}

func formResult(diags []Diagnostic, recommendation string) FormResult {
	res := newFormResult(diags)
	if len(diags) > 0 {
		res.Recommendations = append(res.Recommendations, recommendation)
	}
	return res
}

func suggestions(r *Report) []Suggestion {
	out := []Suggestion{}
	if !r.FirstNormalForm.IsValid {
		out = append(out, Suggestion{
			Level:           "1NF",
			Issue:           "First Normal Form violations detected",
			Description:     "Table contains repeating groups or non-atomic values",
			Recommendations: r.FirstNormalForm.Recommendations,
		})
	}
	if !r.SecondNormalForm.IsValid {
		out = append(out, Suggestion{
			Level:           "2NF",
			Issue:           "Second Normal Form violations detected",
			Description:     "Table has partial dependencies on composite primary key",
			Recommendations: r.SecondNormalForm.Recommendations,
		})
	}
	if !r.ThirdNormalForm.IsValid {
		out = append(out, Suggestion{
			Level:           "3NF",
			Issue:           "Third Normal Form violations detected",
			Description:     "Table has transitive dependencies",
			Recommendations: r.ThirdNormalForm.Recommendations,
		})
	}
	return out
}

// normalizationSQL emits a child table per non-atomic column and a
// placeholder for each failing higher normal form.
func normalizationSQL(r *Report) []Remediation {
	out := []Remediation{}
	for _, s := range r.Suggestions {
		switch s.Level {
		case "1NF":
			seen := make(map[string]bool)
			for _, v := range r.FirstNormalForm.Violations {
				table, column := sqlgen.Sanitize(v.Table), sqlgen.Sanitize(v.Column)
				key := table + "." + column
				if seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, Remediation{
					Type:        "1NF",
					Description: fmt.Sprintf("Create normalized table for %s.%s", v.Table, v.Column),
					SQL: fmt.Sprintf("-- Create new table for normalized %[2]s values\n"+
						"CREATE TABLE %[1]s_%[2]s_normalized (\n"+
						"  id INTEGER PRIMARY KEY,\n"+
						"  %[1]s_id INTEGER,\n"+
						"  %[2]s_value TEXT,\n"+
						"  FOREIGN KEY (%[1]s_id) REFERENCES %[1]s(id)\n"+
						");", table, column),
				})
			}
		case "2NF":
			out = append(out, Remediation{
				Type:        "2NF",
				Description: "Split table to eliminate partial dependencies",
				SQL: "-- Create separate tables to eliminate partial dependencies\n" +
					"-- (Specific SQL depends on the actual table structure)",
			})
		case "3NF":
			out = append(out, Remediation{
				Type:        "3NF",
				Description: "Extract transitive dependencies",
				SQL: "-- Create separate tables for transitive dependencies\n" +
					"-- (Specific SQL depends on the actual table structure)",
			})
		}
	}
	return out
}

// constraintSQL emits one remediation per violation type, in order of the
// first violation of each type. Null primary keys have no remediation.
func constraintSQL(violations []ConstraintViolation) []Remediation {
	var order []string
	byType := make(map[string][]ConstraintViolation)
	for _, v := range violations {
		if _, ok := byType[v.Type]; !ok {
			order = append(order, v.Type)
		}
		byType[v.Type] = append(byType[v.Type], v)
	}

	out := []Remediation{}
	for _, typ := range order {
		vs := byType[typ]
		var lines []string

		switch typ {
		case KindPrimaryKeyDuplicate:
			for _, v := range vs {
				lines = append(lines, fmt.Sprintf("-- Row %d: %s.%s = %s", v.Row, v.Table, v.Column, v.Message))
			}
			out = append(out, Remediation{
				Type:        "CONSTRAINT",
				Description: "Fix duplicate primary key values",
				SQL: "-- Remove duplicate primary key values\n" +
					"-- You may need to manually resolve these conflicts\n" +
					strings.Join(lines, "\n"),
			})

		case KindNotNull:
			seen := make(map[string]bool)
			for _, v := range vs {
				table, column := sqlgen.Sanitize(v.Table), sqlgen.Sanitize(v.Column)
				stmt := fmt.Sprintf("UPDATE %s SET %s = 'default_value' WHERE %s IS NULL;", table, column, column)
				if !seen[stmt] {
					seen[stmt] = true
					lines = append(lines, stmt)
				}
			}
			out = append(out, Remediation{
				Type:        "CONSTRAINT",
				Description: "Fix NOT NULL constraint violations",
				SQL:         "-- Update NULL values to satisfy NOT NULL constraints\n" + strings.Join(lines, "\n"),
			})

		case KindTypeMismatch:
			for _, v := range vs {
				lines = append(lines, fmt.Sprintf("-- Row %d: Convert %s.%s value", v.Row, v.Table, v.Column))
			}
			out = append(out, Remediation{
				Type:        "CONSTRAINT",
				Description: "Fix data type mismatches",
				SQL:         "-- Convert values to correct data types\n" + strings.Join(lines, "\n"),
			})
		}
	}
	return out
}
