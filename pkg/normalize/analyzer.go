package normalize

import (
	"sort"

	"github.com/leapstack-labs/sqlscope/pkg/core"
)

// Analyzer runs registered rules against a schema and its sampled rows.
type Analyzer struct {
	config *Config
}

// NewAnalyzer creates a new analyzer with optional configuration.
func NewAnalyzer(config *Config) *Analyzer {
	if config == nil {
		config = NewConfig()
	}
	return &Analyzer{config: config}
}

// Rules returns the enabled rules in the order they run.
func (a *Analyzer) Rules() []RuleDef {
	var rules []RuleDef
	for _, rule := range GetAll() {
		if !a.config.IsDisabled(rule.ID) {
			rules = append(rules, rule)
		}
	}
	return rules
}

// Check runs every enabled rule over every table in schema order and
// returns the flat diagnostics. Tables missing from data are checked
// with no rows.
func (a *Analyzer) Check(schema *core.Schema, data core.Dataset) []Diagnostic {
	if schema == nil {
		return nil
	}

	rules := a.Rules()
	var diagnostics []Diagnostic
	for i := range schema.Tables {
		table := &schema.Tables[i]
		rows := data.Rows(table.Name)

		for _, rule := range rules {
			diags := rule.Check(table, rows)

			// Apply severity overrides
			for j := range diags {
				diags[j].Severity = a.config.GetSeverity(rule.ID, diags[j].Severity)
			}

			diagnostics = append(diagnostics, diags...)
		}
	}
	return diagnostics
}

// Analyze checks the schema and folds the findings into a Report.
func (a *Analyzer) Analyze(schema *core.Schema, data core.Dataset) *Report {
	return buildReport(schema, a.Check(schema, data))
}

// Analyze is shorthand for NewAnalyzer(cfg).Analyze(schema, data).
func Analyze(schema *core.Schema, data core.Dataset, cfg *Config) *Report {
	return NewAnalyzer(cfg).Analyze(schema, data)
}

// byRule returns the diagnostics produced by the given rules, keeping order.
func byRule(diags []Diagnostic, ids ...string) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		for _, id := range ids {
			if d.RuleID == id {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

// constraintOrder arranges constraint diagnostics per table: primary key
// findings in row order, then NOT NULL, then type mismatches.
func constraintOrder(schema *core.Schema, diags []Diagnostic) []Diagnostic {
	var out []Diagnostic
	for _, t := range schema.Tables {
		var table []Diagnostic
		for _, d := range diags {
			if d.Table == t.Name {
				table = append(table, d)
			}
		}

		pk := byRule(table, "CK01", "CK02")
		sort.SliceStable(pk, func(i, j int) bool { return rowIndex(pk[i]) < rowIndex(pk[j]) })

		out = append(out, pk...)
		out = append(out, byRule(table, "CK03")...)
		out = append(out, byRule(table, "CK04")...)
	}
	return out
}

func rowIndex(d Diagnostic) int {
	if d.Row == nil {
		return -1
	}
	return *d.Row
}
