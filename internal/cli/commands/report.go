package commands

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/leapstack-labs/sqlscope/internal/cli/output"
	"github.com/leapstack-labs/sqlscope/internal/engine"
	"github.com/leapstack-labs/sqlscope/pkg/normalize"
	"github.com/leapstack-labs/sqlscope/pkg/profile"
)

// maxListed caps how many findings of one kind are printed in text mode.
const maxListed = 20

func renderReport(r *output.Renderer, report *engine.Report) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(report)
	}

	if report.Normalization != nil {
		renderNormalization(r, report.Normalization)
	}
	if report.Insights != nil {
		if report.Normalization != nil {
			r.Println()
		}
		renderInsights(r, report.Insights)
	}

	tables := 0
	if report.Schema != nil {
		tables = len(report.Schema.Tables)
	}
	r.Println()
	r.Muted(fmt.Sprintf("Sampled %d rows across %d tables in %s", report.SampledRows, tables, report.Duration.Round(time.Microsecond)))
	return nil
}

func renderNormalization(r *output.Renderer, rep *normalize.Report) {
	styles := r.Styles()
	r.Header(1, "Normalization Report")

	forms := []struct {
		name string
		res  normalize.FormResult
	}{
		{"First Normal Form", rep.FirstNormalForm},
		{"Second Normal Form", rep.SecondNormalForm},
		{"Third Normal Form", rep.ThirdNormalForm},
	}
	for _, f := range forms {
		icon := styles.StatusSuccess.String()
		if !f.res.IsValid {
			icon = styles.StatusFailed.String()
		}
		r.Printf("%s %s (%d violations)\n", icon, f.name, len(f.res.Violations))
	}

	var violations [][]string
	for _, f := range forms {
		for _, v := range f.res.Violations {
			violations = append(violations, []string{v.Table, v.Column, v.Issue, rowLabel(v.Row)})
		}
	}
	if len(violations) > 0 {
		r.Println()
		r.Header(2, "Violations")
		renderCapped(r, []string{"Table", "Column", "Issue", "Row"}, violations)
	}

	if len(rep.ForeignKeys) > 0 {
		r.Println()
		r.Header(2, "Foreign Keys")
		rows := make([][]string, 0, len(rep.ForeignKeys))
		for _, fk := range rep.ForeignKeys {
			rows = append(rows, []string{
				fk.Table + "." + fk.Column,
				fk.ReferencedTable + "." + fk.ReferencedColumn,
				fk.Confidence,
			})
		}
		r.Table([]string{"Column", "References", "Confidence"}, rows)
	}

	if len(rep.ConstraintViolations) > 0 {
		r.Println()
		r.Header(2, "Constraint Violations")
		rows := make([][]string, 0, len(rep.ConstraintViolations))
		for _, cv := range rep.ConstraintViolations {
			rows = append(rows, []string{cv.Table, cv.Column, fmt.Sprintf("%d", cv.Row), cv.Type, cv.Message})
		}
		renderCapped(r, []string{"Table", "Column", "Row", "Type", "Message"}, rows)
	}

	if len(rep.Suggestions) > 0 {
		r.Println()
		r.Header(2, "Suggestions")
		for _, s := range rep.Suggestions {
			r.Printf("%s %s: %s\n", styles.Bold.Render(s.Level), s.Issue, s.Description)
			for _, rec := range s.Recommendations {
				r.Printf("    - %s\n", rec)
			}
		}
	}

	remediation := append(append([]normalize.Remediation{}, rep.NormalizationSQL...), rep.ConstraintSQL...)
	if len(remediation) > 0 {
		r.Println()
		r.Header(2, "Remediation SQL")
		for _, rem := range remediation {
			r.Println(styles.Muted.Render("-- " + rem.Description))
			r.Println(styles.Code.Render(rem.SQL))
		}
	}
}

func renderInsights(r *output.Renderer, ins *profile.Insights) {
	styles := r.Styles()
	r.Header(1, "Data Insights")

	tables := sortedKeys(ins.TableOverview)
	if len(tables) > 0 {
		r.Println()
		r.Header(2, "Table Overview")
		rows := make([][]string, 0, len(tables))
		for _, name := range tables {
			o := ins.TableOverview[name]
			rows = append(rows, []string{
				name,
				fmt.Sprintf("%d", o.RowCount),
				fmt.Sprintf("%d", o.ColumnCount),
				fmt.Sprintf("%d", o.PrimaryKeys),
				fmt.Sprintf("%d", o.ForeignKeys),
				fmt.Sprintf("%d", o.NullableColumns),
				fmt.Sprintf("%.3f", o.SizeEstimate.EstimatedMB),
			})
		}
		r.Table([]string{"Table", "Rows", "Columns", "PKs", "FKs", "Nullable", "Est. MB"}, rows)
	}

	var quality [][]string
	for _, name := range sortedKeys(ins.DataQuality) {
		q := ins.DataQuality[name]
		for _, col := range sortedKeys(q.Completeness) {
			row := []string{name, col, percent(q.Completeness[col].CompletenessRate), "", ""}
			if u, ok := q.Uniqueness[col]; ok {
				row[3] = percent(u.UniquenessRate)
			}
			if v, ok := q.Validity[col]; ok {
				row[4] = percent(v.ValidityRate)
			}
			quality = append(quality, row)
		}
	}
	if len(quality) > 0 {
		r.Println()
		r.Header(2, "Data Quality")
		r.Table([]string{"Table", "Column", "Complete", "Unique", "Valid"}, quality)
	}

	var stats [][]string
	for _, name := range sortedKeys(ins.Statistics) {
		cols := ins.Statistics[name]
		for _, col := range sortedKeys(cols) {
			s := cols[col]
			stats = append(stats, []string{
				name, col,
				fmt.Sprintf("%d", s.Count),
				output.FormatValue(s.Mean),
				output.FormatValue(s.Median),
				output.FormatValue(s.Min),
				output.FormatValue(s.Max),
				output.FormatValue(s.StandardDeviation),
				fmt.Sprintf("%d", len(s.Outliers)),
			})
		}
	}
	if len(stats) > 0 {
		r.Println()
		r.Header(2, "Statistics")
		r.Table([]string{"Table", "Column", "Count", "Mean", "Median", "Min", "Max", "StdDev", "Outliers"}, stats)
	}

	var patterns [][]string
	for _, name := range sortedKeys(ins.Patterns) {
		p := ins.Patterns[name]
		if len(p.Duplicates)+len(p.Anomalies)+len(p.Trends)+len(p.Correlations) == 0 {
			continue
		}
		patterns = append(patterns, []string{
			name,
			fmt.Sprintf("%d", len(p.Duplicates)),
			fmt.Sprintf("%d", len(p.Anomalies)),
			fmt.Sprintf("%d", len(p.Trends)),
			fmt.Sprintf("%d", len(p.Correlations)),
		})
	}
	if len(patterns) > 0 {
		r.Println()
		r.Header(2, "Patterns")
		r.Table([]string{"Table", "Duplicates", "Anomalies", "Trends", "Correlations"}, patterns)
	}

	rel := ins.Relationships
	if len(rel.PotentialRelationships) > 0 {
		r.Println()
		r.Header(2, "Relationships")
		rows := make([][]string, 0, len(rel.PotentialRelationships))
		for _, p := range rel.PotentialRelationships {
			rows = append(rows, []string{p.FromTable + "." + p.FromColumn, p.ToTable + "." + p.ToColumn, p.Type, p.Confidence})
		}
		r.Table([]string{"From", "To", "Type", "Confidence"}, rows)
	}
	for _, name := range sortedKeys(rel.ReferentialIntegrity) {
		ri := rel.ReferentialIntegrity[name]
		for _, issue := range ri.ReferentialIssues {
			r.Println(styles.Warning.Render(fmt.Sprintf("%s: %s", name, issue)))
		}
	}

	if len(ins.Recommendations) > 0 {
		r.Println()
		r.Header(2, "Recommendations")
		recs := append([]profile.Recommendation(nil), ins.Recommendations...)
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].Priority.Rank() < recs[j].Priority.Rank() })
		for _, rec := range recs {
			target := rec.Table
			if rec.Column != "" {
				target += "." + rec.Column
			}
			priority := styles.Priority(rec.Priority).Render(fmt.Sprintf("%-6s", rec.Priority))
			r.Printf("%s %s %s\n", priority, styles.Bold.Render(target), rec.Description)
			if rec.Suggestion != "" {
				r.Println(styles.Muted.Render("       " + rec.Suggestion))
			}
		}
	}
}

func renderCapped(r *output.Renderer, header []string, rows [][]string) {
	if len(rows) > maxListed {
		r.Table(header, rows[:maxListed])
		r.Muted(fmt.Sprintf("... and %d more (use -o json for all)", len(rows)-maxListed))
		return
	}
	r.Table(header, rows)
}

func rowLabel(row *int) string {
	if row == nil {
		return ""
	}
	return fmt.Sprintf("%d", *row)
}

func percent(rate float64) string {
	s := fmt.Sprintf("%.1f", rate)
	return strings.TrimSuffix(s, ".0") + "%"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
