package profile

import (
	"strings"

	"github.com/leapstack-labs/sqlscope/pkg/core"
	"github.com/leapstack-labs/sqlscope/pkg/normalize"
)

// Relationships collects cross-table findings.
type Relationships struct {
	ForeignKeys            []normalize.ForeignKey      `json:"foreignKeys"`
	PotentialRelationships []PotentialRelationship     `json:"potentialRelationships"`
	Cardinality            map[string]TableCardinality `json:"cardinality"`
	ReferentialIntegrity   map[string]TableIntegrity   `json:"referentialIntegrity"`
}

// PotentialRelationship is a "<table>_id" column naming an existing table.
type PotentialRelationship struct {
	FromTable  string `json:"fromTable"`
	FromColumn string `json:"fromColumn"`
	ToTable    string `json:"toTable"`
	ToColumn   string `json:"toColumn"`
	Type       string `json:"type"`
	Confidence string `json:"confidence"`
}

// TableCardinality holds distinct-value ratios per column.
type TableCardinality struct {
	RowCount             int                          `json:"rowCount"`
	EstimatedCardinality int                          `json:"estimatedCardinality"`
	UniqueValues         map[string]ColumnCardinality `json:"uniqueValues"`
}

// ColumnCardinality is unique/total over non-nil values. Empty strings
// count as values here.
type ColumnCardinality struct {
	Total       int     `json:"total"`
	Unique      int     `json:"unique"`
	Cardinality float64 `json:"cardinality"`
}

// TableIntegrity lists references that point at no sampled row.
type TableIntegrity struct {
	OrphanedRecords   []OrphanedRecord `json:"orphanedRecords"`
	ReferentialIssues []string         `json:"referentialIssues"`
}

// OrphanedRecord is a foreign-key-like value missing from the referenced
// table's sampled id column.
type OrphanedRecord struct {
	Row             int    `json:"row"`
	Column          string `json:"column"`
	Value           any    `json:"value"`
	ReferencedTable string `json:"referencedTable"`
}

func analyzeRelationships(schema *core.Schema, data core.Dataset) Relationships {
	rel := Relationships{
		ForeignKeys:            normalize.DetectForeignKeys(schema),
		PotentialRelationships: []PotentialRelationship{},
		Cardinality:            make(map[string]TableCardinality, len(schema.Tables)),
		ReferentialIntegrity:   make(map[string]TableIntegrity, len(schema.Tables)),
	}
	if rel.ForeignKeys == nil {
		rel.ForeignKeys = []normalize.ForeignKey{}
	}

	for i := range schema.Tables {
		t := &schema.Tables[i]
		rows := data.Rows(t.Name)

		rel.Cardinality[t.Name] = cardinality(t, rows)

		integrity := TableIntegrity{OrphanedRecords: []OrphanedRecord{}, ReferentialIssues: []string{}}
		for _, c := range t.Columns {
			ref, ok := idReference(c.Name)
			if !ok || !schema.HasTable(ref) {
				continue
			}
			rel.PotentialRelationships = append(rel.PotentialRelationships, PotentialRelationship{
				FromTable:  t.Name,
				FromColumn: c.Name,
				ToTable:    ref,
				ToColumn:   "id",
				Type:       "POTENTIAL_FOREIGN_KEY",
				Confidence: "HIGH",
			})
			integrity.OrphanedRecords = append(integrity.OrphanedRecords, Orphans(rows, c.Name, ref, data.Rows(ref))...)
		}
		rel.ReferentialIntegrity[t.Name] = integrity
	}
	return rel
}

// idReference strips a trailing "_id" (any case) from a column name.
func idReference(column string) (string, bool) {
	if len(column) <= 3 || !strings.EqualFold(column[len(column)-3:], "_id") {
		return "", false
	}
	return column[:len(column)-3], true
}

// Orphans returns the rows whose column value is not among the "id"
// values of the referenced rows. Blank values are not references.
func Orphans(rows []core.Row, column, refTable string, refRows []core.Row) []OrphanedRecord {
	ids := make(map[string]bool, len(refRows))
	for _, r := range refRows {
		ids[core.ValueKey(r["id"])] = true
	}

	var out []OrphanedRecord
	for i, r := range rows {
		v := r[column]
		if core.IsBlank(v) || ids[core.ValueKey(v)] {
			continue
		}
		out = append(out, OrphanedRecord{Row: i, Column: column, Value: v, ReferencedTable: refTable})
	}
	return out
}

func cardinality(t *core.Table, rows []core.Row) TableCardinality {
	tc := TableCardinality{
		RowCount:             len(rows),
		EstimatedCardinality: len(rows),
		UniqueValues:         make(map[string]ColumnCardinality, len(t.Columns)),
	}
	for _, c := range t.Columns {
		var values []any
		for _, r := range rows {
			if v := r[c.Name]; v != nil {
				values = append(values, v)
			}
		}
		unique := distinct(values)
		cc := ColumnCardinality{Total: len(values), Unique: unique}
		if len(values) > 0 {
			cc.Cardinality = float64(unique) / float64(len(values))
		}
		tc.UniqueValues[c.Name] = cc
	}
	return tc
}
