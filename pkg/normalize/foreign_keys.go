package normalize

import (
	"regexp"
	"strings"

	"github.com/leapstack-labs/sqlscope/pkg/core"
)

var idSuffix = regexp.MustCompile(`(?i)(_id|id)$`)

// ForeignKey is a column whose name points at another table's id column.
type ForeignKey struct {
	Table            string `json:"table"`
	Column           string `json:"column"`
	ReferencedTable  string `json:"referencedTable"`
	ReferencedColumn string `json:"referencedColumn"`
	Confidence       string `json:"confidence"`
}

// DetectForeignKeys reports every column named "<table>_id" or "<table>id"
// where <table> is exactly the name of a table in the schema. Tables and
// columns are visited in declaration order.
func DetectForeignKeys(schema *core.Schema) []ForeignKey {
	var fks []ForeignKey
	if schema == nil {
		return fks
	}

	for _, t := range schema.Tables {
		for _, c := range t.Columns {
			ref, ok := ReferencedTable(c.Name)
			if !ok || !schema.HasTable(ref) {
				continue
			}
			fks = append(fks, ForeignKey{
				Table:            t.Name,
				Column:           c.Name,
				ReferencedTable:  ref,
				ReferencedColumn: "id",
				Confidence:       "high",
			})
		}
	}
	return fks
}

// ReferencedTable strips a trailing "_id" or "id" (any case) from a column
// name. ok is false when the name has neither suffix or nothing remains.
func ReferencedTable(column string) (string, bool) {
	if !strings.HasSuffix(strings.ToLower(column), "id") {
		return "", false
	}
	ref := idSuffix.ReplaceAllString(column, "")
	return ref, ref != ""
}
