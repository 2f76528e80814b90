package profile

import (
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/sqlscope/pkg/core"
)

// sizeSampleRows is how many leading rows feed the size estimate.
const sizeSampleRows = 10

// fallbackColumnBytes is assumed for a column with no measurable sample.
const fallbackColumnBytes = 10

// TableOverview summarizes the shape of one table.
type TableOverview struct {
	RowCount        int          `json:"rowCount"`
	ColumnCount     int          `json:"columnCount"`
	PrimaryKeys     int          `json:"primaryKeys"`
	ForeignKeys     int          `json:"foreignKeys"`
	NullableColumns int          `json:"nullableColumns"`
	DataTypes       TypeCounts   `json:"dataTypes"`
	SizeEstimate    SizeEstimate `json:"sizeEstimate"`
}

// TypeCounts buckets columns by declared type.
type TypeCounts struct {
	Text    int `json:"text"`
	Numeric int `json:"numeric"`
	Boolean int `json:"boolean"`
	Date    int `json:"date"`
}

// SizeEstimate is a rough storage estimate from value lengths.
type SizeEstimate struct {
	EstimatedBytes float64 `json:"estimatedBytes"`
	EstimatedMB    float64 `json:"estimatedMB"`
}

func overview(t *core.Table, rows []core.Row) TableOverview {
	o := TableOverview{
		RowCount:     len(rows),
		ColumnCount:  len(t.Columns),
		SizeEstimate: estimateSize(t, rows),
	}

	for _, c := range t.Columns {
		lower := strings.ToLower(c.Type)
		if c.PrimaryKey {
			o.PrimaryKeys++
		}
		if strings.HasSuffix(strings.ToLower(c.Name), "_id") {
			o.ForeignKeys++
		}
		if !c.NotNull {
			o.NullableColumns++
		}
		if strings.Contains(lower, "text") {
			o.DataTypes.Text++
		}
		if isNumericColumn(c) {
			o.DataTypes.Numeric++
		}
		if strings.Contains(lower, "bool") {
			o.DataTypes.Boolean++
		}
		if strings.Contains(lower, "date") {
			o.DataTypes.Date++
		}
	}
	return o
}

// estimateSize multiplies the row count by an average row width taken from
// the first rows. Each column contributes its mean rendered length, or a
// fixed fallback when that mean is zero.
func estimateSize(t *core.Table, rows []core.Row) SizeEstimate {
	sample := rows
	if len(sample) > sizeSampleRows {
		sample = sample[:sizeSampleRows]
	}

	var rowSize float64
	for _, c := range t.Columns {
		var avg float64
		if len(sample) > 0 {
			total := 0
			for _, r := range sample {
				if v := r[c.Name]; core.Truthy(v) {
					total += utf8.RuneCountInString(core.DisplayString(v))
				}
			}
			avg = float64(total) / float64(len(sample))
		}
		if avg == 0 {
			avg = fallbackColumnBytes
		}
		rowSize += avg
	}

	bytes := float64(len(rows)) * rowSize
	return SizeEstimate{
		EstimatedBytes: bytes,
		EstimatedMB:    bytes / (1024 * 1024),
	}
}
