package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/sqlscope/pkg/core"
)

// FormatHeader formats a markdown header.
func FormatHeader(level int, text string) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue formats a markdown list item with a bold key.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s**: %s", key, value)
}

// FormatValue renders a cell value; nil prints as NULL.
func FormatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.4g", f)
	}
	return fmt.Sprintf("%v", v)
}

// Table writes a grid: a box-drawn table in text mode, a pipe table in
// markdown mode.
func (r *Renderer) Table(header []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)
	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, cell := range row {
			tr[i] = cell
		}
		t.AppendRow(tr)
	}

	if r.EffectiveMode() == ModeMarkdown {
		t.RenderMarkdown()
		return
	}
	t.Render()
}

// CSV writes a grid as CSV.
func (r *Renderer) CSV(header []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)
	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, cell := range row {
			tr[i] = cell
		}
		t.AppendRow(tr)
	}
	t.RenderCSV()
}

// Rows writes result rows as a table followed by a row count.
func (r *Renderer) Rows(rows []core.Row, preferred []string) {
	if len(rows) == 0 {
		r.Println("(0 rows)")
		return
	}
	cols := ColumnsOf(rows, preferred)
	r.Table(cols, Cells(rows, cols))
	r.Printf("(%d rows)\n", len(rows))
}

// Cells flattens rows into formatted cells in cols order.
func Cells(rows []core.Row, cols []string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(cols))
		for j, col := range cols {
			cells[j] = FormatValue(row[col])
		}
		out[i] = cells
	}
	return out
}

// ColumnsOf returns the column order for rows. Preferred names come first,
// matched either exactly or by the part after the last "."; remaining keys
// follow alphabetically.
func ColumnsOf(rows []core.Row, preferred []string) []string {
	present := make(map[string]bool)
	for _, row := range rows {
		for key := range row {
			present[key] = true
		}
	}

	cols := make([]string, 0, len(present))
	used := make(map[string]bool, len(present))
	for _, p := range preferred {
		name := p
		if !present[name] {
			if i := strings.LastIndex(p, "."); i >= 0 {
				name = p[i+1:]
			}
		}
		if present[name] && !used[name] {
			cols = append(cols, name)
			used[name] = true
		}
	}

	var rest []string
	for key := range present {
		if !used[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(cols, rest...)
}
