package core

import (
	"errors"
	"fmt"
	"strings"
)

// Column describes a single column as reported by schema introspection.
type Column struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	PrimaryKey   bool    `json:"primaryKey"`
	NotNull      bool    `json:"notNull"`
	DefaultValue *string `json:"defaultValue,omitempty"`
}

// UpperType returns the declared type in upper case.
func (c Column) UpperType() string {
	return strings.ToUpper(strings.TrimSpace(c.Type))
}

// Table is a named, ordered list of columns.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Column looks up a column by exact name.
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// PrimaryKeys returns the primary key columns in declaration order.
func (t *Table) PrimaryKeys() []Column {
	var keys []Column
	for _, c := range t.Columns {
		if c.PrimaryKey {
			keys = append(keys, c)
		}
	}
	return keys
}

// NonKeyColumns returns every column that is not part of the primary key.
func (t *Table) NonKeyColumns() []Column {
	var cols []Column
	for _, c := range t.Columns {
		if !c.PrimaryKey {
			cols = append(cols, c)
		}
	}
	return cols
}

// ColumnNames returns column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Schema is an ordered set of tables. Order is declaration order.
type Schema struct {
	Tables []Table `json:"tables"`
}

// NewSchema builds a schema from tables, keeping their order.
func NewSchema(tables ...Table) *Schema {
	return &Schema{Tables: tables}
}

// Table looks up a table by exact name.
func (s *Schema) Table(name string) (*Table, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i], true
		}
	}
	return nil, false
}

// HasTable reports whether the schema declares a table with this name.
func (s *Schema) HasTable(name string) bool {
	_, ok := s.Table(name)
	return ok
}

// Names returns table names in declaration order.
func (s *Schema) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = t.Name
	}
	return names
}

// Validate checks that table names are unique and column names are unique
// within each table.
func (s *Schema) Validate() error {
	if s == nil {
		return nil
	}
	var errs []error
	seenTables := make(map[string]bool, len(s.Tables))
	for _, t := range s.Tables {
		if t.Name == "" {
			errs = append(errs, errors.New("table with empty name"))
			continue
		}
		if seenTables[t.Name] {
			errs = append(errs, fmt.Errorf("duplicate table %q", t.Name))
		}
		seenTables[t.Name] = true

		seenCols := make(map[string]bool, len(t.Columns))
		for _, c := range t.Columns {
			if seenCols[c.Name] {
				errs = append(errs, fmt.Errorf("duplicate column %q in table %q", c.Name, t.Name))
			}
			seenCols[c.Name] = true
		}
	}
	return errors.Join(errs...)
}
