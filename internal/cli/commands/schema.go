package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlscope/internal/cli/output"
	"github.com/leapstack-labs/sqlscope/pkg/core"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [table...]",
		Short: "Show the database schema",
		Long: `Introspect the configured database and print its tables and columns,
including primary keys, NOT NULL constraints and defaults.`,
		Example: `  # All tables
  sqlscope schema --database shop.db

  # A single table as JSON
  sqlscope schema orders -o json`,
		RunE: runSchema,
	}
}

func runSchema(cmd *cobra.Command, args []string) error {
	cc := NewCommandContextWithoutHistory(cmd)
	ctx := cmd.Context()

	src, err := cc.OpenSource(ctx)
	if err != nil {
		return err
	}
	defer closeSource(cc, src)

	schema, err := src.Schema(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}
	if len(args) > 0 {
		if schema, err = filterSchema(schema, args); err != nil {
			return err
		}
	}
	return renderSchema(cc.Renderer, schema)
}

func filterSchema(schema *core.Schema, names []string) (*core.Schema, error) {
	filtered := &core.Schema{}
	for _, name := range names {
		t, ok := schema.Table(name)
		if !ok {
			return nil, fmt.Errorf("table '%s' not found", name)
		}
		filtered.Tables = append(filtered.Tables, *t)
	}
	return filtered, nil
}

func renderSchema(r *output.Renderer, schema *core.Schema) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(schema)
	}
	if len(schema.Tables) == 0 {
		r.Muted("No tables found")
		return nil
	}

	for i, t := range schema.Tables {
		if i > 0 {
			r.Println()
		}
		r.Header(2, "Table: "+t.Name)
		rows := make([][]string, 0, len(t.Columns))
		for _, c := range t.Columns {
			rows = append(rows, []string{c.Name, c.Type, columnKey(c), nullable(c), columnDefault(c)})
		}
		r.Table([]string{"Column", "Type", "Key", "Nullable", "Default"}, rows)
	}
	return nil
}

func columnKey(c core.Column) string {
	if c.PrimaryKey {
		return "PK"
	}
	return ""
}

func nullable(c core.Column) string {
	if c.NotNull || c.PrimaryKey {
		return "NO"
	}
	return "YES"
}

func columnDefault(c core.Column) string {
	if c.DefaultValue == nil {
		return ""
	}
	return strings.TrimSpace(*c.DefaultValue)
}
