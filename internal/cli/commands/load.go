package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlscope/internal/cli/output"
	"github.com/leapstack-labs/sqlscope/pkg/core"
)

// tableLoad is one table definition and its rows.
type tableLoad struct {
	Table core.Table `json:"table"`
	Rows  []core.Row `json:"rows"`
}

// loadDocument holds either a single table or a list of tables.
type loadDocument struct {
	tableLoad
	Tables []tableLoad `json:"tables"`
}

func (d loadDocument) loads() []tableLoad {
	if d.Table.Name != "" {
		return append([]tableLoad{d.tableLoad}, d.Tables...)
	}
	return d.Tables
}

type loadResult struct {
	Table string `json:"table"`
	Rows  int    `json:"rows"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>",
		Short: "Create tables and insert rows from a JSON or YAML file",
		Long: `Create tables from typed definitions and insert their rows into the
configured database. Declared primary keys, NOT NULL constraints and
defaults are enforced by the database.

A file holds one table:

  table: {name: customers, columns: [{name: id, type: INTEGER, primaryKey: true}, {name: name, type: TEXT}]}
  rows: [{id: 1, name: Ann}]

or several under "tables".`,
		Example: `  # Load fixtures into a SQLite file
  sqlscope load shop.yaml --database shop.db`,
		Args: cobra.ExactArgs(1),
		RunE: runLoad,
	}
}

func runLoad(cmd *cobra.Command, args []string) error {
	data, isYAML, err := readInput(cmd, args, "")
	if err != nil {
		return err
	}
	var doc loadDocument
	if err := decodeDocument(data, isYAML, &doc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}
	loads := doc.loads()
	if len(loads) == 0 {
		return errors.New("no tables to load")
	}

	tables := make([]core.Table, len(loads))
	for i, l := range loads {
		tables[i] = l.Table
		for _, row := range l.Rows {
			core.NormalizeNumbers(row)
		}
	}
	if err := core.NewSchema(tables...).Validate(); err != nil {
		return err
	}

	cc := NewCommandContextWithoutHistory(cmd)
	if cc.Cfg.Database == "" || cc.Cfg.Database == ":memory:" {
		cc.Renderer.Warning("loading into an in-memory database; the data is discarded on exit")
	}

	ctx := cmd.Context()
	src, err := cc.OpenSource(ctx)
	if err != nil {
		return err
	}
	defer closeSource(cc, src)

	results := make([]loadResult, 0, len(loads))
	for _, l := range loads {
		if err := src.LoadTable(ctx, l.Table, l.Rows); err != nil {
			return err
		}
		cc.Logger.Debug("loaded table", "table", l.Table.Name, "rows", len(l.Rows))
		results = append(results, loadResult{Table: l.Table.Name, Rows: len(l.Rows)})
	}

	r := cc.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(results)
	}
	for _, res := range results {
		r.Success(fmt.Sprintf("Loaded %d rows into %s", res.Rows, res.Table))
	}
	return nil
}
