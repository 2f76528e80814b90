package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlscope/internal/cli/output"
	"github.com/leapstack-labs/sqlscope/internal/engine"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Spec   string
	Format string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [spec-file]",
		Short: "Compile a query spec and run it",
		Long: `Compile a structured query spec and execute it against the configured database.

The spec is read from a JSON or YAML file, from --spec, or from stdin.
Each run is recorded in the history database.`,
		Example: `  # Run a spec file against a SQLite database
  sqlscope query orders.yaml --database shop.db

  # Pipe a spec and print CSV
  echo '{"table":"customers"}' | sqlscope query --format csv

  # Output as JSON
  sqlscope query orders.json -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Spec, "spec", "s", "", "Inline JSON query spec")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: table, json, csv, md (default: --output)")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	spec, err := readSpec(cmd, args, opts.Spec)
	if err != nil {
		return err
	}

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	src, err := cc.OpenSource(ctx)
	if err != nil {
		return err
	}
	defer closeSource(cc, src)

	result, err := cc.Engine.RunQuery(ctx, src, spec)
	if err != nil {
		return err
	}
	return renderQueryResult(cc.Renderer, result, spec.Columns, opts.Format)
}

func renderQueryResult(r *output.Renderer, result *engine.QueryResult, columns []string, format string) error {
	for _, w := range result.Warnings {
		r.Warning(w)
	}

	if format == "csv" {
		cols := output.ColumnsOf(result.Rows, columns)
		r.CSV(cols, output.Cells(result.Rows, cols))
		return nil
	}
	if format != "" {
		r = output.NewRendererWithTTY(r.Writer(), r.ErrWriter(), r.IsTTY(), output.Mode(format))
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(result)
	case output.ModeMarkdown:
		r.Printf("`%s`\n", result.SQL)
		r.Println()
		r.Rows(result.Rows, columns)
	default:
		r.Muted(result.SQL)
		r.Rows(result.Rows, columns)
	}
	return nil
}
