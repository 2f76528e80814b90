package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlscope/internal/cli/output"
	"github.com/leapstack-labs/sqlscope/pkg/core"
)

// CompileOptions holds options for the compile command.
type CompileOptions struct {
	Spec     string
	Validate bool
}

// NewCompileCommand creates the compile command.
func NewCompileCommand() *cobra.Command {
	opts := &CompileOptions{}

	cmd := &cobra.Command{
		Use:   "compile [spec-file]",
		Short: "Compile a query spec to SQL",
		Long: `Compile a structured query spec into parameterized SQL without running it.

The spec is read from a JSON or YAML file, from --spec, or from stdin.
Values never appear in the SQL text; they are returned as bind parameters.`,
		Example: `  # Compile a spec file
  sqlscope compile orders.yaml

  # Inline spec
  sqlscope compile --spec '{"table":"orders","where":[{"column":"amount","operator":">","value":10}]}'

  # Check the table exists in the configured database
  sqlscope compile orders.json --validate --database shop.db`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Spec, "spec", "s", "", "Inline JSON query spec")
	cmd.Flags().BoolVar(&opts.Validate, "validate", false, "Check the table against the configured database")

	return cmd
}

func runCompile(cmd *cobra.Command, args []string, opts *CompileOptions) error {
	spec, err := readSpec(cmd, args, opts.Spec)
	if err != nil {
		return err
	}

	cc := NewCommandContextWithoutHistory(cmd)
	ctx := cmd.Context()

	var schema *core.Schema
	if opts.Validate {
		src, err := cc.OpenSource(ctx)
		if err != nil {
			return err
		}
		defer closeSource(cc, src)
		if schema, err = src.Schema(ctx); err != nil {
			return fmt.Errorf("failed to read schema: %w", err)
		}
	}

	compiled, err := cc.Engine.CompileQuery(ctx, schema, spec)
	if err != nil {
		return err
	}
	return renderCompiled(cc.Renderer, compiled)
}

func renderCompiled(r *output.Renderer, compiled core.CompiledQuery) error {
	for _, w := range compiled.Warnings {
		r.Warning(w)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(compiled)
	case output.ModeMarkdown:
		r.Println("```sql")
		r.Println(compiled.SQL)
		r.Println("```")
		if len(compiled.Params) > 0 {
			r.Println()
			r.Println(output.FormatHeader(2, "Parameters"))
			r.Println()
			for i, p := range compiled.Params {
				r.Printf("%d. `%s`\n", i+1, output.FormatValue(p))
			}
		}
	default:
		r.Println(r.Styles().Code.Render(compiled.SQL))
		if len(compiled.Params) > 0 {
			r.Println()
			r.Header(2, "Parameters")
			for i, p := range compiled.Params {
				r.Printf("  $%d  %s\n", i+1, output.FormatValue(p))
			}
		}
	}
	return nil
}
