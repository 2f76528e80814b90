package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlscope/internal/cli/config"
	"github.com/leapstack-labs/sqlscope/internal/cli/testutil"

	_ "github.com/leapstack-labs/sqlscope/pkg/adapters/sqlite"
)

const shopFixture = `tables:
  - table:
      name: customers
      columns:
        - {name: id, type: INTEGER, primaryKey: true}
        - {name: name, type: TEXT, notNull: true}
        - {name: city, type: TEXT}
    rows:
      - {id: 1, name: Ann, city: Oslo}
      - {id: 2, name: Bo, city: Oslo}
      - {id: 3, name: Cy, city: Rome}
  - table:
      name: orders
      columns:
        - {name: id, type: INTEGER, primaryKey: true}
        - {name: customer_id, type: INTEGER}
        - {name: amount, type: REAL}
    rows:
      - {id: 10, customer_id: 1, amount: 12.5}
      - {id: 11, customer_id: 1, amount: 40}
      - {id: 12, customer_id: 3, amount: 7.25}
`

// testConfig returns a config pointing at a fresh SQLite file and history
// database, rendering JSON.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.Database = filepath.Join(dir, "shop.db")
	cfg.StatePath = filepath.Join(dir, "state", "history.db")
	cfg.OutputFormat = "json"
	return cfg
}

func execute(t *testing.T, cfg *config.Config, cmd *cobra.Command, stdin string, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	ctx := config.WithConfig(context.Background(), cfg)
	err := cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

func loadShop(t *testing.T, cfg *config.Config) {
	t.Helper()
	path := testutil.WriteFile(t, "shop.yaml", shopFixture)
	_, _, err := execute(t, cfg, NewLoadCommand(), "", path)
	require.NoError(t, err)
}

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewCompileCommand(), "compile [spec-file]", []string{"spec", "validate"}},
		{NewQueryCommand(), "query [spec-file]", []string{"spec", "format"}},
		{NewSchemaCommand(), "schema [table...]", nil},
		{NewLoadCommand(), "load <file>", nil},
		{NewAnalyzeCommand(), "analyze", []string{"sample", "watch"}},
		{NewInsightsCommand(), "insights", []string{"sample", "watch"}},
		{NewRulesCommand(), "rules [rule-id]", []string{"group", "verbose"}},
		{NewHistoryCommand(), "history", []string{"limit", "analyses", "prune"}},
		{NewShellCommand(), "shell", nil},
		{NewServeCommand(), "serve", []string{"port"}},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			assert.NotEmpty(t, tt.cmd.Example, "Example should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
}

func TestCompileCommand(t *testing.T) {
	cfg := testConfig(t)

	t.Run("inline spec", func(t *testing.T) {
		out, _, err := execute(t, cfg, NewCompileCommand(), "",
			"--spec", `{"table":"orders","columns":["id"],"where":[{"column":"amount","operator":">","value":10}]}`)
		require.NoError(t, err)

		var got struct {
			SQL    string `json:"sql"`
			Params []any  `json:"params"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "SELECT id FROM orders WHERE amount > ?;", got.SQL)
		assert.Equal(t, []any{float64(10)}, got.Params)
	})

	t.Run("yaml file", func(t *testing.T) {
		path := testutil.WriteFile(t, "q.yaml", "table: customers\ncolumns: [name]\n")
		out, _, err := execute(t, cfg, NewCompileCommand(), "", path)
		require.NoError(t, err)
		assert.Contains(t, out, "SELECT name FROM customers;")
	})

	t.Run("stdin", func(t *testing.T) {
		out, _, err := execute(t, cfg, NewCompileCommand(), `{"table":"customers"}`)
		require.NoError(t, err)
		assert.Contains(t, out, "SELECT * FROM customers;")
	})

	t.Run("missing table", func(t *testing.T) {
		_, _, err := execute(t, cfg, NewCompileCommand(), "", "--spec", `{"columns":["id"]}`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "table is required")
	})

	t.Run("validate against database", func(t *testing.T) {
		loadShop(t, cfg)
		_, _, err := execute(t, cfg, NewCompileCommand(), "", "--validate", "--spec", `{"table":"nope"}`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})
}

func TestLoadCommand(t *testing.T) {
	cfg := testConfig(t)
	path := testutil.WriteFile(t, "shop.yaml", shopFixture)

	out, _, err := execute(t, cfg, NewLoadCommand(), "", path)
	require.NoError(t, err)

	var results []loadResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	assert.Equal(t, []loadResult{{Table: "customers", Rows: 3}, {Table: "orders", Rows: 3}}, results)

	t.Run("invalid schema", func(t *testing.T) {
		bad := testutil.WriteFile(t, "bad.yaml", "table: {name: t, columns: [{name: a, type: TEXT}, {name: a, type: TEXT}]}\n")
		_, _, err := execute(t, cfg, NewLoadCommand(), "", bad)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate column")
	})

	t.Run("nothing to load", func(t *testing.T) {
		empty := testutil.WriteFile(t, "empty.json", `{"tables":[]}`)
		_, _, err := execute(t, cfg, NewLoadCommand(), "", empty)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no tables")
	})
}

func TestQueryCommand(t *testing.T) {
	cfg := testConfig(t)
	loadShop(t, cfg)

	spec := `{"table":"customers","columns":["name"],"where":[{"column":"city","operator":"=","value":"Oslo"}]}`

	t.Run("json", func(t *testing.T) {
		out, _, err := execute(t, cfg, NewQueryCommand(), "", "--spec", spec)
		require.NoError(t, err)

		var got struct {
			SQL  string           `json:"sql"`
			Rows []map[string]any `json:"rows"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "SELECT name FROM customers WHERE city = ?;", got.SQL)
		require.Len(t, got.Rows, 2)
		assert.Equal(t, "Ann", got.Rows[0]["name"])
	})

	t.Run("csv", func(t *testing.T) {
		out, _, err := execute(t, cfg, NewQueryCommand(), "", "--spec", spec, "--format", "csv")
		require.NoError(t, err)
		assert.Contains(t, out, "name")
		assert.Contains(t, out, "Ann")
		assert.Contains(t, out, "Bo")
		assert.NotContains(t, out, "Cy")
	})

	t.Run("unknown table", func(t *testing.T) {
		_, _, err := execute(t, cfg, NewQueryCommand(), "", "--spec", `{"table":"ghosts"}`)
		require.Error(t, err)
	})

	t.Run("recorded in history", func(t *testing.T) {
		out, _, err := execute(t, cfg, NewHistoryCommand(), "")
		require.NoError(t, err)
		assert.Contains(t, out, "SELECT name FROM customers WHERE city = ?;")
	})
}

func TestSchemaCommand(t *testing.T) {
	cfg := testConfig(t)
	loadShop(t, cfg)

	t.Run("all tables", func(t *testing.T) {
		out, _, err := execute(t, cfg, NewSchemaCommand(), "")
		require.NoError(t, err)
		assert.Contains(t, out, `"customers"`)
		assert.Contains(t, out, `"orders"`)
	})

	t.Run("text", func(t *testing.T) {
		textCfg := *cfg
		textCfg.OutputFormat = "text"
		out, _, err := execute(t, &textCfg, NewSchemaCommand(), "", "customers")
		require.NoError(t, err)
		testutil.AssertNoANSI(t, out)
		assert.Contains(t, out, "Table: customers")
		assert.Contains(t, out, "PK")
		assert.NotContains(t, out, "orders")
	})

	t.Run("missing table", func(t *testing.T) {
		_, _, err := execute(t, cfg, NewSchemaCommand(), "", "ghosts")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "table 'ghosts' not found")
	})
}

func TestAnalyzeCommands(t *testing.T) {
	cfg := testConfig(t)
	loadShop(t, cfg)

	t.Run("normalization", func(t *testing.T) {
		out, _, err := execute(t, cfg, NewAnalyzeCommand(), "")
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "normalization", got["kind"])
		assert.Contains(t, got, "normalization")
		assert.NotContains(t, got, "insights")
	})

	t.Run("insights text", func(t *testing.T) {
		textCfg := *cfg
		textCfg.OutputFormat = "text"
		out, _, err := execute(t, &textCfg, NewInsightsCommand(), "", "--sample", "2")
		require.NoError(t, err)
		testutil.AssertNoANSI(t, out)
		assert.Contains(t, out, "Data Insights")
		assert.Contains(t, out, "Sampled 4 rows across 2 tables")
	})

	t.Run("watch needs a file", func(t *testing.T) {
		memCfg := *cfg
		memCfg.Database = ":memory:"
		_, _, err := execute(t, &memCfg, NewAnalyzeCommand(), "", "--watch")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--watch")
	})

	t.Run("recorded in history", func(t *testing.T) {
		out, _, err := execute(t, cfg, NewHistoryCommand(), "", "--analyses")
		require.NoError(t, err)
		var recs []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &recs))
		require.Len(t, recs, 2)
		assert.Equal(t, "insights", recs[0]["kind"])
	})
}

func TestHistoryCommand_Prune(t *testing.T) {
	cfg := testConfig(t)
	loadShop(t, cfg)

	_, _, err := execute(t, cfg, NewQueryCommand(), "", "--spec", `{"table":"orders"}`)
	require.NoError(t, err)

	out, _, err := execute(t, cfg, NewHistoryCommand(), "", "--prune", "1h")
	require.NoError(t, err)
	assert.JSONEq(t, `{"pruned":0}`, out)

	out, _, err = execute(t, cfg, NewHistoryCommand(), "")
	require.NoError(t, err)
	assert.Contains(t, out, "SELECT * FROM orders;")
}

func TestRulesCommand(t *testing.T) {
	cfg := testConfig(t)

	t.Run("list json", func(t *testing.T) {
		out, _, err := execute(t, cfg, NewRulesCommand(), "")
		require.NoError(t, err)

		var got RulesJSONOutput
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, len(got.Rules), got.Count.Total)
		assert.Equal(t, got.Count.Total, got.Count.Normalization+got.Count.Constraint)
		assert.Equal(t, got.Count.Total, got.Count.Enabled)
	})

	t.Run("disabled and re-ranked", func(t *testing.T) {
		lintCfg := *cfg
		lintCfg.OutputFormat = "text"
		lintCfg.Lint = config.LintConfig{Disabled: []string{"NF01"}}
		out, _, err := execute(t, &lintCfg, NewRulesCommand(), "", "--group", "normalization")
		require.NoError(t, err)
		assert.Contains(t, out, "NF01")
		assert.Contains(t, out, "(disabled)")
	})

	t.Run("unknown rule", func(t *testing.T) {
		_, _, err := execute(t, cfg, NewRulesCommand(), "", "ZZ99")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestShellCommand(t *testing.T) {
	cfg := testConfig(t)
	loadShop(t, cfg)

	input := strings.Join([]string{
		".tables",
		`{"table": "orders",`,
		`  "columns": ["id"]}`,
		".bogus",
		".quit",
	}, "\n") + "\n"

	out, errOut, err := execute(t, cfg, NewShellCommand(), input)
	require.NoError(t, err)
	assert.Contains(t, out, "customers")
	assert.Contains(t, out, "SELECT id FROM orders;")
	assert.Contains(t, errOut, "unknown command: .bogus")
}

func TestTruncateOneLine(t *testing.T) {
	assert.Equal(t, "a b c", truncateOneLine("a\n  b\tc", 10))
	assert.Equal(t, "abcdefg...", truncateOneLine("abcdefghijklmnop", 10))
}
