package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlscope/pkg/core"

	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/leapstack-labs/sqlscope/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/sqlscope/pkg/adapters/sqlite"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sqlscope.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "verbose: false\n")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Adapter)
	assert.Equal(t, "auto", cfg.OutputFormat)
	assert.True(t, cfg.StrictTables)
	assert.Equal(t, 100, cfg.Sample.Normalization)
	assert.Equal(t, 1000, cfg.Sample.Insights)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultSessionIdle, cfg.Server.SessionIdle)
	assert.Equal(t, filepath.Join(filepath.Dir(cfgPath), DefaultStateFile), cfg.StatePath)
	assert.Equal(t, cfgPath, GetConfigFileUsed())
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, `adapter: DuckDB
database: shop.duckdb
strict_tables: false
sample:
  normalization: 50
server:
  port: 9090
  rate_limit: 2.5
  session_idle: 10m
lint:
  disabled: [nf03]
  severity:
    CK01: warning
params:
  extensions: [json]
`)

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "duckdb", cfg.Adapter)
	assert.Equal(t, filepath.Join(filepath.Dir(cfgPath), "shop.duckdb"), cfg.Database)
	assert.False(t, cfg.StrictTables)
	assert.Equal(t, 50, cfg.Sample.Normalization)
	assert.Equal(t, 1000, cfg.Sample.Insights)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.InDelta(t, 2.5, cfg.Server.RateLimit, 1e-9)
	assert.Equal(t, 10*time.Minute, cfg.Server.SessionIdle)
	assert.Equal(t, []string{"NF03"}, cfg.DisabledRules())
	assert.Contains(t, cfg.Params, "extensions")

	rules := cfg.RuleConfig()
	assert.True(t, rules.IsDisabled("NF03"))
	assert.Equal(t, core.SeverityWarning, rules.GetSeverity("CK01", core.SeverityError))

	ac := cfg.AdapterConfig()
	assert.Equal(t, "duckdb", ac.Type)
	assert.Equal(t, cfg.Database, ac.Path)
}

func TestLoadConfig_MemoryDatabaseNotAnchored(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "database: \":memory:\"\n")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.Database)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "output: text\nserver:\n  port: 9090\n")

	t.Setenv("SQLSCOPE_OUTPUT", "json")
	t.Setenv("SQLSCOPE_SERVER_PORT", "7070")
	t.Setenv("SQLSCOPE_SAMPLE_INSIGHTS", "25")
	t.Setenv("SQLSCOPE_LINT_DISABLED", "nf01, ck02")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.OutputFormat, "env var should override config file")
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 25, cfg.Sample.Insights)
	assert.Equal(t, []string{"NF01", "CK02"}, cfg.DisabledRules())
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "adapter: sqlite\noutput: text\n")
	t.Setenv("SQLSCOPE_OUTPUT", "markdown")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", "", "output format")
	flags.String("adapter", "", "adapter")
	flags.String("state", "", "state path")
	require.NoError(t, flags.Set("output", "json"))
	require.NoError(t, flags.Set("state", "custom.db"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.OutputFormat, "flag value should override config file and env var")
	assert.Equal(t, "sqlite", cfg.Adapter, "unset flag should not override config file")
	assert.Equal(t, "custom.db", cfg.StatePath, "--state maps to state_path")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		errSubstr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "duckdb", mutate: func(c *Config) { c.Adapter = "duckdb" }},
		{name: "empty adapter", mutate: func(c *Config) { c.Adapter = "" }, errSubstr: "adapter is required"},
		{name: "unknown adapter", mutate: func(c *Config) { c.Adapter = "oracle" }, errSubstr: "sqlscope.yaml"},
		{name: "zero normalization sample", mutate: func(c *Config) { c.Sample.Normalization = 0 }, errSubstr: "sample.normalization"},
		{name: "negative insights sample", mutate: func(c *Config) { c.Sample.Insights = -1 }, errSubstr: "sample.insights"},
		{name: "bad output", mutate: func(c *Config) { c.OutputFormat = "xml" }, errSubstr: "unknown output format"},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }, errSubstr: "server.port"},
		{name: "negative rate", mutate: func(c *Config) { c.Server.RateLimit = -1 }, errSubstr: "rate_limit"},
		{name: "bad severity", mutate: func(c *Config) { c.Lint.Severity = map[string]string{"NF01": "fatal"} }, errSubstr: "unknown severity"},
		{name: "unknown disabled rule", mutate: func(c *Config) { c.Lint.Disabled = []string{"nf01,NF99"} }, errSubstr: `unknown rule "NF99"`},
		{name: "unknown severity rule", mutate: func(c *Config) { c.Lint.Severity = map[string]string{"ck9": "info"} }, errSubstr: `unknown rule "CK9"`},
		{name: "lowercase known rule", mutate: func(c *Config) { c.Lint.Severity = map[string]string{"ck01": "info"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR_ONE", "value_one")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single variable", "${TEST_VAR_ONE}", "value_one"},
		{"variable in path", "/data/${TEST_VAR_ONE}/shop.db", "/data/value_one/shop.db"},
		{"unset variable stays as-is", "${UNSET_VARIABLE}", "${UNSET_VARIABLE}"},
		{"no variables", "plain string", "plain string"},
		{"empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}

func TestGetLogger_Fallback(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := NewLogger(os.Stderr, true)
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, Defaults(), FromContext(context.Background()))

	cfg := Defaults()
	cfg.Adapter = "duckdb"
	assert.Same(t, cfg, FromContext(WithConfig(context.Background(), cfg)))
}
