package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlscope/internal/cli/config"
	"github.com/leapstack-labs/sqlscope/internal/cli/output"
	"github.com/leapstack-labs/sqlscope/internal/engine"
	"github.com/leapstack-labs/sqlscope/internal/state"
	"github.com/leapstack-labs/sqlscope/pkg/adapter"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer

	history *state.SQLiteStore
}

// NewCommandContext creates a CommandContext with an engine that records
// history to the configured state database. The cleanup function must be
// called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cc := NewCommandContextWithoutHistory(cmd)

	history, err := openHistory(cc.Cfg.StatePath)
	if err != nil {
		// History is optional; the commands still work without it.
		cc.Logger.Warn("history disabled", "state_path", cc.Cfg.StatePath, "error", err)
	}
	cc.history = history

	engCfg := engine.Config{
		Logger:       cc.Logger,
		Rules:        cc.Cfg.RuleConfig(),
		StrictTables: cc.Cfg.StrictTables,
	}
	if history != nil {
		engCfg.History = history
	}
	cc.Engine = engine.New(engCfg)

	cleanup := func() {
		if err := cc.Engine.Close(); err != nil {
			cc.Logger.Debug("failed to close history", "error", err)
		}
	}
	return cc, cleanup, nil
}

// NewCommandContextWithoutHistory creates a CommandContext whose engine
// records nothing. Useful for commands that don't need history.
func NewCommandContextWithoutHistory(cmd *cobra.Command) *CommandContext {
	cfg := config.FromContext(cmd.Context())
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   engine.New(engine.Config{Logger: logger, Rules: cfg.RuleConfig(), StrictTables: cfg.StrictTables}),
		Renderer: r,
	}
}

// OpenSource connects to the configured database. The caller closes it.
func (cc *CommandContext) OpenSource(ctx context.Context) (adapter.Adapter, error) {
	src, err := adapter.Open(ctx, cc.Cfg.AdapterConfig(), cc.Logger)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// History returns the state store, or nil when history is unavailable.
func (cc *CommandContext) History() *state.SQLiteStore {
	return cc.history
}

// openHistory opens the state database, creating its directory.
func openHistory(path string) (*state.SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("state_path is empty")
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}
	return state.Open(path)
}

func closeSource(cc *CommandContext, src adapter.Adapter) {
	if err := src.Close(); err != nil {
		cc.Logger.Debug("failed to close source", "error", err)
	}
}
