package commands

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlscope/internal/api"
	"github.com/leapstack-labs/sqlscope/internal/session"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port int
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API. Each browser session gets its own store, opened
from the configured adapter on first use and closed after server.session_idle
without requests.

Endpoints live under /api: schema, query, compile, normalization, insights,
tables, history, events and session.`,
		Example: `  # Serve per-session in-memory SQLite stores on :8080
  sqlscope serve

  # Serve a DuckDB file on another port
  sqlscope serve --adapter duckdb --database warehouse.duckdb --port 9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Port, "port", "p", 0, "Port to listen on (default: server.port)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	srvCfg := cc.Cfg.Server
	port := srvCfg.Port
	if opts.Port > 0 {
		port = opts.Port
	}

	secret := srvCfg.SessionSecret
	if secret == "" {
		if secret, err = randomSecret(); err != nil {
			return err
		}
		cc.Logger.Warn("server.session_secret is not set; sessions will not survive a restart")
	}

	registry := session.NewRegistry(session.AdapterFactory(cc.Cfg.AdapterConfig(), cc.Logger), cc.Logger)
	defer func() {
		if err := registry.Close(); err != nil {
			cc.Logger.Debug("failed to close sessions", "error", err)
		}
	}()

	server := api.NewServer(api.Config{
		Engine:        cc.Engine,
		Sessions:      registry,
		Port:          port,
		SessionSecret: secret,
		SecureCookie:  srvCfg.SecureCookie,
		RateLimit: api.RateLimitConfig{
			RequestsPerSecond: srvCfg.RateLimit,
			Burst:             srvCfg.Burst,
		},
		SessionIdle:         srvCfg.SessionIdle,
		NormalizationSample: cc.Cfg.Sample.Normalization,
		InsightsSample:      cc.Cfg.Sample.Insights,
		Logger:              cc.Logger,
	})

	cc.Renderer.Muted(fmt.Sprintf("Listening on http://localhost:%d (Ctrl+C to stop)", port))
	return server.Serve(cmd.Context())
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
