package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlscope/internal/engine"
	"github.com/leapstack-labs/sqlscope/pkg/core"
)

const watchDebounce = 250 * time.Millisecond

// AnalyzeOptions holds options for the analyze and insights commands.
type AnalyzeOptions struct {
	Sample int
	Watch  bool
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Check normalization and constraints",
		Long: `Sample every table and report normal-form violations, inferred foreign
keys, constraint violations and remediation SQL.

Each table contributes at most --sample rows (default: sample.normalization).`,
		Example: `  # Analyze a SQLite database
  sqlscope analyze --database shop.db

  # Re-run whenever the database file changes
  sqlscope analyze --database shop.db --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalysis(cmd, core.AnalysisNormalization, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Sample, "sample", "n", 0, "Rows sampled per table")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-run when the database file changes")

	return cmd
}

// NewInsightsCommand creates the insights command.
func NewInsightsCommand() *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Profile data quality and statistics",
		Long: `Sample every table and report overviews, data quality, column statistics,
patterns, relationships and prioritized recommendations.

Each table contributes at most --sample rows (default: sample.insights).`,
		Example: `  # Profile a DuckDB database
  sqlscope insights --adapter duckdb --database warehouse.duckdb

  # Smaller sample, JSON output
  sqlscope insights --sample 200 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalysis(cmd, core.AnalysisInsights, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Sample, "sample", "n", 0, "Rows sampled per table")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-run when the database file changes")

	return cmd
}

func runAnalysis(cmd *cobra.Command, kind core.AnalysisKind, opts *AnalyzeOptions) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	limit := opts.Sample
	if limit <= 0 {
		limit = sampleSize(cc, kind)
	}

	run := func(ctx context.Context) error {
		report, err := analyzeOnce(ctx, cc, kind, limit)
		if err != nil {
			return err
		}
		return renderReport(cc.Renderer, report)
	}

	if !opts.Watch {
		return run(cmd.Context())
	}
	return watchDatabase(cmd.Context(), cc, run)
}

func sampleSize(cc *CommandContext, kind core.AnalysisKind) int {
	if kind == core.AnalysisNormalization {
		return cc.Cfg.Sample.Normalization
	}
	return cc.Cfg.Sample.Insights
}

func analyzeOnce(ctx context.Context, cc *CommandContext, kind core.AnalysisKind, limit int) (*engine.Report, error) {
	src, err := cc.OpenSource(ctx)
	if err != nil {
		return nil, err
	}
	defer closeSource(cc, src)

	return cc.Engine.AnalyzeSource(ctx, src, kind, limit)
}

// watchDatabase runs fn once, then again whenever the database file (or its
// WAL) is written, until ctx is cancelled.
func watchDatabase(ctx context.Context, cc *CommandContext, fn func(context.Context) error) error {
	path := cc.Cfg.Database
	if path == "" || path == ":memory:" {
		return errors.New("--watch needs a file-backed --database")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: writers often replace the file rather than edit it.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	if err := fn(ctx); err != nil {
		cc.Renderer.Error(err.Error())
	}
	cc.Renderer.Muted(fmt.Sprintf("Watching %s (Ctrl+C to stop)", abs))

	base := filepath.Base(abs)
	changed := make(chan struct{}, 1)
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if name := filepath.Base(event.Name); name != base && !strings.HasPrefix(name, base+"-") {
				continue
			}

			// Debounce
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(watchDebounce, func() {
				select {
				case changed <- struct{}{}:
				default:
				}
			})

		case <-changed:
			cc.Logger.Debug("database changed, re-running analysis", "path", abs)
			cc.Renderer.Println()
			if err := fn(ctx); err != nil {
				cc.Renderer.Error(err.Error())
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cc.Logger.Error("watcher error", "error", err)
		}
	}
}
