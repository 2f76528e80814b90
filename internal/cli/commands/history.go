package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlscope/internal/cli/output"
	"github.com/leapstack-labs/sqlscope/pkg/core"
)

const defaultHistoryLimit = 20

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit    int
	Analyses bool
	Prune    time.Duration
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently compiled queries and analysis runs",
		Long: `Show the queries and analyses recorded in the state database
(state_path, default .sqlscope/history.db).

--prune removes entries older than the given age instead of listing.`,
		Example: `  # Last 20 queries
  sqlscope history

  # Last 5 analysis runs as JSON
  sqlscope history --analyses --limit 5 -o json

  # Drop everything older than a week
  sqlscope history --prune 168h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", defaultHistoryLimit, "Maximum entries to show")
	cmd.Flags().BoolVarP(&opts.Analyses, "analyses", "a", false, "Show analysis runs instead of queries")
	cmd.Flags().DurationVar(&opts.Prune, "prune", 0, "Delete entries older than this age (e.g. 72h)")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if cc.History() == nil {
		return errors.New("history is unavailable; check state_path")
	}
	ctx := cmd.Context()
	r := cc.Renderer

	if opts.Prune > 0 {
		n, err := cc.History().Prune(ctx, time.Now().Add(-opts.Prune))
		if err != nil {
			return fmt.Errorf("failed to prune history: %w", err)
		}
		if r.EffectiveMode() == output.ModeJSON {
			return r.JSON(map[string]int64{"pruned": n})
		}
		r.Success(fmt.Sprintf("Pruned %d entries older than %s", n, opts.Prune))
		return nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	if opts.Analyses {
		recs, err := cc.Engine.RecentAnalyses(ctx, limit)
		if err != nil {
			return err
		}
		return renderAnalysisHistory(r, recs)
	}

	recs, err := cc.Engine.RecentQueries(ctx, limit)
	if err != nil {
		return err
	}
	return renderQueryHistory(r, recs)
}

func renderQueryHistory(r *output.Renderer, recs []*core.QueryRecord) error {
	if r.EffectiveMode() == output.ModeJSON {
		if recs == nil {
			recs = []*core.QueryRecord{}
		}
		return r.JSON(recs)
	}
	if len(recs) == 0 {
		r.Muted("No queries recorded")
		return nil
	}

	rows := make([][]string, 0, len(recs))
	for _, rec := range recs {
		status := fmt.Sprintf("%d rows", rec.RowCount)
		if rec.Error != "" {
			status = "error: " + truncateOneLine(rec.Error, 40)
		}
		rows = append(rows, []string{
			rec.CreatedAt.Local().Format(time.DateTime),
			rec.Table,
			truncateOneLine(rec.SQL, 60),
			status,
		})
	}
	r.Table([]string{"When", "Table", "SQL", "Result"}, rows)
	return nil
}

func renderAnalysisHistory(r *output.Renderer, recs []*core.AnalysisRecord) error {
	if r.EffectiveMode() == output.ModeJSON {
		if recs == nil {
			recs = []*core.AnalysisRecord{}
		}
		return r.JSON(recs)
	}
	if len(recs) == 0 {
		r.Muted("No analyses recorded")
		return nil
	}

	rows := make([][]string, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, []string{
			rec.CreatedAt.Local().Format(time.DateTime),
			string(rec.Kind),
			fmt.Sprintf("%d", rec.Tables),
			fmt.Sprintf("%d", rec.SampledRows),
			fmt.Sprintf("%d", rec.Violations),
			fmt.Sprintf("%d", rec.Recommendations),
			rec.Duration.Round(time.Millisecond).String(),
		})
	}
	r.Table([]string{"When", "Kind", "Tables", "Rows", "Violations", "Recommendations", "Took"}, rows)
	return nil
}

// truncateOneLine collapses whitespace and shortens s to limit runes.
func truncateOneLine(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
