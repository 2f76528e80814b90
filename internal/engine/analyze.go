package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/sqlscope/pkg/core"
	"github.com/leapstack-labs/sqlscope/pkg/normalize"
	"github.com/leapstack-labs/sqlscope/pkg/profile"
)

// Report is the result of one analysis run. A family that was not
// requested is nil.
type Report struct {
	Kind          core.AnalysisKind `json:"kind"`
	Schema        *core.Schema      `json:"schema"`
	Normalization *normalize.Report `json:"normalization,omitempty"`
	Insights      *profile.Insights `json:"insights,omitempty"`
	SampledRows   int               `json:"sampledRows"`
	GeneratedAt   time.Time         `json:"generatedAt"`
	Duration      time.Duration     `json:"duration"`
}

// Normalization runs only the normalization and constraint analyzer.
func (e *Engine) Normalization(schema *core.Schema, data core.Dataset) *normalize.Report {
	return normalize.Analyze(schema, data, e.rules)
}

// Insights runs only the statistical profiler.
func (e *Engine) Insights(schema *core.Schema, data core.Dataset) *profile.Insights {
	return profile.Extract(schema, data)
}

// Analyze runs the requested analyzer families over an in-memory sample.
// The families share read-only input and run concurrently.
func (e *Engine) Analyze(ctx context.Context, kind core.AnalysisKind, schema *core.Schema, data core.Dataset) (*Report, error) {
	start := time.Now()
	if kind == "" {
		kind = core.AnalysisFull
	}
	report := &Report{
		Kind:        kind,
		Schema:      schema,
		SampledRows: countRows(data),
	}

	g, gctx := errgroup.WithContext(ctx)
	if kind != core.AnalysisInsights {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report.Normalization = e.Normalization(schema, data)
			return nil
		})
	}
	if kind != core.AnalysisNormalization {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report.Insights = e.Insights(schema, data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.GeneratedAt = time.Now().UTC()
	report.Duration = since(start)

	tables := 0
	if schema != nil {
		tables = len(schema.Tables)
	}
	e.logger.Info("analysis completed",
		"kind", string(kind),
		"tables", tables,
		"rows", report.SampledRows,
		"violations", report.Normalization.ViolationCount(),
		"recommendations", report.Insights.RecommendationCount(),
		"duration", report.Duration)

	e.recordAnalysis(ctx, &core.AnalysisRecord{
		Session:         SessionFrom(ctx),
		Kind:            kind,
		Tables:          tables,
		SampledRows:     report.SampledRows,
		Violations:      report.Normalization.ViolationCount(),
		Recommendations: report.Insights.RecommendationCount(),
		Duration:        report.Duration,
	})

	return report, nil
}

// AnalyzeSource reads the schema, samples up to limit rows per table and
// analyzes the sample. A limit of zero or less picks the default for kind.
func (e *Engine) AnalyzeSource(ctx context.Context, src core.Source, kind core.AnalysisKind, limit int) (*Report, error) {
	schema, err := src.Schema(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	if limit <= 0 {
		limit = DefaultSampleSize(kind)
	}

	data, err := e.Sample(ctx, src, schema, limit)
	if err != nil {
		return nil, err
	}
	return e.Analyze(ctx, kind, schema, data)
}

// Sample fetches up to limit rows from every table concurrently. A table
// that cannot be read is logged and analyzed as empty.
func (e *Engine) Sample(ctx context.Context, src core.Sampler, schema *core.Schema, limit int) (core.Dataset, error) {
	data := make(core.Dataset, len(schema.Tables))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, t := range schema.Tables {
		name := t.Name
		g.Go(func() error {
			rows, err := src.Sample(gctx, name, limit)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				e.logger.Warn("could not sample table", "table", name, "error", err.Error())
				rows = []core.Row{}
			}

			mu.Lock()
			data[name] = rows
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Debug("sampled tables", "tables", len(data), "rows", countRows(data), "limit", limit)
	return data, nil
}

// DefaultSampleSize returns the per-table row cap used for kind.
func DefaultSampleSize(kind core.AnalysisKind) int {
	if kind == core.AnalysisNormalization {
		return DefaultNormalizationSample
	}
	return DefaultInsightsSample
}

func countRows(data core.Dataset) int {
	n := 0
	for _, rows := range data {
		n += len(rows)
	}
	return n
}
