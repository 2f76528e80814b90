// Package engine ties query compilation and data analysis to the stores
// they run against. It validates query specs before compiling, samples
// tables, runs the analyzer families and records history.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/sqlscope/pkg/core"
	"github.com/leapstack-labs/sqlscope/pkg/normalize"
	"github.com/leapstack-labs/sqlscope/pkg/sqlgen"
)

// Default sample sizes per table.
const (
	DefaultNormalizationSample = 100
	DefaultInsightsSample      = 1000
)

const defaultSampleConcurrency = 4

var (
	// ErrMissingTable is returned when a query spec names no table.
	ErrMissingTable = errors.New("table is required")
	// ErrUnknownTable is returned in strict mode for a table the schema lacks.
	ErrUnknownTable = errors.New("table does not exist")
)

// Engine compiles queries and runs analyses.
type Engine struct {
	logger       *slog.Logger
	rules        *normalize.Config
	strictTables bool
	history      core.HistoryStore
	concurrency  int
}

// Config holds engine configuration.
type Config struct {
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
	// Rules enables, disables and re-ranks analysis rules (optional)
	Rules *normalize.Config
	// StrictTables rejects query specs whose table is not in the schema
	StrictTables bool
	// History records compiled queries and analysis runs (optional)
	History core.HistoryStore
	// SampleConcurrency bounds parallel table sampling (default 4)
	SampleConcurrency int
}

// New creates an engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	concurrency := cfg.SampleConcurrency
	if concurrency <= 0 {
		concurrency = defaultSampleConcurrency
	}
	return &Engine{
		logger:       logger,
		rules:        cfg.Rules,
		strictTables: cfg.StrictTables,
		history:      cfg.History,
		concurrency:  concurrency,
	}
}

// Close releases the history store, if any.
func (e *Engine) Close() error {
	if e.history == nil {
		return nil
	}
	return e.history.Close()
}

// CompileQuery validates spec and compiles it. A blank table yields
// ErrMissingTable. With strict tables on and a schema given, a table the
// schema does not contain (compared case-insensitively) yields
// ErrUnknownTable. Everything else degrades gracefully; dropped input is
// listed in the result's Warnings.
func (e *Engine) CompileQuery(_ context.Context, schema *core.Schema, spec core.QuerySpec) (core.CompiledQuery, error) {
	if strings.TrimSpace(spec.Table) == "" {
		return core.CompiledQuery{}, ErrMissingTable
	}
	if e.strictTables && schema != nil && !hasTableFold(schema, spec.Table) {
		return core.CompiledQuery{}, fmt.Errorf("%w: '%s'", ErrUnknownTable, spec.Table)
	}

	compiled := sqlgen.BuildSelect(spec)

	e.logger.Debug("compiled query",
		"table", spec.Table,
		"columns", len(spec.Columns),
		"conditions", len(spec.Where),
		"joins", len(spec.Joins),
		"aggregations", len(spec.Aggregations),
		"sql", compiled.SQL,
		"params", len(compiled.Params))
	for _, w := range compiled.Warnings {
		e.logger.Warn("query input dropped", "table", spec.Table, "detail", w)
	}

	return compiled, nil
}

// QueryResult is a compiled query and the rows it returned.
type QueryResult struct {
	core.CompiledQuery
	Rows []core.Row `json:"rows"`
}

// RunQuery compiles spec against the source's schema and executes it.
// Execution errors are returned as-is so callers can classify them.
func (e *Engine) RunQuery(ctx context.Context, src core.Source, spec core.QuerySpec) (*QueryResult, error) {
	var schema *core.Schema
	if e.strictTables {
		s, err := src.Schema(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema: %w", err)
		}
		schema = s
	}

	compiled, err := e.CompileQuery(ctx, schema, spec)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("executing query", "sql", compiled.SQL, "params", compiled.Params)
	rows, execErr := src.Query(ctx, compiled.SQL, compiled.Params...)

	rec := &core.QueryRecord{
		Session:  SessionFrom(ctx),
		Table:    spec.Table,
		SQL:      compiled.SQL,
		Params:   compiled.Params,
		RowCount: len(rows),
	}
	if execErr != nil {
		rec.Error = execErr.Error()
	}
	e.recordQuery(ctx, rec)

	if execErr != nil {
		return nil, execErr
	}
	if rows == nil {
		rows = []core.Row{}
	}
	return &QueryResult{CompiledQuery: compiled, Rows: rows}, nil
}

func (e *Engine) recordQuery(ctx context.Context, rec *core.QueryRecord) {
	if e.history == nil {
		return
	}
	if err := e.history.RecordQuery(ctx, rec); err != nil {
		e.logger.Warn("failed to record query", "error", err.Error())
	}
}

func (e *Engine) recordAnalysis(ctx context.Context, rec *core.AnalysisRecord) {
	if e.history == nil {
		return
	}
	if err := e.history.RecordAnalysis(ctx, rec); err != nil {
		e.logger.Warn("failed to record analysis", "error", err.Error())
	}
}

// RecentQueries returns recorded queries, newest first. When ctx carries a
// session id only that session's queries are returned.
func (e *Engine) RecentQueries(ctx context.Context, limit int) ([]*core.QueryRecord, error) {
	if e.history == nil {
		return nil, nil
	}
	return e.history.RecentQueries(ctx, SessionFrom(ctx), limit)
}

// RecentAnalyses returns recorded analysis runs, newest first, scoped like
// RecentQueries.
func (e *Engine) RecentAnalyses(ctx context.Context, limit int) ([]*core.AnalysisRecord, error) {
	if e.history == nil {
		return nil, nil
	}
	return e.history.RecentAnalyses(ctx, SessionFrom(ctx), limit)
}

// Rules returns the analysis rules this engine runs.
func (e *Engine) Rules() []normalize.RuleDef {
	return normalize.NewAnalyzer(e.rules).Rules()
}

func hasTableFold(schema *core.Schema, name string) bool {
	for _, t := range schema.Tables {
		if strings.EqualFold(t.Name, name) {
			return true
		}
	}
	return false
}

type sessionKey struct{}

// WithSession tags ctx with a session id recorded in history.
func WithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionFrom returns the session id set by WithSession, or "".
func SessionFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

func since(start time.Time) time.Duration {
	return time.Since(start).Round(time.Microsecond)
}
