package core

import (
	"context"
	"time"
)

// AnalysisKind identifies which analyzer families produced a report.
type AnalysisKind string

// Analysis kinds.
const (
	AnalysisNormalization AnalysisKind = "normalization"
	AnalysisInsights      AnalysisKind = "insights"
	AnalysisFull          AnalysisKind = "full"
)

// QueryRecord is a persisted compiled query.
type QueryRecord struct {
	ID        string    `json:"id"`
	Session   string    `json:"session,omitempty"`
	Table     string    `json:"table"`
	SQL       string    `json:"sql"`
	Params    []any     `json:"params"`
	RowCount  int       `json:"rowCount"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// AnalysisRecord is a persisted summary of one analysis run.
type AnalysisRecord struct {
	ID              string        `json:"id"`
	Session         string        `json:"session,omitempty"`
	Kind            AnalysisKind  `json:"kind"`
	Tables          int           `json:"tables"`
	SampledRows     int           `json:"sampledRows"`
	Violations      int           `json:"violations"`
	Recommendations int           `json:"recommendations"`
	Duration        time.Duration `json:"duration"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// HistoryStore persists compiled queries and analysis summaries. The
// Recent methods return only records of session; an empty session matches
// every record.
type HistoryStore interface {
	RecordQuery(ctx context.Context, rec *QueryRecord) error
	RecordAnalysis(ctx context.Context, rec *AnalysisRecord) error
	RecentQueries(ctx context.Context, session string, limit int) ([]*QueryRecord, error)
	RecentAnalyses(ctx context.Context, session string, limit int) ([]*AnalysisRecord, error)
	Close() error
}
