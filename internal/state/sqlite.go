// Package state persists the history of compiled queries and analysis
// runs in a SQLite database whose schema is managed by goose migrations.
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/sqlscope/pkg/core"

	_ "modernc.org/sqlite" // sqlite driver
)

const defaultRecentLimit = 20

var errNotOpened = errors.New("database not opened")

// SQLiteStore implements core.HistoryStore using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewSQLiteStore creates a new SQLite state store instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{now: time.Now}
}

// Open opens the database at path and migrates it.
// Use ":memory:" for an in-memory database.
func Open(path string) (*SQLiteStore, error) {
	s := NewSQLiteStore()
	if err := s.Open(path); err != nil {
		return nil, err
	}
	if _, err := s.Migrate(context.Background()); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	if path == ":memory:" {
		dsn = "file::memory:?_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// RecordQuery stores rec, assigning its ID and CreatedAt when unset.
func (s *SQLiteStore) RecordQuery(ctx context.Context, rec *core.QueryRecord) error {
	if s.db == nil {
		return errNotOpened
	}
	if rec.ID == "" {
		rec.ID = generateID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}

	params := rec.Params
	if params == nil {
		params = []any{}
	}
	encoded, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode query params: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO query_history (id, session, table_name, sql_text, params, row_count, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Session, rec.Table, rec.SQL, string(encoded), rec.RowCount, rec.Error, formatTime(rec.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record query: %w", err)
	}
	return nil
}

// RecordAnalysis stores rec, assigning its ID and CreatedAt when unset.
func (s *SQLiteStore) RecordAnalysis(ctx context.Context, rec *core.AnalysisRecord) error {
	if s.db == nil {
		return errNotOpened
	}
	if rec.ID == "" {
		rec.ID = generateID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analysis_history (id, session, kind, tables, sampled_rows, violations, recommendations, duration_ns, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Session, string(rec.Kind), rec.Tables, rec.SampledRows, rec.Violations,
		rec.Recommendations, int64(rec.Duration), formatTime(rec.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record analysis: %w", err)
	}
	return nil
}

// RecentQueries returns up to limit recorded queries of session, newest
// first. An empty session lists every session. A limit of zero or less
// uses a default of 20.
func (s *SQLiteStore) RecentQueries(ctx context.Context, session string, limit int) ([]*core.QueryRecord, error) {
	if s.db == nil {
		return nil, errNotOpened
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session, table_name, sql_text, params, row_count, error, created_at
		 FROM query_history WHERE (? = '' OR session = ?)
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`, session, session, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list queries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []*core.QueryRecord{}
	for rows.Next() {
		rec := &core.QueryRecord{}
		var params, created string
		if err := rows.Scan(&rec.ID, &rec.Session, &rec.Table, &rec.SQL, &params, &rec.RowCount, &rec.Error, &created); err != nil {
			return nil, fmt.Errorf("failed to scan query: %w", err)
		}
		if err := json.Unmarshal([]byte(params), &rec.Params); err != nil {
			return nil, fmt.Errorf("failed to decode params of query %s: %w", rec.ID, err)
		}
		if rec.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecentAnalyses returns up to limit recorded analysis runs of session,
// newest first, with the same session and limit rules as RecentQueries.
func (s *SQLiteStore) RecentAnalyses(ctx context.Context, session string, limit int) ([]*core.AnalysisRecord, error) {
	if s.db == nil {
		return nil, errNotOpened
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session, kind, tables, sampled_rows, violations, recommendations, duration_ns, created_at
		 FROM analysis_history WHERE (? = '' OR session = ?)
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`, session, session, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []*core.AnalysisRecord{}
	for rows.Next() {
		rec := &core.AnalysisRecord{}
		var (
			kind, created string
			duration      int64
		)
		if err := rows.Scan(&rec.ID, &rec.Session, &kind, &rec.Tables, &rec.SampledRows,
			&rec.Violations, &rec.Recommendations, &duration, &created); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		rec.Kind = core.AnalysisKind(kind)
		rec.Duration = time.Duration(duration)
		if rec.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Prune deletes history older than before and returns the rows removed.
func (s *SQLiteStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	if s.db == nil {
		return 0, errNotOpened
	}
	cutoff := formatTime(before.UTC())

	var total int64
	for _, table := range []string{"query_history", "analysis_history"} {
		res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE created_at < ?", cutoff) //nolint:gosec // fixed table names
		if err != nil {
			return total, fmt.Errorf("failed to prune %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

var _ core.HistoryStore = (*SQLiteStore)(nil)
