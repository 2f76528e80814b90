// Package postgres provides a PostgreSQL store adapter backed by pgx.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/leapstack-labs/sqlscope/pkg/adapter"
	"github.com/leapstack-labs/sqlscope/pkg/core"
	"github.com/leapstack-labs/sqlscope/pkg/sqlgen"
)

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{
			Logger:     logger,
			Rebind:     adapter.RebindDollar,
			QuoteIdent: quoteIdent,
		},
	}
}

func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// DialectName returns the SQL dialect for this adapter.
func (a *Adapter) DialectName() string {
	return "postgres"
}

// Connect establishes a connection to PostgreSQL. cfg.Path is a connection
// URL or keyword/value string; Options are added as connection parameters.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn, err := buildPostgresDSN(cfg)
	if err != nil {
		return err
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	a.Logger.Debug("connected to postgres")
	return nil
}

// buildPostgresDSN constructs a PostgreSQL connection string. Without a
// path it connects to localhost:5432 with sslmode=disable.
func buildPostgresDSN(cfg adapter.Config) (string, error) {
	if strings.Contains(cfg.Path, "://") {
		u, err := url.Parse(cfg.Path)
		if err != nil {
			return "", fmt.Errorf("invalid postgres URL: %w", err)
		}
		q := u.Query()
		for k, v := range cfg.Options {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	params := map[string]string{}
	if cfg.Path == "" {
		params["host"] = "localhost"
		params["port"] = "5432"
		params["sslmode"] = "disable"
	}
	for k, v := range cfg.Options {
		params[k] = v
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys)+1)
	if cfg.Path != "" {
		parts = append(parts, cfg.Path)
	}
	for _, k := range keys {
		parts = append(parts, k+"="+quoteValue(params[k]))
	}
	return strings.Join(parts, " "), nil
}

func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	return "'" + strings.ReplaceAll(v, "'", `\'`) + "'"
}

const tablesQuery = `
	SELECT table_name
	FROM information_schema.tables
	WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
	ORDER BY table_name`

const columnsQuery = `
	SELECT
		c.column_name,
		c.data_type,
		c.is_nullable,
		c.column_default,
		EXISTS (
			SELECT 1
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage k
			  ON k.constraint_name = tc.constraint_name
			 AND k.table_schema = tc.table_schema
			 AND k.table_name = tc.table_name
			WHERE tc.constraint_type = 'PRIMARY KEY'
			  AND tc.table_schema = c.table_schema
			  AND tc.table_name = c.table_name
			  AND k.column_name = c.column_name
		) AS is_pk
	FROM information_schema.columns c
	WHERE c.table_schema = current_schema() AND c.table_name = $1
	ORDER BY c.ordinal_position`

// Schema lists the base tables of the current schema ordered by name.
func (a *Adapter) Schema(ctx context.Context) (*core.Schema, error) {
	if a.DB == nil {
		return nil, adapter.ErrNotConnected
	}

	rows, err := a.DB.QueryContext(ctx, tablesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	schema := core.NewSchema()
	for _, name := range names {
		cols, err := a.columns(ctx, name)
		if err != nil {
			return nil, err
		}
		schema.Tables = append(schema.Tables, core.Table{Name: name, Columns: cols})
	}
	return schema, nil
}

func (a *Adapter) columns(ctx context.Context, table string) ([]core.Column, error) {
	rows, err := a.DB.QueryContext(ctx, columnsQuery, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var cols []core.Column
	for rows.Next() {
		var (
			name, typ, nullable string
			def                 sql.NullString
			pk                  bool
		)
		if err := rows.Scan(&name, &typ, &nullable, &def, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}
		col := core.Column{
			Name:       name,
			Type:       strings.ToUpper(typ),
			NotNull:    nullable == "NO",
			PrimaryKey: pk,
		}
		if def.Valid {
			v := def.String
			col.DefaultValue = &v
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// LoadTable creates table if needed and streams rows in with COPY.
func (a *Adapter) LoadTable(ctx context.Context, table core.Table, rows []core.Row) error {
	if a.DB == nil {
		return adapter.ErrNotConnected
	}
	create, err := adapter.CreateTableSQL(table)
	if err != nil {
		return err
	}
	if err := a.Exec(ctx, create); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	columns := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		columns[i] = sqlgen.Sanitize(c.Name)
	}
	values := make([][]any, len(rows))
	for i, row := range rows {
		values[i] = make([]any, len(table.Columns))
		for j, c := range table.Columns {
			values[i][j] = row[c.Name]
		}
	}

	conn, err := a.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	var copied int64
	err = conn.Raw(func(driverConn any) error {
		pgxConn := driverConn.(*stdlib.Conn).Conn()
		copied, err = pgxConn.CopyFrom(ctx, pgx.Identifier{sqlgen.Sanitize(table.Name)}, columns, pgx.CopyFromRows(values))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to copy rows into %s: %w", table.Name, err)
	}
	a.Logger.Debug("loaded table", "table", table.Name, "rows", copied)
	return nil
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
