package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/leapstack-labs/sqlscope/pkg/core"
	"github.com/leapstack-labs/sqlscope/pkg/sqlgen"
)

// ErrNotConnected is returned by operations on an adapter that has no
// open connection.
var ErrNotConnected = errors.New("database connection not established")

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Exec, Query, Sample and LoadTable implementations.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    core.AdapterConfig
	Logger *slog.Logger
	// Rebind rewrites ? placeholders for drivers that use another style.
	// Nil leaves statements unchanged.
	Rebind func(string) string
	// QuoteIdent quotes an introspected identifier for the store's dialect.
	// Nil uses QuoteIdent.
	QuoteIdent func(string) string
}

func (b *BaseSQLAdapter) quote(name string) string {
	if b.QuoteIdent == nil {
		return QuoteIdent(name)
	}
	return b.QuoteIdent(name)
}

// QuoteIdent wraps name in double quotes, doubling embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (b *BaseSQLAdapter) bind(sqlStr string) string {
	if b.Rebind == nil {
		return sqlStr
	}
	return b.Rebind(sqlStr)
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, sqlStr string, args ...any) error {
	if b.DB == nil {
		return ErrNotConnected
	}
	_, err := b.DB.ExecContext(ctx, b.bind(sqlStr), args...)
	if err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query executes a SQL statement and returns every row it produced.
// Executor failures are classified into a *QueryError.
func (b *BaseSQLAdapter) Query(ctx context.Context, sqlStr string, args ...any) ([]core.Row, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}
	rows, err := b.DB.QueryContext(ctx, b.bind(sqlStr), args...)
	if err != nil {
		return nil, ClassifyError(err)
	}
	defer func() { _ = rows.Close() }()

	out, err := ScanRows(rows)
	if err != nil {
		return nil, ClassifyError(err)
	}
	return out, nil
}

// Sample returns up to limit rows of table in storage order. A limit of
// zero or less returns every row. table is the name as the store reports
// it and is quoted, not rewritten.
func (b *BaseSQLAdapter) Sample(ctx context.Context, table string, limit int) ([]core.Row, error) {
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	name := b.quote(table)
	if limit <= 0 {
		return b.Query(ctx, "SELECT * FROM "+name)
	}
	return b.Query(ctx, "SELECT * FROM "+name+" LIMIT ?", limit)
}

// LoadTable creates table if needed and inserts rows inside a transaction.
func (b *BaseSQLAdapter) LoadTable(ctx context.Context, table core.Table, rows []core.Row) error {
	if b.DB == nil {
		return ErrNotConnected
	}
	create, err := CreateTableSQL(table)
	if err != nil {
		return err
	}
	if err := b.Exec(ctx, create); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, b.bind(InsertSQL(table)))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, row := range rows {
		args := make([]any, len(table.Columns))
		for j, c := range table.Columns {
			args[j] = row[c.Name]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %d into %s: %w", i, table.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit load of %s: %w", table.Name, err)
	}
	if b.Logger != nil {
		b.Logger.Debug("loaded table", "table", table.Name, "rows", len(rows))
	}
	return nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// ScanRows reads every remaining row into core.Row values keyed by column
// name. []byte values are converted to strings.
func ScanRows(rows *sql.Rows) ([]core.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	out := []core.Row{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(core.Row, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTableSQL renders a CREATE TABLE IF NOT EXISTS statement for table.
// Identifiers are sanitized; a table with no usable columns is an error.
func CreateTableSQL(table core.Table) (string, error) {
	name := sqlgen.Sanitize(table.Name)
	if name == "" {
		return "", fmt.Errorf("invalid table name %q", table.Name)
	}

	var defs, keys []string
	for _, c := range table.Columns {
		col := sqlgen.Sanitize(c.Name)
		if col == "" {
			return "", fmt.Errorf("invalid column name %q in table %s", c.Name, table.Name)
		}
		typ := strings.TrimSpace(c.Type)
		if typ == "" {
			typ = "TEXT"
		}
		if !columnTypePattern.MatchString(typ) {
			return "", fmt.Errorf("invalid type %q for column %s", c.Type, c.Name)
		}
		def := col + " " + typ
		if c.NotNull {
			def += " NOT NULL"
		}
		if c.DefaultValue != nil {
			def += " DEFAULT " + DefaultLiteral(*c.DefaultValue)
		}
		defs = append(defs, def)
		if c.PrimaryKey {
			keys = append(keys, col)
		}
	}
	if len(defs) == 0 {
		return "", fmt.Errorf("table %s has no columns", table.Name)
	}
	if len(keys) > 0 {
		defs = append(defs, "PRIMARY KEY ("+strings.Join(keys, ", ")+")")
	}
	return "CREATE TABLE IF NOT EXISTS " + name + " (" + strings.Join(defs, ", ") + ");", nil
}

// columnTypePattern accepts a type name of words with an optional
// precision, e.g. VARCHAR(255), NUMERIC(10, 2), DOUBLE PRECISION.
var columnTypePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_ ]*(\(\s*\d+(\s*,\s*\d+)?\s*\))?$`)

var (
	numericDefault = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
	quotedDefault  = regexp.MustCompile(`^'(?:[^']|'')*'$`)
)

// defaultKeywords are bare DEFAULT expressions passed through unchanged.
var defaultKeywords = map[string]bool{
	"NULL":              true,
	"TRUE":              true,
	"FALSE":             true,
	"CURRENT_DATE":      true,
	"CURRENT_TIME":      true,
	"CURRENT_TIMESTAMP": true,
}

// DefaultLiteral renders v for a DEFAULT clause. Numbers, a well-formed
// single-quoted string and a few keywords pass through; anything else
// becomes a quoted string literal.
func DefaultLiteral(v string) string {
	t := strings.TrimSpace(v)
	switch {
	case numericDefault.MatchString(t), quotedDefault.MatchString(t):
		return t
	case defaultKeywords[strings.ToUpper(t)]:
		return strings.ToUpper(t)
	}
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

// InsertSQL renders a parameterized INSERT for every column of table.
func InsertSQL(table core.Table) string {
	cols := make([]string, len(table.Columns))
	marks := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		cols[i] = sqlgen.Sanitize(c.Name)
		marks[i] = "?"
	}
	return "INSERT INTO " + sqlgen.Sanitize(table.Name) +
		" (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ");"
}

// RebindDollar rewrites ? placeholders as $1, $2, ... Question marks inside
// single-quoted literals and double-quoted identifiers are left alone.
func RebindDollar(sqlStr string) string {
	var sb strings.Builder
	sb.Grow(len(sqlStr) + 8)
	n := 0
	var quote byte
	for i := 0; i < len(sqlStr); i++ {
		c := sqlStr[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '?':
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
