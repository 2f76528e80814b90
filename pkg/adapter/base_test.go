package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlscope/pkg/core"
)

func TestBaseSQLAdapter_Close(t *testing.T) {
	tests := []struct {
		name      string
		setupDB   bool
		expectErr bool
	}{
		{
			name:      "close with nil DB",
			setupDB:   false,
			expectErr: false,
		},
		{
			name:      "close with open DB",
			setupDB:   true,
			expectErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				mock.ExpectClose()
				base.DB = db
			}

			err := base.Close()
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBaseSQLAdapter_Exec(t *testing.T) {
	tests := []struct {
		name      string
		setupDB   bool
		setupMock func(mock sqlmock.Sqlmock)
		sql       string
		expectErr bool
		errMsg    string
	}{
		{
			name:      "exec without connection",
			setupDB:   false,
			sql:       "SELECT 1",
			expectErr: true,
			errMsg:    "database connection not established",
		},
		{
			name:    "exec success",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE users").WillReturnResult(sqlmock.NewResult(0, 0))
			},
			sql:       "CREATE TABLE users (id INT)",
			expectErr: false,
		},
		{
			name:    "exec with error",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INVALID SQL").WillReturnError(assert.AnError)
			},
			sql:       "INVALID SQL",
			expectErr: true,
			errMsg:    "failed to execute SQL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				defer func() { _ = db.Close() }()

				if tt.setupMock != nil {
					tt.setupMock(mock)
				}
				base.DB = db
			}

			err := base.Exec(ctx, tt.sql)
			if tt.expectErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBaseSQLAdapter_Query(t *testing.T) {
	tests := []struct {
		name      string
		setupDB   bool
		setupMock func(mock sqlmock.Sqlmock)
		sql       string
		args      []any
		expected  []core.Row
		expectErr bool
		errKind   QueryErrorKind
		errMsg    string
	}{
		{
			name:      "query without connection",
			setupDB:   false,
			sql:       "SELECT 1",
			expectErr: true,
			errMsg:    "database connection not established",
		},
		{
			name:    "query success",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "name"}).
					AddRow(int64(1), []byte("alice")).
					AddRow(int64(2), nil)
				mock.ExpectQuery("SELECT id, name FROM users WHERE id > ?").
					WithArgs(0).
					WillReturnRows(rows)
			},
			sql:  "SELECT id, name FROM users WHERE id > ?",
			args: []any{0},
			expected: []core.Row{
				{"id": int64(1), "name": "alice"},
				{"id": int64(2), "name": nil},
			},
		},
		{
			name:    "query with no rows",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT id FROM users").
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
			},
			sql:      "SELECT id FROM users",
			expected: []core.Row{},
		},
		{
			name:    "unknown column is classified",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT nope FROM users").
					WillReturnError(errors.New("SQL logic error: no such column: nope (1)"))
			},
			sql:       "SELECT nope FROM users",
			expectErr: true,
			errKind:   ErrKindColumnNotFound,
			errMsg:    "Column not found",
		},
		{
			name:    "query with error",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("INVALID").WillReturnError(assert.AnError)
			},
			sql:       "INVALID",
			expectErr: true,
			errKind:   ErrKindExecution,
			errMsg:    "failed to execute query",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
				require.NoError(t, err)
				defer func() { _ = db.Close() }()

				if tt.setupMock != nil {
					tt.setupMock(mock)
				}
				base.DB = db
			}

			rows, err := base.Query(ctx, tt.sql, tt.args...)
			if tt.expectErr {
				require.Error(t, err)
				assert.Nil(t, rows)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
				if tt.errKind != "" {
					var qe *QueryError
					require.ErrorAs(t, err, &qe)
					assert.Equal(t, tt.errKind, qe.Kind)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, rows)
		})
	}
}

func TestBaseSQLAdapter_Sample(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT * FROM "order-items" LIMIT ?`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery(`SELECT * FROM "order-items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)))
	mock.ExpectQuery(`SELECT * FROM "order" LIMIT ?`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery(`SELECT * FROM "Odd ""Name""" LIMIT ?`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	base := &BaseSQLAdapter{DB: db}
	ctx := context.Background()

	rows, err := base.Sample(ctx, "order-items", 5)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = base.Sample(ctx, "order-items", 0)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	// Reserved words and mixed case keep their introspected spelling.
	rows, err = base.Sample(ctx, "order", 10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = base.Sample(ctx, `Odd "Name"`, 1)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = base.Sample(ctx, "", 5)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseSQLAdapter_SampleUsesQuoteHook(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT * FROM [Orders] LIMIT ?").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	base := &BaseSQLAdapter{DB: db, QuoteIdent: func(s string) string { return "[" + s + "]" }}
	rows, err := base.Sample(context.Background(), "Orders", 3)
	require.NoError(t, err)
	assert.Equal(t, []core.Row{{"id": int64(7)}}, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseSQLAdapter_LoadTable(t *testing.T) {
	table := core.Table{
		Name: "customer",
		Columns: []core.Column{
			{Name: "id", Type: "INTEGER", PrimaryKey: true},
			{Name: "name", Type: "TEXT", NotNull: true},
		},
	}

	t.Run("creates and inserts in a transaction", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS customer (id INTEGER, name TEXT NOT NULL, PRIMARY KEY (id));").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectBegin()
		prep := mock.ExpectPrepare("INSERT INTO customer (id, name) VALUES (?, ?);")
		prep.ExpectExec().WithArgs(1, "ada").WillReturnResult(sqlmock.NewResult(1, 1))
		prep.ExpectExec().WithArgs(2, nil).WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectCommit()

		base := &BaseSQLAdapter{DB: db}
		err = base.LoadTable(context.Background(), table, []core.Row{
			{"id": 1, "name": "ada", "ignored": true},
			{"id": 2},
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed insert rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS customer (id INTEGER, name TEXT NOT NULL, PRIMARY KEY (id));").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectBegin()
		prep := mock.ExpectPrepare("INSERT INTO customer (id, name) VALUES (?, ?);")
		prep.ExpectExec().WithArgs(1, nil).WillReturnError(assert.AnError)
		mock.ExpectRollback()

		base := &BaseSQLAdapter{DB: db}
		err = base.LoadTable(context.Background(), table, []core.Row{{"id": 1}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert row 0 into customer")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("without connection", func(t *testing.T) {
		base := &BaseSQLAdapter{}
		err := base.LoadTable(context.Background(), table, nil)
		assert.ErrorIs(t, err, ErrNotConnected)
	})
}

func TestCreateTableSQL(t *testing.T) {
	def := "0"
	tests := []struct {
		name      string
		table     core.Table
		expected  string
		expectErr bool
	}{
		{
			name: "composite key and default",
			table: core.Table{Name: "order items", Columns: []core.Column{
				{Name: "order_id", Type: "INTEGER", PrimaryKey: true},
				{Name: "line", Type: "INTEGER", PrimaryKey: true},
				{Name: "qty", Type: "INTEGER", DefaultValue: &def},
				{Name: "note"},
			}},
			expected: "CREATE TABLE IF NOT EXISTS order_items (order_id INTEGER, line INTEGER, qty INTEGER DEFAULT 0, note TEXT, PRIMARY KEY (order_id, line));",
		},
		{
			name: "sized and multi-word types",
			table: core.Table{Name: "prices", Columns: []core.Column{
				{Name: "code", Type: "VARCHAR(16)"},
				{Name: "amount", Type: "NUMERIC(10, 2)"},
				{Name: "rate", Type: "double precision"},
			}},
			expected: "CREATE TABLE IF NOT EXISTS prices (code VARCHAR(16), amount NUMERIC(10, 2), rate double precision);",
		},
		{
			name: "defaults are rendered as literals",
			table: core.Table{Name: "t", Columns: []core.Column{
				{Name: "a", Type: "TEXT", DefaultValue: strPtr("'it''s'")},
				{Name: "b", Type: "TEXT", DefaultValue: strPtr("0); DROP TABLE t; --")},
				{Name: "c", Type: "TIMESTAMP", DefaultValue: strPtr("current_timestamp")},
			}},
			expected: "CREATE TABLE IF NOT EXISTS t (a TEXT DEFAULT 'it''s', b TEXT DEFAULT '0); DROP TABLE t; --', c TIMESTAMP DEFAULT CURRENT_TIMESTAMP);",
		},
		{
			name: "statement smuggled through a type",
			table: core.Table{Name: "t", Columns: []core.Column{
				{Name: "a", Type: "TEXT); CREATE TABLE other (x INTEGER); --"},
			}},
			expectErr: true,
		},
		{
			name: "type with a trailing clause",
			table: core.Table{Name: "t", Columns: []core.Column{
				{Name: "a", Type: "INTEGER CHECK(a > 0)"},
			}},
			expectErr: true,
		},
		{
			name:      "no columns",
			table:     core.Table{Name: "empty"},
			expectErr: true,
		},
		{
			name:      "blank table name",
			table:     core.Table{Name: "  ", Columns: []core.Column{{Name: "id"}}},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CreateTableSQL(tt.table)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDefaultLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"-1.5e3", "-1.5e3"},
		{"'paid'", "'paid'"},
		{"'it''s'", "'it''s'"},
		{"null", "NULL"},
		{"CURRENT_DATE", "CURRENT_DATE"},
		{"paid", "'paid'"},
		{"'x' || (SELECT 1)", "'''x'' || (SELECT 1)'"},
		{"'unterminated", "'''unterminated'"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultLiteral(tt.in))
		})
	}
}

func strPtr(s string) *string { return &s }

func TestBaseSQLAdapter_IsConnected(t *testing.T) {
	tests := []struct {
		name     string
		setupDB  bool
		expected bool
	}{
		{
			name:     "not connected",
			setupDB:  false,
			expected: false,
		},
		{
			name:     "connected",
			setupDB:  true,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				db, _, err := sqlmock.New()
				require.NoError(t, err)
				defer func() { _ = db.Close() }()
				base.DB = db
			}

			assert.Equal(t, tt.expected, base.IsConnected())
		})
	}
}

func TestRebindDollar(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SELECT * FROM t;", "SELECT * FROM t;"},
		{"SELECT * FROM t WHERE a = ? AND b IN (?, ?);", "SELECT * FROM t WHERE a = $1 AND b IN ($2, $3);"},
		{"SELECT '?' AS q FROM t WHERE a = ?", "SELECT '?' AS q FROM t WHERE a = $1"},
		{`SELECT "odd?" FROM t LIMIT ?`, `SELECT "odd?" FROM t LIMIT $1`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, RebindDollar(tt.in))
		})
	}
}

func TestBaseSQLAdapter_QueryRebinds(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT * FROM "orders" LIMIT $1`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	base := &BaseSQLAdapter{DB: db, Rebind: RebindDollar}
	rows, err := base.Sample(context.Background(), "orders", 5)
	require.NoError(t, err)
	assert.Equal(t, []core.Row{{"id": int64(1)}}, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}
