package adapter

import (
	"errors"
	"fmt"
	"strings"
)

// QueryErrorKind classifies executor failures.
type QueryErrorKind string

// Query error kinds.
const (
	ErrKindColumnNotFound QueryErrorKind = "column_not_found"
	ErrKindTableNotFound  QueryErrorKind = "table_not_found"
	ErrKindSyntax         QueryErrorKind = "syntax_error"
	ErrKindExecution      QueryErrorKind = "execution_error"
)

// QueryError is an executor failure with its classification.
type QueryError struct {
	Kind QueryErrorKind
	Err  error
}

func (e *QueryError) Error() string {
	switch e.Kind {
	case ErrKindColumnNotFound:
		return fmt.Sprintf("Column not found: %v", e.Err)
	case ErrKindTableNotFound:
		return fmt.Sprintf("Table not found: %v", e.Err)
	case ErrKindSyntax:
		return fmt.Sprintf("SQL syntax error: %v", e.Err)
	default:
		return fmt.Sprintf("failed to execute query: %v", e.Err)
	}
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsUserError reports whether the failure was caused by the query itself
// rather than by the store.
func (e *QueryError) IsUserError() bool {
	return e.Kind != ErrKindExecution
}

// errorPatterns maps driver message fragments to kinds. SQLite and DuckDB
// phrase the same failures differently; PostgreSQL is matched on SQLSTATE.
var errorPatterns = []struct {
	fragment string
	kind     QueryErrorKind
}{
	{"no such column", ErrKindColumnNotFound},
	{"referenced column", ErrKindColumnNotFound},
	{"no such table", ErrKindTableNotFound},
	{"catalog error: table with name", ErrKindTableNotFound},
	{"sqlstate 42703", ErrKindColumnNotFound},
	{"sqlstate 42p01", ErrKindTableNotFound},
	{"syntax error", ErrKindSyntax},
	{"parser error", ErrKindSyntax},
}

// ClassifyError wraps err in a *QueryError. A nil error stays nil and an
// error that already is a *QueryError is returned unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	var qe *QueryError
	if errors.As(err, &qe) {
		return err
	}
	msg := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(msg, p.fragment) {
			return &QueryError{Kind: p.kind, Err: err}
		}
	}
	return &QueryError{Kind: ErrKindExecution, Err: err}
}
