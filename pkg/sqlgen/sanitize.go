package sqlgen

import (
	"regexp"
	"strings"
)

var unsafeIdentChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// Sanitize rewrites name into a safe SQL identifier: trimmed, every character
// outside [A-Za-z0-9_] replaced with "_", a leading digit prefixed with "_",
// and lowercased. It is total and idempotent.
func Sanitize(name string) string {
	s := unsafeIdentChars.ReplaceAllString(strings.TrimSpace(name), "_")
	if s != "" && s[0] >= '0' && s[0] <= '9' {
		s = "_" + s
	}
	return strings.ToLower(s)
}

// Qualify sanitizes a table and column into "table.column".
// An empty table yields the sanitized column alone.
func Qualify(table, column string) string {
	col := Sanitize(column)
	if col == "" {
		return ""
	}
	if t := Sanitize(table); t != "" {
		return t + "." + col
	}
	return col
}

// QualifiedName sanitizes a possibly dotted name. The name is split on the
// first "." and each half is sanitized independently.
func QualifiedName(name string) string {
	if table, column, ok := strings.Cut(name, "."); ok {
		return Qualify(table, column)
	}
	return Sanitize(name)
}

// selectColumn renders a select-list entry, keeping "*" and "table.*" intact.
func selectColumn(name string) string {
	name = strings.TrimSpace(name)
	if name == "*" {
		return "*"
	}
	if table, ok := strings.CutSuffix(name, ".*"); ok {
		if t := Sanitize(table); t != "" {
			return t + ".*"
		}
		return "*"
	}
	return QualifiedName(name)
}

func isStar(name string) bool {
	name = strings.TrimSpace(name)
	return name == "*" || strings.HasSuffix(name, ".*")
}
