package normalize

import (
	"math"
	"strings"

	"github.com/leapstack-labs/sqlscope/pkg/core"
)

// ValidType reports whether value is compatible with the declared column
// type. The check is permissive: INTEGER and INT accept anything that
// coerces to an integral number, REAL, FLOAT and DOUBLE anything numeric,
// TEXT, VARCHAR and STRING require a string, and BOOLEAN accepts true,
// false, "true", "false", 1 and 0. Any other declared type accepts every
// value, and nil is always valid.
func ValidType(value any, declaredType string) bool {
	if value == nil {
		return true
	}

	switch strings.ToUpper(strings.TrimSpace(declaredType)) {
	case "INTEGER", "INT":
		f, ok := core.ToNumber(value)
		return ok && !math.IsInf(f, 0) && f == math.Trunc(f)
	case "REAL", "FLOAT", "DOUBLE":
		_, ok := core.ToNumber(value)
		return ok
	case "TEXT", "VARCHAR", "STRING":
		switch value.(type) {
		case string, []byte:
			return true
		}
		return false
	case "BOOLEAN":
		switch v := value.(type) {
		case bool:
			return true
		case string:
			return v == "true" || v == "false"
		}
		if core.IsNumeric(value) {
			f, _ := core.ToNumber(value)
			return f == 0 || f == 1
		}
		return false
	default:
		return true
	}
}
