package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Row maps column names to scalar values: nil, a number, a string or a bool.
type Row map[string]any

// Dataset holds the sampled rows of each table, keyed by table name.
// Row order is sample order and is preserved through analysis.
type Dataset map[string][]Row

// Rows returns the sampled rows for a table, or nil when none were sampled.
func (d Dataset) Rows(table string) []Row {
	if d == nil {
		return nil
	}
	return d[table]
}

// IsBlank reports whether v is nil or the empty string.
// Blank values count as missing for completeness and constraint checks.
func IsBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []byte:
		return len(val) == 0
	}
	return false
}

// ToNumber coerces a scalar to float64. Strings are parsed after trimming;
// bools map to 1 and 0. Blank values and unparseable strings are not numbers.
func ToNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case float32:
		f := float64(val)
		return f, !math.IsNaN(f)
	case float64:
		return val, !math.IsNaN(val)
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case []byte:
		return parseNumber(string(val))
	case string:
		return parseNumber(val)
	}
	return 0, false
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// IsNumeric reports whether v is a Go numeric value (not a numeric string).
func IsNumeric(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

// ValueKey returns a key that is equal for two values exactly when they are
// strictly equal: numbers compare by value across Go numeric types, strings
// by content, and a number never equals its string spelling.
func ValueKey(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return "s:" + val
	case []byte:
		return "s:" + string(val)
	case bool:
		return "b:" + strconv.FormatBool(val)
	case time.Time:
		return "t:" + val.UTC().Format(time.RFC3339Nano)
	}
	if IsNumeric(v) {
		f, _ := ToNumber(v)
		return "n:" + formatNumber(v, f)
	}
	return fmt.Sprintf("%T:%v", v, v)
}

// DisplayString renders a scalar the way it appears in reports and messages.
func DisplayString(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case []byte:
		return string(val)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339)
	}
	if IsNumeric(v) {
		f, _ := ToNumber(v)
		return formatNumber(v, f)
	}
	return fmt.Sprint(v)
}

// Truthy reports whether v is a non-zero, non-empty value.
func Truthy(v any) bool {
	if IsBlank(v) {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	if IsNumeric(v) {
		f, ok := ToNumber(v)
		return ok && f != 0
	}
	return true
}

func formatNumber(v any, f float64) string {
	switch val := v.(type) {
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// NormalizeNumbers replaces json.Number values with int64 when integral
// and float64 otherwise, recursing into slices and maps. Decoders that use
// json.Decoder.UseNumber keep integer identifiers exact this way.
func NormalizeNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case []any:
		for i := range val {
			val[i] = NormalizeNumbers(val[i])
		}
		return val
	case map[string]any:
		for k := range val {
			val[k] = NormalizeNumbers(val[k])
		}
		return val
	case Row:
		for k := range val {
			val[k] = NormalizeNumbers(val[k])
		}
		return val
	}
	return v
}
