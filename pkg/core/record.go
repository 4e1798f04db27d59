package core

import (
	"strconv"
	"strings"
)

// Record is a typed holder for one raw metadata row, keyed by canonical
// column name. Sources normalize driver-specific rows into Records; the
// model layer decodes them with the safe accessors below. Accessors never
// fail: a missing, NULL, or mistyped value decodes to the zero value.
type Record struct {
	values map[string]any
}

// NewRecord creates a Record over the given column values.
func NewRecord(values map[string]any) *Record {
	if values == nil {
		values = map[string]any{}
	}
	return &Record{values: values}
}

// Set stores a column value. Used by sources while normalizing rows.
func (r *Record) Set(column string, value any) {
	r.values[column] = value
}

// Has reports whether the column is present (possibly NULL).
func (r *Record) Has(column string) bool {
	_, ok := r.values[column]
	return ok
}

// Any returns the raw value for a column, or nil.
func (r *Record) Any(column string) any {
	return r.values[column]
}

// String returns the column as a string, or "".
func (r *Record) String(column string) string {
	switch v := r.values[column].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	default:
		return ""
	}
}

// Int64 returns the column as an int64, or 0.
func (r *Record) Int64(column string) int64 {
	switch v := r.values[column].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// Int returns the column as an int, or 0.
func (r *Record) Int(column string) int {
	return int(r.Int64(column))
}

// Bool returns the column as a bool, or false. String forms accepted by
// drivers ("t", "true", "YES", "1") decode to true.
func (r *Record) Bool(column string) bool {
	switch v := r.values[column].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(v) {
		case "t", "true", "yes", "y", "1":
			return true
		}
		return false
	case int64:
		return v != 0
	default:
		return false
	}
}

// StringSlice returns the column as a slice of strings, or nil. Array-typed
// driver values and postgres array literals ("{a,b}") both decode.
func (r *Record) StringSlice(column string) []string {
	switch v := r.values[column].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return parseArrayLiteral(v)
	case []byte:
		return parseArrayLiteral(string(v))
	default:
		return nil
	}
}

// parseArrayLiteral decodes a "{a,b,c}" array literal. Quoting inside
// elements is not handled; storage options and ACL entries do not need it.
func parseArrayLiteral(s string) []string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return nil
	}
	inner := s[1 : len(s)-1]
	if inner == "" {
		return nil
	}
	parts := strings.Split(inner, ",")
	for i, p := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(p), `"`)
	}
	return parts
}
