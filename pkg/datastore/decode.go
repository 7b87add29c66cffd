package datastore

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

func sortStrings(s []string) { sort.Strings(s) }

// timeLayouts covers what Postgres and PostgREST emit for timestamptz
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05.999999",
}

// String returns the column as a string. Missing and null columns yield "".
func (r Record) String(col string) (string, error) {
	switch v := r[col].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", fmt.Errorf("column %s: expected string, got %T", col, v)
	}
}

// NullableString returns nil for a missing or null column
func (r Record) NullableString(col string) (*string, error) {
	if r[col] == nil {
		return nil, nil
	}
	s, err := r.String(col)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Bool accepts native booleans and their textual forms
func (r Record) Bool(col string) (bool, error) {
	switch v := r[col].(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("column %s: %w", col, err)
		}
		return b, nil
	case []byte:
		b, err := strconv.ParseBool(string(v))
		if err != nil {
			return false, fmt.Errorf("column %s: %w", col, err)
		}
		return b, nil
	default:
		return false, fmt.Errorf("column %s: expected bool, got %T", col, v)
	}
}

// Time accepts time.Time values and the timestamp strings returned over HTTP
func (r Record) Time(col string) (time.Time, error) {
	switch v := r[col].(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case string:
		return parseTime(col, v)
	case []byte:
		return parseTime(col, string(v))
	default:
		return time.Time{}, fmt.Errorf("column %s: expected timestamp, got %T", col, v)
	}
}

func parseTime(col, s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("column %s: unparseable timestamp %q", col, s)
}

// Int64 accepts every numeric representation the backends produce
func (r Record) Int64(col string) (int64, error) {
	switch v := r[col].(type) {
	case nil:
		return 0, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("column %s: %w", col, err)
		}
		return n, nil
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("column %s: %w", col, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("column %s: expected integer, got %T", col, v)
	}
}
