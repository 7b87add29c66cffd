// Package csvexport renders uniform records as comma separated text for the
// workers export download.
package csvexport

import (
	"fmt"
	"strings"
	"time"
)

// NoDataSentinel is returned by Encode for an empty input
const NoDataSentinel = "لا توجد بيانات"

// Field is one key/value cell of a record
type Field struct {
	Key   string
	Value interface{}
}

// Record is an ordered list of fields. Every record passed to Encode is
// expected to carry the same keys as the first one.
type Record []Field

// Get returns the value stored under key in r
func (r Record) Get(key string) (interface{}, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Encode writes a header line from the first record's key order followed by
// one line per record, lines joined by "\n" without a trailing newline. A
// key missing from a later record is written as an empty field. Empty input
// returns NoDataSentinel.
func Encode(records []Record) string {
	if len(records) == 0 {
		return NoDataSentinel
	}

	headers := make([]string, len(records[0]))
	for i, f := range records[0] {
		headers[i] = f.Key
	}

	lines := make([]string, 0, len(records)+1)
	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = EscapeField(h)
	}
	lines = append(lines, strings.Join(cells, ","))

	for _, rec := range records {
		for i, h := range headers {
			v, _ := rec.Get(h)
			cells[i] = EscapeField(v)
		}
		lines = append(lines, strings.Join(cells, ","))
	}

	return strings.Join(lines, "\n")
}

// EscapeField renders one cell. nil and empty values become "" (a quoted
// empty string), so a present-but-empty value and an absent one look the
// same. Values containing a comma, a double quote or a newline are quoted
// with inner quotes doubled.
func EscapeField(v interface{}) string {
	s := stringify(v)
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *string:
		if t == nil {
			return ""
		}
		return *t
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if t == nil || t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Filename returns the timestamped export file name
func Filename(now time.Time) string {
	return fmt.Sprintf("workers_%s.csv", now.Format("2006-01-02_15-04-05"))
}

// Exportable is a row that can describe itself as an ordered record
type Exportable interface {
	ExportRecord() Record
}

// Records flattens rows in their given order
func Records[T Exportable](rows []T) []Record {
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = r.ExportRecord()
	}
	return out
}
