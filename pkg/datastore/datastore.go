// Package datastore defines the narrow table-oriented contract the services
// use to reach the hosted database. Two backends implement it: a direct
// Postgres connection and the PostgREST style HTTP API.
package datastore

//go:generate mockgen -destination ../mocks/mock_datastore.go -package pkgmocks -mock_names Store=MockDatastore github.com/dalilfazara/dalil/pkg/datastore Store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Record is one row keyed by column name
type Record map[string]interface{}

// Op is a comparison operator usable in a Condition
type Op string

const (
	OpEq     Op = "eq"
	OpNeq    Op = "neq"
	OpGt     Op = "gt"
	OpGte    Op = "gte"
	OpLt     Op = "lt"
	OpLte    Op = "lte"
	OpIn     Op = "in"
	OpIsNull Op = "is"
)

// Condition filters rows on a single column
type Condition struct {
	Column string
	Op     Op
	Value  interface{}
}

func Eq(column string, value interface{}) Condition  { return Condition{column, OpEq, value} }
func Neq(column string, value interface{}) Condition { return Condition{column, OpNeq, value} }
func Gt(column string, value interface{}) Condition  { return Condition{column, OpGt, value} }
func Gte(column string, value interface{}) Condition { return Condition{column, OpGte, value} }
func Lt(column string, value interface{}) Condition  { return Condition{column, OpLt, value} }
func Lte(column string, value interface{}) Condition { return Condition{column, OpLte, value} }
func IsNull(column string) Condition                 { return Condition{column, OpIsNull, nil} }

// In matches rows whose column equals one of values
func In(column string, values ...interface{}) Condition {
	return Condition{column, OpIn, values}
}

// Order sorts a selection by a column
type Order struct {
	Column string
	Desc   bool
}

// Asc and Desc build Order values
func Asc(column string) Order  { return Order{Column: column} }
func Desc(column string) Order { return Order{Column: column, Desc: true} }

// Query describes a selection. Empty Columns selects every column and a
// zero Limit means no limit.
type Query struct {
	Columns []string
	Filters []Condition
	Order   []Order
	Limit   uint64
}

// Store is the data access collaborator. Implementations must be safe for
// concurrent use.
type Store interface {
	Count(ctx context.Context, table string, filters ...Condition) (int64, error)
	Select(ctx context.Context, table string, q Query) ([]Record, error)
	Insert(ctx context.Context, table string, rec Record) error
	Upsert(ctx context.Context, table string, rec Record, conflictKey string) error
	Delete(ctx context.Context, table string, filters ...Condition) error
}

var (
	// ErrInvalidIdentifier is returned for table or column names that are not
	// plain lowercase identifiers
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrUnfilteredDelete guards against wiping a whole table
	ErrUnfilteredDelete = errors.New("delete requires at least one filter")
	// ErrEmptyRecord is returned when inserting a record with no columns
	ErrEmptyRecord = errors.New("record has no columns")
)

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidIdentifier reports whether name is safe to splice into a statement
func ValidIdentifier(name string) bool {
	return identPattern.MatchString(name)
}

// CheckIdentifiers validates a table name and every column a query touches
func CheckIdentifiers(table string, q Query) error {
	if !ValidIdentifier(table) {
		return fmt.Errorf("%w: table %q", ErrInvalidIdentifier, table)
	}
	for _, c := range q.Columns {
		if !ValidIdentifier(c) {
			return fmt.Errorf("%w: column %q", ErrInvalidIdentifier, c)
		}
	}
	for _, f := range q.Filters {
		if !ValidIdentifier(f.Column) {
			return fmt.Errorf("%w: column %q", ErrInvalidIdentifier, f.Column)
		}
	}
	for _, o := range q.Order {
		if !ValidIdentifier(o.Column) {
			return fmt.Errorf("%w: column %q", ErrInvalidIdentifier, o.Column)
		}
	}
	return nil
}

// Columns returns the record's column names in sorted order
func (r Record) Columns() []string {
	cols := make([]string, 0, len(r))
	for k := range r {
		cols = append(cols, k)
	}
	sortStrings(cols)
	return cols
}
