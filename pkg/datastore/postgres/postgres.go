// Package postgres implements datastore.Store on a database/sql connection
// using squirrel to build statements.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/dalilfazara/dalil/pkg/datastore"
)

// Store talks to Postgres directly
type Store struct {
	db   *sql.DB
	psql sq.StatementBuilderType
}

var _ datastore.Store = (*Store)(nil)

// New returns a Store using db
func New(db *sql.DB) *Store {
	return &Store{
		db:   db,
		psql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func condition(c datastore.Condition) (sq.Sqlizer, error) {
	switch c.Op {
	case datastore.OpEq:
		return sq.Eq{c.Column: c.Value}, nil
	case datastore.OpNeq:
		return sq.NotEq{c.Column: c.Value}, nil
	case datastore.OpGt:
		return sq.Gt{c.Column: c.Value}, nil
	case datastore.OpGte:
		return sq.GtOrEq{c.Column: c.Value}, nil
	case datastore.OpLt:
		return sq.Lt{c.Column: c.Value}, nil
	case datastore.OpLte:
		return sq.LtOrEq{c.Column: c.Value}, nil
	case datastore.OpIn:
		return sq.Eq{c.Column: c.Value}, nil
	case datastore.OpIsNull:
		return sq.Eq{c.Column: nil}, nil
	default:
		return nil, fmt.Errorf("unsupported operator %q", c.Op)
	}
}

func applyFilters(filters []datastore.Condition, add func(sq.Sqlizer)) error {
	for _, f := range filters {
		pred, err := condition(f)
		if err != nil {
			return err
		}
		add(pred)
	}
	return nil
}

// Count returns the number of rows matching filters
func (s *Store) Count(ctx context.Context, table string, filters ...datastore.Condition) (int64, error) {
	if err := datastore.CheckIdentifiers(table, datastore.Query{Filters: filters}); err != nil {
		return 0, err
	}

	builder := s.psql.Select("COUNT(*)").From(table)
	if err := applyFilters(filters, func(p sq.Sqlizer) { builder = builder.Where(p) }); err != nil {
		return 0, err
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return count, nil
}

// Select returns the rows matching q
func (s *Store) Select(ctx context.Context, table string, q datastore.Query) ([]datastore.Record, error) {
	if err := datastore.CheckIdentifiers(table, q); err != nil {
		return nil, err
	}

	columns := q.Columns
	if len(columns) == 0 {
		columns = []string{"*"}
	}
	builder := s.psql.Select(columns...).From(table)
	if err := applyFilters(q.Filters, func(p sq.Sqlizer) { builder = builder.Where(p) }); err != nil {
		return nil, err
	}
	for _, o := range q.Order {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		builder = builder.OrderBy(o.Column + " " + dir)
	}
	if q.Limit > 0 {
		builder = builder.Limit(q.Limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select from %s: %w", table, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	records := make([]datastore.Record, 0)
	for rows.Next() {
		values := make([]interface{}, len(names))
		ptrs := make([]interface{}, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}

		rec := make(datastore.Record, len(names))
		for i, name := range names {
			if b, ok := values[i].([]byte); ok {
				rec[name] = string(b)
				continue
			}
			rec[name] = values[i]
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", table, err)
	}

	return records, nil
}

func (s *Store) insertBuilder(table string, rec datastore.Record) (sq.InsertBuilder, []string, error) {
	if len(rec) == 0 {
		return sq.InsertBuilder{}, nil, datastore.ErrEmptyRecord
	}
	cols := rec.Columns()
	if err := datastore.CheckIdentifiers(table, datastore.Query{Columns: cols}); err != nil {
		return sq.InsertBuilder{}, nil, err
	}
	values := make([]interface{}, len(cols))
	for i, c := range cols {
		values[i] = rec[c]
	}
	return s.psql.Insert(table).Columns(cols...).Values(values...), cols, nil
}

// Insert adds one row
func (s *Store) Insert(ctx context.Context, table string, rec datastore.Record) error {
	builder, _, err := s.insertBuilder(table, rec)
	if err != nil {
		return err
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

// Upsert inserts rec or, when conflictKey already exists, overwrites every
// other column of the existing row
func (s *Store) Upsert(ctx context.Context, table string, rec datastore.Record, conflictKey string) error {
	if !datastore.ValidIdentifier(conflictKey) {
		return fmt.Errorf("%w: conflict key %q", datastore.ErrInvalidIdentifier, conflictKey)
	}
	if _, ok := rec[conflictKey]; !ok {
		return fmt.Errorf("record is missing conflict key %s", conflictKey)
	}

	builder, cols, err := s.insertBuilder(table, rec)
	if err != nil {
		return err
	}

	sets := make([]string, 0, len(cols))
	for _, c := range cols {
		if c == conflictKey {
			continue
		}
		sets = append(sets, c+" = EXCLUDED."+c)
	}
	if len(sets) == 0 {
		builder = builder.Suffix("ON CONFLICT (" + conflictKey + ") DO NOTHING")
	} else {
		builder = builder.Suffix("ON CONFLICT (" + conflictKey + ") DO UPDATE SET " + strings.Join(sets, ", "))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert into %s: %w", table, err)
	}
	return nil
}

// Delete removes the rows matching filters. At least one filter is required.
func (s *Store) Delete(ctx context.Context, table string, filters ...datastore.Condition) error {
	if len(filters) == 0 {
		return datastore.ErrUnfilteredDelete
	}
	if err := datastore.CheckIdentifiers(table, datastore.Query{Filters: filters}); err != nil {
		return err
	}

	builder := s.psql.Delete(table)
	if err := applyFilters(filters, func(p sq.Sqlizer) { builder = builder.Where(p) }); err != nil {
		return err
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}
