package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dalilfazara/dalil/pkg/datastore"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestStore_Count(t *testing.T) {
	db, mock := setupMockDB(t)
	store := New(db)
	cutoff := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COUNT(*) FROM active_visitors WHERE last_seen >= $1`).
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := store.Count(context.Background(), "active_visitors", datastore.Gte("last_seen", cutoff))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Count_Error(t *testing.T) {
	db, mock := setupMockDB(t)
	store := New(db)

	mock.ExpectQuery(`SELECT COUNT(*) FROM visits`).WillReturnError(errors.New("connection reset"))

	_, err := store.Count(context.Background(), "visits")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to count visits")
}

func TestStore_Select(t *testing.T) {
	db, mock := setupMockDB(t)
	store := New(db)
	since := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
	created := time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT visitor_id, created_at FROM visits WHERE created_at >= $1 AND visitor_id <> $2 ORDER BY created_at ASC LIMIT 20`).
		WithArgs(since, "bot").
		WillReturnRows(sqlmock.NewRows([]string{"visitor_id", "created_at"}).
			AddRow([]byte("visitor_1_abc"), created).
			AddRow("visitor_2_def", created))

	rows, err := store.Select(context.Background(), "visits", datastore.Query{
		Columns: []string{"visitor_id", "created_at"},
		Filters: []datastore.Condition{datastore.Gte("created_at", since), datastore.Neq("visitor_id", "bot")},
		Order:   []datastore.Order{datastore.Asc("created_at")},
		Limit:   20,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "visitor_1_abc", rows[0]["visitor_id"])
	assert.Equal(t, created, rows[1]["created_at"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Select_InAndNull(t *testing.T) {
	db, mock := setupMockDB(t)
	store := New(db)

	mock.ExpectQuery(`SELECT * FROM workers WHERE id IN ($1,$2) AND phone_other IS NULL ORDER BY created_at DESC`).
		WithArgs("w1", "w2").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rows, err := store.Select(context.Background(), "workers", datastore.Query{
		Filters: []datastore.Condition{datastore.In("id", "w1", "w2"), datastore.IsNull("phone_other")},
		Order:   []datastore.Order{datastore.Desc("created_at")},
	})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Select_RejectsBadIdentifiers(t *testing.T) {
	db, _ := setupMockDB(t)
	store := New(db)

	_, err := store.Select(context.Background(), "workers", datastore.Query{Columns: []string{"name; drop table workers"}})
	assert.True(t, errors.Is(err, datastore.ErrInvalidIdentifier))
}

func TestStore_Insert(t *testing.T) {
	db, mock := setupMockDB(t)
	store := New(db)
	now := time.Now().UTC()

	mock.ExpectExec(`INSERT INTO visits (created_at,page_url,visitor_id) VALUES ($1,$2,$3)`).
		WithArgs(now, "/", "visitor_1_abc").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Insert(context.Background(), "visits", datastore.Record{
		"visitor_id": "visitor_1_abc",
		"page_url":   "/",
		"created_at": now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.ErrorIs(t, store.Insert(context.Background(), "visits", datastore.Record{}), datastore.ErrEmptyRecord)
}

func TestStore_Upsert(t *testing.T) {
	db, mock := setupMockDB(t)
	store := New(db)

	mock.ExpectExec(`INSERT INTO active_visitors (last_seen,page_url,visitor_id) VALUES ($1,$2,$3) ON CONFLICT (visitor_id) DO UPDATE SET last_seen = EXCLUDED.last_seen, page_url = EXCLUDED.page_url`).
		WithArgs(sqlmock.AnyArg(), "/dashboard", "visitor_1_abc").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Upsert(context.Background(), "active_visitors", datastore.Record{
		"visitor_id": "visitor_1_abc",
		"last_seen":  time.Now(),
		"page_url":   "/dashboard",
	}, "visitor_id")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Upsert_OnlyKey(t *testing.T) {
	db, mock := setupMockDB(t)
	store := New(db)

	mock.ExpectExec(`INSERT INTO active_visitors (visitor_id) VALUES ($1) ON CONFLICT (visitor_id) DO NOTHING`).
		WithArgs("visitor_1_abc").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Upsert(context.Background(), "active_visitors", datastore.Record{"visitor_id": "visitor_1_abc"}, "visitor_id"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Upsert_MissingKey(t *testing.T) {
	db, _ := setupMockDB(t)
	store := New(db)

	err := store.Upsert(context.Background(), "active_visitors", datastore.Record{"page_url": "/"}, "visitor_id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing conflict key")
}

func TestStore_Delete(t *testing.T) {
	db, mock := setupMockDB(t)
	store := New(db)
	cutoff := time.Date(2024, 3, 10, 11, 55, 0, 0, time.UTC)

	mock.ExpectExec(`DELETE FROM active_visitors WHERE last_seen < $1`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 4))

	require.NoError(t, store.Delete(context.Background(), "active_visitors", datastore.Lt("last_seen", cutoff)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Delete_RequiresFilter(t *testing.T) {
	db, _ := setupMockDB(t)
	store := New(db)

	assert.ErrorIs(t, store.Delete(context.Background(), "visits"), datastore.ErrUnfilteredDelete)
}

func TestStore_Delete_Error(t *testing.T) {
	db, mock := setupMockDB(t)
	store := New(db)

	mock.ExpectExec(`DELETE FROM active_visitors WHERE visitor_id = $1`).
		WithArgs("visitor_1_abc").
		WillReturnError(errors.New("boom"))

	err := store.Delete(context.Background(), "active_visitors", datastore.Eq("visitor_id", "visitor_1_abc"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete from active_visitors")
}
