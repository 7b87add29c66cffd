package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dalilfazara/dalil/internal/domain"
	"github.com/dalilfazara/dalil/pkg/datastore"
	pkgmocks "github.com/dalilfazara/dalil/pkg/mocks"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newTrackingRepo(t *testing.T) (*TrackingRepository, *pkgmocks.MockDatastore) {
	ctrl := gomock.NewController(t)
	store := pkgmocks.NewMockDatastore(ctrl)
	return &TrackingRepository{store: store, now: func() time.Time { return fixedNow }}, store
}

func TestTrackingRepository_InsertVisit(t *testing.T) {
	repo, store := newTrackingRepo(t)

	store.EXPECT().
		Insert(gomock.Any(), TableVisits, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, rec datastore.Record) error {
			assert.Equal(t, "visitor_1_abc", rec["visitor_id"])
			assert.Equal(t, "/index.html", rec["page_url"])
			assert.Equal(t, fixedNow, rec["created_at"])
			return nil
		})

	v := &domain.Visit{VisitorID: "visitor_1_abc", PageURL: "/index.html"}
	require.NoError(t, repo.InsertVisit(context.Background(), v))
	assert.NotEmpty(t, v.ID)
}

func TestTrackingRepository_UpsertPresence(t *testing.T) {
	repo, store := newTrackingRepo(t)

	store.EXPECT().
		Upsert(gomock.Any(), TableActiveVisitors, datastore.Record{
			"visitor_id": "visitor_1_abc",
			"last_seen":  fixedNow,
			"page_url":   "/",
		}, "visitor_id").
		Return(nil)

	require.NoError(t, repo.UpsertPresence(context.Background(), &domain.ActivePresence{VisitorID: "visitor_1_abc", PageURL: "/"}))
}

func TestTrackingRepository_PresenceDeletes(t *testing.T) {
	repo, store := newTrackingRepo(t)
	cutoff := fixedNow.Add(-domain.PresenceTTL)

	store.EXPECT().Delete(gomock.Any(), TableActiveVisitors, datastore.Eq("visitor_id", "visitor_1_abc")).Return(nil)
	store.EXPECT().Delete(gomock.Any(), TableActiveVisitors, datastore.Lt("last_seen", cutoff)).Return(errors.New("down"))

	require.NoError(t, repo.DeletePresence(context.Background(), "visitor_1_abc"))
	err := repo.PurgeStalePresence(context.Background(), cutoff)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to purge stale presence")
}

func TestTrackingRepository_InsertContactClick(t *testing.T) {
	repo, store := newTrackingRepo(t)

	workerID := "w1"
	job := "سباك"
	store.EXPECT().
		Insert(gomock.Any(), TableContactClicks, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, rec datastore.Record) error {
			assert.Equal(t, "w1", rec["worker_id"])
			assert.Equal(t, "سباك", rec["worker_job"])
			assert.Equal(t, "Ahmed", rec["worker_name"])
			return nil
		})
	store.EXPECT().
		Insert(gomock.Any(), TableContactClicks, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, rec datastore.Record) error {
			assert.Nil(t, rec["worker_id"])
			assert.Nil(t, rec["worker_job"])
			return nil
		})

	require.NoError(t, repo.InsertContactClick(context.Background(), &domain.ContactClick{
		VisitorID: "visitor_1_abc", WorkerID: &workerID, WorkerName: "Ahmed", WorkerPhone: "01012345678", WorkerJob: &job,
	}))
	require.NoError(t, repo.InsertContactClick(context.Background(), &domain.ContactClick{
		VisitorID: "visitor_1_abc", WorkerName: "Ahmed", WorkerPhone: "01012345678",
	}))
}

func TestTrackingRepository_Counts(t *testing.T) {
	repo, store := newTrackingRepo(t)
	since := fixedNow.Add(-domain.PresenceTTL)

	store.EXPECT().Count(gomock.Any(), TableVisits).Return(int64(120), nil)
	store.EXPECT().Count(gomock.Any(), TableActiveVisitors, datastore.Gte("last_seen", since)).Return(int64(4), nil)
	store.EXPECT().Count(gomock.Any(), TableContactClicks).Return(int64(0), errors.New("boom"))

	n, err := repo.CountVisits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(120), n)

	n, err = repo.CountActivePresence(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	_, err = repo.CountContactClicks(context.Background())
	assert.Error(t, err)
}

func TestTrackingRepository_VisitorIDsAndTimes(t *testing.T) {
	repo, store := newTrackingRepo(t)
	since := fixedNow.Add(-7 * 24 * time.Hour)

	store.EXPECT().
		Select(gomock.Any(), TableVisits, datastore.Query{Columns: []string{"visitor_id"}}).
		Return([]datastore.Record{{"visitor_id": "a"}, {"visitor_id": "b"}, {"visitor_id": "a"}}, nil)
	store.EXPECT().
		Select(gomock.Any(), TableVisits, datastore.Query{
			Columns: []string{"created_at"},
			Filters: []datastore.Condition{datastore.Gte("created_at", since)},
			Order:   []datastore.Order{datastore.Asc("created_at")},
		}).
		Return([]datastore.Record{
			{"created_at": fixedNow.Add(-time.Hour)},
			{"created_at": "2024-03-10T11:30:00Z"},
		}, nil)

	ids, err := repo.VisitorIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "a"}, ids)

	times, err := repo.VisitTimes(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, times, 2)
	assert.Equal(t, 30, times[1].Minute())
}

func TestTrackingRepository_ContactClicks(t *testing.T) {
	repo, store := newTrackingRepo(t)

	store.EXPECT().
		Select(gomock.Any(), TableContactClicks, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, q datastore.Query) ([]datastore.Record, error) {
			assert.Equal(t, uint64(20), q.Limit)
			assert.Equal(t, []datastore.Order{datastore.Desc("created_at")}, q.Order)
			return []datastore.Record{
				{"id": "c1", "visitor_id": "v", "worker_id": "w1", "worker_name": "Ahmed", "worker_phone": "010", "worker_job": "سباك", "created_at": fixedNow},
				{"id": "c2", "visitor_id": "v", "worker_id": nil, "worker_name": "Mona", "worker_phone": "011", "worker_job": nil, "created_at": fixedNow},
			}, nil
		})

	clicks, err := repo.ContactClicks(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, clicks, 2)
	require.NotNil(t, clicks[0].WorkerID)
	assert.Equal(t, "w1", *clicks[0].WorkerID)
	assert.Equal(t, "سباك", *clicks[0].WorkerJob)
	assert.Nil(t, clicks[1].WorkerID)
	assert.Nil(t, clicks[1].WorkerJob)
}
