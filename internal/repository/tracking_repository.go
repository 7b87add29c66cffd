package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dalilfazara/dalil/internal/domain"
	"github.com/dalilfazara/dalil/pkg/datastore"
)

// TrackingRepository implements domain.TrackingRepository on a datastore.Store
type TrackingRepository struct {
	store datastore.Store
	now   func() time.Time
}

// NewTrackingRepository creates a new TrackingRepository
func NewTrackingRepository(store datastore.Store) domain.TrackingRepository {
	return &TrackingRepository{store: store, now: time.Now}
}

func (r *TrackingRepository) stamp(t *time.Time) {
	if t.IsZero() {
		*t = r.now().UTC()
	}
}

// InsertVisit appends a visit
func (r *TrackingRepository) InsertVisit(ctx context.Context, visit *domain.Visit) error {
	if visit.ID == "" {
		visit.ID = uuid.New().String()
	}
	r.stamp(&visit.CreatedAt)

	err := r.store.Insert(ctx, TableVisits, datastore.Record{
		"id":         visit.ID,
		"visitor_id": visit.VisitorID,
		"page_url":   visit.PageURL,
		"created_at": visit.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to insert visit: %w", err)
	}
	return nil
}

// UpsertPresence creates or refreshes the visitor's presence row
func (r *TrackingRepository) UpsertPresence(ctx context.Context, presence *domain.ActivePresence) error {
	r.stamp(&presence.LastSeen)

	err := r.store.Upsert(ctx, TableActiveVisitors, datastore.Record{
		"visitor_id": presence.VisitorID,
		"last_seen":  presence.LastSeen,
		"page_url":   presence.PageURL,
	}, "visitor_id")
	if err != nil {
		return fmt.Errorf("failed to upsert presence: %w", err)
	}
	return nil
}

// DeletePresence removes the visitor's presence row
func (r *TrackingRepository) DeletePresence(ctx context.Context, visitorID string) error {
	if err := r.store.Delete(ctx, TableActiveVisitors, datastore.Eq("visitor_id", visitorID)); err != nil {
		return fmt.Errorf("failed to delete presence: %w", err)
	}
	return nil
}

// PurgeStalePresence removes presence rows last seen before the cutoff
func (r *TrackingRepository) PurgeStalePresence(ctx context.Context, before time.Time) error {
	if err := r.store.Delete(ctx, TableActiveVisitors, datastore.Lt("last_seen", before.UTC())); err != nil {
		return fmt.Errorf("failed to purge stale presence: %w", err)
	}
	return nil
}

// InsertContactClick appends a contact click
func (r *TrackingRepository) InsertContactClick(ctx context.Context, click *domain.ContactClick) error {
	if click.ID == "" {
		click.ID = uuid.New().String()
	}
	r.stamp(&click.CreatedAt)

	rec := datastore.Record{
		"id":           click.ID,
		"visitor_id":   click.VisitorID,
		"worker_id":    nil,
		"worker_name":  click.WorkerName,
		"worker_phone": click.WorkerPhone,
		"worker_job":   nil,
		"created_at":   click.CreatedAt,
	}
	if click.WorkerID != nil {
		rec["worker_id"] = *click.WorkerID
	}
	if click.WorkerJob != nil {
		rec["worker_job"] = *click.WorkerJob
	}

	if err := r.store.Insert(ctx, TableContactClicks, rec); err != nil {
		return fmt.Errorf("failed to insert contact click: %w", err)
	}
	return nil
}

// CountVisits counts every visit
func (r *TrackingRepository) CountVisits(ctx context.Context) (int64, error) {
	n, err := r.store.Count(ctx, TableVisits)
	if err != nil {
		return 0, fmt.Errorf("failed to count visits: %w", err)
	}
	return n, nil
}

// CountActivePresence counts presence rows seen at or after since
func (r *TrackingRepository) CountActivePresence(ctx context.Context, since time.Time) (int64, error) {
	n, err := r.store.Count(ctx, TableActiveVisitors, datastore.Gte("last_seen", since.UTC()))
	if err != nil {
		return 0, fmt.Errorf("failed to count active visitors: %w", err)
	}
	return n, nil
}

// CountContactClicks counts every contact click
func (r *TrackingRepository) CountContactClicks(ctx context.Context) (int64, error) {
	n, err := r.store.Count(ctx, TableContactClicks)
	if err != nil {
		return 0, fmt.Errorf("failed to count contact clicks: %w", err)
	}
	return n, nil
}

// VisitorIDs returns the visitor id of every visit
func (r *TrackingRepository) VisitorIDs(ctx context.Context) ([]string, error) {
	rows, err := r.store.Select(ctx, TableVisits, datastore.Query{Columns: []string{"visitor_id"}})
	if err != nil {
		return nil, fmt.Errorf("failed to select visitor ids: %w", err)
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		id, err := row.String("visitor_id")
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// VisitTimes returns visit timestamps at or after since, oldest first
func (r *TrackingRepository) VisitTimes(ctx context.Context, since time.Time) ([]time.Time, error) {
	rows, err := r.store.Select(ctx, TableVisits, datastore.Query{
		Columns: []string{"created_at"},
		Filters: []datastore.Condition{datastore.Gte("created_at", since.UTC())},
		Order:   []datastore.Order{datastore.Asc("created_at")},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to select visits: %w", err)
	}

	times := make([]time.Time, 0, len(rows))
	for _, row := range rows {
		t, err := row.Time("created_at")
		if err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, nil
}

func decodeContactClick(rec datastore.Record) (domain.ContactClick, error) {
	var (
		c   domain.ContactClick
		err error
	)
	if c.ID, err = rec.String("id"); err != nil {
		return c, err
	}
	if c.VisitorID, err = rec.String("visitor_id"); err != nil {
		return c, err
	}
	if c.WorkerID, err = rec.NullableString("worker_id"); err != nil {
		return c, err
	}
	if c.WorkerName, err = rec.String("worker_name"); err != nil {
		return c, err
	}
	if c.WorkerPhone, err = rec.String("worker_phone"); err != nil {
		return c, err
	}
	if c.WorkerJob, err = rec.NullableString("worker_job"); err != nil {
		return c, err
	}
	if c.CreatedAt, err = rec.Time("created_at"); err != nil {
		return c, err
	}
	return c, nil
}

// ContactClicks returns clicks newest first, capped at limit when positive
func (r *TrackingRepository) ContactClicks(ctx context.Context, limit int) ([]domain.ContactClick, error) {
	q := datastore.Query{
		Columns: []string{"id", "visitor_id", "worker_id", "worker_name", "worker_phone", "worker_job", "created_at"},
		Order:   []datastore.Order{datastore.Desc("created_at")},
	}
	if limit > 0 {
		q.Limit = uint64(limit)
	}

	rows, err := r.store.Select(ctx, TableContactClicks, q)
	if err != nil {
		return nil, fmt.Errorf("failed to select contact clicks: %w", err)
	}

	clicks := make([]domain.ContactClick, 0, len(rows))
	for i, row := range rows {
		c, err := decodeContactClick(row)
		if err != nil {
			return nil, fmt.Errorf("failed to decode contact click row %d: %w", i, err)
		}
		clicks = append(clicks, c)
	}
	return clicks, nil
}
