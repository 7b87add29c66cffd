package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dalilfazara/dalil/internal/domain"
	"github.com/dalilfazara/dalil/pkg/datastore"
	"github.com/dalilfazara/dalil/pkg/logger"
)

// Table names
const (
	TableWorkers        = "workers"
	TableVisits         = "visits"
	TableActiveVisitors = "active_visitors"
	TableContactClicks  = "contact_clicks"
)

// WorkerRepository implements domain.WorkerRepository on a datastore.Store
type WorkerRepository struct {
	store  datastore.Store
	logger logger.Logger
	now    func() time.Time
}

// NewWorkerRepository creates a new WorkerRepository
func NewWorkerRepository(store datastore.Store, logger logger.Logger) domain.WorkerRepository {
	return &WorkerRepository{store: store, logger: logger, now: time.Now}
}

// decodeWorker converts a row into a Worker, checking every column type
func decodeWorker(rec datastore.Record) (domain.Worker, error) {
	var (
		w   domain.Worker
		err error
	)
	if w.ID, err = rec.String("id"); err != nil {
		return w, err
	}
	if w.Name, err = rec.String("name"); err != nil {
		return w, err
	}
	if w.Job, err = rec.String("job"); err != nil {
		return w, err
	}
	if w.Location, err = rec.String("location"); err != nil {
		return w, err
	}
	if w.Phone, err = rec.String("phone"); err != nil {
		return w, err
	}
	if w.PhoneOther, err = rec.NullableString("phone_other"); err != nil {
		return w, err
	}
	if w.ProfileImage, err = rec.String("profile_image"); err != nil {
		return w, err
	}
	if w.WorkImage, err = rec.String("work_image"); err != nil {
		return w, err
	}
	if w.IsVerified, err = rec.Bool("is_verified"); err != nil {
		return w, err
	}
	if w.CreatedAt, err = rec.Time("created_at"); err != nil {
		return w, err
	}
	return w, nil
}

func encodeWorker(w *domain.Worker) datastore.Record {
	rec := datastore.Record{
		"id":            w.ID,
		"name":          w.Name,
		"job":           w.Job,
		"location":      w.Location,
		"phone":         w.Phone,
		"profile_image": w.ProfileImage,
		"work_image":    w.WorkImage,
		"is_verified":   w.IsVerified,
		"created_at":    w.CreatedAt,
	}
	if w.PhoneOther != nil {
		rec["phone_other"] = *w.PhoneOther
	} else {
		rec["phone_other"] = nil
	}
	return rec
}

// List returns the workers fit for the public listing, newest first. Rows
// that do not decode fail the call; rows that decode but break
// Worker.Validate are logged and left out.
func (r *WorkerRepository) List(ctx context.Context) ([]domain.Worker, error) {
	rows, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	workers := make([]domain.Worker, 0, len(rows))
	for i, w := range rows {
		if err := w.Validate(); err != nil {
			r.logger.WithField("row", i).
				WithField("worker_id", w.ID).
				WithField("error", err.Error()).
				Warn("Skipping invalid worker row")
			continue
		}
		workers = append(workers, w)
	}
	return workers, nil
}

// ListAll returns every decodable worker row, newest first, including rows
// that break Worker.Validate. The CSV export reads through it.
func (r *WorkerRepository) ListAll(ctx context.Context) ([]domain.Worker, error) {
	rows, err := r.store.Select(ctx, TableWorkers, datastore.Query{
		Order: []datastore.Order{datastore.Desc("created_at")},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}

	workers := make([]domain.Worker, 0, len(rows))
	for i, row := range rows {
		w, err := decodeWorker(row)
		if err != nil {
			return nil, fmt.Errorf("failed to decode worker row %d: %w", i, err)
		}
		workers = append(workers, w)
	}
	return workers, nil
}

// JobsByID returns the job of each id that exists
func (r *WorkerRepository) JobsByID(ctx context.Context, ids []string) (map[string]string, error) {
	jobs := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return jobs, nil
	}

	values := make([]interface{}, len(ids))
	for i, id := range ids {
		values[i] = id
	}

	rows, err := r.store.Select(ctx, TableWorkers, datastore.Query{
		Columns: []string{"id", "job"},
		Filters: []datastore.Condition{datastore.In("id", values...)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get worker jobs: %w", err)
	}

	for _, row := range rows {
		id, err := row.String("id")
		if err != nil {
			return nil, err
		}
		job, err := row.String("job")
		if err != nil {
			return nil, err
		}
		jobs[id] = job
	}
	return jobs, nil
}

// Create validates and inserts a worker, filling ID and CreatedAt
func (r *WorkerRepository) Create(ctx context.Context, worker *domain.Worker) error {
	if worker.ID == "" {
		worker.ID = uuid.New().String()
	}
	if worker.CreatedAt.IsZero() {
		worker.CreatedAt = r.now().UTC()
	}

	if err := worker.Validate(); err != nil {
		return domain.NewValidationError(err.Error())
	}

	if err := r.store.Insert(ctx, TableWorkers, encodeWorker(worker)); err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}
	return nil
}
