package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dalilfazara/dalil/internal/domain"
	"github.com/dalilfazara/dalil/pkg/blobstore"
	"github.com/dalilfazara/dalil/pkg/cache"
	"github.com/dalilfazara/dalil/pkg/csvexport"
	"github.com/dalilfazara/dalil/pkg/directory"
	"github.com/dalilfazara/dalil/pkg/logger"
	"github.com/dalilfazara/dalil/pkg/tracing"
)

// workersCacheKey marks the directory engine as loaded until its TTL expires
const workersCacheKey = "dalil:workers"

// DefaultWorkersTTL bounds how stale the public listing can get
const DefaultWorkersTTL = time.Minute

// DefaultImagesBucket is the storage bucket holding worker photos
const DefaultImagesBucket = "users-images"

// DirectoryConfig tunes the directory service
type DirectoryConfig struct {
	ImagesBucket  string
	MaxImageBytes int64
	WorkersTTL    time.Duration
	// ReloadDelay coalesces reloads triggered by bursts of registrations
	ReloadDelay time.Duration
}

// DirectoryService serves the public listing from an in-memory engine and
// handles registrations
type DirectoryService struct {
	workers  domain.WorkerRepository
	blobs    blobstore.Store
	cache    cache.Cache
	engine   *directory.Engine[domain.Worker]
	reloader *directory.Debouncer
	cfg      DirectoryConfig
	logger   logger.Logger
	now      func() time.Time
}

// Ensure DirectoryService implements domain.DirectoryService
var _ domain.DirectoryService = (*DirectoryService)(nil)

// NewDirectoryService creates a new DirectoryService
func NewDirectoryService(
	workers domain.WorkerRepository,
	blobs blobstore.Store,
	c cache.Cache,
	cfg DirectoryConfig,
	logger logger.Logger,
) *DirectoryService {
	if cfg.ImagesBucket == "" {
		cfg.ImagesBucket = DefaultImagesBucket
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = domain.DefaultMaxImageBytes
	}
	if cfg.WorkersTTL <= 0 {
		cfg.WorkersTTL = DefaultWorkersTTL
	}

	return &DirectoryService{
		workers:  workers,
		blobs:    blobs,
		cache:    c,
		engine:   directory.NewEngine[domain.Worker](nil),
		reloader: directory.NewDebouncer(cfg.ReloadDelay),
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// ensureLoaded fetches workers into the engine once per TTL window
func (s *DirectoryService) ensureLoaded(ctx context.Context) error {
	_, err := s.cache.GetOrSet(workersCacheKey, s.cfg.WorkersTTL, func() (interface{}, error) {
		workers, err := s.workers.List(ctx)
		if err != nil {
			return nil, err
		}
		s.engine.SetRecords(workers)
		return len(workers), nil
	})
	return err
}

// Reload refetches workers regardless of the cache state
func (s *DirectoryService) Reload(ctx context.Context) error {
	s.cache.Delete(workersCacheKey)
	if err := s.ensureLoaded(ctx); err != nil {
		s.logger.WithField("error", err.Error()).Error("Failed to reload workers")
		return err
	}
	return nil
}

// ListWorkers filters the directory by name substring and exact job
func (s *DirectoryService) ListWorkers(ctx context.Context, req domain.ListWorkersRequest) (*domain.ListWorkersResponse, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "DirectoryService", "ListWorkers")
	defer span.End()

	if err := s.ensureLoaded(ctx); err != nil {
		tracing.MarkSpanError(ctx, err)
		s.logger.WithField("error", err.Error()).Error("Failed to load workers")
		return nil, err
	}

	workers := s.engine.Query(directory.Criteria{Name: req.Name, Job: req.Job})
	tracing.AddAttribute(ctx, "results", len(workers))

	return &domain.ListWorkersResponse{
		Workers: workers,
		Jobs:    s.engine.JobCategories(),
		Total:   len(workers),
	}, nil
}

// JobCategories returns the distinct jobs of the loaded workers
func (s *DirectoryService) JobCategories(ctx context.Context) ([]string, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		s.logger.WithField("error", err.Error()).Error("Failed to load workers")
		return nil, err
	}
	return s.engine.JobCategories(), nil
}

// Register validates the form, uploads both images concurrently and inserts
// the worker. Nothing is uploaded when validation fails.
func (s *DirectoryService) Register(ctx context.Context, req *domain.RegisterWorkerRequest) (*domain.Worker, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "DirectoryService", "Register")
	defer span.End()

	req.Normalize()
	if err := req.Validate(s.cfg.MaxImageBytes); err != nil {
		tracing.MarkSpanError(ctx, err)
		tracing.Count(ctx, tracing.Registrations, tracing.KeyOutcome, tracing.OutcomeInvalid)
		return nil, err
	}

	var profileURL, workURL string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		url, err := s.upload(gctx, domain.ProfileFolder, req.ProfileImage)
		profileURL = url
		return err
	})
	g.Go(func() error {
		url, err := s.upload(gctx, domain.WorkFolder, req.WorkImage)
		workURL = url
		return err
	})
	if err := g.Wait(); err != nil {
		tracing.MarkSpanError(ctx, err)
		tracing.Count(ctx, tracing.Registrations, tracing.KeyOutcome, tracing.OutcomeError)
		s.logger.WithField("error", err.Error()).Error("Failed to upload registration images")
		return nil, err
	}

	worker := req.ToWorker(profileURL, workURL)
	if err := s.workers.Create(ctx, worker); err != nil {
		tracing.MarkSpanError(ctx, err)
		tracing.Count(ctx, tracing.Registrations, tracing.KeyOutcome, tracing.OutcomeError)
		s.logger.WithField("error", err.Error()).Error("Failed to create worker")
		return nil, err
	}

	tracing.Count(ctx, tracing.Registrations, tracing.KeyOutcome, tracing.OutcomeOK)
	s.logger.WithField("worker_id", worker.ID).WithField("job", worker.Job).Info("Worker registered")
	s.scheduleReload()
	return worker, nil
}

func (s *DirectoryService) upload(ctx context.Context, folder string, img *domain.ImageUpload) (string, error) {
	ext := blobstore.Extension(img.Filename, img.ContentType)
	path := blobstore.ObjectPath(folder, ext, s.now())

	url, err := s.blobs.UploadBlob(ctx, s.cfg.ImagesBucket, path, img.Data, img.ContentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s image: %w", folder, err)
	}
	return url, nil
}

// scheduleReload coalesces registrations into a single refetch
func (s *DirectoryService) scheduleReload() {
	s.reloader.Trigger(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = s.Reload(ctx)
	})
}

// FlushReload runs a pending reload now
func (s *DirectoryService) FlushReload() bool {
	return s.reloader.Flush()
}

// Close drops any pending reload
func (s *DirectoryService) Close() {
	s.reloader.Stop()
}

// ExportCSV renders every stored worker, newest first. Rows the listing
// hides as invalid are still exported.
func (s *DirectoryService) ExportCSV(ctx context.Context) (string, string, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "DirectoryService", "ExportCSV")
	defer span.End()

	workers, err := s.workers.ListAll(ctx)
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		s.logger.WithField("error", err.Error()).Error("Failed to list workers for export")
		return "", "", err
	}

	return csvexport.Encode(csvexport.Records(workers)), csvexport.Filename(s.now()), nil
}
