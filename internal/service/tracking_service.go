package service

import (
	"context"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	"github.com/dalilfazara/dalil/internal/domain"
	"github.com/dalilfazara/dalil/pkg/logger"
	"github.com/dalilfazara/dalil/pkg/tracing"
)

// TrackingService records page visits, presence and contact clicks. Every
// method is best effort: failures are logged and never reach the caller.
type TrackingService struct {
	repo    domain.TrackingRepository
	workers domain.WorkerRepository
	logger  logger.Logger
	now     func() time.Time
}

// Ensure TrackingService implements domain.TrackingService
var _ domain.TrackingService = (*TrackingService)(nil)

// NewTrackingService creates a new TrackingService
func NewTrackingService(repo domain.TrackingRepository, workers domain.WorkerRepository, logger logger.Logger) *TrackingService {
	return &TrackingService{
		repo:    repo,
		workers: workers,
		logger:  logger,
		now:     time.Now,
	}
}

// TrackPageVisit records a visit and refreshes the visitor's presence
func (s *TrackingService) TrackPageVisit(ctx context.Context, visitorID, pageURL string) {
	ctx, span := tracing.StartServiceSpan(ctx, "TrackingService", "TrackPageVisit")
	defer span.End()

	if visitorID == "" {
		s.logger.Warn("Ignoring page visit without visitor id")
		return
	}
	tracing.AddAttribute(ctx, "page_url", pageURL)

	visit := &domain.Visit{VisitorID: visitorID, PageURL: pageURL, CreatedAt: s.now().UTC()}
	if err := s.repo.InsertVisit(ctx, visit); err != nil {
		tracing.MarkSpanError(ctx, err)
		tracing.Count(ctx, tracing.VisitsRecorded, tracing.KeyOutcome, tracing.OutcomeError)
		s.logger.WithField("visitor_id", visitorID).WithField("error", err.Error()).Error("Failed to track page visit")
	} else {
		tracing.Count(ctx, tracing.VisitsRecorded, tracing.KeyOutcome, tracing.OutcomeOK)
	}

	s.UpdateActiveVisitor(ctx, visitorID, pageURL)
}

// UpdateActiveVisitor upserts the presence row keyed by visitor id
func (s *TrackingService) UpdateActiveVisitor(ctx context.Context, visitorID, pageURL string) {
	if visitorID == "" {
		return
	}

	presence := &domain.ActivePresence{VisitorID: visitorID, PageURL: pageURL, LastSeen: s.now().UTC()}
	if err := s.repo.UpsertPresence(ctx, presence); err != nil {
		s.logger.WithField("visitor_id", visitorID).WithField("error", err.Error()).Error("Failed to update active visitor")
	}
}

// TrackContactClick inserts exactly one click. The worker's current job is
// copied onto the row when it can be resolved.
func (s *TrackingService) TrackContactClick(ctx context.Context, visitorID string, req domain.ContactClickRequest) {
	ctx, span := tracing.StartServiceSpan(ctx, "TrackingService", "TrackContactClick")
	defer span.End()

	if visitorID == "" {
		s.logger.Warn("Ignoring contact click without visitor id")
		return
	}
	if err := req.Validate(); err != nil {
		s.logger.WithField("visitor_id", visitorID).WithField("error", err.Error()).Warn("Ignoring invalid contact click")
		return
	}

	click := &domain.ContactClick{
		VisitorID:   visitorID,
		WorkerName:  strings.TrimSpace(req.WorkerName),
		WorkerPhone: strings.TrimSpace(req.WorkerPhone),
		CreatedAt:   s.now().UTC(),
	}

	// ids that are not uuids cannot reference a worker row
	if id := strings.TrimSpace(req.WorkerID); govalidator.IsUUID(id) {
		click.WorkerID = &id
		click.WorkerJob = s.lookupJob(ctx, id)
	}
	tracing.AddAttribute(ctx, "worker_id", req.WorkerID)

	if err := s.repo.InsertContactClick(ctx, click); err != nil {
		tracing.MarkSpanError(ctx, err)
		tracing.Count(ctx, tracing.ContactClicks, tracing.KeyOutcome, tracing.OutcomeError)
		s.logger.WithFields(map[string]interface{}{
			"visitor_id": visitorID,
			"worker_id":  req.WorkerID,
			"error":      err.Error(),
		}).Error("Failed to track contact click")
		return
	}
	tracing.Count(ctx, tracing.ContactClicks, tracing.KeyOutcome, tracing.OutcomeOK)
}

func (s *TrackingService) lookupJob(ctx context.Context, workerID string) *string {
	jobs, err := s.workers.JobsByID(ctx, []string{workerID})
	if err != nil {
		s.logger.WithField("worker_id", workerID).WithField("error", err.Error()).Warn("Failed to resolve worker job")
		return nil
	}
	job, ok := jobs[workerID]
	if !ok || job == "" {
		return nil
	}
	return &job
}

// StopTracking drops the visitor's presence row when the page is left
func (s *TrackingService) StopTracking(ctx context.Context, visitorID string) {
	if visitorID == "" {
		return
	}
	if err := s.repo.DeletePresence(ctx, visitorID); err != nil {
		s.logger.WithField("visitor_id", visitorID).WithField("error", err.Error()).Warn("Failed to stop tracking visitor")
	}
}
