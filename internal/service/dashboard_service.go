package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dalilfazara/dalil/internal/domain"
	"github.com/dalilfazara/dalil/pkg/aggregate"
	"github.com/dalilfazara/dalil/pkg/logger"
	"github.com/dalilfazara/dalil/pkg/tracing"
)

// DashboardConfig tunes bucketing and ranking sizes
type DashboardConfig struct {
	Location       *time.Location
	Locale         string
	StaleAfter     time.Duration
	TopContacts    int
	RecentContacts int
}

// DashboardService computes the admin dashboard from tracking rows
type DashboardService struct {
	tracking  domain.TrackingRepository
	workers   domain.WorkerRepository
	snapshots domain.SnapshotStore
	cfg       DashboardConfig
	logger    logger.Logger
	now       func() time.Time
}

// Ensure DashboardService implements domain.DashboardService
var _ domain.DashboardService = (*DashboardService)(nil)

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	tracking domain.TrackingRepository,
	workers domain.WorkerRepository,
	snapshots domain.SnapshotStore,
	cfg DashboardConfig,
	logger logger.Logger,
) *DashboardService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = domain.PresenceTTL
	}
	if cfg.TopContacts <= 0 {
		cfg.TopContacts = aggregate.DefaultTopContacts
	}
	if cfg.RecentContacts <= 0 {
		cfg.RecentContacts = aggregate.DefaultRecentContacts
	}

	return &DashboardService{
		tracking:  tracking,
		workers:   workers,
		snapshots: snapshots,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Stats purges stale presence first so "active now" never counts visitors
// whose last heartbeat is older than the staleness window
func (s *DashboardService) Stats(ctx context.Context) (domain.Stats, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "DashboardService", "Stats")
	defer span.End()

	cutoff := s.now().Add(-s.cfg.StaleAfter)
	if err := s.tracking.PurgeStalePresence(ctx, cutoff); err != nil {
		s.logger.WithField("error", err.Error()).Warn("Failed to purge stale presence")
	}

	var stats domain.Stats
	var err error

	if stats.TotalVisits, err = s.tracking.CountVisits(ctx); err != nil {
		tracing.MarkSpanError(ctx, err)
		return domain.Stats{}, err
	}

	ids, err := s.tracking.VisitorIDs(ctx)
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return domain.Stats{}, err
	}
	unique := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	stats.UniqueVisitors = int64(len(unique))

	if stats.ActiveNow, err = s.tracking.CountActivePresence(ctx, cutoff); err != nil {
		tracing.MarkSpanError(ctx, err)
		return domain.Stats{}, err
	}

	if stats.ContactClicks, err = s.tracking.CountContactClicks(ctx); err != nil {
		tracing.MarkSpanError(ctx, err)
		return domain.Stats{}, err
	}

	return stats, nil
}

// DailyVisits buckets the last seven calendar days
func (s *DashboardService) DailyVisits(ctx context.Context) (aggregate.Series, error) {
	now := s.now()
	times, err := s.tracking.VisitTimes(ctx, now.AddDate(0, 0, -aggregate.DailyWindow))
	if err != nil {
		return s.emptyDaily(now), err
	}
	return aggregate.Daily(times, now, s.cfg.Location, aggregate.LabelerFor(s.cfg.Locale)), nil
}

func (s *DashboardService) emptyDaily(now time.Time) aggregate.Series {
	return aggregate.Daily(nil, now, s.cfg.Location, aggregate.LabelerFor(s.cfg.Locale))
}

// HourlyVisits buckets the trailing 24 hours in 3 hour slots
func (s *DashboardService) HourlyVisits(ctx context.Context) (aggregate.Series, error) {
	now := s.now()
	times, err := s.tracking.VisitTimes(ctx, now.Add(-24*time.Hour))
	if err != nil {
		return aggregate.Hourly(nil, now, s.cfg.Location), err
	}
	return aggregate.Hourly(times, now, s.cfg.Location), nil
}

// TopContacts ranks workers by contact clicks. The job comes from the value
// copied at click time, then from the worker's current row.
func (s *DashboardService) TopContacts(ctx context.Context) ([]aggregate.TopContact, error) {
	rows, err := s.tracking.ContactClicks(ctx, 0)
	if err != nil {
		return []aggregate.TopContact{}, err
	}

	clicks := toClicks(rows)
	s.fillJobs(ctx, clicks)
	return aggregate.TopContacts(clicks, s.cfg.TopContacts), nil
}

// RecentContacts lists the newest clicks without grouping
func (s *DashboardService) RecentContacts(ctx context.Context) ([]aggregate.Click, error) {
	rows, err := s.tracking.ContactClicks(ctx, s.cfg.RecentContacts)
	if err != nil {
		return []aggregate.Click{}, err
	}
	return aggregate.RecentContacts(toClicks(rows), s.cfg.RecentContacts), nil
}

func toClicks(rows []domain.ContactClick) []aggregate.Click {
	clicks := make([]aggregate.Click, len(rows))
	for i, r := range rows {
		c := aggregate.Click{
			ID:          r.ID,
			VisitorID:   r.VisitorID,
			WorkerName:  r.WorkerName,
			WorkerPhone: r.WorkerPhone,
			CreatedAt:   r.CreatedAt,
		}
		if r.WorkerID != nil {
			c.WorkerID = *r.WorkerID
		}
		if r.WorkerJob != nil {
			c.Job = *r.WorkerJob
		}
		clicks[i] = c
	}
	return clicks
}

// fillJobs resolves missing jobs from the workers table. A failed lookup
// leaves them empty so the ranking shows the unavailable sentinel.
func (s *DashboardService) fillJobs(ctx context.Context, clicks []aggregate.Click) {
	seen := map[string]bool{}
	var ids []string
	for _, c := range clicks {
		if c.Job == "" && c.WorkerID != "" && !seen[c.WorkerID] {
			seen[c.WorkerID] = true
			ids = append(ids, c.WorkerID)
		}
	}
	if len(ids) == 0 {
		return
	}

	jobs, err := s.workers.JobsByID(ctx, ids)
	if err != nil {
		s.logger.WithField("error", err.Error()).Warn("Failed to resolve contact jobs")
		return
	}
	for i := range clicks {
		if clicks[i].Job == "" {
			clicks[i].Job = jobs[clicks[i].WorkerID]
		}
	}
}

// sectionResults collects per section errors from concurrent fetches
type sectionResults struct {
	mu     sync.Mutex
	errors map[string]string
}

func (r *sectionResults) fail(ctx context.Context, section string, err error) {
	tracing.Count(ctx, tracing.DashboardSectionErrs, tracing.KeySection, section)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors[section] = err.Error()
}

// Refresh loads every section concurrently. A failing section keeps its
// empty value and reports its message without affecting the others.
func (s *DashboardService) Refresh(ctx context.Context) *domain.Snapshot {
	ctx, span := tracing.StartServiceSpan(ctx, "DashboardService", "Refresh")
	defer span.End()

	snap := &domain.Snapshot{
		Daily:          s.emptyDaily(s.now()),
		Hourly:         aggregate.Hourly(nil, s.now(), s.cfg.Location),
		TopContacts:    []aggregate.TopContact{},
		RecentContacts: []aggregate.Click{},
	}
	results := &sectionResults{errors: map[string]string{}}

	var g errgroup.Group
	g.Go(func() error {
		stats, err := s.Stats(ctx)
		if err != nil {
			results.fail(ctx, domain.SectionStats, err)
			return nil
		}
		snap.Stats = stats
		return nil
	})
	g.Go(func() error {
		daily, err := s.DailyVisits(ctx)
		if err != nil {
			results.fail(ctx, domain.SectionDaily, err)
			return nil
		}
		snap.Daily = daily
		return nil
	})
	g.Go(func() error {
		hourly, err := s.HourlyVisits(ctx)
		if err != nil {
			results.fail(ctx, domain.SectionHourly, err)
			return nil
		}
		snap.Hourly = hourly
		return nil
	})
	g.Go(func() error {
		top, err := s.TopContacts(ctx)
		if err != nil {
			results.fail(ctx, domain.SectionTopContacts, err)
			return nil
		}
		snap.TopContacts = top
		return nil
	})
	g.Go(func() error {
		recent, err := s.RecentContacts(ctx)
		if err != nil {
			results.fail(ctx, domain.SectionRecentContacts, err)
			return nil
		}
		snap.RecentContacts = recent
		return nil
	})
	_ = g.Wait()

	snap.GeneratedAt = s.now().UTC()
	s.finish(ctx, snap, results.errors)
	return snap
}

// RefreshLight reloads stats and recent contacts into the cached snapshot.
// Without a cached snapshot it falls back to a full refresh.
func (s *DashboardService) RefreshLight(ctx context.Context) *domain.Snapshot {
	ctx, span := tracing.StartServiceSpan(ctx, "DashboardService", "RefreshLight")
	defer span.End()

	prev, ok := s.cached(ctx)
	if !ok {
		return s.Refresh(ctx)
	}

	snap := *prev
	errs := map[string]string{}
	for k, v := range prev.Errors {
		if k != domain.SectionStats && k != domain.SectionRecentContacts {
			errs[k] = v
		}
	}
	results := &sectionResults{errors: errs}

	var g errgroup.Group
	g.Go(func() error {
		stats, err := s.Stats(ctx)
		if err != nil {
			results.fail(ctx, domain.SectionStats, err)
			return nil
		}
		snap.Stats = stats
		return nil
	})
	g.Go(func() error {
		recent, err := s.RecentContacts(ctx)
		if err != nil {
			results.fail(ctx, domain.SectionRecentContacts, err)
			return nil
		}
		snap.RecentContacts = recent
		return nil
	})
	_ = g.Wait()

	snap.GeneratedAt = s.now().UTC()
	s.finish(ctx, &snap, results.errors)
	return &snap
}

// Latest returns the cached snapshot, refreshing when none is cached
func (s *DashboardService) Latest(ctx context.Context) *domain.Snapshot {
	if snap, ok := s.cached(ctx); ok {
		return snap
	}
	return s.Refresh(ctx)
}

func (s *DashboardService) cached(ctx context.Context) (*domain.Snapshot, bool) {
	snap, ok, err := s.snapshots.Get(ctx)
	if err != nil {
		s.logger.WithField("error", err.Error()).Warn("Failed to read cached dashboard snapshot")
		return nil, false
	}
	return snap, ok
}

func (s *DashboardService) finish(ctx context.Context, snap *domain.Snapshot, errs map[string]string) {
	snap.Errors = nil
	if len(errs) > 0 {
		snap.Errors = errs
		tracing.AddAttribute(ctx, "failed_sections", len(errs))
		s.logger.WithField("errors", errs).Warn("Dashboard refreshed with failed sections")
	}

	if err := s.snapshots.Set(ctx, snap); err != nil {
		s.logger.WithField("error", err.Error()).Error("Failed to store dashboard snapshot")
	}
}
