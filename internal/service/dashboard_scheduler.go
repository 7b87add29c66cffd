package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dalilfazara/dalil/internal/domain"
	"github.com/dalilfazara/dalil/pkg/logger"
	"github.com/dalilfazara/dalil/pkg/tracing"
)

// DefaultRefreshSchedule runs the light dashboard refresh once a minute
const DefaultRefreshSchedule = "@every 60s"

// DashboardScheduler keeps the cached dashboard snapshot warm
type DashboardScheduler struct {
	dashboard domain.DashboardService
	logger    logger.Logger
	schedule  string
	timeout   time.Duration
	cron      *cron.Cron
	entry     cron.EntryID
	mu        sync.Mutex
	running   bool
}

// NewDashboardScheduler creates a scheduler running RefreshLight on schedule
func NewDashboardScheduler(dashboard domain.DashboardService, schedule string, logger logger.Logger) *DashboardScheduler {
	if schedule == "" {
		schedule = DefaultRefreshSchedule
	}
	return &DashboardScheduler{
		dashboard: dashboard,
		logger:    logger,
		schedule:  schedule,
		timeout:   30 * time.Second,
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

// Start registers the refresh job and starts the cron loop
func (s *DashboardScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Warn("Dashboard scheduler already running")
		return nil
	}

	entry, err := s.cron.AddFunc(s.schedule, s.RunOnce)
	if err != nil {
		return fmt.Errorf("invalid dashboard refresh schedule %q: %w", s.schedule, err)
	}
	s.entry = entry
	s.cron.Start()
	s.running = true

	s.logger.WithField("schedule", s.schedule).Info("Dashboard scheduler started")
	return nil
}

// Stop halts the cron loop, drops the refresh job so a later Start registers
// it once, and waits for a running refresh to finish
func (s *DashboardScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cron.Remove(s.entry)
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info("Dashboard scheduler stopped")
}

// RunOnce performs a single light refresh
func (s *DashboardScheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	ctx, span := tracing.StartServiceSpan(ctx, "DashboardScheduler", "RunOnce")
	defer tracing.EndSpan(span, nil)

	snap := s.dashboard.RefreshLight(ctx)
	if snap == nil {
		return
	}
	s.logger.WithFields(map[string]interface{}{
		"active_now":     snap.Stats.ActiveNow,
		"failed_section": len(snap.Errors),
	}).Debug("Dashboard snapshot refreshed")
}
