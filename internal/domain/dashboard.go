package domain

import (
	"context"
	"time"

	"github.com/dalilfazara/dalil/pkg/aggregate"
)

//go:generate mockgen -destination mocks/mock_dashboard_service.go -package mocks github.com/dalilfazara/dalil/internal/domain DashboardService
//go:generate mockgen -destination mocks/mock_snapshot_store.go -package mocks github.com/dalilfazara/dalil/internal/domain SnapshotStore

// Dashboard sections, also used as keys of Snapshot.Errors
const (
	SectionStats          = "stats"
	SectionDaily          = "daily"
	SectionHourly         = "hourly"
	SectionTopContacts    = "top_contacts"
	SectionRecentContacts = "recent_contacts"
)

// Stats are the four headline counters
type Stats struct {
	TotalVisits    int64 `json:"total_visits"`
	UniqueVisitors int64 `json:"unique_visitors"`
	ActiveNow      int64 `json:"active_now"`
	ContactClicks  int64 `json:"contact_clicks"`
}

// Snapshot is everything the dashboard renders. A section that failed to
// load holds its zero value and its error message in Errors.
type Snapshot struct {
	Stats          Stats                  `json:"stats"`
	Daily          aggregate.Series       `json:"daily"`
	Hourly         aggregate.Series       `json:"hourly"`
	TopContacts    []aggregate.TopContact `json:"top_contacts"`
	RecentContacts []aggregate.Click      `json:"recent_contacts"`
	GeneratedAt    time.Time              `json:"generated_at"`
	Errors         map[string]string      `json:"errors,omitempty"`
}

// DashboardService computes the dashboard sections
type DashboardService interface {
	Stats(ctx context.Context) (Stats, error)
	DailyVisits(ctx context.Context) (aggregate.Series, error)
	HourlyVisits(ctx context.Context) (aggregate.Series, error)
	TopContacts(ctx context.Context) ([]aggregate.TopContact, error)
	RecentContacts(ctx context.Context) ([]aggregate.Click, error)
	// Refresh loads every section concurrently
	Refresh(ctx context.Context) *Snapshot
	// RefreshLight reloads stats and recent contacts into the cached snapshot
	RefreshLight(ctx context.Context) *Snapshot
	// Latest returns the cached snapshot, refreshing when none is cached
	Latest(ctx context.Context) *Snapshot
}

// SnapshotStore caches the latest dashboard snapshot
type SnapshotStore interface {
	Get(ctx context.Context) (*Snapshot, bool, error)
	Set(ctx context.Context, snap *Snapshot) error
}
