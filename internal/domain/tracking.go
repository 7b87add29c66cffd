package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

//go:generate mockgen -destination mocks/mock_tracking_repository.go -package mocks github.com/dalilfazara/dalil/internal/domain TrackingRepository
//go:generate mockgen -destination mocks/mock_tracking_service.go -package mocks github.com/dalilfazara/dalil/internal/domain TrackingService

// PresenceTTL is how long a presence row counts as "active now" after its
// last heartbeat
const PresenceTTL = 5 * time.Minute

// Visit is one recorded page load
type Visit struct {
	ID        string    `json:"id"`
	VisitorID string    `json:"visitor_id"`
	PageURL   string    `json:"page_url"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivePresence is the single presence row of a visitor
type ActivePresence struct {
	VisitorID string    `json:"visitor_id"`
	LastSeen  time.Time `json:"last_seen"`
	PageURL   string    `json:"page_url"`
}

// IsStale reports whether the presence is older than PresenceTTL at now
func (p ActivePresence) IsStale(now time.Time) bool {
	return p.LastSeen.Before(now.Add(-PresenceTTL))
}

// ContactClick records a visitor revealing or dialing a worker's phone.
// Name and phone are copied at click time so the row survives edits.
type ContactClick struct {
	ID          string    `json:"id"`
	VisitorID   string    `json:"visitor_id"`
	WorkerID    *string   `json:"worker_id"`
	WorkerName  string    `json:"worker_name"`
	WorkerPhone string    `json:"worker_phone"`
	WorkerJob   *string   `json:"worker_job"`
	CreatedAt   time.Time `json:"created_at"`
}

// ContactClickRequest is what the page sends on a contact action
type ContactClickRequest struct {
	WorkerID    string `json:"worker_id"`
	WorkerName  string `json:"worker_name"`
	WorkerPhone string `json:"worker_phone"`
}

// Validate requires enough to make the click meaningful in rankings
func (r *ContactClickRequest) Validate() error {
	if strings.TrimSpace(r.WorkerName) == "" && strings.TrimSpace(r.WorkerPhone) == "" {
		return NewValidationError("worker_name or worker_phone is required")
	}
	if len(r.WorkerName) > 255 {
		return NewValidationError("worker_name is too long")
	}
	if len(r.WorkerPhone) > 32 {
		return NewValidationError("worker_phone is too long")
	}
	return nil
}

// PageVisitRequest is what the page sends on load and on heartbeat
type PageVisitRequest struct {
	PageURL string `json:"page_url"`
}

// Validate bounds the recorded path
func (r *PageVisitRequest) Validate() error {
	if len(r.PageURL) > 2048 {
		return fmt.Errorf("page_url is too long")
	}
	return nil
}

// TrackingRepository persists visits, presence and contact clicks
type TrackingRepository interface {
	InsertVisit(ctx context.Context, visit *Visit) error
	UpsertPresence(ctx context.Context, presence *ActivePresence) error
	DeletePresence(ctx context.Context, visitorID string) error
	PurgeStalePresence(ctx context.Context, before time.Time) error
	InsertContactClick(ctx context.Context, click *ContactClick) error

	CountVisits(ctx context.Context) (int64, error)
	CountActivePresence(ctx context.Context, since time.Time) (int64, error)
	CountContactClicks(ctx context.Context) (int64, error)
	// VisitorIDs returns the visitor id of every visit row
	VisitorIDs(ctx context.Context) ([]string, error)
	// VisitTimes returns created_at of visits at or after since, ascending
	VisitTimes(ctx context.Context, since time.Time) ([]time.Time, error)
	// ContactClicks returns clicks newest first, at most limit rows when limit > 0
	ContactClicks(ctx context.Context, limit int) ([]ContactClick, error)
}

// TrackingService records visitor activity. Its methods never fail the caller:
// storage errors are logged and dropped.
type TrackingService interface {
	TrackPageVisit(ctx context.Context, visitorID, pageURL string)
	UpdateActiveVisitor(ctx context.Context, visitorID, pageURL string)
	TrackContactClick(ctx context.Context, visitorID string, req ContactClickRequest)
	StopTracking(ctx context.Context, visitorID string)
}
