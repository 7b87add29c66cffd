package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	"github.com/dalilfazara/dalil/pkg/csvexport"
)

//go:generate mockgen -destination mocks/mock_worker_repository.go -package mocks github.com/dalilfazara/dalil/internal/domain WorkerRepository

// PhoneLength and PhonePrefix describe an Egyptian mobile number
const (
	PhoneLength = 11
	PhonePrefix = "01"
)

// Worker is one directory listing
type Worker struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Job          string    `json:"job"`
	Location     string    `json:"location"`
	Phone        string    `json:"phone"`
	PhoneOther   *string   `json:"phone_other"`
	ProfileImage string    `json:"profile_image"`
	WorkImage    string    `json:"work_image"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListingName and ListingJob let the directory engine filter workers
func (w Worker) ListingName() string { return w.Name }
func (w Worker) ListingJob() string  { return w.Job }

// IsValidPhone reports whether phone is exactly 11 ASCII digits starting with 01
func IsValidPhone(phone string) bool {
	return len(phone) == PhoneLength &&
		strings.HasPrefix(phone, PhonePrefix) &&
		govalidator.IsNumeric(phone)
}

// NormalizePhone drops the separators people type between digit groups.
// Anything else is kept so IsValidPhone can reject it; the length is never
// adjusted.
func NormalizePhone(raw string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-', '.', '(', ')':
			return -1
		}
		return r
	}, raw)
}

// Validate checks a worker row read back from storage or about to be written
func (w *Worker) Validate() error {
	if w.ID != "" && !govalidator.IsUUID(w.ID) {
		return fmt.Errorf("invalid worker: id must be a uuid")
	}
	if strings.TrimSpace(w.Name) == "" {
		return fmt.Errorf("invalid worker: name is required")
	}
	if strings.TrimSpace(w.Job) == "" {
		return fmt.Errorf("invalid worker: job is required")
	}
	if strings.TrimSpace(w.Location) == "" {
		return fmt.Errorf("invalid worker: location is required")
	}
	if !IsValidPhone(w.Phone) {
		return fmt.Errorf("invalid worker: phone %q must be %d digits starting with %s", w.Phone, PhoneLength, PhonePrefix)
	}
	if w.PhoneOther != nil && *w.PhoneOther != "" && !IsValidPhone(*w.PhoneOther) {
		return fmt.Errorf("invalid worker: phone_other %q must be %d digits starting with %s", *w.PhoneOther, PhoneLength, PhonePrefix)
	}
	if w.ProfileImage != "" && !govalidator.IsURL(w.ProfileImage) {
		return fmt.Errorf("invalid worker: profile_image must be a URL")
	}
	if w.WorkImage != "" && !govalidator.IsURL(w.WorkImage) {
		return fmt.Errorf("invalid worker: work_image must be a URL")
	}
	return nil
}

// ExportRecord lays the worker out in the CSV export column order
func (w Worker) ExportRecord() csvexport.Record {
	return csvexport.Record{
		{Key: "id", Value: w.ID},
		{Key: "name", Value: w.Name},
		{Key: "job", Value: w.Job},
		{Key: "location", Value: w.Location},
		{Key: "phone", Value: w.Phone},
		{Key: "phone_other", Value: w.PhoneOther},
		{Key: "profile_image", Value: w.ProfileImage},
		{Key: "work_image", Value: w.WorkImage},
		{Key: "is_verified", Value: w.IsVerified},
		{Key: "created_at", Value: w.CreatedAt},
	}
}

// WorkerRepository reads and writes directory listings
type WorkerRepository interface {
	// List returns the valid workers, newest first
	List(ctx context.Context) ([]Worker, error)
	// ListAll returns every stored worker, newest first, valid or not
	ListAll(ctx context.Context) ([]Worker, error)
	// JobsByID returns the current job of each known worker id
	JobsByID(ctx context.Context, ids []string) (map[string]string, error)
	Create(ctx context.Context, worker *Worker) error
}
