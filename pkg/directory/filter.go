// Package directory holds the in-memory worker directory: the full fetched
// list, the derived job categories and the filtered view built from a name
// query and a job selection.
package directory

import (
	"sort"
	"strings"
	"sync"
)

// Listing is anything the directory can filter
type Listing interface {
	ListingName() string
	ListingJob() string
}

// Criteria is the pair of predicates applied to the directory. An empty
// field matches every listing.
type Criteria struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

// IsZero reports whether both predicates are unset
func (c Criteria) IsZero() bool {
	return strings.TrimSpace(c.Name) == "" && c.Job == ""
}

// Matches applies both predicates to a single listing
func (c Criteria) Matches(l Listing) bool {
	if q := strings.ToLower(strings.TrimSpace(c.Name)); q != "" {
		if !strings.Contains(strings.ToLower(l.ListingName()), q) {
			return false
		}
	}
	if c.Job != "" && l.ListingJob() != c.Job {
		return false
	}
	return true
}

// ApplyFilters returns the listings matching name and job in their original
// relative order. The input slice is never modified.
func ApplyFilters[T Listing](records []T, name, job string) []T {
	c := Criteria{Name: name, Job: job}
	out := make([]T, 0, len(records))
	for _, r := range records {
		if c.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// DeriveJobCategories returns each non-empty job exactly once, sorted ascending
func DeriveJobCategories[T Listing](records []T) []string {
	seen := make(map[string]struct{}, len(records))
	jobs := make([]string, 0)
	for _, r := range records {
		job := r.ListingJob()
		if job == "" {
			continue
		}
		if _, ok := seen[job]; ok {
			continue
		}
		seen[job] = struct{}{}
		jobs = append(jobs, job)
	}
	sort.Strings(jobs)
	return jobs
}

// Engine owns the directory state for one consumer. SetRecords is called
// once per fetch cycle; filter calls derive the view from it. Concurrent
// writers are allowed and the last one wins.
type Engine[T Listing] struct {
	mu       sync.RWMutex
	all      []T
	filtered []T
	jobs     []string
	criteria Criteria
}

// NewEngine returns an engine seeded with records and no active filter
func NewEngine[T Listing](records []T) *Engine[T] {
	e := &Engine[T]{}
	e.SetRecords(records)
	return e
}

// SetRecords replaces the full list, recomputes the job categories and
// re-applies the current criteria
func (e *Engine[T]) SetRecords(records []T) {
	all := make([]T, len(records))
	copy(all, records)
	jobs := DeriveJobCategories(all)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.all = all
	e.jobs = jobs
	e.filtered = ApplyFilters(all, e.criteria.Name, e.criteria.Job)
}

// ApplyFilters stores the criteria and returns the new filtered view
func (e *Engine[T]) ApplyFilters(name, job string) []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.criteria = Criteria{Name: name, Job: job}
	e.filtered = ApplyFilters(e.all, name, job)
	return e.snapshot(e.filtered)
}

// ClearFilters resets both predicates and restores the full list
func (e *Engine[T]) ClearFilters() []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.criteria = Criteria{}
	e.filtered = e.all
	return e.snapshot(e.filtered)
}

// Filtered returns the current filtered view
func (e *Engine[T]) Filtered() []T {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot(e.filtered)
}

// All returns the full list as last set
func (e *Engine[T]) All() []T {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot(e.all)
}

// JobCategories returns the categories derived from the full list
func (e *Engine[T]) JobCategories() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, len(e.jobs))
	copy(out, e.jobs)
	return out
}

// Criteria returns the predicates currently applied
func (e *Engine[T]) Criteria() Criteria {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.criteria
}

// Query filters the full list without touching the stored criteria, for
// stateless callers such as HTTP handlers sharing one engine
func (e *Engine[T]) Query(c Criteria) []T {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return ApplyFilters(e.all, c.Name, c.Job)
}

func (e *Engine[T]) snapshot(src []T) []T {
	out := make([]T, len(src))
	copy(out, src)
	return out
}
