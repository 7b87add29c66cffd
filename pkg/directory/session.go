package directory

import (
	"sync"
	"time"
)

// Session drives an Engine from interactive input. Name edits arrive as a
// stream and are debounced; a job selection is a discrete event and filters
// right away.
type Session[T Listing] struct {
	engine    *Engine[T]
	debouncer *Debouncer

	mu       sync.Mutex
	name     string
	job      string
	onChange func(results []T, c Criteria)
}

// NewSession wraps engine; delay <= 0 uses DefaultDebounce
func NewSession[T Listing](engine *Engine[T], delay time.Duration) *Session[T] {
	return &Session[T]{
		engine:    engine,
		debouncer: NewDebouncer(delay),
	}
}

// OnChange registers a callback invoked after every recomputation
func (s *Session[T]) OnChange(fn func(results []T, c Criteria)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// SetName records the name query and schedules a debounced refilter
func (s *Session[T]) SetName(name string) {
	s.mu.Lock()
	s.name = name
	s.mu.Unlock()
	s.debouncer.Trigger(s.apply)
}

// SetJob records the job selection and refilters immediately. A name edit
// still waiting for its quiet period is folded into this pass.
func (s *Session[T]) SetJob(job string) {
	s.mu.Lock()
	s.job = job
	s.mu.Unlock()
	s.debouncer.Stop()
	s.apply()
}

// Clear cancels pending work and resets both predicates
func (s *Session[T]) Clear() {
	s.debouncer.Stop()

	s.mu.Lock()
	s.name = ""
	s.job = ""
	cb := s.onChange
	s.mu.Unlock()

	results := s.engine.ClearFilters()
	if cb != nil {
		cb(results, Criteria{})
	}
}

// Flush applies a pending name edit now instead of waiting
func (s *Session[T]) Flush() {
	s.debouncer.Flush()
}

// Results returns the engine's current filtered view
func (s *Session[T]) Results() []T {
	return s.engine.Filtered()
}

// Close drops any pending recomputation
func (s *Session[T]) Close() {
	s.debouncer.Stop()
}

func (s *Session[T]) apply() {
	s.mu.Lock()
	name, job, cb := s.name, s.job, s.onChange
	s.mu.Unlock()

	results := s.engine.ApplyFilters(name, job)
	if cb != nil {
		cb(results, Criteria{Name: name, Job: job})
	}
}
