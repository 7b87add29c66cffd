// Package ratelimiter is a sliding window limiter keyed by namespace and
// caller, used to cap contact clicks per visitor and registrations per IP.
package ratelimiter

import (
	"strings"
	"sync"
	"time"
)

// Namespaces used by the HTTP layer
const (
	NamespaceContact  = "contact"
	NamespaceRegister = "register"
)

// Policy allows Max attempts per Window
type Policy struct {
	Max    int
	Window time.Duration
}

// Decision is the outcome of one Allow call
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter tracks attempt times per "namespace:key". Namespaces without a
// policy deny every request.
type RateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	policies map[string]Policy
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// Option configures a RateLimiter
type Option func(*RateLimiter)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(rl *RateLimiter) {
		rl.now = now
	}
}

// WithSweepInterval starts a goroutine dropping idle keys every interval
func WithSweepInterval(interval time.Duration) Option {
	return func(rl *RateLimiter) {
		if interval > 0 {
			go rl.sweepLoop(interval)
		}
	}
}

// NewRateLimiter creates a limiter without policies
func NewRateLimiter(opts ...Option) *RateLimiter {
	rl := &RateLimiter{
		attempts: make(map[string][]time.Time),
		policies: make(map[string]Policy),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// SetPolicy configures namespace. max <= 0 disables the namespace entirely.
func (rl *RateLimiter) SetPolicy(namespace string, max int, window time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.policies[namespace] = Policy{Max: max, Window: window}
}

// Enforces reports whether namespace has an enabled policy
func (rl *RateLimiter) Enforces(namespace string) bool {
	if rl == nil {
		return false
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	p, ok := rl.policies[namespace]
	return ok && p.Max > 0
}

func compositeKey(namespace, key string) string {
	return namespace + ":" + key
}

// live drops attempts outside the window. Caller holds mu.
func (rl *RateLimiter) live(ck string, p Policy, now time.Time) []time.Time {
	cutoff := now.Add(-p.Window)
	kept := rl.attempts[ck][:0]
	for _, t := range rl.attempts[ck] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(rl.attempts, ck)
		return nil
	}
	rl.attempts[ck] = kept
	return kept
}

// Check records an attempt for key when it fits in the window
func (rl *RateLimiter) Check(namespace, key string) Decision {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	p, ok := rl.policies[namespace]
	if !ok || p.Max <= 0 {
		return Decision{}
	}

	now := rl.now()
	ck := compositeKey(namespace, key)
	attempts := rl.live(ck, p, now)

	if len(attempts) >= p.Max {
		return Decision{RetryAfter: attempts[0].Add(p.Window).Sub(now)}
	}

	rl.attempts[ck] = append(attempts, now)
	return Decision{Allowed: true, Remaining: p.Max - len(attempts) - 1}
}

// Allow is Check reduced to its verdict
func (rl *RateLimiter) Allow(namespace, key string) bool {
	return rl.Check(namespace, key).Allowed
}

// Exhausted reports whether key has no attempt left in the window, without
// recording one
func (rl *RateLimiter) Exhausted(namespace, key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	p, ok := rl.policies[namespace]
	if !ok || p.Max <= 0 {
		return true
	}
	return len(rl.live(compositeKey(namespace, key), p, rl.now())) >= p.Max
}

// Record counts an attempt for key even when the window is already full.
// Callers that only want to charge completed work pair it with Exhausted.
func (rl *RateLimiter) Record(namespace, key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	p, ok := rl.policies[namespace]
	if !ok || p.Max <= 0 {
		return
	}
	now := rl.now()
	ck := compositeKey(namespace, key)
	rl.attempts[ck] = append(rl.live(ck, p, now), now)
}

// Reset forgets every attempt of key
func (rl *RateLimiter) Reset(namespace, key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.attempts, compositeKey(namespace, key))
}

// RetryAfterSeconds rounds the wait before key may try again up to whole
// seconds, for the Retry-After header. Zero when nothing is pending.
func (rl *RateLimiter) RetryAfterSeconds(namespace, key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	p, ok := rl.policies[namespace]
	if !ok {
		return 0
	}
	now := rl.now()
	attempts := rl.live(compositeKey(namespace, key), p, now)
	if len(attempts) < p.Max || len(attempts) == 0 {
		return 0
	}
	wait := attempts[0].Add(p.Window).Sub(now)
	return int((wait + time.Second - 1) / time.Second)
}

// Sweep drops keys with no attempt inside their window
func (rl *RateLimiter) Sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for ck := range rl.attempts {
		ns := ck
		if i := strings.IndexByte(ck, ':'); i >= 0 {
			ns = ck[:i]
		}
		p, ok := rl.policies[ns]
		if !ok {
			delete(rl.attempts, ck)
			continue
		}
		rl.live(ck, p, now)
	}
}

// Keys counts tracked keys
func (rl *RateLimiter) Keys() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.attempts)
}

func (rl *RateLimiter) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.Sweep()
		case <-rl.stop:
			return
		}
	}
}

// Stop ends the sweeper. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stop)
	})
}
