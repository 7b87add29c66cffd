// Package cache holds short lived process local values: the loaded worker
// directory marker and the dashboard snapshot when no shared cache is set up.
package cache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache stores values with a per entry TTL
type Cache interface {
	// Get returns the value and true when key is present and not expired
	Get(key string) (interface{}, bool)

	// Set stores value under key for ttl
	Set(key string, value interface{}, ttl time.Duration)

	// GetOrSet returns the cached value or computes and stores it. Concurrent
	// callers for the same key share one compute call. Errors are not cached.
	GetOrSet(key string, ttl time.Duration, compute func() (interface{}, error)) (interface{}, error)

	// Delete removes key
	Delete(key string)

	// Clear removes every entry
	Clear()

	// Size counts stored entries, including expired ones not yet swept
	Size() int

	// Stop ends background cleanup
	Stop()
}

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Option configures an InMemoryCache
type Option func(*InMemoryCache)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(c *InMemoryCache) {
		c.now = now
	}
}

// InMemoryCache is a mutex guarded map swept periodically
type InMemoryCache struct {
	mu       sync.RWMutex
	entries  map[string]entry
	group    singleflight.Group
	now      func() time.Time
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewInMemoryCache starts a cache sweeping expired entries every
// cleanupInterval. A non positive interval disables the sweeper.
func NewInMemoryCache(cleanupInterval time.Duration, opts ...Option) *InMemoryCache {
	c := &InMemoryCache{
		entries:  make(map[string]entry),
		now:      time.Now,
		interval: cleanupInterval,
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if cleanupInterval > 0 {
		go c.sweepLoop()
	}
	return c
}

func (c *InMemoryCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (c *InMemoryCache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
}

func (c *InMemoryCache) GetOrSet(key string, ttl time.Duration, compute func() (interface{}, error)) (interface{}, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// a caller that finished just before us already stored it
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(key, v, ttl)
		return v, nil
	})
	return v, err
}

func (c *InMemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

func (c *InMemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry)
}

func (c *InMemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Stop ends the sweeper. Safe to call more than once.
func (c *InMemoryCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

func (c *InMemoryCache) sweepLoop() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

// sweep drops expired entries
func (c *InMemoryCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}
