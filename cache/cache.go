package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/use-agent/bookingwatch/models"
)

// entry holds a result with the time it was stored.
type entry struct {
	result    *models.JobResult
	createdAt time.Time
}

// Cache keeps the most recent JobResult per target. It is not a history:
// a newer result for the same target replaces the older one.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	maxAge     time.Duration
	now        func() time.Time
}

// New creates a Cache holding at most maxEntries targets. Entries older
// than maxAge are hidden from reads and purged by a background sweep that
// runs until stop is closed. A nil stop channel never stops the sweep.
func New(maxEntries int, maxAge time.Duration, stop <-chan struct{}) *Cache {
	if maxEntries <= 0 {
		maxEntries = 100
	}
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		maxAge:     maxAge,
		now:        time.Now,
	}

	if maxAge > 0 {
		go c.cleanupLoop(stop)
	}
	return c
}

// Set stores the latest result for target. If the cache is at capacity
// and target is new, a random entry is evicted to make room.
func (c *Cache) Set(target string, result *models.JobResult) {
	if result == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store[target]; !exists && len(c.store) >= c.maxEntries {
		// Map iteration order is random.
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[target] = &entry{
		result:    result,
		createdAt: c.now(),
	}
}

// Get returns the latest result for target if one is fresh.
func (c *Cache) Get(target string) (*models.JobResult, bool) {
	c.mu.RLock()
	e, ok := c.store[target]
	c.mu.RUnlock()

	if !ok || c.expired(e) {
		return nil, false
	}
	return e.result, true
}

// All returns every fresh snapshot, sorted by target.
func (c *Cache) All() []models.ResultSnapshot {
	c.mu.RLock()
	out := make([]models.ResultSnapshot, 0, len(c.store))
	for k, e := range c.store {
		if c.expired(e) {
			continue
		}
		out = append(out, models.ResultSnapshot{Target: k, Result: e.result, CheckedAt: e.createdAt})
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Target < out[j].Target })
	return out
}

// Len reports the number of stored entries, including stale ones not yet
// swept.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

func (c *Cache) expired(e *entry) bool {
	return c.maxAge > 0 && c.now().Sub(e.createdAt) > c.maxAge
}

func (c *Cache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.store {
		if c.expired(e) {
			delete(c.store, k)
		}
	}
}

// cleanupLoop purges stale entries every 5 minutes.
func (c *Cache) cleanupLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.purge()
		case <-stop:
			return
		}
	}
}
