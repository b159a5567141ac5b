package engine

import (
	"sync"
	"time"
)

// DefaultDomainMemoryTTL applies when NewDomainMemory is given no TTL.
const DefaultDomainMemoryTTL = 24 * time.Hour

type domainEntry struct {
	engineName string
	expiresAt  time.Time
}

// DomainMemory remembers which engine last won the race for each host, so
// later targets on the same host skip straight to it. Booking share links
// all resolve on one host, so in practice this holds a single entry.
type DomainMemory struct {
	mu      sync.Mutex
	entries map[string]domainEntry
	ttl     time.Duration
	now     func() time.Time

	stopOnce sync.Once
	done     chan struct{}
}

// NewDomainMemory starts an hourly sweep of expired entries; call Stop to
// end it.
func NewDomainMemory(ttl time.Duration) *DomainMemory {
	if ttl <= 0 {
		ttl = DefaultDomainMemoryTTL
	}
	dm := &DomainMemory{
		entries: make(map[string]domainEntry),
		ttl:     ttl,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go dm.sweepLoop()
	return dm
}

// Get returns the remembered engine for domain, or "" when none is fresh.
func (dm *DomainMemory) Get(domain string) string {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	e, ok := dm.entries[domain]
	if !ok {
		return ""
	}
	if dm.now().After(e.expiresAt) {
		delete(dm.entries, domain)
		return ""
	}
	return e.engineName
}

// Set records the engine that succeeded for domain.
func (dm *DomainMemory) Set(domain, engineName string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.entries[domain] = domainEntry{engineName: engineName, expiresAt: dm.now().Add(dm.ttl)}
}

// Delete forgets domain, typically after its remembered engine failed.
func (dm *DomainMemory) Delete(domain string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	delete(dm.entries, domain)
}

// Len reports the number of entries, including expired ones not yet swept.
func (dm *DomainMemory) Len() int {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return len(dm.entries)
}

// Stop ends the sweep. It is safe to call more than once.
func (dm *DomainMemory) Stop() {
	dm.stopOnce.Do(func() { close(dm.done) })
}

func (dm *DomainMemory) sweep() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	now := dm.now()
	for domain, e := range dm.entries {
		if now.After(e.expiresAt) {
			delete(dm.entries, domain)
		}
	}
}

func (dm *DomainMemory) sweepLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-dm.done:
			return
		case <-ticker.C:
			dm.sweep()
		}
	}
}
