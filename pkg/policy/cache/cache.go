package cache

import (
	"sync"
	"time"

	"arbiter-hq/arbiter/pkg/policy/engine"
)

// DecisionCache is a thread-safe, bounded memoization of decisions with TTL
// and LRU eviction. Keys are fingerprints from Fingerprint; values are the
// immutable Decisions the engine computed for them. Concurrent writers racing
// on the same key are harmless: both computed the same Decision, so last
// write wins and the value is still correct.
type DecisionCache struct {
	// entries maps fingerprints to cached decisions
	entries map[string]*cacheEntry

	// ttl is the time-to-live for cache entries (0 = no expiry)
	ttl time.Duration

	// maxEntries is the maximum number of entries (0 = unlimited)
	maxEntries int

	// mu protects concurrent access to the cache
	mu sync.RWMutex

	// stopCh signals the cleanup goroutine to stop
	stopCh chan struct{}

	// cleanupInterval is how often to run expiry cleanup
	cleanupInterval time.Duration
}

type cacheEntry struct {
	decision       *engine.Decision
	expiresAt      time.Time
	createdAt      time.Time
	lastAccessedAt time.Time
	accessCount    int64
}

// New creates a decision cache with the specified TTL and max entries.
// If ttl is 0, entries never expire. If maxEntries is 0, the cache has
// unlimited size. The cleanup interval defaults to ttl/2, clamped to at
// least 10 seconds.
func New(ttl time.Duration, maxEntries int) *DecisionCache {
	cleanupInterval := time.Minute
	if ttl > 0 {
		cleanupInterval = ttl / 2
		if cleanupInterval < 10*time.Second {
			cleanupInterval = 10 * time.Second
		}
	}

	c := &DecisionCache{
		entries:         make(map[string]*cacheEntry),
		ttl:             ttl,
		maxEntries:      maxEntries,
		stopCh:          make(chan struct{}),
		cleanupInterval: cleanupInterval,
	}

	if ttl > 0 {
		go c.cleanupExpired()
	}

	return c
}

// Get retrieves a cached decision by fingerprint.
// Returns (decision, true) if present and not expired.
func (c *DecisionCache) Get(fingerprint string) (*engine.Decision, bool) {
	c.mu.RLock()
	entry, ok := c.entries[fingerprint]
	if !ok {
		c.mu.RUnlock()
		return nil, false
	}
	if c.ttl > 0 && time.Now().After(entry.expiresAt) {
		c.mu.RUnlock()
		return nil, false
	}
	decision := entry.decision
	c.mu.RUnlock()

	// Update access time and count with write lock.
	c.mu.Lock()
	// Re-check entry exists (might have been evicted between locks).
	if entry, ok := c.entries[fingerprint]; ok {
		entry.lastAccessedAt = time.Now()
		entry.accessCount++
	}
	c.mu.Unlock()

	return decision, true
}

// Put stores a decision under its fingerprint. If the cache is full, the
// least recently used entry is evicted first.
func (c *DecisionCache) Put(fingerprint string, decision *engine.Decision) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		if _, exists := c.entries[fingerprint]; !exists {
			c.evictLRU()
		}
	}

	now := time.Now()
	expiresAt := time.Time{} // Zero time = no expiry
	if c.ttl > 0 {
		expiresAt = now.Add(c.ttl)
	}

	c.entries[fingerprint] = &cacheEntry{
		decision:       decision,
		expiresAt:      expiresAt,
		createdAt:      now,
		lastAccessedAt: now,
		accessCount:    1,
	}
}

// Size returns the current number of entries in the cache.
func (c *DecisionCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes all entries from the cache.
func (c *DecisionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// Close stops the background cleanup goroutine.
// After calling Close, the cache should not be used.
func (c *DecisionCache) Close() {
	close(c.stopCh)
}

// evictLRU evicts the least recently used entry from the cache.
// Must be called with write lock held.
func (c *DecisionCache) evictLRU() {
	if len(c.entries) == 0 {
		return
	}

	var oldestKey string
	var oldestTime time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.lastAccessedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.lastAccessedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// cleanupExpired runs periodically to remove expired entries.
// Runs in a background goroutine until Close() is called.
func (c *DecisionCache) cleanupExpired() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

// removeExpired removes all expired entries from the cache.
func (c *DecisionCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ttl == 0 {
		return
	}

	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}
