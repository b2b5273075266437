package agent

import (
	"strings"
	"sync"
	"time"
)

// ResponseCache stores final answers for messages that needed no tools.
type ResponseCache interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// CacheKey normalizes a user message into a cache key.
func CacheKey(message string) string {
	return strings.ToLower(strings.TrimSpace(message))
}

type cacheEntry struct {
	value  string
	stored time.Time
}

// MemoryCache is an in-process [ResponseCache]. With a zero TTL and
// zero MaxEntries it never expires or evicts anything.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewMemoryCache creates a cache. ttl expires entries after they are
// stored; maxEntries evicts the oldest entry once the cache is full.
// Zero disables either limit.
func NewMemoryCache(ttl time.Duration, maxEntries int) *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string]cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the cached value for key. Expired entries are reported
// as absent and removed on the next Set.
func (c *MemoryCache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || c.expired(e) {
		return "", false
	}
	return e.value, true
}

// Set stores value under key. Concurrent writers of the same key are
// last-write-wins.
func (c *MemoryCache) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ttl > 0 {
		for k, e := range c.entries {
			if c.expired(e) {
				delete(c.entries, k)
			}
		}
	}

	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}
	c.entries[key] = cacheEntry{value: value, stored: c.now()}
}

// Len returns the number of stored entries, including expired ones not
// yet swept.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *MemoryCache) expired(e cacheEntry) bool {
	return c.ttl > 0 && c.now().Sub(e.stored) > c.ttl
}

// evictOldest must be called with mu held.
func (c *MemoryCache) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for k, e := range c.entries {
		if !found || e.stored.Before(oldest) {
			oldestKey, oldest, found = k, e.stored, true
		}
	}
	if found {
		delete(c.entries, oldestKey)
	}
}
