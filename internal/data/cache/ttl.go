package cache

import (
	"context"
	"sync"
	"time"

	"github.com/sawpanic/setuplab/internal/domain/setup"
)

// TTLCache implements Cache in process with time-based expiration
type TTLCache struct {
	mu         sync.RWMutex
	entries    map[string]*cacheEntry
	maxEntries int
	ttl        time.Duration
	stats      Stats
	now        func() time.Time
}

type cacheEntry struct {
	batch    []setup.Setup
	expires  time.Time
	accessed time.Time
}

// Stats counts cache traffic
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Entries   int   `json:"entries"`
}

// NewTTLCache creates a cache holding at most maxEntries batches
func NewTTLCache(maxEntries int, ttl time.Duration) *TTLCache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &TTLCache{
		entries:    make(map[string]*cacheEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Get retrieves a batch if not expired
func (c *TTLCache) Get(_ context.Context, scenario string) ([]setup.Setup, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[scenario]
	if !exists {
		c.stats.Misses++
		return nil, false, nil
	}

	now := c.now()
	if now.After(entry.expires) {
		delete(c.entries, scenario)
		c.stats.Misses++
		return nil, false, nil
	}

	entry.accessed = now
	c.stats.Hits++
	return entry.batch, true, nil
}

// Set stores a batch, evicting the least recently used entry when full
func (c *TTLCache) Set(_ context.Context, scenario string, batch []setup.Setup) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[scenario]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLRU()
	}

	now := c.now()
	c.entries[scenario] = &cacheEntry{
		batch:    batch,
		expires:  now.Add(c.ttl),
		accessed: now,
	}
	return nil
}

// Delete drops a batch
func (c *TTLCache) Delete(_ context.Context, scenario string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, scenario)
	return nil
}

// Stats returns cache performance statistics
func (c *TTLCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.stats
	s.Entries = len(c.entries)
	return s
}

// evictLRU removes the least recently used entry (caller must hold write lock)
func (c *TTLCache) evictLRU() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.accessed.Before(oldest) {
			oldest = entry.accessed
			oldestKey = key
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.stats.Evictions++
	}
}
