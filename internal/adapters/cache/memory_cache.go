package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mvidal/phishguard/internal/core"
)

// ErrNotFound is returned when a cache entry is missing or stale.
var ErrNotFound = errors.New("cache entry not found")

// MemoryCache is an in-memory implementation of the CacheRepository port.
// Stale entries are deleted lazily on read; a background sweep also runs at
// the configured frequency.
type MemoryCache struct {
	entries map[string]*core.CacheEntry
	mu      sync.RWMutex
	logger  *zap.Logger
	ttl     time.Duration
	clock   func() time.Time
	stopCh  chan struct{}
}

// NewMemoryCache creates a new in-memory cache.
func NewMemoryCache(logger *zap.Logger, ttl, cleanupFreq time.Duration) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]*core.CacheEntry),
		logger:  logger,
		ttl:     ttl,
		clock:   time.Now,
		stopCh:  make(chan struct{}),
	}

	if cleanupFreq > 0 {
		go c.startCleanupTask(cleanupFreq)
	}

	return c
}

// WithClock overrides the cache clock. Used by tests to exercise TTL
// behavior without sleeping.
func (c *MemoryCache) WithClock(clock func() time.Time) *MemoryCache {
	c.clock = clock
	return c
}

// Get retrieves a live cache entry. Entries older than the TTL are treated
// as absent and removed.
func (c *MemoryCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	if c.clock().Sub(entry.CachedAt) > c.ttl {
		delete(c.entries, key)
		return nil, ErrNotFound
	}
	return entry, nil
}

// Set upserts a payload under the key with the current timestamp.
func (c *MemoryCache) Set(ctx context.Context, key string, payload json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &core.CacheEntry{
		Key:      key,
		Payload:  payload,
		CachedAt: c.clock(),
	}
	return nil
}

// Delete removes a cache entry.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

// Cleanup removes expired entries.
func (c *MemoryCache) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	expired := 0
	for key, entry := range c.entries {
		if now.Sub(entry.CachedAt) > c.ttl {
			delete(c.entries, key)
			expired++
		}
	}

	c.logger.Debug("Cleaned up expired cache entries", zap.Int("expired_count", expired))
	return nil
}

// startCleanupTask starts a background task to clean up expired entries
func (c *MemoryCache) startCleanupTask(freq time.Duration) {
	ticker := time.NewTicker(freq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task.
func (c *MemoryCache) Stop() {
	close(c.stopCh)
}
