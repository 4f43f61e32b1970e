package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mvidal/phishguard/internal/core"
)

// SQLiteCache is a SQLite implementation of the CacheRepository port.
type SQLiteCache struct {
	db     *sql.DB
	logger *zap.Logger
	ttl    time.Duration
	clock  func() time.Time
	stopCh chan struct{}
}

// NewSQLiteCache creates a new SQLite cache.
func NewSQLiteCache(dbPath string, logger *zap.Logger, ttl, cleanupFreq time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS osint_cache (
			key TEXT PRIMARY KEY,
			payload TEXT,
			cached_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	// Index on cached_at for faster cleanup
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_cached_at ON osint_cache(cached_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	c := &SQLiteCache{
		db:     db,
		logger: logger,
		ttl:    ttl,
		clock:  time.Now,
		stopCh: make(chan struct{}),
	}

	if cleanupFreq > 0 {
		go c.startCleanupTask(cleanupFreq)
	}

	return c, nil
}

// Get retrieves a live cache entry, deleting it when stale.
func (c *SQLiteCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
	var payload string
	var cachedAt string

	err := c.db.QueryRowContext(ctx, `
		SELECT payload, cached_at
		FROM osint_cache
		WHERE key = ?
	`, key).Scan(&payload, &cachedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		c.logger.Error("Failed to query cache", zap.Error(err), zap.String("key", key))
		return nil, ErrNotFound
	}

	ts, err := time.Parse(time.RFC3339, cachedAt)
	if err != nil {
		c.logger.Error("Failed to parse cached_at timestamp", zap.Error(err), zap.String("key", key))
		return nil, ErrNotFound
	}

	if c.clock().Sub(ts) > c.ttl {
		if err := c.Delete(ctx, key); err != nil {
			c.logger.Warn("Failed to delete stale cache entry", zap.Error(err), zap.String("key", key))
		}
		return nil, ErrNotFound
	}

	return &core.CacheEntry{
		Key:      key,
		Payload:  json.RawMessage(payload),
		CachedAt: ts,
	}, nil
}

// Set upserts a payload under the key with the current timestamp.
func (c *SQLiteCache) Set(ctx context.Context, key string, payload json.RawMessage) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO osint_cache (key, payload, cached_at)
		VALUES (?, ?, ?)
	`, key, string(payload), c.clock().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return nil
}

// Delete removes a cache entry.
func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `
		DELETE FROM osint_cache
		WHERE key = ?
	`, key)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Cleanup removes expired entries.
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	cutoff := c.clock().Add(-c.ttl).UTC().Format(time.RFC3339)

	result, err := c.db.ExecContext(ctx, `
		DELETE FROM osint_cache
		WHERE cached_at <= ?
	`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int64("expired_count", rowsAffected))
	}

	return nil
}

// startCleanupTask starts a background task to clean up expired entries
func (c *SQLiteCache) startCleanupTask(freq time.Duration) {
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

// Stop stops the background cleanup task and closes the database connection.
func (c *SQLiteCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}
