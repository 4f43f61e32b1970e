package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/mvidal/phishguard/internal/core"
)

// MySQLCache is a MySQL implementation of the CacheRepository port.
type MySQLCache struct {
	db     *sql.DB
	logger *zap.Logger
	ttl    time.Duration
	clock  func() time.Time
	stopCh chan struct{}
}

// NewMySQLCache creates a new MySQL cache.
func NewMySQLCache(dsn string, logger *zap.Logger, ttl, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS osint_cache (
			cache_key VARCHAR(512) PRIMARY KEY,
			payload MEDIUMTEXT,
			cached_at TIMESTAMP,
			INDEX idx_cached_at (cached_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	c := &MySQLCache{
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
func (c *MySQLCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
	var payload string
	var cachedAt time.Time

	err := c.db.QueryRowContext(ctx, `
		SELECT payload, cached_at
		FROM osint_cache
		WHERE cache_key = ?
	`, key).Scan(&payload, &cachedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		c.logger.Error("Failed to query cache", zap.Error(err), zap.String("key", key))
		return nil, ErrNotFound
	}

	if c.clock().Sub(cachedAt) > c.ttl {
		if err := c.Delete(ctx, key); err != nil {
			c.logger.Warn("Failed to delete stale cache entry", zap.Error(err), zap.String("key", key))
		}
		return nil, ErrNotFound
	}

	return &core.CacheEntry{
		Key:      key,
		Payload:  json.RawMessage(payload),
		CachedAt: cachedAt,
	}, nil
}

// Set upserts a payload under the key with the current timestamp.
func (c *MySQLCache) Set(ctx context.Context, key string, payload json.RawMessage) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO osint_cache (cache_key, payload, cached_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE payload = VALUES(payload), cached_at = VALUES(cached_at)
	`, key, string(payload), c.clock().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return nil
}

// Delete removes a cache entry.
func (c *MySQLCache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `
		DELETE FROM osint_cache
		WHERE cache_key = ?
	`, key)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Cleanup removes expired entries.
func (c *MySQLCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM osint_cache
		WHERE cached_at <= ?
	`, c.clock().Add(-c.ttl).UTC())
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
func (c *MySQLCache) startCleanupTask(freq time.Duration) {
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
func (c *MySQLCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close MySQL connection", zap.Error(err))
	}
}
