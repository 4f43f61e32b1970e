package intel

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mvidal/phishguard/internal/core"
)

const (
	openPhishFeedURL = "https://openphish.com/feed.txt"
	openPhishFeed    = "openphish"

	// feedMaxAge bounds how long a downloaded feed snapshot is reused
	// across host checks before refetching.
	feedMaxAge = 10 * time.Minute
)

// OpenPhishClient checks hosts against the OpenPhish plain-text feed using
// substring membership on the feed lines. The feed snapshot is memoized so
// one enrichment run downloads it at most once.
type OpenPhishClient struct {
	client  *http.Client
	logger  *zap.Logger
	feedURL string

	mu        sync.Mutex
	lines     []string
	fetchedAt time.Time
}

// NewOpenPhishClient creates a new OpenPhish feed client.
func NewOpenPhishClient(timeout time.Duration, logger *zap.Logger) *OpenPhishClient {
	return &OpenPhishClient{
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		feedURL: openPhishFeedURL,
	}
}

// WithFeedURL points the client at a different feed. Used by tests.
func (c *OpenPhishClient) WithFeedURL(url string) *OpenPhishClient {
	c.feedURL = url
	return c
}

// Contains reports whether the host appears in the phishing feed.
func (c *OpenPhishClient) Contains(ctx context.Context, host string) core.BlocklistSummary {
	lines, err := c.feedLines(ctx)
	if err != nil {
		c.logger.Warn("Blocklist feed fetch failed", zap.Error(err))
		return core.BlocklistSummary{Error: err.Error(), Feed: openPhishFeed}
	}

	needle := strings.ToLower(host)
	for _, line := range lines {
		if strings.Contains(line, needle) {
			return core.BlocklistSummary{OK: true, Listed: true, Feed: openPhishFeed}
		}
	}
	return core.BlocklistSummary{OK: true, Listed: false, Feed: openPhishFeed}
}

func (c *OpenPhishClient) feedLines(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lines != nil && time.Since(c.fetchedAt) < feedMaxAge {
		return c.lines, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request_failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed_%d", resp.StatusCode)
	}

	var lines []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.ToLower(scanner.Text()))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("feed_read_failed: %w", err)
	}

	c.lines = lines
	c.fetchedAt = time.Now()
	c.logger.Debug("Blocklist feed refreshed", zap.Int("entries", len(lines)))
	return lines, nil
}
