package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mvidal/phishguard/internal/core"
)

const phishTankAPIURL = "https://checkurl.phishtank.com/checkurl/"

// PhishTankClient checks URLs against the PhishTank community database.
// An application key is optional for low request volumes.
type PhishTankClient struct {
	client  *http.Client
	logger  *zap.Logger
	appKey  string
	baseURL string
}

// NewPhishTankClient creates a new PhishTank client.
func NewPhishTankClient(appKey string, timeout time.Duration, logger *zap.Logger) *PhishTankClient {
	return &PhishTankClient{
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		appKey:  appKey,
		baseURL: phishTankAPIURL,
	}
}

// WithBaseURL points the client at a different API root. Used by tests.
func (c *PhishTankClient) WithBaseURL(url string) *PhishTankClient {
	c.baseURL = url
	return c
}

type phishTankResponse struct {
	Results struct {
		InDatabase bool `json:"in_database"`
		Verified   bool `json:"verified"`
	} `json:"results"`
}

// CheckURL checks a URL against community phishing reports.
func (c *PhishTankClient) CheckURL(ctx context.Context, checkURL string) core.PhishReportSummary {
	form := url.Values{}
	form.Set("url", checkURL)
	form.Set("format", "json")
	if c.appKey != "" {
		form.Set("app_key", c.appKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return core.PhishReportSummary{Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("PhishTank request failed", zap.Error(err))
		return core.PhishReportSummary{Error: "request_failed"}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.PhishReportSummary{Error: fmt.Sprintf("phishtank_%d", resp.StatusCode)}
	}

	var payload phishTankResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return core.PhishReportSummary{Error: "bad_format"}
	}

	return core.PhishReportSummary{
		OK:         true,
		InDatabase: payload.Results.InDatabase,
		Verified:   payload.Results.Verified,
	}
}
