package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mvidal/phishguard/internal/core"
)

const (
	virusTotalAPIURL = "https://www.virustotal.com/api/v3"
	virusTotalGUIURL = "https://www.virustotal.com/gui"
)

// VirusTotalClient is the primary reputation provider, querying the
// VirusTotal v3 domain and IP endpoints.
type VirusTotalClient struct {
	client  *http.Client
	logger  *zap.Logger
	apiKey  string
	baseURL string
}

// NewVirusTotalClient creates a new VirusTotal client. An empty API key is
// allowed; lookups then report structured missing-credentials results.
func NewVirusTotalClient(apiKey string, timeout time.Duration, logger *zap.Logger) *VirusTotalClient {
	return &VirusTotalClient{
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		apiKey:  apiKey,
		baseURL: virusTotalAPIURL,
	}
}

// WithBaseURL points the client at a different API root. Used by tests.
func (c *VirusTotalClient) WithBaseURL(url string) *VirusTotalClient {
	c.baseURL = url
	return c
}

// Name returns the provider slug.
func (c *VirusTotalClient) Name() string { return "virustotal" }

// vtReport is the subset of the VirusTotal object response we consume.
type vtReport struct {
	Data struct {
		Attributes struct {
			LastAnalysisStats core.ReputationStats `json:"last_analysis_stats"`
			Reputation        *int                 `json:"reputation"`
		} `json:"attributes"`
	} `json:"data"`
}

// DomainReport looks up reputation for a registrable domain.
func (c *VirusTotalClient) DomainReport(ctx context.Context, domain string) core.ReputationSummary {
	summary := c.report(ctx, "domain", fmt.Sprintf("%s/domains/%s", c.baseURL, domain))
	summary.Link = fmt.Sprintf("%s/domain/%s", virusTotalGUIURL, domain)
	return summary
}

// IPReport looks up reputation for a literal IP address.
func (c *VirusTotalClient) IPReport(ctx context.Context, ip string) core.ReputationSummary {
	summary := c.report(ctx, "ip", fmt.Sprintf("%s/ip_addresses/%s", c.baseURL, ip))
	summary.Link = fmt.Sprintf("%s/ip-address/%s", virusTotalGUIURL, ip)
	return summary
}

func (c *VirusTotalClient) report(ctx context.Context, kind, url string) core.ReputationSummary {
	if c.apiKey == "" {
		return core.ReputationSummary{Kind: kind, Error: "missing_vt_api_key"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return core.ReputationSummary{Kind: kind, Error: err.Error()}
	}
	req.Header.Set("x-apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("VirusTotal request failed", zap.String("kind", kind), zap.Error(err))
		return core.ReputationSummary{Kind: kind, Error: "request_failed"}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.ReputationSummary{Kind: kind, Error: "read_failed"}
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("VirusTotal returned non-200",
			zap.String("kind", kind), zap.Int("status", resp.StatusCode))
		return core.ReputationSummary{Kind: kind, Error: fmt.Sprintf("vt_%d", resp.StatusCode)}
	}

	var report vtReport
	if err := json.Unmarshal(body, &report); err != nil {
		return core.ReputationSummary{Kind: kind, Error: "bad_format"}
	}

	return core.ReputationSummary{
		Kind:       kind,
		OK:         true,
		Stats:      report.Data.Attributes.LastAnalysisStats,
		Reputation: report.Data.Attributes.Reputation,
	}
}
