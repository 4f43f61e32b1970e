package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/mvidal/phishguard/internal/core"
)

const whoisAPIBaseURL = "https://www.whoisxmlapi.com/whoisserver/WhoisService"

// WhoisClient fetches WHOIS registration data through the WhoisXML API
// JSON service.
type WhoisClient struct {
	client  *http.Client
	logger  *zap.Logger
	apiKey  string
	baseURL string
}

// NewWhoisClient creates a new WHOIS client. An empty API key is allowed;
// lookups then report structured missing-credentials results.
func NewWhoisClient(apiKey string, timeout time.Duration, logger *zap.Logger) *WhoisClient {
	return &WhoisClient{
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		apiKey:  apiKey,
		baseURL: whoisAPIBaseURL,
	}
}

// WithBaseURL points the client at a different API root. Used by tests.
func (c *WhoisClient) WithBaseURL(url string) *WhoisClient {
	c.baseURL = url
	return c
}

type whoisResponse struct {
	WhoisRecord struct {
		RegistrarName   string `json:"registrarName"`
		CreatedDate     string `json:"createdDate"`
		ExpiresDate     string `json:"expiresDate"`
		RegistryData    struct {
			CreatedDate string `json:"createdDate"`
			ExpiresDate string `json:"expiresDate"`
		} `json:"registryData"`
		Registrant struct {
			Country string `json:"country"`
		} `json:"registrant"`
	} `json:"WhoisRecord"`
}

// Lookup fetches the WHOIS summary for a registrable domain.
func (c *WhoisClient) Lookup(ctx context.Context, domain string) core.WhoisSummary {
	if c.apiKey == "" {
		return core.WhoisSummary{Error: "missing_whois_api_key"}
	}

	query := url.Values{}
	query.Set("apiKey", c.apiKey)
	query.Set("domainName", domain)
	query.Set("outputFormat", "JSON")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return core.WhoisSummary{Error: err.Error()}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("WHOIS request failed", zap.String("domain", domain), zap.Error(err))
		return core.WhoisSummary{Error: "request_failed"}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.WhoisSummary{Error: fmt.Sprintf("whois_%d", resp.StatusCode)}
	}

	var payload whoisResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return core.WhoisSummary{Error: "bad_format"}
	}

	record := payload.WhoisRecord
	created := record.CreatedDate
	if created == "" {
		created = record.RegistryData.CreatedDate
	}
	expires := record.ExpiresDate
	if expires == "" {
		expires = record.RegistryData.ExpiresDate
	}

	return core.WhoisSummary{
		OK:        true,
		Registrar: record.RegistrarName,
		Created:   created,
		Expires:   expires,
		Country:   record.Registrant.Country,
	}
}
