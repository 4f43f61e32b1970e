package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mvidal/phishguard/internal/core"
)

const ipAPIBaseURL = "http://ip-api.com/json"

// IPAPIClient geolocates IP addresses via ip-api.com. The free tier needs no
// credentials.
type IPAPIClient struct {
	client  *http.Client
	logger  *zap.Logger
	baseURL string
}

// NewIPAPIClient creates a new ip-api.com client.
func NewIPAPIClient(timeout time.Duration, logger *zap.Logger) *IPAPIClient {
	return &IPAPIClient{
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		baseURL: ipAPIBaseURL,
	}
}

// WithBaseURL points the client at a different API root. Used by tests.
func (c *IPAPIClient) WithBaseURL(url string) *IPAPIClient {
	c.baseURL = url
	return c
}

type ipAPIResponse struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	City        string  `json:"city"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	ISP         string  `json:"isp"`
}

// Locate geolocates an IP address.
func (c *IPAPIClient) Locate(ctx context.Context, ip string) core.GeoSummary {
	url := fmt.Sprintf("%s/%s?fields=status,message,country,countryCode,city,lat,lon,isp", c.baseURL, ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return core.GeoSummary{Error: err.Error()}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("Geolocation request failed", zap.String("ip", ip), zap.Error(err))
		return core.GeoSummary{Error: "request_failed"}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.GeoSummary{Error: fmt.Sprintf("geo_%d", resp.StatusCode)}
	}

	var payload ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return core.GeoSummary{Error: "bad_format"}
	}
	if payload.Status != "success" {
		return core.GeoSummary{Error: payload.Message}
	}

	return core.GeoSummary{
		OK:          true,
		Country:     payload.Country,
		CountryCode: payload.CountryCode,
		City:        payload.City,
		Lat:         payload.Lat,
		Lon:         payload.Lon,
		ISP:         payload.ISP,
	}
}
