package core

import (
	"encoding/json"
	"time"
)

// Label classifies an analyzed email by risk.
type Label string

const (
	LabelLegitimate Label = "legitimate"
	LabelSuspicious Label = "suspicious"
	LabelPhishing   Label = "phishing"
)

// Risk score thresholds. Lower bounds are inclusive: a score of exactly 50
// is suspicious and a score of exactly 80 is phishing.
const (
	ThresholdSuspicious = 50
	ThresholdPhishing   = 80
)

// LabelForScore maps a risk score to its label.
func LabelForScore(score int) Label {
	switch {
	case score >= ThresholdPhishing:
		return LabelPhishing
	case score >= ThresholdSuspicious:
		return LabelSuspicious
	default:
		return LabelLegitimate
	}
}

// EmailInput represents an email message submitted for analysis
type EmailInput struct {
	Sender  string            `json:"sender"`
	Subject string            `json:"subject"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Indicator kinds. Every Indicators map carries all of these keys, even when
// nothing matched, so downstream consumers never have to probe for presence.
const (
	IndicatorKeywords   = "keywords"
	IndicatorFoundURLs  = "found_urls"
	IndicatorShorteners = "shorteners"
	IndicatorSusDomains = "sus_domains"
	IndicatorAuthFail   = "auth_fail"
)

// Indicators maps an indicator kind to the values matched in the email.
type Indicators map[string][]string

// NewIndicators returns an Indicators map with every kind present and empty.
func NewIndicators() Indicators {
	return Indicators{
		IndicatorKeywords:   {},
		IndicatorFoundURLs:  {},
		IndicatorShorteners: {},
		IndicatorSusDomains: {},
		IndicatorAuthFail:   {},
	}
}

// AnalyzeResult is the outcome of scoring a single email.
type AnalyzeResult struct {
	RiskScore  int        `json:"risk_score"`
	Label      Label      `json:"label"`
	Reasons    []string   `json:"reasons"`
	Indicators Indicators `json:"indicators"`
}

// FeatureVector is the fixed-order numeric representation of an email fed to
// the model scorer. Its length depends on the loaded model's shape.
type FeatureVector []float64

// ModelShape identifies which feature layout a model consumes.
type ModelShape string

const (
	// ShapeClassic is the full 8-feature numeric vector.
	ShapeClassic ModelShape = "classic"
	// ShapeHybrid is the reduced 6-feature vector paired with raw email text.
	ShapeHybrid ModelShape = "hybrid"
)

// ModelInfo describes the scorer selected at startup.
type ModelInfo struct {
	Mode     string    `json:"mode"`
	Name     string    `json:"name"`
	Version  string    `json:"version"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
}

// AnalysisRecord is a persisted analysis, owned by the user who requested it.
// Artifacts are attached by OSINT enrichment; re-scanning replaces them.
type AnalysisRecord struct {
	ID               string        `json:"analysis_id"`
	Owner            string        `json:"owner"`
	Email            EmailInput    `json:"email"`
	Result           AnalyzeResult `json:"result"`
	HeuristicScore   int           `json:"heuristic_score"`
	ModelProbability float64       `json:"ml_probability"`
	ModelInfo        ModelInfo     `json:"model_info"`
	Artifacts        []Artifact    `json:"artifacts,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
}

// CacheEntry is one cached OSINT lookup. Keys are provider+subject composites
// such as "vt:domain:example.com" so providers for the same host never collide.
type CacheEntry struct {
	Key      string          `json:"key"`
	Payload  json.RawMessage `json:"payload"`
	CachedAt time.Time       `json:"cached_at"`
}

// ReputationStats summarizes a reputation provider's analysis verdicts.
type ReputationStats struct {
	Harmless   int `json:"harmless"`
	Malicious  int `json:"malicious"`
	Suspicious int `json:"suspicious"`
	Undetected int `json:"undetected"`
	Timeout    int `json:"timeout"`
}

// ReputationSummary is the compact result of a domain or IP reputation lookup.
type ReputationSummary struct {
	Kind       string          `json:"kind"`
	OK         bool            `json:"ok"`
	Error      string          `json:"error,omitempty"`
	Stats      ReputationStats `json:"stats"`
	Reputation *int            `json:"reputation,omitempty"`
	Link       string          `json:"link,omitempty"`
}

// GeoSummary is the result of an IP geolocation lookup.
type GeoSummary struct {
	OK          bool    `json:"ok"`
	Error       string  `json:"error,omitempty"`
	Country     string  `json:"country,omitempty"`
	CountryCode string  `json:"country_code,omitempty"`
	City        string  `json:"city,omitempty"`
	Lat         float64 `json:"lat,omitempty"`
	Lon         float64 `json:"lon,omitempty"`
	ISP         string  `json:"isp,omitempty"`
}

// WhoisSummary is the result of a WHOIS lookup for a registrable domain.
type WhoisSummary struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	Registrar string `json:"registrar,omitempty"`
	Created   string `json:"created,omitempty"`
	Expires   string `json:"expires,omitempty"`
	Country   string `json:"country,omitempty"`
}

// BlocklistSummary is the result of a blocklist feed membership check.
type BlocklistSummary struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Listed bool   `json:"listed"`
	Feed   string `json:"feed,omitempty"`
}

// PhishReportSummary is the result of a community phishing-report lookup.
type PhishReportSummary struct {
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
	InDatabase bool   `json:"in_database"`
	Verified   bool   `json:"verified"`
}

// Artifact provenance markers.
const (
	SourceCache = "cache"
	SourceLive  = "live"
)

// Artifact is the enrichment record for one normalized host. All input URLs
// that normalize to the same host are grouped under a single artifact.
type Artifact struct {
	URL         string             `json:"url"`
	OtherURLs   []string           `json:"other_urls,omitempty"`
	Domain      string             `json:"domain,omitempty"`
	IP          string             `json:"ip,omitempty"`
	ResolvedIP  string             `json:"resolved_ip,omitempty"`
	Reputation  ReputationSummary  `json:"vt"`
	Geo         GeoSummary         `json:"geo"`
	Whois       WhoisSummary       `json:"whois"`
	Blocklist   BlocklistSummary   `json:"blocklist"`
	PhishReport PhishReportSummary `json:"phish_report"`
	Source      string             `json:"source"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// Host returns the normalized host this artifact describes.
func (a *Artifact) Host() string {
	if a.IP != "" {
		return a.IP
	}
	return a.Domain
}

// CountStat is one name/count pair in a dashboard summary.
type CountStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// MapPoint is one geolocated host on the dashboard map.
type MapPoint struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Domain  string  `json:"domain"`
	Country string  `json:"country"`
	Risk    string  `json:"risk"`
	Color   string  `json:"color"`
}

// OsintSummary aggregates all stored artifacts for an owner.
type OsintSummary struct {
	CountriesCount int         `json:"countries_count"`
	DomainsCount   int         `json:"domains_count"`
	MaliciousTotal int         `json:"malicious_total"`
	AvgReputation  float64     `json:"avg_reputation"`
	TopCountries   []CountStat `json:"top_countries"`
	TopDomains     []CountStat `json:"top_domains"`
	RiskStats      []CountStat `json:"risk_stats"`
	MapPoints      []MapPoint  `json:"map_points"`
}
