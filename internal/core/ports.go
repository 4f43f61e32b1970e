package core

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by repositories when no record matches.
var ErrNotFound = errors.New("record not found")

// ModelScorer produces a phishing probability for a feature vector. It is
// selected once at startup (trained artifact or fixed-weight fallback) and
// must be total: it never fails, it only degrades.
type ModelScorer interface {
	// Probability returns a value in [0,1]. Hybrid models also consume the
	// raw email text; classic models ignore it.
	Probability(features FeatureVector, emailText string) float64

	// Shape reports which feature layout this scorer expects.
	Shape() ModelShape

	// Info returns a read-only snapshot of the loaded model descriptor.
	Info() ModelInfo
}

// CacheRepository is the OSINT lookup cache. Get treats stale entries as
// absent; Set upserts unconditionally (last write wins).
type CacheRepository interface {
	// Get retrieves a live cache entry, or ErrNotFound when the key is
	// missing or its age exceeds the configured TTL.
	Get(ctx context.Context, key string) (*CacheEntry, error)

	// Set stores a payload under the key with the current timestamp.
	Set(ctx context.Context, key string, payload json.RawMessage) error

	// Delete removes a cache entry.
	Delete(ctx context.Context, key string) error

	// Cleanup removes expired entries.
	Cleanup(ctx context.Context) error
}

// DocumentStore persists analysis records and their enrichment artifacts.
type DocumentStore interface {
	// SaveAnalysis upserts a record by ID.
	SaveAnalysis(ctx context.Context, record *AnalysisRecord) error

	// GetAnalysis fetches a record by ID, scoped to its owner.
	GetAnalysis(ctx context.Context, id, owner string) (*AnalysisRecord, error)

	// ListAnalyses returns the owner's records, newest first.
	ListAnalyses(ctx context.Context, owner string, limit int) ([]*AnalysisRecord, error)

	// CountAnalyses returns the number of records stored for the owner.
	CountAnalyses(ctx context.Context, owner string) (int, error)

	// DeleteAnalyses removes every record owned by the owner and reports
	// how many were removed.
	DeleteAnalyses(ctx context.Context, owner string) (int, error)

	// ReplaceArtifacts overwrites the enrichment artifacts on a record.
	ReplaceArtifacts(ctx context.Context, id, owner string, artifacts []Artifact) error

	// ListArtifacts returns every artifact stored for the owner.
	ListArtifacts(ctx context.Context, owner string) ([]Artifact, error)
}

// ReputationProvider looks up threat reputation for a domain or IP.
// Implementations report failure inside the summary, never as an error.
type ReputationProvider interface {
	Name() string
	DomainReport(ctx context.Context, domain string) ReputationSummary
	IPReport(ctx context.Context, ip string) ReputationSummary
}

// GeoProvider geolocates an IP address.
type GeoProvider interface {
	Locate(ctx context.Context, ip string) GeoSummary
}

// WhoisProvider looks up WHOIS registration data for a domain.
type WhoisProvider interface {
	Lookup(ctx context.Context, domain string) WhoisSummary
}

// BlocklistProvider checks host membership in a threat feed.
type BlocklistProvider interface {
	Contains(ctx context.Context, host string) BlocklistSummary
}

// PhishReportProvider checks a URL against community phishing reports.
type PhishReportProvider interface {
	CheckURL(ctx context.Context, url string) PhishReportSummary
}

// Resolver resolves a domain name to an IPv4 address.
type Resolver interface {
	LookupIP(ctx context.Context, domain string) (string, error)
}
