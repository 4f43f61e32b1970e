package osint

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/mvidal/phishguard/internal/core"
)

// Risk buckets for aggregated artifacts.
const (
	RiskMalicious  = "malicious"
	RiskSuspicious = "suspicious"
	RiskClean      = "clean"
)

const maxMapPoints = 200

// riskColors is the dashboard palette. Fixed mapping, matches the frontend.
var riskColors = map[string]string{
	RiskMalicious:  "#dc3545",
	RiskSuspicious: "#ffc107",
	RiskClean:      "#198754",
}

// Aggregator summarizes previously stored artifacts into dashboard
// statistics. Pure read path: nothing here mutates the store.
type Aggregator struct {
	store  core.DocumentStore
	logger *zap.Logger
}

// NewAggregator creates a new dashboard aggregator.
func NewAggregator(store core.DocumentStore, logger *zap.Logger) *Aggregator {
	return &Aggregator{store: store, logger: logger}
}

// Summary loads all artifacts stored for the owner and aggregates them.
func (a *Aggregator) Summary(ctx context.Context, owner string) (*core.OsintSummary, error) {
	artifacts, err := a.store.ListArtifacts(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load artifacts: %w", err)
	}
	summary := Summarize(artifacts)
	a.logger.Debug("Dashboard summary built",
		zap.String("owner", owner),
		zap.Int("artifacts", len(artifacts)))
	return summary, nil
}

// RiskBucket classifies an artifact from its primary reputation stats:
// malicious when any engine reported malicious, suspicious when any reported
// suspicious, clean otherwise.
func RiskBucket(artifact *core.Artifact) string {
	stats := artifact.Reputation.Stats
	switch {
	case stats.Malicious > 0:
		return RiskMalicious
	case stats.Suspicious > 0:
		return RiskSuspicious
	default:
		return RiskClean
	}
}

// Summarize aggregates artifacts into country/domain/risk statistics.
func Summarize(artifacts []core.Artifact) *core.OsintSummary {
	countries := map[string]int{}
	domains := map[string]int{}
	buckets := map[string]int{RiskMalicious: 0, RiskSuspicious: 0, RiskClean: 0}
	var points []core.MapPoint
	var repSum float64
	var repCount int

	for i := range artifacts {
		artifact := &artifacts[i]
		bucket := RiskBucket(artifact)
		buckets[bucket]++

		if artifact.Geo.OK && artifact.Geo.Country != "" {
			countries[artifact.Geo.Country]++
		}
		domains[artifact.Host()]++

		if artifact.Reputation.Reputation != nil {
			repSum += float64(*artifact.Reputation.Reputation)
			repCount++
		}

		if artifact.Geo.OK && (artifact.Geo.Lat != 0 || artifact.Geo.Lon != 0) && len(points) < maxMapPoints {
			points = append(points, core.MapPoint{
				Lat:     artifact.Geo.Lat,
				Lon:     artifact.Geo.Lon,
				Domain:  artifact.Host(),
				Country: artifact.Geo.Country,
				Risk:    bucket,
				Color:   riskColors[bucket],
			})
		}
	}

	avgRep := 0.0
	if repCount > 0 {
		avgRep = math.Round(repSum/float64(repCount)*100) / 100
	}

	return &core.OsintSummary{
		CountriesCount: len(countries),
		DomainsCount:   len(domains),
		MaliciousTotal: buckets[RiskMalicious],
		AvgReputation:  avgRep,
		TopCountries:   topStats(countries, 10),
		TopDomains:     topStats(domains, 10),
		RiskStats: []core.CountStat{
			{Name: RiskMalicious, Count: buckets[RiskMalicious]},
			{Name: RiskSuspicious, Count: buckets[RiskSuspicious]},
			{Name: RiskClean, Count: buckets[RiskClean]},
		},
		MapPoints: points,
	}
}

// topStats sorts counts descending (name ascending on ties) and keeps the
// first n.
func topStats(counts map[string]int, n int) []core.CountStat {
	stats := make([]core.CountStat, 0, len(counts))
	for name, count := range counts {
		stats = append(stats, core.CountStat{Name: name, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Name < stats[j].Name
	})
	if len(stats) > n {
		stats = stats[:n]
	}
	return stats
}
