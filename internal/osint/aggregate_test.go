package osint

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mvidal/phishguard/internal/core"
)

func TestRiskBucket(t *testing.T) {
	tests := []struct {
		name  string
		stats core.ReputationStats
		want  string
	}{
		{"malicious wins", core.ReputationStats{Malicious: 3, Suspicious: 2}, RiskMalicious},
		{"suspicious only", core.ReputationStats{Suspicious: 1}, RiskSuspicious},
		{"all clear", core.ReputationStats{Harmless: 70}, RiskClean},
		{"empty stats", core.ReputationStats{}, RiskClean},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artifact := &core.Artifact{Reputation: core.ReputationSummary{Stats: tt.stats}}
			if got := RiskBucket(artifact); got != tt.want {
				t.Errorf("RiskBucket() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	rep := func(v int) *int { return &v }
	artifacts := []core.Artifact{
		{
			Domain:     "evil.tk",
			Reputation: core.ReputationSummary{OK: true, Stats: core.ReputationStats{Malicious: 4}, Reputation: rep(-20)},
			Geo:        core.GeoSummary{OK: true, Country: "Russia", Lat: 55.75, Lon: 37.61},
		},
		{
			Domain:     "shady.biz.example",
			Reputation: core.ReputationSummary{OK: true, Stats: core.ReputationStats{Suspicious: 1}, Reputation: rep(10)},
			Geo:        core.GeoSummary{OK: true, Country: "Russia", Lat: 59.93, Lon: 30.33},
		},
		{
			IP:         "1.2.3.4",
			Reputation: core.ReputationSummary{OK: true},
			Geo:        core.GeoSummary{OK: true, Country: "Netherlands", Lat: 52.37, Lon: 4.89},
		},
		{
			Domain:     "quiet.example.com",
			Reputation: core.ReputationSummary{OK: false, Error: "vt_429"},
			Geo:        core.GeoSummary{Error: "no_ip"},
		},
	}

	got := Summarize(artifacts)

	if got.CountriesCount != 2 {
		t.Errorf("CountriesCount = %d, want 2", got.CountriesCount)
	}
	if got.DomainsCount != 4 {
		t.Errorf("DomainsCount = %d, want 4", got.DomainsCount)
	}
	if got.MaliciousTotal != 1 {
		t.Errorf("MaliciousTotal = %d, want 1", got.MaliciousTotal)
	}
	if got.AvgReputation != -5.0 {
		t.Errorf("AvgReputation = %v, want -5.0", got.AvgReputation)
	}

	wantCountries := []core.CountStat{
		{Name: "Russia", Count: 2},
		{Name: "Netherlands", Count: 1},
	}
	if diff := cmp.Diff(wantCountries, got.TopCountries); diff != "" {
		t.Errorf("TopCountries mismatch (-want +got):\n%s", diff)
	}

	wantRisk := []core.CountStat{
		{Name: RiskMalicious, Count: 1},
		{Name: RiskSuspicious, Count: 1},
		{Name: RiskClean, Count: 2},
	}
	if diff := cmp.Diff(wantRisk, got.RiskStats); diff != "" {
		t.Errorf("RiskStats mismatch (-want +got):\n%s", diff)
	}

	// Geo failures and zero coordinates never produce map points.
	if len(got.MapPoints) != 3 {
		t.Fatalf("got %d map points, want 3", len(got.MapPoints))
	}
	if got.MapPoints[0].Color != "#dc3545" {
		t.Errorf("malicious point color = %q, want %q", got.MapPoints[0].Color, "#dc3545")
	}
	if got.MapPoints[1].Color != "#ffc107" {
		t.Errorf("suspicious point color = %q, want %q", got.MapPoints[1].Color, "#ffc107")
	}
	if got.MapPoints[2].Color != "#198754" {
		t.Errorf("clean point color = %q, want %q", got.MapPoints[2].Color, "#198754")
	}
}

func TestSummarizeEmpty(t *testing.T) {
	got := Summarize(nil)

	if got.CountriesCount != 0 || got.DomainsCount != 0 || got.MaliciousTotal != 0 {
		t.Errorf("empty summary has non-zero counts: %+v", got)
	}
	if got.AvgReputation != 0 {
		t.Errorf("AvgReputation = %v, want 0", got.AvgReputation)
	}
	if len(got.MapPoints) != 0 {
		t.Errorf("got %d map points, want 0", len(got.MapPoints))
	}
	wantRisk := []core.CountStat{
		{Name: RiskMalicious, Count: 0},
		{Name: RiskSuspicious, Count: 0},
		{Name: RiskClean, Count: 0},
	}
	if diff := cmp.Diff(wantRisk, got.RiskStats); diff != "" {
		t.Errorf("RiskStats mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarizeMapPointCap(t *testing.T) {
	artifacts := make([]core.Artifact, 250)
	for i := range artifacts {
		artifacts[i] = core.Artifact{
			Domain: fmt.Sprintf("host%d.example.com", i),
			Geo:    core.GeoSummary{OK: true, Country: "US", Lat: 40.0, Lon: -74.0},
		}
	}

	got := Summarize(artifacts)

	if len(got.MapPoints) != 200 {
		t.Errorf("got %d map points, want the 200 cap", len(got.MapPoints))
	}
}

func TestTopStats(t *testing.T) {
	counts := map[string]int{
		"cc": 3,
		"aa": 5,
		"bb": 3,
		"dd": 1,
	}

	got := topStats(counts, 3)

	want := []core.CountStat{
		{Name: "aa", Count: 5},
		{Name: "bb", Count: 3},
		{Name: "cc", Count: 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("topStats() mismatch (-want +got):\n%s", diff)
	}
}
