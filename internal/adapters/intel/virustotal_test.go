package intel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestVirusTotalDomainReport(t *testing.T) {
	var gotPath, gotAPIKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("x-apikey")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": {
				"attributes": {
					"last_analysis_stats": {"harmless": 60, "malicious": 5, "suspicious": 2, "undetected": 10},
					"reputation": -14
				}
			}
		}`))
	}))
	defer srv.Close()

	client := NewVirusTotalClient("test-key", 5*time.Second, zap.NewNop()).WithBaseURL(srv.URL)

	got := client.DomainReport(context.Background(), "evil.tk")

	if gotPath != "/domains/evil.tk" {
		t.Errorf("path = %q, want /domains/evil.tk", gotPath)
	}
	if gotAPIKey != "test-key" {
		t.Errorf("x-apikey = %q, want test-key", gotAPIKey)
	}
	if !got.OK {
		t.Fatalf("OK = false, error = %q", got.Error)
	}
	if got.Kind != "domain" {
		t.Errorf("Kind = %q, want domain", got.Kind)
	}
	if got.Stats.Malicious != 5 || got.Stats.Suspicious != 2 || got.Stats.Harmless != 60 {
		t.Errorf("Stats = %+v, want malicious 5, suspicious 2, harmless 60", got.Stats)
	}
	if got.Reputation == nil || *got.Reputation != -14 {
		t.Errorf("Reputation = %v, want -14", got.Reputation)
	}
	if got.Link != "https://www.virustotal.com/gui/domain/evil.tk" {
		t.Errorf("Link = %q", got.Link)
	}
}

func TestVirusTotalIPReport(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"data":{"attributes":{"last_analysis_stats":{"harmless":70}}}}`))
	}))
	defer srv.Close()

	client := NewVirusTotalClient("test-key", 5*time.Second, zap.NewNop()).WithBaseURL(srv.URL)

	got := client.IPReport(context.Background(), "1.2.3.4")

	if gotPath != "/ip_addresses/1.2.3.4" {
		t.Errorf("path = %q, want /ip_addresses/1.2.3.4", gotPath)
	}
	if !got.OK || got.Kind != "ip" {
		t.Errorf("got %+v, want OK ip summary", got)
	}
}

func TestVirusTotalMissingAPIKey(t *testing.T) {
	client := NewVirusTotalClient("", 5*time.Second, zap.NewNop())

	got := client.DomainReport(context.Background(), "example.com")

	if got.OK {
		t.Error("OK = true, want false without an API key")
	}
	if got.Error != "missing_vt_api_key" {
		t.Errorf("Error = %q, want missing_vt_api_key", got.Error)
	}
}

func TestVirusTotalErrorStatuses(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantError string
	}{
		{"rate limited", http.StatusTooManyRequests, `{}`, "vt_429"},
		{"not found", http.StatusNotFound, `{}`, "vt_404"},
		{"garbage body", http.StatusOK, `not json`, "bad_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewVirusTotalClient("test-key", 5*time.Second, zap.NewNop()).WithBaseURL(srv.URL)
			got := client.DomainReport(context.Background(), "example.com")

			if got.OK {
				t.Error("OK = true, want false")
			}
			if got.Error != tt.wantError {
				t.Errorf("Error = %q, want %q", got.Error, tt.wantError)
			}
		})
	}
}
