package intel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestOpenPhishContains(t *testing.T) {
	var fetches atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		w.Write([]byte("# comment line\nhttp://evil.tk/login\nhttps://phish.example.com/verify\n\n"))
	}))
	defer srv.Close()

	client := NewOpenPhishClient(5*time.Second, zap.NewNop()).WithFeedURL(srv.URL)
	ctx := context.Background()

	got := client.Contains(ctx, "evil.tk")
	if !got.OK || !got.Listed {
		t.Errorf("Contains(evil.tk) = %+v, want OK listed", got)
	}
	if got.Feed != "openphish" {
		t.Errorf("Feed = %q, want openphish", got.Feed)
	}

	got = client.Contains(ctx, "good.example.org")
	if !got.OK || got.Listed {
		t.Errorf("Contains(good.example.org) = %+v, want OK not listed", got)
	}

	// The feed snapshot is memoized across checks.
	if n := fetches.Load(); n != 1 {
		t.Errorf("feed fetched %d times, want 1", n)
	}
}

func TestOpenPhishFeedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewOpenPhishClient(5*time.Second, zap.NewNop()).WithFeedURL(srv.URL)

	got := client.Contains(context.Background(), "evil.tk")
	if got.OK {
		t.Error("OK = true, want false on feed failure")
	}
	if got.Error != "feed_502" {
		t.Errorf("Error = %q, want feed_502", got.Error)
	}
}
