package intel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestPhishTankCheckURL(t *testing.T) {
	var gotURL, gotAppKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		gotURL = r.PostFormValue("url")
		gotAppKey = r.PostFormValue("app_key")
		w.Write([]byte(`{"results": {"in_database": true, "verified": true}}`))
	}))
	defer srv.Close()

	client := NewPhishTankClient("app-key", 5*time.Second, zap.NewNop()).WithBaseURL(srv.URL)

	got := client.CheckURL(context.Background(), "http://evil.tk/login")

	if gotURL != "http://evil.tk/login" {
		t.Errorf("posted url = %q", gotURL)
	}
	if gotAppKey != "app-key" {
		t.Errorf("posted app_key = %q, want app-key", gotAppKey)
	}
	if !got.OK || !got.InDatabase || !got.Verified {
		t.Errorf("got %+v, want OK verified in-database report", got)
	}
}

func TestPhishTankOmitsEmptyAppKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if _, present := r.PostForm["app_key"]; present {
			t.Error("app_key sent despite being empty")
		}
		w.Write([]byte(`{"results": {"in_database": false, "verified": false}}`))
	}))
	defer srv.Close()

	client := NewPhishTankClient("", 5*time.Second, zap.NewNop()).WithBaseURL(srv.URL)

	got := client.CheckURL(context.Background(), "http://example.com/")
	if !got.OK || got.InDatabase {
		t.Errorf("got %+v, want OK clean report", got)
	}
}

func TestPhishTankHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewPhishTankClient("", 5*time.Second, zap.NewNop()).WithBaseURL(srv.URL)

	got := client.CheckURL(context.Background(), "http://example.com/")
	if got.OK {
		t.Error("OK = true, want false")
	}
	if got.Error != "phishtank_403" {
		t.Errorf("Error = %q, want phishtank_403", got.Error)
	}
}
