package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestMemoryCacheGetSet(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), time.Hour, 0)
	ctx := context.Background()

	if _, err := c.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	payload := json.RawMessage(`{"ok":true}`)
	if err := c.Set(ctx, "vt:domain:example.com", payload); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	entry, err := c.Get(ctx, "vt:domain:example.com")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(entry.Payload) != string(payload) {
		t.Errorf("Payload = %s, want %s", entry.Payload, payload)
	}
	if entry.Key != "vt:domain:example.com" {
		t.Errorf("Key = %q, want %q", entry.Key, "vt:domain:example.com")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache(zap.NewNop(), 24*time.Hour, 0).WithClock(func() time.Time { return now })
	ctx := context.Background()

	if err := c.Set(ctx, "k", json.RawMessage(`1`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Just inside the TTL.
	now = now.Add(24 * time.Hour)
	if _, err := c.Get(ctx, "k"); err != nil {
		t.Errorf("Get() at TTL boundary error = %v, want entry", err)
	}

	// Past the TTL the entry is gone for good.
	now = now.Add(time.Second)
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() past TTL error = %v, want ErrNotFound", err)
	}

	// Even if the clock rolls back, the lazy delete already removed it.
	now = now.Add(-time.Hour)
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after lazy delete error = %v, want ErrNotFound", err)
	}
}

func TestMemoryCacheSetOverwrites(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), time.Hour, 0)
	ctx := context.Background()

	if err := c.Set(ctx, "k", json.RawMessage(`"old"`)); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", json.RawMessage(`"new"`)); err != nil {
		t.Fatal(err)
	}

	entry, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(entry.Payload) != `"new"` {
		t.Errorf("Payload = %s, want \"new\"", entry.Payload)
	}
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), time.Hour, 0)
	ctx := context.Background()

	if err := c.Set(ctx, "k", json.RawMessage(`1`)); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
}

func TestMemoryCacheCleanup(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache(zap.NewNop(), time.Hour, 0).WithClock(func() time.Time { return now })
	ctx := context.Background()

	if err := c.Set(ctx, "old", json.RawMessage(`1`)); err != nil {
		t.Fatal(err)
	}
	now = now.Add(2 * time.Hour)
	if err := c.Set(ctx, "fresh", json.RawMessage(`2`)); err != nil {
		t.Fatal(err)
	}

	if err := c.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}

	if _, err := c.Get(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired entry survived cleanup: %v", err)
	}
	if _, err := c.Get(ctx, "fresh"); err != nil {
		t.Errorf("fresh entry removed by cleanup: %v", err)
	}
}
