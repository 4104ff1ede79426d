package svc

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"tokenagg/internal/infrastructure/config"
	"tokenagg/internal/infrastructure/storage/composite"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("config.Default: %v", err)
	}
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "cache.db")
	return cfg
}

func TestNewMemoryBackend(t *testing.T) {
	sc, err := New(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sc.Close()

	if sc.Tokens == nil || sc.Monitor == nil || sc.Aggregator == nil {
		t.Fatal("components not wired")
	}

	ctx := context.Background()
	if err := sc.Store.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok, err := sc.Store.Get(ctx, "k"); err != nil || !ok || string(v) != "v" {
		t.Fatalf("Get = %q, %v, %v", v, ok, err)
	}
}

func TestNewTieredBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Backend = "tiered"
	cfg.Cache.Tiers = []string{"memory", "sqlite"}

	sc, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sc.Close()

	if _, ok := sc.Store.(*composite.Repo); !ok {
		t.Fatalf("store = %T, want *composite.Repo", sc.Store)
	}
}

func TestNewUnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Backend = "memcached"

	_, err := New(context.Background(), cfg)
	if !errors.Is(err, ErrUnknownCacheBackend) || !errors.Is(err, ErrStorageInitFailed) {
		t.Fatalf("err = %v", err)
	}
}

func TestNestedTierRejected(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Backend = "tiered"
	cfg.Cache.Tiers = []string{"memory", "tiered"}

	_, err := New(context.Background(), cfg)
	if !errors.Is(err, ErrUnknownCacheBackend) {
		t.Fatalf("err = %v", err)
	}
}

func TestBuildDepsFollowConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Monitor.PollIntervalSec = 7
	cfg.Pagination.MaxLimit = 42

	sc, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sc.Close()

	if d := sc.BuildMonitorServiceDeps(); d.Config.Interval != 7*time.Second {
		t.Errorf("interval = %v", d.Config.Interval)
	}
	if d := sc.BuildTokensServiceDeps(); d.MaxLimit != 42 || d.KeyPrefix != "tokens" {
		t.Errorf("tokens deps = %+v", d)
	}
}
