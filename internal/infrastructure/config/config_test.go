package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	if cfg.Fetch.MaxRetries != 3 || cfg.InitialBackoff() != 500*time.Millisecond {
		t.Errorf("fetch defaults = %+v", cfg.Fetch)
	}
	if cfg.Pagination.DefaultWindow != "24h" || cfg.Pagination.DefaultSort != "volume" || cfg.Pagination.DefaultLimit != 20 {
		t.Errorf("pagination defaults = %+v", cfg.Pagination)
	}
	if cfg.PollInterval() != 30*time.Second {
		t.Errorf("poll interval = %v", cfg.PollInterval())
	}
	if cfg.Monitor.PriceSpikeThreshold != 0.005 || cfg.Monitor.VolumeSpikeFactor != 2 {
		t.Errorf("monitor defaults = %+v", cfg.Monitor)
	}
	if cfg.Cache.Backend != "memory" || cfg.CacheTTL() != 30*time.Second || cfg.Cache.KeyPrefix != "tokens" {
		t.Errorf("cache defaults = %+v", cfg.Cache)
	}

	eps := cfg.Endpoints()
	if len(eps) != 2 || eps[0].SourceName != "dexscreener" || eps[1].SourceName != "geckoterminal" {
		t.Fatalf("default endpoints = %+v", eps)
	}
}

func TestLoadSourcesKeepDeclarationOrder(t *testing.T) {
	path := writeConfig(t, `
[[sources.list]]
name = "GeckoTerminal"

[[sources.list]]
name = "custom"
url = "https://example.test/search?q={query}"

[[sources.list]]
name = "dexscreener"
enabled = false

[[sources.list]]
name = "custom"
url = "https://dup.test/{query}"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	eps := cfg.Endpoints()
	if len(eps) != 2 {
		t.Fatalf("endpoints = %+v", eps)
	}
	if eps[0].SourceName != "geckoterminal" || eps[0].URLTemplate == "" {
		t.Errorf("first endpoint = %+v", eps[0])
	}
	if eps[1].SourceName != "custom" || eps[1].URL("pepe") != "https://example.test/search?q=pepe" {
		t.Errorf("second endpoint = %+v", eps[1])
	}
}

func TestLoadRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		body string
		is   error
	}{
		{
			name: "all disabled",
			body: "[[sources.list]]\nname = \"dexscreener\"\nenabled = false\n",
			is:   ErrNoSources,
		},
		{
			name: "unknown source without url",
			body: "[[sources.list]]\nname = \"nowhere\"\n",
		},
		{
			name: "bad window",
			body: "[pagination]\ndefault_window = \"2d\"\n",
		},
		{
			name: "max below default",
			body: "[pagination]\ndefault_limit = 50\nmax_limit = 10\n",
		},
		{
			name: "postgres without dsn",
			body: "[cache]\nbackend = \"postgres\"\n",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.is != nil && !errors.Is(err, tc.is) {
				t.Fatalf("err = %v, want %v", err, tc.is)
			}
		})
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if cfg.App.Listen != ":8080" {
		t.Errorf("listen = %q", cfg.App.Listen)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TOKENAGG_LISTEN", ":9999")
	t.Setenv("TOKENAGG_REDIS_ADDR", "redis:6380")

	cfg, err := Load(writeConfig(t, "[app]\nlisten = \":1234\"\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Listen != ":9999" || cfg.Redis.Addr != "redis:6380" {
		t.Errorf("env overrides not applied: listen=%q redis=%q", cfg.App.Listen, cfg.Redis.Addr)
	}
}
