package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"tokenagg/internal/domain/model"
	"tokenagg/internal/infrastructure/source"

	"github.com/BurntSushi/toml"
)

var ErrNoSources = errors.New("no enabled sources")

type SourceConfig struct {
	Name    string `toml:"name"`
	URL     string `toml:"url"` // template with {query}; empty uses the built-in one
	Enabled *bool  `toml:"enabled"`
}

func (s SourceConfig) IsEnabled() bool { return s.Enabled == nil || *s.Enabled }

type Config struct {
	App struct {
		Listen     string `toml:"listen"`
		LogLevel   string `toml:"log_level"`
		PrettyLogs bool   `toml:"pretty_logs"`
	} `toml:"app"`

	Sources struct {
		List []SourceConfig `toml:"list"`
	} `toml:"sources"`

	Fetch struct {
		MaxRetries       int `toml:"max_retries"`
		InitialBackoffMs int `toml:"initial_backoff_ms"`
		TimeoutMs        int `toml:"timeout_ms"`
	} `toml:"fetch"`

	Pagination struct {
		DefaultWindow string `toml:"default_window"`
		DefaultSort   string `toml:"default_sort"`
		DefaultLimit  int    `toml:"default_limit"`
		MaxLimit      int    `toml:"max_limit"`
	} `toml:"pagination"`

	Monitor struct {
		PollIntervalSec     int     `toml:"poll_interval_sec"`
		PriceSpikeThreshold float64 `toml:"price_spike_threshold"`
		VolumeSpikeFactor   float64 `toml:"volume_spike_factor"`
	} `toml:"monitor"`

	Cache struct {
		Backend   string   `toml:"backend"` // memory | redis | sqlite | postgres | tiered
		TTLSec    int      `toml:"ttl_sec"`
		KeyPrefix string   `toml:"key_prefix"`
		Tiers     []string `toml:"tiers"` // for tiered, fastest first
	} `toml:"cache"`

	Redis struct {
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
	} `toml:"redis"`

	SQLite struct {
		Path string `toml:"path"`
	} `toml:"sqlite"`

	Postgres struct {
		DSN string `toml:"dsn"`
	} `toml:"postgres"`
}

// Load reads path, applies defaults and environment overrides, and validates.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	return finish(&cfg)
}

// LoadOrDefault behaves like Load but a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default()
	}
	return cfg, err
}

func Default() (*Config, error) {
	return finish(&Config{})
}

func finish(cfg *Config) (*Config, error) {
	applyDefaults(cfg)
	applyEnv(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Listen == "" {
		cfg.App.Listen = ":8080"
	}
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = "info"
	}
	if len(cfg.Sources.List) == 0 {
		for _, name := range source.Names() {
			cfg.Sources.List = append(cfg.Sources.List, SourceConfig{Name: name})
		}
	}
	if cfg.Fetch.MaxRetries <= 0 {
		cfg.Fetch.MaxRetries = 3
	}
	if cfg.Fetch.InitialBackoffMs <= 0 {
		cfg.Fetch.InitialBackoffMs = 500
	}
	if cfg.Fetch.TimeoutMs <= 0 {
		cfg.Fetch.TimeoutMs = 10000
	}
	if cfg.Pagination.DefaultWindow == "" {
		cfg.Pagination.DefaultWindow = string(model.Window24h)
	}
	if cfg.Pagination.DefaultSort == "" {
		cfg.Pagination.DefaultSort = string(model.SortVolume)
	}
	if cfg.Pagination.DefaultLimit <= 0 {
		cfg.Pagination.DefaultLimit = 20
	}
	if cfg.Pagination.MaxLimit <= 0 {
		cfg.Pagination.MaxLimit = 100
	}
	if cfg.Monitor.PollIntervalSec <= 0 {
		cfg.Monitor.PollIntervalSec = 30
	}
	if cfg.Monitor.PriceSpikeThreshold <= 0 {
		cfg.Monitor.PriceSpikeThreshold = 0.005
	}
	if cfg.Monitor.VolumeSpikeFactor <= 0 {
		cfg.Monitor.VolumeSpikeFactor = 2
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.TTLSec <= 0 {
		cfg.Cache.TTLSec = 30
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = "tokens"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = "data/tokenagg.db"
	}
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("TOKENAGG_LISTEN")); v != "" {
		cfg.App.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv("TOKENAGG_REDIS_ADDR")); v != "" {
		cfg.Redis.Addr = v
	}
}

func validate(cfg *Config) error {
	cfg.Sources.List = normalizeSources(cfg.Sources.List)
	if len(cfg.EnabledSources()) == 0 {
		return ErrNoSources
	}
	for _, s := range cfg.Sources.List {
		if s.IsEnabled() && s.URL == "" {
			return fmt.Errorf("sources: %q has no url and is not a built-in source", s.Name)
		}
	}

	w, err := model.ParseWindow(cfg.Pagination.DefaultWindow)
	if err != nil {
		return fmt.Errorf("pagination.default_window: %w", err)
	}
	cfg.Pagination.DefaultWindow = string(w)

	sb, err := model.ParseSortBy(cfg.Pagination.DefaultSort)
	if err != nil {
		return fmt.Errorf("pagination.default_sort: %w", err)
	}
	cfg.Pagination.DefaultSort = string(sb)

	if cfg.Pagination.MaxLimit < cfg.Pagination.DefaultLimit {
		return fmt.Errorf("pagination.max_limit %d < default_limit %d", cfg.Pagination.MaxLimit, cfg.Pagination.DefaultLimit)
	}

	cfg.Cache.Backend = strings.ToLower(strings.TrimSpace(cfg.Cache.Backend))
	if cfg.Cache.Backend == "postgres" && strings.TrimSpace(cfg.Postgres.DSN) == "" {
		return errors.New("postgres.dsn empty but cache.backend is postgres")
	}
	return nil
}

// normalizeSources lower-cases names, drops duplicates (first wins) and fills
// empty URLs from the built-in registry. Declaration order is kept.
func normalizeSources(in []SourceConfig) []SourceConfig {
	out := make([]SourceConfig, 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		s.Name = strings.ToLower(strings.TrimSpace(s.Name))
		s.URL = strings.TrimSpace(s.URL)
		if s.Name == "" {
			continue
		}
		if _, ok := seen[s.Name]; ok {
			continue
		}
		seen[s.Name] = struct{}{}
		if s.URL == "" {
			if tpl, ok := source.Lookup(s.Name); ok {
				s.URL = tpl
			}
		}
		out = append(out, s)
	}
	return out
}

func (c *Config) EnabledSources() []SourceConfig {
	var out []SourceConfig
	for _, s := range c.Sources.List {
		if s.IsEnabled() {
			out = append(out, s)
		}
	}
	return out
}

// Endpoints resolves the enabled sources in declaration order.
func (c *Config) Endpoints() []source.Endpoint {
	enabled := c.EnabledSources()
	out := make([]source.Endpoint, 0, len(enabled))
	for _, s := range enabled {
		out = append(out, source.Endpoint{SourceName: s.Name, URLTemplate: s.URL})
	}
	return out
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSec) * time.Second
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Monitor.PollIntervalSec) * time.Second
}

func (c *Config) InitialBackoff() time.Duration {
	return time.Duration(c.Fetch.InitialBackoffMs) * time.Millisecond
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutMs) * time.Millisecond
}
