package svc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"tokenagg/internal/application/port"
	"tokenagg/internal/application/service"
	"tokenagg/internal/application/usecase/monitor"
	"tokenagg/internal/application/usecase/tokens"
	"tokenagg/internal/domain/model"
	dsvc "tokenagg/internal/domain/service"
	"tokenagg/internal/infrastructure/config"
	"tokenagg/internal/infrastructure/fetch"
	"tokenagg/internal/infrastructure/observability"
	"tokenagg/internal/infrastructure/source"
	"tokenagg/internal/infrastructure/storage"
	"tokenagg/internal/infrastructure/storage/composite"
	"tokenagg/internal/infrastructure/storage/memory"
	pgrepo "tokenagg/internal/infrastructure/storage/postgres"
	redisrepo "tokenagg/internal/infrastructure/storage/redis"
	sqliterepo "tokenagg/internal/infrastructure/storage/sqlite"
)

const sweepInterval = time.Minute

var defaultTiers = []string{"memory", "redis"}

type ServiceContext struct {
	Ctx    context.Context
	Config *config.Config

	Metrics    *observability.Metrics
	Fetcher    *fetch.Client
	Aggregator *service.Aggregator
	Store      port.Store

	Tokens  *tokens.Service
	Monitor *monitor.Service

	cancel      context.CancelFunc
	closerChain []func() error
}

// New wires every component from cfg. On failure anything already opened is
// closed before returning.
func New(ctx context.Context, cfg *config.Config) (*ServiceContext, error) {
	ctx, cancel := context.WithCancel(ctx)
	sc := &ServiceContext{
		Ctx:         ctx,
		Config:      cfg,
		Metrics:     observability.NewMetrics("tokenagg"),
		cancel:      cancel,
		closerChain: make([]func() error, 0),
	}

	if err := sc.initializeComponents(); err != nil {
		_ = sc.Close()
		return nil, err
	}
	return sc, nil
}

func (sc *ServiceContext) initializeComponents() error {
	cfg := sc.Config

	store, err := sc.openStore(cfg.Cache.Backend, true)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageInitFailed, err)
	}
	sc.Store = store
	sc.closerChain = append(sc.closerChain, func() error {
		log.Info().Str("backend", cfg.Cache.Backend).Msg("closing cache store")
		return store.Close()
	})

	sc.Fetcher = fetch.New(
		fetch.WithRetries(cfg.Fetch.MaxRetries, cfg.InitialBackoff()),
		fetch.WithTimeout(cfg.FetchTimeout()),
		fetch.WithMetrics(sc.Metrics),
	)

	endpoints := cfg.Endpoints()
	sources := make([]port.Source, 0, len(endpoints))
	for _, ep := range endpoints {
		sources = append(sources, ep)
	}
	sc.Aggregator = service.NewAggregator(service.AggregatorDeps{
		Sources: sources,
		Fetcher: sc.Fetcher,
		Decoder: source.JSONDecoder{},
		Metrics: sc.Metrics,
	})

	sc.Tokens = tokens.NewService(sc.BuildTokensServiceDeps())
	sc.Monitor = monitor.NewService(sc.BuildMonitorServiceDeps())

	log.Info().
		Int("sources", len(sources)).
		Str("cache", cfg.Cache.Backend).
		Msg("all components initialized")
	return nil
}

// openStore opens the named backend. Tiered is only allowed at the top.
func (sc *ServiceContext) openStore(backend string, allowTiered bool) (port.Store, error) {
	cfg := sc.Config

	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "memory":
		st := memory.New()
		sc.startSweeper("memory", func(context.Context) (int64, error) {
			return int64(st.DeleteExpired()), nil
		})
		return st, nil

	case "redis":
		repo, err := redisrepo.Dial(sc.Ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		log.Info().Str("addr", cfg.Redis.Addr).Int("db", cfg.Redis.DB).Msg("redis initialized")
		return repo, nil

	case "sqlite":
		repo, err := sqliterepo.New(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite %s: %w", cfg.SQLite.Path, err)
		}
		sc.startSweeper("sqlite", repo.DeleteExpired)
		log.Info().Str("path", cfg.SQLite.Path).Msg("sqlite initialized")
		return repo, nil

	case "postgres":
		repo, err := pgrepo.New(cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		sc.startSweeper("postgres", repo.DeleteExpired)
		log.Info().Msg("postgres initialized")
		return repo, nil

	case "tiered":
		if !allowTiered {
			break
		}
		names := cfg.Cache.Tiers
		if len(names) == 0 {
			names = defaultTiers
		}
		tiers := make([]port.Store, 0, len(names))
		for _, name := range names {
			st, err := sc.openStore(name, false)
			if err != nil {
				for _, t := range tiers {
					_ = t.Close()
				}
				return nil, fmt.Errorf("tier %s: %w", name, err)
			}
			tiers = append(tiers, st)
		}
		log.Info().Strs("tiers", names).Msg("tiered cache initialized")
		return composite.New(tiers...), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCacheBackend, backend)
}

// startSweeper purges expired cache rows until the context ends.
func (sc *ServiceContext) startSweeper(name string, fn func(context.Context) (int64, error)) {
	go func() {
		t := time.NewTicker(sweepInterval)
		defer t.Stop()
		for {
			select {
			case <-sc.Ctx.Done():
				return
			case <-t.C:
				n, err := fn(sc.Ctx)
				if err != nil {
					log.Warn().Err(err).Str("backend", name).Msg("cache sweep failed")
					continue
				}
				if n > 0 {
					log.Debug().Int64("removed", n).Str("backend", name).Msg("cache sweep")
				}
			}
		}
	}()
}

func (sc *ServiceContext) BuildTokensServiceDeps() tokens.ServiceDeps {
	cfg := sc.Config
	return tokens.ServiceDeps{
		Aggregator:    sc.Aggregator,
		Cache:         storage.NewJSONCache(sc.Store),
		CacheTTL:      cfg.CacheTTL(),
		KeyPrefix:     cfg.Cache.KeyPrefix,
		DefaultWindow: model.Window(cfg.Pagination.DefaultWindow),
		DefaultSort:   model.SortBy(cfg.Pagination.DefaultSort),
		DefaultLimit:  cfg.Pagination.DefaultLimit,
		MaxLimit:      cfg.Pagination.MaxLimit,
		Metrics:       sc.Metrics,
	}
}

func (sc *ServiceContext) BuildMonitorServiceDeps() monitor.ServiceDeps {
	cfg := sc.Config
	return monitor.ServiceDeps{
		Aggregator: sc.Aggregator,
		Config: monitor.Config{
			Interval: cfg.PollInterval(),
			Thresholds: dsvc.SpikeThresholds{
				PriceChange:  cfg.Monitor.PriceSpikeThreshold,
				VolumeFactor: cfg.Monitor.VolumeSpikeFactor,
			},
		},
		Metrics: sc.Metrics,
	}
}

// Close stops the monitor, then releases resources in reverse order.
func (sc *ServiceContext) Close() error {
	log.Info().Msg("shutting down service context")

	if sc.Monitor != nil {
		_ = sc.Monitor.Close()
	}
	if sc.cancel != nil {
		sc.cancel()
	}

	for i := len(sc.closerChain) - 1; i >= 0; i-- {
		if err := sc.closerChain[i](); err != nil {
			log.Error().Err(err).Msg("error closing resource")
		}
	}
	sc.closerChain = nil
	return nil
}
