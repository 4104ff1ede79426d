package tokens

import (
	"context"
	"errors"
	"strings"
	"time"

	"tokenagg/internal/application/port"
	"tokenagg/internal/domain/model"
	dsvc "tokenagg/internal/domain/service"

	"github.com/rs/zerolog/log"
)

var ErrEmptyQuery = errors.New("query is empty")

const (
	SourceCache = "cache"
	SourceLive  = "live"
)

type ServiceDeps struct {
	Aggregator port.TokenAggregator
	Cache      port.Cache // optional
	CacheTTL   time.Duration
	KeyPrefix  string

	DefaultWindow model.Window
	DefaultSort   model.SortBy
	DefaultLimit  int
	MaxLimit      int

	Metrics port.Metrics
}

// Request is one pull-path query. Zero values take the service defaults.
type Request struct {
	Query  string
	Window model.Window
	SortBy model.SortBy
	Limit  int
	Cursor string
}

type Result struct {
	Source string // SourceCache or SourceLive
	Page   model.Page
}

// Service answers paginated token listings, caching the unfiltered aggregate
// per (query, window).
type Service struct {
	deps ServiceDeps
}

func NewService(deps ServiceDeps) *Service {
	if !deps.DefaultWindow.Valid() {
		deps.DefaultWindow = model.Window24h
	}
	if !deps.DefaultSort.Valid() {
		deps.DefaultSort = model.SortVolume
	}
	if deps.DefaultLimit <= 0 {
		deps.DefaultLimit = 20
	}
	if deps.MaxLimit < deps.DefaultLimit {
		deps.MaxLimit = deps.DefaultLimit
	}
	if deps.KeyPrefix == "" {
		deps.KeyPrefix = "tokens"
	}
	if deps.Metrics == nil {
		deps.Metrics = port.NopMetrics{}
	}
	return &Service{deps: deps}
}

// Normalize applies defaults and clamps the limit.
func (s *Service) Normalize(req Request) Request {
	req.Query = strings.TrimSpace(req.Query)
	if !req.Window.Valid() {
		req.Window = s.deps.DefaultWindow
	}
	if !req.SortBy.Valid() {
		req.SortBy = s.deps.DefaultSort
	}
	if req.Limit <= 0 {
		req.Limit = s.deps.DefaultLimit
	}
	if req.Limit > s.deps.MaxLimit {
		req.Limit = s.deps.MaxLimit
	}
	return req
}

func (s *Service) List(ctx context.Context, req Request) (Result, error) {
	req = s.Normalize(req)
	if req.Query == "" {
		return Result{}, ErrEmptyQuery
	}

	records, source, err := s.load(ctx, req)
	if err != nil {
		return Result{}, err
	}
	page := dsvc.Paginate(records, req.Window, req.SortBy, req.Limit, req.Cursor)
	return Result{Source: source, Page: page}, nil
}

func (s *Service) load(ctx context.Context, req Request) ([]model.TokenRecord, string, error) {
	key := s.cacheKey(req)

	if s.deps.Cache != nil {
		var cached []model.TokenRecord
		hit, err := s.deps.Cache.GetJSON(ctx, key, &cached)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache read failed, treating as miss")
		}
		s.deps.Metrics.CacheLookup(hit)
		if hit {
			return cached, SourceCache, nil
		}
	}

	records, err := s.deps.Aggregator.Aggregate(ctx, req.Query)
	if err != nil {
		return nil, "", err
	}

	if s.deps.Cache != nil {
		if err := s.deps.Cache.SetJSON(ctx, key, records, s.deps.CacheTTL); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}
	return records, SourceLive, nil
}

func (s *Service) cacheKey(req Request) string {
	return s.deps.KeyPrefix + ":" + req.Query + ":" + string(req.Window)
}
