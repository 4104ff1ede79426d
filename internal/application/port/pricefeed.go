package port

import (
	"context"

	"tokenagg/internal/domain/model"
)

// Fetcher performs a GET against one upstream URL and returns the body.
// Implementations own retry policy.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Source is one configured upstream price feed.
type Source interface {
	Name() string
	URL(query string) string
}

// TokenAggregator merges all sources into canonical records for a query.
type TokenAggregator interface {
	Aggregate(ctx context.Context, query string) ([]model.TokenRecord, error)
}

// Decoder turns one upstream response body into normalized records in
// listing order. Listings without an identity address are dropped; an
// unrecognized body yields no records.
type Decoder interface {
	Decode(body []byte) []model.TokenRecord
}
