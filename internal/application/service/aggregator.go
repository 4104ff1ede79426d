package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"tokenagg/internal/application/port"
	"tokenagg/internal/domain/model"

	"github.com/rs/zerolog/log"
)

type AggregatorDeps struct {
	Sources []port.Source
	Fetcher port.Fetcher
	Decoder port.Decoder
	Metrics port.Metrics
}

// Aggregator fans a query out to every source and merges the answers into
// one record per address.
type Aggregator struct {
	sources []port.Source
	fetcher port.Fetcher
	decoder port.Decoder
	metrics port.Metrics
}

func NewAggregator(deps AggregatorDeps) *Aggregator {
	if deps.Metrics == nil {
		deps.Metrics = port.NopMetrics{}
	}
	return &Aggregator{
		sources: deps.Sources,
		fetcher: deps.Fetcher,
		decoder: deps.Decoder,
		metrics: deps.Metrics,
	}
}

// Aggregate fetches all sources in parallel and waits for every one to
// finish. Failed sources are logged and skipped; if all fail the result is
// empty. The only error is ctx's, when it ends before the fan-in completes.
func (a *Aggregator) Aggregate(ctx context.Context, query string) ([]model.TokenRecord, error) {
	perSource := make([][]model.TokenRecord, len(a.sources))

	var g errgroup.Group
	for i, src := range a.sources {
		g.Go(func() error {
			start := time.Now()
			body, err := a.fetcher.Fetch(ctx, src.URL(query))
			a.metrics.SourceResult(src.Name(), err, time.Since(start))
			if err != nil {
				log.Warn().
					Str("source", src.Name()).
					Str("query", query).
					Err(err).
					Msg("source fetch failed")
				return nil
			}
			perSource[i] = a.decoder.Decode(body)
			return nil
		})
	}
	// source errors are absorbed per goroutine, so Wait only joins
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Merge(perSource...), nil
}

// Merge deduplicates records by address across batches given in source
// declaration order. A later record replaces an earlier one entirely but
// keeps the position where the address first appeared.
func Merge(batches ...[]model.TokenRecord) []model.TokenRecord {
	pos := make(map[string]int)
	var out []model.TokenRecord
	for _, batch := range batches {
		for _, rec := range batch {
			if rec.Address == "" {
				continue
			}
			if i, ok := pos[rec.Address]; ok {
				out[i] = rec
				continue
			}
			pos[rec.Address] = len(out)
			out = append(out, rec)
		}
	}
	if out == nil {
		out = []model.TokenRecord{}
	}
	return out
}

var _ port.TokenAggregator = (*Aggregator)(nil)
