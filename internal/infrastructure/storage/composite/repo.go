package composite

import (
	"context"
	"errors"
	"time"

	"tokenagg/internal/application/port"
)

// Repo layers several stores, fastest first. Reads return the first hit;
// writes go to every tier.
type Repo struct {
	repos []port.Store
}

func New(repos ...port.Store) *Repo {
	// nil tiers are skipped
	out := make([]port.Store, 0, len(repos))
	for _, r := range repos {
		if r != nil {
			out = append(out, r)
		}
	}
	return &Repo{repos: out}
}

// Get tries each tier in order. A failing tier is skipped; its error is
// returned only if no later tier hits.
func (r *Repo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var firstErr error
	for _, repo := range r.repos {
		v, ok, err := repo.Get(ctx, key)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok {
			return v, true, nil
		}
	}
	return nil, false, firstErr
}

func (r *Repo) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.Set(ctx, key, value, ttl); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) Close() error {
	var errs []error
	for i := len(r.repos) - 1; i >= 0; i-- {
		if err := r.repos[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ port.Store = (*Repo)(nil)
