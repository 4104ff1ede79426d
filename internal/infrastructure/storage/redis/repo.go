package redis

import (
	"context"
	"errors"
	"time"

	"tokenagg/internal/application/port"

	"github.com/redis/go-redis/v9"
)

// Repo is a cache backend over a redis client. Keys are stored verbatim,
// values as strings with SET EX.
type Repo struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Repo {
	return &Repo{rdb: rdb}
}

// Dial creates a client and pings it.
func Dial(ctx context.Context, addr, password string, db int) (*Repo, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return New(rdb), nil
}

func (r *Repo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *Repo) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

func (r *Repo) Close() error { return r.rdb.Close() }

var _ port.Store = (*Repo)(nil)
