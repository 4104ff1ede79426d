package port

import (
	"context"
	"time"
)

// Store is an opaque key/value backend with per-key TTL.
// Get reports ok=false on a miss or an expired key.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Cache stores JSON-serializable values over a Store.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}
