package storage

import (
	"context"
	"encoding/json"
	"time"

	"tokenagg/internal/application/port"
)

// JSONCache stores JSON-encoded values in a port.Store.
type JSONCache struct {
	store port.Store
}

func NewJSONCache(store port.Store) *JSONCache {
	return &JSONCache{store: store}
}

// GetJSON decodes the value at key into dst. A miss, an expired key or an
// entry that no longer decodes all report false without error.
func (c *JSONCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, nil
	}
	return true, nil
}

func (c *JSONCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, key, b, ttl)
}

var _ port.Cache = (*JSONCache)(nil)
