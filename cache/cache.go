package cache

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("cache: key not found")

// Store represents a simple TTL-based key-value cache that can be backed
// by memory, Redis, or any other expiring KV store. Get reports a missing
// or expired key as ErrNotFound; any other error means the backend itself
// is unavailable. Deleting an absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
