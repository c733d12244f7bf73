package cache

import (
	"context"
	"time"
)

// Store is a typed key/value cache with per-entry TTL.
// A miss is reported with ok == false and a nil error.
type Store[T any] interface {
	Get(ctx context.Context, key string) (value T, ok bool, err error)
	Set(ctx context.Context, key string, value T, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
