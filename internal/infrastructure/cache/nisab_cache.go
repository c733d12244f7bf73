package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/slimatic/zakapp-sub001/internal/domain/zakat"
)

// NisabCache adapts a Store to zakat.NisabCache. Store errors are logged
// and treated as misses.
type NisabCache struct {
	store  Store[zakat.NisabInfo]
	logger *zap.Logger
}

// NewNisabCache wraps store
func NewNisabCache(store Store[zakat.NisabInfo], logger *zap.Logger) *NisabCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NisabCache{store: store, logger: logger}
}

// Get implements zakat.NisabCache
func (c *NisabCache) Get(ctx context.Context, key string) (zakat.NisabInfo, bool) {
	info, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Nisab cache read failed", zap.String("key", key), zap.Error(err))
		return zakat.NisabInfo{}, false
	}
	return info, ok
}

// Set implements zakat.NisabCache
func (c *NisabCache) Set(ctx context.Context, key string, info zakat.NisabInfo, ttl time.Duration) {
	if err := c.store.Set(ctx, key, info, ttl); err != nil {
		c.logger.Warn("Nisab cache write failed", zap.String("key", key), zap.Error(err))
	}
}
