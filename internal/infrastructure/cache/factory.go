package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/slimatic/zakapp-sub001/internal/infrastructure/config"
)

// Key prefixes for the engine's stores
const (
	NisabPrefix = "zakat:nisab:"
	PricePrefix = "zakat:metal_price:"
	RatePrefix  = "zakat:fx_rate:"
)

// Factory builds stores on Redis when it is configured and reachable,
// and in memory otherwise.
type Factory struct {
	client        *redis.Client
	logger        *zap.Logger
	allowFallback bool
}

// FactoryOption configures a Factory
type FactoryOption func(*Factory)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// in-memory stores. Default true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) { f.allowFallback = allow }
}

// NewFactory connects to Redis when cfg.Enabled
func NewFactory(ctx context.Context, cfg config.RedisConfig, opts ...FactoryOption) (*Factory, error) {
	f := &Factory{logger: zap.NewNop(), allowFallback: true}
	for _, opt := range opts {
		opt(f)
	}
	if !cfg.Enabled {
		f.logger.Info("Redis disabled, using in-memory caches")
		return f, nil
	}

	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		if !f.allowFallback {
			return nil, fmt.Errorf("redis required but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory caches. "+
			"Cached nisab and stale prices will not be shared across instances.",
			zap.Error(err))
		return f, nil
	}
	f.logger.Info("Using Redis caches", zap.String("addr", cfg.Addr()))
	f.client = client
	return f, nil
}

// UsesRedis reports whether stores are Redis-backed
func (f *Factory) UsesRedis() bool {
	return f.client != nil
}

// Client returns the shared Redis client, or nil
func (f *Factory) Client() *redis.Client {
	return f.client
}

// Ping checks the backing store
func (f *Factory) Ping(ctx context.Context) error {
	if f.client == nil {
		return nil
	}
	return f.client.Ping(ctx).Err()
}

// Close releases the Redis connection
func (f *Factory) Close() error {
	if f.client == nil {
		return nil
	}
	return f.client.Close()
}

// NewStore returns a store for values of type T under prefix
func NewStore[T any](f *Factory, prefix string) Store[T] {
	if f != nil && f.client != nil {
		return NewRedisStore[T](f.client, prefix)
	}
	return NewMemoryStore[T]()
}
