package currency

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/slimatic/zakapp-sub001/internal/domain/zakat"
	"github.com/slimatic/zakapp-sub001/internal/infrastructure/cache"
)

// ChainRateSource serves cached rates, then asks each source in order and
// caches the first answer.
type ChainRateSource struct {
	sources []zakat.CurrencyRateSource
	cache   cache.Store[decimal.Decimal]
	ttl     time.Duration
	logger  *zap.Logger
}

// NewChainRateSource creates the chain. A nil store disables caching.
func NewChainRateSource(store cache.Store[decimal.Decimal], ttl time.Duration, logger *zap.Logger, sources ...zakat.CurrencyRateSource) *ChainRateSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChainRateSource{sources: sources, cache: store, ttl: ttl, logger: logger}
}

// Rate implements zakat.CurrencyRateSource
func (c *ChainRateSource) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from, to, err := pair(from, to)
	if err != nil {
		return decimal.Zero, err
	}
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	key := from + ":" + to
	if c.cache != nil {
		if rate, ok, err := c.cache.Get(ctx, key); err == nil && ok {
			return rate, nil
		} else if err != nil {
			c.logger.Debug("Rate cache read failed", zap.String("pair", key), zap.Error(err))
		}
	}

	var errs []error
	for _, src := range c.sources {
		rate, err := src.Rate(ctx, from, to)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if c.cache != nil {
			if err := c.cache.Set(ctx, key, rate, c.ttl); err != nil {
				c.logger.Debug("Rate cache write failed", zap.String("pair", key), zap.Error(err))
			}
		}
		return rate, nil
	}
	if len(errs) == 0 {
		return decimal.Zero, ErrRateUnavailable
	}
	return decimal.Zero, errors.Join(errs...)
}
