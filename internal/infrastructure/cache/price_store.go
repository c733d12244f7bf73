package cache

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/slimatic/zakapp-sub001/internal/domain/zakat"
)

// PriceStore keeps the last live metal quote per metal and currency so the
// stale tier has something to serve when live sources fail.
type PriceStore struct {
	store  Store[zakat.PriceQuote]
	ttl    time.Duration
	logger *zap.Logger
}

// NewPriceStore wraps store. Quotes older than ttl are forgotten.
func NewPriceStore(store Store[zakat.PriceQuote], ttl time.Duration, logger *zap.Logger) *PriceStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PriceStore{store: store, ttl: ttl, logger: logger}
}

// PriceKey is the store key for a metal and currency
func PriceKey(metal zakat.Metal, currency string) string {
	return string(metal) + ":" + strings.ToUpper(currency)
}

// Remember stores q as the latest known quote
func (p *PriceStore) Remember(ctx context.Context, q zakat.PriceQuote) {
	if err := p.store.Set(ctx, PriceKey(q.Metal, q.Currency), q, p.ttl); err != nil {
		p.logger.Warn("Failed to remember metal price",
			zap.String("metal", string(q.Metal)),
			zap.String("currency", q.Currency),
			zap.Error(err))
	}
}

// Last returns the latest remembered quote
func (p *PriceStore) Last(ctx context.Context, metal zakat.Metal, currency string) (zakat.PriceQuote, bool) {
	q, ok, err := p.store.Get(ctx, PriceKey(metal, currency))
	if err != nil {
		p.logger.Warn("Failed to read remembered metal price",
			zap.String("metal", string(metal)),
			zap.String("currency", currency),
			zap.Error(err))
		return zakat.PriceQuote{}, false
	}
	return q, ok
}
