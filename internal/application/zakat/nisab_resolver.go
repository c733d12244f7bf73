package zakat

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/slimatic/zakapp-sub001/internal/domain/zakat"
	"github.com/slimatic/zakapp-sub001/internal/infrastructure/telemetry"
)

// DefaultNisabTTL is how long a resolved threshold is served from cache
const DefaultNisabTTL = 5 * time.Minute

// NisabResolverOption configures a NisabResolver
type NisabResolverOption func(*NisabResolver)

// WithNisabTTL overrides the cache TTL
func WithNisabTTL(ttl time.Duration) NisabResolverOption {
	return func(r *NisabResolver) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithNisabLogger sets the logger
func WithNisabLogger(logger *zap.Logger) NisabResolverOption {
	return func(r *NisabResolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithNisabClock replaces time.Now
func WithNisabClock(now func() time.Time) NisabResolverOption {
	return func(r *NisabResolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithNisabMetrics records cache hits and misses
func WithNisabMetrics(m Metrics) NisabResolverOption {
	return func(r *NisabResolver) {
		if m != nil {
			r.metrics = m
		}
	}
}

// NisabResolver turns metal prices into a methodology-specific threshold
type NisabResolver struct {
	prices  zakat.MetalsPriceSource
	cache   zakat.NisabCache
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger
	metrics Metrics
}

// NewNisabResolver creates a resolver. A nil cache disables caching.
func NewNisabResolver(prices zakat.MetalsPriceSource, cache zakat.NisabCache, opts ...NisabResolverOption) *NisabResolver {
	r := &NisabResolver{
		prices:  prices,
		cache:   cache,
		ttl:     DefaultNisabTTL,
		now:     time.Now,
		logger:  zap.NewNop(),
		metrics: noopMetrics{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NisabCacheKey is the cache key for a methodology and currency
func NisabCacheKey(id zakat.MethodologyID, currency string) string {
	return string(id) + ":" + strings.ToUpper(currency)
}

// Threshold resolves the nisab for m in currency. A non-nil custom amount
// short-circuits price lookup and caching entirely.
func (r *NisabResolver) Threshold(ctx context.Context, m zakat.Methodology, currency string, custom *decimal.Decimal) (zakat.NisabInfo, error) {
	currency = strings.ToUpper(currency)
	if custom != nil {
		return zakat.CustomNisab(m, currency, *custom, r.now()), nil
	}

	key := NisabCacheKey(m.ID, currency)
	if r.cache != nil {
		if info, ok := r.cache.Get(ctx, key); ok {
			r.metrics.RecordNisabCache(ctx, true)
			return info, nil
		}
		r.metrics.RecordNisabCache(ctx, false)
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "NisabResolver", "Threshold",
		telemetry.SpanAttrMethodology, string(m.ID),
		telemetry.SpanAttrCurrency, currency,
	)
	defer span.End()

	var gold, silver zakat.PriceQuote
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		gold = r.prices.GoldPricePerGram(gctx, currency)
		return nil
	})
	g.Go(func() error {
		silver = r.prices.SilverPricePerGram(gctx, currency)
		return nil
	})
	if err := g.Wait(); err != nil {
		telemetry.RecordError(span, err)
		return zakat.NisabInfo{}, err
	}

	info := zakat.ComputeNisab(m, currency, gold, silver, r.now())
	telemetry.SetAttributes(span, telemetry.SpanAttrNisabBasis, info.NisabBasis)
	r.logger.Debug("Nisab resolved",
		zap.String("methodology", string(m.ID)),
		zap.String("currency", currency),
		zap.String("basis", info.NisabBasis),
		zap.String("effective", info.EffectiveNisab.String()),
		zap.String("gold_source", string(gold.Source)),
		zap.String("silver_source", string(silver.Source)),
	)

	if !quotedIn(currency, gold, silver) {
		// served, but not cached, so the next request retries the conversion
		r.logger.Warn("Nisab priced from quotes in another currency",
			zap.String("currency", currency),
			zap.String("gold_currency", gold.Currency),
			zap.String("silver_currency", silver.Currency),
		)
		return info, nil
	}
	if r.cache != nil {
		r.cache.Set(ctx, key, info, r.ttl)
	}
	return info, nil
}

func quotedIn(currency string, quotes ...zakat.PriceQuote) bool {
	for _, q := range quotes {
		if q.Currency != "" && !strings.EqualFold(q.Currency, currency) {
			return false
		}
	}
	return true
}
