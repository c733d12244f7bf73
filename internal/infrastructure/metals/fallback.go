package metals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/slimatic/zakapp-sub001/internal/domain/zakat"
	"github.com/slimatic/zakapp-sub001/internal/infrastructure/cache"
)

// Built-in last-resort prices, USD per gram
var (
	DefaultStaticGold   = decimal.RequireFromString("65")
	DefaultStaticSilver = decimal.RequireFromString("0.80")
)

var errNoRateConverter = errors.New("no rate converter configured")

// DefaultTierTimeout bounds each live tier
const DefaultTierTimeout = 3 * time.Second

// TierRecorder observes which tier served each quote.
// telemetry.ZakatMetrics satisfies it.
type TierRecorder interface {
	RecordPriceTier(ctx context.Context, metal, currency, tier string, pricePerGram float64)
}

type fixedPrices struct {
	gold, silver decimal.Decimal
	currency     string
}

func (p fixedPrices) price(metal zakat.Metal) decimal.Decimal {
	if metal == zakat.MetalGold {
		return p.gold
	}
	return p.silver
}

// FallbackOption configures a FallbackPriceSource
type FallbackOption func(*FallbackPriceSource)

// WithLiveSources sets the live tiers, tried in order
func WithLiveSources(sources ...LiveSource) FallbackOption {
	return func(f *FallbackPriceSource) { f.live = sources }
}

// WithStaleStore remembers live quotes and serves them when live tiers fail
func WithStaleStore(store *cache.PriceStore) FallbackOption {
	return func(f *FallbackPriceSource) { f.stale = store }
}

// WithManualPrices sets operator-supplied per-gram prices. Zero disables a metal.
func WithManualPrices(gold, silver decimal.Decimal, currency string) FallbackOption {
	return func(f *FallbackPriceSource) {
		f.manual = &fixedPrices{gold: gold, silver: silver, currency: strings.ToUpper(currency)}
	}
}

// WithStaticPrices overrides the built-in constants
func WithStaticPrices(gold, silver decimal.Decimal, currency string) FallbackOption {
	return func(f *FallbackPriceSource) {
		if gold.IsPositive() {
			f.static.gold = gold
		}
		if silver.IsPositive() {
			f.static.silver = silver
		}
		if currency != "" {
			f.static.currency = strings.ToUpper(currency)
		}
	}
}

// WithRateConverter converts manual and static prices into the requested currency
func WithRateConverter(rates zakat.CurrencyRateSource) FallbackOption {
	return func(f *FallbackPriceSource) { f.rates = rates }
}

// WithTierTimeout bounds each live tier
func WithTierTimeout(d time.Duration) FallbackOption {
	return func(f *FallbackPriceSource) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithFallbackLogger sets the logger
func WithFallbackLogger(logger *zap.Logger) FallbackOption {
	return func(f *FallbackPriceSource) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithTierRecorder reports the serving tier of every quote
func WithTierRecorder(r TierRecorder) FallbackOption {
	return func(f *FallbackPriceSource) { f.recorder = r }
}

// WithFallbackClock replaces time.Now
func WithFallbackClock(now func() time.Time) FallbackOption {
	return func(f *FallbackPriceSource) {
		if now != nil {
			f.now = now
		}
	}
}

// FallbackPriceSource implements zakat.MetalsPriceSource. It never fails:
// the static tier always answers.
type FallbackPriceSource struct {
	live     []LiveSource
	stale    *cache.PriceStore
	manual   *fixedPrices
	static   fixedPrices
	rates    zakat.CurrencyRateSource
	timeout  time.Duration
	logger   *zap.Logger
	recorder TierRecorder
	now      func() time.Time
}

// NewFallbackPriceSource creates the price chain
func NewFallbackPriceSource(opts ...FallbackOption) *FallbackPriceSource {
	f := &FallbackPriceSource{
		static:  fixedPrices{gold: DefaultStaticGold, silver: DefaultStaticSilver, currency: "USD"},
		timeout: DefaultTierTimeout,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// GoldPricePerGram implements zakat.MetalsPriceSource
func (f *FallbackPriceSource) GoldPricePerGram(ctx context.Context, currency string) zakat.PriceQuote {
	return f.quote(ctx, zakat.MetalGold, currency)
}

// SilverPricePerGram implements zakat.MetalsPriceSource
func (f *FallbackPriceSource) SilverPricePerGram(ctx context.Context, currency string) zakat.PriceQuote {
	return f.quote(ctx, zakat.MetalSilver, currency)
}

// Refresh fetches live prices for every metal in each currency and remembers
// them for the stale tier.
func (f *FallbackPriceSource) Refresh(ctx context.Context, currencies []string) error {
	var errs []error
	for _, cur := range currencies {
		cur = strings.ToUpper(cur)
		for _, metal := range []zakat.Metal{zakat.MetalGold, zakat.MetalSilver} {
			if _, err := f.fromLive(ctx, metal, cur); err != nil {
				errs = append(errs, fmt.Errorf("%s/%s: %w", metal, cur, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (f *FallbackPriceSource) quote(ctx context.Context, metal zakat.Metal, currency string) zakat.PriceQuote {
	currency = strings.ToUpper(currency)

	q, err := f.fromLive(ctx, metal, currency)
	if err != nil {
		q = f.fromFallback(ctx, metal, currency, err)
	}

	if f.recorder != nil {
		f.recorder.RecordPriceTier(ctx, string(metal), currency, string(q.Source), q.PricePerGram.InexactFloat64())
	}
	return q
}

func (f *FallbackPriceSource) fromLive(ctx context.Context, metal zakat.Metal, currency string) (zakat.PriceQuote, error) {
	var errs []error
	for _, src := range f.live {
		price, err := f.fetch(ctx, src, metal, currency)
		if err != nil {
			f.logger.Debug("Live metal price tier failed",
				zap.String("tier", string(src.Tier())),
				zap.String("metal", string(metal)),
				zap.String("currency", currency),
				zap.Error(err))
			errs = append(errs, err)
			continue
		}
		q := zakat.PriceQuote{
			Metal:        metal,
			Currency:     currency,
			PricePerGram: price,
			Source:       src.Tier(),
			ObservedAt:   f.now(),
		}
		if f.stale != nil {
			f.stale.Remember(ctx, q)
		}
		return q, nil
	}
	if len(errs) == 0 {
		return zakat.PriceQuote{}, errors.New("metals: no live sources configured")
	}
	return zakat.PriceQuote{}, errors.Join(errs...)
}

func (f *FallbackPriceSource) fetch(ctx context.Context, src LiveSource, metal zakat.Metal, currency string) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	price, err := src.PricePerGram(ctx, metal, currency)
	if err != nil {
		return decimal.Zero, err
	}
	if !price.IsPositive() {
		return decimal.Zero, ErrBadPrice
	}
	return price, nil
}

func (f *FallbackPriceSource) fromFallback(ctx context.Context, metal zakat.Metal, currency string, liveErr error) zakat.PriceQuote {
	if f.stale != nil {
		if q, ok := f.stale.Last(ctx, metal, currency); ok && q.PricePerGram.IsPositive() {
			f.logger.Warn("Serving stale metal price",
				zap.String("metal", string(metal)),
				zap.String("currency", currency),
				zap.Time("observed_at", q.ObservedAt),
				zap.Error(liveErr))
			q.Source = zakat.PriceTierStale
			return q
		}
	}

	if f.manual != nil && f.manual.price(metal).IsPositive() {
		f.logger.Warn("Serving manual metal price",
			zap.String("metal", string(metal)),
			zap.String("currency", currency),
			zap.Error(liveErr))
		return f.fixedQuote(ctx, metal, currency, *f.manual, zakat.PriceTierManual)
	}

	f.logger.Error("All metal price tiers failed, serving static price",
		zap.String("metal", string(metal)),
		zap.String("currency", currency),
		zap.Error(liveErr))
	return f.fixedQuote(ctx, metal, currency, f.static, zakat.PriceTierStatic)
}

// fixedQuote serves a configured price. When it cannot be converted into
// currency the quote keeps the configured currency instead of relabelling it.
func (f *FallbackPriceSource) fixedQuote(ctx context.Context, metal zakat.Metal, currency string, p fixedPrices, tier zakat.PriceTier) zakat.PriceQuote {
	price, quoted := p.price(metal), currency
	if p.currency != "" && p.currency != currency {
		converted, err := f.convert(ctx, price, p.currency, currency)
		if err != nil {
			f.logger.Error("Fixed metal price left in its configured currency",
				zap.String("metal", string(metal)),
				zap.String("tier", string(tier)),
				zap.String("from", p.currency),
				zap.String("to", currency),
				zap.Error(err))
			quoted = p.currency
		} else {
			price = converted
		}
	}
	return zakat.PriceQuote{
		Metal:        metal,
		Currency:     quoted,
		PricePerGram: price,
		Source:       tier,
		ObservedAt:   f.now(),
	}
}

func (f *FallbackPriceSource) convert(ctx context.Context, price decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if f.rates == nil {
		return decimal.Zero, errNoRateConverter
	}
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	rate, err := f.rates.Rate(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive rate %s", rate)
	}
	return price.Mul(rate), nil
}
