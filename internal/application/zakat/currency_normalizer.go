package zakat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/slimatic/zakapp-sub001/internal/domain/shared/valueobject"
	"github.com/slimatic/zakapp-sub001/internal/domain/zakat"
)

// DefaultRateTimeout bounds each currency rate lookup
const DefaultRateTimeout = 2 * time.Second

// CurrencyNormalizerOption configures a CurrencyNormalizer
type CurrencyNormalizerOption func(*CurrencyNormalizer)

// WithRateTimeout overrides the per-lookup timeout
func WithRateTimeout(d time.Duration) CurrencyNormalizerOption {
	return func(n *CurrencyNormalizer) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// WithNormalizerLogger sets the logger
func WithNormalizerLogger(logger *zap.Logger) CurrencyNormalizerOption {
	return func(n *CurrencyNormalizer) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithNormalizerMetrics counts identity-rate fallbacks
func WithNormalizerMetrics(m Metrics) CurrencyNormalizerOption {
	return func(n *CurrencyNormalizer) {
		if m != nil {
			n.metrics = m
		}
	}
}

// CurrencyNormalizer converts asset values into the base currency
type CurrencyNormalizer struct {
	rates   zakat.CurrencyRateSource
	base    string
	timeout time.Duration
	logger  *zap.Logger
	metrics Metrics
}

// NewCurrencyNormalizer creates a normalizer targeting base (USD when empty)
func NewCurrencyNormalizer(rates zakat.CurrencyRateSource, base string, opts ...CurrencyNormalizerOption) *CurrencyNormalizer {
	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		base = string(valueobject.DefaultCurrency)
	}
	n := &CurrencyNormalizer{
		rates:   rates,
		base:    base,
		timeout: DefaultRateTimeout,
		logger:  zap.NewNop(),
		metrics: noopMetrics{},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// BaseCurrency returns the currency every normalized asset is expressed in
func (n *CurrencyNormalizer) BaseCurrency() string {
	return n.base
}

// Normalize returns copies of assets expressed in the base currency.
// One lookup runs per distinct foreign currency; a failed lookup uses rate 1.
func (n *CurrencyNormalizer) Normalize(ctx context.Context, assets []zakat.Asset) []zakat.Asset {
	rates := n.lookupRates(ctx, foreignCurrencies(assets, n.base))

	out := make([]zakat.Asset, len(assets))
	for i, a := range assets {
		if a.OriginalCurrency == "" {
			a.OriginalValue = a.Value
			a.OriginalCurrency = a.Currency
		}
		cur := strings.ToUpper(a.Currency)
		if cur != n.base {
			a.Value = n.convert(a.Value, cur, rates[cur])
		}
		a.Currency = n.base
		out[i] = a
	}
	return out
}

func (n *CurrencyNormalizer) convert(value decimal.Decimal, from string, rate decimal.Decimal) decimal.Decimal {
	money, err := valueobject.NewMoney(value, valueobject.Currency(from))
	if err != nil {
		return value
	}
	converted, err := money.ConvertTo(valueobject.Currency(n.base), rate)
	if err != nil {
		return value
	}
	return converted.Amount()
}

func foreignCurrencies(assets []zakat.Asset, base string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, a := range assets {
		cur := strings.ToUpper(a.Currency)
		if cur == base {
			continue
		}
		if _, ok := seen[cur]; ok {
			continue
		}
		seen[cur] = struct{}{}
		out = append(out, cur)
	}
	return out
}

func (n *CurrencyNormalizer) lookupRates(ctx context.Context, currencies []string) map[string]decimal.Decimal {
	rates := make(map[string]decimal.Decimal, len(currencies))
	if len(currencies) == 0 {
		return rates
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, cur := range currencies {
		g.Go(func() error {
			rate := n.rate(gctx, cur)
			mu.Lock()
			rates[cur] = rate
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return rates
}

func (n *CurrencyNormalizer) rate(ctx context.Context, from string) decimal.Decimal {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	rate, err := n.rates.Rate(ctx, from, n.base)
	if err == nil && rate.IsPositive() {
		return rate
	}
	n.logger.Warn("Currency rate unavailable, using identity rate",
		zap.String("from", from),
		zap.String("to", n.base),
		zap.Error(err),
	)
	n.metrics.RecordCurrencyFallback(ctx, from)
	return decimal.NewFromInt(1)
}
