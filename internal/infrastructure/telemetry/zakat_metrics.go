package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a nil meter is supplied.
var ErrMeterNil = errors.New("meter cannot be nil")

// Calculation outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// ZakatMetrics records engine-level counters and timings.
type ZakatMetrics struct {
	calculations        *Counter
	calculationDuration *Histogram
	nisabCache          *Counter
	priceTier           *Counter
	metalPrice          *FloatGauge
	currencyFallbacks   *Counter
	droppedAlternatives *Counter
}

// NewZakatMetrics registers the engine instruments on meter.
func NewZakatMetrics(meter metric.Meter) (*ZakatMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	var (
		zm  ZakatMetrics
		err error
	)

	if zm.calculations, err = NewCounter(meter, "zakat_calculations_total", "Total zakat calculations", "{calculations}"); err != nil {
		return nil, err
	}
	if zm.calculationDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "zakat_calculation_duration_seconds",
		Description: "Duration of zakat calculations",
		Unit:        "s",
		Boundaries:  CalculationDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if zm.nisabCache, err = NewCounter(meter, "zakat_nisab_cache_lookups_total", "Nisab cache lookups by result", "{lookups}"); err != nil {
		return nil, err
	}
	if zm.priceTier, err = NewCounter(meter, "zakat_metal_price_tier_total", "Metal prices served per fallback tier", "{quotes}"); err != nil {
		return nil, err
	}
	if zm.metalPrice, err = NewFloatGauge(meter, "zakat_metal_price_per_gram", "Last served metal price per gram", "{currency}/g"); err != nil {
		return nil, err
	}
	if zm.currencyFallbacks, err = NewCounter(meter, "zakat_currency_rate_fallbacks_total", "Currency lookups replaced by the identity rate", "{lookups}"); err != nil {
		return nil, err
	}
	if zm.droppedAlternatives, err = NewCounter(meter, "zakat_alternatives_dropped_total", "Alternative methodology calculations that failed", "{calculations}"); err != nil {
		return nil, err
	}

	return &zm, nil
}

// RecordCalculation counts a calculation and records its duration.
func (m *ZakatMetrics) RecordCalculation(ctx context.Context, methodology, outcome string, d time.Duration) {
	attrs := []attribute.KeyValue{AttrMethodology.String(methodology), AttrOutcome.String(outcome)}
	m.calculations.Inc(ctx, attrs...)
	m.calculationDuration.RecordDuration(ctx, d, attrs...)
}

// RecordNisabCache counts a nisab cache hit or miss.
func (m *ZakatMetrics) RecordNisabCache(ctx context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.nisabCache.Inc(ctx, AttrCacheResult.String(result))
}

// RecordPriceTier counts which fallback tier served a metal price.
func (m *ZakatMetrics) RecordPriceTier(ctx context.Context, metal, currency, tier string, pricePerGram float64) {
	m.priceTier.Inc(ctx, AttrMetal.String(metal), AttrPriceTier.String(tier))
	m.metalPrice.Record(ctx, pricePerGram, AttrMetal.String(metal), AttrCurrency.String(currency))
}

// RecordCurrencyFallback counts an identity-rate substitution.
func (m *ZakatMetrics) RecordCurrencyFallback(ctx context.Context, currency string) {
	m.currencyFallbacks.Inc(ctx, AttrCurrency.String(currency))
}

// RecordAlternativeDropped counts an omitted alternative calculation.
func (m *ZakatMetrics) RecordAlternativeDropped(ctx context.Context, methodology string) {
	m.droppedAlternatives.Inc(ctx, AttrMethodology.String(methodology))
}
