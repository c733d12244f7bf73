package zakat

import (
	"context"
	"time"
)

// Metrics receives engine counters. telemetry.ZakatMetrics satisfies it.
type Metrics interface {
	RecordCalculation(ctx context.Context, methodology, outcome string, d time.Duration)
	RecordNisabCache(ctx context.Context, hit bool)
	RecordCurrencyFallback(ctx context.Context, currency string)
	RecordAlternativeDropped(ctx context.Context, methodology string)
}

type noopMetrics struct{}

func (noopMetrics) RecordCalculation(context.Context, string, string, time.Duration) {}
func (noopMetrics) RecordNisabCache(context.Context, bool)                          {}
func (noopMetrics) RecordCurrencyFallback(context.Context, string)                  {}
func (noopMetrics) RecordAlternativeDropped(context.Context, string)                {}
