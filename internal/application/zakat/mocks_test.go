package zakat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/slimatic/zakapp-sub001/internal/domain/zakat"
)

// MockMetalsPriceSource is a mock implementation of zakat.MetalsPriceSource
type MockMetalsPriceSource struct {
	mock.Mock
}

func (m *MockMetalsPriceSource) GoldPricePerGram(ctx context.Context, currency string) zakat.PriceQuote {
	args := m.Called(ctx, currency)
	return args.Get(0).(zakat.PriceQuote)
}

func (m *MockMetalsPriceSource) SilverPricePerGram(ctx context.Context, currency string) zakat.PriceQuote {
	args := m.Called(ctx, currency)
	return args.Get(0).(zakat.PriceQuote)
}

// MockCurrencyRateSource is a mock implementation of zakat.CurrencyRateSource
type MockCurrencyRateSource struct {
	mock.Mock
}

func (m *MockCurrencyRateSource) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockCalendarSource is a mock implementation of zakat.CalendarSource
type MockCalendarSource struct {
	mock.Mock
}

func (m *MockCalendarSource) Info(ctx context.Context, date time.Time) (zakat.CalendarInfo, error) {
	args := m.Called(ctx, date)
	return args.Get(0).(zakat.CalendarInfo), args.Error(1)
}

// MockAssetSource is a mock implementation of zakat.AssetSource
type MockAssetSource struct {
	mock.Mock
}

func (m *MockAssetSource) LoadAssets(ctx context.Context, ownerID uuid.UUID, assetIDs []uuid.UUID) ([]zakat.Asset, error) {
	args := m.Called(ctx, ownerID, assetIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]zakat.Asset), args.Error(1)
}

// MockCalculationRepository is a mock implementation of zakat.CalculationRepository
type MockCalculationRepository struct {
	mock.Mock
}

func (m *MockCalculationRepository) Save(ctx context.Context, calc *zakat.ZakatCalculation) error {
	args := m.Called(ctx, calc)
	return args.Error(0)
}

func (m *MockCalculationRepository) FindByID(ctx context.Context, id uuid.UUID) (*zakat.ZakatCalculation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*zakat.ZakatCalculation), args.Error(1)
}

func (m *MockCalculationRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]zakat.ZakatCalculation, error) {
	args := m.Called(ctx, ownerID, limit)
	return args.Get(0).([]zakat.ZakatCalculation), args.Error(1)
}

// MockMetrics is a mock implementation of Metrics
type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordCalculation(ctx context.Context, methodology, outcome string, d time.Duration) {
	m.Called(ctx, methodology, outcome, d)
}

func (m *MockMetrics) RecordNisabCache(ctx context.Context, hit bool) {
	m.Called(ctx, hit)
}

func (m *MockMetrics) RecordCurrencyFallback(ctx context.Context, currency string) {
	m.Called(ctx, currency)
}

func (m *MockMetrics) RecordAlternativeDropped(ctx context.Context, methodology string) {
	m.Called(ctx, methodology)
}

// memoryNisabCache is a map-backed zakat.NisabCache honoring TTL against a fixed clock
type memoryNisabCache struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]cachedNisab
	sets    int
}

type cachedNisab struct {
	info    zakat.NisabInfo
	expires time.Time
}

func newMemoryNisabCache(now func() time.Time) *memoryNisabCache {
	return &memoryNisabCache{now: now, entries: map[string]cachedNisab{}}
}

func (c *memoryNisabCache) Get(_ context.Context, key string) (zakat.NisabInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expires) {
		return zakat.NisabInfo{}, false
	}
	return e.info, true
}

func (c *memoryNisabCache) Set(_ context.Context, key string, info zakat.NisabInfo, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[key] = cachedNisab{info: info, expires: c.now().Add(ttl)}
}

// panicValuer blows up on every valuation
type panicValuer struct{}

func (panicValuer) MarketValue(context.Context, zakat.Asset) (decimal.Decimal, bool) {
	panic("valuation feed exploded")
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func quote(metal zakat.Metal, price string) zakat.PriceQuote {
	return zakat.PriceQuote{
		Metal:        metal,
		Currency:     "USD",
		PricePerGram: dec(price),
		Source:       zakat.PriceTierAPI,
		ObservedAt:   fixedNow,
	}
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func cash(value, currency string) zakat.Asset {
	return zakat.Asset{
		ID:            uuid.New(),
		Name:          "Savings",
		Category:      zakat.CategoryCash,
		Value:         dec(value),
		Currency:      currency,
		ZakatEligible: true,
	}
}
