package zakat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetSource loads an owner's declared assets. An empty result is not an error.
type AssetSource interface {
	LoadAssets(ctx context.Context, ownerID uuid.UUID, assetIDs []uuid.UUID) ([]Asset, error)
}

// CurrencyRateSource returns units of `to` per unit of `from`
type CurrencyRateSource interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// PriceTier names the fallback tier that produced a metal price
type PriceTier string

const (
	PriceTierScrape PriceTier = "scrape"
	PriceTierAPI    PriceTier = "api"
	PriceTierStale  PriceTier = "stale_cache"
	PriceTierManual PriceTier = "manual"
	PriceTierStatic PriceTier = "static"
)

// Metal is a precious metal used for nisab
type Metal string

const (
	MetalGold   Metal = "gold"
	MetalSilver Metal = "silver"
)

// PriceQuote is a per-gram metal price and where it came from
type PriceQuote struct {
	Metal        Metal           `json:"metal"`
	Currency     string          `json:"currency"`
	PricePerGram decimal.Decimal `json:"price_per_gram"`
	Source       PriceTier       `json:"source"`
	ObservedAt   time.Time       `json:"observed_at"`
}

// MetalsPriceSource always yields a usable price; fallback is its own concern.
type MetalsPriceSource interface {
	GoldPricePerGram(ctx context.Context, currency string) PriceQuote
	SilverPricePerGram(ctx context.Context, currency string) PriceQuote
}

// HijriDate is a date in the Islamic lunar calendar
type HijriDate struct {
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Day       int    `json:"day"`
	MonthName string `json:"month_name"`
}

// CalendarInfo is what the calendar collaborator reports for a date
type CalendarInfo struct {
	CalendarType     CalendarType    `json:"calendar_type"`
	AdjustmentFactor decimal.Decimal `json:"adjustment_factor"`
	HijriDate        HijriDate       `json:"hijri_date"`
}

// CalendarSource resolves calendar metadata for a calculation date
type CalendarSource interface {
	Info(ctx context.Context, date time.Time) (CalendarInfo, error)
}

// MarketValuer re-derives the current market value of a business asset.
// ok is false when no valuation is available.
type MarketValuer interface {
	MarketValue(ctx context.Context, asset Asset) (value decimal.Decimal, ok bool)
}

// NisabCache stores resolved thresholds keyed by methodology and currency
type NisabCache interface {
	Get(ctx context.Context, key string) (NisabInfo, bool)
	Set(ctx context.Context, key string, info NisabInfo, ttl time.Duration)
}

// CalculationRecorder persists finished calculations
type CalculationRecorder interface {
	Save(ctx context.Context, calc *ZakatCalculation) error
}

// CalculationRepository reads back recorded calculations
type CalculationRepository interface {
	CalculationRecorder
	FindByID(ctx context.Context, id uuid.UUID) (*ZakatCalculation, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]ZakatCalculation, error)
}
