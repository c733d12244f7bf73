// Package metals implements the gold and silver price chain behind nisab:
// live scrape, live API, stale cache, operator manual price, static constant.
package metals

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/slimatic/zakapp-sub001/internal/domain/zakat"
)

// TroyOunceGrams converts per-ounce quotes to per-gram
var TroyOunceGrams = decimal.RequireFromString("31.1034768")

// Live source failures
var (
	ErrUnsupportedCurrency = errors.New("metals: currency not supported by source")
	ErrPriceNotFound       = errors.New("metals: price not found")
	ErrBadPrice            = errors.New("metals: price must be positive")
)

// LiveSource fetches a current per-gram price
type LiveSource interface {
	Tier() zakat.PriceTier
	PricePerGram(ctx context.Context, metal zakat.Metal, currency string) (decimal.Decimal, error)
}

// perGram normalizes a quote given in unit ("gram", "g", "ounce", "oz", "troy_ounce")
func perGram(price decimal.Decimal, unit string) (decimal.Decimal, error) {
	if !price.IsPositive() {
		return decimal.Zero, ErrBadPrice
	}
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "", "g", "gram", "grams":
		return price, nil
	case "oz", "ounce", "troy_ounce", "toz":
		return price.Div(TroyOunceGrams), nil
	case "kg", "kilogram":
		return price.Div(decimal.NewFromInt(1000)), nil
	default:
		return decimal.Zero, errors.New("metals: unknown unit " + unit)
	}
}
