// Package valueobject holds the currency-aware amount used when normalizing
// asset values into the calculation base currency.
package valueobject

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Currency is an upper-case ISO 4217 code.
type Currency string

// Currencies the engine ships static rates for.
const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	SAR Currency = "SAR"
	AED Currency = "AED"
	MYR Currency = "MYR"
)

// DefaultCurrency is the base currency calculations are normalized into
const DefaultCurrency = USD

var errEmptyCurrency = errors.New("currency cannot be empty")

// ParseCurrency validates code against ISO 4217 and returns its canonical form.
func ParseCurrency(code string) (Currency, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", errEmptyCurrency
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("invalid currency code %q: %w", code, err)
	}
	return Currency(unit.String()), nil
}

func (c Currency) String() string { return string(c) }

// Money pairs an amount with its currency. Values are immutable.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney rejects an empty currency; the amount may be any sign.
func NewMoney(amount decimal.Decimal, c Currency) (Money, error) {
	if c == "" {
		return Money{}, errEmptyCurrency
	}
	return Money{amount: amount, currency: c}, nil
}

// MustNewMoney is NewMoney for constants and tests.
func MustNewMoney(amount decimal.Decimal, c Currency) Money {
	m, err := NewMoney(amount, c)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return m.currency }

// ConvertTo expresses m in target, where rate is target units per unit of m's currency.
// Converting into the same currency ignores rate.
func (m Money) ConvertTo(target Currency, rate decimal.Decimal) (Money, error) {
	switch {
	case target == "":
		return Money{}, fmt.Errorf("target %w", errEmptyCurrency)
	case target == m.currency:
		return m, nil
	case !rate.IsPositive():
		return Money{}, fmt.Errorf("conversion rate %s to %s must be positive", rate, target)
	}
	return Money{amount: m.amount.Mul(rate), currency: target}, nil
}

// Equals compares currency and numeric value, so 1.0 USD equals 1 USD.
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

func (m Money) String() string {
	return m.amount.StringFixed(2) + " " + string(m.currency)
}
