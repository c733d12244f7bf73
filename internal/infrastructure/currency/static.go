package currency

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrRateUnavailable is returned when a source has no rate for a pair
var ErrRateUnavailable = errors.New("currency: rate unavailable")

// StaticRateSource answers from a fixed table of units per one anchor unit
type StaticRateSource struct {
	anchor string
	table  map[string]decimal.Decimal
}

// NewStaticRateSource parses table (code -> units per anchor). The anchor is implicitly 1.
func NewStaticRateSource(anchor string, table map[string]string) (*StaticRateSource, error) {
	anchor = strings.ToUpper(anchor)
	parsed := map[string]decimal.Decimal{anchor: decimal.NewFromInt(1)}
	for code, raw := range table {
		v, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("static rate %s: %w", code, err)
		}
		if !v.IsPositive() {
			return nil, fmt.Errorf("static rate %s must be positive", code)
		}
		parsed[strings.ToUpper(code)] = v
	}
	return &StaticRateSource{anchor: anchor, table: parsed}, nil
}

// Rate implements zakat.CurrencyRateSource
func (s *StaticRateSource) Rate(_ context.Context, from, to string) (decimal.Decimal, error) {
	from, to, err := pair(from, to)
	if err != nil {
		return decimal.Zero, err
	}
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	perFrom, ok := s.table[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrRateUnavailable, from)
	}
	perTo, ok := s.table[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrRateUnavailable, to)
	}
	return perTo.Div(perFrom), nil
}
