package zakat

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fixed physical nisab quantities in grams
var (
	GoldNisabGrams   = decimal.RequireFromString("87.48")
	SilverNisabGrams = decimal.RequireFromString("612.36")
)

// Resolved nisab basis labels
const (
	BasisLabelGold              = "gold"
	BasisLabelSilver            = "silver"
	BasisLabelDualMinimumGold   = "dual_minimum_gold"
	BasisLabelDualMinimumSilver = "dual_minimum_silver"
	BasisLabelCustom            = "custom"
)

// NisabInfo is the threshold resolved for one (methodology, currency) pair
type NisabInfo struct {
	GoldNisab          decimal.Decimal `json:"gold_nisab"`
	SilverNisab        decimal.Decimal `json:"silver_nisab"`
	EffectiveNisab     decimal.Decimal `json:"effective_nisab"`
	NisabBasis         string          `json:"nisab_basis"`
	CalculationMethod  MethodologyID   `json:"calculation_method"`
	Currency           string          `json:"currency"`
	GoldPricePerGram   decimal.Decimal `json:"gold_price_per_gram"`
	SilverPricePerGram decimal.Decimal `json:"silver_price_per_gram"`
	GoldPriceSource    PriceTier       `json:"gold_price_source,omitempty"`
	SilverPriceSource  PriceTier       `json:"silver_price_source,omitempty"`
	CalculatedAt       time.Time       `json:"calculated_at"`
}

// nisabSelector picks the effective nisab and its basis label
type nisabSelector func(gold, silver decimal.Decimal) (decimal.Decimal, string)

func goldBasis(gold, _ decimal.Decimal) (decimal.Decimal, string) {
	return gold, BasisLabelGold
}

func silverBasis(_, silver decimal.Decimal) (decimal.Decimal, string) {
	return silver, BasisLabelSilver
}

// dualMinimum takes the lower threshold; a tie resolves to gold.
func dualMinimum(gold, silver decimal.Decimal) (decimal.Decimal, string) {
	if silver.LessThan(gold) {
		return silver, BasisLabelDualMinimumSilver
	}
	return gold, BasisLabelDualMinimumGold
}

// Methodologies absent from this table use dualMinimum.
var nisabSelectors = map[MethodologyID]nisabSelector{
	MethodologyHanafi:  silverBasis,
	MethodologyHanbali: goldBasis,
}

// SelectNisab applies the methodology's basis rule to the two thresholds
func SelectNisab(id MethodologyID, gold, silver decimal.Decimal) (decimal.Decimal, string) {
	if sel, ok := nisabSelectors[id]; ok {
		return sel(gold, silver)
	}
	return dualMinimum(gold, silver)
}

// ComputeNisab derives gold and silver thresholds from per-gram quotes
func ComputeNisab(m Methodology, currency string, gold, silver PriceQuote, at time.Time) NisabInfo {
	goldNisab := gold.PricePerGram.Mul(GoldNisabGrams)
	silverNisab := silver.PricePerGram.Mul(SilverNisabGrams)
	effective, basis := SelectNisab(m.ID, goldNisab, silverNisab)
	return NisabInfo{
		GoldNisab:          goldNisab,
		SilverNisab:        silverNisab,
		EffectiveNisab:     effective,
		NisabBasis:         basis,
		CalculationMethod:  m.ID,
		Currency:           currency,
		GoldPricePerGram:   gold.PricePerGram,
		SilverPricePerGram: silver.PricePerGram,
		GoldPriceSource:    gold.Source,
		SilverPriceSource:  silver.Source,
		CalculatedAt:       at,
	}
}

// CustomNisab builds a NisabInfo from a caller-supplied threshold
func CustomNisab(m Methodology, currency string, amount decimal.Decimal, at time.Time) NisabInfo {
	return NisabInfo{
		GoldNisab:         amount,
		SilverNisab:       amount,
		EffectiveNisab:    amount,
		NisabBasis:        BasisLabelCustom,
		CalculationMethod: m.ID,
		Currency:          currency,
		CalculatedAt:      at,
	}
}
