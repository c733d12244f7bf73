package zakat

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/slimatic/zakapp-sub001/internal/domain/zakat"
)

// NisabBreakdown restates the thresholds a calculation was gated on
type NisabBreakdown struct {
	GoldNisab      decimal.Decimal `json:"gold_nisab"`
	SilverNisab    decimal.Decimal `json:"silver_nisab"`
	EffectiveNisab decimal.Decimal `json:"effective_nisab"`
	NisabBasis     string          `json:"nisab_basis"`
	Currency       string          `json:"currency"`
	MeetsNisab     bool            `json:"meets_nisab"`
}

// RejectedAssetInfo is an asset dropped before calculation
type RejectedAssetInfo struct {
	AssetID string `json:"asset_id"`
	Name    string `json:"name"`
	Reason  string `json:"reason"`
}

// CalculationBreakdown is the descriptive report returned alongside a result
type CalculationBreakdown struct {
	Nisab          NisabBreakdown           `json:"nisab"`
	Assets         []zakat.AssetCalculation `json:"assets"`
	AppliedRules   []string                 `json:"applied_rules"`
	Calendar       zakat.CalendarPeriod     `json:"calendar"`
	RejectedAssets []RejectedAssetInfo      `json:"rejected_assets,omitempty"`
}

func buildBreakdown(calc *zakat.ZakatCalculation, rejected []zakat.RejectedAsset) CalculationBreakdown {
	var rules []string
	for _, line := range calc.Assets {
		for _, r := range line.AppliedRules {
			if !slices.Contains(rules, r) {
				rules = append(rules, r)
			}
		}
	}

	b := CalculationBreakdown{
		Nisab: NisabBreakdown{
			GoldNisab:      calc.Nisab.GoldNisab,
			SilverNisab:    calc.Nisab.SilverNisab,
			EffectiveNisab: calc.Nisab.EffectiveNisab,
			NisabBasis:     calc.Nisab.NisabBasis,
			Currency:       calc.Nisab.Currency,
			MeetsNisab:     calc.MeetsNisab,
		},
		Assets:       slices.Clone(calc.Assets),
		AppliedRules: rules,
		Calendar:     calc.Calendar,
	}
	for _, r := range rejected {
		b.RejectedAssets = append(b.RejectedAssets, RejectedAssetInfo{
			AssetID: r.AssetID.String(),
			Name:    r.Name,
			Reason:  r.Reason.Error(),
		})
	}
	return b
}

func buildAssumptions(m zakat.Methodology, calc *zakat.ZakatCalculation) []string {
	out := []string{
		fmt.Sprintf("Zakat rate of %s%% applied to zakatable wealth", m.ZakatRate.String()),
		fmt.Sprintf("Methodology: %s", m.Name),
	}
	switch calc.Nisab.NisabBasis {
	case zakat.BasisLabelCustom:
		out = append(out, fmt.Sprintf("Custom nisab threshold of %s %s",
			calc.Nisab.EffectiveNisab.StringFixed(2), calc.Currency))
	default:
		out = append(out,
			fmt.Sprintf("Gold nisab of %s grams", zakat.GoldNisabGrams.String()),
			fmt.Sprintf("Silver nisab of %s grams", zakat.SilverNisabGrams.String()),
			fmt.Sprintf("Nisab basis: %s", calc.Nisab.NisabBasis),
		)
	}
	out = append(out,
		fmt.Sprintf("Business assets treated as %s", m.BusinessAssetTreatment),
		fmt.Sprintf("Debt deduction policy: %s", m.DebtDeductionPolicy),
		fmt.Sprintf("All values expressed in %s", calc.Currency),
	)
	if calc.Calendar.CalendarType == zakat.CalendarLunar {
		out = append(out, fmt.Sprintf("Lunar year of %d days; dues scaled by %s",
			calc.Calendar.DaysInPeriod, calc.Calendar.AdjustmentFactor.String()))
	} else {
		out = append(out, fmt.Sprintf("Solar year of %d days", calc.Calendar.DaysInPeriod))
	}
	return out
}

func buildSources(calc *zakat.ZakatCalculation, converted []string) []string {
	var out []string
	if calc.Nisab.GoldPriceSource != "" {
		out = append(out, fmt.Sprintf("Gold price: %s %s/g (%s)",
			calc.Nisab.GoldPricePerGram.String(), calc.Nisab.Currency, calc.Nisab.GoldPriceSource))
	}
	if calc.Nisab.SilverPriceSource != "" {
		out = append(out, fmt.Sprintf("Silver price: %s %s/g (%s)",
			calc.Nisab.SilverPricePerGram.String(), calc.Nisab.Currency, calc.Nisab.SilverPriceSource))
	}
	if calc.Nisab.NisabBasis == zakat.BasisLabelCustom {
		out = append(out, "Nisab threshold supplied by caller")
	}
	for _, cur := range converted {
		out = append(out, fmt.Sprintf("Exchange rate %s to %s", cur, calc.Currency))
	}
	out = append(out, fmt.Sprintf("Calendar: %s", calc.Calendar.CalendarType))
	return out
}
