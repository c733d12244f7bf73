package zakat

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CalculationDifference summarizes how one calculation differs from a reference
type CalculationDifference struct {
	ReferenceMethodology        MethodologyID   `json:"reference_methodology"`
	AbsoluteDifference          decimal.Decimal `json:"absolute_difference"`
	PercentageDifference        decimal.Decimal `json:"percentage_difference"`
	NisabBasisDifference        string          `json:"nisab_basis_difference,omitempty"`
	BusinessTreatmentDifference string          `json:"business_treatment_difference,omitempty"`
	DebtPolicyDifference        string          `json:"debt_policy_difference,omitempty"`
}

// AlternativeCalculation is a calculation under a non-primary methodology
type AlternativeCalculation struct {
	MethodologyID   MethodologyID         `json:"methodology_id"`
	MethodologyName string                `json:"methodology_name"`
	Calculation     *ZakatCalculation     `json:"calculation"`
	Difference      CalculationDifference `json:"difference"`
}

// MethodologyComparison is one entry of a selected-methodology comparison
type MethodologyComparison struct {
	MethodologyID   MethodologyID         `json:"methodology_id"`
	MethodologyName string                `json:"methodology_name"`
	IsReference     bool                  `json:"is_reference"`
	Calculation     *ZakatCalculation     `json:"calculation"`
	Difference      CalculationDifference `json:"difference"`
}

// Diff compares alt against ref. The percentage is relative to the reference due
// and is zero when the reference due is zero.
func Diff(ref, alt *ZakatCalculation) CalculationDifference {
	refDue := ref.Totals.TotalZakatDue
	abs := alt.Totals.TotalZakatDue.Sub(refDue)
	pct := decimal.Zero
	if !refDue.IsZero() {
		pct = abs.Div(refDue).Mul(hundred)
	}

	d := CalculationDifference{
		ReferenceMethodology: ref.Methodology.ID,
		AbsoluteDifference:   abs,
		PercentageDifference: pct,
	}
	if ref.Nisab.NisabBasis != alt.Nisab.NisabBasis {
		d.NisabBasisDifference = fmt.Sprintf("Nisab basis %s (%s) vs %s (%s)",
			alt.Nisab.NisabBasis, alt.Nisab.EffectiveNisab.StringFixed(2),
			ref.Nisab.NisabBasis, ref.Nisab.EffectiveNisab.StringFixed(2))
	}
	if ref.Methodology.BusinessAssetTreatment != alt.Methodology.BusinessAssetTreatment {
		d.BusinessTreatmentDifference = fmt.Sprintf("Business assets treated as %s vs %s",
			alt.Methodology.BusinessAssetTreatment, ref.Methodology.BusinessAssetTreatment)
	}
	if ref.Methodology.DebtDeductionPolicy != alt.Methodology.DebtDeductionPolicy {
		d.DebtPolicyDifference = fmt.Sprintf("Debt deduction policy %s vs %s",
			alt.Methodology.DebtDeductionPolicy, ref.Methodology.DebtDeductionPolicy)
	}
	return d
}
