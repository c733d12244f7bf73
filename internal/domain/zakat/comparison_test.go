package zakat

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func calc(id MethodologyID, basis string, due string) *ZakatCalculation {
	m, _ := LookupMethodology(id)
	return &ZakatCalculation{
		Methodology: m.Snapshot(),
		Nisab:       NisabInfo{NisabBasis: basis, EffectiveNisab: decimal.NewFromInt(600)},
		Totals:      Totals{TotalZakatDue: decimal.RequireFromString(due)},
	}
}

func TestDiff(t *testing.T) {
	t.Run("absolute and percentage are consistent", func(t *testing.T) {
		ref := calc(MethodologyStandard, BasisLabelDualMinimumSilver, "250")
		alt := calc(MethodologyHanbali, BasisLabelGold, "200")

		d := Diff(ref, alt)

		assert.Equal(t, MethodologyStandard, d.ReferenceMethodology)
		assert.True(t, decimal.NewFromInt(-50).Equal(d.AbsoluteDifference))
		assert.True(t, decimal.NewFromInt(-20).Equal(d.PercentageDifference))
		assert.NotEmpty(t, d.NisabBasisDifference)
		assert.NotEmpty(t, d.DebtPolicyDifference)
		assert.Empty(t, d.BusinessTreatmentDifference)
	})

	t.Run("zero reference due yields zero percentage", func(t *testing.T) {
		ref := calc(MethodologyHanbali, BasisLabelGold, "0")
		alt := calc(MethodologyHanafi, BasisLabelSilver, "250")

		d := Diff(ref, alt)

		assert.True(t, decimal.NewFromInt(250).Equal(d.AbsoluteDifference))
		assert.True(t, d.PercentageDifference.IsZero())
	})

	t.Run("identical methodology has no qualitative differences", func(t *testing.T) {
		ref := calc(MethodologyShafii, BasisLabelDualMinimumSilver, "100")
		d := Diff(ref, calc(MethodologyShafii, BasisLabelDualMinimumSilver, "100"))
		assert.True(t, d.AbsoluteDifference.IsZero())
		assert.Empty(t, d.NisabBasisDifference)
		assert.Empty(t, d.BusinessTreatmentDifference)
		assert.Empty(t, d.DebtPolicyDifference)
	})
}

func TestCalculationError(t *testing.T) {
	cause := errors.New("boom")
	err := NewCalculationError(StageClassifyAssets, cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "classify_assets")
	assert.Equal(t, CodeCalculationFailed, err.Code())

	var ce *CalculationError
	assert.True(t, errors.As(error(err), &ce))
	assert.Equal(t, StageClassifyAssets, ce.Stage)
}
