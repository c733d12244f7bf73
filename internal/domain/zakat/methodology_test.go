package zakat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethodologies(t *testing.T) {
	all := Methodologies()
	ids := make([]MethodologyID, 0, len(all))
	for _, m := range all {
		ids = append(ids, m.ID)
		assert.True(t, DefaultZakatRate.Equal(m.ZakatRate), m.ID)
		assert.NotEmpty(t, m.ScholarlyReferences, m.ID)
	}
	assert.Equal(t, []MethodologyID{
		MethodologyStandard, MethodologyHanafi, MethodologyShafii,
		MethodologyMaliki, MethodologyHanbali, MethodologyCustom,
	}, ids)
}

func TestLookupMethodology(t *testing.T) {
	t.Run("known id", func(t *testing.T) {
		m, ok := LookupMethodology(MethodologyHanafi)
		require.True(t, ok)
		assert.Equal(t, NisabBasisSilver, m.NisabBasis)
		assert.Equal(t, BusinessTreatmentComprehensive, m.BusinessAssetTreatment)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, ok := LookupMethodology("jafari")
		assert.False(t, ok)
	})

	t.Run("returns deep copies", func(t *testing.T) {
		m, _ := LookupMethodology(MethodologyHanbali)
		m.ScholarlyReferences[0] = "mutated"
		m.Name = "mutated"

		again, _ := LookupMethodology(MethodologyHanbali)
		assert.Equal(t, "Hanbali", again.Name)
		assert.NotEqual(t, "mutated", again.ScholarlyReferences[0])
	})
}

func TestMethodology_Snapshot(t *testing.T) {
	m, _ := LookupMethodology(MethodologyShafii)
	s := m.Snapshot()
	assert.Equal(t, m.ID, s.ID)
	assert.Equal(t, BusinessTreatmentCategorized, s.BusinessAssetTreatment)
	assert.Equal(t, DebtDeductionNone, s.DebtDeductionPolicy)
}
