package zakat

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedValuer struct {
	value decimal.Decimal
	ok    bool
}

func (v fixedValuer) MarketValue(_ context.Context, _ Asset) (decimal.Decimal, bool) {
	return v.value, v.ok
}

func newAsset(category AssetCategory, value int64, eligible bool) Asset {
	return Asset{
		ID:            uuid.New(),
		Name:          string(category),
		Category:      category,
		Value:         decimal.NewFromInt(value),
		Currency:      "USD",
		ZakatEligible: eligible,
	}
}

func methodology(t *testing.T, id MethodologyID) Methodology {
	t.Helper()
	m, ok := LookupMethodology(id)
	require.True(t, ok)
	return m
}

func TestAssetClassifier_Classify_Business(t *testing.T) {
	ctx := context.Background()
	c := NewAssetClassifier()

	t.Run("comprehensive makes business assets eligible", func(t *testing.T) {
		a := newAsset(CategoryBusiness, 1000, false)
		out := c.Classify(ctx, []Asset{a}, methodology(t, MethodologyHanafi))
		assert.True(t, out[0].ZakatEligible)
		assert.False(t, a.ZakatEligible, "input must not be mutated")
	})

	t.Run("categorized requires flag and trade sub-category", func(t *testing.T) {
		m := methodology(t, MethodologyShafii)

		inventory := newAsset(CategoryBusiness, 1000, true)
		inventory.SubCategory = "Inventory"
		equipment := newAsset(CategoryBusiness, 1000, true)
		equipment.SubCategory = "equipment"
		unflagged := newAsset(CategoryBusiness, 1000, false)
		unflagged.SubCategory = "receivables"

		out := c.Classify(ctx, []Asset{inventory, equipment, unflagged}, m)
		assert.True(t, out[0].ZakatEligible)
		assert.False(t, out[1].ZakatEligible)
		assert.False(t, out[2].ZakatEligible)
	})

	t.Run("market value falls back to declared value", func(t *testing.T) {
		a := newAsset(CategoryBusiness, 1000, true)
		out := c.Classify(ctx, []Asset{a}, methodology(t, MethodologyMaliki))
		assert.True(t, out[0].ZakatEligible)
		assert.True(t, decimal.NewFromInt(1000).Equal(out[0].Value))
	})

	t.Run("market value uses live valuation", func(t *testing.T) {
		valued := NewAssetClassifier(WithMarketValuer(fixedValuer{value: decimal.NewFromInt(1500), ok: true}))
		a := newAsset(CategoryBusiness, 1000, true)
		out := valued.Classify(ctx, []Asset{a}, methodology(t, MethodologyMaliki))
		assert.True(t, decimal.NewFromInt(1500).Equal(out[0].Value))
	})

	t.Run("non-business assets keep their flag", func(t *testing.T) {
		property := newAsset(CategoryProperty, 200000, false)
		out := c.Classify(ctx, []Asset{property}, methodology(t, MethodologyHanafi))
		assert.False(t, out[0].ZakatEligible)
	})
}

func TestAssetClassifier_ZakatableAmount(t *testing.T) {
	c := NewAssetClassifier()
	m := methodology(t, MethodologyStandard)

	for _, cat := range []AssetCategory{CategoryCash, CategoryGold, CategorySilver, CategoryCrypto, CategoryBusiness, CategoryProperty, CategoryStocks, CategoryOther} {
		t.Run(string(cat), func(t *testing.T) {
			a := newAsset(cat, 4000, true)
			assert.True(t, decimal.NewFromInt(4000).Equal(c.ZakatableAmount(a, m)))
		})
	}

	t.Run("collectible debt", func(t *testing.T) {
		a := newAsset(CategoryDebts, 3000, true)
		assert.True(t, decimal.NewFromInt(3000).Equal(c.ZakatableAmount(a, m)))
	})

	t.Run("doubtful debt", func(t *testing.T) {
		a := newAsset(CategoryDebts, 3000, true)
		a.SubCategory = "doubtful"
		assert.True(t, c.ZakatableAmount(a, m).IsZero())
	})

	t.Run("ineligible asset", func(t *testing.T) {
		a := newAsset(CategoryCash, 3000, false)
		assert.True(t, c.ZakatableAmount(a, m).IsZero())
		assert.True(t, c.DueFor(a, m).IsZero())
	})
}

func TestAssetClassifier_Calculate(t *testing.T) {
	c := NewAssetClassifier()
	m := methodology(t, MethodologyStandard)

	t.Run("due is zakatable times rate over 100", func(t *testing.T) {
		a := newAsset(CategoryCash, 10000, true)
		line := c.Calculate(a, m)
		assert.True(t, decimal.NewFromInt(10000).Equal(line.ZakatableAmount))
		assert.True(t, decimal.NewFromInt(250).Equal(line.ZakatDue))
		assert.Equal(t, a.ID.String(), line.AssetID)
	})

	t.Run("ineligible asset is annotated", func(t *testing.T) {
		a := newAsset(CategoryProperty, 200000, false)
		line := c.Calculate(a, m)
		assert.True(t, line.ZakatDue.IsZero())
		assert.True(t, line.ZakatableAmount.IsZero())
		assert.Contains(t, line.AppliedRules, NotEligibleAnnotation)
	})

	t.Run("converted asset records its origin", func(t *testing.T) {
		a := newAsset(CategoryCash, 1100, true)
		a.OriginalValue = decimal.NewFromInt(1000)
		a.OriginalCurrency = "EUR"
		line := c.Calculate(a, m)
		assert.Contains(t, line.AppliedRules, "Converted from 1000 EUR")
	})
}
