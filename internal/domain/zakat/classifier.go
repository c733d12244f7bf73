package zakat

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Annotation attached to every ineligible asset
const NotEligibleAnnotation = "Asset not eligible for zakat"

var hundred = decimal.NewFromInt(100)

// Business sub-categories that count as trade stock under categorized treatment
var zakatableBusinessSubCategories = map[string]struct{}{
	"inventory":      {},
	"receivables":    {},
	"trade_goods":    {},
	"cash":           {},
	"stock_in_trade": {},
}

// Debt sub-categories considered uncollectible
var uncollectibleDebtSubCategories = map[string]struct{}{
	"doubtful":      {},
	"bad":           {},
	"uncollectible": {},
}

// zakatableRule returns the zakatable portion of an eligible asset and a rule annotation
type zakatableRule func(a Asset) (decimal.Decimal, string)

func fullValue(label string) zakatableRule {
	return func(a Asset) (decimal.Decimal, string) {
		return a.Value, label
	}
}

// business, property and stocks are full value until finer-grained rules exist.
var zakatableRules = map[AssetCategory]zakatableRule{
	CategoryCash:     fullValue("Cash included at full value"),
	CategoryGold:     fullValue("Gold included at full value"),
	CategorySilver:   fullValue("Silver included at full value"),
	CategoryCrypto:   fullValue("Cryptocurrency included at full value"),
	CategoryBusiness: fullValue("Business asset included at full value"),
	CategoryProperty: fullValue("Property included at full value"),
	CategoryStocks:   fullValue("Stocks included at full value"),
	CategoryDebts:    collectibleDebt,
	CategoryOther:    fullValue("Asset included at full value"),
}

func collectibleDebt(a Asset) (decimal.Decimal, string) {
	if _, bad := uncollectibleDebtSubCategories[normalizeSubCategory(a.SubCategory)]; bad {
		return decimal.Zero, "Debt owed to you is not collectible; excluded"
	}
	return a.Value, "Collectible debt owed to you included at full value"
}

func normalizeSubCategory(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// AssetCalculation is the per-asset line of a ZakatCalculation
type AssetCalculation struct {
	AssetID          string          `json:"asset_id"`
	Name             string          `json:"name"`
	Category         AssetCategory   `json:"category"`
	SubCategory      string          `json:"sub_category,omitempty"`
	Value            decimal.Decimal `json:"value"`
	Currency         string          `json:"currency"`
	OriginalValue    decimal.Decimal `json:"original_value"`
	OriginalCurrency string          `json:"original_currency"`
	ZakatEligible    bool            `json:"zakat_eligible"`
	ZakatableAmount  decimal.Decimal `json:"zakatable_amount"`
	ZakatDue         decimal.Decimal `json:"zakat_due"`
	AppliedRules     []string        `json:"applied_rules"`
}

// ClassifierOption configures an AssetClassifier
type ClassifierOption func(*AssetClassifier)

// WithMarketValuer wires a live valuation source for market_value treatment
func WithMarketValuer(v MarketValuer) ClassifierOption {
	return func(c *AssetClassifier) {
		c.valuer = v
	}
}

// AssetClassifier applies methodology eligibility and valuation rules
type AssetClassifier struct {
	valuer MarketValuer
}

// NewAssetClassifier creates a classifier
func NewAssetClassifier(opts ...ClassifierOption) *AssetClassifier {
	c := &AssetClassifier{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify decides eligibility (and market value, where applicable) for each asset.
// It returns new values and leaves the input untouched.
func (c *AssetClassifier) Classify(ctx context.Context, assets []Asset, m Methodology) []Asset {
	out := make([]Asset, len(assets))
	for i, a := range assets {
		if a.Category == CategoryBusiness {
			a = c.classifyBusiness(ctx, a, m.BusinessAssetTreatment)
		}
		out[i] = a
	}
	return out
}

func (c *AssetClassifier) classifyBusiness(ctx context.Context, a Asset, treatment BusinessAssetTreatment) Asset {
	switch treatment {
	case BusinessTreatmentCategorized:
		_, tradeStock := zakatableBusinessSubCategories[normalizeSubCategory(a.SubCategory)]
		a.ZakatEligible = a.ZakatEligible && tradeStock
	case BusinessTreatmentMarketValue:
		a.ZakatEligible = true
		if c.valuer != nil {
			if v, ok := c.valuer.MarketValue(ctx, a); ok && v.IsPositive() {
				a.Value = v
			}
		}
	default:
		a.ZakatEligible = true
	}
	return a
}

// ZakatableAmount returns the portion of a classified asset that enters the zakat base
func (c *AssetClassifier) ZakatableAmount(a Asset, _ Methodology) decimal.Decimal {
	amount, _ := zakatableAmount(a)
	return amount
}

// DueFor returns zakatable amount × rate / 100
func (c *AssetClassifier) DueFor(a Asset, m Methodology) decimal.Decimal {
	return c.ZakatableAmount(a, m).Mul(m.ZakatRate).Div(hundred)
}

// Calculate bundles value, zakatable amount, due and annotations for one classified asset
func (c *AssetClassifier) Calculate(a Asset, m Methodology) AssetCalculation {
	amount, rule := zakatableAmount(a)
	due := amount.Mul(m.ZakatRate).Div(hundred)

	rules := []string{rule}
	if a.Category == CategoryBusiness {
		rules = append(rules, fmt.Sprintf("Business assets treated as %s", m.BusinessAssetTreatment))
	}
	if a.ZakatEligible && amount.IsPositive() {
		rules = append(rules, fmt.Sprintf("Zakat rate %s%% applied", m.ZakatRate.String()))
	}
	if a.OriginalCurrency != "" && a.OriginalCurrency != a.Currency {
		rules = append(rules, fmt.Sprintf("Converted from %s %s", a.OriginalValue.String(), a.OriginalCurrency))
	}

	return AssetCalculation{
		AssetID:          a.ID.String(),
		Name:             a.Name,
		Category:         a.Category,
		SubCategory:      a.SubCategory,
		Value:            a.Value,
		Currency:         a.Currency,
		OriginalValue:    a.OriginalValue,
		OriginalCurrency: a.OriginalCurrency,
		ZakatEligible:    a.ZakatEligible,
		ZakatableAmount:  amount,
		ZakatDue:         due,
		AppliedRules:     rules,
	}
}

func zakatableAmount(a Asset) (decimal.Decimal, string) {
	if !a.ZakatEligible {
		return decimal.Zero, NotEligibleAnnotation
	}
	rule, ok := zakatableRules[a.Category]
	if !ok {
		rule = zakatableRules[CategoryOther]
	}
	return rule(a)
}
