package zakat

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetCategory classifies wealth for zakat purposes
type AssetCategory string

const (
	CategoryCash     AssetCategory = "cash"
	CategoryGold     AssetCategory = "gold"
	CategorySilver   AssetCategory = "silver"
	CategoryCrypto   AssetCategory = "crypto"
	CategoryBusiness AssetCategory = "business"
	CategoryProperty AssetCategory = "property"
	CategoryStocks   AssetCategory = "stocks"
	CategoryDebts    AssetCategory = "debts"
	CategoryOther    AssetCategory = "other"
)

// AllAssetCategories lists every supported category
var AllAssetCategories = []AssetCategory{
	CategoryCash, CategoryGold, CategorySilver, CategoryCrypto,
	CategoryBusiness, CategoryProperty, CategoryStocks, CategoryDebts, CategoryOther,
}

// IsValid reports whether c is a known category
func (c AssetCategory) IsValid() bool {
	for _, known := range AllAssetCategories {
		if c == known {
			return true
		}
	}
	return false
}

// String returns the string representation of AssetCategory
func (c AssetCategory) String() string {
	return string(c)
}

// Asset is a read-only snapshot of a declared holding.
// Normalization produces new values; the engine never mutates an Asset in place.
type Asset struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	Category         AssetCategory   `json:"category"`
	Value            decimal.Decimal `json:"value"`
	Currency         string          `json:"currency"`
	ZakatEligible    bool            `json:"zakat_eligible"`
	SubCategory      string          `json:"sub_category,omitempty"`
	Description      string          `json:"description,omitempty"`
	OriginalValue    decimal.Decimal `json:"original_value"`
	OriginalCurrency string          `json:"original_currency"`
}

// Asset validation failures
var (
	errNonPositiveValue = errors.New("asset value must be positive")
	errMissingCurrency  = errors.New("asset currency is required")
	errMissingCategory  = errors.New("asset category is required")
)

// Validate checks the minimum an asset needs to enter a calculation
func (a Asset) Validate() error {
	if !a.Value.IsPositive() {
		return errNonPositiveValue
	}
	if strings.TrimSpace(a.Currency) == "" {
		return errMissingCurrency
	}
	if strings.TrimSpace(string(a.Category)) == "" {
		return errMissingCategory
	}
	return nil
}

// RejectedAsset records an asset dropped during validation
type RejectedAsset struct {
	AssetID uuid.UUID
	Name    string
	Reason  error
}

// FilterValidAssets keeps assets that pass Validate and stamps their original value/currency.
func FilterValidAssets(assets []Asset) ([]Asset, []RejectedAsset) {
	valid := make([]Asset, 0, len(assets))
	var rejected []RejectedAsset
	for _, a := range assets {
		if err := a.Validate(); err != nil {
			rejected = append(rejected, RejectedAsset{AssetID: a.ID, Name: a.Name, Reason: err})
			continue
		}
		if a.OriginalCurrency == "" {
			a.OriginalValue = a.Value
			a.OriginalCurrency = a.Currency
		}
		valid = append(valid, a)
	}
	return valid, rejected
}
