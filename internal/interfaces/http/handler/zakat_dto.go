package handler

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appzakat "github.com/slimatic/zakapp-sub001/internal/application/zakat"
	"github.com/slimatic/zakapp-sub001/internal/domain/zakat"
)

// AssetInput is an inline asset of a calculation request.
// Value and category are checked by the engine, which drops invalid assets instead of failing.
type AssetInput struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name" binding:"max=200"`
	Category      string          `json:"category"`
	SubCategory   string          `json:"sub_category" binding:"max=50"`
	Value         decimal.Decimal `json:"value"`
	Currency      string          `json:"currency"`
	ZakatEligible *bool           `json:"zakat_eligible"`
	Description   string          `json:"description"`
}

// CalculateRequest is the body of POST /zakat/calculate.
// Inline assets win over owner_id + asset_ids.
type CalculateRequest struct {
	Methodology         string           `json:"methodology" binding:"required"`
	CalendarType        string           `json:"calendar_type" binding:"omitempty,oneof=lunar solar"`
	CalculationDate     *time.Time       `json:"calculation_date"`
	OwnerID             uuid.UUID        `json:"owner_id"`
	AssetIDs            []uuid.UUID      `json:"asset_ids"`
	Assets              []AssetInput     `json:"assets" binding:"omitempty,max=500,dive"`
	CustomNisab         *decimal.Decimal `json:"custom_nisab" binding:"omitempty,gt=0"`
	IncludeAlternatives *bool            `json:"include_alternatives"`
}

// CompareRequest is the body of POST /zakat/compare. The first methodology is the reference.
type CompareRequest struct {
	Methodologies   []string         `json:"methodologies" binding:"required,min=1,max=10"`
	CalendarType    string           `json:"calendar_type" binding:"omitempty,oneof=lunar solar"`
	CalculationDate *time.Time       `json:"calculation_date"`
	OwnerID         uuid.UUID        `json:"owner_id"`
	AssetIDs        []uuid.UUID      `json:"asset_ids"`
	Assets          []AssetInput     `json:"assets" binding:"omitempty,max=500,dive"`
	CustomNisab     *decimal.Decimal `json:"custom_nisab" binding:"omitempty,gt=0"`
}

// NisabQuery is the query of GET /zakat/nisab
type NisabQuery struct {
	Methodology string `form:"methodology"`
	Currency    string `form:"currency" binding:"omitempty,currency_code"`
}

// HistoryQuery is the query of GET /zakat/calculations
type HistoryQuery struct {
	OwnerID string `form:"owner_id" binding:"required,uuid"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// ToDomain converts the input to an engine asset; a missing id gets a fresh one
func (a AssetInput) ToDomain() zakat.Asset {
	id := a.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	eligible := true
	if a.ZakatEligible != nil {
		eligible = *a.ZakatEligible
	}
	return zakat.Asset{
		ID:            id,
		Name:          strings.TrimSpace(a.Name),
		Category:      zakat.AssetCategory(strings.ToLower(strings.TrimSpace(a.Category))),
		SubCategory:   strings.TrimSpace(a.SubCategory),
		Value:         a.Value,
		Currency:      strings.ToUpper(strings.TrimSpace(a.Currency)),
		ZakatEligible: eligible,
		Description:   a.Description,
	}
}

func toDomainAssets(in []AssetInput) []zakat.Asset {
	if len(in) == 0 {
		return nil
	}
	out := make([]zakat.Asset, len(in))
	for i, a := range in {
		out[i] = a.ToDomain()
	}
	return out
}

func dateOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// ToCalculationRequest converts the body; includeDefault applies when include_alternatives is absent
func (r CalculateRequest) ToCalculationRequest(includeDefault bool) appzakat.CalculationRequest {
	include := includeDefault
	if r.IncludeAlternatives != nil {
		include = *r.IncludeAlternatives
	}
	return appzakat.CalculationRequest{
		Methodology:         strings.ToLower(strings.TrimSpace(r.Methodology)),
		CalendarType:        zakat.CalendarType(r.CalendarType),
		CalculationDate:     dateOrZero(r.CalculationDate),
		Assets:              toDomainAssets(r.Assets),
		OwnerID:             r.OwnerID,
		AssetIDs:            r.AssetIDs,
		CustomNisab:         r.CustomNisab,
		IncludeAlternatives: include,
	}
}

// ToCalculationRequest converts the body into the shared request of every compared methodology
func (r CompareRequest) ToCalculationRequest() appzakat.CalculationRequest {
	return appzakat.CalculationRequest{
		CalendarType:    zakat.CalendarType(r.CalendarType),
		CalculationDate: dateOrZero(r.CalculationDate),
		Assets:          toDomainAssets(r.Assets),
		OwnerID:         r.OwnerID,
		AssetIDs:        r.AssetIDs,
		CustomNisab:     r.CustomNisab,
	}
}

// MethodologyIDs returns the normalized methodology ids in request order
func (r CompareRequest) MethodologyIDs() []string {
	ids := make([]string, len(r.Methodologies))
	for i, id := range r.Methodologies {
		ids[i] = strings.ToLower(strings.TrimSpace(id))
	}
	return ids
}
