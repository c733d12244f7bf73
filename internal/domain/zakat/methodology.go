package zakat

import (
	"slices"

	"github.com/shopspring/decimal"
)

// MethodologyID identifies a jurisprudential rule set
type MethodologyID string

// Catalog methodology identifiers
const (
	MethodologyStandard MethodologyID = "standard"
	MethodologyHanafi   MethodologyID = "hanafi"
	MethodologyShafii   MethodologyID = "shafii"
	MethodologyMaliki   MethodologyID = "maliki"
	MethodologyHanbali  MethodologyID = "hanbali"
	MethodologyCustom   MethodologyID = "custom"
)

// String returns the string representation of MethodologyID
func (id MethodologyID) String() string {
	return string(id)
}

// NisabBasis is the metal (or policy) a methodology measures nisab against
type NisabBasis string

const (
	NisabBasisGold        NisabBasis = "gold"
	NisabBasisSilver      NisabBasis = "silver"
	NisabBasisDualMinimum NisabBasis = "dual_minimum"
	NisabBasisCustom      NisabBasis = "custom"
)

// BusinessAssetTreatment decides how business-category assets enter the zakat base
type BusinessAssetTreatment string

const (
	BusinessTreatmentComprehensive BusinessAssetTreatment = "comprehensive"
	BusinessTreatmentCategorized   BusinessAssetTreatment = "categorized"
	BusinessTreatmentMarketValue   BusinessAssetTreatment = "market_value"
)

// DebtDeductionPolicy describes how a methodology treats the payer's own liabilities
type DebtDeductionPolicy string

const (
	DebtDeductionFull      DebtDeductionPolicy = "full"
	DebtDeductionImmediate DebtDeductionPolicy = "immediate_only"
	DebtDeductionNone      DebtDeductionPolicy = "none"
)

// DefaultZakatRate is the standard zakat rate in percent
var DefaultZakatRate = decimal.RequireFromString("2.5")

// Methodology is an immutable rule set looked up by ID
type Methodology struct {
	ID                     MethodologyID          `json:"id"`
	Name                   string                 `json:"name"`
	Description            string                 `json:"description"`
	NisabBasis             NisabBasis             `json:"nisab_basis"`
	ZakatRate              decimal.Decimal        `json:"zakat_rate"`
	BusinessAssetTreatment BusinessAssetTreatment `json:"business_asset_treatment"`
	DebtDeductionPolicy    DebtDeductionPolicy    `json:"debt_deduction_policy"`
	ScholarlyReferences    []string               `json:"scholarly_references"`
}

// Clone returns a deep copy so callers can never alias catalog data
func (m Methodology) Clone() Methodology {
	c := m
	c.ScholarlyReferences = slices.Clone(m.ScholarlyReferences)
	return c
}

// Snapshot captures the metadata a calculation result carries
func (m Methodology) Snapshot() MethodologySnapshot {
	return MethodologySnapshot{
		ID:                     m.ID,
		Name:                   m.Name,
		NisabBasis:             m.NisabBasis,
		ZakatRate:              m.ZakatRate,
		BusinessAssetTreatment: m.BusinessAssetTreatment,
		DebtDeductionPolicy:    m.DebtDeductionPolicy,
	}
}

// MethodologySnapshot is the methodology metadata embedded in a ZakatCalculation
type MethodologySnapshot struct {
	ID                     MethodologyID          `json:"id"`
	Name                   string                 `json:"name"`
	NisabBasis             NisabBasis             `json:"nisab_basis"`
	ZakatRate              decimal.Decimal        `json:"zakat_rate"`
	BusinessAssetTreatment BusinessAssetTreatment `json:"business_asset_treatment"`
	DebtDeductionPolicy    DebtDeductionPolicy    `json:"debt_deduction_policy"`
}

var methodologyTable = []Methodology{
	{
		ID:                     MethodologyStandard,
		Name:                   "Standard (AAOIFI)",
		Description:            "Contemporary consensus approach using the lower of the gold and silver thresholds.",
		NisabBasis:             NisabBasisDualMinimum,
		ZakatRate:              DefaultZakatRate,
		BusinessAssetTreatment: BusinessTreatmentComprehensive,
		DebtDeductionPolicy:    DebtDeductionImmediate,
		ScholarlyReferences: []string{
			"AAOIFI Shari'ah Standard No. 35 (Zakah)",
			"Fiqh al-Zakah, Yusuf al-Qaradawi",
		},
	},
	{
		ID:                     MethodologyHanafi,
		Name:                   "Hanafi",
		Description:            "Silver-based nisab with all trade assets included at full value.",
		NisabBasis:             NisabBasisSilver,
		ZakatRate:              DefaultZakatRate,
		BusinessAssetTreatment: BusinessTreatmentComprehensive,
		DebtDeductionPolicy:    DebtDeductionFull,
		ScholarlyReferences: []string{
			"Al-Hidayah, Burhan al-Din al-Marghinani",
			"Radd al-Muhtar, Ibn Abidin",
		},
	},
	{
		ID:                     MethodologyShafii,
		Name:                   "Shafi'i",
		Description:            "Dual-minimum nisab; only trade-stock business assets are zakatable.",
		NisabBasis:             NisabBasisDualMinimum,
		ZakatRate:              DefaultZakatRate,
		BusinessAssetTreatment: BusinessTreatmentCategorized,
		DebtDeductionPolicy:    DebtDeductionNone,
		ScholarlyReferences: []string{
			"Al-Majmu' Sharh al-Muhadhdhab, al-Nawawi",
			"Minhaj al-Talibin, al-Nawawi",
		},
	},
	{
		ID:                     MethodologyMaliki,
		Name:                   "Maliki",
		Description:            "Dual-minimum nisab; business inventory valued at current market price.",
		NisabBasis:             NisabBasisDualMinimum,
		ZakatRate:              DefaultZakatRate,
		BusinessAssetTreatment: BusinessTreatmentMarketValue,
		DebtDeductionPolicy:    DebtDeductionImmediate,
		ScholarlyReferences: []string{
			"Al-Mudawwana al-Kubra, Sahnun",
			"Mukhtasar Khalil",
		},
	},
	{
		ID:                     MethodologyHanbali,
		Name:                   "Hanbali",
		Description:            "Gold-based nisab with comprehensive inclusion of trade assets.",
		NisabBasis:             NisabBasisGold,
		ZakatRate:              DefaultZakatRate,
		BusinessAssetTreatment: BusinessTreatmentComprehensive,
		DebtDeductionPolicy:    DebtDeductionFull,
		ScholarlyReferences: []string{
			"Al-Mughni, Ibn Qudamah",
			"Kashshaf al-Qina', al-Buhuti",
		},
	},
	{
		ID:                     MethodologyCustom,
		Name:                   "Custom",
		Description:            "User-supplied nisab threshold with standard rate and comprehensive treatment.",
		NisabBasis:             NisabBasisCustom,
		ZakatRate:              DefaultZakatRate,
		BusinessAssetTreatment: BusinessTreatmentComprehensive,
		DebtDeductionPolicy:    DebtDeductionImmediate,
		ScholarlyReferences: []string{
			"User-defined parameters",
		},
	},
}

// Methodologies returns deep copies of every catalog entry in stable order
func Methodologies() []Methodology {
	out := make([]Methodology, 0, len(methodologyTable))
	for _, m := range methodologyTable {
		out = append(out, m.Clone())
	}
	return out
}

// LookupMethodology returns a deep copy of the catalog entry for id
func LookupMethodology(id MethodologyID) (Methodology, bool) {
	for _, m := range methodologyTable {
		if m.ID == id {
			return m.Clone(), true
		}
	}
	return Methodology{}, false
}
