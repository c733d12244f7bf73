package zakat

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CalendarType is the calendar the hawl is measured in
type CalendarType string

const (
	CalendarLunar CalendarType = "lunar"
	CalendarSolar CalendarType = "solar"
)

// IsValid reports whether t is a supported calendar type
func (t CalendarType) IsValid() bool {
	return t == CalendarLunar || t == CalendarSolar
}

// CalculationStatus describes the outcome of a calculation
type CalculationStatus string

const (
	StatusZakatDue   CalculationStatus = "zakat_due"
	StatusBelowNisab CalculationStatus = "below_nisab"
)

// Totals aggregates per-asset figures. TotalZakatDue is after calendar adjustment;
// SolarEquivalentDue is the sum of per-asset dues before it.
type Totals struct {
	TotalAssets          decimal.Decimal `json:"total_assets"`
	TotalZakatableAssets decimal.Decimal `json:"total_zakatable_assets"`
	TotalZakatDue        decimal.Decimal `json:"total_zakat_due"`
	SolarEquivalentDue   decimal.Decimal `json:"solar_equivalent_due"`
}

// CalendarPeriod is the hawl metadata reported with a calculation
type CalendarPeriod struct {
	CalendarType     CalendarType    `json:"calendar_type"`
	AdjustmentFactor decimal.Decimal `json:"adjustment_factor"`
	Adjusted         bool            `json:"adjusted"`
	HijriDate        HijriDate       `json:"hijri_date"`
	PeriodStart      time.Time       `json:"period_start"`
	PeriodEnd        time.Time       `json:"period_end"`
	DaysInPeriod     int             `json:"days_in_period"`
}

// ZakatCalculation is the immutable primary output of the engine
type ZakatCalculation struct {
	ID              uuid.UUID           `json:"id"`
	OwnerID         uuid.UUID           `json:"owner_id"`
	CalculationDate time.Time           `json:"calculation_date"`
	CalendarType    CalendarType        `json:"calendar_type"`
	Methodology     MethodologySnapshot `json:"methodology"`
	Currency        string              `json:"currency"`
	Nisab           NisabInfo           `json:"nisab"`
	Assets          []AssetCalculation  `json:"assets"`
	Totals          Totals              `json:"totals"`
	MeetsNisab      bool                `json:"meets_nisab"`
	Status          CalculationStatus   `json:"status"`
	Calendar        CalendarPeriod      `json:"calendar"`
	CreatedAt       time.Time           `json:"created_at"`
}

// Aggregate sums value, zakatable amount and due across asset lines
func Aggregate(lines []AssetCalculation) Totals {
	t := Totals{
		TotalAssets:          decimal.Zero,
		TotalZakatableAssets: decimal.Zero,
		TotalZakatDue:        decimal.Zero,
	}
	for _, l := range lines {
		t.TotalAssets = t.TotalAssets.Add(l.Value)
		t.TotalZakatableAssets = t.TotalZakatableAssets.Add(l.ZakatableAmount)
		t.TotalZakatDue = t.TotalZakatDue.Add(l.ZakatDue)
	}
	t.SolarEquivalentDue = t.TotalZakatDue
	return t
}

// ApplyNisabGate zeroes every due amount when the zakatable total is below nisab.
// Raw asset totals are kept either way. The input slice is not modified.
func ApplyNisabGate(lines []AssetCalculation, totals Totals, effectiveNisab decimal.Decimal) ([]AssetCalculation, Totals, bool) {
	meets := totals.TotalZakatableAssets.GreaterThanOrEqual(effectiveNisab)
	out := make([]AssetCalculation, len(lines))
	copy(out, lines)
	if meets {
		return out, totals, true
	}
	for i := range out {
		out[i].ZakatDue = decimal.Zero
	}
	totals.TotalZakatDue = decimal.Zero
	totals.SolarEquivalentDue = decimal.Zero
	return out, totals, false
}

// StatusFor maps the nisab gate outcome to a status
func StatusFor(meetsNisab bool) CalculationStatus {
	if meetsNisab {
		return StatusZakatDue
	}
	return StatusBelowNisab
}
