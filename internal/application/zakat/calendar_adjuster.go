package zakat

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/slimatic/zakapp-sub001/internal/domain/zakat"
)

// Hawl lengths in days
const (
	LunarYearDays = 354
	SolarYearDays = 365
)

// DefaultLunarFactor scales a solar-year due down to a lunar year
var DefaultLunarFactor = decimal.RequireFromString("0.9704")

// CalendarAdjuster resolves hawl metadata and applies the lunar factor
type CalendarAdjuster struct {
	source        zakat.CalendarSource
	defaultFactor decimal.Decimal
}

// NewCalendarAdjuster creates an adjuster. A non-positive factor falls back to DefaultLunarFactor.
func NewCalendarAdjuster(source zakat.CalendarSource, lunarFactor decimal.Decimal) *CalendarAdjuster {
	if !lunarFactor.IsPositive() {
		lunarFactor = DefaultLunarFactor
	}
	return &CalendarAdjuster{source: source, defaultFactor: lunarFactor}
}

// Resolve builds the calendar period for a calculation dated date.
// Solar periods always carry factor 1.
func (a *CalendarAdjuster) Resolve(ctx context.Context, date time.Time, calendarType zakat.CalendarType) (zakat.CalendarPeriod, error) {
	if !calendarType.IsValid() {
		calendarType = zakat.CalendarLunar
	}

	period := zakat.CalendarPeriod{
		CalendarType:     calendarType,
		AdjustmentFactor: decimal.NewFromInt(1),
		PeriodEnd:        date,
	}
	if a.source != nil {
		info, err := a.source.Info(ctx, date)
		if err != nil {
			return zakat.CalendarPeriod{}, err
		}
		period.HijriDate = info.HijriDate
		if calendarType == zakat.CalendarLunar {
			period.AdjustmentFactor = info.AdjustmentFactor
		}
	}

	days := SolarYearDays
	if calendarType == zakat.CalendarLunar {
		days = LunarYearDays
		if !period.AdjustmentFactor.IsPositive() || a.source == nil {
			period.AdjustmentFactor = a.defaultFactor
		}
	}
	period.DaysInPeriod = days
	period.PeriodStart = date.AddDate(0, 0, -days)
	return period, nil
}

// Apply scales the total due for lunar periods that met nisab.
// It is the only transform applied after aggregation.
func (a *CalendarAdjuster) Apply(totals zakat.Totals, period zakat.CalendarPeriod, meetsNisab bool) (zakat.Totals, zakat.CalendarPeriod) {
	if period.CalendarType != zakat.CalendarLunar || !meetsNisab {
		period.Adjusted = false
		return totals, period
	}
	totals.TotalZakatDue = totals.SolarEquivalentDue.Mul(period.AdjustmentFactor)
	period.Adjusted = true
	return totals, period
}
