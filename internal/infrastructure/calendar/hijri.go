// Package calendar converts Gregorian dates to the tabular Islamic calendar
// and reports the lunar adjustment factor.
package calendar

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/slimatic/zakapp-sub001/internal/domain/zakat"
)

// DefaultLunarFactor is 354/365 rounded to four places
var DefaultLunarFactor = decimal.RequireFromString("0.9704")

var monthNames = [...]string{
	"Muharram", "Safar", "Rabi al-Awwal", "Rabi al-Thani",
	"Jumada al-Ula", "Jumada al-Thaniyah", "Rajab", "Shaban",
	"Ramadan", "Shawwal", "Dhu al-Qadah", "Dhu al-Hijjah",
}

// HijriCalendar implements zakat.CalendarSource with the civil tabular
// Islamic calendar (30-year cycle, Friday epoch).
type HijriCalendar struct {
	factor decimal.Decimal
}

// NewHijriCalendar creates a calendar. A non-positive factor uses DefaultLunarFactor.
func NewHijriCalendar(lunarFactor decimal.Decimal) *HijriCalendar {
	if !lunarFactor.IsPositive() {
		lunarFactor = DefaultLunarFactor
	}
	return &HijriCalendar{factor: lunarFactor}
}

// Info implements zakat.CalendarSource
func (c *HijriCalendar) Info(_ context.Context, date time.Time) (zakat.CalendarInfo, error) {
	return zakat.CalendarInfo{
		CalendarType:     zakat.CalendarLunar,
		AdjustmentFactor: c.factor,
		HijriDate:        ToHijri(date),
	}, nil
}

// ToHijri converts the UTC calendar day of t
func ToHijri(t time.Time) zakat.HijriDate {
	t = t.UTC()
	jd := julianDay(t.Year(), int(t.Month()), t.Day())

	l := jd - 1948440 + 10632
	n := (l - 1) / 10631
	l = l - 10631*n + 354
	j := ((10985-l)/5316)*((50*l)/17719) + (l/5670)*((43*l)/15238)
	l = l - ((30-j)/15)*((17719*j)/50) - (j/16)*((15238*j)/43) + 29
	month := (24 * l) / 709
	day := l - (709*month)/24
	year := 30*n + j - 30

	return zakat.HijriDate{
		Year:      year,
		Month:     month,
		Day:       day,
		MonthName: MonthName(month),
	}
}

// MonthName returns the transliterated name of a Hijri month (1-12)
func MonthName(month int) string {
	if month < 1 || month > len(monthNames) {
		return ""
	}
	return monthNames[month-1]
}

// julianDay returns the Julian day number of a proleptic Gregorian date
func julianDay(year, month, day int) int {
	a := (14 - month) / 12
	y := year + 4800 - a
	m := month + 12*a - 3
	return day + (153*m+2)/5 + 365*y + y/4 - y/100 + y/400 - 32045
}
