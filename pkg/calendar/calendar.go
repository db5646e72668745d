// Package calendar classifies the hours of a canonical year: DST anchors, weekends and holidays,
// seasons and access tariff periods. All times are civil wall-clock times in UTC.
package calendar

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
)

// ShiftHours returns t advanced by n hours. Hour-ending readings are shifted by -1.
func ShiftHours(t time.Time, n int) time.Time {
	return t.Add(time.Duration(n) * time.Hour)
}

// LastSundayBefore returns the last Sunday, at hour 0, strictly before the 1st of month.
func LastSundayBefore(year int, month time.Month) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	back := int(first.Weekday())
	if back == 0 {
		back = 7
	}
	return first.AddDate(0, 0, -back)
}

// DSTStart is the day clocks go forward: the last Sunday of March, 02:00 becomes 03:00.
func DSTStart(year int) time.Time {
	return LastSundayBefore(year, time.April)
}

// DSTEnd is the day clocks go back: the last Sunday of October, 03:00 becomes 02:00.
func DSTEnd(year int) time.Time {
	return LastSundayBefore(year, time.November)
}

func IsDSTStartDate(t time.Time) bool {
	return civil.DateOf(t) == civil.DateOf(DSTStart(t.Year()))
}

func IsDSTEndDate(t time.Time) bool {
	return civil.DateOf(t) == civil.DateOf(DSTEnd(t.Year()))
}

// IsWeekendOrHoliday reports whether t falls on a Saturday, a Sunday or one of the holidays.
func IsWeekendOrHoliday(t time.Time, holidays Holidays) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	return holidays.Contains(t)
}

// SeasonOf returns the season of t's month. Winter is November through February.
func SeasonOf(t time.Time) types.Season {
	switch t.Month() {
	case time.March, time.April, time.May:
		return types.SeasonSpring
	case time.June, time.July, time.August:
		return types.SeasonSummer
	case time.September, time.October:
		return types.SeasonAutumn
	default:
		return types.SeasonWinter
	}
}

// IsFebruary29 reports whether t is a leap day, which canonical years never contain.
func IsFebruary29(t time.Time) bool {
	return t.Month() == time.February && t.Day() == 29
}

// secondPeriodHours are the shoulder hours of working days.
var secondPeriodHours = [24]bool{8: true, 14: true, 15: true, 16: true, 17: true, 22: true, 23: true}

// sixPeriodMonths maps a month to its {shoulder, peak} periods for the 6-period tariffs.
var sixPeriodMonths = map[time.Month][2]int{
	time.January:   {2, 1},
	time.February:  {2, 1},
	time.July:      {2, 1},
	time.December:  {2, 1},
	time.March:     {3, 2},
	time.November:  {3, 2},
	time.April:     {5, 4},
	time.May:       {5, 4},
	time.October:   {5, 4},
	time.June:      {4, 3},
	time.August:    {4, 3},
	time.September: {4, 3},
}

// TariffPeriod returns the period (1 = most expensive) of the hour starting at t.
// Weekends, holidays and hours 0-7 always fall in the cheapest period of the class.
func TariffPeriod(t time.Time, class types.TariffClass, holidays Holidays) (int, error) {
	hour := t.Hour()
	cheap := IsWeekendOrHoliday(t, holidays) || hour < 8
	switch class {
	case types.Tariff20TD:
		switch {
		case cheap:
			return 3, nil
		case hour == 9 || secondPeriodHours[hour]:
			return 2, nil
		default:
			return 1, nil
		}
	case types.Tariff30TD, types.Tariff61TD:
		if cheap {
			return 6, nil
		}
		periods, ok := sixPeriodMonths[t.Month()]
		if !ok {
			break
		}
		if secondPeriodHours[hour] {
			return periods[0], nil
		}
		return periods[1], nil
	}
	return 0, fmt.Errorf("%s at %s: %w", class, t.Format(time.DateTime), types.ErrUndefinedTariffPeriod)
}

// Dates returns the starting instant of every hour of the canonical year, skipping Feb 29.
func Dates(year int) [types.HoursPerYear]time.Time {
	var dates [types.HoursPerYear]time.Time
	t := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < types.HoursPerYear; t = t.Add(time.Hour) {
		if IsFebruary29(t) {
			continue
		}
		dates[i] = t
		i++
	}
	return dates
}
