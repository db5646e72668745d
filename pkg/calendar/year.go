package calendar

import (
	"time"

	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
)

// Year holds the classification of every hour of a canonical year for one tariff class and
// holiday set. It is read-only once built and can be shared between studies.
type Year struct {
	Year   int
	Tariff types.TariffClass

	Dates            [types.HoursPerYear]time.Time
	Seasons          [types.HoursPerYear]types.Season
	WeekendOrHoliday [types.HoursPerYear]bool
	Periods          [types.HoursPerYear]int
}

// NewYear classifies every hour of year.
func NewYear(year int, class types.TariffClass, holidays Holidays) (*Year, error) {
	if err := class.Validate(); err != nil {
		return nil, err
	}
	y := &Year{
		Year:   year,
		Tariff: class,
		Dates:  Dates(year),
	}
	for i, t := range y.Dates {
		y.Seasons[i] = SeasonOf(t)
		y.WeekendOrHoliday[i] = IsWeekendOrHoliday(t, holidays)
		p, err := TariffPeriod(t, class, holidays)
		if err != nil {
			return nil, err
		}
		y.Periods[i] = p
	}
	return y, nil
}

// SeasonColumn returns the hour×(season, weekend) table column of hour i.
func (y *Year) SeasonColumn(i int) int {
	return y.Seasons[i].Column(y.WeekendOrHoliday[i])
}

// MonthIndex returns the zero-based month of hour i.
func (y *Year) MonthIndex(i int) int {
	return int(y.Dates[i].Month()) - 1
}

// Monthly sums a curve into calendar months.
func (y *Year) Monthly(c types.Curve) types.Monthly {
	var m types.Monthly
	for i, v := range c {
		m[y.MonthIndex(i)] += v
	}
	return m
}
