package types

import "fmt"

// TariffClass is the access tariff of a supply point. It decides how hours map to tariff periods
// and how many prices a price vector carries.
type TariffClass string

const (
	// Tariff20TD is the low-voltage residential tariff with 3 periods.
	Tariff20TD TariffClass = "2.0TD"
	// Tariff30TD is the medium-voltage tariff with 6 periods.
	Tariff30TD TariffClass = "3.0TD"
	// Tariff61TD is the high-voltage tariff with 6 periods.
	Tariff61TD TariffClass = "6.1TD"
)

// TariffClasses lists every supported class.
var TariffClasses = []TariffClass{Tariff20TD, Tariff30TD, Tariff61TD}

// PeriodCount is the number of tariff periods, and so the length of price and contracted power vectors.
func (c TariffClass) PeriodCount() int {
	switch c {
	case Tariff20TD:
		return 3
	case Tariff30TD, Tariff61TD:
		return 6
	}
	return 0
}

// CheapestPeriod is the period used for weekends, holidays and night hours.
func (c TariffClass) CheapestPeriod() int {
	return c.PeriodCount()
}

// IsNightPeriod reports whether period is the cheap night/weekend period of the class.
func (c TariffClass) IsNightPeriod(period int) bool {
	return c.PeriodCount() > 0 && period == c.CheapestPeriod()
}

func (c TariffClass) Validate() error {
	if c.PeriodCount() == 0 {
		return fmt.Errorf("unknown tariff class %q: %w", string(c), ErrMalformedInput)
	}
	return nil
}

// Season is the climate season of a month. Winter spans November through February.
type Season int

const (
	SeasonSpring Season = 0
	SeasonSummer Season = 1
	SeasonAutumn Season = 2
	SeasonWinter Season = 3
)

// Column returns the index into hour×(season, weekend) tables, which hold a weekday and a
// weekend/holiday column per season.
func (s Season) Column(weekendOrHoliday bool) int {
	if weekendOrHoliday {
		return int(s)*2 + 1
	}
	return int(s) * 2
}

func (s Season) String() string {
	switch s {
	case SeasonSpring:
		return "spring"
	case SeasonSummer:
		return "summer"
	case SeasonAutumn:
		return "autumn"
	case SeasonWinter:
		return "winter"
	}
	return fmt.Sprintf("season(%d)", int(s))
}
