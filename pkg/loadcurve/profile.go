package loadcurve

import (
	"github.com/energeticacoop/photovoltaic-studies/pkg/calendar"
	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
)

// AverageProfile builds a curve for year from the month×hour×weekday means of readings. The result
// is rotated so that it starts at the first hour of year that shares the weekday of the first
// reading. Combinations without readings are 0.
func AverageProfile(readings []types.Reading, year int) types.Curve {
	var sums [12][24][7]float64
	var counts [12][24][7]int
	for _, r := range readings {
		m, h, w := int(r.Time.Month())-1, r.Time.Hour(), int(r.Time.Weekday())
		sums[m][h][w] += r.Value
		counts[m][h][w]++
	}

	dates := calendar.Dates(year)
	var c types.Curve
	for i, t := range dates {
		m, h, w := int(t.Month())-1, t.Hour(), int(t.Weekday())
		if n := counts[m][h][w]; n > 0 {
			c[i] = sums[m][h][w] / float64(n)
		}
	}
	if len(readings) == 0 {
		return c
	}

	first := readings[0].Time.Weekday()
	for i, t := range dates {
		if t.Weekday() == first {
			return c.Rotate(i)
		}
	}
	return c
}

// ScaleProfile turns a normalized reference profile (such as the REE coefficients, which add up to
// 1 over the year) into a consumption curve.
func ScaleProfile(coefficients types.Curve, annualKWh float64) types.Curve {
	return coefficients.Scale(annualKWh)
}
