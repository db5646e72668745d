package consumption

import (
	"github.com/energeticacoop/photovoltaic-studies/pkg/calendar"
	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
)

// Summarize sums a curve by hour of day and by month.
func Summarize(year *calendar.Year, c types.Curve) types.Breakdown {
	var b types.Breakdown
	for i, v := range c {
		b.Hourly[year.Dates[i].Hour()] += v
	}
	b.Monthly = year.Monthly(c)
	b.Annual = c.Sum()
	return b
}

// Breakdowns summarizes every flow and source curve, keyed by name.
func Breakdowns(year *calendar.Year, comp *Composition) map[string]types.Breakdown {
	out := map[string]types.Breakdown{
		"production":      Summarize(year, comp.Flows.Production),
		"total":           Summarize(year, comp.Flows.Total),
		"selfConsumption": Summarize(year, comp.Flows.SelfConsumption),
		"surplus":         Summarize(year, comp.Flows.Surplus),
		"gridDemand":      Summarize(year, comp.Flows.GridDemand),
	}
	for _, s := range Sources {
		out[s.String()] = Summarize(year, comp.Curve(s))
	}
	return out
}

// Analyze describes the shape of a consumption curve: monthly totals and peaks, hourly and daily
// means, and how many hours exceed their month×hour mean by more than factor.
func Analyze(year *calendar.Year, c types.Curve, factor float64) types.ConsumptionAnalysis {
	var a types.ConsumptionAnalysis
	var hourCounts [12][24]int
	var dayCounts [12][7]int

	for i, v := range c {
		t := year.Dates[i]
		m, h := year.MonthIndex(i), t.Hour()
		a.Monthly[m] += v
		a.MonthlyPeak[m] = max(a.MonthlyPeak[m], v)
		a.HourlyMeans[m][h] += v
		hourCounts[m][h]++
		a.WeekdayMeans[m][t.Weekday()] += v
		if h == 0 {
			dayCounts[m][t.Weekday()]++
		}
	}
	a.Yearly = a.Monthly.Sum()

	for m := range a.HourlyMeans {
		for h := range a.HourlyMeans[m] {
			if n := hourCounts[m][h]; n > 0 {
				a.HourlyMeans[m][h] /= float64(n)
			}
		}
		for w := range a.WeekdayMeans[m] {
			if n := dayCounts[m][w]; n > 0 {
				a.WeekdayMeans[m][w] /= float64(n)
			}
		}
	}

	for i, v := range c {
		m, h := year.MonthIndex(i), year.Dates[i].Hour()
		if v > a.HourlyMeans[m][h]*factor {
			a.Exceeding[m][h]++
		}
	}
	return a
}
