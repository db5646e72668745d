// Package billing prices hourly energy flows with the tariff period of every hour and computes the
// monthly bills of a consumer with and without solar production.
package billing

import (
	"fmt"

	"github.com/energeticacoop/photovoltaic-studies/pkg/calendar"
	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
)

// Engine prices curves for one canonical year.
type Engine struct {
	year   *calendar.Year
	prices types.PriceInput
	taxes  float64
}

// NewEngine validates that there is one energy price per tariff period.
func NewEngine(year *calendar.Year, prices types.PriceInput, params types.Params) (*Engine, error) {
	if n := year.Tariff.PeriodCount(); len(prices.Energy) != n {
		return nil, fmt.Errorf("got %d energy prices for %s, want %d: %w", len(prices.Energy), year.Tariff, n, types.ErrDimensionMismatch)
	}
	return &Engine{
		year:   year,
		prices: prices,
		taxes:  params.Taxes(),
	}, nil
}

// Taxes is the multiplier applied to every energy amount.
func (e *Engine) Taxes() float64 {
	return e.taxes
}

// HourlyCost prices every hour of c with its period's energy price, taxes included.
func (e *Engine) HourlyCost(c types.Curve) types.Curve {
	var out types.Curve
	for i, v := range c {
		out[i] = v * e.prices.Energy[e.year.Periods[i]-1] * e.taxes
	}
	return out
}

// MonthlyCost sums the hourly cost of c by month.
func (e *Engine) MonthlyCost(c types.Curve) types.Monthly {
	return e.year.Monthly(e.HourlyCost(c))
}

// Bills computes the monthly bills under every compensation policy.
func (e *Engine) Bills(flows types.Flows) types.Bills {
	b := types.Bills{
		Taxes:   e.taxes,
		NoPV:    e.MonthlyCost(flows.Total),
		WithPV:  e.MonthlyCost(flows.GridDemand),
		Surplus: e.year.Monthly(flows.Surplus),
		Fixed:   e.prices.MonthlyPower.Add(e.prices.MonthlyRegulated),
	}
	unit := e.prices.Compensation * e.taxes
	for m := range b.Surplus {
		value := b.Surplus[m] * unit
		// compensation can never take a bill below zero
		b.Compensation[m] = min(b.WithPV[m], value)
		if unit != 0 {
			b.CompensableSurplus[m] = b.Compensation[m] / unit
		}
		b.Capped[m] = b.WithPV[m] - b.Compensation[m]
		b.Uncapped[m] = b.WithPV[m] - value
	}
	b.BeforeCredits = b.Capped.Add(b.Fixed)
	return b
}
