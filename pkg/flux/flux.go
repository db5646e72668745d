// Package flux simulates Flux Solar credits over the life of an installation. Surplus that monthly
// compensation could not absorb becomes a credit that pays future bills, oldest first, until it
// expires.
package flux

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/energeticacoop/photovoltaic-studies/pkg/log"
	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
)

// CreditGeneration returns the monthly credits: the value of the surplus the capped compensation
// left over, scaled by coefficient.
func CreditGeneration(capped, uncapped types.Monthly, coefficient float64) types.Monthly {
	var out types.Monthly
	for m := range out {
		out[m] = (capped[m] - uncapped[m]) * coefficient
	}
	return out
}

// Input configures a simulation. Every simulated year starts again from the same Bills and
// Credits patterns.
type Input struct {
	Bills        types.Monthly
	Credits      types.Monthly
	Baseline     float64
	ExpiryMonths int
	Years        int
}

// Simulate runs the credit queue over in.Years years.
func Simulate(ctx context.Context, in Input) (types.FluxResult, error) {
	res := types.FluxResult{
		Credits:  in.Credits,
		Baseline: in.Baseline,
	}
	if in.Years <= 0 || in.ExpiryMonths <= 0 {
		return res, fmt.Errorf("invalid horizon %d years with %d months expiry: %w", in.Years, in.ExpiryMonths, types.ErrMalformedInput)
	}
	res.AnnualSavings = make([]float64, in.Years)

	var q Queue
	for year := 0; year < in.Years; year++ {
		bills := in.Bills
		for m := range bills {
			month := year*12 + m
			for q.Len() > 0 {
				c := q.PopFront()
				if month-c.Month >= in.ExpiryMonths {
					res.Expired += c.Value
					continue
				}
				if bills[m] <= 0 {
					q.PushFront(c)
					break
				}
				if bills[m] >= c.Value {
					bills[m] -= c.Value
					res.Consumed += c.Value
					continue
				}
				res.Consumed += bills[m]
				c.Value -= bills[m]
				bills[m] = 0
				q.PushFront(c)
				break
			}
			if in.Credits[m] > 0 {
				q.PushBack(Credit{Value: in.Credits[m], Month: month})
				res.Generated += in.Credits[m]
			}
		}
		res.AnnualSavings[year] = in.Baseline - bills.Sum()
		res.FinalYear = bills
	}
	res.Remaining = q.Total()

	log.Ctx(ctx).DebugContext(
		ctx,
		"simulated flux credits",
		slog.Float64("generated", res.Generated),
		slog.Float64("consumed", res.Consumed),
		slog.Float64("expired", res.Expired),
		slog.Float64("remaining", res.Remaining),
	)
	return res, nil
}
