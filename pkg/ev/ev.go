// Package ev simulates charging an electric vehicle at home over a canonical year.
//
// The vehicle is away according to an hour×(season, weekend) grid usage table and drains its
// battery evenly over the hours it is away each day. While at home it charges from solar surplus,
// or from the grid up to the contracted power during the cheap night period.
package ev

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/energeticacoop/photovoltaic-studies/pkg/calendar"
	"github.com/energeticacoop/photovoltaic-studies/pkg/log"
	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
)

const seasonColumns = 8

func validate(year *calendar.Year, in types.EVInput) error {
	if len(in.GridUsage) != 24 {
		return fmt.Errorf("grid usage has %d rows, want 24: %w", len(in.GridUsage), types.ErrDimensionMismatch)
	}
	for h, row := range in.GridUsage {
		if len(row) != seasonColumns {
			return fmt.Errorf("grid usage row %d has %d columns, want %d: %w", h, len(row), seasonColumns, types.ErrDimensionMismatch)
		}
	}
	if len(in.SeasonKm) != seasonColumns {
		return fmt.Errorf("got %d season distances, want %d: %w", len(in.SeasonKm), seasonColumns, types.ErrDimensionMismatch)
	}
	if n := year.Tariff.PeriodCount(); len(in.ContractedKW) != n {
		return fmt.Errorf("got %d contracted powers for %s, want %d: %w", len(in.ContractedKW), year.Tariff, n, types.ErrDimensionMismatch)
	}
	if in.BatteryKWh < 0 || in.ConsumptionPer100KmKWh < 0 || in.MaxChargerKW < 0 {
		return fmt.Errorf("negative battery, consumption or charger power: %w", types.ErrMalformedInput)
	}
	return nil
}

// Simulate runs the charging simulation. partial is the consumer's consumption without the vehicle
// and production is the consumer's share of solar production.
func Simulate(ctx context.Context, year *calendar.Year, in types.EVInput, partial, production types.Curve) (types.EVResult, error) {
	var res types.EVResult
	if err := validate(year, in); err != nil {
		return res, err
	}
	steps, err := normalizedPowers(in)
	if err != nil {
		return res, err
	}
	res.MaxChargeKW = MaxChargePowers(in.ContractedKW, in.MaxChargerKW, steps)

	// every canonical day is 24 consecutive hours
	const days = types.HoursPerYear / 24
	var away [types.HoursPerYear]bool
	var load [types.HoursPerYear]float64
	perKm := in.ConsumptionPer100KmKWh / 100
	for d := 0; d < days; d++ {
		first := d * 24
		col := year.SeasonColumn(first)
		var hours int
		for h := 0; h < 24; h++ {
			away[first+h] = !in.GridUsage[h][col]
			if away[first+h] {
				hours++
			}
		}
		if hours == 0 {
			res.IdleDays++
			continue
		}
		perHour, err := hourlyDischarge(in.SeasonKm[col]*perKm, hours)
		if err != nil {
			return res, err
		}
		for h := 0; h < 24; h++ {
			if away[first+h] {
				load[first+h] = perHour
			}
		}
	}

	level := in.BatteryKWh
	for i := range load {
		switch {
		case load[i] > 0:
			level -= load[i]
			if level < 0 {
				res.UnmetKWh += -level
				res.DepletionCount++
				level = 0
			}
		case !away[i]:
			p := year.Periods[i] - 1
			var available float64
			if year.Tariff.IsNightPeriod(year.Periods[i]) {
				available = max(0, in.ContractedKW[p]-max(0, partial[i]-production[i]))
			} else {
				available = min(max(0, production[i]-partial[i]), in.MaxChargerKW)
			}
			charge := min(in.BatteryKWh-level, available, res.MaxChargeKW[p])
			res.Charge[i] = charge
			level += charge
		}
		res.Battery[i] = level
	}

	log.Ctx(ctx).DebugContext(
		ctx,
		"simulated ev charging",
		slog.Float64("chargedKWh", res.Charge.Sum()),
		slog.Float64("unmetKWh", res.UnmetKWh),
		slog.Int("depletions", res.DepletionCount),
		slog.Int("idleDays", res.IdleDays),
	)
	return res, nil
}

// hourlyDischarge spreads a day's driving demand over the hours the vehicle is away.
func hourlyDischarge(demand float64, hours int) (float64, error) {
	if hours == 0 {
		if demand > 0 {
			return 0, fmt.Errorf("%g kWh over zero hours: %w", demand, types.ErrZeroDivision)
		}
		return 0, nil
	}
	return demand / float64(hours), nil
}

// normalizedPowers returns the tabulated charger powers for the installation type. No charger
// model means no tabulated limit.
func normalizedPowers(in types.EVInput) ([]float64, error) {
	if in.Charger == "" {
		return nil, nil
	}
	table, ok := in.ChargerPowers[in.Charger]
	if !ok {
		return nil, fmt.Errorf("unknown charger %q: %w", in.Charger, types.ErrMalformedInput)
	}
	steps := make([]float64, 0, len(table))
	for _, p := range table {
		switch in.Installation {
		case types.InstallationSinglePhase:
			steps = append(steps, p.SinglePhase)
		case types.InstallationThreePhase:
			steps = append(steps, p.ThreePhase)
		default:
			return nil, fmt.Errorf("unknown installation %q: %w", in.Installation, types.ErrMalformedInput)
		}
	}
	return steps, nil
}

// MaxChargePowers returns the charging limit of every tariff period: the lowest of the contracted
// power, the charger's own maximum and the largest tabulated power strictly below the contracted
// power.
func MaxChargePowers(contracted []float64, maxCharger float64, steps []float64) []float64 {
	out := make([]float64, len(contracted))
	for p, c := range contracted {
		limit := math.Inf(1)
		for _, s := range steps {
			if s < c && (math.IsInf(limit, 1) || s > limit) {
				limit = s
			}
		}
		out[p] = min(c, maxCharger, limit)
	}
	return out
}
