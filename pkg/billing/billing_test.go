package billing

import (
	"errors"
	"testing"

	"github.com/energeticacoop/photovoltaic-studies/pkg/calendar"
	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testYear(t *testing.T) *calendar.Year {
	t.Helper()
	y, err := calendar.NewYear(2023, types.Tariff20TD, calendar.NewHolidays())
	require.NoError(t, err)
	return y
}

func constant(v float64) types.Curve {
	var c types.Curve
	for i := range c {
		c[i] = v
	}
	return c
}

func TestNewEngine(t *testing.T) {
	y := testYear(t)
	_, err := NewEngine(y, types.PriceInput{Energy: []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1}}, types.Params{})
	assert.True(t, errors.Is(err, types.ErrDimensionMismatch))

	e, err := NewEngine(y, types.PriceInput{Energy: []float64{0.3, 0.2, 0.1}}, types.Params{VAT: 0.21, ElectricityTax: 0.05})
	require.NoError(t, err)
	assert.InDelta(t, 1.2705, e.Taxes(), 1e-12)
}

func TestHourlyCost(t *testing.T) {
	y := testYear(t)
	e, err := NewEngine(y, types.PriceInput{Energy: []float64{0.3, 0.2, 0.1}}, types.Params{})
	require.NoError(t, err)

	cost := e.HourlyCost(constant(2))
	// Tue Jun 13 2023
	day := (31 + 28 + 31 + 30 + 31 + 12) * 24
	assert.InDelta(t, 0.2, cost[day+3], 1e-12)
	assert.InDelta(t, 0.4, cost[day+9], 1e-12)
	assert.InDelta(t, 0.6, cost[day+20], 1e-12)
	// Sat Jun 17 2023
	assert.InDelta(t, 0.2, cost[day+4*24+20], 1e-12)
}

func TestBills(t *testing.T) {
	y := testYear(t)
	prices := types.PriceInput{
		Energy:       []float64{0.1, 0.1, 0.1},
		Compensation: 0.5,
	}
	for m := range prices.MonthlyPower {
		prices.MonthlyPower[m] = 10
		prices.MonthlyRegulated[m] = 2
	}
	e, err := NewEngine(y, prices, types.Params{})
	require.NoError(t, err)

	flows := types.Flows{
		Total:      constant(1),
		GridDemand: constant(0.5),
	}
	// 100 kWh in January, 10 kWh in February
	flows.Surplus[12] = 100
	flows.Surplus[31*24+12] = 10

	b := e.Bills(flows)
	assert.Equal(t, 1.0, b.Taxes)
	assert.InDelta(t, 74.4, b.NoPV[0], 1e-9)
	assert.InDelta(t, 37.2, b.WithPV[0], 1e-9)
	assert.InDelta(t, 100, b.Surplus[0], 1e-9)

	t.Run("capped at the bill", func(t *testing.T) {
		assert.InDelta(t, 37.2, b.Compensation[0], 1e-9)
		assert.InDelta(t, 74.4, b.CompensableSurplus[0], 1e-9)
		assert.InDelta(t, 0, b.Capped[0], 1e-9)
		assert.InDelta(t, -12.8, b.Uncapped[0], 1e-9)
	})

	t.Run("below the bill", func(t *testing.T) {
		assert.InDelta(t, 5, b.Compensation[1], 1e-9)
		assert.InDelta(t, 10, b.CompensableSurplus[1], 1e-9)
		assert.InDelta(t, 28.6, b.Capped[1], 1e-9)
		assert.InDelta(t, 28.6, b.Uncapped[1], 1e-9)
	})

	t.Run("no surplus", func(t *testing.T) {
		assert.Zero(t, b.Compensation[2])
		assert.InDelta(t, b.WithPV[2], b.Capped[2], 1e-9)
	})

	t.Run("fixed costs", func(t *testing.T) {
		assert.InDelta(t, 12, b.Fixed[5], 1e-9)
		assert.InDelta(t, 12, b.BeforeCredits[0], 1e-9)
		assert.InDelta(t, 40.6, b.BeforeCredits[1], 1e-9)
	})

	for m := range b.Capped {
		assert.GreaterOrEqual(t, b.Capped[m], -1e-9)
		assert.LessOrEqual(t, b.Uncapped[m], b.Capped[m]+1e-9)
	}
}

func TestBillsZeroCompensation(t *testing.T) {
	y := testYear(t)
	e, err := NewEngine(y, types.PriceInput{Energy: []float64{0.1, 0.1, 0.1}}, types.Params{})
	require.NoError(t, err)

	flows := types.Flows{GridDemand: constant(1)}
	flows.Surplus[0] = 50
	b := e.Bills(flows)
	assert.Zero(t, b.Compensation[0])
	assert.Zero(t, b.CompensableSurplus[0])
	assert.Equal(t, b.WithPV, b.Capped)
}
