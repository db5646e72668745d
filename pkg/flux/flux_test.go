package flux

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/energeticacoop/photovoltaic-studies/pkg/log"
	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetDefaultLogLevel(slog.LevelError)
}

func monthly(v float64) types.Monthly {
	var m types.Monthly
	for i := range m {
		m[i] = v
	}
	return m
}

func assertConserved(t *testing.T, res types.FluxResult) {
	t.Helper()
	assert.InDelta(t, res.Generated, res.Consumed+res.Expired+res.Remaining, 1e-6)
}

func TestCreditGeneration(t *testing.T) {
	capped := monthly(10)
	uncapped := monthly(10)
	uncapped[0] = -5
	c := CreditGeneration(capped, uncapped, 0.5)
	assert.Equal(t, 7.5, c[0])
	assert.Zero(t, c[1])
}

func TestQueue(t *testing.T) {
	var q Queue
	q.PushBack(Credit{Value: 1, Month: 0})
	q.PushBack(Credit{Value: 2, Month: 1})
	q.PushFront(Credit{Value: 0.5, Month: -1})
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, 3.5, q.Total())
	assert.Equal(t, Credit{Value: 0.5, Month: -1}, q.PopFront())
	assert.Equal(t, Credit{Value: 1, Month: 0}, q.PopFront())
	assert.Equal(t, 1, q.Len())
}

func TestSimulate(t *testing.T) {
	ctx := context.Background()

	t.Run("credit pays the next month", func(t *testing.T) {
		var credits types.Monthly
		credits[0] = 50
		res, err := Simulate(ctx, Input{
			Bills:        monthly(100),
			Credits:      credits,
			Baseline:     1500,
			ExpiryMonths: 60,
			Years:        25,
		})
		require.NoError(t, err)
		want := monthly(100)
		want[1] = 50
		assert.Equal(t, want, res.FinalYear)
		require.Len(t, res.AnnualSavings, 25)
		for _, s := range res.AnnualSavings {
			assert.InDelta(t, 350, s, 1e-9)
		}
		assert.InDelta(t, 25*50, res.Consumed, 1e-9)
		assert.Zero(t, res.Expired)
		assertConserved(t, res)
	})

	t.Run("partial consumption keeps the remainder first", func(t *testing.T) {
		var credits types.Monthly
		credits[0] = 150
		res, err := Simulate(ctx, Input{
			Bills:        monthly(100),
			Credits:      credits,
			ExpiryMonths: 60,
			Years:        1,
		})
		require.NoError(t, err)
		assert.Equal(t, 100.0, res.FinalYear[0])
		assert.Zero(t, res.FinalYear[1])
		assert.Equal(t, 50.0, res.FinalYear[2])
		assert.Equal(t, 100.0, res.FinalYear[3])
		assertConserved(t, res)
	})

	t.Run("unused credits expire", func(t *testing.T) {
		res, err := Simulate(ctx, Input{
			Credits:      monthly(10),
			ExpiryMonths: 60,
			Years:        25,
		})
		require.NoError(t, err)
		assert.InDelta(t, 3000, res.Generated, 1e-9)
		assert.Zero(t, res.Consumed)
		assert.InDelta(t, 2400, res.Expired, 1e-9)
		assert.InDelta(t, 600, res.Remaining, 1e-9)
		assertConserved(t, res)
	})

	t.Run("backlog expires before it is consumed", func(t *testing.T) {
		var bills, credits types.Monthly
		bills[11] = 5
		credits[0] = 10
		res, err := Simulate(ctx, Input{
			Bills:        bills,
			Credits:      credits,
			ExpiryMonths: 60,
			Years:        25,
		})
		require.NoError(t, err)
		assert.Positive(t, res.Expired)
		// every December bill is still paid in full
		assert.Zero(t, res.FinalYear[11])
		assert.InDelta(t, 25*5, res.Consumed, 1e-9)
		assertConserved(t, res)
	})

	t.Run("negative bills consume nothing", func(t *testing.T) {
		res, err := Simulate(ctx, Input{
			Bills:        monthly(-5),
			Credits:      monthly(1),
			ExpiryMonths: 60,
			Years:        2,
		})
		require.NoError(t, err)
		assert.Zero(t, res.Consumed)
		assert.Equal(t, monthly(-5), res.FinalYear)
		assertConserved(t, res)
	})

	t.Run("invalid horizon", func(t *testing.T) {
		_, err := Simulate(ctx, Input{ExpiryMonths: 60})
		assert.True(t, errors.Is(err, types.ErrMalformedInput))
	})
}
