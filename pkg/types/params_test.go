package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateParams(t *testing.T) {
	t.Run("v1: spanish taxes", func(t *testing.T) {
		p, changed, err := MigrateParams(Params{}, 0)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, 0.21, p.VAT)
		assert.Equal(t, 0.0511269632, p.ElectricityTax)
	})

	t.Run("v1 to v2: credit defaults", func(t *testing.T) {
		p, changed, err := MigrateParams(Params{VAT: 0.1, ElectricityTax: 0.05}, 1)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, 0.1, p.VAT)
		assert.Equal(t, 1.0, p.FluxCoefficient)
		assert.Equal(t, 60, p.CreditExpiryMonths)
		assert.Equal(t, 25, p.HorizonYears)
	})

	t.Run("explicit values are kept", func(t *testing.T) {
		p, _, err := MigrateParams(Params{FluxCoefficient: 0.5, HorizonYears: 10}, 0)
		require.NoError(t, err)
		assert.Equal(t, 0.5, p.FluxCoefficient)
		assert.Equal(t, 10, p.HorizonYears)
		assert.Equal(t, 2.0, p.SurpassingFactor)
	})

	t.Run("current version is a no-op", func(t *testing.T) {
		p, changed, err := MigrateParams(Params{}, CurrentParamsVersion)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, Params{}, p)
	})
}

func TestTaxes(t *testing.T) {
	p := Params{VAT: 0.21, ElectricityTax: 0.05}
	assert.InDelta(t, 1.2705, p.Taxes(), 1e-9)
}
