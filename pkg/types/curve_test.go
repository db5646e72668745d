package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCurve(t *testing.T) {
	t.Run("exact length", func(t *testing.T) {
		values := make([]float64, HoursPerYear)
		values[10] = 2.5
		c, err := NewCurve(values)
		require.NoError(t, err)
		assert.Equal(t, 2.5, c[10])
	})

	t.Run("short", func(t *testing.T) {
		_, err := NewCurve(make([]float64, 24))
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})
}

func TestCurveJSON(t *testing.T) {
	var c Curve
	err := json.Unmarshal([]byte(`[1,2,3]`), &c)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	var m Monthly
	err = json.Unmarshal([]byte(`[1,2,3,4,5,6,7,8,9,10,11,12]`), &m)
	require.NoError(t, err)
	assert.Equal(t, 78.0, m.Sum())

	err = json.Unmarshal([]byte(`[1,2]`), &m)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestCurveRotate(t *testing.T) {
	var c Curve
	for i := range c {
		c[i] = float64(i)
	}
	r := c.Rotate(5)
	assert.Equal(t, 5.0, r[0])
	assert.Equal(t, float64(HoursPerYear-1), r[HoursPerYear-6])
	assert.Equal(t, 0.0, r[HoursPerYear-5])

	assert.Equal(t, c, c.Rotate(0))
	assert.Equal(t, c.Rotate(HoursPerYear-1), c.Rotate(-1))
	// input is untouched
	assert.Equal(t, 0.0, c[0])
}

func TestCurveArithmetic(t *testing.T) {
	var a, b Curve
	a[0], b[0] = 1, 2
	a[100] = 4
	sum := a.Add(b, b)
	assert.Equal(t, 5.0, sum[0])
	assert.Equal(t, 5.0, sum.Max())
	assert.Equal(t, 9.0, sum.Sum())
	assert.Equal(t, 1.0, a[0])
	assert.Equal(t, 0.5, a.Scale(0.5)[0])
}
