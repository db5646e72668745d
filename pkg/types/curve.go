package types

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// HoursPerYear is the length of a canonical year: 365 days, Feb 29 never represented.
	HoursPerYear = 8760
	// MonthsPerYear is the length of every monthly aggregate.
	MonthsPerYear = 12
	// CommentMissing marks an hour that was absent from the source and filled with 0.
	CommentMissing = "missing"
)

// Curve is an hourly annual series (CCH). Index 0 is Jan 1 00:00 of the canonical year.
type Curve [HoursPerYear]float64

// NewCurve copies values into a Curve. It fails unless exactly HoursPerYear values are given.
func NewCurve(values []float64) (Curve, error) {
	var c Curve
	if len(values) != HoursPerYear {
		return c, fmt.Errorf("curve has %d values, want %d: %w", len(values), HoursPerYear, ErrDimensionMismatch)
	}
	copy(c[:], values)
	return c, nil
}

// UnmarshalJSON rejects arrays that are not exactly HoursPerYear long.
func (c *Curve) UnmarshalJSON(b []byte) error {
	var values []float64
	if err := json.Unmarshal(b, &values); err != nil {
		return fmt.Errorf("failed to unmarshal curve: %w", err)
	}
	parsed, err := NewCurve(values)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Sum returns the total of all hours.
func (c Curve) Sum() float64 {
	var total float64
	for _, v := range c {
		total += v
	}
	return total
}

// Max returns the largest hourly value.
func (c Curve) Max() float64 {
	max := c[0]
	for _, v := range c[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// Add returns the elementwise sum of c and the other curves.
func (c Curve) Add(others ...Curve) Curve {
	for _, o := range others {
		for i := range c {
			c[i] += o[i]
		}
	}
	return c
}

// Scale returns c multiplied by f.
func (c Curve) Scale(f float64) Curve {
	for i := range c {
		c[i] *= f
	}
	return c
}

// Rotate returns c rotated left by k hours, so that c[k] becomes index 0.
func (c Curve) Rotate(k int) Curve {
	k = ((k % HoursPerYear) + HoursPerYear) % HoursPerYear
	if k == 0 {
		return c
	}
	var out Curve
	n := copy(out[:], c[k:])
	copy(out[n:], c[:k])
	return out
}

// Reading is one hourly value. Raw readings come in any order and length; a LoadCurve holds exactly
// one reading per canonical hour.
type Reading struct {
	Time    time.Time `json:"time"`
	Value   float64   `json:"value"`
	Comment string    `json:"comment,omitempty"`
}

// LoadCurve is a normalized annual load curve with its timestamps.
type LoadCurve [HoursPerYear]Reading

// Values drops the timestamps.
func (l *LoadCurve) Values() Curve {
	var c Curve
	for i, r := range l {
		c[i] = r.Value
	}
	return c
}

// Missing counts the hours that were filled in because the source had no value for them.
func (l *LoadCurve) Missing() int {
	var n int
	for _, r := range l {
		if r.Comment == CommentMissing {
			n++
		}
	}
	return n
}

// Monthly holds one amount per calendar month, January first.
type Monthly [MonthsPerYear]float64

// Sum returns the annual total.
func (m Monthly) Sum() float64 {
	var total float64
	for _, v := range m {
		total += v
	}
	return total
}

// Add returns the elementwise sum of m and the other months.
func (m Monthly) Add(others ...Monthly) Monthly {
	for _, o := range others {
		for i := range m {
			m[i] += o[i]
		}
	}
	return m
}

// Sub returns m minus o.
func (m Monthly) Sub(o Monthly) Monthly {
	for i := range m {
		m[i] -= o[i]
	}
	return m
}

// UnmarshalJSON rejects arrays that are not exactly MonthsPerYear long.
func (m *Monthly) UnmarshalJSON(b []byte) error {
	var values []float64
	if err := json.Unmarshal(b, &values); err != nil {
		return fmt.Errorf("failed to unmarshal monthly values: %w", err)
	}
	if len(values) != MonthsPerYear {
		return fmt.Errorf("monthly values have %d entries, want %d: %w", len(values), MonthsPerYear, ErrDimensionMismatch)
	}
	copy(m[:], values)
	return nil
}
