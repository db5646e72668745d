// Package validate composes input checks. Every failing rule is reported, not just the first.
package validate

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
)

// Rule checks one property of an input and returns nil when it holds.
type Rule func() error

// All runs every rule and joins the failures.
func All(rules ...Rule) error {
	var errs []error
	for _, r := range rules {
		if err := r(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// When runs rules only if cond holds.
func When(cond bool, rules ...Rule) Rule {
	return func() error {
		if !cond {
			return nil
		}
		return All(rules...)
	}
}

func Len[T any](name string, s []T, n int) Rule {
	return func() error {
		if len(s) != n {
			return fmt.Errorf("%s has %d values, want %d: %w", name, len(s), n, types.ErrDimensionMismatch)
		}
		return nil
	}
}

// Matrix checks that m has rows rows of cols values each.
func Matrix[T any](name string, m [][]T, rows, cols int) Rule {
	return func() error {
		if len(m) != rows {
			return fmt.Errorf("%s has %d rows, want %d: %w", name, len(m), rows, types.ErrDimensionMismatch)
		}
		for i, row := range m {
			if len(row) != cols {
				return fmt.Errorf("%s row %d has %d values, want %d: %w", name, i, len(row), cols, types.ErrDimensionMismatch)
			}
		}
		return nil
	}
}

func Positive(name string, v float64) Rule {
	return func() error {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be positive, got %g: %w", name, v, types.ErrMalformedInput)
		}
		return nil
	}
}

func NonNegative(name string, v float64) Rule {
	return func() error {
		if !(v >= 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must not be negative, got %g: %w", name, v, types.ErrMalformedInput)
		}
		return nil
	}
}

// Fraction checks that v is within [0, 1].
func Fraction(name string, v float64) Rule {
	return func() error {
		if !(v >= 0 && v <= 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %g: %w", name, v, types.ErrMalformedInput)
		}
		return nil
	}
}

func OneOf[T comparable](name string, v T, allowed ...T) Rule {
	return func() error {
		if !slices.Contains(allowed, v) {
			return fmt.Errorf("%s %v is not one of %v: %w", name, v, allowed, types.ErrMalformedInput)
		}
		return nil
	}
}

// Each applies rule to every element of s.
func Each[T any](s []T, rule func(i int, v T) Rule) Rule {
	return func() error {
		rules := make([]Rule, len(s))
		for i, v := range s {
			rules[i] = rule(i, v)
		}
		return All(rules...)
	}
}
