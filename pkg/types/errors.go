package types

import "errors"

var (
	// ErrMalformedInput is returned when a raw reading or input document cannot be parsed.
	ErrMalformedInput = errors.New("malformed input")
	// ErrDimensionMismatch is returned when a table, curve or price vector has the wrong shape.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrUndefinedTariffPeriod is returned when no tariff period rule matches an hour.
	ErrUndefinedTariffPeriod = errors.New("undefined tariff period")
	// ErrZeroDivision is returned when a per-hour share would be divided by zero hours.
	ErrZeroDivision = errors.New("division by zero")
	// ErrSupplyNotFound is returned when no supply point matches the requested CUPS.
	ErrSupplyNotFound = errors.New("supply not found")
)
