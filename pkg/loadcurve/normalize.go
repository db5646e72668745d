// Package loadcurve turns raw consumption exports into canonical 8760-hour load curves.
package loadcurve

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/energeticacoop/photovoltaic-studies/pkg/calendar"
	"github.com/energeticacoop/photovoltaic-studies/pkg/log"
	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
)

// Options controls how readings are mapped onto the canonical year.
type Options struct {
	// Year is the canonical year of the output.
	Year int
	// Averaged maps month×hour×weekday means onto Year instead of the last natural year of readings.
	Averaged bool
}

// Normalize converts readings of any length and order into the canonical curve of opts.Year.
func Normalize(ctx context.Context, readings []types.Reading, d Dialect, opts Options) (types.LoadCurve, error) {
	var lc types.LoadCurve
	if _, ok := layouts[d]; !ok {
		return lc, fmt.Errorf("unknown consumption dialect %q: %w", d, types.ErrMalformedInput)
	}
	if len(readings) == 0 {
		return lc, fmt.Errorf("no readings: %w", types.ErrMalformedInput)
	}

	sorted := slices.Clone(readings)
	slices.SortStableFunc(sorted, func(a, b types.Reading) int { return a.Time.Compare(b.Time) })
	sorted = RemoveFebruary29(sorted)
	if len(sorted) == 0 {
		return lc, fmt.Errorf("no readings outside february 29: %w", types.ErrMalformedInput)
	}

	if opts.Averaged {
		dates := calendar.Dates(opts.Year)
		values := AverageProfile(sorted, opts.Year)
		for i := range lc {
			lc[i] = types.Reading{Time: dates[i], Value: values[i]}
		}
		log.Ctx(ctx).DebugContext(ctx, "averaged load curve", slog.Int("readings", len(sorted)), slog.Int("year", opts.Year))
		return lc, nil
	}

	trimmed, start := TrimToLastNaturalYear(sorted)
	folded := FoldDuplicateHours(trimmed, d.FullDST())
	filled := FillMissing(folded, start)
	lc = AlignToYear(filled, opts.Year)

	log.Ctx(ctx).DebugContext(
		ctx,
		"normalized load curve",
		slog.String("dialect", string(d)),
		slog.Int("readings", len(readings)),
		slog.Int("trimmed", len(sorted)-len(trimmed)),
		slog.Int("folded", len(trimmed)-len(folded)),
		slog.Int("missing", lc.Missing()),
		slog.Time("start", start),
	)
	return lc, nil
}

// RemoveFebruary29 drops leap day readings.
func RemoveFebruary29(readings []types.Reading) []types.Reading {
	return slices.DeleteFunc(slices.Clone(readings), func(r types.Reading) bool {
		return calendar.IsFebruary29(r.Time)
	})
}

// TrimToLastNaturalYear keeps the readings of the year that ends at the last reading. Readings must
// be sorted. It returns the kept readings and the first hour of that year.
func TrimToLastNaturalYear(readings []types.Reading) ([]types.Reading, time.Time) {
	if len(readings) == 0 {
		return nil, time.Time{}
	}
	last := readings[len(readings)-1].Time
	start := calendar.ShiftHours(last.AddDate(-1, 0, 0), 1)
	i, _ := slices.BinarySearchFunc(readings, start, func(r types.Reading, t time.Time) int {
		return r.Time.Compare(t)
	})
	return readings[i:], start
}

// FoldDuplicateHours merges readings that land on the same civil hour, which happens on the DST end
// day when the repeated hour is reported twice. Their values are added. With all false only the DST
// end day is folded and later duplicates elsewhere are dropped. Readings must be sorted.
func FoldDuplicateHours(readings []types.Reading, all bool) []types.Reading {
	out := make([]types.Reading, 0, len(readings))
	for _, r := range readings {
		if n := len(out); n > 0 && out[n-1].Time.Equal(r.Time) {
			if all || calendar.IsDSTEndDate(r.Time) {
				out[n-1].Value += r.Value
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// FillMissing walks the 8760 hours starting at start, skipping Feb 29, and takes the reading of
// every hour. Hours without a reading get 0 and are marked missing. Readings must be sorted and
// unique.
func FillMissing(readings []types.Reading, start time.Time) types.LoadCurve {
	var lc types.LoadCurve
	j := 0
	t := start
	for i := 0; i < types.HoursPerYear; t = calendar.ShiftHours(t, 1) {
		if calendar.IsFebruary29(t) {
			continue
		}
		for j < len(readings) && readings[j].Time.Before(t) {
			j++
		}
		if j < len(readings) && readings[j].Time.Equal(t) {
			lc[i] = types.Reading{Time: t, Value: readings[j].Value, Comment: readings[j].Comment}
			j++
		} else {
			lc[i] = types.Reading{Time: t, Comment: types.CommentMissing}
		}
		i++
	}
	return lc
}

// AlignToYear rotates a full year of hours so that Jan 1 00:00 comes first and stamps it with the
// dates of year. Month, day and hour of every value are kept.
func AlignToYear(lc types.LoadCurve, year int) types.LoadCurve {
	offset := 0
	for i, r := range lc {
		if r.Time.Month() == time.January && r.Time.Day() == 1 && r.Time.Hour() == 0 {
			offset = i
			break
		}
	}
	dates := calendar.Dates(year)
	var out types.LoadCurve
	for i := range out {
		r := lc[(i+offset)%types.HoursPerYear]
		r.Time = dates[i]
		out[i] = r
	}
	return out
}
