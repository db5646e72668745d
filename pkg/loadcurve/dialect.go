package loadcurve

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/energeticacoop/photovoltaic-studies/pkg/calendar"
	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
)

// Dialect is the format of a raw consumption export.
type Dialect string

const (
	// Infoenergia CSV: comma separated, d/m/y dates, hour-ending labels 1..24.
	Infoenergia Dialect = "infoenergia"
	// CNMC CSV: semicolon separated, d/m/y dates, hour-ending labels 1..25 that follow the
	// DST clock (23 labels on the spring day, 25 on the autumn day).
	CNMC Dialect = "cnmc"
	// Iberdrola CSV: same layout as CNMC.
	Iberdrola Dialect = "iberdrola"
	// DatadisCSV: semicolon separated, y/m/d dates, "HH:MM" hour-ending labels.
	DatadisCSV Dialect = "datadis-csv"
	// DatadisAPI: JSON rows from the Datadis consumption endpoint, same conventions as DatadisCSV.
	DatadisAPI Dialect = "datadis-api"
	// SIPS: semicolon separated [timestamp, value] pairs with hour-ending times.
	SIPS Dialect = "sips"
)

type layout struct {
	comma rune
	// dayFirst is true for d/m/y dates, false for y/m/d.
	dayFirst bool
	// fullDST is true when hour labels follow the DST clock, so the spring day has a gap after
	// label 2 and the autumn day repeats one hour.
	fullDST bool
	// timestamp is true for [timestamp, value] rows, false for [cups, date, hour, value].
	timestamp bool
}

var layouts = map[Dialect]layout{
	Infoenergia: {comma: ',', dayFirst: true},
	CNMC:        {comma: ';', dayFirst: true, fullDST: true},
	Iberdrola:   {comma: ';', dayFirst: true, fullDST: true},
	DatadisCSV:  {comma: ';'},
	DatadisAPI:  {},
	SIPS:        {comma: ';', timestamp: true},
}

// ParseDialect validates a dialect name.
func ParseDialect(s string) (Dialect, error) {
	d := Dialect(s)
	if _, ok := layouts[d]; !ok {
		return "", fmt.Errorf("unknown consumption dialect %q: %w", s, types.ErrMalformedInput)
	}
	return d, nil
}

// FullDST reports whether the dialect's autumn duplicates are folded on every day rather than
// only on the DST end day.
func (d Dialect) FullDST() bool {
	return layouts[d].fullDST
}

// hourStart converts a day and an hour-ending label into the civil hour the reading starts at.
// For DST clock dialects the spring labels after the gap move forward and the autumn labels after
// the repeated hour move back, so the repeated hour lands twice on 02:00.
func hourStart(day civil.Date, label int, fullDST bool) (time.Time, error) {
	midnight := day.In(time.UTC)
	maxLabel := 24
	switch {
	case calendar.IsDSTEndDate(midnight):
		maxLabel = 25
	case fullDST && calendar.IsDSTStartDate(midnight):
		maxLabel = 23
	}
	if label < 1 || label > maxLabel {
		return time.Time{}, fmt.Errorf("hour label %d out of range on %s: %w", label, day, types.ErrMalformedInput)
	}

	hour := label - 1
	switch {
	case label == 25:
		hour = 23
	case fullDST && calendar.IsDSTStartDate(midnight) && label >= 3:
		hour = label
	case fullDST && calendar.IsDSTEndDate(midnight) && label >= 4:
		hour = label - 2
	}
	return calendar.ShiftHours(midnight, hour), nil
}
