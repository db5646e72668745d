package loadcurve

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
)

// ParseCSV reads a raw export in the given dialect. The first row is a header and is skipped.
// It returns the readings in file order and the CUPS of the first row, when the dialect has one.
func ParseCSV(r io.Reader, d Dialect) ([]types.Reading, string, error) {
	l, ok := layouts[d]
	if !ok || l.comma == 0 {
		return nil, "", fmt.Errorf("dialect %q is not a csv dialect: %w", d, types.ErrMalformedInput)
	}

	cr := csv.NewReader(r)
	cr.Comma = l.comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var readings []types.Reading
	var cups string
	for row := 1; ; row++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("row %d: %w: %v", row, types.ErrMalformedInput, err)
		}
		if row == 1 || isBlank(record) {
			continue
		}

		var reading types.Reading
		if l.timestamp {
			reading, err = parseTimestampRow(record, l)
		} else {
			reading, err = parseDayHourRow(record, l)
			if err == nil && cups == "" {
				cups = strings.TrimSpace(record[0])
			}
		}
		if err != nil {
			return nil, "", fmt.Errorf("row %d: %w", row, err)
		}
		readings = append(readings, reading)
	}
	return readings, cups, nil
}

// parseDayHourRow parses [cups, date, hour, value, ...].
func parseDayHourRow(record []string, l layout) (types.Reading, error) {
	if len(record) < 4 {
		return types.Reading{}, fmt.Errorf("%d columns, want at least 4: %w", len(record), types.ErrMalformedInput)
	}
	day, err := parseDate(record[1], l.dayFirst)
	if err != nil {
		return types.Reading{}, err
	}
	label, err := parseHourLabel(record[2])
	if err != nil {
		return types.Reading{}, err
	}
	t, err := hourStart(day, label, l.fullDST)
	if err != nil {
		return types.Reading{}, err
	}
	value, err := parseValue(record[3])
	if err != nil {
		return types.Reading{}, err
	}
	return types.Reading{Time: t, Value: value}, nil
}

// parseTimestampRow parses ["y-m-d HH:MM", value].
func parseTimestampRow(record []string, l layout) (types.Reading, error) {
	if len(record) < 2 {
		return types.Reading{}, fmt.Errorf("%d columns, want at least 2: %w", len(record), types.ErrMalformedInput)
	}
	datePart, timePart, ok := strings.Cut(strings.TrimSpace(record[0]), " ")
	if !ok {
		return types.Reading{}, fmt.Errorf("timestamp %q has no time: %w", record[0], types.ErrMalformedInput)
	}
	day, err := parseDate(datePart, l.dayFirst)
	if err != nil {
		return types.Reading{}, err
	}
	label, err := parseHourLabel(timePart)
	if err != nil {
		return types.Reading{}, err
	}
	t, err := hourStart(day, label, l.fullDST)
	if err != nil {
		return types.Reading{}, err
	}
	value, err := parseValue(record[1])
	if err != nil {
		return types.Reading{}, err
	}
	return types.Reading{Time: t, Value: value}, nil
}

// parseDate accepts d/m/y or y/m/d, with "/" or "-" separators.
func parseDate(s string, dayFirst bool) (civil.Date, error) {
	parts := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool { return r == '/' || r == '-' })
	if len(parts) != 3 {
		return civil.Date{}, fmt.Errorf("date %q: %w", s, types.ErrMalformedInput)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return civil.Date{}, fmt.Errorf("date %q: %w", s, types.ErrMalformedInput)
		}
		nums[i] = n
	}
	d := civil.Date{Year: nums[0], Month: time.Month(nums[1]), Day: nums[2]}
	if dayFirst {
		d = civil.Date{Year: nums[2], Month: time.Month(nums[1]), Day: nums[0]}
	}
	if !d.IsValid() {
		return civil.Date{}, fmt.Errorf("date %q: %w", s, types.ErrMalformedInput)
	}
	return d, nil
}

// parseHourLabel accepts "7", "07" or "07:00".
func parseHourLabel(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) > 2 && s[2] == ':' {
		s = s[:2]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("hour %q: %w", s, types.ErrMalformedInput)
	}
	return n, nil
}

// parseValue parses a kWh value that may use a comma as decimal separator.
func parseValue(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(s), ",", ".", 1), 64)
	if err != nil {
		return 0, fmt.Errorf("value %q: %w", s, types.ErrMalformedInput)
	}
	return v, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
