package consumption

import (
	"fmt"

	"github.com/energeticacoop/photovoltaic-studies/pkg/calendar"
	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
)

func checkTable(name string, table [][]float64, columns int) error {
	if len(table) != 24 {
		return fmt.Errorf("%s table has %d rows, want 24: %w", name, len(table), types.ErrDimensionMismatch)
	}
	for h, row := range table {
		if len(row) != columns {
			return fmt.Errorf("%s table row %d has %d columns, want %d: %w", name, h, len(row), columns, types.ErrDimensionMismatch)
		}
	}
	return nil
}

// RecurringCurve sums the recurring pattern tables for every hour of the year.
func RecurringCurve(year *calendar.Year, tables types.RecurringTables) (types.Curve, error) {
	var c types.Curve
	for _, check := range []struct {
		name    string
		table   [][]float64
		columns int
	}{
		{"daily", tables.Daily, 1},
		{"monthly", tables.Monthly, 12},
		{"weekly", tables.Weekly, 7},
		{"seasonal", tables.Seasonal, 8},
	} {
		if err := checkTable(check.name, check.table, check.columns); err != nil {
			return c, err
		}
	}

	for i, t := range year.Dates {
		h := t.Hour()
		// weekly columns start on Monday
		weekday := (int(t.Weekday()) + 6) % 7
		c[i] = tables.Daily[h][0] +
			tables.Monthly[h][year.MonthIndex(i)] +
			tables.Weekly[h][weekday] +
			tables.Seasonal[h][year.SeasonColumn(i)]
	}
	return c, nil
}
