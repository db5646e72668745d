package loadcurve

import (
	"fmt"
	"strings"

	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
)

// cupsPrefixLen is the part of a CUPS that identifies the supply point; the two trailing
// characters (border point) vary between distributors.
const cupsPrefixLen = 20

func cupsKey(cups string) string {
	cups = strings.ToUpper(strings.TrimSpace(cups))
	if len(cups) > cupsPrefixLen {
		return cups[:cupsPrefixLen]
	}
	return cups
}

// SelectSupply finds the supply point of the account that matches cups.
func SelectSupply(supplies []types.DatadisSupply, cups string) (types.DatadisSupply, error) {
	key := cupsKey(cups)
	if key != "" {
		for _, s := range supplies {
			if cupsKey(s.CUPS) == key {
				return s, nil
			}
		}
	}
	return types.DatadisSupply{}, fmt.Errorf("cups %q among %d supplies: %w", cups, len(supplies), types.ErrSupplyNotFound)
}

// DatadisReadings converts the consumption rows of one supply into readings. Rows of other
// supplies are ignored; rows without a CUPS are assumed to belong to the supply.
func DatadisReadings(consumptions []types.DatadisConsumption, supply types.DatadisSupply) ([]types.Reading, error) {
	key := cupsKey(supply.CUPS)
	l := layouts[DatadisAPI]
	readings := make([]types.Reading, 0, len(consumptions))
	for i, c := range consumptions {
		if c.CUPS != "" && cupsKey(c.CUPS) != key {
			continue
		}
		day, err := parseDate(c.Date, l.dayFirst)
		if err != nil {
			return nil, fmt.Errorf("consumption %d: %w", i, err)
		}
		label, err := parseHourLabel(c.Time)
		if err != nil {
			return nil, fmt.Errorf("consumption %d: %w", i, err)
		}
		t, err := hourStart(day, label, l.fullDST)
		if err != nil {
			return nil, fmt.Errorf("consumption %d: %w", i, err)
		}
		readings = append(readings, types.Reading{Time: t, Value: c.ConsumptionKWh})
	}
	return readings, nil
}
