package consumption

import (
	"fmt"

	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
)

// HeatPumpCurve scales the selected normalized heat pump profile by the annual consumption.
func HeatPumpCurve(in types.HeatPumpInput) (types.Curve, error) {
	profile, ok := in.Profiles[in.Profile]
	if !ok {
		return types.Curve{}, fmt.Errorf("unknown heat pump profile %q: %w", in.Profile, types.ErrMalformedInput)
	}
	return profile.Scale(in.AnnualKWh), nil
}
