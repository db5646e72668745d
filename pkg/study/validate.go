package study

import (
	"fmt"

	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
	"github.com/energeticacoop/photovoltaic-studies/pkg/validate"
)

var consumptionSources = []string{
	types.ConsumptionSourceCSV,
	types.ConsumptionSourceDatadis,
	types.ConsumptionSourceProfile,
	types.ConsumptionSourceCurve,
}

// Validate checks an input before any curve is built.
func Validate(in types.StudyInput) error {
	periods := in.Tariff.PeriodCount()
	c := in.Consumption
	rules := []validate.Rule{
		validate.OneOf("tariff", in.Tariff, types.TariffClasses...),
		validate.Positive("year", float64(in.Year)),
		validate.OneOf("consumption source", c.Source, consumptionSources...),
		validate.When(c.Source == types.ConsumptionSourceCSV, func() error {
			if c.CSV == "" {
				return emptyErr("consumption csv")
			}
			return nil
		}),
		validate.When(c.Source == types.ConsumptionSourceDatadis, func() error {
			if c.Datadis == nil {
				return emptyErr("datadis payload")
			}
			return nil
		}),
		validate.When(c.Source == types.ConsumptionSourceProfile, func() error {
			if c.Profile == nil {
				return emptyErr("consumption profile")
			}
			return nil
		}, validate.NonNegative("annual consumption", c.AnnualKWh)),
		validate.When(c.Source == types.ConsumptionSourceCurve, func() error {
			if c.Curve == nil {
				return emptyErr("consumption curve")
			}
			return nil
		}),
		validate.When(periods > 0, validate.Len("energy prices", in.Prices.Energy, periods)),
		validate.NonNegative("compensation price", in.Prices.Compensation),
		validate.Fraction("production beta", in.Production.Beta),
	}
	if r := in.Recurring; r != nil {
		rules = append(rules,
			validate.Matrix("daily recurring table", r.Daily, 24, 1),
			validate.Matrix("monthly recurring table", r.Monthly, 24, 12),
			validate.Matrix("weekly recurring table", r.Weekly, 24, 7),
			validate.Matrix("seasonal recurring table", r.Seasonal, 24, 8),
		)
	}
	if hp := in.HeatPump; hp != nil {
		rules = append(rules, validate.NonNegative("heat pump annual consumption", hp.AnnualKWh))
	}
	if ev := in.EV; ev != nil {
		rules = append(rules,
			validate.Matrix("ev grid usage", ev.GridUsage, 24, 8),
			validate.Len("ev season distances", ev.SeasonKm, 8),
			validate.Each(ev.SeasonKm, func(_ int, km float64) validate.Rule {
				return validate.NonNegative("ev season distance", km)
			}),
			validate.NonNegative("ev consumption", ev.ConsumptionPer100KmKWh),
			validate.NonNegative("ev battery", ev.BatteryKWh),
			validate.Positive("ev max charger power", ev.MaxChargerKW),
			validate.When(periods > 0, validate.Len("ev contracted powers", ev.ContractedKW, periods)),
			validate.OneOf("ev installation", ev.Installation, types.InstallationSinglePhase, types.InstallationThreePhase),
		)
	}
	return validate.All(rules...)
}

func emptyErr(name string) error {
	return fmt.Errorf("%s is required: %w", name, types.ErrMalformedInput)
}
