// Package study runs the full sizing and billing pipeline for one consumer: it normalizes the
// metered consumption, builds the other consumption sources, combines them with production and
// prices the result.
package study

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/levenlabs/go-lflag"

	"github.com/energeticacoop/photovoltaic-studies/pkg/billing"
	"github.com/energeticacoop/photovoltaic-studies/pkg/cache"
	"github.com/energeticacoop/photovoltaic-studies/pkg/calendar"
	"github.com/energeticacoop/photovoltaic-studies/pkg/consumption"
	"github.com/energeticacoop/photovoltaic-studies/pkg/ev"
	"github.com/energeticacoop/photovoltaic-studies/pkg/flux"
	"github.com/energeticacoop/photovoltaic-studies/pkg/loadcurve"
	"github.com/energeticacoop/photovoltaic-studies/pkg/log"
	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
)

// YearKey identifies a classified calendar year.
type YearKey struct {
	year     int
	tariff   types.TariffClass
	holidays string
}

func newYearKey(year int, tariff types.TariffClass, holidays []civil.Date) YearKey {
	days := make([]string, len(holidays))
	for i, d := range holidays {
		days[i] = d.String()
	}
	slices.Sort(days)
	return YearKey{year: year, tariff: tariff, holidays: strings.Join(slices.Compact(days), ",")}
}

// Service runs studies. Classified calendar years are cached since many studies share the same
// year, tariff and holidays.
type Service struct {
	years    *YearCache
	defaults types.Params
}

// YearCache holds classified calendar years.
type YearCache = cache.Cache[YearKey, *calendar.Year]

// NewYearCache returns a cache suitable for New.
func NewYearCache(ttl time.Duration, maxEntries int) *YearCache {
	return cache.New[YearKey, *calendar.Year](ttl, maxEntries)
}

// New returns a Service that uses defaults for inputs without a params version.
func New(years *YearCache, defaults types.Params) *Service {
	return &Service{years: years, defaults: defaults}
}

// Configured sets up the Service based on flags.
func Configured() *Service {
	ttl := lflag.Duration("study-cache-ttl", 24*time.Hour, "How long a classified calendar year stays cached")
	size := lflag.Int("study-cache-size", 32, "Maximum number of cached calendar years (0 means unbounded)")
	defaultsPath := lflag.String("defaults-file", "", "YAML file with the default study params")

	s := &Service{}
	lflag.Do(func() {
		defaults, err := LoadDefaults(*defaultsPath)
		if err != nil {
			panic(fmt.Sprintf("failed to load study defaults: %v", err))
		}
		s.defaults = defaults
		s.years = NewYearCache(*ttl, *size)
	})
	return s
}

// Defaults returns the params used for inputs without a params version.
func (s *Service) Defaults() types.Params {
	return s.defaults
}

// Params returns the effective params of an input.
func (s *Service) Params(in types.StudyInput) (types.Params, error) {
	p := in.Params
	if in.ParamsVersion == 0 {
		p = mergeParams(p, s.defaults)
	}
	p, _, err := types.MigrateParams(p, in.ParamsVersion)
	if err != nil {
		return p, fmt.Errorf("%w: %w", types.ErrMalformedInput, err)
	}
	return p, nil
}

// Year returns the classified calendar year, from the cache when possible.
func (s *Service) Year(year int, tariff types.TariffClass, holidays []civil.Date) (*calendar.Year, error) {
	return s.years.GetOrLoad(newYearKey(year, tariff, holidays), func() (*calendar.Year, error) {
		return calendar.NewYear(year, tariff, calendar.NewHolidays(holidays...))
	})
}

// Run validates in and runs the whole pipeline.
func (s *Service) Run(ctx context.Context, in types.StudyInput) (types.StudyResult, error) {
	var res types.StudyResult
	if err := Validate(in); err != nil {
		return res, err
	}
	ctx = log.WithAttrs(ctx, slog.String("tariff", string(in.Tariff)), slog.Int("year", in.Year))

	params, err := s.Params(in)
	if err != nil {
		return res, err
	}
	year, err := s.Year(in.Year, in.Tariff, in.Holidays)
	if err != nil {
		return res, fmt.Errorf("failed to classify year: %w", err)
	}

	conventional, missing, err := s.conventional(ctx, in)
	if err != nil {
		return res, fmt.Errorf("failed to build conventional consumption: %w", err)
	}
	res.MissingHours = missing

	var production types.Curve
	production, res.Production = consumption.NormalizeProduction(in.Production.Curve, in.Production.Beta)

	composer := consumption.NewComposer()
	composer.Set(consumption.Conventional, func(context.Context, types.Curve) (types.Curve, error) {
		return conventional, nil
	})
	if in.Recurring != nil {
		composer.Set(consumption.Recurring, func(context.Context, types.Curve) (types.Curve, error) {
			return consumption.RecurringCurve(year, *in.Recurring)
		})
	}
	if in.HeatPump != nil {
		composer.Set(consumption.HeatPump, func(context.Context, types.Curve) (types.Curve, error) {
			return consumption.HeatPumpCurve(*in.HeatPump)
		})
	}
	if in.EV != nil {
		composer.Set(consumption.EVCharge, func(ctx context.Context, partial types.Curve) (types.Curve, error) {
			r, err := ev.Simulate(ctx, year, *in.EV, partial, production)
			if err != nil {
				return types.Curve{}, err
			}
			res.EV = &r
			return r.Charge, nil
		})
	}
	comp, err := composer.Compose(ctx, production)
	if err != nil {
		return res, err
	}
	res.Conventional = comp.Curve(consumption.Conventional)
	res.Recurring = comp.Curve(consumption.Recurring)
	res.HeatPump = comp.Curve(consumption.HeatPump)
	res.EVCharge = comp.Curve(consumption.EVCharge)
	res.Flows = comp.Flows
	res.Breakdowns = consumption.Breakdowns(year, comp)
	res.Analysis = consumption.Analyze(year, conventional, params.SurpassingFactor)

	engine, err := billing.NewEngine(year, in.Prices, params)
	if err != nil {
		return res, err
	}
	res.Bills = engine.Bills(res.Flows)

	res.Flux, err = flux.Simulate(ctx, flux.Input{
		Bills:        res.Bills.BeforeCredits,
		Credits:      flux.CreditGeneration(res.Bills.Capped, res.Bills.Uncapped, params.FluxCoefficient),
		Baseline:     res.Bills.NoPV.Sum() + res.Bills.Fixed.Sum(),
		ExpiryMonths: params.CreditExpiryMonths,
		Years:        params.HorizonYears,
	})
	if err != nil {
		return res, fmt.Errorf("failed to simulate credits: %w", err)
	}

	log.Ctx(ctx).DebugContext(
		ctx,
		"study finished",
		slog.Float64("consumptionKWh", res.Flows.Total.Sum()),
		slog.Float64("selfConsumptionKWh", res.Flows.SelfConsumption.Sum()),
		slog.Int("missingHours", res.MissingHours),
	)
	return res, nil
}

// conventional builds the metered consumption curve and counts the hours that had to be filled in.
func (s *Service) conventional(ctx context.Context, in types.StudyInput) (types.Curve, int, error) {
	c := in.Consumption
	opts := loadcurve.Options{Year: in.Year, Averaged: c.Averaged}
	switch c.Source {
	case types.ConsumptionSourceCSV:
		d, err := loadcurve.ParseDialect(c.Dialect)
		if err != nil {
			return types.Curve{}, 0, err
		}
		readings, _, err := loadcurve.ParseCSV(strings.NewReader(c.CSV), d)
		if err != nil {
			return types.Curve{}, 0, err
		}
		lc, err := loadcurve.Normalize(ctx, readings, d, opts)
		if err != nil {
			return types.Curve{}, 0, err
		}
		return lc.Values(), lc.Missing(), nil
	case types.ConsumptionSourceDatadis:
		supply, err := loadcurve.SelectSupply(c.Datadis.Supplies, c.CUPS)
		if err != nil {
			return types.Curve{}, 0, err
		}
		readings, err := loadcurve.DatadisReadings(c.Datadis.Consumptions, supply)
		if err != nil {
			return types.Curve{}, 0, err
		}
		lc, err := loadcurve.Normalize(ctx, readings, loadcurve.DatadisAPI, opts)
		if err != nil {
			return types.Curve{}, 0, err
		}
		return lc.Values(), lc.Missing(), nil
	case types.ConsumptionSourceProfile:
		return loadcurve.ScaleProfile(*c.Profile, c.AnnualKWh), 0, nil
	case types.ConsumptionSourceCurve:
		return *c.Curve, 0, nil
	}
	return types.Curve{}, 0, fmt.Errorf("unknown consumption source %q: %w", c.Source, types.ErrMalformedInput)
}
