// Package consumption builds the consumption curves of a consumer and combines them with production
// into self-consumption, surplus and grid demand.
package consumption

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/energeticacoop/photovoltaic-studies/pkg/log"
	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
)

// Source is one of the independent consumption curves of a consumer.
type Source int

const (
	Conventional Source = iota
	Recurring
	HeatPump
	EVCharge
)

// Sources lists every source in build order. EV charging depends on the sum of the others.
var Sources = [...]Source{Conventional, Recurring, HeatPump, EVCharge}

func (s Source) String() string {
	switch s {
	case Conventional:
		return "conventional"
	case Recurring:
		return "recurring"
	case HeatPump:
		return "heatPump"
	case EVCharge:
		return "evCharge"
	}
	return fmt.Sprintf("source(%d)", int(s))
}

// Builder computes the curve of one source. partial is the sum of the sources built before it.
type Builder func(ctx context.Context, partial types.Curve) (types.Curve, error)

// Composer builds every registered source in order and combines them with production.
// Sources without a builder contribute a zero curve.
type Composer struct {
	builders map[Source]Builder
}

func NewComposer() *Composer {
	return &Composer{builders: make(map[Source]Builder, len(Sources))}
}

// Set registers the builder of a source, replacing any previous one.
func (c *Composer) Set(s Source, b Builder) {
	c.builders[s] = b
}

// Composition holds the curve of every source and the resulting flows.
type Composition struct {
	Curves [len(Sources)]types.Curve
	Flows  types.Flows
}

// Curve returns the curve built for s.
func (c *Composition) Curve(s Source) types.Curve {
	return c.Curves[s]
}

// Compose runs the builders in source order.
func (c *Composer) Compose(ctx context.Context, production types.Curve) (*Composition, error) {
	out := &Composition{}
	var partial types.Curve
	for _, s := range Sources {
		b, ok := c.builders[s]
		if !ok {
			continue
		}
		curve, err := b(ctx, partial)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s consumption: %w", s, err)
		}
		out.Curves[s] = curve
		partial = partial.Add(curve)
		log.Ctx(ctx).DebugContext(ctx, "built consumption", slog.String("source", s.String()), slog.Float64("kWh", curve.Sum()))
	}
	out.Flows = Combine(production, out.Curves[:]...)
	return out, nil
}

// Combine adds the consumption curves and splits the total against production, hour by hour.
func Combine(production types.Curve, curves ...types.Curve) types.Flows {
	var total types.Curve
	total = total.Add(curves...)
	f := types.Flows{
		Production: production,
		Total:      total,
	}
	for i := range total {
		f.SelfConsumption[i] = min(total[i], production[i])
		f.Surplus[i] = max(0, production[i]-total[i])
		f.GridDemand[i] = max(0, total[i]-production[i])
	}
	return f
}
