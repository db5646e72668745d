package consumption

import (
	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
)

// NormalizeProduction clamps negative production, which is the inverter consuming at night, and
// scales the installation's production by the consumer's share beta. A beta of 0 keeps the whole
// installation. The stats describe the whole installation.
func NormalizeProduction(raw types.Curve, beta float64) (types.Curve, types.ProductionStats) {
	var stats types.ProductionStats
	var c types.Curve
	for i, v := range raw {
		if v < 0 {
			stats.InverterConsumption += -v
			continue
		}
		c[i] = v
	}
	stats.Total = c.Sum()
	if stats.Total > 0 {
		stats.InverterShare = stats.InverterConsumption / stats.Total
	}
	if beta > 0 {
		c = c.Scale(beta)
	}
	return c, stats
}
