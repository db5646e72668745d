package types

import (
	"fmt"
)

// CurrentParamsVersion is the current version of the Params struct.
// Increment this value when adding new fields that require default values.
const CurrentParamsVersion = 3

// Params are the economic and analysis constants of a study. Stored studies keep the version
// they were created with so that defaults added later can be filled in on read.
type Params struct {
	// VAT applied on top of every energy term (0.21 = 21%)
	VAT float64 `json:"vat" yaml:"vat"`
	// Electricity tax (impuesto especial sobre la electricidad) applied before VAT
	ElectricityTax float64 `json:"electricityTax" yaml:"electricityTax"`

	// Credits generated per unit of uncompensated surplus value
	FluxCoefficient float64 `json:"fluxCoefficient" yaml:"fluxCoefficient"`
	// Months a credit stays valid after the month it was generated in
	CreditExpiryMonths int `json:"creditExpiryMonths" yaml:"creditExpiryMonths"`
	// Years simulated by the credit queue
	HorizonYears int `json:"horizonYears" yaml:"horizonYears"`

	// An hour exceeds its month×hour mean when it is above mean × SurpassingFactor
	SurpassingFactor float64 `json:"surpassingFactor" yaml:"surpassingFactor"`
}

// Taxes is the multiplier applied to every energy cost.
func (p Params) Taxes() float64 {
	return (1 + p.VAT) * (1 + p.ElectricityTax)
}

// MigrateParams fills defaults for every version after currentVersion.
// It returns the migrated params, a boolean indicating if changes were made, and an error if migration failed.
func MigrateParams(p Params, currentVersion int) (Params, bool, error) {
	if currentVersion >= CurrentParamsVersion {
		return p, false, nil
	}

	migrated := false
	for version := currentVersion + 1; version <= CurrentParamsVersion; version++ {
		switch version {
		case 1:
			// version 1: spanish taxes
			if p.VAT == 0 {
				p.VAT = 0.21
				migrated = true
			}
			if p.ElectricityTax == 0 {
				p.ElectricityTax = 0.0511269632
				migrated = true
			}
		case 2:
			// version 2: flux solar credits
			if p.FluxCoefficient == 0 {
				p.FluxCoefficient = 1
				migrated = true
			}
			if p.CreditExpiryMonths == 0 {
				p.CreditExpiryMonths = 60
				migrated = true
			}
			if p.HorizonYears == 0 {
				p.HorizonYears = 25
				migrated = true
			}
		case 3:
			// version 3: consumption analysis
			if p.SurpassingFactor == 0 {
				p.SurpassingFactor = 2
				migrated = true
			}
		default:
			return p, false, fmt.Errorf("unknown params version: %d", version)
		}
	}

	return p, migrated, nil
}
