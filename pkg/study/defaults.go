package study

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
)

// defaultsFile is the YAML layout of a params defaults file. Version is the params version the file
// was written for; defaults of later versions are filled in on load.
type defaultsFile struct {
	Version int          `yaml:"version"`
	Params  types.Params `yaml:"params"`
}

// LoadDefaults reads study param defaults from a YAML file. An empty path returns the built-in
// defaults.
func LoadDefaults(path string) (types.Params, error) {
	var f defaultsFile
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return types.Params{}, fmt.Errorf("failed to read defaults file: %w", err)
		}
		if err := yaml.Unmarshal(b, &f); err != nil {
			return types.Params{}, fmt.Errorf("failed to parse defaults file: %w", err)
		}
	}
	p, _, err := types.MigrateParams(f.Params, f.Version)
	if err != nil {
		return types.Params{}, fmt.Errorf("failed to migrate defaults: %w", err)
	}
	return p, nil
}

// mergeParams fills the zero fields of p from d.
func mergeParams(p, d types.Params) types.Params {
	if p.VAT == 0 {
		p.VAT = d.VAT
	}
	if p.ElectricityTax == 0 {
		p.ElectricityTax = d.ElectricityTax
	}
	if p.FluxCoefficient == 0 {
		p.FluxCoefficient = d.FluxCoefficient
	}
	if p.CreditExpiryMonths == 0 {
		p.CreditExpiryMonths = d.CreditExpiryMonths
	}
	if p.HorizonYears == 0 {
		p.HorizonYears = d.HorizonYears
	}
	if p.SurpassingFactor == 0 {
		p.SurpassingFactor = d.SurpassingFactor
	}
	return p
}
