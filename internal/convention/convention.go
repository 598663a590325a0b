// Package convention models the declarative data convention that input
// datasets are validated against. The convention is loaded once per run
// and read-only afterwards; a structurally invalid document is fatal and
// aborts the run before any dataset is processed.
package convention

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"waterprep/pkg/errors"
)

// Frequency is a required temporal resolution label.
type Frequency string

const (
	FreqMonthly Frequency = "monthly"
	FreqAnnual  Frequency = "annual"
)

// ParseFrequency normalizes a resolution label. "yearly" is accepted as
// an alias for "annual".
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(s) {
	case "monthly":
		return FreqMonthly, nil
	case "annual", "yearly":
		return FreqAnnual, nil
	default:
		return "", errors.NewInvalidFrequencyError(s)
	}
}

// SectorRequirements holds the per-sector validation rules.
// ExpectedUnits is parallel to UnitVars: the unit expected for UnitVars[i]
// is ExpectedUnits[i].
type SectorRequirements struct {
	ExpectedVars  []string `json:"expected_vars" yaml:"expected_vars"`
	UnitVars      []string `json:"unit_vars" yaml:"unit_vars"`
	ExpectedUnits []string `json:"expected_units" yaml:"expected_units"`
	TimeFreq      string   `json:"time_freq" yaml:"time_freq"`
}

// ExpectedUnit returns the expected unit string for a variable, matched by
// parallel position in the unit-bearing variable list.
func (r SectorRequirements) ExpectedUnit(variable string) (string, bool) {
	for i, v := range r.UnitVars {
		if v == variable && i < len(r.ExpectedUnits) {
			return r.ExpectedUnits[i], true
		}
	}
	return "", false
}

// RequiresUnit reports whether the sector declares the variable as
// unit-bearing.
func (r SectorRequirements) RequiresUnit(variable string) bool {
	for _, v := range r.UnitVars {
		if v == variable {
			return true
		}
	}
	return false
}

// Convention is the full data convention document.
type Convention struct {
	ReferenceNames     []string                      `json:"reference_names" yaml:"reference_names"`
	TimeVariantVars    []string                      `json:"time_variant_vars" yaml:"time_variant_vars"`
	SectorRequirements map[string]SectorRequirements `json:"sector_requirements" yaml:"sector_requirements"`
}

// KnownName reports whether a variable name is in the reference vocabulary.
func (c *Convention) KnownName(name string) bool {
	for _, n := range c.ReferenceNames {
		if n == name {
			return true
		}
	}
	return false
}

// TimeVariant reports whether the variable is required to vary in time.
func (c *Convention) TimeVariant(variable string) bool {
	for _, v := range c.TimeVariantVars {
		if v == variable {
			return true
		}
	}
	return false
}

// Sector returns the requirements for a sector. A sector absent from the
// convention yields zero-valued requirements, meaning no unit or
// resolution rules apply.
func (c *Convention) Sector(name string) SectorRequirements {
	return c.SectorRequirements[name]
}

// Validate checks the structural integrity of the document. Any failure
// is fatal to the run.
func (c *Convention) Validate() error {
	if c.ReferenceNames == nil {
		return errors.NewConventionError("reference_names is missing")
	}
	if c.TimeVariantVars == nil {
		return errors.NewConventionError("time_variant_vars is missing")
	}
	if c.SectorRequirements == nil {
		return errors.NewConventionError("sector_requirements is missing")
	}
	for sector, req := range c.SectorRequirements {
		if len(req.UnitVars) != len(req.ExpectedUnits) {
			return errors.NewConventionError(fmt.Sprintf(
				"sector %q: unit_vars (%d) and expected_units (%d) must be parallel",
				sector, len(req.UnitVars), len(req.ExpectedUnits)))
		}
		if req.TimeFreq != "" {
			if _, err := ParseFrequency(req.TimeFreq); err != nil {
				return err
			}
		}
	}
	return nil
}

// Load reads and validates a convention document. The format is chosen by
// file extension: .yaml/.yml is parsed as YAML, everything else as JSON.
func Load(path string) (*Convention, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read convention file: %w", err)
	}

	var conv Convention
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &conv); err != nil {
			return nil, fmt.Errorf("failed to parse convention YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(raw, &conv); err != nil {
			return nil, fmt.Errorf("failed to parse convention JSON: %w", err)
		}
	}

	if err := conv.Validate(); err != nil {
		return nil, err
	}
	return &conv, nil
}
