// Package validate runs the per-dataset structural checks: variable
// multiplicity, name vocabulary membership, unit presence and
// correctness, and temporal resolution and coverage. Every check records
// a finding; none aborts. Spatial grid compatibility is run-wide state
// and lives in the grid package instead.
package validate

import (
	"waterprep/internal/convention"
	"waterprep/internal/grid"
	"waterprep/internal/results"
	"waterprep/internal/timeseries"
)

// Verdict is the structured outcome of validating one dataset item.
// Findings lists every triggered category in check order; the flags
// expose the temporal findings the orchestrator needs for its
// trim-or-extend decision.
type Verdict struct {
	Findings           []results.Category
	ResolutionMismatch bool
	CoverageGap        bool
}

// Has reports whether the verdict contains a category.
func (v Verdict) Has(cat results.Category) bool {
	for _, f := range v.Findings {
		if f == cat {
			return true
		}
	}
	return false
}

// Check validates one dataset item against the convention and the target
// time window. All checks are evaluated independently; there is no
// short-circuit across categories, and global state is never touched.
func Check(ds *grid.Dataset, sector, variable string, conv *convention.Convention, startYear, endYear int) Verdict {
	var verdict Verdict
	req := conv.Sector(sector)

	// Variable multiplicity: more than one variable is a fallback case,
	// processing continues with the first one in declaration order.
	if len(ds.Vars) > 1 {
		verdict.Findings = append(verdict.Findings, results.CategoryTooManyVars)
	}

	first, ok := ds.FirstVar()
	if !ok {
		return verdict
	}

	// Name vocabulary membership is advisory only.
	if !conv.KnownName(first.Name) {
		verdict.Findings = append(verdict.Findings, results.CategoryUnknownVars)
	}

	// Unit presence and correctness. Comparison is exact string equality;
	// no unit algebra.
	if req.RequiresUnit(variable) {
		if first.Units == "" {
			verdict.Findings = append(verdict.Findings, results.CategoryMissingUnit)
		} else if expected, ok := req.ExpectedUnit(variable); ok && first.Units != expected {
			verdict.Findings = append(verdict.Findings, results.CategoryUnitMismatch)
		}
	}

	// Temporal checks apply only to variables required to vary in time.
	if conv.TimeVariant(variable) {
		if !ds.HasTime() {
			verdict.Findings = append(verdict.Findings, results.CategoryMissingTimeCoords)
			return verdict
		}

		if req.TimeFreq != "" {
			freq, err := convention.ParseFrequency(req.TimeFreq)
			if err == nil && !timeseries.ResolutionMatches(ds.Time, freq) {
				verdict.ResolutionMismatch = true
				verdict.Findings = append(verdict.Findings, results.CategoryTimeResolutionMismatch)
			}
		}

		minYear, maxYear := ds.YearRange()
		if minYear > startYear || maxYear < endYear {
			verdict.CoverageGap = true
			verdict.Findings = append(verdict.Findings, results.CategoryMissingTimeCoverage)
		}
	}

	return verdict
}
