// Package policy decides whether a run may proceed based on the
// accumulated validation results. The decision is a pure function of the
// results store: process termination belongs to the outermost layer.
package policy

import (
	"fmt"
	"time"

	"waterprep/internal/results"
)

// Outcome is the run-level decision.
type Outcome string

const (
	OutcomeProceed             Outcome = "proceed"
	OutcomeProceedWithWarnings Outcome = "proceed_with_warnings"
	OutcomeAbort               Outcome = "abort"
)

// Severity classifies a finding group.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Finding is one evaluated category with its offending dataset paths.
type Finding struct {
	Category results.Category `json:"category"`
	Severity Severity         `json:"severity"`
	Message  string           `json:"message"`
	Paths    []string         `json:"paths,omitempty"`
}

// EvaluationResult is the full policy report. Every category is evaluated
// even when an abort condition is already known, so the caller always
// receives the complete picture before acting on the outcome.
type EvaluationResult struct {
	Outcome     Outcome   `json:"outcome"`
	Criticals   []Finding `json:"criticals"`
	Warnings    []Finding `json:"warnings"`
	Infos       []Finding `json:"infos"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Engine evaluates validation results against the decision rules.
type Engine struct{}

// NewEngine creates a decision policy engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate classifies every finding category and derives the outcome.
// Critical categories abort; warning categories only warn; the
// missing-coverage/extended-period pair is cross-referenced so that fully
// extended coverage gaps are informational rather than critical.
func (e *Engine) Evaluate(res *results.Results) *EvaluationResult {
	result := &EvaluationResult{
		Outcome:     OutcomeProceed,
		Criticals:   []Finding{},
		Warnings:    []Finding{},
		Infos:       []Finding{},
		EvaluatedAt: time.Now(),
	}

	if paths := res.TimeResolutionMismatch; len(paths) > 0 {
		result.Criticals = append(result.Criticals, Finding{
			Category: results.CategoryTimeResolutionMismatch,
			Severity: SeverityCritical,
			Message:  "time resolution does not match the sector requirement",
			Paths:    paths,
		})
	}

	if paths := res.MissingTimeCoords; len(paths) > 0 {
		result.Criticals = append(result.Criticals, Finding{
			Category: results.CategoryMissingTimeCoords,
			Severity: SeverityCritical,
			Message:  "a time coordinate was expected but is missing",
			Paths:    paths,
		})
	}

	// Abort-eligible, but the orchestrator already processed these
	// datasets with their first variable as a fallback.
	if paths := res.TooManyVars; len(paths) > 0 {
		result.Criticals = append(result.Criticals, Finding{
			Category: results.CategoryTooManyVars,
			Severity: SeverityCritical,
			Message:  "multiple variables found; only the first variable was used",
			Paths:    paths,
		})
	}

	// Cross-reference rule: a coverage gap is critical only for paths
	// that were not synthesized by time extension.
	unmatched, matched := splitCoverage(res.MissingTimeCoverage, res.ExtendedTimePeriod)
	if len(unmatched) > 0 {
		result.Criticals = append(result.Criticals, Finding{
			Category: results.CategoryMissingTimeCoverage,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("simulation period is not covered for %d dataset(s)", len(unmatched)),
			Paths:    unmatched,
		})
	}
	if len(matched) > 0 {
		result.Infos = append(result.Infos, Finding{
			Category: results.CategoryExtendedTimePeriod,
			Severity: SeverityInfo,
			Message:  "simulation period was not covered but the data was extended",
			Paths:    matched,
		})
	}

	if !res.GridConsistent {
		result.Criticals = append(result.Criticals, Finding{
			Category: "lat_lon_consistency",
			Severity: SeverityCritical,
			Message:  "spatial coordinates are not equal across all input data",
		})
	}

	if paths := res.UnknownVars; len(paths) > 0 {
		result.Warnings = append(result.Warnings, Finding{
			Category: results.CategoryUnknownVars,
			Severity: SeverityWarning,
			Message:  "variable name is not listed in the convention's reference names",
			Paths:    paths,
		})
	}

	if paths := res.UnitMismatch; len(paths) > 0 {
		result.Warnings = append(result.Warnings, Finding{
			Category: results.CategoryUnitMismatch,
			Severity: SeverityWarning,
			Message:  "declared units do not match the sector's expected units",
			Paths:    paths,
		})
	}

	if paths := res.MissingUnit; len(paths) > 0 {
		result.Warnings = append(result.Warnings, Finding{
			Category: results.CategoryMissingUnit,
			Severity: SeverityWarning,
			Message:  "a unit definition is required for the sector but missing",
			Paths:    paths,
		})
	}

	switch {
	case len(result.Criticals) > 0:
		result.Outcome = OutcomeAbort
	case len(result.Warnings) > 0:
		result.Outcome = OutcomeProceedWithWarnings
	}

	return result
}

// splitCoverage partitions the missing-coverage paths into those without
// and with a matching extended-period entry, preserving input order.
func splitCoverage(missing, extended []string) (unmatched, matched []string) {
	extendedSet := make(map[string]bool, len(extended))
	for _, p := range extended {
		extendedSet[p] = true
	}
	for _, p := range missing {
		if extendedSet[p] {
			matched = append(matched, p)
		} else {
			unmatched = append(unmatched, p)
		}
	}
	return unmatched, matched
}
