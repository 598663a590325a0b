// Package report renders a finished run for humans and machines: a
// grouped text report, a JSON document, and structured log lines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"waterprep/decision/policy"
	"waterprep/internal/results"
)

// Report bundles everything a consumer needs about one run.
type Report struct {
	RunID      string                   `json:"run_id,omitempty"`
	StartYear  int                      `json:"start_year"`
	EndYear    int                      `json:"end_year"`
	TimeExtend bool                     `json:"time_extend"`
	Results    *results.Results         `json:"results"`
	Evaluation *policy.EvaluationResult `json:"evaluation"`
}

// headlines maps each category to its report heading. The wording states
// the consequence, not just the category name.
var headlines = map[results.Category]string{
	results.CategoryTooManyVars:            "Multiple variables found; only the first one is used in:",
	results.CategoryUnknownVars:            "Variable names not found in the reference vocabulary in:",
	results.CategoryUnitMismatch:           "Units do not match the expected units in:",
	results.CategoryMissingUnit:            "Required unit attribute is missing in:",
	results.CategoryMissingTimeCoverage:    "Simulation period is not fully covered by:",
	results.CategoryTimeResolutionMismatch: "Time resolution does not match the requirement in:",
	results.CategoryMissingTimeCoords:      "Expected time coordinates are missing in:",
	results.CategoryExtendedTimePeriod:     "Time period was extended to the simulation period for:",
}

// WriteText renders the grouped human-readable report.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Input data check for simulation period %d-%d\n", r.StartYear, r.EndYear))
	b.WriteString(strings.Repeat("=", 50) + "\n")

	clean := true
	for _, cat := range results.ListCategories {
		paths := r.Results.Paths(cat)
		if len(paths) == 0 {
			continue
		}
		clean = false
		b.WriteString("\n" + headlines[cat])
		for _, p := range paths {
			b.WriteString("\n   - " + p)
		}
		b.WriteString("\n")
	}
	if !r.Results.GridConsistent {
		clean = false
		b.WriteString("\nSpatial coordinates are not consistent across the input data.\n")
	}
	if clean {
		b.WriteString("\nAll checks passed.\n")
	}

	b.WriteString(fmt.Sprintf("\nDecision: %s\n", r.Evaluation.Outcome))

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON renders the full report as an indented JSON document.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Log emits one structured log line per evaluated finding group plus a
// final outcome line.
func (r *Report) Log(logger zerolog.Logger) {
	for _, f := range r.Evaluation.Criticals {
		logger.Error().
			Str("category", string(f.Category)).
			Strs("paths", f.Paths).
			Msg(f.Message)
	}
	for _, f := range r.Evaluation.Warnings {
		logger.Warn().
			Str("category", string(f.Category)).
			Strs("paths", f.Paths).
			Msg(f.Message)
	}
	for _, f := range r.Evaluation.Infos {
		logger.Info().
			Str("category", string(f.Category)).
			Strs("paths", f.Paths).
			Msg(f.Message)
	}

	event := logger.Info()
	if r.Evaluation.Outcome == policy.OutcomeAbort {
		event = logger.Error()
	}
	event.Str("outcome", string(r.Evaluation.Outcome)).Msg("run evaluated")
}

// ExitCode maps an outcome to the process exit status. Warnings do not
// change the exit code; only an abort does.
func ExitCode(outcome policy.Outcome) int {
	if outcome == policy.OutcomeAbort {
		return 2
	}
	return 0
}
