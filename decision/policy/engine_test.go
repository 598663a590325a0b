package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waterprep/internal/results"
)

func TestEvaluateCleanRunProceeds(t *testing.T) {
	eval := NewEngine().Evaluate(results.New())

	assert.Equal(t, OutcomeProceed, eval.Outcome)
	assert.Empty(t, eval.Criticals)
	assert.Empty(t, eval.Warnings)
	assert.Empty(t, eval.Infos)
	assert.False(t, eval.EvaluatedAt.IsZero())
}

func TestEvaluateWarningsOnlyProceedWithWarnings(t *testing.T) {
	res := results.New()
	res.Record(results.CategoryUnknownVars, "irrigation/withdrawal")
	res.Record(results.CategoryUnitMismatch, "domestic/withdrawal")
	res.Record(results.CategoryMissingUnit, "thermal/withdrawal")

	eval := NewEngine().Evaluate(res)

	assert.Equal(t, OutcomeProceedWithWarnings, eval.Outcome)
	assert.Empty(t, eval.Criticals)
	assert.Len(t, eval.Warnings, 3)
}

func TestEvaluateCriticalCategoriesAbort(t *testing.T) {
	tests := []struct {
		name     string
		category results.Category
	}{
		{"resolution mismatch", results.CategoryTimeResolutionMismatch},
		{"missing time coords", results.CategoryMissingTimeCoords},
		{"too many vars", results.CategoryTooManyVars},
		{"missing coverage", results.CategoryMissingTimeCoverage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := results.New()
			res.Record(tt.category, "irrigation/withdrawal")

			eval := NewEngine().Evaluate(res)

			assert.Equal(t, OutcomeAbort, eval.Outcome)
			require.Len(t, eval.Criticals, 1)
			assert.Equal(t, tt.category, eval.Criticals[0].Category)
		})
	}
}

func TestEvaluateGridInconsistencyAborts(t *testing.T) {
	res := results.New()
	res.MarkGridInconsistent()

	eval := NewEngine().Evaluate(res)

	assert.Equal(t, OutcomeAbort, eval.Outcome)
	require.Len(t, eval.Criticals, 1)
	assert.Equal(t, results.Category("lat_lon_consistency"), eval.Criticals[0].Category)
}

func TestEvaluateExtendedCoverageIsInformational(t *testing.T) {
	res := results.New()
	res.Record(results.CategoryMissingTimeCoverage, "irrigation/withdrawal")
	res.Record(results.CategoryExtendedTimePeriod, "irrigation/withdrawal")

	eval := NewEngine().Evaluate(res)

	assert.Equal(t, OutcomeProceed, eval.Outcome)
	assert.Empty(t, eval.Criticals)
	require.Len(t, eval.Infos, 1)
	assert.Equal(t, []string{"irrigation/withdrawal"}, eval.Infos[0].Paths)
}

func TestEvaluateCrossReferenceIsPerPath(t *testing.T) {
	res := results.New()
	res.Record(results.CategoryMissingTimeCoverage, "irrigation/withdrawal")
	res.Record(results.CategoryMissingTimeCoverage, "domestic/withdrawal")
	res.Record(results.CategoryExtendedTimePeriod, "irrigation/withdrawal")

	eval := NewEngine().Evaluate(res)

	// The unextended path still aborts the run.
	assert.Equal(t, OutcomeAbort, eval.Outcome)
	require.Len(t, eval.Criticals, 1)
	assert.Equal(t, []string{"domestic/withdrawal"}, eval.Criticals[0].Paths)
	require.Len(t, eval.Infos, 1)
	assert.Equal(t, []string{"irrigation/withdrawal"}, eval.Infos[0].Paths)
}

func TestEvaluateCollectsEverythingBeforeDeciding(t *testing.T) {
	res := results.New()
	res.Record(results.CategoryTimeResolutionMismatch, "irrigation/withdrawal")
	res.Record(results.CategoryMissingTimeCoords, "domestic/withdrawal")
	res.Record(results.CategoryUnitMismatch, "thermal/withdrawal")
	res.MarkGridInconsistent()

	eval := NewEngine().Evaluate(res)

	assert.Equal(t, OutcomeAbort, eval.Outcome)
	assert.Len(t, eval.Criticals, 3)
	assert.Len(t, eval.Warnings, 1)
}
