package clickhouse

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waterprep/decision/policy"
	"waterprep/internal/results"
)

func TestFindingRows(t *testing.T) {
	runID := uuid.New()
	res := results.New()
	res.Record(results.CategoryUnitMismatch, "irrigation/withdrawal")
	res.Record(results.CategoryUnitMismatch, "domestic/withdrawal")
	res.Record(results.CategoryMissingTimeCoverage, "thermal/withdrawal")
	res.MarkGridInconsistent()

	rows := FindingRows(runID, res)

	require.Len(t, rows, 4)
	for _, row := range rows {
		assert.Equal(t, runID, row.RunID)
	}
	// The run-wide spatial flag maps to one pathless row.
	last := rows[len(rows)-1]
	assert.Equal(t, "lat_lon_consistency", last.Category)
	assert.Empty(t, last.Path)
}

func TestFindingRowsEmptyResults(t *testing.T) {
	assert.Empty(t, FindingRows(uuid.New(), results.New()))
}

func TestNewRun(t *testing.T) {
	run := NewRun(2000, 2005, true, 7, policy.OutcomeProceedWithWarnings)

	assert.NotEqual(t, uuid.Nil, run.ID)
	assert.Equal(t, int32(2000), run.StartYear)
	assert.Equal(t, int32(2005), run.EndYear)
	assert.True(t, run.TimeExtend)
	assert.Equal(t, uint32(7), run.DatasetCount)
	assert.Equal(t, "proceed_with_warnings", run.Outcome)
	assert.False(t, run.CreatedAt.IsZero())
}
