package results

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInitializesEveryCategory(t *testing.T) {
	res := New()

	for _, cat := range ListCategories {
		paths := res.Paths(cat)
		require.NotNil(t, paths, string(cat))
		assert.Empty(t, paths)
	}
	assert.True(t, res.GridConsistent)
	assert.False(t, res.HasFindings())
}

func TestRecordDeduplicates(t *testing.T) {
	res := New()

	res.Record(CategoryUnitMismatch, "irrigation/withdrawal")
	res.Record(CategoryUnitMismatch, "irrigation/withdrawal")
	res.Record(CategoryUnitMismatch, "domestic/withdrawal")

	assert.Equal(t,
		[]string{"irrigation/withdrawal", "domestic/withdrawal"},
		res.Paths(CategoryUnitMismatch))
	assert.True(t, res.HasFindings())
}

func TestRecordUnknownCategoryIsIgnored(t *testing.T) {
	res := New()
	res.Record(Category("bogus"), "x")
	assert.False(t, res.HasFindings())
}

func TestGridFlagLatches(t *testing.T) {
	res := New()
	res.MarkGridInconsistent()
	res.MarkGridInconsistent()

	assert.False(t, res.GridConsistent)
	assert.True(t, res.HasFindings())
}

func TestJSONCarriesAllNineKeys(t *testing.T) {
	raw, err := json.Marshal(New())
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))

	for _, key := range []string{
		"too_many_vars", "unknown_vars", "unit_mismatch", "missing_unit",
		"lat_lon_consistency", "missing_time_coverage",
		"time_resolution_mismatch", "missing_time_coords",
		"extended_time_period",
	} {
		assert.Contains(t, doc, key)
	}
	assert.Equal(t, true, doc["lat_lon_consistency"])
}
