package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waterprep/internal/convention"
	"waterprep/pkg/errors"
)

func testConvention() *convention.Convention {
	return &convention.Convention{
		ReferenceNames:  []string{"withdrawal", "fraction"},
		TimeVariantVars: []string{"withdrawal"},
		SectorRequirements: map[string]convention.SectorRequirements{
			"irrigation": {
				ExpectedVars:  []string{"withdrawal"},
				UnitVars:      []string{"withdrawal"},
				ExpectedUnits: []string{"m3/year"},
				TimeFreq:      "annual",
			},
			"domestic": {
				ExpectedVars: []string{"withdrawal", "fraction"},
			},
		},
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDecode(t *testing.T) {
	raw := `{
		"variables": [{"name": "withdrawal", "units": "m3/year", "data": [[1.5]]}],
		"time": ["2000-01-01"],
		"lat": [10],
		"lon": [20]
	}`

	ds, err := Decode([]byte(raw), "irrigation/withdrawal")
	require.NoError(t, err)
	require.Len(t, ds.Vars, 1)
	assert.Equal(t, "withdrawal", ds.Vars[0].Name)
	assert.Equal(t, "m3/year", ds.Vars[0].Units)
	assert.Equal(t, [][]float64{{1.5}}, ds.Vars[0].Data)
	require.Len(t, ds.Time, 1)
	assert.Equal(t, 2000, ds.Time[0].Year())
	assert.Equal(t, []float64{10}, ds.Axis.Lat)
}

func TestDecodeRFC3339Timestamps(t *testing.T) {
	raw := `{
		"variables": [{"name": "withdrawal"}],
		"time": ["2000-06-01T00:00:00Z"]
	}`

	ds, err := Decode([]byte(raw), "x")
	require.NoError(t, err)
	assert.Equal(t, time.June, ds.Time[0].Month())
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte("not json"), "x")
	require.Error(t, err)
	var prepErr *errors.PrepError
	require.ErrorAs(t, err, &prepErr)
	assert.Equal(t, errors.ErrCodeDatasetParse, prepErr.Code)

	_, err = Decode([]byte(`{"variables": []}`), "x")
	require.Error(t, err)

	_, err = Decode([]byte(`{"variables": [{"name": "w"}], "time": ["soon"]}`), "x")
	require.Error(t, err)
}

func TestLoadCollection(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "irrigation", "withdrawal", "data.json"), `{
		"variables": [{"name": "withdrawal", "units": "m3/year", "data": [[1]]}],
		"time": ["2000-01-01"],
		"lat": [10],
		"lon": [20]
	}`)
	writeFile(t, filepath.Join(root, "domestic", "fraction", "data.json"), `{
		"variables": [{"name": "fraction", "data": [[0.5]]}],
		"lat": [10],
		"lon": [20]
	}`)

	items, err := LoadCollection(root, testConvention())
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Sectors are visited alphabetically; variables in declaration order.
	assert.Equal(t, "domestic/fraction", items[0].Path())
	assert.Equal(t, "irrigation/withdrawal", items[1].Path())
}

func TestLoadCollectionSkipsMissingDirectories(t *testing.T) {
	items, err := LoadCollection(t.TempDir(), testConvention())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestLoadCollectionFailsOnBadFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "irrigation", "withdrawal", "data.json"), "garbage")

	_, err := LoadCollection(root, testConvention())
	require.Error(t, err)
}

func TestLoadVariableDirConcatenatesAlongTime(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "irrigation", "withdrawal")
	// Files out of chronological order on purpose.
	writeFile(t, filepath.Join(dir, "a.json"), `{
		"variables": [{"name": "withdrawal", "units": "m3/year", "data": [[2001]]}],
		"time": ["2001-01-01"],
		"lat": [10],
		"lon": [20]
	}`)
	writeFile(t, filepath.Join(dir, "b.json"), `{
		"variables": [{"name": "withdrawal", "units": "m3/year", "data": [[2000]]}],
		"time": ["2000-01-01"],
		"lat": [10],
		"lon": [20]
	}`)

	items, err := LoadCollection(root, testConvention())
	require.NoError(t, err)
	require.Len(t, items, 1)

	ds := items[0].Dataset
	require.Len(t, ds.Time, 2)
	assert.Equal(t, 2000, ds.Time[0].Year())
	assert.Equal(t, 2001, ds.Time[1].Year())
	assert.Equal(t, [][]float64{{2000}, {2001}}, ds.Vars[0].Data)
}
