package convention

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waterprep/pkg/errors"
)

func validConvention() *Convention {
	return &Convention{
		ReferenceNames:  []string{"irrigation_withdrawal", "domestic_withdrawal"},
		TimeVariantVars: []string{"withdrawal"},
		SectorRequirements: map[string]SectorRequirements{
			"irrigation": {
				ExpectedVars:  []string{"withdrawal", "fraction"},
				UnitVars:      []string{"withdrawal"},
				ExpectedUnits: []string{"m3/month"},
				TimeFreq:      "monthly",
			},
		},
	}
}

func TestParseFrequency(t *testing.T) {
	freq, err := ParseFrequency("monthly")
	require.NoError(t, err)
	assert.Equal(t, FreqMonthly, freq)

	freq, err = ParseFrequency("Yearly")
	require.NoError(t, err)
	assert.Equal(t, FreqAnnual, freq)

	freq, err = ParseFrequency("annual")
	require.NoError(t, err)
	assert.Equal(t, FreqAnnual, freq)

	_, err = ParseFrequency("weekly")
	require.Error(t, err)
	var prepErr *errors.PrepError
	require.ErrorAs(t, err, &prepErr)
	assert.Equal(t, errors.ErrCodeInvalidFrequency, prepErr.Code)
}

func TestValidateMissingSections(t *testing.T) {
	conv := validConvention()
	conv.ReferenceNames = nil
	require.Error(t, conv.Validate())

	conv = validConvention()
	conv.TimeVariantVars = nil
	require.Error(t, conv.Validate())

	conv = validConvention()
	conv.SectorRequirements = nil
	require.Error(t, conv.Validate())
}

func TestValidateParallelLists(t *testing.T) {
	conv := validConvention()
	req := conv.SectorRequirements["irrigation"]
	req.ExpectedUnits = []string{}
	conv.SectorRequirements["irrigation"] = req

	err := conv.Validate()
	require.Error(t, err)
	var prepErr *errors.PrepError
	require.ErrorAs(t, err, &prepErr)
	assert.Equal(t, errors.SeverityFatal, prepErr.Severity)
}

func TestValidateBadFrequency(t *testing.T) {
	conv := validConvention()
	req := conv.SectorRequirements["irrigation"]
	req.TimeFreq = "daily"
	conv.SectorRequirements["irrigation"] = req

	require.Error(t, conv.Validate())
}

func TestExpectedUnit(t *testing.T) {
	req := validConvention().SectorRequirements["irrigation"]

	unit, ok := req.ExpectedUnit("withdrawal")
	require.True(t, ok)
	assert.Equal(t, "m3/month", unit)

	_, ok = req.ExpectedUnit("fraction")
	assert.False(t, ok)

	assert.True(t, req.RequiresUnit("withdrawal"))
	assert.False(t, req.RequiresUnit("fraction"))
}

func TestSectorLookups(t *testing.T) {
	conv := validConvention()

	assert.True(t, conv.KnownName("irrigation_withdrawal"))
	assert.False(t, conv.KnownName("rainfall"))

	assert.True(t, conv.TimeVariant("withdrawal"))
	assert.False(t, conv.TimeVariant("fraction"))

	// Unknown sectors carry no rules at all.
	req := conv.Sector("mining")
	assert.Empty(t, req.ExpectedVars)
	assert.Empty(t, req.TimeFreq)
}

func TestLoadYAML(t *testing.T) {
	doc := `
reference_names:
  - irrigation_withdrawal
time_variant_vars:
  - withdrawal
sector_requirements:
  irrigation:
    expected_vars: [withdrawal]
    unit_vars: [withdrawal]
    expected_units: [m3/month]
    time_freq: monthly
`
	path := filepath.Join(t.TempDir(), "convention.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	conv, err := Load(path)
	require.NoError(t, err)
	assert.True(t, conv.KnownName("irrigation_withdrawal"))
	assert.Equal(t, "monthly", conv.Sector("irrigation").TimeFreq)
}

func TestLoadJSON(t *testing.T) {
	doc := `{
		"reference_names": ["irrigation_withdrawal"],
		"time_variant_vars": ["withdrawal"],
		"sector_requirements": {
			"irrigation": {
				"expected_vars": ["withdrawal"],
				"unit_vars": ["withdrawal"],
				"expected_units": ["m3/month"],
				"time_freq": "annual"
			}
		}
	}`
	path := filepath.Join(t.TempDir(), "convention.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	conv, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "annual", conv.Sector("irrigation").TimeFreq)
}

func TestLoadInvalidDocumentFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "convention.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"reference_names": []}`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
