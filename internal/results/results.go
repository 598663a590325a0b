// Package results accumulates categorized validation findings across all
// datasets processed in one run. The category set is closed: every list
// category is present (possibly empty) from construction, so consumers
// never have to treat a missing category as "no issues".
package results

// Category identifies one validation finding kind.
type Category string

const (
	CategoryTooManyVars            Category = "too_many_vars"
	CategoryUnknownVars            Category = "unknown_vars"
	CategoryUnitMismatch           Category = "unit_mismatch"
	CategoryMissingUnit            Category = "missing_unit"
	CategoryMissingTimeCoverage    Category = "missing_time_coverage"
	CategoryTimeResolutionMismatch Category = "time_resolution_mismatch"
	CategoryMissingTimeCoords      Category = "missing_time_coords"
	CategoryExtendedTimePeriod     Category = "extended_time_period"
)

// ListCategories enumerates every list-valued category in report order.
var ListCategories = []Category{
	CategoryTooManyVars,
	CategoryUnknownVars,
	CategoryUnitMismatch,
	CategoryMissingUnit,
	CategoryMissingTimeCoverage,
	CategoryTimeResolutionMismatch,
	CategoryMissingTimeCoords,
	CategoryExtendedTimePeriod,
}

// Results is the mutable findings store for one run. List categories hold
// one dataset path per finding; GridConsistent is the single run-wide
// spatial compatibility flag, which starts true and latches false.
type Results struct {
	TooManyVars            []string `json:"too_many_vars"`
	UnknownVars            []string `json:"unknown_vars"`
	UnitMismatch           []string `json:"unit_mismatch"`
	MissingUnit            []string `json:"missing_unit"`
	GridConsistent         bool     `json:"lat_lon_consistency"`
	MissingTimeCoverage    []string `json:"missing_time_coverage"`
	TimeResolutionMismatch []string `json:"time_resolution_mismatch"`
	MissingTimeCoords      []string `json:"missing_time_coords"`
	ExtendedTimePeriod     []string `json:"extended_time_period"`
}

// New creates an empty results store with all categories initialized.
func New() *Results {
	return &Results{
		TooManyVars:            []string{},
		UnknownVars:            []string{},
		UnitMismatch:           []string{},
		MissingUnit:            []string{},
		GridConsistent:         true,
		MissingTimeCoverage:    []string{},
		TimeResolutionMismatch: []string{},
		MissingTimeCoords:      []string{},
		ExtendedTimePeriod:     []string{},
	}
}

// Record appends a dataset path under a category, skipping duplicates.
// Unknown categories are ignored so that the store stays closed.
func (r *Results) Record(cat Category, path string) {
	list := r.list(cat)
	if list == nil {
		return
	}
	for _, existing := range *list {
		if existing == path {
			return
		}
	}
	*list = append(*list, path)
}

// MarkGridInconsistent latches the run-wide spatial flag to false.
// Once false it never reverts within a run.
func (r *Results) MarkGridInconsistent() {
	r.GridConsistent = false
}

// Paths returns the recorded paths for a list category.
func (r *Results) Paths(cat Category) []string {
	if list := r.list(cat); list != nil {
		return *list
	}
	return nil
}

// HasFindings reports whether any category carries a finding.
func (r *Results) HasFindings() bool {
	if !r.GridConsistent {
		return true
	}
	for _, cat := range ListCategories {
		if len(r.Paths(cat)) > 0 {
			return true
		}
	}
	return false
}

func (r *Results) list(cat Category) *[]string {
	switch cat {
	case CategoryTooManyVars:
		return &r.TooManyVars
	case CategoryUnknownVars:
		return &r.UnknownVars
	case CategoryUnitMismatch:
		return &r.UnitMismatch
	case CategoryMissingUnit:
		return &r.MissingUnit
	case CategoryMissingTimeCoverage:
		return &r.MissingTimeCoverage
	case CategoryTimeResolutionMismatch:
		return &r.TimeResolutionMismatch
	case CategoryMissingTimeCoords:
		return &r.MissingTimeCoords
	case CategoryExtendedTimePeriod:
		return &r.ExtendedTimePeriod
	default:
		return nil
	}
}
