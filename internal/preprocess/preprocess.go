// Package preprocess orchestrates the input-data validation and
// normalization pipeline: it walks the dataset collection in input order,
// runs the structural validator and the temporal normalizer per item,
// folds every finding into one shared results store, and assembles the
// normalized output handed to the simulation.
package preprocess

import (
	"waterprep/internal/convention"
	"waterprep/internal/grid"
	"waterprep/internal/results"
	"waterprep/internal/timeseries"
	"waterprep/internal/validate"
)

// Item is one dataset submitted for validation and preprocessing.
type Item struct {
	Dataset  *grid.Dataset
	Sector   string
	Variable string
}

// Path is the identifier findings are recorded under.
func (i Item) Path() string {
	return i.Sector + "/" + i.Variable
}

// Output maps sector -> variable -> processed field. Exactly one entry
// exists per sector/variable pair processed; on a multi-variable dataset
// only the first variable survives (fallback, not abort).
type Output map[string]map[string]grid.Variable

// Options configures one preprocessing run.
type Options struct {
	StartYear     int
	EndYear       int
	TimeExtend    bool
	GridTolerance float64
}

// Process runs the full pipeline over the dataset collection. Items are
// processed strictly sequentially: the results store and the reference
// grid are shared run-scoped state, and the reference grid is established
// by the first item in input order that carries one. Identical input
// always yields identical output and identical results. Caller-owned
// datasets are never mutated.
func Process(items []Item, conv *convention.Convention, opts Options) (Output, *results.Results) {
	res := results.New()
	checker := grid.NewChecker(opts.GridTolerance)
	out := Output{}

	for _, item := range items {
		path := item.Path()
		ds := item.Dataset.Clone()

		verdict := validate.Check(ds, item.Sector, item.Variable, conv, opts.StartYear, opts.EndYear)
		for _, cat := range verdict.Findings {
			res.Record(cat, path)
		}

		// Spatial normalization precedes the grid comparison so that
		// coordinate ordering differences alone do not fail the run.
		ds.SortCoords()
		if !checker.Check(ds.Axis) {
			res.MarkGridInconsistent()
		}

		// Temporal normalization applies only to time-variant variables
		// that actually carry a time axis.
		if conv.TimeVariant(item.Variable) && ds.HasTime() {
			req := conv.Sector(item.Sector)
			freq, freqErr := convention.ParseFrequency(req.TimeFreq)

			switch {
			case !verdict.CoverageGap:
				timeseries.Trim(ds, opts.StartYear, opts.EndYear)
			case opts.TimeExtend && !verdict.ResolutionMismatch && freqErr == nil:
				timeseries.Extend(ds, opts.StartYear, opts.EndYear, freq)
				res.Record(results.CategoryExtendedTimePeriod, path)
			default:
				// Coverage gap without extension: leave the data's actual
				// coverage unchanged rather than trimming into nothing.
			}
		}

		if first, ok := ds.FirstVar(); ok {
			if out[item.Sector] == nil {
				out[item.Sector] = map[string]grid.Variable{}
			}
			out[item.Sector][item.Variable] = *first
		}
	}

	return out, res
}
