// Package timeseries normalizes dataset time axes against a target
// simulation window: trimming when the data covers the window, or
// synthesizing coverage by edge replication when extension is permitted.
package timeseries

import (
	"time"

	"waterprep/internal/convention"
	"waterprep/internal/grid"
)

// blockSize returns the number of time slices per year at a resolution.
func blockSize(freq convention.Frequency) int {
	if freq == convention.FreqMonthly {
		return 12
	}
	return 1
}

// ExpectedAxis returns the period-start timestamps a dataset at the given
// resolution must carry to span [startYear, endYear]: one value per
// month-start for monthly data, one per year-start for annual data.
func ExpectedAxis(startYear, endYear int, freq convention.Frequency) []time.Time {
	var axis []time.Time
	for year := startYear; year <= endYear; year++ {
		if freq == convention.FreqMonthly {
			for month := time.January; month <= time.December; month++ {
				axis = append(axis, time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
			}
		} else {
			axis = append(axis, time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC))
		}
	}
	return axis
}

// ResolutionMatches reports whether a time axis carries every expected
// period start for its own year span at the given resolution. Sub-daily
// components and time zones are ignored.
func ResolutionMatches(times []time.Time, freq convention.Frequency) bool {
	if len(times) == 0 {
		return false
	}
	present := make(map[time.Time]bool, len(times))
	minYear, maxYear := times[0].Year(), times[0].Year()
	for _, t := range times {
		present[dayKey(t)] = true
		if y := t.Year(); y < minYear {
			minYear = y
		} else if y > maxYear {
			maxYear = y
		}
	}
	for _, want := range ExpectedAxis(minYear, maxYear, freq) {
		if !present[want] {
			return false
		}
	}
	return true
}

// Covers reports whether the dataset's year range fully covers the window.
func Covers(ds *grid.Dataset, startYear, endYear int) bool {
	if !ds.HasTime() {
		return false
	}
	minYear, maxYear := ds.YearRange()
	return minYear <= startYear && maxYear >= endYear
}

// Trim restricts the dataset to [startYear-01-01, endYear-12-31]
// inclusive. For a window fully inside the covered range this never
// drops the whole axis.
func Trim(ds *grid.Dataset, startYear, endYear int) {
	lo := time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	hi := time.Date(endYear, time.December, 31, 23, 59, 59, 0, time.UTC)

	var keep []int
	for i, t := range ds.Time {
		u := t.UTC()
		if !u.Before(lo) && !u.After(hi) {
			keep = append(keep, i)
		}
	}

	trimmed := make([]time.Time, len(keep))
	for i, idx := range keep {
		trimmed[i] = ds.Time[idx]
	}
	ds.Time = trimmed

	for v := range ds.Vars {
		rows := make([][]float64, 0, len(keep))
		for _, idx := range keep {
			if idx < len(ds.Vars[v].Data) {
				rows = append(rows, ds.Vars[v].Data[idx])
			}
		}
		ds.Vars[v].Data = rows
	}
}

// Extend rebuilds the dataset's time axis to span exactly
// [startYear, endYear] at the given native resolution. Periods before the
// data's coverage replicate the first year block; periods after replicate
// the last year block; periods inside keep the original slice. The
// resulting axis is monotonically increasing with no duplicates.
func Extend(ds *grid.Dataset, startYear, endYear int, freq convention.Frequency) {
	target := ExpectedAxis(startYear, endYear, freq)
	block := blockSize(freq)

	index := make(map[time.Time]int, len(ds.Time))
	for i, t := range ds.Time {
		index[dayKey(t)] = i
	}
	first := dayKey(ds.Time[0])
	last := dayKey(ds.Time[len(ds.Time)-1])

	rowFor := func(t time.Time) int {
		if i, ok := index[t]; ok {
			return i
		}
		pos := blockPos(t, freq)
		if t.Before(first) {
			if pos < len(ds.Time) {
				return pos
			}
			return 0
		}
		if t.After(last) {
			i := len(ds.Time) - block + pos
			if i >= 0 && i < len(ds.Time) {
				return i
			}
			return len(ds.Time) - 1
		}
		// Interior gap: fall back to the latest earlier slice.
		best := 0
		for i, u := range ds.Time {
			if !dayKey(u).After(t) {
				best = i
			}
		}
		return best
	}

	for v := range ds.Vars {
		rows := make([][]float64, len(target))
		for i, t := range target {
			src := rowFor(t)
			if src < len(ds.Vars[v].Data) {
				rows[i] = ds.Vars[v].Data[src]
			}
		}
		ds.Vars[v].Data = rows
	}
	ds.Time = target
}

// blockPos returns the slice position of a timestamp within its year
// block: the zero-based month for monthly data, zero for annual data.
func blockPos(t time.Time, freq convention.Frequency) int {
	if freq == convention.FreqMonthly {
		return int(t.Month()) - 1
	}
	return 0
}

// dayKey truncates a timestamp to its UTC calendar day for axis lookups.
func dayKey(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
