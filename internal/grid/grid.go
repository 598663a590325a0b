// Package grid provides the in-memory model for gridded geospatial fields
// and the spatial compatibility check between them.
package grid

import (
	"sort"
	"time"
)

// Axis holds the spatial coordinate sequences of a dataset.
type Axis struct {
	Lat []float64 `json:"lat"`
	Lon []float64 `json:"lon"`
}

// Empty reports whether the axis carries no spatial coordinates.
func (a Axis) Empty() bool {
	return len(a.Lat) == 0 && len(a.Lon) == 0
}

// Cells returns the number of cells per time slice.
func (a Axis) Cells() int {
	return len(a.Lat) * len(a.Lon)
}

// Variable is one named data variable with an optional units annotation.
// Data holds one row per time step; static fields carry a single row.
// Rows are cell-major: index = latIdx*len(Lon) + lonIdx.
type Variable struct {
	Name  string      `json:"name"`
	Units string      `json:"units,omitempty"`
	Data  [][]float64 `json:"data,omitempty"`
}

// Dataset is one gridded input field as handed over by the data loader.
// Vars preserves declaration order; Time is nil for static fields.
type Dataset struct {
	Vars []Variable
	Time []time.Time
	Axis Axis
}

// HasTime reports whether the dataset carries a time dimension.
func (d *Dataset) HasTime() bool {
	return len(d.Time) > 0
}

// FirstVar returns the first variable in declaration order.
func (d *Dataset) FirstVar() (*Variable, bool) {
	if len(d.Vars) == 0 {
		return nil, false
	}
	return &d.Vars[0], true
}

// YearRange returns the first and last year covered by the time axis.
func (d *Dataset) YearRange() (int, int) {
	if !d.HasTime() {
		return 0, 0
	}
	minYear := d.Time[0].Year()
	maxYear := d.Time[0].Year()
	for _, t := range d.Time[1:] {
		if y := t.Year(); y < minYear {
			minYear = y
		} else if y > maxYear {
			maxYear = y
		}
	}
	return minYear, maxYear
}

// Clone returns a deep copy of the dataset. The preprocessing pipeline
// works on clones so that caller-owned inputs stay untouched.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		Vars: make([]Variable, len(d.Vars)),
		Axis: Axis{
			Lat: append([]float64(nil), d.Axis.Lat...),
			Lon: append([]float64(nil), d.Axis.Lon...),
		},
	}
	if d.Time != nil {
		out.Time = append([]time.Time(nil), d.Time...)
	}
	for i, v := range d.Vars {
		cp := Variable{Name: v.Name, Units: v.Units}
		if v.Data != nil {
			cp.Data = make([][]float64, len(v.Data))
			for r, row := range v.Data {
				cp.Data[r] = append([]float64(nil), row...)
			}
		}
		out.Vars[i] = cp
	}
	return out
}

// SortCoords normalizes the spatial layout to latitude descending and
// longitude ascending, permuting every variable's cell rows accordingly.
// Datasets without a grid are left untouched.
func (d *Dataset) SortCoords() {
	if d.Axis.Empty() {
		return
	}

	latOrder := sortOrder(d.Axis.Lat, func(i, j int) bool { return d.Axis.Lat[i] > d.Axis.Lat[j] })
	lonOrder := sortOrder(d.Axis.Lon, func(i, j int) bool { return d.Axis.Lon[i] < d.Axis.Lon[j] })
	if latOrder == nil && lonOrder == nil {
		return
	}
	if latOrder == nil {
		latOrder = identity(len(d.Axis.Lat))
	}
	if lonOrder == nil {
		lonOrder = identity(len(d.Axis.Lon))
	}

	nLon := len(d.Axis.Lon)
	for v := range d.Vars {
		for r, row := range d.Vars[v].Data {
			if len(row) != d.Axis.Cells() {
				continue
			}
			sorted := make([]float64, len(row))
			for li, lat := range latOrder {
				for lo, lon := range lonOrder {
					sorted[li*nLon+lo] = row[lat*nLon+lon]
				}
			}
			d.Vars[v].Data[r] = sorted
		}
	}

	d.Axis.Lat = applyOrder(d.Axis.Lat, latOrder)
	d.Axis.Lon = applyOrder(d.Axis.Lon, lonOrder)
}

// sortOrder returns the permutation that sorts vals by less, or nil when
// the values are already in order.
func sortOrder(vals []float64, less func(i, j int) bool) []int {
	order := identity(len(vals))
	sort.SliceStable(order, func(a, b int) bool { return less(order[a], order[b]) })
	for i, idx := range order {
		if i != idx {
			return order
		}
	}
	return nil
}

func identity(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

func applyOrder(vals []float64, order []int) []float64 {
	out := make([]float64, len(vals))
	for i, idx := range order {
		out[i] = vals[idx]
	}
	return out
}
