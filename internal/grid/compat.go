package grid

import "math"

// DefaultTolerance is the maximum absolute difference under which two
// coordinate values count as equal.
const DefaultTolerance = 1e-6

// Checker compares dataset grids against a run-wide reference grid.
// The reference is established by the first checked dataset that carries
// a grid; every later grid is compared elementwise against it.
//
// Checker is run-scoped mutable state and not safe for concurrent use.
type Checker struct {
	tolerance float64
	ref       Axis
	haveRef   bool
}

// NewChecker creates a grid compatibility checker. A tolerance of zero
// selects DefaultTolerance.
func NewChecker(tolerance float64) *Checker {
	if tolerance == 0 {
		tolerance = DefaultTolerance
	}
	return &Checker{tolerance: tolerance}
}

// Check compares the axis against the reference grid. A dataset without
// spatial coordinates is always incompatible. The first axis seen with
// coordinates becomes the reference and is compatible by definition.
func (c *Checker) Check(a Axis) bool {
	if a.Empty() {
		return false
	}
	if !c.haveRef {
		c.ref = a
		c.haveRef = true
		return true
	}
	return c.equal(a.Lat, c.ref.Lat) && c.equal(a.Lon, c.ref.Lon)
}

// Reference returns the established reference axis, if any.
func (c *Checker) Reference() (Axis, bool) {
	return c.ref, c.haveRef
}

func (c *Checker) equal(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > c.tolerance {
			return false
		}
	}
	return true
}
