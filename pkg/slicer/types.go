package slicer

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// Precision is the number of decimal digits cut heights and fragment
// extents are rounded to before they are compared.
const Precision = 2

// Handle is an opaque reference to an object, fragment or unit owned by
// the geometry collaborator.
type Handle string

// Vec3 is a point or direction in scene space.
type Vec3 struct {
	X, Y, Z float64
}

// Extent is the [Min, Max] span of an entity along the slicing axis.
type Extent struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// NewExtent returns the extent [min, max]. It fails with ErrInvalidInput
// when min > max.
func NewExtent(min, max float64) (Extent, error) {
	if min > max {
		return Extent{}, fmt.Errorf("%w: extent min %g > max %g", ErrInvalidInput, min, max)
	}
	return Extent{Min: min, Max: max}, nil
}

// Size returns Max - Min.
func (e Extent) Size() float64 {
	return e.Max - e.Min
}

// Within reports whether e lies inside [lo, hi].
func (e Extent) Within(lo, hi float64) bool {
	return e.Max <= hi && e.Min >= lo
}

// RoundExtent rounds both ends of e to Precision decimal digits, the same
// rounding applied to cut heights.
func RoundExtent(e Extent) Extent {
	return Extent{
		Min: scalar.Round(e.Min, Precision),
		Max: scalar.Round(e.Max, Precision),
	}
}

// Clamp limits e to [lo, hi]. Rounding can push a fragment sitting on an
// off-grid object bottom or top just outside the object's own extent.
func (e Extent) Clamp(lo, hi float64) Extent {
	return Extent{Min: math.Max(e.Min, lo), Max: math.Min(e.Max, hi)}
}

// Unit is the representative of one slab: either the single fragment that
// fell into it, or the merge of all of them.
type Unit struct {
	Slab    int      `json:"slab"`
	Handle  Handle   `json:"handle,omitempty"`
	Name    string   `json:"name,omitempty"`
	Members []Handle `json:"members,omitempty"`
}

// Empty reports whether no fragment was assigned to the slab.
func (u Unit) Empty() bool {
	return len(u.Members) == 0
}

// ScheduleEntry is one unit's animation window. End is exclusive for the
// purpose of adjacency: entry k's End equals entry k+1's Start.
type ScheduleEntry struct {
	Object int    `json:"object"`
	Slab   int    `json:"slab"`
	Target Handle `json:"target,omitempty"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
}

// Skipped reports whether the entry reserves a window for an empty slab.
func (e ScheduleEntry) Skipped() bool {
	return e.Target == ""
}
