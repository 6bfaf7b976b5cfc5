// Package kernel defines the abstract geometry kernel interface.
// Implementations provide solid modeling, boolean operations and the
// slab queries the slicing pipeline relies on. The kernel abstraction
// allows swapping backends without changing the rest of the system.
package kernel

import "fmt"

// Axis selects one of the three coordinate axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// Valid reports whether a is X, Y or Z.
func (a Axis) Valid() bool {
	return a >= AxisX && a <= AxisZ
}

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Slab returns the part of s between lo and hi along axis. The result
	// is closed: every face opened by the cut is capped.
	Slab(s Solid, axis Axis, lo, hi float64) Solid

	// Extent returns the occupied span of s along axis. ok is false when
	// s contains no material.
	Extent(s Solid, axis Axis) (lo, hi float64, ok bool)

	// Components splits s into its disconnected shells.
	Components(s Solid) []Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
