// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
//
// Cutting a signed distance field never leaves an open boundary: a slab
// is the intersection of the solid with a box, so every fragment is
// closed by construction. Occupancy queries (Extent, Components) sample
// the field on a uniform grid over the solid's bounding box.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/slabanim/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

const (
	// defaultMeshCells controls marching cubes tessellation resolution.
	defaultMeshCells = 200
	// defaultSampleCells is the occupancy grid resolution per axis.
	defaultSampleCells = 32
)

// Options tunes the resolution of meshing and occupancy sampling.
type Options struct {
	MeshCells   int
	SampleCells int
}

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid. A nil s is the
// empty solid. bb, when set, replaces the field's own bounding box with
// a tighter one known from how the solid was built.
type sdfxSolid struct {
	s  sdf.SDF3
	bb *sdf.Box3
}

func (s *sdfxSolid) box() sdf.Box3 {
	if s.bb != nil {
		return *s.bb
	}
	if s.s == nil {
		return sdf.Box3{}
	}
	return s.s.BoundingBox()
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.box()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	opts Options
}

// New returns a new SdfxKernel with default resolutions.
func New() *SdfxKernel {
	return NewWithOptions(Options{})
}

// NewWithOptions returns a kernel using opts; zero fields take defaults.
func NewWithOptions(opts Options) *SdfxKernel {
	if opts.MeshCells <= 0 {
		opts.MeshCells = defaultMeshCells
	}
	if opts.SampleCells <= 0 {
		opts.SampleCells = defaultSampleCells
	}
	return &SdfxKernel{opts: opts}
}

// unwrap extracts the underlying solid from a kernel.Solid.
func unwrap(s kernel.Solid) *sdfxSolid {
	return s.(*sdfxSolid)
}

// wrap creates a kernel.Solid from an sdf.SDF3.
func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// Box creates a box with the given dimensions. The resulting solid has its
// minimum corner at the origin (0,0,0).
// sdf.Box3D centers the box at the origin, so we translate by half-dimensions.
func (k *SdfxKernel) Box(x, y, z float64) kernel.Solid {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	// Shift from center-origin to min-corner-origin.
	m := sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})
	return wrap(sdf.Transform3D(s, m))
}

// Cylinder creates a cylinder with the given height and radius.
// The segments parameter is ignored since SDF represents smooth surfaces.
func (k *SdfxKernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Cylinder3D: %v", err))
	}
	return wrap(s)
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	sa, sb := unwrap(a), unwrap(b)
	switch {
	case sa.s == nil:
		return sb
	case sb.s == nil:
		return sa
	}
	u := &sdfxSolid{s: sdf.Union3D(sa.s, sb.s)}
	if sa.bb != nil || sb.bb != nil {
		bb := sa.box().Extend(sb.box())
		u.bb = &bb
	}
	return u
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	sa, sb := unwrap(a), unwrap(b)
	if sa.s == nil || sb.s == nil {
		return sa
	}
	return &sdfxSolid{s: sdf.Difference3D(sa.s, sb.s), bb: sa.bb}
}

// Intersection returns the intersection of two solids.
func (k *SdfxKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	sa, sb := unwrap(a), unwrap(b)
	if sa.s == nil || sb.s == nil {
		return &sdfxSolid{}
	}
	// The result can be no larger than the overlap of the two boxes.
	ba, bbx := sa.box(), sb.box()
	bb := sdf.Box3{
		Min: v3.Vec{X: math.Max(ba.Min.X, bbx.Min.X), Y: math.Max(ba.Min.Y, bbx.Min.Y), Z: math.Max(ba.Min.Z, bbx.Min.Z)},
		Max: v3.Vec{X: math.Min(ba.Max.X, bbx.Max.X), Y: math.Min(ba.Max.Y, bbx.Max.Y), Z: math.Min(ba.Max.Z, bbx.Max.Z)},
	}
	if bb.Min.X > bb.Max.X || bb.Min.Y > bb.Max.Y || bb.Min.Z > bb.Max.Z {
		return &sdfxSolid{}
	}
	return &sdfxSolid{s: sdf.Intersect3D(sa.s, sb.s), bb: &bb}
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	ss := unwrap(s)
	if ss.s == nil {
		return ss
	}
	d := v3.Vec{X: x, Y: y, Z: z}
	out := &sdfxSolid{s: sdf.Transform3D(ss.s, sdf.Translate3d(d))}
	if ss.bb != nil {
		bb := sdf.Box3{Min: ss.bb.Min.Add(d), Max: ss.bb.Max.Add(d)}
		out.bb = &bb
	}
	return out
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *SdfxKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	ss := unwrap(s)
	if ss.s == nil {
		return ss
	}
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0

	m := sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
	return wrap(sdf.Transform3D(ss.s, m))
}

// Slab intersects s with the band lo <= axis <= hi. The cutting box is
// padded on the other two axes so it never trims the solid sideways.
func (k *SdfxKernel) Slab(s kernel.Solid, axis kernel.Axis, lo, hi float64) kernel.Solid {
	ss := unwrap(s)
	bb := ss.box()
	lo = math.Max(lo, component(bb.Min, axis))
	hi = math.Min(hi, component(bb.Max, axis))
	if ss.s == nil || hi <= lo {
		return &sdfxSolid{}
	}

	size := bb.Max.Sub(bb.Min)
	pad := math.Max(size.X, math.Max(size.Y, size.Z))*0.1 + 1
	size = v3.Vec{X: size.X + 2*pad, Y: size.Y + 2*pad, Z: size.Z + 2*pad}
	size = withComponent(size, axis, hi-lo)

	center := bb.Min.Add(bb.Max).MulScalar(0.5)
	center = withComponent(center, axis, (lo+hi)/2)

	cutter, err := sdf.Box3D(size, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	cutter = sdf.Transform3D(cutter, sdf.Translate3d(center))

	clipped := bb
	clipped.Min = withComponent(clipped.Min, axis, lo)
	clipped.Max = withComponent(clipped.Max, axis, hi)
	return &sdfxSolid{s: sdf.Intersect3D(ss.s, cutter), bb: &clipped}
}

// Extent returns the span along axis of the sampling cells whose centre
// lies inside s, clamped to the bounding box.
func (k *SdfxKernel) Extent(s kernel.Solid, axis kernel.Axis) (lo, hi float64, ok bool) {
	ss := unwrap(s)
	if ss.s == nil {
		return 0, 0, false
	}
	g := k.sample(ss)
	first, last := -1, -1
	g.each(func(i, j, l int, inside bool) {
		if !inside {
			return
		}
		idx := [3]int{i, j, l}[axis]
		if first < 0 || idx < first {
			first = idx
		}
		if idx > last {
			last = idx
		}
	})
	if first < 0 {
		return 0, 0, false
	}
	min, max := g.cellBounds(axis, first, last)
	return min, max, true
}

// Components labels the 6-connected occupied cells and returns one solid
// per connected group, each clipped to the group's cell bounds.
func (k *SdfxKernel) Components(s kernel.Solid) []kernel.Solid {
	ss := unwrap(s)
	if ss.s == nil {
		return nil
	}
	g := k.sample(ss)
	groups := g.label()
	switch len(groups) {
	case 0:
		return nil
	case 1:
		return []kernel.Solid{ss}
	}

	parent := ss.box()
	out := make([]kernel.Solid, 0, len(groups))
	for _, r := range groups {
		bb := sdf.Box3{}
		for a := kernel.AxisX; a <= kernel.AxisZ; a++ {
			lo, hi := g.cellBounds(a, r.min[a], r.max[a])
			half := g.step[a] / 2
			lo = math.Max(lo-half, component(parent.Min, a))
			hi = math.Min(hi+half, component(parent.Max, a))
			bb.Min = withComponent(bb.Min, a, lo)
			bb.Max = withComponent(bb.Max, a, hi)
		}
		cutter, err := sdf.Box3D(bb.Max.Sub(bb.Min), 0)
		if err != nil {
			panic(fmt.Sprintf("sdfx.Box3D: %v", err))
		}
		cutter = sdf.Transform3D(cutter, sdf.Translate3d(bb.Min.Add(bb.Max).MulScalar(0.5)))
		clipped := bb
		out = append(out, &sdfxSolid{s: sdf.Intersect3D(ss.s, cutter), bb: &clipped})
	}
	return out
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	ss := unwrap(s)
	if ss.s == nil {
		return &kernel.Mesh{}, nil
	}
	var sdf3 sdf.SDF3 = ss.s
	if ss.bb != nil {
		sdf3 = &boxed{SDF3: ss.s, bb: *ss.bb}
	}

	renderer := render.NewMarchingCubesUniform(k.opts.MeshCells)
	triangles := render.ToTriangles(sdf3, renderer)

	numTri := len(triangles)
	numVerts := numTri * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		// Compute face normal.
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}

// boxed overrides the bounding box of an SDF3 so marching cubes spends
// its cells on the region that actually holds material.
type boxed struct {
	sdf.SDF3
	bb sdf.Box3
}

func (b *boxed) BoundingBox() sdf.Box3 {
	return b.bb
}

func component(v v3.Vec, a kernel.Axis) float64 {
	switch a {
	case kernel.AxisX:
		return v.X
	case kernel.AxisY:
		return v.Y
	default:
		return v.Z
	}
}

func withComponent(v v3.Vec, a kernel.Axis, f float64) v3.Vec {
	switch a {
	case kernel.AxisX:
		v.X = f
	case kernel.AxisY:
		v.Y = f
	default:
		v.Z = f
	}
	return v
}
