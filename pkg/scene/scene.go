// Package scene is the in-process geometry document that the slicing
// pipeline edits. It owns named solids, performs cuts and separation
// through a kernel.Kernel, and implements slicer.Geometry.
package scene

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/chazu/slabanim/pkg/kernel"
	"github.com/chazu/slabanim/pkg/slicer"
	"github.com/google/uuid"
)

// Compile-time interface check.
var _ slicer.Geometry = (*Scene)(nil)

// ErrUnknown reports a handle or name that is not in the scene.
var ErrUnknown = errors.New("unknown object")

// Kind tells what produced an object.
type Kind int

const (
	KindSolid    Kind = iota // added by the user or a script
	KindFragment             // produced by Separate
	KindUnit                 // produced by Merge
)

func (k Kind) String() string {
	switch k {
	case KindSolid:
		return "solid"
	case KindFragment:
		return "fragment"
	case KindUnit:
		return "unit"
	default:
		return "unknown"
	}
}

// Object is one named solid in the scene.
type Object struct {
	ID     slicer.Handle
	Name   string
	Kind   Kind
	Solid  kernel.Solid
	Sealed bool

	cuts []float64 // pending cut heights, consumed by Separate
}

// Scene holds every object by handle, in insertion order, with a name
// index. It is not safe for concurrent use.
type Scene struct {
	kernel  kernel.Kernel
	objects map[slicer.Handle]*Object
	order   []slicer.Handle
	names   map[string]slicer.Handle
	counter int
}

// New creates an empty scene backed by k.
func New(k kernel.Kernel) *Scene {
	return &Scene{
		kernel:  k,
		objects: make(map[slicer.Handle]*Object),
		names:   make(map[string]slicer.Handle),
	}
}

// Kernel returns the geometry kernel the scene edits with.
func (s *Scene) Kernel() kernel.Kernel {
	return s.kernel
}

// Add inserts a solid under name. An empty name is replaced by a
// generated one.
func (s *Scene) Add(name string, solid kernel.Solid) (slicer.Handle, error) {
	return s.add(name, KindSolid, solid)
}

func (s *Scene) add(name string, kind Kind, solid kernel.Solid) (slicer.Handle, error) {
	if solid == nil {
		return "", fmt.Errorf("scene: add %q: nil solid", name)
	}
	if name == "" {
		name = s.freshName(kind.String())
	}
	if _, taken := s.names[name]; taken {
		return "", fmt.Errorf("scene: add: name %q already in use", name)
	}
	id := slicer.Handle(uuid.NewString())
	s.objects[id] = &Object{ID: id, Name: name, Kind: kind, Solid: solid}
	s.order = append(s.order, id)
	s.names[name] = id
	return id, nil
}

// freshName returns base<n> for the first unused n.
func (s *Scene) freshName(base string) string {
	for {
		name := fmt.Sprintf("%s%d", base, s.counter)
		s.counter++
		if _, taken := s.names[name]; !taken {
			return name
		}
	}
}

// Get returns the object with the given handle, or nil.
func (s *Scene) Get(h slicer.Handle) *Object {
	return s.objects[h]
}

// Lookup returns the handle of the object with the given name.
func (s *Scene) Lookup(name string) (slicer.Handle, bool) {
	h, ok := s.names[name]
	return h, ok
}

// MustLookup returns the handle with the given name, or panics.
func (s *Scene) MustLookup(name string) slicer.Handle {
	h, ok := s.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("scene: no object named %q", name))
	}
	return h
}

// Objects returns all objects in insertion order.
func (s *Scene) Objects() []*Object {
	out := make([]*Object, 0, len(s.order))
	for _, h := range s.order {
		out = append(out, s.objects[h])
	}
	return out
}

// Handles returns every handle in insertion order.
func (s *Scene) Handles() []slicer.Handle {
	return append([]slicer.Handle(nil), s.order...)
}

// Len returns the number of objects.
func (s *Scene) Len() int {
	return len(s.order)
}

// Remove deletes an object. Removing an unknown handle is a no-op.
func (s *Scene) Remove(h slicer.Handle) {
	o, ok := s.objects[h]
	if !ok {
		return
	}
	delete(s.objects, h)
	delete(s.names, o.Name)
	for i, id := range s.order {
		if id == h {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Scene) get(h slicer.Handle) (*Object, error) {
	o, ok := s.objects[h]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknown, h)
	}
	return o, nil
}

// Name returns the current name of h, or "".
func (s *Scene) Name(h slicer.Handle) string {
	if o, ok := s.objects[h]; ok {
		return o.Name
	}
	return ""
}

// Rename gives h a new name. Names are unique within the scene.
func (s *Scene) Rename(h slicer.Handle, name string) error {
	o, err := s.get(h)
	if err != nil {
		return fmt.Errorf("scene: rename: %w", err)
	}
	if name == "" {
		return fmt.Errorf("scene: rename %s: empty name", o.Name)
	}
	if other, taken := s.names[name]; taken && other != h {
		return fmt.Errorf("scene: rename %s: name %q already in use", o.Name, name)
	}
	delete(s.names, o.Name)
	o.Name = name
	s.names[name] = h
	return nil
}

// Extent returns the object's bounding span along Y.
func (s *Scene) Extent(h slicer.Handle) (slicer.Extent, error) {
	o, err := s.get(h)
	if err != nil {
		return slicer.Extent{}, fmt.Errorf("scene: extent: %w", err)
	}
	min, max := o.Solid.BoundingBox()
	return slicer.NewExtent(min[kernel.AxisY], max[kernel.AxisY])
}

// Center returns the centre of the object's bounding box.
func (s *Scene) Center(h slicer.Handle) (slicer.Vec3, error) {
	o, err := s.get(h)
	if err != nil {
		return slicer.Vec3{}, fmt.Errorf("scene: center: %w", err)
	}
	min, max := o.Solid.BoundingBox()
	return slicer.Vec3{
		X: (min[0] + max[0]) / 2,
		Y: (min[1] + max[1]) / 2,
		Z: (min[2] + max[2]) / 2,
	}, nil
}

// Cut records a horizontal cut through center. Only planes whose normal
// is parallel to Y are supported.
func (s *Scene) Cut(h slicer.Handle, center, normal slicer.Vec3) error {
	o, err := s.get(h)
	if err != nil {
		return fmt.Errorf("scene: cut: %w", err)
	}
	if o.Kind != KindSolid {
		return fmt.Errorf("scene: cut %s: cannot cut a %s", o.Name, o.Kind)
	}
	if normal.X != 0 || normal.Z != 0 || normal.Y == 0 {
		return fmt.Errorf("scene: cut %s: %w: plane normal (%g, %g, %g) is not along Y",
			o.Name, slicer.ErrInvalidInput, normal.X, normal.Y, normal.Z)
	}
	o.cuts = append(o.cuts, center.Y)
	return nil
}

// Separate applies the pending cuts and splits h into fragments: one per
// disconnected shell of each band between consecutive cuts. A band with
// no material still yields one empty fragment, which FragmentExtent
// reports as invalid. The original object is removed from the scene.
func (s *Scene) Separate(h slicer.Handle) (slicer.FragmentIter, error) {
	o, err := s.get(h)
	if err != nil {
		return nil, fmt.Errorf("scene: separate: %w", err)
	}
	if o.Kind != KindSolid {
		return nil, fmt.Errorf("scene: separate %s: cannot separate a %s", o.Name, o.Kind)
	}

	min, max := o.Solid.BoundingBox()
	heights := bandEdges(min[kernel.AxisY], max[kernel.AxisY], o.cuts)

	var frags []slicer.Handle
	for i := 1; i < len(heights); i++ {
		band := s.kernel.Slab(o.Solid, kernel.AxisY, heights[i-1], heights[i])
		shells := s.kernel.Components(band)
		if len(shells) == 0 {
			shells = []kernel.Solid{band}
		}
		for _, shell := range shells {
			fh, err := s.add(s.freshName(o.Name+"_shell"), KindFragment, shell)
			if err != nil {
				return nil, fmt.Errorf("scene: separate %s: %w", o.Name, err)
			}
			frags = append(frags, fh)
		}
	}

	s.Remove(h)
	return slicer.Fragments(frags...), nil
}

// bandEdges returns the sorted, de-duplicated cut heights strictly inside
// (lo, hi), bracketed by lo and hi.
func bandEdges(lo, hi float64, cuts []float64) []float64 {
	edges := []float64{lo}
	sorted := append([]float64(nil), cuts...)
	sort.Float64s(sorted)
	for _, c := range sorted {
		if c <= lo || c >= hi || math.IsNaN(c) {
			continue
		}
		if c == edges[len(edges)-1] {
			continue
		}
		edges = append(edges, c)
	}
	return append(edges, hi)
}

// SealBoundary marks a fragment sealed. Kernel slabs are capped when
// they are cut, so any known fragment seals successfully.
func (s *Scene) SealBoundary(h slicer.Handle) error {
	o, err := s.get(h)
	if err != nil {
		return fmt.Errorf("scene: seal: %w", err)
	}
	if o.Kind != KindFragment {
		return fmt.Errorf("scene: seal %s: not a fragment (%s)", o.Name, o.Kind)
	}
	o.Sealed = true
	return nil
}

// FragmentExtent returns the occupied Y span of a fragment; ok is false
// for an empty fragment.
func (s *Scene) FragmentExtent(h slicer.Handle) (slicer.Extent, bool, error) {
	o, err := s.get(h)
	if err != nil {
		return slicer.Extent{}, false, fmt.Errorf("scene: fragment extent: %w", err)
	}
	lo, hi, ok := s.kernel.Extent(o.Solid, kernel.AxisY)
	if !ok {
		return slicer.Extent{}, false, nil
	}
	return slicer.Extent{Min: lo, Max: hi}, true, nil
}

// Merge unions the given objects into a new unit and removes them.
func (s *Scene) Merge(hs ...slicer.Handle) (slicer.Handle, error) {
	if len(hs) == 0 {
		return "", fmt.Errorf("scene: merge: %w: nothing to merge", slicer.ErrInvalidInput)
	}
	var merged kernel.Solid
	for _, h := range hs {
		o, err := s.get(h)
		if err != nil {
			return "", fmt.Errorf("scene: merge: %w", err)
		}
		if merged == nil {
			merged = o.Solid
			continue
		}
		merged = s.kernel.Union(merged, o.Solid)
	}

	id, err := s.add("", KindUnit, merged)
	if err != nil {
		return "", fmt.Errorf("scene: merge: %w", err)
	}
	for _, h := range hs {
		s.Remove(h)
	}
	return id, nil
}

// Mesh tessellates one object, naming the mesh after it.
func (s *Scene) Mesh(h slicer.Handle) (*kernel.Mesh, error) {
	o, err := s.get(h)
	if err != nil {
		return nil, fmt.Errorf("scene: mesh: %w", err)
	}
	m, err := s.kernel.ToMesh(o.Solid)
	if err != nil {
		return nil, fmt.Errorf("scene: mesh %s: %w", o.Name, err)
	}
	m.Name = o.Name
	return m, nil
}
