// Package tessellate turns scene objects into triangle meshes for the
// frontend. One mesh is produced per object, or per slab unit after a
// slicing run.
package tessellate

import (
	"fmt"
	"strings"

	"github.com/chazu/slabanim/pkg/kernel"
	"github.com/chazu/slabanim/pkg/slicer"
)

// Mesher produces the mesh of one scene object.
type Mesher interface {
	Mesh(h slicer.Handle) (*kernel.Mesh, error)
}

// Lister enumerates the objects of a scene in a stable order.
type Lister interface {
	Mesher
	Handles() []slicer.Handle
}

// Part is the mesh of one slab unit together with its animation window.
type Part struct {
	Target slicer.Handle `json:"target"`
	Mesh   *kernel.Mesh  `json:"mesh"`
	Object int           `json:"object"`
	Slab   int           `json:"slab"`
	Start  int           `json:"start"`
	End    int           `json:"end"`
}

// Tessellate produces one mesh per object in the scene, skipping objects
// that hold no material. The tessellator is read-only and never mutates
// the scene.
func Tessellate(s Lister) ([]*kernel.Mesh, error) {
	if s == nil {
		return nil, nil
	}
	var meshes []*kernel.Mesh
	for _, h := range s.Handles() {
		m, err := s.Mesh(h)
		if err != nil {
			return nil, fmt.Errorf("tessellate: %w", err)
		}
		if m.IsEmpty() {
			continue
		}
		meshes = append(meshes, m)
	}
	return meshes, nil
}

// Units meshes every non-empty unit of a slicing result, in schedule
// order, attaching each unit's window.
func Units(s Mesher, r *slicer.Result) ([]Part, error) {
	if r == nil {
		return nil, nil
	}
	parts := make([]Part, 0, len(r.Schedule))
	for _, e := range r.Schedule {
		if e.Skipped() {
			continue
		}
		m, err := s.Mesh(e.Target)
		if err != nil {
			return nil, fmt.Errorf("tessellate: object %d slab %d: %w", e.Object, e.Slab, err)
		}
		parts = append(parts, Part{Target: e.Target, Mesh: m, Object: e.Object, Slab: e.Slab, Start: e.Start, End: e.End})
	}
	return parts, nil
}

// Evaluator samples an animated value.
type Evaluator interface {
	Evaluate(target slicer.Handle, attr string, t float64) (float64, bool)
}

// translateAxis maps translateX/Y/Z to an axis.
func translateAxis(attr string) (kernel.Axis, bool) {
	switch strings.ToLower(attr) {
	case "translatex":
		return kernel.AxisX, true
	case "translatey":
		return kernel.AxisY, true
	case "translatez":
		return kernel.AxisZ, true
	}
	return 0, false
}

// Pose returns copies of the parts' meshes displaced by their keyed
// translation at frame t. Only translate attributes move geometry; any
// other attribute leaves the meshes in place.
func Pose(parts []Part, ev Evaluator, attr string, t float64) []*kernel.Mesh {
	axis, moves := translateAxis(attr)
	out := make([]*kernel.Mesh, 0, len(parts))
	for _, p := range parts {
		m := *p.Mesh
		if moves {
			if v, ok := ev.Evaluate(p.Target, attr, t); ok && v != 0 {
				m.Vertices = append([]float32(nil), p.Mesh.Vertices...)
				for i := int(axis); i < len(m.Vertices); i += 3 {
					m.Vertices[i] += float32(v)
				}
			}
		}
		out = append(out, &m)
	}
	return out
}
