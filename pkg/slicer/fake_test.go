package slicer

import (
	"errors"
	"fmt"
)

// fakeFragment is one fragment the fake collaborator will hand out.
type fakeFragment struct {
	ext     Extent
	invalid bool
	sealErr error
}

// fakeGeometry is an in-memory Geometry whose fragments are scripted.
type fakeGeometry struct {
	extent Extent
	center Vec3

	names  map[Handle]string
	byName map[string]Handle
	frags  map[Handle]fakeFragment
	order  []Handle

	cuts   []Vec3
	merges [][]Handle
	sealed []Handle
	// renamed records every name each handle has been given, in order.
	renamed map[Handle][]string
}

func newFakeGeometry(ext Extent, frags ...fakeFragment) *fakeGeometry {
	g := &fakeGeometry{
		extent: ext,
		center: Vec3{X: 1, Y: (ext.Min + ext.Max) / 2, Z: -1},
		names:  map[Handle]string{"obj": "obj"},
		byName: map[string]Handle{"obj": "obj"},
		frags:  make(map[Handle]fakeFragment),

		renamed: make(map[Handle][]string),
	}
	for i, f := range frags {
		h := Handle(fmt.Sprintf("f%d", i))
		g.frags[h] = f
		g.order = append(g.order, h)
	}
	return g
}

func (g *fakeGeometry) Name(h Handle) string { return g.names[h] }

func (g *fakeGeometry) Extent(h Handle) (Extent, error) {
	if _, ok := g.names[h]; !ok {
		return Extent{}, fmt.Errorf("unknown object %s", h)
	}
	return g.extent, nil
}

func (g *fakeGeometry) Center(h Handle) (Vec3, error) { return g.center, nil }

func (g *fakeGeometry) Cut(h Handle, center, normal Vec3) error {
	if normal != (Vec3{Y: 1}) {
		return ErrInvalidInput
	}
	g.cuts = append(g.cuts, center)
	return nil
}

func (g *fakeGeometry) Separate(h Handle) (FragmentIter, error) {
	return Fragments(g.order...), nil
}

func (g *fakeGeometry) SealBoundary(h Handle) error {
	if err := g.frags[h].sealErr; err != nil {
		return err
	}
	g.sealed = append(g.sealed, h)
	return nil
}

func (g *fakeGeometry) FragmentExtent(h Handle) (Extent, bool, error) {
	f, ok := g.frags[h]
	if !ok {
		return Extent{}, false, errors.New("unknown fragment")
	}
	return f.ext, !f.invalid, nil
}

func (g *fakeGeometry) Merge(hs ...Handle) (Handle, error) {
	h := Handle(fmt.Sprintf("m%d", len(g.merges)))
	g.merges = append(g.merges, hs)
	g.frags[h] = fakeFragment{}
	return h, nil
}

func (g *fakeGeometry) Rename(h Handle, name string) error {
	if other, ok := g.byName[name]; ok && other != h {
		return fmt.Errorf("name %q taken", name)
	}
	if old, ok := g.names[h]; ok {
		delete(g.byName, old)
	}
	g.names[h] = name
	g.byName[name] = h
	g.renamed[h] = append(g.renamed[h], name)
	return nil
}

func (g *fakeGeometry) Lookup(name string) (Handle, bool) {
	h, ok := g.byName[name]
	return h, ok
}

// recordingAnimator records every call in order.
type recordingAnimator struct {
	calls []string
	fail  error
}

func (a *recordingAnimator) SetKeyframe(target Handle, attr string, time int, value float64) error {
	a.calls = append(a.calls, fmt.Sprintf("key %s.%s t=%d v=%g", target, attr, time, value))
	return a.fail
}

func (a *recordingAnimator) RemoveKeys(target Handle, attr string, from, to int) error {
	a.calls = append(a.calls, fmt.Sprintf("cut %s.%s [%d,%d]", target, attr, from, to))
	return a.fail
}

func (a *recordingAnimator) SetTangents(target Handle, attr string, from, to int, kind TangentKind) error {
	a.calls = append(a.calls, fmt.Sprintf("tangent %s.%s [%d,%d] %s", target, attr, from, to, kind))
	return a.fail
}
