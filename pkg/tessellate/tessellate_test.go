package tessellate_test

import (
	"testing"

	"github.com/chazu/slabanim/pkg/anim"
	"github.com/chazu/slabanim/pkg/kernel"
	"github.com/chazu/slabanim/pkg/kernel/sdfx"
	"github.com/chazu/slabanim/pkg/scene"
	"github.com/chazu/slabanim/pkg/slicer"
	"github.com/chazu/slabanim/pkg/tessellate"
)

// newScene returns a scene over a coarse sdfx kernel.
func newScene() *scene.Scene {
	return scene.New(sdfx.NewWithOptions(sdfx.Options{MeshCells: 24, SampleCells: 16}))
}

func TestSingleBox(t *testing.T) {
	s := newScene()
	if _, err := s.Add("shelf", s.Kernel().Box(6, 3, 1)); err != nil {
		t.Fatal(err)
	}

	meshes, err := tessellate.Tessellate(s)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}

	m := meshes[0]
	if m.IsEmpty() {
		t.Fatal("mesh should not be empty")
	}
	if m.Name != "shelf" {
		t.Errorf("expected Name %q, got %q", "shelf", m.Name)
	}
	if m.TriangleCount() == 0 {
		t.Error("mesh should have triangles")
	}
}

func TestTwoObjectsInOrder(t *testing.T) {
	s := newScene()
	k := s.Kernel()
	if _, err := s.Add("side", k.Box(4, 3, 1)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add("top", k.Translate(k.Box(6, 1, 3), 0, 3, 0)); err != nil {
		t.Fatal(err)
	}

	meshes, err := tessellate.Tessellate(s)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(meshes))
	}
	if meshes[0].Name != "side" || meshes[1].Name != "top" {
		t.Errorf("names = %q, %q", meshes[0].Name, meshes[1].Name)
	}
}

func TestEmptyScene(t *testing.T) {
	meshes, err := tessellate.Tessellate(newScene())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 0 {
		t.Errorf("expected no meshes, got %d", len(meshes))
	}
}

// slicedTower runs the pipeline on a 4x8x4 tower cut into four slabs.
func slicedTower(t *testing.T) (*scene.Scene, *anim.Curves, *slicer.Result) {
	t.Helper()
	s := newScene()
	h, err := s.Add("tower", s.Kernel().Box(4, 8, 4))
	if err != nil {
		t.Fatal(err)
	}
	curves := anim.NewCurves()
	p := slicer.DefaultParams()
	p.Duration = 8
	res, err := slicer.Run(s, curves, []slicer.Handle{h}, p)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return s, curves, res
}

func TestUnits(t *testing.T) {
	s, _, res := slicedTower(t)

	parts, err := tessellate.Units(s, res)
	if err != nil {
		t.Fatalf("Units failed: %v", err)
	}
	if len(parts) != 4 {
		t.Fatalf("expected 4 parts, got %d", len(parts))
	}
	for i, p := range parts {
		if p.Slab != i {
			t.Errorf("part %d: slab %d", i, p.Slab)
		}
		if p.Start != 2*i || p.End != 2*(i+1) {
			t.Errorf("part %d: window [%d, %d]", i, p.Start, p.End)
		}
		if want := slicer.CollectionName("", i); p.Mesh.Name != want {
			t.Errorf("part %d: name %q, want %q", i, p.Mesh.Name, want)
		}
		lo, hi, ok := p.Mesh.Span(kernel.AxisY)
		if !ok {
			t.Fatalf("part %d: empty mesh", i)
		}
		if float64(lo) < float64(2*i)-0.5 || float64(hi) > float64(2*(i+1))+0.5 {
			t.Errorf("part %d: y span [%g, %g] outside its slab", i, lo, hi)
		}
	}

	if parts, _ := tessellate.Units(s, nil); parts != nil {
		t.Error("nil result should give no parts")
	}
}

func TestPoseMovesActiveSlabs(t *testing.T) {
	s, curves, res := slicedTower(t)
	parts, err := tessellate.Units(s, res)
	if err != nil {
		t.Fatal(err)
	}

	// At frame 3 slab 0 has finished (x+2), slab 1 is half way (x+1), the
	// rest have not started.
	posed := tessellate.Pose(parts, curves, "translateX", 3)
	want := []float32{2, 1, 0, 0}
	for i, m := range posed {
		lo0, _, _ := parts[i].Mesh.Span(kernel.AxisX)
		lo, _, _ := m.Span(kernel.AxisX)
		if d := lo - lo0; d < want[i]-1e-4 || d > want[i]+1e-4 {
			t.Errorf("slab %d moved %g, want %g", i, d, want[i])
		}
	}

	// Source meshes are untouched.
	lo, _, _ := parts[0].Mesh.Span(kernel.AxisX)
	if lo > 0.5 {
		t.Errorf("Pose mutated the input mesh: x min %g", lo)
	}

	rotated := tessellate.Pose(parts, curves, "rotateY", 3)
	if &rotated[0].Vertices[0] != &parts[0].Mesh.Vertices[0] {
		t.Error("non-translate attribute should not copy vertices")
	}
}
