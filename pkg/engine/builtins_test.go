package engine

import (
	"strings"
	"testing"

	"github.com/chazu/slabanim/pkg/kernel"
	"github.com/chazu/slabanim/pkg/slicer"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(cuboid :width 4)`,
			expect: `(cuboid "__kw_width" 4)`,
		},
		{
			name:   "multiple keywords",
			input:  `(cylinder :height 10 :radius 2)`,
			expect: `(cylinder "__kw_height" 10 "__kw_radius" 2)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(slab-anim :slices 4)`,
			expect: `(slab_anim "__kw_slices" 4)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "keyword value",
			input:  `:timing :per-object`,
			expect: `"__kw_timing" "__kw_per-object"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// mustEval evaluates source and fails on any error.
func mustEval(t *testing.T, source string) *Program {
	t.Helper()
	p, evalErrs, err := newTestEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	return p
}

// evalFails evaluates source and returns the first eval error message.
func evalFails(t *testing.T, source string) string {
	t.Helper()
	p, evalErrs, err := newTestEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if p != nil || len(evalErrs) == 0 {
		t.Fatalf("expected eval error for %q", source)
	}
	return evalErrs[0].Message
}

func bbox(t *testing.T, p *Program, name string) (min, max [3]float64) {
	t.Helper()
	o, ok := p.Lookup(name)
	if !ok {
		t.Fatalf("no object named %q", name)
	}
	return o.Solid.BoundingBox()
}

func TestCuboid(t *testing.T) {
	p := mustEval(t, `(defobject "tower" (cuboid :width 4 :height 10 :depth 2))`)
	if len(p.Objects) != 1 {
		t.Fatalf("expected 1 object, got %d", len(p.Objects))
	}
	min, max := bbox(t, p, "tower")
	for i, want := range []float64{4, 10, 2} {
		if got := max[i] - min[i]; !near(got, want) {
			t.Errorf("size[%s] = %g, want %g", kernel.Axis(i), got, want)
		}
	}
}

func TestVariableReference(t *testing.T) {
	p := mustEval(t, `
(def h 12)
(defobject "post" (cuboid :height h))
`)
	min, max := bbox(t, p, "post")
	if got := max[1] - min[1]; !near(got, 12) {
		t.Errorf("height = %g, want 12 (from variable)", got)
	}
}

func TestMoveAndFuse(t *testing.T) {
	p := mustEval(t, `
(def leg (cuboid :width 1 :height 6 :depth 1))
(defobject "legs"
  (fuse leg (move leg :by (vec3 7 0 0))))
`)
	min, max := bbox(t, p, "legs")
	if !near(min[0], 0) || !near(max[0], 8) {
		t.Errorf("x span = [%g, %g], want [0, 8]", min[0], max[0])
	}
}

func TestSubtractAndIntersect(t *testing.T) {
	p := mustEval(t, `
(def block (cuboid :width 4 :height 4 :depth 4))
(defobject "hollow" (subtract block (move (cuboid :width 2 :height 2 :depth 2) :by (vec3 1 1 1))))
(defobject "overlap" (intersect block (move block :by (vec3 2 0 0))))
`)
	if len(p.Objects) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(p.Objects))
	}
	min, max := bbox(t, p, "overlap")
	if got := max[0] - min[0]; got > 4+1e-9 {
		t.Errorf("intersection wider than operands: %g", got)
	}
}

func TestSolidLookup(t *testing.T) {
	p := mustEval(t, `
(defobject "base" (cuboid :width 2))
(defobject "copy" (move (solid "base") (vec3 0 5 0)))
`)
	min, _ := bbox(t, p, "copy")
	if !near(min[1], 5) {
		t.Errorf("copy min y = %g, want 5", min[1])
	}
}

func TestSolidLookupError(t *testing.T) {
	msg := evalFails(t, `(solid "nope")`)
	if !strings.Contains(msg, "nope") {
		t.Errorf("error should name the missing object, got %q", msg)
	}
}

func TestDuplicateObject(t *testing.T) {
	msg := evalFails(t, `
(defobject "a" (cuboid))
(defobject "a" (cuboid))
`)
	if !strings.Contains(msg, "already defined") {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestBuiltinArgumentErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"negative size", `(cuboid :width -1)`},
		{"fuse needs two", `(fuse (cuboid))`},
		{"fuse non solid", `(fuse (cuboid) 3)`},
		{"move without offset", `(move (cuboid))`},
		{"vec3 arity", `(vec3 1 2)`},
		{"defobject non solid", `(defobject "x" 4)`},
		{"cylinder fractional segments", `(cylinder :segments 2.5)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evalFails(t, tt.source)
		})
	}
}

func TestSlabAnimDefaults(t *testing.T) {
	p := mustEval(t, `(slab-anim)`)
	if p.Params == nil {
		t.Fatal("expected params")
	}
	if *p.Params != slicer.DefaultParams() {
		t.Errorf("params = %+v, want defaults", *p.Params)
	}
}

func TestSlabAnimKeywords(t *testing.T) {
	p := mustEval(t, `
(slab-anim :slices 5 :duration 25 :timing :shared :strict true
           :attribute "translateY" :from 1 :to 3.5)
`)
	want := slicer.Params{
		Slices:   5,
		Duration: 25,
		Strict:   true,
		Timing:   slicer.TimingShared,
		Key:      slicer.KeySpec{Attribute: "translateY", From: 1, To: 3.5},
	}
	if *p.Params != want {
		t.Errorf("params = %+v, want %+v", *p.Params, want)
	}
	if len(p.Warnings) != 0 {
		t.Errorf("unexpected warnings %v", p.Warnings)
	}
}

func TestSlabAnimTwiceWarns(t *testing.T) {
	p := mustEval(t, `
(slab-anim :slices 2)
(slab-anim :slices 3)
`)
	if p.Params.Slices != 3 {
		t.Errorf("slices = %d, want last call to win", p.Params.Slices)
	}
	if len(p.Warnings) != 1 {
		t.Errorf("expected one warning, got %v", p.Warnings)
	}
}

func TestSlabAnimRejectsInvalid(t *testing.T) {
	for _, src := range []string{
		`(slab-anim :slices 0)`,
		`(slab-anim :slices 20 :duration 10)`,
		`(slab-anim :timing :sometimes)`,
		`(slab-anim :attribute "")`,
	} {
		evalFails(t, src)
	}
}

func TestEngineDefaults(t *testing.T) {
	eng := newTestEngine()
	d := slicer.DefaultParams()
	d.Duration = 40
	eng.SetDefaults(d)

	p, evalErrs, err := eng.Evaluate(`(slab-anim :slices 8)`)
	if err != nil || len(evalErrs) > 0 {
		t.Fatalf("unexpected errors: %v %v", err, evalErrs)
	}
	if p.Params.Duration != 40 || p.Params.Slices != 8 {
		t.Errorf("params = %+v", *p.Params)
	}
}

func TestArithmeticStillWorks(t *testing.T) {
	p := mustEval(t, "(+ 1 2)")
	if p == nil {
		t.Fatal("expected non-nil program")
	}
}

func near(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
