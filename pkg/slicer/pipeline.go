package slicer

import (
	"fmt"
	"log"
)

// Params are the user-facing inputs of one slicing run.
type Params struct {
	Slices   int     `json:"slices"`
	Duration int     `json:"duration"`
	Strict   bool    `json:"strict"`
	Key      KeySpec `json:"key"`

	// Timing picks how the interval is derived. Run cuts every object
	// into Slices slabs, so both modes give the same schedule there; they
	// differ only when Schedule is given objects with unequal slab counts.
	Timing TimingMode `json:"timing"`
}

// DefaultParams returns the defaults used when no config or script
// overrides them.
func DefaultParams() Params {
	return Params{
		Slices:   4,
		Duration: 10,
		Timing:   TimingPerObject,
		Key:      DefaultKeySpec(),
	}
}

// Validate checks the parameters before any geometry is touched.
func (p Params) Validate() error {
	if p.Slices < 1 {
		return fmt.Errorf("%w: slice count %d < 1", ErrInvalidInput, p.Slices)
	}
	if _, err := Interval(p.Duration, p.Slices); err != nil {
		return err
	}
	if p.Key.Attribute == "" {
		return fmt.Errorf("%w: empty key attribute", ErrInvalidInput)
	}
	return nil
}

// ObjectResult is the slicing outcome of one input object.
type ObjectResult struct {
	Object     Handle    `json:"object"`
	Name       string    `json:"name"`
	Extent     Extent    `json:"extent"`
	Boundaries []float64 `json:"boundaries"`
	Assembly   *Assembly `json:"assembly,omitempty"`
}

// Units returns the object's per-slab units, or nil if assembly stopped early.
func (r ObjectResult) Units() []Unit {
	if r.Assembly == nil {
		return nil
	}
	return r.Assembly.Units
}

// Result is the outcome of Run.
type Result struct {
	Objects  []ObjectResult  `json:"objects"`
	Schedule []ScheduleEntry `json:"schedule,omitempty"`
}

// Dropped returns the number of empty fragments discarded across all objects.
func (r *Result) Dropped() int {
	n := 0
	for _, o := range r.Objects {
		if o.Assembly != nil {
			n += len(o.Assembly.Dropped)
		}
	}
	return n
}

// Run slices each object into p.Slices slabs, groups the fragments and
// keys the sequential animation on a.
//
// Invalid parameters are rejected before any mutation. A failure while
// slicing an object returns the results gathered so far; the geometry
// edits already made are not rolled back and no keys are written.
func Run(g Geometry, a Animator, objects []Handle, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("slicer: run: %w", err)
	}
	if len(objects) == 0 {
		return nil, fmt.Errorf("slicer: run: %w: no objects", ErrInvalidInput)
	}

	res := &Result{}
	for i, obj := range objects {
		name := g.Name(obj)
		prefix := ""
		if len(objects) > 1 {
			prefix = name + "_"
		}
		or, err := sliceObject(g, obj, p, prefix)
		if or != nil {
			res.Objects = append(res.Objects, *or)
		}
		if err != nil {
			return res, fmt.Errorf("slicer: run: object %d (%s): %w", i, name, err)
		}
		log.Printf("slicer: %s: %d fragments in %d slabs, %d dropped",
			or.Name, or.Assembly.Valid, p.Slices, len(or.Assembly.Dropped))
	}

	units := make([][]Unit, len(res.Objects))
	for i, o := range res.Objects {
		units[i] = o.Units()
	}
	entries, err := Schedule(units, p.Duration, p.Timing)
	if err != nil {
		return res, fmt.Errorf("slicer: run: %w", err)
	}
	if err := Apply(a, entries, p.Key); err != nil {
		return res, fmt.Errorf("slicer: run: %w", err)
	}
	res.Schedule = entries
	return res, nil
}

// sliceObject cuts obj at every interior boundary, separates it and
// assembles the fragments.
func sliceObject(g Geometry, obj Handle, p Params, prefix string) (*ObjectResult, error) {
	or := &ObjectResult{Object: obj, Name: g.Name(obj)}

	ext, err := g.Extent(obj)
	if err != nil {
		return nil, fmt.Errorf("extent: %w", err)
	}
	or.Extent = ext

	b, err := Boundaries(ext, p.Slices)
	if err != nil {
		return nil, err
	}
	or.Boundaries = b

	c, err := g.Center(obj)
	if err != nil {
		return nil, fmt.Errorf("center: %w", err)
	}
	for _, y := range CutHeights(b) {
		if err := g.Cut(obj, Vec3{X: c.X, Y: y, Z: c.Z}, Vec3{Y: 1}); err != nil {
			return or, fmt.Errorf("cut at %g: %w", y, err)
		}
	}

	frags, err := g.Separate(obj)
	if err != nil {
		return or, fmt.Errorf("separate: %w", err)
	}

	asm, err := Assemble(g, frags, b, AssembleOptions{Prefix: prefix, Strict: p.Strict})
	or.Assembly = asm
	return or, err
}
