package slicer

import (
	"errors"
	"fmt"
	"log"
)

// PartName is the name given to the i-th valid fragment.
func PartName(prefix string, i int) string {
	return fmt.Sprintf("%spart%d", prefix, i)
}

// CollectionName is the canonical name of slab k's representative.
func CollectionName(prefix string, k int) string {
	return fmt.Sprintf("%scoll%d", prefix, k)
}

// AssembleOptions controls naming and classification strictness.
type AssembleOptions struct {
	// Prefix is prepended to part and collection names so several objects
	// can be sliced in one scene without name clashes.
	Prefix string
	// Strict fails on a fragment that fits no single slab instead of
	// placing it in the topmost one.
	Strict bool
}

// Assembly is the outcome of grouping one object's fragments.
type Assembly struct {
	Boundaries []float64 `json:"boundaries"`
	// Collections holds the fragments assigned to each slab, in arrival order.
	Collections [][]Handle `json:"collections"`
	// Units holds one representative per slab, slab 0 first. It is nil
	// when assembly stopped before the merge step.
	Units []Unit `json:"units,omitempty"`
	// Dropped lists fragments the collaborator reported as empty.
	Dropped []Handle `json:"dropped,omitempty"`
	// Straddling lists fragments that fit no single slab and were placed
	// by the fallback rule.
	Straddling []Handle `json:"straddling,omitempty"`
	// Valid counts the classified fragments.
	Valid int `json:"valid"`
}

// Size returns the number of fragments held by all collections.
func (a *Assembly) Size() int {
	n := 0
	for _, c := range a.Collections {
		n += len(c)
	}
	return n
}

// Assemble consumes frags, sealing, naming and classifying each valid
// fragment against b, then merges every slab's fragments into a single
// unit named CollectionName(prefix, slab).
//
// A seal failure stops processing at that fragment and returns a
// *SealError together with the partial Assembly; nothing already renamed
// or classified is undone. Unlike a plain break out of the loop, the
// fragments collected so far are not merged and no unit is keyed.
func Assemble(g Geometry, frags FragmentIter, b []float64, opts AssembleOptions) (*Assembly, error) {
	n := len(b) - 1
	if n < 1 {
		return nil, fmt.Errorf("slicer: assemble: %w: %d boundaries", ErrInvalidInput, len(b))
	}

	a := &Assembly{
		Boundaries:  b,
		Collections: make([][]Handle, n),
	}

	for idx := 0; ; idx++ {
		h, err := frags.Next()
		if errors.Is(err, ErrEndOfFragments) {
			break
		}
		if err != nil {
			return a, fmt.Errorf("slicer: assemble: fragment %d: %w", idx, err)
		}

		if err := g.SealBoundary(h); err != nil {
			return a, &SealError{Fragment: h, Index: idx, Err: err}
		}

		ext, ok, err := g.FragmentExtent(h)
		if err != nil {
			return a, fmt.Errorf("slicer: assemble: extent of fragment %d: %w", idx, err)
		}
		if !ok {
			a.Dropped = append(a.Dropped, h)
			continue
		}

		if err := g.Rename(h, PartName(opts.Prefix, a.Valid)); err != nil {
			return a, fmt.Errorf("slicer: assemble: %w", err)
		}

		ext = RoundExtent(ext).Clamp(b[0], b[n])
		var slab int
		if opts.Strict {
			slab, err = ClassifyStrict(ext, b)
			if err != nil {
				return a, &ClassifyError{Fragment: h, Name: g.Name(h), Extent: ext}
			}
		} else {
			slab = Classify(ext, b)
			if !ext.Within(b[slab], b[slab+1]) {
				log.Printf("slicer: fragment %s [%g, %g] fits no single slab, placed in slab %d",
					g.Name(h), ext.Min, ext.Max, slab)
				a.Straddling = append(a.Straddling, h)
			}
		}

		a.Collections[slab] = append(a.Collections[slab], h)
		a.Valid++
	}

	units, err := unite(g, a.Collections, opts.Prefix)
	if err != nil {
		return a, err
	}
	a.Units = units
	return a, nil
}

// unite picks or builds each slab's representative and gives it its
// canonical name.
func unite(g Geometry, collections [][]Handle, prefix string) ([]Unit, error) {
	units := make([]Unit, len(collections))
	for k, members := range collections {
		units[k] = Unit{Slab: k, Members: members}

		var rep Handle
		switch len(members) {
		case 0:
			continue
		case 1:
			rep = members[0]
		default:
			merged, err := g.Merge(members...)
			if err != nil {
				return nil, fmt.Errorf("slicer: merge slab %d: %w", k, err)
			}
			rep = merged
		}

		name := CollectionName(prefix, k)
		if err := g.Rename(rep, name); err != nil {
			return nil, fmt.Errorf("slicer: name slab %d: %w", k, err)
		}
		units[k].Handle = rep
		units[k].Name = name
	}
	return units, nil
}
