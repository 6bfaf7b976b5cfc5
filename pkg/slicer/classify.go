package slicer

import "fmt"

// Classify returns the slab index of a fragment with extent ext.
//
// The boundaries are scanned bottom to top and the first slab that fully
// contains ext wins. When none does, the topmost slab is returned: slabs
// come from axis-aligned cuts, so a well separated fragment always fits
// one of them. Use ClassifyStrict to detect fragments that do not.
// Classify returns -1 when b holds fewer than two boundaries.
func Classify(ext Extent, b []float64) int {
	pos := -1
	for i := 1; i < len(b); i++ {
		pos = i
		if ext.Within(b[i-1], b[i]) {
			break
		}
	}
	if pos < 0 {
		return -1
	}
	return pos - 1
}

// ClassifyStrict is Classify without the fallback: a fragment not
// contained in any single slab yields ErrNoSlab.
func ClassifyStrict(ext Extent, b []float64) (int, error) {
	if len(b) < 2 {
		return -1, fmt.Errorf("slicer: classify: %w: %d boundaries", ErrInvalidInput, len(b))
	}
	for i := 1; i < len(b); i++ {
		if ext.Within(b[i-1], b[i]) {
			return i - 1, nil
		}
	}
	return -1, ErrNoSlab
}
