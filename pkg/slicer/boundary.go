package slicer

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

// Boundaries returns the n+1 slab boundaries for a solid spanning ext.
// The first and last values are ext.Min and ext.Max exactly; the interior
// cut heights are evenly spaced and rounded to Precision digits so that
// later extent comparisons see the same values the cuts were made at.
// A rounded height is clamped into [previous boundary, ext.Max], so
// extents narrower than the rounding step still give a non-decreasing list.
func Boundaries(ext Extent, n int) ([]float64, error) {
	if n < 1 {
		return nil, fmt.Errorf("slicer: boundaries: %w: slice count %d < 1", ErrInvalidInput, n)
	}
	if ext.Min > ext.Max || math.IsNaN(ext.Min) || math.IsNaN(ext.Max) {
		return nil, fmt.Errorf("slicer: boundaries: %w: extent [%g, %g]", ErrInvalidInput, ext.Min, ext.Max)
	}

	b := floats.Span(make([]float64, n+1), ext.Min, ext.Max)
	b[0], b[n] = ext.Min, ext.Max
	for i := 1; i < n; i++ {
		b[i] = math.Min(math.Max(scalar.Round(b[i], Precision), b[i-1]), ext.Max)
	}
	return b, nil
}

// CutHeights returns the interior boundaries, the heights at which the
// solid is actually cut.
func CutHeights(b []float64) []float64 {
	if len(b) < 3 {
		return nil
	}
	return b[1 : len(b)-1]
}
