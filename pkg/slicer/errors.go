package slicer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput reports a bad slice count, duration, extent or cut plane.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSealFailure reports that the geometry collaborator could not close
	// a fragment's open boundary.
	ErrSealFailure = errors.New("seal failure")

	// ErrNoSlab reports a fragment whose extent is not contained in any slab.
	ErrNoSlab = errors.New("fragment does not fit a single slab")

	// ErrEndOfFragments is returned by FragmentIter.Next once every fragment
	// has been delivered. It marks normal completion, not a fault.
	ErrEndOfFragments = errors.New("end of fragments")
)

// SealError records which fragment failed to seal. Fragments before it
// remain classified and renamed.
type SealError struct {
	Fragment Handle
	Index    int
	Err      error
}

func (e *SealError) Error() string {
	return fmt.Sprintf("seal fragment %d (%s): %v", e.Index, e.Fragment, e.Err)
}

// Unwrap lets errors.Is match both ErrSealFailure and the collaborator's cause.
func (e *SealError) Unwrap() []error {
	return []error{ErrSealFailure, e.Err}
}

// ClassifyError is returned in strict mode for a fragment straddling slabs.
type ClassifyError struct {
	Fragment Handle
	Name     string
	Extent   Extent
}

func (e *ClassifyError) Error() string {
	name := e.Name
	if name == "" {
		name = string(e.Fragment)
	}
	return fmt.Sprintf("fragment %s extent [%g, %g]: %v", name, e.Extent.Min, e.Extent.Max, ErrNoSlab)
}

func (e *ClassifyError) Unwrap() error {
	return ErrNoSlab
}
