package slicer

// Geometry is the host geometry collaborator: it owns every object and
// fragment and performs the mesh edits the pipeline asks for. Calls are
// made sequentially from a single goroutine.
type Geometry interface {
	// Name returns the current name of h, or "" if h is unknown.
	Name(h Handle) string
	// Extent returns the span of an object along the slicing axis.
	Extent(h Handle) (Extent, error)
	// Center returns the object's centre; cuts pass through its X and Z.
	Center(h Handle) (Vec3, error)
	// Cut performs one planar cut. Only planes normal to Y are accepted.
	Cut(h Handle, center, normal Vec3) error
	// Separate splits a cut object into its disconnected fragments.
	Separate(h Handle) (FragmentIter, error)
	// SealBoundary closes any open boundary the cut left on a fragment.
	SealBoundary(h Handle) error
	// FragmentExtent returns the fragment's extent. ok is false when the
	// fragment is empty or degenerate.
	FragmentExtent(h Handle) (ext Extent, ok bool, err error)
	// Merge combines fragments into one unit.
	Merge(hs ...Handle) (Handle, error)
	// Rename gives h a new unique name.
	Rename(h Handle, name string) error
	// Lookup finds a handle by name.
	Lookup(name string) (Handle, bool)
}

// FragmentIter yields fragments in the order the collaborator produced
// them. Next returns ErrEndOfFragments after the last one; any other
// error is a real fault.
type FragmentIter interface {
	Next() (Handle, error)
}

// TangentKind selects the interpolation leaving and entering a key.
type TangentKind int

const (
	TangentLinear TangentKind = iota
	TangentStep
)

func (k TangentKind) String() string {
	switch k {
	case TangentLinear:
		return "linear"
	case TangentStep:
		return "step"
	default:
		return "unknown"
	}
}

// Animator is the keyframe engine collaborator.
type Animator interface {
	SetKeyframe(target Handle, attr string, time int, value float64) error
	// RemoveKeys deletes keys with from <= time <= to.
	RemoveKeys(target Handle, attr string, from, to int) error
	// SetTangents sets the tangent kind of keys with from <= time <= to.
	SetTangents(target Handle, attr string, from, to int, kind TangentKind) error
}

// sliceIter adapts a pre-computed fragment list to FragmentIter.
type sliceIter struct {
	hs []Handle
	i  int
}

// Fragments returns a FragmentIter over hs.
func Fragments(hs ...Handle) FragmentIter {
	return &sliceIter{hs: hs}
}

func (it *sliceIter) Next() (Handle, error) {
	if it.i >= len(it.hs) {
		return "", ErrEndOfFragments
	}
	h := it.hs[it.i]
	it.i++
	return h, nil
}
