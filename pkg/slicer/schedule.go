package slicer

import (
	"fmt"
	"strings"
)

// TimingMode decides how the total duration is divided when several
// objects are animated together.
type TimingMode int

const (
	// TimingPerObject divides the duration by each object's own slab count.
	TimingPerObject TimingMode = iota
	// TimingShared uses the first object's slab count for every object.
	TimingShared
)

func (m TimingMode) String() string {
	switch m {
	case TimingPerObject:
		return "per-object"
	case TimingShared:
		return "shared"
	default:
		return "unknown"
	}
}

// ParseTimingMode parses "per-object" or "shared".
func ParseTimingMode(s string) (TimingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "per-object", "per_object":
		return TimingPerObject, nil
	case "shared":
		return TimingShared, nil
	}
	return 0, fmt.Errorf("%w: timing mode %q, expected per-object or shared", ErrInvalidInput, s)
}

// KeySpec describes the transition keyed on every unit.
type KeySpec struct {
	Attribute string  `json:"attribute"`
	From      float64 `json:"from"`
	To        float64 `json:"to"`
}

// DefaultKeySpec slides each unit two units along X.
func DefaultKeySpec() KeySpec {
	return KeySpec{Attribute: "translateX", From: 0, To: 2}
}

// Interval returns floor(total / count), failing when count < 1 or the
// result would leave a window of zero length.
func Interval(total, count int) (int, error) {
	if count < 1 {
		return 0, fmt.Errorf("%w: slab count %d < 1", ErrInvalidInput, count)
	}
	if total < 0 {
		return 0, fmt.Errorf("%w: duration %d < 0", ErrInvalidInput, total)
	}
	iv := total / count
	if iv == 0 {
		return 0, fmt.Errorf("%w: duration %d too short for %d slabs", ErrInvalidInput, total, count)
	}
	return iv, nil
}

// Schedule assigns every unit of every object a window. Object o's slab k
// plays over [iv*k, iv*(k+1)], so windows are contiguous, disjoint and
// ordered by slab. Empty units still get an entry with no Target, keeping
// the later slabs on the same timeline.
//
// Entries are returned slab by slab, and within a slab object by object.
func Schedule(objects [][]Unit, total int, mode TimingMode) ([]ScheduleEntry, error) {
	if len(objects) == 0 {
		return nil, nil
	}

	intervals := make([]int, len(objects))
	maxSlabs := 0
	for o, units := range objects {
		count := len(units)
		if mode == TimingShared {
			count = len(objects[0])
		}
		iv, err := Interval(total, count)
		if err != nil {
			return nil, fmt.Errorf("slicer: schedule object %d: %w", o, err)
		}
		if len(units) == 0 {
			return nil, fmt.Errorf("slicer: schedule object %d: %w: no slabs", o, ErrInvalidInput)
		}
		intervals[o] = iv
		maxSlabs = max(maxSlabs, len(units))
	}

	var entries []ScheduleEntry
	for k := 0; k < maxSlabs; k++ {
		for o, units := range objects {
			if k >= len(units) {
				continue
			}
			iv := intervals[o]
			entries = append(entries, ScheduleEntry{
				Object: o,
				Slab:   k,
				Target: units[k].Handle,
				Start:  iv * k,
				End:    iv * (k + 1),
			})
		}
	}
	return entries, nil
}

// Apply keys every non-skipped entry: existing keys in the window are
// removed, then From is keyed at Start and To at End with linear tangents.
func Apply(a Animator, entries []ScheduleEntry, key KeySpec) error {
	if key.Attribute == "" {
		return fmt.Errorf("slicer: apply: %w: empty attribute", ErrInvalidInput)
	}
	for _, e := range entries {
		if e.Skipped() {
			continue
		}
		if err := a.RemoveKeys(e.Target, key.Attribute, e.Start, e.End); err != nil {
			return fmt.Errorf("slicer: apply %s: remove keys: %w", e.Target, err)
		}
		if err := a.SetKeyframe(e.Target, key.Attribute, e.Start, key.From); err != nil {
			return fmt.Errorf("slicer: apply %s: key start: %w", e.Target, err)
		}
		if err := a.SetKeyframe(e.Target, key.Attribute, e.End, key.To); err != nil {
			return fmt.Errorf("slicer: apply %s: key end: %w", e.Target, err)
		}
		if err := a.SetTangents(e.Target, key.Attribute, e.Start, e.End, TangentLinear); err != nil {
			return fmt.Errorf("slicer: apply %s: tangents: %w", e.Target, err)
		}
	}
	return nil
}
