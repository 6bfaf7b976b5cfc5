// Package report renders a slicing run for humans: a PNG of every unit's
// animated value over time and an interactive HTML timeline.
package report

import (
	"fmt"

	"github.com/chazu/slabanim/pkg/slicer"
)

// Sampler returns a channel's value at every frame from..to inclusive.
type Sampler interface {
	Sample(target slicer.Handle, attr string, from, to int) []float64
}

// Series is the sampled curve of one unit.
type Series struct {
	Name   string    `json:"name"`
	Object int       `json:"object"`
	Slab   int       `json:"slab"`
	Start  int       `json:"start"`
	End    int       `json:"end"`
	Values []float64 `json:"values"` // one per frame, frame 0 first
}

// ObjectStats summarises how one object's fragments were grouped.
type ObjectStats struct {
	Name       string `json:"name"`
	Slabs      int    `json:"slabs"`
	Valid      int    `json:"valid"`
	Dropped    int    `json:"dropped"`
	Straddling int    `json:"straddling"`
}

// Timeline is everything the renderers need from a run.
type Timeline struct {
	Title     string        `json:"title"`
	Attribute string        `json:"attribute"`
	Frames    int           `json:"frames"`
	Series    []Series      `json:"series"`
	Objects   []ObjectStats `json:"objects"`
}

// Build samples every scheduled unit of res from frame 0 to the last
// window end. name resolves unit handles to display names.
func Build(title string, res *slicer.Result, s Sampler, attr string, name func(slicer.Handle) string) (*Timeline, error) {
	if res == nil {
		return nil, fmt.Errorf("report: %w: nil result", slicer.ErrInvalidInput)
	}
	tl := &Timeline{Title: title, Attribute: attr}
	for _, e := range res.Schedule {
		tl.Frames = max(tl.Frames, e.End)
	}

	for _, e := range res.Schedule {
		if e.Skipped() {
			continue
		}
		vals := s.Sample(e.Target, attr, 0, tl.Frames)
		if vals == nil {
			return nil, fmt.Errorf("report: unit %s has no %s keys", e.Target, attr)
		}
		n := name(e.Target)
		if n == "" {
			n = string(e.Target)
		}
		tl.Series = append(tl.Series, Series{
			Name:   n,
			Object: e.Object,
			Slab:   e.Slab,
			Start:  e.Start,
			End:    e.End,
			Values: vals,
		})
	}

	for _, o := range res.Objects {
		st := ObjectStats{Name: o.Name, Slabs: len(o.Boundaries) - 1}
		if a := o.Assembly; a != nil {
			st.Valid = a.Valid
			st.Dropped = len(a.Dropped)
			st.Straddling = len(a.Straddling)
		}
		tl.Objects = append(tl.Objects, st)
	}
	return tl, nil
}
