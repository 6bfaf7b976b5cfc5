// Package anim stores keyframe curves and implements slicer.Animator.
package anim

import (
	"fmt"
	"sort"
	"sync"

	"github.com/chazu/slabanim/pkg/slicer"
)

var _ slicer.Animator = (*Curves)(nil)

// Key is one keyframe. Tangent controls how the curve leaves the key.
type Key struct {
	Time    int                `json:"time"`
	Value   float64            `json:"value"`
	Tangent slicer.TangentKind `json:"tangent"`
}

// Channel names one animated attribute of one target.
type Channel struct {
	Target slicer.Handle `json:"target"`
	Attr   string        `json:"attr"`
}

func (c Channel) String() string {
	return fmt.Sprintf("%s.%s", c.Target, c.Attr)
}

// Curves is an in-memory keyframe store. It is safe for concurrent use.
type Curves struct {
	mu   sync.RWMutex
	keys map[Channel][]Key // sorted by Time, unique times
}

// NewCurves returns an empty store.
func NewCurves() *Curves {
	return &Curves{keys: make(map[Channel][]Key)}
}

// SetKeyframe adds a key, replacing any key already at time. New keys
// default to linear tangents.
func (c *Curves) SetKeyframe(target slicer.Handle, attr string, time int, value float64) error {
	if target == "" || attr == "" {
		return fmt.Errorf("anim: set key: %w: empty target or attribute", slicer.ErrInvalidInput)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := Channel{Target: target, Attr: attr}
	ks := c.keys[ch]
	i := sort.Search(len(ks), func(i int) bool { return ks[i].Time >= time })
	if i < len(ks) && ks[i].Time == time {
		ks[i].Value = value
		return nil
	}
	ks = append(ks, Key{})
	copy(ks[i+1:], ks[i:])
	ks[i] = Key{Time: time, Value: value, Tangent: slicer.TangentLinear}
	c.keys[ch] = ks
	return nil
}

// RemoveKeys deletes keys with from <= time <= to. A channel left with no
// keys is dropped.
func (c *Curves) RemoveKeys(target slicer.Handle, attr string, from, to int) error {
	if from > to {
		return fmt.Errorf("anim: remove keys: %w: range [%d, %d]", slicer.ErrInvalidInput, from, to)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := Channel{Target: target, Attr: attr}
	ks := c.keys[ch]
	kept := ks[:0]
	for _, k := range ks {
		if k.Time < from || k.Time > to {
			kept = append(kept, k)
		}
	}
	if len(kept) == 0 {
		delete(c.keys, ch)
		return nil
	}
	c.keys[ch] = kept
	return nil
}

// SetTangents changes the tangent of keys with from <= time <= to.
func (c *Curves) SetTangents(target slicer.Handle, attr string, from, to int, kind slicer.TangentKind) error {
	if from > to {
		return fmt.Errorf("anim: set tangents: %w: range [%d, %d]", slicer.ErrInvalidInput, from, to)
	}
	if kind != slicer.TangentLinear && kind != slicer.TangentStep {
		return fmt.Errorf("anim: set tangents: %w: tangent %d", slicer.ErrInvalidInput, int(kind))
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ks := c.keys[Channel{Target: target, Attr: attr}]
	for i := range ks {
		if ks[i].Time >= from && ks[i].Time <= to {
			ks[i].Tangent = kind
		}
	}
	return nil
}

// Keys returns a copy of the channel's keys in time order.
func (c *Curves) Keys(target slicer.Handle, attr string) []Key {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ks := c.keys[Channel{Target: target, Attr: attr}]
	if len(ks) == 0 {
		return nil
	}
	return append([]Key(nil), ks...)
}

// Channels lists every keyed channel, ordered by target then attribute.
func (c *Curves) Channels() []Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Channel, 0, len(c.keys))
	for ch := range c.keys {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Target != out[j].Target {
			return out[i].Target < out[j].Target
		}
		return out[i].Attr < out[j].Attr
	})
	return out
}

// Len returns the total number of keys across all channels.
func (c *Curves) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, ks := range c.keys {
		n += len(ks)
	}
	return n
}

// Evaluate returns the channel's value at time t. Before the first key
// and after the last the curve holds flat. ok is false when the channel
// has no keys.
func (c *Curves) Evaluate(target slicer.Handle, attr string, t float64) (v float64, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return evaluate(c.keys[Channel{Target: target, Attr: attr}], t)
}

func evaluate(ks []Key, t float64) (float64, bool) {
	if len(ks) == 0 {
		return 0, false
	}
	if t <= float64(ks[0].Time) {
		return ks[0].Value, true
	}
	last := ks[len(ks)-1]
	if t >= float64(last.Time) {
		return last.Value, true
	}
	// First key strictly after t; ks[i-1] is at or before it.
	i := sort.Search(len(ks), func(i int) bool { return float64(ks[i].Time) > t })
	a, b := ks[i-1], ks[i]
	if a.Tangent == slicer.TangentStep {
		return a.Value, true
	}
	f := (t - float64(a.Time)) / float64(b.Time-a.Time)
	return a.Value + f*(b.Value-a.Value), true
}

// Sample evaluates the channel at every frame from..to inclusive.
func (c *Curves) Sample(target slicer.Handle, attr string, from, to int) []float64 {
	if from > to {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	ks := c.keys[Channel{Target: target, Attr: attr}]
	if len(ks) == 0 {
		return nil
	}
	out := make([]float64, 0, to-from+1)
	for f := from; f <= to; f++ {
		v, _ := evaluate(ks, float64(f))
		out = append(out, v)
	}
	return out
}

// Reset removes every key.
func (c *Curves) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = make(map[Channel][]Key)
}
