package anim

import (
	"testing"

	"github.com/chazu/slabanim/pkg/slicer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetKeyframeKeepsOrder(t *testing.T) {
	c := NewCurves()
	require.NoError(t, c.SetKeyframe("u", "translateX", 10, 2))
	require.NoError(t, c.SetKeyframe("u", "translateX", 0, 0))
	require.NoError(t, c.SetKeyframe("u", "translateX", 5, 1))
	require.NoError(t, c.SetKeyframe("u", "translateX", 5, 1.5))

	got := c.Keys("u", "translateX")
	require.Len(t, got, 3)
	assert.Equal(t, []int{0, 5, 10}, []int{got[0].Time, got[1].Time, got[2].Time})
	assert.Equal(t, 1.5, got[1].Value, "a key at an existing time replaces it")
	assert.Equal(t, 3, c.Len())
}

func TestSetKeyframeRejectsEmpty(t *testing.T) {
	c := NewCurves()
	assert.ErrorIs(t, c.SetKeyframe("", "translateX", 0, 0), slicer.ErrInvalidInput)
	assert.ErrorIs(t, c.SetKeyframe("u", "", 0, 0), slicer.ErrInvalidInput)
}

func TestRemoveKeys(t *testing.T) {
	c := NewCurves()
	for _, tm := range []int{0, 2, 4, 6} {
		require.NoError(t, c.SetKeyframe("u", "translateX", tm, float64(tm)))
	}
	require.NoError(t, c.RemoveKeys("u", "translateX", 2, 4))
	got := c.Keys("u", "translateX")
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Time)
	assert.Equal(t, 6, got[1].Time)

	require.NoError(t, c.RemoveKeys("u", "translateX", 0, 100))
	assert.Empty(t, c.Channels(), "emptied channel is dropped")

	assert.NoError(t, c.RemoveKeys("nobody", "translateX", 0, 1))
	assert.ErrorIs(t, c.RemoveKeys("u", "translateX", 3, 1), slicer.ErrInvalidInput)
}

func TestEvaluateLinear(t *testing.T) {
	c := NewCurves()
	require.NoError(t, c.SetKeyframe("u", "translateX", 2, 0))
	require.NoError(t, c.SetKeyframe("u", "translateX", 4, 2))

	tests := []struct {
		t    float64
		want float64
	}{
		{0, 0},
		{2, 0},
		{3, 1},
		{3.5, 1.5},
		{4, 2},
		{9, 2},
	}
	for _, tt := range tests {
		v, ok := c.Evaluate("u", "translateX", tt.t)
		require.True(t, ok)
		assert.InDelta(t, tt.want, v, 1e-12, "t=%g", tt.t)
	}

	_, ok := c.Evaluate("u", "rotateY", 3)
	assert.False(t, ok)
}

func TestEvaluateStep(t *testing.T) {
	c := NewCurves()
	require.NoError(t, c.SetKeyframe("u", "translateX", 0, 0))
	require.NoError(t, c.SetKeyframe("u", "translateX", 10, 2))
	require.NoError(t, c.SetTangents("u", "translateX", 0, 0, slicer.TangentStep))

	v, _ := c.Evaluate("u", "translateX", 9.9)
	assert.Equal(t, 0.0, v)
	v, _ = c.Evaluate("u", "translateX", 10)
	assert.Equal(t, 2.0, v)

	assert.ErrorIs(t, c.SetTangents("u", "translateX", 0, 10, slicer.TangentKind(9)), slicer.ErrInvalidInput)
}

func TestSample(t *testing.T) {
	c := NewCurves()
	require.NoError(t, c.SetKeyframe("u", "translateX", 0, 0))
	require.NoError(t, c.SetKeyframe("u", "translateX", 2, 2))
	assert.Equal(t, []float64{0, 1, 2, 2}, c.Sample("u", "translateX", 0, 3))
	assert.Nil(t, c.Sample("u", "translateX", 3, 0))
	assert.Nil(t, c.Sample("v", "translateX", 0, 3))
}

func TestChannelsSorted(t *testing.T) {
	c := NewCurves()
	require.NoError(t, c.SetKeyframe("b", "translateX", 0, 0))
	require.NoError(t, c.SetKeyframe("a", "translateY", 0, 0))
	require.NoError(t, c.SetKeyframe("a", "translateX", 0, 0))

	assert.Equal(t, []Channel{
		{Target: "a", Attr: "translateX"},
		{Target: "a", Attr: "translateY"},
		{Target: "b", Attr: "translateX"},
	}, c.Channels())
	assert.Equal(t, "a.translateX", c.Channels()[0].String())

	c.Reset()
	assert.Zero(t, c.Len())
}

// Apply on a fresh store produces a two-key linear ramp per unit.
func TestApplyWritesRamp(t *testing.T) {
	c := NewCurves()
	entries := []slicer.ScheduleEntry{
		{Object: 0, Slab: 0, Target: "u0", Start: 0, End: 5},
		{Object: 0, Slab: 1, Start: 5, End: 10},
	}
	require.NoError(t, slicer.Apply(c, entries, slicer.DefaultKeySpec()))

	got := c.Keys("u0", "translateX")
	assert.Equal(t, []Key{
		{Time: 0, Value: 0, Tangent: slicer.TangentLinear},
		{Time: 5, Value: 2, Tangent: slicer.TangentLinear},
	}, got)
	assert.Len(t, c.Channels(), 1, "skipped slab writes no keys")
}
