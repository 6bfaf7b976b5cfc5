package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/slabanim/pkg/anim"
	"github.com/chazu/slabanim/pkg/slicer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture keys two units of one object over 10 frames; the middle slab
// is empty.
func fixture(t *testing.T) (*slicer.Result, *anim.Curves) {
	t.Helper()
	entries := []slicer.ScheduleEntry{
		{Object: 0, Slab: 0, Target: "u0", Start: 0, End: 3},
		{Object: 0, Slab: 1, Start: 3, End: 6},
		{Object: 0, Slab: 2, Target: "u2", Start: 6, End: 9},
	}
	curves := anim.NewCurves()
	require.NoError(t, slicer.Apply(curves, entries, slicer.DefaultKeySpec()))

	res := &slicer.Result{
		Objects: []slicer.ObjectResult{{
			Name:       "tower",
			Boundaries: []float64{0, 1, 2, 3},
			Assembly: &slicer.Assembly{
				Valid:   2,
				Dropped: []slicer.Handle{"empty"},
			},
		}},
		Schedule: entries,
	}
	return res, curves
}

func names(h slicer.Handle) string {
	return map[slicer.Handle]string{"u0": "coll0", "u2": "coll2"}[h]
}

func TestBuild(t *testing.T) {
	res, curves := fixture(t)
	tl, err := Build("tower", res, curves, "translateX", names)
	require.NoError(t, err)

	assert.Equal(t, 9, tl.Frames)
	require.Len(t, tl.Series, 2, "the empty slab has no series")
	assert.Equal(t, "coll0", tl.Series[0].Name)
	assert.Equal(t, "coll2", tl.Series[1].Name)
	assert.Len(t, tl.Series[0].Values, 10)
	assert.InDelta(t, 2, tl.Series[0].Values[3], 1e-12)
	assert.InDelta(t, 0, tl.Series[1].Values[6], 1e-12)
	assert.InDelta(t, 2, tl.Series[1].Values[9], 1e-12)

	assert.Equal(t, []ObjectStats{{Name: "tower", Slabs: 3, Valid: 2, Dropped: 1}}, tl.Objects)
}

func TestBuildErrors(t *testing.T) {
	_, err := Build("x", nil, anim.NewCurves(), "translateX", names)
	assert.ErrorIs(t, err, slicer.ErrInvalidInput)

	res, curves := fixture(t)
	_, err = Build("x", res, curves, "rotateY", names)
	assert.Error(t, err, "units without keys on the attribute")
}

func TestBuildFallsBackToHandle(t *testing.T) {
	res, curves := fixture(t)
	tl, err := Build("x", res, curves, "translateX", func(slicer.Handle) string { return "" })
	require.NoError(t, err)
	assert.Equal(t, "u0", tl.Series[0].Name)
}

func TestWritePNG(t *testing.T) {
	res, curves := fixture(t)
	tl, err := Build("tower", res, curves, "translateX", names)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tl.WritePNG(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")), "not a PNG")
}

func TestSavePNG(t *testing.T) {
	res, curves := fixture(t)
	tl, err := Build("tower", res, curves, "translateX", names)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "curves.png")
	require.NoError(t, tl.SavePNG(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestWriteDir(t *testing.T) {
	res, curves := fixture(t)
	tl, err := Build("tower", res, curves, "translateX", names)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out", "run")
	paths, err := tl.WriteDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, CurvesFile), filepath.Join(dir, TimelineFile)}, paths)
	for _, p := range paths {
		_, err := os.Stat(p)
		assert.NoError(t, err)
	}
}

func TestWriteHTML(t *testing.T) {
	res, curves := fixture(t)
	tl, err := Build("tower timeline", res, curves, "translateX", names)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tl.WriteHTML(&buf))
	html := buf.String()
	for _, want := range []string{"tower timeline", "coll0", "coll2", "echarts"} {
		assert.True(t, strings.Contains(html, want), "page missing %q", want)
	}
}
