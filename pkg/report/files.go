package report

import (
	"fmt"
	"os"
	"path/filepath"
)

// Output file names inside a report directory.
const (
	CurvesFile   = "curves.png"
	TimelineFile = "timeline.html"
)

// WriteDir writes the curve chart and the timeline page into dir,
// creating it if needed, and returns the written paths.
func (tl *Timeline) WriteDir(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("report: create %s: %w", dir, err)
	}

	png := filepath.Join(dir, CurvesFile)
	if err := tl.SavePNG(png); err != nil {
		return nil, err
	}

	html := filepath.Join(dir, TimelineFile)
	f, err := os.Create(html)
	if err != nil {
		return nil, fmt.Errorf("report: create %s: %w", html, err)
	}
	if err := tl.WriteHTML(f); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("report: close %s: %w", html, err)
	}
	return []string{png, html}, nil
}
