package report

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Plot size of the curve chart.
const (
	plotWidth  = 10 * vg.Inch
	plotHeight = 5 * vg.Inch
)

// newPlot draws one line per series.
func (tl *Timeline) newPlot() (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = tl.Title
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = tl.Attribute

	for i, s := range tl.Series {
		pts := make(plotter.XYs, len(s.Values))
		for f, v := range s.Values {
			pts[f] = plotter.XY{X: float64(f), Y: v}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("report: series %s: %w", s.Name, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(s.Name, line)
	}

	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.XOffs = 10
	p.Legend.YOffs = -10
	p.Add(plotter.NewGrid())
	return p, nil
}

// WritePNG renders the curve chart as PNG.
func (tl *Timeline) WritePNG(w io.Writer) error {
	p, err := tl.newPlot()
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return fmt.Errorf("report: png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("report: write png: %w", err)
	}
	return nil
}

// SavePNG renders the curve chart to a file. The format follows the
// file extension (.png, .svg, .pdf).
func (tl *Timeline) SavePNG(path string) error {
	p, err := tl.newPlot()
	if err != nil {
		return err
	}
	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("report: save %s: %w", path, err)
	}
	return nil
}
