package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// AssetsHost is where the rendered page loads echarts from. Empty keeps
// the library default CDN.
var AssetsHost = ""

func (tl *Timeline) init(height string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		PageTitle:  tl.Title,
		Width:      "100%",
		Height:     height,
		AssetsHost: AssetsHost,
	})
}

// lineChart plots each unit's value per frame.
func (tl *Timeline) lineChart() *charts.Line {
	frames := make([]string, tl.Frames+1)
	for i := range frames {
		frames[i] = strconv.Itoa(i)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		tl.init("480px"),
		charts.WithTitleOpts(opts.Title{Title: tl.Title, Subtitle: tl.Attribute + " per frame"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: tl.Attribute}),
	)
	line.SetXAxis(frames)
	for _, s := range tl.Series {
		data := make([]opts.LineData, len(s.Values))
		for i, v := range s.Values {
			data[i] = opts.LineData{Value: v}
		}
		line.AddSeries(s.Name, data)
	}
	return line
}

// windowChart shows every unit's window as a floating bar: a transparent
// offset up to Start stacked under the visible span.
func (tl *Timeline) windowChart() *charts.Bar {
	names := make([]string, len(tl.Series))
	offset := make([]opts.BarData, len(tl.Series))
	span := make([]opts.BarData, len(tl.Series))
	for i, s := range tl.Series {
		names[i] = s.Name
		offset[i] = opts.BarData{Value: s.Start}
		span[i] = opts.BarData{Value: s.End - s.Start}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		tl.init(fmt.Sprintf("%dpx", 120+30*len(tl.Series))),
		charts.WithTitleOpts(opts.Title{Title: "Windows"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame", Max: tl.Frames}),
	)
	bar.SetXAxis(names).
		AddSeries("start", offset, charts.WithBarChartOpts(opts.BarChart{Stack: "window"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "transparent"})).
		AddSeries("window", span, charts.WithBarChartOpts(opts.BarChart{Stack: "window"}),
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "inside"}))
	bar.XYReversal()
	return bar
}

// fragmentChart counts fragments per object.
func (tl *Timeline) fragmentChart() *charts.Bar {
	names := make([]string, len(tl.Objects))
	valid := make([]opts.BarData, len(tl.Objects))
	dropped := make([]opts.BarData, len(tl.Objects))
	straddling := make([]opts.BarData, len(tl.Objects))
	for i, o := range tl.Objects {
		names[i] = o.Name
		valid[i] = opts.BarData{Value: o.Valid}
		dropped[i] = opts.BarData{Value: o.Dropped}
		straddling[i] = opts.BarData{Value: o.Straddling}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		tl.init("360px"),
		charts.WithTitleOpts(opts.Title{Title: "Fragments"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(names).
		AddSeries("valid", valid).
		AddSeries("dropped", dropped).
		AddSeries("straddling", straddling)
	return bar
}

// WriteHTML renders the timeline page.
func (tl *Timeline) WriteHTML(w io.Writer) error {
	page := components.NewPage()
	if AssetsHost != "" {
		page.SetAssetsHost(AssetsHost)
	}
	page.PageTitle = tl.Title
	page.AddCharts(tl.lineChart(), tl.windowChart(), tl.fragmentChart())
	if err := page.Render(w); err != nil {
		return fmt.Errorf("report: render html: %w", err)
	}
	return nil
}
