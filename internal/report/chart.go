package report

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// ChartRenderer writes an interactive HTML line chart of temperature over
// time, one series per city.
type ChartRenderer struct {
	Title string
}

func (c ChartRenderer) Render(w io.Writer, r Report) error {
	title := c.Title
	if title == "" {
		title = "Temperature Over Time by City"
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: types.ThemeChalk}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time", Type: "time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Temperature (°C)"}),
	)

	for _, city := range r.Cities() {
		pts := r.Series[city]
		if len(pts) == 0 {
			continue
		}
		data := make([]opts.LineData, len(pts))
		for i, p := range pts {
			data[i] = opts.LineData{Value: []any{p.Timestamp.UnixMilli(), p.Temperature}}
		}
		line.AddSeries(city, data)
	}

	return line.Render(w)
}
