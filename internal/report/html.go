package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/samber/lo"

	"github.com/banshee-data/highway/internal/units"
)

// WriteHTML renders the trace as a single HTML page with one line chart per
// series. Speeds are shown in unit (see package units).
func WriteHTML(w io.Writer, title string, samples []Sample, unit string) error {
	if len(samples) == 0 {
		return fmt.Errorf("no samples to render")
	}

	xs := lo.Map(samples, func(s Sample, _ int) string {
		return strconv.FormatFloat(s.Time, 'f', 2, 64)
	})
	subtitle := fmt.Sprintf("ticks %d-%d", samples[0].Tick, samples[len(samples)-1].Tick)
	speedAxis := fmt.Sprintf("Speed (%s)", units.Label(unit))

	speed := newLineChart(title+" - speed", subtitle, speedAxis)
	speed.SetXAxis(xs).
		AddSeries("preferred", lo.Map(samples, func(s Sample, _ int) opts.LineData {
			return opts.LineData{Value: units.ConvertSpeed(s.PreferredSpeed, unit)}
		})).
		AddSeries("traffic mean", lo.Map(samples, func(s Sample, _ int) opts.LineData {
			return opts.LineData{Value: units.ConvertSpeed(s.MeanSpeed, unit)}
		})).
		AddSeries("traffic std", lo.Map(samples, func(s Sample, _ int) opts.LineData {
			return opts.LineData{Value: units.ConvertSpeed(s.StdSpeed, unit)}
		}))

	// Unknown gaps become "-", which echarts draws as a break in the line.
	gap := newLineChart(title+" - front gap", subtitle, "Gap (m)")
	gap.SetXAxis(xs).
		AddSeries("front gap", lo.Map(samples, func(s Sample, _ int) opts.LineData {
			if !s.FrontGapKnown {
				return opts.LineData{Value: "-"}
			}
			return opts.LineData{Value: s.FrontGap}
		}))

	lane := newLineChart(title+" - lanes", subtitle, "Lane")
	lane.SetXAxis(xs).
		AddSeries("preferred lane", lo.Map(samples, func(s Sample, _ int) opts.LineData {
			return opts.LineData{Value: s.PreferredLane}
		})).
		AddSeries("active lane changes", lo.Map(samples, func(s Sample, _ int) opts.LineData {
			return opts.LineData{Value: s.ActiveLaneChanges}
		}))

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(speed, gap, lane)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return nil
}

func newLineChart(title, subtitle, yName string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName, NameLocation: "middle", NameGap: 40}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	return line
}
