package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/highway/internal/units"
)

var (
	preferredColor = color.RGBA{R: 26, G: 180, B: 26, A: 255}
	trafficColor   = color.RGBA{R: 90, G: 90, B: 200, A: 255}
)

// WritePNG saves a speed plot of the trace to path. The format follows the
// file extension, as with plot.Save.
func WritePNG(path string, samples []Sample, unit string) error {
	if len(samples) == 0 {
		return fmt.Errorf("no samples to plot")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Preferred vehicle vs traffic (ticks %d-%d)", samples[0].Tick, samples[len(samples)-1].Tick)
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = fmt.Sprintf("Speed (%s)", units.Label(unit))

	preferred := make(plotter.XYs, len(samples))
	mean := make(plotter.XYs, len(samples))
	ys := make([]float64, 0, 2*len(samples))
	for i, s := range samples {
		preferred[i] = plotter.XY{X: s.Time, Y: units.ConvertSpeed(s.PreferredSpeed, unit)}
		mean[i] = plotter.XY{X: s.Time, Y: units.ConvertSpeed(s.MeanSpeed, unit)}
		ys = append(ys, preferred[i].Y, mean[i].Y)
	}

	for _, series := range []struct {
		name string
		pts  plotter.XYs
		c    color.Color
	}{
		{"preferred", preferred, preferredColor},
		{"traffic mean", mean, trafficColor},
	} {
		line, err := plotter.NewLine(series.pts)
		if err != nil {
			return fmt.Errorf("failed to create %s line: %w", series.name, err)
		}
		line.Color = series.c
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(series.name, line)
	}

	// Pad the speed axis so flat traces stay visible.
	ymin, ymax := floats.Min(ys), floats.Max(ys)
	pad := 0.05*(ymax-ymin) + 1
	p.Y.Min, p.Y.Max = ymin-pad, ymax+pad

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}
