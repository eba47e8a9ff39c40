// Package export renders run results to image files.
package export

import (
	"errors"
	"image/color"

	"github.com/san-kum/mdsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

var ErrNoData = errors.New("export: no data to plot")

const (
	width  = 8 * vg.Inch
	height = 4 * vg.Inch
)

func series(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return pts
}

// TemperaturePlot draws T(t) with the thermostat target as a dashed line.
// A negative target omits the line.
func TemperaturePlot(path string, times, temps []float64, target float64) error {
	if len(times) == 0 || len(times) != len(temps) {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = "Instantaneous temperature"
	p.X.Label.Text = "t"
	p.Y.Label.Text = "T"

	line, err := plotter.NewLine(series(times, temps))
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(1)
	line.LineStyle.Color = plotutil.Color(0)
	p.Add(line)

	if target >= 0 {
		ref, err := plotter.NewLine(plotter.XYs{{X: times[0], Y: target}, {X: times[len(times)-1], Y: target}})
		if err != nil {
			return err
		}
		ref.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		ref.LineStyle.Color = color.Gray{Y: 128}
		p.Add(ref)
		p.Legend.Add("target", ref)
	}

	return p.Save(width, height, path)
}

// EnergyPlot draws kinetic, potential and total energy per step.
func EnergyPlot(path string, records []dynamo.StepRecord) error {
	if len(records) == 0 {
		return ErrNoData
	}

	kin := make(plotter.XYs, len(records))
	pot := make(plotter.XYs, len(records))
	tot := make(plotter.XYs, len(records))
	for i, rec := range records {
		kin[i].X, kin[i].Y = rec.Time, rec.Kinetic
		pot[i].X, pot[i].Y = rec.Time, rec.Potential
		tot[i].X, tot[i].Y = rec.Time, rec.Total()
	}

	p := plot.New()
	p.Title.Text = "Energy"
	p.X.Label.Text = "t"
	p.Y.Label.Text = "E"

	if err := plotutil.AddLines(p, "kinetic", kin, "potential", pot, "total", tot); err != nil {
		return err
	}
	return p.Save(width, height, path)
}

func RDFPlot(path string, r, g []float64) error {
	if len(r) == 0 || len(r) != len(g) {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = "Radial distribution function"
	p.X.Label.Text = "r"
	p.Y.Label.Text = "g(r)"

	line, err := plotter.NewLine(series(r, g))
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(1)
	line.LineStyle.Color = plotutil.Color(1)
	p.Add(line)

	return p.Save(width, height, path)
}

// SpeedHistogram draws the distribution of particle speeds.
func SpeedHistogram(path string, sys *dynamo.System, bins int) error {
	if sys.N() == 0 {
		return ErrNoData
	}

	speeds := make(plotter.Values, sys.N())
	for i, v := range sys.Vel {
		speeds[i] = r3.Norm(v)
	}

	p := plot.New()
	p.Title.Text = "Speed distribution"
	p.X.Label.Text = "|v|"
	p.Y.Label.Text = "Particles"

	hist, err := plotter.NewHist(speeds, bins)
	if err != nil {
		return err
	}
	hist.LineStyle.Width = vg.Length(0)
	hist.FillColor = plotutil.Color(2)
	p.Add(hist)

	return p.Save(5*vg.Inch, 3*vg.Inch, path)
}
