package analysis

import (
	"github.com/san-kum/mdsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// MSD follows every particle through periodic wraps by accumulating
// minimum-image increments between consecutive samples. Samples must be
// close enough that no particle moves more than half a box in between.
type MSD struct {
	first     int
	origin    []r3.Vec
	last      []r3.Vec
	unwrapped []r3.Vec
	lags      []float64
	values    []float64
}

func NewMSD() *MSD {
	return &MSD{}
}

func (m *MSD) Sample(step int, sys *dynamo.System) {
	if m.origin == nil {
		m.first = step
		m.origin = append([]r3.Vec(nil), sys.Pos...)
		m.last = append([]r3.Vec(nil), sys.Pos...)
		m.unwrapped = append([]r3.Vec(nil), sys.Pos...)
		m.lags = append(m.lags, 0)
		m.values = append(m.values, 0)
		return
	}

	sum := 0.0
	for i, p := range sys.Pos {
		d := dynamo.MinimumImage(r3.Sub(p, m.last[i]), sys.Box)
		m.unwrapped[i] = r3.Add(m.unwrapped[i], d)
		m.last[i] = p
		sum += r3.Norm2(r3.Sub(m.unwrapped[i], m.origin[i]))
	}
	m.lags = append(m.lags, float64(step-m.first))
	m.values = append(m.values, sum/float64(len(sys.Pos)))
}

// Result returns the lag in steps and the mean-squared displacement.
func (m *MSD) Result() ([]float64, []float64) {
	return m.lags, m.values
}

// DiffusionCoefficient fits MSD = 6·D·t by least squares over all samples.
func (m *MSD) DiffusionCoefficient(dt float64) float64 {
	if len(m.lags) < 2 {
		return 0
	}
	times := make([]float64, len(m.lags))
	for i, l := range m.lags {
		times[i] = l * dt
	}
	_, slope := stat.LinearRegression(times, m.values, nil, false)
	return slope / 6
}

func (m *MSD) Reset() {
	m.origin, m.last, m.unwrapped = nil, nil, nil
	m.lags, m.values = nil, nil
}
