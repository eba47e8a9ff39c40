package analysis

import (
	"github.com/san-kum/mdsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// VACF is C(t) = <v(0)·v(t)> / <v(0)·v(0)> with the first sample as the
// time origin.
type VACF struct {
	first  int
	v0     []r3.Vec
	norm   float64
	lags   []float64
	values []float64
}

func NewVACF() *VACF {
	return &VACF{}
}

func (c *VACF) Sample(step int, sys *dynamo.System) {
	if c.v0 == nil {
		c.first = step
		c.v0 = append([]r3.Vec(nil), sys.Vel...)
		c.norm = dotMean(c.v0, c.v0)
	}
	value := 0.0
	if c.norm != 0 {
		value = dotMean(c.v0, sys.Vel) / c.norm
	}
	c.lags = append(c.lags, float64(step-c.first))
	c.values = append(c.values, value)
}

func (c *VACF) Result() ([]float64, []float64) {
	return c.lags, c.values
}

// PowerSpectrum returns the magnitude of the discrete Fourier transform of
// C(t) for the non-negative frequencies.
func (c *VACF) PowerSpectrum() []float64 {
	return PowerSpectrum(c.values)
}

func (c *VACF) Reset() {
	c.v0 = nil
	c.norm = 0
	c.lags, c.values = nil, nil
}

func dotMean(a, b []r3.Vec) float64 {
	if len(a) == 0 {
		return 0
	}
	sum := 0.0
	for i := range a {
		sum += r3.Dot(a[i], b[i])
	}
	return sum / float64(len(a))
}
