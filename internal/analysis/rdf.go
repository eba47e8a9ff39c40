package analysis

import (
	"math"

	"github.com/san-kum/mdsim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

type RDF struct {
	Bins   int
	RMax   float64
	width  float64
	hist   []float64
	frames int
	n      int
	volume float64
}

// NewRDF histograms pair distances in [0, box/2) over bins bins.
func NewRDF(bins int, box float64) *RDF {
	rmax := box / 2
	return &RDF{
		Bins:   bins,
		RMax:   rmax,
		width:  rmax / float64(bins),
		hist:   make([]float64, bins),
		volume: box * box * box,
	}
}

func (g *RDF) Sample(step int, sys *dynamo.System) {
	g.frames++
	g.n = sys.N()
	for i := 0; i < len(sys.Pos); i++ {
		for j := i + 1; j < len(sys.Pos); j++ {
			d := dynamo.MinimumImage(r3.Sub(sys.Pos[i], sys.Pos[j]), sys.Box)
			r := r3.Norm(d)
			if r >= g.RMax {
				continue
			}
			b := int(r / g.width)
			// r just below RMax can round up to Bins
			if b >= g.Bins {
				b = g.Bins - 1
			}
			g.hist[b] += 2
		}
	}
}

func (g *RDF) Frames() int { return g.frames }

// Result returns bin centres and g(r), normalised by the ideal-gas count
// of each spherical shell.
func (g *RDF) Result() ([]float64, []float64) {
	r := make([]float64, g.Bins)
	gr := make([]float64, g.Bins)
	if g.frames == 0 || g.n == 0 {
		for b := range r {
			r[b] = (float64(b) + 0.5) * g.width
		}
		return r, gr
	}

	rho := float64(g.n) / g.volume
	for b := 0; b < g.Bins; b++ {
		lo := float64(b) * g.width
		hi := lo + g.width
		r[b] = lo + 0.5*g.width
		shell := 4.0 / 3.0 * math.Pi * (hi*hi*hi - lo*lo*lo)
		gr[b] = g.hist[b] / (float64(g.frames) * float64(g.n) * rho * shell)
	}
	return r, gr
}

// Peak returns the position and height of the highest bin.
func (g *RDF) Peak() (float64, float64) {
	r, gr := g.Result()
	if len(gr) == 0 {
		return 0, 0
	}
	i := floats.MaxIdx(gr)
	return r[i], gr[i]
}

func (g *RDF) Reset() {
	for i := range g.hist {
		g.hist[i] = 0
	}
	g.frames = 0
	g.n = 0
}
