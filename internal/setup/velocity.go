package setup

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// MaxwellBoltzmann draws n velocities with components ~ N(0, kB·T/m),
// removes the centre-of-mass drift and rescales so the instantaneous
// temperature over 3n degrees of freedom is exactly T.
func MaxwellBoltzmann(n int, mass, kB, temperature float64, rng *rand.Rand) []r3.Vec {
	vel := make([]r3.Vec, n)
	if n == 0 || temperature == 0 {
		return vel
	}

	sd := math.Sqrt(kB * temperature / mass)
	comps := [3][]float64{make([]float64, n), make([]float64, n), make([]float64, n)}
	for i := 0; i < n; i++ {
		for d := range comps {
			comps[d][i] = sd * rng.NormFloat64()
		}
	}

	sumSq := 0.0
	for d := range comps {
		floats.AddConst(-stat.Mean(comps[d], nil), comps[d])
		sumSq += floats.Dot(comps[d], comps[d])
	}
	if sumSq == 0 {
		return vel
	}

	// 0.5·m·Σv² = 1.5·n·kB·T
	scale := math.Sqrt(3 * float64(n) * kB * temperature / (mass * sumSq))
	for d := range comps {
		floats.Scale(scale, comps[d])
	}

	for i := range vel {
		vel[i] = r3.Vec{X: comps[0][i], Y: comps[1][i], Z: comps[2][i]}
	}
	return vel
}
