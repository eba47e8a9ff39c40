package physics

import (
	"math"

	"github.com/san-kum/mdsim/internal/dynamo"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"
)

// randomPositions places n particles uniformly in the box, rejecting any
// closer than minDist (minimum image) to an earlier one.
func randomPositions(rng *rand.Rand, n int, box, minDist float64) []r3.Vec {
	pos := make([]r3.Vec, 0, n)
	for len(pos) < n {
		p := r3.Vec{X: rng.Float64() * box, Y: rng.Float64() * box, Z: rng.Float64() * box}
		ok := true
		for _, q := range pos {
			if r3.Norm(dynamo.MinimumImage(r3.Sub(p, q), box)) < minDist {
				ok = false
				break
			}
		}
		if ok {
			pos = append(pos, p)
		}
	}
	return pos
}

// bruteForce sums every pair i<j over all 27 periodic images. For
// cutoff ≤ box no farther image can be in range.
func bruteForce(pos []r3.Vec, box float64, lj LennardJones) ([]r3.Vec, float64, int) {
	forces := make([]r3.Vec, len(pos))
	potential := 0.0
	pairs := 0
	for i := range pos {
		for j := i + 1; j < len(pos); j++ {
			for _, off := range neighborOffsets {
				shift := r3.Vec{X: float64(off[0]) * box, Y: float64(off[1]) * box, Z: float64(off[2]) * box}
				d := r3.Sub(pos[i], r3.Add(pos[j], shift))
				v, f, ok := lj.Eval(r3.Norm2(d))
				if !ok {
					continue
				}
				pairs++
				potential += v
				fv := r3.Scale(f/r3.Norm(d), d)
				forces[i] = r3.Add(forces[i], fv)
				forces[j] = r3.Sub(forces[j], fv)
			}
		}
	}
	return forces, potential, pairs
}

// countPairs returns the number of pair/image interactions the
// evaluator accepts for pos.
func countPairs(e *ForceEvaluator, pos []r3.Vec) int {
	g := e.Grid()
	g.Build(pos)
	count := 0
	for c := 0; c < g.NumCells(); c++ {
		cx, cy, cz := g.Unflatten(c)
		g.ForEach(c, func(i int) {
			for _, off := range neighborOffsets {
				nx, sx := g.neighbor(cx + off[0])
				ny, sy := g.neighbor(cy + off[1])
				nz, sz := g.neighbor(cz + off[2])
				shift := r3.Vec{X: sx, Y: sy, Z: sz}
				g.ForEach(g.Flatten(nx, ny, nz), func(j int) {
					if j <= i {
						return
					}
					if _, _, ok := e.Kernel.Eval(r3.Norm2(r3.Sub(pos[i], r3.Add(pos[j], shift)))); ok {
						count++
					}
				})
			}
		})
	}
	return count
}

func maxDiff(a, b []r3.Vec) float64 {
	m := 0.0
	for i := range a {
		m = math.Max(m, r3.Norm(r3.Sub(a[i], b[i])))
	}
	return m
}

func maxNorm(a []r3.Vec) float64 {
	m := 0.0
	for i := range a {
		m = math.Max(m, r3.Norm(a[i]))
	}
	return m
}
