// Package setup generates initial conditions: particles on a face-centred
// cubic lattice with Maxwell-Boltzmann velocities.
package setup

import (
	"math"

	"github.com/san-kum/mdsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

var fccBasis = [4]r3.Vec{
	{X: 0, Y: 0, Z: 0},
	{X: 0.5, Y: 0.5, Z: 0},
	{X: 0.5, Y: 0, Z: 0.5},
	{X: 0, Y: 0.5, Z: 0.5},
}

// FCCCells returns the smallest k with 4k³ ≥ n.
func FCCCells(n int) int {
	k := int(math.Ceil(math.Cbrt(float64(n) / 4)))
	for 4*k*k*k < n {
		k++
	}
	for k > 1 && 4*(k-1)*(k-1)*(k-1) >= n {
		k--
	}
	if k < 1 {
		k = 1
	}
	return k
}

// FCCLattice fills the first n sites of a k×k×k FCC lattice spanning the
// box, offset by a quarter lattice constant so no site sits on a face.
func FCCLattice(n int, box float64) []r3.Vec {
	k := FCCCells(n)
	a := box / float64(k)
	offset := r3.Vec{X: 0.25, Y: 0.25, Z: 0.25}

	pos := make([]r3.Vec, 0, n)
	for ix := 0; ix < k; ix++ {
		for iy := 0; iy < k; iy++ {
			for iz := 0; iz < k; iz++ {
				corner := r3.Vec{X: float64(ix), Y: float64(iy), Z: float64(iz)}
				for _, b := range fccBasis {
					if len(pos) == n {
						return pos
					}
					site := r3.Scale(a, r3.Add(r3.Add(corner, b), offset))
					pos = append(pos, dynamo.WrapVec(site, box))
				}
			}
		}
	}
	return pos
}
