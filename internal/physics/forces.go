package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/mdsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// neighborOffsets lists the 27 cell offsets {-1,0,1}³, self included.
var neighborOffsets = func() [27][3]int {
	var offs [27][3]int
	k := 0
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				offs[k] = [3]int{dx, dy, dz}
				k++
			}
		}
	}
	return offs
}()

type EvaluatorOption func(*ForceEvaluator)

// WithWorkers partitions the cell loop across n goroutines.
func WithWorkers(n int) EvaluatorOption {
	return func(e *ForceEvaluator) {
		if n < 1 {
			n = 1
		}
		e.workers = n
	}
}

// ForceEvaluator computes Lennard-Jones forces in a periodic cube of side
// Box using a linked-cell grid.
type ForceEvaluator struct {
	Kernel  LennardJones
	Box     float64
	workers int
	grid    *CellGrid
	pool    bufferPool
}

func NewForceEvaluator(box float64, kernel LennardJones, opts ...EvaluatorOption) *ForceEvaluator {
	e := &ForceEvaluator{
		Kernel:  kernel,
		Box:     box,
		workers: 1,
		grid:    NewCellGrid(box, kernel.Cutoff),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *ForceEvaluator) Workers() int { return e.workers }

// Grid returns the grid built by the most recent Compute call.
func (e *ForceEvaluator) Grid() *CellGrid { return e.grid }

// Compute zeroes forces, rebuilds the cell grid from pos and accumulates
// the force on every particle. It returns the total potential energy.
func (e *ForceEvaluator) Compute(pos []r3.Vec, forces []r3.Vec) (float64, error) {
	if len(forces) != len(pos) {
		return 0, fmt.Errorf("%w: %d positions, %d forces", dynamo.ErrDimensionMismatch, len(pos), len(forces))
	}
	for i := range forces {
		forces[i] = r3.Vec{}
	}

	e.grid.Build(pos)

	var potential float64
	if e.workers <= 1 {
		potential = e.accumulate(pos, forces, 0, e.grid.NumCells())
	} else {
		var err error
		potential, err = e.computeParallel(pos, forces)
		if err != nil {
			return 0, err
		}
	}

	return potential, e.check(potential, forces)
}

func (e *ForceEvaluator) computeParallel(pos, forces []r3.Vec) (float64, error) {
	bufs := make([][]r3.Vec, e.workers)
	pots := make([]float64, e.workers)

	err := dynamo.ParallelFor(e.grid.NumCells(), e.workers, func(w, start, end int) error {
		buf := e.pool.Get(len(pos))
		pots[w] = e.accumulate(pos, buf, start, end)
		bufs[w] = buf
		return nil
	})
	if err != nil {
		return 0, err
	}

	potential := 0.0
	for w, buf := range bufs {
		if buf == nil {
			continue
		}
		for i := range forces {
			forces[i] = r3.Add(forces[i], buf[i])
		}
		potential += pots[w]
		e.pool.Put(buf)
	}
	return potential, nil
}

// accumulate visits cells [start, end). A pair is taken only from its
// lower index, which keeps every unordered pair and periodic image unique.
func (e *ForceEvaluator) accumulate(pos, forces []r3.Vec, start, end int) float64 {
	g := e.grid
	potential := 0.0

	for c := start; c < end; c++ {
		cx, cy, cz := g.Unflatten(c)

		for i := g.Head[c]; i != Empty; i = g.Next[i] {
			pi := pos[i]

			for _, off := range neighborOffsets {
				nx, sx := g.neighbor(cx + off[0])
				ny, sy := g.neighbor(cy + off[1])
				nz, sz := g.neighbor(cz + off[2])
				nc := g.Flatten(nx, ny, nz)
				shift := r3.Vec{X: sx, Y: sy, Z: sz}

				for j := g.Head[nc]; j != Empty; j = g.Next[j] {
					if j <= i {
						continue
					}

					d := r3.Sub(pi, r3.Add(pos[j], shift))
					v, f, r, ok := e.Kernel.eval(r3.Norm2(d))
					if !ok {
						continue
					}

					potential += v
					fv := r3.Scale(f/r, d)
					forces[i] = r3.Add(forces[i], fv)
					forces[j] = r3.Sub(forces[j], fv)
				}
			}
		}
	}

	return potential
}

func (e *ForceEvaluator) check(potential float64, forces []r3.Vec) error {
	if math.IsNaN(potential) || math.IsInf(potential, 0) {
		return dynamo.Fault(dynamo.QuantityEnergy, -1, potential)
	}
	for i, f := range forces {
		if !dynamo.IsFinite(f) {
			return dynamo.Fault(dynamo.QuantityForce, i, r3.Norm(f))
		}
	}
	return nil
}
