package integrators

import (
	"errors"

	"github.com/san-kum/mdsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// springField pulls every particle toward Center with stiffness K.
type springField struct {
	Center r3.Vec
	K      float64
	Box    float64
}

func (s *springField) Compute(pos, forces []r3.Vec) (float64, error) {
	potential := 0.0
	for i, p := range pos {
		d := dynamo.MinimumImage(r3.Sub(p, s.Center), s.Box)
		forces[i] = r3.Scale(-s.K, d)
		potential += 0.5 * s.K * r3.Norm2(d)
	}
	return potential, nil
}

// countingField records every Compute call and the positions it saw.
type countingField struct {
	inner forceFunc
	calls int
	seen  [][]r3.Vec
}

type forceFunc func(pos, forces []r3.Vec) (float64, error)

func (c *countingField) Compute(pos, forces []r3.Vec) (float64, error) {
	c.calls++
	snap := make([]r3.Vec, len(pos))
	copy(snap, pos)
	c.seen = append(c.seen, snap)
	if c.inner == nil {
		for i := range forces {
			forces[i] = r3.Vec{}
		}
		return 0, nil
	}
	return c.inner(pos, forces)
}

var errFieldBroken = errors.New("field broken")

type failingField struct {
	after int
	calls int
}

func (f *failingField) Compute(pos, forces []r3.Vec) (float64, error) {
	f.calls++
	if f.calls > f.after {
		return 0, errFieldBroken
	}
	for i := range forces {
		forces[i] = r3.Vec{}
	}
	return 0, nil
}
