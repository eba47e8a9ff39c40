package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Empty marks the end of a cell list.
const Empty = -1

// CellGrid buckets particles into PerAxis³ cubic cells of side Side ≥ cutoff.
// Head[c] is the most recently inserted particle of cell c and Next[i] the
// particle inserted before i into the same cell, so each cell is a singly
// linked list threaded through two flat arrays.
type CellGrid struct {
	Box     float64
	PerAxis int
	Side    float64
	Head    []int
	Next    []int
}

func NewCellGrid(box, cutoff float64) *CellGrid {
	lc := int(math.Floor(box / cutoff))
	if lc < 1 {
		lc = 1
	}
	return &CellGrid{
		Box:     box,
		PerAxis: lc,
		Side:    box / float64(lc),
		Head:    make([]int, lc*lc*lc),
	}
}

func (g *CellGrid) NumCells() int { return len(g.Head) }

func (g *CellGrid) axisCell(x float64) int {
	x = math.Mod(x, g.Box)
	if x < 0 {
		x += g.Box
	}
	c := int(math.Floor(x / g.Side))
	if c < 0 {
		return 0
	}
	if c >= g.PerAxis {
		return g.PerAxis - 1
	}
	return c
}

// CellCoords returns the per-axis cell coordinates of p.
func (g *CellGrid) CellCoords(p r3.Vec) (int, int, int) {
	return g.axisCell(p.X), g.axisCell(p.Y), g.axisCell(p.Z)
}

// CellIndex flattens the cell coordinates of p as mc0·lc² + mc1·lc + mc2.
func (g *CellGrid) CellIndex(p r3.Vec) int {
	cx, cy, cz := g.CellCoords(p)
	return g.Flatten(cx, cy, cz)
}

func (g *CellGrid) Flatten(cx, cy, cz int) int {
	lc := g.PerAxis
	return cx*lc*lc + cy*lc + cz
}

func (g *CellGrid) Unflatten(c int) (int, int, int) {
	lc := g.PerAxis
	return c / (lc * lc), (c / lc) % lc, c % lc
}

// Build discards the previous lists and inserts every particle by
// prepending it to its cell.
func (g *CellGrid) Build(pos []r3.Vec) {
	for c := range g.Head {
		g.Head[c] = Empty
	}
	if cap(g.Next) < len(pos) {
		g.Next = make([]int, len(pos))
	}
	g.Next = g.Next[:len(pos)]

	for i, p := range pos {
		c := g.CellIndex(p)
		g.Next[i] = g.Head[c]
		g.Head[c] = i
	}
}

// ForEach calls fn for every particle in cell c, most recent first.
func (g *CellGrid) ForEach(c int, fn func(i int)) {
	for i := g.Head[c]; i != Empty; i = g.Next[i] {
		fn(i)
	}
}

func (g *CellGrid) Members(c int) []int {
	var out []int
	g.ForEach(c, func(i int) { out = append(out, i) })
	return out
}

// neighbor wraps cell coordinate q = c + d into [0, lc) and returns the
// Cartesian shift that moves the wrapped cell's particles next to c.
func (g *CellGrid) neighbor(q int) (int, float64) {
	switch {
	case q < 0:
		return q + g.PerAxis, -g.Box
	case q >= g.PerAxis:
		return q - g.PerAxis, g.Box
	default:
		return q, 0
	}
}
