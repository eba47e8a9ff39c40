package physics

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CellGrid", func() {
	It("sizes cells to the cutoff", func() {
		g := NewCellGrid(10, 2.5)
		Expect(g.PerAxis).To(Equal(4))
		Expect(g.Side).To(BeNumerically("~", 2.5, 1e-12))
		Expect(g.NumCells()).To(Equal(64))

		g = NewCellGrid(10, 3)
		Expect(g.PerAxis).To(Equal(3))
		Expect(g.Side).To(BeNumerically("~", 10.0/3.0, 1e-12))
	})

	It("falls back to a single cell when the cutoff exceeds the box", func() {
		g := NewCellGrid(2, 2.5)
		Expect(g.PerAxis).To(Equal(1))
		Expect(g.Side).To(Equal(2.0))
		Expect(g.CellIndex(r3.Vec{X: 1.9, Y: 0.1, Z: 1})).To(Equal(0))
	})

	It("flattens cell coordinates as mc0·lc² + mc1·lc + mc2", func() {
		g := NewCellGrid(10, 2.5)
		Expect(g.CellIndex(r3.Vec{X: 0.1, Y: 0.1, Z: 0.1})).To(Equal(0))
		Expect(g.CellIndex(r3.Vec{X: 2.6, Y: 5.1, Z: 9.9})).To(Equal(1*16 + 2*4 + 3))

		for c := 0; c < g.NumCells(); c++ {
			cx, cy, cz := g.Unflatten(c)
			Expect(g.Flatten(cx, cy, cz)).To(Equal(c))
		}
	})

	It("wraps positions outside the box before bucketing", func() {
		g := NewCellGrid(10, 2.5)
		Expect(g.CellIndex(r3.Vec{X: -0.1, Y: 10.1, Z: 20.3})).To(Equal(g.CellIndex(r3.Vec{X: 9.9, Y: 0.1, Z: 0.3})))
	})

	It("keeps coordinates just below the upper edge in the last cell", func() {
		g := NewCellGrid(10, 3)
		cx, cy, cz := g.CellCoords(r3.Vec{X: 9.999999999999998, Y: 10 - 1e-15, Z: 0})
		Expect(cx).To(Equal(2))
		Expect(cy).To(Equal(2))
		Expect(cz).To(Equal(0))
	})

	DescribeTable("partitions every particle into exactly one cell",
		func(n int, box, cutoff float64, seed uint64) {
			rng := rand.New(rand.NewSource(seed))
			pos := make([]r3.Vec, n)
			for i := range pos {
				pos[i] = r3.Vec{X: rng.Float64() * box, Y: rng.Float64() * box, Z: rng.Float64() * box}
			}

			g := NewCellGrid(box, cutoff)
			g.Build(pos)

			seen := make(map[int]int)
			for c := 0; c < g.NumCells(); c++ {
				for _, i := range g.Members(c) {
					seen[i]++
					Expect(g.CellIndex(pos[i])).To(Equal(c))
				}
			}
			Expect(seen).To(HaveLen(n))
			for i := 0; i < n; i++ {
				Expect(seen[i]).To(Equal(1), "particle %d", i)
			}
		},
		Entry("many cells", 500, 10.0, 2.5, uint64(1)),
		Entry("three per axis", 100, 7.5, 2.5, uint64(2)),
		Entry("single cell", 40, 2.0, 2.5, uint64(3)),
		Entry("sparse", 5, 20.0, 1.0, uint64(4)),
		Entry("empty", 0, 10.0, 2.5, uint64(5)),
	)

	It("rebuilds from scratch on every call", func() {
		g := NewCellGrid(10, 2.5)
		g.Build([]r3.Vec{{X: 1, Y: 1, Z: 1}, {X: 9, Y: 9, Z: 9}, {X: 1.2, Y: 1.1, Z: 1}})
		Expect(g.Members(0)).To(Equal([]int{2, 0}))

		g.Build([]r3.Vec{{X: 9, Y: 9, Z: 9}})
		Expect(g.Members(0)).To(BeEmpty())
		Expect(g.Next).To(HaveLen(1))
		Expect(g.Members(g.NumCells() - 1)).To(Equal([]int{0}))
	})
})
