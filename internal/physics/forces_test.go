package physics

import (
	"errors"
	"math"

	"github.com/san-kum/mdsim/internal/dynamo"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ForceEvaluator", func() {
	var lj LennardJones

	BeforeEach(func() {
		lj = NewLennardJones(1, 1, 2.5)
	})

	Describe("the two-particle scenario", func() {
		It("produces an equal and opposite attractive pair past the minimum", func() {
			e := NewForceEvaluator(10, lj)
			pos := []r3.Vec{{X: 1, Y: 5, Z: 5}, {X: 2.2, Y: 5, Z: 5}}
			forces := make([]r3.Vec, 2)

			potential, err := e.Compute(pos, forces)
			Expect(err).NotTo(HaveOccurred())

			// 1.2σ lies beyond 2^(1/6)σ, so the pair pulls together
			Expect(forces[0].X).To(BeNumerically(">", 0))
			Expect(forces[1].X).To(BeNumerically("<", 0))
			Expect(forces[0].X).To(BeNumerically("~", -forces[1].X, 1e-12))
			Expect(forces[0].X).To(BeNumerically("~", -lj.Force(1.2), 1e-9))
			Expect(forces[0].Y).To(BeZero())
			Expect(forces[0].Z).To(BeZero())
			Expect(potential).To(BeNumerically("~", lj.Potential(1.2), 1e-12))
		})

		It("produces an equal and opposite repulsive pair inside the core", func() {
			e := NewForceEvaluator(10, lj)
			pos := []r3.Vec{{X: 1, Y: 5, Z: 5}, {X: 2, Y: 5, Z: 5}}
			forces := make([]r3.Vec, 2)

			potential, err := e.Compute(pos, forces)
			Expect(err).NotTo(HaveOccurred())

			Expect(lj.Force(1.0)).To(BeNumerically(">", 0))
			Expect(forces[0].X).To(BeNumerically("<", 0))
			Expect(forces[1].X).To(BeNumerically(">", 0))
			Expect(forces[0].X).To(BeNumerically("~", -forces[1].X, 1e-12))
			Expect(forces[0].X).To(BeNumerically("~", -lj.Force(1.0), 1e-9))
			Expect(potential).To(BeNumerically("~", lj.Potential(1.0), 1e-12))
		})

		It("finds the pair across the periodic boundary", func() {
			e := NewForceEvaluator(10, lj)
			pos := []r3.Vec{{X: 0.4, Y: 5, Z: 5}, {X: 9.2, Y: 5, Z: 5}}
			forces := make([]r3.Vec, 2)

			potential, err := e.Compute(pos, forces)
			Expect(err).NotTo(HaveOccurred())
			Expect(potential).To(BeNumerically("~", lj.Potential(1.2), 1e-9))
			// particle 0 is pulled toward -x, onto the image of 1 at -0.8
			Expect(forces[0].X).To(BeNumerically("~", lj.Force(1.2), 1e-9))
			Expect(forces[1].X).To(BeNumerically("~", -lj.Force(1.2), 1e-9))
		})
	})

	DescribeTable("a single particle feels nothing",
		func(p r3.Vec, box float64) {
			e := NewForceEvaluator(box, lj)
			forces := []r3.Vec{{X: 7, Y: 7, Z: 7}}
			potential, err := e.Compute([]r3.Vec{p}, forces)
			Expect(err).NotTo(HaveOccurred())
			Expect(potential).To(BeZero())
			Expect(forces[0]).To(Equal(r3.Vec{}))
		},
		Entry("centre", r3.Vec{X: 5, Y: 5, Z: 5}, 10.0),
		Entry("origin", r3.Vec{}, 10.0),
		Entry("single cell box", r3.Vec{X: 1, Y: 0.5, Z: 2.9}, 3.0),
	)

	Describe("the single-cell regime", func() {
		It("counts both images when they are equally far", func() {
			e := NewForceEvaluator(3, NewLennardJones(1, 1, 2.9))
			Expect(e.Grid().PerAxis).To(Equal(1))

			pos := []r3.Vec{{X: 0.5, Y: 1, Z: 1}, {X: 2.0, Y: 1, Z: 1}}
			forces := make([]r3.Vec, 2)
			potential, err := e.Compute(pos, forces)
			Expect(err).NotTo(HaveOccurred())

			Expect(potential).To(BeNumerically("~", 2*e.Kernel.Potential(1.5), 1e-12))
			Expect(forces[0].X).To(BeNumerically("~", 0, 1e-12))
			Expect(forces[1].X).To(BeNumerically("~", 0, 1e-12))
		})

		It("adds the direct and the wrapped image independently", func() {
			k := NewLennardJones(1, 1, 2.9)
			e := NewForceEvaluator(3, k)

			pos := []r3.Vec{{X: 0.5, Y: 1, Z: 1}, {X: 1.5, Y: 1, Z: 1}}
			forces := make([]r3.Vec, 2)
			potential, err := e.Compute(pos, forces)
			Expect(err).NotTo(HaveOccurred())

			Expect(potential).To(BeNumerically("~", k.Potential(1)+k.Potential(2), 1e-12))
			Expect(forces[0].X).To(BeNumerically("~", -k.Force(1)+k.Force(2), 1e-9))
			Expect(forces[1].X).To(BeNumerically("~", k.Force(1)-k.Force(2), 1e-9))
		})

		It("matches the all-image reference on a crowded small box", func() {
			rng := rand.New(rand.NewSource(11))
			k := NewLennardJones(1, 1, 2.2)
			pos := randomPositions(rng, 20, 4, 0.85)

			e := NewForceEvaluator(4, k)
			Expect(e.Grid().PerAxis).To(Equal(1))

			forces := make([]r3.Vec, len(pos))
			potential, err := e.Compute(pos, forces)
			Expect(err).NotTo(HaveOccurred())

			want, wantPot, wantPairs := bruteForce(pos, 4, k)
			Expect(countPairs(e, pos)).To(Equal(wantPairs))
			Expect(potential).To(BeNumerically("~", wantPot, 1e-9*math.Max(1, math.Abs(wantPot))))
			Expect(maxDiff(forces, want)).To(BeNumerically("<", 1e-9*math.Max(1, maxNorm(want))))
		})
	})

	DescribeTable("matches the brute-force pair sum",
		func(n int, box, cutoff float64, seed uint64) {
			rng := rand.New(rand.NewSource(seed))
			k := NewLennardJones(1, 1, cutoff)
			pos := randomPositions(rng, n, box, 0.8)

			e := NewForceEvaluator(box, k)
			forces := make([]r3.Vec, n)
			potential, err := e.Compute(pos, forces)
			Expect(err).NotTo(HaveOccurred())

			want, wantPot, wantPairs := bruteForce(pos, box, k)
			Expect(countPairs(e, pos)).To(Equal(wantPairs))
			Expect(potential).To(BeNumerically("~", wantPot, 1e-9*math.Max(1, math.Abs(wantPot))))
			Expect(maxDiff(forces, want)).To(BeNumerically("<", 1e-9*math.Max(1, maxNorm(want))))
		},
		Entry("four cells per axis", 50, 10.0, 2.5, uint64(1)),
		Entry("three cells per axis", 40, 7.5, 2.5, uint64(2)),
		Entry("two cells per axis", 30, 5.5, 2.5, uint64(3)),
		Entry("one cell per axis", 12, 3.5, 2.5, uint64(4)),
		Entry("cutoff close to the box", 10, 3.0, 2.9, uint64(5)),
		Entry("dilute", 20, 12.0, 1.5, uint64(6)),
	)

	It("obeys Newton's third law", func() {
		rng := rand.New(rand.NewSource(42))
		for trial := 0; trial < 5; trial++ {
			box := 6 + 4*rng.Float64()
			pos := randomPositions(rng, 60, box, 0.8)
			e := NewForceEvaluator(box, lj)
			forces := make([]r3.Vec, len(pos))
			_, err := e.Compute(pos, forces)
			Expect(err).NotTo(HaveOccurred())

			var total r3.Vec
			for _, f := range forces {
				total = r3.Add(total, f)
			}
			Expect(r3.Norm(total)).To(BeNumerically("<", 1e-9*math.Max(1, maxNorm(forces))))
		}
	})

	It("gives the same answer with parallel workers", func() {
		rng := rand.New(rand.NewSource(7))
		pos := randomPositions(rng, 200, 8, 0.8)

		serial := NewForceEvaluator(8, lj)
		parallel := NewForceEvaluator(8, lj, WithWorkers(4))
		Expect(parallel.Workers()).To(Equal(4))

		fs := make([]r3.Vec, len(pos))
		fp := make([]r3.Vec, len(pos))
		ps, err := serial.Compute(pos, fs)
		Expect(err).NotTo(HaveOccurred())

		for round := 0; round < 3; round++ {
			pp, err := parallel.Compute(pos, fp)
			Expect(err).NotTo(HaveOccurred())
			Expect(pp).To(BeNumerically("~", ps, 1e-9*math.Max(1, math.Abs(ps))))
			Expect(maxDiff(fs, fp)).To(BeNumerically("<", 1e-9*math.Max(1, maxNorm(fs))))
		}
	})

	It("zeroes the output buffer on entry", func() {
		e := NewForceEvaluator(10, lj)
		pos := []r3.Vec{{X: 1, Y: 1, Z: 1}, {X: 8, Y: 8, Z: 8}}
		forces := []r3.Vec{{X: 3}, {Y: -2}}
		_, err := e.Compute(pos, forces)
		Expect(err).NotTo(HaveOccurred())
		Expect(forces).To(Equal([]r3.Vec{{}, {}}))
	})

	It("rejects a force buffer of the wrong length", func() {
		e := NewForceEvaluator(10, lj)
		_, err := e.Compute(make([]r3.Vec, 3), make([]r3.Vec, 2))
		Expect(errors.Is(err, dynamo.ErrDimensionMismatch)).To(BeTrue())
	})

	It("reports an overflowing pair as a numerical fault", func() {
		e := NewForceEvaluator(10, NewLennardJones(1e20, 1, 2.5))
		pos := []r3.Vec{{X: 5, Y: 5, Z: 5}, {X: 5 + 1e-6, Y: 5, Z: 5}}
		_, err := e.Compute(pos, make([]r3.Vec, 2))

		Expect(errors.Is(err, dynamo.ErrNumericalFault)).To(BeTrue())
		var fault *dynamo.NumericalFault
		Expect(errors.As(err, &fault)).To(BeTrue())
		Expect(fault.Quantity).To(Or(Equal(dynamo.QuantityEnergy), Equal(dynamo.QuantityForce)))
	})
})
