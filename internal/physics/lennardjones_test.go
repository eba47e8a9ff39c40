package physics

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LennardJones", func() {
	DescribeTable("vanishes exactly at the cutoff",
		func(sigma, epsilon, cutoff float64) {
			lj := NewLennardJones(sigma, epsilon, cutoff)
			Expect(lj.Potential(cutoff)).To(Equal(0.0))
		},
		Entry("reduced units", 1.0, 1.0, 2.5),
		Entry("short cutoff", 1.0, 1.0, 1.12),
		Entry("argon-like", 3.405, 0.996, 8.5),
		Entry("odd parameters", 0.73, 13.1, 1.9),
	)

	It("reports no interaction at or beyond the cutoff", func() {
		lj := NewLennardJones(1, 1, 2.5)
		_, _, ok := lj.Eval(2.5 * 2.5)
		Expect(ok).To(BeFalse())
		_, _, ok = lj.Eval(9)
		Expect(ok).To(BeFalse())
	})

	It("treats overlapping particles as non-interacting", func() {
		lj := NewLennardJones(1, 1, 2.5)
		_, _, ok := lj.Eval(0)
		Expect(ok).To(BeFalse())
		_, _, ok = lj.Eval(1e-25)
		Expect(ok).To(BeFalse())
	})

	It("changes force sign at 2^(1/6) sigma", func() {
		lj := NewLennardJones(1, 1, 2.5)
		rmin := lj.MinimumEnergyDistance()
		Expect(lj.Force(rmin)).To(BeNumerically("~", 0, 1e-12))
		Expect(lj.Force(0.95 * rmin)).To(BeNumerically(">", 0))
		Expect(lj.Force(1.05 * rmin)).To(BeNumerically("<", 0))
	})

	It("matches the numerical derivative of the potential", func() {
		lj := NewLennardJones(1.1, 0.8, 3)
		for _, r := range []float64{0.9, 1.1, 1.5, 2.2, 2.9} {
			h := 1e-6
			dv := (lj.Potential(r+h) - lj.Potential(r-h)) / (2 * h)
			Expect(lj.Force(r)).To(BeNumerically("~", -dv, 1e-5*math.Max(1, math.Abs(dv))))
		}
	})

	It("returns the shifted potential and force from Eval", func() {
		lj := NewLennardJones(1, 1, 2.5)
		v, f, ok := lj.Eval(1.44)
		Expect(ok).To(BeTrue())
		Expect(v).To(BeNumerically("~", lj.Potential(1.2), 1e-12))
		Expect(f).To(BeNumerically("~", lj.Force(1.2), 1e-12))
	})
})
