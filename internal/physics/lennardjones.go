package physics

import "math"

// MinSeparation is the distance at or below which a pair is treated as
// overlapping and skipped.
const MinSeparation = 1e-12

// LennardJones is the 12-6 potential truncated at Cutoff and shifted so
// that it vanishes there.
type LennardJones struct {
	Sigma, Epsilon, Cutoff float64
	cut2                   float64
	shift                  float64
}

func NewLennardJones(sigma, epsilon, cutoff float64) LennardJones {
	lj := LennardJones{Sigma: sigma, Epsilon: epsilon, Cutoff: cutoff, cut2: cutoff * cutoff}
	lj.shift = lj.raw(cutoff)
	return lj
}

// raw is the unshifted potential. The shift goes through the same path.
func (lj LennardJones) raw(r float64) float64 {
	sr := lj.Sigma / r
	sr6 := sr * sr * sr
	sr6 *= sr6
	return 4 * lj.Epsilon * (sr6*sr6 - sr6)
}

// Potential returns V(r) - V(rc).
func (lj LennardJones) Potential(r float64) float64 {
	return lj.raw(r) - lj.shift
}

// Force returns the radial force magnitude -dV/dr; positive is repulsive.
func (lj LennardJones) Force(r float64) float64 {
	sr := lj.Sigma / r
	sr6 := sr * sr * sr
	sr6 *= sr6
	return 24 * lj.Epsilon * (2*sr6*sr6 - sr6) / r
}

// Eval returns the potential and force magnitude for a squared separation.
// ok is false outside the cutoff or for a degenerate overlap.
func (lj LennardJones) Eval(r2 float64) (potential, force float64, ok bool) {
	potential, force, _, ok = lj.eval(r2)
	return potential, force, ok
}

func (lj LennardJones) eval(r2 float64) (potential, force, r float64, ok bool) {
	if r2 >= lj.cut2 {
		return 0, 0, 0, false
	}
	r = math.Sqrt(r2)
	if r <= MinSeparation {
		return 0, 0, 0, false
	}
	return lj.Potential(r), lj.Force(r), r, true
}

// MinimumEnergyDistance is 2^(1/6)·σ, where the force changes sign.
func (lj LennardJones) MinimumEnergyDistance() float64 {
	return math.Pow(2, 1.0/6.0) * lj.Sigma
}

func (lj LennardJones) GetParams() map[string]float64 {
	return map[string]float64{"sigma": lj.Sigma, "epsilon": lj.Epsilon, "cutoff": lj.Cutoff}
}
