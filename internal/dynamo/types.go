package dynamo

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Dimensions is the spatial dimensionality of the force and cell logic.
const Dimensions = 3

// System is the working state of a periodic particle ensemble: a cube of
// side Box with every position kept in [0, Box).
type System struct {
	Box  float64
	Mass float64
	KB   float64
	Pos  []r3.Vec
	Vel  []r3.Vec
}

func NewSystem(box, mass, kB float64, pos, vel []r3.Vec) *System {
	if vel == nil {
		vel = make([]r3.Vec, len(pos))
	}
	return &System{Box: box, Mass: mass, KB: kB, Pos: pos, Vel: vel}
}

func (s *System) N() int { return len(s.Pos) }

func (s *System) DegreesOfFreedom() int { return Dimensions * len(s.Pos) }

// KineticEnergy returns 0.5·m·Σ‖v‖².
func (s *System) KineticEnergy() float64 {
	sum := 0.0
	for _, v := range s.Vel {
		sum += r3.Norm2(v)
	}
	return 0.5 * s.Mass * sum
}

func (s *System) Temperature() float64 {
	return Temperature(s.KineticEnergy(), s.DegreesOfFreedom(), s.KB)
}

// Momentum returns the total linear momentum.
func (s *System) Momentum() r3.Vec {
	var p r3.Vec
	for _, v := range s.Vel {
		p = r3.Add(p, v)
	}
	return r3.Scale(s.Mass, p)
}

// Wrap maps every position back into [0, Box).
func (s *System) Wrap() {
	for i, p := range s.Pos {
		s.Pos[i] = WrapVec(p, s.Box)
	}
}

func (s *System) Clone() *System {
	c := &System{
		Box:  s.Box,
		Mass: s.Mass,
		KB:   s.KB,
		Pos:  make([]r3.Vec, len(s.Pos)),
		Vel:  make([]r3.Vec, len(s.Vel)),
	}
	copy(c.Pos, s.Pos)
	copy(c.Vel, s.Vel)
	return c
}

func (s *System) IsValid() bool {
	for i := range s.Pos {
		if !IsFinite(s.Pos[i]) {
			return false
		}
	}
	for i := range s.Vel {
		if !IsFinite(s.Vel[i]) {
			return false
		}
	}
	return true
}

// Temperature converts a kinetic energy into an instantaneous temperature,
// T = 2·KE / (dof·kB).
func Temperature(kinetic float64, dof int, kB float64) float64 {
	if dof == 0 {
		return 0
	}
	return 2 * kinetic / (float64(dof) * kB)
}

// WrapCoord maps x into [0, box).
func WrapCoord(x, box float64) float64 {
	x = math.Mod(x, box)
	if x < 0 {
		x += box
	}
	// -tiny + box rounds to box
	if x >= box {
		x -= box
	}
	return x
}

func WrapVec(p r3.Vec, box float64) r3.Vec {
	return r3.Vec{X: WrapCoord(p.X, box), Y: WrapCoord(p.Y, box), Z: WrapCoord(p.Z, box)}
}

// MinimumImage returns the periodic displacement of d with every component
// in [-box/2, box/2].
func MinimumImage(d r3.Vec, box float64) r3.Vec {
	return r3.Vec{
		X: d.X - box*math.Round(d.X/box),
		Y: d.Y - box*math.Round(d.Y/box),
		Z: d.Z - box*math.Round(d.Z/box),
	}
}

func IsFinite(v r3.Vec) bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// StepRecord is the per-step output of an integrator.
type StepRecord struct {
	Step        int
	Time        float64
	Kinetic     float64
	Potential   float64
	Temperature float64
}

func (r StepRecord) Total() float64 { return r.Kinetic + r.Potential }

// ForceField fills forces (zeroed at entry) for the given positions and
// returns the total potential energy.
type ForceField interface {
	Compute(pos []r3.Vec, forces []r3.Vec) (float64, error)
}

type Integrator interface {
	Step(ff ForceField, sys *System, dt float64) (StepRecord, error)
}

// Thermostat adjusts velocities after a completed step. temperature is the
// instantaneous temperature measured for that step.
type Thermostat interface {
	Name() string
	Apply(sys *System, temperature, dt float64) error
}

type Metric interface {
	Name() string
	Observe(rec StepRecord, sys *System)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(rec StepRecord, sys *System)
}

// Sampler receives the current configuration during the sampling window.
type Sampler interface {
	Sample(step int, sys *System)
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}
