package integrators

import (
	"github.com/san-kum/mdsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// VelocityVerlet is the kick-drift-kick scheme. Forces are evaluated at
// the start of every step and again after the drift.
type VelocityVerlet struct {
	forces []r3.Vec
}

func NewVelocityVerlet() *VelocityVerlet {
	return &VelocityVerlet{}
}

func (v *VelocityVerlet) ensureScratch(n int) {
	if len(v.forces) != n {
		v.forces = make([]r3.Vec, n)
	}
}

// Forces returns the buffer holding the forces at the end of the last step.
func (v *VelocityVerlet) Forces() []r3.Vec { return v.forces }

func (v *VelocityVerlet) Step(ff dynamo.ForceField, sys *dynamo.System, dt float64) (dynamo.StepRecord, error) {
	v.ensureScratch(sys.N())

	if _, err := ff.Compute(sys.Pos, v.forces); err != nil {
		return dynamo.StepRecord{}, err
	}
	v.kick(sys, 0.5*dt)

	for i := range sys.Pos {
		sys.Pos[i] = dynamo.WrapVec(r3.Add(sys.Pos[i], r3.Scale(dt, sys.Vel[i])), sys.Box)
	}

	potential, err := ff.Compute(sys.Pos, v.forces)
	if err != nil {
		return dynamo.StepRecord{}, err
	}
	v.kick(sys, 0.5*dt)

	ke := sys.KineticEnergy()
	return dynamo.StepRecord{
		Kinetic:     ke,
		Potential:   potential,
		Temperature: dynamo.Temperature(ke, sys.DegreesOfFreedom(), sys.KB),
	}, nil
}

func (v *VelocityVerlet) kick(sys *dynamo.System, h float64) {
	scale := h / sys.Mass
	for i := range sys.Vel {
		sys.Vel[i] = r3.Add(sys.Vel[i], r3.Scale(scale, v.forces[i]))
	}
}
