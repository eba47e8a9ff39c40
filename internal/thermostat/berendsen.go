package thermostat

import (
	"fmt"
	"math"

	"github.com/san-kum/mdsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Berendsen rescales all velocities by
// λ = sqrt(1 + (dt/τ)(T0/T - 1)) after each step.
type Berendsen struct {
	Target float64
	Tau    float64
}

func NewBerendsen(target, tau float64) *Berendsen {
	return &Berendsen{
		Target: target,
		Tau:    tau,
	}
}

func (b *Berendsen) Name() string { return NameBerendsen }

func (b *Berendsen) Lambda(temperature, dt float64) float64 {
	return math.Sqrt(1 + (dt/b.Tau)*(b.Target/temperature-1))
}

// Apply fails with a temperature fault when the system is at rest or the
// scale factor is not finite.
func (b *Berendsen) Apply(sys *dynamo.System, temperature, dt float64) error {
	if temperature == 0 {
		return dynamo.Fault(dynamo.QuantityTemperature, -1, temperature)
	}
	lambda := b.Lambda(temperature, dt)
	if math.IsNaN(lambda) || math.IsInf(lambda, 0) {
		return dynamo.Fault(dynamo.QuantityTemperature, -1, temperature)
	}
	for i := range sys.Vel {
		sys.Vel[i] = r3.Scale(lambda, sys.Vel[i])
	}
	return nil
}

func (b *Berendsen) GetParams() map[string]float64 {
	return map[string]float64{
		"target": b.Target,
		"tau":    b.Tau,
	}
}

func (b *Berendsen) SetParam(name string, value float64) error {
	switch name {
	case "target":
		if value < 0 {
			return fmt.Errorf("%w: target temperature %g", dynamo.ErrParameterBounds, value)
		}
		b.Target = value
	case "tau":
		if value <= 0 {
			return fmt.Errorf("%w: tau %g", dynamo.ErrParameterBounds, value)
		}
		b.Tau = value
	default:
		return fmt.Errorf("unknown parameter: %s", name)
	}
	return nil
}
