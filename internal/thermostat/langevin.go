package thermostat

import (
	"fmt"
	"math"

	"github.com/san-kum/mdsim/internal/dynamo"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"
)

// Langevin applies v' = c1·v + c2·ξ with c1 = exp(-γ·dt),
// c2 = sqrt((1-c1²)·kB·T0/m) and ξ standard normal per component.
type Langevin struct {
	Target float64
	Gamma  float64
	rng    *rand.Rand
}

func NewLangevin(target, gamma float64, rng *rand.Rand) *Langevin {
	return &Langevin{
		Target: target,
		Gamma:  gamma,
		rng:    rng,
	}
}

func (l *Langevin) Name() string { return NameLangevin }

// Coefficients returns c1 and c2 for the given step and system.
func (l *Langevin) Coefficients(sys *dynamo.System, dt float64) (float64, float64) {
	c1 := math.Exp(-l.Gamma * dt)
	c2 := math.Sqrt((1 - c1*c1) * sys.KB * l.Target / sys.Mass)
	return c1, c2
}

// Apply ignores the measured temperature; the noise alone sets it.
func (l *Langevin) Apply(sys *dynamo.System, temperature, dt float64) error {
	c1, c2 := l.Coefficients(sys, dt)
	if math.IsNaN(c2) || math.IsInf(c2, 0) {
		return dynamo.Fault(dynamo.QuantityTemperature, -1, l.Target)
	}
	for i, v := range sys.Vel {
		xi := r3.Vec{X: l.rng.NormFloat64(), Y: l.rng.NormFloat64(), Z: l.rng.NormFloat64()}
		sys.Vel[i] = r3.Add(r3.Scale(c1, v), r3.Scale(c2, xi))
	}
	return nil
}

func (l *Langevin) GetParams() map[string]float64 {
	return map[string]float64{
		"target": l.Target,
		"gamma":  l.Gamma,
	}
}

func (l *Langevin) SetParam(name string, value float64) error {
	switch name {
	case "target":
		if value < 0 {
			return fmt.Errorf("%w: target temperature %g", dynamo.ErrParameterBounds, value)
		}
		l.Target = value
	case "gamma":
		if value < 0 {
			return fmt.Errorf("%w: gamma %g", dynamo.ErrParameterBounds, value)
		}
		l.Gamma = value
	default:
		return fmt.Errorf("unknown parameter: %s", name)
	}
	return nil
}
