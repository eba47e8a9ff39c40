package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrNumericalFault indicates a non-finite force, energy or temperature.
	ErrNumericalFault = errors.New("dynamo: numerical fault")

	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrDimensionMismatch indicates mismatched buffer lengths.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between buffers")
)

// Quantities reported by NumericalFault.
const (
	QuantityForce       = "force"
	QuantityEnergy      = "energy"
	QuantityTemperature = "temperature"
)

// NumericalFault describes where a run produced a non-finite value.
// Step is -1 until the simulation loop attaches the step index; Particle is
// -1 when the quantity is not per-particle.
type NumericalFault struct {
	Step     int
	Quantity string
	Particle int
	Value    float64
}

// Fault returns a NumericalFault with no step attached yet.
func Fault(quantity string, particle int, value float64) *NumericalFault {
	return &NumericalFault{Step: -1, Quantity: quantity, Particle: particle, Value: value}
}

func (e *NumericalFault) Error() string {
	where := ""
	if e.Step >= 0 {
		where = fmt.Sprintf(" at step %d", e.Step)
	}
	if e.Particle >= 0 {
		return fmt.Sprintf("dynamo: numerical fault%s: %s on particle %d is %g", where, e.Quantity, e.Particle, e.Value)
	}
	return fmt.Sprintf("dynamo: numerical fault%s: %s is %g", where, e.Quantity, e.Value)
}

func (e *NumericalFault) Unwrap() error {
	return ErrNumericalFault
}
