// Package thermostat provides velocity-coupling schemes that steer the
// instantaneous temperature of a [dynamo.System] toward a target.
//
// Thermostats implement [dynamo.Thermostat] and are applied after each
// completed integration step:
//
//   - [None]: microcanonical, velocities unchanged
//   - [Berendsen]: weak-coupling velocity rescale with relaxation time τ
//   - [Langevin]: friction plus Gaussian noise with coefficient γ
//
// # Usage
//
//	rng := rand.New(rand.NewSource(seed))
//	th := thermostat.NewLangevin(1.0, 0.5, rng) // target T, gamma
//	err := th.Apply(sys, rec.Temperature, dt)
//
// [Langevin] draws from the injected generator only, so runs are
// reproducible from their seed. Thermostats implementing
// [dynamo.Configurable] support live tuning.
package thermostat
