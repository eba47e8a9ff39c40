// Package dynamo provides the core types shared by the molecular-dynamics engine.
//
// The package defines the state and the collaborator interfaces that the
// engine is assembled from:
//
//   - [System]: positions, velocities, box length and particle mass
//   - [ForceField]: computes per-particle forces and the potential energy
//   - [Integrator]: advances a [System] by one time step
//   - [Thermostat]: steers velocities toward a target temperature
//   - [Metric], [Observer], [Sampler]: consumers of per-step output
//
// # Example
//
//	ff := physics.NewForceEvaluator(sys.Box, physics.NewLennardJones(1, 1, 2.5))
//	integ := integrators.NewVelocityVerlet()
//	s := sim.New(ff, integ, thermostat.NewNone())
//	result, err := s.Run(ctx, sys, cfg)
//
// # Errors
//
// Numerical faults (non-finite forces, energies or temperatures) are
// reported as [*NumericalFault], which wraps [ErrNumericalFault].
//
// # Thread Safety
//
// A [System] is owned by a single simulation. For independent replicas use
// sim.Ensemble, which gives every run its own state.
package dynamo
