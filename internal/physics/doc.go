// Package physics implements the short-ranged pair interaction of the engine.
//
// The package is built from three pieces:
//
//   - [LennardJones]: truncated-and-shifted 12-6 pair kernel
//   - [CellGrid]: linked-cell spatial decomposition rebuilt on every call
//   - [ForceEvaluator]: periodic force and potential evaluation over the grid
//
// [ForceEvaluator] implements [dynamo.ForceField]:
//
//	ff := physics.NewForceEvaluator(box, physics.NewLennardJones(1, 1, 2.5))
//	potential, err := ff.Compute(sys.Pos, forces)
//
// # Periodic images
//
// Every cell is paired with its 26 neighbours plus itself, with wraparound
// on the cell coordinates and the matching shift of ±L applied to the
// neighbour's positions. When the box holds a single cell per axis all 27
// offsets are distinct periodic images and all of them are visited.
//
// # Parallelism
//
// With [WithWorkers] the cell loop is split across goroutines, each with a
// private force buffer that is reduced once all workers finish.
package physics
