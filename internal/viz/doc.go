// Package viz renders a running Lennard-Jones simulation in the terminal.
//
// [Model] is a Bubble Tea model that advances an experiment a few steps
// per tick and draws:
//
//   - the periodic box and its particles projected onto a braille [Canvas]
//   - temperature and total energy histories as asciigraph charts
//   - the current step record and the thermostat target
//
// [Picker] lists the built-in presets and opens a [Model] for the one
// chosen.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Rebuild the experiment from its seed
//	Up/K  - Raise the target temperature by 5%
//	Down/J - Lower the target temperature by 5%
//	T     - Cycle color themes
//	x/y   - Rotate the box, X/Y rotate back
//	+/-   - Zoom
//	Q     - Quit
package viz
