// Package analysis provides structural and dynamical samplers for
// particle trajectories.
//
// Every analyser implements [dynamo.Sampler] and accumulates over the
// frames it is handed:
//
//   - [RDF]: radial distribution function g(r) up to half the box
//   - [MSD]: mean-squared displacement from unwrapped positions
//   - [VACF]: normalised velocity autocorrelation and its spectrum
//
// # Usage
//
//	rdf := analysis.NewRDF(100, sys.Box)
//	simulator.AddSampler(rdf)
//	// after the run
//	r, g := rdf.Result()
//
// All analysers assume a cubic periodic box and use minimum-image
// separations.
package analysis
