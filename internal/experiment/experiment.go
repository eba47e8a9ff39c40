package experiment

import (
	"context"
	"fmt"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/san-kum/mdsim/internal/analysis"
	"github.com/san-kum/mdsim/internal/config"
	"github.com/san-kum/mdsim/internal/dynamo"
	"github.com/san-kum/mdsim/internal/integrators"
	"github.com/san-kum/mdsim/internal/physics"
	"github.com/san-kum/mdsim/internal/setup"
	"github.com/san-kum/mdsim/internal/sim"
	"github.com/san-kum/mdsim/internal/storage"
	"golang.org/x/exp/rand"
)

type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	system    *dynamo.System
	evaluator *physics.ForceEvaluator
	simulator *sim.Simulator
	rdf       *analysis.RDF
	msd       *analysis.MSD
	vacf      *analysis.VACF
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{
		cfg:      cfg,
		registry: NewRegistry(),
	}
}

// Setup validates the configuration and builds the initial state, force
// evaluator, integrator, thermostat, metrics and samplers.
func (e *Experiment) Setup(logger kitlog.Logger) error {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	e.cfg.LogWarnings(logger)

	rng := rand.New(rand.NewSource(e.cfg.Seed))
	e.system = setup.NewSystem(e.cfg, rng)

	kernel := physics.NewLennardJones(e.cfg.Sigma, e.cfg.Epsilon, e.cfg.Cutoff)
	e.evaluator = physics.NewForceEvaluator(e.system.Box, kernel, physics.WithWorkers(e.cfg.Workers))

	thermo, err := e.registry.GetThermostat(e.cfg.Thermostat.Kind, e.cfg, rng)
	if err != nil {
		return err
	}

	e.simulator = sim.New(e.evaluator, integrators.NewVelocityVerlet(), thermo, sim.WithLogger(logger))
	for _, m := range e.registry.DefaultMetrics(e.cfg) {
		e.simulator.AddMetric(m)
	}

	if e.cfg.Sampling.Window > 0 {
		e.rdf = analysis.NewRDF(e.cfg.Sampling.Bins, e.system.Box)
		e.msd = analysis.NewMSD()
		e.vacf = analysis.NewVACF()
		e.simulator.AddSampler(e.rdf)
		e.simulator.AddSampler(e.msd)
		e.simulator.AddSampler(e.vacf)
	}

	logger.Log("level", "info", "subsys", "experiment", "particles", e.system.N(), "box", e.system.Box,
		"cells", e.evaluator.Grid().PerAxis, "thermostat", thermo.Name(), "workers", e.evaluator.Workers())
	return nil
}

func (e *Experiment) SimConfig() sim.Config {
	return sim.Config{
		Dt:           e.cfg.Dt,
		Steps:        e.cfg.Steps,
		SampleWindow: e.cfg.Sampling.Window,
		SampleEvery:  e.cfg.Sampling.Every,
		LogEvery:     e.cfg.LogEvery,
	}
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.system, e.SimConfig())
}

// Metadata describes the run for storage.
func (e *Experiment) Metadata(preset string) storage.RunMetadata {
	meta := storage.RunMetadata{
		Preset:     preset,
		Timestamp:  time.Now(),
		Seed:       e.cfg.Seed,
		Particles:  e.cfg.Particles,
		Density:    e.cfg.Density,
		Mass:       e.cfg.Mass,
		Box:        e.cfg.BoxLength(),
		Cutoff:     e.cfg.Cutoff,
		Dt:         e.cfg.Dt,
		Steps:      e.cfg.Steps,
		Thermostat: e.cfg.ThermostatKind(),
		Target:     e.cfg.Temperature,
		Workers:    e.cfg.Workers,
	}
	return meta
}

// Factory builds independent replicas of this experiment that differ only
// in their seed.
func (e *Experiment) Factory(logger kitlog.Logger) sim.Factory {
	return func(seed uint64) (*sim.Simulator, *dynamo.System, error) {
		cfg := *e.cfg
		cfg.Seed = seed
		cfg.Sampling.Window = 0
		replica := New(&cfg)
		if err := replica.Setup(kitlog.With(logger, "seed", seed)); err != nil {
			return nil, nil, err
		}
		return replica.simulator, replica.system, nil
	}
}

func (e *Experiment) Config() *config.Config { return e.cfg }

func (e *Experiment) System() *dynamo.System { return e.system }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator { return e.simulator }

func (e *Experiment) RDF() *analysis.RDF   { return e.rdf }
func (e *Experiment) MSD() *analysis.MSD   { return e.msd }
func (e *Experiment) VACF() *analysis.VACF { return e.vacf }
