package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/san-kum/mdsim/internal/dynamo"
)

type Option func(*Simulator)

func WithLogger(logger kitlog.Logger) Option {
	return func(s *Simulator) {
		s.logger = kitlog.With(logger, "subsys", "sim")
	}
}

type Simulator struct {
	ff         dynamo.ForceField
	integrator dynamo.Integrator
	thermostat dynamo.Thermostat
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
	samplers   []dynamo.Sampler
	logger     kitlog.Logger
}

func New(ff dynamo.ForceField, integrator dynamo.Integrator, thermostat dynamo.Thermostat, opts ...Option) *Simulator {
	s := &Simulator{
		ff:         ff,
		integrator: integrator,
		thermostat: thermostat,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
		samplers:   make([]dynamo.Sampler, 0),
		logger:     kitlog.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }
func (s *Simulator) AddSampler(sm dynamo.Sampler)  { s.samplers = append(s.samplers, sm) }

func (s *Simulator) Thermostat() dynamo.Thermostat { return s.thermostat }

// Run advances sys by cfg.Steps steps in place. On cancellation or a
// numerical fault the records gathered so far are returned with the error.
func (s *Simulator) Run(ctx context.Context, sys *dynamo.System, cfg Config) (*Result, error) {
	if err := s.validateConfig(sys, cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Records:      make([]dynamo.StepRecord, 0, cfg.Steps),
		Temperatures: make([]float64, 0, cfg.Steps),
		Metrics:      make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	start := time.Now()
	s.logger.Log("level", "info", "msg", "run started", "particles", sys.N(), "box", sys.Box,
		"steps", cfg.Steps, "dt", cfg.Dt, "thermostat", s.thermostat.Name())

	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			s.finish(result)
			s.logger.Log("level", "warning", "msg", "run cancelled", "step", i)
			return result, ctx.Err()
		default:
		}

		rec, err := s.Step(sys, cfg, i)
		if err != nil {
			s.finish(result)
			s.logger.Log("level", "critical", "msg", "run aborted", "step", i, "err", err)
			return result, err
		}

		result.Records = append(result.Records, rec)
		result.Temperatures = append(result.Temperatures, rec.Temperature)
		result.StepsTaken++

		for _, m := range s.metrics {
			m.Observe(rec, sys)
		}
		for _, obs := range s.observers {
			obs.OnStep(rec, sys)
		}
		if sampleDue(cfg, i) {
			for _, sm := range s.samplers {
				sm.Sample(i, sys)
			}
			result.Samples++
		}

		if cfg.LogEvery > 0 && (i+1)%cfg.LogEvery == 0 {
			s.logger.Log("level", "info", "step", i+1, "T", rec.Temperature, "E", rec.Total())
		}
	}

	s.finish(result)
	s.logger.Log("level", "notice", "status", "finished", "steps", result.StepsTaken,
		"duration", time.Since(start).String(), "drift", result.EnergyDrift)

	return result, nil
}

// Step advances sys by one step: integration with two force evaluations,
// temperature measurement, then the thermostat. The record carries the
// temperature measured before the thermostat acted.
func (s *Simulator) Step(sys *dynamo.System, cfg Config, step int) (dynamo.StepRecord, error) {
	rec, err := s.integrator.Step(s.ff, sys, cfg.Dt)
	if err != nil {
		return rec, atStep(err, step)
	}
	rec.Step = step
	rec.Time = float64(step+1) * cfg.Dt

	if !finite(rec.Temperature) {
		return rec, atStep(dynamo.Fault(dynamo.QuantityTemperature, -1, rec.Temperature), step)
	}
	if !finite(rec.Potential) {
		return rec, atStep(dynamo.Fault(dynamo.QuantityEnergy, -1, rec.Potential), step)
	}

	if err := s.thermostat.Apply(sys, rec.Temperature, cfg.Dt); err != nil {
		return rec, atStep(err, step)
	}
	return rec, nil
}

func (s *Simulator) finish(result *Result) {
	result.computeDrift()
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (s *Simulator) validateConfig(sys *dynamo.System, cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", cfg.Steps)
	}
	if cfg.SampleWindow < 0 || cfg.SampleEvery < 0 {
		return fmt.Errorf("sampling window and interval must not be negative")
	}
	if sys == nil || sys.N() == 0 {
		return fmt.Errorf("%w: empty system", dynamo.ErrInvalidState)
	}
	if len(sys.Vel) != len(sys.Pos) {
		return fmt.Errorf("%w: %d positions, %d velocities", dynamo.ErrDimensionMismatch, len(sys.Pos), len(sys.Vel))
	}
	if !sys.IsValid() {
		return fmt.Errorf("%w: initial state is not finite", dynamo.ErrInvalidState)
	}
	return nil
}

func sampleDue(cfg Config, step int) bool {
	if cfg.SampleWindow <= 0 {
		return false
	}
	first := cfg.Steps - cfg.SampleWindow
	if first < 0 {
		first = 0
	}
	if step < first {
		return false
	}
	return cfg.SampleEvery <= 1 || (step-first)%cfg.SampleEvery == 0
}

// atStep stamps the step index onto a numerical fault that lacks one.
func atStep(err error, step int) error {
	var fault *dynamo.NumericalFault
	if errors.As(err, &fault) && fault.Step < 0 {
		fault.Step = step
	}
	return err
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
