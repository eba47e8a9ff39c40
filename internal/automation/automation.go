package automation

import (
	"context"
	"fmt"
	"os"
	"sort"

	kitlog "github.com/go-kit/kit/log"
	"github.com/san-kum/mdsim/internal/config"
	"github.com/san-kum/mdsim/internal/experiment"
	"github.com/san-kum/mdsim/internal/sim"
	"github.com/san-kum/mdsim/internal/storage"
	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Runs        []ScenarioRun `yaml:"runs"`
}

// ScenarioRun starts from a preset, or the defaults when Preset is empty,
// and applies Params and Thermostat on top.
type ScenarioRun struct {
	Preset     string             `yaml:"preset"`
	Thermostat string             `yaml:"thermostat"`
	Params     map[string]float64 `yaml:"params"`
	Save       bool               `yaml:"save"`
}

// Outcome is the result of one scenario run. RunID is empty when the run
// was not saved.
type Outcome struct {
	Index  int
	Preset string
	RunID  string
	Result *sim.Result
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Runs) == 0 {
		return nil, fmt.Errorf("scenario %s has no runs", path)
	}
	return &scenario, nil
}

// Config builds the configuration of run r. Params are applied in name
// order so that errors are reported deterministically.
func (r ScenarioRun) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if r.Preset != "" {
		cfg = config.GetPreset(r.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", r.Preset)
		}
	}
	if r.Thermostat != "" {
		cfg.Thermostat.Kind = r.Thermostat
	}

	names := make([]string, 0, len(r.Params))
	for name := range r.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := cfg.SetParam(name, r.Params[name]); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// RunScenario executes the runs in order and stops at the first failure.
// Runs marked Save are written to st, which may be nil when none are.
func RunScenario(ctx context.Context, scenario *Scenario, st *storage.Store, logger kitlog.Logger) ([]Outcome, error) {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	outcomes := make([]Outcome, 0, len(scenario.Runs))

	for i, run := range scenario.Runs {
		logger.Log("level", "info", "scenario", scenario.Name, "run", i+1, "of", len(scenario.Runs), "preset", run.Preset)

		cfg, err := run.Config()
		if err != nil {
			return outcomes, fmt.Errorf("run %d: %w", i+1, err)
		}

		exp := experiment.New(cfg)
		if err := exp.Setup(logger); err != nil {
			return outcomes, fmt.Errorf("run %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return outcomes, fmt.Errorf("run %d: %w", i+1, err)
		}

		out := Outcome{Index: i, Preset: run.Preset, Result: result}
		if run.Save {
			if st == nil {
				return outcomes, fmt.Errorf("run %d: no store to save to", i+1)
			}
			out.RunID, err = st.Save(exp.Metadata(run.Preset), result, exp.System())
			if err != nil {
				return outcomes, fmt.Errorf("run %d save: %w", i+1, err)
			}
		}
		outcomes = append(outcomes, out)
	}

	return outcomes, nil
}

// Sweep varies one parameter of a base configuration over Points evenly
// spaced values from Min to Max.
type Sweep struct {
	Base   *config.Config
	Param  string
	Min    float64
	Max    float64
	Points int
}

type SweepResult struct {
	Value            float64
	EnergyDrift      float64
	MeanTemperature  float64
	TemperatureStd   float64
	FinalTemperature float64
	Err              error
}

// Values returns the sweep grid.
func (s *Sweep) Values() []float64 {
	if s.Points <= 1 {
		return []float64{s.Min}
	}
	step := (s.Max - s.Min) / float64(s.Points-1)
	values := make([]float64, s.Points)
	for i := range values {
		values[i] = s.Min + float64(i)*step
	}
	return values
}

// RunSweep runs one experiment per grid value. A run that fails keeps its
// error in the result; an invalid parameter stops the sweep.
func RunSweep(ctx context.Context, sweep *Sweep, logger kitlog.Logger) ([]SweepResult, error) {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	values := sweep.Values()
	results := make([]SweepResult, 0, len(values))

	for i, v := range values {
		cfg := sweep.Base.Clone()
		if err := cfg.SetParam(sweep.Param, v); err != nil {
			return results, err
		}

		res := SweepResult{Value: v}
		exp := experiment.New(cfg)
		if err := exp.Setup(kitlog.NewNopLogger()); err != nil {
			return results, fmt.Errorf("%s=%g: %w", sweep.Param, v, err)
		}
		result, err := exp.Run(ctx)
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		res.Err = err
		if result != nil {
			res.EnergyDrift = result.EnergyDrift
			res.MeanTemperature = result.Metrics["mean_temperature"]
			res.TemperatureStd = result.Metrics["temperature_stddev"]
			if last, ok := result.Last(); ok {
				res.FinalTemperature = last.Temperature
			}
		}
		results = append(results, res)

		logger.Log("level", "info", "sweep", sweep.Param, "point", i+1, "of", len(values), "value", v, "drift", res.EnergyDrift)
	}

	return results, nil
}
