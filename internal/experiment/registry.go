package experiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/mdsim/internal/config"
	"github.com/san-kum/mdsim/internal/dynamo"
	"github.com/san-kum/mdsim/internal/metrics"
	"github.com/san-kum/mdsim/internal/thermostat"
	"golang.org/x/exp/rand"
)

type ThermostatFactory func(cfg *config.Config, rng *rand.Rand) dynamo.Thermostat

type Registry struct {
	thermostats map[string]ThermostatFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		thermostats: make(map[string]ThermostatFactory),
	}

	r.thermostats[thermostat.NameNone] = func(cfg *config.Config, rng *rand.Rand) dynamo.Thermostat {
		return thermostat.NewNone()
	}
	r.thermostats[thermostat.NameBerendsen] = func(cfg *config.Config, rng *rand.Rand) dynamo.Thermostat {
		return thermostat.NewBerendsen(cfg.Temperature, cfg.Thermostat.Tau)
	}
	r.thermostats[thermostat.NameLangevin] = func(cfg *config.Config, rng *rand.Rand) dynamo.Thermostat {
		return thermostat.NewLangevin(cfg.Temperature, cfg.Thermostat.Gamma, rng)
	}

	return r
}

// Register adds or replaces a thermostat under name.
func (r *Registry) Register(name string, fn ThermostatFactory) {
	r.thermostats[name] = fn
}

// GetThermostat accepts canonical names and their aliases.
func (r *Registry) GetThermostat(name string, cfg *config.Config, rng *rand.Rand) (dynamo.Thermostat, error) {
	if canonical, ok := thermostat.Canonical(name); ok {
		name = canonical
	}
	fn, ok := r.thermostats[name]
	if !ok {
		return nil, fmt.Errorf("unknown thermostat: %s", name)
	}
	return fn(cfg, rng), nil
}

func (r *Registry) ListThermostats() []string {
	names := make([]string, 0, len(r.thermostats))
	for name := range r.thermostats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics flags a step as unstable once its temperature exceeds ten
// times the larger of the start and target temperatures.
func (r *Registry) DefaultMetrics(cfg *config.Config) []dynamo.Metric {
	threshold := 10 * math.Max(math.Max(cfg.Temperature, cfg.StartTemperature()), 1e-3)
	return []dynamo.Metric{
		metrics.NewEnergyDrift(),
		metrics.NewMeanTemperature(),
		metrics.NewTemperatureStdDev(),
		metrics.NewStability(threshold),
	}
}
