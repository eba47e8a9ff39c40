package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	kitlog "github.com/go-kit/kit/log"
	"github.com/san-kum/mdsim/internal/thermostat"
	"gopkg.in/yaml.v3"
)

const (
	DefaultParticles   = 256
	DefaultDensity     = 0.8
	DefaultMass        = 1.0
	DefaultSigma       = 1.0
	DefaultEpsilon     = 1.0
	DefaultCutoff      = 2.5
	DefaultDt          = 0.005
	DefaultSteps       = 1000
	DefaultTemperature = 1.0
	DefaultKB          = 1.0
	DefaultTau         = 0.1
	DefaultGamma       = 1.0
	DefaultBins        = 100
	DefaultLogEvery    = 100
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Particles   int     `yaml:"particles"`
	Density     float64 `yaml:"density"`
	Mass        float64 `yaml:"mass"`
	Sigma       float64 `yaml:"sigma"`
	Epsilon     float64 `yaml:"epsilon"`
	Cutoff      float64 `yaml:"cutoff"`
	Dt          float64 `yaml:"dt"`
	Steps       int     `yaml:"steps"`
	Temperature float64 `yaml:"temperature"`
	// InitialTemperature seeds the velocities; zero means Temperature.
	InitialTemperature float64          `yaml:"initial_temperature"`
	KB                 float64          `yaml:"kb"`
	Seed               uint64           `yaml:"seed"`
	Workers            int              `yaml:"workers"`
	LogEvery           int              `yaml:"log_every"`
	Thermostat         ThermostatConfig `yaml:"thermostat"`
	Sampling           SamplingConfig   `yaml:"sampling"`
}

type ThermostatConfig struct {
	Kind  string  `yaml:"kind"`
	Tau   float64 `yaml:"tau"`
	Gamma float64 `yaml:"gamma"`
}

// SamplingConfig selects the trailing window of steps handed to the
// structural samplers. Window 0 disables sampling.
type SamplingConfig struct {
	Window int `yaml:"window"`
	Every  int `yaml:"every"`
	Bins   int `yaml:"bins"`
}

func DefaultConfig() *Config {
	return &Config{
		Particles:   DefaultParticles,
		Density:     DefaultDensity,
		Mass:        DefaultMass,
		Sigma:       DefaultSigma,
		Epsilon:     DefaultEpsilon,
		Cutoff:      DefaultCutoff,
		Dt:          DefaultDt,
		Steps:       DefaultSteps,
		Temperature: DefaultTemperature,
		KB:          DefaultKB,
		Seed:        1,
		Workers:     1,
		LogEvery:    DefaultLogEvery,
		Thermostat: ThermostatConfig{
			Kind:  thermostat.NameNone,
			Tau:   DefaultTau,
			Gamma: DefaultGamma,
		},
		Sampling: SamplingConfig{
			Window: 200,
			Every:  10,
			Bins:   DefaultBins,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// BoxLength returns L = (N·m/ρ)^(1/3).
func (c *Config) BoxLength() float64 {
	return math.Cbrt(float64(c.Particles) * c.Mass / c.Density)
}

func (c *Config) StartTemperature() float64 {
	if c.InitialTemperature > 0 {
		return c.InitialTemperature
	}
	return c.Temperature
}

// ThermostatKind returns the canonical thermostat name.
func (c *Config) ThermostatKind() string {
	kind, _ := thermostat.Canonical(c.Thermostat.Kind)
	return kind
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate checks the preconditions of a run once, before setup.
func (c *Config) Validate() error {
	switch {
	case c.Particles <= 0:
		return invalid("particles must be positive, got %d", c.Particles)
	case c.Density <= 0:
		return invalid("density must be positive, got %g", c.Density)
	case c.Mass <= 0:
		return invalid("mass must be positive, got %g", c.Mass)
	case c.Sigma <= 0 || c.Epsilon <= 0:
		return invalid("sigma and epsilon must be positive, got %g, %g", c.Sigma, c.Epsilon)
	case c.Cutoff <= 0:
		return invalid("cutoff must be positive, got %g", c.Cutoff)
	case c.KB <= 0:
		return invalid("kb must be positive, got %g", c.KB)
	case c.Dt <= 0:
		return invalid("dt must be positive, got %g", c.Dt)
	case c.Steps <= 0:
		return invalid("steps must be positive, got %d", c.Steps)
	case c.Temperature < 0 || c.InitialTemperature < 0:
		return invalid("temperatures must not be negative")
	case c.Workers < 1:
		return invalid("workers must be at least 1, got %d", c.Workers)
	}

	if box := c.BoxLength(); c.Cutoff > box {
		return invalid("cutoff %g exceeds box length %g", c.Cutoff, box)
	}

	kind, ok := thermostat.Canonical(c.Thermostat.Kind)
	if !ok {
		return invalid("unknown thermostat: %s", c.Thermostat.Kind)
	}
	switch kind {
	case thermostat.NameBerendsen:
		if c.Thermostat.Tau <= 0 {
			return invalid("berendsen tau must be positive, got %g", c.Thermostat.Tau)
		}
	case thermostat.NameLangevin:
		if c.Thermostat.Gamma <= 0 {
			return invalid("langevin gamma must be positive, got %g", c.Thermostat.Gamma)
		}
	}

	if c.Sampling.Window < 0 || c.Sampling.Every < 0 || c.Sampling.Bins < 0 {
		return invalid("sampling parameters must not be negative")
	}
	if c.Sampling.Window > 0 && c.Sampling.Bins == 0 {
		return invalid("sampling needs at least one bin")
	}
	return nil
}

// SingleCell reports whether the cutoff reaches past half the box, where
// the cell grid degenerates to one cell per axis and periodic self-images
// interact.
func (c *Config) SingleCell() bool {
	return c.Cutoff > c.BoxLength()/2
}

// LogWarnings reports accepted but unusual settings.
func (c *Config) LogWarnings(logger kitlog.Logger) {
	if c.SingleCell() {
		logger.Log("level", "warn", "msg", "cutoff exceeds half the box, periodic self-images interact",
			"cutoff", c.Cutoff, "box", c.BoxLength())
	}
	if c.Sampling.Window > c.Steps {
		logger.Log("level", "warn", "msg", "sampling window longer than run", "window", c.Sampling.Window, "steps", c.Steps)
	}
}
