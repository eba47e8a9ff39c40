package config

import (
	"fmt"
	"math"
	"sort"
)

// GetParams returns the numeric settings addressable by SetParam.
func (c *Config) GetParams() map[string]float64 {
	return map[string]float64{
		"particles":           float64(c.Particles),
		"density":             c.Density,
		"mass":                c.Mass,
		"sigma":               c.Sigma,
		"epsilon":             c.Epsilon,
		"cutoff":              c.Cutoff,
		"dt":                  c.Dt,
		"steps":               float64(c.Steps),
		"temperature":         c.Temperature,
		"initial_temperature": c.InitialTemperature,
		"kb":                  c.KB,
		"seed":                float64(c.Seed),
		"workers":             float64(c.Workers),
		"tau":                 c.Thermostat.Tau,
		"gamma":               c.Thermostat.Gamma,
	}
}

// ParamNames lists the names accepted by SetParam.
func ParamNames() []string {
	names := make([]string, 0, 16)
	for name := range DefaultConfig().GetParams() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetParam sets a numeric setting by its YAML name. Integer settings must
// be given whole values. Range checks are left to Validate.
func (c *Config) SetParam(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return invalid("%s must be finite", name)
	}
	whole := func() (int, error) {
		if value != math.Trunc(value) {
			return 0, invalid("%s must be a whole number, got %g", name, value)
		}
		return int(value), nil
	}

	switch name {
	case "density":
		c.Density = value
	case "mass":
		c.Mass = value
	case "sigma":
		c.Sigma = value
	case "epsilon":
		c.Epsilon = value
	case "cutoff":
		c.Cutoff = value
	case "dt":
		c.Dt = value
	case "temperature":
		c.Temperature = value
	case "initial_temperature":
		c.InitialTemperature = value
	case "kb":
		c.KB = value
	case "tau":
		c.Thermostat.Tau = value
	case "gamma":
		c.Thermostat.Gamma = value
	case "particles", "steps", "workers", "seed":
		n, err := whole()
		if err != nil {
			return err
		}
		switch name {
		case "particles":
			c.Particles = n
		case "steps":
			c.Steps = n
		case "workers":
			c.Workers = n
		case "seed":
			if n < 0 {
				return invalid("seed must not be negative, got %d", n)
			}
			c.Seed = uint64(n)
		}
	default:
		return fmt.Errorf("unknown parameter: %s", name)
	}
	return nil
}

// Clone returns an independent copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
