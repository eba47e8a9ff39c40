package config

import "sort"

var Presets = map[string]*Config{
	"liquid": {
		Particles: 500, Density: 0.8442, Temperature: 0.728, Dt: 0.005, Steps: 2000,
		Thermostat: ThermostatConfig{Kind: "berendsen", Tau: 0.1},
		Sampling:   SamplingConfig{Window: 500, Every: 10, Bins: 100},
	},
	"gas": {
		Particles: 256, Density: 0.05, Temperature: 2.0, Dt: 0.005, Steps: 2000,
		Thermostat: ThermostatConfig{Kind: "langevin", Gamma: 0.5},
		Sampling:   SamplingConfig{Window: 500, Every: 10, Bins: 80},
	},
	"solid": {
		Particles: 500, Density: 1.1, Temperature: 0.3, Dt: 0.004, Steps: 2000,
		Thermostat: ThermostatConfig{Kind: "berendsen", Tau: 0.2},
		Sampling:   SamplingConfig{Window: 500, Every: 10, Bins: 120},
	},
	"nve": {
		Particles: 108, Density: 0.8, Temperature: 1.0, Dt: 0.002, Steps: 1000,
		Thermostat: ThermostatConfig{Kind: "none"},
		Sampling:   SamplingConfig{Window: 200, Every: 5, Bins: 60},
	},
	"quench": {
		Particles: 256, Density: 0.9, Temperature: 0.1, InitialTemperature: 2.0, Dt: 0.005, Steps: 3000,
		Thermostat: ThermostatConfig{Kind: "berendsen", Tau: 0.5},
		Sampling:   SamplingConfig{Window: 300, Every: 10, Bins: 100},
	},
}

// GetPreset returns a complete configuration for the named preset: the
// defaults overlaid with the preset's non-zero fields.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Particles = p.Particles
	cfg.Density = p.Density
	cfg.Temperature = p.Temperature
	cfg.InitialTemperature = p.InitialTemperature
	cfg.Dt = p.Dt
	cfg.Steps = p.Steps
	cfg.Thermostat.Kind = p.Thermostat.Kind
	if p.Thermostat.Tau > 0 {
		cfg.Thermostat.Tau = p.Thermostat.Tau
	}
	if p.Thermostat.Gamma > 0 {
		cfg.Thermostat.Gamma = p.Thermostat.Gamma
	}
	cfg.Sampling = p.Sampling
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
