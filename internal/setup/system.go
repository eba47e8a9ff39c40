package setup

import (
	"github.com/san-kum/mdsim/internal/config"
	"github.com/san-kum/mdsim/internal/dynamo"
	"golang.org/x/exp/rand"
)

// NewSystem builds the initial state described by cfg.
func NewSystem(cfg *config.Config, rng *rand.Rand) *dynamo.System {
	box := cfg.BoxLength()
	pos := FCCLattice(cfg.Particles, box)
	vel := MaxwellBoltzmann(cfg.Particles, cfg.Mass, cfg.KB, cfg.StartTemperature(), rng)
	return dynamo.NewSystem(box, cfg.Mass, cfg.KB, pos, vel)
}
