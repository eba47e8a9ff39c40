package thermostat

const (
	NameNone      = "none"
	NameBerendsen = "berendsen"
	NameLangevin  = "langevin"
)

var aliases = map[string]string{
	"":           NameNone,
	"none":       NameNone,
	"nve":        NameNone,
	"berendsen":  NameBerendsen,
	"weak":       NameBerendsen,
	"langevin":   NameLangevin,
	"stochastic": NameLangevin,
}

// Canonical maps a thermostat name or alias to its canonical name.
func Canonical(kind string) (string, bool) {
	name, ok := aliases[kind]
	return name, ok
}

// Names lists the canonical thermostat names.
func Names() []string {
	return []string{NameNone, NameBerendsen, NameLangevin}
}
