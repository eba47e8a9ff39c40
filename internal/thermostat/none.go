package thermostat

import "github.com/san-kum/mdsim/internal/dynamo"

type None struct{}

func NewNone() *None {
	return &None{}
}

func (n *None) Name() string { return NameNone }

func (n *None) Apply(sys *dynamo.System, temperature, dt float64) error {
	return nil
}
