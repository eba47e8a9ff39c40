package metrics

import (
	"github.com/san-kum/mdsim/internal/dynamo"
	"gonum.org/v1/gonum/stat"
)

// temperatureSeries collects the per-step temperatures.
type temperatureSeries struct {
	values []float64
}

func (s *temperatureSeries) observe(rec dynamo.StepRecord) {
	s.values = append(s.values, rec.Temperature)
}

func (s *temperatureSeries) reset() { s.values = s.values[:0] }

type MeanTemperature struct {
	temperatureSeries
}

func NewMeanTemperature() *MeanTemperature { return &MeanTemperature{} }

func (m *MeanTemperature) Name() string { return "mean_temperature" }

func (m *MeanTemperature) Observe(rec dynamo.StepRecord, sys *dynamo.System) { m.observe(rec) }

func (m *MeanTemperature) Value() float64 {
	if len(m.values) == 0 {
		return 0
	}
	return stat.Mean(m.values, nil)
}

func (m *MeanTemperature) Reset() { m.reset() }

type TemperatureStdDev struct {
	temperatureSeries
}

func NewTemperatureStdDev() *TemperatureStdDev { return &TemperatureStdDev{} }

func (m *TemperatureStdDev) Name() string { return "temperature_stddev" }

func (m *TemperatureStdDev) Observe(rec dynamo.StepRecord, sys *dynamo.System) { m.observe(rec) }

func (m *TemperatureStdDev) Value() float64 {
	if len(m.values) < 2 {
		return 0
	}
	return stat.StdDev(m.values, nil)
}

func (m *TemperatureStdDev) Reset() { m.reset() }
