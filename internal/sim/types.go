package sim

import (
	"math"

	"github.com/san-kum/mdsim/internal/dynamo"
)

type Config struct {
	Dt    float64
	Steps int
	// SampleWindow is the number of trailing steps handed to samplers,
	// every SampleEvery steps within it.
	SampleWindow int
	SampleEvery  int
	LogEvery     int
}

type Result struct {
	Records      []dynamo.StepRecord
	Temperatures []float64
	Metrics      map[string]float64
	StepsTaken   int
	Samples      int
	EnergyDrift  float64
}

func (r *Result) Times() []float64 {
	out := make([]float64, len(r.Records))
	for i, rec := range r.Records {
		out[i] = rec.Time
	}
	return out
}

// TotalEnergies returns kinetic plus potential energy per step.
func (r *Result) TotalEnergies() []float64 {
	out := make([]float64, len(r.Records))
	for i, rec := range r.Records {
		out[i] = rec.Total()
	}
	return out
}

func (r *Result) Last() (dynamo.StepRecord, bool) {
	if len(r.Records) == 0 {
		return dynamo.StepRecord{}, false
	}
	return r.Records[len(r.Records)-1], true
}

func (r *Result) computeDrift() {
	if len(r.Records) < 2 {
		return
	}
	e0 := r.Records[0].Total()
	if e0 == 0 {
		return
	}
	r.EnergyDrift = math.Abs(r.Records[len(r.Records)-1].Total()-e0) / math.Abs(e0)
}
