package sim

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"sync/atomic"
	"testing"

	kitlog "github.com/go-kit/kit/log"
	"github.com/san-kum/mdsim/internal/dynamo"
	"github.com/san-kum/mdsim/internal/integrators"
	"github.com/san-kum/mdsim/internal/physics"
	"github.com/san-kum/mdsim/internal/setup"
	"github.com/san-kum/mdsim/internal/thermostat"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"
)

type testField struct {
	calls     int
	failAfter int
}

func (f *testField) Compute(pos, forces []r3.Vec) (float64, error) {
	f.calls++
	if f.failAfter > 0 && f.calls > f.failAfter {
		return 0, dynamo.Fault(dynamo.QuantityForce, 0, math.Inf(1))
	}
	for i := range forces {
		forces[i] = r3.Vec{}
	}
	return -1, nil
}

type testThermostat struct {
	seen []float64
}

func (t *testThermostat) Name() string { return "test" }
func (t *testThermostat) Apply(sys *dynamo.System, temperature, dt float64) error {
	t.seen = append(t.seen, temperature)
	for i := range sys.Vel {
		sys.Vel[i] = r3.Scale(0.5, sys.Vel[i])
	}
	return nil
}

type testMetric struct {
	count int
	sum   float64
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(rec dynamo.StepRecord, sys *dynamo.System) {
	t.count++
	t.sum += rec.Temperature
}
func (t *testMetric) Value() float64 {
	if t.count == 0 {
		return 0
	}
	return t.sum / float64(t.count)
}
func (t *testMetric) Reset() {
	t.count = 0
	t.sum = 0
}

type testSampler struct {
	steps []int
}

func (t *testSampler) Sample(step int, sys *dynamo.System) { t.steps = append(t.steps, step) }

type observerFunc func(rec dynamo.StepRecord, sys *dynamo.System)

func (f observerFunc) OnStep(rec dynamo.StepRecord, sys *dynamo.System) { f(rec, sys) }

func freeSystem() *dynamo.System {
	return dynamo.NewSystem(10, 1, 1,
		[]r3.Vec{{X: 1, Y: 1, Z: 1}, {X: 5, Y: 5, Z: 5}},
		[]r3.Vec{{X: 1}, {Y: -1}},
	)
}

func TestSimulatorRun(t *testing.T) {
	ff := &testField{}
	sim := New(ff, integrators.NewVelocityVerlet(), thermostat.NewNone())

	result, err := sim.Run(context.Background(), freeSystem(), Config{Dt: 0.1, Steps: 10})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.Records) != 10 || len(result.Temperatures) != 10 {
		t.Errorf("expected 10 records, got %d/%d", len(result.Records), len(result.Temperatures))
	}
	if ff.calls != 20 {
		t.Errorf("expected 20 force evaluations, got %d", ff.calls)
	}
	last, _ := result.Last()
	if last.Step != 9 || math.Abs(last.Time-1.0) > 1e-12 {
		t.Errorf("last record step %d time %v", last.Step, last.Time)
	}
	// KE = 1, T = 2/(6)
	for i, temp := range result.Temperatures {
		if math.Abs(temp-1.0/3.0) > 1e-12 {
			t.Errorf("step %d: temperature %v, want 1/3", i, temp)
		}
	}
	if result.EnergyDrift != 0 {
		t.Errorf("expected zero drift, got %v", result.EnergyDrift)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := New(&testField{}, integrators.NewVelocityVerlet(), thermostat.NewNone())

	tests := []struct {
		name string
		sys  *dynamo.System
		cfg  Config
	}{
		{"zero dt", freeSystem(), Config{Dt: 0, Steps: 10}},
		{"negative dt", freeSystem(), Config{Dt: -0.1, Steps: 10}},
		{"zero steps", freeSystem(), Config{Dt: 0.1, Steps: 0}},
		{"negative window", freeSystem(), Config{Dt: 0.1, Steps: 10, SampleWindow: -1}},
		{"empty system", dynamo.NewSystem(10, 1, 1, nil, nil), Config{Dt: 0.1, Steps: 10}},
		{"non-finite state", dynamo.NewSystem(10, 1, 1, []r3.Vec{{X: math.NaN()}}, nil), Config{Dt: 0.1, Steps: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := sim.Run(context.Background(), tt.sys, tt.cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestSimulatorRecordsTemperatureBeforeThermostat(t *testing.T) {
	th := &testThermostat{}
	sim := New(&testField{}, integrators.NewVelocityVerlet(), th)

	result, err := sim.Run(context.Background(), freeSystem(), Config{Dt: 0.01, Steps: 3})
	if err != nil {
		t.Fatal(err)
	}

	want := []float64{1.0 / 3.0, 1.0 / 12.0, 1.0 / 48.0}
	for i, w := range want {
		if math.Abs(result.Temperatures[i]-w) > 1e-12 {
			t.Errorf("step %d: recorded %v, want %v", i, result.Temperatures[i], w)
		}
		if th.seen[i] != result.Temperatures[i] {
			t.Errorf("step %d: thermostat saw %v, recorded %v", i, th.seen[i], result.Temperatures[i])
		}
	}
}

func TestSimulatorMetrics(t *testing.T) {
	sim := New(&testField{}, integrators.NewVelocityVerlet(), thermostat.NewNone())

	metric := &testMetric{}
	sim.AddMetric(metric)

	result, err := sim.Run(context.Background(), freeSystem(), Config{Dt: 0.1, Steps: 10})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}
	if metric.count != 10 {
		t.Errorf("expected 10 observations, got %d", metric.count)
	}
}

func TestSimulatorSamplingWindow(t *testing.T) {
	tests := []struct {
		name   string
		window int
		every  int
		want   []int
	}{
		{"disabled", 0, 0, nil},
		{"every step", 3, 1, []int{7, 8, 9}},
		{"strided", 6, 2, []int{4, 6, 8}},
		{"window longer than run", 50, 4, []int{0, 4, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := New(&testField{}, integrators.NewVelocityVerlet(), thermostat.NewNone())
			sampler := &testSampler{}
			sim.AddSampler(sampler)

			result, err := sim.Run(context.Background(), freeSystem(),
				Config{Dt: 0.1, Steps: 10, SampleWindow: tt.window, SampleEvery: tt.every})
			if err != nil {
				t.Fatal(err)
			}
			if len(sampler.steps) != len(tt.want) {
				t.Fatalf("sampled %v, want %v", sampler.steps, tt.want)
			}
			for i := range tt.want {
				if sampler.steps[i] != tt.want[i] {
					t.Errorf("sampled %v, want %v", sampler.steps, tt.want)
					break
				}
			}
			if result.Samples != len(tt.want) {
				t.Errorf("result.Samples = %d, want %d", result.Samples, len(tt.want))
			}
		})
	}
}

func TestSimulatorFaultCarriesStep(t *testing.T) {
	// the sixth evaluation is the second one of step 2
	ff := &testField{failAfter: 5}
	sim := New(ff, integrators.NewVelocityVerlet(), thermostat.NewNone())

	result, err := sim.Run(context.Background(), freeSystem(), Config{Dt: 0.1, Steps: 10})
	if !errors.Is(err, dynamo.ErrNumericalFault) {
		t.Fatalf("expected numerical fault, got %v", err)
	}
	var fault *dynamo.NumericalFault
	if !errors.As(err, &fault) {
		t.Fatal("expected *NumericalFault")
	}
	if fault.Step != 2 || fault.Quantity != dynamo.QuantityForce {
		t.Errorf("fault = %+v", fault)
	}
	if result == nil || len(result.Records) != 2 {
		t.Errorf("expected partial result with 2 records")
	}
}

func TestSimulatorThermostatFault(t *testing.T) {
	sys := dynamo.NewSystem(10, 1, 1, []r3.Vec{{X: 1}, {X: 5}}, nil)
	sim := New(&testField{}, integrators.NewVelocityVerlet(), thermostat.NewBerendsen(1, 0.1))

	_, err := sim.Run(context.Background(), sys, Config{Dt: 0.01, Steps: 5})
	var fault *dynamo.NumericalFault
	if !errors.As(err, &fault) {
		t.Fatalf("expected numerical fault, got %v", err)
	}
	if fault.Step != 0 || fault.Quantity != dynamo.QuantityTemperature {
		t.Errorf("fault = %+v", fault)
	}
}

func TestSimulatorCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sim := New(&testField{}, integrators.NewVelocityVerlet(), thermostat.NewNone())
	sim.AddObserver(observerFunc(func(rec dynamo.StepRecord, _ *dynamo.System) {
		if rec.Step == 2 {
			cancel()
		}
	}))

	result, err := sim.Run(ctx, freeSystem(), Config{Dt: 0.1, Steps: 100})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result.StepsTaken != 3 {
		t.Errorf("expected 3 steps before cancellation, got %d", result.StepsTaken)
	}
}

func TestSimulatorLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := kitlog.NewLogfmtLogger(&buf)
	sim := New(&testField{}, integrators.NewVelocityVerlet(), thermostat.NewNone(), WithLogger(logger))

	if _, err := sim.Run(context.Background(), freeSystem(), Config{Dt: 0.1, Steps: 10, LogEvery: 5}); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{"subsys=sim", "msg=\"run started\"", "step=5", "step=10", "status=finished"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func ljSystem(t *testing.T, n int, temp float64, seed uint64) (*dynamo.System, *physics.ForceEvaluator) {
	t.Helper()
	box := math.Cbrt(float64(n) / 0.8)
	rng := rand.New(rand.NewSource(seed))
	sys := dynamo.NewSystem(box, 1, 1, setup.FCCLattice(n, box), setup.MaxwellBoltzmann(n, 1, 1, temp, rng))
	return sys, physics.NewForceEvaluator(box, physics.NewLennardJones(1, 1, 2.5))
}

func windowMeans(xs []float64, width int) []float64 {
	var out []float64
	for start := 0; start+width <= len(xs); start += width {
		sum := 0.0
		for _, x := range xs[start : start+width] {
			sum += x
		}
		out = append(out, sum/float64(width))
	}
	return out
}

func TestBerendsenConvergesInRun(t *testing.T) {
	sys, ff := ljSystem(t, 108, 3.0, 1)
	sim := New(ff, integrators.NewVelocityVerlet(), thermostat.NewBerendsen(1.0, 0.05))

	result, err := sim.Run(context.Background(), sys, Config{Dt: 0.005, Steps: 600})
	if err != nil {
		t.Fatal(err)
	}

	means := windowMeans(result.Temperatures, 50)
	first := math.Abs(means[0] - 1.0)
	last := math.Abs(means[len(means)-1] - 1.0)
	if last >= first {
		t.Errorf("moving average did not approach target: first gap %v, last gap %v", first, last)
	}
	if last > 0.05 {
		t.Errorf("final moving average %v, want 1.0 ± 0.05", means[len(means)-1])
	}
}

func TestLangevinTimeAverageInRun(t *testing.T) {
	sys, ff := ljSystem(t, 108, 1.0, 2)
	th := thermostat.NewLangevin(1.0, 1.0, rand.New(rand.NewSource(9)))
	sim := New(ff, integrators.NewVelocityVerlet(), th)

	result, err := sim.Run(context.Background(), sys, Config{Dt: 0.005, Steps: 3000})
	if err != nil {
		t.Fatal(err)
	}

	tail := result.Temperatures[1000:]
	mean := 0.0
	for _, v := range tail {
		mean += v
	}
	mean /= float64(len(tail))

	if math.Abs(mean-1.0) > 0.1 {
		t.Errorf("time-averaged temperature %v, want 1.0 ± 0.1", mean)
	}
}

func TestNVEDriftInRun(t *testing.T) {
	sys, ff := ljSystem(t, 108, 0.7, 3)
	sim := New(ff, integrators.NewVelocityVerlet(), thermostat.NewNone())

	result, err := sim.Run(context.Background(), sys, Config{Dt: 0.004, Steps: 300})
	if err != nil {
		t.Fatal(err)
	}
	if result.EnergyDrift > 0.01 {
		t.Errorf("energy drift %v exceeds 1%%", result.EnergyDrift)
	}
}

func TestEnsemble(t *testing.T) {
	var built int32
	factory := func(seed uint64) (*Simulator, *dynamo.System, error) {
		atomic.AddInt32(&built, 1)
		rng := rand.New(rand.NewSource(seed))
		th := thermostat.NewLangevin(1.0, 1.0, rng)
		sys := dynamo.NewSystem(10, 1, 1, make([]r3.Vec, 8), nil)
		return New(&testField{}, integrators.NewVelocityVerlet(), th), sys, nil
	}

	results, err := NewEnsemble(factory, 4, 10).Run(context.Background(), Config{Dt: 0.01, Steps: 20})
	if err != nil {
		t.Fatal(err)
	}
	if built != 4 || len(results) != 4 {
		t.Fatalf("built %d simulators, %d results", built, len(results))
	}
	for i, r := range results {
		if r.StepsTaken != 20 {
			t.Errorf("replica %d took %d steps", i, r.StepsTaken)
		}
	}
	if results[0].Temperatures[19] == results[1].Temperatures[19] {
		t.Error("replicas with different seeds produced identical trajectories")
	}

	again, err := NewEnsemble(factory, 1, 10).Run(context.Background(), Config{Dt: 0.01, Steps: 20})
	if err != nil {
		t.Fatal(err)
	}
	if again[0].Temperatures[19] != results[0].Temperatures[19] {
		t.Error("same seed produced a different trajectory")
	}
}

func TestEnsembleError(t *testing.T) {
	want := errors.New("no system")
	factory := func(seed uint64) (*Simulator, *dynamo.System, error) {
		if seed == 2 {
			return nil, nil, want
		}
		return New(&testField{}, integrators.NewVelocityVerlet(), thermostat.NewNone()), freeSystem(), nil
	}

	if _, err := NewEnsemble(factory, 3, 0).Run(context.Background(), Config{Dt: 0.01, Steps: 5}); !errors.Is(err, want) {
		t.Errorf("expected factory error, got %v", err)
	}
}
