package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	kitlog "github.com/go-kit/kit/log"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/mdsim/internal/analysis"
	"github.com/san-kum/mdsim/internal/automation"
	"github.com/san-kum/mdsim/internal/config"
	"github.com/san-kum/mdsim/internal/dynamo"
	"github.com/san-kum/mdsim/internal/experiment"
	"github.com/san-kum/mdsim/internal/export"
	"github.com/san-kum/mdsim/internal/optim"
	"github.com/san-kum/mdsim/internal/sim"
	"github.com/san-kum/mdsim/internal/storage"
	"github.com/san-kum/mdsim/internal/viz"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"
)

var (
	dataDir    string
	configFile string
	preset     string
	quiet      bool

	particles    int
	density      float64
	temperature  float64
	initialTemp  float64
	dt           float64
	steps        int
	cutoff       float64
	seed         uint64
	workers      int
	thermoKind   string
	tau          float64
	gamma        float64
	logEvery     int
	sampleWindow int
	sampleEvery  int
	bins         int

	outDir        string
	benchSteps    int
	benchDensity  float64
	numRuns       int
	stepsPerFrame int
	sweepParam    string
	sweepMin      float64
	sweepMax      float64
	sweepPoints   int
	tuneMetric    string
	tuneGrid      []string
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(22)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "mdsim",
		Short:         "lennard-jones molecular dynamics",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mdsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress log output")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and store it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSystemFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot temperature, energy and g(r) in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "summarise a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export the trajectory to CSV on stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export metadata and trajectory to JSON on stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportPNGCmd := &cobra.Command{
		Use:   "export-png [run_id]",
		Short: "render temperature, energy and g(r) plots to PNG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportPNG,
	}
	exportPNGCmd.Flags().StringVar(&outDir, "out", "", "output directory (default: the run directory)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation in an interactive terminal view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSystemFlags(liveCmd)
	liveCmd.Flags().IntVar(&stepsPerFrame, "steps-per-frame", 5, "steps integrated per frame")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark force evaluation across system sizes and workers",
		Args:  cobra.NoArgs,
		RunE:  benchForces,
	}
	benchCmd.Flags().IntVar(&benchSteps, "steps", 50, "steps per measurement")
	benchCmd.Flags().Float64Var(&benchDensity, "density", config.DefaultDensity, "number density")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run independent replicas with consecutive seeds",
		Args:  cobra.NoArgs,
		RunE:  runEnsemble,
	}
	addSystemFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&numRuns, "runs", 4, "number of replicas")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a YAML scenario of consecutive runs",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "vary one parameter and tabulate drift and temperature",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addSystemFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "dt", "parameter to vary ("+strings.Join(config.ParamNames(), ", ")+")")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.001, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 0.01, "last value")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 5, "number of values")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search parameters minimising a run metric",
		Args:  cobra.NoArgs,
		RunE:  runTune,
	}
	addSystemFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "energy_drift", "metric to minimise")
	tuneCmd.Flags().StringSliceVar(&tuneGrid, "grid", []string{"dt=0.001:0.002:0.005"}, "name=v1:v2:... per parameter")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, analyzeCmd, exportCSVCmd, exportJSONCmd, exportPNGCmd,
		liveCmd, presetsCmd, benchCmd, ensembleCmd, scenarioCmd, sweepCmd, tuneCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSystemFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "start from a preset (see 'mdsim presets')")
	f.IntVarP(&particles, "particles", "n", config.DefaultParticles, "number of particles")
	f.Float64Var(&density, "density", config.DefaultDensity, "number density")
	f.Float64VarP(&temperature, "temperature", "T", config.DefaultTemperature, "target temperature")
	f.Float64Var(&initialTemp, "initial-temperature", 0, "initial temperature (default: target)")
	f.Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	f.IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	f.Float64Var(&cutoff, "cutoff", config.DefaultCutoff, "interaction cutoff radius")
	f.Uint64Var(&seed, "seed", 1, "random seed")
	f.IntVar(&workers, "workers", 1, "force evaluation workers")
	f.StringVar(&thermoKind, "thermostat", "none", "thermostat (none, berendsen, langevin)")
	f.Float64Var(&tau, "tau", config.DefaultTau, "berendsen coupling time")
	f.Float64Var(&gamma, "gamma", config.DefaultGamma, "langevin friction")
	f.IntVar(&logEvery, "log-every", config.DefaultLogEvery, "log progress every n steps (0 disables)")
	f.IntVar(&sampleWindow, "sample-window", 200, "trailing steps sampled for g(r), MSD and VACF")
	f.IntVar(&sampleEvery, "sample-every", 10, "sampling interval in steps")
	f.IntVar(&bins, "bins", config.DefaultBins, "g(r) histogram bins")
}

// loadConfig layers defaults, the preset, the config file and the flags
// that were set explicitly, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	applyFlags(cmd, cfg)
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("particles") {
		cfg.Particles = particles
	}
	if changed("density") {
		cfg.Density = density
	}
	if changed("temperature") {
		cfg.Temperature = temperature
	}
	if changed("initial-temperature") {
		cfg.InitialTemperature = initialTemp
	}
	if changed("dt") {
		cfg.Dt = dt
	}
	if changed("steps") {
		cfg.Steps = steps
	}
	if changed("cutoff") {
		cfg.Cutoff = cutoff
	}
	if changed("seed") {
		cfg.Seed = seed
	}
	if changed("workers") {
		cfg.Workers = workers
	}
	if changed("thermostat") {
		cfg.Thermostat.Kind = thermoKind
	}
	if changed("tau") {
		cfg.Thermostat.Tau = tau
	}
	if changed("gamma") {
		cfg.Thermostat.Gamma = gamma
	}
	if changed("log-every") {
		cfg.LogEvery = logEvery
	}
	if changed("sample-window") {
		cfg.Sampling.Window = sampleWindow
	}
	if changed("sample-every") {
		cfg.Sampling.Every = sampleEvery
	}
	if changed("bins") {
		cfg.Sampling.Bins = bins
	}
}

func newLogger() kitlog.Logger {
	if quiet {
		return kitlog.NewNopLogger()
	}
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))
	return kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func openStore() (*storage.Store, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

func printRow(label, value string) {
	fmt.Println(labelStyle.Render(label) + valueStyle.Render(value))
}

// runSimulation stores the run even when it ends in a numerical fault or
// an interrupt, with the error recorded in its metadata.
func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger()

	st, err := openStore()
	if err != nil {
		return err
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(logger); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	result, runErr := exp.Run(ctx)
	elapsed := time.Since(start)
	if result == nil {
		return runErr
	}

	meta := exp.Metadata(preset)
	if runErr != nil {
		meta.Error = runErr.Error()
	}
	runID, err := st.Save(meta, result, exp.System())
	if err != nil {
		return err
	}

	var r, g []float64
	if rdf := exp.RDF(); rdf != nil && rdf.Frames() > 0 {
		r, g = rdf.Result()
		if err := st.SaveRDF(runID, r, g); err != nil {
			return err
		}
	}

	fmt.Println(titleStyle.Render("run " + runID))
	printRow("particles", fmt.Sprintf("%d (L=%.4f)", exp.System().N(), exp.System().Box))
	printRow("thermostat", cfg.ThermostatKind())
	printRow("steps", fmt.Sprintf("%d/%d", result.StepsTaken, cfg.Steps))
	printRow("elapsed", elapsed.String())
	if elapsed > 0 {
		printRow("steps/sec", fmt.Sprintf("%.0f", float64(result.StepsTaken)/elapsed.Seconds()))
	}
	if last, ok := result.Last(); ok {
		printRow("final T", fmt.Sprintf("%.6f", last.Temperature))
		printRow("final E", fmt.Sprintf("%.6f", last.Total()))
	}
	printRow("energy drift", fmt.Sprintf("%.3e", result.EnergyDrift))
	for _, name := range sortedKeys(result.Metrics) {
		printRow(name, fmt.Sprintf("%.6f", result.Metrics[name]))
	}
	if len(r) > 0 {
		peakR, peakG := exp.RDF().Peak()
		printRow("g(r) peak", fmt.Sprintf("%.3f at r=%.3f", peakG, peakR))
	}
	if msd := exp.MSD(); msd != nil {
		if d := msd.DiffusionCoefficient(cfg.Dt); d != 0 {
			printRow("diffusion coefficient", fmt.Sprintf("%.5f", d))
		}
	}

	if runErr != nil {
		fmt.Println(errorStyle.Render("run stopped: " + runErr.Error()))
		return runErr
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tN\tRHO\tT\tTHERMOSTAT\tSTEPS\tDRIFT\tSTATUS")

	for _, run := range runs {
		status := "ok"
		if run.Error != "" {
			status = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4f\t%.3f\t%s\t%d/%d\t%.2e\t%s\n",
			run.ID,
			orDash(run.Preset),
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Particles,
			run.Density,
			run.Target,
			run.Thermostat,
			run.StepsTaken,
			run.Steps,
			run.EnergyDrift,
			status,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	records, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("particles: %d  thermostat: %s\n", meta.Particles, meta.Thermostat)
	fmt.Printf("steps: %d\n\n", len(records))

	temps := make([]float64, len(records))
	energies := make([]float64, len(records))
	for i, rec := range records {
		temps[i] = rec.Temperature
		energies[i] = rec.Total()
	}

	for _, s := range []struct {
		data    []float64
		caption string
	}{
		{temps, "temperature"},
		{energies, "total energy"},
	} {
		graph := asciigraph.Plot(s.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	_, g, err := st.LoadRDF(runID)
	if err == nil && len(g) > 0 {
		graph := asciigraph.Plot(g,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("g(r)"),
		)
		fmt.Println(graph)
	}

	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	records, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no data")
	}

	temps := make([]float64, len(records))
	for i, rec := range records {
		temps[i] = rec.Temperature
	}
	mean, std := stat.MeanStdDev(temps, nil)

	fmt.Println(titleStyle.Render("analysis: " + meta.ID))
	printRow("thermostat", fmt.Sprintf("%s (target %.4f)", meta.Thermostat, meta.Target))
	printRow("steps", fmt.Sprintf("%d/%d", meta.StepsTaken, meta.Steps))
	printRow("mean T", fmt.Sprintf("%.6f", mean))
	printRow("T stddev", fmt.Sprintf("%.6f", std))
	printRow("energy drift", fmt.Sprintf("%.3e", meta.EnergyDrift))
	if meta.Error != "" {
		printRow("error", meta.Error)
	}

	freq, _ := analysis.DominantFrequency(temps, meta.Dt)
	if freq > 0 {
		printRow("dominant T frequency", fmt.Sprintf("%.4f (period %.4f)", freq, 1/freq))
	}

	if r, g, err := st.LoadRDF(runID); err == nil && len(g) > 0 {
		best := 0
		for i := range g {
			if g[i] > g[best] {
				best = i
			}
		}
		printRow("g(r) peak", fmt.Sprintf("%.3f at r=%.3f", g[best], r[best]))
	}

	pos, vel, err := st.LoadFrame(runID)
	if err == nil && len(pos) > 0 {
		final := dynamo.NewSystem(meta.Box, meta.Mass, 1, pos, vel)
		p := final.Momentum()
		printRow("final momentum", fmt.Sprintf("(%.2e, %.2e, %.2e)", p.X, p.Y, p.Z))
	}

	ps := analysis.PowerSpectrum(analysis.Fluctuations(temps))
	if len(ps) > 2 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(ps[1:],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("temperature fluctuation spectrum"),
		))
	}

	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	records, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	return storage.ExportCSV(os.Stdout, records)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	records, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, records)
}

func exportPNG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	records, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	dir := outDir
	if dir == "" {
		dir = filepath.Join(dataDir, runID)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	times := make([]float64, len(records))
	temps := make([]float64, len(records))
	for i, rec := range records {
		times[i] = rec.Time
		temps[i] = rec.Temperature
	}
	target := meta.Target
	if meta.Thermostat == "none" {
		target = -1
	}

	written := []string{}
	path := filepath.Join(dir, "temperature.png")
	if err := export.TemperaturePlot(path, times, temps, target); err != nil {
		return err
	}
	written = append(written, path)

	path = filepath.Join(dir, "energy.png")
	if err := export.EnergyPlot(path, records); err != nil {
		return err
	}
	written = append(written, path)

	// g(r) and the final frame are optional parts of a stored run.
	if r, g, err := st.LoadRDF(runID); err == nil {
		path = filepath.Join(dir, "rdf.png")
		switch err := export.RDFPlot(path, r, g); {
		case err == nil:
			written = append(written, path)
		case !errors.Is(err, export.ErrNoData):
			return err
		}
	}

	if pos, vel, err := st.LoadFrame(runID); err == nil {
		path = filepath.Join(dir, "speeds.png")
		final := dynamo.NewSystem(meta.Box, meta.Mass, 1, pos, vel)
		switch err := export.SpeedHistogram(path, final, 30); {
		case err == nil:
			written = append(written, path)
		case !errors.Is(err, export.ErrNoData):
			return err
		}
	}

	for _, p := range written {
		fmt.Println(p)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	if preset == "" && configFile == "" {
		picker := viz.NewPicker(func(cfg *config.Config) { applyFlags(cmd, cfg) }, stepsPerFrame)
		_, err := tea.NewProgram(picker, tea.WithAltScreen()).Run()
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	title := preset
	if title == "" {
		title = "lennard-jones"
	}
	model, err := viz.NewModel(cfg, title, stepsPerFrame)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tN\tRHO\tT\tT0\tDT\tSTEPS\tTHERMOSTAT")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%.4f\t%.3f\t%.3f\t%.4f\t%d\t%s\n",
			name,
			cfg.Particles,
			cfg.Density,
			cfg.Temperature,
			cfg.StartTemperature(),
			cfg.Dt,
			cfg.Steps,
			cfg.ThermostatKind(),
		)
	}
	return w.Flush()
}

func benchForces(cmd *cobra.Command, args []string) error {
	sizes := []int{256, 864, 2048, 4000}
	workerCounts := []int{1, 2, 4, 8}

	fmt.Printf("benchmarking %d steps per point at density %.4f\n\n", benchSteps, benchDensity)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "N\tCELLS\tWORKERS\tTIME\tSTEPS/SEC\tSPEEDUP")

	for _, n := range sizes {
		var serial time.Duration
		for _, nw := range workerCounts {
			cfg := config.DefaultConfig()
			cfg.Particles = n
			cfg.Density = benchDensity
			cfg.Steps = benchSteps
			cfg.Workers = nw
			cfg.LogEvery = 0
			cfg.Sampling.Window = 0

			exp := experiment.New(cfg)
			if err := exp.Setup(nil); err != nil {
				return err
			}

			start := time.Now()
			result, err := exp.Run(context.Background())
			if err != nil {
				return err
			}
			elapsed := time.Since(start)
			if nw == 1 {
				serial = elapsed
			}

			lc := int(cfg.BoxLength() / cfg.Cutoff)
			fmt.Fprintf(w, "%d\t%d³\t%d\t%v\t%.0f\t%.2fx\n",
				n, lc, nw, elapsed.Round(time.Millisecond),
				float64(result.StepsTaken)/elapsed.Seconds(),
				serial.Seconds()/elapsed.Seconds())
		}
	}

	return w.Flush()
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger()

	exp := experiment.New(cfg)
	if err := exp.Setup(logger); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	ens := sim.NewEnsemble(exp.Factory(logger), numRuns, cfg.Seed)
	results, err := ens.Run(ctx, exp.SimConfig())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tSTEPS\tMEAN T\tT STDDEV\tFINAL T\tDRIFT")

	finals := make([]float64, 0, len(results))
	for i, r := range results {
		last, _ := r.Last()
		finals = append(finals, last.Temperature)
		fmt.Fprintf(w, "%d\t%d\t%.5f\t%.5f\t%.5f\t%.2e\n",
			cfg.Seed+uint64(i),
			r.StepsTaken,
			r.Metrics["mean_temperature"],
			r.Metrics["temperature_stddev"],
			last.Temperature,
			r.EnergyDrift,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	mean, std := stat.MeanStdDev(finals, nil)
	fmt.Println()
	printRow("final T across runs", fmt.Sprintf("%.5f ± %.5f", mean, std))
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	outcomes, err := automation.RunScenario(ctx, scenario, st, newLogger())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tPRESET\tRUN ID\tSTEPS\tFINAL T\tDRIFT")
	for _, o := range outcomes {
		last, _ := o.Result.Last()
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%.5f\t%.2e\n",
			o.Index+1, orDash(o.Preset), orDash(o.RunID), o.Result.StepsTaken, last.Temperature, o.Result.EnergyDrift)
	}
	if flushErr := w.Flush(); flushErr != nil {
		return flushErr
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.LogEvery = 0
	cfg.Sampling.Window = 0

	ctx, cancel := signalContext()
	defer cancel()

	sweep := &automation.Sweep{Base: cfg, Param: sweepParam, Min: sweepMin, Max: sweepMax, Points: sweepPoints}
	results, err := automation.RunSweep(ctx, sweep, newLogger())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tMEAN T\tT STDDEV\tFINAL T\tDRIFT\tSTATUS\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		}
		fmt.Fprintf(w, "%g\t%.5f\t%.5f\t%.5f\t%.2e\t%s\n",
			r.Value, r.MeanTemperature, r.TemperatureStd, r.FinalTemperature, r.EnergyDrift, status)
	}
	if flushErr := w.Flush(); flushErr != nil {
		return flushErr
	}
	return err
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.LogEvery = 0
	cfg.Sampling.Window = 0

	names, ranges, err := parseGrid(tuneGrid)
	if err != nil {
		return err
	}
	search, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("searching %d points for minimal %s\n\n", search.Size(), tuneMetric)
	best, score, trials, err := search.Search(ctx, cfg, tuneMetric)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(tuneMetric))
	for _, tr := range trials {
		vals := make([]string, len(names))
		for i, n := range names {
			vals[i] = strconv.FormatFloat(tr.Params[n], 'g', -1, 64)
		}
		score := fmt.Sprintf("%.4e", tr.Score)
		if tr.Err != nil {
			score = "fault"
		}
		fmt.Fprintf(w, "%s\t%s\n", strings.Join(vals, "\t"), score)
	}
	if flushErr := w.Flush(); flushErr != nil {
		return flushErr
	}
	if err != nil {
		return err
	}

	fmt.Println()
	for _, n := range names {
		printRow("best "+n, strconv.FormatFloat(best[n], 'g', -1, 64))
	}
	printRow(tuneMetric, fmt.Sprintf("%.4e", score))
	return nil
}

// parseGrid reads entries of the form name=v1:v2:...
func parseGrid(entries []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(entries))
	ranges := make([][]float64, 0, len(entries))
	for _, entry := range entries {
		name, list, ok := strings.Cut(entry, "=")
		if !ok || name == "" || list == "" {
			return nil, nil, fmt.Errorf("bad grid entry %q, want name=v1:v2", entry)
		}
		var values []float64
		for _, s := range strings.Split(list, ":") {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("bad value %q for %s: %w", s, name, err)
			}
			values = append(values, v)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
