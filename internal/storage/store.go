package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/mdsim/internal/dynamo"
	"github.com/san-kum/mdsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
	finalFile      = "final.csv"
	rdfFile        = "rdf.csv"
)

var trajectoryHeader = []string{"step", "time", "temperature", "kinetic", "potential", "total"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Preset      string             `json:"preset,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        uint64             `json:"seed"`
	Particles   int                `json:"particles"`
	Density     float64            `json:"density"`
	Mass        float64            `json:"mass"`
	Box         float64            `json:"box"`
	Cutoff      float64            `json:"cutoff"`
	Dt          float64            `json:"dt"`
	Steps       int                `json:"steps"`
	StepsTaken  int                `json:"steps_taken"`
	Thermostat  string             `json:"thermostat"`
	Target      float64            `json:"target_temperature"`
	Workers     int                `json:"workers"`
	EnergyDrift float64            `json:"energy_drift"`
	Metrics     map[string]float64 `json:"metrics"`
	Error       string             `json:"error,omitempty"`
}

// NewRunID returns lj_<unix>_<first 8 hex digits of a random UUID>.
func NewRunID() string {
	return fmt.Sprintf("lj_%d_%s", time.Now().Unix(), uuid.NewString()[:8])
}

func (s *Store) runDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

// Save writes the metadata, the per-step trajectory and, when final is not
// nil, the final configuration. It returns the run ID.
func (s *Store) Save(meta RunMetadata, result *sim.Result, final *dynamo.System) (string, error) {
	if meta.ID == "" {
		meta.ID = NewRunID()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	meta.StepsTaken = result.StepsTaken
	meta.EnergyDrift = result.EnergyDrift
	if meta.Metrics == nil {
		meta.Metrics = result.Metrics
	}

	runDir := s.runDir(meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := writeCSV(filepath.Join(runDir, trajectoryFile), trajectoryHeader, trajectoryRows(result.Records)); err != nil {
		return "", err
	}

	if final != nil {
		if err := writeCSV(filepath.Join(runDir, finalFile), []string{"x", "y", "z", "vx", "vy", "vz"}, frameRows(final)); err != nil {
			return "", err
		}
	}

	return meta.ID, nil
}

// SaveRDF stores a radial distribution function next to a saved run.
func (s *Store) SaveRDF(runID string, r, g []float64) error {
	rows := make([][]string, len(r))
	for i := range r {
		rows[i] = []string{formatFloat(r[i]), formatFloat(g[i])}
	}
	return writeCSV(filepath.Join(s.runDir(runID), rdfFile), []string{"r", "g"}, rows)
}

func trajectoryRows(records []dynamo.StepRecord) [][]string {
	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = []string{
			strconv.Itoa(rec.Step),
			formatFloat(rec.Time),
			formatFloat(rec.Temperature),
			formatFloat(rec.Kinetic),
			formatFloat(rec.Potential),
			formatFloat(rec.Total()),
		}
	}
	return rows
}

func frameRows(sys *dynamo.System) [][]string {
	rows := make([][]string, sys.N())
	for i := range sys.Pos {
		p, v := sys.Pos[i], sys.Vel[i]
		rows[i] = []string{
			exactFloat(p.X), exactFloat(p.Y), exactFloat(p.Z),
			exactFloat(v.X), exactFloat(v.Y), exactFloat(v.Z),
		}
	}
	return rows
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }

// exactFloat keeps full precision so a saved frame can seed a new run.
func exactFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return [][]string{}, nil
	}
	return records[1:], nil
}

func parseFloats(record []string) ([]float64, error) {
	out := make([]float64, len(record))
	for i, field := range record {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.runDir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadTrajectory(runID string) ([]dynamo.StepRecord, error) {
	rows, err := readCSV(filepath.Join(s.runDir(runID), trajectoryFile))
	if err != nil {
		return nil, err
	}

	records := make([]dynamo.StepRecord, 0, len(rows))
	for i, row := range rows {
		if len(row) != len(trajectoryHeader) {
			return nil, fmt.Errorf("%s line %d: expected %d fields, got %d", trajectoryFile, i+2, len(trajectoryHeader), len(row))
		}
		step, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", trajectoryFile, i+2, err)
		}
		vals, err := parseFloats(row[1:5])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", trajectoryFile, i+2, err)
		}
		records = append(records, dynamo.StepRecord{
			Step:        step,
			Time:        vals[0],
			Temperature: vals[1],
			Kinetic:     vals[2],
			Potential:   vals[3],
		})
	}
	return records, nil
}

// LoadFrame reads the final positions and velocities of a run.
func (s *Store) LoadFrame(runID string) ([]r3.Vec, []r3.Vec, error) {
	rows, err := readCSV(filepath.Join(s.runDir(runID), finalFile))
	if err != nil {
		return nil, nil, err
	}

	pos := make([]r3.Vec, len(rows))
	vel := make([]r3.Vec, len(rows))
	for i, row := range rows {
		vals, err := parseFloats(row)
		if err != nil || len(vals) != 6 {
			return nil, nil, fmt.Errorf("%s line %d: malformed row", finalFile, i+2)
		}
		pos[i] = r3.Vec{X: vals[0], Y: vals[1], Z: vals[2]}
		vel[i] = r3.Vec{X: vals[3], Y: vals[4], Z: vals[5]}
	}
	return pos, vel, nil
}

func (s *Store) LoadRDF(runID string) ([]float64, []float64, error) {
	rows, err := readCSV(filepath.Join(s.runDir(runID), rdfFile))
	if err != nil {
		return nil, nil, err
	}

	r := make([]float64, 0, len(rows))
	g := make([]float64, 0, len(rows))
	for i, row := range rows {
		vals, err := parseFloats(row)
		if err != nil || len(vals) != 2 {
			return nil, nil, fmt.Errorf("%s line %d: malformed row", rdfFile, i+2)
		}
		r = append(r, vals[0])
		g = append(g, vals[1])
	}
	return r, g, nil
}
