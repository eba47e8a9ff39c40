package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/san-kum/mdsim/internal/dynamo"
)

type ExportData struct {
	Run          RunMetadata `json:"run"`
	Steps        int         `json:"steps"`
	Times        []float64   `json:"times"`
	Temperatures []float64   `json:"temperatures"`
	Kinetic      []float64   `json:"kinetic"`
	Potential    []float64   `json:"potential"`
	Total        []float64   `json:"total"`
}

func ExportJSON(w io.Writer, meta RunMetadata, records []dynamo.StepRecord) error {
	data := ExportData{
		Run:          meta,
		Steps:        len(records),
		Times:        make([]float64, len(records)),
		Temperatures: make([]float64, len(records)),
		Kinetic:      make([]float64, len(records)),
		Potential:    make([]float64, len(records)),
		Total:        make([]float64, len(records)),
	}

	for i, rec := range records {
		data.Times[i] = rec.Time
		data.Temperatures[i] = rec.Temperature
		data.Kinetic[i] = rec.Kinetic
		data.Potential[i] = rec.Potential
		data.Total[i] = rec.Total()
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV writes records in the trajectory.csv layout.
func ExportCSV(w io.Writer, records []dynamo.StepRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(trajectoryHeader); err != nil {
		return err
	}
	return cw.WriteAll(trajectoryRows(records))
}
