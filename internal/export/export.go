// Package export writes recorded measurements as delimited text for
// spreadsheet analysis.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jlaval-gh/Trajectory-Explorer/pkg/core"
)

// Format selects the output delimiter.
type Format string

const (
	FormatCSV Format = "csv"
	FormatTSV Format = "tsv"
)

var header = []string{
	"experiment",
	"mode",
	"time_min",
	"position_m",
	"flow_veh_h",
	"density_veh_km",
	"speed_km_h",
	"area",
	"ttd",
	"ttt",
}

// Write emits one row per result. Results and visuals are the parallel
// append-only lists recorded by the session service; the visual supplies
// the region's lower-right corner (max time, min position). The speed
// column carries the wave speed for line measurements.
func Write(w io.Writer, format Format, results []core.AnalysisResult, visuals []core.AnalysisVisual) error {
	if len(results) != len(visuals) {
		return fmt.Errorf("results and visuals length mismatch: %d vs %d", len(results), len(visuals))
	}

	cw := csv.NewWriter(w)
	switch format {
	case FormatCSV:
	case FormatTSV:
		cw.Comma = '\t'
	default:
		return fmt.Errorf("unknown export format %q", format)
	}

	if err := cw.Write(header); err != nil {
		return err
	}

	for i, r := range results {
		corner := visuals[i].LowerRight()

		speed := core.SpeedKmh(r.Speed)
		if r.Mode == core.ModeLine {
			speed = core.SpeedKmh(r.WaveSpeed)
		}

		row := []string{
			strconv.FormatUint(uint64(r.ExperimentID), 10),
			string(r.Mode),
			formatFloat(corner.Time),
			formatFloat(corner.Position),
			formatFloat(core.FlowPerHour(r.Flow)),
			formatFloat(core.DensityPerKm(r.Density)),
			formatFloat(speed),
			formatFloat(r.Area),
			formatFloat(r.TotalTravelDistance),
			formatFloat(r.TotalTravelTime),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes the export to path, inferring nothing from the
// extension: the caller picks the format.
func WriteFile(path string, format Format, results []core.AnalysisResult, visuals []core.AnalysisVisual) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}

	if err := Write(f, format, results, visuals); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
