package measure

import (
	"fmt"

	"github.com/jlaval-gh/Trajectory-Explorer/pkg/core"
)

// measurePolygon computes Edie rates over a four-vertex region. A region
// enclosing no trajectory segments reports its area with zero rates.
func (e *Engine) measurePolygon(r core.PolygonRegion, experimentID uint) (Outcome, error) {
	poly := r.Vertices[:]
	area, ttd, ttt := e.edieOverPolygon(poly)
	flow, density, speed := rates(area, ttd, ttt)

	result := core.AnalysisResult{
		Mode:                core.ModePolygon,
		Flow:                flow,
		Density:             density,
		Speed:               speed,
		Area:                area,
		TotalTravelDistance: ttd,
		TotalTravelTime:     ttt,
		ExperimentID:        experimentID,
	}
	visual := core.AnalysisVisual{
		ExperimentID: experimentID,
		Mode:         core.ModePolygon,
		Polygon:      append([]core.Point(nil), poly...),
	}

	msg := fmt.Sprintf("polygon: flow %.1f veh/h, density %.1f veh/km, speed %.1f km/h",
		core.FlowPerHour(flow), core.DensityPerKm(density), core.SpeedKmh(speed))
	e.logger.Info("polygon measurement",
		"flow", flow,
		"density", density,
		"speed", speed,
		"area", area,
		"experiment", experimentID)

	return Outcome{
		Results: []core.AnalysisResult{result},
		Visuals: []core.AnalysisVisual{visual},
		Message: msg,
	}, nil
}
