package measure

import (
	"fmt"
	"math"

	"github.com/jlaval-gh/Trajectory-Explorer/internal/geometry"
	"github.com/jlaval-gh/Trajectory-Explorer/pkg/core"
)

// measureLine counts exact trajectory crossings of the two-point cut and
// reads its slope as a wave speed. Edie rates stay zero in this mode. The
// measured slope becomes the engine's reference wave speed for subsequent
// platoon and loop-detector requests; a cut with negligible time extent
// leaves the reference untouched.
func (e *Engine) measureLine(r core.LineRegion, experimentID uint) (Outcome, error) {
	dt := r.P2.Time - r.P1.Time

	var wave float64
	if math.Abs(dt) > negligible {
		wave = (r.P2.Position - r.P1.Position) / dt
		e.waveSpeed = wave
		e.haveWave = true
	}

	count := 0
	var hits []core.Point
	for _, tr := range e.trajectories {
		for i := 0; i < len(tr.Points)-1; i++ {
			p, ok := geometry.SegmentIntersection(tr.Points[i], tr.Points[i+1], r.P1, r.P2)
			if !ok {
				continue
			}
			// intersection is endpoint-inclusive, so a crossing at a shared
			// sample point is reported by both adjoining segments; count it
			// for the earlier segment only
			if i > 0 && samplePoint(p, tr.Points[i]) {
				continue
			}
			hits = append(hits, p)
			count++
		}
	}

	result := core.AnalysisResult{
		Mode:         core.ModeLine,
		Count:        count,
		WaveSpeed:    wave,
		ExperimentID: experimentID,
	}
	visual := core.AnalysisVisual{
		ExperimentID:  experimentID,
		Mode:          core.ModeLine,
		Polygon:       []core.Point{r.P1, r.P2},
		Intersections: hits,
	}

	msg := fmt.Sprintf("line: %d crossings, wave speed %.1f km/h",
		count, core.SpeedKmh(wave))
	e.logger.Info("line measurement",
		"crossings", count,
		"waveSpeedKmh", core.SpeedKmh(wave),
		"experiment", experimentID)

	return Outcome{
		Results: []core.AnalysisResult{result},
		Visuals: []core.AnalysisVisual{visual},
		Message: msg,
	}, nil
}

// samplePoint reports whether a coincides with the trajectory sample b
// within floating tolerance.
func samplePoint(a, b core.Point) bool {
	return math.Abs(a.Time-b.Time) < 1e-9 && math.Abs(a.Position-b.Position) < 1e-9
}
