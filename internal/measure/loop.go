package measure

import (
	"fmt"
	"math"

	"github.com/jlaval-gh/Trajectory-Explorer/pkg/core"
)

// measureLoop simulates a fixed-point detector: the temporal span is cut
// into fixed-width windows and each window gets a parallelogram aperture
// aligned with the reference wave speed through the anchor position. A
// span that is not an exact multiple of the window duration ends with a
// shortened trailing window rather than dropping the remainder. All
// windows share one experiment id.
func (e *Engine) measureLoop(r core.LoopDetectorRegion, experimentID uint) (Outcome, error) {
	d := r.WindowDuration
	if d <= 0 {
		d = e.cfg.WindowDuration
	}
	h := r.ApertureLength
	if h <= 0 {
		h = e.cfg.ApertureLength
	}
	if d <= 0 || h <= 0 || !e.extent.Valid() {
		return Outcome{}, ErrInvalidRegion
	}

	w := e.ReferenceWaveSpeed()
	// Intercept of the wave-aligned center line through the anchor.
	b := r.Anchor.Position - w*r.Anchor.Time

	anchor := r.Anchor
	var out Outcome
	span := e.extent.TemporalSpan
	for t0 := 0.0; t0 < span-negligible; t0 += d {
		t1 := math.Min(t0+d, span)
		poly := []core.Point{
			{Time: t0, Position: w*t0 + b - h/2},
			{Time: t1, Position: w*t1 + b - h/2},
			{Time: t1, Position: w*t1 + b + h/2},
			{Time: t0, Position: w*t0 + b + h/2},
		}
		area, ttd, ttt := e.edieOverPolygon(poly)
		flow, density, speed := rates(area, ttd, ttt)

		out.Results = append(out.Results, core.AnalysisResult{
			Mode:                core.ModeLoopDetector,
			Flow:                flow,
			Density:             density,
			Speed:               speed,
			Area:                area,
			TotalTravelDistance: ttd,
			TotalTravelTime:     ttt,
			WaveSpeed:           w,
			ExperimentID:        experimentID,
		})
		out.Visuals = append(out.Visuals, core.AnalysisVisual{
			ExperimentID: experimentID,
			Mode:         core.ModeLoopDetector,
			Polygon:      poly,
			Anchor:       &anchor,
		})
	}

	out.Message = fmt.Sprintf("loop detector: %d windows of %.1f min at %.0f m",
		len(out.Results), d, r.Anchor.Position)
	e.logger.Info("loop detector measurement",
		"windows", len(out.Results),
		"windowDuration", d,
		"apertureLength", h,
		"waveSpeedKmh", core.SpeedKmh(w),
		"experiment", experimentID)

	return out, nil
}
