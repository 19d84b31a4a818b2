// Package measure applies Edie's generalized traffic definitions to a
// trajectory set over user-specified regions. For a region of area A the
// accumulated total travel distance and total travel time give
// density = TTT/A, flow = TTD/A and speed = TTD/TTT. Four analysis modes
// share the engine: line, polygon, platoon and loop detector.
package measure

import (
	"errors"
	"log/slog"

	"github.com/jlaval-gh/Trajectory-Explorer/internal/geometry"
	"github.com/jlaval-gh/Trajectory-Explorer/pkg/core"
)

// negligible is the threshold below which a normalizing denominator is
// treated as zero. Rates divide by it nowhere; they resolve to 0 instead.
const negligible = 1e-12

// platoonStepCap bounds the platoon walk against degenerate geometry that
// would otherwise never leave the spatial extent.
const platoonStepCap = 100

var (
	// ErrNoTrajectories is returned when a measurement needs a trajectory
	// set and none has been extracted yet.
	ErrNoTrajectories = errors.New("no trajectories available")
	// ErrInvalidRegion is returned when a region's mode tag and payload
	// disagree or a configuration scalar is out of range.
	ErrInvalidRegion = errors.New("invalid analysis region")
	// ErrAnchorNotFound is returned when the trajectory nearest the anchor
	// click is not active at the anchor time.
	ErrAnchorNotFound = errors.New("anchor trajectory not active at anchor time")
	// ErrPlatoonTooSmall is returned when fewer than two trajectories are
	// active at the platoon anchor time.
	ErrPlatoonTooSmall = errors.New("fewer than two trajectories active at anchor time")
)

// Config carries the per-mode measurement defaults. Region scalars, when
// set, take precedence over these.
type Config struct {
	// WindowDuration is the loop-detector window length in minutes.
	WindowDuration float64
	// ApertureLength is the loop-detector aperture in meters.
	ApertureLength float64
	// PlatoonCount is the number of consecutive vehicles a platoon tracks.
	PlatoonCount int
	// SegmentHeight is the platoon cut advance per step in meters.
	SegmentHeight float64
	// DefaultWaveSpeedKmh seeds the reference wave speed before any line
	// measurement has been taken.
	DefaultWaveSpeedKmh float64
}

// DefaultConfig returns the measurement defaults.
func DefaultConfig() Config {
	return Config{
		WindowDuration:      1.0,
		ApertureLength:      10.0,
		PlatoonCount:        4,
		SegmentHeight:       20.0,
		DefaultWaveSpeedKmh: core.DefaultWaveSpeedKmh,
	}
}

// Engine computes traffic measurements against the current diagram. It is
// owned by a single logical caller; it only ever appends to its outputs and
// replaces its trajectory arena wholesale when a new diagram arrives.
type Engine struct {
	cfg    Config
	logger *slog.Logger

	extent       core.Extent
	width        int
	height       int
	trajectories []core.Trajectory

	waveSpeed float64 // m/min, set by the most recent line measurement
	haveWave  bool
}

// New creates an engine. A nil logger falls back to slog.Default.
func New(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg, logger: logger}
}

// SetDiagram replaces the engine's diagram context and trajectory arena.
// Pixel dimensions feed the platoon anchor search; zero dimensions fall
// back to domain-space distances. Derived state, including the measured
// wave speed, is discarded.
func (e *Engine) SetDiagram(extent core.Extent, width, height int, trajectories []core.Trajectory) {
	e.extent = extent
	e.width = width
	e.height = height
	e.trajectories = trajectories
	e.waveSpeed = 0
	e.haveWave = false
}

// Trajectories returns the current trajectory arena.
func (e *Engine) Trajectories() []core.Trajectory {
	return e.trajectories
}

// ReferenceWaveSpeed returns the wave speed in m/min used to align platoon
// cuts and loop-detector apertures: the most recent line measurement, or
// the configured default when none has been taken.
func (e *Engine) ReferenceWaveSpeed() float64 {
	if e.haveWave {
		return e.waveSpeed
	}
	return core.WaveSpeedFromKmh(e.cfg.DefaultWaveSpeedKmh)
}

// Outcome is one user action's worth of measurement output. Platoon and
// loop-detector batches carry several result/visual pairs under a single
// experiment id; Message is the human-readable event line for the log
// display.
type Outcome struct {
	Results []core.AnalysisResult
	Visuals []core.AnalysisVisual
	Message string
}

// Measure runs one analysis region to completion. Input insufficiency
// (missing trajectories, unusable anchor) comes back as a sentinel error
// and leaves engine state untouched; degenerate geometry never errors, it
// resolves to zero-valued rates.
func (e *Engine) Measure(region core.AnalysisRegion, experimentID uint) (Outcome, error) {
	switch region.Mode {
	case core.ModeLine:
		if region.Line == nil {
			return Outcome{}, ErrInvalidRegion
		}
		return e.measureLine(*region.Line, experimentID)
	case core.ModePolygon:
		if region.Polygon == nil {
			return Outcome{}, ErrInvalidRegion
		}
		return e.measurePolygon(*region.Polygon, experimentID)
	case core.ModePlatoon:
		if region.Platoon == nil {
			return Outcome{}, ErrInvalidRegion
		}
		return e.measurePlatoon(*region.Platoon, experimentID)
	case core.ModeLoopDetector:
		if region.LoopDetector == nil {
			return Outcome{}, ErrInvalidRegion
		}
		return e.measureLoop(*region.LoopDetector, experimentID)
	default:
		return Outcome{}, ErrInvalidRegion
	}
}

// edieOverPolygon accumulates area, TTD and TTT for one polygon region
// over every trajectory segment in the arena.
func (e *Engine) edieOverPolygon(poly []core.Point) (area, ttd, ttt float64) {
	area = geometry.PolygonArea(poly)
	for _, tr := range e.trajectories {
		for i := 0; i < len(tr.Points)-1; i++ {
			m := geometry.ClippedSegmentMetrics(tr.Points[i], tr.Points[i+1], poly)
			ttd += m.TravelDistance
			ttt += m.TravelTime
		}
	}
	return area, ttd, ttt
}

// rates derives flow, density and speed from accumulated Edie quantities.
// Negligible denominators yield 0, never NaN or Inf.
func rates(area, ttd, ttt float64) (flow, density, speed float64) {
	if area > negligible {
		flow = ttd / area
		density = ttt / area
	}
	if ttt > negligible {
		speed = ttd / ttt
	}
	return flow, density, speed
}
