package measure

import (
	"github.com/jlaval-gh/Trajectory-Explorer/internal/queue"
	"github.com/jlaval-gh/Trajectory-Explorer/pkg/core"
)

// Session is the per-mode point-collection state machine: idle until the
// active mode's point budget is met, then the collected points are drained
// for measurement and the session returns to idle. Switching modes clears
// any in-progress collection, so a partial line can never leak into a
// polygon request.
type Session struct {
	mode   core.Mode
	points *queue.Queue[core.Point]
}

// NewSession creates a session starting in line mode.
func NewSession() *Session {
	return &Session{
		mode:   core.ModeLine,
		points: queue.New[core.Point](),
	}
}

// Mode returns the active analysis mode.
func (s *Session) Mode() core.Mode {
	return s.mode
}

// SetMode switches the active mode and discards in-progress points.
// Unknown modes are rejected and leave the session unchanged.
func (s *Session) SetMode(m core.Mode) error {
	if !m.Valid() {
		return ErrInvalidRegion
	}
	s.mode = m
	s.points.Clear()
	return nil
}

// AddPoint buffers one anchor point. When the active mode's budget is met
// the full point set is returned with done=true and the buffer resets;
// otherwise the returned slice is nil.
func (s *Session) AddPoint(p core.Point) (points []core.Point, done bool) {
	s.points.Push(p)
	if s.points.Len() < s.mode.PointBudget() {
		return nil, false
	}
	return s.points.Drain(), true
}

// Pending returns how many points the session has buffered.
func (s *Session) Pending() int {
	return s.points.Len()
}

// Reset discards any in-progress point collection.
func (s *Session) Reset() {
	s.points.Clear()
}

// Region assembles the AnalysisRegion for one completed point set, filling
// mode configuration scalars from cfg.
func (s *Session) Region(points []core.Point, cfg Config) (core.AnalysisRegion, error) {
	if len(points) != s.mode.PointBudget() {
		return core.AnalysisRegion{}, ErrInvalidRegion
	}
	region := core.AnalysisRegion{Mode: s.mode}
	switch s.mode {
	case core.ModeLine:
		region.Line = &core.LineRegion{P1: points[0], P2: points[1]}
	case core.ModePolygon:
		region.Polygon = &core.PolygonRegion{
			Vertices: [4]core.Point{points[0], points[1], points[2], points[3]},
		}
	case core.ModePlatoon:
		region.Platoon = &core.PlatoonRegion{
			Anchor:        points[0],
			Count:         cfg.PlatoonCount,
			SegmentHeight: cfg.SegmentHeight,
		}
	case core.ModeLoopDetector:
		region.LoopDetector = &core.LoopDetectorRegion{
			Anchor:         points[0],
			WindowDuration: cfg.WindowDuration,
			ApertureLength: cfg.ApertureLength,
		}
	default:
		return core.AnalysisRegion{}, ErrInvalidRegion
	}
	return region, nil
}
