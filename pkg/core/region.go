// pkg/core/region.go
package core

// Mode identifies an analysis mode.
type Mode string

const (
	ModeLine         Mode = "line"
	ModePolygon      Mode = "polygon"
	ModePlatoon      Mode = "platoon"
	ModeLoopDetector Mode = "loopdetector"
)

// PointBudget returns how many anchor points the mode collects before a
// measurement fires.
func (m Mode) PointBudget() int {
	switch m {
	case ModeLine:
		return 2
	case ModePolygon:
		return 4
	case ModePlatoon, ModeLoopDetector:
		return 1
	default:
		return 0
	}
}

// Valid reports whether m names a known analysis mode.
func (m Mode) Valid() bool {
	return m.PointBudget() > 0
}

// LineRegion is a two-point cut through the diagram. Its slope is read as a
// wave speed; measurement reports trajectory crossings, not Edie rates.
type LineRegion struct {
	P1 Point `json:"p1"`
	P2 Point `json:"p2"`
}

// PolygonRegion is a four-vertex Edie measurement region.
type PolygonRegion struct {
	Vertices [4]Point `json:"vertices"`
}

// PlatoonRegion tracks Count consecutive vehicles over repeated
// wave-aligned spatial segments of SegmentHeight meters, anchored near a
// trajectory.
type PlatoonRegion struct {
	Anchor        Point   `json:"anchor"`
	Count         int     `json:"count"`
	SegmentHeight float64 `json:"segmentHeight"` // meters
}

// LoopDetectorRegion simulates a fixed-point detector: successive time
// windows of WindowDuration minutes over a wave-aligned aperture of
// ApertureLength meters centered on the anchor position.
type LoopDetectorRegion struct {
	Anchor         Point   `json:"anchor"`
	WindowDuration float64 `json:"windowDuration"` // minutes
	ApertureLength float64 `json:"apertureLength"` // meters
}

// AnalysisRegion is a tagged variant over the four mode-specific region
// shapes. Exactly one of the pointers matching Mode is set.
type AnalysisRegion struct {
	Mode         Mode                `json:"mode"`
	Line         *LineRegion         `json:"line,omitempty"`
	Polygon      *PolygonRegion      `json:"polygon,omitempty"`
	Platoon      *PlatoonRegion      `json:"platoon,omitempty"`
	LoopDetector *LoopDetectorRegion `json:"loopDetector,omitempty"`
}
