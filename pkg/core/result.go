// pkg/core/result.go
package core

import (
	geom "github.com/peterstace/simplefeatures/geom"
)

// AnalysisResult holds one measurement in internal units: flow in veh/min,
// density in veh/m, speed and wave speed in m/min. Conversion to display
// units happens only at the export/UI boundary (see units.go).
//
// Count and WaveSpeed are populated by line mode only; the Edie fields stay
// zero there. Flow and density are forced to 0, never NaN or Inf, when the
// normalizing denominator is numerically negligible.
type AnalysisResult struct {
	Mode                Mode    `json:"mode"`
	Flow                float64 `json:"flow"`
	Density             float64 `json:"density"`
	Speed               float64 `json:"speed"`
	Area                float64 `json:"area"`
	TotalTravelDistance float64 `json:"totalTravelDistance"`
	TotalTravelTime     float64 `json:"totalTravelTime"`
	Count               int     `json:"count,omitempty"`
	WaveSpeed           float64 `json:"waveSpeed,omitempty"`
	ExperimentID        uint    `json:"experimentId"`
}

// AnalysisVisual is the geometric shape a collaborator renders for one
// result. Platoon and loop-detector batches emit one visual per step or
// window, all sharing the batch's experiment id.
type AnalysisVisual struct {
	ExperimentID  uint    `json:"experimentId"`
	Mode          Mode    `json:"mode"`
	Polygon       []Point `json:"polygon"`
	Intersections []Point `json:"intersections,omitempty"`
	Anchor        *Point  `json:"anchor,omitempty"`
}

// Outline returns the visual's polygon as a closed simplefeatures line
// string, suitable for WKT serialization. Returns the empty line string
// when the visual has fewer than two polygon points.
func (v AnalysisVisual) Outline() geom.LineString {
	if len(v.Polygon) < 2 {
		return geom.LineString{}
	}
	flat := make([]float64, 0, (len(v.Polygon)+1)*2)
	for _, p := range v.Polygon {
		flat = append(flat, p.Time, p.Position)
	}
	flat = append(flat, v.Polygon[0].Time, v.Polygon[0].Position)
	ls, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err != nil {
		return geom.LineString{}
	}
	return ls
}

// LowerRight returns the region's reference corner for exports: the
// maximum time and minimum position among the visual's polygon points.
func (v AnalysisVisual) LowerRight() Point {
	if len(v.Polygon) == 0 {
		return Point{}
	}
	corner := v.Polygon[0]
	for _, p := range v.Polygon[1:] {
		if p.Time > corner.Time {
			corner.Time = p.Time
		}
		if p.Position < corner.Position {
			corner.Position = p.Position
		}
	}
	return corner
}
