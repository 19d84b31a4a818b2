// pkg/core/point.go
package core

// Point is a location in the time-space diagram.
// Time is in minutes, Position in meters. Immutable value type.
type Point struct {
	Time     float64 `json:"time"`
	Position float64 `json:"position"`
}

// Extent is the physical duration and length a raster diagram covers.
// It defines the affine mapping between pixel coordinates and domain
// coordinates: the pixel origin sits at the top-left while the domain
// origin sits at the bottom-left, so the vertical axis flips.
type Extent struct {
	TemporalSpan float64 `json:"temporalSpan"` // minutes
	SpatialSpan  float64 `json:"spatialSpan"`  // meters
}

// Valid reports whether both spans are positive.
func (e Extent) Valid() bool {
	return e.TemporalSpan > 0 && e.SpatialSpan > 0
}

// ToDomain maps a pixel coordinate to a domain point. Pixel rows grow
// downward while position grows upward.
func (e Extent) ToDomain(px, py, width, height int) Point {
	return Point{
		Time:     float64(px) / float64(width) * e.TemporalSpan,
		Position: float64(height-py) / float64(height) * e.SpatialSpan,
	}
}

// ToPixel maps a domain point back to fractional pixel coordinates.
// Inverse of ToDomain up to floating-point error.
func (e Extent) ToPixel(p Point, width, height int) (x, y float64) {
	x = p.Time / e.TemporalSpan * float64(width)
	y = float64(height) - p.Position/e.SpatialSpan*float64(height)
	return x, y
}
