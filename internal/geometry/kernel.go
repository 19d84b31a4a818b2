// Package geometry provides the pure 2-D primitives used by the
// measurement engine: point-in-polygon tests, segment intersections,
// polygon areas and polygon-clipped segment metrics. All functions are
// stateless and operate in domain coordinates (time on the x axis,
// position on the y axis).
package geometry

import (
	"math"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/jlaval-gh/Trajectory-Explorer/pkg/core"
)

// boundarySlack absorbs floating-point error at segment endpoints.
const boundarySlack = 1e-9

// clipSamples is the number of sub-intervals ClippedSegmentMetrics tests.
const clipSamples = 10

func xy(p core.Point) geom.XY {
	return geom.XY{X: p.Time, Y: p.Position}
}

func point(v geom.XY) core.Point {
	return core.Point{Time: v.X, Position: v.Y}
}

// PointInPolygon reports whether p lies inside the simple polygon poly
// using the even-odd ray casting rule. The last vertex implicitly connects
// to the first. Correct for non-convex simple polygons; winding of
// self-intersecting polygons is undefined.
func PointInPolygon(p core.Point, poly []core.Point) bool {
	inside := false
	n := len(poly)
	for i := 0; i < n; i++ {
		a := poly[i]
		b := poly[(i+1)%n]
		if (a.Position > p.Position) == (b.Position > p.Position) {
			continue
		}
		crossing := (b.Time-a.Time)*(p.Position-a.Position)/(b.Position-a.Position) + a.Time
		if p.Time < crossing {
			inside = !inside
		}
	}
	return inside
}

// SegmentIntersection returns the intersection of segment p1-p2 with
// segment p3-p4. The second return is false for parallel or collinear
// segments (zero cross-product denominator) and when the intersection
// parameter of either segment falls outside [0,1].
func SegmentIntersection(p1, p2, p3, p4 core.Point) (core.Point, bool) {
	r := xy(p2).Sub(xy(p1))
	s := xy(p4).Sub(xy(p3))
	denom := r.Cross(s)
	if denom == 0 {
		return core.Point{}, false
	}
	qp := xy(p3).Sub(xy(p1))
	t := qp.Cross(s) / denom
	u := qp.Cross(r) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return core.Point{}, false
	}
	return point(xy(p1).Add(r.Scale(t))), true
}

// SegmentLineIntersection intersects the finite segment p1-p2 with the
// infinite line position = slope*time + intercept. A constant-time
// (vertical) segment is handled separately to avoid dividing by zero.
func SegmentLineIntersection(p1, p2 core.Point, slope, intercept float64) (core.Point, bool) {
	if p1.Time == p2.Time {
		pos := slope*p1.Time + intercept
		lo := math.Min(p1.Position, p2.Position)
		hi := math.Max(p1.Position, p2.Position)
		if pos < lo-boundarySlack || pos > hi+boundarySlack {
			return core.Point{}, false
		}
		return core.Point{Time: p1.Time, Position: pos}, true
	}

	segSlope := (p2.Position - p1.Position) / (p2.Time - p1.Time)
	if segSlope == slope {
		return core.Point{}, false
	}
	segIntercept := p1.Position - segSlope*p1.Time
	tm := (intercept - segIntercept) / (segSlope - slope)

	lo := math.Min(p1.Time, p2.Time)
	hi := math.Max(p1.Time, p2.Time)
	if tm < lo-boundarySlack || tm > hi+boundarySlack {
		return core.Point{}, false
	}
	return core.Point{Time: tm, Position: slope*tm + intercept}, true
}

// PolygonArea returns the absolute shoelace area of a simple polygon,
// independent of vertex ordering.
func PolygonArea(poly []core.Point) float64 {
	n := len(poly)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += xy(poly[i]).Cross(xy(poly[(i+1)%n]))
	}
	return math.Abs(sum) / 2
}

// SegmentMetrics is the portion of a trajectory segment attributed to a
// measurement region.
type SegmentMetrics struct {
	TravelDistance float64 // meters
	TravelTime     float64 // minutes
}

// ClippedSegmentMetrics approximates the part of segment p1-p2 lying inside
// poly by splitting the segment into 10 sub-intervals and testing each
// midpoint for membership. This is an approximation, not an exact clip:
// accuracy scales with sub-interval count and trajectory sampling density,
// and it stays robust for the non-convex and self-intersecting regions the
// platoon and loop-detector modes construct.
func ClippedSegmentMetrics(p1, p2 core.Point, poly []core.Point) SegmentMetrics {
	dt := (p2.Time - p1.Time) / clipSamples
	dx := (p2.Position - p1.Position) / clipSamples

	var m SegmentMetrics
	for i := 0; i < clipSamples; i++ {
		mid := core.Point{
			Time:     p1.Time + (float64(i)+0.5)*dt,
			Position: p1.Position + (float64(i)+0.5)*dx,
		}
		if PointInPolygon(mid, poly) {
			m.TravelDistance += math.Abs(dx)
			m.TravelTime += math.Abs(dt)
		}
	}
	return m
}

// PointToSegmentDistance returns the euclidean distance from p to the
// segment a-b in whatever coordinate space the three points share.
func PointToSegmentDistance(px, py, ax, ay, bx, by float64) float64 {
	ab := geom.XY{X: bx - ax, Y: by - ay}
	ap := geom.XY{X: px - ax, Y: py - ay}
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return ap.Length()
	}
	t := ap.Dot(ab) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return ap.Sub(ab.Scale(t)).Length()
}
