package geometry

import (
	"math"
	"testing"

	"github.com/jlaval-gh/Trajectory-Explorer/pkg/core"
)

func square() []core.Point {
	return []core.Point{
		{Time: 0, Position: 0},
		{Time: 4, Position: 0},
		{Time: 4, Position: 4},
		{Time: 0, Position: 4},
	}
}

func TestPointInPolygon_Centroid(t *testing.T) {
	if !PointInPolygon(core.Point{Time: 2, Position: 2}, square()) {
		t.Error("expected centroid of convex polygon to be inside")
	}
}

func TestPointInPolygon_FarOutside(t *testing.T) {
	if PointInPolygon(core.Point{Time: 1000, Position: -500}, square()) {
		t.Error("expected point far outside bounding box to be outside")
	}
}

func TestPointInPolygon_NonConvex(t *testing.T) {
	// L-shaped polygon with the notch at the top right
	poly := []core.Point{
		{Time: 0, Position: 0},
		{Time: 4, Position: 0},
		{Time: 4, Position: 2},
		{Time: 2, Position: 2},
		{Time: 2, Position: 4},
		{Time: 0, Position: 4},
	}
	if !PointInPolygon(core.Point{Time: 1, Position: 3}, poly) {
		t.Error("expected point in the L's upper arm to be inside")
	}
	if PointInPolygon(core.Point{Time: 3, Position: 3}, poly) {
		t.Error("expected point in the notch to be outside")
	}
}

func TestSegmentIntersection_Crossing(t *testing.T) {
	p, ok := SegmentIntersection(
		core.Point{Time: 0, Position: 0}, core.Point{Time: 2, Position: 2},
		core.Point{Time: 0, Position: 2}, core.Point{Time: 2, Position: 0},
	)
	if !ok {
		t.Fatal("expected crossing segments to intersect")
	}
	if math.Abs(p.Time-1) > 1e-12 || math.Abs(p.Position-1) > 1e-12 {
		t.Errorf("expected intersection at (1,1), got (%f,%f)", p.Time, p.Position)
	}
}

func TestSegmentIntersection_Parallel(t *testing.T) {
	if _, ok := SegmentIntersection(
		core.Point{Time: 0, Position: 0}, core.Point{Time: 2, Position: 0},
		core.Point{Time: 0, Position: 1}, core.Point{Time: 2, Position: 1},
	); ok {
		t.Error("expected parallel segments not to intersect")
	}
}

func TestSegmentIntersection_CollinearOverlapping(t *testing.T) {
	// Identical segments share every point, but the zero-denominator rule
	// reports no intersection.
	a := core.Point{Time: 0, Position: 0}
	b := core.Point{Time: 3, Position: 3}
	if _, ok := SegmentIntersection(a, b, a, b); ok {
		t.Error("expected collinear overlapping segments to return none")
	}
}

func TestSegmentIntersection_OutsideRange(t *testing.T) {
	// The infinite lines cross, but not within both segments.
	if _, ok := SegmentIntersection(
		core.Point{Time: 0, Position: 0}, core.Point{Time: 1, Position: 1},
		core.Point{Time: 3, Position: 0}, core.Point{Time: 4, Position: 1},
	); ok {
		t.Error("expected intersection parameter outside [0,1] to return none")
	}
}

func TestSegmentLineIntersection_Basic(t *testing.T) {
	p, ok := SegmentLineIntersection(
		core.Point{Time: 0, Position: 0}, core.Point{Time: 4, Position: 4},
		-1, 4,
	)
	if !ok {
		t.Fatal("expected intersection with the line position = -time + 4")
	}
	if math.Abs(p.Time-2) > 1e-9 || math.Abs(p.Position-2) > 1e-9 {
		t.Errorf("expected intersection at (2,2), got (%f,%f)", p.Time, p.Position)
	}
}

func TestSegmentLineIntersection_VerticalSegment(t *testing.T) {
	p, ok := SegmentLineIntersection(
		core.Point{Time: 3, Position: 0}, core.Point{Time: 3, Position: 10},
		2, 1,
	)
	if !ok {
		t.Fatal("expected vertical segment to intersect the line")
	}
	if p.Time != 3 || math.Abs(p.Position-7) > 1e-9 {
		t.Errorf("expected intersection at (3,7), got (%f,%f)", p.Time, p.Position)
	}

	if _, ok := SegmentLineIntersection(
		core.Point{Time: 3, Position: 0}, core.Point{Time: 3, Position: 5},
		2, 1,
	); ok {
		t.Error("expected line to miss the vertical segment's position range")
	}
}

func TestSegmentLineIntersection_Parallel(t *testing.T) {
	if _, ok := SegmentLineIntersection(
		core.Point{Time: 0, Position: 1}, core.Point{Time: 5, Position: 11},
		2, 0,
	); ok {
		t.Error("expected segment parallel to the line to return none")
	}
}

func TestPolygonArea_OrderInvariance(t *testing.T) {
	poly := []core.Point{
		{Time: 0, Position: 0},
		{Time: 5, Position: 1},
		{Time: 6, Position: 4},
		{Time: 1, Position: 5},
	}
	want := PolygonArea(poly)
	if want <= 0 {
		t.Fatalf("expected positive area, got %f", want)
	}

	reversed := make([]core.Point, len(poly))
	for i, p := range poly {
		reversed[len(poly)-1-i] = p
	}
	if got := PolygonArea(reversed); math.Abs(got-want) > 1e-9 {
		t.Errorf("expected area invariant under reversal: %f vs %f", got, want)
	}

	for shift := 1; shift < len(poly); shift++ {
		rotated := append(append([]core.Point{}, poly[shift:]...), poly[:shift]...)
		if got := PolygonArea(rotated); math.Abs(got-want) > 1e-9 {
			t.Errorf("expected area invariant under rotation by %d: %f vs %f", shift, got, want)
		}
	}
}

func TestPolygonArea_UnitSquare(t *testing.T) {
	poly := []core.Point{
		{Time: 0, Position: 0},
		{Time: 1, Position: 0},
		{Time: 1, Position: 1},
		{Time: 0, Position: 1},
	}
	if got := PolygonArea(poly); math.Abs(got-1) > 1e-12 {
		t.Errorf("expected unit square area 1, got %f", got)
	}
}

func TestClippedSegmentMetrics_FullyInside(t *testing.T) {
	m := ClippedSegmentMetrics(
		core.Point{Time: 1, Position: 1},
		core.Point{Time: 3, Position: 3},
		square(),
	)
	if math.Abs(m.TravelTime-2) > 1e-9 {
		t.Errorf("expected full travel time 2, got %f", m.TravelTime)
	}
	if math.Abs(m.TravelDistance-2) > 1e-9 {
		t.Errorf("expected full travel distance 2, got %f", m.TravelDistance)
	}
}

func TestClippedSegmentMetrics_FullyOutside(t *testing.T) {
	m := ClippedSegmentMetrics(
		core.Point{Time: 10, Position: 10},
		core.Point{Time: 12, Position: 12},
		square(),
	)
	if m.TravelTime != 0 || m.TravelDistance != 0 {
		t.Errorf("expected zero metrics outside the polygon, got %+v", m)
	}
}

func TestClippedSegmentMetrics_HalfInside(t *testing.T) {
	// Segment from (2,2) to (6,2): half lies inside the 4x4 square.
	m := ClippedSegmentMetrics(
		core.Point{Time: 2, Position: 2},
		core.Point{Time: 6, Position: 2},
		square(),
	)
	if math.Abs(m.TravelTime-2) > 0.5 {
		t.Errorf("expected roughly half the 4-minute span inside, got %f", m.TravelTime)
	}
}

func TestPointToSegmentDistance(t *testing.T) {
	if d := PointToSegmentDistance(0, 1, -1, 0, 1, 0); math.Abs(d-1) > 1e-12 {
		t.Errorf("expected perpendicular distance 1, got %f", d)
	}
	if d := PointToSegmentDistance(3, 0, -1, 0, 1, 0); math.Abs(d-2) > 1e-12 {
		t.Errorf("expected endpoint distance 2, got %f", d)
	}
	if d := PointToSegmentDistance(1, 1, 0, 0, 0, 0); math.Abs(d-math.Sqrt2) > 1e-12 {
		t.Errorf("expected degenerate segment distance sqrt(2), got %f", d)
	}
}
