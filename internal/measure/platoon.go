package measure

import (
	"fmt"
	"math"
	"sort"

	"github.com/jlaval-gh/Trajectory-Explorer/internal/geometry"
	"github.com/jlaval-gh/Trajectory-Explorer/pkg/core"
)

// measurePlatoon tracks N consecutive vehicles through repeated
// wave-aligned spatial segments. The anchor click selects the nearest
// trajectory; the platoon is that trajectory plus the N-1 below it in
// position at the anchor time. Each step advances a cut pair by the
// segment height and measures the parallelogram bounded by the platoon's
// lead and tail trajectories, until a cut loses an intersection, the
// region leaves the spatial extent or the step cap is hit.
func (e *Engine) measurePlatoon(r core.PlatoonRegion, experimentID uint) (Outcome, error) {
	if len(e.trajectories) == 0 {
		return Outcome{}, ErrNoTrajectories
	}
	n := r.Count
	if n < 1 {
		n = e.cfg.PlatoonCount
	}
	hh := r.SegmentHeight
	if hh <= 0 {
		hh = e.cfg.SegmentHeight
	}
	if n < 1 || hh <= 0 {
		return Outcome{}, ErrInvalidRegion
	}

	anchorIdx, ok := e.nearestTrajectory(r.Anchor)
	if !ok {
		return Outcome{}, ErrAnchorNotFound
	}

	// Rank every trajectory active at the anchor time by interpolated
	// position, top of the diagram first.
	type ranked struct {
		idx int
		pos float64
	}
	var active []ranked
	for i, tr := range e.trajectories {
		if pos, found := tr.PositionAt(r.Anchor.Time); found {
			active = append(active, ranked{idx: i, pos: pos})
		}
	}
	if len(active) < 2 {
		return Outcome{}, ErrPlatoonTooSmall
	}
	sort.Slice(active, func(i, j int) bool { return active[i].pos > active[j].pos })

	rank := -1
	for i, a := range active {
		if a.idx == anchorIdx {
			rank = i
			break
		}
	}
	if rank < 0 {
		return Outcome{}, ErrAnchorNotFound
	}

	end := rank + n
	if end > len(active) {
		end = len(active)
	}
	platoon := active[rank:end]
	lead := e.trajectories[platoon[0].idx]
	tail := e.trajectories[platoon[len(platoon)-1].idx]

	w := e.ReferenceWaveSpeed()
	base := r.Anchor.Position - w*r.Anchor.Time

	anchor := r.Anchor
	var out Outcome
	for step := 0; step < platoonStepCap; step++ {
		lower := base + float64(step)*hh
		upper := lower + hh

		ll, ok1 := trajectoryLineIntersection(lead, w, lower)
		lu, ok2 := trajectoryLineIntersection(lead, w, upper)
		tl, ok3 := trajectoryLineIntersection(tail, w, lower)
		tu, ok4 := trajectoryLineIntersection(tail, w, upper)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			break
		}
		if minPosition(ll, lu, tl, tu) > e.extent.SpatialSpan {
			break
		}

		poly := []core.Point{ll, tl, tu, lu}
		area, ttd, ttt := e.edieOverPolygon(poly)
		flow, density, speed := rates(area, ttd, ttt)

		out.Results = append(out.Results, core.AnalysisResult{
			Mode:                core.ModePlatoon,
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
			Mode:         core.ModePlatoon,
			Polygon:      poly,
			Anchor:       &anchor,
		})
	}

	out.Message = fmt.Sprintf("platoon: %d vehicles, %d segments from trajectory %d",
		len(platoon), len(out.Results), lead.ID)
	e.logger.Info("platoon measurement",
		"vehicles", len(platoon),
		"segments", len(out.Results),
		"leadTrajectory", lead.ID,
		"experiment", experimentID)

	return out, nil
}

// nearestTrajectory finds the trajectory closest to the anchor by minimum
// point-to-segment distance, measured in pixel space when the diagram's
// pixel dimensions are known and in domain space otherwise.
func (e *Engine) nearestTrajectory(anchor core.Point) (int, bool) {
	toXY := func(p core.Point) (float64, float64) {
		if e.width > 0 && e.height > 0 && e.extent.Valid() {
			return e.extent.ToPixel(p, e.width, e.height)
		}
		return p.Time, p.Position
	}

	px, py := toXY(anchor)
	best := -1
	bestDist := math.Inf(1)
	for i, tr := range e.trajectories {
		for j := 0; j < len(tr.Points)-1; j++ {
			ax, ay := toXY(tr.Points[j])
			bx, by := toXY(tr.Points[j+1])
			if d := geometry.PointToSegmentDistance(px, py, ax, ay, bx, by); d < bestDist {
				bestDist = d
				best = i
			}
		}
	}
	return best, best >= 0
}

// trajectoryLineIntersection returns the first intersection of the
// trajectory's segments with the infinite line y = slope*x + intercept.
func trajectoryLineIntersection(tr core.Trajectory, slope, intercept float64) (core.Point, bool) {
	for i := 0; i < len(tr.Points)-1; i++ {
		if p, ok := geometry.SegmentLineIntersection(tr.Points[i], tr.Points[i+1], slope, intercept); ok {
			return p, true
		}
	}
	return core.Point{}, false
}

func minPosition(pts ...core.Point) float64 {
	m := pts[0].Position
	for _, p := range pts[1:] {
		if p.Position < m {
			m = p.Position
		}
	}
	return m
}
