package measure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlaval-gh/Trajectory-Explorer/pkg/core"
)

// traj builds a trajectory sampled every step minutes from t0 to t1.
func traj(id int, t0, t1, step float64, posAt func(t float64) float64) core.Trajectory {
	tr := core.Trajectory{ID: id}
	for t := t0; t <= t1+1e-9; t += step {
		tr.Points = append(tr.Points, core.Point{Time: t, Position: posAt(t)})
	}
	return tr
}

func flat(pos float64) func(float64) float64 {
	return func(float64) float64 { return pos }
}

func moving(start, speed float64) func(float64) float64 {
	return func(t float64) float64 { return start + speed*t }
}

func newTestEngine(trajectories ...core.Trajectory) *Engine {
	e := New(DefaultConfig(), nil)
	e.SetDiagram(core.Extent{TemporalSpan: 10, SpatialSpan: 100}, 0, 0, trajectories)
	return e
}

func TestMeasureLine_SingleCrossing(t *testing.T) {
	// One vehicle stopped at position 50 for the whole span, cut by a
	// rising line through it.
	e := newTestEngine(traj(1, 0, 10, 1, flat(50)))

	out, err := e.Measure(core.AnalysisRegion{
		Mode: core.ModeLine,
		Line: &core.LineRegion{
			P1: core.Point{Time: 0, Position: 41},
			P2: core.Point{Time: 10, Position: 61},
		},
	}, 1)

	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	r := out.Results[0]
	assert.Equal(t, core.ModeLine, r.Mode)
	assert.Equal(t, 1, r.Count)
	assert.InDelta(t, 2.0, r.WaveSpeed, 1e-9) // 20 m over 10 min
	assert.Zero(t, r.Flow)
	assert.Zero(t, r.Density)

	require.Len(t, out.Visuals, 1)
	assert.Len(t, out.Visuals[0].Intersections, 1)
	assert.InDelta(t, 4.5, out.Visuals[0].Intersections[0].Time, 1e-9)
}

func TestMeasureLine_CrossingAtSamplePointCountsOnce(t *testing.T) {
	// The cut crosses position 50 at t=5 exactly, which is a sample point
	// shared by two consecutive segments. It is one physical crossing.
	e := newTestEngine(traj(1, 0, 10, 1, flat(50)))

	out, err := e.Measure(core.AnalysisRegion{
		Mode: core.ModeLine,
		Line: &core.LineRegion{
			P1: core.Point{Time: 0, Position: 45},
			P2: core.Point{Time: 10, Position: 55},
		},
	}, 1)

	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, 1, out.Results[0].Count)

	require.Len(t, out.Visuals, 1)
	require.Len(t, out.Visuals[0].Intersections, 1)
	assert.InDelta(t, 5.0, out.Visuals[0].Intersections[0].Time, 1e-9)
}

func TestMeasureLine_SetsReferenceWaveSpeed(t *testing.T) {
	e := newTestEngine(traj(1, 0, 10, 1, flat(50)))

	// Before any line measurement the built-in default applies.
	assert.InDelta(t, core.WaveSpeedFromKmh(core.DefaultWaveSpeedKmh), e.ReferenceWaveSpeed(), 1e-9)

	_, err := e.Measure(core.AnalysisRegion{
		Mode: core.ModeLine,
		Line: &core.LineRegion{
			P1: core.Point{Time: 0, Position: 10},
			P2: core.Point{Time: 10, Position: 30},
		},
	}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, e.ReferenceWaveSpeed(), 1e-9)

	// A new diagram discards the measured reference.
	e.SetDiagram(core.Extent{TemporalSpan: 10, SpatialSpan: 100}, 0, 0, nil)
	assert.InDelta(t, core.WaveSpeedFromKmh(core.DefaultWaveSpeedKmh), e.ReferenceWaveSpeed(), 1e-9)
}

func TestMeasureLine_VerticalCutLeavesReferenceUntouched(t *testing.T) {
	e := newTestEngine(traj(1, 0, 10, 1, flat(50)))

	out, err := e.Measure(core.AnalysisRegion{
		Mode: core.ModeLine,
		Line: &core.LineRegion{
			P1: core.Point{Time: 4.5, Position: 0},
			P2: core.Point{Time: 4.5, Position: 100},
		},
	}, 1)

	require.NoError(t, err)
	assert.Equal(t, 1, out.Results[0].Count)
	assert.InDelta(t, core.WaveSpeedFromKmh(core.DefaultWaveSpeedKmh), e.ReferenceWaveSpeed(), 1e-9)
}

func TestMeasurePolygon_EmptyRegionHasZeroRates(t *testing.T) {
	// The region sits well above the only trajectory: positive area, zero
	// flow, density and speed, no NaN.
	e := newTestEngine(traj(1, 0, 10, 0.5, flat(50)))

	out, err := e.Measure(core.AnalysisRegion{
		Mode: core.ModePolygon,
		Polygon: &core.PolygonRegion{Vertices: [4]core.Point{
			{Time: 1, Position: 60},
			{Time: 9, Position: 60},
			{Time: 9, Position: 80},
			{Time: 1, Position: 80},
		}},
	}, 2)

	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	r := out.Results[0]
	assert.InDelta(t, 160.0, r.Area, 1e-9)
	assert.Zero(t, r.Flow)
	assert.Zero(t, r.Density)
	assert.Zero(t, r.Speed)
	assert.Zero(t, r.TotalTravelDistance)
	assert.Zero(t, r.TotalTravelTime)
}

func TestMeasurePolygon_StoppedVehicleHasDensityOnly(t *testing.T) {
	// A stopped vehicle accumulates travel time but no travel distance.
	e := newTestEngine(traj(1, 0, 10, 0.5, flat(50)))

	out, err := e.Measure(core.AnalysisRegion{
		Mode: core.ModePolygon,
		Polygon: &core.PolygonRegion{Vertices: [4]core.Point{
			{Time: 2, Position: 40},
			{Time: 8, Position: 40},
			{Time: 8, Position: 60},
			{Time: 2, Position: 60},
		}},
	}, 3)

	require.NoError(t, err)
	r := out.Results[0]
	assert.InDelta(t, 120.0, r.Area, 1e-9)
	assert.InDelta(t, 6.0, r.TotalTravelTime, 1e-6)
	assert.InDelta(t, 6.0/120.0, r.Density, 1e-6)
	assert.Zero(t, r.Flow)
	assert.Zero(t, r.Speed)
}

func TestMeasurePolygon_MovingVehicleSpeedIsExact(t *testing.T) {
	// Constant 10 m/min vehicle: speed = TTD/TTT is exact regardless of
	// the clipping approximation.
	e := newTestEngine(traj(1, 0, 10, 0.1, moving(0, 10)))

	out, err := e.Measure(core.AnalysisRegion{
		Mode: core.ModePolygon,
		Polygon: &core.PolygonRegion{Vertices: [4]core.Point{
			{Time: 2, Position: 10},
			{Time: 8, Position: 10},
			{Time: 8, Position: 90},
			{Time: 2, Position: 90},
		}},
	}, 4)

	require.NoError(t, err)
	r := out.Results[0]
	assert.Greater(t, r.Flow, 0.0)
	assert.Greater(t, r.Density, 0.0)
	assert.InDelta(t, 10.0, r.Speed, 1e-6)
}

func TestMeasure_InvalidRegion(t *testing.T) {
	e := newTestEngine(traj(1, 0, 10, 1, flat(50)))

	_, err := e.Measure(core.AnalysisRegion{Mode: core.ModePolygon}, 1)
	assert.ErrorIs(t, err, ErrInvalidRegion)

	_, err = e.Measure(core.AnalysisRegion{Mode: "spiral"}, 1)
	assert.ErrorIs(t, err, ErrInvalidRegion)
}
