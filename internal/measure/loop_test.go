package measure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlaval-gh/Trajectory-Explorer/pkg/core"
)

func TestMeasureLoop_HalfSpanWindowsYieldExactlyTwo(t *testing.T) {
	e := newTestEngine(traj(1, 0, 10, 0.5, flat(50)))
	setWave(t, e, core.Point{Time: 0, Position: 95}, core.Point{Time: 10, Position: 95})

	out, err := e.Measure(core.AnalysisRegion{
		Mode: core.ModeLoopDetector,
		LoopDetector: &core.LoopDetectorRegion{
			Anchor:         core.Point{Time: 0, Position: 50},
			WindowDuration: 5,
			ApertureLength: 20,
		},
	}, 7)

	require.NoError(t, err)
	require.Len(t, out.Results, 2)
	require.Len(t, out.Visuals, 2)

	for _, r := range out.Results {
		assert.Equal(t, core.ModeLoopDetector, r.Mode)
		assert.Equal(t, uint(7), r.ExperimentID)
		assert.InDelta(t, 100.0, r.Area, 1e-9)
		// The stopped vehicle contributes travel time but no distance.
		assert.InDelta(t, 5.0, r.TotalTravelTime, 1e-6)
		assert.InDelta(t, 0.05, r.Density, 1e-6)
		assert.Zero(t, r.Flow)
		assert.Zero(t, r.Speed)
	}

	assert.InDelta(t, 0.0, out.Visuals[0].Polygon[0].Time, 1e-9)
	assert.InDelta(t, 5.0, out.Visuals[0].Polygon[1].Time, 1e-9)
	assert.InDelta(t, 5.0, out.Visuals[1].Polygon[0].Time, 1e-9)
	assert.InDelta(t, 10.0, out.Visuals[1].Polygon[1].Time, 1e-9)
}

func TestMeasureLoop_TrailingWindowShortened(t *testing.T) {
	// 10 minute span, 4 minute windows: two full windows plus a shortened
	// trailing one covering the remainder.
	e := newTestEngine(traj(1, 0, 10, 0.5, flat(50)))
	setWave(t, e, core.Point{Time: 0, Position: 95}, core.Point{Time: 10, Position: 95})

	out, err := e.Measure(core.AnalysisRegion{
		Mode: core.ModeLoopDetector,
		LoopDetector: &core.LoopDetectorRegion{
			Anchor:         core.Point{Time: 0, Position: 50},
			WindowDuration: 4,
			ApertureLength: 20,
		},
	}, 1)

	require.NoError(t, err)
	require.Len(t, out.Results, 3)

	last := out.Visuals[2].Polygon
	assert.InDelta(t, 8.0, last[0].Time, 1e-9)
	assert.InDelta(t, 10.0, last[1].Time, 1e-9)
	assert.InDelta(t, 40.0, out.Results[2].Area, 1e-9)
}

func TestMeasureLoop_DefaultWaveSpeedWhenNoneMeasured(t *testing.T) {
	e := newTestEngine(traj(1, 0, 10, 0.5, flat(50)))

	out, err := e.Measure(core.AnalysisRegion{
		Mode: core.ModeLoopDetector,
		LoopDetector: &core.LoopDetectorRegion{
			Anchor:         core.Point{Time: 5, Position: 50},
			WindowDuration: 5,
			ApertureLength: 20,
		},
	}, 1)

	require.NoError(t, err)
	require.NotEmpty(t, out.Results)
	assert.InDelta(t, core.WaveSpeedFromKmh(core.DefaultWaveSpeedKmh), out.Results[0].WaveSpeed, 1e-9)
}

func TestMeasureLoop_ZeroScalarsFallBackToConfig(t *testing.T) {
	e := newTestEngine(traj(1, 0, 10, 0.5, flat(50)))

	out, err := e.Measure(core.AnalysisRegion{
		Mode: core.ModeLoopDetector,
		LoopDetector: &core.LoopDetectorRegion{
			Anchor: core.Point{Time: 0, Position: 50},
		},
	}, 1)

	require.NoError(t, err)
	// DefaultConfig windows are 1 minute over the 10 minute span.
	assert.Len(t, out.Results, 10)
}

func TestMeasureLoop_MissingDiagramIsInvalid(t *testing.T) {
	e := New(DefaultConfig(), nil)

	_, err := e.Measure(core.AnalysisRegion{
		Mode: core.ModeLoopDetector,
		LoopDetector: &core.LoopDetectorRegion{
			Anchor:         core.Point{Time: 0, Position: 50},
			WindowDuration: 5,
			ApertureLength: 20,
		},
	}, 1)

	assert.ErrorIs(t, err, ErrInvalidRegion)
}
