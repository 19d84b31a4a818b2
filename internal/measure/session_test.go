package measure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlaval-gh/Trajectory-Explorer/pkg/core"
)

func TestSession_StartsInLineMode(t *testing.T) {
	s := NewSession()
	assert.Equal(t, core.ModeLine, s.Mode())
	assert.Zero(t, s.Pending())
}

func TestSession_LineCollectsTwoPoints(t *testing.T) {
	s := NewSession()

	pts, done := s.AddPoint(core.Point{Time: 1, Position: 10})
	assert.False(t, done)
	assert.Nil(t, pts)
	assert.Equal(t, 1, s.Pending())

	pts, done = s.AddPoint(core.Point{Time: 2, Position: 20})
	require.True(t, done)
	require.Len(t, pts, 2)
	assert.Zero(t, s.Pending())
}

func TestSession_PolygonCollectsFourPoints(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.SetMode(core.ModePolygon))

	for i := 0; i < 3; i++ {
		_, done := s.AddPoint(core.Point{Time: float64(i)})
		assert.False(t, done)
	}
	pts, done := s.AddPoint(core.Point{Time: 3})
	require.True(t, done)
	assert.Len(t, pts, 4)
}

func TestSession_SingleShotModes(t *testing.T) {
	for _, mode := range []core.Mode{core.ModePlatoon, core.ModeLoopDetector} {
		s := NewSession()
		require.NoError(t, s.SetMode(mode))

		pts, done := s.AddPoint(core.Point{Time: 5, Position: 50})
		require.True(t, done, "mode %s", mode)
		assert.Len(t, pts, 1)
	}
}

func TestSession_SetModeClearsPendingPoints(t *testing.T) {
	s := NewSession()
	s.AddPoint(core.Point{Time: 1})
	require.Equal(t, 1, s.Pending())

	require.NoError(t, s.SetMode(core.ModePolygon))
	assert.Zero(t, s.Pending())

	// A stale line point must not leak into the polygon collection.
	for i := 0; i < 3; i++ {
		_, done := s.AddPoint(core.Point{Time: float64(i)})
		assert.False(t, done)
	}
}

func TestSession_RejectsUnknownMode(t *testing.T) {
	s := NewSession()
	s.AddPoint(core.Point{Time: 1})

	err := s.SetMode("spiral")
	assert.ErrorIs(t, err, ErrInvalidRegion)
	assert.Equal(t, core.ModeLine, s.Mode())
	assert.Equal(t, 1, s.Pending())
}

func TestSession_RegionAssembly(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name   string
		mode   core.Mode
		points []core.Point
		check  func(t *testing.T, r core.AnalysisRegion)
	}{
		{
			name:   "line",
			mode:   core.ModeLine,
			points: []core.Point{{Time: 1, Position: 10}, {Time: 2, Position: 20}},
			check: func(t *testing.T, r core.AnalysisRegion) {
				require.NotNil(t, r.Line)
				assert.Equal(t, core.Point{Time: 1, Position: 10}, r.Line.P1)
				assert.Equal(t, core.Point{Time: 2, Position: 20}, r.Line.P2)
			},
		},
		{
			name:   "polygon",
			mode:   core.ModePolygon,
			points: []core.Point{{Time: 0}, {Time: 1}, {Time: 2}, {Time: 3}},
			check: func(t *testing.T, r core.AnalysisRegion) {
				require.NotNil(t, r.Polygon)
				assert.InDelta(t, 3.0, r.Polygon.Vertices[3].Time, 1e-9)
			},
		},
		{
			name:   "platoon",
			mode:   core.ModePlatoon,
			points: []core.Point{{Time: 5, Position: 50}},
			check: func(t *testing.T, r core.AnalysisRegion) {
				require.NotNil(t, r.Platoon)
				assert.Equal(t, cfg.PlatoonCount, r.Platoon.Count)
				assert.InDelta(t, cfg.SegmentHeight, r.Platoon.SegmentHeight, 1e-9)
			},
		},
		{
			name:   "loopdetector",
			mode:   core.ModeLoopDetector,
			points: []core.Point{{Time: 5, Position: 50}},
			check: func(t *testing.T, r core.AnalysisRegion) {
				require.NotNil(t, r.LoopDetector)
				assert.InDelta(t, cfg.WindowDuration, r.LoopDetector.WindowDuration, 1e-9)
				assert.InDelta(t, cfg.ApertureLength, r.LoopDetector.ApertureLength, 1e-9)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSession()
			require.NoError(t, s.SetMode(tc.mode))

			region, err := s.Region(tc.points, cfg)
			require.NoError(t, err)
			assert.Equal(t, tc.mode, region.Mode)
			tc.check(t, region)
		})
	}
}

func TestSession_RegionRejectsWrongPointCount(t *testing.T) {
	s := NewSession()
	_, err := s.Region([]core.Point{{Time: 1}}, DefaultConfig())
	assert.ErrorIs(t, err, ErrInvalidRegion)
}
