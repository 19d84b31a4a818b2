package monitor

import (
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlaval-gh/Trajectory-Explorer/internal/extract"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/handlers"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/logging"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/measure"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/worker"
	"github.com/jlaval-gh/Trajectory-Explorer/pkg/core"
)

func newTestSession(t *testing.T) *handlers.Service {
	t.Helper()

	cfg := measure.DefaultConfig()
	return handlers.NewService(handlers.Dependencies{
		LogManager: logging.NewSlogManager(),
		Extractor:  extract.New(extract.DefaultConfig(), nil),
		Engine:     measure.New(cfg, nil),
		EngineCfg:  cfg,
		Worker:     worker.NewManager(nil),
	}, handlers.NewDiagramContext())
}

func loadTestDiagram(t *testing.T, s *handlers.Service) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.White)
		}
	}
	for x := 0; x < 40; x++ {
		img.Set(x, 10, color.Black)
	}

	rcv := s.SetDiagram("status.png", img, core.Extent{TemporalSpan: 10, SpatialSpan: 100})
	require.NoError(t, worker.Wait(rcv))
}

func TestGetStatus(t *testing.T) {
	session := newTestSession(t)
	loadTestDiagram(t, session)

	m := NewService(Dependencies{
		LogManager: logging.NewSlogManager(),
		Session:    session,
	})

	status := m.GetStatus()
	assert.Equal(t, "status.png", status.Diagram.Source)
	assert.Equal(t, core.ModeLine, status.Mode)
	assert.Equal(t, 1, status.Trajectories)
	assert.Equal(t, 0, status.Measurements)
}

func TestStartStop_WritesStatusFile(t *testing.T) {
	session := newTestSession(t)
	loadTestDiagram(t, session)

	path := filepath.Join(t.TempDir(), "status.json")
	m := NewService(Dependencies{
		LogManager: logging.NewSlogManager(),
		Session:    session,
		StatusPath: path,
		Interval:   10 * time.Millisecond,
	})

	require.NoError(t, m.Start())
	assert.True(t, m.IsRunning())

	// starting twice is a no-op
	require.NoError(t, m.Start())

	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		if err != nil || len(data) == 0 {
			return false
		}
		var status Status
		return json.Unmarshal(data, &status) == nil && status.Trajectories == 1
	}, 2*time.Second, 20*time.Millisecond)

	m.Stop()
	assert.False(t, m.IsRunning())

	// stopping again must not close the channel twice
	m.Stop()
}
