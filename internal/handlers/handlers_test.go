package handlers

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlaval-gh/Trajectory-Explorer/internal/config"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/dispatcher"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/extract"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/logging"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/measure"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/storage"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/storage/memory"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/worker"
	"github.com/jlaval-gh/Trajectory-Explorer/pkg/core"
)

func newTestService(t *testing.T, backend storage.Backend) *Service {
	t.Helper()

	cfg := measure.DefaultConfig()
	deps := Dependencies{
		LogManager: logging.NewSlogManager(),
		Extractor:  extract.New(extract.DefaultConfig(), nil),
		Engine:     measure.New(cfg, nil),
		EngineCfg:  cfg,
		Worker:     worker.NewManager(nil),
		Backend:    backend,
	}
	return NewService(deps, NewDiagramContext())
}

// flatLineImage draws one stopped-vehicle trace: a horizontal black row
// at mid-height, mapping to position 50 of a 100 m span.
func flatLineImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.White)
		}
	}
	for x := 0; x < 40; x++ {
		img.Set(x, 10, color.Black)
	}
	return img
}

func loadFlatDiagram(t *testing.T, s *Service) {
	t.Helper()
	rcv := s.SetDiagram("flat.png", flatLineImage(), core.Extent{TemporalSpan: 10, SpatialSpan: 100})
	require.NoError(t, worker.Wait(rcv))
}

func TestSetDiagram_ExtractsTrajectories(t *testing.T) {
	s := newTestService(t, nil)
	loadFlatDiagram(t, s)

	trajectories := s.Trajectories()
	require.Len(t, trajectories, 1)
	assert.InDelta(t, 50.0, trajectories[0].Points[0].Position, 1e-9)

	d := s.ctx.Get()
	assert.Equal(t, "flat.png", d.Source)
	assert.Equal(t, 40, d.Width)
	assert.Equal(t, 20, d.Height)
}

func TestAddPoint_LineMeasurementCountsCrossing(t *testing.T) {
	s := newTestService(t, nil)
	loadFlatDiagram(t, s)

	// service starts in line mode; a rising cut crosses the flat trace once
	msg, err := s.AddPoint([]string{"0", "41"})
	require.NoError(t, err)
	assert.Contains(t, msg, "collected 1 of 2")

	msg, err = s.AddPoint([]string{"10", "61"})
	require.NoError(t, err)
	assert.Contains(t, msg, "1 crossings")

	results := s.Results()
	require.Len(t, results, 1)
	assert.Equal(t, core.ModeLine, results[0].Mode)
	assert.Equal(t, 1, results[0].Count)
	assert.Equal(t, uint(1), results[0].ExperimentID)
}

func TestAddPoint_PolygonMeasurement(t *testing.T) {
	s := newTestService(t, nil)
	loadFlatDiagram(t, s)

	require.NoError(t, s.SetMode([]string{"polygon"}))

	for _, p := range [][]string{{"1", "40"}, {"9", "40"}, {"9", "60"}, {"1", "60"}} {
		_, err := s.AddPoint(p)
		require.NoError(t, err)
	}

	results := s.Results()
	require.Len(t, results, 1)
	// a stopped vehicle accumulates time but no distance
	assert.Greater(t, results[0].Density, 0.0)
	assert.InDelta(t, 0.0, results[0].Flow, 1e-9)
	assert.InDelta(t, 0.0, results[0].Speed, 1e-9)

	visuals := s.Visuals()
	require.Len(t, visuals, 1)
	assert.Len(t, visuals[0].Polygon, 4)
}

func TestAddPoint_PlatoonTooSmallIsNonFatal(t *testing.T) {
	s := newTestService(t, nil)
	loadFlatDiagram(t, s)

	require.NoError(t, s.SetMode([]string{"platoon"}))

	msg, err := s.AddPoint([]string{"5", "50"})
	require.NoError(t, err)
	assert.Contains(t, msg, "skipped")
	assert.Empty(t, s.Results())
}

func TestAddPoint_RejectsGarbage(t *testing.T) {
	s := newTestService(t, nil)
	loadFlatDiagram(t, s)

	_, err := s.AddPoint([]string{"not-a-number", "50"})
	require.Error(t, err)
}

func TestSetMode_UnknownModeFails(t *testing.T) {
	s := newTestService(t, nil)
	err := s.SetMode([]string{"spiral"})
	require.Error(t, err)
	assert.Equal(t, core.ModeLine, s.Mode())
}

func TestSetDiagram_DiscardsDerivedState(t *testing.T) {
	s := newTestService(t, nil)
	loadFlatDiagram(t, s)

	_, err := s.AddPoint([]string{"0", "41"})
	require.NoError(t, err)
	_, err = s.AddPoint([]string{"10", "61"})
	require.NoError(t, err)
	require.Len(t, s.Results(), 1)

	loadFlatDiagram(t, s)
	assert.Empty(t, s.Results())
	assert.Empty(t, s.Visuals())

	// experiment ids restart after a reload
	_, err = s.AddPoint([]string{"0", "41"})
	require.NoError(t, err)
	_, err = s.AddPoint([]string{"10", "61"})
	require.NoError(t, err)
	require.Len(t, s.Results(), 1)
	assert.Equal(t, uint(1), s.Results()[0].ExperimentID)
}

func TestService_RecordsToBackend(t *testing.T) {
	backend := memory.New(config.MemoryConfig{OutputDir: t.TempDir()})
	require.NoError(t, backend.Init())

	s := newTestService(t, backend)
	loadFlatDiagram(t, s)

	assert.Len(t, backend.Trajectories(), 1)

	_, err := s.AddPoint([]string{"0", "41"})
	require.NoError(t, err)
	_, err = s.AddPoint([]string{"10", "61"})
	require.NoError(t, err)
	assert.Len(t, backend.Measurements(), 1)

	path, err := s.EndDiagram()
	require.NoError(t, err)
	require.NotEmpty(t, path)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestHandleExport_WritesFile(t *testing.T) {
	s := newTestService(t, nil)
	loadFlatDiagram(t, s)

	_, err := s.AddPoint([]string{"0", "41"})
	require.NoError(t, err)
	_, err = s.AddPoint([]string{"10", "61"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "measurements.csv")
	msg, err := s.handleExport(dispatcher.Event{Args: []string{path, "csv"}})
	require.NoError(t, err)
	assert.Contains(t, msg, "exported 1 measurements")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "line")
}

func TestRegisterHandlers_CommandsRoundTrip(t *testing.T) {
	s := newTestService(t, nil)

	d, err := dispatcher.New(logging.NewDispatcherLogger(s.deps.LogManager.Logger()))
	require.NoError(t, err)
	s.RegisterHandlers(d)

	for _, cmd := range []string{":LOAD:DIAGRAM:", ":SET:MODE:", ":ADD:POINT:", ":EXPORT:", ":END:DIAGRAM:"} {
		assert.True(t, d.HasHandler(cmd), cmd)
	}

	res, err := d.Dispatch(dispatcher.Event{Command: ":SET:MODE:", Args: []string{"polygon"}})
	require.NoError(t, err)
	assert.Equal(t, "mode polygon", res)
}
