// Package handlers implements the session service behind the command
// surface: it owns the loaded diagram, the extracted trajectory arena
// and the append-only measurement record.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"strconv"
	"sync"

	_ "image/png"

	"github.com/jlaval-gh/Trajectory-Explorer/internal/api"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/cache"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/channel"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/extract"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/influx"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/logging"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/measure"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/storage"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/util"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/worker"
	"github.com/jlaval-gh/Trajectory-Explorer/pkg/core"
)

// DiagramContext holds the currently loaded raster and its extent.
type DiagramContext struct {
	mu     sync.RWMutex
	source string
	img    image.Image
	extent core.Extent
	width  int
	height int
}

// NewDiagramContext creates an empty diagram context.
func NewDiagramContext() *DiagramContext {
	return &DiagramContext{source: "no diagram loaded"}
}

// Get returns the current diagram descriptor.
func (dc *DiagramContext) Get() core.Diagram {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return core.Diagram{
		Source: dc.source,
		Width:  dc.width,
		Height: dc.height,
		Extent: dc.extent,
	}
}

// Image returns the loaded raster, nil when nothing is loaded.
func (dc *DiagramContext) Image() image.Image {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return dc.img
}

// Set replaces the loaded diagram.
func (dc *DiagramContext) Set(source string, img image.Image, extent core.Extent) {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	dc.source = source
	dc.img = img
	dc.extent = extent
	bounds := img.Bounds()
	dc.width = bounds.Dx()
	dc.height = bounds.Dy()
}

// Dependencies holds all collaborators needed by the service.
type Dependencies struct {
	LogManager *logging.SlogManager
	Extractor  *extract.Extractor
	Engine     *measure.Engine
	EngineCfg  measure.Config
	Worker     *worker.Manager
	Backend    storage.Backend // optional
	Influx     *influx.Manager // optional
	Uploader   *api.Client     // optional
}

// Service processes collaborator commands against the loaded diagram.
type Service struct {
	deps         Dependencies
	ctx          *DiagramContext
	session      *measure.Session
	writeLogFunc func(functionName, data, level string)

	mu           sync.RWMutex
	trajectories []core.Trajectory
	results      []core.AnalysisResult
	visuals      []core.AnalysisVisual
	experiment   cache.SafeCounter
}

// NewService creates a new session service.
func NewService(deps Dependencies, ctx *DiagramContext) *Service {
	s := &Service{
		deps:    deps,
		ctx:     ctx,
		session: measure.NewSession(),
	}
	s.writeLogFunc = func(functionName, data, level string) {
		if deps.LogManager != nil {
			deps.LogManager.WriteLog(functionName, data, level)
		}
	}
	if deps.LogManager != nil {
		// every record carries the session's diagram source
		deps.LogManager.SetContextProvider(func() []slog.Attr {
			return []slog.Attr{slog.String("diagram", ctx.Get().Source)}
		})
	}
	return s
}

// GetDiagramContext returns the diagram context.
func (s *Service) GetDiagramContext() *DiagramContext {
	return s.ctx
}

func (s *Service) writeLog(functionName, data, level string) {
	s.writeLogFunc(functionName, data, level)
}

// LoadDiagram decodes the PNG named in data and schedules extraction.
// Args: [path, temporalSpanMinutes, spatialSpanMeters]
func (s *Service) LoadDiagram(data []string) (channel.Receiver[worker.Update], error) {
	functionName := ":LOAD:DIAGRAM:"

	// fix received data
	for i, v := range data {
		data[i] = util.FixEscapeQuotes(util.TrimQuotes(v))
	}

	if len(data) < 3 {
		return nil, fmt.Errorf("expected [path, temporalSpan, spatialSpan], got %d args", len(data))
	}

	temporalSpan, err := strconv.ParseFloat(data[1], 64)
	if err != nil {
		s.writeLog(functionName, fmt.Sprintf(`Error converting temporal span to float: %v`, err), "ERROR")
		return nil, err
	}
	spatialSpan, err := strconv.ParseFloat(data[2], 64)
	if err != nil {
		s.writeLog(functionName, fmt.Sprintf(`Error converting spatial span to float: %v`, err), "ERROR")
		return nil, err
	}

	path := data[0]
	f, err := os.Open(path)
	if err != nil {
		s.writeLog(functionName, fmt.Sprintf(`Error opening diagram file: %v`, err), "ERROR")
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		s.writeLog(functionName, fmt.Sprintf(`Error decoding diagram image: %v`, err), "ERROR")
		return nil, err
	}

	extent := core.Extent{TemporalSpan: temporalSpan, SpatialSpan: spatialSpan}
	return s.SetDiagram(path, img, extent), nil
}

// SetDiagram replaces the loaded diagram, discards all derived state
// and schedules extraction on the worker. The returned receiver signals
// extraction start and completion.
func (s *Service) SetDiagram(source string, img image.Image, extent core.Extent) channel.Receiver[worker.Update] {
	s.ctx.Set(source, img, extent)

	s.mu.Lock()
	s.trajectories = nil
	s.results = nil
	s.visuals = nil
	s.mu.Unlock()
	s.experiment.Set(0)
	s.session.Reset()

	if s.deps.Backend != nil {
		if err := s.deps.Backend.StartDiagram(s.ctx.Get()); err != nil {
			s.writeLog(":LOAD:DIAGRAM:", fmt.Sprintf(`Error starting diagram in storage backend: %v`, err), "ERROR")
		}
	}

	return s.deps.Worker.Submit("extract", func() error {
		return s.runExtraction(img, extent)
	})
}

func (s *Service) runExtraction(img image.Image, extent core.Extent) error {
	functionName := ":EXTRACT:"

	trajectories := s.deps.Extractor.Extract(img, extent)

	d := s.ctx.Get()
	s.mu.Lock()
	s.trajectories = trajectories
	s.mu.Unlock()
	s.deps.Engine.SetDiagram(extent, d.Width, d.Height, trajectories)

	if s.deps.Backend != nil {
		for _, t := range trajectories {
			if err := s.deps.Backend.AddTrajectory(t); err != nil {
				s.writeLog(functionName, fmt.Sprintf(`Error storing trajectory %d: %v`, t.ID, err), "ERROR")
			}
		}
	}

	s.writeLog(functionName, fmt.Sprintf(`Extracted %d trajectories`, len(trajectories)), "INFO")
	return nil
}

// SetMode switches the point-collection mode, clearing pending points.
// Args: [mode]
func (s *Service) SetMode(data []string) error {
	functionName := ":SET:MODE:"

	for i, v := range data {
		data[i] = util.FixEscapeQuotes(util.TrimQuotes(v))
	}
	if len(data) < 1 {
		return fmt.Errorf("expected [mode]")
	}

	if err := s.session.SetMode(core.Mode(data[0])); err != nil {
		s.writeLog(functionName, fmt.Sprintf(`Unknown mode %q`, data[0]), "ERROR")
		return fmt.Errorf("unknown mode %q", data[0])
	}
	s.writeLog(functionName, fmt.Sprintf(`Mode set to %s`, data[0]), "INFO")
	return nil
}

// Mode returns the active point-collection mode.
func (s *Service) Mode() core.Mode {
	return s.session.Mode()
}

// AddPoint records one region point in domain coordinates. When the
// active mode's point budget is reached the measurement runs and the
// returned string describes the outcome. Input-insufficiency errors
// from the engine are reported in the message, not returned.
// Args: [timeMinutes, positionMeters]
func (s *Service) AddPoint(data []string) (string, error) {
	functionName := ":ADD:POINT:"

	for i, v := range data {
		data[i] = util.FixEscapeQuotes(util.TrimQuotes(v))
	}
	if len(data) < 2 {
		return "", fmt.Errorf("expected [time, position]")
	}

	tm, err := strconv.ParseFloat(data[0], 64)
	if err != nil {
		s.writeLog(functionName, fmt.Sprintf(`Error converting time to float: %v`, err), "ERROR")
		return "", err
	}
	pos, err := strconv.ParseFloat(data[1], 64)
	if err != nil {
		s.writeLog(functionName, fmt.Sprintf(`Error converting position to float: %v`, err), "ERROR")
		return "", err
	}

	points, done := s.session.AddPoint(core.Point{Time: tm, Position: pos})
	if !done {
		return fmt.Sprintf("collected %d of %d points", s.session.Pending(), s.session.Mode().PointBudget()), nil
	}

	region, err := s.session.Region(points, s.deps.EngineCfg)
	if err != nil {
		return "", err
	}
	return s.measure(region)
}

// measure runs one analysis request and records its outcome.
func (s *Service) measure(region core.AnalysisRegion) (string, error) {
	functionName := ":MEASURE:"

	id := s.experiment.Next()

	outcome, err := s.deps.Engine.Measure(region, id)
	if err != nil {
		if isInputError(err) {
			msg := fmt.Sprintf("measurement skipped: %v", err)
			s.writeLog(functionName, msg, "WARN")
			return msg, nil
		}
		s.writeLog(functionName, fmt.Sprintf(`Measurement failed: %v`, err), "ERROR")
		return "", err
	}

	s.mu.Lock()
	s.results = append(s.results, outcome.Results...)
	s.visuals = append(s.visuals, outcome.Visuals...)
	s.mu.Unlock()

	source := s.ctx.Get().Source
	for i := range outcome.Results {
		if s.deps.Backend != nil {
			if err := s.deps.Backend.RecordMeasurement(outcome.Results[i], outcome.Visuals[i]); err != nil {
				s.writeLog(functionName, fmt.Sprintf(`Error storing measurement: %v`, err), "ERROR")
			}
		}
		if s.deps.Influx != nil {
			if err := s.deps.Influx.WriteMeasurement(context.Background(), source, outcome.Results[i]); err != nil {
				s.writeLog(functionName, fmt.Sprintf(`Error pushing measurement metrics: %v`, err), "WARN")
			}
		}
	}

	s.writeLog(functionName, outcome.Message, "INFO")
	return outcome.Message, nil
}

// isInputError reports whether the engine error names an input
// insufficiency rather than a fault.
func isInputError(err error) bool {
	return errors.Is(err, measure.ErrNoTrajectories) ||
		errors.Is(err, measure.ErrAnchorNotFound) ||
		errors.Is(err, measure.ErrPlatoonTooSmall)
}

// Trajectories returns a snapshot of the extracted trajectory arena.
func (s *Service) Trajectories() []core.Trajectory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Trajectory, len(s.trajectories))
	copy(out, s.trajectories)
	return out
}

// Results returns a snapshot of all recorded measurement results.
func (s *Service) Results() []core.AnalysisResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.AnalysisResult, len(s.results))
	copy(out, s.results)
	return out
}

// Visuals returns a snapshot of all recorded measurement overlays.
func (s *Service) Visuals() []core.AnalysisVisual {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.AnalysisVisual, len(s.visuals))
	copy(out, s.visuals)
	return out
}

// EndDiagram finalizes the storage session. It returns the exported
// file path when the backend produced one, after handing the export to
// the upload client when one is configured. Upload failures are logged
// but do not fail session close.
func (s *Service) EndDiagram() (string, error) {
	if s.deps.Backend == nil {
		return "", nil
	}
	if err := s.deps.Backend.EndDiagram(); err != nil {
		return "", err
	}

	var path string
	if exp, ok := s.deps.Backend.(storage.Exportable); ok {
		path = exp.GetExportedFilePath()
	}

	if path != "" && s.deps.Uploader != nil {
		d := s.ctx.Get()
		meta := api.UploadMetadata{
			Source:       d.Source,
			TemporalSpan: d.Extent.TemporalSpan,
			SpatialSpan:  d.Extent.SpatialSpan,
			Measurements: len(s.Results()),
		}
		if err := s.deps.Uploader.Upload(path, meta); err != nil {
			s.writeLog(":END:DIAGRAM:", fmt.Sprintf(`Error uploading results: %v`, err), "WARN")
		}
	}
	return path, nil
}
