package handlers

import (
	"fmt"

	"github.com/jlaval-gh/Trajectory-Explorer/internal/dispatcher"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/export"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/util"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/worker"
)

// RegisterHandlers registers all command handlers with the dispatcher.
// Commands are synchronous from the collaborator's point of view: the
// returned value is the human-readable event string.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(":LOAD:DIAGRAM:", s.handleLoadDiagram, dispatcher.Logged())
	d.Register(":SET:MODE:", s.handleSetMode, dispatcher.Logged())
	d.Register(":ADD:POINT:", s.handleAddPoint, dispatcher.Logged())
	d.Register(":EXPORT:", s.handleExport, dispatcher.Logged())
	d.Register(":END:DIAGRAM:", s.handleEndDiagram, dispatcher.Logged())
}

func (s *Service) handleLoadDiagram(e dispatcher.Event) (any, error) {
	rcv, err := s.LoadDiagram(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to load diagram: %w", err)
	}

	// extraction runs on the worker; wait for its completion signal so
	// the collaborator sees the trajectory count
	if err := worker.Wait(rcv); err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}
	return fmt.Sprintf("loaded %s, %d trajectories", s.ctx.Get().Source, len(s.Trajectories())), nil
}

func (s *Service) handleSetMode(e dispatcher.Event) (any, error) {
	if err := s.SetMode(e.Args); err != nil {
		return nil, err
	}
	return fmt.Sprintf("mode %s", s.Mode()), nil
}

func (s *Service) handleAddPoint(e dispatcher.Event) (any, error) {
	msg, err := s.AddPoint(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to add point: %w", err)
	}
	return msg, nil
}

// handleExport writes recorded measurements to a delimited file.
// Args: [path, format]
func (s *Service) handleExport(e dispatcher.Event) (any, error) {
	data := e.Args
	for i, v := range data {
		data[i] = util.FixEscapeQuotes(util.TrimQuotes(v))
	}
	if len(data) < 2 {
		return nil, fmt.Errorf("expected [path, format]")
	}

	results := s.Results()
	visuals := s.Visuals()
	if err := export.WriteFile(data[0], export.Format(data[1]), results, visuals); err != nil {
		return nil, fmt.Errorf("failed to export measurements: %w", err)
	}
	return fmt.Sprintf("exported %d measurements to %s", len(results), data[0]), nil
}

func (s *Service) handleEndDiagram(e dispatcher.Event) (any, error) {
	path, err := s.EndDiagram()
	if err != nil {
		return nil, fmt.Errorf("failed to end diagram: %w", err)
	}
	if path == "" {
		return "session closed", nil
	}
	return fmt.Sprintf("session closed, results at %s", path), nil
}
