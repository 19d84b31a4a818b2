// Package monitor periodically snapshots session state to a status file
// so an operator can watch a long-running analysis from outside.
package monitor

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/jlaval-gh/Trajectory-Explorer/internal/handlers"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/logging"
	"github.com/jlaval-gh/Trajectory-Explorer/pkg/core"
)

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	LogManager *logging.SlogManager
	Session    *handlers.Service
	StatusPath string
	Interval   time.Duration
}

// Status is one snapshot of the running session.
type Status struct {
	Time         time.Time    `json:"time"`
	Diagram      core.Diagram `json:"diagram"`
	Mode         core.Mode    `json:"mode"`
	Trajectories int          `json:"trajectories"`
	Measurements int          `json:"measurements"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus builds the current session snapshot.
func (s *Service) GetStatus() Status {
	return Status{
		Time:         time.Now(),
		Diagram:      s.deps.Session.GetDiagramContext().Get(),
		Mode:         s.deps.Session.Mode(),
		Trajectories: len(s.deps.Session.Trajectories()),
		Measurements: len(s.deps.Session.Results()),
	}
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	stop := s.stopChan
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			// a restart may already own the running flag
			if s.stopChan == stop {
				s.isRunning = false
			}
			s.mu.Unlock()
		}()

		logger := s.deps.LogManager.Logger()
		logger.Debug("Starting status monitor goroutine", "function", "startStatusMonitor")

		statusFile, err := os.Create(s.deps.StatusPath)
		if err != nil {
			logger.Error("Error creating status file", "error", err)
		}
		defer statusFile.Close()

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				status := s.GetStatus()
				// nothing loaded yet
				if status.Diagram.Width == 0 {
					continue
				}

				statusStr, err := json.MarshalIndent(status, "", "  ")
				if err != nil {
					logger.Error("Error marshaling status", "error", err)
					continue
				}

				if statusFile != nil {
					statusFile.Truncate(0)
					statusFile.Seek(0, 0)
					statusFile.Write(statusStr)
					statusFile.WriteString("\n")
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor. Safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
		s.isRunning = false
	}
}
