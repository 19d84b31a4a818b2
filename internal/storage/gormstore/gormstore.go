// Package gormstore persists diagrams, trajectories and measurements
// through gorm, against either Postgres or a local SQLite database.
package gormstore

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jlaval-gh/Trajectory-Explorer/internal/database"
	"github.com/jlaval-gh/Trajectory-Explorer/internal/model"
	"github.com/jlaval-gh/Trajectory-Explorer/pkg/core"
)

// Backend writes rows through an established database.Manager
// connection. When the manager runs on an in-memory SQLite database the
// backend dumps it to disk on a timer and once more on EndDiagram.
type Backend struct {
	mgr *database.Manager
	log zerolog.Logger

	// DumpInterval controls periodic disk dumps for in-memory SQLite.
	// Zero disables the timer.
	DumpInterval time.Duration

	mu        sync.Mutex
	diagramID uint
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// New creates a gorm-backed storage backend.
func New(mgr *database.Manager, log zerolog.Logger) *Backend {
	return &Backend{
		mgr: mgr,
		log: log,
	}
}

// Init validates the connection and starts the dump timer if needed.
func (b *Backend) Init() error {
	if b.mgr == nil || !b.mgr.IsValid {
		return fmt.Errorf("database connection not valid")
	}

	if b.mgr.IsLocal && b.mgr.SqliteFilePath != "" && b.DumpInterval > 0 {
		b.stopChan = make(chan struct{})
		b.wg.Add(1)
		go b.dumpLoop()
	}
	return nil
}

func (b *Backend) dumpLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.DumpInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := b.mgr.DumpMemoryToDisk(); err != nil {
				b.log.Error().Err(err).Msg("Periodic SQLite dump failed")
			}
		case <-b.stopChan:
			return
		}
	}
}

// StartDiagram creates a fresh diagram row. Trajectories and
// measurements recorded afterwards attach to it.
func (b *Backend) StartDiagram(d core.Diagram) error {
	row := model.DiagramFromCore(d)
	if err := b.mgr.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("creating diagram row: %w", err)
	}

	b.mu.Lock()
	b.diagramID = row.ID
	b.mu.Unlock()

	b.log.Info().Uint("diagramId", row.ID).Str("source", d.Source).Msg("Started diagram")
	return nil
}

// EndDiagram finalizes the session and flushes local SQLite to disk.
func (b *Backend) EndDiagram() error {
	b.mu.Lock()
	b.diagramID = 0
	b.mu.Unlock()

	if b.mgr.IsLocal && b.mgr.SqliteFilePath != "" {
		return b.mgr.DumpMemoryToDisk()
	}
	return nil
}

func (b *Backend) activeDiagram() (uint, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.diagramID == 0 {
		return 0, fmt.Errorf("no active diagram")
	}
	return b.diagramID, nil
}

// AddTrajectory persists one extracted trajectory.
func (b *Backend) AddTrajectory(t core.Trajectory) error {
	diagramID, err := b.activeDiagram()
	if err != nil {
		return err
	}

	row, err := model.TrajectoryFromCore(diagramID, t)
	if err != nil {
		return err
	}
	if err := b.mgr.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("creating trajectory row: %w", err)
	}
	return nil
}

// RecordMeasurement persists one analysis result with its visual.
func (b *Backend) RecordMeasurement(r core.AnalysisResult, v core.AnalysisVisual) error {
	diagramID, err := b.activeDiagram()
	if err != nil {
		return err
	}

	row, err := model.MeasurementFromCore(diagramID, r, v)
	if err != nil {
		return err
	}
	if err := b.mgr.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("creating measurement row: %w", err)
	}
	return nil
}

// GetExportedFilePath returns the SQLite dump location, if any.
func (b *Backend) GetExportedFilePath() string {
	return b.mgr.SqliteFilePath
}

// Close stops the dump timer and closes the connection.
func (b *Backend) Close() error {
	if b.stopChan != nil {
		close(b.stopChan)
		b.wg.Wait()
		b.stopChan = nil
	}
	return b.mgr.Close()
}
