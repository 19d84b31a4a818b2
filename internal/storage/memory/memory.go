// internal/storage/memory/memory.go

// Package memory keeps the active diagram, its trajectories and all
// measurements in memory and writes a JSON results file on EndDiagram.
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jlaval-gh/Trajectory-Explorer/internal/config"
	"github.com/jlaval-gh/Trajectory-Explorer/pkg/core"
)

// Measurement pairs one analysis result with its rendered overlay.
type Measurement struct {
	Result core.AnalysisResult `json:"result"`
	Visual core.AnalysisVisual `json:"visual"`
}

// Backend stores diagram data in memory and exports to JSON.
type Backend struct {
	cfg config.MemoryConfig

	diagram      core.Diagram
	active       bool
	trajectories []core.Trajectory
	measurements []Measurement

	exportedPath string
	mu           sync.RWMutex
}

// New creates a new memory backend.
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init ensures the output directory exists.
func (b *Backend) Init() error {
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return nil
}

// Close cleans up resources.
func (b *Backend) Close() error {
	return nil
}

// StartDiagram begins a new session, discarding all previous data.
func (b *Backend) StartDiagram(d core.Diagram) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.diagram = d
	b.active = true
	b.trajectories = nil
	b.measurements = nil
	b.exportedPath = ""
	return nil
}

// AddTrajectory records one extracted trajectory.
func (b *Backend) AddTrajectory(t core.Trajectory) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.active {
		return fmt.Errorf("no active diagram")
	}
	b.trajectories = append(b.trajectories, t)
	return nil
}

// RecordMeasurement records one analysis result with its visual.
func (b *Backend) RecordMeasurement(r core.AnalysisResult, v core.AnalysisVisual) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.active {
		return fmt.Errorf("no active diagram")
	}
	b.measurements = append(b.measurements, Measurement{Result: r, Visual: v})
	return nil
}

// Trajectories returns a snapshot of the recorded trajectories.
func (b *Backend) Trajectories() []core.Trajectory {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.Trajectory, len(b.trajectories))
	copy(out, b.trajectories)
	return out
}

// Measurements returns a snapshot of the recorded measurements.
func (b *Backend) Measurements() []Measurement {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Measurement, len(b.measurements))
	copy(out, b.measurements)
	return out
}

// EndDiagram writes the session to a JSON file in the output directory.
func (b *Backend) EndDiagram() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.active {
		return fmt.Errorf("no active diagram")
	}
	b.active = false
	return b.exportJSON()
}

// GetExportedFilePath returns the path written by the last EndDiagram.
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.exportedPath
}

type exportDocument struct {
	ExportedAt   time.Time         `json:"exportedAt"`
	Diagram      core.Diagram      `json:"diagram"`
	Trajectories []core.Trajectory `json:"trajectories"`
	Measurements []Measurement     `json:"measurements"`
}

// exportJSON writes the session document. Caller holds the lock.
func (b *Backend) exportJSON() error {
	doc := exportDocument{
		ExportedAt:   time.Now(),
		Diagram:      b.diagram,
		Trajectories: b.trajectories,
		Measurements: b.measurements,
	}

	base := strings.TrimSuffix(filepath.Base(b.diagram.Source), filepath.Ext(b.diagram.Source))
	if base == "" || base == "." {
		base = "diagram"
	}
	name := fmt.Sprintf("%s_%s.json", base, doc.ExportedAt.Format("20060102_150405"))
	if b.cfg.CompressOutput {
		name += ".gz"
	}
	path := filepath.Join(b.cfg.OutputDir, name)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	if b.cfg.CompressOutput {
		gz := gzip.NewWriter(f)
		if err := json.NewEncoder(gz).Encode(doc); err != nil {
			gz.Close()
			return fmt.Errorf("encoding export: %w", err)
		}
		if err := gz.Close(); err != nil {
			return fmt.Errorf("closing gzip writer: %w", err)
		}
	} else {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding export: %w", err)
		}
	}

	b.exportedPath = path
	return nil
}
