// internal/storage/storage.go
package storage

import "github.com/jlaval-gh/Trajectory-Explorer/pkg/core"

// Backend is the interface all storage implementations must satisfy.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Diagram management. StartDiagram discards everything recorded for
	// the previous diagram; EndDiagram finalizes the session.
	StartDiagram(d core.Diagram) error
	EndDiagram() error

	// Recording
	AddTrajectory(t core.Trajectory) error
	RecordMeasurement(r core.AnalysisResult, v core.AnalysisVisual) error
}

// Exportable is an optional interface for backends that produce a
// results file on EndDiagram.
type Exportable interface {
	GetExportedFilePath() string
}
