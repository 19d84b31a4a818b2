// pkg/core/diagram.go
package core

// Diagram describes one loaded raster time-space diagram. Trajectories and
// measurements always belong to exactly one diagram; loading a new diagram
// replaces all derived state wholesale.
type Diagram struct {
	Source string `json:"source"` // file name or caller-supplied label
	Width  int    `json:"width"`  // pixels
	Height int    `json:"height"` // pixels
	Extent Extent `json:"extent"`
}
