// Package extract converts a raster time-space diagram into discrete
// vehicle trajectories: it binarizes the image against a white background
// reference and traces connected foreground runs into ordered point
// sequences in domain coordinates.
package extract

import (
	"image"
	"log/slog"

	"github.com/jlaval-gh/Trajectory-Explorer/pkg/core"
)

// Config tunes the extraction pass.
type Config struct {
	// ColumnStep is the column stride of the scan. 1 visits every column;
	// larger values trade trajectory density for speed.
	ColumnStep int
	// MinPoints discards traced paths shorter than this many points as
	// noise (specks, axis labels, stray marks).
	MinPoints int
	// WhiteTolerance is the RGB distance to pure white below which a pixel
	// is classified as background.
	WhiteTolerance float64
}

// DefaultConfig returns the extraction defaults.
func DefaultConfig() Config {
	return Config{
		ColumnStep:     1,
		MinPoints:      6,
		WhiteTolerance: 60,
	}
}

// Extractor converts raster diagrams into trajectory sets.
type Extractor struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an extractor. A nil logger falls back to slog.Default.
func New(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ColumnStep < 1 {
		cfg.ColumnStep = 1
	}
	if cfg.MinPoints < 1 {
		cfg.MinPoints = 1
	}
	return &Extractor{cfg: cfg, logger: logger}
}

// Extract produces the trajectory set for one diagram. Columns are scanned
// left to right, rows top to bottom; every unvisited foreground pixel seeds
// a greedy directional trace. An image without qualifying foreground pixels
// yields an empty set, which is informational, not an error.
func (e *Extractor) Extract(img image.Image, extent core.Extent) []core.Trajectory {
	bm := binarize(img, e.cfg.WhiteTolerance)
	tr := newTracer(bm, extent)

	var trajectories []core.Trajectory
	discarded := 0

	for x := 0; x < bm.width; x += e.cfg.ColumnStep {
		for y := 0; y < bm.height; y++ {
			if !bm.at(x, y) || tr.seen(x, y) {
				continue
			}
			points := tr.trace(x, y)
			if len(points) < e.cfg.MinPoints {
				discarded++
				continue
			}
			trajectories = append(trajectories, core.Trajectory{
				ID:     len(trajectories) + 1,
				Points: points,
			})
		}
	}

	e.logger.Info("extraction complete",
		"trajectories", len(trajectories),
		"discarded", discarded,
		"width", bm.width,
		"height", bm.height)

	return trajectories
}
