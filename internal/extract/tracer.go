package extract

import (
	"github.com/jlaval-gh/Trajectory-Explorer/pkg/core"
)

// neighborhood is the ordered set of candidate offsets tried when growing a
// path. The ordering biases the walk toward increasing x (forward in time)
// while allowing both signs of y, so near-vertical high-speed trajectories
// still connect.
var neighborhood = [10][2]int{
	{1, 0},
	{1, 1},
	{1, -1},
	{0, 1},
	{0, -1},
	{1, 2},
	{1, -2},
	{2, 1},
	{2, -1},
	{2, 0},
}

// tracer walks a binarized diagram and grows pixel paths into domain-space
// point sequences. Visited pixels are consumed so each foreground pixel
// belongs to at most one trajectory.
type tracer struct {
	bm      *bitmap
	visited []bool
	extent  core.Extent
}

func newTracer(bm *bitmap, extent core.Extent) *tracer {
	return &tracer{
		bm:      bm,
		visited: make([]bool, bm.width*bm.height),
		extent:  extent,
	}
}

func (t *tracer) seen(x, y int) bool {
	return t.visited[y*t.bm.width+x]
}

func (t *tracer) mark(x, y int) {
	t.visited[y*t.bm.width+x] = true
}

// trace greedily grows one path from the seed pixel: mark, append the
// domain coordinate, hop to the first unvisited foreground neighbor, and
// repeat until no qualifying neighbor remains or the walk leaves the image.
func (t *tracer) trace(x, y int) []core.Point {
	var points []core.Point
	for {
		t.mark(x, y)
		points = append(points, t.extent.ToDomain(x, y, t.bm.width, t.bm.height))

		nx, ny, ok := t.next(x, y)
		if !ok {
			return points
		}
		x, y = nx, ny
	}
}

func (t *tracer) next(x, y int) (int, int, bool) {
	for _, off := range neighborhood {
		nx := x + off[0]
		ny := y + off[1]
		if nx < 0 || ny < 0 || nx >= t.bm.width || ny >= t.bm.height {
			continue
		}
		if t.bm.at(nx, ny) && !t.seen(nx, ny) {
			return nx, ny, true
		}
	}
	return 0, 0, false
}
