// pkg/core/trajectory.go
package core

// Trajectory is one vehicle's continuous path through the diagram.
// Points are ordered by non-decreasing time. A trajectory is created once
// per extraction pass and never mutated afterward; a new diagram discards
// the whole set.
type Trajectory struct {
	ID     int     `json:"id"`
	Points []Point `json:"points"`
}

// Start returns the trajectory's earliest time.
func (t Trajectory) Start() float64 {
	if len(t.Points) == 0 {
		return 0
	}
	return t.Points[0].Time
}

// End returns the trajectory's latest time.
func (t Trajectory) End() float64 {
	if len(t.Points) == 0 {
		return 0
	}
	return t.Points[len(t.Points)-1].Time
}

// ActiveAt reports whether the trajectory spans the given time.
func (t Trajectory) ActiveAt(tm float64) bool {
	return len(t.Points) >= 2 && t.Start() <= tm && tm <= t.End()
}

// PositionAt returns the trajectory's position at time tm, linearly
// interpolated between the bracketing samples. The second return is false
// when the trajectory is not active at tm.
func (t Trajectory) PositionAt(tm float64) (float64, bool) {
	if !t.ActiveAt(tm) {
		return 0, false
	}
	for i := 0; i < len(t.Points)-1; i++ {
		a, b := t.Points[i], t.Points[i+1]
		if tm < a.Time || tm > b.Time {
			continue
		}
		dt := b.Time - a.Time
		if dt == 0 {
			return a.Position, true
		}
		f := (tm - a.Time) / dt
		return a.Position + f*(b.Position-a.Position), true
	}
	return 0, false
}
