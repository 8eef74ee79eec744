package agent

import "village-planner/internal/geom"

// Follower walks a list of waypoints at a fixed speed.
type Follower struct {
	Waypoints []geom.Point
	Speed     float64 // world units per tick
	Epsilon   float64 // distance at which a waypoint counts as reached
}

// Step moves pos toward the next waypoint by at most Speed. A waypoint is
// popped when pos is within Epsilon of it or when the move would overshoot
// it, in which case pos lands exactly on it. arrived is true once no
// waypoints remain.
func (f *Follower) Step(pos geom.Point) (geom.Point, bool) {
	if len(f.Waypoints) == 0 {
		return pos, true
	}

	next := f.Waypoints[0]
	dist := pos.Distance(next)
	switch {
	case dist <= f.Epsilon:
		f.Waypoints = f.Waypoints[1:]
	case dist <= f.Speed:
		pos = next
		f.Waypoints = f.Waypoints[1:]
	default:
		pos = pos.Add(next.Sub(pos).Scale(f.Speed / dist))
	}
	return pos, len(f.Waypoints) == 0
}

// Remaining is the number of waypoints left.
func (f *Follower) Remaining() int {
	return len(f.Waypoints)
}
