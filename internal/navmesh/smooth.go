package navmesh

import (
	"math"

	"village-planner/internal/geom"
)

// collinearEpsilon is the distance under which a waypoint counts as lying on
// the line between its neighbours.
const collinearEpsilon = 1e-6

// SmoothPath shortens a waypoint list by skipping every waypoint that the
// previous kept waypoint can see past. The first and last points are always
// kept, and every consecutive pair of the result passes canSee.
func SmoothPath(path []geom.Point, canSee func(a, b geom.Point) bool) []geom.Point {
	if len(path) <= 2 {
		return path
	}

	out := []geom.Point{path[0]}
	anchor := 0
	for anchor < len(path)-1 {
		// Furthest waypoint visible from the anchor.
		next := anchor + 1
		for j := len(path) - 1; j > anchor+1; j-- {
			if canSee(path[anchor], path[j]) {
				next = j
				break
			}
		}
		out = append(out, path[next])
		anchor = next
	}
	return dropCollinear(out)
}

// dropCollinear removes interior points lying on the line between their
// neighbours.
func dropCollinear(points []geom.Point) []geom.Point {
	if len(points) <= 2 {
		return points
	}
	out := []geom.Point{points[0]}
	for i := 1; i < len(points)-1; i++ {
		prev := out[len(out)-1]
		if perpendicularDistance(points[i], prev, points[i+1]) < collinearEpsilon &&
			between(points[i], prev, points[i+1]) {
			continue
		}
		out = append(out, points[i])
	}
	return append(out, points[len(points)-1])
}

// perpendicularDistance is the distance from p to the line through a and b,
// or to a when the two coincide.
func perpendicularDistance(p, a, b geom.Point) float64 {
	length := a.Distance(b)
	if length == 0 {
		return a.Distance(p)
	}
	return math.Abs(b.Sub(a).Cross(p.Sub(a))) / length
}

func between(p, a, b geom.Point) bool {
	return p.X >= min(a.X, b.X)-collinearEpsilon && p.X <= max(a.X, b.X)+collinearEpsilon &&
		p.Y >= min(a.Y, b.Y)-collinearEpsilon && p.Y <= max(a.Y, b.Y)+collinearEpsilon
}
