package navmesh

import "village-planner/internal/geom"

// Obstacle is anything that blocks line of sight: buildings, construction
// sites and wall segments. Obstacles are owned by the village; the navmesh
// only reads them.
type Obstacle interface {
	// Bounds returns the obstacle rectangle in world units.
	Bounds() geom.Rect
	// ObstacleID is a stable identity, unique among the obstacles of one build.
	ObstacleID() string
}

// Wall is the village perimeter.
type Wall interface {
	// Segments returns the five wall rectangles: left, top, right and the two
	// bottom pieces on either side of the gate.
	Segments() []Obstacle
	GateCenter() geom.Point
	// OuterCorners returns navigation points just outside the wall corners.
	OuterCorners() [4]geom.Point
}

// Source supplies the current obstacle layout to a Navigator.
type Source interface {
	Obstacles() []Obstacle
	Wall() Wall
}

// Box is a plain rectangular obstacle.
type Box struct {
	ID   string
	Rect geom.Rect
}

func (b Box) Bounds() geom.Rect   { return b.Rect }
func (b Box) ObstacleID() string { return b.ID }

// StaticSource is a fixed obstacle layout.
type StaticSource struct {
	Items     []Obstacle
	Perimeter Wall
}

func (s *StaticSource) Obstacles() []Obstacle { return s.Items }
func (s *StaticSource) Wall() Wall             { return s.Perimeter }
