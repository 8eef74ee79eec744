package navmesh

import (
	"go.uber.org/zap"

	"village-planner/internal/geom"
	"village-planner/internal/spatial"
)

// Path is a list of waypoints from a raw start point to a raw end point.
type Path []geom.Point

// Length is the total Euclidean length of the path.
func (p Path) Length() float64 {
	return geom.PathLength(p)
}

// ObstacleRect is the layout an obstacle had when a mesh was built.
type ObstacleRect struct {
	ID     string    `json:"id"`
	Bounds geom.Rect `json:"bounds"`
}

// Mesh is one published navigation mesh: the graph, its node index and the
// visibility oracle for the layout it was built from. A Mesh is never
// mutated; a rebuild produces a new one.
type Mesh struct {
	Graph   *Graph
	Oracle  *Oracle
	Version uint64

	obstacles []ObstacleRect
	index     *spatial.Index // payload = NodeID
	cfg       BuildConfig
	log       *zap.Logger
}

// Config returns the parameters the mesh was built with.
func (m *Mesh) Config() BuildConfig {
	return m.cfg
}

// Obstacles returns the obstacle layout the mesh was built from.
func (m *Mesh) Obstacles() []ObstacleRect {
	return m.obstacles
}

// CanSee is the mesh's visibility oracle.
func (m *Mesh) CanSee(p1, p2 geom.Point) bool {
	return m.Oracle.CanSee(p1, p2)
}

// NearestNode returns the node closest to p.
func (m *Mesh) NearestNode(p geom.Point) (NodeID, bool) {
	found := m.index.KNearest(p, 1)
	if len(found) == 0 {
		return -1, false
	}
	return found[0].Payload.(NodeID), true
}

// FindPath routes from start to end. The returned waypoints begin with start,
// follow graph nodes and finish with end. ok is false when no route exists.
func (m *Mesh) FindPath(start, end geom.Point) (Path, bool) {
	if m.Oracle.Inside(end) {
		m.log.Debug("end inside an obstacle", zap.Float64("x", end.X), zap.Float64("y", end.Y))
		return nil, false
	}
	from, ok := m.snap(start, m.Oracle.CanSeeFrom)
	if !ok {
		m.log.Debug("no visible node near start", zap.Float64("x", start.X), zap.Float64("y", start.Y))
		return nil, false
	}
	to, ok := m.snap(end, func(p, node geom.Point) bool { return m.Oracle.CanReach(node, p) })
	if !ok {
		m.log.Debug("no visible node near end", zap.Float64("x", end.X), zap.Float64("y", end.Y))
		return nil, false
	}

	ids, cost, ok := Search(m.Graph, from, to)
	if !ok {
		m.log.Debug("no path on navmesh",
			zap.Int("from", int(from)),
			zap.Int("to", int(to)))
		return nil, false
	}

	path := make(Path, 0, len(ids)+2)
	path = append(path, start)
	for _, id := range ids {
		path = append(path, m.Graph.Nodes[id])
	}
	path = append(path, end)

	if m.cfg.SmoothPaths {
		path = SmoothPath(path, m.Oracle.CanSee)
	}

	m.log.Debug("path found",
		zap.Int("waypoints", len(path)),
		zap.Float64("graph_cost", cost))
	return path, true
}

// snap picks the graph node a raw point enters the mesh through: the nearest
// node, or failing that the nearest one among SnapCandidates that visible
// accepts. Only the start may stand in an obstacle's margin; the end must be
// reachable without entering one.
func (m *Mesh) snap(p geom.Point, visible func(p, node geom.Point) bool) (NodeID, bool) {
	nearest, ok := m.NearestNode(p)
	if !ok {
		return -1, false
	}
	if visible(p, m.Graph.Nodes[nearest]) {
		return nearest, true
	}
	for _, e := range m.index.KNearest(p, m.cfg.SnapCandidates) {
		if visible(p, e.Point) {
			return e.Payload.(NodeID), true
		}
	}
	return -1, false
}
