package navmesh

import (
	"math"
	"time"

	"go.uber.org/zap"

	"village-planner/internal/geom"
	"village-planner/internal/spatial"
)

type candidate struct {
	p    geom.Point
	kind NodeKind
}

type pairKey struct{ a, b NodeID }

// Build constructs a navigation mesh for the given obstacle layout.
//
// Seed nodes on a coarse grid give long-range connectivity, wall corner and
// gate nodes lead around and through the wall, and four corner nodes per
// obstacle lead around buildings. Each node is linked to those of its
// nearest neighbours it can see; nodes left without links are pruned.
func Build(cfg BuildConfig, obstacles []Obstacle, wall Wall, log *zap.Logger) *Mesh {
	if log == nil {
		log = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	startTime := time.Now()

	cands := seedCandidates(cfg)
	if wall != nil {
		for _, p := range wall.OuterCorners() {
			cands = append(cands, candidate{p: p, kind: KindWallCorner})
		}
		cands = append(cands, candidate{p: wall.GateCenter(), kind: KindGate})
	}
	for _, obs := range obstacles {
		padded := obs.Bounds().Inflate(cfg.Clearance).Expand(cfg.CornerOffset)
		for _, p := range padded.Corners() {
			cands = append(cands, candidate{p: p, kind: KindCorner})
		}
	}

	bounds := coverBounds(cfg, cands, obstacles, wall)
	oracle := NewOracle(cfg, obstacles, wall, bounds)

	// Drop nodes that sit inside a padded obstacle or repeat a position.
	graph := NewGraph()
	nodeIndex := spatial.NewIndex(bounds)
	seen := make(map[geom.Point]struct{}, len(cands))
	dropped := 0
	for _, c := range cands {
		if _, dup := seen[c.p]; dup {
			dropped++
			continue
		}
		if oracle.Inside(c.p) {
			dropped++
			continue
		}
		seen[c.p] = struct{}{}
		id := graph.AddNode(c.p, c.kind)
		_ = nodeIndex.Insert(id, 0, c.p)
	}

	log.Debug("navmesh candidates",
		zap.Int("candidates", len(cands)),
		zap.Int("nodes", graph.Len()),
		zap.Int("dropped", dropped),
		zap.Int("obstacles", len(obstacles)))

	// Build edges: connect nodes that have line-of-sight
	checked := make(map[pairKey]struct{})
	edgesChecked := 0
	edgesAdded := 0
	for i, p := range graph.Nodes {
		from := NodeID(i)
		for _, e := range nodeIndex.KNearest(p, cfg.Neighbors+1) {
			to := e.Payload.(NodeID)
			if to == from {
				continue
			}
			key := pairKey{a: min(from, to), b: max(from, to)}
			if _, done := checked[key]; done {
				continue
			}
			checked[key] = struct{}{}
			edgesChecked++

			if oracle.CanSee(p, e.Point) {
				if graph.AddEdge(from, to) {
					edgesAdded++
				}
			}
		}
	}

	// If a node has no neighbors, remove it
	pruned := 0
	for i := range graph.Nodes {
		if len(graph.Edges[i]) == 0 {
			pruned++
		}
	}
	if pruned > 0 {
		// IDs are renumbered, so the index is rebuilt rather than patched.
		linked := graph
		graph = linked.compact(func(id NodeID) bool { return len(linked.Edges[id]) > 0 })
		nodeIndex = spatial.NewIndex(bounds)
		for i, p := range graph.Nodes {
			_ = nodeIndex.Insert(NodeID(i), 0, p)
		}
	}

	log.Info("navmesh built",
		zap.Int("nodes", graph.Len()),
		zap.Int("edges", edgesAdded),
		zap.Int("edges_checked", edgesChecked),
		zap.Int("pruned", pruned),
		zap.Duration("elapsed", time.Since(startTime)))

	return &Mesh{
		Graph:     graph,
		Oracle:    oracle,
		obstacles: obstacleRects(obstacles),
		index:     nodeIndex,
		cfg:       cfg,
		log:       log,
	}
}

// seedCandidates lays a regular grid over the world, starting at its
// top-left corner.
func seedCandidates(cfg BuildConfig) []candidate {
	w := cfg.World
	if w.Empty() {
		return nil
	}
	nx := int(math.Floor(w.Width()/cfg.SeedSpacing + 1e-9))
	ny := int(math.Floor(w.Height()/cfg.SeedSpacing + 1e-9))
	out := make([]candidate, 0, (nx+1)*(ny+1))
	for i := 0; i <= nx; i++ {
		x := w.MinX + float64(i)*cfg.SeedSpacing
		for j := 0; j <= ny; j++ {
			y := w.MinY + float64(j)*cfg.SeedSpacing
			out = append(out, candidate{p: geom.Point{X: x, Y: y}, kind: KindSeed})
		}
	}
	return out
}

// coverBounds grows the configured index bounds until every candidate and
// padded obstacle fits.
func coverBounds(cfg BuildConfig, cands []candidate, obstacles []Obstacle, wall Wall) geom.Rect {
	b := cfg.IndexBounds
	grow := func(r geom.Rect) {
		b.MinX = min(b.MinX, r.MinX)
		b.MinY = min(b.MinY, r.MinY)
		b.MaxX = max(b.MaxX, r.MaxX)
		b.MaxY = max(b.MaxY, r.MaxY)
	}
	grow(cfg.World)
	for _, c := range cands {
		grow(geom.Rect{MinX: c.p.X, MinY: c.p.Y, MaxX: c.p.X, MaxY: c.p.Y})
	}
	for _, obs := range obstacles {
		grow(obs.Bounds().Inflate(cfg.Clearance))
	}
	if wall != nil {
		for _, seg := range wall.Segments() {
			grow(seg.Bounds().Inflate(cfg.Clearance))
		}
	}
	return b
}

func obstacleRects(obstacles []Obstacle) []ObstacleRect {
	out := make([]ObstacleRect, 0, len(obstacles))
	for _, obs := range obstacles {
		out = append(out, ObstacleRect{ID: obs.ObstacleID(), Bounds: obs.Bounds()})
	}
	return out
}
