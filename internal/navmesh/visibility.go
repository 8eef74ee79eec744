package navmesh

import (
	"village-planner/internal/geom"
	"village-planner/internal/spatial"
)

const wallPrefix = "wall:"

// Oracle answers line-of-sight queries against one obstacle layout. It is
// immutable after construction.
type Oracle struct {
	boundary *spatial.Index       // perimeter samples of padded obstacles, payload = obstacle ID
	areas    *spatial.Footprints  // padded obstacles and wall segments
	padded   map[string]geom.Rect // obstacle ID -> padded rect
	order    []string
	walls    []geom.Rect // padded wall segments, always tested
	queryPad float64
	closed   bool
}

// NewOracle pads every obstacle and indexes its perimeter. bounds must cover
// every padded rectangle.
func NewOracle(cfg BuildConfig, obstacles []Obstacle, wall Wall, bounds geom.Rect) *Oracle {
	cfg = cfg.withDefaults()
	o := &Oracle{
		boundary: spatial.NewIndex(bounds),
		areas:    spatial.NewFootprints(),
		padded:   make(map[string]geom.Rect, len(obstacles)),
		queryPad: cfg.QueryPad,
		closed:   cfg.TangentBlocks,
	}
	for _, obs := range obstacles {
		id := obs.ObstacleID()
		if _, dup := o.padded[id]; dup {
			continue
		}
		r := obs.Bounds().Inflate(cfg.Clearance)
		if r.Empty() {
			continue
		}
		o.padded[id] = r
		o.order = append(o.order, id)
		o.areas.Insert(id, r)
		// Samples no further apart than the query pad guarantee that a
		// segment crossing the perimeter finds one inside its padded bbox.
		for tag, p := range r.Perimeter(cfg.QueryPad) {
			_ = o.boundary.Insert(id, tag, p)
		}
	}
	if wall != nil {
		for _, seg := range wall.Segments() {
			r := seg.Bounds().Inflate(cfg.Clearance)
			o.walls = append(o.walls, r)
			o.areas.Insert(wallPrefix+seg.ObstacleID(), r)
		}
	}
	return o
}

// CanSee reports whether the segment p1-p2 avoids every padded obstacle.
func (o *Oracle) CanSee(p1, p2 geom.Point) bool {
	return o.canSee(p1, p2, nil)
}

// CanSeeFrom is CanSee but ignores obstacles whose padded rect contains
// origin, so an agent standing in its own building's margin can walk out.
// With open rectangles a point on the boundary is not contained.
func (o *Oracle) CanSeeFrom(origin, target geom.Point) bool {
	return o.canSee(origin, target, func(r geom.Rect) bool {
		if o.closed {
			return r.ContainsClosed(origin)
		}
		return r.Contains(origin)
	})
}

// CanReach reports whether an agent at origin can walk to target, where
// target may lie on the edge of a padded obstacle, as building edge
// destinations do. A target strictly inside a padded obstacle or wall
// segment is never reachable. When touching blocks, the obstacle whose edge
// carries target only blocks segments that enter its interior.
func (o *Oracle) CanReach(origin, target geom.Point) bool {
	if o.Inside(target) {
		return false
	}
	if !o.closed {
		return o.CanSee(origin, target)
	}
	return o.canSee(origin, target, func(r geom.Rect) bool {
		return r.ContainsClosed(target) && !geom.SegmentHitsRect(origin, target, r, false)
	})
}

// Blockers returns the IDs of the obstacles that block p1-p2, for
// diagnostics. Wall segments are reported as "wall".
func (o *Oracle) Blockers(p1, p2 geom.Point) []string {
	var ids []string
	for _, id := range o.order {
		if geom.SegmentHitsRect(p1, p2, o.padded[id], o.closed) {
			ids = append(ids, id)
		}
	}
	for _, r := range o.walls {
		if geom.SegmentHitsRect(p1, p2, r, o.closed) {
			ids = append(ids, "wall")
			break
		}
	}
	return ids
}

// Inside reports whether p lies strictly inside any padded obstacle or wall
// segment.
func (o *Oracle) Inside(p geom.Point) bool {
	return o.areas.ContainsPoint(p)
}

// Padded returns the padded rectangle of an obstacle. Wall segments are
// stored under "wall:" followed by their obstacle ID.
func (o *Oracle) Padded(id string) (geom.Rect, bool) {
	return o.areas.Get(id)
}

func (o *Oracle) canSee(p1, p2 geom.Point, skip func(geom.Rect) bool) bool {
	for _, id := range o.candidates(p1, p2) {
		r := o.padded[id]
		if skip != nil && skip(r) {
			continue
		}
		if geom.SegmentHitsRect(p1, p2, r, o.closed) {
			return false // line of sight is blocked by this building
		}
	}
	for _, r := range o.walls {
		if skip != nil && skip(r) {
			continue
		}
		if geom.SegmentHitsRect(p1, p2, r, o.closed) {
			return false
		}
	}
	return true
}

// candidates shortlists obstacles with a perimeter sample near the segment,
// plus any obstacle containing an endpoint, deduplicated by obstacle.
func (o *Oracle) candidates(p1, p2 geom.Point) []string {
	found := o.boundary.QueryRange(geom.SegmentBounds(p1, p2, o.queryPad))
	seen := make(map[string]struct{}, 4)
	ids := make([]string, 0, 4)
	add := func(id string) {
		if _, ok := o.padded[id]; !ok {
			return // wall segments are tested separately
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, e := range found {
		add(e.Payload.(string))
	}
	for _, id := range o.areas.Containing(p1) {
		add(id)
	}
	for _, id := range o.areas.Containing(p2) {
		add(id)
	}
	return ids
}
