package navmesh

import "village-planner/internal/geom"

// BuildConfig carries every parameter the navmesh needs. There is no package
// level state; callers build one from their configuration.
type BuildConfig struct {
	// World is the playable area. Seed nodes cover it.
	World geom.Rect
	// IndexBounds is the region covered by the spatial indexes. It is grown
	// automatically to include every node and obstacle.
	IndexBounds geom.Rect

	GridSize       float64
	SeedSpacing    float64 // distance between seed nodes
	Neighbors      int     // candidates examined per node
	QueryPad       float64 // visibility shortlist padding
	CornerOffset   float64 // corner nodes sit this far outside padded rects
	SnapCandidates int     // nodes examined when snapping a raw point

	Clearance     geom.Clearance
	TangentBlocks bool // closed rectangles: touching a padded edge blocks
	SmoothPaths   bool
}

// DefaultBuildConfig mirrors the game's defaults for a world and cell size.
func DefaultBuildConfig(world geom.Rect, gridSize float64) BuildConfig {
	return BuildConfig{
		World:          world,
		IndexBounds:    PadBounds(world, 0.25),
		GridSize:       gridSize,
		SeedSpacing:    gridSize * 15,
		Neighbors:      10,
		QueryPad:       gridSize * 2,
		CornerOffset:   3,
		SnapCandidates: 10,
		Clearance:      geom.SpriteClearance(gridSize),
	}
}

// PadBounds grows r by ratio of its width and height on every side.
func PadBounds(r geom.Rect, ratio float64) geom.Rect {
	dx := r.Width() * ratio
	dy := r.Height() * ratio
	return geom.Rect{MinX: r.MinX - dx, MinY: r.MinY - dy, MaxX: r.MaxX + dx, MaxY: r.MaxY + dy}
}

func (c BuildConfig) withDefaults() BuildConfig {
	if c.GridSize <= 0 {
		c.GridSize = 24
	}
	if c.SeedSpacing <= 0 {
		c.SeedSpacing = c.GridSize * 15
	}
	if c.Neighbors <= 0 {
		c.Neighbors = 10
	}
	if c.QueryPad <= 0 {
		c.QueryPad = c.GridSize * 2
	}
	if c.SnapCandidates <= 0 {
		c.SnapCandidates = c.Neighbors
	}
	if c.IndexBounds.Empty() {
		c.IndexBounds = PadBounds(c.World, 0.25)
	}
	return c
}
