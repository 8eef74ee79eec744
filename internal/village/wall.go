package village

import (
	"village-planner/internal/geom"
	"village-planner/internal/navmesh"
)

// WallConfig describes the village wall. The interior rectangle is given in
// cells; the wall band of Thickness world units surrounds it.
type WallConfig struct {
	X, Y          int
	Width, Height int
	Thickness     float64
	GateWidth     int // cells
	UpgradeStep   int // cells added to width and height per upgrade
}

// DefaultWallConfig is a 20x20 cell enclosure with a three cell gate.
func DefaultWallConfig() WallConfig {
	return WallConfig{
		X:           50,
		Y:           30,
		Width:       20,
		Height:      20,
		Thickness:   8,
		GateWidth:   3,
		UpgradeStep: 5,
	}
}

// WallSegment is one of the five rectangles of the wall.
type WallSegment struct {
	Name string
	Rect geom.Rect
}

func (s WallSegment) Bounds() geom.Rect   { return s.Rect }
func (s WallSegment) ObstacleID() string { return "wall-" + s.Name }

// Wall defines how much room the village has to build in. It implements
// navmesh.Wall.
type Wall struct {
	WallConfig

	gridSize     float64
	clearance    geom.Clearance
	cornerOffset float64
}

// NewWall builds the wall. clearance and cornerOffset must match the
// navmesh configuration so the navigation points stay walkable.
func NewWall(cfg WallConfig, gridSize float64, clearance geom.Clearance, cornerOffset float64) *Wall {
	return &Wall{
		WallConfig:   cfg,
		gridSize:     gridSize,
		clearance:    clearance,
		cornerOffset: cornerOffset,
	}
}

// Interior returns the buildable area in world units.
func (w *Wall) Interior() geom.Rect {
	g := w.gridSize
	return geom.RectXYWH(float64(w.X)*g, float64(w.Y)*g, float64(w.Width)*g, float64(w.Height)*g)
}

// Outer returns the outline of the wall band.
func (w *Wall) Outer() geom.Rect {
	return w.Interior().Expand(w.Thickness)
}

// gate returns the horizontal extent of the gate hole in the bottom side.
func (w *Wall) gate() (left, right float64) {
	in := w.Interior()
	gw := min(float64(w.GateWidth)*w.gridSize, in.Width())
	left = in.MinX + (in.Width()-gw)/2
	return left, left + gw
}

// Segments returns left, top, right and the two bottom pieces either side of
// the gate.
func (w *Wall) Segments() []navmesh.Obstacle {
	in := w.Interior()
	out := w.Outer()
	t := w.Thickness
	gl, gr := w.gate()
	return []navmesh.Obstacle{
		WallSegment{Name: "left", Rect: geom.Rect{MinX: out.MinX, MinY: out.MinY, MaxX: in.MinX, MaxY: out.MaxY}},
		WallSegment{Name: "top", Rect: geom.Rect{MinX: out.MinX, MinY: out.MinY, MaxX: out.MaxX, MaxY: out.MinY + t}},
		WallSegment{Name: "right", Rect: geom.Rect{MinX: in.MaxX, MinY: out.MinY, MaxX: out.MaxX, MaxY: out.MaxY}},
		WallSegment{Name: "bottom-left", Rect: geom.Rect{MinX: out.MinX, MinY: in.MaxY, MaxX: gl, MaxY: out.MaxY}},
		WallSegment{Name: "bottom-right", Rect: geom.Rect{MinX: gr, MinY: in.MaxY, MaxX: out.MaxX, MaxY: out.MaxY}},
	}
}

// GateCenter is the middle of the walkable gap between the padded bottom
// segments, halfway through the wall band.
func (w *Wall) GateCenter() geom.Point {
	gl, gr := w.gate()
	left := gl + w.clearance.Right
	right := gr - w.clearance.Left
	in := w.Interior()
	return geom.Point{X: (left + right) / 2, Y: in.MaxY + w.Thickness/2}
}

// OuterCorners returns points just outside the padded wall corners.
func (w *Wall) OuterCorners() [4]geom.Point {
	return w.Outer().Inflate(w.clearance).Expand(w.cornerOffset).Corners()
}

// Contains reports whether a cell rectangle fits inside the wall.
func (w *Wall) Contains(cellX, cellY, width, height int) bool {
	if cellX < w.X || cellY < w.Y {
		return false
	}
	if cellX+width > w.X+w.Width || cellY+height > w.Y+w.Height {
		return false
	}
	return true
}

// Upgrade increases the size of the village.
func (w *Wall) Upgrade() {
	w.Width += w.UpgradeStep
	w.Height += w.UpgradeStep
}
