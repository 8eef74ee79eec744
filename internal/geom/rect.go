package geom

import "math"

// Rect is an axis-aligned rectangle. Y grows downwards, so Min is the
// top-left corner.
type Rect struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// RectXYWH builds a rectangle from its top-left corner and size.
func RectXYWH(x, y, w, h float64) Rect {
	return Rect{MinX: x, MinY: y, MaxX: x + w, MaxY: y + h}
}

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.MaxX <= r.MinX || r.MaxY <= r.MinY
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{X: (r.MinX + r.MaxX) / 2, Y: (r.MinY + r.MaxY) / 2}
}

// Inflate applies a clearance margin.
func (r Rect) Inflate(c Clearance) Rect {
	return Rect{
		MinX: r.MinX - c.Left,
		MinY: r.MinY - c.Top,
		MaxX: r.MaxX + c.Right,
		MaxY: r.MaxY + c.Bottom,
	}
}

// Expand grows every side by d.
func (r Rect) Expand(d float64) Rect {
	return Rect{MinX: r.MinX - d, MinY: r.MinY - d, MaxX: r.MaxX + d, MaxY: r.MaxY + d}
}

// Contains reports whether p lies strictly inside r.
func (r Rect) Contains(p Point) bool {
	return p.X > r.MinX && p.X < r.MaxX && p.Y > r.MinY && p.Y < r.MaxY
}

// ContainsClosed reports whether p lies inside r or on its boundary.
func (r Rect) ContainsClosed(p Point) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// Overlaps reports whether the interiors of r and o intersect.
func (r Rect) Overlaps(o Rect) bool {
	return r.MinX < o.MaxX && o.MinX < r.MaxX && r.MinY < o.MaxY && o.MinY < r.MaxY
}

// Corners returns top-left, top-right, bottom-left, bottom-right.
func (r Rect) Corners() [4]Point {
	return [4]Point{
		{X: r.MinX, Y: r.MinY},
		{X: r.MaxX, Y: r.MinY},
		{X: r.MinX, Y: r.MaxY},
		{X: r.MaxX, Y: r.MaxY},
	}
}

// Perimeter samples points along the boundary of r, starting at every corner
// and spaced no more than step apart on each edge.
func (r Rect) Perimeter(step float64) []Point {
	if step <= 0 {
		c := r.Corners()
		return c[:]
	}
	var pts []Point
	edge := func(a, b Point) {
		n := int(math.Ceil(a.Distance(b) / step))
		if n < 1 {
			n = 1
		}
		for i := 0; i < n; i++ {
			t := float64(i) / float64(n)
			pts = append(pts, Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t})
		}
	}
	tl := Point{X: r.MinX, Y: r.MinY}
	tr := Point{X: r.MaxX, Y: r.MinY}
	br := Point{X: r.MaxX, Y: r.MaxY}
	bl := Point{X: r.MinX, Y: r.MaxY}
	edge(tl, tr)
	edge(tr, br)
	edge(br, bl)
	edge(bl, tl)
	return pts
}

// SegmentBounds calculates the bounding box of a segment with margin
func SegmentBounds(a, b Point, margin float64) Rect {
	return Rect{
		MinX: math.Min(a.X, b.X) - margin,
		MinY: math.Min(a.Y, b.Y) - margin,
		MaxX: math.Max(a.X, b.X) + margin,
		MaxY: math.Max(a.Y, b.Y) + margin,
	}
}
