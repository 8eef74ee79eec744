package geom

import "math"

// Point is a position in world units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is a convenience constructor for Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Distance calculates Euclidean distance between two points
func (p Point) Distance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Add returns p translated by d.
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// Sub returns the vector from other to p.
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// Cross is the z component of the cross product of p and q as vectors.
func (p Point) Cross(q Point) float64 {
	return p.X*q.Y - p.Y*q.X
}

// Scale multiplies both coordinates by s.
func (p Point) Scale(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// PathLength sums the Euclidean lengths of consecutive legs.
func PathLength(path []Point) float64 {
	total := 0.0
	for i := 0; i+1 < len(path); i++ {
		total += path[i].Distance(path[i+1])
	}
	return total
}

// Clearance pads an obstacle rectangle on each side. Negative values shrink
// that side.
type Clearance struct {
	Left   float64 `toml:"left" json:"left"`
	Top    float64 `toml:"top" json:"top"`
	Right  float64 `toml:"right" json:"right"`
	Bottom float64 `toml:"bottom" json:"bottom"`
}

// SpriteClearance is the padding used for villager sprites anchored at their
// top-left corner: one cell to the left, two cells above.
func SpriteClearance(gridSize float64) Clearance {
	return Clearance{
		Left:   gridSize - 2,
		Top:    gridSize*2 - 2,
		Right:  -2,
		Bottom: -(gridSize + 2),
	}
}

// Uniform pads every side by the same amount.
func Uniform(d float64) Clearance {
	return Clearance{Left: d, Top: d, Right: d, Bottom: d}
}
