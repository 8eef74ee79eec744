package geom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"village-planner/internal/geom"
)

func TestSegmentHitsRect(t *testing.T) {
	r := geom.Rect{MinX: 10, MinY: 10, MaxX: 20, MaxY: 20}

	for _, tc := range []struct {
		name   string
		a, b   geom.Point
		open   bool
		closed bool
	}{
		{"crosses horizontally", geom.Pt(0, 15), geom.Pt(30, 15), true, true},
		{"crosses diagonally", geom.Pt(0, 0), geom.Pt(30, 30), true, true},
		{"ends inside", geom.Pt(0, 15), geom.Pt(15, 15), true, true},
		{"fully inside", geom.Pt(12, 12), geom.Pt(18, 18), true, true},
		{"misses above", geom.Pt(0, 5), geom.Pt(30, 5), false, false},
		{"stops short", geom.Pt(0, 15), geom.Pt(9.999, 15), false, false},
		{"runs along top edge", geom.Pt(0, 10), geom.Pt(30, 10), false, true},
		{"touches corner", geom.Pt(0, 20), geom.Pt(20, 0), false, true},
		{"ends on edge", geom.Pt(0, 15), geom.Pt(10, 15), false, true},
		{"degenerate outside", geom.Pt(5, 5), geom.Pt(5, 5), false, false},
		{"degenerate inside", geom.Pt(15, 15), geom.Pt(15, 15), true, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.open, geom.SegmentHitsRect(tc.a, tc.b, r, false), "open")
			assert.Equal(t, tc.closed, geom.SegmentHitsRect(tc.a, tc.b, r, true), "closed")
			// direction must not matter
			assert.Equal(t, tc.open, geom.SegmentHitsRect(tc.b, tc.a, r, false), "open reversed")
		})
	}
}

func TestRectInflate(t *testing.T) {
	r := geom.RectXYWH(100, 100, 48, 48)
	padded := r.Inflate(geom.SpriteClearance(24))
	assert.Equal(t, geom.Rect{MinX: 78, MinY: 54, MaxX: 146, MaxY: 122}, padded)

	assert.True(t, padded.Contains(geom.Pt(100, 100)))
	assert.False(t, padded.Contains(geom.Pt(78, 100)), "boundary is not interior")
	assert.True(t, padded.ContainsClosed(geom.Pt(78, 100)))
}

func TestRectPerimeterSpacing(t *testing.T) {
	r := geom.RectXYWH(0, 0, 100, 30)
	pts := r.Perimeter(20)

	for _, c := range r.Corners() {
		assert.Contains(t, pts, c)
	}
	// consecutive samples never further apart than the step
	for i := range pts {
		next := pts[(i+1)%len(pts)]
		assert.LessOrEqual(t, pts[i].Distance(next), 20.0+1e-9)
	}
}

func TestPathLength(t *testing.T) {
	assert.Equal(t, 0.0, geom.PathLength(nil))
	assert.InDelta(t, 10.0, geom.PathLength([]geom.Point{{0, 0}, {3, 4}, {3, 9}}), 1e-9)
}

func TestCross(t *testing.T) {
	assert.Equal(t, 1.0, geom.Pt(1, 0).Cross(geom.Pt(0, 1)))
	assert.Equal(t, -1.0, geom.Pt(0, 1).Cross(geom.Pt(1, 0)))
	assert.Equal(t, 0.0, geom.Pt(2, 2).Cross(geom.Pt(3, 3)))
}
