package geom

// SegmentHitsRect reports whether segment a-b enters rectangle r, using
// Liang–Barsky parametric clipping. The segment is clipped against the four
// half-planes of r; it hits when the admissible interval [tEnter, tExit]
// within [0,1] is non-empty.
//
// With closed == false the rectangle is open: a segment that only touches
// the boundary (the interval collapses to a point, or the segment runs along
// an edge) does not hit. With closed == true touching counts as a hit.
func SegmentHitsRect(a, b Point, r Rect, closed bool) bool {
	dx := b.X - a.X
	dy := b.Y - a.Y
	p := [4]float64{-dx, dx, -dy, dy}
	q := [4]float64{a.X - r.MinX, r.MaxX - a.X, a.Y - r.MinY, r.MaxY - a.Y}

	tEnter, tExit := 0.0, 1.0
	for i := 0; i < 4; i++ {
		if p[i] == 0 {
			// Parallel to this edge: outside (or on it, when open) means no hit.
			if q[i] < 0 || (!closed && q[i] == 0) {
				return false
			}
			continue
		}
		t := q[i] / p[i]
		if p[i] < 0 {
			if t > tEnter {
				tEnter = t
			}
		} else if t < tExit {
			tExit = t
		}
		if tEnter > tExit {
			return false
		}
	}

	if closed {
		return tEnter <= tExit
	}
	return tEnter < tExit
}
