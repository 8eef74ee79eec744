package spatial

import (
	"sort"

	"github.com/dhconnelly/rtreego"

	"village-planner/internal/geom"
)

// minLength keeps degenerate rectangles storable; rtreego rejects
// non-positive side lengths.
const minLength = 1e-6

// footprint wraps an obstacle rectangle for R-tree storage
type footprint struct {
	ID   string
	Rect geom.Rect
	BBox rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (f *footprint) Bounds() rtreego.Rect {
	return f.BBox
}

// Footprints indexes obstacle rectangles by identity.
type Footprints struct {
	tree *rtreego.Rtree
	byID map[string]*footprint
}

// NewFootprints creates an empty footprint index.
func NewFootprints() *Footprints {
	return &Footprints{
		tree: rtreego.NewTree(2, 25, 50), // 2D, min 25, max 50 entries per node
		byID: make(map[string]*footprint),
	}
}

// Len returns the number of stored rectangles.
func (fp *Footprints) Len() int {
	return len(fp.byID)
}

// Insert stores r under id, replacing any rectangle already stored for id.
func (fp *Footprints) Insert(id string, r geom.Rect) {
	fp.Delete(id)
	f := &footprint{ID: id, Rect: r, BBox: toRTreeRect(r)}
	fp.tree.Insert(f)
	fp.byID[id] = f
}

// Delete removes id. It reports whether anything was stored.
func (fp *Footprints) Delete(id string) bool {
	f, ok := fp.byID[id]
	if !ok {
		return false
	}
	fp.tree.Delete(f)
	delete(fp.byID, id)
	return true
}

// Get returns the rectangle stored for id.
func (fp *Footprints) Get(id string) (geom.Rect, bool) {
	f, ok := fp.byID[id]
	if !ok {
		return geom.Rect{}, false
	}
	return f.Rect, true
}

// Intersecting returns the ids whose rectangle interior overlaps r, sorted.
func (fp *Footprints) Intersecting(r geom.Rect) []string {
	results := fp.tree.SearchIntersect(toRTreeRect(r))
	ids := make([]string, 0, len(results))
	for _, s := range results {
		f := s.(*footprint)
		if f.Rect.Overlaps(r) {
			ids = append(ids, f.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

// ContainsPoint reports whether p lies strictly inside any stored rectangle.
func (fp *Footprints) ContainsPoint(p geom.Point) bool {
	return len(fp.Containing(p)) > 0
}

// Containing returns the ids whose rectangle strictly contains p, sorted.
func (fp *Footprints) Containing(p geom.Point) []string {
	probe := toRTreeRect(geom.Rect{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}.Expand(minLength))
	var ids []string
	for _, s := range fp.tree.SearchIntersect(probe) {
		f := s.(*footprint)
		if f.Rect.Contains(p) {
			ids = append(ids, f.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

func toRTreeRect(r geom.Rect) rtreego.Rect {
	w := r.Width()
	h := r.Height()
	if w < minLength {
		w = minLength
	}
	if h < minLength {
		h = minLength
	}
	// lengths are clamped positive, so NewRect cannot fail
	bbox, _ := rtreego.NewRect(rtreego.Point{r.MinX, r.MinY}, []float64{w, h})
	return bbox
}
