package spatial

import (
	"errors"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"

	"village-planner/internal/geom"
)

var (
	ErrOutOfBounds = errors.New("spatial: point outside index bounds")
	ErrDuplicate   = errors.New("spatial: duplicate payload/tag entry")
)

// Entry is a stored (payload, point) pair. Tag separates several entries that
// share a payload, e.g. the boundary samples of one building.
type Entry struct {
	Payload any
	Tag     int
	Point   geom.Point
}

type entryKey struct {
	payload any
	tag     int
}

// item wraps an entry for quadtree storage
type item struct {
	entry Entry
	seq   int
}

// Point implements orb.Pointer
func (it *item) Point() orb.Point {
	return orb.Point{it.entry.Point.X, it.entry.Point.Y}
}

// Index answers range and k-nearest queries over points.
// Payloads must be comparable (they are used as map keys).
type Index struct {
	tree  *quadtree.Quadtree
	bound geom.Rect
	items map[entryKey]*item
	seq   int
}

// NewIndex creates an index covering bound. Points outside bound cannot be
// stored but may still be used as query points.
func NewIndex(bound geom.Rect) *Index {
	return &Index{
		tree:  quadtree.New(toBound(bound)),
		bound: bound,
		items: make(map[entryKey]*item),
	}
}

// Bounds returns the region covered by the index.
func (ix *Index) Bounds() geom.Rect {
	return ix.bound
}

// Len returns the number of stored entries.
func (ix *Index) Len() int {
	return len(ix.items)
}

// Insert adds an entry.
func (ix *Index) Insert(payload any, tag int, p geom.Point) error {
	key := entryKey{payload: payload, tag: tag}
	if _, ok := ix.items[key]; ok {
		return ErrDuplicate
	}
	if !ix.bound.ContainsClosed(p) {
		return ErrOutOfBounds
	}
	it := &item{entry: Entry{Payload: payload, Tag: tag, Point: p}, seq: ix.seq}
	if err := ix.tree.Add(it); err != nil {
		return ErrOutOfBounds
	}
	ix.seq++
	ix.items[key] = it
	return nil
}

// Remove deletes the entry for (payload, tag). Missing entries are ignored.
func (ix *Index) Remove(payload any, tag int) bool {
	key := entryKey{payload: payload, tag: tag}
	it, ok := ix.items[key]
	if !ok {
		return false
	}
	ix.tree.Remove(it, func(p orb.Pointer) bool {
		return p == orb.Pointer(it)
	})
	delete(ix.items, key)
	return true
}

// QueryRange returns all entries whose point lies inside r (edges included),
// in insertion order. Parts of r outside the index bounds simply match
// nothing.
func (ix *Index) QueryRange(r geom.Rect) []Entry {
	if r.MaxX < r.MinX || r.MaxY < r.MinY {
		return nil
	}
	found := ix.tree.InBound(nil, toBound(r))
	items := make([]*item, 0, len(found))
	for _, p := range found {
		items = append(items, p.(*item))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].seq < items[j].seq })
	return entries(items)
}

// KNearest returns up to k entries closest to p, nearest first. Equal
// distances keep insertion order.
func (ix *Index) KNearest(p geom.Point, k int) []Entry {
	return ix.KNearestMatching(p, k, nil)
}

// KNearestMatching is KNearest restricted to entries accepted by keep.
func (ix *Index) KNearestMatching(p geom.Point, k int, keep func(Entry) bool) []Entry {
	if k <= 0 || len(ix.items) == 0 {
		return nil
	}
	var filter quadtree.FilterFunc
	if keep != nil {
		filter = func(ptr orb.Pointer) bool {
			return keep(ptr.(*item).entry)
		}
	}
	found := ix.tree.KNearestMatching(nil, orb.Point{p.X, p.Y}, k, filter)
	items := make([]*item, 0, len(found))
	for _, f := range found {
		items = append(items, f.(*item))
	}
	sort.Slice(items, func(i, j int) bool {
		di := items[i].entry.Point.Distance(p)
		dj := items[j].entry.Point.Distance(p)
		if di != dj {
			return di < dj
		}
		return items[i].seq < items[j].seq
	})
	return entries(items)
}

func entries(items []*item) []Entry {
	out := make([]Entry, len(items))
	for i, it := range items {
		out[i] = it.entry
	}
	return out
}

func toBound(r geom.Rect) orb.Bound {
	return orb.Bound{
		Min: orb.Point{r.MinX, r.MinY},
		Max: orb.Point{r.MaxX, r.MaxY},
	}
}
