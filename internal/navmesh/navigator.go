package navmesh

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"village-planner/internal/geom"
)

// ErrNoPath is returned when no route connects two points.
var ErrNoPath = errors.New("navmesh: no path")

// ChangeListener is told about every published mesh.
type ChangeListener interface {
	OnNavmeshChange(Snapshot)
}

// ListenerFunc adapts a function to ChangeListener.
type ListenerFunc func(Snapshot)

func (f ListenerFunc) OnNavmeshChange(s Snapshot) { f(s) }

// Navigator owns the current mesh of a changing layout. Layout changes mark
// it dirty and the next Rebuild, or the next query, builds a fresh mesh, so
// several changes within one turn cost a single build.
//
// A Navigator is not safe for concurrent use.
type Navigator struct {
	cfg    BuildConfig
	source Source
	log    *zap.Logger

	mesh      *Mesh
	dirty     bool
	reasons   []string
	version   uint64
	listeners []ChangeListener
}

// NewNavigator returns a Navigator over source. No mesh is built until the
// first Rebuild or query.
func NewNavigator(cfg BuildConfig, source Source, log *zap.Logger) *Navigator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Navigator{
		cfg:    cfg,
		source: source,
		log:    log,
		dirty:  true,
	}
}

// Subscribe registers l for every future rebuild.
func (n *Navigator) Subscribe(l ChangeListener) {
	n.listeners = append(n.listeners, l)
}

// MarkDirty records that the layout changed.
func (n *Navigator) MarkDirty(reason string) {
	n.dirty = true
	if reason != "" {
		n.reasons = append(n.reasons, reason)
	}
}

// Dirty reports whether the current mesh is stale.
func (n *Navigator) Dirty() bool {
	return n.dirty
}

// Version is the number of meshes built so far.
func (n *Navigator) Version() uint64 {
	return n.version
}

// Rebuild builds a mesh from the source's current layout, publishes it and
// notifies listeners.
func (n *Navigator) Rebuild() *Mesh {
	var obstacles []Obstacle
	var wall Wall
	if n.source != nil {
		obstacles = n.source.Obstacles()
		wall = n.source.Wall()
	}

	mesh := Build(n.cfg, obstacles, wall, n.log)
	n.version++
	mesh.Version = n.version

	if len(n.reasons) > 0 {
		n.log.Info("navmesh rebuilt",
			zap.Uint64("version", n.version),
			zap.String("reasons", strings.Join(n.reasons, ",")))
	}
	n.mesh = mesh
	n.dirty = false
	n.reasons = n.reasons[:0]

	if len(n.listeners) > 0 {
		snap := mesh.Snapshot()
		for _, l := range n.listeners {
			l.OnNavmeshChange(snap)
		}
	}
	return mesh
}

// RebuildIfDirty rebuilds only when the layout changed. It reports whether a
// build happened.
func (n *Navigator) RebuildIfDirty() bool {
	if !n.dirty && n.mesh != nil {
		return false
	}
	n.Rebuild()
	return true
}

// Current returns an up-to-date mesh.
func (n *Navigator) Current() *Mesh {
	n.RebuildIfDirty()
	return n.mesh
}

// Snapshot returns the node -> neighbours mapping of the current mesh.
func (n *Navigator) Snapshot() Snapshot {
	return n.Current().Snapshot()
}

// RequestPath plans a route on the current mesh.
func (n *Navigator) RequestPath(start, end geom.Point) (Path, error) {
	path, ok := n.Current().FindPath(start, end)
	if !ok {
		return nil, ErrNoPath
	}
	return path, nil
}

// CanSee answers a line-of-sight query against the current layout.
func (n *Navigator) CanSee(a, b geom.Point) bool {
	return n.Current().CanSee(a, b)
}
