package navmesh

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"village-planner/internal/geom"
)

// SnapshotNode is one navmesh node with the IDs of its neighbours.
type SnapshotNode struct {
	ID        NodeID   `json:"id"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Kind      string   `json:"kind"`
	Neighbors []NodeID `json:"neighbors"`
}

// Snapshot is the serializable node -> neighbours mapping of a mesh. It is
// what change listeners receive after a rebuild.
type Snapshot struct {
	Version   uint64         `json:"version"`
	World     geom.Rect      `json:"world"`
	Nodes     []SnapshotNode `json:"nodes"`
	Obstacles []ObstacleRect `json:"obstacles"`
}

// Snapshot captures the mesh's graph.
func (m *Mesh) Snapshot() Snapshot {
	s := Snapshot{
		Version:   m.Version,
		World:     m.cfg.World,
		Nodes:     make([]SnapshotNode, 0, m.Graph.Len()),
		Obstacles: append([]ObstacleRect(nil), m.obstacles...),
	}
	for i, p := range m.Graph.Nodes {
		n := SnapshotNode{
			ID:        NodeID(i),
			X:         p.X,
			Y:         p.Y,
			Kind:      m.Graph.Kinds[i].String(),
			Neighbors: make([]NodeID, 0, len(m.Graph.Edges[i])),
		}
		for _, e := range m.Graph.Edges[i] {
			n.Neighbors = append(n.Neighbors, e.To)
		}
		s.Nodes = append(s.Nodes, n)
	}
	return s
}

// Lines returns the graph edges as line segments for visualization, each
// edge once.
func (s Snapshot) Lines() [][2]geom.Point {
	lines := make([][2]geom.Point, 0)
	for _, n := range s.Nodes {
		for _, to := range n.Neighbors {
			if to <= n.ID || int(to) >= len(s.Nodes) {
				continue
			}
			other := s.Nodes[to]
			lines = append(lines, [2]geom.Point{{X: n.X, Y: n.Y}, {X: other.X, Y: other.Y}})
		}
	}
	return lines
}

// Graph rebuilds a searchable graph from the snapshot.
func (s Snapshot) Graph() *Graph {
	g := NewGraph()
	for _, n := range s.Nodes {
		g.AddNode(geom.Point{X: n.X, Y: n.Y}, ParseNodeKind(n.Kind))
	}
	for _, n := range s.Nodes {
		for _, to := range n.Neighbors {
			if g.valid(to) {
				g.AddEdge(n.ID, to)
			}
		}
	}
	return g
}

// WriteSnapshot encodes s as zstd-compressed JSON.
func WriteSnapshot(w io.Writer, s Snapshot) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)
	if err := json.NewEncoder(bw).Encode(&s); err != nil {
		enc.Close()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (Snapshot, error) {
	var s Snapshot
	dec, err := zstd.NewReader(r)
	if err != nil {
		return s, err
	}
	defer dec.Close()

	if err := json.NewDecoder(bufio.NewReader(dec)).Decode(&s); err != nil {
		return s, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return s, nil
}

// SaveSnapshot writes s to path, creating parent directories.
func SaveSnapshot(path string, s Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := WriteSnapshot(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadSnapshot reads a snapshot file.
func LoadSnapshot(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read file: %w", err)
	}
	defer f.Close()
	return ReadSnapshot(f)
}
