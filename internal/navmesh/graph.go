package navmesh

import "village-planner/internal/geom"

// NodeID indexes Graph.Nodes. IDs are only meaningful within one build.
type NodeID int

// NodeKind records why a node exists.
type NodeKind uint8

const (
	KindSeed NodeKind = iota
	KindWallCorner
	KindGate
	KindCorner
)

func (k NodeKind) String() string {
	switch k {
	case KindSeed:
		return "seed"
	case KindWallCorner:
		return "wall_corner"
	case KindGate:
		return "gate"
	case KindCorner:
		return "corner"
	default:
		return "unknown"
	}
}

// ParseNodeKind is the inverse of NodeKind.String. Unknown names map to
// KindSeed.
func ParseNodeKind(s string) NodeKind {
	switch s {
	case "wall_corner":
		return KindWallCorner
	case "gate":
		return KindGate
	case "corner":
		return KindCorner
	default:
		return KindSeed
	}
}

// Edge represents a connection between two nodes with a cost
type Edge struct {
	To   NodeID  // Index of the destination node
	Cost float64 // Euclidean distance
}

// Graph is an arena of nodes with index-based adjacency. Edges are stored
// in both directions.
type Graph struct {
	Nodes []geom.Point
	Kinds []NodeKind
	Edges [][]Edge
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.Nodes)
}

// AddNode appends a node and returns its ID.
func (g *Graph) AddNode(p geom.Point, kind NodeKind) NodeID {
	g.Nodes = append(g.Nodes, p)
	g.Kinds = append(g.Kinds, kind)
	g.Edges = append(g.Edges, nil)
	return NodeID(len(g.Nodes) - 1)
}

// AddEdge links a and b in both directions with their Euclidean distance.
func (g *Graph) AddEdge(a, b NodeID) bool {
	return g.AddEdgeCost(a, b, g.Nodes[a].Distance(g.Nodes[b]))
}

// AddEdgeCost links a and b in both directions. Self loops and duplicate
// edges are ignored and reported as false.
func (g *Graph) AddEdgeCost(a, b NodeID, cost float64) bool {
	if a == b || g.HasEdge(a, b) {
		return false
	}
	g.Edges[a] = append(g.Edges[a], Edge{To: b, Cost: cost})
	g.Edges[b] = append(g.Edges[b], Edge{To: a, Cost: cost})
	return true
}

// HasEdge reports whether a links to b.
func (g *Graph) HasEdge(a, b NodeID) bool {
	for _, e := range g.Edges[a] {
		if e.To == b {
			return true
		}
	}
	return false
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, edges := range g.Edges {
		n += len(edges)
	}
	return n / 2
}

// Lines returns every undirected edge once, as a pair of endpoints.
func (g *Graph) Lines() [][2]geom.Point {
	lines := make([][2]geom.Point, 0, g.EdgeCount())
	for i, edges := range g.Edges {
		for _, e := range edges {
			// Each edge is stored twice; keep the copy from the lower ID.
			if NodeID(i) < e.To {
				lines = append(lines, [2]geom.Point{g.Nodes[i], g.Nodes[e.To]})
			}
		}
	}
	return lines
}

// Components labels every node with the index of its connected component.
// Labels are assigned in order of the lowest node ID in each component.
func (g *Graph) Components() []int {
	labels := make([]int, len(g.Nodes))
	for i := range labels {
		labels[i] = -1
	}
	next := 0
	stack := make([]NodeID, 0, 16)
	for i := range g.Nodes {
		if labels[i] != -1 {
			continue
		}
		labels[i] = next
		stack = append(stack[:0], NodeID(i))
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, e := range g.Edges[cur] {
				if labels[e.To] == -1 {
					labels[e.To] = next
					stack = append(stack, e.To)
				}
			}
		}
		next++
	}
	return labels
}

// compact drops nodes rejected by keep and renumbers the rest.
func (g *Graph) compact(keep func(NodeID) bool) *Graph {
	remap := make([]NodeID, len(g.Nodes))
	out := NewGraph()
	for i, p := range g.Nodes {
		if !keep(NodeID(i)) {
			remap[i] = -1
			continue
		}
		remap[i] = out.AddNode(p, g.Kinds[i])
	}
	for i, edges := range g.Edges {
		if remap[i] < 0 {
			continue
		}
		for _, e := range edges {
			if remap[e.To] < 0 {
				continue
			}
			out.Edges[remap[i]] = append(out.Edges[remap[i]], Edge{To: remap[e.To], Cost: e.Cost})
		}
	}
	return out
}
