package navmesh

import (
	"container/heap"
)

// searchNode represents a node in the A* search
type searchNode struct {
	id     NodeID  // ID of the node in the graph
	g      float64 // Cost from start to this node
	h      float64 // Heuristic cost from this node to goal
	f      float64 // Total cost (g + h)
	parent *searchNode
	index  int // Index in the heap
}

// openSet implements heap.Interface for A*. Ties on f prefer the lower h,
// then the lower node ID, so equal-cost searches are deterministic.
type openSet []*searchNode

func (pq openSet) Len() int { return len(pq) }

func (pq openSet) Less(i, j int) bool {
	a, b := pq[i], pq[j]
	if a.f != b.f {
		return a.f < b.f
	}
	if a.h != b.h {
		return a.h < b.h
	}
	return a.id < b.id
}

func (pq openSet) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *openSet) Push(x any) {
	n := len(*pq)
	node := x.(*searchNode)
	node.index = n
	*pq = append(*pq, node)
}

func (pq *openSet) Pop() any {
	old := *pq
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*pq = old[0 : n-1]
	return node
}

// Search computes the cheapest route from start to goal with A* and a
// Euclidean heuristic. It returns the node sequence, its total cost and
// whether goal was reachable.
func Search(graph *Graph, start, goal NodeID) ([]NodeID, float64, bool) {
	if graph == nil || !graph.valid(start) || !graph.valid(goal) {
		return nil, 0, false
	}

	goalPoint := graph.Nodes[goal]
	h0 := graph.Nodes[start].Distance(goalPoint)
	first := &searchNode{id: start, h: h0, f: h0}

	open := &openSet{}
	heap.Init(open)
	heap.Push(open, first)

	closed := make(map[NodeID]bool)
	inOpen := map[NodeID]*searchNode{start: first}

	for open.Len() > 0 {
		current := heap.Pop(open).(*searchNode)
		delete(inOpen, current.id)

		if current.id == goal {
			var path []NodeID
			for n := current; n != nil; n = n.parent {
				path = append(path, n.id)
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path, current.g, true
		}

		closed[current.id] = true

		for _, edge := range graph.Edges[current.id] {
			if closed[edge.To] {
				continue
			}
			tentativeG := current.g + edge.Cost

			neighbor, exists := inOpen[edge.To]
			if !exists {
				h := graph.Nodes[edge.To].Distance(goalPoint)
				neighbor = &searchNode{id: edge.To, g: tentativeG, h: h, f: tentativeG + h, parent: current}
				heap.Push(open, neighbor)
				inOpen[edge.To] = neighbor
			} else if tentativeG < neighbor.g {
				// Found a better path to this neighbor
				neighbor.g = tentativeG
				neighbor.f = neighbor.g + neighbor.h
				neighbor.parent = current
				heap.Fix(open, neighbor.index)
			}
		}
	}

	return nil, 0, false
}

func (g *Graph) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(g.Nodes)
}
