package graph

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// NoEdge marks an absent edge in the adjacency matrix. Edge labels are
// always >= 0, so the sentinel never collides with a real label.
const NoEdge = -1

var (
	// ErrNonSequentialNodeID is returned by [Graph.AddNode] when the id is not
	// the next dense index (the current node count).
	ErrNonSequentialNodeID = errors.New("node id must equal the current node count")

	// ErrNegativeLabel is returned by [Graph.AddEdge] when the edge label is
	// below zero.
	ErrNegativeLabel = errors.New("label must not be negative")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the source id
	// does not reference an existing node.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the target id
	// does not reference an existing node.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrInvalidEdgeEndpoint is returned by [Graph.Validate] when an edge
	// references a node outside the graph. This indicates corruption.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")
)

// Node is a labeled vertex. ID is also its index in the owning graph.
type Node struct {
	ID    int
	Label int

	out []int // indices of edges leaving this node
	in  []int // indices of edges entering this node
}

// Edge is a labeled directed edge between two node ids of the same graph.
type Edge struct {
	Source int
	Target int
	Label  int
}

// Graph is a directed labeled multigraph with dense integer node ids.
//
// The zero value is not usable - use New.
type Graph struct {
	name  string
	nodes []Node
	edges []Edge

	mu       sync.Mutex
	adj      [][]int
	adjStale bool
}

// New creates an empty graph with the given name.
func New(name string) *Graph {
	return &Graph{name: name, adjStale: true}
}

// Name returns the graph name, e.g. "Graph 12".
func (g *Graph) Name() string { return g.name }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges, parallel edges included.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// AddNode appends a node. The id must equal NodeCount so that ids stay dense
// and usable as slice indices. Any label is accepted, negative ones included.
func (g *Graph) AddNode(id, label int) error {
	if id != len(g.nodes) {
		return fmt.Errorf("%w: got %d, want %d", ErrNonSequentialNodeID, id, len(g.nodes))
	}
	g.nodes = append(g.nodes, Node{ID: id, Label: label})
	g.invalidate()
	return nil
}

// AddEdge adds a directed edge source→target. The edge is registered in the
// graph's edge list, the source's out-edge list and the target's in-edge list.
func (g *Graph) AddEdge(source, target, label int) error {
	if !g.has(source) {
		return fmt.Errorf("%w: %d", ErrUnknownSourceNode, source)
	}
	if !g.has(target) {
		return fmt.Errorf("%w: %d", ErrUnknownTargetNode, target)
	}
	if label < 0 {
		return fmt.Errorf("edge %d->%d: %w", source, target, ErrNegativeLabel)
	}
	idx := len(g.edges)
	g.edges = append(g.edges, Edge{Source: source, Target: target, Label: label})
	g.nodes[source].out = append(g.nodes[source].out, idx)
	g.nodes[target].in = append(g.nodes[target].in, idx)
	g.invalidate()
	return nil
}

func (g *Graph) has(id int) bool { return id >= 0 && id < len(g.nodes) }

func (g *Graph) invalidate() {
	g.mu.Lock()
	g.adjStale = true
	g.mu.Unlock()
}

// Node returns the node with the given id. It panics if id is out of range.
func (g *Graph) Node(id int) Node { return g.nodes[id] }

// Label returns the label of node id.
func (g *Graph) Label(id int) int { return g.nodes[id].Label }

// Edge returns the edge at index i.
func (g *Graph) Edge(i int) Edge { return g.edges[i] }

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// OutEdges returns the indices of edges leaving node id, in insertion order.
// The returned slice must not be modified.
func (g *Graph) OutEdges(id int) []int { return g.nodes[id].out }

// InEdges returns the indices of edges entering node id, in insertion order.
// The returned slice must not be modified.
func (g *Graph) InEdges(id int) []int { return g.nodes[id].in }

// AdjacencyMatrix returns the N×N label matrix, rebuilding it if the graph
// changed since the last call. Cell (i, j) is the label of edge i→j or NoEdge.
// The returned matrix is shared and must not be modified.
func (g *Graph) AdjacencyMatrix() [][]int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.adjStale {
		return g.adj
	}

	n := len(g.nodes)
	cells := make([]int, n*n)
	for i := range cells {
		cells[i] = NoEdge
	}
	adj := make([][]int, n)
	for i := range adj {
		adj[i] = cells[i*n : (i+1)*n : (i+1)*n]
	}
	for _, e := range g.edges {
		adj[e.Source][e.Target] = e.Label
	}

	g.adj = adj
	g.adjStale = false
	return adj
}

// EdgeLabel returns the label of edge from→to, or NoEdge.
func (g *Graph) EdgeLabel(from, to int) int {
	return g.AdjacencyMatrix()[from][to]
}

// Validate checks that node ids are dense and that every edge references
// existing nodes and is registered in its endpoints' adjacency lists.
func (g *Graph) Validate() error {
	for i, n := range g.nodes {
		if n.ID != i {
			return fmt.Errorf("node at index %d has id %d: %w", i, n.ID, ErrNonSequentialNodeID)
		}
	}
	for i, e := range g.edges {
		if !g.has(e.Source) || !g.has(e.Target) {
			return fmt.Errorf("edge %d (%d->%d): %w", i, e.Source, e.Target, ErrInvalidEdgeEndpoint)
		}
		if !slices.Contains(g.nodes[e.Source].out, i) || !slices.Contains(g.nodes[e.Target].in, i) {
			return fmt.Errorf("edge %d not registered at its endpoints: %w", i, ErrInvalidEdgeEndpoint)
		}
	}
	return nil
}
