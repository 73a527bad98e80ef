// Package graph provides the labeled directed multigraph matched by the
// subgraph isomorphism engine in [vf2].
//
// # Overview
//
// A [Graph] is built once by a loader and then read concurrently by any number
// of match attempts. Nodes are identified by dense integer ids (0..N-1) which
// double as slice indices, both here and in the search state of the matcher.
// Node labels are arbitrary integers; edge labels are non-negative, since
// [NoEdge] (-1) marks a missing edge in the adjacency matrix.
//
// # Basic Usage
//
// Create a graph with [New], add nodes in id order with [Graph.AddNode] and
// edges between existing nodes with [Graph.AddEdge]:
//
//	g := graph.New("Graph 0")
//	_ = g.AddNode(0, 1)
//	_ = g.AddNode(1, 2)
//	_ = g.AddEdge(0, 1, 5)
//
// # Ownership
//
// The Graph owns all node and edge storage. A node refers to its incident
// edges by edge index and an edge refers to its endpoints by node id, so there
// are no pointers between the parts of a graph and nothing to keep in sync
// beyond the three appends performed by AddEdge.
//
// # Adjacency Matrix
//
// [Graph.AdjacencyMatrix] returns an N×N matrix where cell (i, j) holds the
// label of the edge i→j, or [NoEdge] when there is none. The matrix is cached
// and rebuilt lazily after any mutation. Parallel edges between the same
// ordered pair collapse to the label of the last one added.
//
// # Concurrency
//
// Graphs are not safe for concurrent mutation. Once built, a Graph may be read
// from many goroutines; the lazy matrix rebuild is guarded internally.
//
// [vf2]: github.com/matzehuels/isomatch/pkg/vf2
package graph
