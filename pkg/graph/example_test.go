package graph_test

import (
	"fmt"

	"github.com/matzehuels/isomatch/pkg/graph"
)

func ExampleGraph_basic() {
	// a(1) -5-> b(2) -5-> c(1)
	g := graph.New("Graph 0")
	_ = g.AddNode(0, 1)
	_ = g.AddNode(1, 2)
	_ = g.AddNode(2, 1)
	_ = g.AddEdge(0, 1, 5)
	_ = g.AddEdge(1, 2, 5)

	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Label 0->1:", g.EdgeLabel(0, 1))
	fmt.Println("Label 1->0:", g.EdgeLabel(1, 0))
	// Output:
	// Nodes: 3
	// Edges: 2
	// Label 0->1: 5
	// Label 1->0: -1
}

func ExampleGraph_AdjacencyMatrix() {
	g := graph.New("pair")
	_ = g.AddNode(0, 7)
	_ = g.AddNode(1, 7)
	_ = g.AddEdge(1, 0, 2)

	for _, row := range g.AdjacencyMatrix() {
		fmt.Println(row)
	}
	// Output:
	// [-1 -1]
	// [2 -1]
}
