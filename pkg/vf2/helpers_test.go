package vf2

import (
	"testing"

	"github.com/matzehuels/isomatch/pkg/graph"
)

// mustGraph builds a graph from node labels and (source, target, label)
// triples.
func mustGraph(tb testing.TB, name string, labels []int, edges [][3]int) *graph.Graph {
	tb.Helper()
	g := graph.New(name)
	for id, label := range labels {
		if err := g.AddNode(id, label); err != nil {
			tb.Fatalf("%s: AddNode(%d, %d): %v", name, id, label, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(e[0], e[1], e[2]); err != nil {
			tb.Fatalf("%s: AddEdge(%v): %v", name, e, err)
		}
	}
	return g
}

// scenarioGraphs returns the 3-node path target and its 2-node prefix query.
func scenarioGraphs(tb testing.TB, targetEdgeLabel int) (target, query *graph.Graph) {
	tb.Helper()
	target = mustGraph(tb, "Graph 0", []int{1, 2, 1}, [][3]int{
		{0, 1, targetEdgeLabel},
		{1, 2, targetEdgeLabel},
	})
	query = mustGraph(tb, "Query 0", []int{1, 2}, [][3]int{{0, 1, 5}})
	return target, query
}

// checkInvariants verifies the bijection, the depth counter, and that every
// cached set agrees with the predicate derived from the arrays.
func checkInvariants(tb testing.TB, s *State) {
	tb.Helper()
	mapped := 0
	for t, q := range s.core1 {
		if q == unset {
			continue
		}
		mapped++
		if s.core2[q] != t {
			tb.Fatalf("core1[%d]=%d but core2[%d]=%d", t, q, q, s.core2[q])
		}
	}
	for q, t := range s.core2 {
		if t != unset && s.core1[t] != q {
			tb.Fatalf("core2[%d]=%d but core1[%d]=%d", q, t, t, s.core1[t])
		}
	}
	if mapped != s.depth {
		tb.Fatalf("depth = %d, mapped pairs = %d", s.depth, mapped)
	}

	checkSide := func(side string, n int, unmapped, tin, tout *idSet, mappedFn, inFn, outFn, neitherFn func(int) bool) {
		tb.Helper()
		count := [3]int{}
		for id := 0; id < n; id++ {
			if unmapped.has(id) == mappedFn(id) {
				tb.Fatalf("%s: node %d unmapped-set=%v mapped=%v", side, id, unmapped.has(id), mappedFn(id))
			}
			if tin.has(id) != inFn(id) {
				tb.Fatalf("%s: node %d in-set=%v in-frontier=%v", side, id, tin.has(id), inFn(id))
			}
			if tout.has(id) != outFn(id) {
				tb.Fatalf("%s: node %d out-set=%v out-frontier=%v", side, id, tout.has(id), outFn(id))
			}
			if neitherFn(id) && (mappedFn(id) || inFn(id) || outFn(id)) {
				tb.Fatalf("%s: node %d is in neither set but also classified elsewhere", side, id)
			}
			if !neitherFn(id) && !mappedFn(id) && !inFn(id) && !outFn(id) {
				tb.Fatalf("%s: node %d has no category", side, id)
			}
			if unmapped.has(id) {
				count[0]++
			}
			if tin.has(id) {
				count[1]++
			}
			if tout.has(id) {
				count[2]++
			}
		}
		if count != [3]int{unmapped.len(), tin.len(), tout.len()} {
			tb.Fatalf("%s: set sizes %v, members %v", side, [3]int{unmapped.len(), tin.len(), tout.len()}, count)
		}
	}
	checkSide("target", len(s.core1), &s.unmapped1, &s.t1in, &s.t1out, s.IsMapped1, s.IsInFrontierIn1, s.IsInFrontierOut1, s.IsInNeitherSet1)
	checkSide("query", len(s.core2), &s.unmapped2, &s.t2in, &s.t2out, s.IsMapped2, s.IsInFrontierIn2, s.IsInFrontierOut2, s.IsInNeitherSet2)
}

// isEmbedding reports whether mapping (query id -> target id) is an injective,
// label-preserving map under which every ordered pair of distinct query nodes
// has the same adjacency label as its image. A query self-loop must appear on
// its image; a target self-loop alone is allowed.
func isEmbedding(target, query *graph.Graph, mapping []int) bool {
	if len(mapping) != query.NodeCount() {
		return false
	}
	used := make(map[int]bool, len(mapping))
	for q, t := range mapping {
		if t < 0 || t >= target.NodeCount() || used[t] {
			return false
		}
		used[t] = true
		if target.Label(t) != query.Label(q) {
			return false
		}
	}
	tadj, qadj := target.AdjacencyMatrix(), query.AdjacencyMatrix()
	for a := range mapping {
		for b := range mapping {
			ql, tl := qadj[a][b], tadj[mapping[a]][mapping[b]]
			if a == b && ql == graph.NoEdge {
				continue
			}
			if ql != tl {
				return false
			}
		}
	}
	return true
}

func hasSelfLoop(g *graph.Graph) bool {
	for _, e := range g.Edges() {
		if e.Source == e.Target {
			return true
		}
	}
	return false
}

// bruteForceCount counts embeddings by trying every injective assignment.
func bruteForceCount(target, query *graph.Graph) int {
	nq, nt := query.NodeCount(), target.NodeCount()
	mapping := make([]int, nq)
	used := make([]bool, nt)
	count := 0
	var assign func(q int)
	assign = func(q int) {
		if q == nq {
			if isEmbedding(target, query, mapping) {
				count++
			}
			return
		}
		for t := 0; t < nt; t++ {
			if used[t] {
				continue
			}
			used[t] = true
			mapping[q] = t
			assign(q + 1)
			used[t] = false
		}
	}
	assign(0)
	return count
}
