package vf2

import (
	"fmt"
	"slices"

	"github.com/matzehuels/isomatch/pkg/graph"
)

// unset marks an unmapped core entry or an untagged depth entry.
const unset = -1

// Pair is one entry of a mapping: query node Query maps to target node Target.
type Pair struct {
	Target int `json:"target"`
	Query  int `json:"query"`
}

// State is the search state of a single (target, query) match attempt.
//
// For every node on either side exactly one of these holds: mapped, in the
// in-frontier, in the out-frontier (possibly both frontiers), or in neither.
// The frontier depth arrays record the search depth at which a node was first
// reached from the mapping; the cached sets mirror them for fast iteration.
type State struct {
	target *graph.Graph
	query  *graph.Graph

	core1 []int // target id -> query id
	core2 []int // query id -> target id

	in1, out1 []int // target id -> depth tag
	in2, out2 []int // query id -> depth tag

	t1in, t1out idSet
	t2in, t2out idSet

	unmapped1 idSet
	unmapped2 idSet

	path []Pair // extensions in order, path[d-1] produced depth d

	depth   int
	matched bool
	visits  int
}

// NewState allocates a fresh state for matching query inside target. Nothing
// is mapped and all frontiers are empty.
func NewState(target, query *graph.Graph) *State {
	nt, nq := target.NodeCount(), query.NodeCount()
	s := &State{
		target:    target,
		query:     query,
		core1:     filled(nt),
		core2:     filled(nq),
		in1:       filled(nt),
		out1:      filled(nt),
		in2:       filled(nq),
		out2:      filled(nq),
		t1in:      newIDSet(nt),
		t1out:     newIDSet(nt),
		t2in:      newIDSet(nq),
		t2out:     newIDSet(nq),
		unmapped1: newIDSet(nt),
		unmapped2: newIDSet(nq),
		path:      make([]Pair, 0, nq),
	}
	for i := 0; i < nt; i++ {
		s.unmapped1.add(i)
	}
	for i := 0; i < nq; i++ {
		s.unmapped2.add(i)
	}
	return s
}

func filled(n int) []int {
	a := make([]int, n)
	for i := range a {
		a[i] = unset
	}
	return a
}

// Target returns the target graph.
func (s *State) Target() *graph.Graph { return s.target }

// Query returns the query graph.
func (s *State) Query() *graph.Graph { return s.query }

// Depth returns the number of currently mapped pairs.
func (s *State) Depth() int { return s.depth }

// Matched reports whether the attempt found a complete mapping.
func (s *State) Matched() bool { return s.matched }

// Visits returns the number of search-tree nodes entered so far.
func (s *State) Visits() int { return s.visits }

// Core1 returns the query id mapped to target node t, or -1.
func (s *State) Core1(t int) int { return s.core1[t] }

// Core2 returns the target id mapped to query node q, or -1.
func (s *State) Core2(q int) int { return s.core2[q] }

// Mapping returns a copy of the query→target array.
func (s *State) Mapping() []int { return slices.Clone(s.core2) }

// Pairs returns the mapping as (target, query) pairs in increasing query id.
// Unmapped query nodes carry Target -1.
func (s *State) Pairs() []Pair {
	pairs := make([]Pair, len(s.core2))
	for q, t := range s.core2 {
		pairs[q] = Pair{Target: t, Query: q}
	}
	return pairs
}

// IsMapped1 reports whether target node id has an image in the query.
func (s *State) IsMapped1(id int) bool { return s.core1[id] != unset }
func (s *State) IsMapped2(id int) bool { return s.core2[id] != unset }

// Frontier membership is derived from the core and depth arrays only.

func (s *State) IsInFrontierIn1(id int) bool  { return s.core1[id] == unset && s.in1[id] != unset }
func (s *State) IsInFrontierIn2(id int) bool  { return s.core2[id] == unset && s.in2[id] != unset }
func (s *State) IsInFrontierOut1(id int) bool { return s.core1[id] == unset && s.out1[id] != unset }
func (s *State) IsInFrontierOut2(id int) bool { return s.core2[id] == unset && s.out2[id] != unset }

// IsInNeitherSet1 reports whether target node id is unmapped and in no frontier.
func (s *State) IsInNeitherSet1(id int) bool {
	return s.core1[id] == unset && s.in1[id] == unset && s.out1[id] == unset
}

// IsInNeitherSet2 reports whether query node id is unmapped and in no frontier.
func (s *State) IsInNeitherSet2(id int) bool {
	return s.core2[id] == unset && s.in2[id] == unset && s.out2[id] == unset
}

// ExtendMatch maps query node q to target node t and moves one level down the
// search tree. Unmapped neighbours of t and q that were not yet tagged enter
// the matching frontier at the new depth.
//
// It panics if either id is out of range or already mapped.
func (s *State) ExtendMatch(t, q int) {
	s.mustBeInRange(t, q)
	if s.core1[t] != unset || s.core2[q] != unset {
		panic(fmt.Sprintf("vf2: extend (%d,%d): node already mapped (core1=%d, core2=%d)", t, q, s.core1[t], s.core2[q]))
	}

	s.core1[t] = q
	s.core2[q] = t
	s.unmapped1.remove(t)
	s.unmapped2.remove(q)
	s.t1in.remove(t)
	s.t1out.remove(t)
	s.t2in.remove(q)
	s.t2out.remove(q)

	s.path = append(s.path, Pair{Target: t, Query: q})
	s.depth++

	tagNeighbours(s.target, t, s.depth, s.core1, s.in1, s.out1, &s.t1in, &s.t1out)
	tagNeighbours(s.query, q, s.depth, s.core2, s.in2, s.out2, &s.t2in, &s.t2out)
}

func tagNeighbours(g *graph.Graph, id, depth int, core, in, out []int, tin, tout *idSet) {
	for _, ei := range g.InEdges(id) {
		src := g.Edge(ei).Source
		if in[src] == unset {
			in[src] = depth
			if core[src] == unset {
				tin.add(src)
			}
		}
	}
	for _, ei := range g.OutEdges(id) {
		dst := g.Edge(ei).Target
		if out[dst] == unset {
			out[dst] = depth
			if core[dst] == unset {
				tout.add(dst)
			}
		}
	}
}

// Backtrack undoes the ExtendMatch(t, q) that produced the current depth.
// Tags set at the current depth are cleared, t and q rejoin the frontiers they
// belonged to before the extension, and the depth decreases by one.
//
// It panics if (t, q) is not the most recently extended pair.
func (s *State) Backtrack(t, q int) {
	s.mustBeInRange(t, q)
	if s.core1[t] != q || s.core2[q] != t {
		panic(fmt.Sprintf("vf2: backtrack (%d,%d): pair is not mapped", t, q))
	}
	if last := s.path[len(s.path)-1]; last != (Pair{Target: t, Query: q}) {
		panic(fmt.Sprintf("vf2: backtrack (%d,%d): depth %d was produced by (%d,%d)", t, q, s.depth, last.Target, last.Query))
	}
	s.path = s.path[:len(s.path)-1]

	s.core1[t] = unset
	s.core2[q] = unset
	s.unmapped1.add(t)
	s.unmapped2.add(q)

	untag(s.in1, s.depth, &s.t1in)
	untag(s.out1, s.depth, &s.t1out)
	untag(s.in2, s.depth, &s.t2in)
	untag(s.out2, s.depth, &s.t2out)

	if s.IsInFrontierIn1(t) {
		s.t1in.add(t)
	}
	if s.IsInFrontierOut1(t) {
		s.t1out.add(t)
	}
	if s.IsInFrontierIn2(q) {
		s.t2in.add(q)
	}
	if s.IsInFrontierOut2(q) {
		s.t2out.add(q)
	}

	s.depth--
}

func untag(tags []int, depth int, set *idSet) {
	for id, d := range tags {
		if d == depth {
			tags[id] = unset
			set.remove(id)
		}
	}
}

func (s *State) mustBeInRange(t, q int) {
	if t < 0 || t >= len(s.core1) || q < 0 || q >= len(s.core2) {
		panic(fmt.Sprintf("vf2: pair (%d,%d) out of range (target %d nodes, query %d nodes)", t, q, len(s.core1), len(s.core2)))
	}
}

// candidates returns the target ids to try at the current level together
// with the single query id they are paired with.
func (s *State) candidates() (targets []int, q int) {
	switch {
	case s.t1out.len() > 0 && s.t2out.len() > 0:
		return s.t1out.appendTo(make([]int, 0, s.t1out.len())), s.t2out.max()
	case s.t1in.len() > 0 && s.t2in.len() > 0:
		return s.t1in.appendTo(make([]int, 0, s.t1in.len())), s.t2in.max()
	default:
		return s.unmapped1.appendTo(make([]int, 0, s.unmapped1.len())), s.unmapped2.max()
	}
}
