package vf2

import (
	"fmt"
	"strings"

	"github.com/matzehuels/isomatch/pkg/graph"
)

// Lookahead selects how the in/out and new rules count neighbours.
type Lookahead int

const (
	// LookaheadSymmetric compares predecessor and successor counts separately.
	LookaheadSymmetric Lookahead = iota
	// LookaheadLegacy folds query successors into the predecessor count and
	// carries the in-rule counters into the out-rule. Kept to reproduce
	// reference output; it can reject valid embeddings.
	LookaheadLegacy
)

// String returns the lookahead name used in configuration files and flags.
func (l Lookahead) String() string {
	switch l {
	case LookaheadSymmetric:
		return "symmetric"
	case LookaheadLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("lookahead(%d)", int(l))
	}
}

// ParseLookahead parses "symmetric" or "legacy" (case-insensitive). The empty
// string selects LookaheadSymmetric.
func ParseLookahead(s string) (Lookahead, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "symmetric":
		return LookaheadSymmetric, nil
	case "legacy":
		return LookaheadLegacy, nil
	default:
		return 0, fmt.Errorf("unknown lookahead %q (must be symmetric or legacy)", s)
	}
}

// feasible reports whether (t, q) may extend the state. Rules run cheapest
// first and stop at the first failure.
func (s *State) feasible(t, q int, mode Lookahead) bool {
	if s.target.Label(t) != s.query.Label(q) {
		return false
	}
	if !s.consistent(t, q) {
		return false
	}
	if mode == LookaheadLegacy {
		// Legacy counting has no self-loop rule.
		return s.legacyInOut(t, q) && s.legacyNew(t, q)
	}
	return s.loopKept(t, q) && s.inOut(t, q) && s.newNodes(t, q)
}

// consistent implements the predecessor and successor rules: every edge
// between the candidate and an already-mapped node must exist with the same
// label on the other side, checked from both graphs.
func (s *State) consistent(t, q int) bool {
	tg, qg := s.target, s.query
	tadj, qadj := tg.AdjacencyMatrix(), qg.AdjacencyMatrix()

	for _, ei := range tg.InEdges(t) {
		e := tg.Edge(ei)
		if mq := s.core1[e.Source]; mq != unset && qadj[mq][q] != e.Label {
			return false
		}
	}
	for _, ei := range qg.InEdges(q) {
		e := qg.Edge(ei)
		if mt := s.core2[e.Source]; mt != unset && tadj[mt][t] != e.Label {
			return false
		}
	}
	for _, ei := range tg.OutEdges(t) {
		e := tg.Edge(ei)
		if mq := s.core1[e.Target]; mq != unset && qadj[q][mq] != e.Label {
			return false
		}
	}
	for _, ei := range qg.OutEdges(q) {
		e := qg.Edge(ei)
		if mt := s.core2[e.Target]; mt != unset && tadj[t][mt] != e.Label {
			return false
		}
	}
	return true
}

// loopKept requires a query self-loop on q to exist on t with the same label.
// A loop only on t is an extra target edge and is allowed.
func (s *State) loopKept(t, q int) bool {
	ql := s.query.AdjacencyMatrix()[q][q]
	return ql == graph.NoEdge || s.target.AdjacencyMatrix()[t][t] == ql
}

// countNeighbours counts predecessors and successors of id for which in holds.
// Parallel edges count once per edge.
func countNeighbours(g *graph.Graph, id int, in func(int) bool) (pred, succ int) {
	for _, ei := range g.InEdges(id) {
		if in(g.Edge(ei).Source) {
			pred++
		}
	}
	for _, ei := range g.OutEdges(id) {
		if in(g.Edge(ei).Target) {
			succ++
		}
	}
	return pred, succ
}

// inOut is the 1-look-ahead rule.
func (s *State) inOut(t, q int) bool {
	tp, ts := countNeighbours(s.target, t, s.IsInFrontierIn1)
	qp, qs := countNeighbours(s.query, q, s.IsInFrontierIn2)
	if tp < qp || ts < qs {
		return false
	}
	tp, ts = countNeighbours(s.target, t, s.IsInFrontierOut1)
	qp, qs = countNeighbours(s.query, q, s.IsInFrontierOut2)
	return tp >= qp && ts >= qs
}

// newNodes is the 2-look-ahead rule over nodes touched by nothing yet.
func (s *State) newNodes(t, q int) bool {
	tp, ts := countNeighbours(s.target, t, s.IsInNeitherSet1)
	qp, qs := countNeighbours(s.query, q, s.IsInNeitherSet2)
	return tp >= qp && ts >= qs
}

// legacyInOut mirrors inOut with the reference counting: query successors
// land in the predecessor counter, target successors are never compared, and
// the out-rule adds onto the in-rule totals.
func (s *State) legacyInOut(t, q int) bool {
	tp, _ := countNeighbours(s.target, t, s.IsInFrontierIn1)
	qp, qs := countNeighbours(s.query, q, s.IsInFrontierIn2)
	qp += qs
	if tp < qp {
		return false
	}
	dtp, _ := countNeighbours(s.target, t, s.IsInFrontierOut1)
	dqp, dqs := countNeighbours(s.query, q, s.IsInFrontierOut2)
	return tp+dtp >= qp+dqp+dqs
}

// legacyNew mirrors newNodes with the reference counting.
func (s *State) legacyNew(t, q int) bool {
	tp, _ := countNeighbours(s.target, t, s.IsInNeitherSet1)
	qp, qs := countNeighbours(s.query, q, s.IsInNeitherSet2)
	return tp >= qp+qs
}
