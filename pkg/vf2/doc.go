// Package vf2 finds occurrences of a small query graph inside larger target
// graphs using the VF2 subgraph isomorphism algorithm.
//
// # Overview
//
// A match attempt pairs one target graph with one query graph. The attempt
// owns a [State]: the partial bijection between target and query node ids,
// plus the in/out frontier bookkeeping VF2 uses to prune the search. The
// engine extends the state one node pair per search-tree level and backtracks
// when a branch cannot be completed. Depth equals the number of mapped pairs;
// reaching the query's node count means every query node has an image.
//
// # Basic Usage
//
//	st := vf2.MatchGraphPair(target, query)
//	if st.Matched() {
//	    for _, p := range st.Pairs() {
//	        fmt.Printf("(%d-%d) ", p.Target, p.Query)
//	    }
//	}
//
// Use [MatchGraphSetWithQuery] to check one query against a graph database;
// it returns only the matched states.
//
// # Search Order
//
// Candidates are drawn from the out-frontiers when both are non-empty, else
// from the in-frontiers, else from all unmapped nodes. Within the chosen tier
// one query node is fixed (the largest id) and paired with every target node
// of the tier in ascending id order. Every query node must be mapped
// eventually, so fixing one per level loses no solutions.
//
// # Feasibility
//
// A candidate pair is extended only if it passes, in order:
//
//  1. Label rule: equal node labels.
//  2. Predecessor/successor rule: edges to already-mapped nodes agree in
//     both graphs, labels included.
//  3. In/out rule: the candidate target node has at least as many
//     neighbours in each frontier as the query node.
//  4. New rule: the same comparison over neighbours touched by nothing yet.
//
// # Lookahead Modes
//
// [LookaheadSymmetric] (the default) counts predecessors and successors
// separately in rules 3 and 4. [LookaheadLegacy] reproduces an older
// implementation whose query-side successor counts were folded into the
// predecessor counter and whose out-rule counters continued from the in-rule.
// Legacy mode prunes harder and can miss valid embeddings; use it only to
// reproduce reference output.
//
// # Budgets
//
// Worst-case search is exponential in the query size. A [Matcher] accepts a
// visit budget ([WithMaxVisits]) and honours context cancellation; an
// attempt stopped either way returns an error and a state with Matched false.
//
// # Concurrency
//
// A State must not be shared. Graphs are read-only during matching, so
// attempts against the same graphs may run in parallel goroutines.
package vf2
