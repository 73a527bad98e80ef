package vf2

import (
	"context"
	"fmt"
)

// ctxCheckInterval is how many visits pass between context checks.
const ctxCheckInterval = 256

// search drives one State through the search tree.
type search struct {
	ctx       context.Context
	st        *State
	mode      Lookahead
	maxVisits int

	// onMatch receives every complete mapping when enumerating and reports
	// whether to stop. Nil means first-match: stop at the first one.
	onMatch func(*State) bool
}

func (s *search) visit() error {
	s.st.visits++
	if s.maxVisits > 0 && s.st.visits > s.maxVisits {
		return fmt.Errorf("%w: %d visits", ErrBudgetExceeded, s.maxVisits)
	}
	if s.st.visits%ctxCheckInterval == 1 {
		if err := s.ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (s *search) complete() (stop bool) {
	if s.onMatch == nil {
		s.st.matched = true
		return true
	}
	return s.onMatch(s.st)
}

// recurse explores the subtree below the current state. The state is left
// as-is when stopping so a first match keeps its mapping.
func (s *search) recurse() (stop bool, err error) {
	if err := s.visit(); err != nil {
		return true, err
	}
	st := s.st
	if st.depth == st.query.NodeCount() {
		return s.complete(), nil
	}

	targets, q := st.candidates()
	for _, t := range targets {
		if !st.feasible(t, q, s.mode) {
			continue
		}
		st.ExtendMatch(t, q)
		if stop, err := s.recurse(); stop || err != nil {
			return true, err
		}
		st.Backtrack(t, q)
	}
	return false, nil
}

// frame is one level of the explicit stack used by iterate.
type frame struct {
	targets []int
	q       int
	next    int // index of the next candidate in targets
	cur     int // target extended from this frame, or unset
}

// iterate is recurse with an explicit stack. It visits the same nodes in the
// same order.
func (s *search) iterate() error {
	st := s.st
	n := st.query.NodeCount()
	stack := make([]frame, 0, n+1)

	enter := func() (stop bool, err error) {
		if err := s.visit(); err != nil {
			return true, err
		}
		if st.depth == n {
			return s.complete(), nil
		}
		targets, q := st.candidates()
		stack = append(stack, frame{targets: targets, q: q, cur: unset})
		return false, nil
	}

	if stop, err := enter(); stop || err != nil {
		return err
	}
	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		if f.cur != unset {
			st.Backtrack(f.cur, f.q)
			f.cur = unset
		}

		extended := false
		for f.next < len(f.targets) {
			t := f.targets[f.next]
			f.next++
			if st.feasible(t, f.q, s.mode) {
				st.ExtendMatch(t, f.q)
				f.cur = t
				extended = true
				break
			}
		}
		if !extended {
			stack = stack[:len(stack)-1]
			continue
		}
		if stop, err := enter(); stop || err != nil {
			return err
		}
	}
	return nil
}
