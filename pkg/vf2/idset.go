package vf2

// idSet is a set of dense node ids backed by a membership slice. Iteration is
// in ascending id order, which keeps candidate generation deterministic.
type idSet struct {
	member []bool
	n      int
}

func newIDSet(size int) idSet {
	return idSet{member: make([]bool, size)}
}

func (s *idSet) add(id int) {
	if !s.member[id] {
		s.member[id] = true
		s.n++
	}
}

func (s *idSet) remove(id int) {
	if s.member[id] {
		s.member[id] = false
		s.n--
	}
}

func (s *idSet) has(id int) bool { return s.member[id] }

func (s *idSet) len() int { return s.n }

// max returns the largest member, or -1 when empty.
func (s *idSet) max() int {
	if s.n == 0 {
		return -1
	}
	for id := len(s.member) - 1; id >= 0; id-- {
		if s.member[id] {
			return id
		}
	}
	return -1
}

// appendTo appends the members to dst in ascending order.
func (s *idSet) appendTo(dst []int) []int {
	if s.n == 0 {
		return dst
	}
	for id, ok := range s.member {
		if ok {
			dst = append(dst, id)
		}
	}
	return dst
}
