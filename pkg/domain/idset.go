package domain

// idSet is an insertion-ordered set of member ids. Iteration order is the
// order of first insertion; removing and re-adding an id moves it to the end.
type idSet struct {
	order []MemberID
	index map[MemberID]struct{}
}

func newIDSet() idSet {
	return idSet{index: make(map[MemberID]struct{})}
}

func (s *idSet) add(id MemberID) bool {
	if s.index == nil {
		s.index = make(map[MemberID]struct{})
	}
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

func (s *idSet) remove(id MemberID) bool {
	if _, ok := s.index[id]; !ok {
		return false
	}
	delete(s.index, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s idSet) has(id MemberID) bool {
	_, ok := s.index[id]
	return ok
}

func (s idSet) len() int { return len(s.order) }

// ids returns a copy so callers may mutate the set while iterating.
func (s idSet) ids() []MemberID {
	if len(s.order) == 0 {
		return nil
	}
	return append([]MemberID(nil), s.order...)
}

func (s idSet) clone() idSet {
	cp := idSet{
		order: append([]MemberID(nil), s.order...),
		index: make(map[MemberID]struct{}, len(s.index)),
	}
	for id := range s.index {
		cp.index[id] = struct{}{}
	}
	return cp
}
