package domain

// FindBigBosses returns, in registry order, every active member whose
// transitive subordinate count is strictly greater than minimumSubordinates.
func (o *Organization) FindBigBosses(minimumSubordinates int) ([]Member, error) {
	totals := make(map[MemberID]int, o.roster.Len())
	var out []Member
	for _, id := range o.members.ids() {
		total, err := o.subtreeTotal(id, totals)
		if err != nil {
			return nil, memberErr(OpBigBosses, id, err)
		}
		if total > minimumSubordinates {
			m, _ := o.roster.Member(id)
			out = append(out, m)
		}
	}
	return out, nil
}

// SubordinateCount returns the transitive subordinate count of any registered member.
func (o *Organization) SubordinateCount(id MemberID) (int, error) {
	if !o.roster.Has(id) {
		return 0, memberErr(OpBigBosses, id, ErrUnknownMember)
	}
	total, err := o.subtreeTotal(id, make(map[MemberID]int))
	if err != nil {
		return 0, memberErr(OpBigBosses, id, err)
	}
	return total, nil
}

// subtreeTotal counts, for root, the sum over its subordinates of one plus
// their own totals. Every subordinate edge is counted, so a member listed
// under two bosses contributes to both. Totals are memoised across calls
// sharing memo; a member reached again while still on the walk path is a cycle.
func (o *Organization) subtreeTotal(root MemberID, memo map[MemberID]int) (int, error) {
	if t, ok := memo[root]; ok {
		return t, nil
	}
	type frame struct {
		id       MemberID
		expanded bool
	}
	stack := []frame{{id: root}}
	onPath := make(map[MemberID]bool)
	for len(stack) > 0 {
		i := len(stack) - 1
		f := stack[i]
		if f.expanded {
			stack = stack[:i]
			total := 0
			for _, s := range o.roster.Subordinates(f.id) {
				total += 1 + memo[s]
			}
			memo[f.id] = total
			delete(onPath, f.id)
			continue
		}
		if _, done := memo[f.id]; done {
			stack = stack[:i]
			continue
		}
		if onPath[f.id] {
			return 0, ErrHierarchyCycle
		}
		stack[i].expanded = true
		onPath[f.id] = true
		for _, s := range o.roster.Subordinates(f.id) {
			if onPath[s] {
				return 0, ErrHierarchyCycle
			}
			if _, done := memo[s]; !done {
				stack = append(stack, frame{id: s})
			}
		}
	}
	return memo[root], nil
}

// CompareMembers returns the higher ranking of a and b, the one fewer boss
// hops from the root. Members sharing a direct boss, or both bossless, and
// members at equal depth are not comparable and yield ok == false.
func (o *Organization) CompareMembers(a, b MemberID) (higher Member, ok bool, err error) {
	ma, found := o.roster.Member(a)
	if !found {
		return Member{}, false, memberErr(OpCompare, a, ErrUnknownMember)
	}
	mb, found := o.roster.Member(b)
	if !found {
		return Member{}, false, memberErr(OpCompare, b, ErrUnknownMember)
	}
	bossA, hasA := ma.BossID()
	bossB, hasB := mb.BossID()
	if hasA == hasB && bossA == bossB {
		return Member{}, false, nil
	}

	depthA, err := o.Depth(a)
	if err != nil {
		return Member{}, false, err
	}
	depthB, err := o.Depth(b)
	if err != nil {
		return Member{}, false, err
	}
	switch {
	case depthA == depthB:
		return Member{}, false, nil
	case depthA < depthB:
		return ma, true, nil
	default:
		return mb, true, nil
	}
}

// Depth counts boss hops from id to the top of its chain.
func (o *Organization) Depth(id MemberID) (int, error) {
	if !o.roster.Has(id) {
		return 0, memberErr(OpCompare, id, ErrUnknownMember)
	}
	depth := 0
	cur := id
	for {
		b, ok := o.roster.Boss(cur)
		if !ok {
			return depth, nil
		}
		depth++
		if depth > o.roster.Len() {
			return 0, memberErr(OpCompare, id, ErrHierarchyCycle)
		}
		cur = b
	}
}
