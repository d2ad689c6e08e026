package domain

// SendToPrison moves an active member to prison and restructures the tree
// around the gap.
//
// Succession first looks for the oldest active peer under the member's boss
// and hands it every direct subordinate of the member. Without a peer, the
// oldest active subordinate is promoted into the member's place (becoming
// godfather when the member was the root) and takes over its siblings.
//
// When neither exists the member stays in prison and ErrNoSuccessorAvailable
// is returned; its subordinates keep pointing at it.
func (o *Organization) SendToPrison(id MemberID) error {
	if !o.members.has(id) {
		return memberErr(OpImprison, id, ErrNotAMember)
	}
	boss, hasBoss := o.roster.Boss(id)
	o.members.remove(id)
	o.prison.add(id)

	found, err := o.succeed(id, boss, hasBoss)
	if err != nil {
		return memberErr(OpImprison, id, err)
	}
	if !found {
		return memberErr(OpImprison, id, ErrNoSuccessorAvailable)
	}
	return nil
}

func (o *Organization) succeed(id, boss MemberID, hasBoss bool) (bool, error) {
	if hasBoss {
		if peer, ok := o.oldestActive(o.roster.Subordinates(boss), id); ok {
			return true, o.reassign(o.roster.Subordinates(id), peer)
		}
	}

	heir, ok := o.oldestActive(o.roster.Subordinates(id), id)
	if !ok {
		return false, nil
	}
	var newBoss *MemberID
	if hasBoss {
		newBoss = &boss
	} else {
		o.godfather = heir
	}
	if err := o.roster.SetBoss(heir, newBoss); err != nil {
		return false, err
	}
	return true, o.reassign(o.roster.Subordinates(id), heir)
}

// oldestActive returns the first active candidate with the strictly greatest
// age, skipping exclude. Ties keep the earliest candidate.
func (o *Organization) oldestActive(candidates []MemberID, exclude MemberID) (MemberID, bool) {
	var (
		oldest MemberID
		age    int
		found  bool
	)
	for _, c := range candidates {
		if c == exclude || !o.members.has(c) {
			continue
		}
		if a := o.roster.age(c); !found || a > age {
			oldest, age, found = c, a, true
		}
	}
	return oldest, found
}

func (o *Organization) reassign(subordinates []MemberID, newBoss MemberID) error {
	for _, s := range subordinates {
		if s == newBoss {
			continue
		}
		if err := o.roster.SetBoss(s, &newBoss); err != nil {
			return err
		}
	}
	return nil
}

// ReleaseFromPrison returns an imprisoned member to active duty and pulls
// back every subordinate it still lists, detaching each from whoever took it
// over. Subordinates that were recorded under the member and later listed
// under one of their former peers are dropped from that peer.
func (o *Organization) ReleaseFromPrison(id MemberID) error {
	if !o.prison.has(id) {
		return memberErr(OpRelease, id, ErrNotImprisoned)
	}
	o.prison.remove(id)
	o.members.add(id)

	recorded := o.roster.Subordinates(id)
	former := make(map[MemberID]struct{}, len(recorded))
	for _, s := range recorded {
		former[s] = struct{}{}
	}
	for _, s := range recorded {
		if current, ok := o.roster.Boss(s); ok {
			o.roster.RemoveSubordinate(current, s)
		}
		if err := o.roster.SetBoss(s, &id); err != nil {
			return memberErr(OpRelease, id, err)
		}
		for _, s2 := range o.roster.Subordinates(s) {
			if _, ok := former[s2]; ok {
				o.roster.RemoveSubordinate(s, s2)
			}
		}
	}
	o.reroot()
	return nil
}

// reroot moves the godfather reference to the top of the tree when recovery
// placed the current godfather under a returning member.
func (o *Organization) reroot() {
	if _, ok := o.roster.Boss(o.godfather); !ok {
		return
	}
	cur := o.godfather
	for hops := 0; hops <= o.roster.Len(); hops++ {
		b, ok := o.roster.Boss(cur)
		if !ok {
			if o.members.has(cur) {
				o.godfather = cur
			}
			return
		}
		cur = b
	}
}
