package domain

// Organization owns the godfather reference and the active/imprisoned
// registries over a Roster. It decides which edges change during succession
// and recovery; the Roster applies them.
//
// An Organization is not safe for concurrent use.
type Organization struct {
	roster    *Roster
	godfather MemberID
	members   idSet
	prison    idSet
}

// NewOrganization registers godfather as the sole active member.
func NewOrganization(godfather Member) (*Organization, error) {
	if godfather.Boss != nil {
		return nil, memberErr(OpFound, godfather.ID, ErrNotAMember)
	}
	roster := NewRoster()
	if err := roster.Register(godfather.ID, godfather.Age); err != nil {
		return nil, memberErr(OpFound, godfather.ID, err)
	}
	o := &Organization{
		roster:    roster,
		godfather: godfather.ID,
		members:   newIDSet(),
		prison:    newIDSet(),
	}
	o.members.add(godfather.ID)
	return o, nil
}

// AddMember registers m as an active member. When m.Boss is set the boss must
// be active and m is listed under it. Subordinates carried by m are ignored;
// edges are always created from the subordinate side.
func (o *Organization) AddMember(m Member) (Member, error) {
	if o.members.has(m.ID) || o.prison.has(m.ID) {
		return Member{}, memberErr(OpRecruit, m.ID, ErrDuplicateMember)
	}
	if m.Boss != nil {
		if *m.Boss == m.ID {
			return Member{}, memberErr(OpRecruit, m.ID, ErrSelfReference)
		}
		if !o.members.has(*m.Boss) {
			return Member{}, memberErr(OpRecruit, *m.Boss, ErrNotAMember)
		}
	}
	if err := o.roster.Register(m.ID, m.Age); err != nil {
		return Member{}, memberErr(OpRecruit, m.ID, err)
	}
	if err := o.roster.SetBoss(m.ID, m.Boss); err != nil {
		return Member{}, memberErr(OpRecruit, m.ID, err)
	}
	o.members.add(m.ID)
	added, _ := o.roster.Member(m.ID)
	return added, nil
}

// Member returns the active member registered under id.
func (o *Organization) Member(id MemberID) (Member, bool) {
	if !o.members.has(id) {
		return Member{}, false
	}
	return o.roster.Member(id)
}

// Prisoner returns the imprisoned member registered under id.
func (o *Organization) Prisoner(id MemberID) (Member, bool) {
	if !o.prison.has(id) {
		return Member{}, false
	}
	return o.roster.Member(id)
}

// Lookup resolves any registered member, active or imprisoned.
func (o *Organization) Lookup(id MemberID) (Member, bool) {
	return o.roster.Member(id)
}

// IsActive reports whether id is in the active registry.
func (o *Organization) IsActive(id MemberID) bool { return o.members.has(id) }

// IsImprisoned reports whether id is in prison.
func (o *Organization) IsImprisoned(id MemberID) bool { return o.prison.has(id) }

// Godfather returns the current root member.
func (o *Organization) Godfather() Member {
	m, _ := o.roster.Member(o.godfather)
	return m
}

// Members returns the active members in registry order.
func (o *Organization) Members() []Member {
	return o.view(o.members)
}

// Prisoners returns the imprisoned members in the order they were sent to prison.
func (o *Organization) Prisoners() []Member {
	return o.view(o.prison)
}

func (o *Organization) view(set idSet) []Member {
	out := make([]Member, 0, set.len())
	for _, id := range set.order {
		if m, ok := o.roster.Member(id); ok {
			out = append(out, m)
		}
	}
	return out
}

// Clone returns a deep copy whose mutations do not affect o.
func (o *Organization) Clone() *Organization {
	return &Organization{
		roster:    o.roster.clone(),
		godfather: o.godfather,
		members:   o.members.clone(),
		prison:    o.prison.clone(),
	}
}
