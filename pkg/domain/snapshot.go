package domain

import "fmt"

// Snapshot is the serialisable form of an Organization. Nodes keep their
// recorded edges verbatim, including subordinate entries left behind by
// succession, so a restored organization recovers exactly like the original.
type Snapshot struct {
	Godfather MemberID   `json:"godfather"`
	Members   []MemberID `json:"members"`
	Prison    []MemberID `json:"prison"`
	Nodes     []Member   `json:"nodes"`
}

// Empty reports whether the snapshot carries no organization.
func (s Snapshot) Empty() bool { return len(s.Nodes) == 0 }

// Snapshot captures o. A nil organization yields an empty snapshot.
func (o *Organization) Snapshot() Snapshot {
	if o == nil {
		return Snapshot{}
	}
	return Snapshot{
		Godfather: o.godfather,
		Members:   o.members.ids(),
		Prison:    o.prison.ids(),
		Nodes:     o.roster.members(),
	}
}

// RestoreOrganization rebuilds an organization from a snapshot. An empty
// snapshot restores to nil.
func RestoreOrganization(s Snapshot) (*Organization, error) {
	if s.Empty() {
		return nil, nil
	}
	roster := NewRoster()
	for _, n := range s.Nodes {
		if roster.Has(n.ID) {
			return nil, fmt.Errorf("restore node %d: %w", n.ID, ErrDuplicateMember)
		}
		roster.restore(cloneMember(n))
	}
	for _, n := range s.Nodes {
		if n.Boss != nil && !roster.Has(*n.Boss) {
			return nil, fmt.Errorf("restore node %d boss %d: %w", n.ID, *n.Boss, ErrUnknownMember)
		}
		for _, sub := range n.Subordinates {
			if !roster.Has(sub) {
				return nil, fmt.Errorf("restore node %d subordinate %d: %w", n.ID, sub, ErrUnknownMember)
			}
		}
	}
	o := &Organization{
		roster:    roster,
		godfather: s.Godfather,
		members:   newIDSet(),
		prison:    newIDSet(),
	}
	for _, id := range s.Members {
		if !roster.Has(id) {
			return nil, fmt.Errorf("restore member %d: %w", id, ErrUnknownMember)
		}
		o.members.add(id)
	}
	for _, id := range s.Prison {
		if !roster.Has(id) {
			return nil, fmt.Errorf("restore prisoner %d: %w", id, ErrUnknownMember)
		}
		if o.members.has(id) {
			return nil, fmt.Errorf("restore prisoner %d: %w", id, ErrDuplicateMember)
		}
		o.prison.add(id)
	}
	if !roster.Has(s.Godfather) {
		return nil, fmt.Errorf("restore godfather %d: %w", s.Godfather, ErrUnknownMember)
	}
	return o, nil
}
