package domain

// MemberID is the stable arena key of a member.
type MemberID int

// Member is a read-only view of a node: its identity, age, boss link and
// subordinate set in insertion order. Values returned by the roster and the
// organization are copies; mutating them does not change the hierarchy.
type Member struct {
	ID           MemberID   `json:"id"`
	Age          int        `json:"age"`
	Boss         *MemberID  `json:"boss,omitempty"`
	Subordinates []MemberID `json:"subordinates,omitempty"`
}

// NewMember returns a bossless member with no subordinates.
func NewMember(id MemberID, age int) Member {
	return Member{ID: id, Age: age}
}

// ReportingTo returns a copy of m whose boss is set to boss.
func (m Member) ReportingTo(boss MemberID) Member {
	m.Boss = &boss
	return m
}

// BossID returns the boss id and whether the member has a boss.
func (m Member) BossID() (MemberID, bool) {
	if m.Boss == nil {
		return 0, false
	}
	return *m.Boss, true
}

// HasSubordinate reports whether id is listed among m's subordinates.
func (m Member) HasSubordinate(id MemberID) bool {
	for _, s := range m.Subordinates {
		if s == id {
			return true
		}
	}
	return false
}

func cloneMember(m Member) Member {
	cp := m
	if m.Boss != nil {
		b := *m.Boss
		cp.Boss = &b
	}
	cp.Subordinates = append([]MemberID(nil), m.Subordinates...)
	return cp
}
