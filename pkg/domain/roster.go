package domain

// node is the arena record behind a Member. Only Roster methods touch its edges.
type node struct {
	id           MemberID
	age          int
	boss         MemberID
	hasBoss      bool
	subordinates idSet
}

// Roster is the member arena. It owns every registered node, active or
// imprisoned, and is the only place boss/subordinate edges are rewritten.
type Roster struct {
	nodes map[MemberID]*node
	order []MemberID
}

// NewRoster returns an empty arena.
func NewRoster() *Roster {
	return &Roster{nodes: make(map[MemberID]*node)}
}

// Register adds a bossless node. Registering an existing id fails with ErrDuplicateMember.
func (r *Roster) Register(id MemberID, age int) error {
	if _, ok := r.nodes[id]; ok {
		return ErrDuplicateMember
	}
	r.nodes[id] = &node{id: id, age: age, subordinates: newIDSet()}
	r.order = append(r.order, id)
	return nil
}

// Has reports whether id is registered.
func (r *Roster) Has(id MemberID) bool {
	_, ok := r.nodes[id]
	return ok
}

// Len returns the number of registered nodes.
func (r *Roster) Len() int { return len(r.nodes) }

// Member returns a copy of the node registered under id.
func (r *Roster) Member(id MemberID) (Member, bool) {
	n, ok := r.nodes[id]
	if !ok {
		return Member{}, false
	}
	return n.view(), true
}

// Boss returns the boss of id and whether one is set.
func (r *Roster) Boss(id MemberID) (MemberID, bool) {
	n, ok := r.nodes[id]
	if !ok || !n.hasBoss {
		return 0, false
	}
	return n.boss, true
}

// Subordinates returns the subordinate ids of id in insertion order.
func (r *Roster) Subordinates(id MemberID) []MemberID {
	n, ok := r.nodes[id]
	if !ok {
		return nil
	}
	return n.subordinates.ids()
}

// AddSubordinate lists sub under boss. Adding an already listed id is a no-op.
func (r *Roster) AddSubordinate(boss, sub MemberID) error {
	if boss == sub {
		return ErrSelfReference
	}
	b, ok := r.nodes[boss]
	if !ok {
		return ErrUnknownMember
	}
	if _, ok := r.nodes[sub]; !ok {
		return ErrUnknownMember
	}
	b.subordinates.add(sub)
	return nil
}

// RemoveSubordinate drops sub from boss's subordinate set and reports whether it was listed.
func (r *Roster) RemoveSubordinate(boss, sub MemberID) bool {
	b, ok := r.nodes[boss]
	if !ok {
		return false
	}
	return b.subordinates.remove(sub)
}

// SetBoss points id at boss, or clears the link when boss is nil. A non-nil
// boss also lists id among its subordinates. The previous boss keeps id in
// its subordinate set; callers detach it when they need to.
func (r *Roster) SetBoss(id MemberID, boss *MemberID) error {
	n, ok := r.nodes[id]
	if !ok {
		return ErrUnknownMember
	}
	if boss == nil {
		n.boss, n.hasBoss = 0, false
		return nil
	}
	if *boss == id {
		return ErrSelfReference
	}
	b, ok := r.nodes[*boss]
	if !ok {
		return ErrUnknownMember
	}
	n.boss, n.hasBoss = *boss, true
	b.subordinates.add(id)
	return nil
}

func (r *Roster) age(id MemberID) int {
	if n, ok := r.nodes[id]; ok {
		return n.age
	}
	return 0
}

// restore installs a node exactly as recorded, stale edges included.
func (r *Roster) restore(m Member) {
	n := &node{id: m.ID, age: m.Age, subordinates: newIDSet()}
	if m.Boss != nil {
		n.boss, n.hasBoss = *m.Boss, true
	}
	for _, s := range m.Subordinates {
		n.subordinates.add(s)
	}
	if _, exists := r.nodes[m.ID]; !exists {
		r.order = append(r.order, m.ID)
	}
	r.nodes[m.ID] = n
}

// members returns every node in registration order.
func (r *Roster) members() []Member {
	out := make([]Member, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.nodes[id].view())
	}
	return out
}

func (r *Roster) clone() *Roster {
	cp := &Roster{
		nodes: make(map[MemberID]*node, len(r.nodes)),
		order: append([]MemberID(nil), r.order...),
	}
	for id, n := range r.nodes {
		nn := *n
		nn.subordinates = n.subordinates.clone()
		cp.nodes[id] = &nn
	}
	return cp
}

func (n *node) view() Member {
	m := Member{ID: n.id, Age: n.age, Subordinates: n.subordinates.ids()}
	if n.hasBoss {
		b := n.boss
		m.Boss = &b
	}
	return m
}
