package domain

import (
	"errors"
	"slices"
	"testing"
)

// mustNoError simplifies tests that expect helper methods to succeed.
func mustNoError(t *testing.T, label string, err error) {
	t.Helper()
	if err != nil {
		if label == "" {
			t.Fatalf("unexpected error: %v", err)
		}
		t.Fatalf("%s: %v", label, err)
	}
}

func mustErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}

// recruit builds an organization from (id, age, boss) triples; boss 0 means
// the member reports to nobody and is only valid for the first entry.
func recruit(t *testing.T, rows ...[3]int) *Organization {
	t.Helper()
	if len(rows) == 0 {
		t.Fatalf("recruit needs a godfather")
	}
	org, err := NewOrganization(NewMember(MemberID(rows[0][0]), rows[0][1]))
	mustNoError(t, "new organization", err)
	for _, r := range rows[1:] {
		m := NewMember(MemberID(r[0]), r[1]).ReportingTo(MemberID(r[2]))
		_, err := org.AddMember(m)
		mustNoError(t, "add member", err)
	}
	return org
}

func subordinatesOf(t *testing.T, org *Organization, id MemberID) []MemberID {
	t.Helper()
	m, ok := org.Lookup(id)
	if !ok {
		t.Fatalf("member %d not registered", id)
	}
	return m.Subordinates
}

func assertSubordinates(t *testing.T, org *Organization, id MemberID, want ...MemberID) {
	t.Helper()
	got := subordinatesOf(t, org, id)
	if len(want) == 0 && len(got) == 0 {
		return
	}
	if !slices.Equal(got, want) {
		t.Fatalf("subordinates of %d: got %v want %v", id, got, want)
	}
}

func assertBoss(t *testing.T, org *Organization, id, want MemberID) {
	t.Helper()
	m, ok := org.Lookup(id)
	if !ok {
		t.Fatalf("member %d not registered", id)
	}
	got, has := m.BossID()
	if !has || got != want {
		t.Fatalf("boss of %d: got %d (set=%v) want %d", id, got, has, want)
	}
}

// assertRegistryInvariants checks the properties every successful transition keeps.
func assertRegistryInvariants(t *testing.T, org *Organization) {
	t.Helper()
	for _, m := range org.Members() {
		if org.IsImprisoned(m.ID) {
			t.Fatalf("member %d is both active and imprisoned", m.ID)
		}
		if m.ID == org.Godfather().ID {
			if m.Boss != nil {
				t.Fatalf("godfather %d has boss %d", m.ID, *m.Boss)
			}
			continue
		}
		boss, ok := m.BossID()
		if !ok {
			t.Fatalf("active member %d has no boss", m.ID)
		}
		if !org.IsActive(boss) {
			t.Fatalf("active member %d reports to inactive %d", m.ID, boss)
		}
	}
	if !org.IsActive(org.Godfather().ID) {
		t.Fatalf("godfather %d not active", org.Godfather().ID)
	}
}
