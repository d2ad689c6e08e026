package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestNewOrganizationRejectsGodfatherWithBoss(t *testing.T) {
	if _, err := NewOrganization(NewMember(1, 50).ReportingTo(2)); !errors.Is(err, ErrNotAMember) {
		t.Fatalf("expected not a member error, got %v", err)
	}
}

func TestAddMemberRejectsDuplicatesWithoutChangingTree(t *testing.T) {
	org := recruit(t, [3]int{1, 50, 0}, [3]int{2, 40, 1})
	before := org.Snapshot()

	_, err := org.AddMember(NewMember(2, 99).ReportingTo(1))
	mustErrorIs(t, err, ErrDuplicateMember)
	var merr *MemberError
	if !errors.As(err, &merr) || merr.Op != OpRecruit || merr.ID != 2 {
		t.Fatalf("expected member error context, got %#v", err)
	}
	if after := org.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatalf("tree changed after duplicate add:\n%+v\n%+v", before, after)
	}
}

func TestAddMemberRejectsImprisonedID(t *testing.T) {
	org := recruit(t, [3]int{1, 50, 0}, [3]int{2, 40, 1}, [3]int{3, 30, 1})
	mustNoError(t, "imprison", org.SendToPrison(3))
	_, err := org.AddMember(NewMember(3, 30).ReportingTo(1))
	mustErrorIs(t, err, ErrDuplicateMember)
}

func TestAddMemberRequiresActiveBoss(t *testing.T) {
	org := recruit(t, [3]int{1, 50, 0})
	_, err := org.AddMember(NewMember(2, 40).ReportingTo(7))
	mustErrorIs(t, err, ErrNotAMember)
	_, err = org.AddMember(NewMember(3, 40).ReportingTo(3))
	mustErrorIs(t, err, ErrSelfReference)
	if org.roster.Len() != 1 {
		t.Fatalf("rejected members must not be registered")
	}
}

func TestGetMemberOnlyReturnsActive(t *testing.T) {
	org := recruit(t, [3]int{1, 50, 0}, [3]int{2, 40, 1}, [3]int{3, 30, 1})
	if _, ok := org.Member(2); !ok {
		t.Fatalf("expected active member")
	}
	mustNoError(t, "imprison", org.SendToPrison(2))
	if _, ok := org.Member(2); ok {
		t.Fatalf("imprisoned member must not be returned")
	}
	if _, ok := org.Prisoner(2); !ok {
		t.Fatalf("expected prisoner lookup to succeed")
	}
	if _, ok := org.Member(99); ok {
		t.Fatalf("unknown member must not be returned")
	}
}

func TestSendToPrisonHandsReportsToOldestPeer(t *testing.T) {
	// G(50) -> A(40), B(30); A -> C(20)
	org := recruit(t,
		[3]int{1, 50, 0},
		[3]int{2, 40, 1},
		[3]int{3, 30, 1},
		[3]int{4, 20, 2},
	)
	mustNoError(t, "imprison A", org.SendToPrison(2))

	if _, ok := org.Member(2); ok {
		t.Fatalf("A should no longer be active")
	}
	assertSubordinates(t, org, 3, 4)
	assertBoss(t, org, 4, 3)
	assertRegistryInvariants(t, org)
	// A keeps its record of C for recovery.
	assertSubordinates(t, org, 2, 4)
}

func TestSendToPrisonPeerTieKeepsFirstEncountered(t *testing.T) {
	org := recruit(t,
		[3]int{1, 70, 0},
		[3]int{2, 40, 1},
		[3]int{3, 35, 1},
		[3]int{4, 35, 1},
		[3]int{5, 10, 2},
	)
	mustNoError(t, "imprison", org.SendToPrison(2))
	assertBoss(t, org, 5, 3)
	assertSubordinates(t, org, 4)
}

func TestSendToPrisonSkipsImprisonedPeers(t *testing.T) {
	org := recruit(t,
		[3]int{1, 70, 0},
		[3]int{2, 40, 1},
		[3]int{3, 60, 1},
		[3]int{4, 30, 1},
		[3]int{5, 10, 2},
	)
	mustNoError(t, "imprison oldest peer", org.SendToPrison(3))
	mustNoError(t, "imprison", org.SendToPrison(2))
	assertBoss(t, org, 5, 4)
	assertRegistryInvariants(t, org)
}

func TestSendToPrisonPromotesOldestSubordinate(t *testing.T) {
	// G -> A; A -> C(10), D(20)
	org := recruit(t,
		[3]int{1, 60, 0},
		[3]int{2, 50, 1},
		[3]int{3, 10, 2},
		[3]int{4, 20, 2},
	)
	mustNoError(t, "imprison A", org.SendToPrison(2))

	assertBoss(t, org, 4, 1)
	assertBoss(t, org, 3, 4)
	assertSubordinates(t, org, 4, 3)
	assertRegistryInvariants(t, org)
}

func TestSendToPrisonPromotesNewGodfather(t *testing.T) {
	org := recruit(t,
		[3]int{1, 70, 0},
		[3]int{2, 50, 1},
		[3]int{3, 60, 1},
		[3]int{4, 20, 2},
	)
	mustNoError(t, "imprison godfather", org.SendToPrison(1))

	if gf := org.Godfather(); gf.ID != 3 || gf.Boss != nil {
		t.Fatalf("expected 3 as bossless godfather, got %+v", gf)
	}
	assertBoss(t, org, 2, 3)
	assertBoss(t, org, 4, 2)
	assertRegistryInvariants(t, org)
}

func TestSendToPrisonWithoutSuccessorLeavesGap(t *testing.T) {
	org := recruit(t, [3]int{1, 50, 0})
	err := org.SendToPrison(1)
	mustErrorIs(t, err, ErrNoSuccessorAvailable)
	if _, ok := org.Member(1); ok {
		t.Fatalf("godfather should remain removed from members")
	}
	if !org.IsImprisoned(1) {
		t.Fatalf("godfather should be in prison")
	}
}

func TestSendToPrisonWithOnlyImprisonedSubordinatesFails(t *testing.T) {
	org := recruit(t, [3]int{1, 50, 0}, [3]int{2, 40, 1}, [3]int{3, 10, 2})
	mustErrorIs(t, org.SendToPrison(3), ErrNoSuccessorAvailable)
	mustErrorIs(t, org.SendToPrison(2), ErrNoSuccessorAvailable)
	// The documented gap: 3 still points at 2.
	assertBoss(t, org, 3, 2)
	if !org.IsImprisoned(2) || !org.IsImprisoned(3) {
		t.Fatalf("both members should be imprisoned")
	}
}

func TestSendToPrisonRequiresActiveMember(t *testing.T) {
	org := recruit(t, [3]int{1, 50, 0}, [3]int{2, 40, 1}, [3]int{3, 30, 1})
	mustErrorIs(t, org.SendToPrison(42), ErrNotAMember)
	mustNoError(t, "imprison", org.SendToPrison(2))
	before := org.Snapshot()
	mustErrorIs(t, org.SendToPrison(2), ErrNotAMember)
	if after := org.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatalf("failed precondition mutated state")
	}
}

func TestReleaseRequiresPrisoner(t *testing.T) {
	org := recruit(t, [3]int{1, 50, 0}, [3]int{2, 40, 1})
	before := org.Snapshot()
	mustErrorIs(t, org.ReleaseFromPrison(2), ErrNotImprisoned)
	mustErrorIs(t, org.ReleaseFromPrison(9), ErrNotImprisoned)
	if after := org.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatalf("failed precondition mutated state")
	}
}

func TestReleaseRestoresReportsAfterPeerSuccession(t *testing.T) {
	org := recruit(t,
		[3]int{1, 50, 0},
		[3]int{2, 40, 1},
		[3]int{3, 30, 1},
		[3]int{4, 20, 2},
		[3]int{5, 15, 2},
	)
	mustNoError(t, "imprison", org.SendToPrison(2))
	mustNoError(t, "release", org.ReleaseFromPrison(2))

	assertSubordinates(t, org, 2, 4, 5)
	assertBoss(t, org, 4, 2)
	assertBoss(t, org, 5, 2)
	assertSubordinates(t, org, 3)
	if _, ok := org.Member(2); !ok {
		t.Fatalf("released member should be active")
	}
	assertRegistryInvariants(t, org)
}

func TestReleaseRestoresReportsAfterPromotion(t *testing.T) {
	org := recruit(t,
		[3]int{1, 60, 0},
		[3]int{2, 50, 1},
		[3]int{3, 10, 2},
		[3]int{4, 20, 2},
	)
	mustNoError(t, "imprison", org.SendToPrison(2))
	mustNoError(t, "release", org.ReleaseFromPrison(2))

	assertSubordinates(t, org, 2, 3, 4)
	assertBoss(t, org, 3, 2)
	assertBoss(t, org, 4, 2)
	// The promoted member no longer carries its former sibling.
	assertSubordinates(t, org, 4)
	assertSubordinates(t, org, 1, 2)
	assertRegistryInvariants(t, org)
}

func TestReleaseOfGodfatherRestoresRoot(t *testing.T) {
	org := recruit(t,
		[3]int{1, 70, 0},
		[3]int{2, 50, 1},
		[3]int{3, 60, 1},
	)
	mustNoError(t, "imprison godfather", org.SendToPrison(1))
	mustNoError(t, "release godfather", org.ReleaseFromPrison(1))

	if gf := org.Godfather(); gf.ID != 1 {
		t.Fatalf("expected godfather 1 back at the root, got %d", gf.ID)
	}
	assertBoss(t, org, 2, 1)
	assertBoss(t, org, 3, 1)
	assertSubordinates(t, org, 3)
	assertRegistryInvariants(t, org)
}

func TestRegistryInvariantsAcrossTransitions(t *testing.T) {
	org := recruit(t,
		[3]int{1, 80, 0},
		[3]int{2, 60, 1},
		[3]int{3, 55, 1},
		[3]int{4, 40, 2},
		[3]int{5, 45, 2},
		[3]int{6, 30, 3},
		[3]int{7, 20, 4},
		[3]int{8, 25, 5},
	)
	steps := []struct {
		release bool
		id      MemberID
	}{
		{false, 2}, {false, 5}, {true, 2}, {false, 3}, {true, 5}, {false, 1}, {true, 3}, {true, 1},
	}
	for i, step := range steps {
		var err error
		if step.release {
			err = org.ReleaseFromPrison(step.id)
		} else {
			err = org.SendToPrison(step.id)
		}
		if err != nil {
			t.Fatalf("step %d (%+v): %v", i, step, err)
		}
		for _, m := range org.Members() {
			if org.IsImprisoned(m.ID) {
				t.Fatalf("step %d: member %d active and imprisoned", i, m.ID)
			}
		}
		for _, p := range org.Prisoners() {
			if org.IsActive(p.ID) {
				t.Fatalf("step %d: prisoner %d active", i, p.ID)
			}
		}
	}
	if len(org.Prisoners()) != 0 {
		t.Fatalf("expected empty prison, got %+v", org.Prisoners())
	}
	assertRegistryInvariants(t, org)
}

func TestCloneIsIndependent(t *testing.T) {
	org := recruit(t, [3]int{1, 50, 0}, [3]int{2, 40, 1}, [3]int{3, 30, 1})
	cp := org.Clone()
	mustNoError(t, "imprison clone", cp.SendToPrison(2))
	if _, ok := org.Member(2); !ok {
		t.Fatalf("original should be unaffected by clone mutation")
	}
	if _, ok := cp.Member(2); ok {
		t.Fatalf("clone should reflect its own mutation")
	}
}
