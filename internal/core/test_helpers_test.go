package core

import (
	"context"
	"testing"

	"famiglia/pkg/domain"
)

// seedService builds G=1(50) with A=2(40) and B=3(30) under it and C=4(20) under A.
func seedService(t *testing.T, svc *Service) {
	t.Helper()
	ctx := context.Background()
	if _, _, err := svc.Found(ctx, domain.NewMember(1, 50)); err != nil {
		t.Fatalf("found: %v", err)
	}
	for _, m := range []Member{
		domain.NewMember(2, 40).ReportingTo(1),
		domain.NewMember(3, 30).ReportingTo(1),
		domain.NewMember(4, 20).ReportingTo(2),
	} {
		if _, _, err := svc.AddMember(ctx, m); err != nil {
			t.Fatalf("add member %d: %v", m.ID, err)
		}
	}
}

func ids(members []Member) []MemberID {
	out := make([]MemberID, 0, len(members))
	for _, m := range members {
		out = append(out, m.ID)
	}
	return out
}

func violationsFor(res Result, rule string) []Violation {
	var out []Violation
	for _, v := range res.Violations {
		if v.Rule == rule {
			out = append(out, v)
		}
	}
	return out
}

type fakePersistentStore struct {
	runCalls  int
	viewCalls int
	runErr    error
}

func (f *fakePersistentStore) RunInTransaction(_ context.Context, _ func(domain.Transaction) error) (domain.Result, error) {
	f.runCalls++
	return domain.Result{}, f.runErr
}

func (f *fakePersistentStore) View(_ context.Context, _ func(domain.TransactionView) error) error {
	f.viewCalls++
	return nil
}
