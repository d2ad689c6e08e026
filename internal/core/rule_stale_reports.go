package core

import (
	"context"
	"fmt"

	"famiglia/pkg/domain"
)

const staleReportsName = "stale_reports"

// StaleReportsRule notes subordinate entries left under a member after the
// subordinate was handed to another boss.
func StaleReportsRule() domain.Rule {
	return staleReportsRule{}
}

type staleReportsRule struct{}

func (staleReportsRule) Name() string { return staleReportsName }

func (staleReportsRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	members := append(view.ListMembers(), view.ListPrisoners()...)
	for _, m := range members {
		for _, subID := range m.Subordinates {
			sub, ok := view.FindMember(subID)
			if !ok {
				continue
			}
			if boss, has := sub.BossID(); has && boss == m.ID {
				continue
			}
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     staleReportsName,
				Severity: domain.SeverityLog,
				Message:  fmt.Sprintf("member %d still lists %d, which reports elsewhere", m.ID, subID),
				Entity:   domain.EntityMember,
				EntityID: m.ID,
			})
		}
	}
	return res, nil
}
