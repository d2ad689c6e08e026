package core

import (
	"context"
	"fmt"

	"famiglia/pkg/domain"
)

const hierarchyIntegrityName = "hierarchy_integrity"

// HierarchyIntegrityRule checks the structural invariants of the organization
// after every mutation: disjoint registries, a bossless active godfather,
// active bosses for active members and consistent boss back references.
func HierarchyIntegrityRule(strict bool) domain.Rule {
	severity := domain.SeverityWarn
	if strict {
		severity = domain.SeverityBlock
	}
	return hierarchyIntegrityRule{severity: severity}
}

type hierarchyIntegrityRule struct {
	severity domain.Severity
}

func (hierarchyIntegrityRule) Name() string { return hierarchyIntegrityName }

func (r hierarchyIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	godfather, founded := view.Godfather()
	if !founded {
		return res, nil
	}

	if !view.IsActive(godfather.ID) {
		res.Violations = append(res.Violations, r.violation(godfather.ID, fmt.Sprintf("godfather %d is not active", godfather.ID)))
	}
	if boss, ok := godfather.BossID(); ok {
		res.Violations = append(res.Violations, r.violation(godfather.ID, fmt.Sprintf("godfather %d reports to %d", godfather.ID, boss)))
	}

	for _, p := range view.ListPrisoners() {
		if view.IsActive(p.ID) {
			res.Violations = append(res.Violations, r.violation(p.ID, fmt.Sprintf("member %d is both active and imprisoned", p.ID)))
		}
	}

	for _, m := range view.ListMembers() {
		for _, sub := range m.Subordinates {
			if sub == m.ID {
				res.Violations = append(res.Violations, r.violation(m.ID, fmt.Sprintf("member %d lists itself as a subordinate", m.ID)))
				continue
			}
			if _, ok := view.FindMember(sub); !ok {
				res.Violations = append(res.Violations, r.violation(m.ID, fmt.Sprintf("member %d lists unknown subordinate %d", m.ID, sub)))
			}
		}

		bossID, hasBoss := m.BossID()
		if !hasBoss {
			if m.ID != godfather.ID {
				res.Violations = append(res.Violations, r.violation(m.ID, fmt.Sprintf("member %d has no boss", m.ID)))
			}
			continue
		}
		if bossID == m.ID {
			res.Violations = append(res.Violations, r.violation(m.ID, fmt.Sprintf("member %d reports to itself", m.ID)))
			continue
		}
		boss, ok := view.FindMember(bossID)
		if !ok {
			res.Violations = append(res.Violations, r.violation(m.ID, fmt.Sprintf("member %d reports to unknown boss %d", m.ID, bossID)))
			continue
		}
		if !view.IsActive(bossID) {
			res.Violations = append(res.Violations, r.violation(m.ID, fmt.Sprintf("member %d reports to inactive boss %d", m.ID, bossID)))
		}
		if !boss.HasSubordinate(m.ID) {
			res.Violations = append(res.Violations, r.violation(m.ID, fmt.Sprintf("boss %d does not list member %d", bossID, m.ID)))
		}
	}
	return res, nil
}

func (r hierarchyIntegrityRule) violation(id domain.MemberID, message string) domain.Violation {
	return domain.Violation{
		Rule:     hierarchyIntegrityName,
		Severity: r.severity,
		Message:  message,
		Entity:   domain.EntityMember,
		EntityID: id,
	}
}
