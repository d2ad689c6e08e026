// Package domain defines the hierarchy model used by famiglia: the member
// arena, the organization that owns active and imprisoned members, and the
// rule evaluation primitives applied to every committed mutation.
package domain

import "fmt"

// EntityType identifies the type of record referenced by a Change or Violation.
type EntityType string

// Supported entity type identifiers.
const (
	// EntityMember identifies a single member node.
	EntityMember EntityType = "member"
	// EntityOrganization identifies the organization as a whole (godfather, registry sets).
	EntityOrganization EntityType = "organization"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Change describes a mutation applied inside a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of hierarchy transition performed.
type Action string

// Change actions recorded by transactions.
const (
	// ActionFound indicates an organization was created around its godfather.
	ActionFound Action = "found"
	// ActionRecruit indicates a member joined the active set.
	ActionRecruit Action = "recruit"
	// ActionImprison indicates a member moved from the active set to prison.
	ActionImprison Action = "imprison"
	ActionRelease  Action = "release"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID MemberID
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking reports whether any violation has block severity.
func (r Result) HasBlocking() bool {
	return len(r.Blocking()) > 0
}

// Blocking returns the block-severity violations in evaluation order.
func (r Result) Blocking() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			out = append(out, v)
		}
	}
	return out
}

// RuleViolationError rolls a transaction back when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	blocking := e.Result.Blocking()
	if len(blocking) == 0 {
		return "blocked by rules"
	}
	first := blocking[0]
	msg := fmt.Sprintf("blocked by %s: %s", first.Rule, first.Message)
	if len(blocking) > 1 {
		msg += fmt.Sprintf(" (and %d more)", len(blocking)-1)
	}
	return msg
}
