package core

import "famiglia/pkg/domain"

type (
	Member             = domain.Member
	MemberID           = domain.MemberID
	Snapshot           = domain.Snapshot
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
	Rule               = domain.Rule
	RuleView           = domain.RuleView
	RulesEngine        = domain.RulesEngine
	Transaction        = domain.Transaction
	TransactionView    = domain.TransactionView
	PersistentStore    = domain.PersistentStore
)

const (
	EntityMember       = domain.EntityMember
	EntityOrganization = domain.EntityOrganization
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionFound    = domain.ActionFound
	ActionRecruit  = domain.ActionRecruit
	ActionImprison = domain.ActionImprison
	ActionRelease  = domain.ActionRelease
	// ActionQuery marks read-only operations in audit entries.
	ActionQuery Action = "query"
	// ActionExport marks snapshot archive writes in audit entries.
	ActionExport Action = "export"
)
