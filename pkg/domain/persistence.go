package domain

import "context"

// Transaction exposes the hierarchy mutations a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	Found(godfather Member) (Member, error)
	AddMember(Member) (Member, error)
	SendToPrison(id MemberID) error
	ReleaseFromPrison(id MemberID) error
}

// TransactionView provides read-only access to snapshot data for rules and queries.
type TransactionView interface {
	RuleView
	FindBigBosses(minimumSubordinates int) ([]Member, error)
	CompareMembers(a, b MemberID) (Member, bool, error)
	Export() Snapshot
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
}
