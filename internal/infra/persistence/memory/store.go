// Package memory provides an in-memory implementation of the hierarchy
// persistence store used for tests and ephemeral environments.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"famiglia/pkg/domain"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Member aliases domain.Member for in-memory persistence operations.
	Member = domain.Member
	// MemberID aliases domain.MemberID.
	MemberID = domain.MemberID
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
	// Snapshot aliases domain.Snapshot, the persisted form of the organization.
	Snapshot = domain.Snapshot
)

// Store provides an in-memory transactional store for the hierarchy.
type Store struct {
	mu     sync.RWMutex
	org    *domain.Organization
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.org.Snapshot()
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) error {
	org, err := domain.RestoreOrganization(snapshot)
	if err != nil {
		return fmt.Errorf("import state: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.org = org
	return nil
}

// RulesEngine exposes the currently configured engine for integration points.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// transaction is a mutation set applied to a private copy of the organization.
type transaction struct {
	org     *domain.Organization
	changes []Change
	now     time.Time
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The copy replaces the live state only when fn succeeds and no rule blocks.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{now: s.nowFn()}
	if s.org != nil {
		tx.org = s.org.Clone()
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		res, err := s.engine.Evaluate(ctx, newTransactionView(tx.org), tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.org = tx.org
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	var snapshot *domain.Organization
	if s.org != nil {
		snapshot = s.org.Clone()
	}
	s.mu.RUnlock()
	return fn(newTransactionView(snapshot))
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(tx.org)
}

// Found creates the organization around its godfather.
func (tx *transaction) Found(godfather Member) (Member, error) {
	if tx.org != nil {
		return Member{}, domain.ErrAlreadyFounded
	}
	org, err := domain.NewOrganization(godfather)
	if err != nil {
		return Member{}, err
	}
	tx.org = org
	created := org.Godfather()
	tx.recordChange(Change{Entity: domain.EntityOrganization, Action: domain.ActionFound, After: created})
	return created, nil
}

// AddMember registers a new active member.
func (tx *transaction) AddMember(m Member) (Member, error) {
	if tx.org == nil {
		return Member{}, domain.ErrNoOrganization
	}
	added, err := tx.org.AddMember(m)
	if err != nil {
		return Member{}, err
	}
	tx.recordChange(Change{Entity: domain.EntityMember, Action: domain.ActionRecruit, After: added})
	return added, nil
}

// SendToPrison imprisons an active member. The change is recorded even when
// no successor was found, since the member has left the active set.
func (tx *transaction) SendToPrison(id MemberID) error {
	if tx.org == nil {
		return domain.ErrNoOrganization
	}
	before, _ := tx.org.Member(id)
	err := tx.org.SendToPrison(id)
	if after, ok := tx.org.Prisoner(id); ok {
		tx.recordChange(Change{Entity: domain.EntityMember, Action: domain.ActionImprison, Before: before, After: after})
	}
	return err
}

// ReleaseFromPrison returns a prisoner to active duty.
func (tx *transaction) ReleaseFromPrison(id MemberID) error {
	if tx.org == nil {
		return domain.ErrNoOrganization
	}
	before, _ := tx.org.Prisoner(id)
	if err := tx.org.ReleaseFromPrison(id); err != nil {
		return err
	}
	after, _ := tx.org.Member(id)
	tx.recordChange(Change{Entity: domain.EntityMember, Action: domain.ActionRelease, Before: before, After: after})
	return nil
}

// transactionView exposes a read-only snapshot of the organization to rules
// and queries. A nil organization reads as empty.
type transactionView struct {
	org *domain.Organization
}

func newTransactionView(org *domain.Organization) TransactionView {
	return transactionView{org: org}
}

// Godfather returns the current root, if an organization exists.
func (v transactionView) Godfather() (Member, bool) {
	if v.org == nil {
		return Member{}, false
	}
	return v.org.Godfather(), true
}

// ListMembers returns all active members.
func (v transactionView) ListMembers() []Member {
	if v.org == nil {
		return nil
	}
	return v.org.Members()
}

// ListPrisoners returns all imprisoned members.
func (v transactionView) ListPrisoners() []Member {
	if v.org == nil {
		return nil
	}
	return v.org.Prisoners()
}

// FindMember resolves any registered member, active or imprisoned.
func (v transactionView) FindMember(id MemberID) (Member, bool) {
	if v.org == nil {
		return Member{}, false
	}
	return v.org.Lookup(id)
}

func (v transactionView) IsActive(id MemberID) bool {
	return v.org != nil && v.org.IsActive(id)
}

func (v transactionView) IsImprisoned(id MemberID) bool {
	return v.org != nil && v.org.IsImprisoned(id)
}

// FindBigBosses runs the subtree-size query against the snapshot.
func (v transactionView) FindBigBosses(minimumSubordinates int) ([]Member, error) {
	if v.org == nil {
		return nil, domain.ErrNoOrganization
	}
	return v.org.FindBigBosses(minimumSubordinates)
}

// CompareMembers runs the rank comparison against the snapshot.
func (v transactionView) CompareMembers(a, b MemberID) (Member, bool, error) {
	if v.org == nil {
		return Member{}, false, domain.ErrNoOrganization
	}
	return v.org.CompareMembers(a, b)
}

// Export returns the serialisable snapshot of the view.
func (v transactionView) Export() Snapshot {
	return v.org.Snapshot()
}
