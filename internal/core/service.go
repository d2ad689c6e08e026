package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"famiglia/internal/blob"
	blobcore "famiglia/internal/blob/core"
	"famiglia/internal/infra/persistence/memory"
	"famiglia/pkg/domain"
)

// Service exposes the hierarchy operations behind a single lock, a
// transactional store and the observability hooks.
type Service struct {
	store   domain.PersistentStore
	engine  *domain.RulesEngine
	clock   Clock
	now     func() time.Time
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
	audit   AuditRecorder
	archive blobcore.Store
	mu      sync.RWMutex
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used for audit timestamps and durations.
func WithClock(c Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithMetricsRecorder sets the metrics sink.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(t Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithAuditRecorder sets the audit sink.
func WithAuditRecorder(a AuditRecorder) Option {
	return func(s *Service) {
		if a != nil {
			s.audit = a
		}
	}
}

// WithArchive sets the blob store that receives exported snapshots.
func WithArchive(b blob.Store) Option {
	return func(s *Service) {
		s.archive = b
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:   store,
		logger:  noopLogger{},
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
		audit:   noopAuditRecorder{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.engine = extractRulesEngine(store)
	s.now = selectNowFunc(store, s.clock)
	return s
}

// NewInMemoryService creates a service and in-memory store with the given rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...Option) *Service {
	return NewService(memory.NewStore(engine), opts...)
}

func extractRulesEngine(store domain.PersistentStore) *domain.RulesEngine {
	if provider, ok := store.(interface{ RulesEngine() *domain.RulesEngine }); ok {
		return provider.RulesEngine()
	}
	return nil
}

// selectNowFunc prefers an explicit clock, then the store's time source, then system UTC.
func selectNowFunc(store domain.PersistentStore, clock Clock) func() time.Time {
	if clock != nil {
		return clock.Now
	}
	if provider, ok := store.(interface{ NowFunc() func() time.Time }); ok {
		if fn := provider.NowFunc(); fn != nil {
			return func() time.Time { return fn().UTC() }
		}
	}
	return ClockFunc(nil).Now
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore {
	return s.store
}

// RulesEngine returns the engine evaluated on every commit, if the store exposes one.
func (s *Service) RulesEngine() *RulesEngine {
	return s.engine
}

// Found creates the organization around its godfather.
func (s *Service) Found(ctx context.Context, godfather Member) (Member, Result, error) {
	var created Member
	res, err := s.run(ctx, opFound, godfather.ID, func(tx Transaction) error {
		var err error
		created, err = tx.Found(godfather)
		return err
	})
	return created, res, err
}

// AddMember recruits an active member, optionally under an active boss.
func (s *Service) AddMember(ctx context.Context, member Member) (Member, Result, error) {
	var added Member
	res, err := s.run(ctx, opAddMember, member.ID, func(tx Transaction) error {
		var err error
		added, err = tx.AddMember(member)
		return err
	})
	return added, res, err
}

// SendToPrison imprisons an active member and restructures the tree. When no
// successor exists the member still goes to prison and the returned error
// wraps domain.ErrNoSuccessorAvailable.
func (s *Service) SendToPrison(ctx context.Context, id MemberID) (Result, error) {
	return s.run(ctx, opSendToPrison, id, func(tx Transaction) error {
		return tx.SendToPrison(id)
	})
}

// ReleaseFromPrison returns an imprisoned member and its recorded subordinates.
func (s *Service) ReleaseFromPrison(ctx context.Context, id MemberID) (Result, error) {
	return s.run(ctx, opReleaseFromPrison, id, func(tx Transaction) error {
		return tx.ReleaseFromPrison(id)
	})
}

// Member resolves a registered member, active or imprisoned.
func (s *Service) Member(ctx context.Context, id MemberID) (Member, bool, error) {
	var (
		member Member
		ok     bool
	)
	err := s.read(ctx, opMember, id, func(v TransactionView) error {
		member, ok = v.FindMember(id)
		return nil
	})
	return member, ok, err
}

// Godfather returns the current root, if the organization exists.
func (s *Service) Godfather(ctx context.Context) (Member, bool, error) {
	var (
		member Member
		ok     bool
	)
	err := s.read(ctx, opGodfather, 0, func(v TransactionView) error {
		member, ok = v.Godfather()
		return nil
	})
	return member, ok, err
}

// Members lists active members in registry order.
func (s *Service) Members(ctx context.Context) ([]Member, error) {
	var out []Member
	err := s.read(ctx, opMembers, 0, func(v TransactionView) error {
		out = v.ListMembers()
		return nil
	})
	return out, err
}

// Prisoners lists imprisoned members in the order they were imprisoned.
func (s *Service) Prisoners(ctx context.Context) ([]Member, error) {
	var out []Member
	err := s.read(ctx, opPrisoners, 0, func(v TransactionView) error {
		out = v.ListPrisoners()
		return nil
	})
	return out, err
}

// FindBigBosses returns active members with strictly more than minimum transitive subordinates.
func (s *Service) FindBigBosses(ctx context.Context, minimum int) ([]Member, error) {
	var out []Member
	err := s.read(ctx, opFindBigBosses, 0, func(v TransactionView) error {
		var err error
		out, err = v.FindBigBosses(minimum)
		return err
	})
	return out, err
}

// CompareMembers returns the higher ranked of two members. ok is false when
// the members sit at the same depth.
func (s *Service) CompareMembers(ctx context.Context, a, b MemberID) (Member, bool, error) {
	var (
		higher Member
		ok     bool
	)
	err := s.read(ctx, opCompareMembers, a, func(v TransactionView) error {
		var err error
		higher, ok, err = v.CompareMembers(a, b)
		return err
	})
	return higher, ok, err
}

// Snapshot captures the organization in its serialisable form.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.read(ctx, opSnapshot, 0, func(v TransactionView) error {
		snap = v.Export()
		return nil
	})
	return snap, err
}

// run executes fn in a store transaction. A missing successor does not roll
// the transaction back: the imprisonment commits and the error is returned
// together with the rule result.
func (s *Service) run(ctx context.Context, op string, id MemberID, fn func(Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	ctx, span := s.tracer.Start(ctx, op)

	var opErr error
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		if err := fn(tx); err != nil {
			if errors.Is(err, domain.ErrNoSuccessorAvailable) {
				opErr = err
				return nil
			}
			return err
		}
		return nil
	})
	switch {
	case opErr != nil && err != nil:
		err = errors.Join(opErr, err)
	case opErr != nil:
		err = opErr
	}

	s.observe(ctx, op, id, res, err, start)
	span.End(err)
	return res, err
}

func (s *Service) read(ctx context.Context, op string, id MemberID, fn func(TransactionView) error) error {
	return s.guarded(ctx, op, id, func(ctx context.Context) error {
		return s.store.View(ctx, fn)
	})
}

// guarded runs fn under the read lock with the same tracing, metrics and
// audit as store-backed operations.
func (s *Service) guarded(ctx context.Context, op string, id MemberID, fn func(context.Context) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := s.now()
	ctx, span := s.tracer.Start(ctx, op)
	err := fn(ctx)
	s.observe(ctx, op, id, Result{}, err, start)
	span.End(err)
	return err
}

func (s *Service) observe(ctx context.Context, op string, id MemberID, res Result, err error, start time.Time) {
	end := s.now()
	duration := end.Sub(start)
	s.metrics.Observe(ctx, op, err == nil, duration)
	s.recordAudit(ctx, op, id, res, err, duration, end)

	for _, v := range res.Violations {
		switch v.Severity {
		case SeverityLog:
			s.logger.Debug("rule notice", "operation", op, "rule", v.Rule, "member", v.EntityID, "message", v.Message)
		default:
			s.logger.Warn("rule violation", "operation", op, "rule", v.Rule, "severity", string(v.Severity), "member", v.EntityID, "message", v.Message)
		}
	}
	if err != nil {
		s.logger.Error("core operation failed", "operation", op, "member", id, "duration", duration, "error", err)
		return
	}
	s.logger.Debug("core operation succeeded", "operation", op, "member", id, "duration", duration, "violations", len(res.Violations))
}

const (
	opFound             = "found"
	opAddMember         = "add_member"
	opSendToPrison      = "send_to_prison"
	opReleaseFromPrison = "release_from_prison"
	opMember            = "member"
	opGodfather         = "godfather"
	opMembers           = "members"
	opPrisoners         = "prisoners"
	opFindBigBosses     = "find_big_bosses"
	opCompareMembers    = "compare_members"
	opSnapshot          = "snapshot"
	opExportSnapshot    = "export_snapshot"
	opLoadArchive       = "load_archive"
	opListArchives      = "list_archives"
)

type auditTarget struct {
	entity EntityType
	action Action
}

var auditTargets = map[string]auditTarget{
	opFound:             {EntityOrganization, ActionFound},
	opAddMember:         {EntityMember, ActionRecruit},
	opSendToPrison:      {EntityMember, ActionImprison},
	opReleaseFromPrison: {EntityMember, ActionRelease},
	opMember:            {EntityMember, ActionQuery},
	opGodfather:         {EntityOrganization, ActionQuery},
	opMembers:           {EntityOrganization, ActionQuery},
	opPrisoners:         {EntityOrganization, ActionQuery},
	opFindBigBosses:     {EntityOrganization, ActionQuery},
	opCompareMembers:    {EntityMember, ActionQuery},
	opSnapshot:          {EntityOrganization, ActionQuery},
	opExportSnapshot:    {EntityOrganization, ActionExport},
	opLoadArchive:       {EntityOrganization, ActionQuery},
	opListArchives:      {EntityOrganization, ActionQuery},
}

func (s *Service) recordAudit(ctx context.Context, op string, id MemberID, res Result, err error, duration time.Duration, at time.Time) {
	target, ok := auditTargets[op]
	if !ok {
		return
	}
	entry := AuditEntry{
		Operation:  op,
		Entity:     target.entity,
		Action:     target.action,
		EntityID:   id,
		Status:     AuditStatusSuccess,
		Violations: len(res.Violations),
		Duration:   duration,
		Timestamp:  at,
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)
}
