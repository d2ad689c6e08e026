// Package postgres keeps the organization in a Postgres JSONB state table.
// Transactions run against the embedded in-memory store and every commit is
// mirrored to the table.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"famiglia/internal/infra/persistence/buckets"
	"famiglia/internal/infra/persistence/memory"
	"famiglia/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

var _ domain.PersistentStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/famiglia?sslmode=disable"

	createSQL = `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`
	upsertSQL = `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store is a memory.Store whose commits are written through to Postgres.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore connects to dsn (defaultDSN when empty), ensures the state table
// and hydrates the organization from it.
func NewStore(dsn string, engine *domain.RulesEngine) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	open := sqlOpen
	openMu.Unlock()

	db, err := open(defaultDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	mem, err := hydrate(context.Background(), db, engine)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{Store: mem, db: db}, nil
}

func hydrate(ctx context.Context, db *sql.DB, engine *domain.RulesEngine) (*memory.Store, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, createSQL); err != nil {
		return nil, fmt.Errorf("ensure state table: %w", err)
	}
	snap, ok, err := buckets.Load(ctx, db)
	if err != nil {
		return nil, err
	}
	mem := memory.NewStore(engine)
	if ok {
		if err := mem.ImportState(snap); err != nil {
			return nil, err
		}
	}
	return mem, nil
}

// RunInTransaction commits in memory first and then mirrors the new state.
// A failed mirror is returned but the in-memory commit stands.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	return res, s.persist(ctx)
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := buckets.Save(ctx, tx, upsertSQL, s.ExportState()); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
