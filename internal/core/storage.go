package core

import (
	"fmt"

	"famiglia/internal/config"
	"famiglia/internal/infra/persistence/memory"
	"famiglia/internal/infra/persistence/postgres"
	"famiglia/internal/infra/persistence/sqlite"
	"famiglia/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenPersistentStore selects a backend from cfg. An empty driver means memory.
func OpenPersistentStore(cfg config.Storage, engine *RulesEngine) (domain.PersistentStore, error) {
	driver := StorageDriver(cfg.Driver)
	if driver == "" {
		driver = StorageMemory
	}
	var (
		store domain.PersistentStore
		err   error
	)
	switch driver {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		store, err = sqlite.NewStore(cfg.SQLitePath, engine)
	case StoragePostgres:
		store, err = postgres.NewStore(cfg.PostgresDSN, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}
	return store, nil
}
