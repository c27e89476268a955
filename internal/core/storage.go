package core

import (
	"fmt"
	"os"

	"matchcore/internal/infra/persistence/memory"
	"matchcore/internal/infra/persistence/postgres"
	"matchcore/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// StaleLoader is implemented by stores that can discard an incompatible
// snapshot on open. Callers reseed sample data when it reports true.
type StaleLoader interface {
	LoadedStale() bool
}

// OpenPersistentStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	MATCHCORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	MATCHCORE_SQLITE_PATH: path to sqlite file (default ./matchcore.db)
//	MATCHCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersistentStore(engine *RulesEngine) (PersistentStore, error) {
	driver := os.Getenv("MATCHCORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		path := os.Getenv("MATCHCORE_SQLITE_PATH")
		return sqlite.NewStore(path, engine)
	case StoragePostgres:
		dsn := os.Getenv("MATCHCORE_POSTGRES_DSN")
		return postgres.NewStore(dsn, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
