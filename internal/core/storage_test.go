package core_test

import (
	"path/filepath"
	"testing"

	"matchcore/internal/core"
	"matchcore/internal/infra/persistence/memory"
	"matchcore/internal/infra/persistence/sqlite"
)

func TestOpenPersistentStoreSelectsDriverFromEnv(t *testing.T) {
	t.Setenv("MATCHCORE_STORAGE_DRIVER", "memory")
	store, err := core.OpenPersistentStore(nil)
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("driver=memory opened %T", store)
	}

	t.Setenv("MATCHCORE_STORAGE_DRIVER", "sqlite")
	t.Setenv("MATCHCORE_SQLITE_PATH", filepath.Join(t.TempDir(), "matchcore.db"))
	store, err = core.OpenPersistentStore(nil)
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	if _, ok := store.(*sqlite.Store); !ok {
		t.Fatalf("driver=sqlite opened %T", store)
	}
}

func TestOpenPersistentStoreRejectsUnknownDriver(t *testing.T) {
	t.Setenv("MATCHCORE_STORAGE_DRIVER", "etcd")
	if _, err := core.OpenPersistentStore(nil); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
