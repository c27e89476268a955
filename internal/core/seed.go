package core

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"matchcore/pkg/domain"
)

//go:embed seed_data.yaml
var seedData []byte

// StateImporter is implemented by stores that can replace their committed
// state wholesale. The memory store and both durable backends qualify.
type StateImporter interface {
	ImportState(domain.Snapshot)
}

// SeedSnapshot decodes the embedded sample dataset.
func SeedSnapshot() (domain.Snapshot, error) {
	var snap domain.Snapshot
	if err := yaml.Unmarshal(seedData, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode seed data: %w", err)
	}
	return snap, nil
}

// SeedIfNeeded loads the sample dataset into an empty store, or into one
// whose persisted snapshot was discarded as stale on open. It reports whether
// seeding happened.
func SeedIfNeeded(ctx context.Context, store PersistentStore) (bool, error) {
	needs := len(store.ListDemands()) == 0 &&
		len(store.ListPartners()) == 0 &&
		len(store.ListMatchCandidates()) == 0
	if sl, ok := store.(StaleLoader); ok && sl.LoadedStale() {
		needs = true
	}
	if !needs {
		return false, nil
	}
	importer, ok := store.(StateImporter)
	if !ok {
		return false, fmt.Errorf("store does not support state import")
	}
	snap, err := SeedSnapshot()
	if err != nil {
		return false, err
	}
	importer.ImportState(snap)
	// An empty transaction flushes the imported state through the backend's
	// snapshot-after-commit path.
	if _, err := store.RunInTransaction(ctx, func(domain.Transaction) error { return nil }); err != nil {
		return false, err
	}
	return true, nil
}
