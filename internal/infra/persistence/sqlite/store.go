// Package sqlite persists the tracker state to a single SQLite table as JSON
// buckets, snapshotting the full state after every successful transaction.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"matchcore/internal/infra/persistence/memory"
	"matchcore/pkg/domain"
)

var _ domain.PersistentStore = (*Store)(nil)

// Store layers SQLite snapshot persistence over the in-memory transactional store.
type Store struct {
	*memory.Store
	db    *sql.DB
	mu    sync.Mutex
	path  string
	stale bool
}

// NewStore constructs a snapshotting SQLite-backed persistent store.
func NewStore(path string, engine *domain.RulesEngine) (*Store, error) {
	if path == "" {
		path = "matchcore.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(engine), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

var sqliteBuckets = []string{"demands", "analyses", "partners", "matchings", "activities", "counters"}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	type raw struct {
		bucket  string
		payload []byte
	}
	var raws []raw
	for rows.Next() {
		var r raw
		if err := rows.Scan(&r.bucket, &r.payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		raws = append(raws, r)
	}
	if len(raws) == 0 {
		return nil
	}
	snapshot := domain.Snapshot{}
	for _, r := range raws {
		switch r.bucket {
		case "demands":
			if err := json.Unmarshal(r.payload, &snapshot.Demands); err != nil {
				return fmt.Errorf("decode demands: %w", err)
			}
		case "analyses":
			if err := json.Unmarshal(r.payload, &snapshot.Analyses); err != nil {
				return fmt.Errorf("decode analyses: %w", err)
			}
		case "partners":
			if err := json.Unmarshal(r.payload, &snapshot.Partners); err != nil {
				return fmt.Errorf("decode partners: %w", err)
			}
		case "matchings":
			if hasLegacyMatchingFields(r.payload) {
				s.stale = true
				return nil
			}
			if err := json.Unmarshal(r.payload, &snapshot.Matchings); err != nil {
				return fmt.Errorf("decode matchings: %w", err)
			}
		case "activities":
			if err := json.Unmarshal(r.payload, &snapshot.Activities); err != nil {
				return fmt.Errorf("decode activities: %w", err)
			}
		case "counters":
			if err := json.Unmarshal(r.payload, &snapshot.Counters); err != nil {
				return fmt.Errorf("decode counters: %w", err)
			}
		}
	}
	if snapshot.Stale() {
		s.stale = true
		return nil
	}
	s.ImportState(snapshot)
	return nil
}

// hasLegacyMatchingFields probes a raw matchings bucket for fields written by
// snapshot layouts that predate recommendation groups. Such snapshots are
// discarded rather than migrated.
func hasLegacyMatchingFields(payload []byte) bool {
	var probe map[string]map[string]json.RawMessage
	if err := json.Unmarshal(payload, &probe); err != nil {
		return false
	}
	for _, fields := range probe {
		if _, ok := fields["productConfirm"]; ok {
			return true
		}
		if _, ok := fields["presalesConfirm"]; ok {
			return true
		}
	}
	return false
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range sqliteBuckets {
		var data []byte
		switch bucket {
		case "demands":
			data, err = json.Marshal(snapshot.Demands)
		case "analyses":
			data, err = json.Marshal(snapshot.Analyses)
		case "partners":
			data, err = json.Marshal(snapshot.Partners)
		case "matchings":
			data, err = json.Marshal(snapshot.Matchings)
		case "activities":
			data, err = json.Marshal(snapshot.Activities)
		case "counters":
			data, err = json.Marshal(snapshot.Counters)
		}
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err = tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

// RunInTransaction applies fn within a transaction, then snapshots state to SQLite on success.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.persist(); pErr != nil {
		return res, pErr
	}
	return res, nil
}

// LoadedStale reports whether the on-disk snapshot predated the current
// layout and was discarded on open. Callers typically reseed sample data.
func (s *Store) LoadedStale() bool { return s.stale }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
