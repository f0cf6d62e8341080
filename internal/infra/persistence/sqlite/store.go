// Package sqlite snapshots the in-memory state into an embedded sqlite
// file. Every committed transaction rewrites one JSON row per collection;
// opening a store hydrates from whatever rows are present.
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

	"clubcore/internal/infra/persistence/memory"
	"clubcore/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

var _ domain.PersistentStore = (*Store)(nil)

// Store embeds the transactional memory store and mirrors its committed
// state to the sqlite file.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// collections pairs each bucket row with the snapshot field it serializes.
// The same map drives hydration and persistence, so the two can never
// disagree about bucket names.
func collections(s *memory.Snapshot) map[string]any {
	return map[string]any{
		"persons":        &s.Persons,
		"resources":      &s.Resources,
		"menu_items":     &s.MenuItems,
		"ownerships":     &s.Ownerships,
		"work_relations": &s.WorkRelations,
		"reservations":   &s.Reservations,
		"transfers":      &s.Transfers,
	}
}

// NewStore opens (or creates) the database at path, defaulting to
// clubcore.db in the working directory. Parent directories are created as
// needed.
func NewStore(path string, engine *domain.RulesEngine) (*Store, error) {
	if path == "" {
		path = "clubcore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	ddl := `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(engine), db: db, path: path}
	if err := s.hydrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// hydrate replays the stored buckets into the memory store. An empty table
// leaves the fresh store untouched.
func (s *Store) hydrate() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshot memory.Snapshot
	targets := collections(&snapshot)
	loaded := false
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan state: %w", err)
		}
		target, known := targets[bucket]
		if !known || len(payload) == 0 {
			continue
		}
		if err := json.Unmarshal(payload, target); err != nil {
			return fmt.Errorf("decode %s: %w", bucket, err)
		}
		loaded = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if loaded {
		s.ImportState(snapshot)
	}
	return nil
}

// persist writes every collection in one sql transaction. A failure rolls
// back, leaving the previous snapshot intact on disk.
func (s *Store) persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for bucket, collection := range collections(&snapshot) {
		payload, err := json.Marshal(collection)
		if err != nil {
			return fmt.Errorf("encode %s: %w", bucket, err)
		}
		const upsert = `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`
		if _, err := tx.Exec(upsert, bucket, payload); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	committed = true
	return nil
}

// RunInTransaction defers to the memory store and snapshots the committed
// state to disk.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	return res, s.persist()
}

// DB exposes the handle for integration tests.
func (s *Store) DB() *sql.DB { return s.db }

// Path reports the database file location.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
