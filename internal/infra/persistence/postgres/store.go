// Package postgres keeps the authoritative state in the embedded in-memory
// store and snapshots it into a JSONB bucket table after every committed
// transaction. Each collection gets one row keyed by bucket name.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"clubcore/internal/infra/persistence/memory"
	"clubcore/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

var _ domain.PersistentStore = (*Store)(nil)

const (
	driverName = "pgx"
	defaultDSN = "postgres://localhost/clubcore?sslmode=disable"
)

const stateDDL = `CREATE TABLE IF NOT EXISTS state (
	bucket TEXT PRIMARY KEY,
	payload JSONB NOT NULL
)`

// buckets maps a snapshot field to its row. The marshal/unmarshal pair keeps
// loadSnapshot and persist symmetric without reflection.
var buckets = []struct {
	name      string
	marshal   func(memory.Snapshot) ([]byte, error)
	unmarshal func(*memory.Snapshot, []byte) error
}{
	{"persons",
		func(s memory.Snapshot) ([]byte, error) { return json.Marshal(s.Persons) },
		func(s *memory.Snapshot, b []byte) error { return json.Unmarshal(b, &s.Persons) }},
	{"resources",
		func(s memory.Snapshot) ([]byte, error) { return json.Marshal(s.Resources) },
		func(s *memory.Snapshot, b []byte) error { return json.Unmarshal(b, &s.Resources) }},
	{"menu_items",
		func(s memory.Snapshot) ([]byte, error) { return json.Marshal(s.MenuItems) },
		func(s *memory.Snapshot, b []byte) error { return json.Unmarshal(b, &s.MenuItems) }},
	{"ownerships",
		func(s memory.Snapshot) ([]byte, error) { return json.Marshal(s.Ownerships) },
		func(s *memory.Snapshot, b []byte) error { return json.Unmarshal(b, &s.Ownerships) }},
	{"work_relations",
		func(s memory.Snapshot) ([]byte, error) { return json.Marshal(s.WorkRelations) },
		func(s *memory.Snapshot, b []byte) error { return json.Unmarshal(b, &s.WorkRelations) }},
	{"reservations",
		func(s memory.Snapshot) ([]byte, error) { return json.Marshal(s.Reservations) },
		func(s *memory.Snapshot, b []byte) error { return json.Unmarshal(b, &s.Reservations) }},
	{"transfers",
		func(s memory.Snapshot) ([]byte, error) { return json.Marshal(s.Transfers) },
		func(s *memory.Snapshot, b []byte) error { return json.Unmarshal(b, &s.Transfers) }},
}

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store runs transactions through the embedded memory store and mirrors the
// committed state to postgres.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore connects with dsn (defaultDSN when empty), creates the state
// table if needed, and hydrates the memory store from any snapshot already
// present.
func NewStore(dsn string, engine *domain.RulesEngine) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(driverName, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, stateDDL); err != nil {
		return nil, fmt.Errorf("ensure state table: %w", err)
	}
	snapshot, err := loadSnapshot(ctx, db)
	if err != nil {
		return nil, err
	}
	mem := memory.NewStore(engine)
	mem.ImportState(snapshot)
	return &Store{Store: mem, db: db}, nil
}

// RunInTransaction defers to the memory store and, when the commit
// succeeds, writes the resulting snapshot to postgres.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	return res, s.persist(ctx)
}

// DB exposes the handle for integration tests.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

func loadSnapshot(ctx context.Context, db *sql.DB) (memory.Snapshot, error) {
	rows, err := db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return memory.Snapshot{}, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	byName := make(map[string]func(*memory.Snapshot, []byte) error, len(buckets))
	for _, b := range buckets {
		byName[b.name] = b.unmarshal
	}

	var snapshot memory.Snapshot
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return memory.Snapshot{}, fmt.Errorf("scan state: %w", err)
		}
		decode, ok := byName[bucket]
		if !ok || len(payload) == 0 {
			continue
		}
		if err := decode(&snapshot, payload); err != nil {
			return memory.Snapshot{}, fmt.Errorf("decode %s: %w", bucket, err)
		}
	}
	if err := rows.Err(); err != nil {
		return memory.Snapshot{}, fmt.Errorf("iterate state: %w", err)
	}
	return snapshot, nil
}

// persist upserts every bucket in one sql transaction so a crash can never
// leave the table with collections from two different snapshots.
func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, b := range buckets {
		payload, err := b.marshal(snapshot)
		if err != nil {
			return fmt.Errorf("encode %s: %w", b.name, err)
		}
		const upsert = `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`
		if _, err := tx.ExecContext(ctx, upsert, b.name, payload); err != nil {
			return fmt.Errorf("upsert %s: %w", b.name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// OverrideSQLOpen swaps the open function for tests; the returned func
// restores it.
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
