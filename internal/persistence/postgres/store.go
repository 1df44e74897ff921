// Package postgres persists snapshots in a Postgres table through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/example/chamada/internal/persistence"
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/chamada?sslmode=disable"

	schema = `CREATE TABLE IF NOT EXISTS snapshots (
		key TEXT PRIMARY KEY,
		payload BYTEA NOT NULL,
		checksum TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// OverrideSQLOpen swaps the function used to open connections and returns a
// restore func. Tests use it to plug in a stub driver.
func OverrideSQLOpen(fn func(driverName, dsn string) (*sql.DB, error)) func() {
	openMu.Lock()
	prev := sqlOpen
	sqlOpen = fn
	openMu.Unlock()
	return func() {
		openMu.Lock()
		sqlOpen = prev
		openMu.Unlock()
	}
}

// Store implements persistence.SnapshotStore on Postgres.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ persistence.SnapshotStore = (*Store)(nil)

// Open connects to dsn (falls back to a localhost default) and ensures the
// snapshot table exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ensure snapshots table: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Driver() persistence.Driver { return persistence.DriverPostgres }

// DB exposes the underlying handle for integration tests.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	var (
		payload  []byte
		checksum string
	)
	err := s.db.QueryRowContext(ctx, `SELECT payload, checksum FROM snapshots WHERE key = $1`, key).Scan(&payload, &checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("postgres: read %q: %w", key, persistence.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: read %q: %w", key, err)
	}
	if err := persistence.VerifyChecksum(payload, checksum); err != nil {
		return nil, fmt.Errorf("postgres: read %q: %w", key, err)
	}
	return payload, nil
}

func (s *Store) Write(ctx context.Context, key string, payload []byte) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO snapshots (key, payload, checksum, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, checksum = EXCLUDED.checksum, updated_at = EXCLUDED.updated_at`,
		key, payload, persistence.Checksum(payload), s.now().UTC())
	if err != nil {
		return fmt.Errorf("postgres: write %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE key = $1`, key); err != nil {
		return fmt.Errorf("postgres: delete %q: %w", key, err)
	}
	return nil
}
