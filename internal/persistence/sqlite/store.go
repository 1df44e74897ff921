// Package sqlite persists snapshots in a single-file SQLite database using the
// pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/example/chamada/internal/logging"
	"github.com/example/chamada/internal/persistence"
	"github.com/example/chamada/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the schema migrations of the snapshot database.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Store implements persistence.SnapshotStore on top of a ConnectionPool.
type Store struct {
	pool  *ConnectionPool
	retry *RetryHelper
	now   func() time.Time
}

var _ persistence.SnapshotStore = (*Store)(nil)

// Open creates the database described by config and applies pending schema
// migrations. Migration progress is logged to the logger carried by ctx.
func Open(ctx context.Context, config Config) (*Store, error) {
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	manager := migration.NewManager(Migrations(), migration.NewSQLiteExecutor(pool.DB()), logging.FromContext(ctx))
	if _, err := manager.Run(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return &Store{pool: pool, retry: NewRetryHelper(DefaultRetryConfig()), now: time.Now}, nil
}

func (s *Store) Driver() persistence.Driver { return persistence.DriverSQLite }

// Close releases the underlying connections.
func (s *Store) Close() error { return s.pool.Close() }

func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	var (
		payload  []byte
		checksum string
	)
	err := s.retry.WithRetry(ctx, func() error {
		return s.pool.DB().QueryRowContext(ctx, `SELECT payload, checksum FROM snapshots WHERE key = ?`, key).Scan(&payload, &checksum)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: read %q: %w", key, persistence.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: read %q: %w", key, err)
	}
	if err := persistence.VerifyChecksum(payload, checksum); err != nil {
		return nil, fmt.Errorf("sqlite: read %q: %w", key, err)
	}
	return payload, nil
}

func (s *Store) Write(ctx context.Context, key string, payload []byte) error {
	checksum := persistence.Checksum(payload)
	updatedAt := s.now().UTC().Format(time.RFC3339Nano)
	err := s.retry.WithRetry(ctx, func() error {
		return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `INSERT INTO snapshots (key, payload, checksum, updated_at, size_bytes) VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, checksum = excluded.checksum,
					updated_at = excluded.updated_at, size_bytes = excluded.size_bytes`,
				key, payload, checksum, updatedAt, len(payload))
			return err
		})
	})
	if err != nil {
		return fmt.Errorf("sqlite: write %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.retry.WithRetry(ctx, func() error {
		return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE key = ?`, key)
			return err
		})
	})
	if err != nil {
		return fmt.Errorf("sqlite: delete %q: %w", key, err)
	}
	return nil
}
