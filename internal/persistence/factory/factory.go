// Package factory selects a snapshot backend from configuration.
package factory

import (
	"context"
	"fmt"
	"io"

	"github.com/example/chamada/internal/config"
	"github.com/example/chamada/internal/persistence"
	"github.com/example/chamada/internal/persistence/fs"
	"github.com/example/chamada/internal/persistence/memory"
	"github.com/example/chamada/internal/persistence/postgres"
	"github.com/example/chamada/internal/persistence/s3"
	"github.com/example/chamada/internal/persistence/sqlite"
)

// Backend is a snapshot store that owns resources to release on shutdown.
type Backend interface {
	persistence.SnapshotStore
	io.Closer
}

type nopCloser struct {
	persistence.SnapshotStore
}

func (nopCloser) Close() error { return nil }

// Open returns the backend named by cfg.StoreDriver.
func Open(ctx context.Context, cfg config.Config) (Backend, error) {
	switch persistence.Driver(cfg.StoreDriver) {
	case persistence.DriverSQLite, "":
		store, err := sqlite.Open(ctx, sqlite.DefaultConfig(cfg.SQLiteDSN))
		if err != nil {
			return nil, err
		}
		return store, nil
	case persistence.DriverPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	case persistence.DriverFS:
		store, err := fs.New(cfg.FSRoot)
		if err != nil {
			return nil, err
		}
		return nopCloser{store}, nil
	case persistence.DriverMemory:
		return nopCloser{memory.New()}, nil
	case persistence.DriverS3:
		store, err := s3.New(ctx, s3.Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			Prefix:    cfg.S3.Prefix,
			PathStyle: cfg.S3.PathStyle,
		})
		if err != nil {
			return nil, err
		}
		return nopCloser{store}, nil
	}
	return nil, fmt.Errorf("factory: unsupported store driver %q", cfg.StoreDriver)
}
