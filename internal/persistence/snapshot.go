package persistence

import "context"

// DefaultSnapshotKey is the key the roster snapshot is stored under.
const DefaultSnapshotKey = "chamada_db_v3"

// Driver identifies a concrete snapshot backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"   // single-file database (default)
	DriverPostgres Driver = "postgres" // shared database server
	DriverFS       Driver = "fs"       // files holding payload and checksum together
	DriverMemory   Driver = "memory"   // process memory (tests)
	DriverS3       Driver = "s3"       // S3 / MinIO compatible object storage
)

// SnapshotStore persists opaque snapshot payloads addressed by key.
//
// Implementations store a checksum next to every payload and must return
// ErrCorrupt from Read when it does not match, and ErrNotFound when no
// snapshot exists for the key. Write overwrites; Delete is idempotent.
type SnapshotStore interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, payload []byte) error
	Delete(ctx context.Context, key string) error
	Driver() Driver
}
