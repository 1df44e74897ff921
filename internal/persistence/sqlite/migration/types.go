package migration

import "time"

// Migration is one parsed migration file.
type Migration struct {
	Version     int
	Description string
	SQL         string
	Name        string // file name inside the migration FS
	Checksum    string
}

// AppliedMigration is a row of schema_migrations.
type AppliedMigration struct {
	Version       int
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}

// Status summarizes the schema state of a database.
type Status struct {
	CurrentVersion int // 0 when nothing is applied
	Applied        []AppliedMigration
	Pending        []Migration
}
