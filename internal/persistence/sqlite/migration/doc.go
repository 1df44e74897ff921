// Package migration applies versioned SQL files to a SQLite database.
//
// Migration files live in an fs.FS (usually an embed.FS) and are named
// {version}_{description}.sql, e.g. "001_snapshots.sql". Applied versions are
// tracked in the schema_migrations table together with the checksum of the
// file, so a migration that was edited after being applied is reported
// instead of silently skipped.
//
// Example usage:
//
//	manager := migration.NewManager(migrations, migration.NewExecutor(db), logger)
//	if _, err := manager.Run(ctx); err != nil {
//		return err
//	}
package migration
