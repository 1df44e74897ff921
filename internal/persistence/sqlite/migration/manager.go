package migration

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
)

// Manager applies the migrations of an fs.FS through an Executor.
type Manager struct {
	files    fs.FS
	executor Executor
	logger   *slog.Logger
}

// NewManager creates a Manager. A nil logger falls back to slog.Default.
func NewManager(files fs.FS, executor Executor, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{files: files, executor: executor, logger: logger.With("component", "migration")}
}

// Run applies every pending migration in version order and returns how many
// were applied.
func (m *Manager) Run(ctx context.Context) (int, error) {
	status, err := m.Status(ctx)
	if err != nil {
		return 0, err
	}
	m.logger.DebugContext(ctx, "schema version", "current", status.CurrentVersion, "pending", len(status.Pending))

	for _, migration := range status.Pending {
		elapsed, err := m.executor.Apply(ctx, migration)
		if err != nil {
			m.logger.ErrorContext(ctx, "migration failed", "version", migration.Version, "file", migration.Name, "error", err)
			return 0, fmt.Errorf("%w: %w", ErrMigrationFailed, err)
		}
		m.logger.InfoContext(ctx, "migration applied",
			"version", migration.Version,
			"description", migration.Description,
			"duration", elapsed,
		)
	}
	return len(status.Pending), nil
}

// Status compares the files against schema_migrations. Applied versions
// without a file, and applied files whose checksum changed, are errors.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	available, err := Scan(m.files)
	if err != nil {
		return Status{}, err
	}
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return Status{}, err
	}
	applied, err := m.executor.Applied(ctx)
	if err != nil {
		return Status{}, err
	}

	byVersion := make(map[int]Migration, len(available))
	for _, migration := range available {
		byVersion[migration.Version] = migration
	}

	status := Status{Applied: applied}
	done := make(map[int]bool, len(applied))
	for _, row := range applied {
		file, ok := byVersion[row.Version]
		if !ok {
			return Status{}, fmt.Errorf("%w: applied migration %03d has no file", ErrVersionConflict, row.Version)
		}
		if row.Checksum != "" && row.Checksum != file.Checksum {
			return Status{}, newMigrationError(file, "verify checksum", ErrChecksumMismatch)
		}
		done[row.Version] = true
		status.CurrentVersion = max(status.CurrentVersion, row.Version)
	}

	for _, migration := range available {
		if done[migration.Version] {
			continue
		}
		if migration.Version < status.CurrentVersion {
			return Status{}, newMigrationError(migration, "check order",
				fmt.Errorf("%w: version %03d is older than applied version %03d", ErrVersionConflict, migration.Version, status.CurrentVersion))
		}
		status.Pending = append(status.Pending, migration)
	}
	return status, nil
}
