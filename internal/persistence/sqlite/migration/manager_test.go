package migration

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestManagerRunAppliesPendingOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	files := fstest.MapFS{
		"001_people.sql": {Data: []byte("CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT);")},
		"002_seed.sql":   {Data: []byte("INSERT INTO people (name) VALUES ('Ana');\nINSERT INTO people (name) VALUES ('Bia');")},
	}
	manager := NewManager(files, NewSQLiteExecutor(db), quietLogger())

	applied, err := manager.Run(ctx)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if applied != 2 {
		t.Fatalf("expected 2 applied migrations, got %d", applied)
	}

	applied, err = manager.Run(ctx)
	if err != nil {
		t.Fatalf("second Run returned error: %v", err)
	}
	if applied != 0 {
		t.Fatalf("expected no pending migrations, got %d", applied)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM people`).Scan(&count); err != nil {
		t.Fatalf("count people: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected seed to run once, got %d rows", count)
	}

	status, err := manager.Status(ctx)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if status.CurrentVersion != 2 || len(status.Pending) != 0 || len(status.Applied) != 2 {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestManagerRollsBackFailedMigration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	files := fstest.MapFS{
		"001_ok.sql":     {Data: []byte("CREATE TABLE ok (id INTEGER);")},
		"002_broken.sql": {Data: []byte("CREATE TABLE half (id INTEGER);\nINSERT INTO missing VALUES (1);")},
	}
	manager := NewManager(files, NewSQLiteExecutor(db), quietLogger())

	if _, err := manager.Run(ctx); !errors.Is(err, ErrMigrationFailed) {
		t.Fatalf("expected ErrMigrationFailed, got %v", err)
	}

	status, err := manager.Status(ctx)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if status.CurrentVersion != 1 {
		t.Fatalf("expected version 1 after failure, got %d", status.CurrentVersion)
	}
	if len(status.Pending) != 1 || status.Pending[0].Version != 2 {
		t.Fatalf("expected migration 2 to stay pending, got %+v", status.Pending)
	}
	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'half'`).Scan(&name)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected partial table to be rolled back, got %v", err)
	}
}

func TestManagerDetectsDrift(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("edited file", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)
		original := fstest.MapFS{"001_a.sql": {Data: []byte("CREATE TABLE a (id INTEGER);")}}
		if _, err := NewManager(original, NewSQLiteExecutor(db), quietLogger()).Run(ctx); err != nil {
			t.Fatalf("Run returned error: %v", err)
		}

		edited := fstest.MapFS{"001_a.sql": {Data: []byte("CREATE TABLE a (id INTEGER, name TEXT);")}}
		_, err := NewManager(edited, NewSQLiteExecutor(db), quietLogger()).Run(ctx)
		if !errors.Is(err, ErrChecksumMismatch) {
			t.Fatalf("expected ErrChecksumMismatch, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)
		files := fstest.MapFS{
			"001_a.sql": {Data: []byte("CREATE TABLE a (id INTEGER);")},
			"002_b.sql": {Data: []byte("CREATE TABLE b (id INTEGER);")},
		}
		if _, err := NewManager(files, NewSQLiteExecutor(db), quietLogger()).Run(ctx); err != nil {
			t.Fatalf("Run returned error: %v", err)
		}

		delete(files, "002_b.sql")
		_, err := NewManager(files, NewSQLiteExecutor(db), quietLogger()).Run(ctx)
		if !errors.Is(err, ErrVersionConflict) {
			t.Fatalf("expected ErrVersionConflict, got %v", err)
		}
	})

	t.Run("file older than applied version", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)
		files := fstest.MapFS{"002_b.sql": {Data: []byte("CREATE TABLE b (id INTEGER);")}}
		if _, err := NewManager(files, NewSQLiteExecutor(db), quietLogger()).Run(ctx); err != nil {
			t.Fatalf("Run returned error: %v", err)
		}

		files["001_a.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE a (id INTEGER);")}
		_, err := NewManager(files, NewSQLiteExecutor(db), quietLogger()).Run(ctx)
		if !errors.Is(err, ErrVersionConflict) {
			t.Fatalf("expected ErrVersionConflict, got %v", err)
		}
	})
}

type stubExecutor struct {
	initErr error
	applied []AppliedMigration
	calls   []int
}

func (s *stubExecutor) InitializeVersionTable(context.Context) error { return s.initErr }

func (s *stubExecutor) Apply(_ context.Context, m Migration) (time.Duration, error) {
	s.calls = append(s.calls, m.Version)
	return time.Millisecond, nil
}

func (s *stubExecutor) Applied(context.Context) ([]AppliedMigration, error) { return s.applied, nil }

func TestManagerUsesExecutor(t *testing.T) {
	t.Parallel()
	files := fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"002_b.sql": {Data: []byte("SELECT 2;")},
		"003_c.sql": {Data: []byte("SELECT 3;")},
	}

	t.Run("skips applied versions", func(t *testing.T) {
		t.Parallel()
		exec := &stubExecutor{applied: []AppliedMigration{{Version: 1}}}
		applied, err := NewManager(files, exec, nil).Run(context.Background())
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		if applied != 2 || len(exec.calls) != 2 || exec.calls[0] != 2 || exec.calls[1] != 3 {
			t.Fatalf("unexpected apply calls %v (applied %d)", exec.calls, applied)
		}
	})

	t.Run("version table failure", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("read-only database")
		exec := &stubExecutor{initErr: boom}
		if _, err := NewManager(files, exec, nil).Run(context.Background()); !errors.Is(err, boom) {
			t.Fatalf("expected init error, got %v", err)
		}
		if len(exec.calls) != 0 {
			t.Fatalf("expected no migrations to run, got %v", exec.calls)
		}
	})
}
