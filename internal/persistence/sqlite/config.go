package sqlite

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Config holds SQLite-specific connection settings.
type Config struct {
	// DSN is the database file path or ":memory:".
	DSN string

	// BusyTimeout sets how long to wait for database locks.
	BusyTimeout time.Duration

	// JournalMode sets the SQLite journal mode (WAL, DELETE, TRUNCATE, etc.).
	JournalMode string

	// Synchronous sets the synchronous mode (FULL, NORMAL, OFF).
	Synchronous string

	// CacheSize sets the page cache size in KB (negative for pages).
	CacheSize int

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// connectionManager opens and configures SQLite connections.
type connectionManager struct {
	config Config
}

func newConnectionManager(config Config) *connectionManager {
	return &connectionManager{config: config}
}

// open returns a configured database handle.
func (cm *connectionManager) open() (*sql.DB, error) {
	if err := cm.validate(); err != nil {
		return nil, fmt.Errorf("invalid SQLite configuration: %w", err)
	}
	if err := cm.createDatabaseFile(); err != nil {
		return nil, fmt.Errorf("failed to create database file: %w", err)
	}

	db, err := sql.Open("sqlite", cm.dataSourceName())
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if cm.config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cm.config.MaxOpenConns)
	}
	if cm.config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cm.config.MaxIdleConns)
	}
	if cm.config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cm.config.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	return db, nil
}

// dataSourceName appends the PRAGMA settings as _pragma query parameters.
// The driver runs them on every new connection, so pooled and recycled
// connections all share the same settings.
func (cm *connectionManager) dataSourceName() string {
	pragmas := []string{fmt.Sprintf("busy_timeout(%d)", cm.config.BusyTimeout.Milliseconds())}
	if cm.config.JournalMode != "" {
		pragmas = append(pragmas, "journal_mode("+cm.config.JournalMode+")")
	}
	if cm.config.Synchronous != "" {
		pragmas = append(pragmas, "synchronous("+cm.config.Synchronous+")")
	}
	if cm.config.CacheSize != 0 {
		pragmas = append(pragmas, fmt.Sprintf("cache_size(%d)", cm.config.CacheSize))
	}

	sep := "?"
	if strings.Contains(cm.config.DSN, "?") {
		sep = "&"
	}
	return cm.config.DSN + sep + url.Values{"_pragma": pragmas}.Encode()
}

// createDatabaseFile creates the database file and its directory if needed.
func (cm *connectionManager) createDatabaseFile() error {
	if cm.config.DSN == ":memory:" {
		return nil
	}
	dbDir := filepath.Dir(cm.config.DSN)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
	}
	if _, err := os.Stat(cm.config.DSN); err == nil {
		return nil
	}
	file, err := os.OpenFile(cm.config.DSN, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create database file %s: %w", cm.config.DSN, err)
	}
	return file.Close()
}

var (
	validJournalModes = map[string]bool{"DELETE": true, "TRUNCATE": true, "PERSIST": true, "MEMORY": true, "WAL": true, "OFF": true}
	validSyncModes    = map[string]bool{"OFF": true, "NORMAL": true, "FULL": true, "EXTRA": true}
)

// validate checks the configuration before any connection is opened.
func (cm *connectionManager) validate() error {
	c := cm.config
	switch {
	case c.DSN == "":
		return fmt.Errorf("DSN cannot be empty")
	case c.BusyTimeout < 0:
		return fmt.Errorf("BusyTimeout cannot be negative")
	case c.JournalMode != "" && !validJournalModes[c.JournalMode]:
		return fmt.Errorf("invalid journal mode: %s", c.JournalMode)
	case c.Synchronous != "" && !validSyncModes[c.Synchronous]:
		return fmt.Errorf("invalid synchronous mode: %s", c.Synchronous)
	case c.MaxOpenConns < 0:
		return fmt.Errorf("MaxOpenConns cannot be negative")
	case c.MaxIdleConns < 0:
		return fmt.Errorf("MaxIdleConns cannot be negative")
	case c.ConnMaxLifetime < 0:
		return fmt.Errorf("ConnMaxLifetime cannot be negative")
	}
	return nil
}

// DefaultConfig returns production defaults for a database at path.
func DefaultConfig(path string) Config {
	return Config{
		DSN:             path,
		BusyTimeout:     30 * time.Second,
		JournalMode:     "WAL",
		Synchronous:     "NORMAL",
		CacheSize:       -2000,
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// InMemoryTestConfig returns a configuration for a private in-memory database.
func InMemoryTestConfig() Config {
	return Config{
		DSN:             ":memory:",
		BusyTimeout:     5 * time.Second,
		JournalMode:     "MEMORY",
		Synchronous:     "OFF",
		CacheSize:       -1000,
		MaxOpenConns:    1, // every connection would get its own :memory: database
		MaxIdleConns:    1,
		ConnMaxLifetime: 0,
	}
}

// TempFileTestConfig returns a configuration for a throwaway database file.
func TempFileTestConfig(path string) Config {
	return Config{
		DSN:             path,
		BusyTimeout:     5 * time.Second,
		JournalMode:     "MEMORY",
		Synchronous:     "OFF",
		CacheSize:       -1000,
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}
}
