package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/example/chamada/internal/application"
	"github.com/example/chamada/internal/persistence"
	"github.com/example/chamada/internal/persistence/memory"
	"github.com/example/chamada/internal/persistence/sqlite"
)

// StoreHarness bundles a Store with the collaborators tests inspect.
type StoreHarness struct {
	Store     *application.Store
	Snapshots *memory.Store
	Clock     *Clock
	IDs       *IDSequence
}

// StoreOption configures NewStoreHarness.
type StoreOption func(*storeConfig)

type storeConfig struct {
	clock     *Clock
	ids       *IDSequence
	snapshots persistence.SnapshotStore
	logger    *slog.Logger
	extra     []application.StoreOption
}

// WithClock overrides the clock used by the store.
func WithClock(clock *Clock) StoreOption {
	return func(c *storeConfig) { c.clock = clock }
}

// WithIDs overrides the session id sequence.
func WithIDs(ids *IDSequence) StoreOption {
	return func(c *storeConfig) { c.ids = ids }
}

// WithSnapshots backs the store with snapshots instead of a fresh memory store.
func WithSnapshots(snapshots persistence.SnapshotStore) StoreOption {
	return func(c *storeConfig) { c.snapshots = snapshots }
}

// WithLogger sets the store logger. Tests default to a discarding logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(c *storeConfig) { c.logger = logger }
}

// WithStoreOptions forwards extra options to application.NewStore.
func WithStoreOptions(opts ...application.StoreOption) StoreOption {
	return func(c *storeConfig) { c.extra = append(c.extra, opts...) }
}

// NewStoreHarness builds a loaded Store with a stepping clock, sequential
// session ids, pt-BR collation and UTC audit times.
func NewStoreHarness(tb testing.TB, opts ...StoreOption) *StoreHarness {
	tb.Helper()

	cfg := storeConfig{
		clock:  NewSteppingClock(time.Time{}, time.Second),
		ids:    NewIDSequence(1),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	harness := &StoreHarness{Clock: cfg.clock, IDs: cfg.ids}
	if cfg.snapshots == nil {
		harness.Snapshots = memory.New()
		cfg.snapshots = harness.Snapshots
	} else if mem, ok := cfg.snapshots.(*memory.Store); ok {
		harness.Snapshots = mem
	}

	storeOpts := []application.StoreOption{
		application.WithClock(cfg.clock.NowFunc()),
		application.WithIDSource(cfg.ids.NextFunc()),
		application.WithLocale(language.BrazilianPortuguese),
		application.WithLocation(time.UTC),
		application.WithLogger(cfg.logger),
	}
	storeOpts = append(storeOpts, cfg.extra...)

	store, err := application.OpenStore(context.Background(), cfg.snapshots, storeOpts...)
	if err != nil {
		tb.Fatalf("failed to open store: %v", err)
	}
	harness.Store = store
	return harness
}

// NewSQLiteSnapshots opens a snapshot store on a temporary SQLite file and
// closes it when the test ends.
func NewSQLiteSnapshots(tb testing.TB) *sqlite.Store {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "chamada.db")
	store, err := sqlite.Open(context.Background(), sqlite.TempFileTestConfig(path))
	if err != nil {
		tb.Fatalf("failed to open sqlite snapshots: %v", err)
	}
	tb.Cleanup(func() { _ = store.Close() })
	return store
}
