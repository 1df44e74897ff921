package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/text/language"

	"github.com/example/chamada/internal/persistence"
)

// DefaultSnapshotKey is the key the dataset is stored under.
const DefaultSnapshotKey = persistence.DefaultSnapshotKey

// Store owns the student directory and the session log. Every operation runs
// under one mutex, and every mutation is written through to the snapshot
// store before it becomes visible.
type Store struct {
	mu        sync.Mutex
	state     *state
	snapshots persistence.SnapshotStore
	key       string
	order     *ordering
	now       func() time.Time
	newID     func() int64
	location  *time.Location
	logger    *slog.Logger
	metrics   MetricsRecorder
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithLogger sets the base logger used when the context carries none.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDSource replaces the session id generator. Generated ids are still
// forced above every existing id.
func WithIDSource(next func() int64) StoreOption {
	return func(s *Store) { s.newID = next }
}

// WithLocale selects the collation used for ordering.
func WithLocale(tag language.Tag) StoreOption {
	return func(s *Store) { s.order = newOrdering(tag) }
}

// WithLocation sets the time zone audit times are rendered in.
func WithLocation(loc *time.Location) StoreOption {
	return func(s *Store) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithSnapshotKey overrides DefaultSnapshotKey.
func WithSnapshotKey(key string) StoreOption {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithMetrics installs a metrics recorder.
func WithMetrics(recorder MetricsRecorder) StoreOption {
	return func(s *Store) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// NewStore constructs an empty Store writing to snapshots. Call Load to
// hydrate it from an existing snapshot.
func NewStore(snapshots persistence.SnapshotStore, opts ...StoreOption) *Store {
	s := &Store{
		state:     newState(),
		snapshots: snapshots,
		key:       DefaultSnapshotKey,
		order:     newOrdering(language.BrazilianPortuguese),
		now:       time.Now,
		location:  time.Local,
		metrics:   noopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = defaultLogger(s.logger)
	if s.newID == nil {
		s.newID = func() int64 { return s.now().UnixMilli() }
	}
	return s
}

// OpenStore constructs a Store and loads the persisted snapshot.
func OpenStore(ctx context.Context, snapshots persistence.SnapshotStore, opts ...StoreOption) (*Store, error) {
	s := NewStore(snapshots, opts...)
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "Store", operation, attrs...)
}

// observe records the outcome of an operation; use it with defer.
func (s *Store) observe(ctx context.Context, operation string, started time.Time, err *error) {
	s.metrics.Observe(ctx, operation, *err == nil, time.Since(started))
}

// Load replaces the in-memory dataset with the persisted snapshot.
//
// A missing snapshot yields an empty dataset. A snapshot that fails its
// checksum or cannot be decoded is logged and discarded; the dataset is reset
// and Load returns nil. Backend failures are returned unchanged.
func (s *Store) Load(ctx context.Context) (err error) {
	defer s.observe(ctx, "Load", time.Now(), &err)
	logger := s.loggerWith(ctx, "Load", "snapshot_key", s.key, "driver", string(s.snapshots.Driver()))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to load snapshot", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := s.snapshots.Read(ctx, s.key)
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		s.state = newState()
		logger.InfoContext(ctx, "no snapshot found, starting empty")
		return nil
	case errors.Is(err, persistence.ErrCorrupt):
		s.reset(ctx, logger, err)
		return nil
	case err != nil:
		return fmt.Errorf("load snapshot: %w", err)
	}

	doc, decodeErr := persistence.DecodeDocument(payload)
	if decodeErr != nil {
		s.reset(ctx, logger, decodeErr)
		return nil
	}
	s.state = stateFromDocument(doc)
	s.metrics.ObserveSizes(len(s.state.students), len(s.state.sessions))
	logger.InfoContext(ctx, "snapshot loaded", "students", len(s.state.students), "sessions", len(s.state.sessions))
	return nil
}

func (s *Store) reset(ctx context.Context, logger *slog.Logger, cause error) {
	s.state = newState()
	s.metrics.ObserveSizes(0, 0)
	logger.ErrorContext(ctx, "discarding unreadable snapshot", "error", cause, "error_kind", ErrorKind(cause))
}

// Save writes the current dataset to the snapshot store.
func (s *Store) Save(ctx context.Context) (err error) {
	defer s.observe(ctx, "Save", time.Now(), &err)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, s.state)
}

// Clear empties both collections and removes the persisted snapshot.
func (s *Store) Clear(ctx context.Context) (err error) {
	defer s.observe(ctx, "Clear", time.Now(), &err)
	logger := s.loggerWith(ctx, "Clear", "snapshot_key", s.key)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to clear store", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "store cleared")
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.snapshots.Delete(ctx, s.key); err != nil {
		err = fmt.Errorf("delete snapshot: %w", err)
		return
	}
	s.state = newState()
	s.metrics.ObserveSizes(0, 0)
	return nil
}

// commit persists next and makes it the current dataset. On failure the
// current dataset is left untouched. Callers must hold s.mu.
func (s *Store) commit(ctx context.Context, next *state) error {
	if err := s.write(ctx, next); err != nil {
		return err
	}
	s.state = next
	s.metrics.ObserveSizes(len(next.students), len(next.sessions))
	return nil
}

func (s *Store) write(ctx context.Context, st *state) error {
	payload, err := persistence.EncodeDocument(documentFromState(st))
	if err != nil {
		return err
	}
	if err := s.snapshots.Write(ctx, s.key, payload); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	return nil
}

// auditNow renders the current time the way audit entries store it.
func (s *Store) auditNow() string {
	return s.now().In(s.location).Format(AuditTimeLayout)
}

// nextSessionID returns a fresh id above every id in st.
func (s *Store) nextSessionID(st *state) int64 {
	id := s.newID()
	if highest := st.maxSessionID(); id <= highest {
		id = highest + 1
	}
	return id
}
