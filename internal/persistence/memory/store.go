// Package memory provides an in-process snapshot store used by tests and by
// the "memory" driver for throwaway sessions.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/example/chamada/internal/persistence"
)

type entry struct {
	payload  []byte
	checksum string
}

// Store keeps snapshots in a map guarded by a mutex.
type Store struct {
	mu       sync.RWMutex
	entries  map[string]entry
	writeErr error
}

var _ persistence.SnapshotStore = (*Store)(nil)

// New returns an empty memory store.
func New() *Store {
	return &Store{entries: make(map[string]entry)}
}

func (s *Store) Driver() persistence.Driver { return persistence.DriverMemory }

func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, fmt.Errorf("memory: read %q: %w", key, persistence.ErrNotFound)
	}
	if err := persistence.VerifyChecksum(e.payload, e.checksum); err != nil {
		return nil, fmt.Errorf("memory: read %q: %w", key, err)
	}
	return cloneBytes(e.payload), nil
}

func (s *Store) Write(ctx context.Context, key string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeErr != nil {
		return fmt.Errorf("memory: write %q: %w", key, s.writeErr)
	}
	s.entries[key] = entry{payload: cloneBytes(payload), checksum: persistence.Checksum(payload)}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Inject stores payload under key with an explicit checksum, bypassing
// Write. Tests use it to plant legacy or damaged snapshots.
func (s *Store) Inject(key string, payload []byte, checksum string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{payload: cloneBytes(payload), checksum: checksum}
}

// FailWrites makes every subsequent Write return err. Passing nil restores
// normal behaviour.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// Has reports whether a snapshot exists for key.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[key]
	return ok
}

// ErrInjected is a convenience error for FailWrites.
var ErrInjected = errors.New("memory: injected failure")

func cloneBytes(in []byte) []byte {
	if in == nil {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
