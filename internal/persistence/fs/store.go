// Package fs stores snapshots as files under a root directory. Each snapshot
// is one ".snap" envelope holding the payload together with its checksum.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/chamada/internal/persistence"
)

// Store implements persistence.SnapshotStore on the local filesystem.
// Writes go through a temp file and a rename so a crash never leaves a
// half-written payload behind.
type Store struct {
	root   string
	now    func() time.Time
	rename func(oldpath, newpath string) error
}

var _ persistence.SnapshotStore = (*Store)(nil)

// New returns a filesystem store rooted at root, creating it if needed.
func New(root string) (*Store, error) {
	if root == "" {
		root = "./data"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("fs: create root: %w", err)
	}
	return &Store{root: root, now: time.Now, rename: os.Rename}, nil
}

func (s *Store) Driver() persistence.Driver { return persistence.DriverFS }

// envelope is committed with a single rename, so the checksum can never
// describe a payload other than the one stored beside it.
type envelope struct {
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
	Payload   []byte    `json:"payload"`
}

// sanitizeKey forbids keys that would escape the root directory.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("fs: empty key")
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("fs: invalid key %q contains '..'", key)
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("fs: invalid absolute key %q", key)
	}
	return filepath.ToSlash(filepath.Clean(key)), nil
}

// pathFor returns the envelope path and the path of a bare payload file,
// which is read when no envelope exists (snapshots copied in by hand).
func (s *Store) pathFor(key string) (snapPath, rawPath string, err error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return "", "", err
	}
	base := filepath.Join(s.root, k)
	return base + ".snap", base + ".json", nil
}

func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snapPath, rawPath, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(snapPath)
	if errors.Is(err, iofs.ErrNotExist) {
		return readRaw(key, rawPath)
	}
	if err != nil {
		return nil, fmt.Errorf("fs: read %q: %w", key, err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("fs: read %q: %w: %v", key, persistence.ErrCorrupt, err)
	}
	if err := persistence.VerifyChecksum(env.Payload, env.Checksum); err != nil {
		return nil, fmt.Errorf("fs: read %q: %w", key, err)
	}
	return env.Payload, nil
}

func readRaw(key, path string) ([]byte, error) {
	payload, err := os.ReadFile(path)
	if errors.Is(err, iofs.ErrNotExist) {
		return nil, fmt.Errorf("fs: read %q: %w", key, persistence.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fs: read %q: %w", key, err)
	}
	return payload, nil
}

func (s *Store) Write(ctx context.Context, key string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snapPath, rawPath, err := s.pathFor(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(snapPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("fs: write %q: %w", key, err)
	}
	env := envelope{
		Checksum:  persistence.Checksum(payload),
		Size:      int64(len(payload)),
		UpdatedAt: s.now().UTC(),
		Payload:   payload,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("fs: write %q: %w", key, err)
	}
	if err := s.writeAtomic(dir, snapPath, data); err != nil {
		return fmt.Errorf("fs: write %q: %w", key, err)
	}
	// The envelope now shadows any hand-copied payload.
	_ = os.Remove(rawPath)
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snapPath, rawPath, err := s.pathFor(key)
	if err != nil {
		return err
	}
	for _, path := range []string{snapPath, rawPath} {
		if err := os.Remove(path); err != nil && !errors.Is(err, iofs.ErrNotExist) {
			return fmt.Errorf("fs: delete %q: %w", key, err)
		}
	}
	return nil
}

func (s *Store) writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return s.rename(tmp.Name(), path)
}
