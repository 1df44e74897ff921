package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/example/chamada/internal/persistence"
)

// stubConn emulates the handful of statements the snapshot store issues.
type stubConn struct {
	mu       sync.Mutex
	rows     map[string][2]any
	execs    []string
	failPing bool
}

func (c *stubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }
func (c *stubConn) Close() error                        { return nil }
func (c *stubConn) Begin() (driver.Tx, error)           { return nil, fmt.Errorf("not implemented") }

func (c *stubConn) Ping(context.Context) error {
	if c.failPing {
		return errors.New("ping fail")
	}
	return nil
}

func (c *stubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.execs = append(c.execs, query)
	q := strings.ToUpper(strings.TrimSpace(query))
	switch {
	case strings.HasPrefix(q, "INSERT INTO SNAPSHOTS"):
		c.rows[args[0].Value.(string)] = [2]any{args[1].Value, args[2].Value}
	case strings.HasPrefix(q, "DELETE FROM SNAPSHOTS"):
		delete(c.rows, args[0].Value.(string))
	}
	return driver.RowsAffected(1), nil
}

func (c *stubConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	row, ok := c.rows[args[0].Value.(string)]
	if !ok {
		return &stubRows{}, nil
	}
	return &stubRows{values: [][]driver.Value{{row[0], row[1]}}}, nil
}

type stubRows struct {
	values [][]driver.Value
	pos    int
}

func (r *stubRows) Columns() []string { return []string{"payload", "checksum"} }
func (r *stubRows) Close() error      { return nil }
func (r *stubRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.values) {
		return io.EOF
	}
	copy(dest, r.values[r.pos])
	r.pos++
	return nil
}

type stubDriver struct{ conn *stubConn }

func (d *stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

var stubSeq atomic.Int64

func openStub(t *testing.T) (*Store, *stubConn) {
	t.Helper()
	conn := &stubConn{rows: make(map[string][2]any)}
	name := fmt.Sprintf("stubpg%d", stubSeq.Add(1))
	sql.Register(name, &stubDriver{conn: conn})
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return sql.Open(name, "stub") })
	t.Cleanup(restore)

	store, err := Open(context.Background(), "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, conn
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, conn := openStub(t)

	if len(conn.execs) == 0 || !strings.Contains(conn.execs[0], "CREATE TABLE IF NOT EXISTS snapshots") {
		t.Fatalf("expected schema to be ensured, got %v", conn.execs)
	}
	if store.Driver() != persistence.DriverPostgres {
		t.Fatalf("unexpected driver %q", store.Driver())
	}
	if _, err := store.Read(ctx, "chamada_db_v3"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.Write(ctx, "chamada_db_v3", []byte(`{"attendance":[]}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := store.Read(ctx, "chamada_db_v3")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != `{"attendance":[]}` {
		t.Fatalf("unexpected payload %q", got)
	}
	if err := store.Delete(ctx, "chamada_db_v3"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Read(ctx, "chamada_db_v3"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestStoreDetectsChecksumMismatch(t *testing.T) {
	store, conn := openStub(t)
	conn.rows["k"] = [2]any{[]byte("payload"), persistence.Checksum([]byte("different"))}

	if _, err := store.Read(context.Background(), "k"); !errors.Is(err, persistence.ErrCorrupt) {
		t.Fatalf("expected corrupt error, got %v", err)
	}
}

func TestOpenFailsWhenPingFails(t *testing.T) {
	conn := &stubConn{rows: make(map[string][2]any), failPing: true}
	name := fmt.Sprintf("stubpg%d", stubSeq.Add(1))
	sql.Register(name, &stubDriver{conn: conn})
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return sql.Open(name, "stub") })
	defer restore()

	if _, err := Open(context.Background(), "postgres://example"); err == nil || !strings.Contains(err.Error(), "ping") {
		t.Fatalf("expected ping failure, got %v", err)
	}
}
