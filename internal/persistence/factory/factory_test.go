package factory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/chamada/internal/config"
	"github.com/example/chamada/internal/persistence"
)

func TestOpenSelectsDriver(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	tests := []struct {
		name string
		cfg  config.Config
		want persistence.Driver
	}{
		{name: "memory", cfg: config.Config{StoreDriver: "memory"}, want: persistence.DriverMemory},
		{name: "fs", cfg: config.Config{StoreDriver: "fs", FSRoot: filepath.Join(dir, "fs")}, want: persistence.DriverFS},
		{name: "sqlite", cfg: config.Config{StoreDriver: "sqlite", SQLiteDSN: filepath.Join(dir, "chamada.db")}, want: persistence.DriverSQLite},
		{name: "s3", cfg: config.Config{StoreDriver: "s3", S3: config.S3Config{Bucket: "b", Region: "us-east-1", Endpoint: "http://127.0.0.1:1", PathStyle: true}}, want: persistence.DriverS3},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			backend, err := Open(context.Background(), tt.cfg)
			if err != nil {
				t.Fatalf("Open returned error: %v", err)
			}
			defer backend.Close()
			if backend.Driver() != tt.want {
				t.Fatalf("expected driver %q, got %q", tt.want, backend.Driver())
			}
		})
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(context.Background(), config.Config{StoreDriver: "mongo"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
