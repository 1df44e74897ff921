package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/example/chamada/internal/application"
	"github.com/example/chamada/internal/config"
	"github.com/example/chamada/internal/logging"
	"github.com/example/chamada/internal/persistence/factory"
)

// Runtime is the loaded configuration, process logger and store a command
// works against.
type Runtime struct {
	Config config.Config
	Logger *slog.Logger
	Store  *application.Store

	backend factory.Backend
}

// StoreOpener builds a Runtime. storeOpts are appended to the defaults
// derived from configuration.
type StoreOpener func(ctx context.Context, opts *RootOptions, storeOpts ...application.StoreOption) (*Runtime, error)

// OpenRuntime loads the .env file and CHAMADA_* configuration, opens the
// configured snapshot backend and loads the store from it.
func OpenRuntime(ctx context.Context, opts *RootOptions, storeOpts ...application.StoreOption) (*Runtime, error) {
	if opts.EnvFile != "" {
		if err := config.LoadDotEnv(opts.EnvFile); err != nil {
			return nil, WrapExitError(ExitCommandError, "falha ao carregar configuração", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "falha ao carregar configuração", err)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "falha ao carregar configuração", err)
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := logging.New(os.Stderr, level, cfg.LogFormat)

	backend, err := factory.Open(ctx, cfg)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "falha ao abrir armazenamento", err)
	}

	defaults := []application.StoreOption{
		application.WithLogger(logger),
		application.WithLocale(cfg.Locale),
		application.WithSnapshotKey(cfg.SnapshotKey),
	}
	store, err := application.OpenStore(ctx, backend, append(defaults, storeOpts...)...)
	if err != nil {
		return nil, errors.Join(
			WrapExitError(ExitFailure, "falha ao carregar dados", err),
			backend.Close(),
		)
	}

	logger.Debug("store opened", "driver", cfg.StoreDriver, "students", store.StudentCount())
	return &Runtime{Config: cfg, Logger: logger, Store: store, backend: backend}, nil
}

// Context returns ctx carrying the runtime logger.
func (r *Runtime) Context(ctx context.Context) context.Context {
	return logging.ContextWithLogger(ctx, r.Logger)
}

// Close releases the snapshot backend.
func (r *Runtime) Close() error {
	if r == nil || r.backend == nil {
		return nil
	}
	return r.backend.Close()
}

func openRuntime(ctx context.Context, opts *RootOptions, storeOpts ...application.StoreOption) (*Runtime, error) {
	rt, err := opts.Open(ctx, opts, storeOpts...)
	if err != nil {
		return nil, err
	}
	if rt.Logger == nil {
		rt.Logger = slog.Default()
	}
	return rt, nil
}
