package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/chamada/internal/application"
	httptransport "github.com/example/chamada/internal/http"
	"github.com/example/chamada/internal/importer"
	"github.com/example/chamada/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Port int
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the chamada HTTP API on CHAMADA_HTTP_PORT (default 8080).

The process stops gracefully on SIGINT or SIGTERM.

Example:
  chamada serve
  chamada serve --port 9090 --env-file ./prod.env`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "HTTP port (overrides CHAMADA_HTTP_PORT)")

	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions) error {
	if opts.Port < 0 || opts.Port > 65535 {
		return NewExitError(ExitCommandError, fmt.Sprintf("porta inválida: %d", opts.Port))
	}

	recorder := metrics.NewRecorder()
	rt, err := openRuntime(ctx, opts.RootOptions, application.WithMetrics(recorder))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil {
			rt.Logger.Error("failed to close storage", "error", cerr)
		}
	}()

	port := rt.Config.HTTPPort
	if opts.Port != 0 {
		port = opts.Port
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           NewServerHandler(rt, recorder),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.Logger.Error("failed to shutdown server", "error", err)
		}
	}()

	rt.Logger.Info("chamada API listening", "addr", server.Addr, "driver", rt.Config.StoreDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return WrapExitError(ExitFailure, "falha no servidor HTTP", err)
	}
	rt.Logger.Info("chamada API stopped")
	return nil
}

// NewServerHandler assembles the HTTP API around rt.Store.
func NewServerHandler(rt *Runtime, recorder *metrics.Recorder) http.Handler {
	logger := rt.Logger
	imp := importer.New(rt.Store, importer.WithLogger(logger))

	cfg := httptransport.RouterConfig{
		Students:   httptransport.NewStudentHandler(rt.Store, imp, logger),
		Sessions:   httptransport.NewSessionHandler(rt.Store, logger),
		Catalog:    httptransport.NewCatalogHandler(rt.Store, logger),
		Admin:      httptransport.NewAdminHandler(rt.Store, logger),
		Middleware: []func(http.Handler) http.Handler{httptransport.RequestLogger(logger), httptransport.Recover(logger)},
	}
	if recorder != nil {
		cfg.Metrics = recorder.Handler()
	}
	return httptransport.NewRouter(cfg)
}
