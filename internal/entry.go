// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/notekeep/internal/api"
	"github.com/starford/notekeep/internal/noteservice"
	"github.com/starford/notekeep/internal/sse"
	"github.com/starford/notekeep/internal/storage"
	"github.com/starford/notekeep/internal/watcher"
)

// NewLogger returns a JSON slog logger writing to w at the configured level.
func NewLogger(cfg *Config, w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

// OpenService opens the storage root named by cfg and returns an initialized
// note service.
func OpenService(cfg *Config, logger *slog.Logger, opts ...noteservice.Option) (*noteservice.Service, error) {
	store, err := storage.NewFS(cfg.Storage.Root)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	opts = append([]noteservice.Option{noteservice.WithLogger(logger)}, opts...)
	svc := noteservice.NewService(store, opts...)
	if err := svc.Init(); err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	return svc, nil
}

// listenUnix listens on path, replacing a stale socket left by a previous run.
func listenUnix(path string) (net.Listener, error) {
	if info, err := os.Lstat(path); err == nil {
		if info.Mode()&fs.ModeSocket == 0 {
			return nil, fmt.Errorf("socket path %s exists and is not a socket", path)
		}
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("remove stale socket: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create socket dir: %w", err)
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}
	return ln, nil
}

// Run starts serve mode: the command shim on the configured unix socket, the
// body file watcher, and the change event broker.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{version: "dev"}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	if err := cfg.IPC.Validate(); err != nil {
		return fmt.Errorf("ipc: %w", err)
	}

	// Initialize structured JSON logger.
	logger := NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("socket", cfg.IPC.Socket),
		slog.String("storage_root", cfg.Storage.Root),
		slog.Bool("watch", cfg.Watch.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker receives every change published by the service.
	broker := sse.NewBroker(cfg.Events.Throttle)
	defer broker.Close()

	svc, err := OpenService(cfg, logger, noteservice.WithPublisher(broker))
	if err != nil {
		return err
	}
	report, err := svc.Reconcile(ctx)
	if err != nil {
		return err
	}
	logger.Info("startup reconcile done",
		slog.Int("checked", report.Checked),
		slog.Int("updated", len(report.Updated)),
		slog.Int("missing_body", len(report.MissingBody)),
		slog.Int("orphan_bodies", len(report.OrphanBodies)),
	)

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"status":"ok","version":%q}`, app.version)
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	ln, err := listenUnix(cfg.IPC.Socket)
	if err != nil {
		return err
	}
	defer os.Remove(cfg.IPC.Socket)

	httpServer := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(runCtx)

	// Start body file watcher.
	if cfg.Watch.Enabled {
		g.Go(func() error {
			notesDir := filepath.Join(svc.Root(), storage.NotesDir)
			return watcher.Watch(gCtx, notesDir, svc, cfg.Watch.Debounce, logger)
		})
	}

	// Start shim server.
	g.Go(func() error {
		logger.Info("Starting command shim", slog.String("socket", cfg.IPC.Socket))
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("shim server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shim server shutdown error", slog.String("error", err.Error()))
		}
		// Stops the watcher.
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
