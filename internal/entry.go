// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/labelvault/internal/api"
	"github.com/starford/labelvault/internal/index"
	"github.com/starford/labelvault/internal/labelservice"
	"github.com/starford/labelvault/internal/labelstore"
	"github.com/starford/labelvault/internal/mcpserver"
	"github.com/starford/labelvault/internal/sse"
)

// Run starts the HTTP API, the SSE broker and the label file watcher, and
// blocks until ctx is cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("data_dir", cfg.Wallet.DataDir),
		slog.String("sqlite_path", cfg.IndexPath()),
		slog.Bool("auto_save", cfg.Wallet.AutoSave),
		slog.Bool("watch", cfg.Watch.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc, closeIndex, err := openService(cfg, logger, labelservice.WithNotifier(broker))
	if err != nil {
		return err
	}
	defer closeIndex()

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := os.Stat(cfg.Wallet.DataDir); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"data dir unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Watch.Enabled {
		g.Go(func() error {
			err := index.Watch(gCtx, cfg.Wallet.DataDir, svc.Checksum, cfg.Watch.Debounce, logger, svc.ExternalChange)
			if err != nil {
				logger.Error("watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		if err := svc.SaveIfDirty(shutdownCtx); err != nil {
			logger.Error("saving labels on shutdown failed", slog.String("error", err.Error()))
		}

		// Cancels gCtx so the watcher stops too.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

var errShutdown = errors.New("shutdown")

// RunMCP serves the label tools over MCP stdio until the client disconnects.
// Logs go to stderr because stdout carries the protocol.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	svc, closeIndex, err := openService(cfg, logger)
	if err != nil {
		return err
	}
	defer closeIndex()

	srv := mcpserver.New(svc, app.version)
	logger.Info("MCP server starting on stdio", slog.String("data_dir", cfg.Wallet.DataDir))
	serveErr := srv.ServeStdio()

	if err := svc.SaveIfDirty(context.Background()); err != nil {
		logger.Error("saving labels on exit failed", slog.String("error", err.Error()))
	}
	return serveErr
}

// openService opens the label store and search index for cfg. The returned
// func closes the index.
func openService(cfg *Config, logger *slog.Logger, opts ...labelservice.Option) (*labelservice.Service, func(), error) {
	if err := os.MkdirAll(cfg.Wallet.DataDir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}

	store, err := labelstore.Open(cfg.Wallet.DataDir, labelstore.WithLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("open labels: %w", err)
	}

	if temps, err := labelstore.OrphanedTemps(store.Provider()); err != nil {
		logger.Warn("listing temporary label files failed", slog.String("error", err.Error()))
	} else if len(temps) > 0 {
		logger.Warn("found temporary label files from an interrupted save, run doctor --clean to remove them",
			slog.Int("count", len(temps)))
	}

	db, err := index.Open(cfg.IndexPath())
	if err != nil {
		return nil, nil, fmt.Errorf("init index: %w", err)
	}

	opts = append([]labelservice.Option{
		labelservice.WithLogger(logger),
		labelservice.WithAutoSave(cfg.Wallet.AutoSave),
	}, opts...)
	svc, err := labelservice.NewService(store, db, opts...)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return svc, func() { db.Close() }, nil
}
