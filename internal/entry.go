// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/mdexplorer/internal/api"
	"github.com/starford/mdexplorer/internal/explorer"
	"github.com/starford/mdexplorer/internal/mcpserver"
	"github.com/starford/mdexplorer/internal/render"
	"github.com/starford/mdexplorer/internal/search"
	"github.com/starford/mdexplorer/internal/sse"
	"github.com/starford/mdexplorer/internal/storage"
	"github.com/starford/mdexplorer/internal/watcher"
)

const shutdownTimeout = 10 * time.Second

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// newExplorer builds the sandboxed store and the service on top of it.
func newExplorer(cfg *Config, logger *slog.Logger) (*storage.FS, *explorer.Service, error) {
	store, err := storage.NewFS(cfg.Explorer.Root, storage.WithMaxFileBytes(cfg.Explorer.MaxFileBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}
	searcher := search.NewSearcher(store,
		search.WithLogger(logger),
		search.WithMaxFileBytes(cfg.Explorer.MaxFileBytes),
	)
	svc := explorer.NewService(store, searcher, render.New(),
		explorer.WithSearchTimeout(cfg.Search.Timeout),
		explorer.WithLogger(logger),
	)
	return store, svc, nil
}

// newHTTPHandler assembles the full HTTP surface: health checks, the API
// under /api, and the UI page.
func newHTTPHandler(cfg *Config, svc *explorer.Service, events http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(api.CORS)
	r.NotFound(api.NotFound)
	r.MethodNotAllowed(api.MethodNotAllowed)

	// Health check endpoints.
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", api.NewRouter(svc, events))

	ui := api.NewUIHandler(cfg.Explorer.UIPath)
	r.Get("/", ui.ServeHTTP)
	r.Get("/index.html", ui.ServeHTTP)

	return r
}

// Run starts the HTTP server with the given options and blocks until ctx is
// cancelled or a termination signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(os.Stdout, cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("root", cfg.Explorer.Root),
		slog.String("ui_path", cfg.Explorer.UIPath),
		slog.Bool("watch", cfg.Watch.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, svc, err := newExplorer(cfg, logger)
	if err != nil {
		return err
	}

	var events http.Handler
	var broker *sse.Broker
	if cfg.Watch.Enabled {
		broker = sse.NewBroker(cfg.Watch.Throttle)
		defer broker.Close()
		events = broker
	}

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newHTTPHandler(cfg, svc, events),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	if broker != nil {
		g.Go(func() error {
			if err := watcher.Watch(gCtx, store, logger, broker.PublishChange); err != nil {
				// Live updates are optional; browsing keeps working without them.
				logger.Warn("watcher disabled", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		printBanner(app.banner, publicURL(cfg.App.HTTP), store.Root())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if broker != nil {
			// Close SSE streams first so Shutdown does not wait on them.
			broker.Close()
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group once shutdown has been initiated so the
// watcher stops together with the HTTP server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the explorer tools over stdio until the client disconnects.
// Logs go to stderr because stdout carries the protocol.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(os.Stderr, cfg.App.LogLevel)
	slog.SetDefault(logger)

	store, svc, err := newExplorer(cfg, logger)
	if err != nil {
		return err
	}

	logger.Info("MCP server starting", slog.String("root", store.Root()))
	if err := mcpserver.New(svc, app.version).ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
