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
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/millwork/internal/api"
	"github.com/starford/millwork/internal/mcpserver"
	"github.com/starford/millwork/internal/pricing"
	"github.com/starford/millwork/internal/specservice"
	"github.com/starford/millwork/internal/sse"
	"github.com/starford/millwork/internal/storage"
)

// components are the pieces shared by the HTTP and MCP entry points.
type components struct {
	logger  *slog.Logger
	store   storage.Provider
	prices  *pricing.Reloading
	service *specservice.Service
}

func newComponents(cfg *Config, logOut io.Writer, opts ...specservice.Option) (*components, error) {
	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("storage_path", cfg.Storage.Path),
		slog.String("pricing_file", cfg.Pricing.File),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := openStore(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	prices, resolver := openPricing(cfg.Pricing, logger)

	opts = append(opts,
		specservice.WithCatalog(prices),
		specservice.WithShopCapacity(cfg.Pricing.ShopCapacityPerDay),
	)
	svc := specservice.NewService(store, resolver, logger, opts...)

	return &components{
		logger:  logger,
		store:   store,
		prices:  prices,
		service: svc,
	}, nil
}

func openStore(cfg StorageConfig) (storage.Provider, error) {
	switch cfg.Driver {
	case StorageDriverFS:
		return storage.NewFS(cfg.Path)
	case StorageDriverSQLite:
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		return storage.OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// openPricing returns the swappable table and the resolver the service
// prices with. A price file that cannot be read at startup is retried on
// each lookup until it loads; runs stay unpriced meanwhile.
func openPricing(cfg PricingConfig, logger *slog.Logger) (*pricing.Reloading, pricing.Resolver) {
	prices := pricing.NewReloading(pricing.DefaultTable())
	if cfg.File == "" {
		return prices, prices
	}

	tb, err := pricing.LoadTable(cfg.File)
	if err == nil {
		prices.Swap(tb)
		return prices, prices
	}

	logger.Warn("price table unavailable, will retry on lookup",
		slog.String("file", cfg.File),
		slog.String("error", err.Error()))
	return prices, pricing.NewLazy(func() (pricing.Resolver, error) {
		tb, err := pricing.LoadTable(cfg.File)
		if err != nil {
			return nil, err
		}
		prices.Swap(tb)
		return prices, nil
	})
}

// Run starts the HTTP application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(os.Stdout, opts...)
	if err != nil {
		return err
	}

	cfg := app.config

	// SSE broker.
	broker := sse.NewBroker(app.totalsThrottle)
	defer broker.Close()

	c, err := newComponents(cfg, app.logOut, specservice.WithPublisher(broker))
	if err != nil {
		return err
	}
	defer c.store.Close()
	logger := c.logger

	apiRouter := api.NewRouter(c.service, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
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
		if _, err := c.store.List(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Reload the price table on change and tell clients to refetch totals.
	if cfg.Pricing.Watch {
		g.Go(func() error {
			if err := pricing.Watch(gCtx, cfg.Pricing.File, c.prices, logger, broker.PublishPricingReloaded); err != nil {
				logger.Error("pricing watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

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

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the assistant tools over stdio. Logs go to stderr since
// stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(os.Stderr, opts...)
	if err != nil {
		return err
	}

	cfg := app.config

	c, err := newComponents(cfg, app.logOut)
	if err != nil {
		return err
	}
	defer c.store.Close()

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Pricing.Watch {
		g.Go(func() error {
			if err := pricing.Watch(gCtx, cfg.Pricing.File, c.prices, c.logger, nil); err != nil {
				c.logger.Error("pricing watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		c.logger.Info("MCP server starting on stdio")
		err := mcpserver.New(c.service).ServeStdio()
		if err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return errStdioClosed
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errStdioClosed) {
		return err
	}
	return nil
}

// errStdioClosed stops the watcher once the MCP client hangs up.
var errStdioClosed = errors.New("stdio closed")
