// Package main starts the design-session HTTP server: graph mutations,
// requirement validation snapshots, stage lookup and the remote validation
// contract.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/archgraph/core/cmd/api/middleware"
	"github.com/archgraph/core/internal/config"
	"github.com/archgraph/core/internal/handlers"
	"github.com/archgraph/core/internal/logging"
	"github.com/archgraph/core/internal/remote"
	"github.com/archgraph/core/internal/routes"
	"github.com/archgraph/core/internal/session"
	"github.com/archgraph/core/internal/stage"
	"github.com/archgraph/core/internal/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	logger := logging.New(logging.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON, Service: "archgraph-api"})
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	handler, err := newRouter(cfg, logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newRouter assembles the full handler tree. A missing stages directory is
// not fatal: the server starts with an empty catalog.
func newRouter(cfg config.Config, logger *slog.Logger, reg *prometheus.Registry) (http.Handler, error) {
	catalog, err := stage.LoadDir(cfg.StagesDir, logger)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("stages directory not found, starting without stages", "dir", cfg.StagesDir)
		catalog, err = stage.NewCatalog(logger), nil
	}
	if err != nil {
		return nil, err
	}

	metrics := telemetry.NewMetrics(reg)
	bus := session.NewBus()
	bus.Subscribe(metrics.Observe)

	manager := session.NewManager(catalog,
		session.WithLogger(logger),
		session.WithBus(bus),
		session.WithStrictInvariants(cfg.StrictInvariants),
	)

	var rv session.RemoteValidator
	if cfg.RemoteValidatorURL != "" {
		rv = remote.NewClient(cfg.RemoteValidatorURL).WithTimeout(cfg.RemoteValidatorTimeout)
	}

	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger))

	routes.SetupRoutes(router, routes.Deps{
		Manager:   manager,
		Catalog:   catalog,
		Evaluator: remote.NewEvaluator(catalog, nil, logger),
		Sessions:  handlers.NewSessionHandler(manager, rv, metrics.ObserveRemote, logger),
		Gatherer:  reg,
	})

	return middleware.Cors(cfg.AllowedOrigin, router), nil
}
