package main

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

	"github.com/Lixing-Zhang/dog-diet/backend/internal/config"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/database"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/handlers"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/metrics"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/repository"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/tracing"
	"github.com/Lixing-Zhang/dog-diet/backend/pkg/logger"
)

func main() {
	// Load configuration from defaults, config file and environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting dog diet api server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"log_level", cfg.LogLevel,
	)

	ctx := context.Background()

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
	}, log)
	if err != nil {
		log.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	st, closeStores, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize catalog storage", "error", err)
		os.Exit(1)
	}
	defer closeStores()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// Create HTTP server
	addr := cfg.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      newRouter(cfg, st, m, log),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("failed to flush traces", "error", err)
	}

	log.Info("server stopped gracefully")
}

// openStores selects the catalog backends: Postgres when a DSN is configured,
// otherwise the built-in catalog, optionally fronted by Redis. A fixed-set
// YAML file overrides the fixed contributions of either backend.
func openStores(ctx context.Context, cfg *config.Config, log *slog.Logger) (stores, func(), error) {
	st := stores{checks: make(map[string]handlers.HealthCheck)}
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Postgres.DSN != "" {
		if cfg.Postgres.MigrateOnStart {
			if err := database.Migrate(cfg.Postgres.DSN); err != nil {
				return stores{}, nil, err
			}
			log.Info("database migrations applied")
		}

		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		pool, err := database.Connect(connectCtx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
		if err != nil {
			return stores{}, nil, err
		}
		closers = append(closers, pool.Close)

		st.ingredients = repository.NewPostgresIngredientRepository(pool)
		st.fixed = repository.NewPostgresFixedRepository(pool)
		st.checks["postgres"] = pool.Ping
		log.Info("using postgres catalog", "max_conns", cfg.Postgres.MaxConns)
	} else {
		fixed, err := repository.NewInMemoryFixedRepository(repository.SeedFixedIngredients())
		if err != nil {
			return stores{}, nil, err
		}
		st.ingredients = repository.NewSeededIngredientRepository()
		st.fixed = fixed
		log.Info("using built-in catalog", "ingredients", len(repository.SeedIngredients()))
	}

	if cfg.Catalog.FixedFile != "" {
		fixed, err := repository.LoadFixedYAML(cfg.Catalog.FixedFile)
		if err != nil {
			closeAll()
			return stores{}, nil, err
		}
		st.fixed = fixed
		log.Info("loaded fixed ingredients from file", "path", cfg.Catalog.FixedFile)
	}

	if cfg.Redis.Addr != "" {
		client, err := repository.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			closeAll()
			return stores{}, nil, err
		}
		closers = append(closers, func() { _ = client.Close() })

		st.ingredients = repository.NewCachedIngredientRepository(st.ingredients, client, cfg.Redis.TTL, log)
		st.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		log.Info("catalog cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	}

	return st, closeAll, nil
}
