package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	contracthandler "casedesk/internal/contract/handler"
	contractmetrics "casedesk/internal/contract/metrics"
	"casedesk/internal/contract/ports"
	contractservice "casedesk/internal/contract/service"
	contractstore "casedesk/internal/contract/store"
	"casedesk/internal/platform/cache"
	"casedesk/internal/platform/config"
	"casedesk/internal/platform/httpserver"
	"casedesk/internal/platform/logger"
	"casedesk/internal/platform/metrics"
	"casedesk/internal/platform/postgres"
	"casedesk/internal/platform/redis"
	"casedesk/internal/registry"
	registrystore "casedesk/internal/registry/store"
	"casedesk/pkg/platform/httputil"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

type infra struct {
	db    *sql.DB
	redis *redis.Client
}

func (i *infra) close() {
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.db != nil {
		_ = i.db.Close()
	}
}

func (i *infra) health(ctx context.Context) error {
	if i.db != nil {
		if err := i.db.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if i.redis != nil {
		if err := i.redis.Health(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := &infra{}
	defer deps.close()

	caseStore, caseTx, references, err := buildStores(ctx, cfg, log, deps)
	if err != nil {
		return err
	}

	referenceCache, err := buildCache(ctx, cfg, log, deps)
	if err != nil {
		return err
	}
	cachedReferences := registry.NewCachedSearch(references, referenceCache, cfg.RegistryCacheTTL)

	cases := contractservice.New(caseStore, caseTx, references,
		contractservice.WithLogger(log),
		contractservice.WithMetrics(contractmetrics.New()),
	)

	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.health(r.Context()); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	contracthandler.New(cases, cachedReferences, log, metrics.New()).
		WithTimeout(cfg.RequestTimeout).
		Register(router)

	srv := httpserver.New(cfg.Addr, router, cfg.RequestTimeout)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting casedesk", "addr", cfg.Addr, "postgres", deps.db != nil, "redis", deps.redis != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// buildStores picks PostgreSQL when DATABASE_URL is set and falls back to the
// in-memory stores otherwise.
func buildStores(ctx context.Context, cfg config.Server, log *slog.Logger, deps *infra) (ports.CaseStore, ports.CaseStoreTx, registry.Accessor, error) {
	if cfg.Database.URL == "" {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		cases := contractstore.NewInMemory()
		return cases, contractstore.NewInMemoryTx(cases).WithTimeout(cfg.TxTimeout), registrystore.NewInMemory(), nil
	}

	if cfg.Database.Migrate {
		if err := postgres.Migrate(cfg.Database.URL); err != nil {
			return nil, nil, nil, err
		}
	}
	db, err := postgres.Open(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	deps.db = db
	return contractstore.NewPostgres(db), contractstore.NewPostgresTx(db, cfg.TxTimeout), registrystore.NewPostgres(db), nil
}

func buildCache(ctx context.Context, cfg config.Server, log *slog.Logger, deps *infra) (cache.Cache, error) {
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if client == nil {
		log.Info("REDIS_URL not set, caching references in process", "ttl", cfg.RegistryCacheTTL)
		return cache.NewMemory(), nil
	}
	deps.redis = client
	return cache.NewRedis(client.Client, "casedesk:"), nil
}

