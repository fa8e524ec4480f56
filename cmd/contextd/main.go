package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	ctxhttp "github.com/rakesh-nandakumar/contextd/internal/adapter/http"
	ctxnats "github.com/rakesh-nandakumar/contextd/internal/adapter/nats"
	"github.com/rakesh-nandakumar/contextd/internal/adapter/otel"
	"github.com/rakesh-nandakumar/contextd/internal/adapter/postgres"
	"github.com/rakesh-nandakumar/contextd/internal/adapter/ristretto"
	"github.com/rakesh-nandakumar/contextd/internal/config"
	"github.com/rakesh-nandakumar/contextd/internal/logger"
	"github.com/rakesh-nandakumar/contextd/internal/port/messagequeue"
	"github.com/rakesh-nandakumar/contextd/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLog := logger.New(cfg.Logging)
	defer closeLog.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
		"default_max_tokens", cfg.Retrieval.DefaultMaxTokens,
	)

	ctx := context.Background()

	// --- Infrastructure ---

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// In-process config cache
	cacheAdapter, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer cacheAdapter.Close()

	// NATS is optional: without it cache invalidation stays per-instance.
	var bus messagequeue.Bus
	if cfg.NATS.URL != "" {
		b, err := ctxnats.Connect(cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = b.Close() }()
		bus = b
		slog.Info("nats connected", "url", cfg.NATS.URL)
	}

	// Telemetry (no-op when no endpoint is configured)
	shutdownOtel, err := otel.Init(ctx, cfg.Telemetry, "contextd")
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownOtel(shutdownCtx)
	}()

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Services ---
	store := postgres.NewStore(pool)
	configSvc := service.NewManifestConfigService(store, cacheAdapter, bus, cfg.Retrieval.ConfigCacheTTL)
	retrievalSvc := service.NewRetrievalService(store, configSvc, cfg.Retrieval.SectionTimeout, cfg.Retrieval.DefaultMaxTokens, metrics)

	if bus != nil {
		cancelInvalidate, err := configSvc.StartInvalidationSubscriber(ctx)
		if err != nil {
			return fmt.Errorf("invalidation subscriber: %w", err)
		}
		defer cancelInvalidate()
	}

	// --- HTTP ---
	handlers := &ctxhttp.Handlers{
		Retrieval: retrievalSvc,
		Config:    configSvc,
	}

	r := chi.NewRouter()

	r.Use(ctxhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(ctxhttp.RequestID)
	r.Use(ctxhttp.Logger)
	r.Use(ctxhttp.SecurityHeaders)
	r.Use(otel.HTTPMiddleware("contextd"))
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/health", healthHandler(pool, cfg))

	ctxhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// healthHandler reports service health, including a live database ping.
func healthHandler(pool *pgxpool.Pool, cfg *config.Config) http.HandlerFunc {
	type healthStatus struct {
		Status   string `json:"status"`
		Postgres string `json:"postgres"`
		NATS     string `json:"nats"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		status := healthStatus{Status: "ok", Postgres: "ok", NATS: "disabled"}
		code := http.StatusOK

		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			status.Status = "degraded"
			status.Postgres = "unreachable"
			code = http.StatusServiceUnavailable
		}
		if cfg.NATS.URL != "" {
			status.NATS = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	}
}
