package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/CriativoDevs/salonix-gateway/internal/cache"
	"github.com/CriativoDevs/salonix-gateway/internal/config"
	"github.com/CriativoDevs/salonix-gateway/internal/gateway"
	"github.com/CriativoDevs/salonix-gateway/internal/platform/logging"
	"github.com/CriativoDevs/salonix-gateway/internal/salonapi"
	"github.com/CriativoDevs/salonix-gateway/internal/server"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// setupStore selects the bucket store: Redis when configured, otherwise
// a process-local in-memory store. The returned probe backs /health/ready.
func setupStore(ctx context.Context, cfg *config.Config) (cache.BucketStore, func(context.Context) error, func()) {
	if cfg.RedisURL == "" {
		slog.Info("REDIS_URL not set, using in-memory cache store")
		noop := func(context.Context) error { return nil }
		return cache.NewMemoryStore(), noop, func() {}
	}

	client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	probe := func(ctx context.Context) error { return client.Ping(ctx).Err() }
	closer := func() { _ = client.Close() }
	return cache.NewRedisStore(client), probe, closer
}

func setupWorker(ctx context.Context, cfg *config.Config, store cache.BucketStore, supervisor *gateway.Supervisor, clock clockwork.Clock) {
	worker, err := gateway.NewWorker(gateway.Config{
		Version:   cfg.CacheVersion,
		OriginURL: cfg.OriginURL,
		APIURL:    cfg.UpstreamURL,
		APIPrefix: cfg.APIPrefix,
		Store:     store,
		Clock:     clock,
	})
	if err != nil {
		slog.Error("Failed to create cache worker", "error", err)
		os.Exit(1)
	}

	installCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()
	if err := supervisor.Update(installCtx, worker, true); err != nil {
		slog.Error("Failed to install cache worker", "version", cfg.CacheVersion, "error", err)
		os.Exit(1)
	}
	slog.Info("Cache worker active", "version", cfg.CacheVersion)
}

func runGracefulShutdown(srv *server.Server, closeStore func()) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		closeStore()
		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	store, probe, closeStore := setupStore(context.Background(), cfg)

	api, err := salonapi.NewClient(cfg.UpstreamURL)
	if err != nil {
		slog.Error("Failed to create upstream client", "error", err)
		os.Exit(1)
	}

	supervisor := gateway.NewSupervisor()
	setupWorker(context.Background(), cfg, store, supervisor, clock)

	srv := server.NewServer(cfg, api, supervisor, clock, probe)

	done := runGracefulShutdown(srv, closeStore)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
