package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/cosmic-watch-service/internal/adapter/cache"
	"github.com/couchcryptid/cosmic-watch-service/internal/adapter/chat"
	httpadapter "github.com/couchcryptid/cosmic-watch-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/cosmic-watch-service/internal/adapter/kafka"
	"github.com/couchcryptid/cosmic-watch-service/internal/adapter/neows"
	"github.com/couchcryptid/cosmic-watch-service/internal/adapter/store"
	"github.com/couchcryptid/cosmic-watch-service/internal/auth"
	"github.com/couchcryptid/cosmic-watch-service/internal/config"
	"github.com/couchcryptid/cosmic-watch-service/internal/domain"
	"github.com/couchcryptid/cosmic-watch-service/internal/observability"
	"github.com/couchcryptid/cosmic-watch-service/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"
)

// watchlistStore is what both storage drivers provide.
type watchlistStore interface {
	domain.WatchlistStore
	domain.UserStore
	observability.Pinger
	Close() error
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, metrics); err != nil {
		logger.Error("service failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	ctx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	var checks []sharedobs.ReadinessChecker

	// Feed source, optionally behind a response cache.
	var feed domain.FeedSource = neows.NewClient(cfg.NeoWsBaseURL, cfg.NASAAPIKey, cfg.NeoWsTimeout, metrics, logger)
	switch cfg.FeedCache {
	case "memory":
		feed = neows.NewCachedFeed(feed, cache.NewMemory(cfg.FeedCacheTTL, cfg.FeedCacheTTL), cfg.FeedCacheTTL, metrics, logger)
	case "redis":
		rc, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "cosmicwatch:")
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer closeWith(logger, "redis", rc.Close)
		feed = neows.NewCachedFeed(feed, rc, cfg.FeedCacheTTL, metrics, logger)
		checks = append(checks, observability.PingReadiness("redis", rc))
	}
	logger.Info("feed cache configured", "backend", cfg.FeedCache, "ttl", cfg.FeedCacheTTL)

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeWith(logger, "watchlist store", st.Close)
	checks = append(checks, observability.PingReadiness("watchlist store", st))

	verifier, err := auth.NewVerifierFromFiles(cfg.AuthJWTSecret, cfg.AuthJWTPublicKeyFile, cfg.AuthIssuer, cfg.AuthAudience)
	if err != nil {
		return err
	}

	scorer := pipeline.NewScorer(logger, metrics)
	hub := chat.NewHub(cfg.ChatMaxMessageLen, chat.DefaultQueueSize, logger, metrics)

	var scanner *pipeline.Pipeline
	if cfg.AlertsEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer closeWith(logger, "kafka writer", writer.Close)
		seen := cache.NewMemory(pipeline.DedupeTTL, time.Hour)
		scanner = pipeline.New(feed, scorer, writer, seen, logger, metrics, pipeline.Options{
			Interval:   cfg.AlertScanInterval,
			WindowDays: cfg.AlertWindowDays,
		})
		checks = append(checks, scanner)
	} else {
		logger.Info("hazard alerts disabled")
	}

	srv := httpadapter.NewServer(httpadapter.Config{
		Addr:               cfg.HTTPAddr,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	}, httpadapter.Deps{
		Feed:      feed,
		Scorer:    scorer,
		Watchlist: st,
		Users:     st,
		Verifier:  verifier,
		Chat:      hub,
		Metrics:   metrics,
	}, observability.AllReady(checks...), logger)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	scanDone := make(chan struct{})
	go func() {
		defer close(scanDone)
		if scanner == nil {
			return
		}
		if err := scanner.Run(ctx); err != nil {
			logger.Error("alert scanner error", "error", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
		logger.Error("http server error", "error", runErr)
	}
	logger.Info("shutting down")
	cancelRun()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-scanDone:
	case <-shutdownCtx.Done():
		logger.Warn("alert scanner did not stop before shutdown timeout")
	}

	logger.Info("shutdown complete")
	return runErr
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (watchlistStore, error) {
	switch cfg.WatchlistDriver {
	case "postgres":
		pg, err := store.OpenPostgres(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		logger.Info("watchlist store ready", "driver", "postgres")
		return pg, nil
	default:
		lite, err := store.OpenSQLite(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		logger.Info("watchlist store ready", "driver", "sqlite", "path", cfg.DatabaseURL)
		return lite, nil
	}
}

func closeWith(logger *slog.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Error("close error", "component", name, "error", err)
	}
}
