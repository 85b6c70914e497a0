// cmd/dashboard-server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"borehole-analytics/internal/common/config"
	"borehole-analytics/internal/common/database"
	"borehole-analytics/internal/common/logger"
	"borehole-analytics/internal/common/observability"
	"borehole-analytics/internal/insight"
	"borehole-analytics/internal/registry"
	"borehole-analytics/internal/server"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting dashboard server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New("dashboard-server")
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Optional upload registry (Postgres) ---
	var store *registry.Store
	if cfg.Registry.Enabled {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "PostgreSQL connection")

		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		store = registry.NewStore(pg, log)
		if err := store.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("registry schema setup failed", zap.Error(err))
		}
		zapLog.Info("Upload registry enabled")
	}

	// --- Optional insight cache (Redis) ---
	var cache insight.Cache
	if cfg.Insight.CacheTTL > 0 {
		var rdb *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()

		cache = insight.NewRedisCache(rdb, time.Duration(cfg.Insight.CacheTTL)*time.Second)
		zapLog.Info("Insight cache enabled", zap.Int("ttlSeconds", cfg.Insight.CacheTTL))
	}

	// --- Insight generator (Gemini) ---
	var generator insight.Generator
	if cfg.Insight.APIKey != "" {
		gen, err := insight.NewGeminiGenerator(ctx, cfg.Insight.APIKey, cfg.Insight.Model, cfg.Insight.Temperature)
		if err != nil {
			zapLog.Fatal("insight generator init failed", zap.Error(err))
		}
		generator = gen
		zapLog.Info("Insight generator configured", zap.String("model", cfg.Insight.Model))
	} else {
		zapLog.Warn("AI_STUDIO_API_KEY not set, insight endpoint disabled")
	}

	insights := insight.NewService(&cfg.Insight, generator, cache, log)
	srv := server.NewServer(cfg, log, insights, store, obs)

	if err := srv.Run(ctx); err != nil {
		zapLog.Fatal("server failed", zap.Error(err))
	}

	zapLog.Info("Dashboard server stopped gracefully")
}
