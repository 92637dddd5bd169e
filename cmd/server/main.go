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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/jschilling12/justabill/internal/adapter/httpserver"
	"github.com/jschilling12/justabill/internal/adapter/postgres"
	"github.com/jschilling12/justabill/internal/adapter/redis"
	"github.com/jschilling12/justabill/internal/app"
	"github.com/jschilling12/justabill/internal/auth"
	"github.com/jschilling12/justabill/internal/domain"
	"github.com/jschilling12/justabill/internal/platform/config"
	"github.com/jschilling12/justabill/internal/platform/logging"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

// setupRedis returns nil on connection failure: the stats cache is a
// read-path optimization and the service degrades to repository reads.
func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Warn("Redis unavailable, stats caching disabled", "error", err)
		return nil
	}
	return client
}

func runGracefulShutdown(srv *httpserver.Server) <-chan struct{} {
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

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.Init(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(context.Background(), cfg)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	billRepo := postgres.NewBillRepo(pool)
	sectionRepo := postgres.NewSectionRepo(pool)
	userRepo := postgres.NewUserRepo(pool)
	voteRepo := postgres.NewVoteRepo(pool)
	summaryRepo := postgres.NewSummaryRepo(pool)

	// Avoid a typed-nil interface when Redis is down
	var statsCache domain.StatsCache
	if redisClient != nil {
		statsCache = redis.NewStatsCache(redisClient, cfg.StatsCacheTTL)
	}

	appSvc := app.NewService(billRepo, sectionRepo, userRepo, voteRepo, summaryRepo, statsCache, clock, cfg.PopularityThreshold)

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenExpiry, clock)

	healthChecks := []httpserver.HealthCheck{
		{Name: "postgres", Check: func(ctx context.Context) error { return pool.Ping(ctx) }},
	}
	if redisClient != nil {
		healthChecks = append(healthChecks, httpserver.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	srv := httpserver.NewServer(cfg, appSvc, tokens, healthChecks)

	done := runGracefulShutdown(srv)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
