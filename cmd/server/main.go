package main

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/yukikurage/task-tracker-api/internal/config"
	"github.com/yukikurage/task-tracker-api/internal/database"
	"github.com/yukikurage/task-tracker-api/internal/handlers"
	"github.com/yukikurage/task-tracker-api/internal/logger"
	"github.com/yukikurage/task-tracker-api/internal/ratelimit"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"github.com/yukikurage/task-tracker-api/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("Failed to load config: %v", err)
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		stdlog.Fatalf("Failed to init logger: %v", err)
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	gin.SetMode(cfg.GinMode)

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}()

	if err := database.Migrate(db, log); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	limiter, closeLimiter := newLimiter(cfg, log)
	defer closeLimiter()

	var aiService *services.AIService
	if cfg.OpenAI.APIKey != "" {
		aiService = services.NewAIService(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	} else {
		log.Info().Msg("OPENAI_API_KEY not set, task suggestions disabled")
	}

	acquireTimeout := repository.WithAcquireTimeout(cfg.Database.AcquireTimeout)
	taskRepo := repository.NewTaskRepository(db, acquireTimeout)
	userRepo := repository.NewUserRepository(db, acquireTimeout)

	router := handlers.NewRouter(handlers.RouterDeps{
		Log:       log,
		DB:        db,
		Tasks:     services.NewTaskService(taskRepo, aiService, log),
		Users:     services.NewUserService(userRepo, taskRepo, log),
		Limiter:   limiter,
		RateLimit: cfg.RateLimit,
	})

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("host", cfg.HTTP.Host).
			Str("port", cfg.HTTP.Port).
			Str("env", cfg.Env).
			Msg("starting http server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to listen and serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown http server: %w", err)
	}

	log.Info().Msg("http server stopped")
	return nil
}

// newLimiter picks the rate limit backend. Redis shares limits across
// instances; without it each instance counts in memory.
func newLimiter(cfg *config.Config, log zerolog.Logger) (ratelimit.Limiter, func()) {
	if !cfg.RateLimit.Enabled {
		log.Warn().Msg("RATE_LIMIT_ENABLED is false, rate limiting disabled")
		return nil, func() {}
	}
	if !cfg.RateLimitBackendConfigured() {
		log.Warn().Msg("REDIS_ADDR not set, using in-memory rate limiting")
		return ratelimit.NewMemoryLimiter(), func() {}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := ratelimit.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, using in-memory rate limiting")
		return ratelimit.NewMemoryLimiter(), func() {}
	}
	return ratelimit.NewRedisLimiter(client, cfg.RateLimit.KeyPrefix), func() { closeRedis(client, log) }
}

func closeRedis(client *redis.Client, log zerolog.Logger) {
	if err := client.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close redis client")
	}
}
