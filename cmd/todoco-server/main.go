// Package main is the entry point for the ToDoCo web server.
// ToDoCo is a small multi-user task manager with session authentication
// and an ownership policy guarding task deletion.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/todoco/todoco/internal/auth"
	"github.com/todoco/todoco/internal/cache/memory"
	rediscache "github.com/todoco/todoco/internal/cache/redis"
	"github.com/todoco/todoco/internal/config"
	"github.com/todoco/todoco/internal/handler"
	"github.com/todoco/todoco/internal/metrics"
	"github.com/todoco/todoco/internal/repository"
	"github.com/todoco/todoco/internal/repository/postgres"
	"github.com/todoco/todoco/internal/repository/sqlite"
	"github.com/todoco/todoco/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	logger := setupLogger(cfg.Logging)
	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("starting ToDoCo server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	// Database and repositories
	repos, database, err := openDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer database.Close()

	// Session cache: Redis when enabled, process memory otherwise.
	var cache repository.Cache
	if cfg.Redis.Enabled {
		redisCache, err := rediscache.NewCache(ctx, cfg.Redis, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisCache.Close()
		cache = redisCache
	} else {
		memCache := memory.NewCache()
		defer memCache.Stop()
		cache = memCache
	}

	// Services
	policy := auth.NewTaskPolicy()
	userService := service.NewUserService(repos.User, logger)
	taskService := service.NewTaskService(repos.Task, policy, logger)
	sessionService := service.NewSessionService(cache, repos.User, cfg.Session.TTL, logger)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	router, err := handler.NewRouter(handler.RouterConfig{
		UserService:    userService,
		TaskService:    taskService,
		SessionService: sessionService,
		SessionTTL:     cfg.Session.TTL,
		CookieSecure:   cfg.Session.CookieSecure,
		Database:       database,
		Metrics:        m,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info().Msg("server stopped")
	return nil
}

// openDatabase connects to the configured backend, runs migrations and
// returns the repository set.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*repository.Repositories, repository.DatabaseHealth, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to migrate: %w", err)
		}
		return postgres.NewRepositories(db), db, nil

	case "sqlite":
		sqliteCfg := sqlite.DefaultConfig(cfg.Path)
		if cfg.JournalMode != "" {
			sqliteCfg.JournalMode = cfg.JournalMode
		}
		if cfg.BusyTimeout > 0 {
			sqliteCfg.BusyTimeout = cfg.BusyTimeout
		}
		if cfg.SynchronousMode != "" {
			sqliteCfg.SynchronousMode = cfg.SynchronousMode
		}
		db, err := sqlite.NewDB(ctx, sqliteCfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to migrate: %w", err)
		}
		return sqlite.NewRepositories(db), db, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// setupLogger builds the root logger from config.
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	if cfg.Format == "console" {
		return log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(level)
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
}
