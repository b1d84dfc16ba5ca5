// Package main is the entry point for the ToDoCo database migration tool.
// It applies the schema and optionally loads the default fixtures.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/todoco/todoco/internal/config"
	"github.com/todoco/todoco/internal/fixtures"
	"github.com/todoco/todoco/internal/repository"
	"github.com/todoco/todoco/internal/repository/postgres"
	"github.com/todoco/todoco/internal/repository/sqlite"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "version":
		fmt.Printf("ToDoCo Migration Tool\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "up":
		runCommand(args, func(ctx context.Context, repos *repository.Repositories, logger zerolog.Logger) error {
			logger.Info().Msg("schema is up to date")
			return nil
		})

	case "seed":
		runCommand(args, func(ctx context.Context, repos *repository.Repositories, logger zerolog.Logger) error {
			return fixtures.Seed(ctx, repos, logger)
		})

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// runCommand opens the database, applies the schema and runs fn.
func runCommand(args []string, fn func(context.Context, *repository.Repositories, zerolog.Logger) error) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args)

	cfg := config.MustLoad(*configPath)
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	repos, database, err := openDatabase(ctx, cfg.Database, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := fn(ctx, repos, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openDatabase connects to the configured backend and applies the schema.
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
		db, err := sqlite.NewDB(ctx, sqlite.DefaultConfig(cfg.Path), logger)
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

func printUsage() {
	fmt.Println(`ToDoCo Migration Tool

Usage:
  todoco-migrate <command> [arguments]

Commands:
  up          Apply the database schema
  seed        Apply the schema and load the default fixtures
  version     Print version information
  help        Show this help message

Flags:
  -config     Path to the YAML config file (TODOCO_* env vars also apply)

Examples:
  todoco-migrate up -config configs/config.yaml
  todoco-migrate seed

Environment Variables:
  TODOCO_DATABASE_DRIVER    "sqlite" (default) or "postgres"
  TODOCO_DATABASE_PATH      SQLite database file path`)
}
