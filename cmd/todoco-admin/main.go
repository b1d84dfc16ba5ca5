// Package main is the entry point for the ToDoCo admin CLI.
// It provides user management and the administrative task removal that
// bypasses the web-surface ownership policy (for orphaned tasks).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/todoco/todoco/internal/auth"
	"github.com/todoco/todoco/internal/config"
	"github.com/todoco/todoco/internal/domain"
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
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "version":
		fmt.Printf("ToDoCo Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "user":
		runUserCommand(args)

	case "task":
		runTaskCommand(args)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runUserCommand(args []string) {
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "create":
		fs := flag.NewFlagSet("user create", flag.ExitOnError)
		configPath := fs.String("config", "", "path to config file")
		username := fs.String("username", "", "username (required)")
		email := fs.String("email", "", "email (required)")
		password := fs.String("password", "", "password (required)")
		admin := fs.Bool("admin", false, "grant the admin role")
		_ = fs.Parse(args[1:])

		withServices(*configPath, func(ctx context.Context, svc *services) error {
			var roles []string
			if *admin {
				roles = []string{domain.RoleAdmin}
			}
			output, err := svc.users.Create(ctx, service.CreateUserInput{
				Username: *username,
				Email:    *email,
				Password: *password,
				Roles:    roles,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created user %d (%s)\n", output.User.ID, output.User.Username)
			return nil
		})

	case "list":
		fs := flag.NewFlagSet("user list", flag.ExitOnError)
		configPath := fs.String("config", "", "path to config file")
		_ = fs.Parse(args[1:])

		withServices(*configPath, func(ctx context.Context, svc *services) error {
			output, err := svc.users.List(ctx, service.ListUsersInput{Limit: 100})
			if err != nil {
				return err
			}
			fmt.Printf("%-6s %-25s %-35s %s\n", "ID", "USERNAME", "EMAIL", "ROLES")
			for _, user := range output.Users {
				fmt.Printf("%-6d %-25s %-35s %v\n", user.ID, user.Username, user.Email, user.RoleSet())
			}
			fmt.Printf("Total: %d\n", output.TotalCount)
			return nil
		})

	case "delete":
		fs := flag.NewFlagSet("user delete", flag.ExitOnError)
		configPath := fs.String("config", "", "path to config file")
		id := fs.Int64("id", 0, "user ID (required)")
		_ = fs.Parse(args[1:])

		withServices(*configPath, func(ctx context.Context, svc *services) error {
			if err := svc.users.Delete(ctx, *id); err != nil {
				return err
			}
			fmt.Printf("Deleted user %d (their tasks were detached)\n", *id)
			return nil
		})

	case "promote":
		fs := flag.NewFlagSet("user promote", flag.ExitOnError)
		configPath := fs.String("config", "", "path to config file")
		id := fs.Int64("id", 0, "user ID (required)")
		_ = fs.Parse(args[1:])

		withServices(*configPath, func(ctx context.Context, svc *services) error {
			if err := svc.users.Promote(ctx, *id); err != nil {
				return err
			}
			fmt.Printf("Promoted user %d to admin\n", *id)
			return nil
		})

	default:
		fmt.Fprintf(os.Stderr, "Unknown user command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func runTaskCommand(args []string) {
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("task list", flag.ExitOnError)
		configPath := fs.String("config", "", "path to config file")
		_ = fs.Parse(args[1:])

		withServices(*configPath, func(ctx context.Context, svc *services) error {
			tasks, err := svc.tasks.List(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%-6s %-4s %-30s %s\n", "ID", "DONE", "TITLE", "OWNER")
			for _, task := range tasks {
				owner := "-"
				if task.Owner != nil {
					owner = task.Owner.Username
				}
				done := " "
				if task.IsDone {
					done = "x"
				}
				fmt.Printf("%-6d %-4s %-30s %s\n", task.ID, done, task.Title, owner)
			}
			return nil
		})

	case "rm":
		// Direct repository delete: this is the administrative bypass for
		// tasks the web policy will not release, such as owner-less tasks
		// left behind by account deletion.
		fs := flag.NewFlagSet("task rm", flag.ExitOnError)
		configPath := fs.String("config", "", "path to config file")
		id := fs.Int64("id", 0, "task ID (required)")
		_ = fs.Parse(args[1:])

		withServices(*configPath, func(ctx context.Context, svc *services) error {
			if err := svc.repos.Task.Delete(ctx, *id); err != nil {
				return err
			}
			fmt.Printf("Removed task %d\n", *id)
			return nil
		})

	default:
		fmt.Fprintf(os.Stderr, "Unknown task command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

// services bundles what the subcommands need.
type services struct {
	repos *repository.Repositories
	users *service.UserService
	tasks *service.TaskService
}

// withServices opens the database, builds the services, runs fn and exits
// non-zero on error.
func withServices(configPath string, fn func(context.Context, *services) error) {
	cfg := config.MustLoad(configPath)
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.WarnLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	repos, database, err := openDatabase(ctx, cfg.Database, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	svc := &services{
		repos: repos,
		users: service.NewUserService(repos.User, logger),
		tasks: service.NewTaskService(repos.Task, auth.NewTaskPolicy(), logger),
	}

	if err := fn(ctx, svc); err != nil {
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
	fmt.Println(`ToDoCo Admin CLI

Usage:
  todoco-admin <command> <subcommand> [flags]

Commands:
  user create    Create a user (-username, -email, -password, -admin)
  user list      List users
  user delete    Delete a user by ID (-id); their tasks are detached
  user promote   Grant the admin role (-id)
  task list      List all tasks with their owners
  task rm        Remove a task by ID (-id), bypassing the ownership policy
  version        Print version information
  help           Show this help message

Examples:
  todoco-admin user create -username alice -email alice@example.com -password secret123
  todoco-admin user promote -id 3
  todoco-admin task rm -id 42`)
}
