// Package fixtures seeds the database with the default data set: the
// shared "anonyme" owner, a few sample users and a handful of tasks.
// Seeding is idempotent; a database that already holds the anonymous
// user is left untouched.
package fixtures

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/todoco/todoco/internal/domain"
	"github.com/todoco/todoco/internal/repository"
)

// sampleUserCount is the number of regular demo accounts to create.
const sampleUserCount = 5

// defaultTaskTitles are the starter tasks owned by the anonymous user.
var defaultTaskTitles = []string{
	"Buy groceries",
	"Water the plants",
	"Call the bank",
	"Write the weekly report",
	"Plan the weekend trip",
}

// Seed loads the default data set. Returns without touching anything if
// the anonymous user already exists.
func Seed(ctx context.Context, repos *repository.Repositories, logger zerolog.Logger) error {
	logger = logger.With().Str("component", "fixtures").Logger()

	exists, err := repos.User.ExistsByUsername(ctx, domain.AnonymousUsername)
	if err != nil {
		return fmt.Errorf("failed to check for anonymous user: %w", err)
	}
	if exists {
		logger.Info().Msg("fixtures already loaded, skipping")
		return nil
	}

	anonymous, err := createUser(ctx, repos, domain.AnonymousUsername, "anonyme@todoco.local", "password-anonyme", nil)
	if err != nil {
		return err
	}

	// One admin plus regular demo accounts.
	if _, err := createUser(ctx, repos, "admin", "admin@todoco.local", "password-admin", []string{domain.RoleAdmin}); err != nil {
		return err
	}
	for i := 1; i <= sampleUserCount; i++ {
		username := fmt.Sprintf("user%d", i)
		email := fmt.Sprintf("user%d+%s@todoco.local", i, uuid.NewString()[:8])
		if _, err := createUser(ctx, repos, username, email, "password-"+username, nil); err != nil {
			return err
		}
	}

	for _, title := range defaultTaskTitles {
		task := domain.NewTask(title, "This is the default content of "+title+".")
		anonymous.AddTask(task)
		if err := repos.Task.Create(ctx, task); err != nil {
			return fmt.Errorf("failed to create task %q: %w", title, err)
		}
	}

	logger.Info().
		Int("users", sampleUserCount+2).
		Int("tasks", len(defaultTaskTitles)).
		Msg("fixtures loaded")

	return nil
}

func createUser(ctx context.Context, repos *repository.Repositories, username, email, password string, roles []string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password for %q: %w", username, err)
	}

	user := domain.NewUser(username, email, string(hash))
	user.Roles = roles

	if err := repos.User.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user %q: %w", username, err)
	}

	return user, nil
}
