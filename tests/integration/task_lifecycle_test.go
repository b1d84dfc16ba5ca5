// Package integration provides end-to-end tests for ToDoCo against a real
// (in-memory SQLite) database.
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/todoco/todoco/internal/auth"
	"github.com/todoco/todoco/internal/cache/memory"
	"github.com/todoco/todoco/internal/domain"
	"github.com/todoco/todoco/internal/fixtures"
	"github.com/todoco/todoco/internal/repository"
	"github.com/todoco/todoco/internal/repository/sqlite"
	"github.com/todoco/todoco/internal/service"
)

// testEnv bundles the services wired against a fresh in-memory database.
type testEnv struct {
	repos    *repository.Repositories
	users    *service.UserService
	tasks    *service.TaskService
	sessions *service.SessionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	db, err := sqlite.NewDB(ctx, sqlite.DefaultConfig(":memory:"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx))

	cache := memory.NewCache()
	t.Cleanup(cache.Stop)

	repos := sqlite.NewRepositories(db)
	policy := auth.NewTaskPolicy()

	return &testEnv{
		repos:    repos,
		users:    service.NewUserService(repos.User, zerolog.Nop()),
		tasks:    service.NewTaskService(repos.Task, policy, zerolog.Nop()),
		sessions: service.NewSessionService(cache, repos.User, time.Hour, zerolog.Nop()),
	}
}

func (e *testEnv) createUser(t *testing.T, username string, roles ...string) *domain.User {
	t.Helper()
	output, err := e.users.Create(context.Background(), service.CreateUserInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
		Roles:    roles,
	})
	require.NoError(t, err)
	return output.User
}

// Owner creates a task: ownership, reverse index and completion default.
func TestOwnerCreatesTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "alice")

	output, err := env.tasks.Create(ctx, owner, service.CreateTaskInput{
		Title:   "buy milk",
		Content: "two liters",
	})
	require.NoError(t, err)

	task := output.Task
	require.Equal(t, owner.ID, task.OwnerID())
	require.False(t, task.IsDone)
	require.Contains(t, owner.Tasks, task)

	// Reload from the store: the owner reference survives persistence.
	reloaded, err := env.tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.Owner)
	require.Equal(t, owner.ID, reloaded.Owner.ID)
	require.Equal(t, "alice", reloaded.Owner.Username)
}

// Owner deletes their own task.
func TestOwnerDeletesOwnTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "alice")
	output, err := env.tasks.Create(ctx, owner, service.CreateTaskInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	require.NoError(t, env.tasks.Delete(ctx, owner, output.Task.ID))

	_, err = env.tasks.Get(ctx, output.Task.ID)
	require.ErrorIs(t, err, domain.ErrTaskNotFound)

	owned, err := env.tasks.ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Empty(t, owned)
}

// A regular user cannot delete an anonymous-owned task; an admin can.
func TestAnonymousTaskDeletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	anonymous := env.createUser(t, domain.AnonymousUsername)
	regular := env.createUser(t, "bob")
	admin := env.createUser(t, "carol", domain.RoleAdmin)

	output, err := env.tasks.Create(ctx, anonymous, service.CreateTaskInput{Title: "shared", Content: "c"})
	require.NoError(t, err)
	taskID := output.Task.ID

	// Regular user is denied; the task survives.
	err = env.tasks.Delete(ctx, regular, taskID)
	require.ErrorIs(t, err, domain.ErrTaskForbidden)

	task, err := env.tasks.Get(ctx, taskID)
	require.NoError(t, err)
	require.True(t, task.HasAnonymousOwner())

	// Admin is allowed.
	require.NoError(t, env.tasks.Delete(ctx, admin, taskID))
	_, err = env.tasks.Get(ctx, taskID)
	require.ErrorIs(t, err, domain.ErrTaskNotFound)
}

// Toggle round-trips through the store.
func TestToggleRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "alice")
	output, err := env.tasks.Create(ctx, owner, service.CreateTaskInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	toggled, err := env.tasks.Toggle(ctx, owner, output.Task.ID)
	require.NoError(t, err)
	require.True(t, toggled.IsDone)

	toggled, err = env.tasks.Toggle(ctx, owner, output.Task.ID)
	require.NoError(t, err)
	require.False(t, toggled.IsDone)

	reloaded, err := env.tasks.Get(ctx, output.Task.ID)
	require.NoError(t, err)
	require.False(t, reloaded.IsDone)
}

// Deleting a user detaches their tasks rather than cascading, and the
// detached tasks become undeletable through the policy.
func TestUserDeletionDetachesTasks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "alice")
	admin := env.createUser(t, "carol", domain.RoleAdmin)

	output, err := env.tasks.Create(ctx, owner, service.CreateTaskInput{Title: "t", Content: "c"})
	require.NoError(t, err)
	taskID := output.Task.ID

	require.NoError(t, env.users.Delete(ctx, owner.ID))

	// Task survives without an owner.
	task, err := env.tasks.Get(ctx, taskID)
	require.NoError(t, err)
	require.Nil(t, task.Owner)

	// The owner_id column was nulled, not left dangling.
	orphans, err := env.tasks.ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Empty(t, orphans)

	// Nobody may delete it through the policy, not even an admin.
	err = env.tasks.Delete(ctx, admin, taskID)
	require.ErrorIs(t, err, domain.ErrTaskForbidden)

	// The administrative bypass goes straight to the repository.
	require.NoError(t, env.repos.Task.Delete(ctx, taskID))
}

// Editing is open to any authenticated user and never reassigns ownership.
func TestEditDoesNotRequireOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "alice")
	stranger := env.createUser(t, "bob")

	output, err := env.tasks.Create(ctx, owner, service.CreateTaskInput{Title: "before", Content: "c"})
	require.NoError(t, err)

	_, err = env.tasks.Edit(ctx, stranger, service.EditTaskInput{
		TaskID:  output.Task.ID,
		Title:   "after",
		Content: "changed",
	})
	require.NoError(t, err)

	reloaded, err := env.tasks.Get(ctx, output.Task.ID)
	require.NoError(t, err)
	require.Equal(t, "after", reloaded.Title)
	require.Equal(t, owner.ID, reloaded.OwnerID())
}

func TestTaskListFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "alice")

	first, err := env.tasks.Create(ctx, owner, service.CreateTaskInput{Title: "pending", Content: "c"})
	require.NoError(t, err)
	second, err := env.tasks.Create(ctx, owner, service.CreateTaskInput{Title: "done", Content: "c"})
	require.NoError(t, err)

	_, err = env.tasks.Toggle(ctx, owner, second.Task.ID)
	require.NoError(t, err)

	pending, err := env.tasks.ListByStatus(ctx, false)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, first.Task.ID, pending[0].ID)

	done, err := env.tasks.ListByStatus(ctx, true)
	require.NoError(t, err)
	require.Len(t, done, 1)
	require.Equal(t, second.Task.ID, done[0].ID)

	last, err := env.tasks.Last(ctx)
	require.NoError(t, err)
	require.Equal(t, second.Task.ID, last.ID)
}

func TestSessionFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "alice")

	authenticated, err := env.users.Authenticate(ctx, "alice", "password123")
	require.NoError(t, err)
	require.Equal(t, user.ID, authenticated.ID)

	token, err := env.sessions.Login(ctx, authenticated)
	require.NoError(t, err)

	resolved, err := env.sessions.Validate(ctx, token)
	require.NoError(t, err)
	require.Equal(t, user.ID, resolved.ID)

	require.NoError(t, env.sessions.Logout(ctx, token))
	_, err = env.sessions.Validate(ctx, token)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestFixturesSeed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, fixtures.Seed(ctx, env.repos, zerolog.Nop()))

	anonymous, err := env.users.GetByUsername(ctx, domain.AnonymousUsername)
	require.NoError(t, err)

	owned, err := env.tasks.ListByOwner(ctx, anonymous.ID)
	require.NoError(t, err)
	require.Len(t, owned, 5)
	for _, task := range owned {
		require.True(t, task.HasAnonymousOwner())
		require.False(t, task.IsDone)
	}

	// Seeding twice is a no-op.
	require.NoError(t, fixtures.Seed(ctx, env.repos, zerolog.Nop()))
	owned, err = env.tasks.ListByOwner(ctx, anonymous.ID)
	require.NoError(t, err)
	require.Len(t, owned, 5)
}

func TestDuplicateRegistrationRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createUser(t, "alice")

	_, err := env.users.Create(ctx, service.CreateUserInput{
		Username: "alice",
		Email:    "other@example.com",
		Password: "password123",
	})
	require.ErrorIs(t, err, domain.ErrUserAlreadyExists)

	_, err = env.users.Create(ctx, service.CreateUserInput{
		Username: "alice2",
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.ErrorIs(t, err, domain.ErrUserAlreadyExists)
}
