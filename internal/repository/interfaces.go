// Package repository defines data access interfaces for Todoco.
// These interfaces abstract database operations, allowing for different
// implementations (SQLite, PostgreSQL, in-memory for testing) while keeping
// the service layer clean.
package repository

import (
	"context"
	"time"

	"github.com/todoco/todoco/internal/domain"
)

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create creates a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update updates an existing user.
	Update(ctx context.Context, user *domain.User) error

	// Delete deletes a user by ID. The user's tasks are detached
	// (owner set to null), never cascaded.
	Delete(ctx context.Context, id int64) error

	// List returns all users with pagination.
	List(ctx context.Context, opts ListOptions) (*ListResult[domain.User], error)

	// ExistsByUsername checks if a user with the given username exists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// ExistsByEmail checks if a user with the given email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// =============================================================================
// Task Repository
// =============================================================================

// TaskRepository defines the interface for task data access.
// Implementations resolve the Owner reference on reads so the policy can
// inspect the owning user without a second lookup.
type TaskRepository interface {
	// Create creates a new task.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by ID, with its owner resolved.
	GetByID(ctx context.Context, id int64) (*domain.Task, error)

	// List returns all tasks, newest first, with owners resolved.
	List(ctx context.Context) ([]*domain.Task, error)

	// ListByStatus returns tasks filtered by completion flag.
	ListByStatus(ctx context.Context, isDone bool) ([]*domain.Task, error)

	// ListByOwner returns tasks owned by the given user.
	ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Task, error)

	// Last returns the most recently created task, or ErrNotFound when
	// the store is empty.
	Last(ctx context.Context) (*domain.Task, error)

	// Update updates an existing task (title, content, completion flag,
	// owner reference). CreatedAt is immutable.
	Update(ctx context.Context, task *domain.Task) error

	// Delete deletes a task by ID.
	Delete(ctx context.Context, id int64) error
}

// =============================================================================
// Cache Interface
// =============================================================================

// Cache defines the interface for key-value caching with expiry.
// Backed by Redis for multi-node deployments or process memory for
// single-node runs; the session store is its primary consumer.
type Cache interface {
	// Get retrieves a value by key.
	// Returns ErrCacheMiss if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with an optional TTL.
	// If ttl is 0, the value doesn't expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists.
	Exists(ctx context.Context, key string) (bool, error)

	// Expire sets or updates the TTL for a key.
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// =============================================================================
// Common Types
// =============================================================================

// ListOptions contains common pagination options.
type ListOptions struct {
	// Offset is the number of records to skip.
	Offset int

	// Limit is the maximum number of records to return.
	Limit int
}

// ListResult is a generic paginated list result.
type ListResult[T any] struct {
	// Items is the list of items.
	Items []*T

	// Total is the total number of items (without pagination).
	Total int64

	// Offset is the current offset.
	Offset int

	// Limit is the current limit.
	Limit int
}
