package sqlite

import (
	"github.com/todoco/todoco/internal/repository"
)

// NewRepositories creates the full repository set backed by SQLite.
func NewRepositories(db *DB) *repository.Repositories {
	return &repository.Repositories{
		User: NewUserRepository(db),
		Task: NewTaskRepository(db),
	}
}
