package postgres

import (
	"github.com/todoco/todoco/internal/repository"
)

// NewRepositories creates the full repository set backed by PostgreSQL.
func NewRepositories(db *DB) *repository.Repositories {
	return &repository.Repositories{
		User: NewUserRepository(db),
		Task: NewTaskRepository(db),
	}
}
