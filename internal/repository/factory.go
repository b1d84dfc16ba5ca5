// Package repository provides the data access layer for ToDoCo.
// This file contains the shared types drivers assemble their repositories into.
package repository

import (
	"context"
)

// Repositories holds all repository instances.
type Repositories struct {
	User UserRepository
	Task TaskRepository
}

// DatabaseHealth is an interface for database health checks.
// This interface satisfies handler.DatabaseChecker for health endpoints.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Close() error
}
