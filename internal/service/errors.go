// Package service provides business logic services for ToDoCo.
package service

import "errors"

// Common service errors.
var (
	// Validation errors
	ErrInvalidUsername = errors.New("invalid username: must be 1-25 characters")
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrInvalidPassword = errors.New("invalid password: must be at least 8 characters")
	ErrInvalidTitle    = errors.New("invalid title: must not be empty")
	ErrInvalidContent  = errors.New("invalid content: must not be empty")

	// General errors
	ErrInternalError = errors.New("internal server error")
)
