package handler

import (
	"errors"

	"github.com/todoco/todoco/internal/domain"
	"github.com/todoco/todoco/internal/service"
)

// userErrorMessage maps user service errors to form messages.
func userErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrUserAlreadyExists):
		return "This username or email is already taken."
	case errors.Is(err, service.ErrInvalidUsername):
		return "The username must be 1 to 25 characters long."
	case errors.Is(err, service.ErrInvalidEmail):
		return "Please enter a valid email address."
	case errors.Is(err, service.ErrInvalidPassword):
		return "The password must be at least 8 characters long."
	default:
		return "Something went wrong, please try again."
	}
}

// taskErrorMessage maps task service errors to form messages.
func taskErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidTitle):
		return "Please enter a title."
	case errors.Is(err, service.ErrInvalidContent):
		return "Please enter some content."
	case errors.Is(err, domain.ErrTaskForbidden):
		return "You are not allowed to do that."
	default:
		return "Something went wrong, please try again."
	}
}
