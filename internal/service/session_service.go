package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/todoco/todoco/internal/domain"
	"github.com/todoco/todoco/internal/repository"
)

// sessionKeyPrefix namespaces session tokens in the shared cache.
const sessionKeyPrefix = "session:"

// SessionService issues and validates opaque session tokens. Tokens live
// in the cache keyed by token with the user ID as value; validation does
// a fresh user lookup so role changes take effect on the next request.
type SessionService struct {
	cache    repository.Cache
	userRepo repository.UserRepository
	ttl      time.Duration
	logger   zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(cache repository.Cache, userRepo repository.UserRepository, ttl time.Duration, logger zerolog.Logger) *SessionService {
	return &SessionService{
		cache:    cache,
		userRepo: userRepo,
		ttl:      ttl,
		logger:   logger.With().Str("service", "session").Logger(),
	}
}

// Login creates a session for the user and returns the opaque token.
func (s *SessionService) Login(ctx context.Context, user *domain.User) (string, error) {
	token := uuid.NewString()
	key := sessionKeyPrefix + token
	value := []byte(strconv.FormatInt(user.ID, 10))

	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to store session")
		return "", fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("session created")

	return token, nil
}

// Validate resolves a session token to its user and slides the expiry.
// Returns domain.ErrSessionNotFound for unknown or expired tokens.
func (s *SessionService) Validate(ctx context.Context, token string) (*domain.User, error) {
	key := sessionKeyPrefix + token

	value, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrCacheMiss) {
			return nil, domain.ErrSessionNotFound
		}
		s.logger.Error().Err(err).Msg("failed to read session")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	userID, err := strconv.ParseInt(string(value), 10, 64)
	if err != nil {
		// Corrupt entry, drop it.
		_ = s.cache.Delete(ctx, key)
		return nil, domain.ErrSessionNotFound
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// User deleted since login, the session is orphaned.
			_ = s.cache.Delete(ctx, key)
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	// Sliding expiry. A failed refresh is not fatal for this request.
	if err := s.cache.Expire(ctx, key, s.ttl); err != nil {
		s.logger.Debug().Err(err).Msg("failed to refresh session ttl")
	}

	return user, nil
}

// Logout invalidates a session token. Unknown tokens are a no-op.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	if err := s.cache.Delete(ctx, sessionKeyPrefix+token); err != nil {
		s.logger.Error().Err(err).Msg("failed to delete session")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return nil
}
