package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/todoco/todoco/internal/domain"
	"github.com/todoco/todoco/internal/repository"
)

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	users     map[int64]*domain.User
	nextID    int64
	createErr error
	getErr    error
	updateErr error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:  make(map[int64]*domain.User),
		nextID: 1,
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return domain.ErrUserAlreadyExists
		}
	}
	user.ID = m.nextID
	m.nextID++
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if user, exists := m.users[id]; exists {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, exists := m.users[user.ID]; !exists {
		return domain.ErrUserNotFound
	}
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id int64) error {
	if _, exists := m.users[id]; !exists {
		return domain.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *MockUserRepository) List(ctx context.Context, opts repository.ListOptions) (*repository.ListResult[domain.User], error) {
	var items []*domain.User
	for _, u := range m.users {
		items = append(items, u)
	}
	return &repository.ListResult[domain.User]{
		Items:  items,
		Total:  int64(len(items)),
		Offset: opts.Offset,
		Limit:  opts.Limit,
	}, nil
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// =============================================================================
// Tests
// =============================================================================

func TestUserService_Create(t *testing.T) {
	tests := []struct {
		name      string
		input     CreateUserInput
		wantErr   error
		setupRepo func(*MockUserRepository)
	}{
		{
			name: "success",
			input: CreateUserInput{
				Username: "alice",
				Email:    "alice@example.com",
				Password: "password123",
			},
		},
		{
			name: "success with admin role",
			input: CreateUserInput{
				Username: "carol",
				Email:    "carol@example.com",
				Password: "password123",
				Roles:    []string{domain.RoleAdmin},
			},
		},
		{
			name: "empty username rejected",
			input: CreateUserInput{
				Username: "",
				Email:    "alice@example.com",
				Password: "password123",
			},
			wantErr: ErrInvalidUsername,
		},
		{
			name: "username over 25 characters rejected",
			input: CreateUserInput{
				Username: "abcdefghijklmnopqrstuvwxyz",
				Email:    "alice@example.com",
				Password: "password123",
			},
			wantErr: ErrInvalidUsername,
		},
		{
			name: "invalid email rejected",
			input: CreateUserInput{
				Username: "alice",
				Email:    "not-an-email",
				Password: "password123",
			},
			wantErr: ErrInvalidEmail,
		},
		{
			name: "short password rejected",
			input: CreateUserInput{
				Username: "alice",
				Email:    "alice@example.com",
				Password: "short",
			},
			wantErr: ErrInvalidPassword,
		},
		{
			name: "duplicate username rejected",
			input: CreateUserInput{
				Username: "alice",
				Email:    "alice2@example.com",
				Password: "password123",
			},
			wantErr: domain.ErrUserAlreadyExists,
			setupRepo: func(m *MockUserRepository) {
				m.users[1] = &domain.User{ID: 1, Username: "alice", Email: "alice@example.com"}
			},
		},
		{
			name: "duplicate email rejected",
			input: CreateUserInput{
				Username: "alice2",
				Email:    "alice@example.com",
				Password: "password123",
			},
			wantErr: domain.ErrUserAlreadyExists,
			setupRepo: func(m *MockUserRepository) {
				m.users[1] = &domain.User{ID: 1, Username: "alice", Email: "alice@example.com"}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockUserRepository()
			if tt.setupRepo != nil {
				tt.setupRepo(repo)
			}
			svc := NewUserService(repo, zerolog.Nop())

			output, err := svc.Create(context.Background(), tt.input)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			user := output.User
			if user.ID == 0 {
				t.Error("created user should have an ID")
			}
			if user.PasswordHash == tt.input.Password {
				t.Error("password must be stored hashed")
			}
			if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(tt.input.Password)); err != nil {
				t.Error("stored hash should verify against the plaintext")
			}
		})
	}
}

func TestUserService_Authenticate(t *testing.T) {
	repo := NewMockUserRepository()
	svc := NewUserService(repo, zerolog.Nop())

	created, err := svc.Create(context.Background(), CreateUserInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	user, err := svc.Authenticate(context.Background(), "alice", "password123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != created.User.ID {
		t.Error("authenticated user should match the created one")
	}

	if _, err := svc.Authenticate(context.Background(), "alice", "wrong-password"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("wrong password should yield ErrInvalidCredentials, got %v", err)
	}
	// Unknown usernames must surface the same error as wrong passwords.
	if _, err := svc.Authenticate(context.Background(), "nobody", "password123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("unknown user should yield ErrInvalidCredentials, got %v", err)
	}
}

func TestUserService_UpdateKeepsPasswordWhenEmpty(t *testing.T) {
	repo := NewMockUserRepository()
	svc := NewUserService(repo, zerolog.Nop())

	created, err := svc.Create(context.Background(), CreateUserInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	originalHash := created.User.PasswordHash

	updated, err := svc.Update(context.Background(), UpdateUserInput{
		UserID:   created.User.ID,
		Username: "alice2",
		Email:    "alice2@example.com",
		Roles:    []string{domain.RoleAdmin},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updated.PasswordHash != originalHash {
		t.Error("empty password input must keep the stored hash")
	}
	if updated.Username != "alice2" || updated.Email != "alice2@example.com" {
		t.Error("username and email should be updated")
	}
	if !updated.HasRole(domain.RoleAdmin) {
		t.Error("roles should be updated")
	}
}

func TestUserService_UpdateRehashesNewPassword(t *testing.T) {
	repo := NewMockUserRepository()
	svc := NewUserService(repo, zerolog.Nop())

	created, err := svc.Create(context.Background(), CreateUserInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	originalHash := created.User.PasswordHash

	updated, err := svc.Update(context.Background(), UpdateUserInput{
		UserID:   created.User.ID,
		Username: "alice",
		Email:    "alice@example.com",
		Password: "new-password-456",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updated.PasswordHash == originalHash {
		t.Error("supplying a password must replace the stored hash")
	}
	if _, err := svc.Authenticate(context.Background(), "alice", "new-password-456"); err != nil {
		t.Errorf("new password should authenticate, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "alice", "password123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("old password should be rejected, got %v", err)
	}
}

func TestUserService_ChangePassword(t *testing.T) {
	repo := NewMockUserRepository()
	svc := NewUserService(repo, zerolog.Nop())

	created, err := svc.Create(context.Background(), CreateUserInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	err = svc.ChangePassword(context.Background(), ChangePasswordInput{
		UserID:      created.User.ID,
		OldPassword: "wrong",
		NewPassword: "new-password-456",
	})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("wrong old password should be rejected, got %v", err)
	}

	err = svc.ChangePassword(context.Background(), ChangePasswordInput{
		UserID:      created.User.ID,
		OldPassword: "password123",
		NewPassword: "new-password-456",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "alice", "new-password-456"); err != nil {
		t.Errorf("new password should authenticate, got %v", err)
	}
}

func TestUserService_Promote(t *testing.T) {
	repo := NewMockUserRepository()
	svc := NewUserService(repo, zerolog.Nop())

	created, err := svc.Create(context.Background(), CreateUserInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	if err := svc.Promote(context.Background(), created.User.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created.User.HasRole(domain.RoleAdmin) {
		t.Error("promoted user should hold the admin role")
	}

	// Promoting twice must not duplicate the role.
	if err := svc.Promote(context.Background(), created.User.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	count := 0
	for _, r := range created.User.Roles {
		if r == domain.RoleAdmin {
			count++
		}
	}
	if count != 1 {
		t.Errorf("admin role stored %d times, want 1", count)
	}

	if err := svc.Promote(context.Background(), 999); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("promoting a missing user should yield ErrUserNotFound, got %v", err)
	}
}
