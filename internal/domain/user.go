// Package domain contains the core business entities for Todoco.
// These are pure Go structs with no external dependencies, representing
// the fundamental concepts of the task-management application.
package domain

import (
	"time"
)

const (
	// RoleUser is the base role every user holds implicitly.
	// It is computed at read time and never stored.
	RoleUser = "USER"

	// RoleAdmin is the elevated role. Role matching is case-sensitive
	// and exact; there is no role hierarchy beyond the implicit base role.
	RoleAdmin = "ADMIN"

	// AnonymousUsername identifies the single distinguished user that acts
	// as the shared/default owner of seeded tasks. Tasks owned by this user
	// may be deleted only by admins.
	AnonymousUsername = "anonyme"

	// MaxUsernameLength is the maximum username length.
	MaxUsernameLength = 25
)

// User represents a registered user in the system.
// Users own tasks; the Tasks field is a convenience reverse index of the
// owning Task.Owner reference and is never authoritative on its own.
type User struct {
	// ID is the unique identifier for the user (assigned by the store).
	ID int64 `json:"id"`

	// Username is the unique username for login and display.
	// Constraints: 1-25 characters.
	Username string `json:"username"`

	// Email is the unique email address for the user.
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the user's password.
	// This should never be exposed in responses or templates.
	PasswordHash string `json:"-"`

	// Roles is the stored role set. The base "USER" role is implicit and
	// deliberately absent here; use RoleSet or HasRole for reads.
	Roles []string `json:"roles"`

	// Tasks is the set of tasks owned by this user. Task.Owner is the
	// owning side; AddTask and RemoveTask keep both sides consistent.
	Tasks []*Task `json:"-"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser creates a new User with default values.
func NewUser(username, email, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Roles:        []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// RoleSet returns the effective role set: the stored roles plus the
// implicit base "USER" role, without duplicates.
func (u *User) RoleSet() []string {
	roles := make([]string, 0, len(u.Roles)+1)
	seen := make(map[string]bool, len(u.Roles)+1)
	for _, r := range u.Roles {
		if !seen[r] {
			seen[r] = true
			roles = append(roles, r)
		}
	}
	if !seen[RoleUser] {
		roles = append(roles, RoleUser)
	}
	return roles
}

// HasRole reports whether the user holds the given role.
// Every user holds RoleUser even if it is absent from the stored set.
func (u *User) HasRole(role string) bool {
	if role == RoleUser {
		return true
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// IsAnonymous reports whether this is the distinguished shared owner.
func (u *User) IsAnonymous() bool {
	return u.Username == AnonymousUsername
}

// AddTask attaches a task to this user, setting the owning side.
// Adding a task that is already present is a no-op.
func (u *User) AddTask(task *Task) *User {
	for _, t := range u.Tasks {
		if t == task {
			return u
		}
	}
	u.Tasks = append(u.Tasks, task)
	task.Owner = u
	return u
}

// RemoveTask detaches a task from this user. The owning side is cleared
// only if it still points at this user. Removing a task that is not
// present leaves the set unchanged.
func (u *User) RemoveTask(task *Task) *User {
	for i, t := range u.Tasks {
		if t == task {
			u.Tasks = append(u.Tasks[:i], u.Tasks[i+1:]...)
			if task.Owner == u {
				task.Owner = nil
			}
			return u
		}
	}
	return u
}
