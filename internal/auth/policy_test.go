package auth

import (
	"testing"

	"github.com/todoco/todoco/internal/domain"
)

func newUser(id int64, username string, roles ...string) *domain.User {
	return &domain.User{ID: id, Username: username, Roles: roles}
}

func ownedTask(owner *domain.User) *domain.Task {
	task := &domain.Task{ID: 100, Title: "t"}
	task.Owner = owner
	return task
}

func TestTaskPolicy_CanDelete(t *testing.T) {
	owner := newUser(1, "alice")
	other := newUser(2, "bob")
	admin := newUser(3, "carol", domain.RoleAdmin)
	anonymous := newUser(4, domain.AnonymousUsername)
	adminOwner := newUser(5, "dave", domain.RoleAdmin)

	tests := []struct {
		name  string
		task  *domain.Task
		actor *domain.User
		want  bool
	}{
		{
			name:  "owner may delete own task",
			task:  ownedTask(owner),
			actor: owner,
			want:  true,
		},
		{
			name:  "non-owner denied",
			task:  ownedTask(owner),
			actor: other,
			want:  false,
		},
		{
			name:  "admin denied on another user's task",
			task:  ownedTask(owner),
			actor: admin,
			want:  false,
		},
		{
			name:  "admin may delete own task",
			task:  ownedTask(adminOwner),
			actor: adminOwner,
			want:  true,
		},
		{
			name:  "anonymous-owned task denied to regular user",
			task:  ownedTask(anonymous),
			actor: other,
			want:  false,
		},
		{
			name:  "anonymous-owned task denied to the anonymous user itself",
			task:  ownedTask(anonymous),
			actor: anonymous,
			want:  false,
		},
		{
			name:  "anonymous-owned task allowed for admin",
			task:  ownedTask(anonymous),
			actor: admin,
			want:  true,
		},
		{
			name:  "ownerless task denied to regular user",
			task:  ownedTask(nil),
			actor: other,
			want:  false,
		},
		{
			name:  "ownerless task denied even to admin",
			task:  ownedTask(nil),
			actor: admin,
			want:  false,
		},
		{
			name:  "nil actor always denied",
			task:  ownedTask(owner),
			actor: nil,
			want:  false,
		},
	}

	policy := NewTaskPolicy()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.CanDelete(tt.task, tt.actor); got != tt.want {
				t.Errorf("CanDelete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTaskPolicy_Allows(t *testing.T) {
	owner := newUser(1, "alice")
	other := newUser(2, "bob")

	policy := NewTaskPolicy()
	task := ownedTask(owner)

	tests := []struct {
		name   string
		actor  *domain.User
		action Action
		want   bool
	}{
		{"edit allowed to any authenticated user", other, ActionEdit, true},
		{"toggle allowed to any authenticated user", other, ActionToggle, true},
		{"delete follows ownership", other, ActionDelete, false},
		{"delete allowed to owner", owner, ActionDelete, true},
		{"nil actor denied for edit", nil, ActionEdit, false},
		{"nil actor denied for toggle", nil, ActionToggle, false},
		{"nil actor denied for delete", nil, ActionDelete, false},
		{"unknown action denied", owner, Action("task:transmogrify"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.Allows(task, tt.actor, tt.action); got != tt.want {
				t.Errorf("Allows(%q) = %v, want %v", tt.action, got, tt.want)
			}
		})
	}
}

// Admin status must not matter for non-anonymous owners: only identity does.
func TestTaskPolicy_RolesIrrelevantForOwnedTasks(t *testing.T) {
	owner := newUser(1, "alice")
	task := ownedTask(owner)
	policy := NewTaskPolicy()

	for _, roles := range [][]string{nil, {domain.RoleUser}, {domain.RoleAdmin}} {
		actor := newUser(owner.ID, owner.Username, roles...)
		if !policy.CanDelete(task, actor) {
			t.Errorf("owner with roles %v should be allowed", roles)
		}
		stranger := newUser(99, "mallory", roles...)
		if policy.CanDelete(task, stranger) {
			t.Errorf("stranger with roles %v should be denied", roles)
		}
	}
}
