// Package auth provides the ownership policy and session authentication
// for Todoco. The policy is a pure decision component: given a task, an
// actor and an intended action it returns allow/deny, with no side effects
// and no I/O.
package auth

import (
	"github.com/todoco/todoco/internal/domain"
)

// Action identifies an operation a policy decision is requested for.
type Action string

const (
	// ActionDelete removes a task. This is the only ownership-gated action.
	ActionDelete Action = "task:delete"

	// ActionEdit mutates a task's title/content.
	ActionEdit Action = "task:edit"

	// ActionToggle flips a task's completion flag.
	ActionToggle Action = "task:toggle"
)

// TaskPolicy decides whether an actor may perform an action on a task.
// A nil actor is the unauthenticated sentinel and is always denied;
// callers are expected to have rejected unauthenticated requests before
// reaching the policy, but the policy defends this case anyway.
type TaskPolicy struct{}

// NewTaskPolicy creates a new TaskPolicy.
func NewTaskPolicy() *TaskPolicy {
	return &TaskPolicy{}
}

// Allows reports whether the actor may perform the given action on the task.
// Edit and toggle are gated only by authentication; delete is gated by the
// ownership rules of CanDelete.
func (p *TaskPolicy) Allows(task *domain.Task, actor *domain.User, action Action) bool {
	if actor == nil {
		return false
	}

	switch action {
	case ActionDelete:
		return p.CanDelete(task, actor)
	case ActionEdit, ActionToggle:
		return true
	}

	return false
}

// CanDelete decides whether the actor may delete the task.
//
// Rules:
//   - an unauthenticated actor (nil) is denied unconditionally;
//   - a task owned by the shared "anonyme" user may be deleted only by an
//     actor holding the ADMIN role, regardless of any other relationship
//     to the task;
//   - otherwise deletion is allowed only to the task's owner. A task with
//     no owner matches nobody and is undeletable through this policy; the
//     administrative bypass lives outside it.
//
// The caller resolves task existence first; task must be non-nil.
func (p *TaskPolicy) CanDelete(task *domain.Task, actor *domain.User) bool {
	if actor == nil {
		return false
	}

	if task.HasAnonymousOwner() {
		return actor.HasRole(domain.RoleAdmin)
	}

	return task.Owner != nil && task.Owner.ID == actor.ID
}
