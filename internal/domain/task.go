package domain

import (
	"time"
)

// Task represents a single task on a user's list.
// Task.Owner is the owning side of the user/task association; a task may
// have no owner, for example after its owner was removed without cascade.
type Task struct {
	// ID is the unique identifier for the task (assigned by the store).
	ID int64 `json:"id"`

	// Title is the short label of the task. An empty title is permitted
	// at the entity level.
	Title string `json:"title"`

	// Content is the free-form body of the task.
	Content string `json:"content"`

	// IsDone reports whether the task has been completed.
	IsDone bool `json:"is_done"`

	// CreatedAt is set once at creation and immutable thereafter.
	CreatedAt time.Time `json:"created_at"`

	// Owner is the user this task belongs to, or nil for a detached task.
	Owner *User `json:"-"`
}

// NewTask creates a new Task with default values.
func NewTask(title, content string) *Task {
	return &Task{
		Title:     title,
		Content:   content,
		IsDone:    false,
		CreatedAt: time.Now().UTC(),
	}
}

// Toggle flips the completion flag.
func (t *Task) Toggle() {
	t.IsDone = !t.IsDone
}

// OwnerID returns the owning user's ID, or 0 for a detached task.
func (t *Task) OwnerID() int64 {
	if t.Owner == nil {
		return 0
	}
	return t.Owner.ID
}

// HasAnonymousOwner reports whether the task belongs to the shared
// "anonyme" user.
func (t *Task) HasAnonymousOwner() bool {
	return t.Owner != nil && t.Owner.IsAnonymous()
}
