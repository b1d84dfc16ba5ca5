package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/todoco/todoco/internal/auth"
	"github.com/todoco/todoco/internal/domain"
	"github.com/todoco/todoco/internal/repository"
)

// MockTaskRepository is a mock implementation of repository.TaskRepository.
type MockTaskRepository struct {
	tasks     map[int64]*domain.Task
	nextID    int64
	createErr error
	getErr    error
	updateErr error
	deleteErr error
}

func NewMockTaskRepository() *MockTaskRepository {
	return &MockTaskRepository{
		tasks:  make(map[int64]*domain.Task),
		nextID: 1,
	}
}

func (m *MockTaskRepository) Create(ctx context.Context, task *domain.Task) error {
	if m.createErr != nil {
		return m.createErr
	}
	task.ID = m.nextID
	m.nextID++
	m.tasks[task.ID] = task
	return nil
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if task, exists := m.tasks[id]; exists {
		return task, nil
	}
	return nil, domain.ErrTaskNotFound
}

func (m *MockTaskRepository) List(ctx context.Context) ([]*domain.Task, error) {
	var result []*domain.Task
	for _, task := range m.tasks {
		result = append(result, task)
	}
	return result, nil
}

func (m *MockTaskRepository) ListByStatus(ctx context.Context, isDone bool) ([]*domain.Task, error) {
	var result []*domain.Task
	for _, task := range m.tasks {
		if task.IsDone == isDone {
			result = append(result, task)
		}
	}
	return result, nil
}

func (m *MockTaskRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Task, error) {
	var result []*domain.Task
	for _, task := range m.tasks {
		if task.OwnerID() == ownerID {
			result = append(result, task)
		}
	}
	return result, nil
}

func (m *MockTaskRepository) Last(ctx context.Context) (*domain.Task, error) {
	var last *domain.Task
	for _, task := range m.tasks {
		if last == nil || task.ID > last.ID {
			last = task
		}
	}
	if last == nil {
		return nil, repository.ErrNotFound
	}
	return last, nil
}

func (m *MockTaskRepository) Update(ctx context.Context, task *domain.Task) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, exists := m.tasks[task.ID]; !exists {
		return domain.ErrTaskNotFound
	}
	m.tasks[task.ID] = task
	return nil
}

func (m *MockTaskRepository) Delete(ctx context.Context, id int64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, exists := m.tasks[id]; !exists {
		return domain.ErrTaskNotFound
	}
	delete(m.tasks, id)
	return nil
}

func newTaskService(repo *MockTaskRepository) *TaskService {
	return NewTaskService(repo, auth.NewTaskPolicy(), zerolog.Nop())
}

// =============================================================================
// Tests
// =============================================================================

func TestTaskService_Create(t *testing.T) {
	actor := &domain.User{ID: 1, Username: "alice"}

	tests := []struct {
		name    string
		actor   *domain.User
		input   CreateTaskInput
		wantErr error
	}{
		{
			name:  "success",
			actor: actor,
			input: CreateTaskInput{Title: "buy milk", Content: "two liters"},
		},
		{
			name:    "unauthenticated actor denied",
			actor:   nil,
			input:   CreateTaskInput{Title: "buy milk", Content: "two liters"},
			wantErr: domain.ErrTaskForbidden,
		},
		{
			name:    "empty title rejected",
			actor:   actor,
			input:   CreateTaskInput{Title: "", Content: "two liters"},
			wantErr: ErrInvalidTitle,
		},
		{
			name:    "empty content rejected",
			actor:   actor,
			input:   CreateTaskInput{Title: "buy milk", Content: ""},
			wantErr: ErrInvalidContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockTaskRepository()
			svc := newTaskService(repo)

			output, err := svc.Create(context.Background(), tt.actor, tt.input)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			task := output.Task
			if task.Owner != tt.actor {
				t.Error("created task should be owned by the actor")
			}
			if task.IsDone {
				t.Error("created task should start not done")
			}
			found := false
			for _, owned := range tt.actor.Tasks {
				if owned == task {
					found = true
				}
			}
			if !found {
				t.Error("actor's task set should contain the new task")
			}
		})
	}
}

func TestTaskService_Delete(t *testing.T) {
	tests := []struct {
		name    string
		ownerOf func() *domain.User
		actorOf func(owner *domain.User) *domain.User
		wantErr error
	}{
		{
			name:    "owner may delete own task",
			ownerOf: func() *domain.User { return &domain.User{ID: 1, Username: "alice"} },
			actorOf: func(owner *domain.User) *domain.User { return owner },
		},
		{
			name:    "non-owner denied",
			ownerOf: func() *domain.User { return &domain.User{ID: 1, Username: "alice"} },
			actorOf: func(owner *domain.User) *domain.User { return &domain.User{ID: 2, Username: "bob"} },
			wantErr: domain.ErrTaskForbidden,
		},
		{
			name:    "admin denied on another user's task",
			ownerOf: func() *domain.User { return &domain.User{ID: 1, Username: "alice"} },
			actorOf: func(owner *domain.User) *domain.User {
				return &domain.User{ID: 3, Username: "carol", Roles: []string{domain.RoleAdmin}}
			},
			wantErr: domain.ErrTaskForbidden,
		},
		{
			name:    "anonymous-owned task denied to regular user",
			ownerOf: func() *domain.User { return &domain.User{ID: 4, Username: domain.AnonymousUsername} },
			actorOf: func(owner *domain.User) *domain.User { return &domain.User{ID: 2, Username: "bob"} },
			wantErr: domain.ErrTaskForbidden,
		},
		{
			name:    "anonymous-owned task allowed for admin",
			ownerOf: func() *domain.User { return &domain.User{ID: 4, Username: domain.AnonymousUsername} },
			actorOf: func(owner *domain.User) *domain.User {
				return &domain.User{ID: 3, Username: "carol", Roles: []string{domain.RoleAdmin}}
			},
		},
		{
			name:    "ownerless task denied to everyone",
			ownerOf: func() *domain.User { return nil },
			actorOf: func(owner *domain.User) *domain.User {
				return &domain.User{ID: 3, Username: "carol", Roles: []string{domain.RoleAdmin}}
			},
			wantErr: domain.ErrTaskForbidden,
		},
		{
			name:    "unauthenticated actor denied",
			ownerOf: func() *domain.User { return &domain.User{ID: 1, Username: "alice"} },
			actorOf: func(owner *domain.User) *domain.User { return nil },
			wantErr: domain.ErrTaskForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockTaskRepository()
			svc := newTaskService(repo)

			owner := tt.ownerOf()
			task := domain.NewTask("title", "content")
			if owner != nil {
				owner.AddTask(task)
			}
			if err := repo.Create(context.Background(), task); err != nil {
				t.Fatalf("seed task: %v", err)
			}

			actor := tt.actorOf(owner)
			err := svc.Delete(context.Background(), actor, task.ID)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				if _, exists := repo.tasks[task.ID]; !exists {
					t.Error("denied delete must not remove the task")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if _, exists := repo.tasks[task.ID]; exists {
				t.Error("task should be removed from the store")
			}
			if owner != nil && len(owner.Tasks) != 0 {
				t.Error("task should be removed from the owner's task set")
			}
		})
	}
}

func TestTaskService_DeleteNotFound(t *testing.T) {
	svc := newTaskService(NewMockTaskRepository())
	actor := &domain.User{ID: 1, Username: "alice"}

	err := svc.Delete(context.Background(), actor, 42)
	if !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

// Edit and toggle are deliberately open to any authenticated user,
// regardless of ownership.
func TestTaskService_EditWithoutOwnership(t *testing.T) {
	repo := NewMockTaskRepository()
	svc := newTaskService(repo)

	owner := &domain.User{ID: 1, Username: "alice"}
	task := domain.NewTask("original", "content")
	owner.AddTask(task)
	if err := repo.Create(context.Background(), task); err != nil {
		t.Fatalf("seed task: %v", err)
	}

	stranger := &domain.User{ID: 2, Username: "bob"}
	updated, err := svc.Edit(context.Background(), stranger, EditTaskInput{
		TaskID:  task.ID,
		Title:   "changed",
		Content: "changed content",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Title != "changed" {
		t.Errorf("title = %q, want %q", updated.Title, "changed")
	}
	if updated.Owner != owner {
		t.Error("editing must not reassign ownership")
	}

	if _, err := svc.Edit(context.Background(), nil, EditTaskInput{TaskID: task.ID, Title: "x", Content: "y"}); !errors.Is(err, domain.ErrTaskForbidden) {
		t.Errorf("unauthenticated edit should be forbidden, got %v", err)
	}
}

func TestTaskService_ToggleWithoutOwnership(t *testing.T) {
	repo := NewMockTaskRepository()
	svc := newTaskService(repo)

	owner := &domain.User{ID: 1, Username: "alice"}
	task := domain.NewTask("title", "content")
	owner.AddTask(task)
	if err := repo.Create(context.Background(), task); err != nil {
		t.Fatalf("seed task: %v", err)
	}

	stranger := &domain.User{ID: 2, Username: "bob"}

	toggled, err := svc.Toggle(context.Background(), stranger, task.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !toggled.IsDone {
		t.Error("first toggle should mark the task done")
	}

	toggled, err = svc.Toggle(context.Background(), stranger, task.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toggled.IsDone {
		t.Error("second toggle should return the task to not done")
	}
}

func TestTaskService_Last(t *testing.T) {
	repo := NewMockTaskRepository()
	svc := newTaskService(repo)

	task, err := svc.Last(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task != nil {
		t.Error("empty store should yield a nil last task")
	}

	actor := &domain.User{ID: 1, Username: "alice"}
	first, _ := svc.Create(context.Background(), actor, CreateTaskInput{Title: "first", Content: "c"})
	second, _ := svc.Create(context.Background(), actor, CreateTaskInput{Title: "second", Content: "c"})
	_ = first

	task, err = svc.Last(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task == nil || task.ID != second.Task.ID {
		t.Errorf("Last() should return the newest task")
	}
}
