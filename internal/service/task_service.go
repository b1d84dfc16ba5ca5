package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/todoco/todoco/internal/auth"
	"github.com/todoco/todoco/internal/domain"
	"github.com/todoco/todoco/internal/repository"
)

// TaskService handles task lifecycle operations. Deletion is guarded by
// the ownership policy; edit and toggle are open to any authenticated user.
type TaskService struct {
	taskRepo repository.TaskRepository
	policy   *auth.TaskPolicy
	logger   zerolog.Logger
}

// NewTaskService creates a new TaskService.
func NewTaskService(taskRepo repository.TaskRepository, policy *auth.TaskPolicy, logger zerolog.Logger) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		policy:   policy,
		logger:   logger.With().Str("service", "task").Logger(),
	}
}

// CreateTaskInput contains the data needed to create a task.
type CreateTaskInput struct {
	Title   string
	Content string
}

// CreateTaskOutput contains the result of creating a task.
type CreateTaskOutput struct {
	Task *domain.Task
}

// Create creates a new task owned by the actor. The actor must be
// authenticated; ownership is fixed at creation and never reassigned
// through this service.
func (s *TaskService) Create(ctx context.Context, actor *domain.User, input CreateTaskInput) (*CreateTaskOutput, error) {
	if actor == nil {
		return nil, domain.ErrTaskForbidden
	}
	if err := validateTaskInput(input.Title, input.Content); err != nil {
		return nil, err
	}

	task := domain.NewTask(input.Title, input.Content)
	actor.AddTask(task)

	if err := s.taskRepo.Create(ctx, task); err != nil {
		s.logger.Error().Err(err).Str("title", input.Title).Msg("failed to create task")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Int64("owner_id", actor.ID).
		Msg("task created")

	return &CreateTaskOutput{Task: task}, nil
}

// EditTaskInput contains the data needed to edit a task.
type EditTaskInput struct {
	TaskID  int64
	Title   string
	Content string
}

// Edit updates a task's title and content. Any authenticated user may
// edit any task; ownership and completion state are untouched.
func (s *TaskService) Edit(ctx context.Context, actor *domain.User, input EditTaskInput) (*domain.Task, error) {
	task, err := s.getForWrite(ctx, actor, input.TaskID, auth.ActionEdit)
	if err != nil {
		return nil, err
	}
	if err := validateTaskInput(input.Title, input.Content); err != nil {
		return nil, err
	}

	task.Title = input.Title
	task.Content = input.Content

	if err := s.taskRepo.Update(ctx, task); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		s.logger.Error().Err(err).Int64("task_id", task.ID).Msg("failed to update task")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Int64("actor_id", actor.ID).
		Msg("task edited")

	return task, nil
}

// Toggle flips a task's completion flag. Any authenticated user may
// toggle any task.
func (s *TaskService) Toggle(ctx context.Context, actor *domain.User, taskID int64) (*domain.Task, error) {
	task, err := s.getForWrite(ctx, actor, taskID, auth.ActionToggle)
	if err != nil {
		return nil, err
	}

	task.Toggle()

	if err := s.taskRepo.Update(ctx, task); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		s.logger.Error().Err(err).Int64("task_id", task.ID).Msg("failed to toggle task")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Int64("actor_id", actor.ID).
		Bool("is_done", task.IsDone).
		Msg("task toggled")

	return task, nil
}

// Delete removes a task. The ownership policy decides: owners may delete
// their own tasks, admins may delete tasks of the shared anonymous owner,
// and tasks without an owner cannot be deleted through this service.
func (s *TaskService) Delete(ctx context.Context, actor *domain.User, taskID int64) error {
	task, err := s.getForWrite(ctx, actor, taskID, auth.ActionDelete)
	if err != nil {
		return err
	}

	// Detach before deleting so the in-memory owner no longer lists it.
	if task.Owner != nil {
		task.Owner.RemoveTask(task)
	}

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return domain.ErrTaskNotFound
		}
		s.logger.Error().Err(err).Int64("task_id", taskID).Msg("failed to delete task")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("task_id", taskID).
		Int64("actor_id", actor.ID).
		Msg("task deleted")

	return nil
}

// Get retrieves a task by ID with its owner resolved.
func (s *TaskService) Get(ctx context.Context, taskID int64) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		s.logger.Error().Err(err).Int64("task_id", taskID).Msg("failed to get task")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return task, nil
}

// List returns all tasks, newest first.
func (s *TaskService) List(ctx context.Context) ([]*domain.Task, error) {
	tasks, err := s.taskRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list tasks")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return tasks, nil
}

// ListByStatus returns tasks filtered by completion flag.
func (s *TaskService) ListByStatus(ctx context.Context, isDone bool) ([]*domain.Task, error) {
	tasks, err := s.taskRepo.ListByStatus(ctx, isDone)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list tasks by status")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return tasks, nil
}

// ListByOwner returns tasks owned by the given user.
func (s *TaskService) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Task, error) {
	tasks, err := s.taskRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error().Err(err).Int64("owner_id", ownerID).Msg("failed to list tasks by owner")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return tasks, nil
}

// Last returns the most recently created task, or nil when none exist.
func (s *TaskService) Last(ctx context.Context) (*domain.Task, error) {
	task, err := s.taskRepo.Last(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		s.logger.Error().Err(err).Msg("failed to get last task")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return task, nil
}

// CanDelete reports whether the actor may delete the task. Exposed for
// the view layer so delete buttons match what the policy will allow.
func (s *TaskService) CanDelete(task *domain.Task, actor *domain.User) bool {
	return s.policy.CanDelete(task, actor)
}

// getForWrite loads a task and checks the policy for the given action.
func (s *TaskService) getForWrite(ctx context.Context, actor *domain.User, taskID int64, action auth.Action) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		s.logger.Error().Err(err).Int64("task_id", taskID).Msg("failed to get task")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if !s.policy.Allows(task, actor, action) {
		s.logger.Warn().
			Int64("task_id", taskID).
			Str("action", string(action)).
			Msg("task action denied")
		return nil, domain.ErrTaskForbidden
	}

	return task, nil
}

// validateTaskInput checks the title and content constraints shared by
// create and edit.
func validateTaskInput(title, content string) error {
	if title == "" {
		return ErrInvalidTitle
	}
	if content == "" {
		return ErrInvalidContent
	}
	return nil
}
