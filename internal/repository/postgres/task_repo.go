package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/todoco/todoco/internal/domain"
	"github.com/todoco/todoco/internal/repository"
)

// taskRepository implements repository.TaskRepository for PostgreSQL.
// Reads join the owning user so Task.Owner is resolved in one query.
type taskRepository struct {
	db *DB
}

// NewTaskRepository creates a new PostgreSQL task repository.
func NewTaskRepository(db *DB) repository.TaskRepository {
	return &taskRepository{db: db}
}

const taskSelect = `
	SELECT t.id, t.title, t.content, t.is_done, t.created_at,
	       u.id, u.username, u.email, u.password_hash, u.roles, u.created_at, u.updated_at
	FROM tasks t
	LEFT JOIN users u ON u.id = t.owner_id
`

// Create creates a new task.
func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO tasks (title, content, is_done, created_at, owner_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		task.Title,
		task.Content,
		task.IsDone,
		task.CreatedAt,
		ownerIDArg(task),
	).Scan(&task.ID)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetByID retrieves a task by ID.
func (r *taskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	row := r.db.Pool.QueryRow(ctx, taskSelect+` WHERE t.id = $1`, id)

	task, err := scanTaskRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// List returns all tasks, newest first.
func (r *taskRepository) List(ctx context.Context) ([]*domain.Task, error) {
	return r.query(ctx, taskSelect+` ORDER BY t.id DESC`)
}

// ListByStatus returns tasks filtered by completion flag.
func (r *taskRepository) ListByStatus(ctx context.Context, isDone bool) ([]*domain.Task, error) {
	return r.query(ctx, taskSelect+` WHERE t.is_done = $1 ORDER BY t.id DESC`, isDone)
}

// ListByOwner returns tasks owned by the given user.
func (r *taskRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Task, error) {
	return r.query(ctx, taskSelect+` WHERE t.owner_id = $1 ORDER BY t.id DESC`, ownerID)
}

// Last returns the most recently created task.
func (r *taskRepository) Last(ctx context.Context) (*domain.Task, error) {
	row := r.db.Pool.QueryRow(ctx, taskSelect+` ORDER BY t.id DESC LIMIT 1`)

	task, err := scanTaskRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get last task: %w", err)
	}
	return task, nil
}

// Update updates an existing task. CreatedAt is never written back.
func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	query := `
		UPDATE tasks
		SET title = $1, content = $2, is_done = $3, owner_id = $4
		WHERE id = $5
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		task.Title,
		task.Content,
		task.IsDone,
		ownerIDArg(task),
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}

	return nil
}

// Delete deletes a task by ID.
func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}

	return nil
}

func (r *taskRepository) query(ctx context.Context, query string, args ...interface{}) ([]*domain.Task, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTaskRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// scanTaskRow scans a task row with its left-joined owner columns.
func scanTaskRow(row pgx.Row) (*domain.Task, error) {
	task := &domain.Task{}
	var ownerID sql.NullInt64
	var ownerUsername, ownerEmail, ownerHash sql.NullString
	var ownerRoles []byte
	var ownerCreatedAt, ownerUpdatedAt sql.NullTime

	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Content,
		&task.IsDone,
		&task.CreatedAt,
		&ownerID,
		&ownerUsername,
		&ownerEmail,
		&ownerHash,
		&ownerRoles,
		&ownerCreatedAt,
		&ownerUpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if ownerID.Valid {
		owner := &domain.User{
			ID:           ownerID.Int64,
			Username:     ownerUsername.String,
			Email:        ownerEmail.String,
			PasswordHash: ownerHash.String,
			CreatedAt:    ownerCreatedAt.Time,
			UpdatedAt:    ownerUpdatedAt.Time,
		}
		if owner.Roles, err = decodeRoles(ownerRoles); err != nil {
			return nil, err
		}
		task.Owner = owner
	}

	return task, nil
}

// ownerIDArg converts the owner reference to a nullable column value.
func ownerIDArg(task *domain.Task) interface{} {
	if task.Owner == nil {
		return nil
	}
	return task.Owner.ID
}

// Ensure taskRepository implements repository.TaskRepository.
var _ repository.TaskRepository = (*taskRepository)(nil)
