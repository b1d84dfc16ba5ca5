package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/todoco/todoco/internal/domain"
	"github.com/todoco/todoco/internal/repository"
)

// taskRepository implements repository.TaskRepository for SQLite.
// Reads join the owning user so Task.Owner is resolved in one query.
type taskRepository struct {
	db *DB
}

// NewTaskRepository creates a new SQLite task repository.
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
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		task.Title,
		task.Content,
		boolToInt(task.IsDone),
		task.CreatedAt.Format(time.RFC3339),
		ownerIDArg(task),
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	task.ID = id

	return nil
}

// GetByID retrieves a task by ID.
func (r *taskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, taskSelect+` WHERE t.id = ?`, id)

	task, err := scanTaskRow(row)
	if err != nil {
		if isNoRows(err) {
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
	return r.query(ctx, taskSelect+` WHERE t.is_done = ? ORDER BY t.id DESC`, boolToInt(isDone))
}

// ListByOwner returns tasks owned by the given user.
func (r *taskRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Task, error) {
	return r.query(ctx, taskSelect+` WHERE t.owner_id = ? ORDER BY t.id DESC`, ownerID)
}

// Last returns the most recently created task.
func (r *taskRepository) Last(ctx context.Context) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, taskSelect+` ORDER BY t.id DESC LIMIT 1`)

	task, err := scanTaskRow(row)
	if err != nil {
		if isNoRows(err) {
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
		SET title = ?, content = ?, is_done = ?, owner_id = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		task.Title,
		task.Content,
		boolToInt(task.IsDone),
		ownerIDArg(task),
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrTaskNotFound
	}

	return nil
}

// Delete deletes a task by ID.
func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrTaskNotFound
	}

	return nil
}

func (r *taskRepository) query(ctx context.Context, query string, args ...interface{}) ([]*domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
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

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanTaskRow scans a task row with its left-joined owner columns.
func scanTaskRow(row rowScanner) (*domain.Task, error) {
	task := &domain.Task{}
	var isDone int
	var createdAt string
	var ownerID sql.NullInt64
	var ownerUsername, ownerEmail, ownerHash, ownerRoles sql.NullString
	var ownerCreatedAt, ownerUpdatedAt sql.NullString

	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Content,
		&isDone,
		&createdAt,
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

	task.IsDone = isDone != 0
	task.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	if ownerID.Valid {
		owner := &domain.User{
			ID:           ownerID.Int64,
			Username:     ownerUsername.String,
			Email:        ownerEmail.String,
			PasswordHash: ownerHash.String,
		}
		if owner.Roles, err = decodeRoles(ownerRoles.String); err != nil {
			return nil, err
		}
		owner.CreatedAt, _ = time.Parse(time.RFC3339, ownerCreatedAt.String)
		owner.UpdatedAt, _ = time.Parse(time.RFC3339, ownerUpdatedAt.String)
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

// boolToInt converts a boolean to an integer (SQLite doesn't have native boolean).
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Ensure taskRepository implements repository.TaskRepository.
var _ repository.TaskRepository = (*taskRepository)(nil)
