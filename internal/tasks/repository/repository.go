package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"minimusiker_backend/platform/apperr"
	"minimusiker_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Task types.
const (
	TypeGuesstimateOrder = "guesstimate_order"
	TypePrintOrder       = "print_order"
	TypeShipping         = "shipping"
)

// Task statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Task represents the tasks database model
type Task struct {
	ID             uuid.UUID  `db:"id"`
	EventID        uuid.UUID  `db:"event_id"`
	Type           string     `db:"type"`
	Status         string     `db:"status"`
	CompletionData string     `db:"completion_data"`
	ParentTaskID   *uuid.UUID `db:"parent_task_id"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	CompletedAt    *time.Time `db:"completed_at"`
}

// QueueItem is a task joined with the fields of its event used for grouping.
type QueueItem struct {
	Task
	EventRef   string    `db:"event_ref"`
	SchoolName string    `db:"school_name"`
	EventDate  time.Time `db:"event_date"`
}

// Repository provides database operations for the task queue
type Repository struct {
	pool *pgxpool.Pool
}

const (
	taskNotFoundMsg = "task not found"
	taskColumns     = `id, event_id, type, status, completion_data, parent_task_id, created_at, updated_at, completed_at`
)

// New creates a new tasks repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ TasksRepository = (*Repository)(nil)

func scanTask(row pgx.Row) (Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.EventID, &t.Type, &t.Status, &t.CompletionData, &t.ParentTaskID, &t.CreatedAt, &t.UpdatedAt, &t.CompletedAt)
	return t, err
}

// GetByID retrieves a task by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, apperr.NotFound(taskNotFoundMsg)
		}
		return Task{}, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// List returns queue items ordered by event date, then creation time
func (r *Repository) List(ctx context.Context, p ListParams) ([]QueueItem, error) {
	query := `
		SELECT t.id, t.event_id, t.type, t.status, t.completion_data, t.parent_task_id,
			t.created_at, t.updated_at, t.completed_at,
			e.event_id, e.school_name, e.event_date
		FROM tasks t
		JOIN events e ON e.id = t.event_id
		WHERE ($1::text = '' OR t.status = $1)
		  AND ($2::text = '' OR t.type = $2)
		  AND ($3::uuid IS NULL OR t.event_id = $3)
		ORDER BY e.event_date ASC, t.created_at ASC`

	rows, err := r.pool.Query(ctx, query, p.Status, p.Type, p.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	items := make([]QueueItem, 0)
	for rows.Next() {
		var it QueueItem
		if err := rows.Scan(
			&it.ID, &it.EventID, &it.Type, &it.Status, &it.CompletionData, &it.ParentTaskID,
			&it.CreatedAt, &it.UpdatedAt, &it.CompletedAt,
			&it.EventRef, &it.SchoolName, &it.EventDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Create inserts a pending task
func (r *Repository) Create(ctx context.Context, p CreateParams) (Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `
		INSERT INTO tasks (event_id, type) VALUES ($1, $2)
		RETURNING `+taskColumns, p.EventID, p.Type))
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return Task{}, apperr.NotFound("event not found")
		}
		return Task{}, fmt.Errorf("failed to create task: %w", err)
	}
	return t, nil
}

// Complete marks a pending task completed and optionally creates its
// shipping task. The unique parent_task_id keeps it to one shipping task.
func (r *Repository) Complete(ctx context.Context, id uuid.UUID, completionData string, spawnShipping bool) (Task, *Task, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Task{}, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	t, err := scanTask(tx.QueryRow(ctx, `
		UPDATE tasks SET status = 'completed', completion_data = $2, completed_at = now(), updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+taskColumns, id, completionData))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, nil, r.transitionError(ctx, id)
		}
		return Task{}, nil, fmt.Errorf("failed to complete task: %w", err)
	}

	var shipping *Task
	if spawnShipping {
		s, err := scanTask(tx.QueryRow(ctx, `
			INSERT INTO tasks (event_id, type, parent_task_id) VALUES ($1, 'shipping', $2)
			ON CONFLICT (parent_task_id) DO NOTHING
			RETURNING `+taskColumns, t.EventID, t.ID))
		switch {
		case err == nil:
			shipping = &s
		case errors.Is(err, pgx.ErrNoRows):
		default:
			return Task{}, nil, fmt.Errorf("failed to create shipping task: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Task{}, nil, fmt.Errorf("failed to commit task completion: %w", err)
	}
	return t, shipping, nil
}

// Cancel marks a pending task cancelled
func (r *Repository) Cancel(ctx context.Context, id uuid.UUID) (Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `
		UPDATE tasks SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+taskColumns, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, r.transitionError(ctx, id)
		}
		return Task{}, fmt.Errorf("failed to cancel task: %w", err)
	}
	return t, nil
}

// transitionError tells a missing task apart from one in a terminal state.
func (r *Repository) transitionError(ctx context.Context, id uuid.UUID) error {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return apperr.Conflict(fmt.Sprintf("task is already %s", current.Status))
}
