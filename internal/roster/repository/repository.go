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

// Class represents the class database model
type Class struct {
	ID          uuid.UUID `db:"id"`
	EventID     uuid.UUID `db:"event_id"`
	Name        string    `db:"name"`
	TeacherName string    `db:"teacher_name"`
	NumChildren int       `db:"num_children"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Repository provides database operations for classes, groups and songs
type Repository struct {
	pool *pgxpool.Pool
}

const (
	classNotFoundMsg = "class not found"
	classColumns     = `id, event_id, name, teacher_name, num_children, created_at, updated_at`
)

// New creates a new roster repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ RosterRepository = (*Repository)(nil)

func scanClass(row pgx.Row) (Class, error) {
	var c Class
	err := row.Scan(&c.ID, &c.EventID, &c.Name, &c.TeacherName, &c.NumChildren, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// GetClass retrieves a class by ID
func (r *Repository) GetClass(ctx context.Context, id uuid.UUID) (Class, error) {
	c, err := scanClass(r.pool.QueryRow(ctx, `SELECT `+classColumns+` FROM classes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Class{}, apperr.NotFound(classNotFoundMsg)
		}
		return Class{}, fmt.Errorf("failed to get class: %w", err)
	}
	return c, nil
}

// ListClasses returns the classes of an event ordered by name
func (r *Repository) ListClasses(ctx context.Context, eventID uuid.UUID) ([]Class, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+classColumns+` FROM classes WHERE event_id = $1 ORDER BY name ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	defer rows.Close()

	items := make([]Class, 0)
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan class: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// CreateClass inserts a class
func (r *Repository) CreateClass(ctx context.Context, p ClassParams) (Class, error) {
	query := `
		INSERT INTO classes (event_id, name, teacher_name, num_children)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + classColumns

	c, err := scanClass(r.pool.QueryRow(ctx, query, p.EventID, p.Name, p.TeacherName, p.NumChildren))
	if err != nil {
		return Class{}, mapClassWriteError(err, "create")
	}
	return c, nil
}

// UpdateClass updates the writable class fields
func (r *Repository) UpdateClass(ctx context.Context, id uuid.UUID, p ClassParams) (Class, error) {
	query := `
		UPDATE classes SET name = $2, teacher_name = $3, num_children = $4, updated_at = now()
		WHERE id = $1
		RETURNING ` + classColumns

	c, err := scanClass(r.pool.QueryRow(ctx, query, id, p.Name, p.TeacherName, p.NumChildren))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Class{}, apperr.NotFound(classNotFoundMsg)
		}
		return Class{}, mapClassWriteError(err, "update")
	}
	return c, nil
}

// DeleteClass removes a class. Songs of the class and its group memberships
// cascade; audio files and registrations keep the class from being deleted.
func (r *Repository) DeleteClass(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return apperr.Conflict("class still has audio files or registrations")
		}
		return fmt.Errorf("failed to delete class: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(classNotFoundMsg)
	}
	return nil
}

func mapClassWriteError(err error, op string) error {
	switch {
	case db.IsUniqueViolation(err):
		return apperr.Conflict("a class with this name already exists for the event")
	case db.IsForeignKeyViolation(err):
		return apperr.NotFound("event not found")
	default:
		return fmt.Errorf("failed to %s class: %w", op, err)
	}
}
