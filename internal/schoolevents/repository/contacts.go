package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"minimusiker_backend/platform/apperr"
	"minimusiker_backend/platform/db"

	"github.com/google/uuid"
)

// EventTeacher links a teacher contact to an event.
type EventTeacher struct {
	ID        uuid.UUID `db:"id"`
	EventID   uuid.UUID `db:"event_id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}

// StaffAssignment links a staff member or engineer to an event.
type StaffAssignment struct {
	EventID   uuid.UUID `db:"event_id"`
	StaffID   string    `db:"staff_id"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

// AddTeacher links a teacher; re-adding the same email updates the name.
func (r *Repository) AddTeacher(ctx context.Context, eventID uuid.UUID, name, email string) (EventTeacher, error) {
	query := `
		INSERT INTO event_teachers (event_id, name, email)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id, email) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, event_id, name, email, created_at`

	var t EventTeacher
	err := r.pool.QueryRow(ctx, query, eventID, name, strings.ToLower(email)).Scan(
		&t.ID, &t.EventID, &t.Name, &t.Email, &t.CreatedAt,
	)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return EventTeacher{}, apperr.NotFound(eventNotFoundMsg)
		}
		return EventTeacher{}, fmt.Errorf("failed to add teacher: %w", err)
	}
	return t, nil
}

// ListTeachers returns the teachers linked to an event
func (r *Repository) ListTeachers(ctx context.Context, eventID uuid.UUID) ([]EventTeacher, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, event_id, name, email, created_at
		FROM event_teachers WHERE event_id = $1 ORDER BY created_at ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teachers: %w", err)
	}
	defer rows.Close()

	items := make([]EventTeacher, 0)
	for rows.Next() {
		var t EventTeacher
		if err := rows.Scan(&t.ID, &t.EventID, &t.Name, &t.Email, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan teacher: %w", err)
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// AssignStaff assigns a staff member or engineer; repeated calls are no-ops.
func (r *Repository) AssignStaff(ctx context.Context, eventID uuid.UUID, staffID, role string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_staff (event_id, staff_id, role) VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`, eventID, staffID, role)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return apperr.NotFound(eventNotFoundMsg)
		}
		return fmt.Errorf("failed to assign staff: %w", err)
	}
	return nil
}

// UnassignStaff removes an assignment
func (r *Repository) UnassignStaff(ctx context.Context, eventID uuid.UUID, staffID, role string) error {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM event_staff WHERE event_id = $1 AND staff_id = $2 AND role = $3`, eventID, staffID, role)
	if err != nil {
		return fmt.Errorf("failed to unassign staff: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("staff assignment not found")
	}
	return nil
}

// ListStaff returns all staff and engineer assignments of an event
func (r *Repository) ListStaff(ctx context.Context, eventID uuid.UUID) ([]StaffAssignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT event_id, staff_id, role, created_at
		FROM event_staff WHERE event_id = $1 ORDER BY role, created_at`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	defer rows.Close()

	items := make([]StaffAssignment, 0)
	for rows.Next() {
		var s StaffAssignment
		if err := rows.Scan(&s.EventID, &s.StaffID, &s.Role, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan staff assignment: %w", err)
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// IsStaffAssigned reports whether staffID holds role on the event
func (r *Repository) IsStaffAssigned(ctx context.Context, eventID uuid.UUID, staffID, role string) (bool, error) {
	return r.exists(ctx, "staff assignment",
		`SELECT EXISTS (SELECT 1 FROM event_staff WHERE event_id = $1 AND staff_id = $2 AND role = $3)`,
		eventID, staffID, role)
}

// IsTeacher reports whether the email belongs to a teacher of the event
func (r *Repository) IsTeacher(ctx context.Context, eventID uuid.UUID, email string) (bool, error) {
	return r.exists(ctx, "teacher link",
		`SELECT EXISTS (SELECT 1 FROM event_teachers WHERE event_id = $1 AND email = $2)`,
		eventID, strings.ToLower(email))
}

// IsParent reports whether the email registered a child for the event
func (r *Repository) IsParent(ctx context.Context, eventID uuid.UUID, email string) (bool, error) {
	return r.exists(ctx, "parent registration",
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE event_id = $1 AND lower(parent_email) = $2)`,
		eventID, strings.ToLower(email))
}

// HasMerchOrder reports whether the parent ordered merchandise for the event
func (r *Repository) HasMerchOrder(ctx context.Context, eventID uuid.UUID, email string) (bool, error) {
	return r.exists(ctx, "merch order",
		`SELECT EXISTS (SELECT 1 FROM merch_orders WHERE event_id = $1 AND lower(parent_email) = $2)`,
		eventID, strings.ToLower(email))
}

// CountRegistrations counts parent registrations of an event
func (r *Repository) CountRegistrations(ctx context.Context, eventID uuid.UUID) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}
	return n, nil
}

func (r *Repository) exists(ctx context.Context, what, query string, args ...interface{}) (bool, error) {
	var ok bool
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check %s: %w", what, err)
	}
	return ok, nil
}
