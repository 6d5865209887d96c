package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Recipient roles.
const (
	RoleTeacher  = "teacher"
	RoleParent   = "parent"
	RoleNonBuyer = "non-buyer"
)

// Recipient is one addressee of an automated email.
type Recipient struct {
	Email     string
	Name      string
	ChildName string
	Role      string
}

// ListTeacherRecipients returns the teachers linked to an event
func (r *Repository) ListTeacherRecipients(ctx context.Context, eventID uuid.UUID) ([]Recipient, error) {
	return r.recipients(ctx, RoleTeacher, `
		SELECT lower(email), name, ''
		FROM event_teachers
		WHERE event_id = $1
		ORDER BY created_at ASC`, eventID)
}

// ListParentRecipients returns one row per registered parent email
func (r *Repository) ListParentRecipients(ctx context.Context, eventID uuid.UUID, buyersOnly bool) ([]Recipient, error) {
	return r.recipients(ctx, RoleParent, `
		SELECT DISTINCT ON (lower(reg.parent_email)) lower(reg.parent_email), reg.parent_name, reg.child_name
		FROM registrations reg
		WHERE reg.event_id = $1
		  AND ($2::boolean = false OR EXISTS (
			SELECT 1 FROM merch_orders mo
			WHERE mo.event_id = reg.event_id AND lower(mo.parent_email) = lower(reg.parent_email)
		  ))
		ORDER BY lower(reg.parent_email), reg.created_at ASC`, eventID, buyersOnly)
}

// ListNonBuyerRecipients returns registered parents without any merchandise order
func (r *Repository) ListNonBuyerRecipients(ctx context.Context, eventID uuid.UUID) ([]Recipient, error) {
	return r.recipients(ctx, RoleNonBuyer, `
		SELECT DISTINCT ON (lower(reg.parent_email)) lower(reg.parent_email), reg.parent_name, reg.child_name
		FROM registrations reg
		WHERE reg.event_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM merch_orders mo
			WHERE mo.event_id = reg.event_id AND lower(mo.parent_email) = lower(reg.parent_email)
		  )
		ORDER BY lower(reg.parent_email), reg.created_at ASC`, eventID)
}

func (r *Repository) recipients(ctx context.Context, role, query string, args ...any) ([]Recipient, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s recipients: %w", role, err)
	}
	defer rows.Close()

	items := make([]Recipient, 0)
	for rows.Next() {
		rc := Recipient{Role: role}
		if err := rows.Scan(&rc.Email, &rc.Name, &rc.ChildName); err != nil {
			return nil, fmt.Errorf("failed to scan %s recipient: %w", role, err)
		}
		items = append(items, rc)
	}
	return items, rows.Err()
}

// ListActiveEventIDs returns active events whose date lies within [from, to]
func (r *Repository) ListActiveEventIDs(ctx context.Context, from, to time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM events
		WHERE status = 'active' AND event_date BETWEEN $1::date AND $2::date
		ORDER BY event_date ASC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list active events: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan event id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
