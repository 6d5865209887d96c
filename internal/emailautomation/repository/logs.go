package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Log statuses.
const (
	LogStatusSent    = "sent"
	LogStatusFailed  = "failed"
	LogStatusSkipped = "skipped"
)

const defaultLogLimit = 200

// LogEntry represents the email_logs database model
type LogEntry struct {
	ID                uuid.UUID `db:"id"`
	TemplateID        uuid.UUID `db:"template_id"`
	EventID           uuid.UUID `db:"event_id"`
	RecipientEmail    string    `db:"recipient_email"`
	Status            string    `db:"status"`
	ProviderMessageID *string   `db:"provider_message_id"`
	Error             *string   `db:"error"`
	CreatedAt         time.Time `db:"created_at"`
}

// HasSent reports whether a successful send was already recorded.
func (r *Repository) HasSent(ctx context.Context, templateID, eventID uuid.UUID, recipient string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM email_logs
			WHERE template_id = $1 AND event_id = $2 AND recipient_email = $3 AND status = 'sent'
		)`, templateID, eventID, recipient).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email log: %w", err)
	}
	return exists, nil
}

// InsertLog records a send attempt. A duplicate sent row is dropped by the
// partial unique index and reported as not inserted, unless Replace is set.
func (r *Repository) InsertLog(ctx context.Context, p LogParams) (bool, error) {
	conflict := `DO NOTHING`
	if p.Replace {
		conflict = `DO UPDATE SET provider_message_id = EXCLUDED.provider_message_id, error = NULL, created_at = now()`
	}
	query := `
		INSERT INTO email_logs (template_id, event_id, recipient_email, status, provider_message_id, error)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (template_id, event_id, recipient_email) WHERE status = 'sent' ` + conflict

	tag, err := r.pool.Exec(ctx, query, p.TemplateID, p.EventID, p.RecipientEmail, p.Status, p.ProviderMessageID, p.Error)
	if err != nil {
		return false, fmt.Errorf("failed to insert email log: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListLogs returns the newest send attempts first
func (r *Repository) ListLogs(ctx context.Context, p ListLogsParams) ([]LogEntry, error) {
	limit := p.Limit
	if limit <= 0 || limit > defaultLogLimit {
		limit = defaultLogLimit
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, template_id, event_id, recipient_email, status, provider_message_id, error, created_at
		FROM email_logs
		WHERE ($1::uuid IS NULL OR event_id = $1)
		  AND ($2::uuid IS NULL OR template_id = $2)
		ORDER BY created_at DESC
		LIMIT $3`, p.EventID, p.TemplateID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list email logs: %w", err)
	}
	defer rows.Close()

	items := make([]LogEntry, 0)
	for rows.Next() {
		var l LogEntry
		if err := rows.Scan(&l.ID, &l.TemplateID, &l.EventID, &l.RecipientEmail, &l.Status, &l.ProviderMessageID, &l.Error, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan email log: %w", err)
		}
		items = append(items, l)
	}
	return items, rows.Err()
}
