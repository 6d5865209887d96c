package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const maxListLimit = 200

// Entry is one activity log row.
type Entry struct {
	ID        uuid.UUID      `json:"id"`
	EventID   *uuid.UUID     `json:"eventId,omitempty"`
	Actor     string         `json:"actor,omitempty"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Writer persists activity entries.
type Writer interface {
	Insert(ctx context.Context, entry Entry) error
}

// Repository provides database operations for activity_logs
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new activity repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert writes one entry
func (r *Repository) Insert(ctx context.Context, e Entry) error {
	details, err := json.Marshal(e.Details)
	if err != nil || e.Details == nil {
		details = []byte("{}")
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO activity_logs (event_id, actor, action, details) VALUES ($1, $2, $3, $4)`,
		e.EventID, e.Actor, e.Action, details)
	if err != nil {
		return fmt.Errorf("failed to insert activity log: %w", err)
	}
	return nil
}

// ListByEvent returns the newest entries of an event first
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID, limit int) ([]Entry, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, event_id, actor, action, details, created_at
		FROM activity_logs WHERE event_id = $1
		ORDER BY created_at DESC LIMIT $2`, eventID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	items := make([]Entry, 0)
	for rows.Next() {
		var (
			e   Entry
			raw []byte
		)
		if err := rows.Scan(&e.ID, &e.EventID, &e.Actor, &e.Action, &raw, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		_ = json.Unmarshal(raw, &e.Details)
		items = append(items, e)
	}
	return items, rows.Err()
}

// DeleteBefore removes entries created before the cutoff.
func (r *Repository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM activity_logs WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune activity logs: %w", err)
	}
	return tag.RowsAffected(), nil
}
