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
)

// Group represents a choir group made of several classes
type Group struct {
	ID        uuid.UUID   `db:"id"`
	EventID   uuid.UUID   `db:"event_id"`
	Name      string      `db:"name"`
	ClassIDs  []uuid.UUID `db:"class_ids"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

const (
	groupNotFoundMsg = "group not found"

	groupSelect = `
		SELECT g.id, g.event_id, g.name,
			COALESCE(array_agg(m.class_id ORDER BY m.class_id) FILTER (WHERE m.class_id IS NOT NULL), '{}') AS class_ids,
			g.created_at, g.updated_at
		FROM choir_groups g
		LEFT JOIN choir_group_members m ON m.group_id = g.id`
	groupGroupBy = ` GROUP BY g.id`
)

func scanGroup(row pgx.Row) (Group, error) {
	var g Group
	err := row.Scan(&g.ID, &g.EventID, &g.Name, &g.ClassIDs, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

// GetGroup retrieves a group with its member class IDs
func (r *Repository) GetGroup(ctx context.Context, id uuid.UUID) (Group, error) {
	g, err := scanGroup(r.pool.QueryRow(ctx, groupSelect+` WHERE g.id = $1`+groupGroupBy, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Group{}, apperr.NotFound(groupNotFoundMsg)
		}
		return Group{}, fmt.Errorf("failed to get group: %w", err)
	}
	return g, nil
}

// ListGroups returns the groups of an event ordered by name
func (r *Repository) ListGroups(ctx context.Context, eventID uuid.UUID) ([]Group, error) {
	rows, err := r.pool.Query(ctx, groupSelect+` WHERE g.event_id = $1`+groupGroupBy+` ORDER BY g.name ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	items := make([]Group, 0)
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		items = append(items, g)
	}
	return items, rows.Err()
}

// CreateGroup inserts a group and its members in one transaction
func (r *Repository) CreateGroup(ctx context.Context, p GroupParams) (Group, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Group{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id uuid.UUID
	err = tx.QueryRow(ctx, `INSERT INTO choir_groups (event_id, name) VALUES ($1, $2) RETURNING id`, p.EventID, p.Name).Scan(&id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return Group{}, apperr.NotFound("event not found")
		}
		return Group{}, fmt.Errorf("failed to create group: %w", err)
	}
	if err := insertMembers(ctx, tx, id, p.ClassIDs); err != nil {
		return Group{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Group{}, fmt.Errorf("failed to commit group: %w", err)
	}
	return r.GetGroup(ctx, id)
}

// UpdateGroup renames a group and replaces its member list
func (r *Repository) UpdateGroup(ctx context.Context, id uuid.UUID, p GroupParams) (Group, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Group{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `UPDATE choir_groups SET name = $2, updated_at = now() WHERE id = $1`, id, p.Name)
	if err != nil {
		return Group{}, fmt.Errorf("failed to update group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Group{}, apperr.NotFound(groupNotFoundMsg)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM choir_group_members WHERE group_id = $1`, id); err != nil {
		return Group{}, fmt.Errorf("failed to clear group members: %w", err)
	}
	if err := insertMembers(ctx, tx, id, p.ClassIDs); err != nil {
		return Group{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Group{}, fmt.Errorf("failed to commit group: %w", err)
	}
	return r.GetGroup(ctx, id)
}

// DeleteGroup removes a group; members and group songs cascade
func (r *Repository) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM choir_groups WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return apperr.Conflict("group still has audio files")
		}
		return fmt.Errorf("failed to delete group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(groupNotFoundMsg)
	}
	return nil
}

func insertMembers(ctx context.Context, tx pgx.Tx, groupID uuid.UUID, classIDs []uuid.UUID) error {
	for _, classID := range classIDs {
		_, err := tx.Exec(ctx, `
			INSERT INTO choir_group_members (group_id, class_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, groupID, classID)
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				return apperr.NotFound(classNotFoundMsg)
			}
			return fmt.Errorf("failed to add group member: %w", err)
		}
	}
	return nil
}
