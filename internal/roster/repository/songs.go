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

// Song represents a song sung by one class or one group
type Song struct {
	ID         uuid.UUID  `db:"id"`
	EventID    uuid.UUID  `db:"event_id"`
	ClassID    *uuid.UUID `db:"class_id"`
	GroupID    *uuid.UUID `db:"group_id"`
	Title      string     `db:"title"`
	Artist     *string    `db:"artist"`
	Notes      *string    `db:"notes"`
	AlbumOrder int        `db:"album_order"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
}

const (
	songNotFoundMsg = "song not found"
	songColumns     = `id, event_id, class_id, group_id, title, artist, notes, album_order, created_at, updated_at`
)

func scanSong(row pgx.Row) (Song, error) {
	var s Song
	err := row.Scan(&s.ID, &s.EventID, &s.ClassID, &s.GroupID, &s.Title, &s.Artist, &s.Notes,
		&s.AlbumOrder, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// GetSong retrieves a song by ID
func (r *Repository) GetSong(ctx context.Context, id uuid.UUID) (Song, error) {
	s, err := scanSong(r.pool.QueryRow(ctx, `SELECT `+songColumns+` FROM songs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Song{}, apperr.NotFound(songNotFoundMsg)
		}
		return Song{}, fmt.Errorf("failed to get song: %w", err)
	}
	return s, nil
}

// ListSongs returns the songs of an event in album order
func (r *Repository) ListSongs(ctx context.Context, eventID uuid.UUID) ([]Song, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+songColumns+` FROM songs
		WHERE event_id = $1
		ORDER BY album_order ASC, created_at ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}
	defer rows.Close()

	items := make([]Song, 0)
	for rows.Next() {
		s, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// CreateSong appends a song to the end of the event's album
func (r *Repository) CreateSong(ctx context.Context, p SongParams) (Song, error) {
	query := `
		INSERT INTO songs (event_id, class_id, group_id, title, artist, notes, album_order)
		VALUES ($1, $2, $3, $4, $5, $6,
			(SELECT COALESCE(MAX(album_order), 0) + 1 FROM songs WHERE event_id = $1))
		RETURNING ` + songColumns

	s, err := scanSong(r.pool.QueryRow(ctx, query, p.EventID, p.ClassID, p.GroupID, p.Title, p.Artist, p.Notes))
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return Song{}, apperr.NotFound("choir target not found")
		}
		return Song{}, fmt.Errorf("failed to create song: %w", err)
	}
	return s, nil
}

// UpdateSong updates the song's target and texts; album order is untouched
func (r *Repository) UpdateSong(ctx context.Context, id uuid.UUID, p SongParams) (Song, error) {
	query := `
		UPDATE songs SET class_id = $2, group_id = $3, title = $4, artist = $5, notes = $6, updated_at = now()
		WHERE id = $1
		RETURNING ` + songColumns

	s, err := scanSong(r.pool.QueryRow(ctx, query, id, p.ClassID, p.GroupID, p.Title, p.Artist, p.Notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Song{}, apperr.NotFound(songNotFoundMsg)
		}
		if db.IsForeignKeyViolation(err) {
			return Song{}, apperr.NotFound("choir target not found")
		}
		return Song{}, fmt.Errorf("failed to update song: %w", err)
	}
	return s, nil
}

// DeleteSong removes a song
func (r *Repository) DeleteSong(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM songs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(songNotFoundMsg)
	}
	return nil
}

// ReorderSongs numbers the given songs 1..n in one transaction
func (r *Repository) ReorderSongs(ctx context.Context, eventID uuid.UUID, ordered []uuid.UUID) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for i, id := range ordered {
		tag, err := tx.Exec(ctx, `
			UPDATE songs SET album_order = $3, updated_at = now()
			WHERE id = $1 AND event_id = $2`, id, eventID, i+1)
		if err != nil {
			return fmt.Errorf("failed to reorder songs: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound(songNotFoundMsg)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit song order: %w", err)
	}
	return nil
}
