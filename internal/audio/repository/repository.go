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

// AudioFile represents the audio file database model
type AudioFile struct {
	ID                uuid.UUID  `db:"id"`
	EventID           uuid.UUID  `db:"event_id"`
	ClassID           *uuid.UUID `db:"class_id"`
	GroupID           *uuid.UUID `db:"group_id"`
	Type              string     `db:"type"`
	StorageKey        string     `db:"storage_key"`
	Filename          string     `db:"filename"`
	Format            string     `db:"format"`
	Status            string     `db:"status"`
	ApprovalStatus    string     `db:"approval_status"`
	TeacherApprovedAt *time.Time `db:"teacher_approved_at"`
	IsSchulsong       bool       `db:"is_schulsong"`
	UploadedBy        string     `db:"uploaded_by"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

// Repository provides database operations for audio files
type Repository struct {
	pool *pgxpool.Pool
}

const (
	audioFileNotFoundMsg = "audio file not found"
	audioFileColumns     = `id, event_id, class_id, group_id, type, storage_key, filename, format, status,
		approval_status, teacher_approved_at, is_schulsong, uploaded_by, created_at, updated_at`
)

// New creates a new audio repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ AudioRepository = (*Repository)(nil)

func scanAudioFile(row pgx.Row) (AudioFile, error) {
	var f AudioFile
	err := row.Scan(
		&f.ID, &f.EventID, &f.ClassID, &f.GroupID, &f.Type, &f.StorageKey, &f.Filename, &f.Format, &f.Status,
		&f.ApprovalStatus, &f.TeacherApprovedAt, &f.IsSchulsong, &f.UploadedBy, &f.CreatedAt, &f.UpdatedAt,
	)
	return f, err
}

func (r *Repository) one(ctx context.Context, op, query string, args ...interface{}) (AudioFile, error) {
	f, err := scanAudioFile(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AudioFile{}, apperr.NotFound(audioFileNotFoundMsg)
		}
		return AudioFile{}, fmt.Errorf("failed to %s audio file: %w", op, err)
	}
	return f, nil
}

// GetByID retrieves an audio file by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (AudioFile, error) {
	return r.one(ctx, "get", `SELECT `+audioFileColumns+` FROM audio_files WHERE id = $1`, id)
}

// ListByEvent returns every audio file of an event, oldest first
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]AudioFile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+audioFileColumns+` FROM audio_files
		WHERE event_id = $1
		ORDER BY created_at ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audio files: %w", err)
	}
	defer rows.Close()

	items := make([]AudioFile, 0)
	for rows.Next() {
		f, err := scanAudioFile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audio file: %w", err)
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

// Upsert stores a confirmed upload as ready. Replacing an existing key resets
// both approvals since the binary changed.
func (r *Repository) Upsert(ctx context.Context, p UpsertParams) (AudioFile, error) {
	query := `
		INSERT INTO audio_files (
			event_id, class_id, group_id, type, storage_key, filename, format, status, is_schulsong, uploaded_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, 'ready', $8, $9)
		ON CONFLICT (storage_key) DO UPDATE SET
			filename = EXCLUDED.filename,
			format = EXCLUDED.format,
			status = 'ready',
			approval_status = 'pending',
			teacher_approved_at = NULL,
			uploaded_by = EXCLUDED.uploaded_by,
			updated_at = now()
		RETURNING ` + audioFileColumns

	f, err := scanAudioFile(r.pool.QueryRow(ctx, query,
		p.EventID, p.ClassID, p.GroupID, p.Type, p.StorageKey, p.Filename, p.Format, p.IsSchulsong, p.UploadedBy,
	))
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return AudioFile{}, apperr.NotFound("event or choir target not found")
		}
		return AudioFile{}, fmt.Errorf("failed to upsert audio file: %w", err)
	}
	return f, nil
}

// SetApproval records the admin decision on a file
func (r *Repository) SetApproval(ctx context.Context, id uuid.UUID, approval string) (AudioFile, error) {
	return r.one(ctx, "approve", `
		UPDATE audio_files SET approval_status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+audioFileColumns, id, approval)
}

// SetTeacherApproved stamps the teacher approval once; later calls keep the
// first timestamp.
func (r *Repository) SetTeacherApproved(ctx context.Context, id uuid.UUID, at time.Time) (AudioFile, error) {
	return r.one(ctx, "approve", `
		UPDATE audio_files SET teacher_approved_at = COALESCE(teacher_approved_at, $2), updated_at = now()
		WHERE id = $1
		RETURNING `+audioFileColumns, id, at)
}

// Delete removes an audio file record
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM audio_files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete audio file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(audioFileNotFoundMsg)
	}
	return nil
}

// ListEventIDsAtStage returns active events whose cached stage equals stage
func (r *Repository) ListEventIDsAtStage(ctx context.Context, stage string) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM events
		WHERE status = 'active' AND pipeline_stage = $1
		ORDER BY event_date ASC`, stage)
	if err != nil {
		return nil, fmt.Errorf("failed to list events at stage: %w", err)
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
